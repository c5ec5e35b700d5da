package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbiter/adapters/memory"
	"arbiter/app"
	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/internal"
	"arbiter/internal/errors"
	"arbiter/internal/evaluation"
	"arbiter/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func corpus() []block.Block {
	return []block.Block{
		{ID: "commit-mandate", Source: "system.md", Tier: block.TierSystem, Category: block.CategoryWorkflow,
			Text: "ALWAYS use git commit", Modality: block.ModalityMandate, Scope: []string{"git"}},
		{ID: "commit-ban", Source: "system.md", Tier: block.TierSystem, Category: block.CategoryBehavioralConstraint,
			Text: "NEVER use git commit directly", Modality: block.ModalityProhibition, Scope: []string{"git"}},
	}
}

func newTestRouter(t *testing.T, judge ports.Judge) *gin.Engine {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	analyzer := app.NewAnalyzer(rules.DefaultRuleSet().MustCompile(), app.WithLogger(logger))

	reg := prometheus.NewRegistry()
	var executor *evaluation.Executor
	if judge != nil {
		executor = evaluation.NewExecutor(judge, evaluation.Options{
			MaxConcurrent: 2,
			Metrics:       evaluation.NewMetrics(reg),
			Logger:        logger,
		})
	}
	svc := app.NewAnalysisService(analyzer, executor, memory.NewTensorRepository(), logger)
	return NewRouter(NewAnalysisHandler(svc, logger), reg, logger)
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)
	w := do(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["judge"])
	assert.Equal(t, rules.DefaultRuleSetName, body["rule_set"])
}

func TestRules(t *testing.T) {
	w := do(t, newTestRouter(t, nil), http.MethodGet, "/api/v1/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body RulesResponse
	decode(t, w, &body)
	assert.Equal(t, rules.DefaultRuleSetName, body.Name)
	assert.Len(t, body.Rules, 5)
	assert.NotEmpty(t, body.Hash)
}

func TestStructuralThenGetRun(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(t, router, http.MethodPost, "/api/v1/analyze/structural", AnalyzeRequest{Blocks: corpus()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result app.AnalysisResult
	decode(t, w, &result)
	assert.Equal(t, [3]int{2, 2, 5}, result.Tensor.Shape())

	w = do(t, router, http.MethodGet, "/api/v1/runs/"+result.RunID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var run ports.RunRecord
	decode(t, w, &run)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, result.Tensor.Len(), run.Tensor.Len())

	w = do(t, router, http.MethodGet, "/api/v1/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []ports.RunSummary `json:"runs"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Runs, 1)
}

func TestStructural_InvalidCorpus(t *testing.T) {
	blocks := append(corpus(), corpus()[0])
	w := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/analyze/structural", AnalyzeRequest{Blocks: blocks})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/structural", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTestRouter(t, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, errors.CodeInvalidInput, body["code"])
}

func TestPending(t *testing.T) {
	w := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/pending", AnalyzeRequest{Blocks: corpus()})
	require.Equal(t, http.StatusOK, w.Code)

	var body PendingResponse
	decode(t, w, &body)
	assert.Equal(t, 3, body.Count)
	assert.Len(t, body.Pending, 3)
	assert.Equal(t, 2, body.Stats.Blocks)
	for _, p := range body.Pending {
		assert.Contains(t, p.Prompt, p.BlockA.Text)
	}
}

func TestAnalyzeWithScores(t *testing.T) {
	router := newTestRouter(t, nil)
	req := map[string]interface{}{
		"blocks": corpus(),
		"scores": []map[string]interface{}{{
			"block_a": "commit-mandate", "block_b": "commit-ban",
			"rule": rules.RuleMandateProhibitionConflict, "score": 0.95, "severity": "critical",
		}},
	}
	w := do(t, router, http.MethodPost, "/api/v1/analyze", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result app.AnalysisResult
	decode(t, w, &result)
	assert.InDelta(t, 0.95, result.Score, 1e-9)

	req["scores"] = []map[string]interface{}{{"block_a": "ghost", "block_b": "commit-ban", "rule": rules.RuleMandateProhibitionConflict, "score": 0.5}}
	w = do(t, router, http.MethodPost, "/api/v1/analyze", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluate(t *testing.T) {
	judge := ports.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		return "```json\n{\"score\": 0.8, \"explanation\": \"overlap\"}\n```", nil
	})
	router := newTestRouter(t, judge)

	w := do(t, router, http.MethodPost, "/api/v1/evaluate", AnalyzeRequest{Blocks: corpus()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		app.AnalysisResult
		Judge evaluation.BatchReport `json:"judge"`
	}
	decode(t, w, &body)
	assert.Equal(t, evaluation.BatchReport{Submitted: 3, Scored: 3}, body.Judge)
	assert.NotEmpty(t, body.RunID)

	w = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "arbiter_judge_calls_total")
}

func TestEvaluate_NoJudge(t *testing.T) {
	w := do(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/evaluate", AnalyzeRequest{Blocks: corpus()})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	w := do(t, newTestRouter(t, nil), http.MethodGet, "/api/v1/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns_BadLimit(t *testing.T) {
	w := do(t, newTestRouter(t, nil), http.MethodGet, "/api/v1/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
