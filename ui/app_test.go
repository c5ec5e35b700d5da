package ui

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbiter/adapters/memory"
	"arbiter/app"
	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestApp(t *testing.T) (*App, *app.AnalysisResult) {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	analyzer := app.NewAnalyzer(rules.DefaultRuleSet().MustCompile(), app.WithLogger(logger))
	svc := app.NewAnalysisService(analyzer, nil, memory.NewTensorRepository(), logger)

	blocks := []block.Block{
		{ID: "style-a", Source: "a.md", Tier: block.TierSystem, Category: block.CategoryWorkflow,
			Text: "IMPORTANT: answer in English.", Modality: block.ModalityMandate, Scope: []string{"style"}},
		{ID: "style-b", Source: "b.md", Tier: block.TierDomain, Category: block.CategoryWorkflow,
			Text: "IMPORTANT: answer in English.", Modality: block.ModalityMandate, Scope: []string{"style"}},
	}
	result, err := svc.RunStructural(context.Background(), blocks)
	require.NoError(t, err)
	require.NotZero(t, result.Tensor.Len())

	a, err := NewApp(svc, logger)
	require.NoError(t, err)
	return a, result
}

func get(a *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRunsPage(t *testing.T) {
	a, result := newTestApp(t)
	w := get(a, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/reports/"+result.RunID.String())
}

func TestReportPage(t *testing.T) {
	a, result := newTestApp(t)
	w := get(a, "/reports/"+result.RunID.String())
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, rules.RuleVerbatimDuplication)
	assert.Contains(t, body, "tensor.xlsx")
}

func TestMarkdownDownload(t *testing.T) {
	a, result := newTestApp(t)
	w := get(a, "/reports/"+result.RunID.String()+"/report.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# Interference report "+result.RunID.String())
}

func TestWorkbookDownload(t *testing.T) {
	a, result := newTestApp(t)
	w := get(a, "/reports/"+result.RunID.String()+"/tensor.xlsx")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Entries")
	require.NoError(t, err)
	assert.Len(t, rows, result.Tensor.Len()+1)
}

func TestReportNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, http.StatusNotFound, get(a, "/reports/missing").Code)
}
