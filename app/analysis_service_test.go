package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/adapters/memory"
	"arbiter/domain/core"
	"arbiter/domain/rules"
	"arbiter/domain/scoring"
	"arbiter/domain/taxonomy"
	"arbiter/internal"
	apperrors "arbiter/internal/errors"
	"arbiter/internal/evaluation"
	"arbiter/ports"
)

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func TestAnalysisService_RunFullStoresResult(t *testing.T) {
	judge := ports.JudgeFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"score": 0.95, "explanation": "direct contradiction"}`, nil
	})
	executor := evaluation.NewExecutor(judge, evaluation.Options{MaxConcurrent: 2, Logger: quietLogger()})
	repo := memory.NewTensorRepository()
	svc := NewAnalysisService(newTestAnalyzer(), executor, repo, quietLogger())

	result, report, err := svc.RunFull(context.Background(), gitCorpus())
	require.NoError(t, err)

	assert.Equal(t, evaluation.BatchReport{Submitted: 3, Scored: 3, Dropped: 0}, report)
	assert.InDelta(t, 0.95, result.Score, 1e-9)

	stored, err := svc.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Tensor, stored.Tensor)
	assert.Equal(t, result.RuleSetHash, stored.RuleSetHash)

	runs, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
}

func TestAnalysisService_WithoutJudge(t *testing.T) {
	svc := NewAnalysisService(newTestAnalyzer(), nil, nil, quietLogger())
	assert.False(t, svc.JudgeAvailable())

	_, _, err := svc.RunFull(context.Background(), gitCorpus())
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	result, err := svc.RunStructural(context.Background(), gitCorpus())
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultRuleSetName, result.RuleSet)

	_, err = svc.Get(context.Background(), result.RunID)
	assert.True(t, core.IsNotFoundError(err))

	runs, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAnalysisService_RunWithScores(t *testing.T) {
	repo := memory.NewTensorRepository()
	svc := NewAnalysisService(newTestAnalyzer(), nil, repo, quietLogger())

	scores := []scoring.BlockScore{{
		BlockA: "commit-mandate", BlockB: "commit-ban",
		Rule: rules.RuleMandateProhibitionConflict, Score: 0.9, Severity: taxonomy.SeverityCritical,
	}}
	result, err := svc.RunWithScores(context.Background(), gitCorpus(), scores)
	require.NoError(t, err)
	assert.Len(t, result.Tensor.ByRule()[rules.RuleMandateProhibitionConflict], 1)

	_, err = repo.Get(context.Background(), result.RunID)
	require.NoError(t, err)

	scores[0].Rule = "made-up"
	_, err = svc.RunWithScores(context.Background(), gitCorpus(), scores)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
