package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/domain/core"
	"arbiter/domain/taxonomy"
	"arbiter/domain/tensor"
	"arbiter/ports"
)

func record(id string, created time.Time) *ports.RunRecord {
	t := tensor.FromScores([]string{"a", "b"}, []string{"r"}, []tensor.TensorEntry{
		{BlockA: "a", BlockB: "b", Rule: "r", Score: 0.5, Severity: taxonomy.SeverityMajor},
	}, 0)
	return &ports.RunRecord{
		ID:           core.RunID(id),
		RuleSet:      "arbiter-builtin",
		SummaryScore: t.SummaryScore(),
		Tensor:       t,
		CreatedAt:    created,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewTensorRepository()
	ctx := context.Background()
	run := record("run-1", time.Now())

	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Tensor, got.Tensor)
	assert.Equal(t, 0.3, got.SummaryScore)

	got.Tensor.Entries[0].Score = 0.99
	again, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, again.Tensor.Entries[0].Score, "stored runs are isolated from callers")
}

func TestGet_Missing(t *testing.T) {
	_, err := NewTensorRepository().Get(context.Background(), "nope")
	assert.True(t, core.IsNotFoundError(err))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	repo := NewTensorRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Save(ctx, record(id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.RunID("new"), all[0].ID)
	assert.Equal(t, 1, all[0].Entries)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, core.RunID("mid"), limited[1].ID)
}
