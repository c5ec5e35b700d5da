package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/domain/core"
	"arbiter/domain/taxonomy"
	"arbiter/domain/tensor"
	"arbiter/internal/migration"
	"arbiter/ports"
)

// openTestDB connects to DATABASE_URL and resets the schema, skipping when unset
func openTestDB(t *testing.T) ports.TensorRepository {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := migration.NewRunner()
	require.NoError(t, runner.Reset(ctx, db))
	require.NoError(t, runner.Run(ctx, db))
	return NewTensorRepository(db)
}

func TestTensorRepository_SaveGetList(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	tn := tensor.FromScores([]string{"a", "b"}, []string{"r"}, []tensor.TensorEntry{
		{BlockA: "a", BlockB: "b", Rule: "r", Score: 0.95, Severity: taxonomy.SeverityCritical, Explanation: "direct contradiction"},
	}, 0)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	run := &ports.RunRecord{
		ID:           core.NewRunID(),
		RuleSet:      "arbiter-builtin",
		RuleSetHash:  core.NewRuleSetHash([]byte("rules")),
		SummaryScore: tn.SummaryScore(),
		Tensor:       tn,
		CreatedAt:    created,
	}

	require.NoError(t, repo.Save(ctx, run))
	require.NoError(t, repo.Save(ctx, run), "saving twice upserts")

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.Summary(), runs[0])

	_, err = repo.Get(ctx, "missing")
	assert.True(t, core.IsNotFoundError(err))
}
