package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"arbiter/domain/core"
	"arbiter/domain/tensor"
	"arbiter/internal/errors"
	"arbiter/ports"
)

// Connect opens and pings a Postgres database
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	return db, nil
}

// TensorRepositoryImpl implements TensorRepository for PostgreSQL.
// The tensor is stored whole as JSONB next to its listing columns.
type TensorRepositoryImpl struct {
	db *sqlx.DB
}

// NewTensorRepository creates a new PostgreSQL tensor repository
func NewTensorRepository(db *sqlx.DB) ports.TensorRepository {
	return &TensorRepositoryImpl{db: db}
}

type runRow struct {
	ID           string    `db:"id"`
	RuleSet      string    `db:"rule_set"`
	RuleSetHash  string    `db:"rule_set_hash"`
	SummaryScore float64   `db:"summary_score"`
	Entries      int       `db:"entries"`
	Tensor       []byte    `db:"tensor"`
	CreatedAt    time.Time `db:"created_at"`
}

// Save upserts a run
func (r *TensorRepositoryImpl) Save(ctx context.Context, run *ports.RunRecord) error {
	t := run.Tensor
	if t == nil {
		t = tensor.New(nil, nil)
	}
	data, err := t.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode tensor")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO analysis_runs (id, rule_set, rule_set_hash, summary_score, entries, tensor, created_at)
		VALUES (:id, :rule_set, :rule_set_hash, :summary_score, :entries, :tensor, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			rule_set = EXCLUDED.rule_set,
			rule_set_hash = EXCLUDED.rule_set_hash,
			summary_score = EXCLUDED.summary_score,
			entries = EXCLUDED.entries,
			tensor = EXCLUDED.tensor,
			created_at = EXCLUDED.created_at
	`, runRow{
		ID:           run.ID.String(),
		RuleSet:      run.RuleSet,
		RuleSetHash:  run.RuleSetHash.String(),
		SummaryScore: run.SummaryScore,
		Entries:      t.Len(),
		Tensor:       data,
		CreatedAt:    run.CreatedAt,
	})
	if err != nil {
		return errors.DatabaseError("failed to save run", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *TensorRepositoryImpl) Get(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, rule_set, rule_set_hash, summary_score, entries, tensor, created_at
		FROM analysis_runs
		WHERE id = $1
	`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load run", err)
	}

	t, err := tensor.FromJSON(row.Tensor)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s has a corrupt tensor", row.ID)
	}
	return &ports.RunRecord{
		ID:           core.RunID(row.ID),
		RuleSet:      row.RuleSet,
		RuleSetHash:  core.RuleSetHash(row.RuleSetHash),
		SummaryScore: row.SummaryScore,
		Tensor:       t,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

// List returns run summaries, newest first
func (r *TensorRepositoryImpl) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	query := `
		SELECT id, rule_set, rule_set_hash, summary_score, entries, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	runs := []ports.RunSummary{}
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	for i := range runs {
		runs[i].CreatedAt = runs[i].CreatedAt.UTC()
	}
	return runs, nil
}
