package ports

import (
	"context"
	"time"

	"arbiter/domain/core"
	"arbiter/domain/tensor"
)

// TensorRepository persists analysis runs and their interference tensors
type TensorRepository interface {
	// Save stores a run; saving an existing run ID replaces it
	Save(ctx context.Context, run *RunRecord) error

	// Get retrieves a run, returning core.ErrRunNotFound if absent
	Get(ctx context.Context, id core.RunID) (*RunRecord, error)

	// List returns run summaries, newest first, limited to limit (<=0 means all)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunRecord is a stored analysis run
type RunRecord struct {
	ID           core.RunID                 `json:"id"`
	RuleSet      string                     `json:"rule_set"`
	RuleSetHash  core.RuleSetHash           `json:"rule_set_hash"`
	SummaryScore float64                    `json:"summary_score"`
	Tensor       *tensor.InterferenceTensor `json:"tensor"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID           core.RunID       `json:"id" db:"id"`
	RuleSet      string           `json:"rule_set" db:"rule_set"`
	RuleSetHash  core.RuleSetHash `json:"rule_set_hash" db:"rule_set_hash"`
	SummaryScore float64          `json:"summary_score" db:"summary_score"`
	Entries      int              `json:"entries" db:"entries"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Summary builds the listing view of the record
func (r *RunRecord) Summary() RunSummary {
	entries := 0
	if r.Tensor != nil {
		entries = r.Tensor.Len()
	}
	return RunSummary{
		ID:           r.ID,
		RuleSet:      r.RuleSet,
		RuleSetHash:  r.RuleSetHash,
		SummaryScore: r.SummaryScore,
		Entries:      entries,
		CreatedAt:    r.CreatedAt,
	}
}
