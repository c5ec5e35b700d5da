package memory

import (
	"context"
	"sort"
	"sync"

	"arbiter/domain/core"
	"arbiter/domain/tensor"
	"arbiter/ports"
)

// TensorRepository keeps runs in process memory. Records are deep-copied
// through the tensor's JSON form so callers cannot mutate stored runs.
type TensorRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*ports.RunRecord
}

// NewTensorRepository creates an empty repository
func NewTensorRepository() *TensorRepository {
	return &TensorRepository{runs: make(map[core.RunID]*ports.RunRecord)}
}

var _ ports.TensorRepository = (*TensorRepository)(nil)

// Save stores or replaces a run
func (r *TensorRepository) Save(ctx context.Context, run *ports.RunRecord) error {
	stored, err := cloneRecord(run)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = stored
	return nil
}

// Get returns a copy of a stored run
func (r *TensorRepository) Get(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	r.mu.RLock()
	run, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return cloneRecord(run)
}

// List returns run summaries, newest first
func (r *TensorRepository) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	r.mu.RLock()
	out := make([]ports.RunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(run *ports.RunRecord) (*ports.RunRecord, error) {
	clone := *run
	if run.Tensor != nil {
		data, err := run.Tensor.ToJSON()
		if err != nil {
			return nil, err
		}
		if clone.Tensor, err = tensor.FromJSON(data); err != nil {
			return nil, err
		}
	}
	return &clone, nil
}
