package tensor

import (
	"fmt"

	"arbiter/domain/taxonomy"
)

// TensorEntry is a retained finding: one (block, block, rule) cell whose
// score passed the tensor's threshold. It mirrors scoring.BlockScore but is
// kept separate so evaluation results and persisted findings evolve apart.
type TensorEntry struct {
	BlockA      string            `json:"block_a"`
	BlockB      string            `json:"block_b"`
	Rule        string            `json:"rule"`
	Score       float64           `json:"score"`
	Severity    taxonomy.Severity `json:"severity"`
	Explanation string            `json:"explanation,omitempty"`
}

// Validate checks the score range
func (e TensorEntry) Validate() error {
	if e.Score < 0 || e.Score > 1 {
		return fmt.Errorf("entry %s/%s [%s]: score %v outside [0,1]", e.BlockA, e.BlockB, e.Rule, e.Score)
	}
	return nil
}

// Involves reports whether the entry references blockID on either side
func (e TensorEntry) Involves(blockID string) bool {
	return e.BlockA == blockID || e.BlockB == blockID
}

// InterferenceTensor is a sparse (block, block, rule) -> score structure.
//
// Axes 0 and 1 are block IDs (unordered pairs, no self-pairs); axis 2 is
// rule names. Only entries above the construction threshold are stored.
// Axes can be extended without touching stored entries.
type InterferenceTensor struct {
	BlockIDs  []string      `json:"block_ids"`
	RuleNames []string      `json:"rule_names"`
	Entries   []TensorEntry `json:"entries"`
}

// New creates an empty tensor over the given axes
func New(blockIDs, ruleNames []string) *InterferenceTensor {
	return &InterferenceTensor{
		BlockIDs:  append([]string{}, blockIDs...),
		RuleNames: append([]string{}, ruleNames...),
		Entries:   []TensorEntry{},
	}
}

// FromScores builds a tensor keeping only entries with score strictly
// greater than threshold.
func FromScores(blockIDs, ruleNames []string, entries []TensorEntry, threshold float64) *InterferenceTensor {
	t := New(blockIDs, ruleNames)
	for _, e := range entries {
		if e.Score > threshold {
			t.Entries = append(t.Entries, e)
		}
	}
	return t
}

// Shape returns the logical shape (n_blocks, n_blocks, n_rules)
func (t *InterferenceTensor) Shape() [3]int {
	n := len(t.BlockIDs)
	return [3]int{n, n, len(t.RuleNames)}
}

// Len returns the number of materialized entries
func (t *InterferenceTensor) Len() int {
	return len(t.Entries)
}

// Density is entries / (n(n-1)/2 * rules), or 0 when no slot exists
func (t *InterferenceTensor) Density() float64 {
	n := len(t.BlockIDs)
	possible := n * (n - 1) / 2 * len(t.RuleNames)
	if possible == 0 {
		return 0
	}
	return float64(len(t.Entries)) / float64(possible)
}

// AddBlocks extends axes 0 and 1
func (t *InterferenceTensor) AddBlocks(ids ...string) {
	t.BlockIDs = append(t.BlockIDs, ids...)
}

// AddRules extends axis 2
func (t *InterferenceTensor) AddRules(names ...string) {
	t.RuleNames = append(t.RuleNames, names...)
}

// AddEntries appends findings after validating their scores
func (t *InterferenceTensor) AddEntries(entries ...TensorEntry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	t.Entries = append(t.Entries, entries...)
	return nil
}
