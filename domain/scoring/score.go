package scoring

import (
	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/domain/taxonomy"
	"arbiter/domain/tensor"
)

// BlockScore is the result of evaluating one rule against one block pair.
// BlockA and BlockB keep the ordering the pre-filter selected.
type BlockScore struct {
	BlockA      string            `json:"block_a"`
	BlockB      string            `json:"block_b"`
	Rule        string            `json:"rule"`
	Score       float64           `json:"score"`
	Severity    taxonomy.Severity `json:"severity"`
	Explanation string            `json:"explanation,omitempty"`
}

// Entry converts the score into a tensor entry
func (s BlockScore) Entry() tensor.TensorEntry {
	return tensor.TensorEntry{
		BlockA:      s.BlockA,
		BlockB:      s.BlockB,
		Rule:        s.Rule,
		Score:       s.Score,
		Severity:    s.Severity,
		Explanation: s.Explanation,
	}
}

func newScore(a, b block.Block, rule rules.EvaluationRule, score float64, explanation string) BlockScore {
	return BlockScore{
		BlockA:      a.ID,
		BlockB:      b.ID,
		Rule:        rule.Name,
		Score:       clamp(score),
		Severity:    rule.Severity,
		Explanation: explanation,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
