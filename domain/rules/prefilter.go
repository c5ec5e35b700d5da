package rules

import (
	"arbiter/domain/block"
)

// Triple is one (block, block, rule) candidate selected by the pre-filter.
// A and B carry the ordering the rule accepted.
type Triple struct {
	A    block.Block
	B    block.Block
	Rule EvaluationRule
}

// ApplicablePairs enumerates the (block, block, rule) triples worth evaluating.
//
// Only unordered pairs are considered (no self-pairs, no duplicates). When a
// rule rejects (a, b) and its two modality filters differ, the reverse
// ordering (b, a) is tried so a mandate/prohibition conflict is caught
// regardless of input order. Rules with equal or absent modality filters are
// not re-checked.
func (c *CompiledRuleSet) ApplicablePairs(blocks []block.Block) []Triple {
	var triples []Triple
	for i := range blocks {
		a := blocks[i]
		for j := i + 1; j < len(blocks); j++ {
			b := blocks[j]
			for _, r := range c.rules {
				if r.AppliesTo(a, b) {
					triples = append(triples, Triple{A: a, B: b, Rule: r})
				} else if r.ModalityA != r.ModalityB && r.AppliesTo(b, a) {
					triples = append(triples, Triple{A: b, B: a, Rule: r})
				}
			}
		}
	}
	return triples
}

// PairStats summarizes how much work the pre-filter eliminated
type PairStats struct {
	Blocks        int `json:"blocks"`
	Rules         int `json:"rules"`
	NaiveMax      int `json:"naive_max"`
	Selected      int `json:"selected"`
	JudgeNaiveMax int `json:"judge_naive_max"`
	JudgeSelected int `json:"judge_selected"`
}

// JudgeReduction is the fraction of the naive judge workload still selected
func (s PairStats) JudgeReduction() float64 {
	if s.JudgeNaiveMax == 0 {
		return 0
	}
	return float64(s.JudgeSelected) / float64(s.JudgeNaiveMax)
}

// PairStats computes pre-filter statistics for blocks against this rule set
func (c *CompiledRuleSet) PairStats(blocks []block.Block, triples []Triple) PairStats {
	n := len(blocks)
	pairs := n * (n - 1) / 2
	stats := PairStats{
		Blocks:        n,
		Rules:         len(c.rules),
		NaiveMax:      pairs * len(c.rules),
		Selected:      len(triples),
		JudgeNaiveMax: pairs * len(c.JudgeRules()),
	}
	for _, t := range triples {
		if t.Rule.RequiresLLM {
			stats.JudgeSelected++
		}
	}
	return stats
}
