package scoring

import (
	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/domain/tensor"
)

// PendingEvaluation is a judge call that still has to be made
type PendingEvaluation struct {
	BlockA block.Block          `json:"block_a"`
	BlockB block.Block          `json:"block_b"`
	Rule   rules.EvaluationRule `json:"rule"`
	Prompt string               `json:"prompt"`
}

// Key identifies the evaluation as "a|b|rule"
func (p PendingEvaluation) Key() string {
	return p.BlockA.ID + "|" + p.BlockB.ID + "|" + p.Rule.Name
}

// EvaluateAllStructural scores every structural triple the pre-filter
// selects. Triples whose rule has no structural check and zero scores are
// left out.
func EvaluateAllStructural(blocks []block.Block, compiled *rules.CompiledRuleSet) []BlockScore {
	var scores []BlockScore
	for _, t := range compiled.ApplicablePairs(blocks) {
		if t.Rule.RequiresLLM {
			continue
		}
		s, ok := EvaluateStructural(t.A, t.B, t.Rule)
		if !ok || s.Score <= 0 {
			continue
		}
		scores = append(scores, s)
	}
	return scores
}

// PendingEvaluations lists every judge triple the pre-filter selects with
// its rendered prompt
func PendingEvaluations(blocks []block.Block, compiled *rules.CompiledRuleSet) []PendingEvaluation {
	var pending []PendingEvaluation
	for _, t := range compiled.ApplicablePairs(blocks) {
		if !t.Rule.RequiresLLM {
			continue
		}
		pending = append(pending, PendingEvaluation{
			BlockA: t.A,
			BlockB: t.B,
			Rule:   t.Rule,
			Prompt: BuildPrompt(t.A, t.B, t.Rule),
		})
	}
	return pending
}

// AssembleTensor builds a tensor over the corpus and rule set axes,
// keeping scores strictly above threshold
func AssembleTensor(blocks []block.Block, compiled *rules.CompiledRuleSet, scores []BlockScore, threshold float64) *tensor.InterferenceTensor {
	entries := make([]tensor.TensorEntry, len(scores))
	for i, s := range scores {
		entries[i] = s.Entry()
	}
	return tensor.FromScores(block.IDs(blocks), compiled.Names(), entries, threshold)
}
