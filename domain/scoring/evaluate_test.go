package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/domain/taxonomy"
)

func TestPendingEvaluations(t *testing.T) {
	compiled := rules.DefaultRuleSet().MustCompile()
	blocks := []block.Block{
		newBlock("x", "NEVER use git commit directly", block.ModalityProhibition, "git"),
		newBlock("y", "ALWAYS use git commit", block.ModalityMandate, "git"),
	}

	pending := PendingEvaluations(blocks, compiled)

	byRule := map[string]PendingEvaluation{}
	for _, p := range pending {
		assert.True(t, p.Rule.RequiresLLM)
		assert.NotEmpty(t, p.Prompt)
		byRule[p.Rule.Name] = p
	}
	require.Contains(t, byRule, rules.RuleMandateProhibitionConflict)
	require.Contains(t, byRule, rules.RuleScopeOverlapRedundancy)
	require.Contains(t, byRule, rules.RuleImplicitDependencyUnresolved)

	mp := byRule[rules.RuleMandateProhibitionConflict]
	assert.Equal(t, "y", mp.BlockA.ID, "mandate side is always block A")
	assert.Equal(t, "x", mp.BlockB.ID)
	assert.Equal(t, "y|x|"+rules.RuleMandateProhibitionConflict, mp.Key())
	assert.Equal(t, BuildPrompt(mp.BlockA, mp.BlockB, mp.Rule), mp.Prompt)
}

func TestPendingEvaluations_NoOverlap(t *testing.T) {
	compiled := rules.DefaultRuleSet().MustCompile()
	blocks := []block.Block{
		newBlock("x", "NEVER push", block.ModalityProhibition, "git"),
		newBlock("y", "ALWAYS answer in English", block.ModalityMandate, "language"),
	}

	assert.Empty(t, PendingEvaluations(blocks, compiled))
}

func TestAssembleTensor_MandateProhibitionScenario(t *testing.T) {
	compiled := rules.DefaultRuleSet().MustCompile()
	blocks := []block.Block{
		newBlock("commit-mandate", "ALWAYS use git commit", block.ModalityMandate, "git"),
		newBlock("commit-ban", "NEVER use git commit directly", block.ModalityProhibition, "git"),
	}

	var scores []BlockScore
	for _, p := range PendingEvaluations(blocks, compiled) {
		reply := `{"score": 0.0, "explanation": "unrelated"}`
		if p.Rule.Name == rules.RuleMandateProhibitionConflict {
			reply = `{"score": 0.95, "explanation": "direct contradiction"}`
		}
		scores = append(scores, ParseJudgeResponse(reply, p.BlockA, p.BlockB, p.Rule))
	}

	tensor := AssembleTensor(blocks, compiled, scores, 0)

	var critical int
	for _, e := range tensor.Entries {
		if e.Severity == taxonomy.SeverityCritical {
			critical++
			assert.Equal(t, "commit-mandate", e.BlockA)
			assert.Equal(t, "direct contradiction", e.Explanation)
		}
	}
	assert.Equal(t, 1, critical)
	assert.Len(t, tensor.Entries, 1)
	assert.InDelta(t, 0.95, tensor.SummaryScore(), 1e-9)
	assert.Equal(t, [3]int{2, 2, 5}, tensor.Shape())
}

func TestAssembleTensor_Threshold(t *testing.T) {
	compiled := rules.DefaultRuleSet().MustCompile()
	blocks := []block.Block{
		newBlock("a", "x", block.ModalityMixed),
		newBlock("b", "y", block.ModalityMixed),
	}
	scores := []BlockScore{
		{BlockA: "a", BlockB: "b", Rule: rules.RuleVerbatimDuplication, Score: 0.2, Severity: taxonomy.SeverityMinor},
		{BlockA: "a", BlockB: "b", Rule: rules.RulePriorityMarkerAmbiguity, Score: 0.6, Severity: taxonomy.SeverityMinor},
	}

	tensor := AssembleTensor(blocks, compiled, scores, 0.2)

	require.Len(t, tensor.Entries, 1)
	assert.Equal(t, rules.RulePriorityMarkerAmbiguity, tensor.Entries[0].Rule)
}
