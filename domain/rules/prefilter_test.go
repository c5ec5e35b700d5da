package rules

import (
	"fmt"
	"testing"

	"arbiter/domain/block"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock(id string, modality block.Modality, scope ...string) block.Block {
	return block.Block{
		ID:       id,
		Source:   "test",
		Tier:     block.TierDomain,
		Category: block.CategoryBehavioralConstraint,
		Text:     "text of " + id,
		Modality: modality,
		Scope:    scope,
	}
}

func mandateProhibitionOnly(t *testing.T) *CompiledRuleSet {
	t.Helper()
	for _, r := range BuiltinRules() {
		if r.Name == RuleMandateProhibitionConflict {
			return RuleSet{Name: "mp", Rules: []EvaluationRule{r}}.MustCompile()
		}
	}
	t.Fatal("built-in mandate-prohibition rule missing")
	return nil
}

func TestAppliesTo_MandateProhibitionDirectional(t *testing.T) {
	rule := mandateProhibitionOnly(t).Rules()[0]
	mandate := testBlock("m", block.ModalityMandate, "git")
	prohibition := testBlock("p", block.ModalityProhibition, "git")
	unrelated := testBlock("u", block.ModalityProhibition, "network")

	assert.True(t, rule.AppliesTo(mandate, prohibition))
	assert.False(t, rule.AppliesTo(prohibition, mandate))
	assert.False(t, rule.AppliesTo(mandate, unrelated))
}

func TestAppliesTo_ScopeOverlap(t *testing.T) {
	rule := judgeRule("overlap")
	rule.RequiresScopeOverlap = true
	a := testBlock("a", block.ModalityMixed, "git", "safety")
	b := testBlock("b", block.ModalityMixed, "safety")
	c := testBlock("c", block.ModalityMixed, "tone")

	assert.True(t, rule.AppliesTo(a, b))
	assert.False(t, rule.AppliesTo(a, c))
}

func TestAppliesTo_NoScopeRequired(t *testing.T) {
	rule := structuralRule(RuleVerbatimDuplication)
	a := testBlock("a", block.ModalityMandate, "git")
	b := testBlock("b", block.ModalityDefinition, "tone")
	assert.True(t, rule.AppliesTo(a, b))
}

func TestApplicablePairs_OrderIndependentForAsymmetricRule(t *testing.T) {
	compiled := mandateProhibitionOnly(t)
	x := testBlock("x", block.ModalityMandate, "git")
	y := testBlock("y", block.ModalityProhibition, "git")

	forward := compiled.ApplicablePairs([]block.Block{x, y})
	reverse := compiled.ApplicablePairs([]block.Block{y, x})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, "x", forward[0].A.ID)
	assert.Equal(t, "y", forward[0].B.ID)
	assert.Equal(t, "x", reverse[0].A.ID, "reverse enumeration should be re-ordered to mandate first")
	assert.Equal(t, "y", reverse[0].B.ID)
}

func TestApplicablePairs_SymmetricFiltersNotReChecked(t *testing.T) {
	r := judgeRule("both-mandate")
	r.ModalityA = "mandate"
	r.ModalityB = "mandate"
	compiled := RuleSet{Name: "sym", Rules: []EvaluationRule{r}}.MustCompile()

	a := testBlock("a", block.ModalityProhibition)
	b := testBlock("b", block.ModalityMandate)
	assert.Empty(t, compiled.ApplicablePairs([]block.Block{a, b}))
}

func TestApplicablePairs_NoSelfOrDuplicatePairs(t *testing.T) {
	compiled := RuleSet{Name: "one", Rules: []EvaluationRule{structuralRule("any")}}.MustCompile()
	blocks := []block.Block{
		testBlock("a", block.ModalityMixed),
		testBlock("b", block.ModalityMixed),
		testBlock("c", block.ModalityMixed),
	}
	triples := compiled.ApplicablePairs(blocks)
	require.Len(t, triples, 3)

	seen := map[string]bool{}
	for _, tr := range triples {
		assert.NotEqual(t, tr.A.ID, tr.B.ID)
		key := tr.A.ID + "|" + tr.B.ID
		rev := tr.B.ID + "|" + tr.A.ID
		assert.False(t, seen[key] || seen[rev], "duplicate pair %s", key)
		seen[key] = true
	}
}

func TestApplicablePairs_ReducesJudgeWork(t *testing.T) {
	compiled := DefaultRuleSet().MustCompile()
	modalities := []block.Modality{
		block.ModalityMandate, block.ModalityProhibition, block.ModalityPermission,
		block.ModalityDefinition, block.ModalityMixed,
	}

	var blocks []block.Block
	for i := 0; i < 50; i++ {
		blocks = append(blocks, testBlock(
			fmt.Sprintf("b%02d", i),
			modalities[i%len(modalities)],
			fmt.Sprintf("scope-%d", i%10),
		))
	}

	triples := compiled.ApplicablePairs(blocks)
	stats := compiled.PairStats(blocks, triples)

	assert.Equal(t, 50, stats.Blocks)
	assert.Equal(t, 1225*5, stats.NaiveMax)
	assert.Equal(t, 1225*3, stats.JudgeNaiveMax)
	assert.Greater(t, stats.JudgeSelected, 0)
	assert.Less(t, stats.JudgeReduction(), 1.0/3.0)
}

func TestPairStats_Empty(t *testing.T) {
	compiled := DefaultRuleSet().MustCompile()
	stats := compiled.PairStats(nil, nil)
	assert.Equal(t, 0, stats.NaiveMax)
	assert.Equal(t, 0.0, stats.JudgeReduction())
}
