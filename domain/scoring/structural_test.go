package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/domain/taxonomy"
)

func newBlock(id, text string, modality block.Modality, scope ...string) block.Block {
	return block.Block{
		ID:       id,
		Source:   "prompt.md",
		Tier:     block.TierDomain,
		Category: block.CategoryBehavioralConstraint,
		Text:     text,
		Modality: modality,
		Scope:    scope,
	}
}

func builtinRule(t *testing.T, name string) rules.EvaluationRule {
	t.Helper()
	for _, r := range rules.BuiltinRules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no builtin rule %s", name)
	return rules.EvaluationRule{}
}

func TestPriorityMarkerScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"no markers anywhere", "use tabs", "prefer spaces", 0},
		{"markers on one side only", "IMPORTANT: use tabs", "prefer spaces", 0},
		{"disjoint markers", "ALWAYS use tabs", "NEVER use spaces", 0.1},
		{"one shared marker", "IMPORTANT: you MUST lint", "You MUST format", 0.4},
		{"two shared markers", "IMPORTANT: you MUST lint", "IMPORTANT: you MUST format", 0.5},
		{"case insensitive", "you must lint", "You Must format", 0.4},
		{"word boundaries", "pass the mustard", "MUST eat", 0},
		{
			"all markers shared",
			"IMPORTANT CRITICAL MUST NEVER ALWAYS REQUIRED",
			"required always never must critical important",
			0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriorityMarkerScore(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, got, PriorityMarkerScore(tt.b, tt.a), 1e-9)
		})
	}
}

func TestVerbatimDuplicationScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Always run the tests.", "Always run the tests.", 1},
		{"disjoint", "aaaa", "bbbb", 0},
		{"three of four characters", "abcd", "abce", 0.5},
		{"ratio exactly at floor", "ab", "ac", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VerbatimDuplicationScore(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarityRatio_HandlesMultibyteText(t *testing.T) {
	assert.InDelta(t, 1.0, SimilarityRatio("naïve café", "naïve café"), 1e-9)
	assert.InDelta(t, 2.0/3.0, SimilarityRatio("ä", "äö"), 1e-9)
}

func TestEvaluateStructural_PriorityMarkers(t *testing.T) {
	rule := builtinRule(t, rules.RulePriorityMarkerAmbiguity)
	a := newBlock("a", "IMPORTANT: you MUST lint", block.ModalityMandate)
	b := newBlock("b", "You MUST format", block.ModalityMandate)

	s, ok := EvaluateStructural(a, b, rule)

	require.True(t, ok)
	assert.Equal(t, "a", s.BlockA)
	assert.Equal(t, "b", s.BlockB)
	assert.Equal(t, rules.RulePriorityMarkerAmbiguity, s.Rule)
	assert.Equal(t, taxonomy.SeverityMinor, s.Severity)
	assert.InDelta(t, 0.4, s.Score, 1e-9)
	assert.Equal(t, "Structural check: priority-marker-ambiguity", s.Explanation)
}

func TestEvaluateStructural_ZeroScoreHasNoExplanation(t *testing.T) {
	rule := builtinRule(t, rules.RuleVerbatimDuplication)
	s, ok := EvaluateStructural(newBlock("a", "aaaa", block.ModalityMixed), newBlock("b", "bbbb", block.ModalityMixed), rule)

	require.True(t, ok)
	assert.Equal(t, 0.0, s.Score)
	assert.Empty(t, s.Explanation)
}

func TestEvaluateStructural_NotApplicable(t *testing.T) {
	a := newBlock("a", "x", block.ModalityMandate)
	b := newBlock("b", "x", block.ModalityMandate)

	_, ok := EvaluateStructural(a, b, builtinRule(t, rules.RuleScopeOverlapRedundancy))
	assert.False(t, ok, "judge rules have no structural check")

	custom := rules.EvaluationRule{
		Name:             "custom-structural",
		InterferenceType: taxonomy.OrderingSensitivity,
		Severity:         taxonomy.SeverityMinor,
	}
	_, ok = EvaluateStructural(a, b, custom)
	assert.False(t, ok, "unknown structural rules are skipped")
}

func TestEvaluateAllStructural(t *testing.T) {
	compiled := rules.DefaultRuleSet().MustCompile()
	dup := "Always run go vet before committing any change to the repository."
	blocks := []block.Block{
		newBlock("a", dup, block.ModalityMandate, "git"),
		newBlock("b", dup, block.ModalityMandate, "git"),
		newBlock("c", "Respond in English.", block.ModalityDefinition, "language"),
	}

	scores := EvaluateAllStructural(blocks, compiled)

	require.NotEmpty(t, scores)
	for _, s := range scores {
		assert.Greater(t, s.Score, 0.0)
		r, ok := compiled.Rule(s.Rule)
		require.True(t, ok)
		assert.False(t, r.RequiresLLM)
	}

	var foundDup bool
	for _, s := range scores {
		if s.Rule == rules.RuleVerbatimDuplication && s.BlockA == "a" && s.BlockB == "b" {
			foundDup = true
			assert.InDelta(t, 1.0, s.Score, 1e-9)
		}
	}
	assert.True(t, foundDup)
}

func TestEvaluateAllStructural_NoStructuralRules(t *testing.T) {
	var judgeOnly []rules.EvaluationRule
	for _, r := range rules.BuiltinRules() {
		if r.RequiresLLM {
			judgeOnly = append(judgeOnly, r)
		}
	}
	compiled := rules.RuleSet{Name: "judge-only", Rules: judgeOnly}.MustCompile()
	blocks := []block.Block{
		newBlock("a", strings.Repeat("MUST ", 3), block.ModalityMandate, "x"),
		newBlock("b", strings.Repeat("MUST ", 3), block.ModalityMandate, "x"),
	}

	assert.Empty(t, EvaluateAllStructural(blocks, compiled))
}
