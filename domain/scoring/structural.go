package scoring

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"arbiter/domain/block"
	"arbiter/domain/rules"
)

var priorityMarkerPattern = regexp.MustCompile(`\b(IMPORTANT|CRITICAL|MUST|NEVER|ALWAYS|REQUIRED)\b`)

// verbatimFloor is the similarity ratio below which duplication scores zero
const verbatimFloor = 0.5

// EvaluateStructural runs the in-process check behind a structural rule.
// The second return value is false when the rule has no structural check
// (judge rules, unknown structural rules); no score is produced then.
func EvaluateStructural(a, b block.Block, rule rules.EvaluationRule) (BlockScore, bool) {
	var score float64
	switch rule.StructuralCheck() {
	case rules.CheckPriorityMarkerAmbiguity:
		score = PriorityMarkerScore(a.Text, b.Text)
	case rules.CheckVerbatimDuplication:
		score = VerbatimDuplicationScore(a.Text, b.Text)
	default:
		return BlockScore{}, false
	}

	var explanation string
	if score > 0 {
		explanation = "Structural check: " + rule.Name
	}
	return newScore(a, b, rule, score, explanation), true
}

// PriorityMarkers returns the distinct priority markers in text, uppercased
func PriorityMarkers(text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, m := range priorityMarkerPattern.FindAllString(strings.ToUpper(text), -1) {
		found[m] = struct{}{}
	}
	return found
}

// PriorityMarkerScore is 0 unless both texts carry markers. Disjoint marker
// sets score 0.1; each shared marker adds 0.1 on top of 0.3, capped at 1.
func PriorityMarkerScore(textA, textB string) float64 {
	markersA := PriorityMarkers(textA)
	markersB := PriorityMarkers(textB)
	if len(markersA) == 0 || len(markersB) == 0 {
		return 0
	}

	shared := 0
	for m := range markersA {
		if _, ok := markersB[m]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0.1
	}
	return min(0.3+0.1*float64(shared), 1.0)
}

// SimilarityRatio is the difflib matching ratio of the two texts compared
// character by character
func SimilarityRatio(textA, textB string) float64 {
	m := difflib.NewMatcher(strings.Split(textA, ""), strings.Split(textB, ""))
	return m.Ratio()
}

// VerbatimDuplicationScore maps a similarity ratio in [0.5, 1] onto [0, 1]
func VerbatimDuplicationScore(textA, textB string) float64 {
	ratio := SimilarityRatio(textA, textB)
	if ratio < verbatimFloor {
		return 0
	}
	return (ratio - verbatimFloor) * 2
}
