package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"arbiter/domain/block"
	"arbiter/domain/core"
	"arbiter/domain/rules"
)

const (
	// UncertainScore is assigned when the judge's reply cannot be read
	UncertainScore = 0.5

	rawExcerptLimit = 200
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// BuildPrompt fills the rule's template with the blocks' text.
// Only the two placeholders are replaced; every other brace is literal.
func BuildPrompt(a, b block.Block, rule rules.EvaluationRule) string {
	r := strings.NewReplacer(
		rules.PlaceholderBlockA, a.Text,
		rules.PlaceholderBlockB, b.Text,
	)
	return r.Replace(rule.PromptTemplate)
}

// VerdictKind distinguishes a readable judge verdict from a fallback
type VerdictKind int

const (
	VerdictScored VerdictKind = iota
	VerdictUncertain
)

func (k VerdictKind) String() string {
	if k == VerdictUncertain {
		return "uncertain"
	}
	return "scored"
}

// Verdict is the interpreted judge reply
type Verdict struct {
	Kind        VerdictKind
	Score       float64
	Explanation string
}

// Uncertain reports whether the reply could not be parsed
func (v Verdict) Uncertain() bool {
	return v.Kind == VerdictUncertain
}

// ParseVerdict interprets a raw judge reply.
//
// A fenced code block is unwrapped first when present. A reply that is not
// a JSON object yields an Uncertain verdict at 0.5 carrying an excerpt of
// the raw text. A JSON object whose score is missing or not numeric scores
// 0.5 as well, but stays Scored. Scores are clamped to [0, 1].
func ParseVerdict(raw string) Verdict {
	content := extractJSON(raw)
	if !gjson.Valid(content) || !gjson.Parse(content).IsObject() {
		return Verdict{
			Kind:        VerdictUncertain,
			Score:       UncertainScore,
			Explanation: "Unparseable LLM response: " + excerpt(raw, rawExcerptLimit),
		}
	}

	doc := gjson.Parse(content)
	v := Verdict{Kind: VerdictScored, Score: readScore(doc.Get("score"))}
	if exp := doc.Get("explanation"); exp.Exists() && exp.Type != gjson.Null {
		v.Explanation = exp.String()
	}
	return v
}

// ParseJudgeResponse turns a raw judge reply into a score for the pair.
// It never fails; unreadable replies become 0.5.
func ParseJudgeResponse(raw string, a, b block.Block, rule rules.EvaluationRule) BlockScore {
	v := ParseVerdict(raw)
	return newScore(a, b, rule, v.Score, v.Explanation)
}

// ParseJudgeResponseStrict is ParseJudgeResponse but reports unreadable
// replies as core.ErrUnparseableJudgeResponse instead of scoring them.
func ParseJudgeResponseStrict(raw string, a, b block.Block, rule rules.EvaluationRule) (BlockScore, error) {
	v := ParseVerdict(raw)
	if v.Uncertain() {
		return BlockScore{}, fmt.Errorf("%w: rule %s on %s/%s: %q",
			core.ErrUnparseableJudgeResponse, rule.Name, a.ID, b.ID, excerpt(raw, rawExcerptLimit))
	}
	return newScore(a, b, rule, v.Score, v.Explanation), nil
}

func readScore(r gjson.Result) float64 {
	var score float64
	switch r.Type {
	case gjson.Number:
		score = r.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return UncertainScore
		}
		score = parsed
	default:
		return UncertainScore
	}
	if math.IsNaN(score) {
		return UncertainScore
	}
	return clamp(score)
}

// extractJSON strips a markdown code fence around the payload if one exists
func extractJSON(raw string) string {
	if m := fencedBlockPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

func excerpt(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
