package tensor

import (
	"sort"

	"arbiter/domain/taxonomy"
)

// unknownSeverityWeight applies to severities missing from a weight table
const unknownSeverityWeight = 0.5

// SeverityWeights maps severities to the multiplier used for ranking
type SeverityWeights map[taxonomy.Severity]float64

// DefaultSeverityWeights returns critical=1.0, major=0.6, minor=0.3
func DefaultSeverityWeights() SeverityWeights {
	return SeverityWeights{
		taxonomy.SeverityCritical: 1.0,
		taxonomy.SeverityMajor:    0.6,
		taxonomy.SeverityMinor:    0.3,
	}
}

// Weight returns the multiplier for s
func (w SeverityWeights) Weight(s taxonomy.Severity) float64 {
	if v, ok := w[s]; ok {
		return v
	}
	return unknownSeverityWeight
}

// Weighted returns score x severity weight for an entry
func (w SeverityWeights) Weighted(e TensorEntry) float64 {
	return e.Score * w.Weight(e.Severity)
}

// SummaryScore is the maximum severity-weighted score over all entries,
// a worst-single-finding signal. Zero for an empty tensor.
func (t *InterferenceTensor) SummaryScore() float64 {
	return t.SummaryScoreWith(DefaultSeverityWeights())
}

// SummaryScoreWith computes SummaryScore under a custom weight table
func (t *InterferenceTensor) SummaryScoreWith(w SeverityWeights) float64 {
	best := 0.0
	for _, e := range t.Entries {
		if v := w.Weighted(e); v > best {
			best = v
		}
	}
	return best
}

// BySeverity groups entries by severity
func (t *InterferenceTensor) BySeverity() map[taxonomy.Severity][]TensorEntry {
	out := make(map[taxonomy.Severity][]TensorEntry)
	for _, e := range t.Entries {
		out[e.Severity] = append(out[e.Severity], e)
	}
	return out
}

// ByRule groups entries by rule name
func (t *InterferenceTensor) ByRule() map[string][]TensorEntry {
	out := make(map[string][]TensorEntry)
	for _, e := range t.Entries {
		out[e.Rule] = append(out[e.Rule], e)
	}
	return out
}

// ByBlock returns all entries involving blockID
func (t *InterferenceTensor) ByBlock(blockID string) []TensorEntry {
	var out []TensorEntry
	for _, e := range t.Entries {
		if e.Involves(blockID) {
			out = append(out, e)
		}
	}
	return out
}

// TopN returns up to n entries by descending severity-weighted score
func (t *InterferenceTensor) TopN(n int) []TensorEntry {
	return t.TopNWith(n, DefaultSeverityWeights())
}

// TopNWith is TopN under a custom weight table
func (t *InterferenceTensor) TopNWith(n int, w SeverityWeights) []TensorEntry {
	if n <= 0 {
		return []TensorEntry{}
	}
	sorted := make([]TensorEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return w.Weighted(sorted[i]) > w.Weighted(sorted[j])
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
