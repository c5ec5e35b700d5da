package tensor

import (
	"fmt"
	"sort"
	"strings"

	"arbiter/domain/taxonomy"
)

const (
	reportEntriesPerSeverity = 5
	reportExplanationLimit   = 120
)

// SummaryReport renders a human-readable summary of the findings
func (t *InterferenceTensor) SummaryReport() string {
	if len(t.Entries) == 0 {
		return "No interference detected."
	}

	shape := t.Shape()
	var b strings.Builder
	fmt.Fprintf(&b, "Interference tensor: (%d, %d, %d) shape, %d entries\n", shape[0], shape[1], shape[2], len(t.Entries))
	fmt.Fprintf(&b, "Summary score: %.2f\n", t.SummaryScore())
	fmt.Fprintf(&b, "Density: %.1f%%\n", t.Density()*100)

	bySeverity := t.BySeverity()
	for _, sev := range taxonomy.Severities() {
		entries := bySeverity[sev]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  %s: %d finding(s)", sev, len(entries))
		for _, e := range topByScore(entries, reportEntriesPerSeverity) {
			fmt.Fprintf(&b, "\n    %s <-> %s [%s]: %.2f", e.BlockA, e.BlockB, e.Rule, e.Score)
			if e.Explanation != "" {
				fmt.Fprintf(&b, "\n      %s", Truncate(e.Explanation, reportExplanationLimit))
			}
		}
	}
	return b.String()
}

func topByScore(entries []TensorEntry, n int) []TensorEntry {
	sorted := make([]TensorEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Truncate cuts s to at most limit runes
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
