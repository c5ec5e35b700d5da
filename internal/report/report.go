package report

import (
	"fmt"
	"strings"
	"time"

	"arbiter/domain/taxonomy"
	"arbiter/domain/tensor"
	"arbiter/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const explanationLimit = 160

// Markdown renders a stored run as a markdown document: run header,
// score statistics, and one findings table per severity
func Markdown(run *ports.RunRecord) string {
	var b strings.Builder
	t := run.Tensor
	if t == nil {
		t = tensor.New(nil, nil)
	}

	fmt.Fprintf(&b, "# Interference report %s\n\n", run.ID)
	fmt.Fprintf(&b, "- Rule set: `%s` (%s)\n", run.RuleSet, run.RuleSetHash.Short())
	fmt.Fprintf(&b, "- Created: %s\n", run.CreatedAt.UTC().Format(time.RFC3339))
	shape := t.Shape()
	fmt.Fprintf(&b, "- Shape: %d blocks x %d rules, %d entries\n", shape[0], shape[2], t.Len())
	fmt.Fprintf(&b, "- Summary score: **%.2f**\n", run.SummaryScore)
	fmt.Fprintf(&b, "- Density: %.1f%%\n\n", t.Density()*100)

	if t.Len() == 0 {
		b.WriteString("No interference detected.\n")
		return b.String()
	}

	stats := t.Stats()
	b.WriteString("## Scores\n\n")
	b.WriteString("| max | mean | median | p90 | weighted mean |\n")
	b.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f | %.2f |\n\n", stats.Max, stats.Mean, stats.Median, stats.P90, stats.WeightedMean)

	bySeverity := t.BySeverity()
	for _, sev := range taxonomy.Severities() {
		entries := bySeverity[sev]
		if len(entries) == 0 {
			continue
		}
		view := &tensor.InterferenceTensor{Entries: entries}
		fmt.Fprintf(&b, "## %s (%d)\n\n", heading(string(sev)), len(entries))
		b.WriteString("| block A | block B | rule | score | explanation |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, e := range view.TopN(len(entries)) {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s |\n",
				cell(e.BlockA), cell(e.BlockB), cell(e.Rule), e.Score,
				cell(tensor.Truncate(e.Explanation, explanationLimit)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func HTML(run *ports.RunRecord) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML})
	return markdown.ToHTML([]byte(Markdown(run)), p, renderer)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func heading(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
