package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"arbiter/adapters/excel"
	"arbiter/adapters/fileio"
	"arbiter/app"
	"arbiter/domain/block"
	"arbiter/internal/container"
	"arbiter/internal/report"
	"arbiter/internal/server"

	"github.com/spf13/cobra"
)

func newRulesCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Compile the rule set and list its rules",
		Long: `Compile the active rule set (built-in or --rules) and list every rule.
Compilation errors are reported all at once.

Example: arbiter rules --rules team-rules.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			compiled, err := fileio.LoadCompiledRuleSet(cfg.Evaluation.RulesFile)
			if err != nil {
				return err
			}
			if asJSON {
				return fileio.WriteJSON("-", map[string]interface{}{
					"name":  compiled.Name(),
					"hash":  compiled.Hash(),
					"rules": compiled.Rules(),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rule set %s (%s), %d rules\n\n", compiled.Name(), compiled.Hash().Short(), compiled.Len())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tSEVERITY\tTYPE\tPRE-FILTER")
			for _, r := range compiled.Rules() {
				kind := "structural"
				if r.RequiresLLM {
					kind = "judge"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, kind, r.Severity, r.InterferenceType, preFilter(r.RequiresScopeOverlap, string(r.ModalityA), string(r.ModalityB)))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the compiled rules as JSON")
	return cmd
}

func preFilter(scope bool, a, b string) string {
	var parts []string
	if scope {
		parts = append(parts, "scope")
	}
	if a != "" || b != "" {
		parts = append(parts, fmt.Sprintf("%s/%s", orAny(a), orAny(b)))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func newPairsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs [blocks-file]",
		Short: "Show how much work the pre-filter eliminates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, blocks, err := setup(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Analyzer.PendingLLMWork(blocks); err != nil {
				return err
			}
			stats := c.RuleSet.PairStats(blocks, c.RuleSet.ApplicablePairs(blocks))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Blocks: %d, rules: %d\n", stats.Blocks, stats.Rules)
			fmt.Fprintf(out, "Triples: %d selected of %d possible\n", stats.Selected, stats.NaiveMax)
			fmt.Fprintf(out, "Judge calls: %d of %d possible (%.1f%%)\n", stats.JudgeSelected, stats.JudgeNaiveMax, stats.JudgeReduction()*100)
			return nil
		},
	}
}

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var scoresFile, outFile, xlsxFile string

	cmd := &cobra.Command{
		Use:   "analyze [blocks-file]",
		Short: "Run structural rules, optionally merging judge scores from a file",
		Long: `Analyze a block corpus (JSON, YAML, XLSX or CSV) with the structural rules.
With --scores, judge scores obtained elsewhere (for the prompts written by
"arbiter pending") are merged into the same tensor.

Example: arbiter analyze blocks.yaml --scores judged.json --out result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, blocks, err := setup(cmd, opts, args[0])
			if err != nil {
				return err
			}

			var result *app.AnalysisResult
			if scoresFile != "" {
				scores, err := fileio.LoadScores(scoresFile)
				if err != nil {
					return err
				}
				result, err = c.Service.RunWithScores(cmd.Context(), blocks, scores)
				if err != nil {
					return err
				}
			} else {
				result, err = c.Service.RunStructural(cmd.Context(), blocks)
				if err != nil {
					return err
				}
			}
			return writeResult(cmd.ErrOrStderr(), result, outFile, xlsxFile)
		},
	}

	cmd.Flags().StringVar(&scoresFile, "scores", "", "Judge scores to merge (JSON list or {\"scores\": [...]})")
	cmd.Flags().StringVar(&outFile, "out", "-", "Result file, - for stdout")
	cmd.Flags().StringVar(&xlsxFile, "xlsx", "", "Also write the tensor as an XLSX workbook")
	return cmd
}

func newPendingCmd(opts *globalOptions) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "pending [blocks-file]",
		Short: "Write the judge prompts a corpus needs as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, blocks, err := setup(cmd, opts, args[0])
			if err != nil {
				return err
			}
			pending, err := c.Analyzer.PendingLLMWork(blocks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d judge evaluation(s) pending\n", len(pending))
			return fileio.WriteJSON(outFile, pending)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "-", "Output file, - for stdout")
	return cmd
}

func newEvaluateCmd(opts *globalOptions) *cobra.Command {
	var outFile, xlsxFile string

	cmd := &cobra.Command{
		Use:   "evaluate [blocks-file]",
		Short: "Run a full analysis, calling the configured judge",
		Long: `Run structural rules and send every selected judge triple to the judge
configured through JUDGE_API_KEY / JUDGE_MODEL / JUDGE_BASE_URL.
Failed judge calls are dropped and reported; the run still completes.

Example: JUDGE_API_KEY=... arbiter evaluate blocks.yaml --xlsx tensor.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.RequireJudge(); err != nil {
				return err
			}
			blocks, err := fileio.LoadBlocks(args[0])
			if err != nil {
				return err
			}
			c, err := container.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			result, batch, err := c.Service.RunFull(cmd.Context(), blocks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Judge calls: %d submitted, %d scored, %d dropped\n", batch.Submitted, batch.Scored, batch.Dropped)
			return writeResult(cmd.ErrOrStderr(), result, outFile, xlsxFile)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "-", "Result file, - for stdout")
	cmd.Flags().StringVar(&xlsxFile, "xlsx", "", "Also write the tensor as an XLSX workbook")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, outFile string

	cmd := &cobra.Command{
		Use:   "export [result-or-tensor.json]",
		Short: "Convert a stored result or tensor document to XLSX, markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := fileio.LoadRun(args[0])
			if err != nil {
				return err
			}

			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(outFile), ".")
			}
			w, closeFn, err := openOutput(cmd.OutOrStdout(), outFile)
			if err != nil {
				return err
			}
			defer closeFn()

			switch strings.ToLower(format) {
			case "xlsx":
				return excel.WriteTensor(w, run.Tensor, nil)
			case "md", "markdown":
				_, err = io.WriteString(w, report.Markdown(run))
			case "html":
				_, err = w.Write(report.HTML(run))
			default:
				return fmt.Errorf("unknown export format %q (xlsx, md, html)", format)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "xlsx, md or html (default from --out extension)")
	cmd.Flags().StringVar(&outFile, "out", "-", "Output file, - for stdout")
	return cmd
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the report viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			return server.Run(ctx, c)
		},
	}
}

// setup loads config, builds an in-memory container and reads the corpus
func setup(cmd *cobra.Command, opts *globalOptions, blocksFile string) (*container.Container, []block.Block, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	// these commands never call a judge
	cfg.Judge.APIKey = ""
	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := fileio.LoadBlocks(blocksFile)
	if err != nil {
		return nil, nil, err
	}
	return c, blocks, nil
}

func writeResult(status io.Writer, result *app.AnalysisResult, outFile, xlsxFile string) error {
	if outFile != "-" {
		fmt.Fprintln(status, result.Summary)
	}
	if err := fileio.WriteJSON(outFile, result); err != nil {
		return err
	}
	if xlsxFile == "" {
		return nil
	}
	f, err := os.Create(xlsxFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return excel.WriteTensor(f, result.Tensor, result.Blocks)
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newRunsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in DATABASE_URL, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if !cfg.PersistenceEnabled() {
				return fmt.Errorf("DATABASE_URL is required")
			}
			cfg.Judge.APIKey = ""
			c, err := container.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runs, err := c.Service.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRULE SET\tENTRIES\tSUMMARY\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\n", r.ID, r.RuleSet, r.Entries, r.SummaryScore, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list, 0 for all")
	return cmd
}
