package main

import (
	"fmt"
	"os"

	"arbiter/internal"
	"arbiter/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	rulesFile string
	logLevel  string
	threshold float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "arbiter",
		Short:         "Detect interference between the blocks of a system prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
			level := opts.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			if level == "" {
				level = "WARN"
			}
			internal.SetDefaultLevel(internal.ParseLogLevel(level))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.rulesFile, "rules", "", "Rule definition file (YAML/JSON); defaults to RULES_FILE or the built-in rules")
	flags.StringVar(&opts.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (default LOG_LEVEL or WARN)")
	flags.Float64Var(&opts.threshold, "threshold", 0, "Drop findings scoring at or below this value (default SCORE_THRESHOLD)")

	rootCmd.AddCommand(
		newRulesCmd(opts),
		newPairsCmd(opts),
		newAnalyzeCmd(opts),
		newPendingCmd(opts),
		newEvaluateCmd(opts),
		newExportCmd(),
		newServeCmd(opts),
		newMigrateCmd(opts),
		newRunsCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the environment and applies command-line overrides
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.rulesFile != "" {
		cfg.Evaluation.RulesFile = opts.rulesFile
	}
	if cmd.Flags().Changed("threshold") {
		if opts.threshold < 0 || opts.threshold >= 1 {
			return nil, fmt.Errorf("--threshold must be in [0, 1)")
		}
		cfg.Evaluation.ScoreThreshold = opts.threshold
	}
	return cfg, nil
}
