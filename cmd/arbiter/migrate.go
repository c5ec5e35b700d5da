package main

import (
	"fmt"
	"time"

	"arbiter/adapters/fileio"
	"arbiter/adapters/postgres"
	"arbiter/domain/core"
	"arbiter/internal"
	"arbiter/internal/errors"
	"arbiter/internal/migration"
	"arbiter/ports"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate [result-files...]",
		Short: "Create the run tables and import result files into Postgres",
		Long: `Migrate the DATABASE_URL schema, then store every given result or tensor
document as a run. Files that fail to load are skipped and counted.

Example: arbiter migrate --reset results/*.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if !cfg.PersistenceEnabled() {
				return errors.ConfigInvalid("DATABASE_URL is required")
			}

			ctx := cmd.Context()
			db, err := postgres.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner()
			if reset {
				if err := runner.Reset(ctx, db); err != nil {
					return err
				}
			}
			if err := runner.Run(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %s\n", runner.Version())

			if len(args) == 0 {
				return nil
			}
			migrated, skipped := importRuns(cmd, postgres.NewTensorRepository(db), args)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d run(s), skipped %d\n", migrated, skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Drop the run tables before migrating")
	return cmd
}

func importRuns(cmd *cobra.Command, repo ports.TensorRepository, files []string) (migrated, skipped int) {
	logger := internal.DefaultLogger.With("Migrate")
	for _, file := range files {
		run, err := fileio.LoadRun(file)
		if err != nil {
			logger.Warn("skipping %s: %v", file, err)
			skipped++
			continue
		}
		if run.ID == "" {
			run.ID = core.NewRunID()
		}
		if run.CreatedAt.IsZero() {
			run.CreatedAt = time.Now().UTC()
		}
		if err := repo.Save(cmd.Context(), run); err != nil {
			logger.Warn("failed to store %s: %v", file, err)
			skipped++
			continue
		}
		migrated++
	}
	return migrated, skipped
}
