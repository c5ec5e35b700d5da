package container

import (
	"context"
	"fmt"

	"arbiter/adapters/fileio"
	"arbiter/adapters/llm"
	"arbiter/adapters/memory"
	"arbiter/adapters/postgres"
	"arbiter/app"
	"arbiter/domain/rules"
	"arbiter/internal"
	"arbiter/internal/config"
	"arbiter/internal/evaluation"
	"arbiter/internal/migration"
	"arbiter/ports"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB       *sqlx.DB
	Registry *prometheus.Registry
	Metrics  *evaluation.Metrics

	// Pipeline
	RuleSet  *rules.CompiledRuleSet
	Judge    ports.Judge
	Executor *evaluation.Executor
	Analyzer *app.Analyzer
	Repo     ports.TensorRepository
	Service  *app.AnalysisService
}

// New creates a new dependency injection container. Runs are kept in memory
// until InitWithDatabase swaps in the Postgres repository.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.DefaultLogger,
		Registry: prometheus.NewRegistry(),
		Repo:     memory.NewTensorRepository(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = evaluation.NewMetrics(c.Registry)

	compiled, err := fileio.LoadCompiledRuleSet(cfg.Evaluation.RulesFile)
	if err != nil {
		return nil, err
	}
	c.RuleSet = compiled
	c.Analyzer = app.NewAnalyzer(compiled,
		app.WithThreshold(cfg.Evaluation.ScoreThreshold),
		app.WithLogger(c.Logger))

	if cfg.Judge.APIKey != "" {
		judge, err := llm.NewOpenAIJudge(llm.ConfigFrom(cfg.Judge), c.Logger)
		if err != nil {
			return nil, err
		}
		c.UseJudge(judge)
	} else {
		c.Logger.With("Container").Info("no judge API key, structural analysis only")
		c.buildService()
	}

	c.Logger.With("Container").Info("rule set %s (%d rules, %s)", compiled.Name(), compiled.Len(), compiled.Hash().Short())
	return c, nil
}

// InitWithDatabase migrates the schema and stores runs in Postgres
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database is required")
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return err
	}
	c.DB = db
	c.Repo = postgres.NewTensorRepository(db)
	c.buildService()
	c.Logger.With("Container").Info("runs persisted to Postgres")
	return nil
}

// UseJudge replaces the judge backend and rebuilds the executor
func (c *Container) UseJudge(judge ports.Judge) {
	c.Judge = judge
	c.Executor = nil
	if judge != nil {
		c.Executor = evaluation.NewExecutor(judge, c.executorOptions())
	}
	c.buildService()
}

func (c *Container) executorOptions() evaluation.Options {
	ev := c.Config.Evaluation
	return evaluation.Options{
		MaxConcurrent: ev.MaxConcurrent,
		MaxRetries:    ev.MaxRetries,
		RetryBase:     ev.RetryBase,
		CallTimeout:   c.Config.Judge.Timeout,
		RateLimit:     ev.RateLimit,
		Metrics:       c.Metrics,
		Logger:        c.Logger,
	}
}

func (c *Container) buildService() {
	c.Service = app.NewAnalysisService(c.Analyzer, c.Executor, c.Repo, c.Logger)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Open builds a container from cfg and, when DATABASE_URL is set, connects
// to Postgres and migrates before serving runs from it
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.PersistenceEnabled() {
		return c, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}
