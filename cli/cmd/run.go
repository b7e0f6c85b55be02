package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/adapter"
	adapterredis "github.com/justapithecus/prospect/adapter/redis"
	adapterwebhook "github.com/justapithecus/prospect/adapter/webhook"
	"github.com/justapithecus/prospect/cli/config"
	"github.com/justapithecus/prospect/iox"
	"github.com/justapithecus/prospect/log"
	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/runtime"
)

// RunCommand returns the run command: the orchestrator.
//
// It starts all three jobs concurrently, joins them, and emits one report
// holding exactly one outcome per job. Its own exit code is not gated on
// any single job's failure.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the fetch, pipeline, and load jobs concurrently",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to prospect.yaml (optional)",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Ticker symbol for the fetch job",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Fetch artifact path (the gate polls this)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Load target database path",
			},
			&cli.StringFlag{
				Name:  "pipeline-out",
				Usage: "Pipeline definition path",
			},
			&cli.DurationFlag{
				Name:  "gate-timeout",
				Usage: "Max wait for the fetch artifact before failing the load job",
			},
			&cli.DurationFlag{
				Name:  "gate-poll-interval",
				Usage: "Artifact polling cadence",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Report destination path (\"-\" for stdout)",
				Value: "-",
			},
		},
		Action: runAction,
	}
}

// runSettings is the merged flag/config/default view for one run.
type runSettings struct {
	symbol      string
	csv         string
	db          string
	pipelineOut string
	gateTimeout time.Duration
	gatePoll    time.Duration
	fetchCmd    []string
	pipelineCmd []string
	loadCmd     []string
	adapterConf config.AdapterConfig
}

func runAction(c *cli.Context) error {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		cfg = loaded
	}

	settings, err := resolveSettings(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	runID := uuid.NewString()
	logger := log.New(runID)
	collector := metrics.NewCollector(runID)

	orch, err := runtime.NewOrchestrator(&runtime.OrchestratorConfig{
		Fetch: runtime.JobSpec{
			Name:     "fetch",
			Command:  settings.fetchCmd,
			Artifact: settings.csv,
		},
		Pipeline: runtime.JobSpec{
			Name:     "pipeline",
			Command:  settings.pipelineCmd,
			Artifact: settings.pipelineOut,
		},
		Load: runtime.JobSpec{
			Name:     "load",
			Command:  settings.loadCmd,
			Artifact: settings.db,
		},
		Gate: &runtime.Gate{
			PollInterval: settings.gatePoll,
			Timeout:      settings.gateTimeout,
		},
		Logger:    logger,
		Collector: collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// SIGINT/SIGTERM terminate child processes along with the run.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	results := orch.RunAll(ctx)
	duration := time.Since(started)

	report := runtime.BuildReport(runID, results, collector.Snapshot(), duration)
	if err := runtime.WriteReport(report, c.String("report")); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	publishCompletion(ctx, logger, settings.adapterConf, report)

	// Per-job failures are reported, not propagated: the orchestrator's
	// own exit status is always success.
	return nil
}

// resolveSettings merges flags over config over defaults.
func resolveSettings(c *cli.Context, cfg *config.Config) (*runSettings, error) {
	s := &runSettings{
		symbol:      firstNonEmpty(c.String("symbol"), cfg.Symbol, "AAPL"),
		csv:         firstNonEmpty(c.String("csv"), cfg.Artifacts.CSV, "aapl.csv"),
		db:          firstNonEmpty(c.String("db"), cfg.Artifacts.DB, "finance.db"),
		pipelineOut: firstNonEmpty(c.String("pipeline-out"), cfg.Artifacts.Pipeline, "pipeline.yaml"),
		gateTimeout: c.Duration("gate-timeout"),
		gatePoll:    c.Duration("gate-poll-interval"),
		adapterConf: cfg.Adapter,
	}
	if s.gateTimeout <= 0 {
		s.gateTimeout = cfg.Gate.Timeout.Duration
	}
	if s.gatePoll <= 0 {
		s.gatePoll = cfg.Gate.PollInterval.Duration
	}

	// Default commands re-invoke this binary's subcommands; config may
	// substitute arbitrary external producers.
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve own binary path: %w", err)
	}
	s.fetchCmd = cfg.Jobs.Fetch
	if len(s.fetchCmd) == 0 {
		s.fetchCmd = []string{self, "fetch", "--symbol", s.symbol, "--out", s.csv}
		if cfg.Fetch.Endpoint != "" {
			s.fetchCmd = append(s.fetchCmd, "--endpoint", cfg.Fetch.Endpoint)
		}
		if cfg.Fetch.MaxAttempts > 0 {
			s.fetchCmd = append(s.fetchCmd, "--max-attempts", fmt.Sprint(cfg.Fetch.MaxAttempts))
		}
		if cfg.Fetch.InitialDelay.Duration > 0 {
			s.fetchCmd = append(s.fetchCmd, "--initial-delay", cfg.Fetch.InitialDelay.String())
		}
	}
	s.pipelineCmd = cfg.Jobs.Pipeline
	if len(s.pipelineCmd) == 0 {
		s.pipelineCmd = []string{self, "pipeline", "--out", s.pipelineOut}
	}
	s.loadCmd = cfg.Jobs.Load
	if len(s.loadCmd) == 0 {
		s.loadCmd = []string{self, "load", "--csv", s.csv, "--db", s.db}
	}
	return s, nil
}

// publishCompletion sends the completion event when an adapter is
// configured. Publish failures are logged, never fatal: the report has
// already been emitted.
func publishCompletion(ctx context.Context, logger *log.Logger, cfg config.AdapterConfig, report *runtime.Report) {
	if cfg.Type == "" {
		return
	}
	sugar := logger.Sugar()

	a, err := newAdapter(cfg)
	if err != nil {
		sugar.Warnf("completion adapter misconfigured: %v", err)
		return
	}
	defer iox.DiscardClose(a)

	event := &adapter.RunCompletedEvent{
		EventType:  adapter.EventType,
		RunID:      report.RunID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		DurationMs: report.DurationMs,
		Jobs:       report.Summary,
	}
	if err := a.Publish(ctx, event); err != nil {
		sugar.Warnf("completion publish via %s failed: %v", cfg.Type, err)
	}
}

func newAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}
	switch cfg.Type {
	case "redis":
		c := adapterredis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: adapterredis.DefaultRetries,
		}
		if retries >= 0 {
			c.Retries = retries
		}
		return adapterredis.New(c)
	case "webhook":
		c := adapterwebhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: adapterwebhook.DefaultRetries,
		}
		if retries >= 0 {
			c.Retries = retries
		}
		return adapterwebhook.New(c)
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
