package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/prospect/log"
	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/types"
)

// OrchestratorConfig configures one orchestration run.
type OrchestratorConfig struct {
	// Fetch is the producer job. Its Artifact path is what the gate polls.
	Fetch JobSpec
	// Pipeline is the independent, dependency-free job.
	Pipeline JobSpec
	// Load is the consumer job, gated on Fetch's artifact.
	Load JobSpec
	// Gate controls the load worker's wait. A zero Gate uses defaults.
	Gate *Gate
	// Runner launches job processes. A zero Runner works.
	Runner *Runner
	// Logger receives run diagnostics. Optional.
	Logger *log.Logger
	// Collector records run metrics. Optional.
	Collector *metrics.Collector
}

// Orchestrator runs the three jobs concurrently: fetch and pipeline
// without coordination, load behind the dependency gate. No job's
// failure cancels the others; every worker runs to its own terminus
// and the final result always holds exactly one outcome per job.
type Orchestrator struct {
	config  *OrchestratorConfig
	results *Aggregator
}

// NewOrchestrator creates an orchestrator for one run.
// The aggregator's lifetime is exactly this run.
func NewOrchestrator(config *OrchestratorConfig) (*Orchestrator, error) {
	for _, spec := range []JobSpec{config.Fetch, config.Pipeline, config.Load} {
		if spec.Name == "" {
			return nil, fmt.Errorf("job spec missing name")
		}
		if len(spec.Command) == 0 {
			return nil, fmt.Errorf("job %s missing command", spec.Name)
		}
	}
	if config.Gate == nil {
		config.Gate = &Gate{}
	}
	if config.Runner == nil {
		config.Runner = &Runner{Logger: config.Logger, Collector: config.Collector}
	}
	if config.Gate.Logger == nil {
		config.Gate.Logger = config.Logger
	}
	if config.Gate.Collector == nil {
		config.Gate.Collector = config.Collector
	}
	return &Orchestrator{
		config:  config,
		results: NewAggregator(),
	}, nil
}

// RunAll starts all three workers, joins them, and returns the aggregator.
//
// The load worker consults the gate first and only launches its process
// when the gate releases it; on a gate failure it records the gate's
// outcome without starting a process. Ctx cancellation terminates child
// processes via the runner but is otherwise not used to propagate
// failures between jobs.
func (o *Orchestrator) RunAll(ctx context.Context) *Aggregator {
	started := time.Now()
	o.logInfo("starting orchestration", map[string]any{
		"jobs": []string{o.config.Fetch.Name, o.config.Pipeline.Name, o.config.Load.Name},
	})

	var wg sync.WaitGroup
	wg.Add(3)
	go o.worker(&wg, o.config.Fetch.Name, func() types.JobOutcome {
		return o.config.Runner.Run(ctx, o.config.Fetch)
	})
	go o.worker(&wg, o.config.Pipeline.Name, func() types.JobOutcome {
		return o.config.Runner.Run(ctx, o.config.Pipeline)
	})
	go o.worker(&wg, o.config.Load.Name, func() types.JobOutcome {
		return o.runGated(ctx)
	})
	wg.Wait()

	o.logInfo("orchestration complete", map[string]any{
		"duration": time.Since(started).String(),
	})
	return o.results
}

// runGated waits on the dependency gate, then runs the load job.
func (o *Orchestrator) runGated(ctx context.Context) types.JobOutcome {
	producerName := o.config.Fetch.Name
	decision := o.config.Gate.AwaitArtifact(ctx, o.config.Fetch.Artifact, func() (types.JobOutcome, bool) {
		return o.results.Outcome(producerName)
	})
	if !decision.Proceed {
		outcome := decision.Outcome
		outcome.Name = o.config.Load.Name
		return outcome
	}
	return o.config.Runner.Run(ctx, o.config.Load)
}

// worker runs one job function, converting panics into failed outcomes
// so no failure anywhere terminates the orchestrator.
func (o *Orchestrator) worker(wg *sync.WaitGroup, name string, fn func() types.JobOutcome) {
	defer wg.Done()
	o.config.Collector.IncJobStarted()

	outcome := func() (outcome types.JobOutcome) {
		defer func() {
			if r := recover(); r != nil {
				outcome = types.JobOutcome{
					Name:    name,
					Status:  types.JobFailed,
					Message: fmt.Sprintf("unexpected error running %s: %v", name, r),
				}
			}
		}()
		return fn()
	}()

	if outcome.Status == types.JobSuccess {
		o.config.Collector.IncJobSucceeded()
	} else {
		o.config.Collector.IncJobFailed()
	}
	recordTelemetry(o.config.Collector, outcome)
	o.results.Append(outcome)
}

func (o *Orchestrator) logInfo(message string, fields map[string]any) {
	if o.config.Logger != nil {
		o.config.Logger.Info(message, fields)
	}
}
