package config

import (
	"fmt"
	"time"
)

// Config represents a prospect.yaml configuration file.
// All values are optional and act as defaults for prospect run flags.
// CLI flags always override config values.
type Config struct {
	Symbol    string          `yaml:"symbol"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Gate      GateConfig      `yaml:"gate"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Adapter   AdapterConfig   `yaml:"adapter"`
}

// ArtifactsConfig holds artifact path defaults.
type ArtifactsConfig struct {
	// CSV is the fetch artifact path (default: aapl.csv).
	CSV string `yaml:"csv"`
	// DB is the load target database path (default: finance.db).
	DB string `yaml:"db"`
	// Pipeline is the pipeline definition path (default: pipeline.yaml).
	Pipeline string `yaml:"pipeline"`
}

// FetchConfig holds fetch retry defaults.
type FetchConfig struct {
	Endpoint     string   `yaml:"endpoint"`
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
}

// GateConfig holds dependency gate defaults.
type GateConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	Timeout      Duration `yaml:"timeout"`
}

// JobsConfig overrides the command launched for each job.
// An empty command means the orchestrator re-invokes its own binary's
// subcommand for that job.
type JobsConfig struct {
	Fetch    []string `yaml:"fetch"`
	Pipeline []string `yaml:"pipeline"`
	Load     []string `yaml:"load"`
}

// AdapterConfig holds completion-event adapter defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // "redis" or "webhook"
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
