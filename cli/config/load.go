package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a prospect.yaml file, expands environment variables, and
// unmarshals into a Config struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("prospect config not found at %s", path)
		}
		return nil, fmt.Errorf("cannot read prospect config %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in prospect config %s: %w", path, err)
	}

	return &cfg, nil
}
