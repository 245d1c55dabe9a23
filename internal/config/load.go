package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// LoadConfig starts from Default, reads the optional YAML file at path, then
// applies environment variables on top. An empty path skips the file.
func LoadConfig(ctx context.Context, path string) (*AppConfig, error) {
	return LoadConfigWith(ctx, path, envconfig.OsLookuper())
}

func LoadConfigWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Sweeps < 0 {
		return fmt.Errorf("%w: sweeps must be non-negative, got %d", ErrInvalidConfig, c.Sweeps)
	}
	if c.Damping < 0 || c.Damping >= 1 {
		return fmt.Errorf("%w: damping must be in [0, 1), got %g", ErrInvalidConfig, c.Damping)
	}
	if c.NoiseShape <= 0 || c.NoiseRate <= 0 {
		return fmt.Errorf("%w: noise prior needs positive shape and rate, got (%g, %g)", ErrInvalidConfig, c.NoiseShape, c.NoiseRate)
	}
	if c.ComparatorEpsilon < 0 || c.ComparatorEpsilon >= 0.5 {
		return fmt.Errorf("%w: comparator epsilon must be in [0, 0.5), got %g", ErrInvalidConfig, c.ComparatorEpsilon)
	}
	if c.ReportColumns <= 0 {
		return fmt.Errorf("%w: report columns must be positive, got %d", ErrInvalidConfig, c.ReportColumns)
	}
	return nil
}
