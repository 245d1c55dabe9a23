// Package config defines environment configuration structs and loaders.
package config

import (
	"github.com/tensorplex-labs/ranker/internal/inference"
	"github.com/tensorplex-labs/ranker/internal/model"
	"github.com/tensorplex-labs/ranker/internal/report"
)

// AppConfig is shared by the train and predict binaries.
type AppConfig struct {
	Environment string `env:"ENVIRONMENT, overwrite" yaml:"environment"`

	TrainEnvConfig   `yaml:"train"`
	PredictEnvConfig `yaml:"predict"`
	MetricsEnvConfig `yaml:"metrics"`
}

// TrainEnvConfig controls the model priors and the inference engine.
type TrainEnvConfig struct {
	Sweeps  int     `env:"LTR_SWEEPS, overwrite" yaml:"sweeps"`
	Damping float64 `env:"LTR_DAMPING, overwrite" yaml:"damping"`
	Workers int     `env:"LTR_WORKERS, overwrite" yaml:"workers"` // 0 means GOMAXPROCS

	NoiseShape        float64 `env:"LTR_NOISE_SHAPE, overwrite" yaml:"noise_shape"`
	NoiseRate         float64 `env:"LTR_NOISE_RATE, overwrite" yaml:"noise_rate"`
	ComparatorEpsilon float64 `env:"LTR_COMPARATOR_EPSILON, overwrite" yaml:"comparator_epsilon"`
}

// PredictEnvConfig controls prediction and the CSV report.
type PredictEnvConfig struct {
	OutputPath    string `env:"LTR_PREDICT_OUTPUT, overwrite" yaml:"output"`
	ReportColumns int    `env:"LTR_REPORT_COLUMNS, overwrite" yaml:"report_columns"`
}

// MetricsEnvConfig enables the Prometheus textfile written on exit.
type MetricsEnvConfig struct {
	MetricsFile string `env:"LTR_METRICS_FILE, overwrite" yaml:"file"`
}

// Default returns the built-in settings. Explicit zeros in the YAML file
// override them.
func Default() *AppConfig {
	return &AppConfig{
		Environment: "prod",
		TrainEnvConfig: TrainEnvConfig{
			Sweeps:            inference.DefaultSweeps,
			Damping:           inference.DefaultDamping,
			NoiseShape:        model.DefaultNoiseShape,
			NoiseRate:         model.DefaultNoiseRate,
			ComparatorEpsilon: model.DefaultComparatorEpsilon,
		},
		PredictEnvConfig: PredictEnvConfig{
			OutputPath:    "predictions.csv",
			ReportColumns: report.DefaultColumns,
		},
	}
}
