package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ranker/internal/config"
	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/inference"
	"github.com/tensorplex-labs/ranker/internal/metrics"
	"github.com/tensorplex-labs/ranker/internal/model"
	"github.com/tensorplex-labs/ranker/internal/modelstore"
	"github.com/tensorplex-labs/ranker/internal/utils/logger"
)

var configPath = flag.String("config", "", "optional YAML config file")

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Configure(cfg.Environment)

	if err := run(ctx, cfg, flag.Args(), os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, args []string, out io.Writer) error {
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: train [-config ltr.yml] [-debug] <train.ltr> <model.json>")
		return nil
	}
	trainPath, modelPath := args[0], args[1]

	if _, err := os.Stat(trainPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Input file does not exist!")
		return nil
	}

	ds, err := dataset.Load(trainPath)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	m.SetDatasetSize(len(ds.Queries), ds.ItemCount(), ds.PairCount())

	engine := inference.NewEngine(
		inference.WithSweeps(cfg.Sweeps),
		inference.WithDamping(cfg.Damping),
		inference.WithWorkers(cfg.Workers),
		inference.WithMetrics(m),
	)
	ltr := model.ForDataset(ds,
		model.WithNoisePrior(distributions.NewGamma(cfg.NoiseShape, cfg.NoiseRate)),
		model.WithComparatorEpsilon(cfg.ComparatorEpsilon),
	)
	post, err := engine.Learn(ctx, ltr, ds)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "w mean posterior: %v\n", post.Weights)
	fmt.Fprintf(out, "\nscores noise posterior: %v\n", post.Noise)

	if err := modelstore.Save(modelPath, post); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	log.Info().Str("model", modelPath).Int("dim", post.Dim()).Msg("model saved")

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("failed to write metrics")
		}
	}
	return nil
}
