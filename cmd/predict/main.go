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
	"github.com/tensorplex-labs/ranker/internal/metrics"
	"github.com/tensorplex-labs/ranker/internal/modelstore"
	"github.com/tensorplex-labs/ranker/internal/predictor"
	"github.com/tensorplex-labs/ranker/internal/report"
	"github.com/tensorplex-labs/ranker/internal/scoring"
	"github.com/tensorplex-labs/ranker/internal/utils/logger"
)

var (
	configPath = flag.String("config", "", "optional YAML config file")
	printDists = flag.Bool("print", false, "print rank distributions and item scores of every query")
)

func main() {
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Configure(cfg.Environment)

	if err := run(ctx, cfg, flag.Args(), *printDists, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("prediction failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, args []string, verbose bool, out io.Writer) error {
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: predict [-config ltr.yml] [-print] <model.json> <predict.ltr> [predictions.csv]")
		return nil
	}
	modelPath, dataPath := args[0], args[1]
	outputPath := cfg.OutputPath
	if len(args) > 2 {
		outputPath = args[2]
	}

	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Model file cannot be found!")
		return nil
	}
	if _, err := os.Stat(dataPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Data file cannot be found!")
		return nil
	}

	post, err := modelstore.Load(modelPath)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(dataPath)
	if err != nil {
		return err
	}
	if err := ds.Resize(post.Dim()); err != nil {
		return err
	}

	m := metrics.NewMetrics()
	m.SetDatasetSize(len(ds.Queries), ds.ItemCount(), ds.PairCount())

	p := predictor.New(post, predictor.WithWorkers(cfg.Workers), predictor.WithMetrics(m))
	preds, err := p.PredictDataset(ctx, ds)
	if err != nil {
		return err
	}

	if err := report.SaveCSV(outputPath, preds, cfg.ReportColumns); err != nil {
		return err
	}
	log.Info().Str("output", outputPath).Int("queries", len(preds)).Msg("predictions written")

	results := make([]scoring.QueryResult, len(preds))
	for i, pred := range preds {
		results[i] = scoring.QueryResult{
			QID:               pred.QID,
			Grades:            ds.Queries[i].Grades,
			Scores:            pred.Scores,
			RankDistributions: pred.RankDistributions,
		}
		if verbose {
			scoring.PlotQueryScoresTerminal(out, fmt.Sprintf("Query %d (qid %d)", i, pred.QID), pred.Scores, ds.Queries[i].Grades)
			report.PrintRankDistributions(out, pred.RankDistributions)
			fmt.Fprintln(out)
		}
	}
	if summary := scoring.Summarize(results); summary.Queries > 0 {
		log.Info().Int("gradedQueries", summary.Queries).Float64("meanNDCG", summary.MeanNDCG).
			Float64("meanRankAgreement", summary.MeanRankAgreement).Msg("evaluation against file grades")
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("failed to write metrics")
		}
	}
	return nil
}
