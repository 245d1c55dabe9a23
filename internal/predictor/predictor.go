// Package predictor turns a fitted posterior into per-item rank
// distributions for new queries.
package predictor

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/metrics"
	"github.com/tensorplex-labs/ranker/internal/model"
)

// Prediction holds the outputs for one query.
type Prediction struct {
	QID               int
	Scores            []float64
	Pairwise          [][]float64 // row i: P(i beats j) for every j != i, file order
	RankDistributions [][]float64
}

type Predictor struct {
	weights distributions.VectorGaussian
	sigma   float64
	workers int
	metrics *metrics.Metrics
}

type Option func(*Predictor)

func WithWorkers(n int) Option {
	return func(p *Predictor) {
		p.workers = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Predictor) {
		p.metrics = m
	}
}

// New uses the posterior mean weights and a score standard deviation of
// sqrt(1/E[tau]).
func New(post *model.Posterior, opts ...Option) *Predictor {
	p := &Predictor{
		weights: post.Weights,
		sigma:   math.Sqrt(post.ScoreVariance()),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p
}

func (p *Predictor) Sigma() float64 { return p.sigma }

// Scores returns E[w].x for every item of the query.
func (p *Predictor) Scores(q *dataset.Query) []float64 {
	out := make([]float64, q.ItemCount())
	for i := range out {
		out[i] = p.weights.InnerProduct(q.Item(i)).Mean
	}
	return out
}

// PairwiseProbabilities returns, for each item, its win probability against
// every other item in file order with itself excluded.
func (p *Predictor) PairwiseProbabilities(scores []float64) [][]float64 {
	n := len(scores)
	pairs := make([][]float64, n)
	for i := range n {
		row := make([]float64, 0, n-1)
		for j := range n {
			if i == j {
				continue
			}
			row = append(row, WinProbability(scores[i], scores[j], p.sigma))
		}
		pairs[i] = row
	}
	return pairs
}

// PredictQuery computes scores, pairwise probabilities and rank
// distributions for a single query.
func (p *Predictor) PredictQuery(q *dataset.Query) (*Prediction, error) {
	if _, c := q.Features.Dims(); c != p.weights.Dim() {
		return nil, fmt.Errorf("qid %d: %w: features %d, weights %d",
			q.QID, dataset.ErrDimensionMismatch, c, p.weights.Dim())
	}
	scores := p.Scores(q)
	pairwise := p.PairwiseProbabilities(scores)
	return &Prediction{
		QID:               q.QID,
		Scores:            scores,
		Pairwise:          pairwise,
		RankDistributions: RankDistributions(pairwise),
	}, nil
}

// PredictDataset predicts every query in parallel; results keep dataset
// order.
func (p *Predictor) PredictDataset(ctx context.Context, ds *dataset.Dataset) ([]*Prediction, error) {
	out := make([]*Prediction, len(ds.Queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, q := range ds.Queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pred, err := p.PredictQuery(q)
			if err != nil {
				return err
			}
			out[i] = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.metrics.AddPredictedQueries(len(out))
	log.Debug().Int("queries", len(out)).Float64("sigma", p.sigma).Msg("predictions done")
	return out, nil
}
