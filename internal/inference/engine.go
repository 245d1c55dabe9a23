// Package inference fits the ranking model to a dataset by approximate
// message passing: expectation propagation on the comparator factors and a
// variational Gamma update for the score-noise precision.
package inference

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/metrics"
	"github.com/tensorplex-labs/ranker/internal/model"
)

const (
	DefaultSweeps  = 50
	DefaultDamping = 0.5
)

var (
	ErrSingularCovariance = errors.New("numerically singular covariance")
	ErrModelMismatch      = errors.New("dataset does not match model dimension")
)

type Engine struct {
	Sweeps  int
	Damping float64 // weight kept from the previous site message
	Workers int

	metrics *metrics.Metrics
}

type EngineOption func(*Engine)

func WithSweeps(n int) EngineOption {
	return func(e *Engine) {
		e.Sweeps = n
	}
}

func WithDamping(d float64) EngineOption {
	return func(e *Engine) {
		e.Damping = d
	}
}

// WithWorkers bounds the per-sweep fan-out; n <= 0 means GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.Workers = n
	}
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		Sweeps:  DefaultSweeps,
		Damping: DefaultDamping,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Workers <= 0 {
		e.Workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Learn runs the full sweep budget and returns the posterior over the weights
// and the noise precision. It never returns a partial result.
func (e *Engine) Learn(ctx context.Context, m *model.RankingModel, ds *dataset.Dataset) (*model.Posterior, error) {
	if ds.FeatureDim() != m.Dim {
		return nil, fmt.Errorf("%w: data %d, model %d", ErrModelMismatch, ds.FeatureDim(), m.Dim)
	}
	states := make([]*queryState, len(ds.Queries))
	for i, q := range ds.Queries {
		if q.ItemCount() < 2 {
			return nil, fmt.Errorf("qid %d: %w", q.QID, dataset.ErrQueryTooSmall)
		}
		states[i] = newQueryState(q)
	}

	priorPrec, err := m.WeightPrior.Precision()
	if err != nil {
		return nil, fmt.Errorf("weight prior: %w", err)
	}
	priorShift := mat.NewVecDense(m.Dim, nil)
	priorShift.MulVec(priorPrec, m.WeightPrior.Mean)

	items := ds.ItemCount()
	noise := m.NoisePrior
	log.Info().Int("queries", len(ds.Queries)).Int("items", items).Int("pairs", ds.PairCount()).
		Int("dim", m.Dim).Int("sweeps", e.Sweeps).Msg("starting inference")

	var weights distributions.VectorGaussian
	for sweep := range e.Sweeps {
		start := time.Now()

		weights, err = e.weightBelief(ctx, states, priorPrec, priorShift, noise.Mean())
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep, err)
		}

		if err := e.forEach(ctx, states, func(s *queryState) error {
			return s.update(weights, m, e.Damping)
		}); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep, err)
		}

		// barrier: fold every residual into the noise belief in query order
		residual, logZ := 0.0, 0.0
		for _, s := range states {
			residual += s.residual
			logZ += s.logZ
		}
		noise = distributions.NewGamma(
			m.NoisePrior.Shape+0.5*float64(items),
			m.NoisePrior.Rate+0.5*residual,
		)

		e.metrics.ObserveSweep(time.Since(start), noise.Mean())
		log.Debug().Int("sweep", sweep).Float64("noiseMean", noise.Mean()).Float64("logZ", logZ).
			Dur("elapsed", time.Since(start)).Msg("sweep done")
	}

	weights, err = e.weightBelief(ctx, states, priorPrec, priorShift, noise.Mean())
	if err != nil {
		return nil, err
	}
	return &model.Posterior{Weights: weights, Noise: noise}, nil
}

// weightBelief combines the prior with every query's contribution.
func (e *Engine) weightBelief(
	ctx context.Context,
	states []*queryState,
	priorPrec *mat.SymDense,
	priorShift *mat.VecDense,
	tau float64,
) (distributions.VectorGaussian, error) {
	if err := e.forEach(ctx, states, func(s *queryState) error {
		return s.prepare(tau)
	}); err != nil {
		return distributions.VectorGaussian{}, err
	}

	prec := mat.NewSymDense(priorPrec.SymmetricDim(), nil)
	prec.CopySym(priorPrec)
	shift := mat.VecDenseCopyOf(priorShift)
	for _, s := range states {
		prec.AddSym(prec, s.prec)
		shift.AddVec(shift, s.shift)
	}

	weights, err := distributions.VectorGaussianFromNatural(prec, shift)
	if err != nil {
		return distributions.VectorGaussian{}, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}
	return weights, nil
}

func (e *Engine) forEach(ctx context.Context, states []*queryState, fn func(*queryState) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for _, s := range states {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(s)
		})
	}
	return g.Wait()
}
