package predictor

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/model"
)

func TestWinProbability(t *testing.T) {
	assert.InDelta(t, 0.7602499389, WinProbability(1, 0, 1), 1e-9)
	assert.InDelta(t, 0.5, WinProbability(3, 3, 2), 1e-15)
	assert.InDelta(t, 1.0, WinProbability(1, 0, 1)+WinProbability(0, 1, 1), 1e-15)
}

func TestRankDistributionKnownValues(t *testing.T) {
	cases := []struct {
		name string
		wins []float64
		want []float64
	}{
		{"no opponents", nil, []float64{1}},
		{"single opponent", []float64{0.7}, []float64{0.7, 0.3}},
		{"binomial", []float64{0.5, 0.5}, []float64{0.25, 0.5, 0.25}},
		{"always wins", []float64{1, 1, 1}, []float64{1, 0, 0, 0}},
		{"always loses", []float64{0, 0, 0}, []float64{0, 0, 0, 1}},
		{"mixed", []float64{0.9, 0.2}, []float64{0.18, 0.74, 0.08}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RankDistribution(tc.wins)
			require.Len(t, got, len(tc.want))
			assert.InDeltaSlice(t, tc.want, got, 1e-12)
		})
	}
}

func TestRankDistributionSumsToOne(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for n := 1; n < 40; n++ {
		wins := make([]float64, n)
		for i := range wins {
			wins[i] = r.Float64()
		}
		assert.InDelta(t, 1.0, floats.Sum(RankDistribution(wins)), 1e-9, "n=%d", n)
	}
}

func TestRankDistributionMonotone(t *testing.T) {
	base := []float64{0.3, 0.6, 0.5, 0.8}
	better := append([]float64(nil), base...)
	better[1] = 0.95

	lo := RankDistribution(base)
	hi := RankDistribution(better)

	// the stronger item's CDF dominates at every rank
	cumLo, cumHi := 0.0, 0.0
	for r := range lo {
		cumLo += lo[r]
		cumHi += hi[r]
		assert.GreaterOrEqual(t, cumHi+1e-12, cumLo, "rank %d", r)
	}
}

func newPosterior(t *testing.T, mean []float64, noise distributions.Gamma) *model.Posterior {
	t.Helper()
	vg := distributions.StandardVectorGaussian(len(mean))
	vg.Mean = mat.NewVecDense(len(mean), mean)
	return &model.Posterior{Weights: vg, Noise: noise}
}

func TestPredictQuery(t *testing.T) {
	// one feature plus bias; sigma = sqrt(rate/shape) = 1
	post := newPosterior(t, []float64{1, 0.5}, distributions.NewGamma(2, 2))
	p := New(post)
	require.InDelta(t, 1.0, p.Sigma(), 1e-12)

	ds, err := dataset.Parse(strings.NewReader("0 qid:1 1:0\n1 qid:1 1:1\n2 qid:1 1:2\n"))
	require.NoError(t, err)

	pred, err := p.PredictQuery(ds.Queries[0])
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 1.5, 2.5}, pred.Scores, 1e-12)

	require.Len(t, pred.Pairwise, 3)
	for i, row := range pred.Pairwise {
		assert.Len(t, row, 2, "item %d", i)
	}
	// item 1 against item 0 and item 2
	assert.InDelta(t, WinProbability(1.5, 0.5, 1), pred.Pairwise[1][0], 1e-15)
	assert.InDelta(t, WinProbability(1.5, 2.5, 1), pred.Pairwise[1][1], 1e-15)
	// complementary entries
	assert.InDelta(t, 1.0, pred.Pairwise[0][1]+pred.Pairwise[2][0], 1e-12)

	for i, dist := range pred.RankDistributions {
		assert.Len(t, dist, 3)
		assert.InDelta(t, 1.0, floats.Sum(dist), 1e-9, "item %d", i)
	}
	assert.Greater(t, pred.RankDistributions[2][0], pred.RankDistributions[0][0])
	assert.Greater(t, pred.RankDistributions[0][2], pred.RankDistributions[2][2])
}

func TestPredictQueryDimensionMismatch(t *testing.T) {
	post := newPosterior(t, []float64{1, 0.5}, distributions.NewGamma(2, 2))
	ds, err := dataset.Parse(strings.NewReader("0 qid:1 1:0 2:1\n1 qid:1 1:1\n"))
	require.NoError(t, err)

	_, err = New(post).PredictQuery(ds.Queries[0])
	assert.ErrorIs(t, err, dataset.ErrDimensionMismatch)
}

func TestPredictDatasetKeepsOrder(t *testing.T) {
	post := newPosterior(t, []float64{1, -1, 0}, distributions.NewGamma(3, 1))

	var b strings.Builder
	for q := range 25 {
		for i := range 2 + q%5 {
			fmt.Fprintf(&b, "%d qid:%d 1:%g 2:%g\n", i, q, float64(i), math.Sin(float64(q+i)))
		}
	}
	ds, err := dataset.Parse(strings.NewReader(b.String()))
	require.NoError(t, err)

	preds, err := New(post, WithWorkers(4)).PredictDataset(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, preds, 25)
	for i, pred := range preds {
		assert.Equal(t, ds.Queries[i].QID, pred.QID)
		assert.Len(t, pred.RankDistributions, ds.Queries[i].ItemCount())
	}
}

func TestPredictDatasetCancelled(t *testing.T) {
	post := newPosterior(t, []float64{1, 0}, distributions.NewGamma(1, 1))
	ds, err := dataset.Parse(strings.NewReader("0 qid:1 1:0\n1 qid:1 1:1\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(post).PredictDataset(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkRankDistributions(b *testing.B) {
	for _, n := range []int{10, 50, 100} {
		b.Run(fmt.Sprintf("Items%d", n), func(b *testing.B) {
			r := rand.New(rand.NewPCG(1, 2))
			scores := make([]float64, n)
			for i := range scores {
				scores[i] = r.NormFloat64()
			}
			p := &Predictor{sigma: 1}
			b.ResetTimer()
			for b.Loop() {
				_ = RankDistributions(p.PairwiseProbabilities(scores))
			}
		})
	}
}
