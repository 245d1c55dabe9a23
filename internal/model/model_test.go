package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tensorplex-labs/ranker/internal/distributions"
)

func TestNewDefaults(t *testing.T) {
	m := New(3)

	assert.Equal(t, 3, m.Dim)
	assert.Equal(t, 3, m.WeightPrior.Dim())
	for i := range 3 {
		assert.Equal(t, 0.0, m.WeightPrior.Mean.AtVec(i))
		for j := range 3 {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.Equal(t, want, m.WeightPrior.Covariance.At(i, j))
		}
	}
	assert.Equal(t, distributions.NewGamma(1, 3), m.NoisePrior)
	assert.Equal(t, 0.001, m.Epsilon)
}

func TestOptions(t *testing.T) {
	m := New(2, WithNoisePrior(distributions.NewGamma(2, 1)), WithComparatorEpsilon(0.01))
	assert.Equal(t, 2.0, m.NoisePrior.Shape)
	assert.Equal(t, 0.01, m.Epsilon)
}

func TestComparatorLikelihood(t *testing.T) {
	m := New(1)
	assert.InDelta(t, 0.999, m.ComparatorLikelihood(true, true), 1e-12)
	assert.InDelta(t, 0.001, m.ComparatorLikelihood(false, true), 1e-12)
	assert.InDelta(t, 0.001, m.ComparatorLikelihood(true, false), 1e-12)
	assert.InDelta(t, 0.999, m.ComparatorLikelihood(false, false), 1e-12)
}
