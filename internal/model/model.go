// Package model defines the Bayesian ranking model: a Gaussian prior over the
// shared weight vector, a Gamma prior over the score-noise precision, latent
// Gaussian item scores and smoothed pairwise comparators on adjacent items.
package model

import (
	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
)

const (
	DefaultNoiseShape = 1.0
	DefaultNoiseRate  = 3.0
	// DefaultComparatorEpsilon is the probability of observing a label that
	// contradicts the sign of the score difference.
	DefaultComparatorEpsilon = 0.001
)

type RankingModel struct {
	Dim         int // feature vector length, bias included
	WeightPrior distributions.VectorGaussian
	NoisePrior  distributions.Gamma
	Epsilon     float64
}

type Option func(*RankingModel)

func WithNoisePrior(prior distributions.Gamma) Option {
	return func(m *RankingModel) {
		m.NoisePrior = prior
	}
}

func WithComparatorEpsilon(eps float64) Option {
	return func(m *RankingModel) {
		m.Epsilon = eps
	}
}

// New builds the model for feature vectors of length dim.
func New(dim int, opts ...Option) *RankingModel {
	m := &RankingModel{
		Dim:         dim,
		WeightPrior: distributions.StandardVectorGaussian(dim),
		NoisePrior:  distributions.NewGamma(DefaultNoiseShape, DefaultNoiseRate),
		Epsilon:     DefaultComparatorEpsilon,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ForDataset sizes the model to a parsed dataset.
func ForDataset(ds *dataset.Dataset, opts ...Option) *RankingModel {
	return New(ds.FeatureDim(), opts...)
}

// Comparator returns the distribution of the observed label given whether
// the score difference s[k+1]-s[k] is positive.
func (m *RankingModel) Comparator(diffPositive bool) distributions.Bernoulli {
	if diffPositive {
		return distributions.NewBernoulli(1 - m.Epsilon)
	}
	return distributions.NewBernoulli(m.Epsilon)
}

// ComparatorLikelihood is p(label | sign of the difference).
func (m *RankingModel) ComparatorLikelihood(label, diffPositive bool) float64 {
	return m.Comparator(diffPositive).Prob(label)
}
