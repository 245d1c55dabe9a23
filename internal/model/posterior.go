package model

import (
	"fmt"

	"github.com/tensorplex-labs/ranker/internal/distributions"
)

// Posterior is the fitted state of a RankingModel: the belief over the
// weight vector and over the score-noise precision.
type Posterior struct {
	Weights distributions.VectorGaussian
	Noise   distributions.Gamma
}

// Dim returns the observed feature count D the posterior was trained on.
func (p *Posterior) Dim() int { return p.Weights.Dim() - 1 }

// ScoreVariance is the per-item score noise variance used at prediction
// time, taken as the inverse of the posterior mean precision.
func (p *Posterior) ScoreVariance() float64 {
	return 1 / p.Noise.Mean()
}

func (p *Posterior) String() string {
	return fmt.Sprintf("w: %v\nscores noise: %v", p.Weights, p.Noise)
}
