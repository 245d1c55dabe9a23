package distributions

import "fmt"

// Gamma is a shape/rate Gamma belief, used for the score-noise precision.
type Gamma struct {
	Shape float64
	Rate  float64
}

func NewGamma(shape, rate float64) Gamma {
	return Gamma{Shape: shape, Rate: rate}
}

func (g Gamma) Mean() float64 { return g.Shape / g.Rate }

func (g Gamma) IsProper() bool {
	return g.Shape > 0 && g.Rate > 0
}

func (g Gamma) String() string {
	return fmt.Sprintf("Gamma(shape=%.6g, rate=%.6g)[mean=%.6g]", g.Shape, g.Rate, g.Mean())
}
