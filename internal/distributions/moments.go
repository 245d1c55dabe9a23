package distributions

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateMoments is returned when moment matching produces a belief
// with no usable variance, typically far in the tail with a hard step.
var ErrDegenerateMoments = errors.New("degenerate moment-matched belief")

// StepMoments moment-matches a Gaussian belief over a difference d against
// the step likelihood
//
//	f(d) = below  when d <= 0
//	f(d) = above  when d > 0
//
// and returns the Gaussian with the mean and variance of prior(d)*f(d),
// together with the log normalizer log ∫ prior(d) f(d) dd.
func StepMoments(prior Gaussian, below, above float64) (Gaussian, float64, error) {
	// write f as floor + gain*1[sign*d > 0] with gain >= 0
	sign, floor, gain := 1.0, below, above-below
	if gain < 0 {
		sign, floor, gain = -1.0, above, -gain
	}

	sd := prior.StdDev()
	z := sign * prior.Mean / sd

	norm := floor + gain*distuv.UnitNormal.CDF(z)
	ratio := gain * distuv.UnitNormal.Prob(z) / norm

	// first and second derivatives of log Z with respect to the prior mean
	alpha := sign * ratio / sd
	beta := alpha*alpha + z*ratio/prior.Variance

	post := Gaussian{
		Mean:     prior.Mean + prior.Variance*alpha,
		Variance: prior.Variance * (1 - prior.Variance*beta),
	}
	if !post.IsProper() || norm <= 0 {
		return Gaussian{}, 0, fmt.Errorf("%w: prior %v, step (%g, %g)", ErrDegenerateMoments, prior, below, above)
	}
	return post, math.Log(norm), nil
}
