// Package distributions holds the parametric beliefs used by training and
// prediction: univariate and multivariate Gaussians, Gamma and Bernoulli.
package distributions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is a univariate normal belief in moment form.
type Gaussian struct {
	Mean     float64
	Variance float64
}

func NewGaussian(mean, variance float64) Gaussian {
	return Gaussian{Mean: mean, Variance: variance}
}

// Uniform is the flat message: zero precision, zero shift.
func Uniform() Gaussian {
	return Gaussian{Mean: 0, Variance: math.Inf(1)}
}

// GaussianFromNatural builds a Gaussian from precision and precision-times-mean.
// Zero precision yields Uniform.
func GaussianFromNatural(precision, shift float64) Gaussian {
	if precision == 0 {
		return Uniform()
	}
	return Gaussian{Mean: shift / precision, Variance: 1 / precision}
}

func (g Gaussian) Precision() float64 { return 1 / g.Variance }

// Shift is the precision-adjusted mean (natural location parameter).
func (g Gaussian) Shift() float64 { return g.Mean / g.Variance }

func (g Gaussian) StdDev() float64 { return math.Sqrt(g.Variance) }

// Multiply returns the normalized product of two Gaussian densities.
func (g Gaussian) Multiply(o Gaussian) Gaussian {
	return GaussianFromNatural(g.Precision()+o.Precision(), g.Shift()+o.Shift())
}

// Divide removes o from g in natural parameters. The result may be improper
// (non-positive precision); callers check IsProper before using it.
func (g Gaussian) Divide(o Gaussian) Gaussian {
	return GaussianFromNatural(g.Precision()-o.Precision(), g.Shift()-o.Shift())
}

// Pow raises the density to the power e, scaling both natural parameters.
func (g Gaussian) Pow(e float64) Gaussian {
	return GaussianFromNatural(e*g.Precision(), e*g.Shift())
}

func (g Gaussian) IsProper() bool {
	return g.Variance > 0 && !math.IsInf(g.Variance, 0) && !math.IsNaN(g.Mean)
}

// ProbGreaterThan returns P(X > x).
func (g Gaussian) ProbGreaterThan(x float64) float64 {
	return distuv.UnitNormal.Survival((x - g.Mean) / g.StdDev())
}

func (g Gaussian) String() string {
	return fmt.Sprintf("Gaussian(%.6g, %.6g)", g.Mean, g.Variance)
}
