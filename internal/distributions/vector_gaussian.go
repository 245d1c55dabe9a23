package distributions

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPositiveDefinite is returned when a precision or covariance matrix
// cannot be Cholesky factorized.
var ErrNotPositiveDefinite = errors.New("matrix is not positive definite")

// VectorGaussian is a multivariate normal belief in moment form.
type VectorGaussian struct {
	Mean       *mat.VecDense
	Covariance *mat.SymDense
}

// NewVectorGaussian checks dimensions and that cov is positive definite.
func NewVectorGaussian(mean *mat.VecDense, cov *mat.SymDense) (VectorGaussian, error) {
	if mean.Len() != cov.SymmetricDim() {
		return VectorGaussian{}, fmt.Errorf("mean length %d does not match covariance dim %d", mean.Len(), cov.SymmetricDim())
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return VectorGaussian{}, ErrNotPositiveDefinite
	}
	return VectorGaussian{Mean: mean, Covariance: cov}, nil
}

// StandardVectorGaussian returns N(0, I) of the given dimension.
func StandardVectorGaussian(dim int) VectorGaussian {
	cov := mat.NewSymDense(dim, nil)
	for i := range dim {
		cov.SetSym(i, i, 1)
	}
	return VectorGaussian{Mean: mat.NewVecDense(dim, nil), Covariance: cov}
}

// VectorGaussianFromNatural converts precision Λ and shift h = Λμ into moment
// form.
func VectorGaussianFromNatural(precision *mat.SymDense, shift *mat.VecDense) (VectorGaussian, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(precision); !ok {
		return VectorGaussian{}, ErrNotPositiveDefinite
	}

	dim := precision.SymmetricDim()
	cov := mat.NewSymDense(dim, nil)
	if err := chol.InverseTo(cov); err != nil {
		return VectorGaussian{}, fmt.Errorf("invert precision: %w", err)
	}
	mean := mat.NewVecDense(dim, nil)
	if err := chol.SolveVecTo(mean, shift); err != nil {
		return VectorGaussian{}, fmt.Errorf("solve mean: %w", err)
	}
	return VectorGaussian{Mean: mean, Covariance: cov}, nil
}

func (v VectorGaussian) Dim() int { return v.Mean.Len() }

// Precision returns the inverse covariance.
func (v VectorGaussian) Precision() (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(v.Covariance); !ok {
		return nil, ErrNotPositiveDefinite
	}
	prec := mat.NewSymDense(v.Dim(), nil)
	if err := chol.InverseTo(prec); err != nil {
		return nil, err
	}
	return prec, nil
}

// InnerProduct returns the Gaussian belief over w·x for a fixed x.
func (v VectorGaussian) InnerProduct(x mat.Vector) Gaussian {
	return Gaussian{
		Mean:     mat.Dot(v.Mean, x),
		Variance: mat.Inner(x, v.Covariance, x),
	}
}

func (v VectorGaussian) String() string {
	return fmt.Sprintf("VectorGaussian(mean=%v)", mat.Formatted(v.Mean.T(), mat.Squeeze()))
}
