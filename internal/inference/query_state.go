package inference

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/ranker/internal/dataset"
	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/model"
)

// queryState holds the comparator site messages of one query and the
// per-sweep quantities derived from them.
//
// Given the weights w and precision tau, the scores of a query are
//
//	s | w ~ N(M(tau X w + h), M),  M = (tau I + A'ΠA)^-1,  h = A'η
//
// where A maps scores to adjacent differences and (Π, η) are the site
// precisions and shifts. The sites are the only per-query state that
// survives between sweeps.
type queryState struct {
	query *dataset.Query

	sites []distributions.Gaussian // messages on d_k = s[k+1] - s[k]

	// rebuilt by prepare
	cov   *mat.SymDense // M
	gain  *mat.Dense    // B = tau M X
	bias  *mat.VecDense // c = M h
	prec  *mat.SymDense // X'(tau I - tau^2 M)X
	shift *mat.VecDense // tau X'c

	// written by update
	residual float64 // sum over items of E[(s - w.x)^2]
	logZ     float64
}

func newQueryState(q *dataset.Query) *queryState {
	sites := make([]distributions.Gaussian, q.PairCount())
	for p := range sites {
		sites[p] = distributions.Uniform()
	}
	return &queryState{query: q, sites: sites}
}

// prepare computes the query's natural-parameter contribution to the
// weight belief for the current sites and noise precision.
func (s *queryState) prepare(tau float64) error {
	x := s.query.Features
	n, dim := x.Dims()

	k := mat.NewSymDense(n, nil)
	h := mat.NewVecDense(n, nil)
	for i := range n {
		k.SetSym(i, i, tau)
	}
	for p, site := range s.sites {
		pi, eta := site.Precision(), site.Shift()
		k.SetSym(p, p, k.At(p, p)+pi)
		k.SetSym(p+1, p+1, k.At(p+1, p+1)+pi)
		k.SetSym(p, p+1, k.At(p, p+1)-pi)
		h.SetVec(p, h.AtVec(p)-eta)
		h.SetVec(p+1, h.AtVec(p+1)+eta)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return ErrSingularCovariance
	}
	s.cov = mat.NewSymDense(n, nil)
	if err := chol.InverseTo(s.cov); err != nil {
		return ErrSingularCovariance
	}
	s.bias = mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(s.bias, h); err != nil {
		return ErrSingularCovariance
	}

	s.gain = mat.NewDense(n, dim, nil)
	s.gain.Mul(s.cov, x)
	s.gain.Scale(tau, s.gain)

	var diff mat.Dense
	diff.Sub(x, s.gain)
	var full mat.Dense
	full.Mul(x.T(), &diff)
	s.prec = mat.NewSymDense(dim, nil)
	for i := range dim {
		for j := i; j < dim; j++ {
			s.prec.SetSym(i, j, tau*0.5*(full.At(i, j)+full.At(j, i)))
		}
	}

	s.shift = mat.NewVecDense(dim, nil)
	s.shift.MulVec(x.T(), s.bias)
	s.shift.ScaleVec(tau, s.shift)
	return nil
}

// update refreshes every comparator site of the query from the current
// weight belief, and records the residual statistics for the noise update.
// All sites are updated from the same snapshot.
func (s *queryState) update(weights distributions.VectorGaussian, m *model.RankingModel, damping float64) error {
	q := s.query
	x := q.Features
	n, _ := x.Dims()

	// score marginals: E[s] = B mu + c, Cov[s] = B Sigma B' + M
	mean := mat.NewVecDense(n, nil)
	mean.MulVec(s.gain, weights.Mean)
	mean.AddVec(mean, s.bias)

	var gs mat.Dense
	gs.Mul(s.gain, weights.Covariance)
	var cov mat.Dense
	cov.Mul(&gs, s.gain.T())
	cov.Add(&cov, s.cov)

	s.logZ = 0
	for p, label := range q.Labels {
		diff := distributions.NewGaussian(
			mean.AtVec(p+1)-mean.AtVec(p),
			cov.At(p+1, p+1)+cov.At(p, p)-2*cov.At(p, p+1),
		)
		cavity := diff.Divide(s.sites[p])
		if !cavity.IsProper() {
			log.Trace().Int("qid", q.QID).Int("pair", p).Stringer("cavity", cavity).
				Msg("improper cavity, keeping site")
			continue
		}

		tilted, logZ, err := distributions.StepMoments(cavity,
			m.ComparatorLikelihood(label, false),
			m.ComparatorLikelihood(label, true),
		)
		if err != nil {
			return fmt.Errorf("qid %d pair %d: %w: %w", q.QID, p, ErrSingularCovariance, err)
		}
		s.logZ += logZ

		site := tilted.Divide(cavity)
		if site.Precision() < 0 {
			site = distributions.Uniform()
		}
		s.sites[p] = s.sites[p].Pow(damping).Multiply(site.Pow(1 - damping))
	}

	// residual r = s - Xw = (B - X) w + c + noise
	var r mat.Dense
	r.Sub(s.gain, x)
	rmean := mat.NewVecDense(n, nil)
	rmean.MulVec(&r, weights.Mean)
	rmean.AddVec(rmean, s.bias)

	total := 0.0
	for i := range n {
		row := r.RowView(i)
		total += rmean.AtVec(i)*rmean.AtVec(i) + mat.Inner(row, weights.Covariance, row) + s.cov.At(i, i)
	}
	s.residual = total
	return nil
}
