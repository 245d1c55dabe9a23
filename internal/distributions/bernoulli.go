package distributions

// Bernoulli is a belief over a boolean outcome.
type Bernoulli struct {
	ProbTrue float64
}

func NewBernoulli(p float64) Bernoulli { return Bernoulli{ProbTrue: p} }

// Prob returns the probability of observing the given outcome.
func (b Bernoulli) Prob(outcome bool) float64 {
	if outcome {
		return b.ProbTrue
	}
	return 1 - b.ProbTrue
}
