package predictor

import "github.com/tensorplex-labs/ranker/internal/distributions"

// WinProbability returns P(X > Y) for independent X ~ N(a, sigma^2) and
// Y ~ N(b, sigma^2), i.e. P(X-Y > 0) with X-Y ~ N(a-b, 2 sigma^2).
func WinProbability(a, b, sigma float64) float64 {
	return distributions.NewGaussian(a-b, 2*sigma*sigma).ProbGreaterThan(0)
}

// RankDistribution returns the distribution of the number of opponents that
// beat an item, given the item's win probability against each of them.
// Entry r is the probability of finishing at rank r (0 is best); the result
// has len(wins)+1 entries.
func RankDistribution(wins []float64) []float64 {
	f := make([]float64, len(wins)+1)
	f[0] = 1
	for k, p := range wins {
		loss := 1 - p
		// walk downwards so f[r-1] still holds the k-1 value
		for r := k + 1; r > 0; r-- {
			f[r] = f[r-1]*loss + f[r]*p
		}
		f[0] *= p
	}
	return f
}

// RankDistributions applies RankDistribution to every item's row of
// pairwise win probabilities.
func RankDistributions(pairwise [][]float64) [][]float64 {
	dists := make([][]float64, len(pairwise))
	for i, wins := range pairwise {
		dists[i] = RankDistribution(wins)
	}
	return dists
}
