package scoring

import (
	"math"
	"sort"
)

// NDCG computes the normalized discounted cumulative gain at cutoff k of the
// ordering induced by scores, using 2^grade-1 gains. ok is false when the
// query has no relevant item, since the measure is undefined there.
func NDCG(scores []float64, grades []int, k int) (ndcg float64, ok bool) {
	if len(scores) != len(grades) || len(scores) == 0 {
		return 0, false
	}
	if k <= 0 || k > len(scores) {
		k = len(scores)
	}

	predicted := make([]int, len(scores))
	for i := range predicted {
		predicted[i] = i
	}
	sort.SliceStable(predicted, func(a, b int) bool {
		return scores[predicted[a]] > scores[predicted[b]]
	})

	ideal := make([]int, len(grades))
	copy(ideal, grades)
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))

	var dcg, idcg float64
	for i := range k {
		discount := math.Log2(float64(i) + 2)
		dcg += gain(grades[predicted[i]]) / discount
		idcg += gain(ideal[i]) / discount
	}
	if idcg == 0 {
		return 0, false
	}
	return dcg / idcg, true
}

func gain(grade int) float64 {
	if grade <= 0 {
		return 0
	}
	return math.Exp2(float64(grade)) - 1
}

// ExpectedRank returns the mean of a rank distribution (0 is best).
func ExpectedRank(dist []float64) float64 {
	e := 0.0
	for r, p := range dist {
		e += float64(r) * p
	}
	return e
}
