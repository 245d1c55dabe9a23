// Package scoring evaluates predicted rankings against the relevance grades
// present in a prediction file.
package scoring

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

const DefaultNDCGCutoff = 10

// QueryResult is the prediction for one query alongside its known grades.
type QueryResult struct {
	QID               int
	Grades            []int
	Scores            []float64
	RankDistributions [][]float64
}

type Summary struct {
	Queries           int     // queries with at least one relevant item
	MeanNDCG          float64 // NDCG@DefaultNDCGCutoff
	MeanRankAgreement float64 // correlation between grade and -E[rank]
}

// Summarize averages per-query metrics, skipping queries for which a metric
// is undefined (no relevant items, or constant grades).
func Summarize(results []QueryResult) Summary {
	var ndcgs, agreements []float64
	for _, r := range results {
		if v, ok := NDCG(r.Scores, r.Grades, DefaultNDCGCutoff); ok {
			ndcgs = append(ndcgs, v)
		}

		if len(r.RankDistributions) != len(r.Grades) || len(r.Grades) < 2 {
			continue
		}
		grades := make([]float64, len(r.Grades))
		negRanks := make([]float64, len(r.Grades))
		for i, g := range r.Grades {
			grades[i] = float64(g)
			negRanks[i] = -ExpectedRank(r.RankDistributions[i])
		}
		c := stat.Correlation(grades, negRanks, nil)
		if math.IsNaN(c) {
			log.Trace().Int("qid", r.QID).Msg("rank agreement undefined for query")
			continue
		}
		agreements = append(agreements, c)
	}

	s := Summary{Queries: len(ndcgs)}
	if len(ndcgs) > 0 {
		s.MeanNDCG = stat.Mean(ndcgs, nil)
	}
	if len(agreements) > 0 {
		s.MeanRankAgreement = stat.Mean(agreements, nil)
	}
	return s
}
