package scoring

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

const maxBarWidth = 50

// PlotQueryScoresTerminal draws the predicted item scores of one query as a
// horizontal bar chart, best item first.
func PlotQueryScoresTerminal(w io.Writer, title string, scores []float64, grades []int) {
	type itemScore struct {
		Item  int
		Score float64
		Scale float64
	}

	scaled := MinMaxScale(scores)
	items := make([]itemScore, len(scores))
	for i := range scores {
		items[i] = itemScore{Item: i, Score: scores[i], Scale: scaled[i]}
	}

	// Sort by score in descending order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	fmt.Fprintf(w, "\n%s (descending score):\n", title)
	fmt.Fprintln(w, "Item | Grade | Score      | Bar Chart")
	fmt.Fprintln(w, "-----|-------|------------|"+strings.Repeat("-", maxBarWidth))

	for _, it := range items {
		barWidth := int(it.Scale * float64(maxBarWidth))
		if len(items) > 1 && allZero(scaled) {
			barWidth = maxBarWidth / 2
		}

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		grade := "-"
		if it.Item < len(grades) {
			grade = fmt.Sprint(grades[it.Item])
		}
		fmt.Fprintf(w, "%4d | %5s | %10.6f | %s\n", it.Item, grade, it.Score, bar)
	}
}

func allZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
