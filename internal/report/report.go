// Package report writes predicted rank distributions as CSV or plain text.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tensorplex-labs/ranker/internal/predictor"
)

const DefaultColumns = 10

// Header returns query,item,rank_1..rank_columns.
func Header(columns int) []string {
	h := make([]string, 0, columns+2)
	h = append(h, "query", "item")
	for r := range columns {
		h = append(h, fmt.Sprintf("rank_%d", r+1))
	}
	return h
}

// Row formats one item's rank distribution, zero-padded or truncated to the
// column count.
func Row(query, item int, dist []float64, columns int) []string {
	row := make([]string, 0, columns+2)
	row = append(row, strconv.Itoa(query), strconv.Itoa(item))
	for r := range columns {
		p := 0.0
		if r < len(dist) {
			p = dist[r]
		}
		row = append(row, strconv.FormatFloat(p, 'f', 6, 64))
	}
	return row
}

// WriteCSV writes one row per (query index, item index).
func WriteCSV(w io.Writer, preds []*predictor.Prediction, columns int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(columns)); err != nil {
		return err
	}
	for qi, pred := range preds {
		for ii, dist := range pred.RankDistributions {
			if err := cw.Write(Row(qi, ii, dist, columns)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the report to a temporary file next to path and renames it
// into place, so a failed run leaves no partial report behind.
func SaveCSV(path string, preds []*predictor.Prediction, columns int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".predictions-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, preds, columns); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// PrintRankDistributions prints one line per item with three decimals.
func PrintRankDistributions(w io.Writer, dists [][]float64) {
	for _, dist := range dists {
		parts := make([]string, len(dist))
		for r, p := range dist {
			parts[r] = strconv.FormatFloat(p, 'f', 3, 64)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
}
