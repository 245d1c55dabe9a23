// Package dataset parses learning-to-rank text files of the form
//
//	<relevance> qid:<id> <feature>:<value> ...
//
// into queries of dense feature vectors and adjacent-pair preference labels.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

const maxLineSize = 16 * 1024 * 1024

// Load reads a dataset file. Files ending in .zst are decompressed on the fly.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	ds, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("queries", len(ds.Queries)).Int("items", ds.ItemCount()).
		Int("dim", ds.Dim).Msg("dataset loaded")
	return ds, nil
}

// Parse reads the whole input, then builds dense vectors sized by the largest
// feature index seen anywhere in it.
func Parse(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		groups  [][]sparseItem
		qids    []int
		current []sparseItem
		prevQID int
		started bool
		dim     int
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		qid, item, maxIdx, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		dim = max(dim, maxIdx)

		if started && qid != prevQID {
			groups = append(groups, current)
			qids = append(qids, prevQID)
			current = nil
		}
		prevQID = qid
		started = true
		current = append(current, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if started {
		groups = append(groups, current)
		qids = append(qids, prevQID)
	}
	if len(groups) == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{Queries: make([]*Query, len(groups)), Dim: dim}
	for i, items := range groups {
		q, err := buildQuery(qids[i], items, dim)
		if err != nil {
			return nil, err
		}
		ds.Queries[i] = q
	}
	return ds, nil
}

// parseLine returns the qid, the sparse item and the item's largest
// (1-based) feature index.
func parseLine(line string, lineNo int) (int, sparseItem, int, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: line, Err: ErrInvalidQID}
	}

	grade, err := strconv.Atoi(tokens[0])
	if err != nil {
		return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tokens[0], Err: ErrMalformedToken}
	}

	key, val, ok := strings.Cut(tokens[1], ":")
	if !ok || key != "qid" {
		return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tokens[1], Err: ErrInvalidQID}
	}
	qid, err := strconv.Atoi(val)
	if err != nil {
		return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tokens[1], Err: ErrInvalidQID}
	}

	item := sparseItem{
		grade:   grade,
		indices: make([]int, 0, len(tokens)-2),
		values:  make([]float64, 0, len(tokens)-2),
	}
	maxIdx := 0
	for _, tok := range tokens[2:] {
		idxStr, valStr, ok := strings.Cut(tok, ":")
		if !ok {
			return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tok, Err: ErrMalformedToken}
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 1 {
			return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tok, Err: ErrMalformedToken}
		}
		v, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return 0, sparseItem{}, 0, &ParseError{Line: lineNo, Token: tok, Err: ErrMalformedToken}
		}
		item.indices = append(item.indices, idx-1)
		item.values = append(item.values, v)
		maxIdx = max(maxIdx, idx)
	}
	return qid, item, maxIdx, nil
}

func buildQuery(qid int, items []sparseItem, dim int) (*Query, error) {
	if len(items) < 2 {
		return nil, fmt.Errorf("qid %d has %d item(s): %w", qid, len(items), ErrQueryTooSmall)
	}

	features := mat.NewDense(len(items), dim+1, nil)
	grades := make([]int, len(items))
	for i, it := range items {
		for k, idx := range it.indices {
			features.Set(i, idx, it.values[k])
		}
		features.Set(i, dim, 1.0)
		grades[i] = it.grade
	}

	return &Query{
		QID:      qid,
		Features: features,
		Grades:   grades,
		Labels:   PreferenceLabels(grades),
	}, nil
}

// PreferenceLabels compares file-adjacent items only: label k is true when
// item k+1 is strictly more relevant than item k.
func PreferenceLabels(grades []int) []bool {
	if len(grades) < 2 {
		return nil
	}
	labels := make([]bool, len(grades)-1)
	for k := range labels {
		labels[k] = grades[k+1] > grades[k]
	}
	return labels
}

// Resize re-pads every feature vector to dim observed features, keeping the
// bias term last. It is used to align a prediction file with a trained model.
func (d *Dataset) Resize(dim int) error {
	if dim == d.Dim {
		return nil
	}
	if dim < d.Dim {
		return fmt.Errorf("%w: data has %d features, model has %d", ErrDimensionMismatch, d.Dim, dim)
	}
	for _, q := range d.Queries {
		n := q.ItemCount()
		resized := mat.NewDense(n, dim+1, nil)
		for i := range n {
			for j := range d.Dim {
				resized.Set(i, j, q.Features.At(i, j))
			}
			resized.Set(i, dim, 1.0)
		}
		q.Features = resized
	}
	d.Dim = dim
	return nil
}
