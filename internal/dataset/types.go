package dataset

import (
	"gonum.org/v1/gonum/mat"
)

// Query is a group of items ranked together. Features has one row per item
// in file order; the last column is the constant bias term.
type Query struct {
	QID      int
	Features *mat.Dense
	Grades   []int
	Labels   []bool // Labels[k] is true iff Grades[k+1] > Grades[k]
}

func (q *Query) ItemCount() int { return len(q.Grades) }

func (q *Query) PairCount() int { return len(q.Labels) }

// Item returns a view of the feature vector of item i.
func (q *Query) Item(i int) mat.Vector {
	return q.Features.RowView(i)
}

// Dataset is a parsed training or prediction file.
type Dataset struct {
	Queries []*Query
	// Dim is the number of observed features D. Feature vectors have
	// length Dim+1.
	Dim int
}

// FeatureDim returns the feature vector length, bias included.
func (d *Dataset) FeatureDim() int { return d.Dim + 1 }

func (d *Dataset) ItemCount() int {
	n := 0
	for _, q := range d.Queries {
		n += q.ItemCount()
	}
	return n
}

func (d *Dataset) PairCount() int {
	n := 0
	for _, q := range d.Queries {
		n += q.PairCount()
	}
	return n
}

type sparseItem struct {
	grade   int
	indices []int
	values  []float64
}
