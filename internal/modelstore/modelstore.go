// Package modelstore persists a fitted posterior as JSON, optionally zstd
// compressed when the file name ends in .zst.
package modelstore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/model"
)

var ErrDimensionMismatch = errors.New("model record dimensions are inconsistent")

// Record is the on-disk representation of a posterior. The covariance is
// flattened in row-major order.
type Record struct {
	WPosteriorMean         []float64 `json:"WPosteriorMean"`
	WPosteriorVariance     []float64 `json:"WPosteriorVariance"`
	WPosteriorVarianceRows int       `json:"WPosteriorVarianceRows"`
	WPosteriorVarianceCols int       `json:"WPosteriorVarianceCols"`
	ScoresNoiseShape       float64   `json:"ScoresNoiseShape"`
	ScoresNoiseRate        float64   `json:"ScoresNoiseRate"`
}

func NewRecord(post *model.Posterior) Record {
	dim := post.Weights.Dim()
	rec := Record{
		WPosteriorMean:         make([]float64, dim),
		WPosteriorVariance:     make([]float64, 0, dim*dim),
		WPosteriorVarianceRows: dim,
		WPosteriorVarianceCols: dim,
		ScoresNoiseShape:       post.Noise.Shape,
		ScoresNoiseRate:        post.Noise.Rate,
	}
	for i := range dim {
		rec.WPosteriorMean[i] = post.Weights.Mean.AtVec(i)
		for j := range dim {
			rec.WPosteriorVariance = append(rec.WPosteriorVariance, post.Weights.Covariance.At(i, j))
		}
	}
	return rec
}

// Posterior validates the record and rebuilds the distributions.
func (r Record) Posterior() (*model.Posterior, error) {
	dim := len(r.WPosteriorMean)
	if dim == 0 || r.WPosteriorVarianceRows != dim || r.WPosteriorVarianceCols != dim ||
		len(r.WPosteriorVariance) != dim*dim {
		return nil, fmt.Errorf("%w: mean %d, covariance %dx%d with %d values", ErrDimensionMismatch,
			dim, r.WPosteriorVarianceRows, r.WPosteriorVarianceCols, len(r.WPosteriorVariance))
	}

	cov := mat.NewSymDense(dim, nil)
	for i := range dim {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, r.WPosteriorVariance[i*dim+j])
		}
	}
	weights, err := distributions.NewVectorGaussian(mat.NewVecDense(dim, append([]float64(nil), r.WPosteriorMean...)), cov)
	if err != nil {
		return nil, fmt.Errorf("weight posterior: %w", err)
	}

	noise := distributions.NewGamma(r.ScoresNoiseShape, r.ScoresNoiseRate)
	if !noise.IsProper() {
		return nil, fmt.Errorf("noise posterior is improper: %v", noise)
	}
	return &model.Posterior{Weights: weights, Noise: noise}, nil
}

func Marshal(post *model.Posterior) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(NewRecord(post), "", "  ")
}

func Unmarshal(data []byte) (*model.Posterior, error) {
	var rec Record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return rec.Posterior()
}

func Save(path string, post *model.Posterior) error {
	data, err := Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("zstd: failed to create writer: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("model saved")
	return nil
}

func Load(path string) (*model.Posterior, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: failed to decompress model: %w", err)
		}
	}

	post, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return post, nil
}
