package modelstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/ranker/internal/distributions"
	"github.com/tensorplex-labs/ranker/internal/model"
)

func samplePosterior(t *testing.T) *model.Posterior {
	t.Helper()
	weights, err := distributions.NewVectorGaussian(
		mat.NewVecDense(2, []float64{1.0, -2.0}),
		mat.NewSymDense(2, []float64{0.5, 0.1, 0.1, 0.3}),
	)
	require.NoError(t, err)
	return &model.Posterior{Weights: weights, Noise: distributions.NewGamma(2.0, 0.5)}
}

func assertSamePosterior(t *testing.T, want, got *model.Posterior) {
	t.Helper()
	require.Equal(t, want.Weights.Dim(), got.Weights.Dim())
	for i := range want.Weights.Dim() {
		assert.InDelta(t, want.Weights.Mean.AtVec(i), got.Weights.Mean.AtVec(i), 1e-12)
		for j := range want.Weights.Dim() {
			assert.InDelta(t, want.Weights.Covariance.At(i, j), got.Weights.Covariance.At(i, j), 1e-12)
		}
	}
	assert.InDelta(t, want.Noise.Shape, got.Noise.Shape, 1e-12)
	assert.InDelta(t, want.Noise.Rate, got.Noise.Rate, 1e-12)
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"model.json", "model.json.zst"} {
		t.Run(name, func(t *testing.T) {
			want := samplePosterior(t)
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, Save(path, want))
			got, err := Load(path)
			require.NoError(t, err)
			assertSamePosterior(t, want, got)
		})
	}
}

func TestRecordLayout(t *testing.T) {
	data, err := Marshal(samplePosterior(t))
	require.NoError(t, err)

	var rec Record
	require.NoError(t, sonic.Unmarshal(data, &rec))
	assert.Equal(t, []float64{1.0, -2.0}, rec.WPosteriorMean)
	assert.Equal(t, []float64{0.5, 0.1, 0.1, 0.3}, rec.WPosteriorVariance)
	assert.Equal(t, 2, rec.WPosteriorVarianceRows)
	assert.Equal(t, 2, rec.WPosteriorVarianceCols)
	assert.Equal(t, 2.0, rec.ScoresNoiseShape)
	assert.Equal(t, 0.5, rec.ScoresNoiseRate)
}

func TestUnmarshalRejectsBadRecords(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"short covariance", `{"WPosteriorMean":[1,2],"WPosteriorVariance":[1,0,0],"WPosteriorVarianceRows":2,"WPosteriorVarianceCols":2,"ScoresNoiseShape":1,"ScoresNoiseRate":1}`},
		{"wrong rows", `{"WPosteriorMean":[1],"WPosteriorVariance":[1],"WPosteriorVarianceRows":2,"WPosteriorVarianceCols":1,"ScoresNoiseShape":1,"ScoresNoiseRate":1}`},
		{"empty", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tc.json))
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}

	_, err := Unmarshal([]byte(`{"WPosteriorMean":[0,0],"WPosteriorVariance":[1,1,1,1],"WPosteriorVarianceRows":2,"WPosteriorVarianceCols":2,"ScoresNoiseShape":1,"ScoresNoiseRate":1}`))
	assert.ErrorIs(t, err, distributions.ErrNotPositiveDefinite)

	_, err = Unmarshal([]byte(`{"WPosteriorMean":[0],"WPosteriorVariance":[1],"WPosteriorVarianceRows":1,"WPosteriorVarianceCols":1,"ScoresNoiseShape":0,"ScoresNoiseRate":1}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
