package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccardDegenerateCases(t *testing.T) {
	empty := Tokenize("")
	nonempty := Tokenize("hello world")

	assert.Equal(t, 1.0, Jaccard(empty, empty))
	assert.Equal(t, 0.0, Jaccard(empty, nonempty))
	assert.Equal(t, 0.0, Jaccard(nonempty, empty))
}

func TestJaccardIdenticalSets(t *testing.T) {
	a := Tokenize("the quick brown fox")
	b := Tokenize("The Quick Brown Fox")
	assert.Equal(t, 1.0, Jaccard(a, b))
}

func TestJaccardPartialOverlap(t *testing.T) {
	a := Tokenize("alpha beta gamma")
	b := Tokenize("beta gamma delta")
	// intersection = {beta, gamma} = 2, union = {alpha,beta,gamma,delta} = 4
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
}

func TestTokenizeSplitsOnPunctuation(t *testing.T) {
	ts := Tokenize("foo-bar_baz.qux")
	assert.True(t, ts.Len() >= 3)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestCosineEmptyVector(t *testing.T) {
	_, err := Cosine([]float64{}, []float64{})
	require.Error(t, err)
}

func TestCosineZeroMagnitudeScoresZero(t *testing.T) {
	sim, err := Cosine([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float64{1, 2, 3}
	sim, err := Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	sim, err := Cosine([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestPrefilterBands(t *testing.T) {
	assert.Equal(t, BandDefinitelySimilar, Prefilter(0.7))
	assert.Equal(t, BandDefinitelyDifferent, Prefilter(0.05))
	assert.Equal(t, BandMaybe, Prefilter(0.3))
	assert.Equal(t, BandMaybe, Prefilter(0.6))
	assert.Equal(t, BandMaybe, Prefilter(0.1))
}

func TestClassifyActionThresholds(t *testing.T) {
	assert.Equal(t, ActionIgnore, ClassifyAction(0.05))
	assert.Equal(t, ActionRelate, ClassifyAction(0.2))
	assert.Equal(t, ActionSuggest, ClassifyAction(0.45))
	assert.Equal(t, ActionSuggest, ClassifyAction(0.5))
	assert.Equal(t, ActionConsolidate, ClassifyAction(0.51))
}
