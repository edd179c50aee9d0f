package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbed_FixedDimensionAndUnitNorm(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	for _, text := range []string{"a", "Go is great for tooling", "one two three four five six seven"} {
		v, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Len(t, v, 64)
		if n := norm(v); n != 0 {
			assert.InDelta(t, 1.0, n, 1e-9)
		}
	}
	assert.Equal(t, 64, e.Dimension())
}

func TestEmbed_Deterministic(t *testing.T) {
	e := NewEmbedder(0)
	v1, err := e.Embed(context.Background(), "Vector search in Go")
	require.NoError(t, err)
	v2, err := NewEmbedder(0).Embed(context.Background(), "vector SEARCH in go")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, DefaultDimension)
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e := NewEmbedder(1024)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "invoice payment due date")
	near, _ := e.Embed(ctx, "the invoice payment is due on this date")
	far, _ := e.Embed(ctx, "mountain hiking trail with alpine lakes")

	assert.Greater(t, dot(q, near), dot(q, far))
}

func TestEmbed_StopwordsOnlyIsZeroVector(t *testing.T) {
	v, err := NewEmbedder(16).Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 16), v)
}
