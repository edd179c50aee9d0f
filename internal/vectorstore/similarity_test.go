package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"antiparallel", []float64{1, 2, 3}, []float64{-1, -2, -3}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-12)
		})
	}
}

// A raw dot product would rank the long vector first; cosine ignores magnitude.
func TestCosine_IgnoresMagnitude(t *testing.T) {
	q := []float64{1, 0}
	aligned := []float64{0.5, 0}
	longOffAxis := []float64{10, 10}

	assert.InDelta(t, 1.0, Cosine(q, aligned), 1e-12)
	assert.InDelta(t, 1.0, Cosine(q, []float64{1000, 0}), 1e-12)
	assert.Greater(t, Cosine(q, aligned), Cosine(q, longOffAxis))
}

func TestRank_StableDescending(t *testing.T) {
	scores := []float64{0.2, 0.9, 0.5, 0.9, -1, 0.5}
	assert.Equal(t, []int{1, 3, 2, 5, 0, 4}, Rank(scores, 10))
	assert.Equal(t, []int{1, 3}, Rank(scores, 2))
	assert.Empty(t, Rank(nil, 5))
}
