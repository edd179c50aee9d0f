package vectorstore

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
// Vectors of different length score 0; the store rejects them before scoring.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank returns the indexes of the topK highest scores, highest first.
// Equal scores keep their original order.
func Rank(scores []float64, topK int) []int {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	if topK < len(idxs) {
		idxs = idxs[:topK]
	}
	return idxs
}
