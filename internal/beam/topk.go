package beam

import (
	"math"
	"sort"
)

// TopK returns the indices of the k largest values in descending order.
// Equal values keep ascending index order. k is clipped to len(values).
func TopK(values []float32, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values[idx[i]] > values[idx[j]]
	})
	return idx[:min(max(k, 0), len(idx))]
}

// topFinite is TopK over log-probabilities restricted to finite entries.
// At least one index is returned even if every entry is -Inf.
func topFinite(logProbs []float64, k int) []int {
	idx := make([]int, len(logProbs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return logProbs[idx[i]] > logProbs[idx[j]]
	})

	n := 0
	for n < len(idx) && n < k && !math.IsInf(logProbs[idx[n]], -1) {
		n++
	}
	return idx[:max(n, 1)]
}

// LogSoftmax returns log-probabilities of row. -Inf entries stay -Inf; a row
// with no finite entry is all -Inf.
func LogSoftmax(row []float32) []float64 {
	out := make([]float64, len(row))

	maxVal := math.Inf(-1)
	for _, v := range row {
		maxVal = math.Max(maxVal, float64(v))
	}
	if math.IsInf(maxVal, -1) {
		for i := range out {
			out[i] = math.Inf(-1)
		}
		return out
	}

	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v) - maxVal)
	}
	logSum := math.Log(sum) + maxVal
	for i, v := range row {
		out[i] = float64(v) - logSum
	}
	return out
}
