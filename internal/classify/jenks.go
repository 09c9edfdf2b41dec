package classify

import "math"

// jenksBreaks computes Jenks natural breaks for a sorted sample, returning
// k+1 boundary values including the sample minimum and maximum. The dynamic
// program minimizes within-class variance over all partitions into k classes.
func jenksBreaks(sorted []float64, k int) []float64 {
	n := len(sorted)
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}

	lower, _ := jenksMatrices(sorted, k)

	boundaries := make([]float64, k+1)
	boundaries[0] = sorted[0]
	boundaries[k] = sorted[n-1]

	idx := n
	for class := k; class >= 2; class-- {
		boundaries[class-1] = sorted[lower[idx][class]-2]
		idx = lower[idx][class] - 1
	}

	return boundaries
}

// jenksMatrices builds the lower-class-limit and variance-combination
// matrices for the Jenks dynamic program. Both matrices are 1-indexed on
// rows (data prefix length) and columns (class count).
func jenksMatrices(sorted []float64, k int) ([][]int, [][]float64) {
	n := len(sorted)

	lower := make([][]int, n+1)
	variance := make([][]float64, n+1)
	for i := 0; i <= n; i++ {
		lower[i] = make([]int, k+1)
		variance[i] = make([]float64, k+1)
	}

	for j := 1; j <= k; j++ {
		lower[1][j] = 1
		variance[1][j] = 0
		for i := 2; i <= n; i++ {
			variance[i][j] = math.Inf(1)
		}
	}

	for l := 2; l <= n; l++ {
		var sum, sumSq, w float64
		var segVar float64

		for m := 1; m <= l; m++ {
			lowerIdx := l - m + 1
			val := sorted[lowerIdx-1]

			w++
			sum += val
			sumSq += val * val
			segVar = sumSq - (sum*sum)/w

			if lowerIdx != 1 {
				for j := 2; j <= k; j++ {
					if variance[l][j] >= segVar+variance[lowerIdx-1][j-1] {
						lower[l][j] = lowerIdx
						variance[l][j] = segVar + variance[lowerIdx-1][j-1]
					}
				}
			}
		}

		lower[l][1] = 1
		variance[l][1] = segVar
	}

	return lower, variance
}
