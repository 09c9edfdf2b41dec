package classify

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJenksBreaks_UniformThreeClasses(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	got := jenksBreaks(sorted, 3)

	// A uniform sequence splits into equal thirds.
	assert.Equal(t, []float64{1, 3, 6, 9}, got)
}

func TestJenksBreaks_TwoClusters(t *testing.T) {
	sorted := []float64{1, 2, 3, 100, 101, 102}
	got := jenksBreaks(sorted, 2)

	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 3.0, got[1])
	assert.Equal(t, 102.0, got[2])
}

func TestJenksBreaks_ClampsClassCount(t *testing.T) {
	sorted := []float64{1, 2, 9}

	// More classes than gaps collapses to n-1.
	got := jenksBreaks(sorted, 10)
	assert.Equal(t, []float64{1, 2, 9}, got)

	// Fewer than one class is treated as one.
	got = jenksBreaks(sorted, 0)
	assert.Equal(t, []float64{1, 9}, got)
}

func TestJenksBreaks_BoundariesAreSampleValues(t *testing.T) {
	sorted := []float64{2, 4, 4, 7, 11, 13, 20, 21, 30}
	got := jenksBreaks(sorted, 4)

	require.Len(t, got, 5)
	assert.True(t, sort.Float64sAreSorted(got))
	for _, b := range got {
		assert.Contains(t, sorted, b)
	}
}
