package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitProjection_SquareFit(t *testing.T) {
	regions := []Region{squareRegion("A", 0, 0, 10)}
	p := NewFitProjection(regions, 100, 100)

	// North-west data corner maps to the viewport origin (y flips).
	x, y := p.Project(0, 10)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, y = p.Project(10, 0)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)

	x, y = p.Project(5, 5)
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
}

func TestFitProjection_CentersNarrowExtent(t *testing.T) {
	// Data twice as wide as tall: scale follows width, height is centered.
	regions := []Region{squareRegion("A", 0, 0, 5), squareRegion("B", 5, 0, 5)}
	p := NewFitProjection(regions, 100, 100)

	// Extent is 10x5, so scale = 10 and the map occupies y in [25, 75].
	x, y := p.Project(0, 5)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 25, y, 1e-9)

	x, y = p.Project(10, 0)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 75, y, 1e-9)
}

func TestFitProjection_Degenerate(t *testing.T) {
	p := NewFitProjection(nil, 100, 100)
	x, y := p.Project(1, 2)
	assert.True(t, math.IsNaN(x))
	assert.True(t, math.IsNaN(y))
}
