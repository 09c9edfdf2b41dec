package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const sepEpsilon = 1e-6

func pairwiseMinDistance(labels []PlacedLabel) float64 {
	min := math.Inf(1)
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			d := math.Hypot(labels[i].X-labels[j].X, labels[i].Y-labels[j].Y)
			if d < min {
				min = d
			}
		}
	}
	return min
}

func TestPlaceLabels_SeparatesCoincidentAnchors(t *testing.T) {
	// Six labels anchored at the same point is the worst case: without the
	// deterministic coincident push they would never separate.
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}

	var cands []Candidate
	for _, key := range []string{"A", "B", "C", "D", "E", "F"} {
		cands = append(cands, Candidate{
			Key: key, AnchorX: 480, AnchorY: 300, Text: key + " 42",
		})
	}

	labels := e.PlaceLabels(cands, bounds)
	require.Len(t, labels, 6)
	assert.GreaterOrEqual(t, pairwiseMinDistance(labels), e.CollisionRadius-sepEpsilon)

	// Anchored at the viewport center, the cluster stays well inside the
	// padded bounds after relaxation.
	for _, l := range labels {
		assert.GreaterOrEqual(t, l.X, seedPadding, "key=%s", l.Key)
		assert.LessOrEqual(t, l.X, bounds.Width-seedPadding, "key=%s", l.Key)
		assert.GreaterOrEqual(t, l.Y, seedPadding, "key=%s", l.Key)
		assert.LessOrEqual(t, l.Y, bounds.Height-seedPadding, "key=%s", l.Key)
	}
}

func TestPlaceLabels_CoincidentAnchorsNearCorner(t *testing.T) {
	// Anchored just inside the viewport corner, separation pushes labels
	// toward the edges; the relaxation must still end with every label
	// inside the padded bounds and every pair at the collision radius.
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}

	var cands []Candidate
	for _, key := range []string{"A", "B", "C", "D", "E", "F"} {
		cands = append(cands, Candidate{
			Key: key, AnchorX: 12, AnchorY: 12, Text: key + " 7",
		})
	}

	labels := e.PlaceLabels(cands, bounds)
	require.Len(t, labels, 6)
	assert.GreaterOrEqual(t, pairwiseMinDistance(labels), e.CollisionRadius-sepEpsilon)

	for _, l := range labels {
		assert.GreaterOrEqual(t, l.X, seedPadding, "key=%s", l.Key)
		assert.LessOrEqual(t, l.X, bounds.Width-seedPadding, "key=%s", l.Key)
		assert.GreaterOrEqual(t, l.Y, seedPadding, "key=%s", l.Key)
		assert.LessOrEqual(t, l.Y, bounds.Height-seedPadding, "key=%s", l.Key)
	}
}

func TestPlaceLabels_ClusteredAnchors(t *testing.T) {
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}

	cands := []Candidate{
		{Key: "A", AnchorX: 100, AnchorY: 100, Text: "A 1"},
		{Key: "B", AnchorX: 105, AnchorY: 102, Text: "B 2"},
		{Key: "C", AnchorX: 98, AnchorY: 99, Text: "C 3"},
		{Key: "D", AnchorX: 700, AnchorY: 400, Text: "D 4"},
	}

	labels := e.PlaceLabels(cands, bounds)
	require.Len(t, labels, 4)
	assert.GreaterOrEqual(t, pairwiseMinDistance(labels), e.CollisionRadius-sepEpsilon)
}

func TestPlaceLabels_SkipsEmptyText(t *testing.T) {
	e := NewEngine(0, 0, 0)
	cands := []Candidate{
		{Key: "A", AnchorX: 100, AnchorY: 100, Text: "A 1"},
		{Key: "B", AnchorX: 200, AnchorY: 200, Text: ""},
	}

	labels := e.PlaceLabels(cands, Bounds{Width: 960, Height: 600})
	require.Len(t, labels, 1)
	assert.Equal(t, "A", labels[0].Key)
}

func TestPlaceLabels_SkipsUndefinedAnchor(t *testing.T) {
	e := NewEngine(0, 0, 0)
	cands := []Candidate{
		{Key: "A", AnchorX: math.NaN(), AnchorY: math.NaN(), Text: "A 1"},
		{Key: "B", AnchorX: 200, AnchorY: 200, Text: "B 2"},
	}

	labels := e.PlaceLabels(cands, Bounds{Width: 960, Height: 600})
	require.Len(t, labels, 1)
	assert.Equal(t, "B", labels[0].Key)
}

func TestPlaceLabels_SkippedCandidatesKeepNoAngleSlot(t *testing.T) {
	// A skipped candidate must not shift the seeding fan: the surviving
	// label lands exactly where it would without the skipped entries.
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}

	withSkips := e.PlaceLabels([]Candidate{
		{Key: "empty", AnchorX: 300, AnchorY: 300, Text: ""},
		{Key: "undef", AnchorX: math.NaN(), AnchorY: math.NaN(), Text: "undef 1"},
		{Key: "B", AnchorX: 480, AnchorY: 300, Text: "B 2"},
	}, bounds)
	alone := e.PlaceLabels([]Candidate{
		{Key: "B", AnchorX: 480, AnchorY: 300, Text: "B 2"},
	}, bounds)

	require.Len(t, withSkips, 1)
	require.Len(t, alone, 1)
	assert.Equal(t, alone[0], withSkips[0])
}

func TestPlaceLabels_Deterministic(t *testing.T) {
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}
	cands := []Candidate{
		{Key: "A", AnchorX: 480, AnchorY: 300, Text: "A 1"},
		{Key: "B", AnchorX: 480, AnchorY: 300, Text: "B 2"},
		{Key: "C", AnchorX: 490, AnchorY: 310, Text: "C 3"},
	}

	first := e.PlaceLabels(cands, bounds)
	second := e.PlaceLabels(cands, bounds)
	assert.Equal(t, first, second)
}

func TestPlaceLabels_Empty(t *testing.T) {
	e := NewEngine(0, 0, 0)
	labels := e.PlaceLabels(nil, Bounds{Width: 960, Height: 600})
	assert.Empty(t, labels)
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(0, -1, 0)
	assert.Equal(t, defaultIterations, e.Iterations)
	assert.Equal(t, defaultCollisionRadius, e.CollisionRadius)
	assert.Equal(t, defaultAttraction, e.Attraction)

	e = NewEngine(10, 30, 0.5)
	assert.Equal(t, 10, e.Iterations)
	assert.Equal(t, 30.0, e.CollisionRadius)
	assert.Equal(t, 0.5, e.Attraction)
}

func TestFinalizeBounds_ClampsBubblesInside(t *testing.T) {
	e := NewEngine(0, 0, 0)
	bounds := Bounds{Width: 960, Height: 600}

	labels := []PlacedLabel{
		{Key: "edge", Text: "edge", X: 2, Y: 2},
		{Key: "far", Text: "far", X: 959, Y: 599},
		{Key: "mid", Text: "mid", X: 480, Y: 300},
	}

	out := e.FinalizeBounds(labels, bounds, func(text string) (float64, float64) {
		return 100, 20
	})

	for _, l := range out {
		assert.Equal(t, 100.0, l.Width)
		assert.Equal(t, 20.0, l.Height)
		assert.GreaterOrEqual(t, l.X-l.Width/2, finalPadding-sepEpsilon, "key=%s", l.Key)
		assert.LessOrEqual(t, l.X+l.Width/2, bounds.Width-finalPadding+sepEpsilon, "key=%s", l.Key)
		assert.GreaterOrEqual(t, l.Y-l.Height/2, finalPadding-sepEpsilon, "key=%s", l.Key)
		assert.LessOrEqual(t, l.Y+l.Height/2, bounds.Height-finalPadding+sepEpsilon, "key=%s", l.Key)
	}

	// The input slice is untouched.
	assert.Equal(t, 2.0, labels[0].X)
}

func TestFinalizeBounds_ZeroViewportLeavesPositions(t *testing.T) {
	e := NewEngine(0, 0, 0)
	labels := []PlacedLabel{{Key: "A", Text: "A", X: 5, Y: 7}}

	out := e.FinalizeBounds(labels, Bounds{}, func(string) (float64, float64) {
		return 40, 20
	})
	assert.Equal(t, 5.0, out[0].X)
	assert.Equal(t, 7.0, out[0].Y)
	assert.Equal(t, 40.0, out[0].Width)
}

func TestSeedPosition_StaysInPaddedViewport(t *testing.T) {
	bounds := Bounds{Width: 300, Height: 200}
	for i := 0; i < 12; i++ {
		x, y := seedPosition(i, 290, 190, bounds)
		assert.GreaterOrEqual(t, x, seedPadding)
		assert.LessOrEqual(t, x, bounds.Width-seedPadding)
		assert.GreaterOrEqual(t, y, seedPadding)
		assert.LessOrEqual(t, y, bounds.Height-seedPadding)
	}
}
