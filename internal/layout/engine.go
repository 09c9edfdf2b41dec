// Package layout places annotation labels near geographic regions without
// overlap, using angular candidate seeding followed by a deterministic
// fixed-iteration force relaxation.
package layout

import (
	"math"

	"go.uber.org/zap"
)

// Engine defaults.
const (
	defaultIterations      = 250
	defaultCollisionRadius = 60.0
	defaultAttraction      = 0.02

	seedRadius    = 60.0
	seedStep      = 5.0
	seedMinRadius = 10.0
	seedAngleStep = 12.0 // degrees between consecutive candidates
	seedPadding   = 10.0
	finalPadding  = 6.0

	maxSeparationSweeps = 20
)

// Bounds is the renderer viewport in layout units.
type Bounds struct {
	Width  float64
	Height float64
}

// Candidate is one region requesting a label: its centroid anchor and the
// display text for the bubble.
type Candidate struct {
	Key     string
	AnchorX float64
	AnchorY float64
	Text    string
}

// PlacedLabel is a positioned label. Anchor and position together let the
// renderer draw a connecting line plus a bubble; Width and Height are filled
// in by Finalize once the bubble has been measured.
type PlacedLabel struct {
	Key     string
	Text    string
	AnchorX float64
	AnchorY float64
	X       float64
	Y       float64
	Width   float64
	Height  float64
}

// Engine runs label placement. Each invocation is independent; no state is
// carried across selections.
type Engine struct {
	Iterations      int
	CollisionRadius float64
	Attraction      float64
}

// NewEngine returns an Engine with the default simulation parameters.
// Zero or negative overrides fall back to the defaults.
func NewEngine(iterations int, collisionRadius, attraction float64) *Engine {
	e := &Engine{
		Iterations:      iterations,
		CollisionRadius: collisionRadius,
		Attraction:      attraction,
	}
	if e.Iterations <= 0 {
		e.Iterations = defaultIterations
	}
	if e.CollisionRadius <= 0 {
		e.CollisionRadius = defaultCollisionRadius
	}
	if e.Attraction <= 0 {
		e.Attraction = defaultAttraction
	}
	return e
}

// PlaceLabels seeds one candidate position per region and relaxes them into
// non-overlapping positions. Candidates with empty text or an undefined
// anchor are skipped, never placed with an empty bubble. Positions are
// provisional until Finalize reclamps them against measured bubble sizes.
func (e *Engine) PlaceLabels(cands []Candidate, bounds Bounds) []PlacedLabel {
	labels := make([]PlacedLabel, 0, len(cands))

	for _, c := range cands {
		if c.Text == "" {
			continue
		}
		if math.IsNaN(c.AnchorX) || math.IsNaN(c.AnchorY) {
			zap.L().Warn("layout: skipping region with undefined centroid",
				zap.String("key", c.Key),
			)
			continue
		}

		// The angular slot follows the placed count, so skipped
		// candidates do not leave gaps in the fan.
		x, y := seedPosition(len(labels), c.AnchorX, c.AnchorY, bounds)
		labels = append(labels, PlacedLabel{
			Key:     c.Key,
			Text:    c.Text,
			AnchorX: c.AnchorX,
			AnchorY: c.AnchorY,
			X:       x,
			Y:       y,
		})
	}

	e.relax(labels, bounds)
	return labels
}

// Finalize reclamps each label so its measured bubble rectangle stays fully
// inside the viewport. The measure callback is the renderer boundary; it is
// invoked once per label.
func (e *Engine) Finalize(labels []PlacedLabel, measure func(text string) (w, h float64)) []PlacedLabel {
	return e.FinalizeBounds(labels, Bounds{}, measure)
}

// FinalizeBounds is Finalize with an explicit viewport. A zero-sized
// viewport leaves positions unclamped.
func (e *Engine) FinalizeBounds(labels []PlacedLabel, bounds Bounds, measure func(text string) (w, h float64)) []PlacedLabel {
	out := make([]PlacedLabel, len(labels))
	copy(out, labels)

	for i := range out {
		w, h := measure(out[i].Text)
		out[i].Width = w
		out[i].Height = h

		if bounds.Width <= 0 || bounds.Height <= 0 {
			continue
		}
		out[i].X = clamp(out[i].X, finalPadding+w/2, bounds.Width-finalPadding-w/2)
		out[i].Y = clamp(out[i].Y, finalPadding+h/2, bounds.Height-finalPadding-h/2)
	}

	return out
}

// seedPosition projects the i-th candidate at an angular offset from its
// anchor, walking the radius down until the point fits inside the padded
// viewport, then hard-clamps as a last resort.
func seedPosition(i int, ax, ay float64, bounds Bounds) (float64, float64) {
	angle := (float64(i) - 1.5) * seedAngleStep * math.Pi / 180

	var x, y float64
	for r := seedRadius; ; r -= seedStep {
		x = ax + r*math.Cos(angle)
		y = ay + r*math.Sin(angle)
		if inBounds(x, y, bounds, seedPadding) || r <= seedMinRadius {
			break
		}
	}

	x = clamp(x, seedPadding, bounds.Width-seedPadding)
	y = clamp(y, seedPadding, bounds.Height-seedPadding)
	return x, y
}

// relax runs the fixed-iteration simulation: weak attraction of each label
// toward its own anchor plus pairwise repulsion enforcing the collision
// radius. Deterministic given input order and iteration count.
func (e *Engine) relax(labels []PlacedLabel, bounds Bounds) {
	minSep := e.CollisionRadius

	for iter := 0; iter < e.Iterations; iter++ {
		// Attraction toward anchors, each axis independently.
		for i := range labels {
			labels[i].X += (labels[i].AnchorX - labels[i].X) * e.Attraction
			labels[i].Y += (labels[i].AnchorY - labels[i].Y) * e.Attraction
		}

		// Viewport clamping and pairwise separation interact: resolving a
		// pair can push a label outside the padded viewport, and clamping
		// it back can reopen the pair. The two are swept together until a
		// joint fixpoint, so the iteration ends with every label inside
		// the padded bounds and every pair at the collision radius. The
		// sweep cap keeps the iteration bounded.
		for pass := 0; pass < maxSeparationSweeps; pass++ {
			for i := range labels {
				labels[i].X = clamp(labels[i].X, seedPadding, bounds.Width-seedPadding)
				labels[i].Y = clamp(labels[i].Y, seedPadding, bounds.Height-seedPadding)
			}
			if separate(labels, minSep) == 0 {
				break
			}
		}
	}
}

// separate resolves every colliding pair once, in fixed order, and returns
// the number of pairs that were moved.
func separate(labels []PlacedLabel, minSep float64) int {
	moved := 0
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			dx := labels[i].X - labels[j].X
			dy := labels[i].Y - labels[j].Y
			dist := math.Hypot(dx, dy)
			if dist >= minSep {
				continue
			}

			var ux, uy float64
			if dist > 0 {
				ux, uy = dx/dist, dy/dist
			} else {
				// Coincident labels separate along a direction fixed by
				// pair order, keeping the simulation deterministic.
				a := float64(i*7+j) * math.Pi / 6
				ux, uy = math.Cos(a), math.Sin(a)
			}

			push := (minSep - dist) / 2
			labels[i].X += ux * push
			labels[i].Y += uy * push
			labels[j].X -= ux * push
			labels[j].Y -= uy * push
			moved++
		}
	}
	return moved
}

func inBounds(x, y float64, bounds Bounds, pad float64) bool {
	return x >= pad && x <= bounds.Width-pad && y >= pad && y <= bounds.Height-pad
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
