package geo

import "math"

// FitProjection maps region coordinates onto a viewport with a uniform
// scale, centered, north up. General map projections are out of scope; the
// fit is linear.
type FitProjection struct {
	scale      float64
	minX       float64
	maxY       float64
	offsetX    float64
	offsetY    float64
	degenerate bool
}

// NewFitProjection builds a projection fitting the bounding box of the given
// regions into a w-by-h viewport. An empty or zero-extent region set yields
// a degenerate projection that maps everything to NaN.
func NewFitProjection(regions []Region, w, h float64) *FitProjection {
	minX, minY, maxX, maxY := Bounds(regions)
	dx, dy := maxX-minX, maxY-minY
	if dx <= 0 || dy <= 0 || w <= 0 || h <= 0 {
		return &FitProjection{degenerate: true}
	}

	scale := math.Min(w/dx, h/dy)
	return &FitProjection{
		scale:   scale,
		minX:    minX,
		maxY:    maxY,
		offsetX: (w - dx*scale) / 2,
		offsetY: (h - dy*scale) / 2,
	}
}

// Project converts a region coordinate to viewport coordinates (y down).
func (p *FitProjection) Project(x, y float64) (float64, float64) {
	if p.degenerate {
		return math.NaN(), math.NaN()
	}
	return (x-p.minX)*p.scale + p.offsetX, (p.maxY-y)*p.scale + p.offsetY
}
