// Package geo loads county polygons from TIGER shapefiles or GeoJSON and
// joins them to tabular records by region name.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Region is one named county polygon. Geometry is immutable once loaded;
// classification state lives outside the region.
type Region struct {
	Key      string
	Geometry *geom.MultiPolygon
}

// Centroid returns the area-weighted centroid of the region. Degenerate
// geometry (zero area) yields NaN coordinates; callers skip such regions.
func (r *Region) Centroid() (x, y float64) {
	if r.Geometry == nil {
		return math.NaN(), math.NaN()
	}

	var areaSum, cxSum, cySum float64
	for i := 0; i < r.Geometry.NumPolygons(); i++ {
		poly := r.Geometry.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			a, cx, cy := ringCentroid(poly.LinearRing(j).FlatCoords())
			areaSum += a
			cxSum += cx
			cySum += cy
		}
	}

	if areaSum == 0 {
		return math.NaN(), math.NaN()
	}
	return cxSum / (3 * areaSum), cySum / (3 * areaSum)
}

// ringCentroid computes the signed shoelace area and unnormalized centroid
// contribution of one ring. Holes wound opposite the exterior subtract
// themselves through the sign.
func ringCentroid(flat []float64) (area, cx, cy float64) {
	n := len(flat) / 2
	if n < 3 {
		return 0, 0, 0
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		x0, y0 := flat[2*i], flat[2*i+1]
		x1, y1 := flat[2*j], flat[2*j+1]
		cross := x0*y1 - x1*y0
		area += cross
		cx += (x0 + x1) * cross
		cy += (y0 + y1) * cross
	}
	return area / 2, cx / 2, cy / 2
}

// Bounds returns the bounding box of a set of regions as minx, miny, maxx,
// maxy. An empty set returns zeros.
func Bounds(regions []Region) (minX, minY, maxX, maxY float64) {
	first := true
	for i := range regions {
		g := regions[i].Geometry
		if g == nil || g.Empty() {
			continue
		}
		b := g.Bounds()
		if first {
			minX, minY, maxX, maxY = b.Min(0), b.Min(1), b.Max(0), b.Max(1)
			first = false
			continue
		}
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
	}
	return minX, minY, maxX, maxY
}
