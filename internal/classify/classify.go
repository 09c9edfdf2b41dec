// Package classify computes class breaks and color mappings for choropleth
// rendering: Jenks natural breaks for well-populated samples, quantile breaks
// as a fallback, and tagged bucket assignment for region coloring.
package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
)

// Mode identifies which break computation produced a Result.
type Mode string

// Classification modes.
const (
	ModeNatural  Mode = "natural"
	ModeQuantile Mode = "quantile"
)

// Class-count ceilings.
const (
	maxDiscreteClasses = 9
	quantileClasses    = 5

	// naturalBreaksMinDistinct is the distinct-value count below which the
	// classifier falls back to quantile breaks.
	naturalBreaksMinDistinct = 5
)

// ErrInsufficientData reports a sample too small to classify.
var ErrInsufficientData = eris.New("classify: insufficient data")

// Result is the immutable outcome of one classification. It is replaced
// wholesale on reclassification, never mutated.
type Result struct {
	Mode    Mode      `json:"mode"`
	Breaks  []float64 `json:"breaks"`
	Palette []string  `json:"palette"`
}

// Classify computes class breaks and a palette for the given sample.
// The sample need not be sorted; invalid values must already be excluded.
// Rules:
//   - fewer than 2 finite values: ErrInsufficientData
//   - fewer than 5 distinct values: quantile mode, 4 breaks, 5 colors
//   - otherwise: natural-breaks mode with k = min(9, distinct-1) classes
func Classify(sample []float64) (*Result, error) {
	sorted := make([]float64, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	if len(sorted) < 2 {
		return nil, eris.Wrapf(ErrInsufficientData, "%d finite values", len(sorted))
	}

	distinct := countDistinct(sorted)
	if distinct < naturalBreaksMinDistinct {
		return quantileResult(sorted), nil
	}
	return naturalResult(sorted, distinct), nil
}

// quantileResult computes quintile boundaries over a fixed 5-color palette.
// Quantile breaks are intentionally not deduplicated: a 5-bucket palette
// always gets 4 boundary values, duplicates included.
func quantileResult(sorted []float64) *Result {
	breaks := make([]float64, 0, quantileClasses-1)
	for i := 1; i < quantileClasses; i++ {
		p := float64(i) / float64(quantileClasses)
		breaks = append(breaks, stat.Quantile(p, stat.Empirical, sorted, nil))
	}
	return &Result{
		Mode:    ModeQuantile,
		Breaks:  breaks,
		Palette: DiscretePalette(quantileClasses),
	}
}

// naturalResult runs Jenks clustering and sizes the palette to the deduped
// break count. Counts above the discrete ceiling interpolate the reds ramp.
func naturalResult(sorted []float64, distinct int) *Result {
	k := distinct - 1
	if k > maxDiscreteClasses {
		k = maxDiscreteClasses
	}

	boundaries := jenksBreaks(sorted, k)

	// Drop the implicit minimum and collapse equal adjacent boundaries.
	breaks := dedupAscending(boundaries[1:])

	var palette []string
	if len(breaks) <= maxDiscreteClasses {
		palette = DiscretePalette(len(breaks))
	} else {
		palette = InterpolatedPalette(len(breaks))
	}

	return &Result{
		Mode:    ModeNatural,
		Breaks:  breaks,
		Palette: palette,
	}
}

// Color returns the display color for a bucket tag. NoData renders the
// default gray; Overflow renders the darkest palette color. The overflow
// distinction survives in the tag itself, not in the color.
func (r *Result) Color(tag BucketTag) string {
	switch tag.Kind {
	case BucketNoData:
		return NoDataColor
	case BucketOverflow:
		return r.Palette[len(r.Palette)-1]
	default:
		if tag.Index < len(r.Palette) {
			return r.Palette[tag.Index]
		}
		return r.Palette[len(r.Palette)-1]
	}
}

func countDistinct(sorted []float64) int {
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

func dedupAscending(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
