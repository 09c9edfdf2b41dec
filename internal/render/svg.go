// Package render draws the choropleth map, the threshold lollipop chart and
// label callouts as standalone SVG documents. It implements the renderer
// boundary the viz session consumes.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/geo"
	"github.com/sells-group/county-atlas/internal/layout"
	"github.com/sells-group/county-atlas/internal/model"
	"github.com/sells-group/county-atlas/internal/viz"
)

// Text metrics for bubble measurement. SVG has no layout pass, so bubble
// sizes are estimated from the font geometry.
const (
	fontSize      = 11.0
	charWidthEm   = 0.6
	bubblePadX    = 6.0
	bubblePadY    = 4.0
	bubbleRadius  = 4.0
	strokeColor   = "#ffffff"
	chartHeight   = 160.0
	chartPad      = 24.0
	stemColor     = "#999999"
	breakLineDash = "4,3"
)

// SVGRenderer renders onto a fixed-size viewport.
type SVGRenderer struct {
	Width  float64
	Height float64
}

// New creates an SVGRenderer with the given viewport.
func New(width, height float64) *SVGRenderer {
	return &SVGRenderer{Width: width, Height: height}
}

// ViewportBounds implements viz.Renderer.
func (r *SVGRenderer) ViewportBounds() (float64, float64) {
	return r.Width, r.Height
}

// MeasureLabelBubble implements viz.Renderer. The estimate mirrors how the
// bubble is drawn: monospace-ish advance per rune plus padding.
func (r *SVGRenderer) MeasureLabelBubble(text string) (float64, float64) {
	w := float64(len([]rune(text)))*fontSize*charWidthEm + 2*bubblePadX
	h := fontSize + 2*bubblePadY
	return w, h
}

// RenderMap draws the choropleth: one path per region filled by its bucket
// color, plus callout labels when a highlight is active.
func (r *SVGRenderer) RenderMap(regions []geo.Region, result *viz.ClassificationResult, labels []layout.PlacedLabel) string {
	proj := geo.NewFitProjection(regions, r.Width, r.Height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		r.Width, r.Height, r.Width, r.Height)
	sb.WriteString("\n")

	for i := range regions {
		d := regionPath(&regions[i], proj)
		if d == "" {
			continue
		}
		fill := "#cccccc"
		if result != nil {
			fill = result.Color(regions[i].Key)
		}
		fmt.Fprintf(&sb, `<path d="%s" fill="%s" stroke="%s" stroke-width="0.5"><title>%s</title></path>`,
			d, fill, strokeColor, escape(regions[i].Key))
		sb.WriteString("\n")
	}

	for _, l := range labels {
		r.renderLabel(&sb, l)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// RenderChart draws the lollipop threshold chart: the ascending sample as
// stems topped with circles colored by bucket, break thresholds as dashed
// lines.
func (r *SVGRenderer) RenderChart(result *viz.ClassificationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		r.Width, chartHeight, r.Width, chartHeight)
	sb.WriteString("\n")

	if result == nil || len(result.Sample) == 0 {
		sb.WriteString("</svg>\n")
		return sb.String()
	}

	minV := result.Sample[0]
	maxV := result.Sample[len(result.Sample)-1]
	span := maxV - minV
	if span == 0 {
		span = 1
	}
	yFor := func(v float64) float64 {
		return chartHeight - chartPad - (v-minV)/span*(chartHeight-2*chartPad)
	}

	baseline := chartHeight - chartPad
	step := (r.Width - 2*chartPad) / float64(len(result.Sample))

	classifier := classifyView(result)
	for i, v := range result.Sample {
		x := chartPad + (float64(i)+0.5)*step
		y := yFor(v)
		color := classifier(v)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			x, baseline, x, y, stemColor)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, x, y, color)
		sb.WriteString("\n")
	}

	for _, b := range result.Breaks {
		y := yFor(b)
		fmt.Fprintf(&sb, `<line x1="%g" y1="%.1f" x2="%g" y2="%.1f" stroke="#555555" stroke-width="0.75" stroke-dasharray="%s"/>`,
			chartPad, y, r.Width-chartPad, y, breakLineDash)
		sb.WriteString("\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// renderLabel draws the connecting line, the rounded bubble and the text for
// one placed label.
func (r *SVGRenderer) renderLabel(sb *strings.Builder, l layout.PlacedLabel) {
	fmt.Fprintf(sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333" stroke-width="1"/>`,
		l.AnchorX, l.AnchorY, l.X, l.Y)
	fmt.Fprintf(sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%g" fill="#ffffff" stroke="#333333"/>`,
		l.X-l.Width/2, l.Y-l.Height/2, l.Width, l.Height, bubbleRadius)
	fmt.Fprintf(sb, `<text x="%.1f" y="%.1f" font-size="%g" text-anchor="middle" dominant-baseline="middle">%s</text>`,
		l.X, l.Y, fontSize, escape(l.Text))
	sb.WriteString("\n")
}

// regionPath builds the SVG path data for a projected multipolygon.
func regionPath(region *geo.Region, proj *geo.FitProjection) string {
	g := region.Geometry
	if g == nil {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < g.NumPolygons(); i++ {
		poly := g.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			flat := poly.LinearRing(j).FlatCoords()
			for k := 0; k+1 < len(flat); k += 2 {
				x, y := proj.Project(flat[k], flat[k+1])
				if math.IsNaN(x) || math.IsNaN(y) {
					return ""
				}
				if k == 0 {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, "L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

// classifyView returns a value-to-color function over the result's breaks.
// Bucket placement goes through the classifier so the threshold semantics
// live in one place.
func classifyView(result *viz.ClassificationResult) func(float64) string {
	res := classify.Result{Mode: result.Mode, Breaks: result.Breaks, Palette: result.Palette}
	return func(v float64) string {
		return res.Color(classify.AssignBucket(model.Value{Num: v, Valid: true}, result.Breaks))
	}
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}
