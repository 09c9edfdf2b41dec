// Package viz coordinates field selection, classification, region
// assignment, and label placement. It owns the current classification state
// and exposes the entry points the rendering surface calls.
package viz

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/geo"
	"github.com/sells-group/county-atlas/internal/layout"
	"github.com/sells-group/county-atlas/internal/table"
)

// Renderer is the boundary the session consumes: the session never touches
// drawing primitives, only viewport geometry and text measurement.
type Renderer interface {
	// MeasureLabelBubble returns the rendered size of a label bubble.
	MeasureLabelBubble(text string) (w, h float64)
	// ViewportBounds returns the drawing surface size in layout units.
	ViewportBounds() (w, h float64)
}

// Events is the boundary the session exposes. All callbacks are invoked
// synchronously; a nil Events is silently ignored.
type Events interface {
	OnClassified(result *ClassificationResult)
	OnLabelsPlaced(labels []layout.PlacedLabel)
	OnHighlightCleared()
}

// ClassificationResult is the immutable outcome of one field selection.
// A new selection replaces it wholesale; it is never mutated in place.
type ClassificationResult struct {
	Field   string                        `json:"field"`
	IsRatio bool                          `json:"is_ratio"`
	Mode    classify.Mode                 `json:"mode"`
	Breaks  []float64                     `json:"breaks"`
	Palette []string                      `json:"palette"`
	Sample  []float64                     `json:"sample"`
	Tags    map[string]classify.BucketTag `json:"tags"`
}

// Color returns the fill color for a region key.
func (r *ClassificationResult) Color(key string) string {
	res := classify.Result{Mode: r.Mode, Breaks: r.Breaks, Palette: r.Palette}
	return res.Color(r.Tags[key])
}

// Session drives the choropleth core. It is single-threaded and
// event-driven: classification and layout run synchronously in response to
// discrete triggers, and a new selection fully supersedes the prior one.
type Session struct {
	tbl      *table.Table
	regions  []geo.Region
	engine   *layout.Engine
	renderer Renderer
	events   Events

	current     *ClassificationResult
	highlighted bool
}

// NewSession creates a session over a loaded table and region set.
func NewSession(tbl *table.Table, regions []geo.Region, engine *layout.Engine, renderer Renderer, events Events) *Session {
	return &Session{
		tbl:      tbl,
		regions:  regions,
		engine:   engine,
		renderer: renderer,
		events:   events,
	}
}

// Current returns the active classification, or nil before any selection.
func (s *Session) Current() *ClassificationResult {
	return s.current
}

// SelectField classifies the named field and atomically replaces the
// selection state: breaks, palette, and all region assignments change
// together before any redraw. On insufficient data the prior state is
// discarded entirely so no stale map survives a failed selection.
func (s *Session) SelectField(field string) (*ClassificationResult, error) {
	col, err := table.ParseField(s.tbl, field)
	if err != nil {
		return nil, err
	}

	res, err := classify.Classify(col.Sample)
	if err != nil {
		s.current = nil
		s.highlighted = false
		if eris.Is(err, classify.ErrInsufficientData) {
			return nil, eris.Wrapf(classify.ErrInsufficientData,
				"field %q has fewer than 2 usable values", field)
		}
		return nil, err
	}

	result := &ClassificationResult{
		Field:   field,
		IsRatio: col.IsRatio,
		Mode:    res.Mode,
		Breaks:  res.Breaks,
		Palette: res.Palette,
		Sample:  col.Sample,
		Tags:    geo.Assign(s.regions, s.tbl, field, res.Breaks),
	}

	s.current = result
	s.highlighted = false

	if s.events != nil {
		s.events.OnClassified(result)
	}

	zap.L().Info("field classified",
		zap.String("field", field),
		zap.String("mode", string(res.Mode)),
		zap.Int("breaks", len(res.Breaks)),
	)

	return result, nil
}

// OnSelectBreak highlights one class: every region assigned to the given
// break gets a callout label, positioned by the layout engine and reclamped
// against measured bubble sizes. A repeated call fully supersedes the prior
// placement.
func (s *Session) OnSelectBreak(breakValue float64) ([]layout.PlacedLabel, error) {
	if s.current == nil {
		return nil, eris.New("viz: no field selected")
	}

	w, h := s.renderer.ViewportBounds()
	bounds := layout.Bounds{Width: w, Height: h}
	proj := geo.NewFitProjection(s.regions, w, h)

	var cands []layout.Candidate
	for i := range s.regions {
		key := s.regions[i].Key
		tag := s.current.Tags[key]
		if tag.Kind != classify.BucketValue || tag.Break != breakValue {
			continue
		}

		rec := s.tbl.Record(key)
		if rec == nil {
			continue
		}
		raw := rec.Value(s.current.Field).Raw
		if raw == "" {
			continue
		}

		cx, cy := s.regions[i].Centroid()
		px, py := proj.Project(cx, cy)
		cands = append(cands, layout.Candidate{
			Key:     key,
			AnchorX: px,
			AnchorY: py,
			Text:    key + " " + raw,
		})
	}

	placed := s.engine.PlaceLabels(cands, bounds)
	placed = s.engine.FinalizeBounds(placed, bounds, s.renderer.MeasureLabelBubble)

	s.highlighted = true
	if s.events != nil {
		s.events.OnLabelsPlaced(placed)
	}

	return placed, nil
}

// OnClearSelection discards any in-flight highlight. Idempotent: clearing an
// already-clear session does nothing and leaves no per-region state behind.
func (s *Session) OnClearSelection() {
	if !s.highlighted {
		return
	}
	s.highlighted = false
	if s.events != nil {
		s.events.OnHighlightCleared()
	}
}
