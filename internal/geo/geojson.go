package geo

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// LoadGeoJSON reads a GeoJSON FeatureCollection of county polygons, keyed by
// the named feature property. Polygon features are promoted to MultiPolygon;
// other geometry types are skipped.
func LoadGeoJSON(r io.Reader, nameProperty string) ([]Region, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: parse geojson")
	}

	log := zap.L().With(zap.String("component", "geo.geojson"))

	var regions []Region
	for _, f := range fc.Features {
		key := propertyString(f.Properties, nameProperty)
		if key == "" {
			continue
		}

		var mp *geom.MultiPolygon
		switch g := f.Geometry.(type) {
		case *geom.MultiPolygon:
			mp = g
		case *geom.Polygon:
			mp = geom.NewMultiPolygon(geom.XY)
			if err := mp.Push(g); err != nil {
				log.Debug("skipping malformed polygon feature", zap.String("key", key), zap.Error(err))
				continue
			}
		default:
			log.Debug("skipping non-polygon feature", zap.String("key", key))
			continue
		}

		regions = append(regions, Region{Key: key, Geometry: mp})
	}

	log.Info("geojson loaded", zap.Int("regions", len(regions)))
	return regions, nil
}

func propertyString(props map[string]interface{}, name string) string {
	if props == nil {
		return ""
	}
	v, ok := props[name]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
