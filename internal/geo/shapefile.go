package geo

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefile reads county polygons from a TIGER shapefile, keyed by the
// named attribute (NAME for TIGER county files). Records without a key or
// with unusable geometry are skipped.
func LoadShapefile(path, nameField string) ([]Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, nameField)
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile field %q not found", nameField)
	}

	log := zap.L().With(zap.String("component", "geo.shapefile"))

	var regions []Region
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}

		key := strings.TrimSpace(reader.Attribute(nameIdx))
		if key == "" {
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			log.Debug("skipping region with unusable geometry", zap.String("key", key))
			continue
		}

		regions = append(regions, Region{Key: key, Geometry: mp})
	}

	log.Info("shapefile loaded", zap.Int("regions", len(regions)))
	return regions, nil
}

// ExtractShapefile unpacks a TIGER ZIP archive and returns the path of the
// contained .shp file.
func ExtractShapefile(zipPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "geo: create extract dir")
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "geo: open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return "", eris.Wrapf(err, "geo: open zip entry %s", f.Name)
		}
		out, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return "", eris.Wrapf(err, "geo: create %s", destPath)
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return "", eris.Wrapf(err, "geo: extract %s", f.Name)
		}
		_ = out.Close()
		_ = rc.Close()
	}

	return findFileByExt(destDir, ".shp")
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "geo: read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("geo: no %s file found in %s", ext, dir)
}
