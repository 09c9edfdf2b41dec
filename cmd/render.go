package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/geo"
	"github.com/sells-group/county-atlas/internal/layout"
	"github.com/sells-group/county-atlas/internal/render"
	"github.com/sells-group/county-atlas/internal/table"
	"github.com/sells-group/county-atlas/internal/viz"
)

var (
	renderGeoPath   string
	renderField     string
	renderHighlight float64
	renderOut       string
	renderChartOut  string
)

var renderCmd = &cobra.Command{
	Use:   "render <data.csv|data.xlsx>",
	Short: "Render the choropleth map (and optionally the threshold chart) as SVG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderField == "" {
			return eris.New("--field is required")
		}
		if renderGeoPath == "" {
			return eris.New("--geo is required")
		}

		tbl, err := table.LoadFile(args[0], cfg.Data.KeyColumn)
		if err != nil {
			return err
		}
		regions, err := loadRegions(renderGeoPath)
		if err != nil {
			return err
		}

		renderer := render.New(cfg.Render.Width, cfg.Render.Height)
		engine := layout.NewEngine(cfg.Layout.Iterations, cfg.Layout.CollisionRadius, cfg.Layout.Attraction)
		session := viz.NewSession(tbl, regions, engine, renderer, nil)

		result, err := session.SelectField(renderField)
		if err != nil {
			return err
		}

		var labels []layout.PlacedLabel
		if cmd.Flags().Changed("highlight") {
			labels, err = session.OnSelectBreak(renderHighlight)
			if err != nil {
				return err
			}
			zap.L().Info("labels placed",
				zap.Float64("break", renderHighlight),
				zap.Int("labels", len(labels)),
			)
		}

		svg := renderer.RenderMap(regions, result, labels)
		if err := os.WriteFile(renderOut, []byte(svg), 0o644); err != nil {
			return eris.Wrap(err, "write map svg")
		}

		if renderChartOut != "" {
			chart := renderer.RenderChart(result)
			if err := os.WriteFile(renderChartOut, []byte(chart), 0o644); err != nil {
				return eris.Wrap(err, "write chart svg")
			}
		}

		return nil
	},
}

// loadRegions dispatches on the geometry file extension.
func loadRegions(path string) ([]geo.Region, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return geo.LoadShapefile(path, cfg.Geo.NameField)
	case ".json", ".geojson":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open geojson")
		}
		defer f.Close() //nolint:errcheck
		return geo.LoadGeoJSON(f, cfg.Geo.NameField)
	default:
		return nil, eris.Errorf("unsupported geometry format %q", filepath.Ext(path))
	}
}

func init() {
	renderCmd.Flags().StringVar(&renderGeoPath, "geo", "", "county geometry file (.shp or .geojson)")
	renderCmd.Flags().StringVar(&renderField, "field", "", "field to classify and color by")
	renderCmd.Flags().Float64Var(&renderHighlight, "highlight", 0, "break value to highlight with labels")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "map.svg", "output SVG path")
	renderCmd.Flags().StringVar(&renderChartOut, "chart", "", "also write the threshold chart SVG here")
	rootCmd.AddCommand(renderCmd)
}
