package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sells-group/county-atlas/internal/fetcher"
	"github.com/sells-group/county-atlas/internal/geo"
)

var geoURL string

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "County geometry management",
}

var geoImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Download and cache the county shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		url := geoURL
		if url == "" {
			url = cfg.Geo.ShapefileURL
		}

		if err := os.MkdirAll(cfg.Geo.CacheDir, 0o755); err != nil {
			return err
		}
		zipPath := filepath.Join(cfg.Geo.CacheDir, filepath.Base(url))

		d := fetcher.NewDownloader()
		if err := d.Download(ctx, url, zipPath); err != nil {
			return err
		}

		shpPath, err := geo.ExtractShapefile(zipPath, filepath.Join(cfg.Geo.CacheDir, "county"))
		if err != nil {
			return err
		}

		regions, err := geo.LoadShapefile(shpPath, cfg.Geo.NameField)
		if err != nil {
			return err
		}

		fmt.Printf("cached %d county polygons under %s\n", len(regions), cfg.Geo.CacheDir)
		return nil
	},
}

func init() {
	geoImportCmd.Flags().StringVar(&geoURL, "url", "", "shapefile URL (http, https or ftp; default from config)")
	geoCmd.AddCommand(geoImportCmd)
	rootCmd.AddCommand(geoCmd)
}
