package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
	"github.com/sells-group/county-atlas/internal/store"
	"github.com/sells-group/county-atlas/internal/table"
)

var importName string

var importCmd = &cobra.Command{
	Use:   "import <data.csv|data.xlsx>",
	Short: "Parse a dataset and persist it with per-field classifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tbl, err := table.LoadFile(args[0], cfg.Data.KeyColumn)
		if err != nil {
			return err
		}
		fields := table.EligibleFields(tbl, cfg.Data.ReservedColumns)
		cols := make(map[string]*table.Column, len(fields))
		for _, field := range fields {
			col, err := table.ParseField(tbl, field)
			if err != nil {
				return err
			}
			cols[field] = col
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		name := importName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		ds := &model.Dataset{
			Name:      name,
			KeyColumn: cfg.Data.KeyColumn,
			Fields:    fields,
		}
		if err := st.SaveDataset(ctx, ds, tbl.Records); err != nil {
			return err
		}

		saved := 0
		for _, field := range fields {
			res, err := classify.Classify(cols[field].Sample)
			if err != nil {
				zap.L().Warn("skipping classification",
					zap.String("field", field),
					zap.Error(err),
				)
				continue
			}
			c := &store.SavedClassification{
				DatasetID: ds.ID,
				Field:     field,
				Mode:      res.Mode,
				Breaks:    res.Breaks,
				Palette:   res.Palette,
			}
			if err := st.SaveClassification(ctx, c); err != nil {
				return err
			}
			saved++
		}

		fmt.Printf("imported dataset %s (%d records, %d classified fields)\n",
			ds.ID, len(tbl.Records), saved)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "dataset name (default: file basename)")
	rootCmd.AddCommand(importCmd)
}
