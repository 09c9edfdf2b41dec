package main

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/table"
)

var (
	classifyField string
	classifyAll   bool
)

// fieldBreaks is the JSON output shape of the classify command.
type fieldBreaks struct {
	Field   string        `json:"field"`
	IsRatio bool          `json:"is_ratio"`
	Mode    classify.Mode `json:"mode"`
	Breaks  []float64     `json:"breaks"`
	Palette []string      `json:"palette"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <data.csv|data.xlsx>",
	Short: "Compute class breaks for one field or all eligible fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyField == "" && !classifyAll {
			return eris.New("either --field or --all is required")
		}

		tbl, err := table.LoadFile(args[0], cfg.Data.KeyColumn)
		if err != nil {
			return err
		}

		fields := []string{classifyField}
		if classifyAll {
			fields = table.EligibleFields(tbl, cfg.Data.ReservedColumns)
		}

		// Parsing mutates the shared records, so it stays sequential;
		// break computation is independent per column and fans out.
		cols := make([]*table.Column, 0, len(fields))
		for _, field := range fields {
			col, err := table.ParseField(tbl, field)
			if err != nil {
				return err
			}
			cols = append(cols, col)
		}

		var (
			mu      sync.Mutex
			results []fieldBreaks
		)
		g, _ := errgroup.WithContext(cmd.Context())
		g.SetLimit(4)

		for _, col := range cols {
			g.Go(func() error {
				res, err := classify.Classify(col.Sample)
				if err != nil {
					if classifyAll && eris.Is(err, classify.ErrInsufficientData) {
						zap.L().Warn("skipping field with insufficient data",
							zap.String("field", col.Field),
						)
						return nil
					}
					return eris.Wrapf(err, "field %q", col.Field)
				}

				mu.Lock()
				results = append(results, fieldBreaks{
					Field:   col.Field,
					IsRatio: col.IsRatio,
					Mode:    res.Mode,
					Breaks:  res.Breaks,
					Palette: res.Palette,
				})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		sort.Slice(results, func(i, j int) bool { return results[i].Field < results[j].Field })

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(results), "encode results")
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyField, "field", "", "field to classify")
	classifyCmd.Flags().BoolVar(&classifyAll, "all", false, "classify every eligible field")
	rootCmd.AddCommand(classifyCmd)
}
