package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/county-atlas/internal/table"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <data.csv|data.xlsx>",
	Short: "List fields eligible for classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := table.LoadFile(args[0], cfg.Data.KeyColumn)
		if err != nil {
			return err
		}

		for _, f := range table.EligibleFields(tbl, cfg.Data.ReservedColumns) {
			fmt.Println(f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
