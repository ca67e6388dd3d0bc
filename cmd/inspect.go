package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"thomann-reviews/extractor"
	"thomann-reviews/internal/types"
)

func newInspectCmd(config *types.Config, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <product>",
		Short: "Walks a product's review pages and prints how many reviews each page holds.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)

			reviewExtractor := extractor.NewReviewExtractor(config, logger)
			defer reviewExtractor.Close()

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Page", "Reviews"})

			walker := reviewExtractor.Walker()
			walker.OnPage(func(productID string, page, fragments int) {
				t.AppendRow(table.Row{page, fragments})
			})

			fragments, err := walker.CollectAll(cmd.Context(), args[0], config.Filter)
			if err != nil {
				return err
			}

			t.AppendFooter(table.Row{"Total", len(fragments)})
			t.Render()
			return nil
		},
	}
}
