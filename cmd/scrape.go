package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"thomann-reviews/extractor"
	"thomann-reviews/internal/export"
	"thomann-reviews/internal/metrics"
	"thomann-reviews/internal/types"
)

func newScrapeCmd(config *types.Config, verbose *bool) *cobra.Command {
	var (
		productsFile string
		output       string
		format       string
		metricsAddr  string
	)

	cmd := &cobra.Command{
		Use:   "scrape [product...]",
		Short: "Collects every review of the given products and writes one table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)

			products := make([]string, 0, len(args))
			for _, p := range args {
				if p = strings.TrimSpace(p); p != "" {
					products = append(products, p)
				}
			}
			if productsFile != "" {
				fromFile, err := export.ReadProducts(productsFile)
				if err != nil {
					return fmt.Errorf("read products: %w", err)
				}
				products = append(products, fromFile...)
			}
			if len(products) == 0 {
				return errors.New("no products given; pass slugs as arguments or use --products-file")
			}

			outFormat := export.FormatFromPath(output)
			if format != "" {
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				outFormat = f
			}

			metrics.Serve(metricsAddr, metrics.InitRegistry(), logger)

			reviewExtractor := extractor.NewReviewExtractor(config, logger)
			defer reviewExtractor.Close()

			startTime := time.Now()
			logger.Infof("Starting extraction for products: %v", products)

			table, err := reviewExtractor.Build(cmd.Context(), products)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			logger.Infof("Extraction completed in %v", time.Since(startTime))

			if output != "" {
				if err := export.WriteFile(output, table, outFormat); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
				logger.Infof("Results written to: %s", output)
			} else if err := export.Write(os.Stdout, table, outFormat); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}

			export.RenderSummary(os.Stderr, table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&productsFile, "products-file", "f", "", "File with one product slug per line (or CSV with a 'product' column)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv, ndjson, json, xlsx (default: from --output extension, else csv)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", os.Getenv("METRICS_ADDR"), "Serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&config.MaxConcurrentRequests, "concurrent", config.MaxConcurrentRequests, "Products collected in parallel")
	cmd.Flags().BoolVar(&config.SkipFailedProducts, "skip-failed", config.SkipFailedProducts, "Keep going when a product fails")

	return cmd
}
