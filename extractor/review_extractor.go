package extractor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"thomann-reviews/adapters"
	"thomann-reviews/internal/metrics"
	"thomann-reviews/internal/types"
)

// ReviewExtractor runs the review pipeline for a list of products and
// assembles the results into a single table
type ReviewExtractor struct {
	source types.ReviewSource
	walker *Walker
	config *types.Config
	logger types.Logger
}

// NewReviewExtractor creates an extractor reading from thomann.de
func NewReviewExtractor(config *types.Config, logger types.Logger) *ReviewExtractor {
	return NewReviewExtractorWithSource(adapters.NewThomannAdapter(config, logger), config, logger)
}

// NewReviewExtractorWithSource creates an extractor reading from source
func NewReviewExtractorWithSource(source types.ReviewSource, config *types.Config, logger types.Logger) *ReviewExtractor {
	return &ReviewExtractor{
		source: source,
		walker: NewWalker(source, config, logger),
		config: config,
		logger: logger,
	}
}

// Walker exposes the page walker, e.g. to register a page hook
func (e *ReviewExtractor) Walker() *Walker {
	return e.walker
}

// Build collects the reviews of every product with the configured filter
func (e *ReviewExtractor) Build(ctx context.Context, products []string) (*types.ReviewTable, error) {
	return e.BuildWithFilter(ctx, products, e.config.Filter)
}

// BuildWithFilter collects the reviews of every product and returns them in
// product order. Products are walked concurrently up to MaxConcurrentRequests.
// The first failure cancels the run unless SkipFailedProducts is set, in which
// case the failure is recorded on the table and the other products continue.
func (e *ReviewExtractor) BuildWithFilter(ctx context.Context, products []string, filter types.ReviewFilter) (*types.ReviewTable, error) {
	startTime := time.Now()
	e.logger.Infof("Starting %s review extraction for %d products", e.source.GetStoreName(), len(products))

	limit := e.config.MaxConcurrentRequests
	if limit < 1 {
		limit = 1
	}

	results := make([][]types.Review, len(products))
	failures := make([]error, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, productID := range products {
		i, productID := i, productID
		g.Go(func() error {
			rows, err := e.ExtractProduct(gctx, productID, filter)
			if err != nil {
				if e.config.SkipFailedProducts && ctx.Err() == nil {
					e.logger.Warnf("Failed to extract reviews for %s: %v", productID, err)
					failures[i] = err
					return nil
				}
				return err
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := types.NewReviewTable()
	for i, rows := range results {
		if failures[i] != nil {
			table.Failures = append(table.Failures, types.ProductFailure{
				ProductName: products[i],
				Error:       failures[i].Error(),
			})
			continue
		}
		table.Append(rows...)
	}

	e.logger.Infof("Review extraction completed in %v", time.Since(startTime))
	e.logger.Infof("Collected %d reviews from %d/%d products", table.Len(), len(products)-len(table.Failures), len(products))

	return table, nil
}

// ExtractProduct walks every listing page of one product and decodes each review
func (e *ReviewExtractor) ExtractProduct(ctx context.Context, productID string, filter types.ReviewFilter) ([]types.Review, error) {
	productStartTime := time.Now()

	fragments, err := e.walker.CollectAll(ctx, productID, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]types.Review, 0, len(fragments))
	for _, fragment := range fragments {
		review, err := e.source.DecodeReview(productID, fragment)
		if err != nil {
			return nil, fmt.Errorf("product %s page %d review %d: %w", productID, fragment.Page, fragment.Index+1, err)
		}
		rows = append(rows, review)
	}

	metrics.ObserveReviews(len(rows))
	e.logger.Debugf("Product %s: %d reviews in %v", productID, len(rows), time.Since(productStartTime))

	return rows, nil
}

// Close cleans up resources
func (e *ReviewExtractor) Close() {
	if e.source != nil {
		e.source.Close()
	}
}
