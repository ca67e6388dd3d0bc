package extractor

import (
	"context"
	"fmt"

	"thomann-reviews/internal/types"
)

// State is the position of a Walker in its page loop
type State int

const (
	StateFetching State = iota
	StateAccumulating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateAccumulating:
		return "accumulating"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PageHook is called after every fetched page with the number of review blocks found
type PageHook func(productID string, page, fragments int)

// Walker pages through a product's review listing until a page comes back empty
type Walker struct {
	source   types.ReviewSource
	logger   types.Logger
	maxPages int
	onPage   PageHook
}

// NewWalker creates a walker over source. config.MaxPages of 0 leaves the walk unbounded.
func NewWalker(source types.ReviewSource, config *types.Config, logger types.Logger) *Walker {
	return &Walker{
		source:   source,
		logger:   logger,
		maxPages: config.MaxPages,
	}
}

// OnPage registers a hook called after each page
func (w *Walker) OnPage(hook PageHook) {
	w.onPage = hook
}

// CollectAll returns every review block of a product in page order.
// A page without review blocks is the only end-of-listing signal. Any fetch or
// parse failure discards what was collected and is returned.
func (w *Walker) CollectAll(ctx context.Context, productID string, filter types.ReviewFilter) ([]types.ReviewFragment, error) {
	all := []types.ReviewFragment{}
	var fragments []types.ReviewFragment
	page := 1
	state := StateFetching

	for state != StateDone {
		switch state {
		case StateFetching:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if w.maxPages > 0 && page > w.maxPages {
				w.logger.Warnf("Stopping %s at page cap %d with %d reviews collected", productID, w.maxPages, len(all))
				state = StateDone
				continue
			}

			body, err := w.source.Fetch(ctx, productID, page, filter)
			if err != nil {
				return nil, fmt.Errorf("product %s page %d: %w", productID, page, err)
			}
			fragments, err = w.source.Fragments(body)
			if err != nil {
				return nil, fmt.Errorf("product %s page %d: %w", productID, page, err)
			}

			w.logger.Debugf("Page %d of %s has %d reviews", page, productID, len(fragments))
			if w.onPage != nil {
				w.onPage(productID, page, len(fragments))
			}

			if len(fragments) == 0 {
				state = StateDone
			} else {
				state = StateAccumulating
			}

		case StateAccumulating:
			for i := range fragments {
				fragments[i].Page = page
			}
			all = append(all, fragments...)
			page++
			state = StateFetching
		}
	}

	return all, nil
}
