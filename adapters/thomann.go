package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"thomann-reviews/internal/metrics"
	"thomann-reviews/internal/types"
)

// percentRe matches the first percentage in an inline style such as "width: 93.5%"
var percentRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// ThomannAdapter reads the paginated review listings of thomann.de
type ThomannAdapter struct {
	*BaseAdapter
}

// NewThomannAdapter creates a new Thomann adapter
func NewThomannAdapter(config *types.Config, logger types.Logger) *ThomannAdapter {
	return &ThomannAdapter{
		BaseAdapter: NewBaseAdapter(config, logger),
	}
}

// GetStoreName returns the store name
func (t *ThomannAdapter) GetStoreName() string {
	return "thomann.de"
}

// ReviewURL builds the listing URL for one page of a product's reviews
func (t *ThomannAdapter) ReviewURL(productID string, page int, filter types.ReviewFilter) (string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", fmt.Errorf("%w: empty product id", types.ErrInvalidArgument)
	}
	if page < 1 {
		return "", fmt.Errorf("%w: page must be >= 1, got %d", types.ErrInvalidArgument, page)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("order", strconv.Itoa(filter.Order))
	query.Set("rating", strconv.Itoa(filter.Rating))
	query.Set("reviewlang[]", strconv.Itoa(filter.Language))

	base := strings.TrimRight(t.config.BaseURL, "/")
	return fmt.Sprintf("%s/%s_reviews.htm?%s", base, url.PathEscape(productID), query.Encode()), nil
}

// Fetch retrieves the raw body of one listing page
func (t *ThomannAdapter) Fetch(ctx context.Context, productID string, page int, filter types.ReviewFilter) (string, error) {
	pageURL, err := t.ReviewURL(productID, page, filter)
	if err != nil {
		return "", err
	}

	t.logger.Debugf("Fetching review page %d of %s: %s", page, productID, pageURL)
	return t.GetPageContent(ctx, pageURL)
}

// Fragments returns the review blocks of a listing page in document order.
// An empty slice means the page holds no reviews.
func (t *ThomannAdapter) Fragments(body string) ([]types.ReviewFragment, error) {
	doc, err := t.ParseHTML(body)
	if err != nil {
		return nil, err
	}

	fragments := []types.ReviewFragment{}
	doc.Find(t.config.Selectors.Review).Each(func(i int, s *goquery.Selection) {
		fragments = append(fragments, types.ReviewFragment{Node: s, Index: i})
	})

	return fragments, nil
}

// DecodeStars converts the fill width of the rating bar into a 0-5 star value
func (t *ThomannAdapter) DecodeStars(fragment types.ReviewFragment) (float64, error) {
	selector := t.config.Selectors.Stars

	style, err := t.ExtractAttribute(fragment.Node, "stars", selector, "style")
	if err != nil {
		metrics.ObserveDecodeError("stars")
		return 0, err
	}

	match := percentRe.FindStringSubmatch(style)
	if match == nil {
		metrics.ObserveDecodeError("stars")
		return 0, &types.DecodeError{Field: "stars", Selector: selector, Reason: fmt.Sprintf("no percentage in style %q", style)}
	}
	token := match[1]

	percent, err := strconv.ParseFloat(strings.Replace(token, ",", ".", 1), 64)
	if err != nil || percent > 100 {
		metrics.ObserveDecodeError("stars")
		return 0, &types.DecodeError{Field: "stars", Selector: selector, Reason: fmt.Sprintf("invalid percentage %q", token)}
	}

	return percent * 5 / 100, nil
}

// DecodeText returns the review body with surrounding whitespace removed
func (t *ThomannAdapter) DecodeText(fragment types.ReviewFragment) (string, error) {
	text, err := t.ExtractText(fragment.Node, "text", t.config.Selectors.Text)
	if err != nil {
		metrics.ObserveDecodeError("text")
		return "", err
	}
	return text, nil
}

// DecodeReview decodes both fields of a fragment into a Review row
func (t *ThomannAdapter) DecodeReview(productID string, fragment types.ReviewFragment) (types.Review, error) {
	text, err := t.DecodeText(fragment)
	if err != nil {
		return types.Review{}, err
	}

	stars, err := t.DecodeStars(fragment)
	if err != nil {
		return types.Review{}, err
	}

	return types.Review{ProductName: productID, Text: text, Stars: stars}, nil
}
