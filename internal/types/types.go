package types

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Column names of a ReviewTable, in order.
const (
	ColumnProductName = "product_name"
	ColumnReviewText  = "review_text"
	ColumnStars       = "stars"
)

// Review is one decoded customer review
type Review struct {
	ProductName string  `json:"product_name"`
	Text        string  `json:"review_text"`
	Stars       float64 `json:"stars"`
}

// ReviewFragment is the markup region of a single review on a listing page.
// It is only valid while the page it was parsed from is being processed.
type ReviewFragment struct {
	Node  *goquery.Selection
	Page  int
	Index int
}

// ReviewFilter holds the numeric filter codes understood by the review listing.
// Zero means "no filter" for Rating and Order.
type ReviewFilter struct {
	Rating   int `json:"rating"`
	Order    int `json:"order"`
	Language int `json:"language"`
}

// DefaultFilter returns all ratings in default order, language 1
func DefaultFilter() ReviewFilter {
	return ReviewFilter{Rating: 0, Order: 0, Language: 1}
}

// Selectors are the CSS selectors used to locate review markup
type Selectors struct {
	Review string
	Stars  string
	Text   string
}

// DefaultSelectors returns selectors matching the Thomann review listing
func DefaultSelectors() Selectors {
	return Selectors{
		Review: "div.review",
		Stars:  `[style*="width"][style*="%"]`,
		Text:   "div.inner.js-replace-text",
	}
}

// Config holds the configuration for the review extractor
type Config struct {
	BaseURL               string
	Selectors             Selectors
	Filter                ReviewFilter
	RequestDelay          time.Duration
	MaxRetries            int
	Timeout               time.Duration
	MaxConcurrentRequests int
	MaxPages              int
	SkipFailedProducts    bool
	UserAgent             string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               "https://www.thomann.de/de",
		Selectors:             DefaultSelectors(),
		Filter:                DefaultFilter(),
		RequestDelay:          500 * time.Millisecond,
		MaxRetries:            0,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 1,
		MaxPages:              0,
		SkipFailedProducts:    false,
		UserAgent:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// ApplyEnv overrides config values from environment variables when set.
// Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("THOMANN_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("REVIEWS_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPages = n
		}
	}
	if v := os.Getenv("REVIEWS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentRequests = n
		}
	}
	if v := os.Getenv("REVIEWS_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestDelay = d
		}
	}
}

// ReviewSource defines the store-specific review listing logic
type ReviewSource interface {
	// GetStoreName returns the name of the store
	GetStoreName() string

	// Fetch returns the raw body of one 1-indexed listing page
	Fetch(ctx context.Context, productID string, page int, filter ReviewFilter) (string, error)

	// Fragments locates the review blocks on a listing page
	Fragments(body string) ([]ReviewFragment, error)

	// DecodeReview extracts the fields of one review block
	DecodeReview(productID string, fragment ReviewFragment) (Review, error)

	Close()
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
