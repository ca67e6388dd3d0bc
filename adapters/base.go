package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"thomann-reviews/internal/types"
	"thomann-reviews/utils"
)

// BaseAdapter provides the fetch and parse plumbing shared by review sources.
// Store-specific adapters embed it and add URL building and markup rules.
type BaseAdapter struct {
	config     *types.Config     // Configuration settings (timeouts, selectors, filters)
	logger     types.Logger      // Structured logging interface
	httpClient *utils.HTTPClient // HTTP client for listing pages
}

// NewBaseAdapter creates a new base adapter with an initialized HTTP client
func NewBaseAdapter(config *types.Config, logger types.Logger) *BaseAdapter {
	return &BaseAdapter{
		config:     config,
		logger:     logger,
		httpClient: utils.NewHTTPClient(config, logger),
	}
}

// GetPageContent retrieves the HTML content of a page as UTF-8 text
func (b *BaseAdapter) GetPageContent(ctx context.Context, url string) (string, error) {
	body, err := b.httpClient.Get(ctx, url)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.DecodeError{Field: "page", Reason: err.Error()}
	}
	return doc, nil
}

// ExtractText returns the trimmed text of the first element under node matching selector
func (b *BaseAdapter) ExtractText(node *goquery.Selection, field, selector string) (string, error) {
	element, err := b.findFirst(node, field, selector)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(element.Text()), nil
}

// ExtractAttribute returns an attribute of the first element under node matching selector
func (b *BaseAdapter) ExtractAttribute(node *goquery.Selection, field, selector, attribute string) (string, error) {
	element, err := b.findFirst(node, field, selector)
	if err != nil {
		return "", err
	}

	value, exists := element.Attr(attribute)
	if !exists {
		return "", &types.DecodeError{
			Field:    field,
			Selector: selector,
			Reason:   fmt.Sprintf("attribute %s not found", attribute),
		}
	}

	return value, nil
}

func (b *BaseAdapter) findFirst(node *goquery.Selection, field, selector string) (*goquery.Selection, error) {
	if node == nil {
		return nil, &types.DecodeError{Field: field, Selector: selector, Reason: "empty fragment"}
	}
	element := node.Find(selector)
	if element.Length() == 0 {
		return nil, &types.DecodeError{Field: field, Selector: selector, Reason: "element not found"}
	}
	return element.First(), nil
}

// Close cleans up resources
func (b *BaseAdapter) Close() {
	if b.httpClient != nil {
		b.httpClient.Close()
	}
}

// Config returns the config field of the BaseAdapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}
