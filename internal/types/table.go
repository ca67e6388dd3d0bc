package types

import "strconv"

// ProductFailure records a product whose collection was abandoned
type ProductFailure struct {
	ProductName string `json:"product_name"`
	Error       string `json:"error"`
}

// ReviewTable is the assembled dataset. Rows keep insertion order:
// product order, then page order, then position on the page.
type ReviewTable struct {
	Rows     []Review         `json:"rows"`
	Failures []ProductFailure `json:"failures,omitempty"`
}

// NewReviewTable returns an empty table
func NewReviewTable() *ReviewTable {
	return &ReviewTable{Rows: []Review{}}
}

// Columns returns the fixed column names
func (t *ReviewTable) Columns() []string {
	return []string{ColumnProductName, ColumnReviewText, ColumnStars}
}

// Append adds rows at the end of the table
func (t *ReviewTable) Append(rows ...Review) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows
func (t *ReviewTable) Len() int {
	return len(t.Rows)
}

// Products returns the distinct product names in first-seen order
func (t *ReviewTable) Products() []string {
	seen := make(map[string]bool)
	var products []string
	for _, r := range t.Rows {
		if !seen[r.ProductName] {
			seen[r.ProductName] = true
			products = append(products, r.ProductName)
		}
	}
	return products
}

// Records returns the rows as strings, header first
func (t *ReviewTable) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Columns())
	for _, r := range t.Rows {
		records = append(records, []string{
			r.ProductName,
			r.Text,
			strconv.FormatFloat(r.Stars, 'f', -1, 64),
		})
	}
	return records
}
