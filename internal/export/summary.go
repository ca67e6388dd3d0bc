package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"thomann-reviews/internal/types"
)

// RenderSummary prints review count and mean stars per product
func RenderSummary(w io.Writer, rt *types.ReviewTable) {
	type stat struct {
		count int
		sum   float64
	}
	stats := make(map[string]*stat)
	for _, r := range rt.Rows {
		s, ok := stats[r.ProductName]
		if !ok {
			s = &stat{}
			stats[r.ProductName] = s
		}
		s.count++
		s.sum += r.Stars
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Product", "Reviews", "Mean stars"})

	total := 0
	for _, product := range rt.Products() {
		s := stats[product]
		t.AppendRow(table.Row{product, s.count, fmt.Sprintf("%.2f", s.sum/float64(s.count))})
		total += s.count
	}
	for _, f := range rt.Failures {
		t.AppendRow(table.Row{f.ProductName, "failed", f.Error})
	}
	t.AppendFooter(table.Row{"Total", total, ""})
	t.Render()
}
