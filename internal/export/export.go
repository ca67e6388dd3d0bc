package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"thomann-reviews/internal/types"
)

// Format is an output encoding for a review table
type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
	FormatJSON   Format = "json"
	FormatXLSX   Format = "xlsx"
)

const sheetName = "Reviews"

// ParseFormat accepts a format name, case-insensitive
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatNDJSON, FormatJSON, FormatXLSX:
		return f, nil
	case "jsonl":
		return FormatNDJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// FormatFromPath guesses the format from a file extension, defaulting to CSV
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatCSV
}

// Write encodes table to w
func Write(w io.Writer, table *types.ReviewTable, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, table)
	case FormatNDJSON:
		return writeNDJSON(w, table)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	case FormatXLSX:
		return writeXLSX(w, table)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteFile encodes table into a new file at path
func WriteFile(path string, table *types.ReviewTable, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, table, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, table *types.ReviewTable) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table.Records()); err != nil {
		return err
	}
	return cw.Error()
}

func writeNDJSON(w io.Writer, table *types.ReviewTable) error {
	enc := json.NewEncoder(w)
	for _, row := range table.Rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeXLSX(w io.Writer, table *types.ReviewTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	header := make([]interface{}, 0, 3)
	for _, c := range table.Columns() {
		header = append(header, c)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, r := range table.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{r.ProductName, r.Text, r.Stars}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return f.Write(w)
}
