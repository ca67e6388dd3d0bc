package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
)

// ReadProducts reads product ids from a file, see ParseProducts
func ReadProducts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProducts(f)
}

// ParseProducts reads one product id per line, skipping blank lines and
// '#' comments. A CSV whose header has a "product" column is also accepted,
// including a single-column one.
func ParseProducts(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("no products found")
	}

	if strings.Contains(lines[0], ",") || strings.EqualFold(lines[0], "product") {
		return parseProductsCSV(strings.Join(lines, "\n"))
	}
	return lines, nil
}

func parseProductsCSV(data string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "product") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain a 'product' header column")
	}

	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if p := strings.TrimSpace(row[col]); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no products found")
	}
	return out, nil
}
