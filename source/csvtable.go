package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

const (
	// cellDelimiter separates CSV columns in the exchange format.
	cellDelimiter = '|'
	// linkDelimiter separates image links inside the image cell.
	linkDelimiter = ";"
)

// Table is the pipe-delimited link table the chat exchange uses: a
// header row naming columns, data rows, and one designated image
// column whose cells hold semicolon-separated image links.
type Table struct {
	header   []string
	rows     [][]string
	imageCol int
}

// ParseTable parses the exchange CSV and locates the image column by
// name.
func ParseTable(data []byte, imageColumn string) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = cellDelimiter
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse link table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse link table: no header row")
	}

	header := records[0]
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == imageColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("parse link table: no %q column", imageColumn)
	}

	return &Table{header: header, rows: records[1:], imageCol: col}, nil
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.rows) }

// Links returns the image links of a data row, in cell order. Empty
// segments are dropped.
func (t *Table) Links(row int) []string {
	if row < 0 || row >= len(t.rows) || t.imageCol >= len(t.rows[row]) {
		return nil
	}
	var links []string
	for _, l := range strings.Split(t.rows[row][t.imageCol], linkDelimiter) {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	return links
}

// SetLinks replaces the image links of a data row.
func (t *Table) SetLinks(row int, links []string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("link table: no row %d", row)
	}
	for t.imageCol >= len(t.rows[row]) {
		t.rows[row] = append(t.rows[row], "")
	}
	t.rows[row][t.imageCol] = strings.Join(links, linkDelimiter)
	return nil
}

// Encode serializes the table back to the exchange format, headers and
// column order preserved.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = cellDelimiter

	if err := w.Write(t.header); err != nil {
		return nil, err
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
