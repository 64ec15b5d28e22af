// Package dataset holds the tabular nutrition reference that is injected into
// prompts and queried by the food_lookup tool.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Source loads the raw CSV bytes.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Dataset is an immutable table. The first column names the food.
type Dataset struct {
	columns []string
	rows    [][]string
}

// Load reads and parses the dataset from src.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	b, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return ds, nil
}

// Parse reads a CSV table with a header row.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, err
	}

	ds := &Dataset{columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ds.rows = append(ds.rows, rec)
	}
	return ds, nil
}

func (d *Dataset) Columns() []string { return d.columns }

func (d *Dataset) Len() int { return len(d.rows) }

// Markdown renders the table as a pipe table with a leading index column.
func (d *Dataset) Markdown() string {
	if d == nil || len(d.columns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("|    | ")
	b.WriteString(strings.Join(d.columns, " | "))
	b.WriteString(" |\n|---:|")
	for range d.columns {
		b.WriteString(":---|")
	}
	b.WriteByte('\n')

	for i, row := range d.rows {
		b.WriteString("| ")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" | ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

// Lookup returns up to limit rows whose food name contains query, case
// insensitively. Each row is keyed by column name.
func (d *Dataset) Lookup(query string, limit int) []map[string]string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || d == nil {
		return nil
	}

	var out []map[string]string
	for _, row := range d.rows {
		if len(row) == 0 || !strings.Contains(strings.ToLower(row[0]), q) {
			continue
		}
		rec := make(map[string]string, len(d.columns))
		for i, col := range d.columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
