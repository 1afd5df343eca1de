package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotTabular is returned when uploaded bytes cannot be parsed as a
// delimited table at all. Per-cell problems never produce it; those degrade
// to default values during normalization instead.
var ErrNotTabular = errors.New("input is not tabular")

// Column is one named column of a table and its cell values. Values start
// out as strings when parsed from CSV; normalization may replace them with
// typed values (int, float64).
type Column struct {
	Name   string
	Values []any
}

// Table is a column-ordered tabular dataset. All columns hold the same
// number of values.
type Table struct {
	Columns []Column
}

// ParseCSV parses raw bytes as comma-separated values with a required header
// row. A short or malformed body fails the whole parse with ErrNotTabular.
func ParseCSV(raw []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(raw))

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNotTabular, err)
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: name}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading rows: %v", ErrNotTabular, err)
	}

	for _, row := range rows {
		for i := range cols {
			cols[i].Values = append(cols[i].Values, row[i])
		}
	}

	return &Table{Columns: cols}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the column with the given name, or nil if absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Records converts the table to one document per row, preserving column
// order so that downstream consumers (and the CSV export) see fields in
// their natural order.
func (t *Table) Records() []bson.D {
	n := t.Len()
	recs := make([]bson.D, 0, n)
	for row := 0; row < n; row++ {
		doc := make(bson.D, 0, len(t.Columns))
		for _, col := range t.Columns {
			doc = append(doc, bson.E{Key: col.Name, Value: col.Values[row]})
		}
		recs = append(recs, doc)
	}
	return recs
}
