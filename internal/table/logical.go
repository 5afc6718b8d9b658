package table

import (
	"fmt"

	"tableDB/internal/cell"
)

// LogicalColumn is a column as seen by readers. It resolves either to a
// stored column or to the key pseudo-column, whose value comes from the
// row's primary key.
type LogicalColumn struct {
	Name  string
	Type  cell.Type
	Index int
	Key   bool
}

// Resolve looks up a column by name for reading.
func (t *Table) Resolve(name string) (LogicalColumn, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return LogicalColumn{}, fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, name, t.Name)
	}
	return LogicalColumn{
		Name:  name,
		Type:  t.columns[idx].Type,
		Index: idx,
		Key:   idx == t.pkIndex(),
	}, nil
}

// Value reads the column from a row stored under key.
func (lc LogicalColumn) Value(key cell.PrimaryKey, row Row) cell.Cell {
	if lc.Key {
		return key.Cell()
	}
	return row[lc.Index]
}

// ColumnData returns the column's value for every row, in row order.
func (t *Table) ColumnData(name string) (LogicalColumn, []cell.Cell, error) {
	lc, err := t.Resolve(name)
	if err != nil {
		return LogicalColumn{}, nil, err
	}
	out := make([]cell.Cell, 0, len(t.order))
	t.Each(func(key cell.PrimaryKey, row Row) bool {
		out = append(out, lc.Value(key, row))
		return true
	})
	return lc, out, nil
}
