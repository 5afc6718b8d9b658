package table

import "tableDB/internal/cell"

// Row represents one record in a table: one cell per column, in column order.
type Row []cell.Cell

func (r Row) clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

func (r Row) removeAt(i int) Row {
	out := make(Row, 0, len(r)-1)
	out = append(out, r[:i]...)
	return append(out, r[i+1:]...)
}

func (r Row) insertAt(i int, c cell.Cell) Row {
	out := make(Row, 0, len(r)+1)
	out = append(out, r[:i]...)
	out = append(out, c)
	return append(out, r[i:]...)
}
