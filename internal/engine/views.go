package engine

import (
	"fmt"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

// ColumnView is one column rendered for display, one value per row.
type ColumnView struct {
	Name         string
	Type         cell.Type
	Values       []string
	DefaultValue string
	// MaxStringLength is the longest value in bytes; 0 for non-String
	// columns.
	MaxStringLength int
}

// SchemaView lists a table's columns.
type SchemaView struct {
	Table       string
	Mode        table.Mode
	PKColumn    string
	ColumnNames []string
	ColumnTypes []cell.Type
}

// RowView is a detached copy of one row, addressed by column name.
type RowView struct {
	Key   string
	index map[string]int
	cells []cell.Cell
}

func (m *Manager) ColumnView(tableName, column string) (ColumnView, error) {
	t, err := m.lookup(tableName)
	if err != nil {
		return ColumnView{}, m.reject("ColumnView", tableName, err)
	}
	lc, cells, err := t.ColumnData(column)
	if err != nil {
		return ColumnView{}, m.reject("ColumnView", tableName, err)
	}

	v := ColumnView{
		Name:         lc.Name,
		Type:         lc.Type,
		Values:       make([]string, len(cells)),
		DefaultValue: t.Column(lc.Index).DefaultCell().String(),
	}
	for i, c := range cells {
		v.Values[i] = c.String()
		if c.Type == cell.TypeString && !c.Null {
			v.MaxStringLength = max(v.MaxStringLength, c.Len())
		}
	}
	return v, nil
}

func (m *Manager) SchemaView(tableName string) (SchemaView, error) {
	t, err := m.lookup(tableName)
	if err != nil {
		return SchemaView{}, m.reject("SchemaView", tableName, err)
	}
	v := SchemaView{
		Table:    t.Name,
		Mode:     t.Mode(),
		PKColumn: t.PKColumnName(),
	}
	for _, c := range t.Columns() {
		v.ColumnNames = append(v.ColumnNames, c.Name)
		v.ColumnTypes = append(v.ColumnTypes, c.Type)
	}
	return v, nil
}

// RowView copies the row keyed by pk.
func (m *Manager) RowView(tableName, pk string) (RowView, error) {
	t, err := m.lookup(tableName)
	if err != nil {
		return RowView{}, m.reject("RowView", tableName, err)
	}
	row, err := t.FindRow(pk)
	if err != nil {
		return RowView{}, m.reject("RowView", tableName, err)
	}

	index := make(map[string]int, t.ColumnCount())
	for i, c := range t.Columns() {
		index[c.Name] = i
	}
	return RowView{Key: pk, index: index, cells: row}, nil
}

// Cell returns the named cell of the row.
func (r RowView) Cell(column string) (cell.Cell, error) {
	i, ok := r.index[column]
	if !ok {
		return cell.Cell{}, fmt.Errorf("%w: %q", table.ErrColumnNotFound, column)
	}
	return r.cells[i], nil
}

func rowValue[T any](r RowView, column string, as func(cell.Cell) (T, error)) (T, error) {
	c, err := r.Cell(column)
	if err != nil {
		var zero T
		return zero, err
	}
	return as(c)
}

func (r RowView) GetCellAsInt(column string) (int32, error) {
	return rowValue(r, column, cell.Cell.AsInt)
}

func (r RowView) GetCellAsFloat(column string) (float32, error) {
	return rowValue(r, column, cell.Cell.AsFloat)
}

func (r RowView) GetCellAsBool(column string) (bool, error) {
	return rowValue(r, column, cell.Cell.AsBool)
}

func (r RowView) GetCellAsString(column string) (string, error) {
	return rowValue(r, column, cell.Cell.AsString)
}

func (r RowView) GetCellAsVector3(column string) (cell.Vector3, error) {
	return rowValue(r, column, cell.Cell.AsVector3)
}
