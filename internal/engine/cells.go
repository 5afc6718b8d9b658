package engine

import (
	"fmt"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

// InsertRowAsDefault adds a row of column defaults and returns its key.
func (m *Manager) InsertRowAsDefault(tableName string) (string, error) {
	const op = "InsertRowAsDefault"
	t, err := m.lookup(tableName)
	if err != nil {
		return "", m.reject(op, tableName, err)
	}
	key, err := t.InsertRowAsDefault()
	if err != nil {
		return "", m.reject(op, tableName, err)
	}
	return key.String(), nil
}

// InsertRow adds a caller-built row and returns its key. In Serial tables
// the first cell is replaced by a fresh id.
func (m *Manager) InsertRow(tableName string, row table.Row) (string, error) {
	const op = "InsertRow"
	t, err := m.lookup(tableName)
	if err != nil {
		return "", m.reject(op, tableName, err)
	}
	key, err := t.InsertRow(row)
	if err != nil {
		return "", m.reject(op, tableName, err)
	}
	return key.String(), nil
}

// SetCell writes v into the row keyed by pk. Writing the key column of an
// Explicit table renames the row and cascades through ChangePrimaryKey;
// the serial key column is read-only.
func (m *Manager) SetCell(tableName, pk, column string, v cell.Cell) error {
	const op = "SetCell"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	key, err := t.ParseKey(pk)
	if err != nil {
		return m.reject(op, tableName, err)
	}

	if t.IsPKColumn(column) {
		if t.Mode() == table.Serial {
			return m.reject(op, tableName, fmt.Errorf("%w: serial column %q is read-only", table.ErrPrimaryKey, column))
		}
		if v.Type != t.PKType() {
			return m.reject(op, tableName, fmt.Errorf("%w: key column %q is %s, value is %s",
				cell.ErrTypeMismatch, column, t.PKType(), v.Type))
		}
		to, err := cell.KeyOf(v)
		if err != nil {
			return m.reject(op, tableName, fmt.Errorf("%w: %v", table.ErrPrimaryKey, err))
		}
		return m.reject(op, tableName, m.changePrimaryKey(t, key, to))
	}

	return m.reject(op, tableName, t.SetCell(key, column, v))
}

func (m *Manager) SetCellInt(tableName, pk, column string, v int32) error {
	return m.SetCell(tableName, pk, column, cell.Int(v))
}

func (m *Manager) SetCellFloat(tableName, pk, column string, v float32) error {
	return m.SetCell(tableName, pk, column, cell.Float(v))
}

func (m *Manager) SetCellBool(tableName, pk, column string, v bool) error {
	return m.SetCell(tableName, pk, column, cell.Bool(v))
}

func (m *Manager) SetCellString(tableName, pk, column, v string) error {
	return m.SetCell(tableName, pk, column, cell.String(v))
}

func (m *Manager) SetCellVector3(tableName, pk, column string, v cell.Vector3) error {
	return m.SetCell(tableName, pk, column, cell.Vec3(v))
}

// SetCellNull clears a cell. Key columns cannot be null.
func (m *Manager) SetCellNull(tableName, pk, column string) error {
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject("SetCellNull", tableName, err)
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return m.reject("SetCellNull", tableName,
			fmt.Errorf("%w: %q in table %s", table.ErrColumnNotFound, column, tableName))
	}
	return m.SetCell(tableName, pk, column, cell.Null(t.Column(idx).Type))
}

// GetCell reads one cell of the row keyed by pk.
func (m *Manager) GetCell(tableName, pk, column string) (cell.Cell, error) {
	t, err := m.lookup(tableName)
	if err != nil {
		return cell.Cell{}, m.reject("GetCell", tableName, err)
	}
	c, err := t.FindCellOnRow(pk, column)
	if err != nil {
		return cell.Cell{}, m.reject("GetCell", tableName, err)
	}
	return c, nil
}

func getTyped[T any](m *Manager, tableName, pk, column string, as func(cell.Cell) (T, error)) (T, error) {
	var zero T
	c, err := m.GetCell(tableName, pk, column)
	if err != nil {
		return zero, err
	}
	v, err := as(c)
	if err != nil {
		return zero, m.reject("GetCell", tableName, fmt.Errorf("column %q: %w", column, err))
	}
	return v, nil
}

func (m *Manager) GetCellInt(tableName, pk, column string) (int32, error) {
	return getTyped(m, tableName, pk, column, cell.Cell.AsInt)
}

func (m *Manager) GetCellFloat(tableName, pk, column string) (float32, error) {
	return getTyped(m, tableName, pk, column, cell.Cell.AsFloat)
}

func (m *Manager) GetCellBool(tableName, pk, column string) (bool, error) {
	return getTyped(m, tableName, pk, column, cell.Cell.AsBool)
}

func (m *Manager) GetCellString(tableName, pk, column string) (string, error) {
	return getTyped(m, tableName, pk, column, cell.Cell.AsString)
}

func (m *Manager) GetCellVector3(tableName, pk, column string) (cell.Vector3, error) {
	return getTyped(m, tableName, pk, column, cell.Cell.AsVector3)
}

// columnData reads a whole column in row order. The key column reads like
// any other; null cells come back as the zero value.
func columnData[T any](m *Manager, tableName, column string, typ cell.Type, as func(cell.Cell) (T, error)) ([]T, error) {
	const op = "GetColumnData"
	t, err := m.lookup(tableName)
	if err != nil {
		return nil, m.reject(op, tableName, err)
	}
	lc, cells, err := t.ColumnData(column)
	if err != nil {
		return nil, m.reject(op, tableName, err)
	}
	if lc.Type != typ {
		return nil, m.reject(op, tableName,
			fmt.Errorf("%w: column %q is %s, want %s", cell.ErrTypeMismatch, column, lc.Type, typ))
	}

	out := make([]T, len(cells))
	for i, c := range cells {
		if c.Null {
			continue
		}
		v, err := as(c)
		if err != nil {
			panic(fmt.Sprintf("engine: column %s.%s holds %s: %v", tableName, column, c.Type, err))
		}
		out[i] = v
	}
	return out, nil
}

func (m *Manager) GetIntColumnData(tableName, column string) ([]int32, error) {
	return columnData(m, tableName, column, cell.TypeInt, cell.Cell.AsInt)
}

func (m *Manager) GetFloatColumnData(tableName, column string) ([]float32, error) {
	return columnData(m, tableName, column, cell.TypeFloat, cell.Cell.AsFloat)
}

func (m *Manager) GetBoolColumnData(tableName, column string) ([]bool, error) {
	return columnData(m, tableName, column, cell.TypeBool, cell.Cell.AsBool)
}

func (m *Manager) GetStringColumnData(tableName, column string) ([]string, error) {
	return columnData(m, tableName, column, cell.TypeString, cell.Cell.AsString)
}

func (m *Manager) GetVector3ColumnData(tableName, column string) ([]cell.Vector3, error) {
	return columnData(m, tableName, column, cell.TypeVector3, cell.Cell.AsVector3)
}
