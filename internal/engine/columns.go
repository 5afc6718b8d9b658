package engine

import (
	"fmt"
	"slices"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

// AddColumn appends a column to a table. String columns get the manager's
// string capacity, or the default's length if that is larger.
func (m *Manager) AddColumn(tableName, column string, typ cell.Type, def []byte) error {
	const op = "AddColumn"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}

	size := 0
	if typ == cell.TypeString {
		size = max(m.stringCapacity, len(def))
	}
	return m.reject(op, tableName, t.AddColumnSized(column, typ, def, size))
}

func (m *Manager) AddIntColumn(tableName, column string, def int32) error {
	return m.AddColumn(tableName, column, cell.TypeInt, cell.Int(def).Bytes())
}

func (m *Manager) AddFloatColumn(tableName, column string, def float32) error {
	return m.AddColumn(tableName, column, cell.TypeFloat, cell.Float(def).Bytes())
}

func (m *Manager) AddBoolColumn(tableName, column string, def bool) error {
	return m.AddColumn(tableName, column, cell.TypeBool, cell.Bool(def).Bytes())
}

func (m *Manager) AddStringColumn(tableName, column, def string) error {
	return m.AddColumn(tableName, column, cell.TypeString, []byte(def))
}

func (m *Manager) AddVector3Column(tableName, column string, def cell.Vector3) error {
	return m.AddColumn(tableName, column, cell.TypeVector3, cell.Vec3(def).Bytes())
}

// RemoveColumn drops a non-key column. Foreign keys declared on it are
// removed as well.
func (m *Manager) RemoveColumn(tableName, column string) error {
	const op = "RemoveColumn"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	if err := t.RemoveColumn(column); err != nil {
		return m.reject(op, tableName, err)
	}

	m.fks = slices.DeleteFunc(m.fks, func(fk table.ForeignKey) bool {
		return fk.FKTable == tableName && fk.FKColumn == column
	})
	return nil
}

// ConvertToExplicitPK re-keys a Serial table on a new column seeded from the
// serial ids. Tables referenced by a foreign key cannot change key type.
func (m *Manager) ConvertToExplicitPK(tableName, column string, typ cell.Type, def []byte) error {
	const op = "ConvertToExplicitPK"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	if refs := m.referencedBy(tableName, true); len(refs) > 0 {
		return m.reject(op, tableName, fmt.Errorf("%w: %s", ErrTableReferenced, refs[0]))
	}
	return m.reject(op, tableName, t.ConvertSerialToExplicit(column, typ, def))
}

// ConvertToSerialPK drops the key column of an Explicit table and renumbers
// its rows from 1.
func (m *Manager) ConvertToSerialPK(tableName string) error {
	const op = "ConvertToSerialPK"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	if refs := m.referencedBy(tableName, true); len(refs) > 0 {
		return m.reject(op, tableName, fmt.Errorf("%w: %s", ErrTableReferenced, refs[0]))
	}
	return m.reject(op, tableName, t.ConvertExplicitToSerial())
}
