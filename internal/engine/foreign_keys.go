package engine

import (
	"context"
	"fmt"
	"slices"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

// AddForeignKeyConstraint declares that fkTable.fkColumn holds keys of
// refTable. The column must exist, must not be fkTable's key column, must
// not already be a foreign key, and must have refTable's key type.
func (m *Manager) AddForeignKeyConstraint(fkTable, fkColumn, refTable string) error {
	const op = "AddForeignKeyConstraint"
	child, err := m.lookup(fkTable)
	if err != nil {
		return m.reject(op, fkTable, err)
	}
	parent, err := m.lookup(refTable)
	if err != nil {
		return m.reject(op, fkTable, err)
	}

	idx := child.ColumnIndex(fkColumn)
	if idx < 0 {
		return m.reject(op, fkTable, fmt.Errorf("%w: %q in table %s", table.ErrColumnNotFound, fkColumn, fkTable))
	}
	if child.IsPKColumn(fkColumn) {
		return m.reject(op, fkTable, fmt.Errorf("%w: %s.%s is a key column", table.ErrForeignKey, fkTable, fkColumn))
	}
	if _, ok := m.constraintOn(fkTable, fkColumn); ok {
		return m.reject(op, fkTable, fmt.Errorf("%w: %s.%s is already a foreign key", table.ErrForeignKey, fkTable, fkColumn))
	}
	if typ := child.Column(idx).Type; typ != parent.PKType() {
		return m.reject(op, fkTable, fmt.Errorf("%w: %s.%s is %s but %s keys are %s: %w",
			table.ErrForeignKey, fkTable, fkColumn, typ, refTable, parent.PKType(), cell.ErrTypeMismatch))
	}

	m.fks = append(m.fks, table.ForeignKey{
		FKTable:  fkTable,
		FKColumn: fkColumn,
		PKTable:  refTable,
		PKColumn: parent.PKColumnName(),
	})
	if err := child.TagForeignKey(fkColumn, refTable); err != nil {
		panic(fmt.Sprintf("engine: tag %s.%s: %v", fkTable, fkColumn, err))
	}
	return nil
}

// RemoveForeignKeyConstraint drops the constraint on fkTable.fkColumn.
func (m *Manager) RemoveForeignKeyConstraint(fkTable, fkColumn string) error {
	const op = "RemoveForeignKeyConstraint"
	if _, err := m.lookup(fkTable); err != nil {
		return m.reject(op, fkTable, err)
	}
	i, ok := m.constraintOn(fkTable, fkColumn)
	if !ok {
		return m.reject(op, fkTable, fmt.Errorf("%w: %s.%s has no constraint", table.ErrForeignKey, fkTable, fkColumn))
	}
	m.fks = slices.Delete(m.fks, i, i+1)
	m.ApplyForeignKeysToTables()
	return nil
}

func (m *Manager) constraintOn(fkTable, fkColumn string) (int, bool) {
	i := slices.IndexFunc(m.fks, func(fk table.ForeignKey) bool {
		return fk.FKTable == fkTable && fk.FKColumn == fkColumn
	})
	return i, i >= 0
}

// ForeignKeys returns a copy of the constraint list.
func (m *Manager) ForeignKeys() []table.ForeignKey {
	return slices.Clone(m.fks)
}

// ApplyForeignKeysToTables recomputes every column's foreign-key tag from
// the constraint list. Constraints whose tables or columns are not loaded
// stay in the list but are skipped and returned.
func (m *Manager) ApplyForeignKeysToTables() []table.ForeignKey {
	for _, t := range m.tables {
		t.ClearForeignKeyTags()
	}

	var skipped []table.ForeignKey
	for _, fk := range m.fks {
		child, ok := m.tables[fk.FKTable]
		if !ok || !m.HasTable(fk.PKTable) {
			skipped = append(skipped, fk)
			continue
		}
		if err := child.TagForeignKey(fk.FKColumn, fk.PKTable); err != nil {
			skipped = append(skipped, fk)
		}
	}

	for _, fk := range skipped {
		m.log.WarnContext(context.Background(), "foreign key not applied",
			"constraint", fk.String(),
		)
	}
	return skipped
}

// ChangePrimaryKey renames the row keyed oldPK to newPK and rewrites every
// foreign-key cell that pointed at the old key.
func (m *Manager) ChangePrimaryKey(tableName, oldPK, newPK string) error {
	const op = "ChangePrimaryKey"
	t, err := m.lookup(tableName)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	from, err := t.ParseKey(oldPK)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	to, err := t.ParseKey(newPK)
	if err != nil {
		return m.reject(op, tableName, err)
	}
	return m.reject(op, tableName, m.changePrimaryKey(t, from, to))
}

type pendingUpdate struct {
	table  *table.Table
	key    cell.PrimaryKey
	column string
}

// changePrimaryKey collects every referencing cell first, checks that the
// new key fits each referencing column, and only then renames and applies.
// A failure before the rename leaves everything untouched.
func (m *Manager) changePrimaryKey(t *table.Table, from, to cell.PrimaryKey) error {
	if from == to {
		if _, ok := t.Row(from); !ok {
			return fmt.Errorf("%w: %s in table %s", table.ErrRowNotFound, from, t.Name)
		}
		return nil
	}

	oldCell, newCell := from.Cell(), to.Cell()

	var pending []pendingUpdate
	for _, fk := range m.fks {
		if fk.PKTable != t.Name {
			continue
		}
		child, ok := m.tables[fk.FKTable]
		if !ok {
			continue
		}
		idx := child.ColumnIndex(fk.FKColumn)
		if idx < 0 {
			continue
		}
		if err := child.Column(idx).Accepts(newCell); err != nil {
			return fmt.Errorf("cascade into %s.%s: %w", fk.FKTable, fk.FKColumn, err)
		}

		child.Each(func(key cell.PrimaryKey, row table.Row) bool {
			if row[idx].Equal(oldCell) {
				pending = append(pending, pendingUpdate{table: child, key: key, column: fk.FKColumn})
			}
			return true
		})
	}

	if err := t.RenameKey(from, to); err != nil {
		return err
	}

	for _, u := range pending {
		// a self-referencing row was itself renamed
		if u.table == t && u.key == from {
			u.key = to
		}
		if err := u.table.SetCell(u.key, u.column, newCell); err != nil {
			panic(fmt.Sprintf("engine: cascade %s.%s row %s: %v", u.table.Name, u.column, u.key, err))
		}
	}

	m.log.LogCascade(context.Background(), t.Name, from.String(), to.String(), len(pending))
	return nil
}
