package table

import (
	"fmt"

	"tableDB/internal/cell"
)

// Schema is the persisted description of a table, without rows.
type Schema struct {
	Name         string
	Mode         Mode
	PKColumn     string
	NextSerialID int32
	Columns      []Column
}

// Schema describes t.
func (t *Table) Schema() Schema {
	return Schema{
		Name:         t.Name,
		Mode:         t.mode,
		PKColumn:     t.pkColumn,
		NextSerialID: t.nextSerial,
		Columns:      t.Columns(),
	}
}

// Restore builds an empty table from a persisted schema. Rows are added with
// LoadRow.
func Restore(s Schema) (*Table, error) {
	if !ValidName(s.Name) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidName, s.Name)
	}
	if len(s.Columns) == 0 || s.Columns[0].Type != cell.TypeInt {
		return nil, fmt.Errorf("%w: column 0 of %s must be Int", ErrPrimaryKey, s.Name)
	}

	t := &Table{
		Name:       s.Name,
		mode:       s.Mode,
		pkColumn:   s.PKColumn,
		nextSerial: max(s.NextSerialID, 1),
		rows:       make(map[cell.PrimaryKey]Row),
	}

	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if !ValidName(c.Name) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidName, c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: column %q in table %s", ErrDuplicateName, c.Name, s.Name)
		}
		seen[c.Name] = true
		t.columns = append(t.columns, c.clone())
	}

	if s.Mode == Serial {
		t.pkColumn = ""
	} else if t.ColumnIndex(s.PKColumn) <= 0 {
		return nil, fmt.Errorf("%w: key column %q of %s", ErrColumnNotFound, s.PKColumn, s.Name)
	}
	return t, nil
}
