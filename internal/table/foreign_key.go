package table

import (
	"errors"
	"fmt"
	"strings"
)

var ErrForeignKey = errors.New("invalid foreign key")

// ForeignKey declares that FKTable.FKColumn holds keys of PKTable, whose key
// column is PKColumn.
type ForeignKey struct {
	FKTable  string
	FKColumn string
	PKTable  string
	PKColumn string
}

// String renders the constraint as FKTable|FKColumn|PKTable|PKColumn.
func (fk ForeignKey) String() string {
	return strings.Join([]string{fk.FKTable, fk.FKColumn, fk.PKTable, fk.PKColumn}, "|")
}

// ParseForeignKey is the inverse of ForeignKey.String.
func ParseForeignKey(line string) (ForeignKey, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 4 {
		return ForeignKey{}, fmt.Errorf("%w: %q needs 4 fields", ErrForeignKey, line)
	}
	for _, p := range parts {
		if !ValidName(p) {
			return ForeignKey{}, fmt.Errorf("%w: %q has an invalid name", ErrForeignKey, line)
		}
	}
	return ForeignKey{FKTable: parts[0], FKColumn: parts[1], PKTable: parts[2], PKColumn: parts[3]}, nil
}

// TagForeignKey marks column as referencing refTable.
func (t *Table) TagForeignKey(column, refTable string) error {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, column, t.Name)
	}
	t.columns[idx].RefTable = refTable
	return nil
}

// ClearForeignKeyTags removes every foreign-key tag from the schema.
func (t *Table) ClearForeignKeyTags() {
	for i := range t.columns {
		t.columns[i].RefTable = ""
	}
}
