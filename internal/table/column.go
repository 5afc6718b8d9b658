package table

import (
	"errors"
	"fmt"
	"regexp"

	"tableDB/internal/cell"
)

// DefaultStringSize is the byte capacity given to a String column when the
// caller does not ask for one.
const DefaultStringSize = 255

var (
	ErrInvalidName     = errors.New("invalid identifier")
	ErrDuplicateName   = errors.New("name already exists")
	ErrColumnNotFound  = errors.New("column not found")
	ErrRowNotFound     = errors.New("row not found")
	ErrDuplicateKey    = errors.New("duplicate primary key")
	ErrRowLength       = errors.New("row length does not match column count")
	ErrValueTooLong    = errors.New("value exceeds column size")
	ErrPrimaryKey      = errors.New("invalid primary key operation")
	ErrSerialExhausted = errors.New("serial ids exhausted")
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidName reports whether name is a legal table or column identifier.
func ValidName(name string) bool {
	return identPattern.MatchString(name)
}

// Column describes metadata for a single column in a table.
type Column struct {
	Name string
	Type cell.Type

	// Size is the fixed byte width for fixed types, and the byte capacity
	// for String columns.
	Size int

	// Default is the payload every new cell in this column starts with.
	Default []byte

	// RefTable is set when the column is a foreign key. It is a cache of the
	// manager's constraint list.
	RefTable string
}

// NewColumn validates and builds a column. size is only consulted for
// String columns; zero means max(DefaultStringSize, len(def)).
func NewColumn(name string, t cell.Type, def []byte, size int) (Column, error) {
	if !ValidName(name) {
		return Column{}, fmt.Errorf("%w: column %q", ErrInvalidName, name)
	}
	if !t.Valid() {
		return Column{}, fmt.Errorf("%w: %d", cell.ErrUnknownType, uint8(t))
	}

	if t.Fixed() {
		if def == nil {
			def = make([]byte, t.Size())
		}
		if len(def) != t.Size() {
			return Column{}, fmt.Errorf("%w: default for %s column %q has %d bytes",
				cell.ErrPayloadSize, t, name, len(def))
		}
		size = t.Size()
	} else {
		if size < 0 {
			return Column{}, fmt.Errorf("%w: negative size %d for %q", ErrValueTooLong, size, name)
		}
		if size == 0 {
			size = max(DefaultStringSize, len(def))
		}
		if len(def) > size {
			return Column{}, fmt.Errorf("%w: default for %q is %d bytes, capacity %d",
				ErrValueTooLong, name, len(def), size)
		}
	}

	return Column{
		Name:    name,
		Type:    t,
		Size:    size,
		Default: append([]byte(nil), def...),
	}, nil
}

// IsForeignKey reports whether the column carries a foreign-key tag.
func (c Column) IsForeignKey() bool {
	return c.RefTable != ""
}

// DefaultCell builds a non-null cell from the column default.
func (c Column) DefaultCell() cell.Cell {
	v, err := cell.FromBytes(c.Type, c.Default)
	if err != nil {
		panic(fmt.Sprintf("table: column %q has a corrupt default: %v", c.Name, err))
	}
	return v
}

// Accepts checks that v can be stored in this column.
func (c Column) Accepts(v cell.Cell) error {
	if v.Type != c.Type {
		return fmt.Errorf("%w: column %q is %s, value is %s", cell.ErrTypeMismatch, c.Name, c.Type, v.Type)
	}
	if v.Len() > c.Size {
		return fmt.Errorf("%w: %d bytes into %q (size %d)", ErrValueTooLong, v.Len(), c.Name, c.Size)
	}
	return nil
}

// SlotSize is the number of bytes this column occupies in a data file record.
// String slots carry a 4 byte length prefix ahead of the capacity.
func (c Column) SlotSize() int {
	if c.Type == cell.TypeString {
		return 4 + c.Size
	}
	return c.Size
}

func (c Column) clone() Column {
	c.Default = append([]byte(nil), c.Default...)
	return c
}
