package cell

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PrimaryKey is the hashable projection of a non-null cell. It is
// comparable, so it is used directly as a map key.
type PrimaryKey struct {
	Type Type
	Data string
}

// KeyOf derives a key from a non-null cell.
func KeyOf(c Cell) (PrimaryKey, error) {
	if c.Null {
		return PrimaryKey{}, fmt.Errorf("%w: null %s cannot be a primary key", ErrNullAccess, c.Type)
	}
	return PrimaryKey{Type: c.Type, Data: string(c.Bytes())}, nil
}

// IntKey is the key of a serial row id.
func IntKey(id int32) PrimaryKey {
	k, _ := KeyOf(Int(id))
	return k
}

// Cell returns the cell the key was derived from.
func (k PrimaryKey) Cell() Cell {
	c, err := FromBytes(k.Type, []byte(k.Data))
	if err != nil {
		// keys are only built from valid cells
		panic(fmt.Sprintf("cell: corrupt primary key: %v", err))
	}
	return c
}

func (k PrimaryKey) String() string {
	if !k.Type.Valid() {
		return "<PK>"
	}
	return k.Cell().String()
}

// ParseKey parses s as a key of type t. Parsing is strict: "12abc" or ""
// are errors for an Int key, never 0.
func ParseKey(t Type, s string) (PrimaryKey, error) {
	c, err := ParseValue(t, s)
	if err != nil {
		return PrimaryKey{}, err
	}
	return KeyOf(c)
}

var intPattern = regexp.MustCompile(`^-?[0-9]+$`)

// ParseValue parses the display form of a value of type t.
//
//	Int:     ^-?[0-9]+$ within int32
//	Float:   strconv float syntax
//	Bool:    true, false, 1, 0 (any case)
//	Vector3: three floats separated by whitespace and/or commas
//	String:  taken verbatim
func ParseValue(t Type, s string) (Cell, error) {
	switch t {
	case TypeInt:
		if !intPattern.MatchString(s) {
			return Cell{}, fmt.Errorf("%w: %q is not an integer", ErrKeyParse, s)
		}
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Cell{}, fmt.Errorf("%w: %q: %v", ErrKeyParse, s, err)
		}
		return Int(int32(v)), nil

	case TypeFloat:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Cell{}, fmt.Errorf("%w: %q is not a float", ErrKeyParse, s)
		}
		return Float(float32(v)), nil

	case TypeBool:
		switch strings.ToLower(s) {
		case "true", "1":
			return Bool(true), nil
		case "false", "0":
			return Bool(false), nil
		}
		return Cell{}, fmt.Errorf("%w: %q is not a bool", ErrKeyParse, s)

	case TypeVector3:
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		if len(fields) != 3 {
			return Cell{}, fmt.Errorf("%w: %q is not a vector3", ErrKeyParse, s)
		}
		var v Vector3
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return Cell{}, fmt.Errorf("%w: %q is not a vector3", ErrKeyParse, s)
			}
			v[i] = float32(x)
		}
		return Vec3(v), nil

	case TypeString:
		return String(s), nil

	default:
		return Cell{}, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
}
