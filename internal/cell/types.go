package cell

import (
	"errors"
	"fmt"
)

// Type represents the logical type of a value in a column.
type Type uint8

const (
	TypeInt Type = iota + 1
	TypeFloat
	TypeBool
	TypeString
	TypeVector3
)

var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrNullAccess   = errors.New("null cell access")
	ErrPayloadSize  = errors.New("payload size does not match type")
	ErrKeyParse     = errors.New("cannot parse primary key")
	ErrUnknownType  = errors.New("unknown cell type")
)

var typeNames = map[Type]string{
	TypeInt:     "Int",
	TypeFloat:   "Float",
	TypeBool:    "Bool",
	TypeString:  "String",
	TypeVector3: "Vector3",
}

// Size returns the fixed byte width of the type, or 0 for String.
func (t Type) Size() int {
	switch t {
	case TypeInt, TypeFloat:
		return 4
	case TypeBool:
		return 1
	case TypeVector3:
		return 12
	default:
		return 0
	}
}

// Fixed reports whether values of this type have a fixed byte width.
func (t Type) Fixed() bool {
	return t != TypeString && t.Valid()
}

func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType maps a type name as written in schema files back to a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}
