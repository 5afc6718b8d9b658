package cell

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector3 is a three component float vector, stored as 12 bytes.
type Vector3 [3]float32

// Cell represents a single typed, nullable value (one column in one row).
// Only the field matching Type is meaningful. Cells are built through the
// constructors below so payload sizes are validated once, up front.
type Cell struct {
	Type Type
	Null bool

	i int32   // for TypeInt
	f float32 // for TypeFloat
	b bool    // for TypeBool
	s string  // for TypeString, raw UTF-8 bytes
	v Vector3 // for TypeVector3
}

func Int(v int32) Cell          { return Cell{Type: TypeInt, i: v} }
func Float(v float32) Cell      { return Cell{Type: TypeFloat, f: v} }
func Bool(v bool) Cell          { return Cell{Type: TypeBool, b: v} }
func String(v string) Cell      { return Cell{Type: TypeString, s: v} }
func Vec3(v Vector3) Cell       { return Cell{Type: TypeVector3, v: v} }
func Null(t Type) Cell          { return Cell{Type: t, Null: true} }
func StringBytes(b []byte) Cell { return Cell{Type: TypeString, s: string(b)} }

// FromBytes decodes a little-endian payload into a cell of type t.
// Fixed-width types require len(data) == t.Size().
func FromBytes(t Type, data []byte) (Cell, error) {
	if !t.Valid() {
		return Cell{}, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	if t.Fixed() && len(data) != t.Size() {
		return Cell{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrPayloadSize, t, t.Size(), len(data))
	}

	switch t {
	case TypeInt:
		return Int(int32(binary.LittleEndian.Uint32(data))), nil
	case TypeFloat:
		return Float(math.Float32frombits(binary.LittleEndian.Uint32(data))), nil
	case TypeBool:
		return Bool(data[0] != 0), nil
	case TypeVector3:
		var v Vector3
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return Vec3(v), nil
	default:
		return StringBytes(data), nil
	}
}

// Bytes returns the payload encoding of the cell. Null cells have no payload.
func (c Cell) Bytes() []byte {
	if c.Null {
		return nil
	}

	switch c.Type {
	case TypeInt:
		return binary.LittleEndian.AppendUint32(nil, uint32(c.i))
	case TypeFloat:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(c.f))
	case TypeBool:
		if c.b {
			return []byte{1}
		}
		return []byte{0}
	case TypeVector3:
		out := make([]byte, 0, 12)
		for _, x := range c.v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
		}
		return out
	case TypeString:
		return []byte(c.s)
	default:
		return nil
	}
}

// Len is the payload length in bytes.
func (c Cell) Len() int {
	if c.Null {
		return 0
	}
	if c.Type == TypeString {
		return len(c.s)
	}
	return c.Type.Size()
}

func (c Cell) check(t Type) error {
	if c.Type != t {
		return fmt.Errorf("%w: cell is %s, want %s", ErrTypeMismatch, c.Type, t)
	}
	if c.Null {
		return fmt.Errorf("%w: %s", ErrNullAccess, t)
	}
	return nil
}

func (c Cell) AsInt() (int32, error) {
	if err := c.check(TypeInt); err != nil {
		return 0, err
	}
	return c.i, nil
}

func (c Cell) AsFloat() (float32, error) {
	if err := c.check(TypeFloat); err != nil {
		return 0, err
	}
	return c.f, nil
}

func (c Cell) AsBool() (bool, error) {
	if err := c.check(TypeBool); err != nil {
		return false, err
	}
	return c.b, nil
}

func (c Cell) AsString() (string, error) {
	if err := c.check(TypeString); err != nil {
		return "", err
	}
	return c.s, nil
}

func (c Cell) AsVector3() (Vector3, error) {
	if err := c.check(TypeVector3); err != nil {
		return Vector3{}, err
	}
	return c.v, nil
}

// Equal compares type, null flag and payload bytes.
func (c Cell) Equal(o Cell) bool {
	if c.Type != o.Type || c.Null != o.Null {
		return false
	}
	return bytes.Equal(c.Bytes(), o.Bytes())
}

// String formats the cell the same way ParseValue reads it back.
func (c Cell) String() string {
	if c.Null {
		return "NULL"
	}

	switch c.Type {
	case TypeInt:
		return strconv.FormatInt(int64(c.i), 10)
	case TypeFloat:
		return formatFloat(c.f)
	case TypeBool:
		return strconv.FormatBool(c.b)
	case TypeString:
		return c.s
	case TypeVector3:
		parts := make([]string, len(c.v))
		for i, x := range c.v {
			parts[i] = formatFloat(x)
		}
		return strings.Join(parts, " ")
	default:
		return "<invalid>"
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
