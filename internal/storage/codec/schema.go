package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

// ErrFormat is returned for any malformed schema or data file.
var ErrFormat = errors.New("codec: malformed table file")

const (
	serialToken  = "SERIAL"
	columnsTitle = "Name,Size,Type"
)

// Header is the key=value block at the top of a schema file. It carries the
// counts the data file is checked against.
type Header struct {
	Table         string
	RowCount      int
	ColumnCount   int
	NullMaskBytes int
	BytesPerRow   int
}

// NullMaskBytes is the size of the per-record null bitmask.
func NullMaskBytes(columns int) int {
	return (columns + 7) / 8
}

// BytesPerRow is the size of one data file record: null mask plus one slot
// per column.
func BytesPerRow(cols []table.Column) int {
	n := NullMaskBytes(len(cols))
	for _, c := range cols {
		n += c.SlotSize()
	}
	return n
}

// WriteSchema writes the human-readable schema file:
//
//	Table=<name>
//	RowCount=<n>
//	ColumnCount=<n>
//	NullMaskBytes=<n>
//	BytesPerRow=<n>
//	PKMode=Serial|Explicit
//	PKColumn=<name>
//	NextSerialID=<n>
//
//	Name,Size,Type
//	PK,4,SERIAL
//	<name>,<size>,<type>
//	...
//
// Column 0 is always written as SERIAL.
func WriteSchema(w io.Writer, t *table.Table) error {
	s := t.Schema()
	cols := s.Columns

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Table=%s\n", s.Name)
	fmt.Fprintf(bw, "RowCount=%d\n", t.RowCount())
	fmt.Fprintf(bw, "ColumnCount=%d\n", len(cols))
	fmt.Fprintf(bw, "NullMaskBytes=%d\n", NullMaskBytes(len(cols)))
	fmt.Fprintf(bw, "BytesPerRow=%d\n", BytesPerRow(cols))
	fmt.Fprintf(bw, "PKMode=%s\n", s.Mode)
	fmt.Fprintf(bw, "PKColumn=%s\n", s.PKColumn)
	fmt.Fprintf(bw, "NextSerialID=%d\n", s.NextSerialID)
	fmt.Fprintf(bw, "\n%s\n", columnsTitle)

	for i, c := range cols {
		typ := c.Type.String()
		if i == 0 {
			typ = serialToken
		}
		fmt.Fprintf(bw, "%s,%d,%s\n", c.Name, c.Size, typ)
	}
	return bw.Flush()
}

// ReadSchema parses a schema file. Unknown header keys are ignored. Column
// defaults are not persisted: fixed types come back zeroed, strings empty.
func ReadSchema(r io.Reader) (Header, table.Schema, error) {
	var (
		hdr    Header
		schema = table.Schema{Mode: table.Serial, NextSerialID: 1}
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0

	// header block, up to the first blank line
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			break
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return hdr, schema, fmt.Errorf("%w: line %d: expected key=value, got %q", ErrFormat, line, text)
		}

		var err error
		switch key {
		case "Table":
			hdr.Table = value
		case "RowCount":
			hdr.RowCount, err = parseCount(value)
		case "ColumnCount":
			hdr.ColumnCount, err = parseCount(value)
		case "NullMaskBytes":
			hdr.NullMaskBytes, err = parseCount(value)
		case "BytesPerRow":
			hdr.BytesPerRow, err = parseCount(value)
		case "PKMode":
			schema.Mode, err = table.ParseMode(value)
		case "PKColumn":
			schema.PKColumn = value
		case "NextSerialID":
			var n int
			n, err = parseCount(value)
			schema.NextSerialID = int32(n)
		}
		if err != nil {
			return hdr, schema, fmt.Errorf("%w: line %d: %s: %v", ErrFormat, line, key, err)
		}
	}

	if hdr.Table == "" {
		return hdr, schema, fmt.Errorf("%w: missing Table header", ErrFormat)
	}
	schema.Name = hdr.Table

	if !sc.Scan() || strings.TrimRight(sc.Text(), "\r") != columnsTitle {
		return hdr, schema, fmt.Errorf("%w: missing %q column header", ErrFormat, columnsTitle)
	}
	line++

	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		col, err := parseColumn(text)
		if err != nil {
			return hdr, schema, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := sc.Err(); err != nil {
		return hdr, schema, err
	}

	if len(schema.Columns) != hdr.ColumnCount {
		return hdr, schema, fmt.Errorf("%w: ColumnCount=%d but %d columns listed",
			ErrFormat, hdr.ColumnCount, len(schema.Columns))
	}
	if hdr.NullMaskBytes != NullMaskBytes(hdr.ColumnCount) {
		return hdr, schema, fmt.Errorf("%w: NullMaskBytes=%d for %d columns",
			ErrFormat, hdr.NullMaskBytes, hdr.ColumnCount)
	}
	if want := BytesPerRow(schema.Columns); hdr.BytesPerRow != want {
		return hdr, schema, fmt.Errorf("%w: BytesPerRow=%d, columns need %d", ErrFormat, hdr.BytesPerRow, want)
	}
	return hdr, schema, nil
}

func parseColumn(text string) (table.Column, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return table.Column{}, fmt.Errorf("expected Name,Size,Type, got %q", text)
	}

	size, err := parseCount(parts[1])
	if err != nil {
		return table.Column{}, fmt.Errorf("size of %q: %v", parts[0], err)
	}

	typ := cell.TypeInt
	if parts[2] != serialToken {
		typ, err = cell.ParseType(parts[2])
		if err != nil {
			return table.Column{}, err
		}
	}

	var def []byte
	if typ.Fixed() {
		if size != typ.Size() {
			return table.Column{}, fmt.Errorf("%s column %q has size %d", typ, parts[0], size)
		}
		def = make([]byte, size)
	}
	return table.NewColumn(parts[0], typ, def, size)
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
