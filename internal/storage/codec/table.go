package codec

import (
	"bytes"
	"fmt"
	"io"

	"tableDB/internal/table"
)

// Encode renders t as a schema file and a data file.
func Encode(t *table.Table) (schema, data []byte, err error) {
	var sb, db bytes.Buffer
	if err := WriteSchema(&sb, t); err != nil {
		return nil, nil, fmt.Errorf("write schema: %w", err)
	}
	if _, err := WriteData(&db, t); err != nil {
		return nil, nil, fmt.Errorf("write data: %w", err)
	}
	return sb.Bytes(), db.Bytes(), nil
}

// Decode rebuilds a table from its schema and data files.
func Decode(schema, data io.Reader) (*table.Table, error) {
	hdr, s, err := ReadSchema(schema)
	if err != nil {
		return nil, err
	}
	t, err := table.Restore(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := ReadData(data, hdr, t); err != nil {
		return nil, err
	}
	return t, nil
}
