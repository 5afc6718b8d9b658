package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

const (
	DataMagic   uint32 = 0x42504454 // 'BPDT'
	DataVersion uint32 = 1
)

// dataHeader is the fixed little-endian header of a data file.
type dataHeader struct {
	Magic       uint32
	Version     uint32
	RowCount    uint32
	ColumnCount uint32
	BytesPerRow uint32
}

// WriteData writes the binary row file.
//
// Layout:
//
//	[magic u32][version u32][rowCount u32][columnCount u32][bytesPerRow u32]
//	rowCount records of bytesPerRow bytes:
//	  null mask: ceil(columnCount/8) bytes, bit i set when column i is null
//	  per column, in order:
//	    fixed types: Size bytes, all zero when null
//	    String:      u32 length + Size bytes, zero padded
//
// It returns the number of bytes written.
func WriteData(w io.Writer, t *table.Table) (int64, error) {
	cols := t.Columns()
	perRow := BytesPerRow(cols)

	bw := bufio.NewWriter(w)
	hdr := dataHeader{
		Magic:       DataMagic,
		Version:     DataVersion,
		RowCount:    uint32(t.RowCount()),
		ColumnCount: uint32(len(cols)),
		BytesPerRow: uint32(perRow),
	}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return 0, err
	}
	written := int64(binary.Size(hdr))

	rec := make([]byte, perRow)
	var err error
	t.Each(func(_ cell.PrimaryKey, row table.Row) bool {
		if err = encodeRecord(rec, cols, row); err != nil {
			return false
		}
		var n int
		n, err = bw.Write(rec)
		written += int64(n)
		return err == nil
	})
	if err != nil {
		return written, err
	}
	return written, bw.Flush()
}

func encodeRecord(rec []byte, cols []table.Column, row table.Row) error {
	if len(row) != len(cols) {
		panic(fmt.Sprintf("codec: row has %d cells for %d columns", len(row), len(cols)))
	}
	clear(rec)

	mask := rec[:NullMaskBytes(len(cols))]
	off := len(mask)
	for i, col := range cols {
		c := row[i]
		slot := rec[off : off+col.SlotSize()]
		off += len(slot)

		if c.Null {
			mask[i/8] |= 1 << (i % 8)
			continue
		}

		payload := c.Bytes()
		if col.Type == cell.TypeString {
			if len(payload) > col.Size {
				return fmt.Errorf("%w: %d bytes in column %q of size %d", table.ErrValueTooLong, len(payload), col.Name, col.Size)
			}
			binary.LittleEndian.PutUint32(slot, uint32(len(payload)))
			copy(slot[4:], payload)
			continue
		}
		copy(slot, payload)
	}
	return nil
}

// ReadData reads a data file into t, checking it against the schema header
// the table was restored from.
func ReadData(r io.Reader, want Header, t *table.Table) error {
	var hdr dataHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: data header: %v", ErrFormat, err)
	}
	if hdr.Magic != DataMagic {
		return fmt.Errorf("%w: bad magic %#x", ErrFormat, hdr.Magic)
	}
	if hdr.Version != DataVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr.Version)
	}
	if int(hdr.RowCount) != want.RowCount || int(hdr.ColumnCount) != want.ColumnCount {
		return fmt.Errorf("%w: data file has %d rows x %d columns, schema says %d x %d",
			ErrFormat, hdr.RowCount, hdr.ColumnCount, want.RowCount, want.ColumnCount)
	}

	cols := t.Columns()
	perRow := BytesPerRow(cols)
	if int(hdr.BytesPerRow) != perRow || len(cols) != want.ColumnCount {
		return fmt.Errorf("%w: record size %d, schema needs %d", ErrFormat, hdr.BytesPerRow, perRow)
	}

	rec := make([]byte, perRow)
	for i := 0; i < int(hdr.RowCount); i++ {
		if _, err := io.ReadFull(r, rec); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrFormat, i, err)
		}
		row, err := decodeRecord(rec, cols)
		if err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrFormat, i, err)
		}
		if _, err := t.LoadRow(row); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrFormat, i, err)
		}
	}

	var trailing [1]byte
	if n, _ := r.Read(trailing[:]); n > 0 {
		return fmt.Errorf("%w: trailing bytes after %d records", ErrFormat, hdr.RowCount)
	}
	return nil
}

func decodeRecord(rec []byte, cols []table.Column) (table.Row, error) {
	mask := rec[:NullMaskBytes(len(cols))]
	off := len(mask)
	row := make(table.Row, len(cols))

	for i, col := range cols {
		slot := rec[off : off+col.SlotSize()]
		off += len(slot)

		if mask[i/8]&(1<<(i%8)) != 0 {
			row[i] = cell.Null(col.Type)
			continue
		}

		payload := slot
		if col.Type == cell.TypeString {
			n := int(binary.LittleEndian.Uint32(slot))
			if n > col.Size {
				return nil, fmt.Errorf("string length %d exceeds column %q size %d", n, col.Name, col.Size)
			}
			payload = slot[4 : 4+n]
		}
		c, err := cell.FromBytes(col.Type, payload)
		if err != nil {
			return nil, err
		}
		row[i] = c
	}
	return row, nil
}
