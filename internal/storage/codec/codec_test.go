package codec

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableDB/internal/cell"
	"tableDB/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("Items")
	require.NoError(t, tbl.AddColumn("Value", cell.TypeInt, cell.Int(0).Bytes()))
	require.NoError(t, tbl.AddColumn("Weight", cell.TypeFloat, cell.Float(1).Bytes()))
	require.NoError(t, tbl.AddColumn("Stackable", cell.TypeBool, cell.Bool(true).Bytes()))
	require.NoError(t, tbl.AddColumnSized("Label", cell.TypeString, nil, 16))
	require.NoError(t, tbl.AddColumn("Offset", cell.TypeVector3, nil))

	rows := []table.Row{
		{cell.Int(0), cell.Int(10), cell.Float(2.5), cell.Bool(false), cell.String("sword"), cell.Vec3(cell.Vector3{1, 2, 3})},
		{cell.Int(0), cell.Null(cell.TypeInt), cell.Float(0), cell.Null(cell.TypeBool), cell.String(""), cell.Null(cell.TypeVector3)},
		{cell.Int(0), cell.Int(0), cell.Null(cell.TypeFloat), cell.Bool(true), cell.Null(cell.TypeString), cell.Vec3(cell.Vector3{})},
	}
	for _, r := range rows {
		_, err := tbl.InsertRow(r)
		require.NoError(t, err)
	}
	return tbl
}

func assertSameTable(t *testing.T, want, got *table.Table) {
	t.Helper()
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Mode(), got.Mode())
	require.Equal(t, want.PKColumnName(), got.PKColumnName())
	require.Equal(t, want.NextSerialID(), got.NextSerialID())

	wc, gc := want.Columns(), got.Columns()
	require.Len(t, gc, len(wc))
	for i := range wc {
		assert.Equal(t, wc[i].Name, gc[i].Name)
		assert.Equal(t, wc[i].Type, gc[i].Type)
		assert.Equal(t, wc[i].Size, gc[i].Size)
	}

	require.Equal(t, want.Keys(), got.Keys())
	for _, k := range want.Keys() {
		wr, _ := want.Row(k)
		gr, ok := got.Row(k)
		require.True(t, ok)
		for i := range wr {
			assert.True(t, wr[i].Equal(gr[i]), "key %s column %d: want %v got %v", k, i, wr[i], gr[i])
		}
	}
}

func roundTrip(t *testing.T, tbl *table.Table) *table.Table {
	t.Helper()
	schema, data, err := Encode(tbl)
	require.NoError(t, err)
	back, err := Decode(bytes.NewReader(schema), bytes.NewReader(data))
	require.NoError(t, err)
	return back
}

func TestRoundTripSerial(t *testing.T) {
	tbl := sampleTable(t)
	assertSameTable(t, tbl, roundTrip(t, tbl))
}

func TestRoundTripEmptyTable(t *testing.T) {
	tbl := table.New("Empty")
	assertSameTable(t, tbl, roundTrip(t, tbl))
}

func TestRoundTripKeepsRenamedSerialKeys(t *testing.T) {
	tbl := sampleTable(t)
	require.NoError(t, tbl.RenameKey(cell.IntKey(2), cell.IntKey(40)))

	back := roundTrip(t, tbl)
	assertSameTable(t, tbl, back)

	key, err := back.InsertRowAsDefault()
	require.NoError(t, err)
	assert.Equal(t, cell.IntKey(41), key)
}

func TestRoundTripExplicit(t *testing.T) {
	tbl := sampleTable(t)
	require.NoError(t, tbl.ConvertSerialToExplicit("Code", cell.TypeString, nil))

	back := roundTrip(t, tbl)
	assertSameTable(t, tbl, back)

	_, err := back.FindRow("3")
	require.NoError(t, err)
}

func TestSchemaFileLayout(t *testing.T) {
	tbl := table.New("Items")
	require.NoError(t, tbl.AddColumn("Value", cell.TypeInt, nil))
	require.NoError(t, tbl.AddColumnSized("Label", cell.TypeString, nil, 8))
	_, err := tbl.InsertRowAsDefault()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, tbl))

	want := strings.Join([]string{
		"Table=Items",
		"RowCount=1",
		"ColumnCount=3",
		"NullMaskBytes=1",
		"BytesPerRow=21",
		"PKMode=Serial",
		"PKColumn=",
		"NextSerialID=2",
		"",
		"Name,Size,Type",
		"PK,4,SERIAL",
		"Value,4,Int",
		"Label,8,String",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestReadSchemaWithoutOptionalKeys(t *testing.T) {
	in := "Table=Old\nRowCount=0\nColumnCount=2\nNullMaskBytes=1\nBytesPerRow=9\n\nName,Size,Type\nPK,4,SERIAL\nHP,4,Int\n"
	hdr, s, err := ReadSchema(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "Old", hdr.Table)
	assert.Equal(t, table.Serial, s.Mode)
	require.Len(t, s.Columns, 2)
	assert.Equal(t, cell.TypeInt, s.Columns[0].Type)
}

func TestReadSchemaRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"no header":    "\nName,Size,Type\nPK,4,SERIAL\n",
		"bad line":     "Table=A\nRowCount\n\nName,Size,Type\n",
		"bad count":    "Table=A\nRowCount=x\n\nName,Size,Type\n",
		"column count": "Table=A\nRowCount=0\nColumnCount=2\nNullMaskBytes=1\nBytesPerRow=5\n\nName,Size,Type\nPK,4,SERIAL\n",
		"bad type":     "Table=A\nRowCount=0\nColumnCount=1\nNullMaskBytes=1\nBytesPerRow=5\n\nName,Size,Type\nPK,4,Quad\n",
		"bad size":     "Table=A\nRowCount=0\nColumnCount=1\nNullMaskBytes=1\nBytesPerRow=5\n\nName,Size,Type\nPK,8,SERIAL\n",
		"no title":     "Table=A\nRowCount=0\n\nPK,4,SERIAL\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ReadSchema(strings.NewReader(in))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestNullIntEncoding(t *testing.T) {
	tbl := table.New("N")
	require.NoError(t, tbl.AddColumn("Value", cell.TypeInt, nil))
	_, err := tbl.InsertRow(table.Row{cell.Int(0), cell.Null(cell.TypeInt)})
	require.NoError(t, err)
	_, err = tbl.InsertRow(table.Row{cell.Int(0), cell.Int(0)})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := WriteData(&buf, tbl)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	raw := buf.Bytes()
	assert.Equal(t, DataMagic, binary.LittleEndian.Uint32(raw[0:]))
	assert.Equal(t, DataVersion, binary.LittleEndian.Uint32(raw[4:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(raw[8:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(raw[12:]))
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(raw[16:]))

	recs := raw[20:]
	require.Len(t, recs, 18)

	// row 1: mask bit 1 set, value slot zeroed
	assert.Equal(t, byte(0b10), recs[0])
	assert.Equal(t, []byte{1, 0, 0, 0}, recs[1:5])
	assert.Equal(t, []byte{0, 0, 0, 0}, recs[5:9])

	// row 2: a real zero, mask clear
	assert.Equal(t, byte(0), recs[9])
	assert.Equal(t, []byte{0, 0, 0, 0}, recs[14:18])

	back := roundTrip(t, tbl)
	c, err := back.FindCellOnRow("1", "Value")
	require.NoError(t, err)
	assert.True(t, c.Null)
	c, err = back.FindCellOnRow("2", "Value")
	require.NoError(t, err)
	assert.False(t, c.Null)
}

func TestReadDataRejectsMismatches(t *testing.T) {
	tbl := sampleTable(t)
	schema, data, err := Encode(tbl)
	require.NoError(t, err)

	corrupt := func(off int, v uint32) []byte {
		b := append([]byte(nil), data...)
		binary.LittleEndian.PutUint32(b[off:], v)
		return b
	}

	cases := map[string][]byte{
		"magic":     corrupt(0, 0xdeadbeef),
		"version":   corrupt(4, 2),
		"rows":      corrupt(8, 7),
		"columns":   corrupt(12, 2),
		"row size":  corrupt(16, 3),
		"truncated": data[:len(data)-1],
		"trailing":  append(append([]byte(nil), data...), 0),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(schema), bytes.NewReader(b))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLinesAndForeignKeys(t *testing.T) {
	var buf bytes.Buffer
	fks := []table.ForeignKey{
		{FKTable: "Child", FKColumn: "ParentID", PKTable: "Parent", PKColumn: "PK"},
		{FKTable: "Loot", FKColumn: "Item", PKTable: "Items", PKColumn: "Code"},
	}
	require.NoError(t, WriteForeignKeys(&buf, fks))
	assert.Equal(t, "Child|ParentID|Parent|PK\nLoot|Item|Items|Code\n", buf.String())

	back, err := ReadForeignKeys(&buf)
	require.NoError(t, err)
	assert.Equal(t, fks, back)

	_, err = ReadForeignKeys(strings.NewReader("a|b\n"))
	require.ErrorIs(t, err, ErrFormat)

	lines, err := ReadLines(strings.NewReader("A\r\n\nB\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, lines)
}
