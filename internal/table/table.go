package table

import (
	"fmt"
	"math"
	"strconv"

	"tableDB/internal/cell"
)

// Mode is the primary-key discipline of a table.
type Mode uint8

const (
	// Serial tables key rows by an auto-incrementing Int stored in column 0.
	Serial Mode = iota
	// Explicit tables key rows by the value of a designated column.
	Explicit
)

func (m Mode) String() string {
	if m == Explicit {
		return "Explicit"
	}
	return "Serial"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "Serial":
		return Serial, nil
	case "Explicit":
		return Explicit, nil
	}
	return 0, fmt.Errorf("unknown primary key mode %q", s)
}

// SerialColumn is the name of the Int column at position 0 of every table.
const SerialColumn = "PK"

// Table is a named schema plus a unique map from primary key to row.
//
// Column 0 is always the Int column SerialColumn. In Serial mode it holds the
// row's serial id and cannot be written directly. In Explicit mode the key is
// the value of pkColumn and column 0 is an ordinary Int column.
//
// Rows are kept in insertion order so scans, column reads and the data file
// all see the same sequence.
type Table struct {
	Name string

	mode       Mode
	pkColumn   string
	nextSerial int32
	columns    []Column
	rows       map[cell.PrimaryKey]Row
	order      []cell.PrimaryKey
}

// New creates an empty Serial table.
func New(name string) *Table {
	t := &Table{Name: name}
	t.InitSerial()
	return t
}

// InitSerial resets the table to a single Int PK column in Serial mode with
// no rows.
func (t *Table) InitSerial() {
	pk, _ := NewColumn(SerialColumn, cell.TypeInt, nil, 0)
	t.mode = Serial
	t.pkColumn = ""
	t.nextSerial = 1
	t.columns = []Column{pk}
	t.rows = make(map[cell.PrimaryKey]Row)
	t.order = nil
}

func (t *Table) Mode() Mode          { return t.mode }
func (t *Table) NextSerialID() int32 { return t.nextSerial }
func (t *Table) RowCount() int       { return len(t.order) }

// PKColumnName returns the name of the column the key lives in.
func (t *Table) PKColumnName() string {
	if t.mode == Explicit {
		return t.pkColumn
	}
	return t.columns[0].Name
}

func (t *Table) pkIndex() int {
	if t.mode == Serial {
		return 0
	}
	idx := t.ColumnIndex(t.pkColumn)
	if idx < 0 {
		panic(fmt.Sprintf("table %s: primary key column %q missing", t.Name, t.pkColumn))
	}
	return idx
}

// PKType is the cell type of the table's keys.
func (t *Table) PKType() cell.Type {
	return t.columns[t.pkIndex()].Type
}

// IsPKColumn reports whether name is the key column in the current mode.
func (t *Table) IsPKColumn(name string) bool {
	return name == t.PKColumnName()
}

// Columns returns a copy of the schema.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.clone()
	}
	return out
}

func (t *Table) Column(i int) Column {
	return t.columns[i].clone()
}

func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column and gives every existing row the default cell.
func (t *Table) AddColumn(name string, typ cell.Type, def []byte) error {
	return t.AddColumnSized(name, typ, def, 0)
}

// AddColumnSized is AddColumn with an explicit String capacity.
func (t *Table) AddColumnSized(name string, typ cell.Type, def []byte, size int) error {
	if t.ColumnIndex(name) >= 0 {
		return fmt.Errorf("%w: column %q in table %s", ErrDuplicateName, name, t.Name)
	}
	col, err := NewColumn(name, typ, def, size)
	if err != nil {
		return err
	}

	t.columns = append(t.columns, col)
	v := col.DefaultCell()
	for k, row := range t.rows {
		t.rows[k] = append(row, v)
	}
	return nil
}

// RemoveColumn drops a column and its cell from every row. Column 0 and the
// key column cannot be removed.
func (t *Table) RemoveColumn(name string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, name, t.Name)
	}
	if idx == 0 || t.IsPKColumn(name) {
		return fmt.Errorf("%w: cannot remove key column %q", ErrPrimaryKey, name)
	}
	t.dropColumn(idx)
	return nil
}

func (t *Table) dropColumn(idx int) {
	t.columns = append(t.columns[:idx:idx], t.columns[idx+1:]...)
	for k, row := range t.rows {
		t.rows[k] = row.removeAt(idx)
	}
}

func (t *Table) mintSerial() (int32, error) {
	if t.nextSerial == math.MaxInt32 {
		return 0, fmt.Errorf("%w: table %s", ErrSerialExhausted, t.Name)
	}
	id := t.nextSerial
	t.nextSerial++
	return id, nil
}

// checkSerial reports whether id can be stored as a serial key. The counter
// must stay above every id, so MaxInt32 is never a valid serial id.
func (t *Table) checkSerial(id int32) error {
	if id == math.MaxInt32 {
		return fmt.Errorf("%w: table %s cannot hold serial id %d", ErrSerialExhausted, t.Name, id)
	}
	return nil
}

func (t *Table) observeSerial(id int32) {
	if id >= t.nextSerial {
		t.nextSerial = id + 1
	}
}

// InsertRowAsDefault adds a row built from column defaults. In Serial mode the
// row gets a fresh serial id; in Explicit mode the key is the PK column's
// default, which the caller is expected to change afterwards.
func (t *Table) InsertRowAsDefault() (cell.PrimaryKey, error) {
	row := make(Row, len(t.columns))
	for i, c := range t.columns {
		row[i] = c.DefaultCell()
	}

	if t.mode == Serial {
		id, err := t.mintSerial()
		if err != nil {
			return cell.PrimaryKey{}, err
		}
		row[0] = cell.Int(id)
		key := cell.IntKey(id)
		if _, exists := t.rows[key]; exists {
			panic(fmt.Sprintf("table %s: serial id %d already in use", t.Name, id))
		}
		t.put(key, row)
		return key, nil
	}

	key, err := cell.KeyOf(row[t.pkIndex()])
	if err != nil {
		return cell.PrimaryKey{}, err
	}
	if _, exists := t.rows[key]; exists {
		return cell.PrimaryKey{}, fmt.Errorf("%w: %s in table %s", ErrDuplicateKey, key, t.Name)
	}
	t.put(key, row)
	return key, nil
}

// InsertRow adds a caller-built row. In Serial mode the cell at position 0 is
// replaced with a fresh serial id. In Explicit mode the key comes from the PK
// cell, which must be non-null. A duplicate key leaves the table unchanged.
func (t *Table) InsertRow(row Row) (cell.PrimaryKey, error) {
	if len(row) != len(t.columns) {
		return cell.PrimaryKey{}, fmt.Errorf("%w: expected %d, got %d", ErrRowLength, len(t.columns), len(row))
	}
	for i, c := range t.columns {
		if t.mode == Serial && i == 0 {
			continue
		}
		if err := c.Accepts(row[i]); err != nil {
			return cell.PrimaryKey{}, err
		}
	}

	row = row.clone()
	if t.mode == Serial {
		id, err := t.mintSerial()
		if err != nil {
			return cell.PrimaryKey{}, err
		}
		row[0] = cell.Int(id)
		key := cell.IntKey(id)
		if _, exists := t.rows[key]; exists {
			panic(fmt.Sprintf("table %s: serial id %d already in use", t.Name, id))
		}
		t.put(key, row)
		return key, nil
	}

	key, err := cell.KeyOf(row[t.pkIndex()])
	if err != nil {
		return cell.PrimaryKey{}, fmt.Errorf("%w: %v", ErrPrimaryKey, err)
	}
	if _, exists := t.rows[key]; exists {
		return cell.PrimaryKey{}, fmt.Errorf("%w: %s in table %s", ErrDuplicateKey, key, t.Name)
	}
	t.put(key, row)
	return key, nil
}

// LoadRow installs a row whose key is already stored in it, as read back from
// disk. Serial ids are taken from column 0 rather than minted.
func (t *Table) LoadRow(row Row) (cell.PrimaryKey, error) {
	if len(row) != len(t.columns) {
		return cell.PrimaryKey{}, fmt.Errorf("%w: expected %d, got %d", ErrRowLength, len(t.columns), len(row))
	}
	key, err := cell.KeyOf(row[t.pkIndex()])
	if err != nil {
		return cell.PrimaryKey{}, fmt.Errorf("%w: %v", ErrPrimaryKey, err)
	}
	if _, exists := t.rows[key]; exists {
		return cell.PrimaryKey{}, fmt.Errorf("%w: %s in table %s", ErrDuplicateKey, key, t.Name)
	}
	if t.mode == Serial {
		id, _ := row[0].AsInt()
		if err := t.checkSerial(id); err != nil {
			return cell.PrimaryKey{}, err
		}
		t.observeSerial(id)
	}
	t.put(key, row.clone())
	return key, nil
}

func (t *Table) put(key cell.PrimaryKey, row Row) {
	t.rows[key] = row
	t.order = append(t.order, key)
}

// ParseKey parses s using the key column's type.
func (t *Table) ParseKey(s string) (cell.PrimaryKey, error) {
	return cell.ParseKey(t.PKType(), s)
}

// Row returns a copy of the row stored under key.
func (t *Table) Row(key cell.PrimaryKey) (Row, bool) {
	row, ok := t.rows[key]
	if !ok {
		return nil, false
	}
	return row.clone(), true
}

// FindRow looks a row up by the string form of its key. A malformed key
// reports cell.ErrKeyParse, an absent one ErrRowNotFound.
func (t *Table) FindRow(pk string) (Row, error) {
	key, err := t.ParseKey(pk)
	if err != nil {
		return nil, err
	}
	row, ok := t.Row(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s in table %s", ErrRowNotFound, pk, t.Name)
	}
	return row, nil
}

// FindCellOnRow returns one cell of the row keyed by pk.
func (t *Table) FindCellOnRow(pk, column string) (cell.Cell, error) {
	key, err := t.ParseKey(pk)
	if err != nil {
		return cell.Cell{}, err
	}
	row, ok := t.rows[key]
	if !ok {
		return cell.Cell{}, fmt.Errorf("%w: %s in table %s", ErrRowNotFound, pk, t.Name)
	}
	lc, err := t.Resolve(column)
	if err != nil {
		return cell.Cell{}, err
	}
	return lc.Value(key, row), nil
}

// SetCell writes v into a non-key column of the row keyed by key.
func (t *Table) SetCell(key cell.PrimaryKey, column string, v cell.Cell) error {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return fmt.Errorf("%w: %q in table %s", ErrColumnNotFound, column, t.Name)
	}
	if idx == t.pkIndex() {
		return fmt.Errorf("%w: %q is the key column of %s", ErrPrimaryKey, column, t.Name)
	}
	return t.setCellAt(key, idx, v)
}

func (t *Table) setCellAt(key cell.PrimaryKey, idx int, v cell.Cell) error {
	row, ok := t.rows[key]
	if !ok {
		return fmt.Errorf("%w: %s in table %s", ErrRowNotFound, key, t.Name)
	}
	if err := t.columns[idx].Accepts(v); err != nil {
		return err
	}
	row[idx] = v
	return nil
}

// RenameKey moves the row stored under from to to, keeping its position and
// updating the key cell.
func (t *Table) RenameKey(from, to cell.PrimaryKey) error {
	row, ok := t.rows[from]
	if !ok {
		return fmt.Errorf("%w: %s in table %s", ErrRowNotFound, from, t.Name)
	}
	if to.Type != t.PKType() {
		return fmt.Errorf("%w: key is %s, table %s uses %s", cell.ErrTypeMismatch, to.Type, t.Name, t.PKType())
	}
	if from == to {
		return nil
	}
	if _, exists := t.rows[to]; exists {
		return fmt.Errorf("%w: %s in table %s", ErrDuplicateKey, to, t.Name)
	}
	if t.mode == Serial {
		id, _ := to.Cell().AsInt()
		if err := t.checkSerial(id); err != nil {
			return err
		}
	}

	v := to.Cell()
	if err := t.columns[t.pkIndex()].Accepts(v); err != nil {
		return err
	}
	row[t.pkIndex()] = v

	delete(t.rows, from)
	t.rows[to] = row
	for i, k := range t.order {
		if k == from {
			t.order[i] = to
			break
		}
	}

	if t.mode == Serial {
		id, _ := v.AsInt()
		t.observeSerial(id)
	}
	return nil
}

// Each calls fn for every row in insertion order until fn returns false.
// The row passed to fn must not be modified.
func (t *Table) Each(fn func(key cell.PrimaryKey, row Row) bool) {
	for _, k := range t.order {
		if !fn(k, t.rows[k]) {
			return
		}
	}
}

// Keys returns the row keys in insertion order.
func (t *Table) Keys() []cell.PrimaryKey {
	return append([]cell.PrimaryKey(nil), t.order...)
}

// ConvertSerialToExplicit adds column name, seeds it from each row's serial
// id and re-keys the table on it. The conversion runs on a copy and is only
// swapped in once every row has a unique key; on failure nothing changes.
func (t *Table) ConvertSerialToExplicit(name string, typ cell.Type, def []byte) error {
	if t.mode != Serial {
		return fmt.Errorf("%w: table %s is already Explicit", ErrPrimaryKey, t.Name)
	}

	if _, err := seedFromSerial(typ, 0); err != nil {
		return err
	}

	scratch := t.Clone()
	if err := scratch.AddColumn(name, typ, def); err != nil {
		return err
	}
	idx := len(scratch.columns) - 1

	rows := make(map[cell.PrimaryKey]Row, len(scratch.rows))
	order := make([]cell.PrimaryKey, 0, len(scratch.order))
	for _, old := range scratch.order {
		row := scratch.rows[old]
		id, _ := row[0].AsInt()

		v, err := seedFromSerial(typ, id)
		if err != nil {
			return err
		}
		if err := scratch.columns[idx].Accepts(v); err != nil {
			return err
		}
		row[idx] = v

		key, _ := cell.KeyOf(v)
		if _, exists := rows[key]; exists {
			return fmt.Errorf("%w: %s in table %s", ErrDuplicateKey, key, t.Name)
		}
		rows[key] = row
		order = append(order, key)
	}

	scratch.rows = rows
	scratch.order = order
	scratch.mode = Explicit
	scratch.pkColumn = name
	*t = *scratch
	return nil
}

func seedFromSerial(typ cell.Type, id int32) (cell.Cell, error) {
	switch typ {
	case cell.TypeInt:
		return cell.Int(id), nil
	case cell.TypeFloat:
		return cell.Float(float32(id)), nil
	case cell.TypeString:
		return cell.String(strconv.FormatInt(int64(id), 10)), nil
	}
	return cell.Cell{}, fmt.Errorf("%w: %s cannot hold a primary key", ErrPrimaryKey, typ)
}

// ConvertExplicitToSerial drops the key column and re-keys every row with
// serial ids 1..N in current order. The counter restarts at N+1.
func (t *Table) ConvertExplicitToSerial() error {
	if t.mode != Explicit {
		return fmt.Errorf("%w: table %s is already Serial", ErrPrimaryKey, t.Name)
	}

	t.dropColumn(t.pkIndex())
	if len(t.columns) == 0 || t.columns[0].Name != SerialColumn || t.columns[0].Type != cell.TypeInt {
		pk, _ := NewColumn(SerialColumn, cell.TypeInt, nil, 0)
		t.columns = append([]Column{pk}, t.columns...)
		for k, row := range t.rows {
			t.rows[k] = row.insertAt(0, pk.DefaultCell())
		}
	}

	rows := make(map[cell.PrimaryKey]Row, len(t.rows))
	order := make([]cell.PrimaryKey, 0, len(t.order))
	id := int32(1)
	for _, old := range t.order {
		row := t.rows[old]
		row[0] = cell.Int(id)
		key := cell.IntKey(id)
		rows[key] = row
		order = append(order, key)
		id++
	}

	t.rows = rows
	t.order = order
	t.mode = Serial
	t.pkColumn = ""
	t.nextSerial = id
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:       t.Name,
		mode:       t.mode,
		pkColumn:   t.pkColumn,
		nextSerial: t.nextSerial,
		columns:    t.Columns(),
		rows:       make(map[cell.PrimaryKey]Row, len(t.rows)),
		order:      t.Keys(),
	}
	for k, row := range t.rows {
		out.rows[k] = row.clone()
	}
	return out
}
