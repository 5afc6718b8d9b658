package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableDB/internal/cell"
	"tableDB/internal/storage"
	"tableDB/internal/table"
)

// TestMemstoreWriteRead verifies that a written table reads back with the
// same rows and lands in the registry once.
func TestMemstoreWriteRead(t *testing.T) {
	store := New()

	users := table.New("users")
	require.NoError(t, users.AddColumnSized("name", cell.TypeString, nil, 32))
	require.NoError(t, users.AddColumn("active", cell.TypeBool, nil))

	_, err := users.InsertRow(table.Row{cell.Int(0), cell.String("Alice"), cell.Bool(true)})
	require.NoError(t, err)
	_, err = users.InsertRow(table.Row{cell.Int(0), cell.String("Bob"), cell.Bool(false)})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(users))
	require.NoError(t, store.WriteTable(users))

	names, err := store.ReadRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, names)

	back, err := store.ReadTable("users")
	require.NoError(t, err)
	require.Equal(t, 2, back.RowCount())

	checkRow := func(pk, name string, active bool) {
		row, err := back.FindRow(pk)
		require.NoError(t, err)
		assert.Equal(t, name, row[1].String())
		assert.True(t, row[2].Equal(cell.Bool(active)))
	}
	checkRow("1", "Alice", true)
	checkRow("2", "Bob", false)

	// the stored copy is independent of later edits
	_, err = users.InsertRowAsDefault()
	require.NoError(t, err)
	back, err = store.ReadTable("users")
	require.NoError(t, err)
	assert.Equal(t, 2, back.RowCount())
}

func TestMemstoreMissingAndDelete(t *testing.T) {
	store := New()

	_, err := store.ReadTable("ghost")
	require.ErrorIs(t, err, storage.ErrTableNotFound)

	names, err := store.ReadRegistry()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.WriteTable(table.New("a")))
	ok, err := store.IsTableInRegistry("a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteTable("a"))
	ok, err = store.IsTableInRegistry("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemstoreForeignKeys(t *testing.T) {
	store := New()

	fks, err := store.ReadForeignKeys()
	require.NoError(t, err)
	assert.Empty(t, fks)

	want := []table.ForeignKey{{FKTable: "Child", FKColumn: "ParentID", PKTable: "Parent", PKColumn: "PK"}}
	require.NoError(t, store.WriteForeignKeys(want))

	fks, err = store.ReadForeignKeys()
	require.NoError(t, err)
	assert.Equal(t, want, fks)
}
