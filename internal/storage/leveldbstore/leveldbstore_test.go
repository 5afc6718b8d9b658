package leveldbstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableDB/internal/cell"
	"tableDB/internal/storage"
	"tableDB/internal/table"
)

func TestLevelDBStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)

	items := table.New("Items")
	require.NoError(t, items.AddColumn("Pos", cell.TypeVector3, nil))
	_, err = items.InsertRow(table.Row{cell.Int(0), cell.Vec3(cell.Vector3{1, 2, 3})})
	require.NoError(t, err)
	_, err = items.InsertRow(table.Row{cell.Int(0), cell.Null(cell.TypeVector3)})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(items))
	require.NoError(t, store.WriteTable(items))
	require.NoError(t, store.WriteTable(table.New("Empty")))
	require.NoError(t, store.WriteForeignKeys([]table.ForeignKey{
		{FKTable: "Empty", FKColumn: "PK", PKTable: "Items", PKColumn: "PK"},
	}))
	require.NoError(t, store.Close())

	// reopen and read everything back
	store, err = New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	names, err := store.ReadRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"Items", "Empty"}, names)

	back, err := store.ReadTable("Items")
	require.NoError(t, err)
	require.Equal(t, 2, back.RowCount())
	row, err := back.FindRow("1")
	require.NoError(t, err)
	assert.True(t, row[1].Equal(cell.Vec3(cell.Vector3{1, 2, 3})))
	row, err = back.FindRow("2")
	require.NoError(t, err)
	assert.True(t, row[1].Null)

	fks, err := store.ReadForeignKeys()
	require.NoError(t, err)
	assert.Len(t, fks, 1)
}

func TestLevelDBStoreDelete(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.ReadTable("Items")
	require.ErrorIs(t, err, storage.ErrTableNotFound)

	fks, err := store.ReadForeignKeys()
	require.NoError(t, err)
	assert.Empty(t, fks)

	require.NoError(t, store.WriteTable(table.New("Items")))
	ok, err := store.IsTableInRegistry("Items")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteTable("Items"))
	ok, err = store.IsTableInRegistry("Items")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = store.ReadTable("Items")
	require.ErrorIs(t, err, storage.ErrTableNotFound)

	require.ErrorIs(t, store.WriteTable(table.New("a.b")), table.ErrInvalidName)
}
