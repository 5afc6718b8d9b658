package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableDB/internal/cell"
	"tableDB/internal/logging"
	"tableDB/internal/storage"
	"tableDB/internal/table"
)

// parentChild builds Parent with serial keys 1..5 and Child with two rows
// whose ParentID cells are 5 and 3.
func parentChild(t *testing.T, m *Manager) {
	t.Helper()

	require.NoError(t, m.CreateTable("Parent"))
	require.NoError(t, m.AddStringColumn("Parent", "Name", ""))
	for range 5 {
		_, err := m.InsertRowAsDefault("Parent")
		require.NoError(t, err)
	}

	require.NoError(t, m.CreateTable("Child"))
	require.NoError(t, m.AddIntColumn("Child", "ParentID", 0))
	require.NoError(t, m.AddForeignKeyConstraint("Child", "ParentID", "Parent"))

	for _, parent := range []int32{5, 3} {
		pk, err := m.InsertRowAsDefault("Child")
		require.NoError(t, err)
		require.NoError(t, m.SetCellInt("Child", pk, "ParentID", parent))
	}
}

func TestChangePrimaryKeyCascades(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.NewWriter(&buf, "text", slog.LevelInfo)
	require.NoError(t, err)

	m := newManager(t, WithLogger(log))
	parentChild(t, m)

	require.NoError(t, m.ChangePrimaryKey("Parent", "5", "9"))

	parent, err := m.Table("Parent")
	require.NoError(t, err)
	_, err = parent.FindRow("5")
	require.ErrorIs(t, err, table.ErrRowNotFound)
	_, err = parent.FindRow("9")
	require.NoError(t, err)

	refs, err := m.GetIntColumnData("Child", "ParentID")
	require.NoError(t, err)
	assert.Equal(t, []int32{9, 3}, refs)

	ids, err := m.GetIntColumnData("Parent", "PK")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4, 9}, ids)

	// the serial counter moved past the new id
	pk, err := m.InsertRowAsDefault("Parent")
	require.NoError(t, err)
	assert.Equal(t, "10", pk)

	assert.Contains(t, buf.String(), "fk_cells_updated=1")
}

func TestChangePrimaryKeyFailures(t *testing.T) {
	m := newManager(t)
	parentChild(t, m)

	require.ErrorIs(t, m.ChangePrimaryKey("Parent", "5", "3"), table.ErrDuplicateKey)
	require.ErrorIs(t, m.ChangePrimaryKey("Parent", "42", "43"), table.ErrRowNotFound)
	require.ErrorIs(t, m.ChangePrimaryKey("Parent", "5", "nine"), cell.ErrKeyParse)
	require.ErrorIs(t, m.ChangePrimaryKey("Ghost", "5", "9"), storage.ErrTableNotFound)
	require.ErrorIs(t, m.ChangePrimaryKey("Parent", "5", "2147483647"), table.ErrSerialExhausted)

	// nothing moved
	refs, err := m.GetIntColumnData("Child", "ParentID")
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 3}, refs)
	parent, err := m.Table("Parent")
	require.NoError(t, err)
	assert.Equal(t, int32(6), parent.NextSerialID())
}

func TestCascadeOnStringKeys(t *testing.T) {
	m := newManager(t, WithStringCapacity(4))

	require.NoError(t, m.CreateTable("Parent"))
	for range 2 {
		_, err := m.InsertRowAsDefault("Parent")
		require.NoError(t, err)
	}
	require.NoError(t, m.ConvertToExplicitPK("Parent", "Code", cell.TypeString, nil))

	require.NoError(t, m.CreateTable("Child"))
	require.NoError(t, m.AddStringColumn("Child", "ParentCode", ""))
	require.NoError(t, m.AddForeignKeyConstraint("Child", "ParentCode", "Parent"))
	pk, err := m.InsertRowAsDefault("Child")
	require.NoError(t, err)
	require.NoError(t, m.SetCellString("Child", pk, "ParentCode", "1"))

	// the new key does not fit the referencing column: nothing changes
	require.ErrorIs(t, m.ChangePrimaryKey("Parent", "1", "toolong"), table.ErrValueTooLong)
	codes, err := m.GetStringColumnData("Parent", "Code")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, codes)

	// writing the key column routes through the cascade
	require.NoError(t, m.SetCellString("Parent", "1", "Code", "A"))

	refs, err := m.GetStringColumnData("Child", "ParentCode")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, refs)
}

func TestSelfReferenceCascade(t *testing.T) {
	m := newManager(t)

	require.NoError(t, m.CreateTable("Node"))
	require.NoError(t, m.AddIntColumn("Node", "Next", 0))
	require.NoError(t, m.AddForeignKeyConstraint("Node", "Next", "Node"))
	for range 2 {
		_, err := m.InsertRowAsDefault("Node")
		require.NoError(t, err)
	}
	require.NoError(t, m.SetCellInt("Node", "1", "Next", 1))
	require.NoError(t, m.SetCellInt("Node", "2", "Next", 1))

	require.NoError(t, m.ChangePrimaryKey("Node", "1", "7"))

	next, err := m.GetIntColumnData("Node", "Next")
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 7}, next)
}

func TestAddForeignKeyConstraintValidation(t *testing.T) {
	m := newManager(t)
	parentChild(t, m)

	require.NoError(t, m.AddFloatColumn("Child", "Score", 0))
	require.NoError(t, m.AddIntColumn("Child", "Other", 0))

	require.ErrorIs(t, m.AddForeignKeyConstraint("Child", "Other", "Ghost"), storage.ErrTableNotFound)
	require.ErrorIs(t, m.AddForeignKeyConstraint("Ghost", "Other", "Parent"), storage.ErrTableNotFound)
	require.ErrorIs(t, m.AddForeignKeyConstraint("Child", "Missing", "Parent"), table.ErrColumnNotFound)
	require.ErrorIs(t, m.AddForeignKeyConstraint("Child", "PK", "Parent"), table.ErrForeignKey)
	require.ErrorIs(t, m.AddForeignKeyConstraint("Child", "ParentID", "Parent"), table.ErrForeignKey)

	err := m.AddForeignKeyConstraint("Child", "Score", "Parent")
	require.ErrorIs(t, err, table.ErrForeignKey)
	require.ErrorIs(t, err, cell.ErrTypeMismatch)

	require.Len(t, m.ForeignKeys(), 1)
	assert.Equal(t, table.ForeignKey{FKTable: "Child", FKColumn: "ParentID", PKTable: "Parent", PKColumn: "PK"},
		m.ForeignKeys()[0])

	child, err := m.Table("Child")
	require.NoError(t, err)
	col := child.Column(child.ColumnIndex("ParentID"))
	assert.True(t, col.IsForeignKey())
	assert.Equal(t, "Parent", col.RefTable)

	require.NoError(t, m.RemoveForeignKeyConstraint("Child", "ParentID"))
	assert.Empty(t, m.ForeignKeys())
	assert.False(t, child.Column(child.ColumnIndex("ParentID")).IsForeignKey())
	require.ErrorIs(t, m.RemoveForeignKeyConstraint("Child", "ParentID"), table.ErrForeignKey)
}

func TestReferencedTablesAreProtected(t *testing.T) {
	m := newManager(t)
	parentChild(t, m)

	require.ErrorIs(t, m.RemoveTable("Parent"), ErrTableReferenced)
	require.ErrorIs(t, m.ConvertToExplicitPK("Parent", "Code", cell.TypeInt, nil), ErrTableReferenced)
	assert.True(t, m.HasTable("Parent"))

	// dropping the referencing column releases the constraint
	require.NoError(t, m.RemoveColumn("Child", "ParentID"))
	assert.Empty(t, m.ForeignKeys())
	require.NoError(t, m.ConvertToExplicitPK("Parent", "Code", cell.TypeInt, nil))
	require.NoError(t, m.RemoveTable("Parent"))
}

func TestRemoveTableDropsOwnConstraints(t *testing.T) {
	m := newManager(t)
	parentChild(t, m)

	require.NoError(t, m.RemoveTable("Child"))
	assert.Empty(t, m.ForeignKeys())
	require.NoError(t, m.RemoveTable("Parent"))
	assert.Empty(t, m.ListTables())
}
