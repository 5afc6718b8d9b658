package storage

import (
	"errors"

	"tableDB/internal/table"
)

// ErrTableNotFound is returned by ReadTable for a table that was never written.
var ErrTableNotFound = errors.New("storage: table not found")

// Store persists tables as a schema file plus a data file each, a registry of
// every table written at least once, and the foreign-key constraint list.
//
// Implementations:
//   - filestore: one directory on disk
//   - memstore: byte buffers in memory (tests, tools)
//
// Stores must be safe for concurrent use; the manager fans table reads and
// writes out across goroutines.
type Store interface {
	// WriteTable saves t and adds it to the registry.
	WriteTable(t *table.Table) error

	// ReadTable loads a previously written table.
	ReadTable(name string) (*table.Table, error)

	// DeleteTable removes a table's files and its registry entry.
	DeleteTable(name string) error

	// ReadRegistry lists written tables. A store with no registry yet
	// returns an empty list.
	ReadRegistry() ([]string, error)

	// IsTableInRegistry reports whether name has been written.
	IsTableInRegistry(name string) (bool, error)

	// WriteForeignKeys replaces the stored constraint list.
	WriteForeignKeys(fks []table.ForeignKey) error

	// ReadForeignKeys returns the stored constraint list, empty if none.
	ReadForeignKeys() ([]table.ForeignKey, error)

	Close() error
}
