package memstore

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"tableDB/internal/storage"
	"tableDB/internal/storage/codec"
	"tableDB/internal/table"
)

type files struct {
	schema []byte
	data   []byte
}

type memStore struct {
	mu       sync.RWMutex
	tables   map[string]files
	registry []string
	fks      []byte
}

// New creates a store that keeps encoded tables in memory. Tables go through
// the same codec as the file store, so a write followed by a read behaves the
// same way.
func New() storage.Store {
	return &memStore{
		tables: make(map[string]files),
	}
}

func (s *memStore) WriteTable(t *table.Table) error {
	schema, data, err := codec.Encode(t)
	if err != nil {
		return fmt.Errorf("memstore: encode %s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[t.Name] = files{schema: schema, data: data}
	if !slices.Contains(s.registry, t.Name) {
		s.registry = append(s.registry, t.Name)
	}
	return nil
}

func (s *memStore) ReadTable(name string) (*table.Table, error) {
	s.mu.RLock()
	f, ok := s.tables[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
	}

	t, err := codec.Decode(bytes.NewReader(f.schema), bytes.NewReader(f.data))
	if err != nil {
		return nil, fmt.Errorf("memstore: decode %s: %w", name, err)
	}
	return t, nil
}

func (s *memStore) DeleteTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tables, name)
	s.registry = slices.DeleteFunc(s.registry, func(n string) bool { return n == name })
	return nil
}

func (s *memStore) ReadRegistry() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.registry), nil
}

func (s *memStore) IsTableInRegistry(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.registry, name), nil
}

func (s *memStore) WriteForeignKeys(fks []table.ForeignKey) error {
	var buf bytes.Buffer
	if err := codec.WriteForeignKeys(&buf, fks); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fks = buf.Bytes()
	return nil
}

func (s *memStore) ReadForeignKeys() ([]table.ForeignKey, error) {
	s.mu.RLock()
	raw := s.fks
	s.mu.RUnlock()

	return codec.ReadForeignKeys(bytes.NewReader(raw))
}

// Close is a no-op for the in-memory store.
func (s *memStore) Close() error {
	return nil
}
