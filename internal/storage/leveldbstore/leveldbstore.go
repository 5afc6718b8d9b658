package leveldbstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"tableDB/internal/storage"
	"tableDB/internal/storage/codec"
	"tableDB/internal/table"
)

var (
	registryKey   = []byte("/registry")
	foreignKeyKey = []byte("/foreign_keys")
)

// Every write is synced so a returned nil means the change is on disk.
var syncWrites = &opt.WriteOptions{Sync: true}

func schemaKey(name string) []byte { return []byte("/table/" + name + "/schema") }
func dataKey(name string) []byte   { return []byte("/table/" + name + "/data") }

var _ storage.Store = (*LevelDBStore)(nil)

// LevelDBStore keeps the same schema and data encodings as the file store,
// but as values in a LevelDB database. A table's two files and its
// registry entry are written in one batch.
type LevelDBStore struct {
	db *leveldb.DB

	// guards read-modify-write of the registry
	mu sync.Mutex
}

// New opens (creating if needed) a database in dir. LevelDB holds its own
// lock on the directory.
func New(dir string) (*LevelDBStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("leveldbstore: create dir: %w", err)
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: open %s: %w", dir, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func checkName(name string) error {
	if !table.ValidName(name) {
		return fmt.Errorf("leveldbstore: %w: table %q", table.ErrInvalidName, name)
	}
	return nil
}

func (s *LevelDBStore) WriteTable(t *table.Table) error {
	if err := checkName(t.Name); err != nil {
		return err
	}
	schema, data, err := codec.Encode(t)
	if err != nil {
		return fmt.Errorf("leveldbstore: encode %s: %w", t.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.registry()
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(schemaKey(t.Name), schema)
	batch.Put(dataKey(t.Name), data)
	if !slices.Contains(names, t.Name) {
		if err := putLines(batch, registryKey, append(names, t.Name)); err != nil {
			return err
		}
	}
	if err := s.db.Write(batch, syncWrites); err != nil {
		return fmt.Errorf("leveldbstore: write %s: %w", t.Name, err)
	}
	return nil
}

func (s *LevelDBStore) ReadTable(name string) (*table.Table, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	schema, err := s.get(schemaKey(name))
	if err != nil {
		return nil, err
	}
	data, err := s.get(dataKey(name))
	if err != nil {
		return nil, err
	}
	if schema == nil || data == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
	}

	t, err := codec.Decode(bytes.NewReader(schema), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: read %s: %w", name, err)
	}
	if t.Name != name {
		return nil, fmt.Errorf("leveldbstore: %w: %s schema names table %q", codec.ErrFormat, name, t.Name)
	}
	return t, nil
}

func (s *LevelDBStore) DeleteTable(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.registry()
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Delete(schemaKey(name))
	batch.Delete(dataKey(name))
	if slices.Contains(names, name) {
		names = slices.DeleteFunc(names, func(n string) bool { return n == name })
		if err := putLines(batch, registryKey, names); err != nil {
			return err
		}
	}
	if err := s.db.Write(batch, syncWrites); err != nil {
		return fmt.Errorf("leveldbstore: delete %s: %w", name, err)
	}
	return nil
}

func (s *LevelDBStore) ReadRegistry() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry()
}

func (s *LevelDBStore) IsTableInRegistry(name string) (bool, error) {
	names, err := s.ReadRegistry()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func (s *LevelDBStore) WriteForeignKeys(fks []table.ForeignKey) error {
	var buf bytes.Buffer
	if err := codec.WriteForeignKeys(&buf, fks); err != nil {
		return err
	}
	if err := s.db.Put(foreignKeyKey, buf.Bytes(), syncWrites); err != nil {
		return fmt.Errorf("leveldbstore: write foreign keys: %w", err)
	}
	return nil
}

func (s *LevelDBStore) ReadForeignKeys() ([]table.ForeignKey, error) {
	raw, err := s.get(foreignKeyKey)
	if err != nil {
		return nil, err
	}
	return codec.ReadForeignKeys(bytes.NewReader(raw))
}

// registry must be called with mu held.
func (s *LevelDBStore) registry() ([]string, error) {
	raw, err := s.get(registryKey)
	if err != nil {
		return nil, err
	}
	return codec.ReadLines(bytes.NewReader(raw))
}

// get returns nil for a missing key.
func (s *LevelDBStore) get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: get %s: %w", key, err)
	}
	return v, nil
}

func putLines(batch *leveldb.Batch, key []byte, lines []string) error {
	var buf bytes.Buffer
	if err := codec.WriteLines(&buf, lines); err != nil {
		return err
	}
	batch.Put(key, buf.Bytes())
	return nil
}
