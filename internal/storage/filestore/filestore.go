package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/fslock"

	"tableDB/internal/logging"
	"tableDB/internal/storage"
	"tableDB/internal/storage/codec"
	"tableDB/internal/table"
)

const (
	schemaSuffix   = "_Scheme.txt"
	dataSuffix     = "_Data.bin"
	registryFile   = "__TABLE_REGISTRY.txt"
	foreignKeyFile = "__FOREIGN_KEYS.txt"
	lockFile       = ".tabledb.lock"
)

var _ storage.Store = (*FileStore)(nil)

// ErrLocked is returned by New when another process holds the directory.
var ErrLocked = errors.New("filestore: save directory is locked by another process")

// FileStore keeps every table as two files in one directory.
//
// Layout:
//
//	<dir>/<Table>_Scheme.txt   key=value header + Name,Size,Type column list
//	<dir>/<Table>_Data.bin     binary records (see codec.WriteData)
//	<dir>/__TABLE_REGISTRY.txt one table name per line
//	<dir>/__FOREIGN_KEYS.txt   FKTable|FKColumn|PKTable|PKColumn per line
//	<dir>/.tabledb.lock        held for the lifetime of the store
//
// Files are written to a temporary name and renamed into place.
type FileStore struct {
	dir  string
	lock *fslock.Lock
	log  *logging.Logger

	// guards the registry and foreign-key files
	mu sync.Mutex
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for save/load diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(s *FileStore) { s.log = l }
}

// New opens (creating if needed) a store rooted at dir and locks it.
func New(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}

	s := &FileStore{
		dir:  dir,
		lock: fslock.New(filepath.Join(dir, lockFile)),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.lock.TryLock(); err != nil {
		if errors.Is(err, fslock.ErrLocked) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
		}
		return nil, fmt.Errorf("filestore: lock %s: %w", dir, err)
	}
	return s, nil
}

// Dir is the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Close releases the directory lock.
func (s *FileStore) Close() error {
	return s.lock.Unlock()
}

func (s *FileStore) schemaPath(name string) string {
	return filepath.Join(s.dir, name+schemaSuffix)
}

func (s *FileStore) dataPath(name string) string {
	return filepath.Join(s.dir, name+dataSuffix)
}

func checkName(name string) error {
	if !table.ValidName(name) {
		return fmt.Errorf("filestore: %w: table %q", table.ErrInvalidName, name)
	}
	return nil
}

// WriteTable writes the schema and data files for t, then registers it.
func (s *FileStore) WriteTable(t *table.Table) error {
	if err := checkName(t.Name); err != nil {
		return err
	}

	_, err := writeFileAtomic(s.schemaPath(t.Name), func(w io.Writer) error {
		return codec.WriteSchema(w, t)
	})
	if err != nil {
		return fmt.Errorf("filestore: write schema %s: %w", t.Name, err)
	}

	size, err := writeFileAtomic(s.dataPath(t.Name), func(w io.Writer) error {
		_, err := codec.WriteData(w, t)
		return err
	})
	s.log.LogSave(context.Background(), t.Name, t.RowCount(), size, err)
	if err != nil {
		return fmt.Errorf("filestore: write data %s: %w", t.Name, err)
	}

	return s.addToRegistry(t.Name)
}

// ReadTable loads a table from its schema and data files.
func (s *FileStore) ReadTable(name string) (*table.Table, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	sf, err := os.Open(s.schemaPath(name))
	if err != nil {
		return nil, notFound(name, err)
	}
	defer sf.Close()

	df, err := os.Open(s.dataPath(name))
	if err != nil {
		return nil, notFound(name, err)
	}
	defer df.Close()

	t, err := codec.Decode(bufio.NewReader(sf), bufio.NewReader(df))
	if err != nil {
		s.log.LogLoad(context.Background(), name, 0, err)
		return nil, fmt.Errorf("filestore: read %s: %w", name, err)
	}
	if t.Name != name {
		return nil, fmt.Errorf("filestore: %w: %s schema names table %q", codec.ErrFormat, name, t.Name)
	}
	s.log.LogLoad(context.Background(), name, t.RowCount(), nil)
	return t, nil
}

func notFound(name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
	}
	return fmt.Errorf("filestore: open %s: %w", name, err)
}

// DeleteTable removes the table's files and registry entry. Missing files
// are not an error.
func (s *FileStore) DeleteTable(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	for _, p := range []string{s.schemaPath(name), s.dataPath(name)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("filestore: delete %s: %w", name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.readLines(registryFile)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return nil
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	return s.writeLines(registryFile, names)
}

// ReadRegistry lists every table written to this directory.
func (s *FileStore) ReadRegistry() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readLines(registryFile)
}

func (s *FileStore) IsTableInRegistry(name string) (bool, error) {
	names, err := s.ReadRegistry()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func (s *FileStore) addToRegistry(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.readLines(registryFile)
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return nil
	}
	return s.writeLines(registryFile, append(names, name))
}

// WriteForeignKeys replaces the constraint file.
func (s *FileStore) WriteForeignKeys(fks []table.ForeignKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := writeFileAtomic(filepath.Join(s.dir, foreignKeyFile), func(w io.Writer) error {
		return codec.WriteForeignKeys(w, fks)
	})
	if err != nil {
		return fmt.Errorf("filestore: write foreign keys: %w", err)
	}
	return nil
}

// ReadForeignKeys reads the constraint file; a missing file is empty.
func (s *FileStore) ReadForeignKeys() ([]table.ForeignKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, foreignKeyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: open foreign keys: %w", err)
	}
	defer f.Close()

	return codec.ReadForeignKeys(f)
}

func (s *FileStore) readLines(file string) ([]string, error) {
	f, err := os.Open(filepath.Join(s.dir, file))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: open %s: %w", file, err)
	}
	defer f.Close()

	return codec.ReadLines(f)
}

func (s *FileStore) writeLines(file string, lines []string) error {
	_, err := writeFileAtomic(filepath.Join(s.dir, file), func(w io.Writer) error {
		return codec.WriteLines(w, lines)
	})
	if err != nil {
		return fmt.Errorf("filestore: write %s: %w", file, err)
	}
	return nil
}

// writeFileAtomic writes through fn into a uniquely named temp file next to
// path, syncs it and renames it over path. It returns the final file size.
func writeFileAtomic(path string, fn func(io.Writer) error) (int64, error) {
	tmp := path + ".tmp-" + uuid.NewString()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	fail := func(err error) (int64, error) {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, err
	}

	if err := fn(f); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	info, err := f.Stat()
	if err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	return info.Size(), nil
}
