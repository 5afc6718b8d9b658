package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"tableDB/internal/logging"
	"tableDB/internal/storage"
	"tableDB/internal/table"
)

var (
	ErrNotStarted      = errors.New("manager not started")
	ErrTableReferenced = errors.New("table is referenced by a foreign key")
)

// Manager owns a set of named tables and the foreign-key constraints
// between them. It is not safe for concurrent use; the embedding
// application serializes access.
type Manager struct {
	started bool
	store   storage.Store
	log     *logging.Logger

	stringCapacity int
	loadOnStart    bool

	tables map[string]*table.Table
	// fks is the source of truth for foreign keys. Column tags are
	// recomputed from it by ApplyForeignKeysToTables.
	fks []table.ForeignKey
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for rejections, saves and cascades.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithStringCapacity sets the capacity given to new String columns.
func WithStringCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.stringCapacity = n
		}
	}
}

// WithLoadOnStart controls whether Start loads the persisted tables.
func WithLoadOnStart(load bool) Option {
	return func(m *Manager) { m.loadOnStart = load }
}

// New creates a Manager persisting through store.
func New(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		log:            logging.Nop(),
		stringCapacity: table.DefaultStringSize,
		loadOnStart:    true,
		tables:         make(map[string]*table.Table),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start loads every registered table and the constraint file, then
// re-applies foreign-key tags.
func (m *Manager) Start(ctx context.Context) error {
	if m.started {
		return fmt.Errorf("manager already started")
	}
	if m.loadOnStart {
		if err := m.loadAll(ctx); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	m.started = true
	return nil
}

// Close releases the underlying store. Unsaved changes are lost.
func (m *Manager) Close() error {
	m.started = false
	return m.store.Close()
}

// reject logs a failed operation and hands the error back.
func (m *Manager) reject(op, tableName string, err error) error {
	if err != nil {
		m.log.LogRejected(context.Background(), op, tableName, err)
	}
	return err
}

func (m *Manager) lookup(name string) (*table.Table, error) {
	if !m.started {
		return nil, ErrNotStarted
	}
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, name)
	}
	return t, nil
}

// CreateTable adds an empty Serial table.
func (m *Manager) CreateTable(name string) error {
	const op = "CreateTable"
	if !m.started {
		return m.reject(op, name, ErrNotStarted)
	}
	if !table.ValidName(name) {
		return m.reject(op, name, fmt.Errorf("%w: table %q", table.ErrInvalidName, name))
	}
	if _, exists := m.tables[name]; exists {
		return m.reject(op, name, fmt.Errorf("%w: table %s", table.ErrDuplicateName, name))
	}
	m.tables[name] = table.New(name)
	return nil
}

// RemoveTable drops a table from memory and from the store. It is refused
// while another table holds a foreign key into it. Constraints declared on
// the table itself go with it.
func (m *Manager) RemoveTable(name string) error {
	const op = "RemoveTable"
	if _, err := m.lookup(name); err != nil {
		return m.reject(op, name, err)
	}
	for _, fk := range m.fks {
		if fk.PKTable == name && fk.FKTable != name {
			return m.reject(op, name, fmt.Errorf("%w: %s", ErrTableReferenced, fk))
		}
	}

	if err := m.store.DeleteTable(name); err != nil && !errors.Is(err, storage.ErrTableNotFound) {
		return m.reject(op, name, err)
	}

	delete(m.tables, name)
	m.fks = slices.DeleteFunc(m.fks, func(fk table.ForeignKey) bool {
		return fk.FKTable == name || fk.PKTable == name
	})
	return nil
}

// HasTable reports whether name is loaded. Before Start nothing is.
func (m *Manager) HasTable(name string) bool {
	_, ok := m.tables[name]
	return ok
}

// ListTables returns the table names in sorted order.
func (m *Manager) ListTables() []string {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Table returns the live table. Schema changes must go through the Manager
// so that foreign keys stay consistent.
func (m *Manager) Table(name string) (*table.Table, error) {
	return m.lookup(name)
}

// referencedBy lists the constraints pointing into name from other tables.
func (m *Manager) referencedBy(name string, includeSelf bool) []table.ForeignKey {
	var out []table.ForeignKey
	for _, fk := range m.fks {
		if fk.PKTable != name {
			continue
		}
		if fk.FKTable == name && !includeSelf {
			continue
		}
		out = append(out, fk)
	}
	return out
}
