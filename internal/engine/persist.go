package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tableDB/internal/table"
)

// ioConcurrency bounds the number of tables read or written at once.
const ioConcurrency = 8

// SaveTable writes one table to the store.
func (m *Manager) SaveTable(name string) error {
	t, err := m.lookup(name)
	if err != nil {
		return m.reject("SaveTable", name, err)
	}
	return m.reject("SaveTable", name, m.store.WriteTable(t))
}

// LoadTable reads one table from the store, replacing any in-memory table
// of the same name, and re-applies foreign-key tags.
func (m *Manager) LoadTable(name string) error {
	if !m.started {
		return m.reject("LoadTable", name, ErrNotStarted)
	}
	t, err := m.store.ReadTable(name)
	if err != nil {
		return m.reject("LoadTable", name, err)
	}
	m.tables[name] = t
	m.ApplyForeignKeysToTables()
	return nil
}

// SaveAll writes every table and the constraint file.
func (m *Manager) SaveAll(ctx context.Context) error {
	if !m.started {
		return ErrNotStarted
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ioConcurrency)
	for _, name := range m.ListTables() {
		t := m.tables[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.store.WriteTable(t); err != nil {
				return fmt.Errorf("save %s: %w", t.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m.reject("SaveAll", "", err)
	}
	return m.SaveForeignKeys()
}

// LoadAll reads every registered table and the constraint file. Nothing is
// replaced unless every read succeeds.
func (m *Manager) LoadAll(ctx context.Context) error {
	if !m.started {
		return ErrNotStarted
	}
	return m.reject("LoadAll", "", m.loadAll(ctx))
}

func (m *Manager) loadAll(ctx context.Context) error {
	names, err := m.store.ReadRegistry()
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}

	loaded := make([]*table.Table, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ioConcurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := m.store.ReadTable(name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			loaded[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fks, err := m.store.ReadForeignKeys()
	if err != nil {
		return fmt.Errorf("read foreign keys: %w", err)
	}

	tables := make(map[string]*table.Table, len(loaded))
	for _, t := range loaded {
		tables[t.Name] = t
	}
	m.tables = tables
	m.fks = fks
	m.ApplyForeignKeysToTables()
	return nil
}

// SaveForeignKeys writes the constraint list.
func (m *Manager) SaveForeignKeys() error {
	if !m.started {
		return ErrNotStarted
	}
	return m.reject("SaveForeignKeys", "", m.store.WriteForeignKeys(m.fks))
}

// LoadForeignKeys replaces the constraint list from the store and re-applies
// it to the loaded tables.
func (m *Manager) LoadForeignKeys() error {
	if !m.started {
		return ErrNotStarted
	}
	return m.reject("LoadForeignKeys", "", m.loadForeignKeys())
}

func (m *Manager) loadForeignKeys() error {
	fks, err := m.store.ReadForeignKeys()
	if err != nil {
		return fmt.Errorf("read foreign keys: %w", err)
	}
	m.fks = fks
	m.ApplyForeignKeysToTables()
	return nil
}
