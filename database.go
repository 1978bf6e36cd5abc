package matidb

import (
	"fmt"
	"os"
	"strings"
)

// Database is the core API surface consumed by the executor (spec.md §6):
// create_table, get_table, list_tables, insert_row, scan, flush. It wires
// together the disk manager, buffer pool, catalog, and one TableHeap per
// table.
type Database struct {
	file    *os.File
	disk    *DiskManager
	pool    *BufferPool
	catalog *Catalog
	heaps   map[string]*TableHeap // keyed by lowercased table name
}

// Open opens (creating if necessary) the data file at path and its sibling
// catalog file, and loads every table's heap, using the default buffer
// pool capacity (spec.md §4.3, CAPACITY = 100).
func Open(path string) (*Database, error) {
	return OpenWithCapacity(path, DefaultPoolCapacity)
}

// OpenWithCapacity is Open with an explicit buffer pool capacity, mainly
// for exercising eviction behavior under a small pool in tests.
func OpenWithCapacity(path string, capacity int) (*Database, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: open data file: %v", ErrIO, err)
	}

	disk, err := OpenDiskManager(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	catalog, err := OpenCatalog(CatalogPath(path))
	if err != nil {
		file.Close()
		return nil, err
	}

	pool := NewBufferPool(disk, capacity)

	db := &Database{
		file:    file,
		disk:    disk,
		pool:    pool,
		catalog: catalog,
		heaps:   make(map[string]*TableHeap),
	}

	for _, t := range catalog.List() {
		db.heaps[strings.ToLower(t.Name)] = OpenTableHeap(pool, t.Schema, t.RootPageID)
	}

	return db, nil
}

// CreateTable adds a new, empty table to the database. Fails with
// ErrTableExists if the name (case-insensitive) is already taken.
func (db *Database) CreateTable(name string, schema Schema) error {
	if _, ok := db.catalog.Get(name); ok {
		return fmt.Errorf("%w: %q", ErrTableExists, name)
	}

	heap, err := NewTableHeap(db.pool, schema)
	if err != nil {
		return err
	}

	if err := db.catalog.Create(name, schema, heap.RootPageID()); err != nil {
		return err
	}

	db.heaps[strings.ToLower(name)] = heap
	return nil
}

// GetTable looks up a table's catalog entry by name.
func (db *Database) GetTable(name string) (*Table, bool) {
	return db.catalog.Get(name)
}

// ListTables returns every table's catalog entry, in creation order.
func (db *Database) ListTables() []*Table {
	return db.catalog.List()
}

// InsertRow typechecks row against tableName's schema and appends it to
// the table's heap.
func (db *Database) InsertRow(tableName string, row Row) error {
	t, ok := db.catalog.Get(tableName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
	}

	if err := t.Schema.Typecheck(row); err != nil {
		return err
	}

	heap := db.heaps[strings.ToLower(tableName)]
	return heap.Insert(row)
}

// Scan walks tableName's rows in insertion order, calling yield with each.
func (db *Database) Scan(tableName string, yield func(Row) error) error {
	t, ok := db.catalog.Get(tableName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
	}

	heap := db.heaps[strings.ToLower(t.Name)]
	return heap.Scan(yield)
}

// Flush is the durability checkpoint: every dirty buffer frame is written
// back and fsynced, and the catalog file is rewritten to match the
// in-memory catalog (spec.md §4.3, invariant 6).
func (db *Database) Flush() error {
	if err := db.pool.FlushAll(); err != nil {
		return err
	}
	return db.catalog.Save()
}

// Close flushes and releases the underlying data file.
func (db *Database) Close() error {
	if err := db.Flush(); err != nil {
		return err
	}
	return db.file.Close()
}
