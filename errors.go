package matidb

import "errors"

// Error kinds returned by the core. The executor and TCP server never see
// anything else out of create_table/insert_row/scan/flush; they format
// these into ERROR responses rather than the engine formatting them itself.
var (
	// ErrIO wraps an underlying file read/write failure. Fatal to the
	// current operation; the engine keeps serving subsequent requests.
	ErrIO = errors.New("io error")

	// ErrPoolExhausted means every buffer frame is pinned and eviction has
	// no victim to choose.
	ErrPoolExhausted = errors.New("buffer pool exhausted: no unpinned frame to evict")

	// ErrTableExists is returned by create_table for a name already in the catalog.
	ErrTableExists = errors.New("table already exists")

	// ErrUnknownTable is returned when a table name isn't in the catalog.
	ErrUnknownTable = errors.New("unknown table")

	// ErrSchemaMismatch is returned by insert_row when row arity or
	// positional type doesn't match the table's schema.
	ErrSchemaMismatch = errors.New("row does not match table schema")

	// ErrTupleTooLarge is returned when an encoded tuple can't possibly
	// fit on an empty page.
	ErrTupleTooLarge = errors.New("tuple too large for a page")

	// ErrCorruptTuple is returned when a scan decodes a tag that doesn't
	// match the schema or runs out of bytes mid-value.
	ErrCorruptTuple = errors.New("corrupt tuple")
)
