package matidb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is a catalog entry: a table's name, its schema, and the stable
// root page id of its heap chain.
type Table struct {
	Name       string
	Schema     Schema
	RootPageID PageID
}

// Catalog maps table names (unique, case-insensitive) to Tables and
// persists that mapping to a sibling "<db>.catalog" file (spec.md §4.4).
type Catalog struct {
	path string

	// keyed by lowercased name; order preserves creation order for
	// deterministic list_tables output.
	tables map[string]*Table
	order  []string
}

// CatalogPath returns the catalog file path for a given data file path.
func CatalogPath(dataFilePath string) string {
	return dataFilePath + ".catalog"
}

// OpenCatalog loads the catalog at path, or returns an empty catalog if it
// doesn't exist yet.
func OpenCatalog(path string) (*Catalog, error) {
	cat := &Catalog{
		path:   path,
		tables: make(map[string]*Table),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %v", ErrIO, err)
	}
	defer f.Close()

	if err := cat.decode(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) decode(r io.Reader) error {
	var tableCount uint32
	if err := binary.Read(r, binary.LittleEndian, &tableCount); err != nil {
		return fmt.Errorf("%w: read table count: %v", ErrIO, err)
	}

	for i := uint32(0); i < tableCount; i++ {
		name, err := readLenPrefixedString(r, 2)
		if err != nil {
			return fmt.Errorf("%w: read table name: %v", ErrIO, err)
		}

		var rootPageID uint32
		if err := binary.Read(r, binary.LittleEndian, &rootPageID); err != nil {
			return fmt.Errorf("%w: read root page id: %v", ErrIO, err)
		}

		var columnCount uint16
		if err := binary.Read(r, binary.LittleEndian, &columnCount); err != nil {
			return fmt.Errorf("%w: read column count: %v", ErrIO, err)
		}

		columns := make([]Column, columnCount)
		for j := uint16(0); j < columnCount; j++ {
			colName, err := readLenPrefixedString(r, 2)
			if err != nil {
				return fmt.Errorf("%w: read column name: %v", ErrIO, err)
			}

			var typeTag uint8
			if err := binary.Read(r, binary.LittleEndian, &typeTag); err != nil {
				return fmt.Errorf("%w: read column type: %v", ErrIO, err)
			}

			ct, err := columnTypeFromTag(typeTag)
			if err != nil {
				return err
			}
			columns[j] = Column{Name: colName, Type: ct}
		}

		table := &Table{
			Name:       name,
			Schema:     NewSchema(columns),
			RootPageID: PageID(rootPageID),
		}
		key := strings.ToLower(name)
		c.tables[key] = table
		c.order = append(c.order, key)
	}

	return nil
}

func readLenPrefixedString(r io.Reader, lenBytes int) (string, error) {
	var n int
	switch lenBytes {
	case 2:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return "", err
		}
		n = int(v)
	default:
		panic("unsupported length prefix size")
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func columnTypeFromTag(tag uint8) (ColumnType, error) {
	switch tag {
	case 0:
		return ColInt64, nil
	case 1:
		return ColText, nil
	case 2:
		return ColBool, nil
	default:
		return 0, fmt.Errorf("%w: unknown catalog column type tag %d", ErrCorruptTuple, tag)
	}
}

func columnTypeTag(ct ColumnType) uint8 {
	switch ct {
	case ColInt64:
		return 0
	case ColText:
		return 1
	case ColBool:
		return 2
	default:
		panic("unhandled column type")
	}
}

// Create adds a new table to the catalog. Fails with ErrTableExists if the
// (case-insensitive) name is already taken.
func (c *Catalog) Create(name string, schema Schema, rootPageID PageID) error {
	key := strings.ToLower(name)
	if _, ok := c.tables[key]; ok {
		return fmt.Errorf("%w: %q", ErrTableExists, name)
	}

	c.tables[key] = &Table{Name: name, Schema: schema, RootPageID: rootPageID}
	c.order = append(c.order, key)
	return nil
}

// Get looks up a table by name, case-insensitively.
func (c *Catalog) Get(name string) (*Table, bool) {
	t, ok := c.tables[strings.ToLower(name)]
	return t, ok
}

// List returns every table in creation order.
func (c *Catalog) List() []*Table {
	out := make([]*Table, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.tables[key])
	}
	return out
}

// Save rewrites the whole catalog file, write-then-rename so a crash
// mid-write can never leave a half-written catalog on disk.
func (c *Catalog) Save() error {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(c.order))); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	for _, key := range c.order {
		t := c.tables[key]
		writeLenPrefixedString(&buf, t.Name)
		binary.Write(&buf, binary.LittleEndian, uint32(t.RootPageID))
		binary.Write(&buf, binary.LittleEndian, uint16(len(t.Schema.Columns)))
		for _, col := range t.Schema.Columns {
			writeLenPrefixedString(&buf, col.Name)
			buf.WriteByte(columnTypeTag(col.Type))
		}
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp catalog: %v", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp catalog: %v", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp catalog: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp catalog: %v", ErrIO, err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename catalog into place: %v", ErrIO, err)
	}

	return nil
}

func writeLenPrefixedString(buf *bytes.Buffer, s string) {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}
