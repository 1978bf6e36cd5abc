package matidb

import "testing"

func newTestHeap(t *testing.T, capacity int) (*TableHeap, *BufferPool, Schema) {
	t.Helper()
	dm, err := OpenDiskManager(&fakeStorage{})
	if err != nil {
		t.Fatalf("OpenDiskManager() error = %v", err)
	}
	pool := NewBufferPool(dm, capacity)

	schema := NewSchema([]Column{
		{Name: "id", Type: ColInt64},
		{Name: "payload", Type: ColText},
	})

	heap, err := NewTableHeap(pool, schema)
	if err != nil {
		t.Fatalf("NewTableHeap() error = %v", err)
	}
	return heap, pool, schema
}

func TestTableHeapInsertAndScanPreservesOrder(t *testing.T) {
	heap, _, _ := newTestHeap(t, 50)

	want := []Row{
		{Int64Value(1), TextValue("a")},
		{Int64Value(2), TextValue("b")},
		{Int64Value(3), TextValue("c")},
	}
	for _, row := range want {
		if err := heap.Insert(row); err != nil {
			t.Fatalf("Insert(%+v) error = %v", row, err)
		}
	}

	var got []Row
	err := heap.Scan(func(r Row) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Scan() returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Fatalf("Scan()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTableHeapChainsPagesWhenFull(t *testing.T) {
	heap, pool, _ := newTestHeap(t, 50)

	// a payload chosen so only a handful fit per page, forcing a second
	// (and third) page to be allocated and linked (spec.md §8 invariant 7).
	big := make([]byte, 1500)
	for i := range big {
		big[i] = 'x'
	}

	rowCount := 6 // 1500-byte text values: 2 per page, so 6 rows need 3 pages
	for i := 0; i < rowCount; i++ {
		row := Row{Int64Value(int64(i)), TextValue(string(big))}
		if err := heap.Insert(row); err != nil {
			t.Fatalf("Insert() row %d error = %v", i, err)
		}
	}

	pageCount := 0
	id := heap.RootPageID()
	var lastID PageID
	for id != NoPage {
		pageCount++
		frame, err := pool.FetchPage(id)
		if err != nil {
			t.Fatalf("FetchPage(%v) error = %v", id, err)
		}
		next := frame.PagePtr().NextPageID()
		pool.Unpin(id, false)
		lastID = id
		id = next
	}

	if pageCount < 2 {
		t.Fatalf("chain has %d page(s), want at least 2 given oversized rows", pageCount)
	}

	if lastID < heap.RootPageID() {
		t.Fatalf("last page id %v is not the highest allocated (root %v)", lastID, heap.RootPageID())
	}

	var rows int
	err := heap.Scan(func(Row) error { rows++; return nil })
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if rows != rowCount {
		t.Fatalf("Scan() visited %d rows across the chain, want %d", rows, rowCount)
	}
}

func TestOpenTableHeapResumesExistingChain(t *testing.T) {
	heap, pool, schema := newTestHeap(t, 50)
	if err := heap.Insert(Row{Int64Value(9), TextValue("z")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	reopened := OpenTableHeap(pool, schema, heap.RootPageID())
	var rows []Row
	err := reopened.Scan(func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() on reopened heap error = %v", err)
	}
	if len(rows) != 1 || rows[0][0] != Int64Value(9) {
		t.Fatalf("Scan() on reopened heap = %+v, want one row [9 z]", rows)
	}
}
