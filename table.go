package matidb

// TableHeap is the append-only page chain backing one table: insert walks
// the chain from root_page_id looking for room, scan walks it yielding
// rows in insertion order (spec.md §4.5).
type TableHeap struct {
	pool       *BufferPool
	schema     Schema
	rootPageID PageID
}

// NewTableHeap allocates the first page of a brand-new table's chain and
// returns a heap rooted there. The returned root page id is stable for the
// table's lifetime and belongs in the catalog entry.
func NewTableHeap(pool *BufferPool, schema Schema) (*TableHeap, error) {
	id, _, err := pool.NewPage()
	if err != nil {
		return nil, err
	}
	pool.Unpin(id, true)

	return &TableHeap{pool: pool, schema: schema, rootPageID: id}, nil
}

// OpenTableHeap wraps an existing chain rooted at rootPageID.
func OpenTableHeap(pool *BufferPool, schema Schema, rootPageID PageID) *TableHeap {
	return &TableHeap{pool: pool, schema: schema, rootPageID: rootPageID}
}

// RootPageID returns the chain's root page id.
func (h *TableHeap) RootPageID() PageID {
	return h.rootPageID
}

// Insert encodes row and appends it to the first page in the chain that
// has room, allocating and linking a new tail page if none does.
func (h *TableHeap) Insert(row Row) error {
	payload, err := EncodeRow(row)
	if err != nil {
		return err
	}

	id := h.rootPageID
	for {
		frame, err := h.pool.FetchPage(id)
		if err != nil {
			return err
		}
		page := frame.PagePtr()

		if page.CanFit(len(payload)) {
			page.Insert(payload)
			h.pool.Unpin(id, true)
			return nil
		}

		next := page.NextPageID()
		if next != NoPage {
			h.pool.Unpin(id, false)
			id = next
			continue
		}

		// tail page is full: allocate a new page and link it in before
		// inserting, so the chain never has a reachable-but-unlinked page.
		newID, newFrame, err := h.pool.NewPage()
		if err != nil {
			h.pool.Unpin(id, false)
			return err
		}

		page.SetNextPageID(newID)
		h.pool.Unpin(id, true)

		newFrame.PagePtr().Insert(payload)
		h.pool.Unpin(newID, true)
		return nil
	}
}

// Scan walks the chain from root_page_id in order, decoding every live
// tuple and calling yield with it. It stops and returns the first error
// yield returns, or ErrCorruptTuple if a payload fails to decode.
func (h *TableHeap) Scan(yield func(Row) error) error {
	id := h.rootPageID
	for id != NoPage {
		frame, err := h.pool.FetchPage(id)
		if err != nil {
			return err
		}
		page := frame.PagePtr()

		var iterErr error
		page.Iter(func(_ uint16, payload []byte) bool {
			row, err := DecodeRow(payload, &h.schema)
			if err != nil {
				iterErr = err
				return false
			}
			if err := yield(row); err != nil {
				iterErr = err
				return false
			}
			return true
		})

		next := page.NextPageID()
		h.pool.Unpin(id, false)

		if iterErr != nil {
			return iterErr
		}
		id = next
	}

	return nil
}
