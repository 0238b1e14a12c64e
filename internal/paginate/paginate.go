// Package paginate emulates server-side pagination over collections the
// backing store can only deliver as whole snapshots. Callers filter the
// materialized collection first, then slice pages off it with a Cursor.
package paginate

import "sync"

// Cursor tracks offset bookkeeping for one collection. Offset only advances
// through Page; Begin/End guard against two overlapping loads.
type Cursor struct {
	mu      sync.Mutex
	limit   int
	offset  int
	hasMore bool
	total   int
	loading bool
}

// State is a point-in-time copy of a cursor for rendering.
type State struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
	Loading bool `json:"loading"`
}

func NewCursor(limit int) *Cursor {
	if limit <= 0 {
		limit = 50
	}
	return &Cursor{limit: limit, hasMore: true}
}

// Begin marks a load in flight. It returns false when a load is already
// running; the caller must skip the fetch entirely in that case.
func (c *Cursor) Begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return false
	}
	c.loading = true
	return true
}

func (c *Cursor) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

// Reset returns the cursor to its initial state without touching the limit.
// Used before a full reload, e.g. after a filter change.
func (c *Cursor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
	c.hasMore = true
	c.total = 0
}

// Complete records that the collection is fully materialized through total
// entries, e.g. after a realtime delivery replaced the loaded pages with the
// whole set. Further page loads are no-ops until Reset.
func (c *Cursor) Complete(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.offset = total
	c.hasMore = false
}

func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Limit: c.limit, Offset: c.offset, HasMore: c.hasMore, Total: c.total, Loading: c.loading}
}

// Page slices the next page off an already-filtered collection and advances
// the cursor. Total and HasMore reflect the filtered cardinality, so an empty
// or absent collection yields an empty page with HasMore false.
func Page[T any](items []T, c *Cursor) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(items)
	c.total = total

	start := c.offset
	if start > total {
		start = total
	}
	end := start + c.limit
	if end > total {
		end = total
	}

	c.hasMore = start+c.limit < total
	c.offset = end
	return items[start:end]
}
