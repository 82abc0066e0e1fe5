package selector

import (
	"sync"
)

// Cursors holds the authoritative sequence cursor of each operation. Updates to
// one operation's cursor are serialized; different operations do not contend.
type Cursors struct {
	mu    sync.Mutex
	cells map[string]*cursorCell
}

type cursorCell struct {
	mu     sync.Mutex
	value  int
	loaded bool
}

// NewCursors creates an empty cursor table
func NewCursors() *Cursors {
	return &Cursors{cells: make(map[string]*cursorCell)}
}

func (c *Cursors) cell(operationID string) *cursorCell {
	c.mu.Lock()
	defer c.mu.Unlock()
	cell, ok := c.cells[operationID]
	if !ok {
		cell = &cursorCell{}
		c.cells[operationID] = cell
	}
	return cell
}

// Advance runs fn with the operation's current cursor while holding the
// operation's lock. seed initializes a cursor seen for the first time. When fn
// reports a change the returned value becomes the new cursor.
func (c *Cursors) Advance(operationID string, seed int, fn func(current int) (next int, changed bool, err error)) error {
	cell := c.cell(operationID)
	cell.mu.Lock()
	defer cell.mu.Unlock()

	if !cell.loaded {
		cell.value = seed
		cell.loaded = true
	}

	next, changed, err := fn(cell.value)
	if err != nil {
		return err
	}
	if changed {
		cell.value = next
	}
	return nil
}

// Current returns the in-memory cursor of an operation
func (c *Cursors) Current(operationID string) (int, bool) {
	cell := c.cell(operationID)
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.value, cell.loaded
}

// Reset forgets an operation's cursor so the next Advance reseeds it
func (c *Cursors) Reset(operationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cells, operationID)
}
