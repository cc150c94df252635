// Package history keeps bounded linear undo/redo snapshots per text field.
package history

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultLimit caps snapshots per field so large pasted texts stay bounded.
const DefaultLimit = 200

// Buffer is a linear snapshot history with a cursor.
// The current value is always snapshots[cursor].
type Buffer struct {
	mu        sync.RWMutex
	limit     int
	snapshots []string
	cursor    int
}

// NewBuffer creates a history holding only initial.
func NewBuffer(initial string, limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Buffer{
		limit:     limit,
		snapshots: []string{initial},
	}
}

// Push drops any redo tail, appends value, and moves the cursor to it.
// When the limit is exceeded the oldest snapshot is evicted.
func (b *Buffer) Push(value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshots = append(b.snapshots[:b.cursor+1], value)
	if over := len(b.snapshots) - b.limit; over > 0 {
		b.snapshots = append([]string(nil), b.snapshots[over:]...)
	}
	b.cursor = len(b.snapshots) - 1
}

// Undo steps back one snapshot and returns the value there.
// At the oldest snapshot it returns the current value unchanged.
func (b *Buffer) Undo() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cursor > 0 {
		b.cursor--
	}
	return b.snapshots[b.cursor]
}

// Redo steps forward one snapshot and returns the value there.
// At the newest snapshot it returns the current value unchanged.
func (b *Buffer) Redo() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cursor < len(b.snapshots)-1 {
		b.cursor++
	}
	return b.snapshots[b.cursor]
}

// Reset replaces the whole history with a single snapshot.
func (b *Buffer) Reset(initial string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshots = []string{initial}
	b.cursor = 0
}

// SetLimit changes the cap, evicting oldest snapshots if needed.
func (b *Buffer) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.limit = limit
	if over := len(b.snapshots) - limit; over > 0 {
		b.snapshots = append([]string(nil), b.snapshots[over:]...)
		b.cursor -= over
		if b.cursor < 0 {
			b.cursor = 0
		}
	}
}

// Current returns the value at the cursor.
func (b *Buffer) Current() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshots[b.cursor]
}

// State returns a UI-facing snapshot of the buffer.
func (b *Buffer) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return State{
		Value:   b.snapshots[b.cursor],
		CanUndo: b.cursor > 0,
		CanRedo: b.cursor < len(b.snapshots)-1,
		Depth:   len(b.snapshots),
	}
}

// State describes one field's history for the presentation layer.
type State struct {
	Value   string `json:"value"`
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
	Depth   int    `json:"depth"`
}

// Fields owns one Buffer per named input field.
type Fields struct {
	mu      sync.Mutex
	buffers map[string]*Buffer
}

// NewFields registers the given field names, each starting at "".
func NewFields(limit int, names ...string) *Fields {
	f := &Fields{buffers: make(map[string]*Buffer, len(names))}
	for _, name := range names {
		f.buffers[name] = NewBuffer("", limit)
	}
	return f
}

// Get returns the buffer for a registered field.
func (f *Fields) Get(name string) (*Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.buffers[name]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	return b, nil
}

// ResetAll returns every field to a single empty snapshot.
func (f *Fields) ResetAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.buffers {
		b.Reset("")
	}
}

// SetLimit applies a new cap to every field.
func (f *Fields) SetLimit(limit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.buffers {
		b.SetLimit(limit)
	}
}

// Names lists registered fields in sorted order.
func (f *Fields) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.buffers))
	for name := range f.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
