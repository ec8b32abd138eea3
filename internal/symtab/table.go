// Package symtab implements the symbol-table structures for globals,
// functions, parameters, and locals: a growable Table of Entry values
// with cumulative byte counts, a parameter-frame offset, and an
// optional sorted flag; a FunctionCollection seeded with the four
// builtin I/O routines; and the single-walk Builder that populates both
// from an AST.
package symtab

import (
	"sort"

	"github.com/GouruRK/compilation/internal/types"
)

// DefaultLength is the initial capacity new tables are sized for.
const DefaultLength = 10

// CallOffset is the constant 16 bytes skipped over saved rbp and the
// return address when addressing stack-passed parameters (position 7+).
const CallOffset = 16

// Entry is one row of a variable symbol table.
type Entry struct {
	Name    string
	Line    int
	Col     int
	Size    int
	Type    types.Tag
	Address int
	Used    bool
}

// Table is a growable, optionally-sorted collection of Entry values.
type Table struct {
	entries    []Entry
	TotalBytes int
	Offset     int // parameter-frame offset; meaningful only for a parameters table
	sorted     bool
}

// NewTable creates an empty table with the default starting capacity
// reservation.
func NewTable() *Table {
	return &Table{entries: make([]Entry, 0, DefaultLength)}
}

// Len reports the number of entries currently stored.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the stored entries in insertion (or, once Sort has
// been called, lexicographic) order.
func (t *Table) Entries() []Entry { return t.entries }

// EntryAt returns a pointer into the backing array so callers can read
// or mutate the entry in place.
func (t *Table) EntryAt(i int) *Entry { return &t.entries[i] }

// Find returns the first entry named name, or (nil, false). Uses binary
// search once the table has been sorted, linear scan otherwise — the
// table only ever grows via Insert before Sort is called, then stays
// read-only.
func (t *Table) Find(name string) (*Entry, bool) {
	if t.sorted {
		i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Name >= name })
		if i < len(t.entries) && t.entries[i].Name == name {
			return &t.entries[i], true
		}
		return nil, false
	}
	for i := range t.entries {
		if t.entries[i].Name == name {
			return &t.entries[i], true
		}
	}
	return nil, false
}

// Sort orders entries lexicographically by name, enabling Find's binary
// search. Sorting twice is idempotent.
func (t *Table) Sort() {
	sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].Name < t.entries[j].Name })
	t.sorted = true
}

// Sorted reports whether Sort has been called.
func (t *Table) Sorted() bool { return t.sorted }

// Insert adds a non-parameter entry (global or local). Its address is
// the table's running total_bytes, which is then bumped by size. Returns
// the prior entry's line if name already exists (caller reports
// already_declared_error), and false.
func (t *Table) Insert(name string, line, col, size int, typ types.Tag) (*Entry, int, bool) {
	if existing, ok := t.Find(name); ok {
		return nil, existing.Line, false
	}
	e := Entry{
		Name:    name,
		Line:    line,
		Col:     col,
		Size:    size,
		Type:    typ,
		Address: t.TotalBytes,
	}
	t.entries = append(t.entries, e)
	t.TotalBytes += size
	return &t.entries[len(t.entries)-1], 0, true
}

// InsertParameter adds a parameter entry, addressed per the System V
// AMD64 ABI: parameters 0..5 sit below rbp at offset+size (pushed in
// the prologue); parameter 6 sits at the fixed CallOffset; parameters
// 7+ sit at the previous parameter's address plus its size.
func (t *Table) InsertParameter(name string, line, col, size int, typ types.Tag) (*Entry, int, bool) {
	if existing, ok := t.Find(name); ok {
		return nil, existing.Line, false
	}
	idx := len(t.entries)
	var address int
	switch {
	case idx < 6:
		t.Offset += size
		address = t.Offset
	case idx == 6:
		address = CallOffset
	default:
		prev := t.entries[idx-1]
		address = prev.Address + prev.Size
	}
	e := Entry{Name: name, Line: line, Col: col, Size: size, Type: typ, Address: address}
	t.entries = append(t.entries, e)
	t.TotalBytes += size
	return &t.entries[len(t.entries)-1], 0, true
}
