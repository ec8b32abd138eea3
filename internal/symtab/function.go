package symtab

import (
	"sort"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/types"
)

// localsGap is the reserved byte gap so no local ever lives at [rbp].
const localsGap = 8

// Function is one row of the function collection; it owns its parameter
// and locals tables.
type Function struct {
	Name       string
	Line       int
	Col        int
	ReturnType types.Tag
	Used       bool
	Parameters *Table
	Locals     *Table

	// Body is the function's Corps subtree, kept for the semantic
	// checker's type-decoration walk and the code generator's emission
	// walk (both run after the symbol table is complete).
	Body *ast.Node
}

// NewFunction allocates a Function with an empty parameters table and a
// locals table seeded with localsGap.
func NewFunction(name string, line, col int, ret types.Tag) *Function {
	locals := NewTable()
	locals.TotalBytes = localsGap
	return &Function{
		Name:       name,
		Line:       line,
		Col:        col,
		ReturnType: ret,
		Parameters: NewTable(),
		Locals:     locals,
	}
}

// FunctionCollection is a Table-like growable array of Function values,
// pre-seeded with the four builtin I/O routines.
type FunctionCollection struct {
	funcs  []*Function
	sorted bool
}

// builtinLine is the synthetic declaration location builtins carry.
const builtinLine = -1

// NewFunctionCollection creates a collection pre-seeded with getint,
// putint, getchar, and putchar, each marked unused and declared at
// (-1, -1).
func NewFunctionCollection() *FunctionCollection {
	fc := &FunctionCollection{funcs: make([]*Function, 0, DefaultLength)}

	getint := NewFunction("getint", builtinLine, builtinLine, types.Int)
	putint := NewFunction("putint", builtinLine, builtinLine, types.Void)
	putint.Parameters.InsertParameter("value", builtinLine, builtinLine, types.ScalarSize, types.Int)
	getchar := NewFunction("getchar", builtinLine, builtinLine, types.Char)
	putchar := NewFunction("putchar", builtinLine, builtinLine, types.Void)
	putchar.Parameters.InsertParameter("value", builtinLine, builtinLine, types.ScalarSize, types.Char)

	fc.funcs = append(fc.funcs, getint, putint, getchar, putchar)
	return fc
}

// IsBuiltinName reports whether name is one of the four pre-seeded
// builtin I/O routines.
func IsBuiltinName(name string) bool {
	switch name {
	case "getint", "putint", "getchar", "putchar":
		return true
	}
	return false
}

// Len reports the number of functions stored.
func (fc *FunctionCollection) Len() int { return len(fc.funcs) }

// Funcs returns the stored functions in insertion (or, once Sort has
// been called, lexicographic) order.
func (fc *FunctionCollection) Funcs() []*Function { return fc.funcs }

// Find returns the function named name, or (nil, false).
func (fc *FunctionCollection) Find(name string) (*Function, bool) {
	if fc.sorted {
		i := sort.Search(len(fc.funcs), func(i int) bool { return fc.funcs[i].Name >= name })
		if i < len(fc.funcs) && fc.funcs[i].Name == name {
			return fc.funcs[i], true
		}
		return nil, false
	}
	for _, f := range fc.funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Insert adds fn to the collection. Returns the prior function's line
// if name already exists (whether a builtin or a user function), and
// false.
func (fc *FunctionCollection) Insert(fn *Function) (int, bool) {
	if existing, ok := fc.Find(fn.Name); ok {
		return existing.Line, false
	}
	fc.funcs = append(fc.funcs, fn)
	return 0, true
}

// Sort orders functions lexicographically by name, enabling Find's
// binary search. Sorting twice is idempotent.
func (fc *FunctionCollection) Sort() {
	sort.Slice(fc.funcs, func(i, j int) bool { return fc.funcs[i].Name < fc.funcs[j].Name })
	fc.sorted = true
}

// Sorted reports whether Sort has been called.
func (fc *FunctionCollection) Sorted() bool { return fc.sorted }
