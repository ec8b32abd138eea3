package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/symtab"
	"github.com/GouruRK/compilation/internal/types"
)

func TestFindEntryPrefersParameterOverGlobal(t *testing.T) {
	globals := symtab.NewTable()
	globals.Insert("x", 1, 1, types.ScalarSize, types.Char)

	fn := symtab.NewFunction("f", 1, 1, types.Void)
	fn.Parameters.InsertParameter("x", 1, 1, types.ScalarSize, types.Int)

	e, ok := symtab.FindEntry(globals, fn, "x")
	require.True(t, ok)
	assert.Equal(t, types.Int, e.Type)
}

func TestFindEntryPrefersLocalOverGlobal(t *testing.T) {
	globals := symtab.NewTable()
	globals.Insert("y", 1, 1, types.ScalarSize, types.Char)

	fn := symtab.NewFunction("f", 1, 1, types.Void)
	fn.Locals.Insert("y", 2, 1, types.ScalarSize, types.Int)

	e, ok := symtab.FindEntry(globals, fn, "y")
	require.True(t, ok)
	assert.Equal(t, types.Int, e.Type)
}

func TestFindEntryFallsBackToGlobal(t *testing.T) {
	globals := symtab.NewTable()
	globals.Insert("z", 1, 1, types.ScalarSize, types.Int)
	fn := symtab.NewFunction("f", 1, 1, types.Void)

	e, ok := symtab.FindEntry(globals, fn, "z")
	require.True(t, ok)
	assert.Equal(t, types.Int, e.Type)
}

func TestFindEntryMissingReturnsFalse(t *testing.T) {
	globals := symtab.NewTable()
	fn := symtab.NewFunction("f", 1, 1, types.Void)
	_, ok := symtab.FindEntry(globals, fn, "nope")
	assert.False(t, ok)
}

func TestFindEntryWithNilFunction(t *testing.T) {
	globals := symtab.NewTable()
	globals.Insert("g", 1, 1, types.ScalarSize, types.Int)
	e, ok := symtab.FindEntry(globals, nil, "g")
	require.True(t, ok)
	assert.Equal(t, "g", e.Name)
}
