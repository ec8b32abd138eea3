package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/symtab"
	"github.com/GouruRK/compilation/internal/types"
)

func TestInsertAccumulatesTotalBytes(t *testing.T) {
	tbl := symtab.NewTable()
	_, _, ok := tbl.Insert("a", 1, 1, types.ScalarSize, types.Int)
	require.True(t, ok)
	_, _, ok = tbl.Insert("b", 2, 1, types.ScalarSize, types.Int)
	require.True(t, ok)

	assert.Equal(t, 16, tbl.TotalBytes)
	assert.Equal(t, 0, mustFind(t, tbl, "a").Address)
	assert.Equal(t, 8, mustFind(t, tbl, "b").Address)
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	tbl := symtab.NewTable()
	tbl.Insert("a", 1, 1, types.ScalarSize, types.Int)
	_, priorLine, ok := tbl.Insert("a", 5, 1, types.ScalarSize, types.Int)
	assert.False(t, ok)
	assert.Equal(t, 1, priorLine)
}

func TestSortIsIdempotentAndEnablesFind(t *testing.T) {
	tbl := symtab.NewTable()
	tbl.Insert("z", 1, 1, types.ScalarSize, types.Int)
	tbl.Insert("a", 2, 1, types.ScalarSize, types.Int)

	tbl.Sort()
	first := append([]symtab.Entry{}, tbl.Entries()...)
	tbl.Sort()
	second := tbl.Entries()

	assert.Equal(t, first, second)
	assert.Equal(t, "a", tbl.Entries()[0].Name)
	_, ok := tbl.Find("z")
	assert.True(t, ok)
}

func TestInsertParameterAddressing(t *testing.T) {
	tbl := symtab.NewTable()
	for i := 0; i < 8; i++ {
		name := string(rune('a' + i))
		tbl.InsertParameter(name, 1, 1, types.ScalarSize, types.Int)
	}
	entries := tbl.Entries()

	// params 0..5: cumulative offset below rbp
	assert.Equal(t, 8, entries[0].Address)
	assert.Equal(t, 48, entries[5].Address)
	// param 6: fixed CallOffset
	assert.Equal(t, symtab.CallOffset, entries[6].Address)
	// param 7: previous address + previous size
	assert.Equal(t, entries[6].Address+entries[6].Size, entries[7].Address)
}

func TestInsertParameterRejectsDuplicateName(t *testing.T) {
	tbl := symtab.NewTable()
	tbl.InsertParameter("x", 1, 1, types.ScalarSize, types.Int)
	_, priorLine, ok := tbl.InsertParameter("x", 9, 1, types.ScalarSize, types.Int)
	assert.False(t, ok)
	assert.Equal(t, 1, priorLine)
}

func mustFind(t *testing.T, tbl *symtab.Table, name string) *symtab.Entry {
	t.Helper()
	e, ok := tbl.Find(name)
	require.True(t, ok)
	return e
}
