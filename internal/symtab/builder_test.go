package symtab_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/diag"
	"github.com/GouruRK/compilation/internal/lexer"
	"github.com/GouruRK/compilation/internal/parser"
	"github.com/GouruRK/compilation/internal/symtab"
)

func build(t *testing.T, src string) (*symtab.Table, *symtab.FunctionCollection, *diag.Sink) {
	t.Helper()
	toks := lexer.New(src).Tokenize()
	p := parser.New(toks)
	tree := p.ParseProgram()
	require.Empty(t, p.Errors())

	sink := diag.NewSink("t.tpc")
	sink.SetOutput(&bytes.Buffer{})
	globals, funcs := symtab.NewBuilder(sink).Build(tree)
	return globals, funcs, sink
}

func TestBuilderRegistersMainAndLocals(t *testing.T) {
	globals, funcs, sink := build(t, "int main() { int x; x = 1; return x; }")
	assert.Equal(t, 0, globals.Len())

	main, ok := funcs.Find("main")
	require.True(t, ok)
	assert.Equal(t, 1, main.Locals.Len())
	assert.False(t, sink.FatalError())
}

func TestBuilderReportsAlreadyDeclaredGlobal(t *testing.T) {
	_, _, sink := build(t, "int g; int g; int main() { return 0; }")
	assert.True(t, sink.FatalError())
}

func TestBuilderReportsUnusedGlobal(t *testing.T) {
	_, _, sink := build(t, "int g; int main() { return 0; }")
	assert.Equal(t, 1, sink.NoteCount())
}

func TestBuilderMarksUsedGlobalVariable(t *testing.T) {
	globals, _, sink := build(t, "int g;\nint main() { g = 1; return g; }")
	e, ok := globals.Find("g")
	require.True(t, ok)
	assert.True(t, e.Used)
	assert.Equal(t, 0, sink.NoteCount())
}

func TestBuilderMarksParameterUnused(t *testing.T) {
	_, funcs, sink := build(t, "int f(int a) { return 0; } int main() { return f(1); }")
	f, ok := funcs.Find("f")
	require.True(t, ok)
	p := f.Parameters.EntryAt(0)
	assert.False(t, p.Used)
	assert.Greater(t, sink.NoteCount(), 0)
}

func TestBuilderRejectsRedefinitionOfBuiltin(t *testing.T) {
	_, _, sink := build(t, "int getint() { return 0; } int main() { return 0; }")
	assert.True(t, sink.FatalError())
}

func TestBuilderLocalShadowsGlobalWithoutError(t *testing.T) {
	_, funcs, sink := build(t, "int x; int main() { int x; x = 1; return x; }")
	main, ok := funcs.Find("main")
	require.True(t, ok)
	assert.Equal(t, 1, main.Locals.Len())
	assert.False(t, sink.FatalError())
}

func TestBuilderRejectsZeroLengthArray(t *testing.T) {
	_, _, sink := build(t, "int a[0]; int main() { return 0; }")
	assert.True(t, sink.FatalError())
}

func TestBuilderDoesNotCountDeclarationAsUse(t *testing.T) {
	globals, _, sink := build(t, "int g; int main() { return 0; }")
	e, _ := globals.Find("g")
	assert.False(t, e.Used)
	assert.Equal(t, 1, sink.NoteCount())
}
