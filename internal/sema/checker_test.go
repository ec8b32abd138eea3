package sema_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/diag"
	"github.com/GouruRK/compilation/internal/lexer"
	"github.com/GouruRK/compilation/internal/parser"
	"github.com/GouruRK/compilation/internal/sema"
	"github.com/GouruRK/compilation/internal/symtab"
)

func check(t *testing.T, src string) (*ast.Node, *diag.Sink) {
	t.Helper()
	toks := lexer.New(src).Tokenize()
	p := parser.New(toks)
	tree := p.ParseProgram()
	require.Empty(t, p.Errors())

	sink := diag.NewSink("t.tpc")
	sink.SetOutput(&bytes.Buffer{})
	globals, funcs := symtab.NewBuilder(sink).Build(tree)
	if !sink.FatalError() {
		sema.Check(globals, funcs, sink)
	}
	return tree, sink
}

func TestCheckMinimalProgramIsClean(t *testing.T) {
	_, sink := check(t, "int main() { return 0; }")
	assert.Equal(t, 0, sink.ErrorCount())
}

func TestCheckMissingMainReportsError(t *testing.T) {
	_, sink := check(t, "int f() { return 0; }")
	assert.True(t, sink.FatalError())
}

func TestCheckMainMustReturnInt(t *testing.T) {
	_, sink := check(t, "void main() { return; }")
	assert.True(t, sink.FatalError())
}

func TestCheckMainMustTakeNoParameters(t *testing.T) {
	_, sink := check(t, "int main(int a) { return 0; }")
	assert.True(t, sink.FatalError())
}

func TestCheckWideningIntFromCharIsSilent(t *testing.T) {
	_, sink := check(t, "int main() { int x; x = 'a'; return x; }")
	assert.Equal(t, 0, sink.ErrorCount())
	assert.Equal(t, 0, sink.WarningCount())
}

func TestCheckNarrowingCharFromIntWarns(t *testing.T) {
	_, sink := check(t, "int main() { char c; c = 1000; return 0; }")
	assert.Equal(t, 0, sink.ErrorCount())
	assert.Equal(t, 1, sink.WarningCount())
}

func TestCheckNarrowingReturnWarns(t *testing.T) {
	_, sink := check(t, "char f() { return 1000; } int main() { f(); return 0; }")
	assert.Equal(t, 0, sink.ErrorCount())
	assert.GreaterOrEqual(t, sink.WarningCount(), 1)
}

func TestCheckVoidReturnValueIsError(t *testing.T) {
	_, sink := check(t, "void f() { return 1; } int main() { f(); return 0; }")
	assert.True(t, sink.FatalError())
}

func TestCheckInvalidConditionType(t *testing.T) {
	_, sink := check(t, "int a[3]; int main() { if (a) return 0; return 1; }")
	assert.True(t, sink.FatalError())
}

func TestCheckArrayParameterCall(t *testing.T) {
	_, sink := check(t, "int sum(int a[], int n) { return n; } int main() { int xs[4]; return sum(xs, 4); }")
	assert.Equal(t, 0, sink.ErrorCount())
}

func TestCheckArrayParameterMismatchIsError(t *testing.T) {
	_, sink := check(t, "int sum(int a[], int n) { return n; } int main() { int xs; return sum(xs, 4); }")
	assert.True(t, sink.FatalError())
}

func TestCheckIncorrectFunctionCallArity(t *testing.T) {
	_, sink := check(t, "int f(int a) { return a; } int main() { return f(1, 2); }")
	assert.True(t, sink.FatalError())
}

func TestCheckUseOfUndeclaredSymbol(t *testing.T) {
	_, sink := check(t, "int main() { return unknown; }")
	assert.True(t, sink.FatalError())
}

func TestCheckFunctionUsedAsVariableIsError(t *testing.T) {
	_, sink := check(t, "int f() { return 0; } int main() { return f; }")
	assert.True(t, sink.FatalError())
}

func TestCheckDecoratesExpressionTypes(t *testing.T) {
	tree, sink := check(t, "int main() { return 1 + 2; }")
	require.Equal(t, 0, sink.ErrorCount())

	suite := tree.Child(1).Child(0).Child(1).Child(1)
	ret := suite.Child(0).FirstChild
	exp := ret.Child(0)
	assert.NotEqual(t, 0, int(exp.Type))
}
