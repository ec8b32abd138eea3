// Package session ties one compilation together: it owns the
// diagnostic sink, the source filename, the tree, and the symbol tables
// as fields on a value the caller constructs once per compilation,
// rather than as process-wide state. The output writer is passed to
// Generate/Run, and the label counter lives on the codegen.CodeGen that
// Generate creates. This makes the compiler safe to drive concurrently
// or from tests without a reset step.
package session

import (
	"fmt"
	"io"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/codegen"
	"github.com/GouruRK/compilation/internal/diag"
	"github.com/GouruRK/compilation/internal/lexer"
	"github.com/GouruRK/compilation/internal/parser"
	"github.com/GouruRK/compilation/internal/sema"
	"github.com/GouruRK/compilation/internal/symtab"
)

// Exit codes reported by the tpc command.
const (
	ExitOK           = 0
	ExitParseError   = 1
	ExitCompileError = 2
	ExitOtherError   = 3
)

// Session drives one source file through the full pipeline: lex,
// parse, build the symbol table, check, and — if nothing fatal
// happened — generate code.
type Session struct {
	Filename string
	Sink     *diag.Sink

	Tree    *ast.Node
	Globals *symtab.Table
	Funcs   *symtab.FunctionCollection
}

// New creates a Session for filename, wiring a fresh sink to it.
func New(filename string) *Session {
	return &Session{Filename: filename, Sink: diag.NewSink(filename)}
}

// Parse lexes and parses src, stopping the pipeline early (exit 1) on a
// syntax error — the builder and checker both assume a well-formed
// tree and are never run otherwise.
func (s *Session) Parse(src []byte) (ok bool) {
	lx := lexer.New(string(src))
	toks := lx.Tokenize()
	p := parser.New(toks)
	tree := p.ParseProgram()
	errs := append(lx.Errors(), p.Errors()...)
	for _, err := range errs {
		s.Sink.Custom(diag.Error, 0, 0, "%s", err)
	}
	if len(errs) > 0 {
		return false
	}
	s.Tree = tree
	return true
}

// BuildAndCheck runs the symbol-table builder and, if it left nothing
// fatal, the semantic checker.
func (s *Session) BuildAndCheck() {
	builder := symtab.NewBuilder(s.Sink)
	s.Globals, s.Funcs = builder.Build(s.Tree)
	if s.Sink.FatalError() {
		return
	}
	sema.Check(s.Globals, s.Funcs, s.Sink)
}

// Generate writes NASM assembly for the checked program to w. Callers
// must not call this after a fatal diagnostic — Run enforces that
// ordering.
func (s *Session) Generate(w io.Writer) error {
	return codegen.New(w, s.Globals, s.Funcs).Generate(s.Tree)
}

// Run executes the full pipeline against src and, on success, writes
// assembly to w. It returns the process exit code assigned to each
// outcome.
func (s *Session) Run(src []byte, w io.Writer) int {
	if !s.Parse(src) {
		return ExitParseError
	}
	s.BuildAndCheck()
	if s.Sink.FatalError() {
		return ExitCompileError
	}
	if err := s.Generate(w); err != nil {
		fmt.Fprintf(w, "; internal error: %s\n", err)
		return ExitOtherError
	}
	return ExitOK
}
