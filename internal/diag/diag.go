// Package diag implements the compiler's diagnostic sink: an append-only
// stream of severity-tagged messages, flushed immediately to stderr, that
// gates whether later compiler passes run.
//
// The sink carries a closed set of message factories, one method per
// message kind, so every diagnostic in the compiler has fixed wording
// and a single call site to audit.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Severity classifies a diagnostic. Error is fatal; Warning and Note are
// never fatal but are still printed.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "?"
	}
}

var severityColor = map[Severity]*color.Color{
	Error:   color.New(color.FgRed, color.Bold),
	Warning: color.New(color.FgYellow, color.Bold),
	Note:    color.New(color.FgCyan, color.Bold),
}

// Diagnostic is one emitted message.
type Diagnostic struct {
	Severity Severity
	Line     int // 0 means "no location"
	Col      int
	Message  string
}

// Sink is the compiler's diagnostic stream. It is created once per
// compilation and threaded through the session rather than kept as a
// package global.
type Sink struct {
	out      io.Writer
	filename string
	colorize bool

	diagnostics []Diagnostic
	errorCount  int
	warnCount   int
	noteCount   int
}

// NewSink implements init(source_filename): it records the file path and
// zeroes the per-severity counters.
func NewSink(filename string) *Sink {
	return &Sink{
		out:      os.Stderr,
		filename: filename,
		colorize: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// SetOutput overrides the writer the sink flushes to. Used by tests.
func (s *Sink) SetOutput(w io.Writer) { s.out = w }

// FatalError returns true iff the error counter is nonzero.
func (s *Sink) FatalError() bool { return s.errorCount > 0 }

func (s *Sink) ErrorCount() int   { return s.errorCount }
func (s *Sink) WarningCount() int { return s.warnCount }
func (s *Sink) NoteCount() int    { return s.noteCount }

// Diagnostics returns every diagnostic emitted so far, in emission order.
func (s *Sink) Diagnostics() []Diagnostic { return s.diagnostics }

// emit records and immediately flushes one diagnostic in
// "file:line:col severity: message" format, or "file: severity: message"
// when no location is known.
func (s *Sink) emit(sev Severity, line, col int, msg string) {
	d := Diagnostic{Severity: sev, Line: line, Col: col, Message: msg}
	s.diagnostics = append(s.diagnostics, d)

	switch sev {
	case Error:
		s.errorCount++
	case Warning:
		s.warnCount++
	case Note:
		s.noteCount++
	}

	sevToken := sev.String()
	if s.colorize {
		sevToken = severityColor[sev].Sprint(sevToken)
	}

	if line > 0 {
		fmt.Fprintf(s.out, "%s:%d:%d %s: %s\n", s.filename, line, col, sevToken, msg)
	} else {
		fmt.Fprintf(s.out, "%s: %s: %s\n", s.filename, sevToken, msg)
	}
}

// Custom emits a free-form diagnostic at the given severity.
func (s *Sink) Custom(sev Severity, line, col int, format string, args ...interface{}) {
	s.emit(sev, line, col, fmt.Sprintf(format, args...))
}

// MemoryError reports an allocation failure (system error, fatal).
func (s *Sink) MemoryError() {
	s.emit(Error, 0, 0, "memory error")
}

// AlreadyDeclared reports a redeclaration, carrying the prior line.
func (s *Sink) AlreadyDeclared(line, col int, name string, priorLine int) {
	s.emit(Error, line, col, fmt.Sprintf("'%s' already declared at line %d", name, priorLine))
}

// UseOfUndeclaredSymbol reports a reference to a name bound to neither a
// variable nor a function.
func (s *Sink) UseOfUndeclaredSymbol(line, col int, name string) {
	s.emit(Error, line, col, fmt.Sprintf("use of undeclared symbol '%s'", name))
}

// UnusedSymbol reports a globally-unused symbol (note).
func (s *Sink) UnusedSymbol(line, col int, name string) {
	s.emit(Note, line, col, fmt.Sprintf("unused symbol: '%s'", name))
}

// UnusedSymbolInFunction reports an unused parameter/local (note).
func (s *Sink) UnusedSymbolInFunction(line, col int, name, fn string) {
	s.emit(Note, line, col, fmt.Sprintf("unused symbol '%s' in function '%s'", name, fn))
}

// WrongReturnType reports expected/got mismatch on a return statement.
func (s *Sink) WrongReturnType(line, col int, expected, got string) {
	s.emit(Error, line, col, fmt.Sprintf("wrong return type: expected %s got %s", expected, got))
}

// NarrowingReturn reports an int value returned from a char function
// (a warning, like the narrowing assignment case).
func (s *Sink) NarrowingReturn(line, col int) {
	s.emit(Warning, line, col, "returning int as char narrows the value")
}

// VoidReturnValue reports a value returned from a void function.
func (s *Sink) VoidReturnValue(line, col int) {
	s.emit(Error, line, col, "void expression not allowed in return")
}

// InvalidAssignment reports dest/source type mismatch on assignment.
func (s *Sink) InvalidAssignment(line, col int, dest, src string) {
	s.emit(Error, line, col, fmt.Sprintf("invalid assignment: %s <- %s", dest, src))
}

// NarrowingAssignment reports the char <- int narrowing warning.
func (s *Sink) NarrowingAssignment(line, col int) {
	s.emit(Warning, line, col, "assigning int to char narrows the value")
}

// RedefinitionOfBuiltin reports an attempt to redeclare a builtin function.
func (s *Sink) RedefinitionOfBuiltin(line, col int, name string) {
	s.emit(Error, line, col, fmt.Sprintf("redefinition of builtin function '%s'", name))
}

// IncorrectArrayAccess reports an index applied to a non-array, or a
// non-scalar index expression.
func (s *Sink) IncorrectArrayAccess(line, col int, name string) {
	s.emit(Error, line, col, fmt.Sprintf("incorrect array access on '%s'", name))
}

// InvalidOperation reports a non-arithmetic operand to an arithmetic op.
func (s *Sink) InvalidOperation(line, col int, typ string) {
	s.emit(Error, line, col, fmt.Sprintf("invalid operation on type %s", typ))
}

// InvalidCondition reports a non-scalar if/while condition.
func (s *Sink) InvalidCondition(line, col int) {
	s.emit(Error, line, col, "invalid condition")
}

// IncorrectFunctionCall reports arity mismatch or unresolved callee.
func (s *Sink) IncorrectFunctionCall(line, col int, name string) {
	s.emit(Error, line, col, fmt.Sprintf("incorrect function call to '%s'", name))
}

// MaybeUndeclaredFunction reports a call-position identifier that
// resolves to no function; downgraded to a warning so the semantic
// phase can report it properly if it turns out to matter.
func (s *Sink) MaybeUndeclaredFunction(line, col int, name string) {
	s.emit(Warning, line, col, fmt.Sprintf("call to possibly undeclared function '%s'", name))
}

// InvalidParameterType reports a formal/actual type mismatch.
func (s *Sink) InvalidParameterType(line, col int, pos int, expected, got string) {
	s.emit(Error, line, col, fmt.Sprintf("invalid type for parameter %d: expected %s got %s", pos, expected, got))
}

// NarrowingParameter reports the formal-char/actual-int warning case.
func (s *Sink) NarrowingParameter(line, col int, pos int) {
	s.emit(Warning, line, col, fmt.Sprintf("parameter %d narrows int to char", pos))
}

// IncorrectSymbolUse reports a variable used as a function or vice versa.
func (s *Sink) IncorrectSymbolUse(line, col int, name, expected, got string) {
	s.emit(Error, line, col, fmt.Sprintf("incorrect use of '%s': is %s, used as %s", name, expected, got))
}

// IncorrectArrayDecl reports a zero-length array declaration.
func (s *Sink) IncorrectArrayDecl(line, col int, name string) {
	s.emit(Error, line, col, fmt.Sprintf("incorrect array declaration: '%s' has size zero", name))
}

// NoStartFunction reports a missing main entry point.
func (s *Sink) NoStartFunction() {
	s.emit(Error, 0, 0, "no start function found")
}

// MainMustReturnInt reports a main whose return type is not int.
func (s *Sink) MainMustReturnInt(line, col int) {
	s.emit(Error, line, col, "'main' must return int")
}

// MainMustTakeNoParameters reports a main declared with parameters.
func (s *Sink) MainMustTakeNoParameters(line, col int) {
	s.emit(Error, line, col, "'main' must declare no parameters")
}
