// Package sema implements the semantic checker: a type-decorating walk
// over every function body that fills in ast.Node.Type and reports
// every rule violation through a diag.Sink, accumulating diagnostics
// rather than aborting on the first one.
package sema

import (
	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/diag"
	"github.com/GouruRK/compilation/internal/symtab"
	"github.com/GouruRK/compilation/internal/types"
)

// Checker walks one function body at a time, resolving identifiers
// against the symbol table already built by symtab.Builder.
type Checker struct {
	sink    *diag.Sink
	globals *symtab.Table
	funcs   *symtab.FunctionCollection
	curFunc *symtab.Function
}

// Check sorts the symbol table, validates the program's entry point,
// and — only if that left no fatal error — type-decorates every
// function body.
func Check(globals *symtab.Table, funcs *symtab.FunctionCollection, sink *diag.Sink) {
	globals.Sort()
	funcs.Sort()
	for _, fn := range funcs.Funcs() {
		fn.Locals.Sort()
	}

	checkMain(funcs, sink)
	if sink.FatalError() {
		return
	}

	c := &Checker{sink: sink, globals: globals, funcs: funcs}
	for _, fn := range funcs.Funcs() {
		if fn.Body == nil {
			continue // builtins carry no body
		}
		c.curFunc = fn
		if suite := fn.Body.Child(1); suite != nil {
			c.checkStmts(suite)
		}
	}
}

// checkMain requires that an entry point exist, return int, and
// declare no parameters.
func checkMain(funcs *symtab.FunctionCollection, sink *diag.Sink) {
	main, ok := funcs.Find("main")
	if !ok {
		sink.NoStartFunction()
		return
	}
	if !types.Equal(main.ReturnType, types.Int) {
		sink.MainMustReturnInt(main.Line, main.Col)
	}
	if main.Parameters.Len() > 0 {
		sink.MainMustTakeNoParameters(main.Line, main.Col)
	}
}

// scalarNumeric reports whether t is usable as an arithmetic/condition
// operand: an int or char, never an array (arrays must be indexed
// first) and never void.
func scalarNumeric(t types.Tag) bool {
	return types.IsScalar(t) && !types.IsVoid(t)
}

// checkStmts walks the Instr siblings of one SuiteInstr. A return
// statement stops further siblings in this block only — the check does
// not propagate past the enclosing block.
func (c *Checker) checkStmts(suite *ast.Node) {
	for instr := suite.FirstChild; instr != nil; instr = instr.NextSibling {
		c.checkInstr(instr)
		if inner := instr.FirstChild; inner != nil && inner.Label == ast.Return {
			break
		}
	}
}

// checkInstr dispatches on the Instr's single child. A failed sub-check
// aborts this statement's own substructure (e.g. an ill-typed if
// condition skips both branches) but never the rest of the block.
func (c *Checker) checkInstr(instr *ast.Node) bool {
	inner := instr.FirstChild
	if inner == nil {
		return true
	}
	switch inner.Label {
	case ast.If:
		return c.checkIf(inner)
	case ast.While:
		return c.checkWhile(inner)
	case ast.Return:
		return c.checkReturn(inner)
	case ast.Assignation:
		return c.checkAssignation(inner)
	case ast.Ident:
		return c.checkExpr(inner)
	case ast.SuiteInstr:
		c.checkStmts(inner)
		return true
	case ast.EmptyInstr:
		return true
	default:
		return true
	}
}

func (c *Checker) checkIf(n *ast.Node) bool {
	cond := n.Child(0)
	if !c.checkExpr(cond) || !scalarNumeric(cond.Type) {
		c.sink.InvalidCondition(cond.Line, cond.Col)
		return false
	}
	c.checkInstr(n.Child(1))
	if elseNode := n.Child(2); elseNode != nil {
		c.checkInstr(elseNode.Child(0))
	}
	return true
}

func (c *Checker) checkWhile(n *ast.Node) bool {
	cond := n.Child(0)
	if !c.checkExpr(cond) || !scalarNumeric(cond.Type) {
		c.sink.InvalidCondition(cond.Line, cond.Col)
		return false
	}
	c.checkInstr(n.Child(1))
	return true
}

// checkReturn validates a return statement against the enclosing
// function's declared type: returning an int value from a char
// function is accepted but flagged as a narrowing warning, the reverse
// widens silently.
func (c *Checker) checkReturn(n *ast.Node) bool {
	exp := n.Child(0)
	retType := c.curFunc.ReturnType

	if exp == nil {
		if !types.IsVoid(retType) {
			c.sink.WrongReturnType(n.Line, n.Col, retType.String(), "void")
			return false
		}
		return true
	}

	if !c.checkExpr(exp) {
		return false
	}
	if types.IsVoid(retType) {
		c.sink.VoidReturnValue(exp.Line, exp.Col)
		return false
	}
	switch {
	case types.Equal(retType, exp.Type):
		return true
	case types.IsInt(retType) && types.IsChar(exp.Type):
		return true // widening char -> int, silent
	case types.IsChar(retType) && types.IsInt(exp.Type):
		c.sink.NarrowingReturn(exp.Line, exp.Col)
		return true
	default:
		c.sink.WrongReturnType(n.Line, n.Col, retType.String(), exp.Type.String())
		return false
	}
}

// checkAssignation type-checks dest := src: dest is the LValue's Ident
// (itself type-checked, so array-index writes resolve to the element
// type), src is the right-hand expression.
func (c *Checker) checkAssignation(n *ast.Node) bool {
	lvalue := n.Child(0)
	target := lvalue.Child(0)
	rhs := n.Child(1)

	okTarget := c.checkExpr(target)
	okRhs := c.checkExpr(rhs)
	if !okTarget || !okRhs {
		return false
	}

	dest, src := target.Type, rhs.Type
	if types.IsArray(dest) || types.IsArray(src) || types.IsVoid(dest) || types.IsVoid(src) {
		c.sink.InvalidAssignment(n.Line, n.Col, dest.String(), src.String())
		return false
	}
	switch {
	case types.Equal(dest, src):
		return true
	case types.IsInt(dest) && types.IsChar(src):
		return true // widening, silent
	case types.IsChar(dest) && types.IsInt(src):
		c.sink.NarrowingAssignment(n.Line, n.Col)
		return true
	default:
		c.sink.InvalidAssignment(n.Line, n.Col, dest.String(), src.String())
		return false
	}
}

// checkExpr decorates n.Type and reports any rule violation rooted at
// n, returning whether n is well-typed.
func (c *Checker) checkExpr(n *ast.Node) bool {
	switch n.Label {
	case ast.Num:
		n.Type = types.Int
		return true
	case ast.Character:
		n.Type = types.Char
		return true
	case ast.Ident:
		return c.checkIdent(n)
	case ast.Negation:
		return c.checkUnary(n)
	case ast.AddSub:
		if n.NumChildren() == 1 {
			return c.checkUnary(n)
		}
		return c.checkBinaryArith(n)
	case ast.DivStar:
		return c.checkBinaryArith(n)
	case ast.Eq, ast.Order, ast.And, ast.Or:
		return c.checkBinaryCond(n)
	default:
		return false
	}
}

func (c *Checker) checkUnary(n *ast.Node) bool {
	operand := n.FirstChild
	if !c.checkExpr(operand) {
		return false
	}
	if !scalarNumeric(operand.Type) {
		c.sink.InvalidOperation(n.Line, n.Col, operand.Type.String())
		return false
	}
	n.Type = operand.Type
	return true
}

func (c *Checker) checkBinaryArith(n *ast.Node) bool {
	left := n.FirstChild
	right := left.NextSibling
	okL := c.checkExpr(left)
	okR := c.checkExpr(right)
	if !okL || !okR {
		return false
	}
	if !scalarNumeric(left.Type) {
		c.sink.InvalidOperation(n.Line, n.Col, left.Type.String())
		return false
	}
	if !scalarNumeric(right.Type) {
		c.sink.InvalidOperation(n.Line, n.Col, right.Type.String())
		return false
	}
	n.Type = types.Int
	return true
}

func (c *Checker) checkBinaryCond(n *ast.Node) bool {
	left := n.FirstChild
	right := left.NextSibling
	okL := c.checkExpr(left)
	okR := c.checkExpr(right)
	if !okL || !okR {
		return false
	}
	if !scalarNumeric(left.Type) || !scalarNumeric(right.Type) {
		c.sink.InvalidCondition(n.Line, n.Col)
		return false
	}
	n.Type = types.Int
	return true
}

// checkIdent dispatches a bare Ident on whether its single optional
// child marks it as a call (NoParametres/ListExp), an array index (any
// other expression), or neither (a plain variable read).
func (c *Checker) checkIdent(n *ast.Node) bool {
	child := n.FirstChild
	if child != nil && (child.Label == ast.NoParametres || child.Label == ast.ListExp) {
		return c.checkCall(n, child)
	}
	if child != nil {
		return c.checkArrayAccess(n, child)
	}

	if entry, ok := symtab.FindEntry(c.globals, c.curFunc, n.Ident); ok {
		n.Type = entry.Type
		return true
	}
	if _, ok := c.funcs.Find(n.Ident); ok {
		c.sink.IncorrectSymbolUse(n.Line, n.Col, n.Ident, "function", "variable")
		return false
	}
	c.sink.UseOfUndeclaredSymbol(n.Line, n.Col, n.Ident)
	return false
}

func (c *Checker) checkArrayAccess(n, index *ast.Node) bool {
	entry, ok := symtab.FindEntry(c.globals, c.curFunc, n.Ident)
	if !ok || !types.IsArray(entry.Type) {
		c.sink.IncorrectArrayAccess(n.Line, n.Col, n.Ident)
		return false
	}
	if !c.checkExpr(index) || !scalarNumeric(index.Type) {
		c.sink.IncorrectArrayAccess(n.Line, n.Col, n.Ident)
		return false
	}
	n.Type = types.Elem(entry.Type)
	return true
}

func (c *Checker) checkCall(n, argsNode *ast.Node) bool {
	fn, ok := c.funcs.Find(n.Ident)
	if !ok {
		c.sink.IncorrectFunctionCall(n.Line, n.Col, n.Ident)
		return false
	}

	var args []*ast.Node
	if argsNode.Label == ast.ListExp {
		args = argsNode.Children()
	}
	params := fn.Parameters.Entries()
	if len(args) != len(params) {
		c.sink.IncorrectFunctionCall(n.Line, n.Col, n.Ident)
		return false
	}

	ok = true
	for i, arg := range args {
		if !c.checkExpr(arg) {
			ok = false
			continue
		}
		if !c.checkParameter(n, i, params[i], arg) {
			ok = false
		}
	}
	if !ok {
		return false
	}
	n.Type = fn.ReturnType
	return true
}

// checkParameter pairs one actual argument with its formal parameter:
// arrays must match element type exactly, scalars follow the same
// widen-silently/narrow-with-warning rule as assignment.
func (c *Checker) checkParameter(call *ast.Node, pos int, formal symtab.Entry, actual *ast.Node) bool {
	ft, at := formal.Type, actual.Type
	if types.IsArray(ft) || types.IsArray(at) {
		if types.IsArray(ft) && types.IsArray(at) && types.Elem(ft) == types.Elem(at) {
			return true
		}
		c.sink.InvalidParameterType(call.Line, call.Col, pos+1, ft.String(), at.String())
		return false
	}
	switch {
	case types.Equal(ft, at):
		return true
	case types.IsInt(ft) && types.IsChar(at):
		return true // widening, silent
	case types.IsChar(ft) && types.IsInt(at):
		c.sink.NarrowingParameter(call.Line, call.Col, pos+1)
		return true
	default:
		c.sink.InvalidParameterType(call.Line, call.Col, pos+1, ft.String(), at.String())
		return false
	}
}
