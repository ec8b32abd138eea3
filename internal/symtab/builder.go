package symtab

import (
	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/diag"
	"github.com/GouruRK/compilation/internal/types"
)

// Builder performs a single pre-order walk of the program tree: it
// fills the globals table from the Prog-level DeclVars, seeds the
// function collection with the four builtins, then walks each
// DeclFonct's parameters, locals, and body in source order, marking an
// Ident's owning entry/function as used when the Ident sits on a
// different line from that declaration.
type Builder struct {
	sink    *diag.Sink
	globals *Table
	funcs   *FunctionCollection

	curFunc *Function
}

// NewBuilder creates a Builder reporting through sink.
func NewBuilder(sink *diag.Sink) *Builder {
	return &Builder{
		sink:    sink,
		globals: NewTable(),
		funcs:   NewFunctionCollection(),
	}
}

// Build walks prog (an ast.Prog node) and returns the populated globals
// table and function collection.
func (b *Builder) Build(prog *ast.Node) (*Table, *FunctionCollection) {
	declVars := prog.Child(0)
	declFoncts := prog.Child(1)

	if declVars != nil {
		for typeNode := declVars.FirstChild; typeNode != nil; typeNode = typeNode.NextSibling {
			b.buildGlobalDecl(typeNode)
		}
	}

	if declFoncts != nil {
		for fn := declFoncts.FirstChild; fn != nil; fn = fn.NextSibling {
			b.buildFunction(fn)
		}
	}

	b.reportUnused()
	return b.globals, b.funcs
}

// buildGlobalDecl processes one Type node under the top-level DeclVars,
// inserting one global Entry per Ident declarator child.
func (b *Builder) buildGlobalDecl(typeNode *ast.Node) {
	scalar := scalarTag(typeNode.Ident)
	for decl := typeNode.FirstChild; decl != nil; decl = decl.NextSibling {
		b.insertDeclarator(b.globals, decl, scalar, "")
	}
}

// insertDeclarator handles one Ident declarator (optionally array-shaped
// via a Num length child), computing size and type tag, then inserting
// into table. fnName is not read here; unused-in-function notes are
// emitted later by reportUnused.
func (b *Builder) insertDeclarator(table *Table, decl *ast.Node, scalar types.Tag, fnName string) {
	typ := scalar
	size := types.ScalarSize

	if decl.FirstChild != nil && decl.FirstChild.Label == ast.Num {
		length := decl.FirstChild.NumVal
		if length == 0 {
			b.sink.IncorrectArrayDecl(decl.Line, decl.Col, decl.Ident)
			return
		}
		typ = types.SetArray(scalar)
		size = types.ScalarSize * int(length)
	}

	if _, priorLine, ok := table.Insert(decl.Ident, decl.Line, decl.Col, size, typ); !ok {
		b.sink.AlreadyDeclared(decl.Line, decl.Col, decl.Ident, priorLine)
	}
}

func scalarTag(spelling string) types.Tag {
	switch spelling {
	case "char":
		return types.Char
	case "void":
		return types.Void
	default:
		return types.Int
	}
}

// buildFunction processes one DeclFonct: registers its signature (name,
// return type, parameters), then walks its body.
func (b *Builder) buildFunction(fn *ast.Node) {
	header := fn.Child(0)
	corps := fn.Child(1)

	retTypeNode := header.Child(0)
	nameNode := header.Child(1)
	paramsNode := header.Child(2)

	retType := scalarTag(retTypeNode.Ident)
	function := NewFunction(nameNode.Ident, nameNode.Line, nameNode.Col, retType)

	if paramsNode != nil && paramsNode.Label == ast.Parametres {
		listTypVar := paramsNode.Child(0)
		for typeNode := listTypVar.FirstChild; typeNode != nil; typeNode = typeNode.NextSibling {
			b.insertParameter(function, typeNode)
		}
	}

	if IsBuiltinName(nameNode.Ident) {
		b.sink.RedefinitionOfBuiltin(nameNode.Line, nameNode.Col, nameNode.Ident)
	} else if priorLine, ok := b.funcs.Insert(function); !ok {
		b.sink.AlreadyDeclared(nameNode.Line, nameNode.Col, nameNode.Ident, priorLine)
		return
	}
	if entry, ok := b.globals.Find(nameNode.Ident); ok {
		b.sink.AlreadyDeclared(nameNode.Line, nameNode.Col, nameNode.Ident, entry.Line)
	}

	function.Body = corps
	b.curFunc = function
	b.buildBody(corps)
	b.curFunc = nil
}

// insertParameter inserts one formal parameter, honoring the array
// marker the parser attaches (a Num child with no literal meaning:
// array-ness only, since array parameters carry no compile-time length).
func (b *Builder) insertParameter(function *Function, typeNode *ast.Node) {
	scalar := scalarTag(typeNode.Ident)
	decl := typeNode.Child(0)
	typ := scalar
	if decl.FirstChild != nil {
		typ = types.SetArray(scalar)
	}
	if _, priorLine, ok := function.Parameters.InsertParameter(decl.Ident, decl.Line, decl.Col, types.ScalarSize, typ); !ok {
		b.sink.AlreadyDeclared(decl.Line, decl.Col, decl.Ident, priorLine)
	}
}

// buildBody walks a Corps node: its nested DeclVars become this
// function's locals, then SuiteInstr is walked to mark identifier uses.
func (b *Builder) buildBody(corps *ast.Node) {
	declVars := corps.Child(0)
	suite := corps.Child(1)

	if declVars != nil {
		for typeNode := declVars.FirstChild; typeNode != nil; typeNode = typeNode.NextSibling {
			scalar := scalarTag(typeNode.Ident)
			for decl := typeNode.FirstChild; decl != nil; decl = decl.NextSibling {
				if entry, ok := b.curFunc.Parameters.Find(decl.Ident); ok {
					b.sink.AlreadyDeclared(decl.Line, decl.Col, decl.Ident, entry.Line)
					continue
				}
				b.insertDeclarator(b.curFunc.Locals, decl, scalar, b.curFunc.Name)
			}
		}
	}

	if suite != nil {
		b.walkStmts(suite)
	}
}

func (b *Builder) walkStmts(suite *ast.Node) {
	for instr := suite.FirstChild; instr != nil; instr = instr.NextSibling {
		b.walkInstr(instr)
	}
}

func (b *Builder) walkInstr(instr *ast.Node) {
	inner := instr.FirstChild
	if inner == nil {
		return
	}
	switch inner.Label {
	case ast.SuiteInstr:
		b.walkStmts(inner)
	case ast.If:
		b.walkExpr(inner.Child(0))
		b.walkInstr(inner.Child(1))
		if elseNode := inner.Child(2); elseNode != nil {
			b.walkInstr(elseNode.Child(0))
		}
	case ast.While:
		b.walkExpr(inner.Child(0))
		b.walkInstr(inner.Child(1))
	case ast.Return:
		if exp := inner.Child(0); exp != nil {
			b.walkExpr(exp)
		}
	case ast.Assignation:
		lvalue := inner.Child(0)
		b.walkExpr(lvalue.Child(0))
		b.walkExpr(inner.Child(1))
	case ast.Ident:
		b.walkExpr(inner)
	case ast.EmptyInstr:
		// nothing to mark
	}
}

// walkExpr recurses through an expression, marking every Ident's
// resolved entry/function as used, and reporting genuinely undeclared
// symbols (downgraded to a warning in call position).
func (b *Builder) walkExpr(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Label {
	case ast.Num, ast.Character:
		return
	case ast.Ident:
		b.resolveIdentUse(n)
	case ast.AddSub, ast.DivStar, ast.Eq, ast.Order, ast.And, ast.Or:
		b.walkExpr(n.FirstChild)
		if n.FirstChild != nil {
			b.walkExpr(n.FirstChild.NextSibling)
		}
	case ast.Negation:
		b.walkExpr(n.FirstChild)
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.walkExpr(c)
		}
	}
}

func (b *Builder) resolveIdentUse(n *ast.Node) {
	callChild := n.FirstChild
	isCall := callChild != nil && (callChild.Label == ast.NoParametres || callChild.Label == ast.ListExp)

	if isCall {
		if callChild.Label == ast.ListExp {
			for c := callChild.FirstChild; c != nil; c = c.NextSibling {
				b.walkExpr(c)
			}
		}
		if fn, ok := b.funcs.Find(n.Ident); ok {
			b.markFunctionUse(fn, n.Line)
		} else {
			b.sink.MaybeUndeclaredFunction(n.Line, n.Col, n.Ident)
		}
		return
	}

	if idxChild := callChild; idxChild != nil {
		b.walkExpr(idxChild)
	}

	if entry := b.findVariable(n.Ident); entry != nil {
		b.markEntryUse(entry, n.Line)
		return
	}
	if fn, ok := b.funcs.Find(n.Ident); ok {
		b.markFunctionUse(fn, n.Line)
		return
	}
	b.sink.UseOfUndeclaredSymbol(n.Line, n.Col, n.Ident)
}

// findVariable searches parameters, then locals, then globals — the
// same resolution order used for marking identifier uses.
func (b *Builder) findVariable(name string) *Entry {
	if b.curFunc != nil {
		if e, ok := b.curFunc.Parameters.Find(name); ok {
			return e
		}
		if e, ok := b.curFunc.Locals.Find(name); ok {
			return e
		}
	}
	if e, ok := b.globals.Find(name); ok {
		return e
	}
	return nil
}

func (b *Builder) markEntryUse(e *Entry, useLine int) {
	if e.Line == useLine {
		return
	}
	e.Used = true
}

func (b *Builder) markFunctionUse(fn *Function, useLine int) {
	if fn.Line == useLine {
		return
	}
	fn.Used = true
}

// reportUnused emits the note diagnostics for every entry/function whose
// Used flag is still false.
func (b *Builder) reportUnused() {
	for i := 0; i < b.globals.Len(); i++ {
		e := b.globals.EntryAt(i)
		if !e.Used {
			b.sink.UnusedSymbol(e.Line, e.Col, e.Name)
		}
	}
	for _, fn := range b.funcs.Funcs() {
		if fn.Line == builtinLine {
			continue
		}
		if !fn.Used && fn.Name != "main" {
			b.sink.UnusedSymbol(fn.Line, fn.Col, fn.Name)
		}
		for i := 0; i < fn.Parameters.Len(); i++ {
			p := fn.Parameters.EntryAt(i)
			if !p.Used {
				b.sink.UnusedSymbolInFunction(p.Line, p.Col, p.Name, fn.Name)
			}
		}
		for i := 0; i < fn.Locals.Len(); i++ {
			l := fn.Locals.EntryAt(i)
			if !l.Used {
				b.sink.UnusedSymbolInFunction(l.Line, l.Col, l.Name, fn.Name)
			}
		}
	}
}
