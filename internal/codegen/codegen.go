// Package codegen emits NASM x86-64 assembly from a type-decorated AST
// and its symbol table: a stack-discipline, System V AMD64-ABI
// generator where every expression leaves exactly one 8-byte value on
// the operand stack.
package codegen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/GouruRK/compilation/internal/ast"
	"github.com/GouruRK/compilation/internal/symtab"
	"github.com/GouruRK/compilation/internal/types"
)

var paramRegisters = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

var arithInstr = map[string]string{"+": "add", "-": "sub", "*": "imul"}

var compInstr = map[string]string{
	"==": "je", "!=": "jne", "<": "jl", "<=": "jle", ">": "jg", ">=": "jge",
}

// builtinOrder fixes the emission order of builtin routines.
var builtinOrder = []string{"getchar", "getint", "putchar", "putint"}

// CodeGen emits one NASM source file for an entire program.
type CodeGen struct {
	w         *bufio.Writer
	globals   *symtab.Table
	funcs     *symtab.FunctionCollection
	nextLabel int
}

// New creates a CodeGen writing to w, using globals/funcs as populated
// by symtab.Builder and type-decorated by sema.Check.
func New(w io.Writer, globals *symtab.Table, funcs *symtab.FunctionCollection) *CodeGen {
	return &CodeGen{w: bufio.NewWriter(w), globals: globals, funcs: funcs}
}

// Generate emits the whole program rooted at prog (an ast.Prog node).
func (g *CodeGen) Generate(prog *ast.Node) error {
	g.writeHeader()
	g.writeBuiltins()
	fmt.Fprintf(g.w, "\n_start:\n\tcall\tmain\n")
	g.writeExit()
	g.writeFunctions(prog)
	return g.w.Flush()
}

func (g *CodeGen) writeHeader() {
	fmt.Fprintf(g.w, "global _start\nsection .bss\n\tglobals: resb %d\n\nsection .text\n", g.globals.TotalBytes)
}

// writeBuiltins splices in only the builtin routines actually called
// somewhere in the program.
func (g *CodeGen) writeBuiltins() {
	for _, name := range builtinOrder {
		fn, ok := g.funcs.Find(name)
		if ok && fn.Used {
			fmt.Fprintf(g.w, "\n%s\n", builtinSource(name))
		}
	}
}

func (g *CodeGen) writeExit() {
	fmt.Fprintf(g.w, "\tmov\trdi, rax\n\tmov\trax, 60\n\tsyscall\n")
}

func (g *CodeGen) newLabel() int {
	n := g.nextLabel
	g.nextLabel++
	return n
}

func (g *CodeGen) writeFunctions(prog *ast.Node) {
	declFoncts := prog.Child(1)
	if declFoncts == nil {
		return
	}
	for decl := declFoncts.FirstChild; decl != nil; decl = decl.NextSibling {
		header := decl.Child(0)
		nameNode := header.Child(1)
		fn, ok := g.funcs.Find(nameNode.Ident)
		if !ok {
			continue
		}
		g.writeFunctionProlog(fn)
		if suite := fn.Body.Child(1); suite != nil {
			g.genStmts(fn, suite)
		}
		g.writeFunctionExit()
	}
}

func (g *CodeGen) writeFunctionProlog(fn *symtab.Function) {
	fmt.Fprintf(g.w, "\n; function %s\n%s:\n\tpush\trbp\n\tmov\trbp, rsp\n", fn.Name, fn.Name)

	fmt.Fprintf(g.w, "\n\t; spill register-passed parameters\n")
	params := fn.Parameters.Entries()
	for i := 0; i < len(params) && i < 6; i++ {
		fmt.Fprintf(g.w, "\tpush\t%s\n", paramRegisters[i])
	}

	fmt.Fprintf(g.w, "\n\t; reserve space for locals\n\tsub\trsp, %d\n\n\t; body\n", fn.Locals.TotalBytes)
}

func (g *CodeGen) writeFunctionExit() {
	fmt.Fprintf(g.w, "\n\t; restore caller frame\n\tmov\trsp, rbp\n\tpop\trbp\n\tret\n")
}

// genStmts walks the Instr siblings of one SuiteInstr.
func (g *CodeGen) genStmts(fn *symtab.Function, suite *ast.Node) {
	for instr := suite.FirstChild; instr != nil; instr = instr.NextSibling {
		g.genInstr(fn, instr)
	}
}

func (g *CodeGen) genInstr(fn *symtab.Function, instr *ast.Node) {
	inner := instr.FirstChild
	if inner == nil {
		return
	}
	switch inner.Label {
	case ast.SuiteInstr:
		g.genStmts(fn, inner)
	case ast.Assignation:
		g.genAssign(fn, inner)
	case ast.Ident:
		g.genIdent(fn, inner)
		if isCall(inner) {
			if target, ok := g.funcs.Find(inner.Ident); ok && !types.IsVoid(target.ReturnType) {
				fmt.Fprintf(g.w, "\n\t; discard unused return value\n\tadd\trsp, 8\n")
			}
		}
	case ast.If:
		g.genIf(fn, inner)
	case ast.While:
		g.genWhile(fn, inner)
	case ast.Return:
		g.genReturn(fn, inner)
	}
}

func isCall(n *ast.Node) bool {
	c := n.FirstChild
	return c != nil && (c.Label == ast.NoParametres || c.Label == ast.ListExp)
}

func (g *CodeGen) genIf(fn *symtab.Function, n *ast.Node) {
	nelse := g.newLabel()
	ncontinue := g.newLabel()

	g.genExpr(fn, n.Child(0))
	fmt.Fprintf(g.w, "\n\t; if condition\n\tpop\trax\n\tcmp\trax, 0\n\tje\telse%d\n", nelse)

	g.genInstr(fn, n.Child(1))
	fmt.Fprintf(g.w, "\tjmp\tcontinue%d\nelse%d:\n", ncontinue, nelse)

	if elseNode := n.Child(2); elseNode != nil {
		g.genInstr(fn, elseNode.Child(0))
	}
	fmt.Fprintf(g.w, "continue%d:\n", ncontinue)
}

func (g *CodeGen) genWhile(fn *symtab.Function, n *ast.Node) {
	nhead := g.newLabel()
	ncontinue := g.newLabel()

	fmt.Fprintf(g.w, "\nhead%d:\n", nhead)
	g.genExpr(fn, n.Child(0))
	fmt.Fprintf(g.w, "\n\t; while condition\n\tpop\trax\n\tcmp\trax, 0\n\tje\tcontinue%d\n", ncontinue)

	g.genInstr(fn, n.Child(1))
	fmt.Fprintf(g.w, "\tjmp\thead%d\ncontinue%d:\n", nhead, ncontinue)
}

func (g *CodeGen) genReturn(fn *symtab.Function, n *ast.Node) {
	if exp := n.Child(0); exp != nil {
		g.genExpr(fn, exp)
		fmt.Fprintf(g.w, "\n\t; load return value\n\tpop\trax\n")
	}
	g.writeFunctionExit()
}

// genAssign evaluates the right-hand side, then the left-hand side's
// array index (if any), and stores the result — arrays are always
// addressed by element, never copied wholesale.
func (g *CodeGen) genAssign(fn *symtab.Function, n *ast.Node) {
	target := n.Child(0).Child(0)
	rhs := n.Child(1)

	g.genExpr(fn, rhs)

	if entry, ok := fn.Parameters.Find(target.Ident); ok {
		if types.IsArray(entry.Type) {
			g.genExpr(fn, target.FirstChild)
		}
		g.paramAccess(fn, entry, "pop", false)
		return
	}
	if entry, ok := fn.Locals.Find(target.Ident); ok {
		if types.IsArray(entry.Type) {
			g.genExpr(fn, target.FirstChild)
		}
		g.localAccess(fn, entry, "pop", false)
		return
	}
	if entry, ok := g.globals.Find(target.Ident); ok {
		if types.IsArray(entry.Type) {
			g.genExpr(fn, target.FirstChild)
		}
		g.globalAccess(entry, "pop", false)
	}
}

// genExpr recurses through an expression, leaving its value on top of
// the operand stack. Node kinds with no expression-level meaning
// (NoParametres, ListExp, ...) are silently skipped — callers that
// need their contents (genCall) read them directly.
func (g *CodeGen) genExpr(fn *symtab.Function, n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Label {
	case ast.Ident:
		g.genIdent(fn, n)
	case ast.Num:
		fmt.Fprintf(g.w, "\n\t; integer literal\n\tpush\t%d\n", n.NumVal)
	case ast.Character:
		fmt.Fprintf(g.w, "\n\t; character literal\n\tpush\t%d\n", n.NumVal)
	case ast.AddSub:
		g.genAddSubMul(fn, n)
	case ast.DivStar:
		if n.Ident == "/" || n.Ident == "%" {
			g.genDivMod(fn, n)
		} else {
			g.genAddSubMul(fn, n)
		}
	case ast.Eq, ast.Order:
		g.genComparison(fn, n)
	case ast.And:
		g.genAnd(fn, n)
	case ast.Or:
		g.genOr(fn, n)
	case ast.Negation:
		g.genNeg(fn, n)
	case ast.Assignation:
		g.genAssign(fn, n)
	}
}

func (g *CodeGen) genAddSubMul(fn *symtab.Function, n *ast.Node) {
	left := n.FirstChild
	g.genExpr(fn, left)

	right := left.NextSibling
	if right == nil {
		if n.Ident == "-" {
			fmt.Fprintf(g.w, "\n\t; unary negation\n\tpop\trax\n\tneg\trax\n\tpush\trax\n")
		}
		return
	}

	g.genExpr(fn, right)
	fmt.Fprintf(g.w, "\n\t; binary operation (%s)\n\tpop\trcx\n\tpop\trax\n\t%s\trax, rcx\n\tpush\trax\n",
		n.Ident, arithInstr[n.Ident])
}

func (g *CodeGen) genDivMod(fn *symtab.Function, n *ast.Node) {
	left := n.FirstChild
	right := left.NextSibling
	g.genExpr(fn, left)
	g.genExpr(fn, right)

	if n.Ident == "/" {
		fmt.Fprintf(g.w, "\n\t; division\n\tpop\trcx\n\tpop\trax\n\tcqo\n\tidiv\trcx\n\tpush\trax\n")
	} else {
		fmt.Fprintf(g.w, "\n\t; modulo\n\tpop\trcx\n\tpop\trax\n\tcqo\n\tidiv\trcx\n\tpush\trdx\n")
	}
}

func (g *CodeGen) genComparison(fn *symtab.Function, n *ast.Node) {
	left := n.FirstChild
	right := left.NextSibling
	g.genExpr(fn, left)
	g.genExpr(fn, right)
	fmt.Fprintf(g.w, "\n\t; load comparison operands\n\tpop\trcx\n\tpop\trax\n")

	label := g.newLabel()
	cont := g.newLabel()
	fmt.Fprintf(g.w, "\n\t; comparison (%s)\n\tcmp\trax, rcx\n\t%s\tlabel%d\n\tpush\t0\n\tjmp\tcontinue%d\nlabel%d:\n\tpush\t1\ncontinue%d:\n",
		n.Ident, compInstr[n.Ident], label, cont, label, cont)
}

// genBoolTransform normalizes a nonzero top-of-stack value to exactly
// 1, used after each short-circuit operator.
func (g *CodeGen) genBoolTransform() {
	label := g.newLabel()
	cont := g.newLabel()
	fmt.Fprintf(g.w, "\n\t; normalize to 0/1\n\tpop\trax\n\tcmp\trax, 0\n\tjne\tlabel%d\n\tpush\t0\n\tjmp\tcontinue%d\nlabel%d:\n\tpush\t1\ncontinue%d:\n",
		label, cont, label, cont)
}

func (g *CodeGen) genAnd(fn *symtab.Function, n *ast.Node) {
	label := g.newLabel()
	cont := g.newLabel()
	left := n.FirstChild
	right := left.NextSibling

	g.genExpr(fn, left)
	fmt.Fprintf(g.w, "\n\t; short-circuit '&&'\n\tpop\trax\n\tcmp\trax, 0\n\tjne\tlabel%d\n\tpush\t0\n\tjmp\tcontinue%d\nlabel%d:\n",
		label, cont, label)
	g.genExpr(fn, right)
	fmt.Fprintf(g.w, "continue%d:\n", cont)
	g.genBoolTransform()
}

func (g *CodeGen) genOr(fn *symtab.Function, n *ast.Node) {
	label := g.newLabel()
	cont := g.newLabel()
	left := n.FirstChild
	right := left.NextSibling

	g.genExpr(fn, left)
	g.genBoolTransform()
	fmt.Fprintf(g.w, "\n\t; short-circuit '||'\n\tpop\trax\n\tcmp\trax, 1\n\tjne\tlabel%d\n\tpush\t1\n\tjmp\tcontinue%d\nlabel%d:\n",
		label, cont, label)
	g.genExpr(fn, right)
	fmt.Fprintf(g.w, "continue%d:\n", cont)
	g.genBoolTransform()
}

func (g *CodeGen) genNeg(fn *symtab.Function, n *ast.Node) {
	label := g.newLabel()
	cont := g.newLabel()
	g.genExpr(fn, n.FirstChild)
	fmt.Fprintf(g.w, "\n\t; logical negation\n\tpop\trax\n\tcmp\trax, 0\n\tje\tlabel%d\n\tpush\t0\n\tjmp\tcontinue%d\nlabel%d:\n\tpush\t1\ncontinue%d:\n",
		label, cont, label, cont)
}

// genIdent resolves a bare Ident: a variable read (optionally indexed
// by its child expression) if the name resolves against parameters,
// locals, or globals, a function call otherwise.
func (g *CodeGen) genIdent(fn *symtab.Function, n *ast.Node) {
	g.genExpr(fn, n.FirstChild)

	if entry, ok := fn.Parameters.Find(n.Ident); ok {
		g.paramAccess(fn, entry, "push", n.FirstChild == nil)
		return
	}
	if entry, ok := fn.Locals.Find(n.Ident); ok {
		g.localAccess(fn, entry, "push", n.FirstChild == nil)
		return
	}
	if entry, ok := g.globals.Find(n.Ident); ok {
		g.globalAccess(entry, "push", n.FirstChild == nil)
		return
	}
	g.genCall(fn, n)
}

func (g *CodeGen) genCall(caller *symtab.Function, n *ast.Node) {
	target, ok := g.funcs.Find(n.Ident)
	if !ok {
		return
	}

	if argsNode := n.FirstChild; argsNode != nil && argsNode.Label == ast.ListExp {
		g.genArgs(caller, argsNode.Children())
		fmt.Fprintf(g.w, "\n\t; move arguments into registers\n")
		count := target.Parameters.Len()
		if count > 6 {
			count = 6
		}
		for i := 0; i < count; i++ {
			fmt.Fprintf(g.w, "\tpop\t%s\n", paramRegisters[i])
		}
	}

	fmt.Fprintf(g.w, "\n\t; call '%s'\n\tcall\t%s\n", n.Ident, n.Ident)

	if target.Parameters.Len() > 6 {
		fmt.Fprintf(g.w, "\n\t; drop stack-passed arguments\n\tadd\trsp, %d\n", (target.Parameters.Len()-6)*8)
	}
	if !types.IsVoid(target.ReturnType) {
		fmt.Fprintf(g.w, "\n\t; push return value\n\tpush\trax\n")
	}
}

// genArgs evaluates call arguments right-to-left so the leftmost ends
// up on top of the operand stack, matching the pop order genCall uses
// to fill rdi, rsi, ...
func (g *CodeGen) genArgs(fn *symtab.Function, args []*ast.Node) {
	for i := len(args) - 1; i >= 0; i-- {
		g.genExpr(fn, args[i])
	}
}

// localAddress adds the bytes reserved for register-passed parameters
// so a local never aliases a parameter's stack slot, combining
// localsGap with the parameters table's running Offset.
func (g *CodeGen) localAddress(fn *symtab.Function, e *symtab.Entry) int {
	return fn.Parameters.Offset + e.Address
}

func (g *CodeGen) localAccess(fn *symtab.Function, e *symtab.Entry, instr string, address bool) {
	addr := g.localAddress(fn, e)
	if types.IsArray(e.Type) {
		if address {
			fmt.Fprintf(g.w, "\n\t; address of local '%s'\n\tmov\trax, rbp\n\tsub\trax, %d\n\t%s\trax\n",
				e.Name, addr, instr)
			return
		}
		fmt.Fprintf(g.w, "\n\t; local array '%s'\n\tpop\trcx\n\timul\trcx, 8\n\tmov\trax, rbp\n\tsub\trax, %d\n\tsub\trax, rcx\n\t%s\tqword [rax]\n",
			e.Name, addr, instr)
		return
	}
	fmt.Fprintf(g.w, "\n\t; local '%s'\n\t%s\tqword [rbp - %d]\n", e.Name, instr, addr)
}

func (g *CodeGen) paramIndex(fn *symtab.Function, name string) int {
	for i, e := range fn.Parameters.Entries() {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// paramAccess implements ABI-aware parameter addressing: the first 6
// parameters were spilled below rbp in the prologue and are read the
// same way as locals; the 7th onward were left where the caller pushed
// them, above rbp.
func (g *CodeGen) paramAccess(fn *symtab.Function, e *symtab.Entry, instr string, address bool) {
	if g.paramIndex(fn, e.Name) < 6 {
		if types.IsArray(e.Type) {
			if address {
				fmt.Fprintf(g.w, "\n\t; address of parameter '%s'\n\tmov\trax, rbp\n\tsub\trax, %d\n\t%s\tqword [rax]\n",
					e.Name, e.Address, instr)
				return
			}
			fmt.Fprintf(g.w, "\n\t; parameter array '%s'\n\tpop\trcx\n\timul\trcx, 8\n\tmov\trax, rbp\n\tsub\trax, %d\n\tmov\trdx, qword [rax]\n\tsub\trdx, rcx\n\t%s\tqword [rdx]\n",
				e.Name, e.Address, instr)
			return
		}
		fmt.Fprintf(g.w, "\n\t; parameter '%s'\n\t%s\tqword [rbp - %d]\n", e.Name, instr, e.Address)
		return
	}

	if types.IsArray(e.Type) {
		if address {
			fmt.Fprintf(g.w, "\n\t; address of parameter '%s'\n\tmov\trax, rbp\n\tadd\trax, %d\n\t%s\tqword [rax]\n",
				e.Name, e.Address, instr)
			return
		}
		fmt.Fprintf(g.w, "\n\t; parameter array '%s'\n\tpop\trcx\n\timul\trcx, 8\n\tmov\trax, rbp\n\tadd\trax, %d\n\tmov\trdx, qword [rax]\n\tsub\trdx, rcx\n\t%s\tqword [rdx]\n",
			e.Name, e.Address, instr)
		return
	}
	fmt.Fprintf(g.w, "\n\t; parameter '%s'\n\t%s\tqword [rbp + %d]\n", e.Name, instr, e.Address)
}

func (g *CodeGen) globalAccess(e *symtab.Entry, instr string, address bool) {
	if types.IsArray(e.Type) {
		if address {
			fmt.Fprintf(g.w, "\n\t; address of global '%s'\n\tmov\trcx, globals\n\tadd\trcx, %d\n\t%s\trcx\n",
				e.Name, e.Address, instr)
			return
		}
		fmt.Fprintf(g.w, "\n\t; global array '%s'\n\tpop\trcx\n\timul\trcx, 8\n\tmov\trax, globals\n\tadd\trax, %d\n\tadd\trax, rcx\n\t%s\tqword [rax]\n",
			e.Name, e.Address, instr)
		return
	}
	fmt.Fprintf(g.w, "\n\t; global '%s'\n\tmov\trcx, globals\n\t%s\tqword [rcx + %d]\n", e.Name, instr, e.Address)
}
