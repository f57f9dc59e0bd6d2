// Package compiler lowers a merged AST (internal/modgraph's output) to a
// internal/chunk.Chunk, per spec.md §4.4. It is grounded directly on the
// teacher's asm/asm.go and asm/parser.go: the same "collect every label up
// front, emit code, patch every forward reference in one final pass" shape
// that the assembler uses for its own labels is generalized here from
// Forth-assembly labels to this language's named functions.
package compiler

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/jonaskivi/rae-sub000/internal/ast"
	"github.com/jonaskivi/rae-sub000/internal/chunk"
	"github.com/jonaskivi/rae-sub000/internal/diag"
	"github.com/jonaskivi/rae-sub000/internal/token"
	"github.com/jonaskivi/rae-sub000/internal/value"
)

// maxCodeSize is the spec's "code size >= 64 KiB" compile-time limit,
// forced by the 2-byte CALL/JUMP operands (spec.md §7.3).
const maxCodeSize = 1 << 16

// funcEntry is the compiler's function-table bookkeeping (spec.md §4.4's
// "(name, offset-in-code or sentinel, param_count, patch sites, is_extern)").
type funcEntry struct {
	name      string
	file      string
	pos       token.Pos
	decl      *ast.FuncDecl
	addr      int // sentinel until compiled
	numLocals int
}

const sentinelAddr = -1

// compiler holds cross-function state for one Compile invocation: the
// function table (built in a first pass so forward references resolve),
// the in-progress chunk, and the CALL patch sites awaiting a final address.
type compiler struct {
	chunk   *chunk.Chunk
	funcs   map[string]*funcEntry
	order   []string // function names, declaration order, non-extern only
	patches map[string][]int // function name -> code offsets of its CALL operands

	// per-function compile state, reset by compileFunc
	locals   []scope
	numLocal int
	file     string
	fn       *ast.FuncDecl
}

type scope struct {
	names map[string]int
}

// Compile lowers every declaration in modules (in load order, per
// spec.md §4.3) into a single Chunk, following spec.md §4.4's four-step
// compilation pass.
func Compile(modules []ModuleDecls) (*chunk.Chunk, error) {
	c := &compiler{
		chunk:   chunk.New(),
		funcs:   make(map[string]*funcEntry),
		patches: make(map[string][]int),
	}

	// Step 1: collect the function table (and named-type directory) up
	// front so every call, including forward references, can resolve a
	// param count at compile time.
	for _, m := range modules {
		for _, d := range m.Decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				if _, dup := c.funcs[decl.Name]; dup {
					return nil, diag.NewCompileError(c.pos(m.File, decl.Pos),
						"duplicate function definition %q", decl.Name)
				}
				fe := &funcEntry{name: decl.Name, file: m.File, pos: decl.Pos, decl: decl, addr: sentinelAddr}
				c.funcs[decl.Name] = fe
				c.chunk.AddFunc(chunk.FuncInfo{Name: decl.Name, Addr: sentinelAddr, Arity: len(decl.Params)})
				if !decl.IsExtern {
					c.order = append(c.order, decl.Name)
				}
			case *ast.TypeDecl:
				fields := make([]string, len(decl.Fields))
				for i, f := range decl.Fields {
					fields[i] = f.Name
				}
				c.chunk.AddNamedType(decl.Name, fields)
			}
		}
	}

	// Step 2: synthetic entry sequence `CALL <main> 0 \n RETURN 0`.
	c.emitCallByName("main", 0, 0)
	c.chunk.Emit(chunk.OpReturn, 0)
	c.chunk.EmitByte(0, 0)

	// Step 3: compile every non-extern function body, in declaration order.
	for _, name := range c.order {
		fe := c.funcs[name]
		if err := c.compileFunc(fe); err != nil {
			return nil, err
		}
	}

	// Step 4: resolve every patch site against the now-final addresses.
	if err := c.resolvePatches(); err != nil {
		return nil, err
	}

	if len(c.chunk.Code) >= maxCodeSize {
		return nil, diag.NewCompileError(diag.Pos{}, "code size %d exceeds 64 KiB limit", len(c.chunk.Code))
	}
	return c.chunk, nil
}

// ModuleDecls is one loaded module's declarations paired with the file they
// came from, the shape internal/modgraph hands to Compile (spec.md §4.3's
// "merged AST is the concatenation of each module's declarations in load
// order").
type ModuleDecls struct {
	File  string
	Decls []ast.Decl
}

func (c *compiler) pos(file string, p token.Pos) diag.Pos {
	return diag.Pos{File: file, Line: p.Line, Col: p.Col}
}

// emitCallByName emits an OpCall with a placeholder target, recording a
// patch site keyed by callee name; returns the code offset.
func (c *compiler) emitCallByName(name string, argc byte, line int) int {
	off := c.chunk.Emit(chunk.OpCall, line)
	operandOff := c.chunk.EmitU16(0xFFFF, line)
	c.chunk.EmitByte(argc, line)
	c.patches[name] = append(c.patches[name], operandOff)
	return off
}

func (c *compiler) resolvePatches() error {
	// First sync the function directory for every non-extern function,
	// whether or not it was ever called — hot-patch (spec.md §4.7) needs a
	// correct address for every function name, not just called ones.
	for name, fe := range c.funcs {
		if fe.decl.IsExtern {
			continue
		}
		if fe.addr == sentinelAddr {
			return diag.NewCompileError(c.pos(fe.file, fe.pos), "function %q has no compiled body", name)
		}
		idx := c.chunk.FuncIndex[name]
		c.chunk.Funcs[idx].Addr = fe.addr
		c.chunk.Funcs[idx].NumLocals = fe.numLocals
	}
	// Then patch every CALL site recorded against a callee name (spec.md
	// §4.4 step 4): no CALL target may remain the sentinel.
	for name, sites := range c.patches {
		fe, ok := c.funcs[name]
		if !ok {
			// unreachable: callers already validate existence at compile
			// time before calling emitCallByName, except for the synthetic
			// entry call to "main".
			return diag.NewCompileError(diag.Pos{}, "undefined function %q", name)
		}
		if fe.addr == sentinelAddr {
			return diag.NewCompileError(c.pos(fe.file, fe.pos),
				"function %q is never given a body (declared but unresolved)", name)
		}
		for _, off := range sites {
			c.chunk.PatchU16(off, uint16(fe.addr))
		}
	}
	return nil
}

func (c *compiler) pushScope()  { c.locals = append(c.locals, scope{names: make(map[string]int)}) }
func (c *compiler) popScope()   { c.locals = c.locals[:len(c.locals)-1] }

func (c *compiler) declareLocal(name string) int {
	slot := c.numLocal
	c.numLocal++
	c.locals[len(c.locals)-1].names[name] = slot
	return slot
}

func (c *compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if slot, ok := c.locals[i].names[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (c *compiler) compileFunc(fe *funcEntry) error {
	decl := fe.decl
	c.file = fe.file
	c.fn = decl
	c.locals = nil
	c.numLocal = 0

	fe.addr = len(c.chunk.Code)
	c.pushScope()
	for _, p := range decl.Params {
		c.declareLocal(p.Name)
	}

	if decl.Body == nil {
		return diag.NewCompileError(c.pos(c.file, decl.Pos), "function %q has no body", decl.Name)
	}
	fallsThrough := true
	for _, stmt := range decl.Body.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
		if _, isRet := stmt.(*ast.RetStmt); isRet {
			fallsThrough = false
		} else {
			fallsThrough = true
		}
	}
	if fallsThrough {
		c.chunk.Emit(chunk.OpReturn, declEndLine(decl))
		c.chunk.EmitByte(0, declEndLine(decl))
	}
	c.popScope()
	fe.numLocals = c.numLocal
	return nil
}

func declEndLine(decl *ast.FuncDecl) int {
	if decl.Body != nil {
		return decl.Body.Pos.Line
	}
	return decl.Pos.Line
}

func (c *compiler) compileStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.DefStmt:
		return c.compileDef(st)
	case *ast.RetStmt:
		return c.compileRet(st)
	case *ast.ExprStmt:
		if err := c.compileExpr(st.X); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpPop, st.Pos.Line)
		return nil
	case *ast.IfStmt:
		return c.compileIf(st)
	case *ast.DestructureStmt:
		return diag.NewCompileError(c.pos(c.file, st.Pos), "destructure statements are not supported in the VM back-end yet")
	case *ast.AssignStmt:
		return diag.NewCompileError(c.pos(c.file, st.Pos), "assignment statements are not supported in the VM back-end yet")
	case *ast.LoopStmt:
		return diag.NewCompileError(c.pos(c.file, st.Pos), "loop statements are not supported in the VM back-end yet")
	case *ast.MatchStmt:
		return diag.NewCompileError(c.pos(c.file, st.Pos), "match statements are not supported in the VM back-end yet")
	default:
		return diag.NewCompileError(diag.Pos{File: c.file}, "unsupported statement kind %T", s)
	}
}

// compileDef pushes the value then extends the frame's local region by one
// slot (ALLOC_LOCAL): the just-pushed value is already sitting exactly where
// the new local slot needs to be, so no separate SET_LOCAL is needed (that
// opcode is reserved for re-assigning an existing slot — see AssignStmt).
func (c *compiler) compileDef(st *ast.DefStmt) error {
	if err := c.compileExpr(st.Value); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpAllocLocal, st.Pos.Line)
	c.declareLocal(st.Name)
	return nil
}

func (c *compiler) compileRet(st *ast.RetStmt) error {
	if len(st.Values) > 1 {
		return diag.NewCompileError(c.pos(c.file, st.Pos), "multi-valued ret is not supported in the VM back-end yet")
	}
	if len(st.Values) == 1 {
		if st.Values[0].Label != "" {
			return diag.NewCompileError(c.pos(c.file, st.Pos), "labeled ret is not supported in the VM back-end yet")
		}
		if err := c.compileExpr(st.Values[0].Value); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpReturn, st.Pos.Line)
		c.chunk.EmitByte(1, st.Pos.Line)
		return nil
	}
	c.chunk.Emit(chunk.OpReturn, st.Pos.Line)
	c.chunk.EmitByte(0, st.Pos.Line)
	return nil
}

func (c *compiler) compileIf(st *ast.IfStmt) error {
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpJumpIfFalse, st.Pos.Line)
	elseOperand := c.chunk.EmitU16(0, st.Pos.Line)

	c.pushScope()
	if err := c.compileBlock(st.Then); err != nil {
		return err
	}
	c.popScope()

	if st.Else == nil {
		c.chunk.PatchU16(elseOperand, uint16(len(c.chunk.Code)))
		return nil
	}

	c.chunk.Emit(chunk.OpJump, st.Pos.Line)
	endOperand := c.chunk.EmitU16(0, st.Pos.Line)

	c.chunk.PatchU16(elseOperand, uint16(len(c.chunk.Code)))
	c.pushScope()
	if err := c.compileBlock(st.Else); err != nil {
		return err
	}
	c.popScope()
	c.chunk.PatchU16(endOperand, uint16(len(c.chunk.Code)))
	return nil
}

func (c *compiler) compileBlock(b *ast.Block) error {
	for _, stmt := range b.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileExpr lowers one expression; every branch leaves exactly one Value
// on the stack (spec.md §8's stack-balance property, extended to
// sub-expressions).
func (c *compiler) compileExpr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.IntegerLit:
		v, err := parseIntLiteral(x.Text)
		if err != nil {
			return diag.NewCompileError(c.pos(c.file, x.Pos), "%v", err)
		}
		c.emitConstant(value.Int(v), x.Pos.Line)
		return nil
	case *ast.FloatLit:
		f, err := parseFloatLiteral(x.Text)
		if err != nil {
			return diag.NewCompileError(c.pos(c.file, x.Pos), "%v", err)
		}
		c.emitConstant(value.Float(f), x.Pos.Line)
		return nil
	case *ast.StringLit:
		c.emitConstant(value.String(x.Value), x.Pos.Line)
		return nil
	case *ast.CharLit:
		c.emitConstant(value.Char(x.Value), x.Pos.Line)
		return nil
	case *ast.BoolLit:
		c.emitConstant(value.Bool(x.Value), x.Pos.Line)
		return nil
	case *ast.NoneLit:
		c.emitConstant(value.None(), x.Pos.Line)
		return nil
	case *ast.InterpStringLit:
		return c.compileInterp(x)
	case *ast.Ident:
		return c.compileIdent(x)
	case *ast.BinaryExpr:
		return c.compileBinary(x)
	case *ast.UnaryExpr:
		return c.compileUnary(x)
	case *ast.CallExpr:
		return c.compileCall(x)
	case *ast.ObjectLit:
		return c.compileObjectLit(x)
	case *ast.ListLit:
		return c.compileListLit(x)
	case *ast.RangeExpr:
		return c.compileRange(x)
	case *ast.IndexExpr:
		return c.compileIndex(x)
	case *ast.MatchExpr:
		return c.compileMatchExpr(x)
	case *ast.MemberExpr:
		return c.compileMember(x)
	default:
		return diag.NewCompileError(diag.Pos{File: c.file}, "expression kind %T is not supported in the VM back-end yet", e)
	}
}

func (c *compiler) emitConstant(v value.Value, line int) {
	idx := c.chunk.AddConstant(v)
	c.chunk.Emit(chunk.OpConstant, line)
	c.chunk.EmitU16(idx, line)
}

func (c *compiler) compileIdent(x *ast.Ident) error {
	slot, ok := c.resolveLocal(x.Name)
	if !ok {
		return diag.NewCompileError(c.pos(c.file, x.Pos), "unknown identifier %q", x.Name)
	}
	c.chunk.Emit(chunk.OpGetLocal, x.Pos.Line)
	c.chunk.EmitByte(byte(slot), x.Pos.Line)
	return nil
}

func (c *compiler) compileInterp(x *ast.InterpStringLit) error {
	// Desugars to nested string_concat-style ADD folding over string
	// constants and evaluated sub-expressions, left to right.
	first := true
	for _, seg := range x.Segments {
		if seg.Expr != nil {
			if err := c.compileExpr(seg.Expr); err != nil {
				return err
			}
		} else {
			c.emitConstant(value.String(seg.Literal), x.Pos.Line)
		}
		if !first {
			c.chunk.Emit(chunk.OpAdd, x.Pos.Line)
		}
		first = false
	}
	if first {
		c.emitConstant(value.String(""), x.Pos.Line)
	}
	return nil
}

func (c *compiler) compileBinary(x *ast.BinaryExpr) error {
	switch x.Op.String() {
	case "and":
		return c.compileAnd(x)
	case "or":
		return c.compileOr(x)
	}
	if err := c.compileExpr(x.LHS); err != nil {
		return err
	}
	if err := c.compileExpr(x.RHS); err != nil {
		return err
	}
	op, ok := opFor(x.Op.String())
	if !ok {
		return diag.NewCompileError(c.pos(c.file, x.Pos), "unsupported binary operator %q", x.Op)
	}
	c.chunk.Emit(op, x.Pos.Line)
	return nil
}

func opFor(sym string) (chunk.Op, bool) {
	switch sym {
	case "+":
		return chunk.OpAdd, true
	case "-":
		return chunk.OpSub, true
	case "*":
		return chunk.OpMul, true
	case "/":
		return chunk.OpDiv, true
	case "%":
		return chunk.OpMod, true
	case "<":
		return chunk.OpLt, true
	case "<=":
		return chunk.OpLe, true
	case ">":
		return chunk.OpGt, true
	case ">=":
		return chunk.OpGe, true
	case "==":
		return chunk.OpEq, true
	case "!=":
		return chunk.OpNe, true
	default:
		return 0, false
	}
}

// compileAnd lowers `a and b` as: evaluate a, DUP, JUMP_IF_FALSE past b
// (leaving a's falsy value as the result), else POP the dup'd copy and
// evaluate b (spec.md §4.4's "duplicate the short-circuit result").
func (c *compiler) compileAnd(x *ast.BinaryExpr) error {
	if err := c.compileExpr(x.LHS); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpDup, x.Pos.Line)
	c.chunk.Emit(chunk.OpJumpIfFalse, x.Pos.Line)
	toEnd := c.chunk.EmitU16(0, x.Pos.Line)
	c.chunk.Emit(chunk.OpPop, x.Pos.Line)
	if err := c.compileExpr(x.RHS); err != nil {
		return err
	}
	c.chunk.PatchU16(toEnd, uint16(len(c.chunk.Code)))
	return nil
}

// compileOr lowers `a or b` the mirror way: DUP, JUMP_IF_FALSE to the RHS
// branch (discarding the falsy dup'd copy first), else keep a as the result.
func (c *compiler) compileOr(x *ast.BinaryExpr) error {
	if err := c.compileExpr(x.LHS); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpDup, x.Pos.Line)
	c.chunk.Emit(chunk.OpJumpIfFalse, x.Pos.Line)
	toRHS := c.chunk.EmitU16(0, x.Pos.Line)
	c.chunk.Emit(chunk.OpJump, x.Pos.Line)
	toEnd := c.chunk.EmitU16(0, x.Pos.Line)
	c.chunk.PatchU16(toRHS, uint16(len(c.chunk.Code)))
	c.chunk.Emit(chunk.OpPop, x.Pos.Line)
	if err := c.compileExpr(x.RHS); err != nil {
		return err
	}
	c.chunk.PatchU16(toEnd, uint16(len(c.chunk.Code)))
	return nil
}

func (c *compiler) compileUnary(x *ast.UnaryExpr) error {
	switch x.Op.String() {
	case "spawn":
		// spawn lowers to plain evaluation of the operand (spec.md §4.4,
		// §9 Open Question: undecided whether a future concurrency
		// primitive).
		return c.compileExpr(x.Operand)
	case "-":
		if err := c.compileExpr(x.Operand); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpNeg, x.Pos.Line)
		return nil
	case "not":
		if err := c.compileExpr(x.Operand); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpNot, x.Pos.Line)
		return nil
	default:
		return diag.NewCompileError(c.pos(c.file, x.Pos), "unsupported unary operator %q", x.Op)
	}
}

func (c *compiler) compileCall(x *ast.CallExpr) error {
	callee, ok := x.Callee.(*ast.Ident)
	if !ok {
		return diag.NewCompileError(c.pos(c.file, x.Pos),
			"call target must be a direct identifier (current VM back-end limitation)")
	}
	if callee.Name == "log" || callee.Name == "logS" {
		return c.compileLog(callee.Name, x)
	}
	fe, ok := c.funcs[callee.Name]
	if !ok {
		return diag.NewCompileError(c.pos(c.file, x.Pos), "unknown function %q", callee.Name)
	}
	if len(x.Args) != len(fe.decl.Params) {
		return diag.NewCompileError(c.pos(c.file, x.Pos),
			"%q expects %d argument(s) but call has %d", callee.Name, len(fe.decl.Params), len(x.Args))
	}
	for _, a := range x.Args {
		if err := c.compileExpr(a.Value); err != nil {
			return err
		}
	}
	if fe.decl.IsExtern {
		nameIdx := c.chunk.AddConstant(value.String(callee.Name))
		c.chunk.Emit(chunk.OpNativeCall, x.Pos.Line)
		c.chunk.EmitU16(nameIdx, x.Pos.Line)
		c.chunk.EmitByte(byte(len(x.Args)), x.Pos.Line)
		return nil
	}
	c.emitCallByName(callee.Name, byte(len(x.Args)), x.Pos.Line)
	return nil
}

func (c *compiler) compileLog(name string, x *ast.CallExpr) error {
	if len(x.Args) != 1 {
		return diag.NewCompileError(c.pos(c.file, x.Pos), "%s expects exactly one argument", name)
	}
	if err := c.compileExpr(x.Args[0].Value); err != nil {
		return err
	}
	if name == "log" {
		c.chunk.Emit(chunk.OpLog, x.Pos.Line)
	} else {
		c.chunk.Emit(chunk.OpLogS, x.Pos.Line)
	}
	c.chunk.EmitByte(1, x.Pos.Line)
	// LOG/LOG_S consume their argument and push nothing; a log call still
	// yields none so the expression leaves one value like every other.
	c.emitConstant(value.None(), x.Pos.Line)
	return nil
}

// compileMember lowers `object.name` to GET_FIELD with the field name as a
// constant-pool string.
func (c *compiler) compileMember(x *ast.MemberExpr) error {
	if err := c.compileExpr(x.Object); err != nil {
		return err
	}
	nameIdx := c.chunk.AddConstant(value.String(x.Name))
	c.chunk.Emit(chunk.OpGetField, x.Pos.Line)
	c.chunk.EmitU16(nameIdx, x.Pos.Line)
	return nil
}

func (c *compiler) compileObjectLit(x *ast.ObjectLit) error {
	fields := make([]string, len(x.Fields))
	for i, f := range x.Fields {
		fields[i] = f.Name
	}
	var typeIdx int
	if x.Type != nil && len(x.Type.Path) == 1 {
		typeIdx = c.chunk.AddNamedType(x.Type.Path[0], fields)
	} else {
		typeIdx = c.chunk.AddAnonType(fields)
	}
	for _, f := range x.Fields {
		if err := c.compileExpr(f.Value); err != nil {
			return err
		}
	}
	c.chunk.Emit(chunk.OpConstruct, x.Pos.Line)
	c.chunk.EmitU16(uint16(typeIdx), x.Pos.Line)
	return nil
}

func (c *compiler) compileListLit(x *ast.ListLit) error {
	for _, e := range x.Elems {
		if err := c.compileExpr(e); err != nil {
			return err
		}
	}
	c.chunk.Emit(chunk.OpMakeList, x.Pos.Line)
	c.chunk.EmitU16(uint16(len(x.Elems)), x.Pos.Line)
	return nil
}

func (c *compiler) compileRange(x *ast.RangeExpr) error {
	if err := c.compileExpr(x.Low); err != nil {
		return err
	}
	if err := c.compileExpr(x.High); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpMakeRange, x.Pos.Line)
	return nil
}

func (c *compiler) compileIndex(x *ast.IndexExpr) error {
	if err := c.compileExpr(x.Target); err != nil {
		return err
	}
	if err := c.compileExpr(x.Index); err != nil {
		return err
	}
	c.chunk.Emit(chunk.OpIndex, x.Pos.Line)
	return nil
}

// compileMatchExpr lowers `match subject { pattern => value ... default =>
// value }` to a chain of DUP/EQ/JUMP_IF_FALSE comparisons, keeping the
// subject on the value stack (rather than a frame-local slot) so the
// lowering is correct regardless of what else is already on the stack —
// a match expression nested inside another expression (e.g. `1 +
// match y { ... }`) runs with live temporaries beneath it, and a synthetic
// local's slot position is only ever valid at the contiguous top of a
// frame's locals (spec.md §4.5), which a nested expression does not
// guarantee. Same DUP-then-POP-the-loser discipline as compileAnd/compileOr.
func (c *compiler) compileMatchExpr(x *ast.MatchExpr) error {
	if err := c.compileExpr(x.Subject); err != nil {
		return err
	}

	var endJumps []int
	sawDefault := false
	for _, arm := range x.Arms {
		if arm.IsDefault {
			sawDefault = true
			c.chunk.Emit(chunk.OpPop, x.Pos.Line) // discard the subject
			if err := c.compileExpr(arm.Value); err != nil {
				return err
			}
			break
		}
		c.chunk.Emit(chunk.OpDup, x.Pos.Line)
		if err := c.compileExpr(arm.Pattern); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpEq, x.Pos.Line)
		c.chunk.Emit(chunk.OpJumpIfFalse, x.Pos.Line)
		nextOperand := c.chunk.EmitU16(0, x.Pos.Line)

		c.chunk.Emit(chunk.OpPop, x.Pos.Line) // matched: discard the subject
		if err := c.compileExpr(arm.Value); err != nil {
			return err
		}
		c.chunk.Emit(chunk.OpJump, x.Pos.Line)
		endJumps = append(endJumps, c.chunk.EmitU16(0, x.Pos.Line))

		c.chunk.PatchU16(nextOperand, uint16(len(c.chunk.Code)))
	}
	if !sawDefault {
		// No arm matched and there's no default: discard the subject and
		// push none rather than leaving the expression's stack slot empty.
		c.chunk.Emit(chunk.OpPop, x.Pos.Line)
		c.emitConstant(value.None(), x.Pos.Line)
	}
	for _, off := range endJumps {
		c.chunk.PatchU16(off, uint16(len(c.chunk.Code)))
	}
	return nil
}

func parseIntLiteral(text string) (int64, error) {
	// spec.md §9's Open Question: integer literal overflow is not detected
	// by the original; this mirrors that by truncating rather than
	// rejecting an out-of-range literal.
	var n int64
	for i := 0; i < len(text); i++ {
		d := text[i]
		if d < '0' || d > '9' {
			return 0, errors.Errorf("invalid integer literal %q", text)
		}
		n = n*10 + int64(d-'0')
	}
	return n, nil
}

func parseFloatLiteral(text string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(text, "%g", &f)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid float literal %q", text)
	}
	return f, nil
}
