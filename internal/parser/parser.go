// Package parser implements the recursive-descent, Pratt-precedence parser
// described in spec.md §4.2. It is grounded on the teacher's asm/parser.go
// (operator handling, single-pass error collection) and on
// original_source/compiler/src/parser.c for grammar shape where spec.md is
// silent on a detail (object-literal-vs-grouping lookahead, destructure
// disambiguation).
package parser

import (
	"github.com/jonaskivi/rae-sub000/internal/arena"
	"github.com/jonaskivi/rae-sub000/internal/ast"
	"github.com/jonaskivi/rae-sub000/internal/diag"
	"github.com/jonaskivi/rae-sub000/internal/lexer"
	"github.com/jonaskivi/rae-sub000/internal/token"
)

// parser holds the full token stream for one file. Like the teacher's
// asm/parser.go, the first syntax error aborts parsing immediately (spec.md
// §4.2's error model); unlike the assembler, there is no multi-error
// accumulation because the module graph loader (spec.md §4.3) needs to stop
// at the first bad file rather than keep trying to resolve imports from a
// partially-broken AST.
type parser struct {
	file string
	toks []token.Token
	pos  int
}

// ParseModule tokenizes and parses one source file into an *ast.Module.
// Comments are returned separately for the pretty-printer (spec.md §4.1).
func ParseModule(file string, src []byte) (*ast.Module, []token.Comment, error) {
	toks, comments, err := lexer.Tokenize(file, src)
	if err != nil {
		return nil, comments, err
	}
	p := &parser{file: file, toks: toks}
	mod, err := p.parseModule()
	return mod, comments, err
}

// ParseModuleWithArena is ParseModule, but identifier lexemes are interned
// into a instead of each file allocating its own copies. internal/modgraph
// uses this to share one arena across every module reachable from a
// compilation's entry point (spec.md §5).
func ParseModuleWithArena(file string, src []byte, a *arena.Arena) (*ast.Module, []token.Comment, error) {
	toks, comments, err := lexer.TokenizeWithArena(file, src, a)
	if err != nil {
		return nil, comments, err
	}
	p := &parser{file: file, toks: toks}
	mod, err := p.parseModule()
	return mod, comments, err
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) at(k token.Kind) bool { return p.cur().Kind == k }
func (p *parser) atEOF() bool       { return p.cur().Kind == token.EOF }

func (p *parser) next() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) errf(pos token.Pos, format string, args ...interface{}) error {
	return diag.NewSyntaxError(diag.Pos{File: p.file, Line: pos.Line, Col: pos.Col}, format, args...)
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, p.errf(p.cur().Pos, "expected %s, got %s %q", k, p.cur().Kind, p.cur().Lexeme)
	}
	return p.next(), nil
}

func (p *parser) expectIdent() (string, token.Pos, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return "", token.Pos{}, err
	}
	return t.Lexeme, t.Pos, nil
}

// ---- module / declarations ----

func (p *parser) parseModule() (_ *ast.Module, err error) {
	defer catchParseError(&err)
	mod := &ast.Module{FileName: p.file}
	for p.at(token.KwImport) || p.at(token.KwExport) {
		export := p.at(token.KwExport)
		pos := p.cur().Pos
		p.next()
		str, serr := p.expect(token.String)
		if serr != nil {
			return nil, serr
		}
		mod.Imports = append(mod.Imports, ast.ImportClause{Export: export, Path: str.Lexeme, Pos: pos})
	}
	for !p.atEOF() {
		d, derr := p.parseDecl()
		if derr != nil {
			return nil, derr
		}
		mod.Decls = append(mod.Decls, d)
	}
	return mod, nil
}

// catchParseError turns a panic(parseErr) raised by must-helpers back into a
// returned error, keeping the recursive-descent body free of error-plumbing
// boilerplate on every single must(...) call, similar in spirit to the
// teacher's errs-accumulate-then-return-at-end style in asm/parser.go.
type parseErr struct{ err error }

func catchParseError(errp *error) {
	if r := recover(); r != nil {
		if pe, ok := r.(parseErr); ok {
			*errp = pe.err
			return
		}
		panic(r)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(parseErr{err})
	}
	return v
}

func (p *parser) parseDecl() (ast.Decl, error) {
	switch {
	case p.at(token.KwType):
		return p.parseTypeDecl()
	case p.at(token.KwEnum):
		return p.parseEnumDecl()
	case p.at(token.KwExtern) || p.at(token.KwFunc):
		return p.parseFuncDecl()
	default:
		return nil, p.errf(p.cur().Pos, "expected declaration, got %s %q", p.cur().Kind, p.cur().Lexeme)
	}
}

func (p *parser) parseVisibility() ast.Visibility {
	switch p.cur().Kind {
	case token.KwPub:
		p.next()
		return ast.VisPub
	case token.KwPriv:
		p.next()
		return ast.VisPriv
	case token.KwPack:
		p.next()
		return ast.VisPack
	}
	return ast.VisDefault
}

func (p *parser) parseGenericParams() []string {
	if !p.at(token.LBracket) {
		return nil
	}
	p.next()
	var gs []string
	for !p.at(token.RBracket) {
		gs = append(gs, must(p.expectIdent()))
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next()
	return gs
}

func (p *parser) parseTypeDecl() (ast.Decl, error) {
	pos := p.cur().Pos
	p.next() // 'type'
	name := must(p.expectIdent())
	generics := p.parseGenericParams()
	vis := ast.VisDefault
	if p.at(token.Colon) {
		p.next()
		vis = p.parseVisibility()
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var fields []ast.FieldDecl
	for !p.at(token.RBrace) {
		fpos := p.cur().Pos
		fname := must(p.expectIdent())
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		ftype := p.parseTypeRef()
		fields = append(fields, ast.FieldDecl{Name: fname, Type: ftype, Pos: fpos})
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next() // '}'
	return &ast.TypeDecl{Name: name, Generics: generics, Visibility: vis, Fields: fields, Pos: pos}, nil
}

func (p *parser) parseEnumDecl() (ast.Decl, error) {
	pos := p.cur().Pos
	p.next() // 'enum'
	name := must(p.expectIdent())
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var cases []string
	for !p.at(token.RBrace) {
		cases = append(cases, must(p.expectIdent()))
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next()
	return &ast.EnumDecl{Name: name, Cases: cases, Pos: pos}, nil
}

func (p *parser) parseTypeRef() *ast.TypeRef {
	pos := p.cur().Pos
	t := &ast.TypeRef{Pos: pos}
loop:
	for {
		switch p.cur().Kind {
		case token.KwOpt:
			t.IsOpt = true
			p.next()
		case token.KwView:
			t.IsView = true
			p.next()
		case token.KwMod:
			t.IsMod = true
			p.next()
		case token.KwID:
			t.IsID = true
			p.next()
		case token.KwKey:
			t.IsKey = true
			p.next()
		default:
			break loop
		}
	}
	t.Path = append(t.Path, must(p.expectIdent()))
	for p.at(token.Dot) {
		p.next()
		t.Path = append(t.Path, must(p.expectIdent()))
	}
	if p.at(token.LBracket) {
		p.next()
		for !p.at(token.RBracket) {
			t.Args = append(t.Args, p.parseTypeRef())
			if p.at(token.Comma) {
				p.next()
			}
		}
		p.next()
	}
	return t
}

func (p *parser) parseParams() []ast.Param {
	must(p.expect(token.LParen))
	var params []ast.Param
	for !p.at(token.RParen) {
		pos := p.cur().Pos
		name := must(p.expectIdent())
		must(p.expect(token.Colon))
		typ := p.parseTypeRef()
		params = append(params, ast.Param{Name: name, Type: typ, Pos: pos})
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next()
	return params
}

func isModifierKeyword(k token.Kind) bool {
	return k == token.KwPub || k == token.KwPriv || k == token.KwSpawn
}

func (p *parser) parseFuncDecl() (ast.Decl, error) {
	pos := p.cur().Pos
	isExtern := p.at(token.KwExtern)
	if isExtern {
		p.next()
	}
	must(p.expect(token.KwFunc))
	name := must(p.expectIdent())
	generics := p.parseGenericParams()
	params := p.parseParams()

	var mods []string
	var returns []ast.ReturnItem
	if p.at(token.Colon) {
		p.next()
		for isModifierKeyword(p.cur().Kind) {
			mods = append(mods, p.cur().Lexeme)
			p.next()
		}
		if p.at(token.KwRet) {
			p.next()
			returns = p.parseReturnItems()
		}
	}

	var body *ast.Block
	if p.at(token.LBrace) {
		body = p.parseBlock()
	} else if !isExtern {
		return nil, p.errf(p.cur().Pos, "function %s requires a body unless declared extern", name)
	}
	if isExtern && body != nil {
		return nil, p.errf(pos, "extern function %s must not have a body", name)
	}
	return &ast.FuncDecl{
		Name: name, IsExtern: isExtern, Generics: generics, Params: params,
		Modifiers: mods, Returns: returns, Body: body, Pos: pos,
	}, nil
}

func (p *parser) parseReturnItems() []ast.ReturnItem {
	var items []ast.ReturnItem
	for {
		pos := p.cur().Pos
		label := ""
		// `label: Type` vs bare `Type`: a label is an identifier immediately
		// followed by ':' where what follows is not itself consumable as
		// part of the identifier's own type path (a bare type never starts
		// with "ident :").
		if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
			label = p.cur().Lexeme
			p.next()
			p.next()
		}
		typ := p.parseTypeRef()
		items = append(items, ast.ReturnItem{Label: label, Type: typ, Pos: pos})
		if p.at(token.Comma) {
			p.next()
			continue
		}
		break
	}
	return items
}

// ---- statements ----

func (p *parser) parseBlock() *ast.Block {
	pos := must(p.expect(token.LBrace)).Pos
	b := &ast.Block{Pos: pos}
	for !p.at(token.RBrace) {
		b.Stmts = append(b.Stmts, must(p.parseStmt()))
	}
	p.next()
	return b
}

func (p *parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.KwDef:
		return p.parseDefOrDestructure()
	case token.KwRet:
		return p.parseRet(), nil
	case token.KwIf:
		return p.parseIf(), nil
	case token.KwLoop:
		return p.parseLoop(), nil
	case token.KwMatch:
		return p.parseMatchStmt(), nil
	default:
		return p.parseAssignOrExpr(), nil
	}
}

func (p *parser) parseDefOrDestructure() (ast.Stmt, error) {
	pos := p.cur().Pos
	p.next() // 'def'
	name1, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var type1 *ast.TypeRef
	var label1 string
	if p.at(token.Colon) {
		p.next()
		type1 = p.parseTypeRef()
		if len(type1.Path) == 1 && type1.Args == nil && !type1.IsOpt && !type1.IsView && !type1.IsMod && !type1.IsID && !type1.IsKey {
			label1 = type1.Path[0]
		}
	}

	if p.at(token.Comma) && p.peekAt(1).Kind == token.KwDef {
		bindings := []ast.DestructureBinding{{LocalName: name1, ReturnName: label1, Pos: pos}}
		for p.at(token.Comma) {
			p.next()
			must(p.expect(token.KwDef))
			bp := p.cur().Pos
			bn := must(p.expectIdent())
			blabel := ""
			if p.at(token.Colon) {
				p.next()
				blabel = must(p.expectIdent())
			}
			bindings = append(bindings, ast.DestructureBinding{LocalName: bn, ReturnName: blabel, Pos: bp})
			if !(p.at(token.Comma) && p.peekAt(1).Kind == token.KwDef) {
				break
			}
		}
		if _, err := p.expect(token.Assign); err != nil {
			return nil, err
		}
		call := p.parseExpr()
		if !isCallLike(call) {
			return nil, p.errf(pos, "destructure statement requires a call (or spawn-of-call) right-hand side")
		}
		if len(bindings) < 2 {
			return nil, p.errf(pos, "destructure statement requires at least 2 bindings")
		}
		return &ast.DestructureStmt{Bindings: bindings, Call: call, Pos: pos}, nil
	}

	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	val := p.parseExpr()
	return &ast.DefStmt{Name: name1, Type: type1, Value: val, Pos: pos}, nil
}

func isCallLike(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.CallExpr:
		return true
	case *ast.UnaryExpr:
		return x.Op == token.KwSpawn && isCallLike(x.Operand)
	default:
		return false
	}
}

func (p *parser) parseRet() ast.Stmt {
	pos := p.cur().Pos
	p.next()
	var values []ast.RetValue
	if canStartExpr(p.cur().Kind) {
		for {
			label := ""
			if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
				label = p.cur().Lexeme
				p.next()
				p.next()
			}
			v := p.parseExpr()
			values = append(values, ast.RetValue{Label: label, Value: v})
			if p.at(token.Comma) {
				p.next()
				continue
			}
			break
		}
	}
	return &ast.RetStmt{Values: values, Pos: pos}
}

func canStartExpr(k token.Kind) bool {
	switch k {
	case token.RBrace, token.EOF, token.KwCase, token.KwDefault:
		return false
	default:
		return true
	}
}

func (p *parser) parseIf() ast.Stmt {
	pos := p.cur().Pos
	p.next()
	cond := p.parseExpr()
	then := p.parseBlock()
	var elseBlk *ast.Block
	if p.at(token.KwElse) {
		p.next()
		if p.at(token.KwIf) {
			inner := p.parseIf()
			elseBlk = &ast.Block{Stmts: []ast.Stmt{inner}, Pos: p.cur().Pos}
		} else {
			elseBlk = p.parseBlock()
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBlk, Pos: pos}
}

func (p *parser) parseLoop() ast.Stmt {
	pos := p.cur().Pos
	p.next() // 'loop'
	// range form: loop Ident (: Type)? in Expr Block
	if p.at(token.Ident) {
		save := p.pos
		name := p.cur().Lexeme
		p.next()
		if p.at(token.Colon) {
			p.next()
			p.parseTypeRef()
		}
		if p.at(token.KwIn) {
			p.next()
			rexpr := p.parseRangeOrExpr()
			body := p.parseBlock()
			return &ast.LoopStmt{IsRange: true, RangeVar: name, RangeExpr: rexpr, Body: body, Pos: pos}
		}
		p.pos = save
	}
	// while-style: loop Expr Block ; or bare `loop Block` (infinite loop).
	if p.at(token.LBrace) {
		body := p.parseBlock()
		return &ast.LoopStmt{Body: body, Pos: pos}
	}
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.LoopStmt{Cond: cond, Body: body, Pos: pos}
}

func (p *parser) parseRangeOrExpr() ast.Expr {
	lo := p.parseExpr()
	if p.at(token.DotDot) {
		pos := p.cur().Pos
		p.next()
		hi := p.parseExpr()
		return &ast.RangeExpr{Low: lo, High: hi, Pos: pos}
	}
	return lo
}

func (p *parser) parseMatchStmt() ast.Stmt {
	pos := p.cur().Pos
	p.next()
	subj := p.parseExpr()
	must(p.expect(token.LBrace))
	var cases []ast.MatchCase
	seenDefault := false
	// A case body is the run of statements up to the next case, default or
	// the closing brace; it is not wrapped in braces of its own.
	caseBody := func() *ast.Block {
		b := &ast.Block{Pos: p.cur().Pos}
		for !p.at(token.KwCase) && !p.at(token.KwDefault) && !p.at(token.RBrace) && !p.atEOF() {
			b.Stmts = append(b.Stmts, must(p.parseStmt()))
		}
		return b
	}
	for !p.at(token.RBrace) {
		cpos := p.cur().Pos
		if p.at(token.KwDefault) {
			if seenDefault {
				panic(parseErr{p.errf(cpos, "match statement may have at most one default case")})
			}
			seenDefault = true
			p.next()
			must(p.expect(token.Colon))
			body := caseBody()
			cases = append(cases, ast.MatchCase{IsDefault: true, Body: body, Pos: cpos})
			continue
		}
		must(p.expect(token.KwCase))
		pat := p.parseExpr()
		must(p.expect(token.Colon))
		body := caseBody()
		cases = append(cases, ast.MatchCase{Pattern: pat, Body: body, Pos: cpos})
	}
	p.next()
	if len(cases) == 0 {
		panic(parseErr{p.errf(pos, "match statement requires at least one case")})
	}
	return &ast.MatchStmt{Subject: subj, Cases: cases, Pos: pos}
}

func (p *parser) parseAssignOrExpr() ast.Stmt {
	pos := p.cur().Pos
	e := p.parseExpr()
	if p.at(token.Assign) {
		p.next()
		v := p.parseExpr()
		return &ast.AssignStmt{Target: e, Value: v, Pos: pos}
	}
	return &ast.ExprStmt{X: e, Pos: pos}
}

// ---- expressions ----

func (p *parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *parser) parseOr() ast.Expr {
	lhs := p.parseAnd()
	for p.at(token.KwOr) {
		pos := p.cur().Pos
		p.next()
		rhs := p.parseAnd()
		lhs = &ast.BinaryExpr{Op: token.KwOr, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *parser) parseAnd() ast.Expr {
	lhs := p.parseIs()
	for p.at(token.KwAnd) {
		pos := p.cur().Pos
		p.next()
		rhs := p.parseIs()
		lhs = &ast.BinaryExpr{Op: token.KwAnd, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *parser) parseIs() ast.Expr {
	lhs := p.parseComparison()
	for p.at(token.KwIs) {
		pos := p.cur().Pos
		p.next()
		rhs := p.parseComparison()
		lhs = &ast.BinaryExpr{Op: token.KwIs, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

var comparisonOps = map[token.Kind]bool{
	token.EqEq: true, token.NotEq: true, token.Less: true, token.LessEq: true,
	token.Greater: true, token.GreaterEq: true,
}

func (p *parser) parseComparison() ast.Expr {
	lhs := p.parseAdditive()
	for comparisonOps[p.cur().Kind] {
		op := p.cur().Kind
		pos := p.cur().Pos
		p.next()
		rhs := p.parseAdditive()
		lhs = &ast.BinaryExpr{Op: op, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *parser) parseAdditive() ast.Expr {
	lhs := p.parseMul()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.cur().Kind
		pos := p.cur().Pos
		p.next()
		rhs := p.parseMul()
		lhs = &ast.BinaryExpr{Op: op, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *parser) parseMul() ast.Expr {
	lhs := p.parseUnary()
	for p.at(token.Star) || p.at(token.Slash) || p.at(token.Percent) {
		op := p.cur().Kind
		pos := p.cur().Pos
		p.next()
		rhs := p.parseUnary()
		lhs = &ast.BinaryExpr{Op: op, LHS: lhs, RHS: rhs, Pos: pos}
	}
	return lhs
}

func (p *parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Minus, token.KwNot, token.KwSpawn:
		op := p.cur().Kind
		pos := p.cur().Pos
		p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: op, Operand: operand, Pos: pos}
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LParen:
			pos := p.cur().Pos
			args := p.parseArgs()
			e = &ast.CallExpr{Callee: e, Args: args, Pos: pos}
		case token.Dot:
			p.next()
			name, npos, err := p.expectIdent()
			if err != nil {
				panic(parseErr{err})
			}
			if p.at(token.LParen) {
				args := p.parseArgs()
				e = &ast.MethodCallExpr{Object: e, Name: name, Args: args, Pos: npos}
			} else {
				e = &ast.MemberExpr{Object: e, Name: name, Pos: npos}
			}
		case token.LBracket:
			pos := p.cur().Pos
			p.next()
			idx := p.parseExpr()
			must(p.expect(token.RBracket))
			e = &ast.IndexExpr{Target: e, Index: idx, Pos: pos}
		default:
			return e
		}
	}
}

func (p *parser) parseArgs() []ast.Arg {
	must(p.expect(token.LParen))
	var args []ast.Arg
	for !p.at(token.RParen) {
		if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
			name := p.cur().Lexeme
			p.next()
			p.next()
			v := p.parseExpr()
			args = append(args, ast.Arg{Name: name, Value: v})
		} else {
			v := p.parseExpr()
			args = append(args, ast.Arg{Value: v})
		}
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next()
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.Ident:
		p.next()
		return &ast.Ident{Name: t.Lexeme, Pos: t.Pos}
	case token.Integer:
		p.next()
		return &ast.IntegerLit{Text: t.Lexeme, Pos: t.Pos}
	case token.Float:
		p.next()
		return &ast.FloatLit{Text: t.Lexeme, Pos: t.Pos}
	case token.String:
		p.next()
		return &ast.StringLit{Value: t.Lexeme, Pos: t.Pos}
	case token.RawString:
		p.next()
		return &ast.StringLit{Value: t.Lexeme, Pos: t.Pos}
	case token.Char:
		p.next()
		r := []rune(t.Lexeme)
		var v rune
		if len(r) > 0 {
			v = r[0]
		}
		return &ast.CharLit{Value: v, Pos: t.Pos}
	case token.KwTrue:
		p.next()
		return &ast.BoolLit{Value: true, Pos: t.Pos}
	case token.KwFalse:
		p.next()
		return &ast.BoolLit{Value: false, Pos: t.Pos}
	case token.KwNone:
		p.next()
		return &ast.NoneLit{Pos: t.Pos}
	case token.StringStart:
		return p.parseInterpString()
	case token.LBracket:
		return p.parseBracketLiteral()
	case token.LParen:
		return p.parseParenExprOrObject()
	case token.KwMatch:
		return p.parseMatchExpr()
	default:
		panic(parseErr{p.errf(t.Pos, "unexpected token %s %q in expression", t.Kind, t.Lexeme)})
	}
}

func (p *parser) parseInterpString() ast.Expr {
	pos := p.cur().Pos
	start := p.next() // StringStart
	segs := []ast.InterpSegment{{Literal: start.Lexeme}}
	for {
		segs = append(segs, ast.InterpSegment{Expr: p.parseExpr()})
		switch p.cur().Kind {
		case token.StringMid:
			t := p.next()
			segs = append(segs, ast.InterpSegment{Literal: t.Lexeme})
		case token.StringEnd:
			t := p.next()
			segs = append(segs, ast.InterpSegment{Literal: t.Lexeme})
			return &ast.InterpStringLit{Segments: segs, Pos: pos}
		default:
			panic(parseErr{p.errf(p.cur().Pos, "malformed interpolated string")})
		}
	}
}

// parseBracketLiteral parses `[...]`, producing a ListLit for plain elements
// or a CollectionLit when elements use `key: value` pairs (spec.md's
// "collection literal (optionally-keyed elements)").
func (p *parser) parseBracketLiteral() ast.Expr {
	pos := p.cur().Pos
	p.next()
	if p.at(token.RBracket) {
		p.next()
		return &ast.ListLit{Pos: pos}
	}
	// Lookahead: does the first element look like `expr :`? We only need to
	// distinguish plain exprs from key:value pairs, and only identifiers and
	// literals are valid bare keys here, so a one-token lookahead for
	// "anything : " after a parsed primary is enough in practice; simplest
	// robust approach is to parse the first element as an expr and then
	// check for a following colon.
	first := p.parseExpr()
	if p.at(token.Colon) {
		p.next()
		val := p.parseExpr()
		elems := []ast.CollectionElem{{Key: first, Value: val}}
		for p.at(token.Comma) {
			p.next()
			if p.at(token.RBracket) {
				break
			}
			k := p.parseExpr()
			must(p.expect(token.Colon))
			v := p.parseExpr()
			elems = append(elems, ast.CollectionElem{Key: k, Value: v})
		}
		must(p.expect(token.RBracket))
		return &ast.CollectionLit{Elems: elems, Pos: pos}
	}
	elems := []ast.Expr{first}
	for p.at(token.Comma) {
		p.next()
		if p.at(token.RBracket) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	must(p.expect(token.RBracket))
	return &ast.ListLit{Elems: elems, Pos: pos}
}

// parseParenExprOrObject disambiguates `(expr)` grouping from `(field:
// expr, ...)` object-literal syntax by looking ahead for "ident :"
// (spec.md §4.2).
func (p *parser) parseParenExprOrObject() ast.Expr {
	pos := p.cur().Pos
	p.next() // '('
	if p.at(token.RParen) {
		p.next()
		return &ast.ObjectLit{Pos: pos}
	}
	if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
		var fields []ast.ObjectField
		for !p.at(token.RParen) {
			name := must(p.expectIdent())
			must(p.expect(token.Colon))
			v := p.parseExpr()
			fields = append(fields, ast.ObjectField{Name: name, Value: v})
			if p.at(token.Comma) {
				p.next()
			}
		}
		p.next()
		return &ast.ObjectLit{Fields: fields, Pos: pos}
	}
	e := p.parseExpr()
	must(p.expect(token.RParen))
	return e
}

func (p *parser) parseMatchExpr() ast.Expr {
	pos := p.cur().Pos
	p.next()
	subj := p.parseExpr()
	must(p.expect(token.LBrace))
	var arms []ast.MatchArm
	for !p.at(token.RBrace) {
		if p.at(token.KwDefault) {
			p.next()
			must(p.expect(token.FatArrow))
			v := p.parseExpr()
			arms = append(arms, ast.MatchArm{IsDefault: true, Value: v})
		} else {
			pat := p.parseExpr()
			must(p.expect(token.FatArrow))
			v := p.parseExpr()
			arms = append(arms, ast.MatchArm{Pattern: pat, Value: v})
		}
		if p.at(token.Comma) {
			p.next()
		}
	}
	p.next()
	return &ast.MatchExpr{Subject: subj, Arms: arms, Pos: pos}
}
