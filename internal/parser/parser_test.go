package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/ast"
)

func TestParseSimpleFunc(t *testing.T) {
	src := `func add(a: int, b: int): ret int {
	ret a + b
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	require.Len(t, mod.Decls, 1)
	fn, ok := mod.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.False(t, fn.IsExtern)
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Returns, 1)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.RetStmt)
	require.True(t, ok)
	require.Len(t, ret.Values, 1)
	bin, ok := ret.Values[0].Value.(*ast.BinaryExpr)
	require.True(t, ok)
	_, lhsOK := bin.LHS.(*ast.Ident)
	_, rhsOK := bin.RHS.(*ast.Ident)
	assert.True(t, lhsOK)
	assert.True(t, rhsOK)
}

func TestParseExternFuncHasNoBody(t *testing.T) {
	mod, _, err := ParseModule("t.rae", []byte(`extern func write(s: string): ret int`))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	assert.True(t, fn.IsExtern)
	assert.Nil(t, fn.Body)
}

func TestExternFuncWithBodyIsError(t *testing.T) {
	_, _, err := ParseModule("t.rae", []byte(`extern func write(s: string): ret int { ret 1 }`))
	require.Error(t, err)
}

func TestNonExternFuncWithoutBodyIsError(t *testing.T) {
	_, _, err := ParseModule("t.rae", []byte(`func write(s: string): ret int`))
	require.Error(t, err)
}

func TestParseDestructure(t *testing.T) {
	src := `func main() {
	def a: x, def b: y = f()
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	ds, ok := fn.Body.Stmts[0].(*ast.DestructureStmt)
	require.True(t, ok)
	require.Len(t, ds.Bindings, 2)
	assert.Equal(t, "a", ds.Bindings[0].LocalName)
	assert.Equal(t, "x", ds.Bindings[0].ReturnName)
	assert.Equal(t, "b", ds.Bindings[1].LocalName)
	assert.Equal(t, "y", ds.Bindings[1].ReturnName)
	_, callOK := ds.Call.(*ast.CallExpr)
	assert.True(t, callOK)
}

func TestDestructureRequiresTwoBindings(t *testing.T) {
	src := `func main() {
	def a: x = f()
}`
	// single binding parses as a plain DefStmt with a type annotation named x,
	// not a destructure; confirm that's the shape we get.
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	def, ok := fn.Body.Stmts[0].(*ast.DefStmt)
	require.True(t, ok)
	assert.Equal(t, "a", def.Name)
}

func TestDestructureRequiresCallRHS(t *testing.T) {
	src := `func main() {
	def a: x, def b: y = 1
}`
	_, _, err := ParseModule("t.rae", []byte(src))
	require.Error(t, err)
}

func TestParseIfElse(t *testing.T) {
	src := `func main() {
	if a {
		ret 1
	} else if b {
		ret 2
	} else {
		ret 3
	}
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	ifs, ok := fn.Body.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.Else)
	require.Len(t, ifs.Else.Stmts, 1)
	_, elifOK := ifs.Else.Stmts[0].(*ast.IfStmt)
	assert.True(t, elifOK)
}

func TestParseRangeLoop(t *testing.T) {
	src := `func main() {
	loop i: int in 0..3 {
		ret i
	}
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	lp, ok := fn.Body.Stmts[0].(*ast.LoopStmt)
	require.True(t, ok)
	assert.True(t, lp.IsRange)
	assert.Equal(t, "i", lp.RangeVar)
	rng, ok := lp.RangeExpr.(*ast.RangeExpr)
	require.True(t, ok)
	_, lowOK := rng.Low.(*ast.IntegerLit)
	_, highOK := rng.High.(*ast.IntegerLit)
	assert.True(t, lowOK)
	assert.True(t, highOK)
}

func TestParseMatchStmt(t *testing.T) {
	src := `func main() {
	match x {
	case 1:
		ret 1
	default:
		ret 0
	}
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	ms, ok := fn.Body.Stmts[0].(*ast.MatchStmt)
	require.True(t, ok)
	require.Len(t, ms.Cases, 2)
	assert.False(t, ms.Cases[0].IsDefault)
	assert.True(t, ms.Cases[1].IsDefault)
}

func TestMatchStmtRequiresAtLeastOneCase(t *testing.T) {
	_, _, err := ParseModule("t.rae", []byte(`func main() { match x { } }`))
	require.Error(t, err)
}

func TestMatchStmtRejectsTwoDefaults(t *testing.T) {
	src := `func main() {
	match x {
	default:
		ret 1
	default:
		ret 2
	}
}`
	_, _, err := ParseModule("t.rae", []byte(src))
	require.Error(t, err)
}

func TestParseObjectLiteralVsGrouping(t *testing.T) {
	src := `func main() {
	def a = (x: 1, y: 2)
	def b = (1 + 2)
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	a := fn.Body.Stmts[0].(*ast.DefStmt)
	obj, ok := a.Value.(*ast.ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Fields, 2)
	assert.Equal(t, "x", obj.Fields[0].Name)

	b := fn.Body.Stmts[1].(*ast.DefStmt)
	_, binOK := b.Value.(*ast.BinaryExpr)
	assert.True(t, binOK)
}

func TestParseListAndCollectionLiterals(t *testing.T) {
	src := `func main() {
	def a = [1, 2, 3]
	def b = [1: "x", 2: "y"]
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	a := fn.Body.Stmts[0].(*ast.DefStmt)
	list, ok := a.Value.(*ast.ListLit)
	require.True(t, ok)
	assert.Len(t, list.Elems, 3)

	b := fn.Body.Stmts[1].(*ast.DefStmt)
	coll, ok := b.Value.(*ast.CollectionLit)
	require.True(t, ok)
	require.Len(t, coll.Elems, 2)
	assert.NotNil(t, coll.Elems[0].Key)
}

func TestParseCallAndMethodCallAndMember(t *testing.T) {
	src := `func main() {
	a.b
	a.b(1, name: 2)
	a(1, 2)
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 3)

	es1 := fn.Body.Stmts[0].(*ast.ExprStmt)
	_, memberOK := es1.X.(*ast.MemberExpr)
	assert.True(t, memberOK)

	es2 := fn.Body.Stmts[1].(*ast.ExprStmt)
	mc, ok := es2.X.(*ast.MethodCallExpr)
	require.True(t, ok)
	require.Len(t, mc.Args, 2)
	assert.Equal(t, "name", mc.Args[1].Name)

	es3 := fn.Body.Stmts[2].(*ast.ExprStmt)
	call, ok := es3.X.(*ast.CallExpr)
	require.True(t, ok)
	_, calleeOK := call.Callee.(*ast.Ident)
	assert.True(t, calleeOK)
}

func TestParseInterpolatedStringExpr(t *testing.T) {
	src := "func main() {\n\tdef a = \"x{1}y\"\n}"
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	def := fn.Body.Stmts[0].(*ast.DefStmt)
	lit, ok := def.Value.(*ast.InterpStringLit)
	require.True(t, ok)
	require.Len(t, lit.Segments, 3)
	assert.Equal(t, "x", lit.Segments[0].Literal)
	assert.NotNil(t, lit.Segments[1].Expr)
	assert.Equal(t, "y", lit.Segments[2].Literal)
}

func TestParseMatchExpr(t *testing.T) {
	src := `func main() {
	def a = match x {
		1 => 10,
		default => 0,
	}
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	def := fn.Body.Stmts[0].(*ast.DefStmt)
	me, ok := def.Value.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, me.Arms, 2)
	assert.False(t, me.Arms[0].IsDefault)
	assert.True(t, me.Arms[1].IsDefault)
}

func TestParseTypeDeclAndEnum(t *testing.T) {
	src := `type Point: pub {
	x: int
	y: int
}
enum Color {
	Red, Green, Blue
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	require.Len(t, mod.Decls, 2)
	td := mod.Decls[0].(*ast.TypeDecl)
	assert.Equal(t, "Point", td.Name)
	assert.Equal(t, ast.VisPub, td.Visibility)
	require.Len(t, td.Fields, 2)

	ed := mod.Decls[1].(*ast.EnumDecl)
	assert.Equal(t, "Color", ed.Name)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, ed.Cases)
}

func TestParseImportsAndTypeRefModifiers(t *testing.T) {
	src := `import "other"
export "shared"
func f(a: view mod opt id key Thing[int]): ret int {
	ret 1
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	require.Len(t, mod.Imports, 2)
	assert.False(t, mod.Imports[0].Export)
	assert.True(t, mod.Imports[1].Export)

	fn := mod.Decls[0].(*ast.FuncDecl)
	pt := fn.Params[0].Type
	assert.True(t, pt.IsView)
	assert.True(t, pt.IsMod)
	assert.True(t, pt.IsOpt)
	assert.True(t, pt.IsID)
	assert.True(t, pt.IsKey)
	assert.Equal(t, []string{"Thing"}, pt.Path)
	require.Len(t, pt.Args, 1)
	assert.Equal(t, []string{"int"}, pt.Args[0].Path)
}

func TestParseWhileStyleAndInfiniteLoop(t *testing.T) {
	src := `func main() {
	loop x {
		ret 1
	}
	loop {
		ret 2
	}
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	lp1 := fn.Body.Stmts[0].(*ast.LoopStmt)
	assert.False(t, lp1.IsRange)
	assert.NotNil(t, lp1.Cond)

	lp2 := fn.Body.Stmts[1].(*ast.LoopStmt)
	assert.False(t, lp2.IsRange)
	assert.Nil(t, lp2.Cond)
}

func TestParseSpawnCall(t *testing.T) {
	src := `func main() {
	spawn f()
}`
	mod, _, err := ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	es := fn.Body.Stmts[0].(*ast.ExprStmt)
	un, ok := es.X.(*ast.UnaryExpr)
	require.True(t, ok)
	_, callOK := un.Operand.(*ast.CallExpr)
	assert.True(t, callOK)
}

func TestParseAssignStmt(t *testing.T) {
	mod, _, err := ParseModule("t.rae", []byte(`func main() { a = 1 }`))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	as, ok := fn.Body.Stmts[0].(*ast.AssignStmt)
	require.True(t, ok)
	_, targetOK := as.Target.(*ast.Ident)
	assert.True(t, targetOK)
}

func TestOperatorPrecedence(t *testing.T) {
	mod, _, err := ParseModule("t.rae", []byte(`func main() { def a = 1 + 2 * 3 }`))
	require.NoError(t, err)
	fn := mod.Decls[0].(*ast.FuncDecl)
	def := fn.Body.Stmts[0].(*ast.DefStmt)
	bin := def.Value.(*ast.BinaryExpr)
	assert.Equal(t, "+", bin.Op.String())
	_, rhsIsMul := bin.RHS.(*ast.BinaryExpr)
	assert.True(t, rhsIsMul)
}
