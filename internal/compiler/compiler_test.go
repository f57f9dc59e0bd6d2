package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/chunk"
	"github.com/jonaskivi/rae-sub000/internal/parser"
)

func mustCompile(t *testing.T, src string) *chunk.Chunk {
	t.Helper()
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	c, err := Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.NoError(t, err)
	return c
}

func TestCompileHelloWorld(t *testing.T) {
	c := mustCompile(t, `func main() {
	log("hello")
}`)
	require.NotEmpty(t, c.Code)
	_, ok := c.FuncIndex["main"]
	assert.True(t, ok)
}

func TestCompileCallAndReturn(t *testing.T) {
	src := `func add(a: int, b: int): ret int {
	ret a + b
}
func main() {
	log(add(2, 3))
}`
	c := mustCompile(t, src)
	assert.Equal(t, 2, c.Funcs[c.FuncIndex["add"]].Arity)
	assert.NotEqual(t, sentinelAddr, c.Funcs[c.FuncIndex["add"]].Addr)
}

func TestCompileArityMismatchIsCompileError(t *testing.T) {
	src := `func add(a: int, b: int): ret int {
	ret a + b
}
func main() {
	log(add(2))
}`
	_, _, perr := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, perr)
	mod, _, _ := parser.ParseModule("t.rae", []byte(src))
	_, err := Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 2 argument")
}

func TestCompileDuplicateFunctionIsCompileError(t *testing.T) {
	src := `func main() { ret 0 }
func main() { ret 1 }`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	_, err = Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate function definition")
}

func TestCompileUnknownIdentifierIsCompileError(t *testing.T) {
	src := `func main() {
	log(missing)
}`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	_, err = Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown identifier")
}

func TestCompileUnknownFunctionIsCompileError(t *testing.T) {
	src := `func main() {
	log(missing())
}`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	_, err = Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestCompileMultiReturnIsCompileError(t *testing.T) {
	src := `func pair(): ret int, int {
	ret 1, 2
}
func main() {}`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	_, err = Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
}

func TestCompileLoopStmtIsUnsupported(t *testing.T) {
	src := `func main() {
	loop i: int in 0..3 {
		ret i
	}
}`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	_, err = Compile([]ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported in the VM back-end yet")
}

func TestCompileIfElseEmitsTwoJumpPatches(t *testing.T) {
	src := `func main() {
	def x = 1
	if x == 1 {
		log("yes")
	} else {
		log("no")
	}
}`
	c := mustCompile(t, src)
	dis := c.Disassemble("t")
	assert.Contains(t, dis, "JUMP_IF_FALSE")
	assert.Contains(t, dis, "JUMP ")
}

func TestCompileAndOrUseDupLowering(t *testing.T) {
	src := `func main() {
	log(1 and 0)
	log(0 or 1)
}`
	c := mustCompile(t, src)
	dis := c.Disassemble("t")
	assert.Contains(t, dis, "DUP")
}

func TestCompileMatchExprLowersToComparisons(t *testing.T) {
	src := `func main() {
	def x = 2
	def y = match x {
		1 => 10,
		2 => 20,
		default => 0
	}
	log(y)
}`
	c := mustCompile(t, src)
	dis := c.Disassemble("t")
	assert.Contains(t, dis, "EQ")
}

func TestCompileExternCallLowersToNativeCall(t *testing.T) {
	src := `extern func string_len(s: string): ret int
func main() {
	log(string_len("hi"))
}`
	c := mustCompile(t, src)
	dis := c.Disassemble("t")
	assert.Contains(t, dis, "NATIVE_CALL")
}

func TestCompileObjectLiteralAndFieldAccess(t *testing.T) {
	src := `func main() {
	def p = (x: 1, y: 2)
	log(p.x)
}`
	c := mustCompile(t, src)
	require.Len(t, c.Types, 1)
	assert.Equal(t, []string{"x", "y"}, c.Types[0].Fields)
	dis := c.Disassemble("t")
	assert.Contains(t, dis, "CONSTRUCT")
	assert.Contains(t, dis, "GET_FIELD")
}
