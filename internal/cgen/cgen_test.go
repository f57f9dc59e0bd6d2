package cgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/compiler"
	"github.com/jonaskivi/rae-sub000/internal/parser"
)

func modDecls(t *testing.T, file, src string) compiler.ModuleDecls {
	t.Helper()
	mod, _, err := parser.ParseModule(file, []byte(src))
	require.NoError(t, err)
	return compiler.ModuleDecls{File: file, Decls: mod.Decls}
}

func TestGenerateExternBecomesForwardDecl(t *testing.T) {
	decls := modDecls(t, "t.rae", `extern func write(s: string): ret int`)
	out, err := Generate([]compiler.ModuleDecls{decls})
	require.NoError(t, err)
	assert.Contains(t, out, "extern int64_t write(const char* s);")
}

func TestGenerateEmptyBodyFuncIsDeclOnly(t *testing.T) {
	decls := modDecls(t, "t.rae", `func noop() {
}`)
	out, err := Generate([]compiler.ModuleDecls{decls})
	require.NoError(t, err)
	assert.Contains(t, out, "void noop();")
	assert.Contains(t, out, "int main(void)")
}

func TestGenerateFuncWithBodyErrors(t *testing.T) {
	decls := modDecls(t, "t.rae", `func add(a: int, b: int): ret int {
  ret a + b
}`)
	_, err := Generate([]compiler.ModuleDecls{decls})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add")
}

func TestCTypeMapping(t *testing.T) {
	decls := modDecls(t, "t.rae", `extern func f(a: int, b: float, c: bool, d: char, e: string): ret int`)
	out, err := Generate([]compiler.ModuleDecls{decls})
	require.NoError(t, err)
	assert.Contains(t, out, "int64_t a")
	assert.Contains(t, out, "double b")
	assert.Contains(t, out, "int c")
	assert.Contains(t, out, "uint32_t d")
	assert.Contains(t, out, "const char* e")
}
