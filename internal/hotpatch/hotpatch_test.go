package hotpatch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/chunk"
	"github.com/jonaskivi/rae-sub000/internal/compiler"
	"github.com/jonaskivi/rae-sub000/internal/natives"
	"github.com/jonaskivi/rae-sub000/internal/parser"
	"github.com/jonaskivi/rae-sub000/internal/value"
	"github.com/jonaskivi/rae-sub000/internal/vm"
)

func compileSrc(t *testing.T, src string) *chunk.Chunk {
	t.Helper()
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	c, err := compiler.Compile([]compiler.ModuleDecls{{File: "t.rae", Decls: mod.Decls}})
	require.NoError(t, err)
	return c
}

func runChunk(t *testing.T, c *chunk.Chunk) string {
	t.Helper()
	var buf bytes.Buffer
	m := vm.New(c, natives.New(), vm.Output(&buf))
	res, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, vm.ResultOK, res)
	return buf.String()
}

// TestApplyRedirectsCallsToNewBody mirrors spec.md §8's hot-patch scenario:
// after patching, the live chunk's own synthetic entry call (still carrying
// greet's old address) lands on the installed trampoline and runs the new
// body.
func TestApplyRedirectsCallsToNewBody(t *testing.T) {
	live := compileSrc(t, `func greet(): ret string {
	ret "v1"
}
func main() {
	log(greet())
}`)
	assert.Equal(t, "v1\n", runChunk(t, live))

	next := compileSrc(t, `func greet(): ret string {
	ret "v2"
}
func main() {
	log(greet())
}`)

	res, err := Apply(live, next)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"greet", "main"}, res.Patched)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, "v2\n", runChunk(t, live))
}

func TestApplyAddsNewFunction(t *testing.T) {
	live := compileSrc(t, `func main() {
	log("hi")
}`)
	next := compileSrc(t, `func helper(): ret int {
	ret 9
}
func main() {
	log(helper())
}`)

	res, err := Apply(live, next)
	require.NoError(t, err)
	assert.Contains(t, res.Added, "helper")
	assert.Contains(t, res.Patched, "main")

	idx, ok := live.FuncIndex["helper"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, live.Funcs[idx].Addr, len(live.Code)-len(next.Code))
}

func TestApplyShiftsConstantsAndCode(t *testing.T) {
	live := compileSrc(t, `func main() {
	log("a")
}`)
	L := len(live.Code)
	K := len(live.Constants)

	next := compileSrc(t, `func main() {
	log("b")
	log("c")
}`)
	nextCodeLen := len(next.Code)
	nextConstLen := len(next.Constants)

	_, err := Apply(live, next)
	require.NoError(t, err)

	assert.Equal(t, L+nextCodeLen, len(live.Code))
	assert.Equal(t, K+nextConstLen, len(live.Constants))
}

func TestApplySkipsPrologueTooSmallForTrampoline(t *testing.T) {
	live := chunk.New()
	live.Emit(chunk.OpReturn, 1)
	live.EmitByte(0, 1)
	live.AddFunc(chunk.FuncInfo{Name: "tiny", Addr: 0, Arity: 0})

	next := chunk.New()
	next.Emit(chunk.OpConstant, 1)
	next.EmitU16(next.AddConstant(value.Int(1)), 1)
	next.Emit(chunk.OpReturn, 1)
	next.EmitByte(1, 1)
	next.AddFunc(chunk.FuncInfo{Name: "tiny", Addr: 0, Arity: 0, NumReturn: 1})

	res, err := Apply(live, next)
	require.NoError(t, err)
	assert.Empty(t, res.Patched)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "tiny", res.Skipped[0].Function)

	// The old address is left exactly as it was and the new body is never
	// registered, so the new version of tiny is unreachable, per spec.md §4.7.
	assert.Equal(t, chunk.OpReturn, chunk.Op(live.Code[0]))
}

func TestRelocateShiftsConstantCallAndNativeOperands(t *testing.T) {
	c := chunk.New()
	c.Emit(chunk.OpConstant, 1)
	c.EmitU16(10, 1)
	c.Emit(chunk.OpCall, 1)
	c.EmitU16(20, 1)
	c.EmitByte(0, 1)
	c.Emit(chunk.OpNativeCall, 1)
	c.EmitU16(5, 1)
	c.EmitByte(2, 1)

	require.NoError(t, relocate(c.Code, 100, 1000, 7))

	assert.Equal(t, uint16(110), c.ReadU16(1))
	assert.Equal(t, uint16(1020), c.ReadU16(4))
	assert.Equal(t, uint16(105), c.ReadU16(8))
}

func TestRelocateOverflowIsError(t *testing.T) {
	c := chunk.New()
	c.Emit(chunk.OpConstant, 1)
	c.EmitU16(0xFFFE, 1)

	err := relocate(c.Code, 10, 0, 0)
	require.Error(t, err)
}
