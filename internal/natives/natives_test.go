package natives

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/value"
)

func TestPrintNative(t *testing.T) {
	var buf bytes.Buffer
	r := New(Output(&buf))
	idx, ok := r.Index("print")
	require.True(t, ok)
	_, err := r.Call(idx, []value.Value{value.Int(1), value.String("x")})
	require.NoError(t, err)
	assert.Equal(t, "1 x\n", buf.String())
}

func TestRandIntRange(t *testing.T) {
	r := New(Seed(1))
	idx, _ := r.Index("rand_int")
	for i := 0; i < 50; i++ {
		out, err := r.Call(idx, []value.Value{value.Int(5), value.Int(10)})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.True(t, out[0].I >= 5 && out[0].I < 10)
	}
}

func TestBufferAllocCopyResize(t *testing.T) {
	r := New()
	allocIdx, _ := r.Index("buffer_alloc")
	out, err := r.Call(allocIdx, []value.Value{value.Int(3)})
	require.NoError(t, err)
	dst := out[0]

	out2, _ := r.Call(allocIdx, []value.Value{value.Int(3)})
	src := out2[0]
	src.Arr.Elems[0] = value.Int(9)

	copyIdx, _ := r.Index("buffer_copy")
	n, err := r.Call(copyIdx, []value.Value{dst, src})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n[0].I)
	assert.Equal(t, int64(9), dst.Arr.Elems[0].I)

	resizeIdx, _ := r.Index("buffer_resize")
	out3, err := r.Call(resizeIdx, []value.Value{dst, value.Int(5)})
	require.NoError(t, err)
	assert.Len(t, out3[0].Arr.Elems, 5)
}

func TestEnsureGlobalAndSetGet(t *testing.T) {
	r := New()
	assert.False(t, r.GlobalInitialized(3))
	r.SetGlobal(3, value.Int(42))
	assert.True(t, r.GlobalInitialized(3))
	assert.Equal(t, value.Int(42), r.GetGlobal(3))
}

func TestKeyAndIDAreDistinctKinds(t *testing.T) {
	r := New()
	kIdx, _ := r.Index("key_new")
	iIdx, _ := r.Index("id_new")
	k, _ := r.Call(kIdx, nil)
	id, _ := r.Call(iIdx, nil)
	assert.Equal(t, value.KindKey, k[0].Kind)
	assert.Equal(t, value.KindID, id[0].Kind)
}

func TestUnknownNativeIndexErrors(t *testing.T) {
	r := New()
	_, err := r.Call(9999, nil)
	require.Error(t, err)
}
