package printer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonaskivi/rae-sub000/internal/parser"
)

func TestPrintFuncRoundTripsStructure(t *testing.T) {
	src := `func add(a: int, b: int): ret int {
  ret a + b
}
`
	mod, comments, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	out, err := Print(mod, comments)
	require.NoError(t, err)
	assert.Contains(t, out, "func add(a: int, b: int)")
	assert.Contains(t, out, "ret ")

	// Printed output should itself parse back into an equivalent shape.
	mod2, _, err := parser.ParseModule("t.rae", []byte(out))
	require.NoError(t, err)
	require.Len(t, mod2.Decls, 1)
}

func TestPrintImports(t *testing.T) {
	src := `import "other"
export "shared"
func main() {
}
`
	mod, comments, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	out, err := Print(mod, comments)
	require.NoError(t, err)
	assert.Contains(t, out, `import "other"`)
	assert.Contains(t, out, `export "shared"`)
}

func TestPrintTypeDeclWithVisibility(t *testing.T) {
	src := `type Point: pub {
  x: int
  y: int
}
`
	mod, comments, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	out, err := Print(mod, comments)
	require.NoError(t, err)
	assert.Contains(t, out, "type Point: pub {")
	assert.Contains(t, out, "x: int")
	assert.Contains(t, out, "y: int")
}

func TestPrintTrailingCommentReattachment(t *testing.T) {
	src := `func main() {
  def x = 1  # initial value
}
`
	mod, comments, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, comments)
	out, err := Print(mod, comments)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	found := false
	for _, l := range lines {
		if strings.Contains(l, "def x = 1") {
			assert.Contains(t, l, "# initial value")
			found = true
		}
	}
	assert.True(t, found, "expected def statement line in output")
}

func TestDumpTreeIncludesDeclsAndImports(t *testing.T) {
	src := `import "io"
func main() {
  def x = 1
  ret
}
`
	mod, _, err := parser.ParseModule("t.rae", []byte(src))
	require.NoError(t, err)
	dump := DumpTree(mod)
	assert.Contains(t, dump, "Module")
	assert.Contains(t, dump, `import "io"`)
	assert.Contains(t, dump, "FuncDecl main")
	assert.Contains(t, dump, "Def x")
}
