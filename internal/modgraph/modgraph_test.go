package modgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func TestLoadEntryOnly(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `func main() {
	log("hi")
}`)

	g, err := Load(entry)
	require.NoError(t, err)
	require.Len(t, g.Modules, 1)
	assert.Equal(t, "main", g.Modules[0].File)
}

func TestLoadResolvesImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.rae", `func helper(): ret int {
	ret 1
}`)
	entry := writeFile(t, dir, "main.rae", `import "util"
func main() {
	log(helper())
}`)

	g, err := Load(entry)
	require.NoError(t, err)
	require.Len(t, g.Modules, 2)
	// dependency-first: util is appended before main, the module that imports it.
	assert.Equal(t, "util", g.Modules[0].File)
	assert.Equal(t, "main", g.Modules[1].File)
}

func TestLoadDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rae", `import "b"
func a(): ret int { ret 1 }`)
	writeFile(t, dir, "b.rae", `import "a"
func b(): ret int { ret 2 }`)
	entry := writeFile(t, dir, "main.rae", `import "a"
func main() {}`)

	_, err := Load(entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic import")
}

func TestLoadDedupsDiamondImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.rae", `func shared(): ret int { ret 0 }`)
	writeFile(t, dir, "a.rae", `import "shared"
func a(): ret int { ret shared() }`)
	writeFile(t, dir, "b.rae", `import "shared"
func b(): ret int { ret shared() }`)
	entry := writeFile(t, dir, "main.rae", `import "a"
import "b"
func main() {
	log(a())
	log(b())
}`)

	g, err := Load(entry)
	require.NoError(t, err)
	// shared loaded once despite being imported by both a and b.
	require.Len(t, g.Modules, 4)
	seen := map[string]int{}
	for _, m := range g.Modules {
		seen[m.File]++
	}
	assert.Equal(t, 1, seen["shared"])
}

func TestLoadAutoImportSingleSibling(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `func main() {
	log("hi")
}`)
	writeFile(t, dir, "sub/extra.rae", `func extra(): ret int { ret 7 }`)

	g, err := Load(entry)
	require.NoError(t, err)
	require.Len(t, g.Modules, 2)
	var names []string
	for _, m := range g.Modules {
		names = append(names, m.File)
	}
	assert.Contains(t, names, "sub/extra")
}

func TestLoadAutoImportManifest(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `func main() {
	log("hi")
}`)
	writeFile(t, dir, "other.rae", `func other(): ret int { ret 3 }`)
	writeFile(t, dir, "pkg.raepack", "")

	g, err := Load(entry)
	require.NoError(t, err)
	require.Len(t, g.Modules, 2)
}

func TestLoadRootEscapeRejected(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `import "../outside"
func main() {}`)

	_, err := Load(entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the project root")
}

func TestFingerprintStableAcrossReloads(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `func main() {
	log("hi")
}`)

	g1, err := Load(entry)
	require.NoError(t, err)
	g2, err := Load(entry)
	require.NoError(t, err)
	assert.Equal(t, g1.Fingerprint, g2.Fingerprint)
	assert.NotZero(t, g1.Fingerprint)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.rae", `func main() {
	log("hi")
}`)
	g1, err := Load(entry)
	require.NoError(t, err)

	writeFile(t, dir, "main.rae", `func main() {
	log("bye")
}`)
	g2, err := Load(entry)
	require.NoError(t, err)
	assert.NotEqual(t, g1.Fingerprint, g2.Fingerprint)
}
