package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidManifest(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 1
  defaultTarget: app
  targets: {
    target app: {
      label: "Demo App"
      entry: "main.rae"
      sources: {
        source { path: "main.rae", emit: live }
        source { path: "util.rae", emit: compiled }
      }
    }
  }
}`
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "raepack", m.Format)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "app", m.DefaultTarget)
	require.Contains(t, m.Targets, "app")

	tgt := m.Targets["app"]
	assert.Equal(t, "Demo App", tgt.Label)
	assert.Equal(t, "main.rae", tgt.Entry)
	require.Len(t, tgt.Sources, 2)
	assert.Equal(t, "main.rae", tgt.Sources[0].Path)
	assert.Equal(t, EmitLive, tgt.Sources[0].Emit)
	assert.Equal(t, "util.rae", tgt.Sources[1].Path)
	assert.Equal(t, EmitCompiled, tgt.Sources[1].Emit)
}

func TestParseOptionalCommasAccepted(t *testing.T) {
	src := `pack demo {
  format: "raepack",
  version: 1,
  defaultTarget: app,
  targets: {
    target app: {
      entry: "main.rae",
      sources: { source { path: "main.rae", emit: hybrid } }
    }
  }
}`
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, EmitHybrid, m.Targets["app"].Sources[0].Emit)
}

func TestParseUnknownKeysAreSkipped(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 1
  defaultTarget: app
  author: "someone"
  extra: { nested: 1, more: "x" }
  targets: {
    target app: {
      entry: "main.rae"
      sources: { source { path: "main.rae", emit: live } }
    }
  }
}`
	_, err := Parse([]byte(src))
	require.NoError(t, err)
}

func TestValidateRejectsWrongFormat(t *testing.T) {
	src := `pack demo {
  format: "notraepack"
  version: 1
  defaultTarget: app
  targets: { target app: { entry: "main.rae", sources: { source { path: "main.rae", emit: live } } } }
}`
	_, err := Parse([]byte(src))
	assert.Error(t, err)
}

func TestValidateRejectsMissingDefaultTarget(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 1
  defaultTarget: missing
  targets: { target app: { entry: "main.rae", sources: { source { path: "main.rae", emit: live } } } }
}`
	_, err := Parse([]byte(src))
	assert.Error(t, err)
}

func TestValidateRejectsEntryNotInSources(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 1
  defaultTarget: app
  targets: { target app: { entry: "other.rae", sources: { source { path: "main.rae", emit: live } } } }
}`
	_, err := Parse([]byte(src))
	assert.Error(t, err)
}

func TestValidateRejectsTargetWithNoSources(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 1
  defaultTarget: app
  targets: { target app: { entry: "main.rae", sources: { } } }
}`
	_, err := Parse([]byte(src))
	assert.Error(t, err)
}

func TestIsManifestFile(t *testing.T) {
	assert.True(t, IsManifestFile("demo.raepack"))
	assert.False(t, IsManifestFile("demo.rae"))
}

func TestManifestString(t *testing.T) {
	src := `pack demo {
  format: "raepack"
  version: 2
  defaultTarget: app
  targets: { target app: { entry: "main.rae", sources: { source { path: "main.rae", emit: live } } } }
}`
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	s := m.String()
	assert.Contains(t, s, "demo")
	assert.Contains(t, s, "version=2")
}
