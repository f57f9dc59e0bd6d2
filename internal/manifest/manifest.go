// Package manifest parses a `*.raepack` package manifest (spec.md §6), the
// toolchain's only configuration surface. It is an external collaborator
// per spec.md §1 and is grounded on the teacher's asm/parser.go: a
// hand-rolled recursive-descent reader over a token stream, applied here to
// the manifest's bareword-key / optional-comma / nested-`{ }`-block
// grammar instead of Forth assembly text.
package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
)

// Source describes one `source { path: "...", emit: live|compiled|hybrid }`
// entry within a target.
type Source struct {
	Path string
	Emit EmitMode
}

// EmitMode is the `emit:` value of a Source entry.
type EmitMode int

const (
	EmitLive EmitMode = iota
	EmitCompiled
	EmitHybrid
)

func (m EmitMode) String() string {
	switch m {
	case EmitCompiled:
		return "compiled"
	case EmitHybrid:
		return "hybrid"
	default:
		return "live"
	}
}

// Target is one `target <id>: { label, entry, sources }` block.
type Target struct {
	ID      string
	Label   string
	Entry   string
	Sources []Source
}

// Manifest is a fully parsed and validated `*.raepack` file (spec.md §6).
type Manifest struct {
	Name          string
	Format        string
	Version       int
	DefaultTarget string
	Targets       map[string]*Target
}

// Parse reads and validates a manifest's bytes. Required fields: `format
// "raepack"`, `version <positive int>`, `defaultTarget <ident>`, and a
// `targets { ... }` block with at least one target, each target declaring
// at least one source and an entry that is one of its own sources.
func Parse(src []byte) (*Manifest, error) {
	p := &parser{}
	p.s.Init(strings.NewReader(string(src)))
	p.s.Mode = scanner.ScanIdents | scanner.ScanStrings | scanner.ScanInts | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(_ *scanner.Scanner, msg string) { p.err = errors.New(msg) }
	p.next()

	m, err := p.parseManifest()
	if err != nil {
		return nil, err
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

type parser struct {
	s   scanner.Scanner
	tok rune
	err error
}

func (p *parser) next() { p.tok = p.s.Scan() }

func (p *parser) text() string { return p.s.TokenText() }

func (p *parser) expectf(r rune, what string) error {
	if p.tok != r {
		return errors.Errorf("%s: expected %s, got %q", p.s.Pos(), what, p.s.TokenText())
	}
	return nil
}

// skipComma consumes an optional `,` separator (spec.md §6: "`,` separators
// are accepted but optional").
func (p *parser) skipComma() {
	if p.tok == ',' {
		p.next()
	}
}

func (p *parser) parseManifest() (*Manifest, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.tok != scanner.Ident || p.text() != "pack" {
		return nil, errors.Errorf("%s: manifest must start with \"pack <Name>\"", p.s.Pos())
	}
	p.next()
	if p.tok != scanner.Ident {
		return nil, errors.Errorf("%s: expected package name after \"pack\"", p.s.Pos())
	}
	m := &Manifest{Name: p.text(), Targets: make(map[string]*Target)}
	p.next()
	if err := p.expectf('{', "'{'"); err != nil {
		return nil, err
	}
	p.next()

	for p.tok != '}' && p.tok != scanner.EOF {
		key, err := p.ident()
		if err != nil {
			return nil, err
		}
		switch key {
		case "format":
			v, err := p.stringValue()
			if err != nil {
				return nil, err
			}
			m.Format = v
		case "version":
			v, err := p.intValue()
			if err != nil {
				return nil, err
			}
			if v <= 0 {
				return nil, errors.Errorf("%s: version must be a positive integer, got %d", p.s.Pos(), v)
			}
			m.Version = v
		case "defaultTarget":
			v, err := p.identValue()
			if err != nil {
				return nil, err
			}
			m.DefaultTarget = v
		case "targets":
			if err := p.parseTargets(m); err != nil {
				return nil, err
			}
		default:
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
		p.skipComma()
	}
	if p.tok != '}' {
		return nil, errors.Errorf("%s: unterminated manifest block", p.s.Pos())
	}
	p.next()
	return m, nil
}

func (p *parser) ident() (string, error) {
	if p.tok != scanner.Ident {
		return "", errors.Errorf("%s: expected identifier, got %q", p.s.Pos(), p.s.TokenText())
	}
	s := p.text()
	p.next()
	return s, nil
}

func (p *parser) expectColon() error {
	if p.tok != ':' {
		return errors.Errorf("%s: expected ':'", p.s.Pos())
	}
	p.next()
	return nil
}

func (p *parser) stringValue() (string, error) {
	if err := p.expectColon(); err != nil {
		return "", err
	}
	if p.tok != scanner.String {
		return "", errors.Errorf("%s: expected string literal, got %q", p.s.Pos(), p.s.TokenText())
	}
	v, err := strconv.Unquote(p.text())
	if err != nil {
		return "", errors.Wrap(err, "invalid string literal")
	}
	p.next()
	return v, nil
}

func (p *parser) intValue() (int, error) {
	if err := p.expectColon(); err != nil {
		return 0, err
	}
	if p.tok != scanner.Int {
		return 0, errors.Errorf("%s: expected integer, got %q", p.s.Pos(), p.s.TokenText())
	}
	v, err := strconv.Atoi(p.text())
	if err != nil {
		return 0, errors.Wrap(err, "invalid integer")
	}
	p.next()
	return v, nil
}

func (p *parser) identValue() (string, error) {
	if err := p.expectColon(); err != nil {
		return "", err
	}
	if p.tok != scanner.Ident {
		return "", errors.Errorf("%s: expected identifier, got %q", p.s.Pos(), p.s.TokenText())
	}
	v := p.text()
	p.next()
	return v, nil
}

// skipValue discards a value this reader doesn't model (string, int, ident,
// or a balanced `{ }` block) so unrecognized keys don't abort the parse.
func (p *parser) skipValue() error {
	if p.tok != ':' {
		// bareword with no value (shouldn't normally occur at top level).
		return nil
	}
	p.next()
	switch p.tok {
	case scanner.String, scanner.Int, scanner.Ident:
		p.next()
		return nil
	case '{':
		depth := 0
		for {
			switch p.tok {
			case '{':
				depth++
			case '}':
				depth--
			case scanner.EOF:
				return errors.Errorf("%s: unterminated block", p.s.Pos())
			}
			p.next()
			if depth == 0 {
				return nil
			}
		}
	default:
		return errors.Errorf("%s: unexpected value %q", p.s.Pos(), p.s.TokenText())
	}
}

func (p *parser) parseTargets(m *Manifest) error {
	if err := p.expectColon(); err != nil {
		return err
	}
	if err := p.expectf('{', "'{'"); err != nil {
		return err
	}
	p.next()
	for p.tok != '}' && p.tok != scanner.EOF {
		kw, err := p.ident()
		if err != nil {
			return err
		}
		if kw != "target" {
			return errors.Errorf("%s: expected \"target\" inside targets block, got %q", p.s.Pos(), kw)
		}
		id, err := p.ident()
		if err != nil {
			return err
		}
		t, err := p.parseTarget(id)
		if err != nil {
			return err
		}
		m.Targets[id] = t
		p.skipComma()
	}
	if p.tok != '}' {
		return errors.Errorf("%s: unterminated targets block", p.s.Pos())
	}
	p.next()
	return nil
}

func (p *parser) parseTarget(id string) (*Target, error) {
	if err := p.expectColon(); err != nil {
		return nil, err
	}
	if err := p.expectf('{', "'{'"); err != nil {
		return nil, err
	}
	p.next()
	t := &Target{ID: id}
	for p.tok != '}' && p.tok != scanner.EOF {
		key, err := p.ident()
		if err != nil {
			return nil, err
		}
		switch key {
		case "label":
			v, err := p.stringValue()
			if err != nil {
				return nil, err
			}
			t.Label = v
		case "entry":
			v, err := p.stringValue()
			if err != nil {
				return nil, err
			}
			t.Entry = v
		case "sources":
			if err := p.parseSources(t); err != nil {
				return nil, err
			}
		default:
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
		p.skipComma()
	}
	if p.tok != '}' {
		return nil, errors.Errorf("%s: unterminated target %q block", p.s.Pos(), id)
	}
	p.next()
	return t, nil
}

func (p *parser) parseSources(t *Target) error {
	if err := p.expectColon(); err != nil {
		return err
	}
	if err := p.expectf('{', "'{'"); err != nil {
		return err
	}
	p.next()
	for p.tok != '}' && p.tok != scanner.EOF {
		kw, err := p.ident()
		if err != nil {
			return err
		}
		if kw != "source" {
			return errors.Errorf("%s: expected \"source\" inside sources block, got %q", p.s.Pos(), kw)
		}
		s, err := p.parseSource()
		if err != nil {
			return err
		}
		t.Sources = append(t.Sources, s)
		p.skipComma()
	}
	if p.tok != '}' {
		return errors.Errorf("%s: unterminated sources block", p.s.Pos())
	}
	p.next()
	return nil
}

func (p *parser) parseSource() (Source, error) {
	if err := p.expectf('{', "'{'"); err != nil {
		return Source{}, err
	}
	p.next()
	var src Source
	for p.tok != '}' && p.tok != scanner.EOF {
		key, err := p.ident()
		if err != nil {
			return Source{}, err
		}
		switch key {
		case "path":
			v, err := p.stringValue()
			if err != nil {
				return Source{}, err
			}
			src.Path = v
		case "emit":
			v, err := p.identValue()
			if err != nil {
				return Source{}, err
			}
			switch v {
			case "live":
				src.Emit = EmitLive
			case "compiled":
				src.Emit = EmitCompiled
			case "hybrid":
				src.Emit = EmitHybrid
			default:
				return Source{}, errors.Errorf("%s: unknown emit mode %q", p.s.Pos(), v)
			}
		default:
			if err := p.skipValue(); err != nil {
				return Source{}, err
			}
		}
		p.skipComma()
	}
	if p.tok != '}' {
		return Source{}, errors.Errorf("%s: unterminated source block", p.s.Pos())
	}
	p.next()
	return src, nil
}

// validate enforces spec.md §6's required-field and cross-reference rules.
func validate(m *Manifest) error {
	if m.Format != "raepack" {
		return errors.Errorf("manifest %q: format must be \"raepack\", got %q", m.Name, m.Format)
	}
	if m.Version <= 0 {
		return errors.Errorf("manifest %q: missing or non-positive version", m.Name)
	}
	if m.DefaultTarget == "" {
		return errors.Errorf("manifest %q: missing defaultTarget", m.Name)
	}
	if _, ok := m.Targets[m.DefaultTarget]; !ok {
		return errors.Errorf("manifest %q: defaultTarget %q is not a declared target", m.Name, m.DefaultTarget)
	}
	for id, t := range m.Targets {
		if len(t.Sources) == 0 {
			return errors.Errorf("manifest %q: target %q declares no sources", m.Name, id)
		}
		found := false
		for _, s := range t.Sources {
			if s.Path == t.Entry {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("manifest %q: target %q's entry %q is not among its sources", m.Name, id, t.Entry)
		}
	}
	return nil
}

// IsManifestFile reports whether name has the `.raepack` extension
// (spec.md §4.3 step 6: "the entry file's directory contains a
// package-manifest file (`*.raepack`)").
func IsManifestFile(name string) bool {
	return strings.HasSuffix(name, ".raepack")
}

func (m *Manifest) String() string {
	return fmt.Sprintf("pack %s (format=%s version=%d defaultTarget=%s targets=%d)",
		m.Name, m.Format, m.Version, m.DefaultTarget, len(m.Targets))
}
