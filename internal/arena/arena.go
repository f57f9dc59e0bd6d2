// Package arena implements the interning store for identifier lexemes of a
// single compilation. It mirrors original_source/compiler/src/arena.c: one
// growable slab, allocation is an append, and the only way to free is to
// drop the whole arena. Unlike the C original there is no placement-new in
// Go, so Arena hands out interned strings only; tokens and AST nodes are
// ordinary Go values (see internal/ast).
package arena

const defaultSlabSize = 16384

// Arena owns one growable byte slab recording every interned lexeme, an
// index mapping each interned text to the single string handed out for it,
// and a generation counter bumped by every Reset.
type Arena struct {
	slab  []byte
	index map[string]string
	gen   uint64
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{slab: make([]byte, 0, defaultSlabSize)}
}

// Intern returns the arena's single string for the text of s. The first call
// with a given text appends it to the slab and records a string copy of it;
// every later call with the same text, until Reset, returns that same string,
// so repeated identifiers share one backing string. The result is a stable
// string it is safe to copy by value into the function table (spec.md §5,
// "copies anything it needs to outlive the arena").
func (a *Arena) Intern(s string) string {
	if len(s) == 0 {
		return ""
	}
	if v, ok := a.index[s]; ok {
		return v
	}
	start := len(a.slab)
	a.slab = append(a.slab, s...)
	v := string(a.slab[start:])
	if a.index == nil {
		a.index = make(map[string]string)
	}
	a.index[v] = v
	return v
}

// Reset drops every byte and every interned string recorded so far and bumps
// the generation counter. Reset is used between compile invocations that
// reuse the same Arena value (e.g. watch mode) instead of allocating a fresh
// one every reload.
func (a *Arena) Reset() {
	a.slab = a.slab[:0]
	a.index = nil
	a.gen++
}

// Generation returns the arena's current generation, incremented on every
// Reset. Callers that cache arena-backed strings across a watch-mode reload
// boundary can use this to detect staleness.
func (a *Arena) Generation() uint64 { return a.gen }

// Bytes reports the number of bytes currently interned, for diagnostics.
func (a *Arena) Bytes() int { return len(a.slab) }
