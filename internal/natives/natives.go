// Package natives implements the extern-function registry (spec.md §6):
// a name-to-Go-callback table plus a stable-slot globals array with an
// init-bit vector, grounded on the teacher's vm.Option functional-options
// pattern (vm/vm.go) for registry construction and on vm/io.go for the
// shape of host-side I/O callbacks.
package natives

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jonaskivi/rae-sub000/internal/value"
)

// Func is the signature every native implements: it receives its already
// evaluated arguments and returns the function's (possibly multi-valued)
// result.
type Func func(args []value.Value) ([]value.Value, error)

// Registry is the name -> Func table consulted by OpNativeCall, plus the
// globals array natives may read/write (spec.md §6.2's "ensure_global").
type Registry struct {
	funcs   map[string]Func
	index   map[string]int
	order   []string
	globals []value.Value
	init    []bool

	out io.Writer
	in  *bufio.Reader
	rng *rand.Rand
}

// Option configures a Registry at construction time, mirroring the
// teacher's functional-options constructor for *vm.Instance.
type Option func(*Registry)

// Output sets the writer natives like `print` and `io_write_char` write to.
func Output(w io.Writer) Option {
	return func(r *Registry) { r.out = w }
}

// Input sets the reader `io_read_char` reads from, used by cmd/rae's `run`
// when the source program declares extern character-at-a-time I/O natives
// (spec.md §4.6's "I/O and logging adapters" native group). Raw-tty mode
// itself is set up by the CLI via github.com/pkg/term/termios only when
// `run --raw` is given; the registry just reads whatever reader it is given.
func Input(r io.Reader) Option {
	return func(reg *Registry) { reg.in = bufio.NewReader(r) }
}

// Seed fixes the registry's RNG seed, used by tests that need determinism.
func Seed(seed int64) Option {
	return func(r *Registry) { r.rng = rand.New(rand.NewSource(seed)) }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		index: make(map[string]int),
		out:   io.Discard,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerBuiltins()
	return r
}

// Register adds a native under name, assigning it the next stable slot
// index. Re-registering under the same name (hot-patch reload) keeps the
// same index.
func (r *Registry) Register(name string, fn Func) int {
	r.funcs[name] = fn
	if idx, ok := r.index[name]; ok {
		return idx
	}
	idx := len(r.order)
	r.index[name] = idx
	r.order = append(r.order, name)
	return idx
}

// Index returns the stable slot for name, or (-1, false) if unregistered.
func (r *Registry) Index(name string) (int, bool) {
	idx, ok := r.index[name]
	if !ok {
		return -1, false
	}
	return idx, true
}

// Call invokes the native at slot idx.
func (r *Registry) Call(idx int, args []value.Value) ([]value.Value, error) {
	if idx < 0 || idx >= len(r.order) {
		return nil, errors.Errorf("native index %d out of range", idx)
	}
	fn, ok := r.funcs[r.order[idx]]
	if !ok {
		return nil, errors.Errorf("native %q not registered", r.order[idx])
	}
	return fn(args)
}

// EnsureGlobal grows the globals table so that slot exists, filling new
// slots with none and marking them uninitialized, and returns the value held
// in slot. Globals are addressed by slot index only; the registry keeps no
// name-to-slot table for them.
func (r *Registry) EnsureGlobal(slot int) value.Value {
	for slot >= len(r.globals) {
		r.globals = append(r.globals, value.None())
		r.init = append(r.init, false)
	}
	return r.globals[slot]
}

func (r *Registry) GlobalInitialized(slot int) bool {
	return slot < len(r.init) && r.init[slot]
}

func (r *Registry) SetGlobal(slot int, v value.Value) {
	r.EnsureGlobal(slot)
	r.globals[slot] = v
	r.init[slot] = true
}

func (r *Registry) GetGlobal(slot int) value.Value {
	return r.EnsureGlobal(slot)
}

// registerBuiltins wires the natives every program may call without its
// own extern declaration: I/O, time, RNG, string and buffer helpers.
func (r *Registry) registerBuiltins() {
	r.Register("print", func(args []value.Value) ([]value.Value, error) {
		for i, a := range args {
			if i > 0 {
				fmt.Fprint(r.out, " ")
			}
			fmt.Fprint(r.out, a.String())
		}
		fmt.Fprintln(r.out)
		return nil, nil
	})

	r.Register("time_now_unix", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.Int(time.Now().Unix())}, nil
	})

	r.Register("rand_int", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 2 {
			return nil, errors.Errorf("rand_int expects 2 arguments, got %d", len(args))
		}
		lo, hi := args[0].I, args[1].I
		if hi <= lo {
			return nil, errors.Errorf("rand_int: high (%d) must exceed low (%d)", hi, lo)
		}
		n := lo + r.rng.Int63n(hi-lo)
		return []value.Value{value.Int(n)}, nil
	})

	r.Register("rand_float", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.Float(r.rng.Float64())}, nil
	})

	r.Register("string_len", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("string_len expects 1 argument")
		}
		return []value.Value{value.Int(int64(len([]rune(args[0].S))))}, nil
	})

	r.Register("string_concat", func(args []value.Value) ([]value.Value, error) {
		s := ""
		for _, a := range args {
			s += a.String()
		}
		return []value.Value{value.String(s)}, nil
	})

	r.Register("humanize_bytes", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("humanize_bytes expects 1 argument")
		}
		return []value.Value{value.String(humanize.Bytes(uint64(args[0].I)))}, nil
	})

	r.Register("buffer_alloc", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("buffer_alloc expects 1 argument")
		}
		n := int(args[0].I)
		if n < 0 {
			return nil, errors.Errorf("buffer_alloc: negative size %d", n)
		}
		arr := &value.Array{Elems: make([]value.Value, n)}
		return []value.Value{value.ArrayVal(arr)}, nil
	})

	r.Register("buffer_copy", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 2 || args[0].Kind != value.KindArray || args[1].Kind != value.KindArray {
			return nil, errors.New("buffer_copy expects (dst: array, src: array)")
		}
		n := copy(args[0].Arr.Elems, args[1].Arr.Elems)
		return []value.Value{value.Int(int64(n))}, nil
	})

	r.Register("buffer_resize", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 2 || args[0].Kind != value.KindArray {
			return nil, errors.New("buffer_resize expects (arr: array, newSize: int)")
		}
		newSize := int(args[1].I)
		a := args[0].Arr
		if newSize <= len(a.Elems) {
			a.Elems = a.Elems[:newSize]
		} else {
			a.Elems = append(a.Elems, make([]value.Value, newSize-len(a.Elems))...)
		}
		return []value.Value{value.ArrayVal(a)}, nil
	})

	r.Register("key_new", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.NewKey()}, nil
	})

	r.Register("id_new", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.NewID()}, nil
	})

	r.Register("uuid_string", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.String(uuid.New().String())}, nil
	})

	r.Register("sleep_ms", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("sleep_ms expects 1 argument")
		}
		time.Sleep(time.Duration(args[0].I) * time.Millisecond)
		return nil, nil
	})

	monoStart := time.Now()
	r.Register("time_monotonic_ns", func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.Int(time.Since(monoStart).Nanoseconds())}, nil
	})

	// io_write_char and io_read_char back the character-at-a-time I/O
	// natives the source language's extern declarations use for
	// interactive programs; cmd/rae's `run --raw` puts the terminal in raw
	// mode (via github.com/pkg/term/termios) before invoking the program,
	// matching the teacher's own raw-IO natives in
	// cmd/retro/main.go's port1Handler/port2Handler.
	r.Register("io_write_char", func(args []value.Value) ([]value.Value, error) {
		if len(args) != 1 {
			return nil, errors.New("io_write_char expects 1 argument")
		}
		_, err := fmt.Fprint(r.out, string(args[0].C))
		return nil, err
	})

	r.Register("io_read_char", func(args []value.Value) ([]value.Value, error) {
		if r.in == nil {
			return []value.Value{value.None()}, nil
		}
		ch, _, err := r.in.ReadRune()
		if err == io.EOF {
			return []value.Value{value.None()}, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "io_read_char")
		}
		return []value.Value{value.Char(ch)}, nil
	})
}
