// Package vm implements the fetch-decode-execute loop that runs chunks
// produced by internal/compiler, grounded on the teacher's vm/core.go and
// vm/run.go Run() switch-on-opcode loop and vm/vm.go's functional-options
// *Instance constructor, generalized from a single flat Cell stack (spec.md
// §4.5/§4.8) to frames carrying a slot base and a growable local count.
package vm

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/jonaskivi/rae-sub000/internal/chunk"
	"github.com/jonaskivi/rae-sub000/internal/diag"
	"github.com/jonaskivi/rae-sub000/internal/hotpatch"
	"github.com/jonaskivi/rae-sub000/internal/natives"
	"github.com/jonaskivi/rae-sub000/internal/value"
)

// Result classifies how a Run call ended, mirroring spec.md §4.8's
// "VM-ok / VM-error / VM-timeout" outcomes.
type Result int

const (
	ResultOK Result = iota
	ResultError
	ResultTimeout
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// maxStack is the fixed value-stack size from spec.md §4.5 ("1024 slots in
// the reference").
const maxStack = 1024

// maxFrames bounds the call-frame slice; a frame stack deeper than this is
// treated as overflow well before any realistic program's recursion would
// reach it.
const maxFrames = 512

// frame records one call's bookkeeping (spec.md §4.5): where to resume the
// caller, where this call's locals begin on the value stack, and how many
// locals are currently live (grown one at a time by ALLOC_LOCAL).
type frame struct {
	returnIP  int
	slotBase  int
	numLocals int
}

// VM executes a single chunk. It is not safe for concurrent use (spec.md §5:
// "Concurrent VMs are out of scope").
type VM struct {
	chunk   *chunk.Chunk
	natives *natives.Registry

	stack []value.Value
	sp    int
	frame []frame

	out      io.Writer
	timeout  time.Duration
	insCount uint64

	// mu guards v.chunk against concurrent ApplyHotPatch calls from the
	// watch driver (cmd/rae, internal/watch) while Run is executing in its
	// own goroutine. Run holds it only around each single-instruction
	// fetch/decode/execute, so a pending ApplyHotPatch is never starved for
	// more than one instruction's worth of time (spec.md §5: "patch N's
	// installation is totally ordered before the next instruction fetch").
	mu sync.Mutex
}

// Option configures a VM at construction time, mirroring the teacher's
// functional-options constructor for *vm.Instance (vm/vm.go).
type Option func(*VM)

// Output sets the writer LOG/LOG_S write to; defaults to os.Stdout.
func Output(w io.Writer) Option {
	return func(v *VM) { v.out = w }
}

// Timeout sets a wall-clock budget for Run; zero (the default) means no
// limit. Checked between instruction fetches (spec.md §4.8, §5
// "Cancellation").
func Timeout(d time.Duration) Option {
	return func(v *VM) { v.timeout = d }
}

func New(c *chunk.Chunk, reg *natives.Registry, opts ...Option) *VM {
	v := &VM{
		chunk:   c,
		natives: reg,
		stack:   make([]value.Value, maxStack),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VM) push(val value.Value) error {
	if v.sp >= maxStack {
		return diag.NewRuntimeError(v.sp, "value stack overflow (limit %d)", maxStack)
	}
	v.stack[v.sp] = val
	v.sp++
	return nil
}

func (v *VM) pop() (value.Value, error) {
	if v.sp == 0 {
		return value.Value{}, diag.NewRuntimeError(v.sp, "value stack underflow")
	}
	v.sp--
	return v.stack[v.sp], nil
}

func (v *VM) peek() (value.Value, error) {
	if v.sp == 0 {
		return value.Value{}, diag.NewRuntimeError(v.sp, "value stack underflow")
	}
	return v.stack[v.sp-1], nil
}

func u16at(code []byte, off int) uint16 {
	return uint16(code[off])<<8 | uint16(code[off+1])
}

// Run executes the chunk from address 0 (the synthetic `CALL main 0; RETURN
// 0` entry sequence emitted by internal/compiler) to completion.
func (v *VM) Run() (Result, error) {
	v.sp = 0
	v.frame = v.frame[:0]
	pc := 0

	var deadline time.Time
	if v.timeout > 0 {
		deadline = time.Now().Add(v.timeout)
	}

	for {
		if v.timeout > 0 && time.Now().After(deadline) {
			return ResultTimeout, diag.NewRuntimeError(pc, "execution exceeded timeout of %s", v.timeout)
		}

		// Re-read v.chunk.Code/Lines every instruction rather than caching
		// a local slice for the whole run: a concurrent ApplyHotPatch may
		// have reassigned v.chunk.Code to a larger backing array (append
		// growth) between instructions, and this is the only place that
		// needs to observe the new one. pc/return addresses are plain
		// integer offsets, not pointers, so unlike the original's raw
		// pointer IP (spec.md §4.7 step 5) they never need translation on
		// reallocation — only the cached slice header does.
		v.mu.Lock()
		code := v.chunk.Code
		lines := v.chunk.Lines
		if pc < 0 || pc >= len(code) {
			v.mu.Unlock()
			err := diag.NewRuntimeError(pc, "program counter out of range")
			return ResultError, err
		}
		op := chunk.Op(code[pc])
		line := lines[pc]
		pc++
		v.insCount++

		done, next, err := v.step(op, code, pc, line)
		v.mu.Unlock()
		if err != nil {
			return ResultError, err
		}
		if done {
			return ResultOK, nil
		}
		pc = next
	}
}

// ApplyHotPatch merges next into v's live chunk (internal/hotpatch's
// append/relocate/trampoline protocol) while Run may be executing
// concurrently in another goroutine, matching spec.md §5's "patch N's
// installation is totally ordered before the next instruction fetch".
func (v *VM) ApplyHotPatch(next *chunk.Chunk) (*hotpatch.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return hotpatch.Apply(v.chunk, next)
}

// Natives returns the registry backing this VM, so the watch driver can
// register newly declared externs discovered by a reload.
func (v *VM) Natives() *natives.Registry { return v.natives }

// InstructionCount returns the number of instructions executed so far,
// backing `run --stats` (SPEC_FULL.md's humanize-formatted execution
// summary).
func (v *VM) InstructionCount() uint64 { return v.insCount }

// step executes one decoded instruction and returns the next pc, or done=true
// when the program has returned at call depth zero.
func (v *VM) step(op chunk.Op, code []byte, pc int, line int) (done bool, next int, err error) {
	switch op {
	case chunk.OpConstant:
		idx := u16at(code, pc)
		pc += 2
		if int(idx) >= len(v.chunk.Constants) {
			return false, 0, diag.NewRuntimeError(pc, "constant index %d out of range", idx)
		}
		if err := v.push(v.chunk.Constants[idx]); err != nil {
			return false, 0, err
		}

	case chunk.OpLog, chunk.OpLogS:
		argc := int(code[pc])
		pc++
		vals := make([]value.Value, argc)
		for i := argc - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return false, 0, err
			}
			vals[i] = val
		}
		for i, val := range vals {
			if i > 0 {
				io.WriteString(v.out, " ")
			}
			io.WriteString(v.out, val.String())
		}
		if op == chunk.OpLog {
			io.WriteString(v.out, "\n")
		}

	case chunk.OpCall:
		target := int(u16at(code, pc))
		pc += 2
		argc := int(code[pc])
		pc++
		if len(v.frame) >= maxFrames {
			return false, 0, diag.NewRuntimeError(pc, "call stack overflow (limit %d)", maxFrames)
		}
		if target < 0 || target >= len(v.chunk.Code) {
			return false, 0, diag.NewRuntimeError(pc, "call target %d out of range", target)
		}
		if v.sp < argc {
			return false, 0, diag.NewRuntimeError(pc, "value stack underflow preparing call arguments")
		}
		v.frame = append(v.frame, frame{returnIP: pc, slotBase: v.sp - argc, numLocals: argc})
		pc = target

	case chunk.OpNativeCall:
		nameIdx := u16at(code, pc)
		pc += 2
		argc := int(code[pc])
		pc++
		if int(nameIdx) >= len(v.chunk.Constants) {
			return false, 0, diag.NewRuntimeError(pc, "native name constant index %d out of range", nameIdx)
		}
		name := v.chunk.Constants[nameIdx].S
		idx, ok := v.natives.Index(name)
		if !ok {
			return false, 0, diag.NewRuntimeError(pc, "invalid native name %q", name)
		}
		args := make([]value.Value, argc)
		for i := argc - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return false, 0, err
			}
			args[i] = val
		}
		results, callErr := v.natives.Call(idx, args)
		if callErr != nil {
			return false, 0, diag.WrapRuntimeError(pc, callErr, "native "+name)
		}
		if len(results) == 0 {
			if err := v.push(value.None()); err != nil {
				return false, 0, err
			}
		} else {
			if err := v.push(results[0]); err != nil {
				return false, 0, err
			}
		}

	case chunk.OpReturn:
		hasValue := code[pc] != 0
		pc++
		var result value.Value
		if hasValue {
			val, err := v.pop()
			if err != nil {
				return false, 0, err
			}
			result = val
		} else {
			result = value.None()
		}
		if len(v.frame) == 0 {
			// The synthetic top-level `CALL main 0; RETURN 0` sequence's own
			// RETURN: the program is finished.
			return true, 0, nil
		}
		fr := v.frame[len(v.frame)-1]
		v.frame = v.frame[:len(v.frame)-1]
		v.sp = fr.slotBase
		if err := v.push(result); err != nil {
			return false, 0, err
		}
		pc = fr.returnIP

	case chunk.OpGetLocal:
		slot := int(code[pc])
		pc++
		fr, err := v.currentFrame(pc)
		if err != nil {
			return false, 0, err
		}
		if slot >= fr.numLocals {
			return false, 0, diag.NewRuntimeError(pc, "local slot %d not allocated", slot)
		}
		if err := v.push(v.stack[fr.slotBase+slot]); err != nil {
			return false, 0, err
		}

	case chunk.OpSetLocal:
		slot := int(code[pc])
		pc++
		fr, err := v.currentFrame(pc)
		if err != nil {
			return false, 0, err
		}
		val, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		if slot >= fr.numLocals {
			return false, 0, diag.NewRuntimeError(pc, "local slot %d not allocated", slot)
		}
		v.stack[fr.slotBase+slot] = val

	case chunk.OpAllocLocal:
		if len(v.frame) == 0 {
			return false, 0, diag.NewRuntimeError(pc, "ALLOC_LOCAL outside a call frame")
		}
		if _, err := v.peek(); err != nil {
			return false, 0, err
		}
		v.frame[len(v.frame)-1].numLocals++

	case chunk.OpPop:
		if _, err := v.pop(); err != nil {
			return false, 0, err
		}

	case chunk.OpJump:
		target := int(u16at(code, pc))
		pc = target

	case chunk.OpJumpIfFalse:
		target := int(u16at(code, pc))
		pc += 2
		cond, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		if !cond.IsTruthy() {
			pc = target
		}

	case chunk.OpJumpAbs:
		target := int(u16at(code, pc))
		pc = target

	case chunk.OpDup:
		top, err := v.peek()
		if err != nil {
			return false, 0, err
		}
		if err := v.push(top); err != nil {
			return false, 0, err
		}

	case chunk.OpAdd, chunk.OpSub, chunk.OpMul, chunk.OpDiv, chunk.OpMod:
		result, err := v.binaryArith(op, pc)
		if err != nil {
			return false, 0, err
		}
		if err := v.push(result); err != nil {
			return false, 0, err
		}

	case chunk.OpNeg:
		val, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		switch val.Kind {
		case value.KindInt:
			if err := v.push(value.Int(-val.I)); err != nil {
				return false, 0, err
			}
		case value.KindFloat:
			if err := v.push(value.Float(-val.F)); err != nil {
				return false, 0, err
			}
		default:
			return false, 0, diag.NewRuntimeError(pc, "cannot negate a %s", val.Kind)
		}

	case chunk.OpNot:
		val, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		if err := v.push(value.Bool(!val.IsTruthy())); err != nil {
			return false, 0, err
		}

	case chunk.OpLt, chunk.OpLe, chunk.OpGt, chunk.OpGe:
		result, err := v.compare(op, pc)
		if err != nil {
			return false, 0, err
		}
		if err := v.push(result); err != nil {
			return false, 0, err
		}

	case chunk.OpEq, chunk.OpNe:
		rhs, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		lhs, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		eq := value.Equal(lhs, rhs)
		if op == chunk.OpNe {
			eq = !eq
		}
		if err := v.push(value.Bool(eq)); err != nil {
			return false, 0, err
		}

	case chunk.OpAnd, chunk.OpOr:
		rhs, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		lhs, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		var result bool
		if op == chunk.OpAnd {
			result = lhs.IsTruthy() && rhs.IsTruthy()
		} else {
			result = lhs.IsTruthy() || rhs.IsTruthy()
		}
		if err := v.push(value.Bool(result)); err != nil {
			return false, 0, err
		}

	case chunk.OpGetField:
		idx := u16at(code, pc)
		pc += 2
		if int(idx) >= len(v.chunk.Constants) {
			return false, 0, diag.NewRuntimeError(pc, "field-name constant index %d out of range", idx)
		}
		name := v.chunk.Constants[idx].S
		obj, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		obj = obj.Deref()
		if obj.Kind != value.KindObject {
			return false, 0, diag.NewRuntimeError(pc, "cannot read field %q of a %s", name, obj.Kind)
		}
		field, ok := obj.Obj.Get(name)
		if !ok {
			return false, 0, diag.NewRuntimeError(pc, "object %s has no field %q", obj.Obj.TypeName, name)
		}
		if err := v.push(field); err != nil {
			return false, 0, err
		}

	case chunk.OpSetField:
		idx := u16at(code, pc)
		pc += 2
		if int(idx) >= len(v.chunk.Constants) {
			return false, 0, diag.NewRuntimeError(pc, "field-name constant index %d out of range", idx)
		}
		name := v.chunk.Constants[idx].S
		val, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		obj, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		obj = obj.Deref()
		if obj.Kind != value.KindObject {
			return false, 0, diag.NewRuntimeError(pc, "cannot set field %q of a %s", name, obj.Kind)
		}
		obj.Obj.Set(name, val)
		if err := v.push(obj); err != nil {
			return false, 0, err
		}

	case chunk.OpConstruct:
		typeIdx := int(u16at(code, pc))
		pc += 2
		if typeIdx >= len(v.chunk.Types) {
			return false, 0, diag.NewRuntimeError(pc, "type index %d out of range", typeIdx)
		}
		ti := v.chunk.Types[typeIdx]
		obj := value.NewObject(ti.Name)
		vals := make([]value.Value, len(ti.Fields))
		for i := len(ti.Fields) - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return false, 0, err
			}
			vals[i] = val
		}
		for i, name := range ti.Fields {
			obj.Set(name, vals[i])
		}
		if err := v.push(value.ObjectVal(obj)); err != nil {
			return false, 0, err
		}

	case chunk.OpMakeList:
		n := int(u16at(code, pc))
		pc += 2
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			val, err := v.pop()
			if err != nil {
				return false, 0, err
			}
			elems[i] = val
		}
		if err := v.push(value.ListVal(&value.List{Elems: elems})); err != nil {
			return false, 0, err
		}

	case chunk.OpMakeRange:
		high, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		low, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		if low.Kind != value.KindInt || high.Kind != value.KindInt {
			return false, 0, diag.NewRuntimeError(pc, "range bounds must be int, got %s..%s", low.Kind, high.Kind)
		}
		if high.I < low.I {
			return false, 0, diag.NewRuntimeError(pc, "range bounds inverted: %d..%d", low.I, high.I)
		}
		elems := make([]value.Value, 0, high.I-low.I)
		for n := low.I; n < high.I; n++ {
			elems = append(elems, value.Int(n))
		}
		if err := v.push(value.ListVal(&value.List{Elems: elems})); err != nil {
			return false, 0, err
		}

	case chunk.OpIndex:
		idxVal, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		target, err := v.pop()
		if err != nil {
			return false, 0, err
		}
		result, err := v.index(target.Deref(), idxVal, pc)
		if err != nil {
			return false, 0, err
		}
		if err := v.push(result); err != nil {
			return false, 0, err
		}

	case chunk.OpSpawn:
		// No compiler path currently emits SPAWN (spawn lowers to plain
		// evaluation); treat it as a no-op marker, consuming only its
		// operand, reserved for a future concurrent scheduler.
		pc++

	default:
		return false, 0, diag.NewRuntimeError(pc, "unknown opcode %d", op)
	}
	return false, pc, nil
}

func (v *VM) currentFrame(pc int) (*frame, error) {
	if len(v.frame) == 0 {
		return nil, diag.NewRuntimeError(pc, "no active call frame")
	}
	return &v.frame[len(v.frame)-1], nil
}

func (v *VM) binaryArith(op chunk.Op, pc int) (value.Value, error) {
	rhs, err := v.pop()
	if err != nil {
		return value.Value{}, err
	}
	lhs, err := v.pop()
	if err != nil {
		return value.Value{}, err
	}
	if op == chunk.OpAdd && lhs.Kind == value.KindString && rhs.Kind == value.KindString {
		return value.String(lhs.S + rhs.S), nil
	}
	if !isNumeric(lhs.Kind) || !isNumeric(rhs.Kind) {
		return value.Value{}, diag.NewRuntimeError(pc, "arithmetic on %s and %s", lhs.Kind, rhs.Kind)
	}
	if lhs.Kind == value.KindFloat || rhs.Kind == value.KindFloat {
		a, b := asFloat(lhs), asFloat(rhs)
		switch op {
		case chunk.OpAdd:
			return value.Float(a + b), nil
		case chunk.OpSub:
			return value.Float(a - b), nil
		case chunk.OpMul:
			return value.Float(a * b), nil
		case chunk.OpDiv:
			if b == 0 {
				return value.Value{}, diag.NewRuntimeError(pc, "division by zero")
			}
			return value.Float(a / b), nil
		case chunk.OpMod:
			return value.Value{}, diag.NewRuntimeError(pc, "modulo is not defined for float operands")
		}
	}
	a, b := lhs.I, rhs.I
	switch op {
	case chunk.OpAdd:
		return value.Int(a + b), nil
	case chunk.OpSub:
		return value.Int(a - b), nil
	case chunk.OpMul:
		return value.Int(a * b), nil
	case chunk.OpDiv:
		if b == 0 {
			return value.Value{}, diag.NewRuntimeError(pc, "division by zero")
		}
		return value.Int(a / b), nil
	case chunk.OpMod:
		if b == 0 {
			return value.Value{}, diag.NewRuntimeError(pc, "modulo by zero")
		}
		return value.Int(a % b), nil
	}
	return value.Value{}, diag.NewRuntimeError(pc, "unreachable arithmetic opcode %s", op)
}

func (v *VM) compare(op chunk.Op, pc int) (value.Value, error) {
	rhs, err := v.pop()
	if err != nil {
		return value.Value{}, err
	}
	lhs, err := v.pop()
	if err != nil {
		return value.Value{}, err
	}
	if !isNumeric(lhs.Kind) || !isNumeric(rhs.Kind) {
		return value.Value{}, diag.NewRuntimeError(pc, "comparison on %s and %s", lhs.Kind, rhs.Kind)
	}
	a, b := asFloat(lhs), asFloat(rhs)
	var result bool
	switch op {
	case chunk.OpLt:
		result = a < b
	case chunk.OpLe:
		result = a <= b
	case chunk.OpGt:
		result = a > b
	case chunk.OpGe:
		result = a >= b
	}
	return value.Bool(result), nil
}

func (v *VM) index(target, idx value.Value, pc int) (value.Value, error) {
	if idx.Kind != value.KindInt {
		return value.Value{}, diag.NewRuntimeError(pc, "index must be int, got %s", idx.Kind)
	}
	i := idx.I
	switch target.Kind {
	case value.KindList:
		if i < 0 || i >= int64(len(target.List.Elems)) {
			return value.Value{}, diag.NewRuntimeError(pc, "list index %d out of range (len %d)", i, len(target.List.Elems))
		}
		return target.List.Elems[i], nil
	case value.KindArray:
		if i < 0 || i >= int64(len(target.Arr.Elems)) {
			return value.Value{}, diag.NewRuntimeError(pc, "array index %d out of range (len %d)", i, len(target.Arr.Elems))
		}
		return target.Arr.Elems[i], nil
	case value.KindString:
		runes := []rune(target.S)
		if i < 0 || i >= int64(len(runes)) {
			return value.Value{}, diag.NewRuntimeError(pc, "string index %d out of range (len %d)", i, len(runes))
		}
		return value.Char(runes[i]), nil
	default:
		return value.Value{}, diag.NewRuntimeError(pc, "cannot index a %s", target.Kind)
	}
}

func isNumeric(k value.Kind) bool {
	return k == value.KindInt || k == value.KindFloat
}

func asFloat(v value.Value) float64 {
	if v.Kind == value.KindFloat {
		return v.F
	}
	return float64(v.I)
}
