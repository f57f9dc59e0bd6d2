// Package hotpatch implements the append-and-relocate live reload protocol
// of spec.md §4.7: merge a freshly compiled chunk into the chunk a VM is
// already running, redirecting every call site that targets a function
// present in both by name, without disturbing in-flight call frames of the
// old body. Grounded on the teacher's vm/image.go load/relocate pass (the
// only place in db47h-ngaro that rewrites a live code buffer in place) and
// generalized from "relocate one loaded image" to "append, relocate and
// trampoline a second chunk on top of the first".
package hotpatch

import (
	"sort"

	"github.com/jonaskivi/rae-sub000/internal/chunk"
	"github.com/jonaskivi/rae-sub000/internal/diag"
)

// trampolineSize is the number of bytes a JUMP_ABS trampoline occupies: one
// opcode byte plus this port's u16 operand. spec.md §4.7 sizes this at five
// bytes (opcode + u32 target) because its reference implementation's CALL
// targets are full native addresses; this port's whole instruction set uses
// a uniform u16 operand (compiler.maxCodeSize caps chunks at 64 KiB, so a
// wider target is never needed), so the trampoline shrinks to match.
const trampolineSize = 3

// Result reports what a single Apply call did to each function name common
// to, or new in, the patched-in chunk.
type Result struct {
	Patched []string            // redirected to the new body via a trampoline
	Added   []string            // existed only in the new chunk, registered fresh
	Skipped []*diag.HotPatchError // old prologue too small to hold a trampoline
}

// Apply merges next into live in place, per spec.md §4.7's six steps:
// constants and types are copied in with their indices shifted, next's code
// is appended with CONSTANT/NATIVE_CALL/GET_FIELD/SET_FIELD/CONSTRUCT
// operands shifted by the constant/type count and CALL/JUMP/JUMP_IF_FALSE
// operands shifted by the old code length, and finally a trampoline is
// installed at the old address of every function name the two chunks share.
//
// live's value stack and any in-flight call frames are untouched; their
// return addresses still point within the unmodified low region of
// live.Code, and RETURN there behaves exactly as before. The next CALL that
// targets a patched function's old address lands on the installed
// trampoline and is redirected into the new body.
func Apply(live *chunk.Chunk, next *chunk.Chunk) (*Result, error) {
	L := len(live.Code)
	K := len(live.Constants)
	T := len(live.Types)

	for _, c := range next.Constants {
		live.AddConstant(c)
	}
	for _, ty := range next.Types {
		live.Types = append(live.Types, ty)
		if ty.Name != "" {
			live.TypeIndex[ty.Name] = len(live.Types) - 1
		}
	}

	live.Code = append(live.Code, next.Code...)
	live.Lines = append(live.Lines, next.Lines...)

	if err := relocate(live.Code[L:], K, L, T); err != nil {
		return nil, err
	}

	res := &Result{}
	boundary := boundaryFunc(live.Funcs, L)

	for _, nfi := range next.Funcs {
		newAddr := L + nfi.Addr
		oldIdx, existed := live.FuncIndex[nfi.Name]
		if !existed {
			live.AddFunc(chunk.FuncInfo{
				Name: nfi.Name, Addr: newAddr,
				Arity: nfi.Arity, NumLocals: nfi.NumLocals, NumReturn: nfi.NumReturn,
			})
			res.Added = append(res.Added, nfi.Name)
			continue
		}

		old := live.Funcs[oldIdx]
		if boundary(old.Addr)-old.Addr < trampolineSize {
			res.Skipped = append(res.Skipped, diag.NewHotPatchError(nfi.Name,
				"prologue at offset %d is shorter than %d bytes, left unreachable via its old address", old.Addr, trampolineSize))
			continue
		}

		installTrampoline(live, old.Addr, newAddr)
		live.Funcs[oldIdx] = chunk.FuncInfo{
			Name: nfi.Name, Addr: newAddr,
			Arity: nfi.Arity, NumLocals: nfi.NumLocals, NumReturn: nfi.NumReturn,
		}
		res.Patched = append(res.Patched, nfi.Name)
	}

	return res, nil
}

// boundaryFunc returns, for a function starting at addr in the pre-patch
// chunk, the offset of the next function (or the end of the pre-patch code
// region if none follows) — the space available for a trampoline.
func boundaryFunc(funcs []chunk.FuncInfo, codeEnd int) func(addr int) int {
	addrs := make([]int, len(funcs))
	for i, fi := range funcs {
		addrs[i] = fi.Addr
	}
	sort.Ints(addrs)
	return func(addr int) int {
		end := codeEnd
		for _, a := range addrs {
			if a > addr && a < end {
				end = a
			}
		}
		return end
	}
}

func installTrampoline(c *chunk.Chunk, at, target int) {
	c.Code[at] = byte(chunk.OpJumpAbs)
	c.PatchU16(at+1, uint16(target))
}

// relocate walks an appended code region instruction by instruction,
// shifting every operand that refers into the constant pool, the type
// directory, or absolute code offsets by the given amounts (spec.md §4.7
// step 4). Operand widths mirror chunk.Chunk.disassembleInstr.
func relocate(region []byte, constShift, codeShift, typeShift int) error {
	for off := 0; off < len(region); {
		op := chunk.Op(region[off])
		switch op {
		case chunk.OpConstant, chunk.OpGetField, chunk.OpSetField:
			if err := shiftU16(region, off+1, constShift); err != nil {
				return err
			}
			off += 3
		case chunk.OpNativeCall:
			if err := shiftU16(region, off+1, constShift); err != nil {
				return err
			}
			off += 4
		case chunk.OpCall:
			if err := shiftU16(region, off+1, codeShift); err != nil {
				return err
			}
			off += 4
		case chunk.OpJump, chunk.OpJumpIfFalse, chunk.OpJumpAbs:
			if err := shiftU16(region, off+1, codeShift); err != nil {
				return err
			}
			off += 3
		case chunk.OpConstruct:
			if err := shiftU16(region, off+1, typeShift); err != nil {
				return err
			}
			off += 3
		case chunk.OpMakeList:
			off += 3
		case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpLog, chunk.OpLogS, chunk.OpReturn, chunk.OpSpawn:
			off += 2
		default:
			off++
		}
	}
	return nil
}

func shiftU16(region []byte, off, delta int) error {
	v := int(uint16(region[off])<<8 | uint16(region[off+1]))
	v += delta
	if v < 0 || v > 0xFFFF {
		return diag.NewHotPatchError("<relocate>", "operand %d shifted by %d overflows a u16 offset", v-delta, delta)
	}
	region[off] = byte(v >> 8)
	region[off+1] = byte(v)
	return nil
}
