package vm

import (
	"encoding/binary"
	"math"

	"catlang/internal/bytecode"
)

// execMem handles the heap/pointer opcodes, delegating the actual byte
// storage to heap.go. Stack orders follow spec.md §6 exactly: stores are
// (value, pointer, offset) with offset on top; loads mirror that
// convention (pointer, offset) with offset on top, for symmetry (see
// DESIGN.md — the spec only states the store order explicitly).
func (vm *VM) execMem(op bytecode.Op) (handled bool, err error) {
	switch op {
	case bytecode.OpAlloc:
		n := int(vm.popNumber())
		vm.push(vm.alloc(n))

	case bytecode.OpFree:
		p := vm.popPointer()
		vm.free(p)
		vm.push(nil)

	case bytecode.OpPtrAdd:
		delta := int64(vm.popNumber())
		p := vm.popPointer()
		vm.push(ptrAdd(p, delta))

	case bytecode.OpLoad8:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		b := vm.loadBytes(ptrAdd(p, off), 1)
		vm.push(float64(b[0]))

	case bytecode.OpStore8:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		val := byte(int64(vm.popNumber()))
		vm.storeBytes(ptrAdd(p, off), []byte{val})
		vm.push(nil)

	case bytecode.OpLoad16:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		b := vm.loadBytes(ptrAdd(p, off), 2)
		vm.push(float64(binary.LittleEndian.Uint16(b)))

	case bytecode.OpStore16:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		val := uint16(int64(vm.popNumber()))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], val)
		vm.storeBytes(ptrAdd(p, off), b[:])
		vm.push(nil)

	case bytecode.OpLoad32:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		b := vm.loadBytes(ptrAdd(p, off), 4)
		vm.push(float64(binary.LittleEndian.Uint32(b)))

	case bytecode.OpStore32:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		val := uint32(int64(vm.popNumber()))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], val)
		vm.storeBytes(ptrAdd(p, off), b[:])
		vm.push(nil)

	case bytecode.OpLoad64:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		b := vm.loadBytes(ptrAdd(p, off), 8)
		vm.push(float64(binary.LittleEndian.Uint64(b)))

	case bytecode.OpStore64:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		val := uint64(int64(vm.popNumber()))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], val)
		vm.storeBytes(ptrAdd(p, off), b[:])
		vm.push(nil)

	case bytecode.OpLoadF32:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		b := vm.loadBytes(ptrAdd(p, off), 4)
		vm.push(bitsF32(binary.LittleEndian.Uint32(b)))

	case bytecode.OpStoreF32:
		off := int64(vm.popNumber())
		p := vm.popPointer()
		val := vm.popNumber()
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], f32bits(val))
		vm.storeBytes(ptrAdd(p, off), b[:])
		vm.push(nil)

	case bytecode.OpMemcpy:
		n := int(vm.popNumber())
		src := vm.popPointer()
		dst := vm.popPointer()
		vm.memcpy(dst, src, n)
		vm.push(nil)

	case bytecode.OpMemset:
		n := int(vm.popNumber())
		val := byte(int64(vm.popNumber()))
		p := vm.popPointer()
		vm.memset(p, val, n)
		vm.push(nil)

	case bytecode.OpPtrDiff:
		b := vm.popPointer()
		a := vm.popPointer()
		if a.Block != b.Block {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(float64(int64(a.Offset) - int64(b.Offset)))

	case bytecode.OpRealloc:
		n := int(vm.popNumber())
		p := vm.popPointer()
		vm.push(vm.realloc(p, n))

	case bytecode.OpBlockSize:
		p := vm.popPointer()
		vm.push(float64(vm.blockSize(p)))

	case bytecode.OpPtrOffset:
		p := vm.popPointer()
		vm.push(float64(p.Offset))

	case bytecode.OpPtrBlock:
		p := vm.popPointer()
		vm.push(float64(p.Block))

	case bytecode.OpPackF64LE:
		v := vm.popNumber()
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		vm.push(packedArray(b[:]))

	case bytecode.OpPackU16LE:
		v := uint16(int64(vm.popNumber()))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		vm.push(packedArray(b[:]))

	case bytecode.OpPackU32LE:
		v := uint32(int64(vm.popNumber()))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		vm.push(packedArray(b[:]))

	default:
		return false, nil
	}
	return true, nil
}

// popPointer pops a Pointer value, treating any non-Pointer value as the
// null pointer (block -1, never resolvable) rather than halting.
func (vm *VM) popPointer() Pointer {
	v := vm.popDiscard()
	if p, ok := v.(Pointer); ok {
		return p
	}
	return Pointer{Block: -1}
}

// packedArray turns packed little-endian bytes into a CatLang array of
// byte-valued numbers, for OP_PACK_*LE's result (spec.md §6 returns a
// byte array rather than a pointer so packed bytes can be spliced into
// a buffer with ordinary array ops before being written to memory).
func packedArray(b []byte) *Array {
	elems := make([]Value, len(b))
	for i, v := range b {
		elems[i] = float64(v)
	}
	return newArray(elems)
}
