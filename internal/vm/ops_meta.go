package vm

import (
	"fmt"
	"os"
	"strings"

	"catlang/internal/bytecode"
	"catlang/internal/serializer"
)

// execMeta handles the opcodes that are neither arithmetic nor
// container/string/math/memory/IO: printing, assertion/panic/exit,
// introspection, and the four FFI opcodes delegated to ffi.Sink.
func (vm *VM) execMeta(op bytecode.Op, opIP int, argc int) (handled bool, err error) {
	switch op {
	case bytecode.OpPrint:
		args := vm.popArgsDiscard(argc)
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = ToString(a)
		}
		fmt.Fprintln(os.Stdout, strings.Join(parts, " "))

	case bytecode.OpAssert:
		msg := ToString(vm.popDiscard())
		cond := vm.popDiscard()
		if !Truthy(cond) {
			return true, vm.runtimeError(opIP, "assertion failed: %s", msg)
		}
		vm.push(nil)

	case bytecode.OpPanic:
		msg := ToString(vm.popDiscard())
		return true, vm.runtimeError(opIP, "panic: %s", msg)

	case bytecode.OpExit:
		code := int(vm.popNumber())
		vm.lastExitCode = code

	case bytecode.OpEmitChunk:
		path := ToString(vm.popDiscard())
		mapV := vm.pop()
		emitted, buildErr := chunkFromMap(mapV)
		vm.release(mapV)
		if buildErr != nil {
			return true, vm.runtimeError(opIP, "emit_chunk: %v", buildErr)
		}
		f, createErr := os.Create(path)
		if createErr != nil {
			return true, vm.runtimeError(opIP, "emit_chunk: %v", createErr)
		}
		writeErr := serializer.Write(f, emitted)
		f.Close()
		if writeErr != nil {
			return true, vm.runtimeError(opIP, "emit_chunk: %v", writeErr)
		}
		vm.push(nil)

	case bytecode.OpOpcodeID:
		name := ToString(vm.popDiscard())
		id, ok := bytecode.ByName(name)
		if !ok {
			vm.push(float64(-1))
			return true, nil
		}
		vm.push(float64(id))

	case bytecode.OpCallNArr:
		name := ToString(vm.popDiscard())
		arrV := vm.pop()
		arr, _ := arrV.(*Array)
		var args []Value
		if arr != nil {
			args = append(args, arr.Elements...)
		}
		vm.release(arrV)
		if err := vm.callNamedWithArgs(opIP, name, args); err != nil {
			return true, err
		}

	case bytecode.OpFFICall:
		funcName := ToString(vm.popDiscard())
		dllName := ToString(vm.popDiscard())
		args := vm.popArgsDiscard(argc)
		res, ffiErr := vm.ffiSink.Call(dllName, funcName, args)
		if ffiErr != nil {
			fmt.Fprintln(os.Stderr, vm.runtimeError(opIP, "ffi call %s!%s: %v", dllName, funcName, ffiErr).Error())
			vm.push(float64(0))
			return true, nil
		}
		vm.push(res)

	case bytecode.OpFFICallSig:
		sig := ToString(vm.popDiscard())
		funcName := ToString(vm.popDiscard())
		dllName := ToString(vm.popDiscard())
		args := vm.popArgsDiscard(argc)
		res, ffiErr := vm.ffiSink.CallSig(dllName, funcName, sig, args)
		if ffiErr != nil {
			fmt.Fprintln(os.Stderr, vm.runtimeError(opIP, "ffi call %s!%s: %v", dllName, funcName, ffiErr).Error())
			vm.push(float64(0))
			return true, nil
		}
		vm.push(res)

	case bytecode.OpFFIProc:
		funcName := ToString(vm.popDiscard())
		dllName := ToString(vm.popDiscard())
		res, ffiErr := vm.ffiSink.Proc(dllName, funcName)
		if ffiErr != nil {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(res)

	case bytecode.OpFFICallPtr:
		ptr := vm.popDiscard()
		args := vm.popArgsDiscard(argc)
		res, ffiErr := vm.ffiSink.CallPtr(ptr, args)
		if ffiErr != nil {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(res)

	default:
		return false, nil
	}
	return true, nil
}

// popArgsDiscard pops n values in call order (left to right) and
// releases each, for opcodes whose args are values rather than
// references the callee keeps alive.
func (vm *VM) popArgsDiscard(n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = vm.popDiscard()
	}
	return args
}

// chunkFromMap reconstructs a *bytecode.Chunk from the runtime map
// OP_EMIT_CHUNK expects, per spec.md's documented keys: constants,
// names, functions, code, debugLines, debugCols. This is what makes
// self-hosted emission possible: a CatLang program can assemble this
// map by hand (or by driving its own compiler) and hand it to
// __emit_chunk without any native bytecode-writing path of its own.
func chunkFromMap(v Value) (*bytecode.Chunk, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("expected a map, got %T", v)
	}

	chunk := bytecode.New("<emitted>")

	constants, err := mapArray(m, "constants")
	if err != nil {
		return nil, err
	}
	for _, c := range constants {
		chunk.AddConstant(c)
	}

	names, err := mapArray(m, "names")
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		chunk.AddName(ToString(n))
	}

	functions, err := mapArray(m, "functions")
	if err != nil {
		return nil, err
	}
	for _, fnV := range functions {
		fnMap, ok := fnV.(*Map)
		if !ok {
			return nil, fmt.Errorf("functions entry must be a map, got %T", fnV)
		}
		nameIdx, _ := fnMap.get("nameIndex")
		arity, _ := fnMap.get("arity")
		entry, _ := fnMap.get("entry")
		chunk.AddFunction(int(numberOf(nameIdx)), int(numberOf(arity)), int(numberOf(entry)))
	}

	code, err := mapArray(m, "code")
	if err != nil {
		return nil, err
	}
	chunk.Code = make([]byte, len(code))
	for i, b := range code {
		chunk.Code[i] = byte(numberOf(b))
	}

	debugLines, err := mapArray(m, "debugLines")
	if err != nil {
		return nil, err
	}
	chunk.DebugLines = make([]uint32, len(debugLines))
	for i, l := range debugLines {
		chunk.DebugLines[i] = uint32(numberOf(l))
	}

	debugCols, err := mapArray(m, "debugCols")
	if err != nil {
		return nil, err
	}
	chunk.DebugCols = make([]uint32, len(debugCols))
	for i, c := range debugCols {
		chunk.DebugCols[i] = uint32(numberOf(c))
	}

	return chunk, nil
}

// mapArray reads key out of m and requires it to be an array, the shape
// every field of OP_EMIT_CHUNK's runtime map takes.
func mapArray(m *Map, key string) ([]Value, error) {
	v, ok := m.get(key)
	if !ok {
		return nil, fmt.Errorf("missing %q key", key)
	}
	arr, ok := v.(*Array)
	if !ok {
		return nil, fmt.Errorf("%q must be an array, got %T", key, v)
	}
	return arr.Elements, nil
}

func numberOf(v Value) float64 {
	n, _ := v.(float64)
	return n
}

// callNamedWithArgs backs OP_CALLN_ARR's dynamic dispatch: resolve name
// against the function table and push a frame for it with an explicit
// arg slice already assembled from an array, rather than the
// fixed-arity stack convention OP_CALL uses. Run's main loop then
// executes the callee exactly as if OP_CALL had pushed this frame; the
// callee's eventual OP_RETURN pops it and resumes here.
func (vm *VM) callNamedWithArgs(opIP int, name string, args []Value) error {
	fn, ok := vm.chunk.FindFunction(name)
	if !ok {
		return vm.runtimeError(opIP, "call to unresolved function %q", name)
	}
	if len(args) != int(fn.Arity) {
		return vm.runtimeError(opIP, "function %q expects %d arguments, got %d", name, fn.Arity, len(args))
	}
	vm.frames = append(vm.frames, frame{returnPC: vm.pc, locals: args})
	vm.pc = int(fn.Entry)
	return nil
}
