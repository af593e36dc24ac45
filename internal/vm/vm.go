// Package vm is CatLang's stack interpreter: evaluation stack, globals,
// call frames, a capability-pointer heap, reference-counted containers,
// and the full opcode catalogue internal/bytecode.opcodes.go defines.
//
// Grounded on internal/vm/vm.go's EnhancedVM struct shape
// (stack+frames+globals+instruction-fetch loop) from
// sentra-language-sentra, stripped of everything outside spec.md's
// scope (modules, goroutines, try/catch, debug hooks) and rebuilt to
// match spec.md §4.7's opcode semantics exactly. internal/memory/
// types.go's Value interface{}/*Array{Elements}/*Map{Items} shape is the
// container representation kept (see DESIGN.md).
package vm

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"catlang/internal/bytecode"
	"catlang/internal/caterrors"
	"catlang/internal/ffi"
	"catlang/internal/sqlrt"
	"catlang/internal/wsrt"
)

// frame is one call-stack entry: the PC to resume at on return, and this
// call's local-variable slots (spec.md §3's Frame, §4.7's call/return
// rule).
type frame struct {
	returnPC int
	locals   []Value
}

// VM executes one Chunk. A VM instance owns its globals and heap
// exclusively (spec.md §5: "two VMs do not share state").
type VM struct {
	chunk  *bytecode.Chunk
	pc     int
	stack  []Value
	frames []frame

	globals map[string]Value
	heap    []*block

	streams   map[int]*os.File
	nextHand  int
	sql       *sqlrt.Runtime
	sqlConns  map[int]int // not consulted: execSQL hands out sqlrt handles directly
	ws        *wsrt.Runtime
	wsConns   map[int]int // not consulted: execWS hands out wsrt handles directly
	ffiSink   ffi.Sink
	randSrc   *rand.Rand
	memDebug  bool
	arraysNew int
	mapsNew   int
	arraysGC  int
	mapsGC    int

	lastExitCode int
}

// New creates a VM ready to run chunk. sink is consulted for the four
// FFI opcodes (pass &ffi.NoopSink{} when no native marshaller is wired
// in); randSeed seeds OP_RANDOM so determinism tests (spec.md §8) can
// replay a run.
func New(chunk *bytecode.Chunk, sink ffi.Sink, randSeed int64) *VM {
	vm := &VM{
		chunk:    chunk,
		stack:    make([]Value, 0, 256),
		frames:   make([]frame, 0, 64),
		globals:  make(map[string]Value),
		streams:  make(map[int]*os.File),
		nextHand: 3, // 0/1/2 reserved for stdin/stdout/stderr
		sql:      sqlrt.New(),
		sqlConns: make(map[int]int),
		ws:       wsrt.New(),
		wsConns:  make(map[int]int),
		ffiSink:  sink,
		randSrc:  rand.New(rand.NewSource(randSeed)),
		memDebug: os.Getenv("CB_MEMDBG") != "",
	}
	vm.streams[0] = os.Stdin
	vm.streams[1] = os.Stdout
	vm.streams[2] = os.Stderr
	return vm
}

// ---- stack/frame primitives -------------------------------------------

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek() Value { return vm.stack[len(vm.stack)-1] }

// popDiscard pops a value the VM is done with for good (an OP_POP, a
// printed argument, an arithmetic operand), releasing it if it was a
// container reference.
func (vm *VM) popDiscard() Value {
	v := vm.pop()
	vm.release(v)
	return v
}

func (vm *VM) popNumber() float64 { return ToNumber(vm.popDiscard()) }

// retain/release implement spec.md §3's "owned by reference counts":
// every opcode that hands out an additional live binding to the same
// array/map (OP_DUP, OP_GET_GLOBAL, OP_GET_LOCAL) retains; every opcode
// that drops a binding for good (OP_POP, overwriting a global/local,
// an array/map internal replace) releases. A released container whose
// count reaches zero clears its storage and cascades one level into any
// arrays/maps it directly holds — correct here because spec.md's
// containers never cycle.
func (vm *VM) retain(v Value) {
	switch c := v.(type) {
	case *Array:
		c.refs++
	case *Map:
		c.refs++
	}
}

func (vm *VM) release(v Value) {
	switch c := v.(type) {
	case *Array:
		c.refs--
		if c.refs <= 0 {
			for _, e := range c.Elements {
				vm.release(e)
			}
			c.Elements = nil
			vm.arraysGC++
		}
	case *Map:
		c.refs--
		if c.refs <= 0 {
			for _, e := range c.Items {
				vm.release(e.Val)
			}
			c.Items = nil
			vm.mapsGC++
		}
	}
}

func (vm *VM) curFrame() *frame {
	if len(vm.frames) == 0 {
		return nil
	}
	return &vm.frames[len(vm.frames)-1]
}

// ---- instruction fetch --------------------------------------------------

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.pc]
	vm.pc++
	return b
}

func (vm *VM) readU16() uint16 {
	lo := vm.readByte()
	hi := vm.readByte()
	return uint16(lo) | uint16(hi)<<8
}

// runtimeError formats spec.md §4.7's exact rendering, using the debug
// tables at the opcode that just executed (ip is the offset of the
// opcode byte itself, i.e. pc before this instruction's operands were
// read).
func (vm *VM) runtimeError(ip int, format string, args ...interface{}) *caterrors.CatError {
	line, col := vm.chunk.DebugAt(ip)
	return caterrors.Runtime(vm.chunk.SourceName, line, col, format, args...)
}

// Run executes the chunk from pc 0 until OP_HALT, OP_EXIT, or a halting
// runtime error (unresolved call, arity mismatch, OP_PANIC, a failed
// OP_ASSERT — spec.md §7). All other runtime conditions are logged to
// stderr and execution continues with a safe default, per spec.md §4.7.
func (vm *VM) Run() (exitCode int, err error) {
	for {
		if vm.pc >= len(vm.chunk.Code) {
			return 0, nil
		}
		opIP := vm.pc
		op := bytecode.Op(vm.readByte())

		switch op {
		case bytecode.OpConst:
			idx := vm.readU16()
			vm.push(vm.chunk.Constants[idx])

		case bytecode.OpPop:
			vm.popDiscard()

		case bytecode.OpDup:
			v := vm.peek()
			vm.retain(v)
			vm.push(v)

		case bytecode.OpHalt:
			vm.closeAll()
			vm.memDebugSummary()
			return 0, nil

		case bytecode.OpGetGlobal:
			idx := vm.readU16()
			name := vm.chunk.Names[idx]
			v := vm.globals[name] // unresolved global reads nil (spec.md §4.7)
			vm.retain(v)
			vm.push(v)

		case bytecode.OpSetGlobal:
			idx := vm.readU16()
			name := vm.chunk.Names[idx]
			v := vm.pop()
			vm.release(vm.globals[name])
			vm.globals[name] = v

		case bytecode.OpGetLocal:
			idx := vm.readU16()
			f := vm.curFrame()
			var v Value
			if int(idx) < len(f.locals) {
				v = f.locals[idx]
			}
			vm.retain(v)
			vm.push(v)

		case bytecode.OpSetLocal:
			idx := vm.readU16()
			f := vm.curFrame()
			v := vm.pop()
			for int(idx) >= len(f.locals) {
				f.locals = append(f.locals, nil)
			}
			vm.release(f.locals[idx])
			f.locals[idx] = v

		case bytecode.OpJump:
			disp := vm.readU16()
			vm.pc += int(disp)

		case bytecode.OpJumpIfFalse:
			disp := vm.readU16()
			if !Truthy(vm.peek()) {
				vm.pc += int(disp)
			}

		case bytecode.OpLoop:
			disp := vm.readU16()
			vm.pc -= int(disp)

		case bytecode.OpCall:
			if err := vm.execCall(opIP); err != nil {
				return 1, err
			}

		case bytecode.OpReturn:
			ret := vm.pop()
			f := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.pc = f.returnPC
			vm.push(ret)

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			if err := vm.execArith(op, opIP); err != nil {
				return 1, err
			}

		case bytecode.OpGt, bytecode.OpGe, bytecode.OpLt, bytecode.OpLe:
			b := vm.popNumber()
			a := vm.popNumber()
			vm.push(compareOp(op, a, b))

		case bytecode.OpEq:
			b := vm.popDiscard()
			a := vm.popDiscard()
			vm.push(valuesEqual(a, b))

		case bytecode.OpNe:
			b := vm.popDiscard()
			a := vm.popDiscard()
			vm.push(!valuesEqual(a, b))

		case bytecode.OpAnd:
			b := vm.popDiscard()
			a := vm.popDiscard()
			vm.push(Truthy(a) && Truthy(b))

		case bytecode.OpOr:
			b := vm.popDiscard()
			a := vm.popDiscard()
			vm.push(Truthy(a) || Truthy(b))

		case bytecode.OpNot:
			vm.push(!Truthy(vm.popDiscard()))

		case bytecode.OpNegate:
			vm.push(-vm.popNumber())

		default:
			if err := vm.execExtended(op, opIP); err != nil {
				return 1, err
			}
			if op == bytecode.OpExit {
				vm.closeAll()
				vm.memDebugSummary()
				return vm.lastExitCode, nil
			}
		}
	}
}

func compareOp(op bytecode.Op, a, b float64) bool {
	switch op {
	case bytecode.OpGt:
		return a > b
	case bytecode.OpGe:
		return a >= b
	case bytecode.OpLt:
		return a < b
	case bytecode.OpLe:
		return a <= b
	}
	return false
}

// execArith handles the five opcodes that can fail (division/modulo by
// zero): spec.md §4.7 says this reports a runtime error and pushes 0
// rather than halting.
func (vm *VM) execArith(op bytecode.Op, opIP int) error {
	b := vm.popNumber()
	a := vm.popNumber()
	switch op {
	case bytecode.OpAdd:
		vm.push(a + b)
	case bytecode.OpSub:
		vm.push(a - b)
	case bytecode.OpMul:
		vm.push(a * b)
	case bytecode.OpDiv:
		if b == 0 {
			fmt.Fprintln(os.Stderr, vm.runtimeError(opIP, "division by zero").Error())
			vm.push(float64(0))
			return nil
		}
		vm.push(a / b)
	case bytecode.OpMod:
		if b == 0 {
			fmt.Fprintln(os.Stderr, vm.runtimeError(opIP, "modulo by zero").Error())
			vm.push(float64(0))
			return nil
		}
		vm.push(float64(int64(a) % int64(b)))
	}
	return nil
}

// execCall resolves OP_CALL's nameIndex against the chunk's function
// table and either builds a new frame or halts with a runtime error
// (spec.md §4.7: "if absent, runtime error and halt. If argc != arity,
// runtime error and halt.").
func (vm *VM) execCall(opIP int) error {
	nameIdx := vm.readU16()
	argc := int(vm.readByte())
	name := vm.chunk.Names[nameIdx]

	fn, ok := vm.chunk.FindFunction(name)
	if !ok {
		return vm.runtimeError(opIP, "call to unresolved function %q", name)
	}
	if argc != int(fn.Arity) {
		return vm.runtimeError(opIP, "function %q expects %d arguments, got %d", name, fn.Arity, argc)
	}

	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	vm.frames = append(vm.frames, frame{returnPC: vm.pc, locals: args})
	vm.pc = int(fn.Entry)
	return nil
}

// closeAll closes every open stream handle in ascending order, so a
// program's shutdown trace is reproducible instead of following Go's
// randomized map iteration order.
func (vm *VM) closeAll() {
	handles := maps.Keys(vm.streams)
	slices.Sort(handles)
	for _, h := range handles {
		if h > 2 {
			vm.streams[h].Close()
		}
	}
	vm.sql.CloseAll()
	vm.ws.CloseAll()
}

// execExtended dispatches every opcode Run's main switch doesn't handle
// inline: containers, strings, math, memory, I/O, meta, the SQL/
// WebSocket domain extensions, and the identity/crypto builtins. Each
// group's handler returns handled=false when the opcode isn't its
// concern, so this chain doubles as the catalogue's exhaustiveness
// check — an opcode nothing claims falls through to the unresolved
// branch at the bottom.
func (vm *VM) execExtended(op bytecode.Op, opIP int) error {
	argc := 0
	if opTakesArgc(op) {
		argc = int(vm.readByte())
	}

	if ok, err := vm.execContainer(op, opIP); ok {
		return err
	}
	if ok, err := vm.execString(op, argc); ok {
		return err
	}
	if ok, err := vm.execMath(op); ok {
		return err
	}
	if ok, err := vm.execMem(op); ok {
		return err
	}
	if ok, err := vm.execIO(op); ok {
		return err
	}
	if ok, err := vm.execMeta(op, opIP, argc); ok {
		return err
	}
	if ok, err := vm.execSQL(op, opIP); ok {
		return err
	}
	if ok, err := vm.execWS(op); ok {
		return err
	}
	if ok, err := vm.execDomain(op); ok {
		return err
	}
	return vm.runtimeError(opIP, "unimplemented opcode %s", op)
}

// opTakesArgc reports whether op's encoding has a trailing u8 argument
// count, matching internal/compiler/expr.go's argcBuiltinOps set.
func opTakesArgc(op bytecode.Op) bool {
	switch op {
	case bytecode.OpFormat, bytecode.OpFFICall, bytecode.OpFFICallSig, bytecode.OpFFICallPtr, bytecode.OpPrint:
		return true
	default:
		return false
	}
}

func (vm *VM) memDebugSummary() {
	if !vm.memDebug {
		return
	}
	log.Printf("catlang: arrays created=%d freed=%d, maps created=%d freed=%d",
		vm.arraysNew, vm.arraysGC, vm.mapsNew, vm.mapsGC)
}
