package vm

import (
	"math"
	"testing"

	"catlang/internal/bytecode"
	"catlang/internal/ffi"
)

// buildChunk assembles a minimal chunk from raw opcode bytes and a
// constant pool, the same table-driven shape sentra-language-sentra's
// own vm_test.go uses for its arithmetic suite.
func buildChunk(code []byte, constants []interface{}) *bytecode.Chunk {
	c := bytecode.New("<test>")
	c.Code = code
	c.Constants = constants
	c.DebugLines = make([]uint32, len(code))
	c.DebugCols = make([]uint32, len(code))
	return c
}

func runToHalt(t *testing.T, chunk *bytecode.Chunk) *VM {
	t.Helper()
	machine := New(chunk, &ffi.NoopSink{}, 1)
	if _, err := machine.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return machine
}

func constU16(idx int) []byte {
	return []byte{byte(idx), byte(idx >> 8)}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       bytecode.Op
		a, b     float64
		expected float64
	}{
		{"add", bytecode.OpAdd, 10, 20, 30},
		{"sub", bytecode.OpSub, 50, 20, 30},
		{"mul", bytecode.OpMul, 5, 6, 30},
		{"div", bytecode.OpDiv, 60, 2, 30},
		{"mod", bytecode.OpMod, 17, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := []byte{byte(bytecode.OpConst)}
			code = append(code, constU16(0)...)
			code = append(code, byte(bytecode.OpConst))
			code = append(code, constU16(1)...)
			code = append(code, byte(tt.op))
			code = append(code, byte(bytecode.OpHalt))

			chunk := buildChunk(code, []interface{}{tt.a, tt.b})
			machine := runToHalt(t, chunk)
			if len(machine.stack) != 1 {
				t.Fatalf("expected one value left on the stack, got %d", len(machine.stack))
			}
			got := machine.stack[0].(float64)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
			}
		})
	}
}

func TestDivisionByZeroDefaultsInsteadOfHalting(t *testing.T) {
	code := []byte{
		byte(bytecode.OpConst), 0, 0,
		byte(bytecode.OpConst), 1, 0,
		byte(bytecode.OpDiv),
		byte(bytecode.OpHalt),
	}
	chunk := buildChunk(code, []interface{}{float64(5), float64(0)})
	machine := runToHalt(t, chunk)
	if len(machine.stack) != 1 {
		t.Fatalf("expected one value left on the stack, got %d", len(machine.stack))
	}
	if got := machine.stack[0].(float64); got != 0 {
		t.Errorf("expected division-by-zero to push 0, got %v", got)
	}
}

func TestNewArrayUsesSingleByteCount(t *testing.T) {
	// Regression test: OP_NEW_ARRAY's count operand is a u8, not a u16
	// (spec.md §6). This builds [1, 2, 3] with the literal one-byte
	// count encoding and checks the array comes back with exactly three
	// elements, not one element followed by a desynced instruction
	// stream.
	code := []byte{
		byte(bytecode.OpConst), 0, 0,
		byte(bytecode.OpConst), 1, 0,
		byte(bytecode.OpConst), 2, 0,
		byte(bytecode.OpNewArray), 3,
		byte(bytecode.OpHalt),
	}
	chunk := buildChunk(code, []interface{}{float64(1), float64(2), float64(3)})
	machine := runToHalt(t, chunk)
	if len(machine.stack) != 1 {
		t.Fatalf("expected one value left on the stack, got %d", len(machine.stack))
	}
	arr, ok := machine.stack[0].(*Array)
	if !ok {
		t.Fatalf("expected *Array, got %T", machine.stack[0])
	}
	if len(arr.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elements))
	}
	for i, want := range []float64{1, 2, 3} {
		if arr.Elements[i].(float64) != want {
			t.Errorf("element %d: expected %v, got %v", i, want, arr.Elements[i])
		}
	}
}

func TestIndexGetSetRoundTrip(t *testing.T) {
	code := []byte{
		byte(bytecode.OpConst), 0, 0,
		byte(bytecode.OpConst), 1, 0,
		byte(bytecode.OpNewArray), 2,
		byte(bytecode.OpDup),
		byte(bytecode.OpConst), 2, 0, // index 0
		byte(bytecode.OpConst), 3, 0, // new value 99
		byte(bytecode.OpIndexSet),
		byte(bytecode.OpConst), 2, 0, // index 0 again
		byte(bytecode.OpIndexGet),
		byte(bytecode.OpHalt),
	}
	chunk := buildChunk(code, []interface{}{float64(10), float64(20), float64(0), float64(99)})
	machine := runToHalt(t, chunk)
	if len(machine.stack) != 1 {
		t.Fatalf("expected one value left on the stack, got %d", len(machine.stack))
	}
	if got := machine.stack[0].(float64); got != 99 {
		t.Errorf("expected 99 after index-set/get round trip, got %v", got)
	}
}

func TestMapSetGetOrderedKeys(t *testing.T) {
	code := []byte{
		byte(bytecode.OpNewMap),
		byte(bytecode.OpDup),
		byte(bytecode.OpConst), 0, 0, // "b"
		byte(bytecode.OpConst), 1, 0, // 2
		byte(bytecode.OpMapSet),
		byte(bytecode.OpPop), // OP_MAP_SET pushes nil
		byte(bytecode.OpDup),
		byte(bytecode.OpConst), 2, 0, // "a"
		byte(bytecode.OpConst), 3, 0, // 1
		byte(bytecode.OpMapSet),
		byte(bytecode.OpPop),
		byte(bytecode.OpMapKeys),
		byte(bytecode.OpHalt),
	}
	chunk := buildChunk(code, []interface{}{"b", float64(2), "a", float64(1)})
	machine := runToHalt(t, chunk)
	keys, ok := machine.stack[len(machine.stack)-1].(*Array)
	if !ok {
		t.Fatalf("expected *Array of keys, got %T", machine.stack[len(machine.stack)-1])
	}
	if len(keys.Elements) != 2 || keys.Elements[0].(string) != "b" || keys.Elements[1].(string) != "a" {
		t.Fatalf("expected insertion-ordered keys [b a], got %v", keys.Elements)
	}
}

func TestJumpDisplacementIsRelativeNotAbsolute(t *testing.T) {
	// OP_JUMP's operand is a forward displacement added to pc right
	// after the u16 operand is read, per spec.md §6 — not an absolute
	// target offset. This jumps over a push of 1 straight to a push of
	// 2, and checks only the second value survives.
	code := []byte{
		byte(bytecode.OpJump), 4, 0, // pc is 3 after reading this operand; +4 => 7
		byte(bytecode.OpConst), 0, 0, // skipped
		byte(bytecode.OpPop), // skipped
		byte(bytecode.OpConst), 1, 0, // landed here at offset 7
		byte(bytecode.OpHalt),
	}
	chunk := buildChunk(code, []interface{}{float64(1), float64(2)})
	machine := runToHalt(t, chunk)
	if len(machine.stack) != 1 {
		t.Fatalf("expected one value left on the stack, got %d", len(machine.stack))
	}
	if got := machine.stack[0].(float64); got != 2 {
		t.Errorf("expected jump to skip the first push, got %v", got)
	}
}
