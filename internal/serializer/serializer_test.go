package serializer

import (
	"bytes"
	"testing"

	"catlang/internal/bytecode"
)

func TestWriteReadRoundTrip(t *testing.T) {
	c := bytecode.New("<memory>")
	c.AddConstant(float64(42))
	c.AddConstant("hello")
	c.AddConstant(true)
	c.AddConstant(nil)
	c.AddName("greet")
	c.AddFunction(0, 1, 0)

	c.WriteOp(bytecode.OpConst)
	c.WriteU16(0)
	c.WriteOp(bytecode.OpReturn)
	c.StampRange(0, 3, 1)

	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf, "<memory>")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(got.Constants) != len(c.Constants) {
		t.Fatalf("expected %d constants, got %d", len(c.Constants), len(got.Constants))
	}
	if got.Constants[0].(float64) != 42 {
		t.Errorf("constant 0: expected 42, got %v", got.Constants[0])
	}
	if got.Constants[1].(string) != "hello" {
		t.Errorf("constant 1: expected %q, got %v", "hello", got.Constants[1])
	}
	if got.Constants[2].(bool) != true {
		t.Errorf("constant 2: expected true, got %v", got.Constants[2])
	}
	if got.Constants[3] != nil {
		t.Errorf("constant 3: expected nil, got %v", got.Constants[3])
	}

	if len(got.Names) != 1 || got.Names[0] != "greet" {
		t.Errorf("expected names [greet], got %v", got.Names)
	}

	if len(got.Functions) != 1 || got.Functions[0].Arity != 1 {
		t.Fatalf("expected one function with arity 1, got %v", got.Functions)
	}

	if !bytes.Equal(got.Code, c.Code) {
		t.Errorf("code mismatch: expected %v, got %v", c.Code, got.Code)
	}
	if len(got.DebugLines) != len(c.DebugLines) {
		t.Errorf("debug line count mismatch: expected %d, got %d", len(c.DebugLines), len(got.DebugLines))
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3, 4}), "<memory>")
	if err == nil {
		t.Fatal("expected an error for a file with no valid magic header")
	}
}

func TestReadToleratesNewerVersion(t *testing.T) {
	c := bytecode.New("<memory>")
	c.WriteOp(bytecode.OpHalt)

	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	raw := buf.Bytes()

	// Bump the version field (bytes 4-5, little-endian) past
	// currentVersion and confirm Read still loads the chunk instead of
	// refusing it outright (spec.md §6: "reader accepts higher").
	raw[4] = 0xFF
	raw[5] = 0xFF

	got, err := Read(bytes.NewReader(raw), "<memory>")
	if err != nil {
		t.Fatalf("expected a newer-version chunk to still load, got error: %v", err)
	}
	if !bytes.Equal(got.Code, c.Code) {
		t.Errorf("code mismatch after tolerating newer version: expected %v, got %v", c.Code, got.Code)
	}
}
