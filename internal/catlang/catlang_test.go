package catlang

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"catlang/internal/ffi"
)

func writeTempSource(t *testing.T, text string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "catlang-*.cb")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	return f.Name()
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// whatever it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	return string(out)
}

func TestCompileAndRunPrint(t *testing.T) {
	path := writeTempSource(t, "print 1 + 2\n")
	result, err := CompileFile(path, CompileOptions{})
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected compile errors: %v", result.Errors)
	}
	if result.Chunk == nil {
		t.Fatal("expected a compiled chunk")
	}

	out := captureStdout(t, func() {
		code := RunChunk(result.Chunk, &ffi.NoopSink{}, 1)
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
	})
	if strings.TrimSpace(out) != "3" {
		t.Errorf("expected program to print 3, got %q", out)
	}
}

func TestCompileAndRunPrintMultipleArgsSpaceSeparated(t *testing.T) {
	path := writeTempSource(t, `print "a" "b" "c"` + "\n")
	result, err := CompileFile(path, CompileOptions{})
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected compile errors: %v", result.Errors)
	}

	out := captureStdout(t, func() {
		RunChunk(result.Chunk, &ffi.NoopSink{}, 1)
	})
	if strings.TrimSpace(out) != "a b c" {
		t.Errorf("expected space-separated print output, got %q", out)
	}
}

// TestCompileIsDeterministic compiles the same source twice and requires
// byte-identical chunks. pretty.Diff gives a field-by-field breakdown
// instead of a single "chunks differ" failure when the compiler
// regresses on determinism (e.g. map iteration sneaking into constant
// or name ordering).
func TestCompileIsDeterministic(t *testing.T) {
	path := writeTempSource(t, `
let p be alloc 8
write32 0x11223344 to p at 0
print read32 p at 0
free p
`)
	first, err := CompileFile(path, CompileOptions{})
	if err != nil {
		t.Fatalf("CompileFile (first): %v", err)
	}
	second, err := CompileFile(path, CompileOptions{})
	if err != nil {
		t.Fatalf("CompileFile (second): %v", err)
	}

	if diff := pretty.Diff(first.Chunk, second.Chunk); len(diff) > 0 {
		t.Errorf("expected two compiles of the same source to match, got differences:\n%s", strings.Join(diff, "\n"))
	}
}

func TestCompileReportsStatementErrorsAndKeepsGoing(t *testing.T) {
	// The first line is deliberately malformed; CompileFile must still
	// report the second statement's valid output once autofix is off and
	// the first line's error can't be repaired.
	path := writeTempSource(t, "let = = =\nprint 4 + 5\n")
	result, err := CompileFile(path, CompileOptions{Autofix: false})
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected at least one compile error from the malformed first line")
	}
	if result.Chunk == nil {
		t.Fatal("expected a chunk compiled from the valid second statement")
	}
}
