package source

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// writeArchive unpacks a txtar archive's files under dir, returning dir.
// Multi-file include fixtures are authored as one archive literal instead
// of scattered test files, the way golang.org/x/tools/txtar is normally
// used to seed multi-file testdata for a single test.
func writeArchive(t *testing.T, dir string, data []byte) string {
	t.Helper()
	arc := txtar.Parse(data)
	for _, f := range arc.Files {
		full := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(full, f.Data, 0o644); err != nil {
			t.Fatalf("write %s: %v", f.Name, err)
		}
	}
	return dir
}

func TestExpandSplicesNestedIncludes(t *testing.T) {
	dir := writeArchive(t, t.TempDir(), []byte(`
-- main.cb --
let a be 1
use "lib/helper.cb"
let c be 3
-- lib/helper.cb --
let b be 2
`))

	exp, err := Expand(filepath.Join(dir, "main.cb"))
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	if !containsLine(exp.Text, "let a be 1") || !containsLine(exp.Text, "let b be 2") || !containsLine(exp.Text, "let c be 3") {
		t.Fatalf("expected spliced text to contain all three statements, got:\n%s", exp.Text)
	}
	if len(exp.Origins) == 0 {
		t.Fatal("expected a non-empty origin map")
	}

	foundHelperOrigin := false
	for _, o := range exp.Origins {
		if filepath.Base(o.File) == "helper.cb" {
			foundHelperOrigin = true
		}
	}
	if !foundHelperOrigin {
		t.Errorf("expected at least one origin line attributed to helper.cb, got %+v", exp.Origins)
	}
}

func TestExpandBreaksIncludeCycles(t *testing.T) {
	dir := writeArchive(t, t.TempDir(), []byte(`
-- a.cb --
let a be 1
use "b.cb"
-- b.cb --
let b be 2
use "a.cb"
`))

	exp, err := Expand(filepath.Join(dir, "a.cb"))
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if !containsLine(exp.Text, "let a be 1") || !containsLine(exp.Text, "let b be 2") {
		t.Fatalf("expected the cycle to still splice both files' own statements once, got:\n%s", exp.Text)
	}
}

func containsLine(text, want string) bool {
	for _, l := range splitLines(text) {
		if l == want {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
