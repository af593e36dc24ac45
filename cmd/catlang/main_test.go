package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-exec this test binary as the "catlang"
// command, so scripts under testdata/script run against the real CLI
// dispatch in run() rather than a second, hand-maintained harness binary.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"catlang": func() int { return run(os.Args[1:]) },
	}))
}

// TestScripts drives every spec.md §8 end-to-end scenario as a
// testscript script, grounded on the pattern
// cmd/go's own script tests use for exercising a CLI black-box.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
