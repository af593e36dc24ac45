// Package catlang wires the include-expander, statement accumulator,
// lexer, parser, compiler, serializer, and VM into the single pipeline
// spec.md §2's data-flow diagram describes: source text → include
// expansion → line origins → statement accumulator → (tokens → parser)
// per statement → AST program → compiler → chunk → serializer/
// deserializer → VM.
//
// Grounded on internal/vm/vm.go's top-level Run-a-script entry points
// from sentra-language-sentra, which drive the same shape of pipeline
// (load, tokenize, parse, execute) behind one call; restructured around
// CatLang's separate statement-accumulation stage and its per-statement
// error-recovery loop (spec.md §7), which the teacher's single-pass
// file-at-a-time pipeline has no equivalent of.
package catlang

import (
	"fmt"
	"os"
	"strings"

	"catlang/internal/bytecode"
	"catlang/internal/caterrors"
	"catlang/internal/compiler"
	"catlang/internal/ffi"
	"catlang/internal/lexer"
	"catlang/internal/parser"
	"catlang/internal/source"
	"catlang/internal/stmtacc"
	"catlang/internal/suggest"
	"catlang/internal/token"
	"catlang/internal/vm"
)

// CompileOptions configures one source-to-chunk compilation.
type CompileOptions struct {
	// Autofix enables the SuggestionOracle retry loop spec.md §7
	// describes. Driven by CB_AUTOFIX at the CLI layer, but exposed
	// here as a field so embedders (a REPL, a test) can set it directly.
	Autofix bool
	Oracle  suggest.Oracle
}

// DefaultOptions mirrors the CLI's default env-var reading: autofix on
// unless CB_AUTOFIX=0, using the reference suggestion oracle.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		Autofix: os.Getenv("CB_AUTOFIX") != "0",
		Oracle:  suggest.ReferenceOracle{},
	}
}

// CompileResult is what CompileFile returns: the chunk built from
// whatever statements parsed successfully, plus every diagnostic
// encountered along the way. A non-empty Errors slice does not mean Chunk
// is nil — spec.md §7: "The overall compile result is produced even
// when some statements fail."
type CompileResult struct {
	Chunk  *bytecode.Chunk
	Errors []error
}

// CompileFile runs the full front-end pipeline over rootPath and
// compiles whatever parses into one chunk.
func CompileFile(rootPath string, opts CompileOptions) (*CompileResult, error) {
	expanded, err := source.Expand(rootPath)
	if err != nil {
		return nil, caterrors.Wrap(caterrors.IoError, caterrors.Location{File: rootPath}, err, "reading %s", rootPath)
	}

	lines := strings.Split(expanded.Text, "\n")
	statements := stmtacc.Accumulate(lines, 1)

	var stmts []token.Stmt
	var errs []error

	for _, st := range statements {
		parsed, err := parseStatement(st, rootPath, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stmts = append(stmts, parsed)
	}

	c := compiler.New(rootPath)
	chunk, err := c.Compile(stmts)
	if err != nil {
		errs = append(errs, err)
	}

	return &CompileResult{Chunk: chunk, Errors: errs}, nil
}

// parseStatement lexes and parses one accumulated statement, consulting
// the suggestion oracle once on failure when opts.Autofix is set
// (spec.md §7: "if CB_AUTOFIX is enabled the rewrite is re-parsed").
func parseStatement(st stmtacc.Statement, sourceName string, opts CompileOptions) (token.Stmt, error) {
	stmt, err := lexAndParse(st.Text, sourceName, st.StartLine, st.StartCol)
	if err == nil {
		return stmt, nil
	}
	if !opts.Autofix || opts.Oracle == nil {
		return nil, err
	}
	fix, ok := opts.Oracle.Suggest(st.Text)
	if !ok || !fix.Fixed {
		return nil, err
	}
	retried, retryErr := lexAndParse(fix.Suggestion, sourceName, st.StartLine, st.StartCol)
	if retryErr != nil {
		return nil, err // report the original failure, not the retry's
	}
	return retried, nil
}

func lexAndParse(text, sourceName string, startLine, startCol int) (token.Stmt, error) {
	lx := lexer.New(text, sourceName, startLine, startCol)
	toks, err := lx.ScanAll()
	if err != nil {
		return nil, err
	}
	p := parser.New(toks, sourceName)
	return p.ParseStatement()
}

// RunChunk executes chunk to completion, printing a runtime error to
// stderr (it is already fully formatted per spec.md §4.7) rather than
// wrapping it further.
func RunChunk(chunk *bytecode.Chunk, sink ffi.Sink, randSeed int64) int {
	machine := vm.New(chunk, sink, randSeed)
	code, err := machine.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return code
}
