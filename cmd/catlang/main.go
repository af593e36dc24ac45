// Command catlang is the thin CLI shell spec.md §6 describes: compile,
// run, bundle, disassemble, REPL, and bundled-executable self-detection,
// dispatched from os.Args with no flag-parsing library beyond what the
// teacher's own CLI entry point used.
//
// Grounded on cmd/sentra/main.go's command dispatch (sentra-language-
// sentra's root command switches on os.Args[1] the same way), adapted
// to CatLang's five-form surface and its compile-to-.cat/run-from-.cat
// split.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"catlang/internal/bundler"
	"catlang/internal/bytecode"
	"catlang/internal/catlang"
	"catlang/internal/ffi"
	"catlang/internal/serializer"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	switch {
	case len(args) == 0:
		return runNoArgs()

	case args[0] == "--bundle-exe":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: catlang --bundle-exe <file.cb|.cat> <out.exe>")
			return 1
		}
		return cmdBundleExe(args[1], args[2])

	case args[0] == "--run":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: catlang --run <file.cat>")
			return 1
		}
		return cmdRun(args[1])

	case args[0] == "--emit":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: catlang --emit <out.cat> <file.cb>")
			return 1
		}
		return cmdCompile(args[2], args[1])

	case args[0] == "--disasm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: catlang --disasm <file.cb|.cat>")
			return 1
		}
		return cmdDisasm(args[1])

	case strings.HasSuffix(args[0], ".cat"):
		return cmdRun(args[0])

	case strings.HasSuffix(args[0], ".cb"):
		out := strings.TrimSuffix(args[0], ".cb") + ".cat"
		return cmdCompile(args[0], out)

	default:
		fmt.Fprintf(os.Stderr, "catlang: unrecognized argument %q\n", args[0])
		return 1
	}
}

// runNoArgs implements spec.md §6's "prog with no args" rule: execute a
// footer-bundled chunk if the running executable carries one, else drop
// into the REPL.
func runNoArgs() int {
	self, err := os.Executable()
	if err == nil {
		if exe, mapErr := bundler.MmapExecutable(self); mapErr == nil {
			defer bundler.Unmap(exe)
			if payload, ok := (bundler.FileBundler{}).Detect(exe); ok {
				chunk, decodeErr := serializer.Read(strings.NewReader(string(payload)), self)
				if decodeErr == nil {
					return catlang.RunChunk(chunk, ffiSink(), time.Now().UnixNano())
				}
			}
		}
	}
	return runREPL()
}

func cmdCompile(srcPath, outPath string) int {
	result, err := catlang.CompileFile(srcPath, catlang.DefaultOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if result.Chunk == nil {
		return 1
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer f.Close()
	if err := serializer.Write(f, result.Chunk); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	if len(result.Errors) > 0 {
		return 1
	}
	return 0
}

func cmdRun(path string) int {
	chunk, err := loadChunk(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return catlang.RunChunk(chunk, ffiSink(), time.Now().UnixNano())
}

// cmdDisasm prints a chunk's instruction listing to stdout, the native
// counterpart to __emit_chunk's self-hosted path: this one walks a
// chunk the host compiler produced rather than one a CatLang program
// assembled at runtime.
func cmdDisasm(path string) int {
	chunk, err := loadChunk(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Print(chunk.Disassemble())
	return 0
}

// loadChunk accepts either a precompiled .cat file or a .cb source file
// compiled on the fly, so --run and bare .cat/.cb dispatch share one path.
func loadChunk(path string) (*bytecode.Chunk, error) {
	if strings.HasSuffix(path, ".cb") {
		result, err := catlang.CompileFile(path, catlang.DefaultOptions())
		if err != nil {
			return nil, err
		}
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return result.Chunk, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return serializer.Read(f, path)
}

func cmdBundleExe(srcPath, outPath string) int {
	chunk, err := loadChunk(srcPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	var payload strings.Builder
	if err := serializer.Write(&payload, chunk); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	self, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	host, err := bundler.MmapExecutable(self)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer bundler.Unmap(host)

	bundled, err := (bundler.FileBundler{}).Bundle(host, []byte(payload.String()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := os.WriteFile(outPath, bundled, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// runREPL is a minimal line-at-a-time loop: each line is accumulated,
// compiled standalone, and run immediately. The "> " prompt is shown only
// when stdout is a real terminal; output is never colorized.
func runREPL() int {
	interactive := isatty.IsTerminal(os.Stdout.Fd())
	prompt := "> "
	if !interactive {
		prompt = ""
	}

	scanner := bufio.NewScanner(os.Stdin)
	sink := ffiSink()
	for {
		fmt.Fprint(os.Stdout, prompt)
		if !scanner.Scan() {
			return 0
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		tmp, err := os.CreateTemp("", "catlang-repl-*.cb")
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		tmp.WriteString(line)
		tmp.Close()
		result, err := catlang.CompileFile(tmp.Name(), catlang.DefaultOptions())
		os.Remove(tmp.Name())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		if result.Chunk != nil {
			catlang.RunChunk(result.Chunk, sink, time.Now().UnixNano())
		}
	}
}

// ffiSink returns the FFI backend this binary calls out to. CB_DLL_PATH
// (spec.md §6) is reserved for a future native-marshalling sink; this
// binary carries none of its own (spec.md §1 treats FFI as an external
// collaborator), so every call falls through to the no-op sink, which
// warns once and returns 0.
func ffiSink() ffi.Sink {
	return &ffi.NoopSink{}
}
