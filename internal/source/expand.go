// Package source implements the include-expander and origin map described
// in spec.md §4.2: recursive textual inclusion with cycle detection and
// per-physical-line provenance tracking.
//
// Grounded on internal/vm/module_loader.go's path-resolution and
// already-loading cycle guard (`cache map[string]*Module`,
// `loading map[string]bool`, `resolvePath`), restyled here as pure
// text-to-text expansion with no VM dependency — the expander runs before
// a single token has been scanned.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
)

var includePrefixes = []string{`use "`, `import "`, `include "`, `#include "`}

// readGroup deduplicates concurrent reads of the same canonical include
// path across expansions driven from multiple goroutines; reads that do
// not overlap in time each go to disk. The VM itself stays
// single-threaded per spec.md §5, but expansion is pure text work and may
// run concurrently ahead of it.
var readGroup singleflight.Group

// Origin records which physical file and local line a physical line of
// expanded text came from.
type Origin struct {
	File      string
	LocalLine int
}

// Expanded is the result of expanding one root file: the spliced text and
// a parallel Origin slice (len(Origins) == number of physical lines in
// Text).
type Expanded struct {
	RootPath string
	Text     string
	Origins  []Origin
}

// Expand recursively inlines `use "path"` (and its import/include/
// #include spellings) directives found in the file at rootPath, bracketing
// each inclusion with sentinel comment lines. Unreadable include targets
// are skipped (spliced as empty), and cycles are broken silently, matching
// spec.md §4.2's best-effort contract: this stage never returns a hard
// error. The origin map is then built from the spliced text by
// ReconstructOrigins, kept as a separate pass so it can be exercised (and
// property-tested) independently of the splicing walk that produced it.
func Expand(rootPath string) (*Expanded, error) {
	cpath := canonical(rootPath)
	var lines []string
	expandInto(rootPath, map[string]bool{}, &lines)
	text := strings.Join(lines, "\n")
	return &Expanded{
		RootPath: cpath,
		Text:     text,
		Origins:  ReconstructOrigins(text, cpath),
	}, nil
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.Clean(abs)
}

func beginSentinel(path string) string { return fmt.Sprintf("/* begin import: %s */", path) }
func endSentinel(path string) string   { return fmt.Sprintf("/* end import: %s */", path) }

func parseBeginSentinel(line string) (string, bool) {
	return parseSentinel(line, "/* begin import: ")
}

func parseEndSentinel(line string) (string, bool) {
	return parseSentinel(line, "/* end import: ")
}

func parseSentinel(line, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) || !strings.HasSuffix(trimmed, " */") {
		return "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, prefix), " */")
	return inner, true
}

// expandInto appends rootPath's expansion (recursively splicing its own
// includes) onto *lines. It never returns an error: an unreadable include
// contributes nothing, and a cycle is broken silently.
func expandInto(path string, visiting map[string]bool, lines *[]string) {
	cpath := canonical(path)
	if visiting[cpath] {
		return
	}
	visiting[cpath] = true
	defer delete(visiting, cpath)

	body, err := readFile(cpath)
	if err != nil {
		return
	}

	dir := filepath.Dir(cpath)

	for _, raw := range strings.Split(body, "\n") {
		incPath, isInclude := includeTarget(raw)
		if !isInclude {
			*lines = append(*lines, raw)
			continue
		}

		resolved := incPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(dir, incPath)
		}
		childCanonical := canonical(resolved)

		*lines = append(*lines, beginSentinel(childCanonical))
		expandInto(resolved, visiting, lines)
		*lines = append(*lines, endSentinel(childCanonical))
	}
}

func readFile(path string) (string, error) {
	v, err, _ := readGroup.Do(path, func() (interface{}, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// includeTarget reports the quoted path of an include directive, if line
// (after left-trim) begins with one of the recognised spellings.
func includeTarget(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range includePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			rest := trimmed[len(prefix):]
			end := strings.IndexByte(rest, '"')
			if end < 0 {
				return "", false
			}
			return rest[:end], true
		}
	}
	return "", false
}

// ReconstructOrigins rebuilds the origin map from already-expanded text by
// walking a stack of {file, localLine}, exactly as spec.md §4.2
// describes: a begin-sentinel pushes the child file, an end-sentinel pops
// it, and every other line increments the top-of-stack counter. rootPath
// seeds the stack's bottom frame.
func ReconstructOrigins(text, rootPath string) []Origin {
	type stackFrame struct {
		file string
		line int
	}
	stack := []stackFrame{{file: rootPath}}
	origins := make([]Origin, 0, strings.Count(text, "\n")+1)

	for _, line := range strings.Split(text, "\n") {
		if child, ok := parseBeginSentinel(line); ok {
			stack = append(stack, stackFrame{file: child})
			origins = append(origins, Origin{File: stack[len(stack)-1].file, LocalLine: 0})
			continue
		}
		if _, ok := parseEndSentinel(line); ok {
			top := stack[len(stack)-1]
			origins = append(origins, Origin{File: top.file, LocalLine: top.line})
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		top := &stack[len(stack)-1]
		top.line++
		origins = append(origins, Origin{File: top.file, LocalLine: top.line})
	}
	return origins
}
