// Package stmtacc groups the physical lines of expanded source into
// logical statements by balancing `do`/`end` and `{`/`}` outside quoted
// strings, per spec.md §4.3.
//
// No direct teacher equivalent exists (sentra's grammar is brace-only and
// never needs this pass), so this package is grounded on the *style* of
// internal/parser/parser.go's manual index bookkeeping, generalized to
// line-level grouping.
package stmtacc

import (
	"strings"

	"golang.org/x/exp/slices"
)

// commentPrefixes are the line-comment markers isSkippable recognizes;
// a block comment ("/* ... */" on one line) is checked separately.
var commentPrefixes = []string{";", "#", "//"}

// Statement is one logical unit of source: the joined text of one or more
// physical lines, plus the location of its first non-comment line (used
// to seed the lexer/parser's line/column counters).
type Statement struct {
	Text      string
	StartLine int
	StartCol  int
}

// Accumulate filters blank lines and comments from the expanded lines and
// groups the remainder into logical statements by block-balance.
// startLine is the 1-based line number of lines[0] in the original file
// (so callers driving a sub-range of a larger file get correct
// diagnostics).
func Accumulate(lines []string, startLine int) []Statement {
	var stmts []Statement
	i := 0
	n := len(lines)

	for i < n {
		for i < n && isSkippable(lines[i]) {
			i++
		}
		if i >= n {
			break
		}

		firstIdx := i
		col := 1 + leadingWhitespace(lines[i])
		var collected []string
		opens, closes := 0, 0

		for i < n {
			line := lines[i]
			if !isSkippable(line) {
				collected = append(collected, line)
				o, c := balance(line)
				opens += o
				closes += c
			}
			i++
			if opens <= closes {
				break
			}
			// skip trailing comments while still inside an open block
			for i < n && isSkippable(lines[i]) {
				i++
			}
		}

		stmts = append(stmts, Statement{
			Text:      strings.Join(collected, "\n"),
			StartLine: startLine + firstIdx,
			StartCol:  col,
		})
	}
	return stmts
}

func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if slices.ContainsFunc(commentPrefixes, func(p string) bool { return strings.HasPrefix(trimmed, p) }) {
		return true
	}
	if strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/") {
		return true
	}
	return false
}

func leadingWhitespace(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// balance counts block-opening/closing tokens on one physical line,
// ignoring anything inside a quoted string, and only at paren/bracket/
// brace nesting depth 0 within the line (spec.md §4.3).
func balance(line string) (opens, closes int) {
	depth := 0
	inString := false
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case inString:
			if c == '"' {
				inString = false
			}
			i++
		case c == '"':
			inString = true
			i++
		case c == '(' || c == '[':
			depth++
			i++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
			i++
		case c == '{':
			if depth == 0 {
				opens++
			}
			i++
		case c == '}':
			if depth == 0 {
				closes++
			}
			i++
		case depth == 0 && isWordStart(line, i, "do"):
			opens++
			i += 2
		case depth == 0 && isWordStart(line, i, "end"):
			closes++
			i += 3
		default:
			i++
		}
	}
	return opens, closes
}

// isWordStart reports whether word occurs at line[i:] as a whole word
// (not a substring of a longer identifier like "dodge").
func isWordStart(line string, i int, word string) bool {
	if i+len(word) > len(line) || line[i:i+len(word)] != word {
		return false
	}
	if i > 0 && isIdentByte(line[i-1]) {
		return false
	}
	end := i + len(word)
	if end < len(line) && isIdentByte(line[end]) {
		return false
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
