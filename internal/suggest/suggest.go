// Package suggest implements the SuggestionOracle external collaborator
// spec.md §7 describes: given the text of a statement that failed to
// parse, optionally propose a rewritten statement likely to parse. These
// are "capability signals for a language where word-level syntax can be
// ambiguous", not parser-internal error recovery.
package suggest

import "regexp"

// Result is what an Oracle proposes for a failed statement.
type Result struct {
	Suggestion string
	Fixed      bool // true if the Oracle believes the rewrite is safe to re-parse unattended
}

// Oracle is consulted by internal/catlang when a statement fails to
// parse and CB_AUTOFIX is enabled (spec.md §6, §7).
type Oracle interface {
	Suggest(statementText string) (Result, bool)
}

// rewrite pairs a detector with its fix-up, applied in order; the first
// match wins.
type rewrite struct {
	pattern *regexp.Regexp
	apply   func(match []string) string
}

// ReferenceOracle implements the known rewrites spec.md §7 lists by name:
// missing "and" between band/bor/bxor operands, missing "by" before a
// shift amount, missing "with" between a call name and its arguments
// (also converting comma separators to "and"), missing "to" in a set
// statement, and missing "with" in a replace call.
type ReferenceOracle struct{}

var rewrites = []rewrite{
	{
		// "band A B" -> "band A and B"
		regexp.MustCompile(`^(band|bor|bxor)\s+(\S+)\s+(\S+)$`),
		func(m []string) string { return m[1] + " " + m[2] + " and " + m[3] },
	},
	{
		// "shl A N" -> "shl A by N"
		regexp.MustCompile(`^(shl|shr)\s+(\S+)\s+(\S+)$`),
		func(m []string) string { return m[1] + " " + m[2] + " by " + m[3] },
	},
	{
		// "set NAME VALUE" -> "set NAME to VALUE"
		regexp.MustCompile(`^set\s+(\S+)\s+(\S.*)$`),
		func(m []string) string {
			if hasWord(m[2], "to") {
				return ""
			}
			return "set " + m[1] + " to " + m[2]
		},
	},
	{
		// "replace S, OLD, NEW" -> "replace S with OLD with NEW"
		regexp.MustCompile(`^replace\s+(\S+),\s*(\S+),\s*(\S+)$`),
		func(m []string) string { return "replace " + m[1] + " with " + m[2] + " with " + m[3] },
	},
	{
		// "call NAME a, b, c" -> "call NAME with a and b and c"
		regexp.MustCompile(`^call\s+(\w+)\s+([^(].*)$`),
		func(m []string) string {
			if hasWord(m[2], "with") {
				return ""
			}
			args := regexp.MustCompile(`\s*,\s*`).ReplaceAllString(m[2], " and ")
			return "call " + m[1] + " with " + args
		},
	},
}

func hasWord(s, word string) bool {
	return regexp.MustCompile(`\b` + word + `\b`).MatchString(s)
}

// Suggest tries each known rewrite against the trimmed statement text.
func (ReferenceOracle) Suggest(statementText string) (Result, bool) {
	for _, rw := range rewrites {
		m := rw.pattern.FindStringSubmatch(statementText)
		if m == nil {
			continue
		}
		fixed := rw.apply(m)
		if fixed == "" {
			continue
		}
		return Result{Suggestion: fixed, Fixed: true}, true
	}
	return Result{}, false
}
