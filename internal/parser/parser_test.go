package parser

import (
	"testing"

	"catlang/internal/lexer"
	"catlang/internal/token"
)

// parseString lexes and parses one statement's worth of text, the same
// scanner-then-parser helper shape sentra-language-sentra's own
// parser_test.go builds around NewParser/Parse.
func parseString(input string) (token.Stmt, error) {
	lx := lexer.New(input, "<test>", 1, 1)
	toks, err := lx.ScanAll()
	if err != nil {
		return nil, err
	}
	p := New(toks, "<test>")
	return p.ParseStatement()
}

func assertParseSuccess(t *testing.T, input, description string) token.Stmt {
	t.Helper()
	stmt, err := parseString(input)
	if err != nil {
		t.Errorf("%s: parsing %q failed: %v", description, input, err)
		return nil
	}
	if stmt == nil {
		t.Errorf("%s: parsing %q returned a nil statement", description, input)
	}
	return stmt
}

func assertParseError(t *testing.T, input, description string) {
	t.Helper()
	_, err := parseString(input)
	if err == nil {
		t.Errorf("%s: expected parsing %q to fail but it succeeded", description, input)
	}
}

func TestBinaryPrecedence(t *testing.T) {
	// "==" binds looser than "and" (equality is the outermost production),
	// so `a and b == c` must parse as `(a and b) == c`, not `a and (b == c)`.
	stmt := assertParseSuccess(t, "print a and b == c", "logical-vs-equality precedence")
	if stmt == nil {
		return
	}
	ps, ok := stmt.(*token.PrintStmt)
	if !ok || len(ps.Args) != 1 {
		t.Fatalf("expected a single-argument print statement, got %#v", stmt)
	}
	bin, ok := ps.Args[0].(*token.Binary)
	if !ok || bin.Op != "==" {
		t.Fatalf("expected the outermost node to be an '==' comparison, got %#v", ps.Args[0])
	}
	lhs, ok := bin.Left.(*token.Binary)
	if !ok || lhs.Op != "and" {
		t.Fatalf("expected the left-hand side to be an 'and', got %#v", bin.Left)
	}
}

func TestConciseAndEnglishLetAreEquivalentShape(t *testing.T) {
	concise := assertParseSuccess(t, "let x = 1", "concise let")
	english := assertParseSuccess(t, "let x be 1", "English let")
	if concise == nil || english == nil {
		return
	}
	if _, ok := concise.(*token.LetStmt); !ok {
		t.Errorf("expected concise let to produce a *token.LetStmt, got %T", concise)
	}
	if _, ok := english.(*token.LetStmt); !ok {
		t.Errorf("expected English let to produce a *token.LetStmt, got %T", english)
	}
}

func TestEnglishPhraseDesugarsToBuiltinCall(t *testing.T) {
	stmt := assertParseSuccess(t, `print new id`, "English 'new id' phrase")
	if stmt == nil {
		return
	}
	ps, ok := stmt.(*token.PrintStmt)
	if !ok || len(ps.Args) != 1 {
		t.Fatalf("expected a single-argument print statement, got %#v", stmt)
	}
	call, ok := ps.Args[0].(*token.Call)
	if !ok {
		t.Fatalf("expected 'new id' to desugar to a call expression, got %#v", ps.Args[0])
	}
	callee, ok := call.Callee.(*token.Variable)
	if !ok || callee.Name != "__uuid" {
		t.Errorf("expected the desugared callee to be __uuid, got %#v", call.Callee)
	}
}

func TestMalformedLetFailsToParse(t *testing.T) {
	assertParseError(t, "let = = =", "let with no variable name")
}

func TestUnterminatedStringFailsToParse(t *testing.T) {
	assertParseError(t, `print "unterminated`, "unterminated string literal")
}
