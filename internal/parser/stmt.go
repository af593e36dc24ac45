package parser

import "catlang/internal/token"

// statement parses one statement, dispatching on the keyword under the
// cursor. Each of the four dual-surface forms spec.md §4.4 calls out
// (function declaration, if, while, let/set) decides concise vs. English
// by which token follows its keyword, not by a separate grammar:
// function/if/while look at whether `(`/`{` or a bare condition/param
// list follows, and let/set simply have two keyword spellings.
func (p *Parser) statement() (token.Stmt, error) {
	switch {
	case p.checkWord("fn"):
		return p.functionDeclConcise()
	case p.checkWord("define"):
		return p.functionDeclEnglish()
	case p.checkWord("if"):
		return p.ifStmt()
	case p.checkWord("while"):
		return p.whileStmt()
	case p.checkWord("for"):
		return p.forEachStmt()
	case p.checkWord("let") || p.checkWord("make"):
		return p.letStmt()
	case p.checkWord("set"):
		return p.setStmtEnglish()
	case p.checkWord("call"):
		return p.callStmtEnglish()
	case p.checkWord("print"):
		return p.printStmt()
	case p.checkWord("append"):
		return p.appendStmt()
	case p.checkWord("return"):
		return p.returnStmt()
	case p.check(token.LBRACE):
		return p.braceBlock()
	default:
		return p.exprOrAssignStmt()
	}
}

// braceBlock parses `{ stmt... }`, with the cursor on the opening brace.
func (p *Parser) braceBlock() (*token.BlockStmt, error) {
	open, err := p.expect(token.LBRACE, "open the block with {")
	if err != nil {
		return nil, err
	}
	var stmts []token.Stmt
	for !p.check(token.RBRACE) && !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE, "close the block with }"); err != nil {
		return nil, err
	}
	return token.NewBlockStmt(open.Line, open.Col, stmts), nil
}

// blockUntil parses statements up to (but not consuming) the first token
// that spells one of stopWords, for the `do ... end` / `then ... end` /
// `then ... else ... end` English block forms.
func (p *Parser) blockUntil(stopWords ...string) (*token.BlockStmt, error) {
	start := p.peek()
	var stmts []token.Stmt
	for !p.atEnd() {
		stopped := false
		for _, w := range stopWords {
			if p.checkWord(w) {
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return token.NewBlockStmt(start.Line, start.Col, stmts), nil
}

// ifStmt parses `if COND { ... } [else { ... }]` or
// `if COND then ... [else ...] end`.
func (p *Parser) ifStmt() (token.Stmt, error) {
	kw := p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	switch {
	case p.check(token.LBRACE):
		thenBlk, err := p.braceBlock()
		if err != nil {
			return nil, err
		}
		var elseBlk *token.BlockStmt
		if p.matchWord("else") {
			elseBlk, err = p.braceBlock()
			if err != nil {
				return nil, err
			}
		}
		return token.NewIfStmt(kw.Line, kw.Col, cond, thenBlk, elseBlk), nil
	case p.matchWord("then"):
		thenBlk, err := p.blockUntil("else", "end")
		if err != nil {
			return nil, err
		}
		var elseBlk *token.BlockStmt
		if p.matchWord("else") {
			elseBlk, err = p.blockUntil("end")
			if err != nil {
				return nil, err
			}
		}
		if err := p.expectWord("end", "close the if with end"); err != nil {
			return nil, err
		}
		return token.NewIfStmt(kw.Line, kw.Col, cond, thenBlk, elseBlk), nil
	default:
		return nil, p.errf("expected { or then after the if condition", "unexpected token %q", p.peek().Lexeme)
	}
}

// whileStmt parses `while COND { ... }`, `while COND do ... end`, or the
// doubled form `while COND do do ... end end`, whose inner `do ... end`
// block becomes the loop body, giving the same WhileStmt as the single-do
// form.
func (p *Parser) whileStmt() (token.Stmt, error) {
	kw := p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	switch {
	case p.check(token.LBRACE):
		body, err := p.braceBlock()
		if err != nil {
			return nil, err
		}
		return token.NewWhileStmt(kw.Line, kw.Col, cond, body), nil
	case p.matchWord("do"):
		doubled := p.matchWord("do")
		body, err := p.blockUntil("end")
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("end", "close the while with end"); err != nil {
			return nil, err
		}
		if doubled {
			if err := p.expectWord("end", "close the doubled do with a second end"); err != nil {
				return nil, err
			}
		}
		return token.NewWhileStmt(kw.Line, kw.Col, cond, body), nil
	default:
		return nil, p.errf("expected { or do after the while condition", "unexpected token %q", p.peek().Lexeme)
	}
}

// forEachStmt parses `for each NAME in ITER do ... end` or
// `for (NAME in ITER) { ... }`.
func (p *Parser) forEachStmt() (token.Stmt, error) {
	kw := p.advance()
	if p.matchWord("each") {
		nameTok, err := p.expect(token.IDENTIFIER, "expected a loop variable name")
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("in", "expected 'in' after the loop variable"); err != nil {
			return nil, err
		}
		iter, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("do", "expected 'do' to start the loop body"); err != nil {
			return nil, err
		}
		body, err := p.blockUntil("end")
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("end", "close the for-each with end"); err != nil {
			return nil, err
		}
		return token.NewForEachStmt(kw.Line, kw.Col, nameTok.Lexeme, iter, body), nil
	}

	if _, err := p.expect(token.LPAREN, "expected ( after for"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENTIFIER, "expected a loop variable name")
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("in", "expected 'in' after the loop variable"); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "close the for-each header with )"); err != nil {
		return nil, err
	}
	body, err := p.braceBlock()
	if err != nil {
		return nil, err
	}
	return token.NewForEachStmt(kw.Line, kw.Col, nameTok.Lexeme, iter, body), nil
}

// functionDeclConcise parses `fn NAME(p1: T1, p2: T2) -> RET { ... }`.
// Parameter types and the return type are both optional.
func (p *Parser) functionDeclConcise() (token.Stmt, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.IDENTIFIER, "expected a function name after fn")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "expected ( after the function name"); err != nil {
		return nil, err
	}
	var params []token.Parameter
	if !p.check(token.RPAREN) {
		for {
			pn, err := p.expect(token.IDENTIFIER, "expected a parameter name")
			if err != nil {
				return nil, err
			}
			var pt *token.TypeDesc
			if p.match(token.COLON) {
				pt, err = p.parseType()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, token.Parameter{Name: pn.Lexeme, Type: pt})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "close the parameter list with )"); err != nil {
		return nil, err
	}
	var ret *token.TypeDesc
	if p.match(token.ARROW) {
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.braceBlock()
	if err != nil {
		return nil, err
	}
	return token.NewFunctionStmt(kw.Line, kw.Col, nameTok.Lexeme, params, ret, body), nil
}

// functionDeclEnglish parses `define function NAME [with A and B and C] do
// ... end`. English-surface functions carry no type annotations; the
// structural type-checker only sees types written in the concise form.
func (p *Parser) functionDeclEnglish() (token.Stmt, error) {
	kw := p.advance()
	if err := p.expectWord("function", "expected 'function' after define"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENTIFIER, "expected a function name")
	if err != nil {
		return nil, err
	}
	var params []token.Parameter
	if p.matchWord("with") {
		for {
			pn, err := p.expect(token.IDENTIFIER, "expected a parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, token.Parameter{Name: pn.Lexeme})
			if !p.match(token.AND) {
				break
			}
		}
	}
	if err := p.expectWord("do", "expected 'do' to start the function body"); err != nil {
		return nil, err
	}
	body, err := p.blockUntil("end")
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("end", "close the function with end"); err != nil {
		return nil, err
	}
	return token.NewFunctionStmt(kw.Line, kw.Col, nameTok.Lexeme, params, nil, body), nil
}

// letStmt parses `let NAME [: TYPE] = EXPR;`, `let NAME be EXPR`, and
// `make NAME equal to EXPR`.
func (p *Parser) letStmt() (token.Stmt, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.IDENTIFIER, "expected a variable name")
	if err != nil {
		return nil, err
	}

	if kw.Lexeme == "make" {
		if err := p.expectWord("equal", "expected 'equal to' after the variable name"); err != nil {
			return nil, err
		}
		if err := p.expectWord("to", "expected 'to' after 'equal'"); err != nil {
			return nil, err
		}
		init, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.match(token.SEMICOLON)
		return token.NewLetStmt(kw.Line, kw.Col, nameTok.Lexeme, nil, init), nil
	}

	var typ *token.TypeDesc
	if p.match(token.COLON) {
		typ, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	var init token.Expr
	if p.matchWord("be") {
		init, err = p.expression()
	} else {
		if _, err := p.expect(token.ASSIGN, "expected '=' or 'be' after the variable name"); err != nil {
			return nil, err
		}
		init, err = p.expression()
	}
	if err != nil {
		return nil, err
	}
	p.match(token.SEMICOLON)
	return token.NewLetStmt(kw.Line, kw.Col, nameTok.Lexeme, typ, init), nil
}

// setStmtEnglish parses `set NAME to EXPR`, `set NAME[IDX] to EXPR`, and
// `set key K of M to V`.
func (p *Parser) setStmtEnglish() (token.Stmt, error) {
	kw := p.advance()

	if p.matchWord("key") {
		k, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("of", "expected 'of' after the key expression"); err != nil {
			return nil, err
		}
		m, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("to", "expected 'to' after the map expression"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.match(token.SEMICOLON)
		return token.NewSetIndexStmt(kw.Line, kw.Col, m, k, v), nil
	}

	nameTok, err := p.expect(token.IDENTIFIER, "expected a variable name after set")
	if err != nil {
		return nil, err
	}
	target := token.Expr(token.NewVariable(nameTok.Line, nameTok.Col, nameTok.Lexeme))
	if p.match(token.LBRACKET) {
		idx, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET, "close the index with ]"); err != nil {
			return nil, err
		}
		if err := p.expectWord("to", "expected 'to' after the index"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.match(token.SEMICOLON)
		return token.NewSetIndexStmt(kw.Line, kw.Col, target, idx, v), nil
	}
	if err := p.expectWord("to", "expected 'to' after the variable name"); err != nil {
		return nil, err
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match(token.SEMICOLON)
	return token.NewSetStmt(kw.Line, kw.Col, nameTok.Lexeme, v), nil
}

// callStmtEnglish parses `call NAME [with A and B and C]` as a
// statement-level expression call.
func (p *Parser) callStmtEnglish() (token.Stmt, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.IDENTIFIER, "expected a function name after call")
	if err != nil {
		return nil, err
	}
	var args []token.Expr
	if p.matchWord("with") {
		for {
			// Parsed below the and/or level so the separating `and` is
			// left for the loop instead of becoming a logical operator.
			a, err := p.comparison()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.match(token.AND) {
				break
			}
		}
	}
	p.match(token.SEMICOLON)
	call := token.NewCall(kw.Line, kw.Col, token.NewVariable(nameTok.Line, nameTok.Col, nameTok.Lexeme), args)
	return token.NewExpressionStmt(kw.Line, kw.Col, call), nil
}

// printStmt parses `print E1 E2 ...`: one full expression, repeated for as
// long as the token under the cursor could start another one. Each call to
// expression() is itself greedy about binary operators (`print (2+3)*4`
// parses as one argument, the whole arithmetic expression), so the loop
// only picks up a second argument when a wholly separate primary follows
// with no operator joining it, e.g. `print a[0] a[1]`.
func (p *Parser) printStmt() (token.Stmt, error) {
	kw := p.advance()
	var args []token.Expr
	for {
		a, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.startsExpr() {
			break
		}
	}
	p.match(token.SEMICOLON)
	return token.NewPrintStmt(kw.Line, kw.Col, args), nil
}

// startsExpr reports whether the token under the cursor could begin a new
// primary expression, used by printStmt to decide whether another
// space-separated argument follows.
func (p *Parser) startsExpr() bool {
	if p.atEnd() {
		return false
	}
	switch p.peek().Kind {
	case token.NUMBER, token.STRING, token.LPAREN, token.LBRACKET, token.MINUS:
		return true
	case token.IDENTIFIER:
		switch p.peek().Lexeme {
		case "end", "else", "then", "do":
			return false
		default:
			return true
		}
	default:
		return false
	}
}

// appendStmt parses `append VALUE to ARRAY`, desugaring to the same
// __append(array, value) call the compiler recognizes as a statement-like
// builtin (its result, always nil, is discarded rather than printed even
// at top level — see internal/compiler/builtins.go's voidBuiltins set).
func (p *Parser) appendStmt() (token.Stmt, error) {
	kw := p.advance()
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("to", "expected 'to' after the appended value"); err != nil {
		return nil, err
	}
	arr, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match(token.SEMICOLON)
	call := builtinCall(kw.Line, kw.Col, "append", arr, v)
	return token.NewExpressionStmt(kw.Line, kw.Col, call), nil
}

// returnStmt parses `return` and `return EXPR`.
func (p *Parser) returnStmt() (token.Stmt, error) {
	kw := p.advance()
	if p.atEnd() || p.check(token.SEMICOLON) || p.checkWord("end") || p.checkWord("else") || p.check(token.RBRACE) {
		p.match(token.SEMICOLON)
		return token.NewReturnStmt(kw.Line, kw.Col, kw.Lexeme, nil), nil
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match(token.SEMICOLON)
	return token.NewReturnStmt(kw.Line, kw.Col, kw.Lexeme, v), nil
}

// exprOrAssignStmt handles the concise forms that don't start with a
// reserved keyword: a bare expression statement, `NAME = EXPR;`, and
// `NAME[IDX] = EXPR;`. It parses the left-hand side as an ordinary
// expression first (so `NAME` and `NAME[IDX]` fall naturally out of the
// existing Variable/Index productions) and only afterwards decides,
// based on whether `=` follows, whether it was an assignment target.
func (p *Parser) exprOrAssignStmt() (token.Stmt, error) {
	start := p.peek()
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.match(token.ASSIGN) {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		p.match(token.SEMICOLON)
		switch lv := e.(type) {
		case *token.Variable:
			return token.NewSetStmt(start.Line, start.Col, lv.Name, v), nil
		case *token.Index:
			return token.NewSetIndexStmt(start.Line, start.Col, lv.Array, lv.Idx, v), nil
		default:
			return nil, p.errf("assignment target must be a variable or index", "invalid assignment target")
		}
	}
	p.match(token.SEMICOLON)
	return token.NewExpressionStmt(start.Line, start.Col, e), nil
}

// parseType parses a type descriptor: a primitive name (`i32`, `string`,
// `ptr`, ...) or `*T` for a pointer to T.
func (p *Parser) parseType() (*token.TypeDesc, error) {
	if p.match(token.STAR) {
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &token.TypeDesc{IsPtr: true, PointsTo: inner}, nil
	}
	nameTok, err := p.expect(token.IDENTIFIER, "expected a type name")
	if err != nil {
		return nil, err
	}
	prim, ok := token.LookupPrimitive(nameTok.Lexeme)
	if !ok {
		return nil, p.errf("unknown type name", "unknown type %q", nameTok.Lexeme)
	}
	return &token.TypeDesc{Prim: prim}, nil
}
