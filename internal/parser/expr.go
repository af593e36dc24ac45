package parser

import "catlang/internal/token"

// expression is the grammar entry point. Precedence chain per spec.md
// §4.4, outermost (loosest) to innermost (tightest):
//
//	equality -> logic (and/or) -> comparison -> term -> factor -> unary -> primary
//
// This deliberately differs from C-family precedence (where and/or bind
// looser than ==): here equality is the outermost production, so
// `a and b == c` parses as `(a and b) == c`.
func (p *Parser) expression() (token.Expr, error) { return p.equality() }

func (p *Parser) equality() (token.Expr, error) {
	left, err := p.logic()
	if err != nil {
		return nil, err
	}
	for p.check(token.EQ) || p.check(token.NE) {
		op := p.advance()
		right, err := p.logic()
		if err != nil {
			return nil, err
		}
		left = token.NewBinary(op.Line, op.Col, op.Lexeme, left, right)
	}
	return left, nil
}

func (p *Parser) logic() (token.Expr, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.check(token.AND) || p.check(token.OR) {
		op := p.advance()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = token.NewBinary(op.Line, op.Col, op.Lexeme, left, right)
	}
	return left, nil
}

func (p *Parser) comparison() (token.Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.check(token.GT) || p.check(token.GE) || p.check(token.LT) || p.check(token.LE) {
		op := p.advance()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = token.NewBinary(op.Line, op.Col, op.Lexeme, left, right)
	}
	return left, nil
}

func (p *Parser) term() (token.Expr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = token.NewBinary(op.Line, op.Col, op.Lexeme, left, right)
	}
	return left, nil
}

func (p *Parser) factor() (token.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		op := p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = token.NewBinary(op.Line, op.Col, op.Lexeme, left, right)
	}
	return left, nil
}

func (p *Parser) unary() (token.Expr, error) {
	if p.check(token.MINUS) || p.checkWord("not") {
		op := p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return token.NewUnary(op.Line, op.Col, op.Lexeme, right), nil
	}
	return p.postfix()
}

// postfix handles the one postfix production the grammar has: array/map
// indexing, `expr[idx]`, applied left-associatively so `a[0][1]` works.
func (p *Parser) postfix() (token.Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.check(token.LBRACKET) {
		lb := p.advance()
		idx, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET, "close the index with ]"); err != nil {
			return nil, err
		}
		e = token.NewIndex(lb.Line, lb.Col, e, idx)
	}
	return e, nil
}

func (p *Parser) primary() (token.Expr, error) {
	if e, ok, err := p.tryEnglishPhrase(); ok || err != nil {
		return e, err
	}

	t := p.peek()
	switch {
	case p.check(token.NUMBER):
		p.advance()
		return token.NewNumberLit(t.Line, t.Col, t.Literal.Number), nil
	case p.check(token.STRING):
		p.advance()
		return token.NewStringLit(t.Line, t.Col, t.Literal.Str), nil
	case p.checkWord("true"):
		p.advance()
		return token.NewBoolLit(t.Line, t.Col, true), nil
	case p.checkWord("false"):
		p.advance()
		return token.NewBoolLit(t.Line, t.Col, false), nil
	case p.checkWord("nil"):
		p.advance()
		return token.NewNilLit(t.Line, t.Col), nil
	case p.check(token.LPAREN):
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "close the grouped expression with )"); err != nil {
			return nil, err
		}
		return token.NewGrouping(t.Line, t.Col, inner), nil
	case p.check(token.LBRACKET):
		p.advance()
		var elems []token.Expr
		if !p.check(token.RBRACKET) {
			for {
				el, err := p.expression()
				if err != nil {
					return nil, err
				}
				elems = append(elems, el)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		if _, err := p.expect(token.RBRACKET, "close the array literal with ]"); err != nil {
			return nil, err
		}
		return token.NewArrayLiteral(t.Line, t.Col, elems), nil
	case p.check(token.IDENTIFIER):
		p.advance()
		name := token.NewVariable(t.Line, t.Col, t.Lexeme)
		if p.check(token.LPAREN) {
			return p.finishCall(name)
		}
		return name, nil
	default:
		return nil, p.errf("expected an expression", "unexpected token %q", t.Lexeme)
	}
}

func (p *Parser) finishCall(callee token.Expr) (token.Expr, error) {
	open := p.advance() // consume (
	var args []token.Expr
	if !p.check(token.RPAREN) {
		for {
			a, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "close the call's argument list with )"); err != nil {
		return nil, err
	}
	return token.NewCall(open.Line, open.Col, callee, args), nil
}

// builtinCall builds `__name(args...)`, the desugaring target for every
// English-phrase builtin spec.md §4.4 lists.
func builtinCall(line, col int, name string, args ...token.Expr) token.Expr {
	return token.NewCall(line, col, token.NewVariable(line, col, "__"+name), args)
}
