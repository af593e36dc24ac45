package parser

import "catlang/internal/token"

// exprPhrase is one entry of the English-surface builtin vocabulary
// spec.md §4.4 lists. parts is the phrase's literal/placeholder shape:
// "" marks a placeholder consumed as a full expression, any other string
// must match a bare identifier lexeme exactly at that position.
//
// order remaps placeholder positions (in the order they appear in parts)
// onto the argument order of the desugared "__name(...)" call, since
// several phrases read in an order that doesn't match the builtin's
// natural argument order (e.g. "get K from M" reads key-then-map but
// __map_get wants map-then-key). A nil order means identity.
type exprPhrase struct {
	parts []string
	name  string
	order []int
}

var exprPhrases = []exprPhrase{
	{[]string{"get", "", "from", ""}, "map_get", []int{1, 0}},
	{[]string{"has", "", "in", ""}, "map_has", []int{1, 0}},
	{[]string{"delete", "key", "", "from", ""}, "map_del", []int{1, 0}},
	{[]string{"keys", "of", ""}, "map_keys", nil},
	{[]string{"size", "of", ""}, "map_size", nil},

	{[]string{"substring", "of", "", "from", "", "to", ""}, "substr", nil},
	{[]string{"ord", "of", ""}, "ord", nil},
	{[]string{"chr", ""}, "chr", nil},
	{[]string{"find", "", "in", ""}, "str_find", []int{1, 0}},
	{[]string{"split", "", "by", ""}, "split", nil},
	{[]string{"concat", "", "and", ""}, "str_cat", nil},
	{[]string{"tostring", ""}, "to_string", nil},
	{[]string{"parse", "int", ""}, "parse_int", nil},
	{[]string{"parse", "float", ""}, "parse_float", nil},
	{[]string{"starts", "with", "", "in", ""}, "starts_with", []int{1, 0}},
	{[]string{"ends", "with", "", "in", ""}, "ends_with", []int{1, 0}},
	{[]string{"length", "of", ""}, "len", nil},

	{[]string{"read", "file", ""}, "read_file", nil},
	{[]string{"exists", "file", ""}, "file_exists", nil},

	{[]string{"assert", ""}, "assert", nil},
	{[]string{"panic", ""}, "panic", nil},

	{[]string{"floor", ""}, "floor", nil},
	{[]string{"ceil", ""}, "ceil", nil},
	{[]string{"round", ""}, "round", nil},
	{[]string{"sqrt", ""}, "sqrt", nil},
	{[]string{"abs", ""}, "abs", nil},
	{[]string{"pow", "", "by", ""}, "pow", nil},

	{[]string{"band", "", "and", ""}, "band", nil},
	{[]string{"bor", "", "and", ""}, "bor", nil},
	{[]string{"bxor", "", "and", ""}, "bxor", nil},
	{[]string{"shl", "", "by", ""}, "shl", nil},
	{[]string{"shr", "", "by", ""}, "shr", nil},

	{[]string{"alloc", ""}, "alloc", nil},
	{[]string{"free", ""}, "free", nil},
	{[]string{"realloc", "", ""}, "realloc", nil},
	{[]string{"ptradd", "", "by", ""}, "ptr_add", nil},
	{[]string{"ptrdiff", "", ""}, "ptr_diff", nil},
	{[]string{"blocksize", ""}, "block_size", nil},
	{[]string{"ptroffset", ""}, "ptr_offset", nil},
	{[]string{"ptrblock", ""}, "ptr_block", nil},
	{[]string{"read8", "", "at", ""}, "read8", nil},
	{[]string{"read16", "", "at", ""}, "read16", nil},
	{[]string{"read32", "", "at", ""}, "read32", nil},
	{[]string{"read64", "", "at", ""}, "read64", nil},
	// Args already capture in (value, pointer, offset) order — matching
	// spec.md §6's stated OP_STORE* stack order with no remap needed.
	{[]string{"write8", "", "to", "", "at", ""}, "write8", nil},
	{[]string{"write16", "", "to", "", "at", ""}, "write16", nil},
	{[]string{"write32", "", "to", "", "at", ""}, "write32", nil},
	{[]string{"write64", "", "to", "", "at", ""}, "write64", nil},
	{[]string{"pack16", ""}, "pack16", nil},
	{[]string{"pack32", ""}, "pack32", nil},
	{[]string{"pack64", ""}, "pack64", nil},

	{[]string{"range", "from", "", "to", ""}, "range", nil},

	{[]string{"open", "database", "", "at", ""}, "db_open", nil},
	{[]string{"query", "", "using", "", "with", ""}, "db_query", nil},
	{[]string{"exec", "", "using", "", "with", ""}, "db_exec", nil},
	{[]string{"close", "database", ""}, "db_close", nil},

	{[]string{"connect", "socket", ""}, "ws_connect", nil},
	{[]string{"send", "", "over", ""}, "ws_send", []int{1, 0}},
	{[]string{"recv", "from", ""}, "ws_recv", nil},
	{[]string{"close", "socket", ""}, "ws_close", nil},

	{[]string{"new", "id"}, "uuid", nil},
	{[]string{"human", "size", ""}, "humansize", nil},
}

// tryEnglishPhrase attempts every candidate exprPhrase whose leading
// keyword matches the token under the cursor, backtracking between
// attempts. Returns ok=false (and no error) when nothing matched, so the
// caller falls through to ordinary identifier/call parsing.
func (p *Parser) tryEnglishPhrase() (token.Expr, bool, error) {
	if !p.check(token.IDENTIFIER) {
		return nil, false, nil
	}
	word := p.peek().Lexeme
	loc := p.peek()
	for _, ph := range exprPhrases {
		if ph.parts[0] != word {
			continue
		}
		args, ok := p.tryMatchPhrase(ph.parts)
		if !ok {
			continue
		}
		callArgs := args
		if ph.order != nil {
			callArgs = make([]token.Expr, len(ph.order))
			for i, idx := range ph.order {
				callArgs[i] = args[idx]
			}
		}
		return builtinCall(loc.Line, loc.Col, ph.name, callArgs...), true, nil
	}
	return nil, false, nil
}

// tryMatchPhrase attempts to match parts against the token stream
// starting at the cursor, parsing a full expression at each "" slot.
// On any mismatch (literal keyword absent, or a slot's expression fails
// to parse) the cursor is restored and ok is false; a slot expression
// failing to parse is treated as "this isn't the phrase" rather than a
// hard error, since the leading keyword alone doesn't guarantee intent
// (it may simply be a variable or function named the same as a keyword).
func (p *Parser) tryMatchPhrase(parts []string) ([]token.Expr, bool) {
	mark := p.mark()
	var args []token.Expr
	for i, part := range parts {
		if part == "" {
			parse := p.expression
			if i+1 < len(parts) && (parts[i+1] == "and" || parts[i+1] == "or") {
				// A slot followed by an "and"/"or" separator is parsed below
				// the and/or level, so the separator is not swallowed as a
				// logical operator.
				parse = p.comparison
			}
			e, err := parse()
			if err != nil {
				p.reset(mark)
				return nil, false
			}
			args = append(args, e)
			continue
		}
		if !p.matchWord(part) {
			p.reset(mark)
			return nil, false
		}
	}
	return args, true
}
