// Package compiler lowers a parsed statement list into a bytecode.Chunk
// in a single pass.
//
// Grounded on internal/compiler/compiler.go and internal/compiler/
// stmt_compiler.go (sentra-language-sentra's expression- and statement-
// level Accept-dispatch compilers), restructured per spec.md §9: AST
// nodes are dispatched with a type switch here instead of the teacher's
// VisitXxxExpr/VisitXxxStmt interface methods, since internal/token's
// node set was rebuilt as plain tagged structs with no Accept method.
// internal/compiler/hoisting_compiler.go's two-pass collect-then-compile
// idea is dropped rather than kept: OP_CALL resolves its callee by name
// against the chunk's function table at the moment the call executes,
// and the whole chunk exists before the VM runs a single instruction, so
// a single pass that compiles each FunctionStmt inline wherever it's
// encountered already supports calling a function before its textual
// declaration. See Compile's doc comment for the full reasoning.
package compiler

import (
	"fmt"

	"catlang/internal/bytecode"
	"catlang/internal/caterrors"
	"catlang/internal/token"
)

// Compiler holds the single Chunk being built and the local-variable
// bookkeeping for whichever function body is currently being compiled
// (nil at top level, where every Let introduces a global instead).
type Compiler struct {
	chunk      *bytecode.Chunk
	sourceName string
	fn         *funcScope
}

// funcScope tracks local-slot assignment within one function body.
// Slots are never reclaimed on block exit (spec.md's VM addresses locals
// by a flat per-call-frame slot array that starts out holding the call's
// arguments and grows on demand as OP_SET_LOCAL writes higher slots).
type funcScope struct {
	locals   map[string]int
	nextSlot int
}

// New creates a Compiler that will emit into a fresh chunk attributed to
// sourceName.
func New(sourceName string) *Compiler {
	return &Compiler{chunk: bytecode.New(sourceName), sourceName: sourceName}
}

// Compile lowers stmts (the whole program, or everything accumulated so
// far in a REPL session) into the Compiler's chunk and returns it.
//
// A function can be called before its textual declaration: OP_CALL
// resolves its callee by name against chunk.Functions at the moment the
// call executes, and the whole chunk (every FunctionStmt's entry
// already registered) exists before the VM runs a single instruction.
// So, unlike the teacher's two-pass hoisting compiler, declarations
// don't need a separate collection pass — each FunctionStmt simply
// compiles its body inline, behind a skip-jump, wherever it's
// encountered in source order.
//
// A bare top-level expression statement's value is printed rather than
// discarded, matching a script-level read-eval-print convention;
// expression statements nested inside a function or block are always
// discarded, since only a `return` can hand a value back to the caller.
func (c *Compiler) Compile(stmts []token.Stmt) (*bytecode.Chunk, error) {
	for _, s := range stmts {
		if err := c.compileTopLevelStmt(s); err != nil {
			return nil, err
		}
	}
	c.chunk.WriteOp(bytecode.OpHalt)
	return c.chunk, nil
}

func (c *Compiler) compileTopLevelStmt(s token.Stmt) error {
	line, col := s.Pos()
	from := c.chunk.Len()
	if err := c.compileStmt(s, true); err != nil {
		return err
	}
	c.chunk.StampRange(from, line, col)
	return nil
}

func (c *Compiler) errf(line, col int, format string, args ...interface{}) error {
	return caterrors.New(caterrors.TypeError, caterrors.Location{File: c.sourceName, Line: line, Col: col}, format, args...)
}

// ---- statements ------------------------------------------------------

func (c *Compiler) compileStmt(s token.Stmt, topLevel bool) error {
	switch st := s.(type) {
	case *token.ExpressionStmt:
		if err := c.compileExpr(st.Expr); err != nil {
			return err
		}
		if topLevel && !isVoidBuiltinCall(st.Expr) {
			c.chunk.WriteOp(bytecode.OpPrint)
			c.chunk.WriteByte(1)
		} else {
			c.chunk.WriteOp(bytecode.OpPop)
		}
		return nil

	case *token.PrintStmt:
		for _, a := range st.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		if len(st.Args) > 255 {
			line, col := st.Pos()
			return c.errf(line, col, "too many arguments to print")
		}
		c.chunk.WriteOp(bytecode.OpPrint)
		c.chunk.WriteByte(byte(len(st.Args)))
		return nil

	case *token.LetStmt:
		if err := c.compileExpr(st.Init); err != nil {
			return err
		}
		if c.fn != nil {
			slot := c.declareLocal(st.Name)
			c.chunk.WriteOp(bytecode.OpSetLocal)
			c.chunk.WriteU16(uint16(slot))
			return nil
		}
		idx := c.chunk.AddName(st.Name)
		c.chunk.WriteOp(bytecode.OpSetGlobal)
		c.chunk.WriteU16(uint16(idx))
		return nil

	case *token.SetStmt:
		if err := c.compileExpr(st.Value); err != nil {
			return err
		}
		return c.compileStoreName(st.Name)

	case *token.SetIndexStmt:
		if err := c.compileExpr(st.Array); err != nil {
			return err
		}
		if err := c.compileExpr(st.Index); err != nil {
			return err
		}
		if err := c.compileExpr(st.Value); err != nil {
			return err
		}
		c.chunk.WriteOp(bytecode.OpIndexSet)
		return nil

	case *token.BlockStmt:
		for _, inner := range st.Stmts {
			if err := c.compileStmt(inner, false); err != nil {
				return err
			}
		}
		return nil

	case *token.IfStmt:
		return c.compileIf(st)

	case *token.WhileStmt:
		return c.compileWhile(st)

	case *token.ForEachStmt:
		return c.compileForEach(st)

	case *token.ReturnStmt:
		if st.Value != nil {
			if err := c.compileExpr(st.Value); err != nil {
				return err
			}
		} else {
			c.chunk.WriteOp(bytecode.OpConst)
			c.chunk.WriteU16(uint16(c.chunk.AddConstant(nil)))
		}
		c.chunk.WriteOp(bytecode.OpReturn)
		return nil

	case *token.FunctionStmt:
		if c.fn != nil {
			line, col := st.Pos()
			return c.errf(line, col, "function %q declared inside another function body", st.Name)
		}
		return c.compileFunctionDecl(st)

	default:
		return fmt.Errorf("compiler: unhandled statement type %T", s)
	}
}

func (c *Compiler) compileStoreName(name string) error {
	if c.fn != nil {
		if slot, ok := c.fn.locals[name]; ok {
			c.chunk.WriteOp(bytecode.OpSetLocal)
			c.chunk.WriteU16(uint16(slot))
			return nil
		}
	}
	idx := c.chunk.AddName(name)
	c.chunk.WriteOp(bytecode.OpSetGlobal)
	c.chunk.WriteU16(uint16(idx))
	return nil
}

// emitJump writes op followed by a placeholder u16 operand and returns the
// operand's offset, for a later call to patchJump.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.chunk.WriteOp(op)
	return c.chunk.WriteU16(0)
}

// patchJump back-fills a forward jump's operand with the displacement
// spec.md §3 specifies: "added to the program counter after the operand
// is read", i.e. relative to the first byte past the u16 operand, not an
// absolute code offset.
func (c *Compiler) patchJump(operandOffset int) {
	afterOperand := operandOffset + 2
	c.chunk.PatchU16(operandOffset, uint16(c.chunk.Len()-afterOperand))
}

// emitLoop writes OP_LOOP with the backward displacement spec.md §3
// specifies: "subtracted from the same post-operand PC" to land back on
// loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.chunk.WriteOp(bytecode.OpLoop)
	operandOffset := c.chunk.WriteU16(0)
	afterOperand := operandOffset + 2
	c.chunk.PatchU16(operandOffset, uint16(afterOperand-loopStart))
}

// isVoidBuiltinCall reports whether expr is a call to one of the
// statement-like builtins in voidBuiltins, so compileStmt's top-level
// auto-print rule (spec.md §4.5) pops the result instead of printing it.
func isVoidBuiltinCall(expr token.Expr) bool {
	call, ok := expr.(*token.Call)
	if !ok {
		return false
	}
	v, ok := call.Callee.(*token.Variable)
	return ok && voidBuiltins[v.Name]
}

func (c *Compiler) declareLocal(name string) int {
	slot := c.fn.nextSlot
	c.fn.locals[name] = slot
	c.fn.nextSlot++
	return slot
}

// compileIf emits: cond, JUMP_IF_FALSE elseStart, POP, then-block,
// JUMP afterElse, elseStart:, POP, else-block (or nothing), afterElse:.
// JUMP_IF_FALSE only peeks at the condition (spec.md §4.7), so each branch
// is responsible for popping it with its own leading OP_POP before running
// its body.
func (c *Compiler) compileIf(st *token.IfStmt) error {
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	jumpIfFalse := c.emitJump(bytecode.OpJumpIfFalse)

	c.chunk.WriteOp(bytecode.OpPop)
	if err := c.compileStmt(st.Then, false); err != nil {
		return err
	}

	jumpOverElse := c.emitJump(bytecode.OpJump)

	c.patchJump(jumpIfFalse)
	c.chunk.WriteOp(bytecode.OpPop)
	if st.Else != nil {
		if err := c.compileStmt(st.Else, false); err != nil {
			return err
		}
	}
	c.patchJump(jumpOverElse)
	return nil
}

// compileWhile emits: loopStart:, cond, JUMP_IF_FALSE loopEnd, POP, body,
// LOOP loopStart, loopEnd:, POP. Both the taken and not-taken paths of
// JUMP_IF_FALSE need their own pop of the peeked condition, same as compileIf.
func (c *Compiler) compileWhile(st *token.WhileStmt) error {
	loopStart := c.chunk.Len()
	if err := c.compileExpr(st.Cond); err != nil {
		return err
	}
	jumpEnd := c.emitJump(bytecode.OpJumpIfFalse)

	c.chunk.WriteOp(bytecode.OpPop)
	if err := c.compileStmt(st.Body, false); err != nil {
		return err
	}
	c.emitLoop(loopStart)

	c.patchJump(jumpEnd)
	c.chunk.WriteOp(bytecode.OpPop)
	return nil
}

// compileForEach desugars `for each V in ITER do BODY end` into a while
// loop over a hidden index/length pair, since the VM has no dedicated
// iterator opcode: it only knows OP_LEN and OP_INDEX_GET.
//
//	let <tmp> = ITER;
//	let <idx> = 0;
//	while idx < len(<tmp>) {
//	    let V = <tmp>[idx];
//	    BODY
//	    idx = idx + 1;
//	}
func (c *Compiler) compileForEach(st *token.ForEachStmt) error {
	line, col := st.Pos()
	tmpName := fmt.Sprintf("__iter$%d_%d", line, col)
	idxName := fmt.Sprintf("__idx$%d_%d", line, col)

	if err := c.compileStmt(token.NewLetStmt(line, col, tmpName, nil, st.Iterable), false); err != nil {
		return err
	}
	zero := token.NewLetStmt(line, col, idxName, nil, token.NewNumberLit(line, col, 0))
	if err := c.compileStmt(zero, false); err != nil {
		return err
	}

	cond := token.NewBinary(line, col, "<",
		token.NewVariable(line, col, idxName),
		builtinCall(line, col, "len", token.NewVariable(line, col, tmpName)))

	bodyStmts := make([]token.Stmt, 0, len(st.Body.Stmts)+2)
	bodyStmts = append(bodyStmts, token.NewLetStmt(line, col, st.Var, nil,
		token.NewIndex(line, col, token.NewVariable(line, col, tmpName), token.NewVariable(line, col, idxName))))
	bodyStmts = append(bodyStmts, st.Body.Stmts...)
	bodyStmts = append(bodyStmts, token.NewSetStmt(line, col, idxName,
		token.NewBinary(line, col, "+", token.NewVariable(line, col, idxName), token.NewNumberLit(line, col, 1))))

	whileStmt := token.NewWhileStmt(line, col, cond, token.NewBlockStmt(line, col, bodyStmts))
	return c.compileStmt(whileStmt, false)
}

// builtinCall mirrors internal/parser's desugaring helper so
// compiler-synthesized AST (the for-each rewrite above) can call the same
// `__len` builtin the parser's English phrases use.
func builtinCall(line, col int, name string, args ...token.Expr) token.Expr {
	return token.NewCall(line, col, token.NewVariable(line, col, "__"+name), args)
}
