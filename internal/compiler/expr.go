package compiler

import (
	"fmt"

	"catlang/internal/bytecode"
	"catlang/internal/token"
)

func (c *Compiler) compileExpr(e token.Expr) error {
	switch ex := e.(type) {
	case *token.Literal:
		return c.compileLiteral(ex)

	case *token.Binary:
		if err := c.compileExpr(ex.Left); err != nil {
			return err
		}
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		op, ok := binaryOps[ex.Op]
		if !ok {
			line, col := ex.Pos()
			return c.errf(line, col, "unknown binary operator %q", ex.Op)
		}
		c.chunk.WriteOp(op)
		return nil

	case *token.Unary:
		if err := c.compileExpr(ex.Right); err != nil {
			return err
		}
		switch ex.Op {
		case "-":
			c.chunk.WriteOp(bytecode.OpNegate)
		case "not":
			c.chunk.WriteOp(bytecode.OpNot)
		default:
			line, col := ex.Pos()
			return c.errf(line, col, "unknown unary operator %q", ex.Op)
		}
		return nil

	case *token.Grouping:
		return c.compileExpr(ex.Inner)

	case *token.Variable:
		line, col := ex.Pos()
		return c.compileLoadName(ex.Name, line, col)

	case *token.Assign:
		if err := c.compileExpr(ex.Value); err != nil {
			return err
		}
		c.chunk.WriteOp(bytecode.OpDup)
		return c.compileStoreName(ex.Name)

	case *token.Call:
		return c.compileCall(ex)

	case *token.ArrayLiteral:
		for _, el := range ex.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		if len(ex.Elements) > 255 {
			line, col := ex.Pos()
			return c.errf(line, col, "array literal has too many elements")
		}
		c.chunk.WriteOp(bytecode.OpNewArray)
		c.chunk.WriteByte(byte(len(ex.Elements)))
		return nil

	case *token.Index:
		if err := c.compileExpr(ex.Array); err != nil {
			return err
		}
		if err := c.compileExpr(ex.Idx); err != nil {
			return err
		}
		c.chunk.WriteOp(bytecode.OpIndexGet)
		return nil

	default:
		return fmt.Errorf("compiler: unhandled expression type %T", e)
	}
}

var binaryOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod,
	">": bytecode.OpGt, ">=": bytecode.OpGe, "<": bytecode.OpLt, "<=": bytecode.OpLe,
	"==": bytecode.OpEq, "!=": bytecode.OpNe,
	"and": bytecode.OpAnd, "or": bytecode.OpOr,
}

func (c *Compiler) compileLiteral(l *token.Literal) error {
	switch l.Kind {
	case token.LitNumber:
		c.chunk.WriteOp(bytecode.OpConst)
		c.chunk.WriteU16(uint16(c.chunk.AddConstant(l.Number)))
	case token.LitString:
		c.chunk.WriteOp(bytecode.OpConst)
		c.chunk.WriteU16(uint16(c.chunk.AddConstant(l.Str)))
	case token.LitBool:
		c.chunk.WriteOp(bytecode.OpConst)
		c.chunk.WriteU16(uint16(c.chunk.AddConstant(l.Bool)))
	case token.LitNil:
		c.chunk.WriteOp(bytecode.OpConst)
		c.chunk.WriteU16(uint16(c.chunk.AddConstant(nil)))
	default:
		line, col := l.Pos()
		return c.errf(line, col, "unknown literal kind %d", l.Kind)
	}
	return nil
}

func (c *Compiler) compileLoadName(name string, line, col int) error {
	if c.fn != nil {
		if slot, ok := c.fn.locals[name]; ok {
			c.chunk.WriteOp(bytecode.OpGetLocal)
			c.chunk.WriteU16(uint16(slot))
			return nil
		}
	}
	idx := c.chunk.AddName(name)
	c.chunk.WriteOp(bytecode.OpGetGlobal)
	c.chunk.WriteU16(uint16(idx))
	return nil
}

// compileCall handles both "__"-prefixed builtin calls (desugared by the
// parser's English-phrase prelude, or synthesized by the compiler's own
// for-each rewrite) and ordinary user-function calls. Builtins lower
// directly to their opcode; user calls emit OP_CALL with the callee's
// name index and argument count, leaving resolution of the name to a
// FuncEntry to the VM at the moment the call executes.
func (c *Compiler) compileCall(call *token.Call) error {
	callee, ok := call.Callee.(*token.Variable)
	if !ok {
		line, col := call.Pos()
		return c.errf(line, col, "call target must be a function name")
	}

	for _, a := range call.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}

	if op, ok := builtinOps[callee.Name]; ok {
		c.chunk.WriteOp(op)
		return nil
	}
	if op, ok := argcBuiltinOps[callee.Name]; ok {
		line, col := call.Pos()
		// argc counts only the variadic value arguments, per spec.md §6's
		// per-opcode stack order: OP_FORMAT carries a leading format
		// string below argc values; OP_FFI_CALL/_SIG carry a trailing
		// dllName[, signature]/funcName pair below the opcode itself but
		// ahead of argc in push order (arg1..argN, dllName, funcName).
		fixed := 1 // __format: 1 leading format-string arg
		switch callee.Name {
		case "__ffi_call":
			fixed = 2 // dllName, funcName
		case "__ffi_call_sig":
			fixed = 3 // dllName, funcName, signature
		case "__ffi_call_ptr":
			fixed = 1 // ptr
		}
		argc := len(call.Args) - fixed
		if argc < 0 || argc > 255 {
			return c.errf(line, col, "wrong argument count for %q", callee.Name)
		}
		c.chunk.WriteOp(op)
		c.chunk.WriteByte(byte(argc))
		return nil
	}

	line, col := call.Pos()
	idx := c.chunk.AddName(callee.Name)
	c.chunk.WriteOp(bytecode.OpCall)
	c.chunk.WriteU16(uint16(idx))
	if len(call.Args) > 255 {
		return c.errf(line, col, "too many arguments in call to %q", callee.Name)
	}
	c.chunk.WriteByte(byte(len(call.Args)))
	return nil
}
