package compiler

import (
	"catlang/internal/bytecode"
	"catlang/internal/token"
)

// compileFunctionDecl emits a function body inline, guarded by a skip-jump
// so the surrounding script's control flow steps over it, and registers a
// FuncEntry row pointing at the body's first instruction.
//
//	JUMP pastBody
//	entry: <body>              (OP_CALL has already placed the args in locals 0..n-1)
//	       CONST nil; RETURN   (fallback if body doesn't already return)
//	pastBody:
func (c *Compiler) compileFunctionDecl(st *token.FunctionStmt) error {
	jumpPastBody := c.emitJump(bytecode.OpJump)

	entry := c.chunk.Len()
	prevFn := c.fn
	c.fn = &funcScope{locals: make(map[string]int)}

	for _, param := range st.Params {
		c.declareLocal(param.Name)
	}

	if err := c.compileStmt(st.Body, false); err != nil {
		c.fn = prevFn
		return err
	}

	// Fallback return, exercised when control falls off the end of the
	// body without an explicit `return`.
	c.chunk.WriteOp(bytecode.OpConst)
	c.chunk.WriteU16(uint16(c.chunk.AddConstant(nil)))
	c.chunk.WriteOp(bytecode.OpReturn)

	c.fn = prevFn
	c.patchJump(jumpPastBody)

	nameIdx := c.chunk.AddName(st.Name)
	c.chunk.AddFunction(nameIdx, len(st.Params), entry)
	return nil
}
