package bytecode

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// FuncEntry is one row of a Chunk's function table: the function's name
// (by index into Names), its arity, and the first instruction offset
// executed on entry (spec.md §3).
type FuncEntry struct {
	NameIndex uint16
	Arity     uint16
	Entry     uint32
}

// Chunk is the compiled unit produced by internal/compiler and consumed
// by internal/vm: constants, names, a function table, a flat code
// stream, and parallel per-offset debug side tables.
//
// Grounded on this file's previous content (the teacher's WriteOp/
// AddConstant/per-instruction Debug slice idiom), restructured to the
// exact container spec.md §3 and §6 specify: separate Names and
// Functions tables, and debugLines/debugCols as parallel u32 arrays
// rather than one DebugInfo struct per byte.
type Chunk struct {
	Constants  []interface{} // nil | float64 | string | bool
	Names      []string
	Functions  []FuncEntry
	Code       []byte
	DebugLines []uint32
	DebugCols  []uint32
	SourceName string
}

// New creates an empty chunk attributed to sourceName for diagnostics.
func New(sourceName string) *Chunk {
	return &Chunk{SourceName: sourceName}
}

// AddConstant appends val to the constant pool and returns its stable
// index.
func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// AddName interns name into the name table, returning its stable index.
// Repeated calls with the same name return the same index (de-duplication
// is permitted, not required, by spec.md §3).
func (c *Chunk) AddName(name string) int {
	if idx := slices.Index(c.Names, name); idx >= 0 {
		return idx
	}
	c.Names = append(c.Names, name)
	return len(c.Names) - 1
}

// AddFunction appends a function-table row and returns its index.
func (c *Chunk) AddFunction(nameIndex int, arity int, entry int) int {
	c.Functions = append(c.Functions, FuncEntry{
		NameIndex: uint16(nameIndex),
		Arity:     uint16(arity),
		Entry:     uint32(entry),
	})
	return len(c.Functions) - 1
}

// FindFunction resolves a function by name, as OP_CALL does at runtime.
func (c *Chunk) FindFunction(name string) (FuncEntry, bool) {
	idx := slices.Index(c.Names, name)
	if idx < 0 {
		return FuncEntry{}, false
	}
	for _, f := range c.Functions {
		if int(f.NameIndex) == idx {
			return f, true
		}
	}
	return FuncEntry{}, false
}

// WriteOp appends a single opcode byte, back-filling debugLines/
// debugCols for it (callers append operand bytes separately with
// WriteByte, then call StampRange to fill in their debug info once the
// whole instruction has been emitted — see internal/compiler).
func (c *Chunk) WriteOp(op Op) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.DebugLines = append(c.DebugLines, 0)
	c.DebugCols = append(c.DebugCols, 0)
	return offset
}

// WriteByte appends a single raw operand byte.
func (c *Chunk) WriteByte(b byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, b)
	c.DebugLines = append(c.DebugLines, 0)
	c.DebugCols = append(c.DebugCols, 0)
	return offset
}

// WriteU16 appends a little-endian u16 operand (used by jump targets,
// name indices, and OP_CONST's constant index).
func (c *Chunk) WriteU16(v uint16) int {
	start := c.WriteByte(byte(v))
	c.WriteByte(byte(v >> 8))
	return start
}

// PatchU16 overwrites the u16 operand previously written at offset (used
// to back-patch forward jumps once the branch body's length is known).
func (c *Chunk) PatchU16(offset int, v uint16) {
	c.Code[offset] = byte(v)
	c.Code[offset+1] = byte(v >> 8)
}

// StampRange back-fills debugLines/debugCols for code[from:len(Code)]
// with (line, col), matching spec.md §4.5's per-top-level-statement debug
// stamping.
func (c *Chunk) StampRange(from int, line, col int) {
	for i := from; i < len(c.Code); i++ {
		c.DebugLines[i] = uint32(line)
		c.DebugCols[i] = uint32(col)
	}
}

// DebugAt returns the (line, col) recorded for code offset ip, or (0, 0)
// if ip is out of range or was never stamped.
func (c *Chunk) DebugAt(ip int) (line, col int) {
	if ip < 0 || ip >= len(c.DebugLines) {
		return 0, 0
	}
	return int(c.DebugLines[ip]), int(c.DebugCols[ip])
}

// Len returns the number of bytes currently in the code stream.
func (c *Chunk) Len() int { return len(c.Code) }

// Disassemble renders the chunk's code stream as one instruction per
// line, for the CLI's --disasm listing. Each
// instruction's operand bytes are skipped according to OperandWidth
// rather than walked byte-by-byte, so operand bytes that happen to
// collide with an opcode's numeric value never get misprinted as their
// own bogus instruction.
func (c *Chunk) Disassemble() string {
	var b strings.Builder
	for ip := 0; ip < len(c.Code); {
		op := Op(c.Code[ip])
		line, col := c.DebugAt(ip)
		width := OperandWidth(op)
		operand := c.Code[ip+1 : min(ip+1+width, len(c.Code))]
		fmt.Fprintf(&b, "%04d %-20s operand=% x line=%d col=%d\n", ip, op.String(), operand, line, col)
		ip += 1 + width
	}
	return b.String()
}
