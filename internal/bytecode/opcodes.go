// Package bytecode defines CatLang's Chunk container and the opcode
// catalogue spec.md §6 specifies as authoritative.
//
// Grounded on this file's previous content (the teacher's flat `iota`
// OpCode enum), widened here to the full catalogue: the teacher's enum
// stops at a few dozen opcodes with single-byte operands; ours follows
// the authoritative list and operand widths spec.md §6 gives exactly.
package bytecode

// Op is a single-byte instruction tag.
type Op byte

const (
	// Stack/const
	OpConst Op = iota
	OpPop
	OpHalt
	OpDup

	// Variables
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal

	// Control
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpReturn

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGt
	OpGe
	OpLt
	OpLe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpNot
	OpNegate

	// Containers: arrays
	OpNewArray
	OpIndexGet
	OpIndexSet
	OpLen
	OpAppend
	OpArrayPop
	OpArrayReserve
	OpArrayClear

	// Containers: maps
	OpNewMap
	OpMapGet
	OpMapSet
	OpMapHas
	OpMapDel
	OpMapKeys
	OpMapSize
	OpMapClear

	// Strings
	OpStrIndex
	OpSubstr
	OpStrFind
	OpSplit
	OpStrCat
	OpJoin
	OpTrim
	OpReplace
	OpStrUpper
	OpStrLower
	OpStrContains
	OpFormat
	OpStartsWith
	OpEndsWith
	OpOrd
	OpChr
	OpToString
	OpParseInt
	OpParseFloat

	// Math
	OpFloor
	OpCeil
	OpRound
	OpSqrt
	OpAbs
	OpPow
	OpExp
	OpLog
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpAtan2
	OpRandom

	// Bitwise
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr

	// Memory
	OpAlloc
	OpFree
	OpPtrAdd
	OpLoad8
	OpStore8
	OpLoad16
	OpStore16
	OpLoad32
	OpStore32
	OpLoad64
	OpStore64
	OpLoadF32
	OpStoreF32
	OpMemcpy
	OpMemset
	OpPtrDiff
	OpRealloc
	OpBlockSize
	OpPtrOffset
	OpPtrBlock

	// Packing
	OpPackF64LE
	OpPackU16LE
	OpPackU32LE

	// I/O
	OpReadFile
	OpWriteFile
	OpFileExists
	OpFopen
	OpFclose
	OpFread
	OpFreadLine
	OpFwrite
	OpStdin
	OpStdout
	OpStderr

	// Output
	OpPrint

	// Control & meta
	OpAssert
	OpPanic
	OpExit
	OpEmitChunk
	OpOpcodeID
	OpCallNArr
	OpFFICall
	OpFFICallSig
	OpFFIProc
	OpFFICallPtr

	// SPEC_FULL.md §3 domain-stack extensions (additive; do not change the
	// meaning of any opcode above).
	OpDBOpen
	OpDBQuery
	OpDBExec
	OpDBClose
	OpWSConnect
	OpWSSend
	OpWSRecv
	OpWSClose

	// OpRange materializes the `range from A to B` builtin as an array;
	// there is no dedicated iterator opcode, so array construction is the
	// simplest runtime shape for it.
	OpRange

	// Identity, formatting, and cryptographic intrinsics (SPEC_FULL.md §3).
	OpUUID
	OpHumanSize
	OpEd25519KeyPair
	OpEd25519Sign
	OpEd25519Verify
	OpCurveBasepointMul

	opCount
)

var opNames = [...]string{
	OpConst: "OP_CONST", OpPop: "OP_POP", OpHalt: "OP_HALT", OpDup: "OP_DUP",
	OpGetGlobal: "OP_GET_GLOBAL", OpSetGlobal: "OP_SET_GLOBAL",
	OpGetLocal: "OP_GET_LOCAL", OpSetLocal: "OP_SET_LOCAL",
	OpJump: "OP_JUMP", OpJumpIfFalse: "OP_JUMP_IF_FALSE", OpLoop: "OP_LOOP",
	OpCall: "OP_CALL", OpReturn: "OP_RETURN",
	OpAdd: "OP_ADD", OpSub: "OP_SUB", OpMul: "OP_MUL", OpDiv: "OP_DIV", OpMod: "OP_MOD",
	OpGt: "OP_GT", OpGe: "OP_GE", OpLt: "OP_LT", OpLe: "OP_LE", OpEq: "OP_EQ", OpNe: "OP_NE",
	OpAnd: "OP_AND", OpOr: "OP_OR", OpNot: "OP_NOT", OpNegate: "OP_NEGATE",
	OpNewArray: "OP_NEW_ARRAY", OpIndexGet: "OP_INDEX_GET", OpIndexSet: "OP_INDEX_SET",
	OpLen: "OP_LEN", OpAppend: "OP_APPEND", OpArrayPop: "OP_ARRAY_POP",
	OpArrayReserve: "OP_ARRAY_RESERVE", OpArrayClear: "OP_ARRAY_CLEAR",
	OpNewMap: "OP_NEW_MAP", OpMapGet: "OP_MAP_GET", OpMapSet: "OP_MAP_SET",
	OpMapHas: "OP_MAP_HAS", OpMapDel: "OP_MAP_DEL", OpMapKeys: "OP_MAP_KEYS",
	OpMapSize: "OP_MAP_SIZE", OpMapClear: "OP_MAP_CLEAR",
	OpStrIndex: "OP_STR_INDEX", OpSubstr: "OP_SUBSTR", OpStrFind: "OP_STR_FIND",
	OpSplit: "OP_SPLIT", OpStrCat: "OP_STR_CAT", OpJoin: "OP_JOIN", OpTrim: "OP_TRIM",
	OpReplace: "OP_REPLACE", OpStrUpper: "OP_STR_UPPER", OpStrLower: "OP_STR_LOWER",
	OpStrContains: "OP_STR_CONTAINS", OpFormat: "OP_FORMAT",
	OpStartsWith: "OP_STARTS_WITH", OpEndsWith: "OP_ENDS_WITH",
	OpOrd: "OP_ORD", OpChr: "OP_CHR", OpToString: "OP_TO_STRING",
	OpParseInt: "OP_PARSE_INT", OpParseFloat: "OP_PARSE_FLOAT",
	OpFloor: "OP_FLOOR", OpCeil: "OP_CEIL", OpRound: "OP_ROUND", OpSqrt: "OP_SQRT",
	OpAbs: "OP_ABS", OpPow: "OP_POW", OpExp: "OP_EXP", OpLog: "OP_LOG",
	OpSin: "OP_SIN", OpCos: "OP_COS", OpTan: "OP_TAN",
	OpAsin: "OP_ASIN", OpAcos: "OP_ACOS", OpAtan: "OP_ATAN", OpAtan2: "OP_ATAN2",
	OpRandom: "OP_RANDOM",
	OpBAnd: "OP_BAND", OpBOr: "OP_BOR", OpBXor: "OP_BXOR", OpShl: "OP_SHL", OpShr: "OP_SHR",
	OpAlloc: "OP_ALLOC", OpFree: "OP_FREE", OpPtrAdd: "OP_PTR_ADD",
	OpLoad8: "OP_LOAD8", OpStore8: "OP_STORE8", OpLoad16: "OP_LOAD16", OpStore16: "OP_STORE16",
	OpLoad32: "OP_LOAD32", OpStore32: "OP_STORE32", OpLoad64: "OP_LOAD64", OpStore64: "OP_STORE64",
	OpLoadF32: "OP_LOADF32", OpStoreF32: "OP_STOREF32",
	OpMemcpy: "OP_MEMCPY", OpMemset: "OP_MEMSET", OpPtrDiff: "OP_PTR_DIFF",
	OpRealloc: "OP_REALLOC", OpBlockSize: "OP_BLOCK_SIZE",
	OpPtrOffset: "OP_PTR_OFFSET", OpPtrBlock: "OP_PTR_BLOCK",
	OpPackF64LE: "OP_PACK_F64LE", OpPackU16LE: "OP_PACK_U16LE", OpPackU32LE: "OP_PACK_U32LE",
	OpReadFile: "OP_READ_FILE", OpWriteFile: "OP_WRITE_FILE", OpFileExists: "OP_FILE_EXISTS",
	OpFopen: "OP_FOPEN", OpFclose: "OP_FCLOSE", OpFread: "OP_FREAD",
	OpFreadLine: "OP_FREADLINE", OpFwrite: "OP_FWRITE",
	OpStdin: "OP_STDIN", OpStdout: "OP_STDOUT", OpStderr: "OP_STDERR",
	OpPrint: "OP_PRINT",
	OpAssert: "OP_ASSERT", OpPanic: "OP_PANIC", OpExit: "OP_EXIT",
	OpEmitChunk: "OP_EMIT_CHUNK", OpOpcodeID: "OP_OPCODE_ID", OpCallNArr: "OP_CALLN_ARR",
	OpFFICall: "OP_FFI_CALL", OpFFICallSig: "OP_FFI_CALL_SIG",
	OpFFIProc: "OP_FFI_PROC", OpFFICallPtr: "OP_FFI_CALL_PTR",
	OpDBOpen: "OP_DB_OPEN", OpDBQuery: "OP_DB_QUERY", OpDBExec: "OP_DB_EXEC", OpDBClose: "OP_DB_CLOSE",
	OpWSConnect: "OP_WS_CONNECT", OpWSSend: "OP_WS_SEND", OpWSRecv: "OP_WS_RECV", OpWSClose: "OP_WS_CLOSE",
	OpRange: "OP_RANGE",
	OpUUID: "OP_UUID", OpHumanSize: "OP_HUMAN_SIZE",
	OpEd25519KeyPair: "OP_ED25519_KEYPAIR", OpEd25519Sign: "OP_ED25519_SIGN",
	OpEd25519Verify: "OP_ED25519_VERIFY", OpCurveBasepointMul: "OP_CURVE_BASEPOINT_MUL",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "OP_UNKNOWN"
}

// ByName resolves a canonical opcode name (e.g. "OP_ADD") to its numeric
// id. Backs the OP_OPCODE_ID opcode, which lets bytecode assemblers
// written in CatLang itself stay stable across opcode renumbering.
func ByName(name string) (Op, bool) {
	for i, n := range opNames {
		if n == name {
			return Op(i), true
		}
	}
	return 0, false
}

// OperandWidth returns the number of operand bytes internal/compiler
// emits immediately after op, so a reader can skip to the next
// instruction without executing the opcode. OP_CALL's u16 name index
// plus u8 argc is the one three-byte operand in the catalogue; every
// argc-style opcode (OP_PRINT, OP_FORMAT, the three-argument OP_FFI_*
// calls) carries a single argc byte, with its variadic values living on
// the stack rather than in the instruction stream.
func OperandWidth(op Op) int {
	switch op {
	case OpGetGlobal, OpSetGlobal, OpGetLocal, OpSetLocal,
		OpJump, OpJumpIfFalse, OpLoop, OpConst:
		return 2
	case OpCall:
		return 3
	case OpNewArray, OpPrint, OpFormat, OpFFICall, OpFFICallSig, OpFFICallPtr:
		return 1
	default:
		return 0
	}
}
