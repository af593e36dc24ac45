package compiler

import "catlang/internal/bytecode"

// builtinOps maps every "__name" callee the parser's English-phrase
// prelude (and the compiler's own for-each rewrite) can produce onto the
// single opcode it lowers to. Arguments are already on the stack, pushed
// left to right by compileCall, in the order internal/parser/phrases.go
// documents for each phrase. Builtins whose opcode takes a trailing u8
// argc operand (OP_FORMAT, the FFI family) are not in this table — they
// are handled by argcBuiltinOps in expr.go instead, since compileCall
// needs to write an extra byte for them.
var builtinOps = map[string]bytecode.Op{
	"__map_get":  bytecode.OpMapGet,
	"__map_has":  bytecode.OpMapHas,
	"__map_set":  bytecode.OpMapSet,
	"__map_del":  bytecode.OpMapDel,
	"__map_keys": bytecode.OpMapKeys,
	"__map_size": bytecode.OpMapSize,
	"__map_clear": bytecode.OpMapClear,
	"__new_map":   bytecode.OpNewMap,

	"__append":        bytecode.OpAppend,
	"__pop":           bytecode.OpArrayPop,
	"__array_reserve": bytecode.OpArrayReserve,
	"__array_clear":   bytecode.OpArrayClear,

	"__substr":      bytecode.OpSubstr,
	"__ord":         bytecode.OpOrd,
	"__chr":         bytecode.OpChr,
	"__str_find":    bytecode.OpStrFind,
	"__split":       bytecode.OpSplit,
	"__str_cat":     bytecode.OpStrCat,
	"__join":        bytecode.OpJoin,
	"__trim":        bytecode.OpTrim,
	"__replace":     bytecode.OpReplace,
	"__str_upper":   bytecode.OpStrUpper,
	"__str_lower":   bytecode.OpStrLower,
	"__str_contains": bytecode.OpStrContains,
	"__to_string":   bytecode.OpToString,
	"__parse_int":   bytecode.OpParseInt,
	"__parse_float": bytecode.OpParseFloat,
	"__starts_with": bytecode.OpStartsWith,
	"__ends_with":   bytecode.OpEndsWith,
	"__len":         bytecode.OpLen,

	"__read_file":   bytecode.OpReadFile,
	"__write_file":  bytecode.OpWriteFile,
	"__file_exists": bytecode.OpFileExists,
	"__fopen":       bytecode.OpFopen,
	"__fclose":      bytecode.OpFclose,
	"__fread":       bytecode.OpFread,
	"__freadline":   bytecode.OpFreadLine,
	"__fwrite":      bytecode.OpFwrite,
	"__stdin":       bytecode.OpStdin,
	"__stdout":      bytecode.OpStdout,
	"__stderr":      bytecode.OpStderr,

	"__assert": bytecode.OpAssert,
	"__panic":  bytecode.OpPanic,
	"__exit":   bytecode.OpExit,

	"__floor": bytecode.OpFloor,
	"__ceil":  bytecode.OpCeil,
	"__round": bytecode.OpRound,
	"__sqrt":  bytecode.OpSqrt,
	"__abs":   bytecode.OpAbs,
	"__pow":   bytecode.OpPow,
	"__exp":   bytecode.OpExp,
	"__log":   bytecode.OpLog,
	"__sin":   bytecode.OpSin,
	"__cos":   bytecode.OpCos,
	"__tan":   bytecode.OpTan,
	"__asin":  bytecode.OpAsin,
	"__acos":  bytecode.OpAcos,
	"__atan":  bytecode.OpAtan,
	"__atan2": bytecode.OpAtan2,
	"__random": bytecode.OpRandom,

	"__band": bytecode.OpBAnd,
	"__bor":  bytecode.OpBOr,
	"__bxor": bytecode.OpBXor,
	"__shl":  bytecode.OpShl,
	"__shr":  bytecode.OpShr,

	"__alloc":      bytecode.OpAlloc,
	"__free":       bytecode.OpFree,
	"__realloc":    bytecode.OpRealloc,
	"__ptr_add":    bytecode.OpPtrAdd,
	"__ptr_diff":   bytecode.OpPtrDiff,
	"__block_size": bytecode.OpBlockSize,
	"__ptr_offset": bytecode.OpPtrOffset,
	"__ptr_block":  bytecode.OpPtrBlock,
	"__memcpy":     bytecode.OpMemcpy,
	"__memset":     bytecode.OpMemset,

	"__read8":    bytecode.OpLoad8,
	"__read16":   bytecode.OpLoad16,
	"__read32":   bytecode.OpLoad32,
	"__read64":   bytecode.OpLoad64,
	"__readf32":  bytecode.OpLoadF32,
	"__write8":   bytecode.OpStore8,
	"__write16":  bytecode.OpStore16,
	"__write32":  bytecode.OpStore32,
	"__write64":  bytecode.OpStore64,
	"__writef32": bytecode.OpStoreF32,

	"__pack16": bytecode.OpPackU16LE,
	"__pack32": bytecode.OpPackU32LE,
	"__pack64": bytecode.OpPackF64LE,

	"__range": bytecode.OpRange,

	"__opcode_id":  bytecode.OpOpcodeID,
	"__calln_arr":  bytecode.OpCallNArr,
	"__emit_chunk": bytecode.OpEmitChunk,
	"__ffi_proc":   bytecode.OpFFIProc,

	"__db_open":  bytecode.OpDBOpen,
	"__db_query": bytecode.OpDBQuery,
	"__db_exec":  bytecode.OpDBExec,
	"__db_close": bytecode.OpDBClose,
	"__ws_connect": bytecode.OpWSConnect,
	"__ws_send":    bytecode.OpWSSend,
	"__ws_recv":    bytecode.OpWSRecv,
	"__ws_close":   bytecode.OpWSClose,

	"__uuid":                 bytecode.OpUUID,
	"__humansize":            bytecode.OpHumanSize,
	"__ed25519_keypair":      bytecode.OpEd25519KeyPair,
	"__ed25519_sign":         bytecode.OpEd25519Sign,
	"__ed25519_verify":       bytecode.OpEd25519Verify,
	"__curve_basepoint_mul":  bytecode.OpCurveBasepointMul,
}

// argcBuiltinOps holds the builtins whose opcode encodes a trailing u8
// argument count, because the opcode itself pops a variable number of
// stack values (spec.md §6: "OP_FORMAT expects the format string below
// argc value arguments"; the FFI family is symmetrical).
var argcBuiltinOps = map[string]bytecode.Op{
	"__format":       bytecode.OpFormat,
	"__ffi_call":     bytecode.OpFFICall,
	"__ffi_call_sig": bytecode.OpFFICallSig,
	"__ffi_call_ptr": bytecode.OpFFICallPtr,
}

// voidBuiltins names the "__"-prefixed calls spec.md §4.5 calls
// "known statement-like builtins": a bare top-level expression statement
// calling one of these has its result popped rather than auto-printed
// (printing "nil" after every `append` or `set key ... of ...` would be
// noise, not useful REPL echo). Most of their opcodes push nil; __pop,
// __db_exec, __ws_send and __fwrite push a real result (the removed
// element, a row count, a success flag), which is popped all the same.
var voidBuiltins = map[string]bool{
	"__append":        true,
	"__pop":           true,
	"__map_set":       true,
	"__map_del":       true,
	"__map_clear":     true,
	"__array_clear":   true,
	"__array_reserve": true,
	"__free":          true,
	"__assert":        true,
	"__write8":        true,
	"__write16":       true,
	"__write32":       true,
	"__write64":       true,
	"__writef32":      true,
	"__memcpy":        true,
	"__memset":        true,
	"__emit_chunk":    true,
	"__db_exec":       true,
	"__db_close":      true,
	"__ws_send":       true,
	"__ws_close":      true,
	"__fclose":        true,
	"__fwrite":        true,
}
