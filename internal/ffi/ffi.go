// Package ffi defines the ForeignCallSink external collaborator spec.md
// §1/§6/§9 keeps interface-only: the VM's OP_FFI_* opcodes only marshal
// stack arguments, a dll/function/signature string, and the returned
// number/string onto this interface; no calling convention is specified
// here.
package ffi

import (
	"log"
	"sync"
)

// Sink is consulted by internal/vm for OP_FFI_CALL, OP_FFI_CALL_SIG,
// OP_FFI_PROC, and OP_FFI_CALL_PTR. args/return values are CatLang
// Values (float64, string, bool, nil); a Sink that cannot represent a
// given argument type may coerce it however it likes.
type Sink interface {
	Call(dll, fn string, args []interface{}) (interface{}, error)
	CallSig(dll, fn, sig string, args []interface{}) (interface{}, error)
	Proc(dll, fn string) (interface{}, error)
	CallPtr(ptr interface{}, args []interface{}) (interface{}, error)
}

// NoopSink is the reference implementation used when no native marshaller
// is wired in: every method pushes 0 and logs a one-time warning, per
// spec.md §9 ("an implementation without FFI must push a 0 for the four
// FFI opcodes and log a one-time warning").
type NoopSink struct {
	warnOnce sync.Once
}

func (s *NoopSink) warn() {
	s.warnOnce.Do(func() {
		log.Println("catlang: FFI opcode executed with no ForeignCallSink configured; returning 0")
	})
}

func (s *NoopSink) Call(dll, fn string, args []interface{}) (interface{}, error) {
	s.warn()
	return float64(0), nil
}

func (s *NoopSink) CallSig(dll, fn, sig string, args []interface{}) (interface{}, error) {
	s.warn()
	return float64(0), nil
}

func (s *NoopSink) Proc(dll, fn string) (interface{}, error) {
	s.warn()
	return float64(0), nil
}

func (s *NoopSink) CallPtr(ptr interface{}, args []interface{}) (interface{}, error) {
	s.warn()
	return float64(0), nil
}
