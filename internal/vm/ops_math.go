package vm

import (
	"math"

	"catlang/internal/bytecode"
)

// execMath handles the unary/binary math family and the bitwise family;
// bitwise operands truncate through int64 (spec.md §6: "bitwise ops
// operate on the truncated integer value of their float64 operands").
func (vm *VM) execMath(op bytecode.Op) (handled bool, err error) {
	switch op {
	case bytecode.OpFloor:
		vm.push(math.Floor(vm.popNumber()))
	case bytecode.OpCeil:
		vm.push(math.Ceil(vm.popNumber()))
	case bytecode.OpRound:
		vm.push(math.Round(vm.popNumber()))
	case bytecode.OpSqrt:
		vm.push(math.Sqrt(vm.popNumber()))
	case bytecode.OpAbs:
		vm.push(math.Abs(vm.popNumber()))
	case bytecode.OpPow:
		b := vm.popNumber()
		a := vm.popNumber()
		vm.push(math.Pow(a, b))
	case bytecode.OpExp:
		vm.push(math.Exp(vm.popNumber()))
	case bytecode.OpLog:
		vm.push(math.Log(vm.popNumber()))
	case bytecode.OpSin:
		vm.push(math.Sin(vm.popNumber()))
	case bytecode.OpCos:
		vm.push(math.Cos(vm.popNumber()))
	case bytecode.OpTan:
		vm.push(math.Tan(vm.popNumber()))
	case bytecode.OpAsin:
		vm.push(math.Asin(vm.popNumber()))
	case bytecode.OpAcos:
		vm.push(math.Acos(vm.popNumber()))
	case bytecode.OpAtan:
		vm.push(math.Atan(vm.popNumber()))
	case bytecode.OpAtan2:
		x := vm.popNumber()
		y := vm.popNumber()
		vm.push(math.Atan2(y, x))
	case bytecode.OpRandom:
		vm.push(vm.randSrc.Float64())

	case bytecode.OpBAnd:
		b := int64(vm.popNumber())
		a := int64(vm.popNumber())
		vm.push(float64(a & b))
	case bytecode.OpBOr:
		b := int64(vm.popNumber())
		a := int64(vm.popNumber())
		vm.push(float64(a | b))
	case bytecode.OpBXor:
		b := int64(vm.popNumber())
		a := int64(vm.popNumber())
		vm.push(float64(a ^ b))
	case bytecode.OpShl:
		n := uint(int64(vm.popNumber()))
		a := int64(vm.popNumber())
		vm.push(float64(a << n))
	case bytecode.OpShr:
		n := uint(int64(vm.popNumber()))
		a := int64(vm.popNumber())
		vm.push(float64(a >> n))

	default:
		return false, nil
	}
	return true, nil
}
