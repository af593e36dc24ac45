package vm

import (
	"fmt"
	"strconv"
	"strings"

	"catlang/internal/bytecode"
)

// execString handles the OP_STR_*/OP_SUBSTR/OP_SPLIT/OP_JOIN/OP_TRIM/
// OP_REPLACE/OP_FORMAT family. Every opcode here is total: a wrong-typed
// or out-of-range operand degrades to an empty string or 0 rather than
// halting (spec.md §4.7).
func (vm *VM) execString(op bytecode.Op, argc int) (handled bool, err error) {
	switch op {
	case bytecode.OpStrIndex:
		idx := int(vm.popNumber())
		s := ToString(vm.popDiscard())
		if idx < 0 || idx >= len(s) {
			vm.push("")
			return true, nil
		}
		vm.push(string(s[idx]))

	case bytecode.OpSubstr:
		length := int(vm.popNumber())
		start := int(vm.popNumber())
		s := ToString(vm.popDiscard())
		vm.push(substr(s, start, length))

	case bytecode.OpStrFind:
		needle := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		vm.push(float64(strings.Index(s, needle)))

	case bytecode.OpSplit:
		sep := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		parts := strings.Split(s, sep)
		elems := make([]Value, len(parts))
		for i, p := range parts {
			elems[i] = p
		}
		vm.arraysNew++
		vm.push(newArray(elems))

	case bytecode.OpStrCat:
		b := ToString(vm.popDiscard())
		a := ToString(vm.popDiscard())
		vm.push(a + b)

	case bytecode.OpJoin:
		sep := ToString(vm.popDiscard())
		arrV := vm.pop()
		arr, _ := arrV.(*Array)
		var parts []string
		if arr != nil {
			for _, e := range arr.Elements {
				parts = append(parts, ToString(e))
			}
		}
		vm.release(arrV)
		vm.push(strings.Join(parts, sep))

	case bytecode.OpTrim:
		s := ToString(vm.popDiscard())
		vm.push(strings.TrimSpace(s))

	case bytecode.OpReplace:
		newS := ToString(vm.popDiscard())
		oldS := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		vm.push(strings.ReplaceAll(s, oldS, newS))

	case bytecode.OpStrUpper:
		vm.push(strings.ToUpper(ToString(vm.popDiscard())))

	case bytecode.OpStrLower:
		vm.push(strings.ToLower(ToString(vm.popDiscard())))

	case bytecode.OpStrContains:
		needle := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		vm.push(strings.Contains(s, needle))

	case bytecode.OpFormat:
		args := make([]Value, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i] = vm.popDiscard()
		}
		format := ToString(vm.popDiscard())
		vm.push(formatString(format, args))

	case bytecode.OpStartsWith:
		prefix := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		vm.push(strings.HasPrefix(s, prefix))

	case bytecode.OpEndsWith:
		suffix := ToString(vm.popDiscard())
		s := ToString(vm.popDiscard())
		vm.push(strings.HasSuffix(s, suffix))

	case bytecode.OpOrd:
		s := ToString(vm.popDiscard())
		if len(s) == 0 {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(float64(s[0]))

	case bytecode.OpChr:
		n := int(vm.popNumber())
		if n < 0 || n > 255 {
			vm.push("")
			return true, nil
		}
		vm.push(string(byte(n)))

	case bytecode.OpToString:
		vm.push(ToString(vm.popDiscard()))

	case bytecode.OpParseInt:
		s := ToString(vm.popDiscard())
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(float64(n))

	case bytecode.OpParseFloat:
		s := ToString(vm.popDiscard())
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			vm.push(float64(0))
			return true, nil
		}
		vm.push(n)

	default:
		return false, nil
	}
	return true, nil
}

func substr(s string, start, length int) string {
	if start < 0 {
		start = 0
	}
	if start >= len(s) {
		return ""
	}
	end := start + length
	if length < 0 || end > len(s) {
		end = len(s)
	}
	if end < start {
		return ""
	}
	return s[start:end]
}

// formatString implements spec.md §6's OP_FORMAT: "%" introduces a
// positional placeholder consuming the next arg, rendered with ToString;
// "%%" is a literal percent.
func formatString(format string, args []Value) string {
	var b strings.Builder
	argi := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		if argi < len(args) {
			b.WriteString(ToString(args[argi]))
			argi++
		} else {
			b.WriteString(fmt.Sprintf("%%!missing"))
		}
	}
	return b.String()
}
