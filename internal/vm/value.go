package vm

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// Value is any runtime value: nil, float64, bool, string, *Array, *Map, or
// Pointer. There is no separate tagged-union type (unlike the Chunk's
// constant pool, which needs one to survive serialization) because Go's
// interface{} already distinguishes these cases with a type switch.
//
// Grounded on internal/memory/types.go's Value interface{} / *Array{Elements}
// / *Map{Items} shape from sentra-language-sentra, which is the cleanest of
// the several container representations scattered through the teacher's VM
// files (see DESIGN.md).
type Value = interface{}

// Array is CatLang's reference-counted array. refs starts at 1 for the
// reference the stack slot or binding that created it holds; it is not
// itself a Value field callers read, only vm.retain/vm.release mutate it.
type Array struct {
	Elements []Value
	refs     int
}

// Map is CatLang's reference-counted map. Keys are always strings per
// spec.md §4.7 ("Keys must be strings; non-string keys yield defaults").
type Map struct {
	Items []mapEntry
	refs  int
}

// mapEntry preserves insertion order for OP_MAP_KEYS, which a Go map
// cannot guarantee; lookups below are linear, acceptable for the small
// maps CatLang scripts build by hand.
type mapEntry struct {
	Key string
	Val Value
}

func newArray(elems []Value) *Array { return &Array{Elements: elems, refs: 1} }
func newMap() *Map                  { return &Map{refs: 1} }

func mapEntryIndex(items []mapEntry, key string) int {
	return slices.IndexFunc(items, func(e mapEntry) bool { return e.Key == key })
}

func (m *Map) get(key string) (Value, bool) {
	if i := mapEntryIndex(m.Items, key); i >= 0 {
		return m.Items[i].Val, true
	}
	return nil, false
}

func (m *Map) set(key string, val Value) {
	if i := mapEntryIndex(m.Items, key); i >= 0 {
		m.Items[i].Val = val
		return
	}
	m.Items = append(m.Items, mapEntry{Key: key, Val: val})
}

func (m *Map) delete(key string) {
	if i := mapEntryIndex(m.Items, key); i >= 0 {
		m.Items = slices.Delete(m.Items, i, i+1)
	}
}

// Pointer is a capability value naming a heap block and a byte offset
// within it, independent of whether the block is still alive (spec.md
// §3's Heap Block model, §9's "model a Pointer as two u32 fields").
type Pointer struct {
	Block  int32
	Offset uint32
}

// ToString renders val the way OP_TO_STRING, OP_PRINT, and OP_FORMAT all
// need to: integral floats print without a decimal point.
func ToString(val Value) string {
	switch v := val.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *Array:
		return arrayString(v)
	case *Map:
		return mapString(v)
	case Pointer:
		return fmt.Sprintf("<ptr block=%d off=%d>", v.Block, v.Offset)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func arrayString(a *Array) string {
	s := "["
	for i, e := range a.Elements {
		if i > 0 {
			s += ", "
		}
		if str, ok := e.(string); ok {
			s += strconv.Quote(str)
		} else {
			s += ToString(e)
		}
	}
	return s + "]"
}

func mapString(m *Map) string {
	s := "{"
	for i, e := range m.Items {
		if i > 0 {
			s += ", "
		}
		s += strconv.Quote(e.Key) + ": "
		if str, ok := e.Val.(string); ok {
			s += strconv.Quote(str)
		} else {
			s += ToString(e.Val)
		}
	}
	return s + "}"
}

// ToNumber coerces val for arithmetic and bitwise opcodes, which pop
// operands unconditionally expecting numbers (spec.md §4.7); anything that
// isn't already numeric degrades to 0 rather than erroring, matching the
// VM's general "fall through with a default" error policy (spec.md §7).
func ToNumber(val Value) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Truthy defines CatLang's condition coercion: nil and boolean false are
// false, the number 0 is false, everything else (including empty string,
// matching the teacher's "only nil/false/0 are falsy" convention) is true.
func Truthy(val Value) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

// valuesEqual implements spec.md §4.7's OP_EQ/OP_NE rule: structural
// equality on nil/number/bool/string, reference identity (the same Go
// pointer) for array/map, value equality for Pointer (same block+offset is
// "the same referent" for a capability value), and false for any other
// combination.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case *Array:
		bv, ok := b.(*Array)
		return ok && av == bv
	case *Map:
		bv, ok := b.(*Map)
		return ok && av == bv
	case Pointer:
		bv, ok := b.(Pointer)
		return ok && av == bv
	default:
		return false
	}
}
