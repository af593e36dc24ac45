package vm

import "catlang/internal/bytecode"

// execContainer handles every array/map opcode. Stack shapes match
// spec.md §6's opcode catalogue exactly (OP_INDEX_GET: array, index;
// OP_INDEX_SET: array, index, value; OP_MAP_SET: map, key, value; etc).
func (vm *VM) execContainer(op bytecode.Op, opIP int) (handled bool, err error) {
	switch op {
	case bytecode.OpNewArray:
		n := int(vm.readByte())
		elems := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			elems[i] = vm.pop()
		}
		vm.arraysNew++
		vm.push(newArray(elems))

	case bytecode.OpIndexGet:
		idx := int(vm.popNumber())
		arrV := vm.pop()
		arr, ok := arrV.(*Array)
		if !ok || idx < 0 || idx >= len(arr.Elements) {
			vm.release(arrV)
			vm.push(nil)
			return true, nil
		}
		v := arr.Elements[idx]
		vm.retain(v)
		vm.release(arrV)
		vm.push(v)

	case bytecode.OpIndexSet:
		val := vm.pop()
		idx := int(vm.popNumber())
		arrV := vm.pop()
		arr, ok := arrV.(*Array)
		if !ok {
			vm.release(val)
			vm.release(arrV)
			return true, nil
		}
		if idx >= 0 && idx < len(arr.Elements) {
			vm.release(arr.Elements[idx])
			arr.Elements[idx] = val
		} else {
			vm.release(val) // out of range: silently dropped per spec.md §4.7
		}
		vm.release(arrV)

	case bytecode.OpLen:
		v := vm.pop()
		switch c := v.(type) {
		case *Array:
			vm.push(float64(len(c.Elements)))
		case *Map:
			vm.push(float64(len(c.Items)))
		case string:
			vm.push(float64(len(c)))
		default:
			vm.push(float64(0))
		}
		vm.release(v)

	case bytecode.OpAppend:
		val := vm.pop()
		arrV := vm.pop()
		if arr, ok := arrV.(*Array); ok {
			arr.Elements = append(arr.Elements, val)
		} else {
			vm.release(val)
		}
		vm.release(arrV)
		vm.push(nil)

	case bytecode.OpArrayPop:
		arrV := vm.pop()
		arr, ok := arrV.(*Array)
		if !ok || len(arr.Elements) == 0 {
			vm.release(arrV)
			vm.push(nil)
			return true, nil
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		vm.release(arrV)
		vm.push(last)

	case bytecode.OpArrayReserve:
		n := int(vm.popNumber())
		arrV := vm.pop()
		if arr, ok := arrV.(*Array); ok && n > cap(arr.Elements) {
			grown := make([]Value, len(arr.Elements), n)
			copy(grown, arr.Elements)
			arr.Elements = grown
		}
		vm.release(arrV)
		vm.push(nil)

	case bytecode.OpArrayClear:
		arrV := vm.pop()
		if arr, ok := arrV.(*Array); ok {
			for _, e := range arr.Elements {
				vm.release(e)
			}
			arr.Elements = arr.Elements[:0]
		}
		vm.release(arrV)
		vm.push(nil)

	case bytecode.OpNewMap:
		vm.mapsNew++
		vm.push(newMap())

	case bytecode.OpMapGet:
		key := ToString(vm.popDiscard())
		mapV := vm.pop()
		m, ok := mapV.(*Map)
		if !ok {
			vm.release(mapV)
			vm.push(nil)
			return true, nil
		}
		v, found := m.get(key)
		if found {
			vm.retain(v)
		}
		vm.release(mapV)
		vm.push(v)

	case bytecode.OpMapSet:
		val := vm.pop()
		key := ToString(vm.popDiscard())
		mapV := vm.pop()
		if m, ok := mapV.(*Map); ok {
			m.set(key, val)
		} else {
			vm.release(val)
		}
		vm.release(mapV)
		vm.push(nil)

	case bytecode.OpMapHas:
		key := ToString(vm.popDiscard())
		mapV := vm.pop()
		m, ok := mapV.(*Map)
		if !ok {
			vm.release(mapV)
			vm.push(false)
			return true, nil
		}
		_, found := m.get(key)
		vm.release(mapV)
		vm.push(found)

	case bytecode.OpMapDel:
		key := ToString(vm.popDiscard())
		mapV := vm.pop()
		if m, ok := mapV.(*Map); ok {
			m.delete(key)
		}
		vm.release(mapV)
		vm.push(nil)

	case bytecode.OpMapKeys:
		mapV := vm.pop()
		m, ok := mapV.(*Map)
		keys := make([]Value, 0)
		if ok {
			for _, e := range m.Items {
				keys = append(keys, e.Key)
			}
		}
		vm.release(mapV)
		vm.arraysNew++
		vm.push(newArray(keys))

	case bytecode.OpMapSize:
		mapV := vm.pop()
		n := 0
		if m, ok := mapV.(*Map); ok {
			n = len(m.Items)
		}
		vm.release(mapV)
		vm.push(float64(n))

	case bytecode.OpMapClear:
		mapV := vm.pop()
		if m, ok := mapV.(*Map); ok {
			for _, e := range m.Items {
				vm.release(e.Val)
			}
			m.Items = m.Items[:0]
		}
		vm.release(mapV)
		vm.push(nil)

	case bytecode.OpRange:
		to := vm.popNumber()
		from := vm.popNumber()
		var elems []Value
		for i := from; i < to; i++ {
			elems = append(elems, i)
		}
		vm.arraysNew++
		vm.push(newArray(elems))

	default:
		return false, nil
	}
	return true, nil
}
