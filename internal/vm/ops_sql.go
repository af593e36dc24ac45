package vm

import "catlang/internal/bytecode"

// execSQL backs OP_DB_OPEN/QUERY/EXEC/CLOSE, translating between
// CatLang Values and internal/sqlrt's Row/driver-value shapes. A
// CatLang-visible connection handle is just the sqlrt handle directly —
// there is only one handle namespace to keep straight here, unlike
// streams which share 0/1/2 with stdio.
func (vm *VM) execSQL(op bytecode.Op, opIP int) (handled bool, err error) {
	switch op {
	case bytecode.OpDBOpen:
		dsn := ToString(vm.popDiscard())
		driver := ToString(vm.popDiscard())
		h, openErr := vm.sql.Open(driver, dsn)
		if openErr != nil {
			vm.push(float64(-1))
			return true, nil
		}
		vm.push(float64(h))

	case bytecode.OpDBQuery:
		argsArrV := vm.pop()
		query := ToString(vm.popDiscard())
		h := int(vm.popNumber())
		args := arrayToArgs(argsArrV)
		vm.release(argsArrV)
		rows, qErr := vm.sql.Query(h, query, args)
		if qErr != nil {
			vm.arraysNew++
			vm.push(newArray(nil))
			return true, nil
		}
		elems := make([]Value, len(rows))
		for i, row := range rows {
			m := newMap()
			for k, v := range row {
				m.set(k, sqlValueToCatlang(v))
			}
			elems[i] = m
			vm.mapsNew++
		}
		vm.arraysNew++
		vm.push(newArray(elems))

	case bytecode.OpDBExec:
		argsArrV := vm.pop()
		query := ToString(vm.popDiscard())
		h := int(vm.popNumber())
		args := arrayToArgs(argsArrV)
		vm.release(argsArrV)
		n, execErr := vm.sql.Exec(h, query, args)
		if execErr != nil {
			vm.push(float64(-1))
			return true, nil
		}
		vm.push(float64(n))

	case bytecode.OpDBClose:
		h := int(vm.popNumber())
		vm.sql.Close(h)
		vm.push(nil)

	default:
		return false, nil
	}
	return true, nil
}

// arrayToArgs flattens a CatLang array of bind parameters into the
// []interface{} database/sql.(*DB).Query/Exec expects.
func arrayToArgs(v Value) []interface{} {
	arr, ok := v.(*Array)
	if !ok {
		return nil
	}
	out := make([]interface{}, len(arr.Elements))
	for i, e := range arr.Elements {
		out[i] = e
	}
	return out
}

// sqlValueToCatlang coerces a driver-returned column value ([]byte for
// most text-ish columns, int64/float64/bool/nil/time.Time for typed
// ones) into a Value the rest of the VM understands.
func sqlValueToCatlang(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		return x
	case string:
		return x
	default:
		return ToString(x)
	}
}
