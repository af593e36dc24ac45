package vm

import "catlang/internal/bytecode"

// execWS backs OP_WS_CONNECT/SEND/RECV/CLOSE, a thin pass-through to
// internal/wsrt with the same "CatLang handle equals runtime handle"
// convention execSQL uses.
func (vm *VM) execWS(op bytecode.Op) (handled bool, err error) {
	switch op {
	case bytecode.OpWSConnect:
		url := ToString(vm.popDiscard())
		h, connErr := vm.ws.Connect(url)
		if connErr != nil {
			vm.push(float64(-1))
			return true, nil
		}
		vm.push(float64(h))

	case bytecode.OpWSSend:
		msg := ToString(vm.popDiscard())
		h := int(vm.popNumber())
		vm.push(vm.ws.Send(h, msg) == nil)

	case bytecode.OpWSRecv:
		h := int(vm.popNumber())
		msg, recvErr := vm.ws.Recv(h)
		if recvErr != nil {
			vm.push(nil)
			return true, nil
		}
		vm.push(msg)

	case bytecode.OpWSClose:
		h := int(vm.popNumber())
		vm.ws.Close(h)
		vm.push(nil)

	default:
		return false, nil
	}
	return true, nil
}
