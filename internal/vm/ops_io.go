package vm

import (
	"bufio"
	"io"
	"os"

	"catlang/internal/bytecode"
)

// execIO handles the file-stream family. Streams share one integer
// handle table with stdin/stdout/stderr reserved at 0/1/2
// (SPEC_FULL.md §3), the same convention internal/sqlrt and
// internal/wsrt use for their own resource handles.
func (vm *VM) execIO(op bytecode.Op) (handled bool, err error) {
	switch op {
	case bytecode.OpReadFile:
		path := ToString(vm.popDiscard())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			vm.push(nil)
			return true, nil
		}
		vm.push(string(data))

	case bytecode.OpWriteFile:
		data := ToString(vm.popDiscard())
		path := ToString(vm.popDiscard())
		writeErr := os.WriteFile(path, []byte(data), 0o644)
		vm.push(writeErr == nil)

	case bytecode.OpFileExists:
		path := ToString(vm.popDiscard())
		_, statErr := os.Stat(path)
		vm.push(statErr == nil)

	case bytecode.OpFopen:
		mode := ToString(vm.popDiscard())
		path := ToString(vm.popDiscard())
		f, openErr := openMode(path, mode)
		if openErr != nil {
			vm.push(float64(-1))
			return true, nil
		}
		h := vm.nextHand
		vm.nextHand++
		vm.streams[h] = f
		vm.push(float64(h))

	case bytecode.OpFclose:
		h := int(vm.popNumber())
		if f, ok := vm.streams[h]; ok && h > 2 {
			f.Close()
			delete(vm.streams, h)
		}
		vm.push(nil)

	case bytecode.OpFread:
		n := int(vm.popNumber())
		h := int(vm.popNumber())
		f, ok := vm.streams[h]
		if !ok {
			vm.push("")
			return true, nil
		}
		buf := make([]byte, n)
		read, _ := io.ReadFull(f, buf)
		vm.push(string(buf[:read]))

	case bytecode.OpFreadLine:
		h := int(vm.popNumber())
		f, ok := vm.streams[h]
		if !ok {
			vm.push(nil)
			return true, nil
		}
		line, readErr := bufio.NewReader(f).ReadString('\n')
		if line == "" && readErr != nil {
			vm.push(nil)
			return true, nil
		}
		vm.push(trimNewline(line))

	case bytecode.OpFwrite:
		data := ToString(vm.popDiscard())
		h := int(vm.popNumber())
		f, ok := vm.streams[h]
		if !ok {
			vm.push(false)
			return true, nil
		}
		_, writeErr := f.WriteString(data)
		vm.push(writeErr == nil)

	case bytecode.OpStdin:
		vm.push(float64(0))

	case bytecode.OpStdout:
		vm.push(float64(1))

	case bytecode.OpStderr:
		vm.push(float64(2))

	default:
		return false, nil
	}
	return true, nil
}

func openMode(path, mode string) (*os.File, error) {
	switch mode {
	case "w":
		return os.Create(path)
	case "a":
		return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	default:
		return os.Open(path)
	}
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
