// Domain-stack builtins added by SPEC_FULL.md §3: identity generation,
// humane byte formatting, and the Ed25519/Curve25519 intrinsics. None of
// these were in the teacher's opcode catalogue; each gets a dedicated
// opcode the same way the SQL/WebSocket extensions do, rather than a
// by-name dispatch, so they share OP_CALL's zero-lookup dispatch cost.
package vm

import (
	"crypto/ed25519"
	"crypto/rand"

	"filippo.io/edwards25519"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"catlang/internal/bytecode"
)

func (vm *VM) execDomain(op bytecode.Op) (handled bool, err error) {
	switch op {
	case bytecode.OpUUID:
		vm.push(uuid.NewString())

	case bytecode.OpHumanSize:
		n := vm.popNumber()
		vm.push(humanize.Bytes(uint64(n)))

	case bytecode.OpEd25519KeyPair:
		pub, priv, genErr := ed25519.GenerateKey(rand.Reader)
		if genErr != nil {
			vm.push(nil)
			return true, nil
		}
		m := newMap()
		m.set("public", encodeHex(pub))
		m.set("private", encodeHex(priv))
		vm.mapsNew++
		vm.push(m)

	case bytecode.OpEd25519Sign:
		msg := ToString(vm.popDiscard())
		privHex := ToString(vm.popDiscard())
		priv := ed25519.PrivateKey(decodeHexN(privHex, ed25519.PrivateKeySize))
		vm.push(encodeHex(ed25519.Sign(priv, []byte(msg))))

	case bytecode.OpEd25519Verify:
		sigHex := ToString(vm.popDiscard())
		msg := ToString(vm.popDiscard())
		pubHex := ToString(vm.popDiscard())
		pub := ed25519.PublicKey(decodeHexN(pubHex, ed25519.PublicKeySize))
		sig := decodeHexN(sigHex, ed25519.SignatureSize)
		vm.push(ed25519.Verify(pub, []byte(msg), sig))

	case bytecode.OpCurveBasepointMul:
		scalarHex := ToString(vm.popDiscard())
		s, scErr := new(edwards25519.Scalar).SetCanonicalBytes(decodeHexN(scalarHex, 32))
		if scErr != nil {
			vm.push("")
			return true, nil
		}
		point := new(edwards25519.Point).ScalarBaseMult(s)
		vm.push(encodeHex(point.Bytes()))

	default:
		return false, nil
	}
	return true, nil
}

// decodeHexN decodes s as hex into exactly n bytes, short reads/invalid
// digits silently zero-fill rather than erroring, matching the VM's
// general default-on-bad-input policy.
func decodeHexN(s string, n int) []byte {
	out := make([]byte, n)
	for i := 0; i+1 < len(s) && i/2 < n; i += 2 {
		out[i/2] = hexNibble(s[i])<<4 | hexNibble(s[i+1])
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

const hexDigits = "0123456789abcdef"

func encodeHex(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}
