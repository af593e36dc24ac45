// Package bundler implements the Bundler external collaborator spec.md
// §4.6/§6 specifies: appending a compiled chunk's payload to a host
// executable's end, and detecting/stripping that footer back off at
// startup when the CLI is run with no arguments.
//
// Grounded on spec.md's literal footer layout; there is no teacher
// equivalent (sentra has no self-hosting/bundling feature), so this
// package is new, built in the teacher's general file-handling style
// (internal/vm/network_http.go's length-prefixed framing idiom) rather
// than adapted from a specific file.
package bundler

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// FooterMagic is the 8-byte trailing sentinel spec.md §4.6/§6 names.
const FooterMagic = "CBPACK1\x00"

// Bundler appends/detects a compiled chunk payload on a host executable.
type Bundler interface {
	Bundle(hostExe, payload []byte) ([]byte, error)
	Detect(exe []byte) (payload []byte, ok bool)
}

// FileBundler is the reference implementation: plain byte-slice framing,
// with no dependency on how the caller obtained hostExe's bytes (memory-
// mapped or read whole). StampFormat, when non-empty, appends a comment
// line before the footer, formatted with strftime so
// github.com/ncruces/go-strftime actually has a caller (SPEC_FULL.md §3).
type FileBundler struct {
	StampFormat string // e.g. "%Y-%m-%d %H:%M:%S"; empty disables stamping
}

// Bundle appends {payload}{payloadSize u64 LE}{magic} to hostExe, per
// spec.md §4.6's concatenation format. A non-empty StampFormat inserts a
// human-readable "bundled at <timestamp>" comment line ahead of the
// binary payload, outside the footer itself so Detect's fixed-offset
// seek-back is unaffected.
func (b FileBundler) Bundle(hostExe, payload []byte) ([]byte, error) {
	out := make([]byte, 0, len(hostExe)+len(payload)+32)
	out = append(out, hostExe...)
	if b.StampFormat != "" {
		stamp := strftime.Format(b.StampFormat, time.Now())
		out = append(out, []byte(fmt.Sprintf("\n// bundled at %s\n", stamp))...)
	}
	out = append(out, payload...)
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(payload)))
	out = append(out, size[:]...)
	out = append(out, []byte(FooterMagic)...)
	return out, nil
}

// Detect looks for the trailing footer and, if present, slices out the
// payload bytes it brackets. Spec.md §4.6: "seek to end, read the last 16
// bytes, verify the 8-byte magic, then seek back payloadSize+16 bytes."
func (b FileBundler) Detect(exe []byte) ([]byte, bool) {
	const footerLen = 16 // 8-byte size + 8-byte magic
	if len(exe) < footerLen {
		return nil, false
	}
	tail := exe[len(exe)-footerLen:]
	magic := tail[8:]
	if !bytes.Equal(magic, []byte(FooterMagic)) {
		return nil, false
	}
	payloadSize := binary.LittleEndian.Uint64(tail[:8])
	start := len(exe) - footerLen - int(payloadSize)
	if start < 0 {
		return nil, false
	}
	return exe[start : len(exe)-footerLen], true
}
