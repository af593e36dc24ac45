// Package serializer implements the deterministic little-endian chunk
// file format spec.md §6 specifies as authoritative. The bundled-
// executable footer that wraps such a chunk is framed by internal/bundler.
//
// Grounded on internal/bytecode/chunk.go's previous serialization
// routines (the teacher kept one file per VM version; this rebuilds the
// writer/reader pair around the exact field layout and tag set spec.md
// §6 gives), with version-tolerance delegated to golang.org/x/mod/semver
// the way SPEC_FULL.md §3 describes: the on-disk version is a plain u16,
// but the reader treats "version <= ours" as loadable and logs anything
// higher through a semver-styled advisory rather than refusing to load.
package serializer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"

	"golang.org/x/mod/semver"

	"catlang/internal/bytecode"
)

const (
	magic         uint32 = 0x43424243 // "CBBC" LE
	currentVersion uint16 = 1
)

const (
	tagNil uint8 = iota
	tagF64
	tagString
	tagBool
)

// currentSemver lets the version-advisory log line reuse the same
// comparison machinery a multi-file release train would, even though
// the on-disk version field itself is a bare u16 (spec.md §6).
var currentSemver = fmt.Sprintf("v%d.0.0", currentVersion)

// Write encodes chunk in the exact layout spec.md §6 specifies.
func Write(w io.Writer, chunk *bytecode.Chunk) error {
	var buf bytes.Buffer

	writeU32(&buf, magic)
	writeU16(&buf, currentVersion)

	writeU32(&buf, uint32(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		if err := writeConstant(&buf, c); err != nil {
			return err
		}
	}

	writeU32(&buf, uint32(len(chunk.Names)))
	for _, n := range chunk.Names {
		writeString(&buf, n)
	}

	writeU32(&buf, uint32(len(chunk.Functions)))
	for _, f := range chunk.Functions {
		writeU16(&buf, f.NameIndex)
		writeU16(&buf, f.Arity)
		writeU32(&buf, f.Entry)
	}

	writeU32(&buf, uint32(len(chunk.Code)))
	buf.Write(chunk.Code)

	writeU32(&buf, uint32(len(chunk.DebugLines)))
	for _, l := range chunk.DebugLines {
		writeU32(&buf, l)
	}
	writeU32(&buf, uint32(len(chunk.DebugCols)))
	for _, c := range chunk.DebugCols {
		writeU32(&buf, c)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Read decodes a chunk previously produced by Write, attributing
// diagnostics to sourceName. A version higher than currentVersion is
// accepted per spec.md §6 ("reader accepts higher"); a bad magic number,
// a truncated section or an unknown constant tag is a hard failure.
func Read(r io.Reader, sourceName string) (*bytecode.Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(data)

	gotMagic, err := readU32(br)
	if err != nil || gotMagic != magic {
		return nil, fmt.Errorf("serializer: not a CatLang chunk (bad magic)")
	}
	version, err := readU16(br)
	if err != nil {
		return nil, err
	}
	if semver.Compare(fmt.Sprintf("v%d.0.0", version), currentSemver) > 0 {
		log.Printf("catlang: chunk version %d is newer than this reader's %d, loading best-effort", version, currentVersion)
	}

	chunk := bytecode.New(sourceName)

	constCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < constCount; i++ {
		v, err := readConstant(br)
		if err != nil {
			return nil, err
		}
		chunk.AddConstant(v)
	}

	nameCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nameCount; i++ {
		s, err := readString(br)
		if err != nil {
			return nil, err
		}
		chunk.AddName(s)
	}

	funcCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < funcCount; i++ {
		nameIdx, err := readU16(br)
		if err != nil {
			return nil, err
		}
		arity, err := readU16(br)
		if err != nil {
			return nil, err
		}
		entry, err := readU32(br)
		if err != nil {
			return nil, err
		}
		chunk.AddFunction(int(nameIdx), int(arity), int(entry))
	}

	codeLen, err := readU32(br)
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(br, code); err != nil {
		return nil, err
	}
	chunk.Code = code

	lineCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	lines := make([]uint32, lineCount)
	for i := range lines {
		v, err := readU32(br)
		if err != nil {
			return nil, err
		}
		lines[i] = v
	}
	chunk.DebugLines = lines

	colCount, err := readU32(br)
	if err != nil {
		return nil, err
	}
	cols := make([]uint32, colCount)
	for i := range cols {
		v, err := readU32(br)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	chunk.DebugCols = cols

	return chunk, nil
}

func writeConstant(buf *bytes.Buffer, c interface{}) error {
	switch v := c.(type) {
	case nil:
		buf.WriteByte(tagNil)
	case float64:
		buf.WriteByte(tagF64)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		buf.Write(b[:])
	case string:
		buf.WriteByte(tagString)
		writeString(buf, v)
	case bool:
		buf.WriteByte(tagBool)
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	default:
		return fmt.Errorf("serializer: unsupported constant type %T", c)
	}
	return nil
}

func readConstant(r io.Reader) (interface{}, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, err
	}
	switch tagBuf[0] {
	case tagNil:
		return nil, nil
	case tagF64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
	case tagString:
		return readString(r)
	case tagBool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	default:
		return nil, fmt.Errorf("serializer: unknown constant tag %d", tagBuf[0])
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
