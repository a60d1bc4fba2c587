package packager

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var magic = [4]byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"

const exportSectionID = 7

const (
	exportKindFunc   = 0
	exportKindTable  = 1
	exportKindMemory = 2
	exportKindGlobal = 3
)

// errMalformed signals the module's binary framing itself is broken
// (truncated section, bad LEB128, wrong magic/version) — always a
// BadInput from the caller's point of view.
var errMalformed = errors.New("packager: malformed wasm module")

// requiredExports validates that raw is a well-formed WASM module
// exporting a "handle" function, an "alloc" function, and a "memory".
func requiredExports(raw []byte) error {
	if len(raw) < 8 || [4]byte(raw[:4]) != magic {
		return fmt.Errorf("%w: bad magic", errMalformed)
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != 1 {
		return fmt.Errorf("%w: unsupported version %d", errMalformed, version)
	}

	exports := map[string]byte{}
	off := 8
	for off < len(raw) {
		id := raw[off]
		off++
		size, n, err := readULEB128(raw[off:])
		if err != nil {
			return err
		}
		off += n
		if off+int(size) > len(raw) {
			return fmt.Errorf("%w: section overruns module", errMalformed)
		}
		content := raw[off : off+int(size)]
		off += int(size)

		if id == exportSectionID {
			if err := parseExportSection(content, exports); err != nil {
				return err
			}
		}
	}

	for _, name := range []string{"handle", "alloc"} {
		kind, ok := exports[name]
		if !ok || kind != exportKindFunc {
			return fmt.Errorf("%w: missing function export %q", ErrBadInput, name)
		}
	}
	if kind, ok := exports["memory"]; !ok || kind != exportKindMemory {
		return fmt.Errorf("%w: missing memory export", ErrBadInput)
	}
	return nil
}

func parseExportSection(content []byte, exports map[string]byte) error {
	count, n, err := readULEB128(content)
	if err != nil {
		return err
	}
	off := n
	for i := uint64(0); i < count; i++ {
		nameLen, ln, err := readULEB128(content[off:])
		if err != nil {
			return err
		}
		off += ln
		if off+int(nameLen) > len(content) {
			return fmt.Errorf("%w: export name overruns section", errMalformed)
		}
		name := string(content[off : off+int(nameLen)])
		off += int(nameLen)

		if off >= len(content) {
			return fmt.Errorf("%w: truncated export entry", errMalformed)
		}
		kind := content[off]
		off++

		_, idxLen, err := readULEB128(content[off:])
		if err != nil {
			return err
		}
		off += idxLen

		exports[name] = kind
	}
	return nil
}

func readULEB128(b []byte) (value uint64, n int, err error) {
	var shift uint
	for n = 0; n < len(b); n++ {
		byt := b[n]
		value |= uint64(byt&0x7f) << shift
		if byt&0x80 == 0 {
			return value, n + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("%w: LEB128 overflow", errMalformed)
		}
	}
	return 0, 0, fmt.Errorf("%w: truncated LEB128", errMalformed)
}

func writeULEB128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// customSection builds a well-formed WASM custom section (id 0) with the
// given section-name and payload, in the on-disk encoding: id byte, ULEB128
// content length, ULEB128 name length, name bytes, payload bytes.
func customSection(name string, payload []byte) []byte {
	nameBytes := []byte(name)
	content := append(writeULEB128(uint64(len(nameBytes))), nameBytes...)
	content = append(content, payload...)

	section := []byte{0x00}
	section = append(section, writeULEB128(uint64(len(content)))...)
	section = append(section, content...)
	return section
}
