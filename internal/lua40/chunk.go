// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package lua40

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Signature is the magic prefix of a binary Lua 4.0 chunk:
// an escape byte followed by "Lua".
const Signature = "\x1bLua"

// chunkVersion is the version byte following the signature.
// 0x40 encodes Lua 4.0.
const chunkVersion byte = 0x40

// Header holds the encoding parameters read from a chunk's preamble.
// Every primitive read after the preamble is driven by these values,
// so a Header never changes once decoded.
type Header struct {
	// ByteOrder is the byte order of every multi-byte value in the chunk.
	ByteOrder binary.ByteOrder

	// Byte widths of the serialized primitive types.
	IntSize         int
	SizeTSize       int
	InstructionSize int
	NumberSize      int

	// Bit widths of the instruction word and its fields.
	InstructionBits uint8
	OpCodeBits      uint8
	BBits           uint8
}

// StandardHeader returns the encoding emitted by a stock luac 4.0 build
// on a little-endian platform with 32-bit ints:
// 32-bit instruction words with a 6-bit opcode field and a 9-bit B field,
// 4-byte ints and sizes, and 8-byte numbers.
func StandardHeader() Header {
	return Header{
		ByteOrder:       binary.LittleEndian,
		IntSize:         4,
		SizeTSize:       4,
		InstructionSize: 4,
		NumberSize:      8,
		InstructionBits: 32,
		OpCodeBits:      6,
		BBits:           9,
	}
}

// HeaderError indicates that a chunk's fixed preamble bytes
// (signature or version) did not match.
type HeaderError struct {
	Offset int
	Msg    string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("lua40: header: %s (byte %d)", e.Msg, e.Offset)
}

// UnsupportedEncodingError indicates that the header declares
// a (size, endianness) combination this decoder does not implement.
// It is distinct from [HeaderError]:
// the chunk may be well-formed, but it cannot be read.
type UnsupportedEncodingError struct {
	Field string
	Size  int
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("lua40: unsupported encoding: %s of size %d", e.Field, e.Size)
}

// InvalidOpcodeError indicates that an instruction word's opcode field
// does not name a Lua 4.0 operation.
// This usually means the header's field widths do not match the code,
// or the chunk is corrupt.
type InvalidOpcodeError struct {
	Word   uint64
	Code   uint64
	Offset int
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("lua40: invalid opcode %#x in instruction word %#x (byte %d)", e.Code, e.Word, e.Offset)
}

// MalformedChunkError indicates a violated structural invariant:
// a truncated section, an impossible count, a function whose code
// does not end in End, or trailing bytes after the top-level prototype.
type MalformedChunkError struct {
	Offset int
	Msg    string
}

func (e *MalformedChunkError) Error() string {
	return fmt.Sprintf("lua40: malformed chunk: %s (byte %d)", e.Msg, e.Offset)
}

// chunkReader consumes a chunk front to back,
// tracking the byte offset for diagnostics.
type chunkReader struct {
	s   []byte
	off int
	h   Header
}

// newChunkReader validates the preamble and returns a reader
// positioned at the top-level function prototype.
func newChunkReader(s []byte) (*chunkReader, error) {
	r := &chunkReader{s: s}
	for i := 0; i < len(Signature); i++ {
		b, err := r.readByte("signature")
		if err != nil {
			return nil, err
		}
		if b != Signature[i] {
			return nil, &HeaderError{Offset: i, Msg: fmt.Sprintf("bad signature byte %#02x", b)}
		}
	}
	version, err := r.readByte("version")
	if err != nil {
		return nil, err
	}
	if version != chunkVersion {
		return nil, &HeaderError{Offset: r.off - 1, Msg: fmt.Sprintf("unsupported version %#02x", version)}
	}

	var params [8]byte
	names := [8]string{
		"endianness", "int", "size_t", "instruction",
		"instruction bits", "opcode bits", "B bits", "number",
	}
	for i := range params {
		params[i], err = r.readByte(names[i])
		if err != nil {
			return nil, err
		}
	}

	switch params[0] {
	case 0:
		r.h.ByteOrder = binary.BigEndian
	case 1:
		r.h.ByteOrder = binary.LittleEndian
	default:
		return nil, &UnsupportedEncodingError{Field: "endianness", Size: int(params[0])}
	}
	r.h.IntSize = int(params[1])
	if r.h.IntSize != 2 && r.h.IntSize != 4 {
		return nil, &UnsupportedEncodingError{Field: "int", Size: r.h.IntSize}
	}
	r.h.SizeTSize = int(params[2])
	if r.h.SizeTSize != 2 && r.h.SizeTSize != 4 && r.h.SizeTSize != 8 {
		return nil, &UnsupportedEncodingError{Field: "size_t", Size: r.h.SizeTSize}
	}
	r.h.InstructionSize = int(params[3])
	if r.h.InstructionSize != 2 && r.h.InstructionSize != 4 && r.h.InstructionSize != 8 {
		return nil, &UnsupportedEncodingError{Field: "instruction", Size: r.h.InstructionSize}
	}
	r.h.InstructionBits = params[4]
	r.h.OpCodeBits = params[5]
	r.h.BBits = params[6]
	if int(r.h.InstructionBits) > 8*r.h.InstructionSize ||
		r.h.OpCodeBits == 0 || uint(r.h.OpCodeBits)+uint(r.h.BBits) >= uint(r.h.InstructionBits) {
		return nil, &UnsupportedEncodingError{Field: "instruction bits", Size: int(r.h.InstructionBits)}
	}
	r.h.NumberSize = int(params[7])
	if r.h.NumberSize != 4 && r.h.NumberSize != 8 {
		return nil, &UnsupportedEncodingError{Field: "number", Size: r.h.NumberSize}
	}

	// Sample number. Only its presence is checked:
	// its value is whatever the compiling platform's float format produced.
	if len(r.s) < r.h.NumberSize {
		return nil, r.truncated("sample number")
	}
	r.s = r.s[r.h.NumberSize:]
	r.off += r.h.NumberSize

	return r, nil
}

func (r *chunkReader) truncated(what string) error {
	return &MalformedChunkError{Offset: r.off, Msg: "unexpected end of chunk reading " + what}
}

func (r *chunkReader) readByte(what string) (byte, error) {
	if len(r.s) == 0 {
		return 0, r.truncated(what)
	}
	b := r.s[0]
	r.s = r.s[1:]
	r.off++
	return b, nil
}

func (r *chunkReader) readWord(size int, what string) (uint64, error) {
	if len(r.s) < size {
		return 0, r.truncated(what)
	}
	var w uint64
	switch size {
	case 2:
		w = uint64(r.h.ByteOrder.Uint16(r.s))
	case 4:
		w = uint64(r.h.ByteOrder.Uint32(r.s))
	case 8:
		w = r.h.ByteOrder.Uint64(r.s)
	default:
		return 0, &UnsupportedEncodingError{Field: what, Size: size}
	}
	r.s = r.s[size:]
	r.off += size
	return w, nil
}

// readInt reads a signed int of the header's int size.
func (r *chunkReader) readInt(what string) (int, error) {
	w, err := r.readWord(r.h.IntSize, what)
	if err != nil {
		return 0, err
	}
	switch r.h.IntSize {
	case 2:
		return int(int16(w)), nil
	default:
		return int(int32(w)), nil
	}
}

// readCount reads a non-negative element count and sanity-checks it
// against the remaining input so corrupt chunks fail
// instead of provoking absurd allocations.
func (r *chunkReader) readCount(what string) (int, error) {
	off := r.off
	n, err := r.readInt(what)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > len(r.s) {
		return 0, &MalformedChunkError{Offset: off, Msg: fmt.Sprintf("impossible %s count %d", what, n)}
	}
	return n, nil
}

func (r *chunkReader) readSizeT(what string) (int, error) {
	w, err := r.readWord(r.h.SizeTSize, what)
	if err != nil {
		return 0, err
	}
	if w > uint64(math.MaxInt) {
		return 0, &MalformedChunkError{Offset: r.off - r.h.SizeTSize, Msg: fmt.Sprintf("%s size %d overflows", what, w)}
	}
	return int(w), nil
}

func (r *chunkReader) readNumber(what string) (float64, error) {
	w, err := r.readWord(r.h.NumberSize, what)
	if err != nil {
		return 0, err
	}
	if r.h.NumberSize == 4 {
		return float64(math.Float32frombits(uint32(w))), nil
	}
	return math.Float64frombits(w), nil
}

// readString reads a size_t-prefixed string.
// The length includes a trailing NUL, which is stripped;
// a zero length yields the empty string without consuming a NUL.
func (r *chunkReader) readString() (string, error) {
	n, err := r.readSizeT("string length")
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if len(r.s) < n {
		return "", r.truncated("string")
	}
	s := string(r.s[:n-1])
	r.s = r.s[n:]
	r.off += n
	return s, nil
}

// readInstruction reads one instruction word and validates its opcode field.
func (r *chunkReader) readInstruction() (Instruction, error) {
	off := r.off
	w, err := r.readWord(r.h.InstructionSize, "instruction")
	if err != nil {
		return Instruction{}, err
	}
	i := Instruction{
		word:   w,
		bits:   r.h.InstructionBits,
		opBits: r.h.OpCodeBits,
		bBits:  r.h.BBits,
	}
	if code := w & (1<<r.h.OpCodeBits - 1); code > uint64(maxOpCode) {
		return Instruction{}, &InvalidOpcodeError{Word: w, Code: code, Offset: off}
	}
	return i, nil
}
