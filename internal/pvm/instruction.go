// Package pvm implements the PVM program decoder: instruction and argument
// decoding, basic-block discovery and indirect jump-table validation
// (spec §3 Instruction/Program, §4.2 Program Decoder).
package pvm

import "github.com/jamzig/jamnode/internal/codec"

// MaxRegisterIndex is the highest valid register index. Out-of-range
// nibble-encoded indices are clamped to it rather than rejected — see
// spec §9 Design Notes ("the clamp min(register_index, 12)").
const MaxRegisterIndex = 12

// MaxInstrBytes bounds the byte length of any single decoded instruction
// (opcode byte + argument payload), per spec §3 Instruction invariant.
const MaxInstrBytes = 1 + MaxImmBytes*2 + 2

// MaxImmBytes bounds a single decoded immediate or offset field.
const MaxImmBytes = 8

// ArgShape names the closed set of argument layouts an opcode can have.
// Every PVM opcode is bound to exactly one of these at decode time.
type ArgShape uint8

const (
	ShapeNoArgs ArgShape = iota
	ShapeOneImm
	ShapeOneOffset
	ShapeOneRegOneImm
	ShapeOneRegOneImmOneOffset
	ShapeOneRegOneExtImm
	ShapeOneRegTwoImm
	ShapeThreeReg
	ShapeTwoImm
	ShapeTwoReg
	ShapeTwoRegOneImm
	ShapeTwoRegOneOffset
	ShapeTwoRegTwoImm
)

// Args is the decoded, shape-tagged argument payload of one instruction.
// Exactly the fields relevant to Shape are meaningful; the rest are zero.
type Args struct {
	Shape ArgShape

	Reg  [3]uint8 // register operands, in shape-defined order
	Imm  [2]int64 // sign-extended immediates / relative offsets
	Ext  uint64   // unsigned extended immediate (ShapeOneRegOneExtImm)
}

// Instruction is one decoded opcode plus its arguments and its argument
// byte length; ordinary (non-branching) control flow advances the program
// counter by 1 + Skip.
type Instruction struct {
	Opcode Opcode
	Args   Args
	Skip   int // argument byte length, i.e. total instruction length is Skip+1
}

// clampReg implements the spec's "clamp to 12" convention for nibble-sized
// register indices (spec §9 Design Notes, open question resolved in favor
// of clamping rather than faulting).
func clampReg(nibble byte) uint8 {
	n := nibble & 0x0F
	if n > MaxRegisterIndex {
		return MaxRegisterIndex
	}
	return uint8(n)
}

func loNibble(b byte) byte { return b & 0x0F }
func hiNibble(b byte) byte { return (b >> 4) & 0x0F }

// leU64 reads up to 8 bytes of buf as a little-endian unsigned integer,
// treating a short buf as zero-padded on the high end (spec §4.2: "bytes
// past |code| read as zero").
func leU64(buf []byte) uint64 {
	var v uint64
	for i, b := range buf {
		if i >= 8 {
			break
		}
		v |= uint64(b) << uint(8*i)
	}
	return v
}

// splitLengths implements the spec §4.2 nibble-derived immediate split:
// l_x = min(4, high_nibble mod 8), l_y = min(4, max(0, l - l_x - 1)), where
// l is the number of bytes remaining after the nibble byte that carries
// the split selector.
func splitLengths(nibbleByte byte, remaining int) (lx, ly int) {
	hi := int(hiNibble(nibbleByte))
	lx = hi % 8
	if lx > 4 {
		lx = 4
	}
	ly = remaining - lx - 1
	if ly < 0 {
		ly = 0
	}
	if ly > 4 {
		ly = 4
	}
	return lx, ly
}

// decodeArgs parses args (the exact Skip-byte argument slice for this
// instruction) according to shape. It never fails: truncated payloads are
// zero-padded per spec §4.2, and oversized payloads are simply not fully
// consumed (the caller bounds total instruction size via MAX_INSTR_BYTES
// at the whole-program level, §3 Instruction invariant).
func decodeArgs(shape ArgShape, args []byte) Args {
	a := Args{Shape: shape}
	switch shape {
	case ShapeNoArgs:
		// nothing to decode

	case ShapeOneImm:
		a.Imm[0] = codec.SignExtendNTo64(leU64(args), clampLen(len(args)))

	case ShapeOneOffset:
		a.Imm[0] = codec.SignExtendNTo64(leU64(args), clampLen(len(args)))

	case ShapeOneRegOneImm:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		rest := tail(args, 1)
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest), clampLen(len(rest)))

	case ShapeOneRegOneImmOneOffset:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		rest := tail(args, 1)
		lx, ly := splitLengths(b0, len(rest))
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest[:min(lx, len(rest))]), lx)
		a.Imm[1] = codec.SignExtendNTo64(leU64(tail(rest, lx)[:min(ly, len(tail(rest, lx)))]), ly)

	case ShapeOneRegOneExtImm:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		rest := tail(args, 1)
		a.Ext = leU64(rest)

	case ShapeOneRegTwoImm:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		rest := tail(args, 1)
		lx, ly := splitLengths(b0, len(rest))
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest[:min(lx, len(rest))]), lx)
		a.Imm[1] = codec.SignExtendNTo64(leU64(tail(rest, lx)[:min(ly, len(tail(rest, lx)))]), ly)

	case ShapeThreeReg:
		b0 := byteAt(args, 0)
		b1 := byteAt(args, 1)
		a.Reg[0] = clampReg(loNibble(b0))
		a.Reg[1] = clampReg(hiNibble(b0))
		a.Reg[2] = clampReg(loNibble(b1))

	case ShapeTwoImm:
		b0 := byteAt(args, 0)
		rest := tail(args, 1)
		lx, ly := splitLengths(b0, len(rest))
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest[:min(lx, len(rest))]), lx)
		a.Imm[1] = codec.SignExtendNTo64(leU64(tail(rest, lx)[:min(ly, len(tail(rest, lx)))]), ly)

	case ShapeTwoReg:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		a.Reg[1] = clampReg(hiNibble(b0))

	case ShapeTwoRegOneImm:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		a.Reg[1] = clampReg(hiNibble(b0))
		rest := tail(args, 1)
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest), clampLen(len(rest)))

	case ShapeTwoRegOneOffset:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		a.Reg[1] = clampReg(hiNibble(b0))
		rest := tail(args, 1)
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest), clampLen(len(rest)))

	case ShapeTwoRegTwoImm:
		b0 := byteAt(args, 0)
		a.Reg[0] = clampReg(loNibble(b0))
		a.Reg[1] = clampReg(hiNibble(b0))
		splitByte := byteAt(args, 1)
		rest := tail(args, 2)
		lx, ly := splitLengths(splitByte, len(rest))
		a.Imm[0] = codec.SignExtendNTo64(leU64(rest[:min(lx, len(rest))]), lx)
		a.Imm[1] = codec.SignExtendNTo64(leU64(tail(rest, lx)[:min(ly, len(tail(rest, lx)))]), ly)
	}
	return a
}

func byteAt(buf []byte, i int) byte {
	if i < len(buf) {
		return buf[i]
	}
	return 0
}

func tail(buf []byte, from int) []byte {
	if from >= len(buf) {
		return nil
	}
	return buf[from:]
}

func clampLen(n int) int {
	if n > MaxImmBytes {
		return MaxImmBytes
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
