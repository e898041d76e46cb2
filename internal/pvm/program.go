package pvm

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/jamzig/jamnode/internal/codec"
)

// HaltPC is the program-counter sentinel that signals normal termination
// (spec §3 ExecutionContext).
const HaltPC uint32 = 0xFFFF0000

// ZA is the indirect jump-table address alignment (spec glossary).
const ZA uint32 = 2

// Program is the immutable, decoded form of a program blob (spec §3
// Program). It is built once by Decode and never mutated afterwards.
type Program struct {
	Code        []byte
	Mask        *bitset.BitSet // one bit per code byte; set marks an instruction start
	JumpTable   []uint32       // ordered code offsets, validated against BasicBlocks
	BasicBlocks []uint32       // sorted; BasicBlocks[0] == 0
}

// Decode parses a raw program blob per spec §4.2 / §6:
//
//	E_nat(|jt|) || jt_item_len(1) || E_nat(|code|) || jt_bytes || code || mask
func Decode(blob []byte) (*Program, error) {
	jtCount, n1, err := codec.DecodeNatural(blob)
	if err != nil {
		return nil, ErrProgramTooShort
	}
	if n1 >= len(blob) {
		return nil, ErrProgramTooShort
	}
	itemLen := int(blob[n1])
	if itemLen < 1 || itemLen > 4 {
		if !(itemLen == 0 && jtCount == 0) {
			return nil, ErrInvalidJumpTableItemLength
		}
	}
	rest := blob[n1+1:]
	codeLen, n2, err := codec.DecodeNatural(rest)
	if err != nil {
		return nil, ErrInvalidCodeLength
	}
	headerLen := n1 + 1 + n2

	jtBytesLen := int(jtCount) * itemLen
	maskLen := (int(codeLen) + 7) / 8
	total := headerLen + jtBytesLen + int(codeLen) + maskLen
	if len(blob) < total {
		return nil, ErrProgramTooShort
	}

	jtBytes := blob[headerLen : headerLen+jtBytesLen]
	code := make([]byte, codeLen)
	copy(code, blob[headerLen+jtBytesLen:headerLen+jtBytesLen+int(codeLen)])
	maskBytes := blob[headerLen+jtBytesLen+int(codeLen) : headerLen+jtBytesLen+int(codeLen)+maskLen]

	mask := bitset.New(uint(codeLen))
	for i := 0; i < int(codeLen); i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if maskBytes[byteIdx]&(1<<bitIdx) != 0 {
			mask.Set(uint(i))
		}
	}

	jumpTable := make([]uint32, jtCount)
	for i := 0; i < int(jtCount); i++ {
		jumpTable[i] = uint32(leU64(jtBytes[i*itemLen : (i+1)*itemLen]))
	}

	basicBlocks, err := discoverBasicBlocks(code, mask)
	if err != nil {
		return nil, err
	}

	for _, dest := range jumpTable {
		if !isBasicBlockStart(basicBlocks, dest) {
			return nil, ErrInvalidJumpDestination
		}
	}

	return &Program{
		Code:        code,
		Mask:        mask,
		JumpTable:   jumpTable,
		BasicBlocks: basicBlocks,
	}, nil
}

// Skip returns the argument byte length for the instruction starting at
// pc: the number of zero bits in Mask from pc+1 up to (but not including)
// the next set bit, per spec §4.2.
func (p *Program) Skip(pc uint32) int {
	n := uint(len(p.Code))
	i := uint(pc) + 1
	count := 0
	for i < n && !p.Mask.Test(i) {
		count++
		i++
	}
	return count
}

// InstructionAt decodes the single instruction whose opcode byte sits at
// pc. Bytes past the end of Code read as zero (spec §4.2), which lets a
// trailing immediate overhang the code array by up to MaxImmBytes.
func (p *Program) InstructionAt(pc uint32) (Instruction, error) {
	if int(pc) >= len(p.Code) {
		return Instruction{}, ErrInvalidInstruction
	}
	opByte := p.Code[pc]
	if !IsValidOpcode(opByte) {
		return Instruction{}, ErrInvalidInstruction
	}
	op := Opcode(opByte)
	skip := p.Skip(pc)
	if skip+1 > MaxInstrBytes {
		return Instruction{}, ErrMaxInstructionSizeExceeded
	}
	start := int(pc) + 1
	end := start + skip
	var args []byte
	if start < len(p.Code) {
		cut := end
		if cut > len(p.Code) {
			cut = len(p.Code)
		}
		args = p.Code[start:cut]
	}
	if len(args) < skip {
		padded := make([]byte, skip)
		copy(padded, args)
		args = padded
	}
	return Instruction{
		Opcode: op,
		Args:   decodeArgs(op.Shape(), args),
		Skip:   skip,
	}, nil
}

// ValidateJumpAddress resolves a runtime indirect-jump address a against
// the jump table, per spec §4.2 "Indirect jump validation".
func (p *Program) ValidateJumpAddress(a uint32) (uint32, error) {
	if a == HaltPC {
		return 0, JumpAddressHalt
	}
	if a == 0 {
		return 0, JumpAddressZero
	}
	if a > uint32(len(p.JumpTable))*ZA {
		return 0, JumpAddressOutOfRange
	}
	if a%ZA != 0 {
		return 0, JumpAddressNotAligned
	}
	idx := a/ZA - 1
	dest := p.JumpTable[idx]
	if !isBasicBlockStart(p.BasicBlocks, dest) {
		return 0, JumpAddressNotInBasicBlock
	}
	return dest, nil
}

func isBasicBlockStart(blocks []uint32, offset uint32) bool {
	i := sort.Search(len(blocks), func(i int) bool { return blocks[i] >= offset })
	return i < len(blocks) && blocks[i] == offset
}

// discoverBasicBlocks performs the single forward walk described in spec
// §4.2: offset 0 is always a basic-block start, and every terminator
// instruction's fall-through point (pc + 1 + skip) starts the next one
// when it lies inside the code.
func discoverBasicBlocks(code []byte, mask *bitset.BitSet) ([]uint32, error) {
	starts := map[uint32]struct{}{0: {}}
	pc := uint32(0)
	n := uint32(len(code))
	for pc < n {
		opByte := code[pc]
		if !IsValidOpcode(opByte) {
			return nil, ErrInvalidInstruction
		}
		op := Opcode(opByte)
		skip := skipAt(mask, uint(pc), uint(n))
		if skip+1 > MaxInstrBytes {
			return nil, ErrMaxInstructionSizeExceeded
		}
		next := pc + 1 + uint32(skip)
		if op.IsTerminator() && next < n {
			starts[next] = struct{}{}
		}
		pc = next
	}
	out := make([]uint32, 0, len(starts))
	for s := range starts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func skipAt(mask *bitset.BitSet, pc, n uint) int {
	i := pc + 1
	count := 0
	for i < n && !mask.Test(i) {
		count++
		i++
	}
	return count
}
