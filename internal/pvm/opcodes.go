package pvm

// Opcode is the closed instruction-tag enum (spec §3 Instruction).
type Opcode uint8

const (
	OpTrap Opcode = iota
	OpFallthrough
	OpEcalli
	OpJump
	OpLoadImm
	OpJumpInd
	OpBranchEqImm
	OpBranchNeImm
	OpLoadImm64
	OpStoreIndU32
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpStoreImmU32
	OpMove
	OpNegate
	OpAddImm
	OpMulImm
	OpSetLtUImm
	OpBranchEq
	OpBranchNe
	OpBranchLtU
	OpLoadImmJumpInd
	OpLoadU8
	OpStoreU8
	OpLoadU32
	OpStoreU32

	opcodeCount
)

// opInfo is the static, per-opcode metadata the decoder and interpreter
// both consult: its argument shape, whether it is a basic-block terminator
// (spec §3 Program: "trap, fallthrough, jump*, branch_*, load_imm_jump*"),
// a mnemonic for diagnostics, and its constant gas cost (spec §4.4).
type opInfo struct {
	mnemonic string
	shape    ArgShape
	terminator bool
	gas      int64
}

var opcodeTable = [opcodeCount]opInfo{
	OpTrap:            {"trap", ShapeNoArgs, true, 1},
	OpFallthrough:     {"fallthrough", ShapeNoArgs, true, 1},
	OpEcalli:          {"ecalli", ShapeOneImm, false, 1},
	OpJump:            {"jump", ShapeOneOffset, true, 1},
	OpLoadImm:         {"load_imm", ShapeOneRegOneImm, false, 1},
	OpJumpInd:         {"jump_ind", ShapeOneRegOneImm, true, 1},
	OpBranchEqImm:     {"branch_eq_imm", ShapeOneRegOneImmOneOffset, true, 1},
	OpBranchNeImm:     {"branch_ne_imm", ShapeOneRegOneImmOneOffset, true, 1},
	OpLoadImm64:       {"load_imm64", ShapeOneRegOneExtImm, false, 1},
	OpStoreIndU32:     {"store_ind_u32", ShapeOneRegTwoImm, false, 2},
	OpAdd:             {"add", ShapeThreeReg, false, 1},
	OpSub:             {"sub", ShapeThreeReg, false, 1},
	OpAnd:             {"and", ShapeThreeReg, false, 1},
	OpOr:              {"or", ShapeThreeReg, false, 1},
	OpXor:             {"xor", ShapeThreeReg, false, 1},
	OpStoreImmU32:     {"store_imm_u32", ShapeTwoImm, false, 2},
	OpMove:            {"move", ShapeTwoReg, false, 1},
	OpNegate:          {"negate", ShapeTwoReg, false, 1},
	OpAddImm:          {"add_imm", ShapeTwoRegOneImm, false, 1},
	OpMulImm:          {"mul_imm", ShapeTwoRegOneImm, false, 1},
	OpSetLtUImm:       {"set_lt_u_imm", ShapeTwoRegOneImm, false, 1},
	OpBranchEq:        {"branch_eq", ShapeTwoRegOneOffset, true, 1},
	OpBranchNe:        {"branch_ne", ShapeTwoRegOneOffset, true, 1},
	OpBranchLtU:       {"branch_lt_u", ShapeTwoRegOneOffset, true, 1},
	OpLoadImmJumpInd:  {"load_imm_jump_ind", ShapeTwoRegTwoImm, true, 1},
	OpLoadU8:          {"load_u8", ShapeTwoRegOneImm, false, 2},
	OpStoreU8:         {"store_u8", ShapeTwoRegOneImm, false, 2},
	OpLoadU32:         {"load_u32", ShapeTwoRegOneImm, false, 2},
	OpStoreU32:        {"store_u32", ShapeTwoRegOneImm, false, 2},
}

// IsValidOpcode reports whether b names a known opcode.
func IsValidOpcode(b byte) bool { return b < byte(opcodeCount) }

// Shape returns op's argument shape.
func (op Opcode) Shape() ArgShape { return opcodeTable[op].shape }

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool { return opcodeTable[op].terminator }

// Mnemonic returns op's diagnostic name.
func (op Opcode) Mnemonic() string { return opcodeTable[op].mnemonic }

// GasCost returns op's constant gas cost (spec §4.4 dispatch loop step 2).
func (op Opcode) GasCost() int64 { return opcodeTable[op].gas }
