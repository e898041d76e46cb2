package pvm

import "errors"

// Program-blob decode errors (spec §7 Decoder errors).
var (
	ErrProgramTooShort             = errors.New("pvm: program blob too short")
	ErrInvalidJumpTableLength       = errors.New("pvm: invalid jump table length")
	ErrInvalidJumpTableItemLength   = errors.New("pvm: invalid jump table item length")
	ErrInvalidCodeLength            = errors.New("pvm: invalid code length")
	ErrInvalidInstruction           = errors.New("pvm: invalid instruction")
	ErrInvalidRegisterIndex         = errors.New("pvm: invalid register index")
	ErrInvalidImmediateLength       = errors.New("pvm: invalid immediate length")
	ErrMaxInstructionSizeExceeded   = errors.New("pvm: max instruction size in bytes exceeded")
	ErrInvalidJumpDestination       = errors.New("pvm: invalid jump destination")
)

// JumpAddressError is the closed set of indirect-jump validation failures
// from spec §4.2 ("Indirect jump validation").
type JumpAddressError uint8

const (
	JumpAddressHalt JumpAddressError = iota
	JumpAddressZero
	JumpAddressOutOfRange
	JumpAddressNotAligned
	JumpAddressNotInBasicBlock
)

func (e JumpAddressError) Error() string {
	switch e {
	case JumpAddressHalt:
		return "pvm: jump address is the halt sentinel"
	case JumpAddressZero:
		return "pvm: jump address is zero"
	case JumpAddressOutOfRange:
		return "pvm: jump address out of jump-table range"
	case JumpAddressNotAligned:
		return "pvm: jump address not aligned to Z_A"
	case JumpAddressNotInBasicBlock:
		return "pvm: jump address does not land on a basic block"
	default:
		return "pvm: invalid jump address"
	}
}
