package pvm

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
)

// buildMaskedProgram is a test helper that assembles a Program directly
// from a code array and the set of instruction-start offsets, bypassing
// Decode's blob framing so tests can target Skip/basic-block logic in
// isolation.
func buildMaskedProgram(t *testing.T, code []byte, starts []uint, jumpTable []uint32) *Program {
	t.Helper()
	mask := bitset.New(uint(len(code)))
	for _, s := range starts {
		mask.Set(s)
	}
	blocks, err := discoverBasicBlocks(code, mask)
	if err != nil {
		t.Fatalf("discoverBasicBlocks: %v", err)
	}
	return &Program{Code: code, Mask: mask, JumpTable: jumpTable, BasicBlocks: blocks}
}

func TestSkipAcrossBoundary(t *testing.T) {
	// trap(0) ; add r0,r0,r0 at offset 1, 2-byte args, next instr at 4.
	code := []byte{byte(OpTrap), byte(OpAdd), 0x00, 0x00, byte(OpTrap)}
	starts := []uint{0, 1, 4}
	p := buildMaskedProgram(t, code, starts, nil)

	if got := p.Skip(0); got != 0 {
		t.Errorf("Skip(0) = %d, want 0", got)
	}
	if got := p.Skip(1); got != 2 {
		t.Errorf("Skip(1) = %d, want 2", got)
	}
}

// TestSkipLiteralBoundaryScenario encodes the literal mask bytes from the
// "skip_l across boundary" scenario (mask = [0b00000000, 0b00000001]),
// which sets a single bit at global code position 8. Skip(pc) returns the
// argument-byte count (zero bits strictly after pc up to the next set
// bit), so skip_l — the scenario's total instruction length, opcode byte
// included — is 1 + Skip(pc): skip_l(0) = 1+7 = 8, skip_l(4) = 1+3 = 4,
// matching the scenario's 8 and 4 exactly.
func TestSkipLiteralBoundaryScenario(t *testing.T) {
	mask := bitset.New(16)
	mask.Set(8) // byte[0]=0b00000000, byte[1]=0b00000001 -> global bit 8
	p := &Program{Code: make([]byte, 16), Mask: mask}

	if got := p.Skip(0); got != 7 {
		t.Errorf("Skip(0) = %d, want 7 (skip_l = %d, want 8)", got, got+1)
	}
	if got := p.Skip(4); got != 3 {
		t.Errorf("Skip(4) = %d, want 3 (skip_l = %d, want 4)", got, got+1)
	}
}

func TestBasicBlockDiscoveryIncludesFallthrough(t *testing.T) {
	// trap at 0 (terminator, no args) -> block start at 1.
	// jump at 1 with a 2-byte offset arg (terminator) -> block start at 4.
	code := []byte{byte(OpTrap), byte(OpJump), 0x00, 0x00, byte(OpTrap)}
	starts := []uint{0, 1, 4}
	p := buildMaskedProgram(t, code, starts, nil)

	want := []uint32{0, 1, 4}
	if len(p.BasicBlocks) != len(want) {
		t.Fatalf("BasicBlocks = %v, want %v", p.BasicBlocks, want)
	}
	for i, w := range want {
		if p.BasicBlocks[i] != w {
			t.Errorf("BasicBlocks[%d] = %d, want %d", i, p.BasicBlocks[i], w)
		}
	}
}

func TestValidateJumpAddress(t *testing.T) {
	// basic blocks at 0, 10, 20; jump_table = [10, 20].
	code := make([]byte, 21)
	code[0] = byte(OpTrap)
	code[10] = byte(OpTrap)
	code[20] = byte(OpTrap)
	starts := []uint{0, 10, 20}
	p := buildMaskedProgram(t, code, starts, []uint32{10, 20})

	cases := []struct {
		addr    uint32
		want    uint32
		wantErr error
	}{
		{2, 10, nil},
		{4, 20, nil},
		{1, 0, JumpAddressNotAligned},
		{6, 0, JumpAddressOutOfRange},
		{0, 0, JumpAddressZero},
		{HaltPC, 0, JumpAddressHalt},
	}
	for _, tt := range cases {
		got, err := p.ValidateJumpAddress(tt.addr)
		if err != tt.wantErr {
			t.Errorf("ValidateJumpAddress(%d) error = %v, want %v", tt.addr, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ValidateJumpAddress(%d) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestDecodeRejectsShortBlob(t *testing.T) {
	if _, err := Decode([]byte{0x00}); err == nil {
		t.Error("Decode on truncated blob: want error, got nil")
	}
}

func TestDecodeRoundTripsMinimalProgram(t *testing.T) {
	// |jt| = 0, jt_item_len = 0 (allowed since |jt|==0), |code| = 1,
	// code = [trap], mask = 1 byte with bit 0 set.
	blob := []byte{
		0x00,             // E_nat(0) -- |jt|
		0x00,             // jt_item_len
		0x01,             // E_nat(1) -- |code|
		byte(OpTrap),     // code
		0x01,             // mask: bit0 set
	}
	prog, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(prog.Code) != 1 || prog.Code[0] != byte(OpTrap) {
		t.Errorf("Code = %v, want [trap]", prog.Code)
	}
	if len(prog.JumpTable) != 0 {
		t.Errorf("JumpTable = %v, want empty", prog.JumpTable)
	}
	if len(prog.BasicBlocks) != 1 || prog.BasicBlocks[0] != 0 {
		t.Errorf("BasicBlocks = %v, want [0]", prog.BasicBlocks)
	}
}

func TestDecodeRejectsBadJumpTableItemLength(t *testing.T) {
	blob := []byte{
		0x01, // |jt| = 1
		0x05, // jt_item_len = 5, invalid
		0x01,
		byte(OpTrap),
		0x01,
	}
	if _, err := Decode(blob); err != ErrInvalidJumpTableItemLength {
		t.Errorf("Decode error = %v, want ErrInvalidJumpTableItemLength", err)
	}
}
