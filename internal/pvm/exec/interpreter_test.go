package exec

import (
	"testing"

	"github.com/jamzig/jamnode/internal/pvm"
	"github.com/jamzig/jamnode/internal/pvm/memory"
)

func TestRunHaltsImmediatelyOnEntry(t *testing.T) {
	// Scenario 6 (spec §8): pc = HALT_PC on entry -> halt, gas_used = 0,
	// empty return slice.
	ctx := &Context{PC: HaltPC, Gas: 1000}
	res := Run(ctx, nil)
	if res.Outcome.Kind != OutcomeHalt {
		t.Fatalf("Outcome = %v, want halt", res.Outcome.Kind)
	}
	if res.GasUsed != 0 {
		t.Errorf("GasUsed = %d, want 0", res.GasUsed)
	}
	if len(res.Return) != 0 {
		t.Errorf("Return = %v, want empty", res.Return)
	}
}

func addThenTrapProgram(t *testing.T) *pvm.Program {
	t.Helper()
	blob := []byte{
		0x00, 0x00, 0x04, // |jt|=0, jt_item_len=0, |code|=4
		0x0A, 0x02, 0x01, 0x00, // add r2,r0,r1 ; trap
		0x09, // mask: bits 0 and 3 set
	}
	prog, err := pvm.Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return prog
}

func TestRunExecutesAddThenTraps(t *testing.T) {
	prog := addThenTrapProgram(t)
	ctx := &Context{Program: prog, Mem: memory.New(0, nil), Gas: 1000}
	ctx.Regs[0] = 5
	ctx.Regs[1] = 7

	res := Run(ctx, nil)
	if res.Outcome.Kind != OutcomePanic {
		t.Fatalf("Outcome = %v, want panic (trap)", res.Outcome.Kind)
	}
	if ctx.Regs[2] != 12 {
		t.Errorf("r2 = %d, want 12", ctx.Regs[2])
	}
	if res.GasUsed != 2 {
		t.Errorf("GasUsed = %d, want 2 (add + trap)", res.GasUsed)
	}
}

func TestRunOutOfGas(t *testing.T) {
	prog := addThenTrapProgram(t)
	ctx := &Context{Program: prog, Mem: memory.New(0, nil), Gas: 0}

	res := Run(ctx, nil)
	if res.Outcome.Kind != OutcomeOutOfGas {
		t.Fatalf("Outcome = %v, want out_of_gas", res.Outcome.Kind)
	}
}

func TestUpdatePcUnderflowIsFatal(t *testing.T) {
	if _, err := updatePc(0, -1); err != ErrPcUnderflow {
		t.Errorf("updatePc(0,-1) error = %v, want ErrPcUnderflow", err)
	}
	got, err := updatePc(5, -5)
	if err != nil {
		t.Fatalf("updatePc(5,-5): %v", err)
	}
	if got != 0 {
		t.Errorf("updatePc(5,-5) = %d, want 0", got)
	}
}

func TestDoIndirectJumpHaltSentinel(t *testing.T) {
	// basic blocks 0,10,20; jump_table=[10,20]; Z_A=2.
	code := make([]byte, 21)
	code[0] = byte(pvm.OpTrap)
	code[10] = byte(pvm.OpTrap)
	code[20] = byte(pvm.OpTrap)
	blob := buildProgramBlob(t, code, []uint{0, 10, 20}, []uint32{10, 20})
	prog, err := pvm.Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ctx := &Context{Program: prog, Mem: memory.New(0, nil), Gas: 1000}
	outcome, terminated, err := doIndirectJump(ctx, pvm.HaltPC)
	if err != nil {
		t.Fatalf("doIndirectJump: %v", err)
	}
	if terminated {
		t.Fatal("doIndirectJump(HaltPC) should resume, not terminate")
	}
	if ctx.PC != pvm.HaltPC {
		t.Errorf("PC = %#x, want HaltPC", ctx.PC)
	}
	_ = outcome
}

// buildProgramBlob assembles a raw program blob from pre-built code, a set
// of instruction-start offsets, and a jump table, matching the framing
// pvm.Decode expects.
func buildProgramBlob(t *testing.T, code []byte, starts []uint, jumpTable []uint32) []byte {
	t.Helper()
	maskLen := (len(code) + 7) / 8
	mask := make([]byte, maskLen)
	for _, s := range starts {
		mask[s/8] |= 1 << (s % 8)
	}
	blob := []byte{byte(len(jumpTable)), 4}
	blob = append(blob, byte(len(code)))
	for _, dest := range jumpTable {
		blob = append(blob, byte(dest), byte(dest>>8), byte(dest>>16), byte(dest>>24))
	}
	blob = append(blob, code...)
	blob = append(blob, mask...)
	return blob
}
