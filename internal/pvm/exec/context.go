// Package exec implements the PVM execution core: instruction dispatch,
// the register file, gas accounting, PC update, and the host-call
// trampoline (spec §4.4 Execution Core).
package exec

import (
	"github.com/jamzig/jamnode/internal/pvm"
	"github.com/jamzig/jamnode/internal/pvm/memory"
)

// NumRegisters is the register file's fixed width (spec §3
// ExecutionContext: "register file [13] u64").
const NumRegisters = 13

// HaltPC is the program-counter sentinel signalling normal termination.
const HaltPC = pvm.HaltPC

// ErrorDataKind tags which half of ExecutionContext.ErrorData is live.
type ErrorDataKind uint8

const (
	ErrorDataNone ErrorDataKind = iota
	ErrorDataPageFault
	ErrorDataHostCall
)

// ErrorData records the pending fault or host-call id that produced a
// non-halt termination (spec §3 ExecutionContext "error_data").
type ErrorData struct {
	Kind  ErrorDataKind
	Value uint32
}

// HostCallOutcome is HostCallResult's tag (spec §6 "HostCallResult ∈
// {play, terminal(exception)}").
type HostCallOutcome uint8

const (
	HostCallPlay HostCallOutcome = iota
	HostCallTerminal
)

// HostCallResult is a host-call handler's control-flow verdict.
type HostCallResult struct {
	Outcome   HostCallOutcome
	Exception error // populated when Outcome == HostCallTerminal
}

// HostCall is a handler bound to a host-call id (spec §6 "Host-call
// boundary"). user is an opaque caller-supplied context the handler may
// use however it likes; the VM never inspects it.
type HostCall func(ctx *Context, user interface{}) (HostCallResult, error)

// HostCallTable is the immutable mapping consulted by the trampoline.
type HostCallTable map[uint32]HostCall

// Context is the PVM's per-invocation execution state (spec §3
// ExecutionContext).
type Context struct {
	Program   *pvm.Program
	Regs      [NumRegisters]uint64
	Mem       *memory.Memory
	HostCalls HostCallTable
	Gas       int64
	PC        uint32
	ErrorData ErrorData
}

// NewContext builds a Context with the initial register convention from
// spec §3: r0 = HALT_PC, r1 = stackBase, r7 = inputAddress,
// r8 = inputLength, all others zero.
func NewContext(prog *pvm.Program, mem *memory.Memory, hostCalls HostCallTable, gas int64, startPC, stackBase, inputAddress, inputLength uint32) *Context {
	c := &Context{
		Program:   prog,
		Mem:       mem,
		HostCalls: hostCalls,
		Gas:       gas,
		PC:        startPC,
	}
	c.Regs[0] = uint64(HaltPC)
	c.Regs[1] = uint64(stackBase)
	c.Regs[7] = uint64(inputAddress)
	c.Regs[8] = uint64(inputLength)
	return c
}

// Reg returns register i's value. i is expected to already be clamped to
// [0, 12] by the decoder (spec §9 Design Notes, clamp-vs-fault).
func (c *Context) Reg(i uint8) uint64 { return c.Regs[i] }

// SetReg sets register i's value.
func (c *Context) SetReg(i uint8, v uint64) { c.Regs[i] = v }

// ChargeGas deducts cost from the gas counter and reports whether
// execution may continue (spec §4.4 step 2: "gas < 0 ⇒ out_of_gas").
func (c *Context) ChargeGas(cost int64) bool {
	c.Gas -= cost
	return c.Gas >= 0
}

// ReadMemory reads size bytes at addr, translating a PageFault into the
// host-call-facing MemoryAccessFault (spec §4.4 "readMemory wrapper").
func (c *Context) ReadMemory(addr uint32, size uint32) ([]byte, error) {
	b, err := c.Mem.ReadSlice(addr, size)
	if err != nil {
		return nil, &MemoryAccessFault{Address: addr}
	}
	return b, nil
}

// WriteMemory writes data at addr, translating a PageFault into
// MemoryAccessFault.
func (c *Context) WriteMemory(addr uint32, data []byte) error {
	if err := c.Mem.WriteSlice(addr, data); err != nil {
		return &MemoryAccessFault{Address: addr}
	}
	return nil
}

// ReadHash reads a 32-byte hash at addr, per the host-call boundary's
// readHash wrapper (spec §6).
func (c *Context) ReadHash(addr uint32) ([32]byte, error) {
	var h [32]byte
	b, err := c.ReadMemory(addr, 32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}
