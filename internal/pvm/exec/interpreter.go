package exec

import (
	"github.com/jamzig/jamnode/internal/pvm"
)

// Run executes ctx to termination, one instruction per step (spec §4.4
// "Dispatch loop"). It never blocks except conceptually at a host-call
// boundary, which here is a synchronous call into the registered handler.
func Run(ctx *Context, user interface{}) Result {
	initialGas := ctx.Gas
	for {
		if ctx.PC == HaltPC {
			return finish(ctx, initialGas, Outcome{Kind: OutcomeHalt})
		}

		instr, err := ctx.Program.InstructionAt(ctx.PC)
		if err != nil {
			return finish(ctx, initialGas, Outcome{Kind: OutcomePanic})
		}

		if !ctx.ChargeGas(instr.Opcode.GasCost()) {
			return finish(ctx, initialGas, Outcome{Kind: OutcomeOutOfGas})
		}

		outcome, terminated, err := step(ctx, instr, user)
		if err != nil {
			if err == ErrPcUnderflow {
				return finish(ctx, initialGas, Outcome{Kind: OutcomePanic})
			}
			if mf, ok := err.(*MemoryAccessFault); ok {
				return finish(ctx, initialGas, Outcome{Kind: OutcomePageFault, Fault: mf.Address})
			}
			return finish(ctx, initialGas, Outcome{Kind: OutcomePanic})
		}
		if terminated {
			return finish(ctx, initialGas, outcome)
		}
	}
}

func finish(ctx *Context, initialGas int64, outcome Outcome) Result {
	used := initialGas - ctx.Gas
	if used < 0 {
		used = 0
	}
	var ret []byte
	if outcome.Kind == OutcomeHalt {
		ret = returnSlice(ctx)
	}
	return Result{Outcome: outcome, GasUsed: uint64(used), Return: ret}
}

// returnSlice implements spec §4.4's "Return value convention": on halt,
// if r7/r8 describe a mapped slice, expose it; otherwise expose empty.
func returnSlice(ctx *Context) []byte {
	addr := uint32(ctx.Regs[7])
	length := uint32(ctx.Regs[8])
	if length == 0 || !ctx.Mem.IsMapped(addr, length) {
		return nil
	}
	b, err := ctx.Mem.ReadSlice(addr, length)
	if err != nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// updatePc implements spec §4.4 step 4: forward offsets wrap, backward
// offsets that underflow pc are fatal.
func updatePc(pc uint32, offset int64) (uint32, error) {
	if offset >= 0 {
		return pc + uint32(offset), nil
	}
	neg := uint32(-offset)
	if neg > pc {
		return 0, ErrPcUnderflow
	}
	return pc - neg, nil
}

// step executes one decoded instruction against ctx, returning the
// termination outcome when execution must stop.
func step(ctx *Context, instr pvm.Instruction, user interface{}) (Outcome, bool, error) {
	args := instr.Args
	advance := func() { ctx.PC = ctx.PC + 1 + uint32(instr.Skip) }

	switch instr.Opcode {
	case pvm.OpTrap:
		return Outcome{Kind: OutcomePanic}, true, nil

	case pvm.OpFallthrough:
		advance()
		return Outcome{}, false, nil

	case pvm.OpEcalli:
		return dispatchHostCall(ctx, uint32(args.Imm[0]), user, advance)

	case pvm.OpJump:
		pc, err := updatePc(ctx.PC, args.Imm[0])
		if err != nil {
			return Outcome{}, false, err
		}
		ctx.PC = pc
		return Outcome{}, false, nil

	case pvm.OpLoadImm:
		ctx.SetReg(args.Reg[0], uint64(args.Imm[0]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpJumpInd:
		target := uint32(ctx.Reg(args.Reg[0]) + uint64(args.Imm[0]))
		return doIndirectJump(ctx, target)

	case pvm.OpBranchEqImm:
		if int64(ctx.Reg(args.Reg[0])) == args.Imm[0] {
			pc, err := updatePc(ctx.PC, args.Imm[1])
			if err != nil {
				return Outcome{}, false, err
			}
			ctx.PC = pc
		} else {
			advance()
		}
		return Outcome{}, false, nil

	case pvm.OpBranchNeImm:
		if int64(ctx.Reg(args.Reg[0])) != args.Imm[0] {
			pc, err := updatePc(ctx.PC, args.Imm[1])
			if err != nil {
				return Outcome{}, false, err
			}
			ctx.PC = pc
		} else {
			advance()
		}
		return Outcome{}, false, nil

	case pvm.OpLoadImm64:
		ctx.SetReg(args.Reg[0], args.Ext)
		advance()
		return Outcome{}, false, nil

	case pvm.OpStoreIndU32:
		addr := uint32(ctx.Reg(args.Reg[0]) + uint64(args.Imm[0]))
		if err := ctx.Mem.WriteInt(addr, uint64(args.Imm[1]), 4); err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		advance()
		return Outcome{}, false, nil

	case pvm.OpAdd:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])+ctx.Reg(args.Reg[2]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpSub:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])-ctx.Reg(args.Reg[2]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpAnd:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])&ctx.Reg(args.Reg[2]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpOr:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])|ctx.Reg(args.Reg[2]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpXor:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])^ctx.Reg(args.Reg[2]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpStoreImmU32:
		addr := uint32(args.Imm[0])
		if err := ctx.Mem.WriteInt(addr, uint64(args.Imm[1]), 4); err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		advance()
		return Outcome{}, false, nil

	case pvm.OpMove:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpNegate:
		ctx.SetReg(args.Reg[0], -ctx.Reg(args.Reg[1]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpAddImm:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])+uint64(args.Imm[0]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpMulImm:
		ctx.SetReg(args.Reg[0], ctx.Reg(args.Reg[1])*uint64(args.Imm[0]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpSetLtUImm:
		if ctx.Reg(args.Reg[1]) < uint64(args.Imm[0]) {
			ctx.SetReg(args.Reg[0], 1)
		} else {
			ctx.SetReg(args.Reg[0], 0)
		}
		advance()
		return Outcome{}, false, nil

	case pvm.OpBranchEq:
		if ctx.Reg(args.Reg[0]) == ctx.Reg(args.Reg[1]) {
			pc, err := updatePc(ctx.PC, args.Imm[0])
			if err != nil {
				return Outcome{}, false, err
			}
			ctx.PC = pc
		} else {
			advance()
		}
		return Outcome{}, false, nil

	case pvm.OpBranchNe:
		if ctx.Reg(args.Reg[0]) != ctx.Reg(args.Reg[1]) {
			pc, err := updatePc(ctx.PC, args.Imm[0])
			if err != nil {
				return Outcome{}, false, err
			}
			ctx.PC = pc
		} else {
			advance()
		}
		return Outcome{}, false, nil

	case pvm.OpBranchLtU:
		if ctx.Reg(args.Reg[0]) < ctx.Reg(args.Reg[1]) {
			pc, err := updatePc(ctx.PC, args.Imm[0])
			if err != nil {
				return Outcome{}, false, err
			}
			ctx.PC = pc
		} else {
			advance()
		}
		return Outcome{}, false, nil

	case pvm.OpLoadImmJumpInd:
		ctx.SetReg(args.Reg[0], uint64(args.Imm[0]))
		target := uint32(ctx.Reg(args.Reg[1]) + uint64(args.Imm[1]))
		return doIndirectJump(ctx, target)

	case pvm.OpLoadU8:
		addr := uint32(ctx.Reg(args.Reg[1]) + uint64(args.Imm[0]))
		b, err := ctx.Mem.ReadSlice(addr, 1)
		if err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		ctx.SetReg(args.Reg[0], uint64(b[0]))
		advance()
		return Outcome{}, false, nil

	case pvm.OpStoreU8:
		addr := uint32(ctx.Reg(args.Reg[1]) + uint64(args.Imm[0]))
		if err := ctx.Mem.WriteSlice(addr, []byte{byte(ctx.Reg(args.Reg[0]))}); err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		advance()
		return Outcome{}, false, nil

	case pvm.OpLoadU32:
		addr := uint32(ctx.Reg(args.Reg[1]) + uint64(args.Imm[0]))
		v, err := ctx.Mem.ReadInt(addr, 4)
		if err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		ctx.SetReg(args.Reg[0], v)
		advance()
		return Outcome{}, false, nil

	case pvm.OpStoreU32:
		addr := uint32(ctx.Reg(args.Reg[1]) + uint64(args.Imm[0]))
		if err := ctx.Mem.WriteInt(addr, ctx.Reg(args.Reg[0]), 4); err != nil {
			return Outcome{Kind: OutcomePageFault, Fault: addr}, true, nil
		}
		advance()
		return Outcome{}, false, nil
	}

	return Outcome{Kind: OutcomePanic}, true, nil
}

// doIndirectJump validates target against the program's jump table and
// either lands on the resolved basic block or terminates per the
// JumpAddressError taxonomy (spec §4.2 "Indirect jump validation").
func doIndirectJump(ctx *Context, target uint32) (Outcome, bool, error) {
	dest, err := ctx.Program.ValidateJumpAddress(target)
	if err != nil {
		if err == pvm.JumpAddressHalt {
			ctx.PC = HaltPC
			return Outcome{}, false, nil
		}
		return Outcome{Kind: OutcomePanic}, true, nil
	}
	ctx.PC = dest
	return Outcome{}, false, nil
}

// dispatchHostCall looks up id in the host-call table and invokes it,
// translating its verdict into either resumed execution or a termination
// outcome (spec §4.4 "Host-call trampoline").
func dispatchHostCall(ctx *Context, id uint32, user interface{}, advance func()) (Outcome, bool, error) {
	handler, ok := ctx.HostCalls[id]
	if !ok {
		return Outcome{Kind: OutcomeHostError, Fault: id}, true, nil
	}
	result, err := handler(ctx, user)
	if err != nil {
		if mf, ok := err.(*MemoryAccessFault); ok {
			return Outcome{Kind: OutcomePageFault, Fault: mf.Address}, true, nil
		}
		return Outcome{Kind: OutcomeHostError, Fault: id}, true, nil
	}
	if ctx.Gas < 0 {
		ctx.Gas = 0
	}
	switch result.Outcome {
	case HostCallPlay:
		advance()
		return Outcome{}, false, nil
	case HostCallTerminal:
		return Outcome{Kind: OutcomeHostError, Fault: id}, true, nil
	}
	return Outcome{Kind: OutcomePanic}, true, nil
}
