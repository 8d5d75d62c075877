package pressure

import (
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

// OperandSet holds one instruction's unique register operands of a single
// kind (physical or virtual), split by how they participate: reads, live
// (non-dead) writes, and dead writes. Each slice is duplicate-free -- by
// identity for virtual registers, by alias for physical ones.
type OperandSet struct {
	Uses     []mir.RegisterID
	Kills    []mir.RegisterID
	LiveDefs []mir.RegisterID
	DeadDefs []mir.RegisterID
}

// classified is the result of classifying one instruction's operands.
type classified struct {
	Phys OperandSet
	Virt OperandSet
}

// classify splits one instruction's operands by kind and role: skip
// non-register and zero-register operands; route virtual registers to Virt
// unconditionally and physical registers to Phys only when the
// register-class-info oracle deems them allocatable; then prune physical
// dead defs that alias a live def of the same instruction (an operand that
// is simultaneously a dead def of one sub-register and feeds a live def of
// an overlapping one, which the dead-def bump must not double count).
func classify(instr *mir.Instruction, ti regclass.TargetInfo, aci regclass.AllocatableInfo) classified {
	var c classified
	for _, op := range instr.Ops {
		if op.Reg == 0 {
			continue
		}
		isVirt := ti.IsVirtual(op.Reg)
		if isVirt {
			collectOperand(&c.Virt, op, ti, true)
			continue
		}
		if !aci.IsAllocatable(op.Reg) {
			continue
		}
		collectOperand(&c.Phys, op, ti, false)
	}
	prunePhysDeadDefs(&c.Phys, ti)
	return c
}

// collectOperand pushes op's register onto the correct slot of set,
// skipping it if an equal (virtual) or aliasing (physical) entry is already
// present.
func collectOperand(set *OperandSet, op mir.Operand, ti regclass.TargetInfo, isVirt bool) {
	if op.Reads {
		if findReg(set.Uses, op.Reg, ti, isVirt) < 0 {
			set.Uses = append(set.Uses, op.Reg)
		}
		// A read-modify-write operand (Reads && IsDef) always ends the
		// incoming value's life at this instruction -- the write that
		// follows it in the same operand has nowhere else to go -- so it
		// is a kill here even without an explicit Kill flag.
		if (op.Kill || op.IsDef) && findReg(set.Kills, op.Reg, ti, isVirt) < 0 {
			set.Kills = append(set.Kills, op.Reg)
		}
	}
	if !op.IsDef {
		return
	}
	if op.Dead {
		if findReg(set.DeadDefs, op.Reg, ti, isVirt) < 0 {
			set.DeadDefs = append(set.DeadDefs, op.Reg)
		}
		return
	}
	if findReg(set.LiveDefs, op.Reg, ti, isVirt) < 0 {
		set.LiveDefs = append(set.LiveDefs, op.Reg)
	}
}

// prunePhysDeadDefs removes any dead def that aliases a live def collected
// from the same instruction, in place.
func prunePhysDeadDefs(phys *OperandSet, ti regclass.TargetInfo) {
	kept := phys.DeadDefs[:0]
	for _, dd := range phys.DeadDefs {
		if findAlias(phys.LiveDefs, dd, ti) >= 0 {
			continue
		}
		kept = append(kept, dd)
	}
	phys.DeadDefs = kept
}
