// Package liveinterval provides the optional live-interval oracle the
// tracker consults in its "interval" variant. A real compiler would compute
// this with a full dataflow pass over the whole function; this package only
// needs per-virtual-register start/end slots within a single block, since
// that is all the tracker ever queries.
//
// The interval bookkeeping here (start/end per value, extended as each use
// or def is seen) is adapted from the teacher's JIT linear-scan allocator
// (internal/jit/regalloc.go's LiveInterval.Extend), generalized from
// allocator-only overlap checks to slot-indexed kill queries.
package liveinterval

import "github.com/tangzhangming/regpressure/internal/mir"

// Slot is a totally ordered position within the instruction stream, used by
// the interval oracle. The tracker's interval variant uses instruction
// ordinals (Cursor.Index) doubled so "before instruction i" and "after
// instruction i" are distinguishable slots, matching how a real
// SlotIndexes pass reserves room for sub-instruction events.
type Slot int

// RegSlot returns the canonical slot of instruction index i itself (as
// opposed to the gaps between instructions).
func RegSlot(instrIndex int) Slot {
	return Slot(instrIndex * 2)
}

// Interval is one virtual register's live range within a block: [Start,
// End], both RegSlot-aligned. KilledAt reports whether slot is this
// interval's last use or its def (i.e. the slot after which the register is
// no longer live).
type Interval struct {
	Start, End Slot
}

// KilledAt reports whether the interval's live range ends at slot.
func (iv Interval) KilledAt(slot Slot) bool {
	return iv.End == slot
}

// Oracle is the interface the tracker's interval variant requires.
type Oracle interface {
	// InstructionIndex maps a cursor position to its canonical slot.
	InstructionIndex(instrIndex int) Slot
	// MBBEndIndex returns the slot just past the block's last instruction.
	MBBEndIndex(numInstrs int) Slot
	// Interval returns the live interval of a virtual register. Calling it
	// for a register with no interval (never defined or used in the block)
	// is a programmer error, like the rest of this tracker's invariants.
	Interval(virt mir.RegisterID) Interval
	// LiveAcross returns every virtual register whose interval strictly
	// spans slot (Start < slot < End), with no local operand at slot as
	// evidence. A region-variant tracker cannot answer this question at
	// all, since it only ever sees the operands of the instructions it
	// scans; a value live across an entire window it opens and closes on
	// the same step is invisible to it. The interval variant can answer it
	// because it holds the whole block's intervals up front.
	LiveAcross(slot Slot) []mir.RegisterID
}

// SliceOracle is a simple Oracle computed by one forward scan of a block:
// for every virtual register operand seen, extend its interval to cover
// that instruction.
type SliceOracle struct {
	intervals map[mir.RegisterID]Interval
}

// Compute scans block once, forward, and returns the interval oracle for
// all virtual registers it mentions.
func Compute(block *mir.Block) *SliceOracle {
	o := &SliceOracle{intervals: make(map[mir.RegisterID]Interval)}
	for i, instr := range block.Instrs {
		if instr.Debug {
			continue
		}
		slot := RegSlot(i)
		for _, op := range instr.Ops {
			if op.Reg == 0 || !op.Reg.IsVirtual() {
				continue
			}
			iv, ok := o.intervals[op.Reg]
			if !ok {
				iv = Interval{Start: slot, End: slot}
			}
			if slot < iv.Start {
				iv.Start = slot
			}
			if slot > iv.End {
				iv.End = slot
			}
			o.intervals[op.Reg] = iv
		}
	}
	return o
}

func (o *SliceOracle) InstructionIndex(instrIndex int) Slot {
	return RegSlot(instrIndex)
}

func (o *SliceOracle) MBBEndIndex(numInstrs int) Slot {
	return RegSlot(numInstrs)
}

func (o *SliceOracle) Interval(virt mir.RegisterID) Interval {
	return o.intervals[virt]
}

func (o *SliceOracle) LiveAcross(slot Slot) []mir.RegisterID {
	var out []mir.RegisterID
	for reg, iv := range o.intervals {
		if iv.Start < slot && iv.End > slot {
			out = append(out, reg)
		}
	}
	return out
}
