package pressure

import (
	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

// Tracker scans a single block in either direction, maintaining current
// register pressure and the high-water mark (Result.MaxPressure) reached so
// far, plus the live-in/live-out register sets at whichever boundaries have
// been closed. A Tracker is not safe for concurrent use; separate goroutines
// tracking disjoint regions must each own their own Tracker.
type Tracker struct {
	ti  regclass.TargetInfo
	mri regclass.MachineRegInfo
	aci regclass.AllocatableInfo

	oracle           liveinterval.Oracle
	requireIntervals bool

	block  *mir.Block
	cursor *mir.Cursor

	curr Vector
	live *liveState

	result *Result
}

// NewTracker builds a tracker over block. variant selects the boundary
// representation; VariantInterval panics if oracle is nil, since every
// boundary-closing operation in that variant needs it to translate cursor
// positions to slots.
func NewTracker(ti regclass.TargetInfo, mri regclass.MachineRegInfo, aci regclass.AllocatableInfo, block *mir.Block, variant Variant, oracle liveinterval.Oracle) *Tracker {
	requireIntervals := variant == VariantInterval
	if requireIntervals && oracle == nil {
		panic("pressure: interval variant requires a live-interval oracle")
	}
	t := &Tracker{
		ti:               ti,
		mri:              mri,
		aci:              aci,
		oracle:           oracle,
		requireIntervals: requireIntervals,
		block:            block,
		live:             newLiveState(ti.NumRegs(), mri.NumVirtRegs()),
	}
	t.Init(0)
	return t
}

// Init (re)positions the tracker at cursor index pos, with zero current
// pressure, an empty live set, and a fresh Result: pos starts out as an
// unclosed boundary on both ends with nothing yet known to cross it.
func (t *Tracker) Init(pos int) {
	t.cursor = mir.NewCursor(t.block, pos)
	t.curr = newVector(t.ti.NumPressureSets())
	t.live.reset(t.ti.NumRegs(), t.mri.NumVirtRegs())
	t.result = newResult(t.resultVariant(), t.ti.NumPressureSets())
}

func (t *Tracker) resultVariant() Variant {
	if t.requireIntervals {
		return VariantInterval
	}
	return VariantRegion
}

// Recede processes the instruction immediately above the cursor and steps
// onto it, moving the scan one instruction toward the top of the block. It
// returns false, having closed the region, once there is nothing left above
// to process: either the cursor already sat at the block's first
// instruction, or stepping back landed on a debug value at the block start
// (which terminates the scan rather than being skipped past, unlike the
// forward direction).
func (t *Tracker) Recede() bool {
	if t.cursor.AtBegin() {
		t.CloseRegion()
		return false
	}

	if !t.requireIntervals && !t.result.IsTopClosed() {
		t.result.openTopRegion(t.cursor.Index())
	}

	for {
		t.cursor.StepBackward()
		if t.cursor.AtBegin() || !t.cursor.IsDebugValue() {
			break
		}
	}

	if t.cursor.IsDebugValue() {
		t.CloseRegion()
		return false
	}

	if t.requireIntervals && !t.result.IsTopClosed() {
		t.result.openTopInterval(t.oracle.InstructionIndex(t.cursor.Index()))
	}

	c := classify(t.cursor.Current(), t.ti, t.aci)

	for _, reg := range c.Phys.DeadDefs {
		t.bumpDeadDefPhys(reg)
	}
	for _, reg := range c.Virt.DeadDefs {
		t.bumpDeadDefVirt(reg)
	}

	// This instruction's live defs are killed before its uses are
	// discovered. A def not already live above this point has never been
	// seen below it either, so it escapes the scanned region as a live-out;
	// a read-modify-write operand (Reads && IsDef on the same register)
	// then has its def killed first -- finding nothing live, recording the
	// live-out -- and its use discovered second, re-inserting the register
	// so it is correctly live above the instruction for the value the
	// read-modify-write consumed. Killing the use first instead would let
	// the use's insert mask the def's kill, leaving the register dead above
	// an instruction that actually reads it.
	for _, reg := range c.Phys.LiveDefs {
		t.recedeDefPhys(reg)
	}
	for _, reg := range c.Virt.LiveDefs {
		t.recedeDefVirt(reg)
	}

	slot, hasSlot := t.recedeUseSlot()
	for _, reg := range c.Phys.Uses {
		t.recedeUsePhys(reg)
	}
	for _, reg := range c.Virt.Uses {
		t.recedeUseVirt(reg, slot, hasSlot)
	}

	return true
}

// recedeUseSlot returns the interval-variant slot to consult for this
// instruction's uses, if the tracker has an oracle.
func (t *Tracker) recedeUseSlot() (liveinterval.Slot, bool) {
	if !t.requireIntervals {
		return 0, false
	}
	return t.oracle.InstructionIndex(t.cursor.Index()), true
}

// Advance processes the instruction at the cursor and steps past it, moving
// the scan one instruction toward the bottom of the block. Debug values are
// skipped transparently in this direction. It returns false, having closed
// the region, once the cursor reaches the end of the block.
func (t *Tracker) Advance() bool {
	if t.cursor.AtEnd() {
		t.CloseRegion()
		return false
	}

	if !t.requireIntervals && !t.result.IsBottomClosed() {
		t.result.openBottomRegion(t.cursor.Index())
	}

	t.cursor.SkipDebugForward()
	if t.cursor.AtEnd() {
		t.CloseRegion()
		return false
	}

	if t.requireIntervals && !t.result.IsBottomClosed() {
		t.result.openBottomInterval(t.oracle.InstructionIndex(t.cursor.Index()))
	}

	c := classify(t.cursor.Current(), t.ti, t.aci)

	// Mirrors Recede: this instruction's uses are processed, and retired or
	// discovered as live-in, before its own defs are born. A read-modify-
	// write operand's use is therefore seen while the register is still
	// live from below, retiring the old value's range; its def then finds
	// the register free and starts the new value's range. Processing defs
	// first would instead let the def's insert mask the use's retirement,
	// leaving the register spuriously live below an instruction that
	// actually kills it.
	slot, hasSlot := t.advanceUseSlot()
	for _, reg := range c.Phys.Uses {
		t.advanceUsePhys(reg)
	}
	for _, reg := range c.Virt.Uses {
		isKillOperand := findReg(c.Virt.Kills, reg, t.ti, true) >= 0
		redefined := findReg(c.Virt.LiveDefs, reg, t.ti, true) >= 0
		t.advanceUseVirt(reg, slot, hasSlot, isKillOperand, redefined)
	}

	for _, reg := range c.Phys.LiveDefs {
		t.bornDefPhys(reg)
	}
	for _, reg := range c.Virt.LiveDefs {
		t.bornDefVirt(reg)
	}

	for _, reg := range c.Phys.DeadDefs {
		t.bumpDeadDefPhys(reg)
	}
	for _, reg := range c.Virt.DeadDefs {
		t.bumpDeadDefVirt(reg)
	}

	t.cursor.StepForward()
	return true
}

// advanceUseSlot returns the interval-variant slot to consult for this
// instruction's uses, if the tracker has an oracle.
func (t *Tracker) advanceUseSlot() (liveinterval.Slot, bool) {
	if !t.requireIntervals {
		return 0, false
	}
	return t.oracle.InstructionIndex(t.cursor.Index()), true
}

// bumpDeadDefPhys and bumpDeadDefVirt apply the dead-def bump: a write that
// is never read still raises the high-water mark, but nets zero against
// current pressure. The increase must be applied before the decrease so the
// mark actually reflects the momentary presence of the value.
func (t *Tracker) bumpDeadDefPhys(reg mir.RegisterID) {
	rc := t.ti.MinimalPhysClass(reg)
	increase(t.curr, t.result.MaxPressure, rc, t.ti)
	decrease(t.curr, rc, t.ti)
}

func (t *Tracker) bumpDeadDefVirt(reg mir.RegisterID) {
	rc := t.mri.ClassOf(reg)
	increase(t.curr, t.result.MaxPressure, rc, t.ti)
	decrease(t.curr, rc, t.ti)
}

// retireLivePhys and retireLiveVirt erase a register from the live set and
// release its weight, reporting whether it was actually present. Shared by
// Recede's def-processing (a live def retires the value coming from below)
// and Advance's use-processing (a killed use retires the value it read).
func (t *Tracker) retireLivePhys(reg mir.RegisterID) bool {
	for _, alias := range t.ti.Overlaps(reg) {
		if t.live.erasePhys(alias) {
			decrease(t.curr, t.ti.MinimalPhysClass(reg), t.ti)
			return true
		}
	}
	return false
}

func (t *Tracker) retireLiveVirt(reg mir.RegisterID) bool {
	if !t.live.eraseVirt(reg) {
		return false
	}
	decrease(t.curr, t.mri.ClassOf(reg), t.ti)
	return true
}

// recedeDefPhys and recedeDefVirt process a live def encountered while
// receding: if the register is already live (a value produced further
// down the block), that value's range ends here. If it is not already
// live, nothing below this point ever read it -- the def escapes the
// scanned region, so it is recorded as a live-out and its weight credited
// to the high-water mark directly, without entering the live set (a def
// kills liveness going backward; it must not also start it).
func (t *Tracker) recedeDefPhys(reg mir.RegisterID) {
	if t.retireLivePhys(reg) {
		return
	}
	if t.result.discoverLiveOut(reg, t.ti, false) {
		directIncrease(t.result.MaxPressure, t.ti.MinimalPhysClass(reg), t.ti)
	}
}

func (t *Tracker) recedeDefVirt(reg mir.RegisterID) {
	if t.retireLiveVirt(reg) {
		return
	}
	if t.result.discoverLiveOut(reg, t.ti, true) {
		directIncrease(t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
	}
}

// recedeUsePhys records a physical register as live the first time recede
// encounters a read of it, since nothing below this point in the scan
// proved it was already accounted for.
func (t *Tracker) recedeUsePhys(reg mir.RegisterID) {
	if overlapsSet(reg, t.live.phys, t.ti) {
		return
	}
	t.live.insertPhys(reg)
	increase(t.curr, t.result.MaxPressure, t.ti.MinimalPhysClass(reg), t.ti)
}

// recedeUseVirt records a virtual register as live on its first read seen
// receding. When an interval oracle is available and the interval is not
// killed at slot, this read is not the value's final use going forward --
// the value is still read below the scanned region, so it is also
// recorded as a live-out of this region (crediting the high-water mark)
// rather than assumed to end here.
func (t *Tracker) recedeUseVirt(reg mir.RegisterID, slot liveinterval.Slot, hasSlot bool) {
	if t.live.containsVirt(reg) {
		return
	}
	if hasSlot && !t.oracle.Interval(reg).KilledAt(slot) {
		if t.result.discoverLiveOut(reg, t.ti, true) {
			directIncrease(t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
		}
	}
	t.live.insertVirt(reg)
	increase(t.curr, t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
}

// bornDefPhys and bornDefVirt record a register as live the moment advance
// passes its def. By the time either runs, advanceUsePhys/advanceUseVirt
// has already retired any incoming value sharing the same register (an
// ordinary kill, or a read-modify-write operand's implicit one), so a def
// finding its own register still live is a genuine invariant breach (two
// defs of the same value with no intervening kill) and panics. bornDefVirt
// leaves that panic to the underlying insert; bornDefPhys checks aliases
// first, since the insert alone only catches an exact duplicate.
func (t *Tracker) bornDefPhys(reg mir.RegisterID) {
	if overlapsSet(reg, t.live.phys, t.ti) {
		panic("pressure: physical register already live")
	}
	t.live.insertPhys(reg)
	increase(t.curr, t.result.MaxPressure, t.ti.MinimalPhysClass(reg), t.ti)
}

func (t *Tracker) bornDefVirt(reg mir.RegisterID) {
	t.live.insertVirt(reg)
	increase(t.curr, t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
}

// advanceUsePhys processes a physical use going forward: allocatable
// physregs are single-use before allocation, so a use that is not already
// live did not come from a def above it in this scan -- it escapes the top
// of the region as a live-in. A use that is live retires it, mirroring
// recedeDefPhys for the forward direction.
func (t *Tracker) advanceUsePhys(reg mir.RegisterID) {
	if t.retireLivePhys(reg) {
		return
	}
	if t.result.discoverLiveIn(reg, t.ti, false) {
		directIncrease(t.result.MaxPressure, t.ti.MinimalPhysClass(reg), t.ti)
	}
}

// advanceUseVirt processes a virtual use going forward. With an interval
// oracle, retirement is driven by the oracle's own kill slot rather than the
// operand's static Kill flag -- this is the interval variant's whole reason
// to exist, so its retirement timing must come from the oracle, not from
// the same heuristic the region variant uses; the one exception is a
// register this same instruction also defines (redefined), whose incoming
// value always ends here. Without an oracle, retirement falls back to the
// operand's Kill flag, the region variant's only signal.
func (t *Tracker) advanceUseVirt(reg mir.RegisterID, slot liveinterval.Slot, hasSlot bool, isKillOperand bool, redefined bool) {
	killedNow := isKillOperand
	if hasSlot {
		killedNow = t.oracle.Interval(reg).KilledAt(slot) || redefined
	}

	if t.live.containsVirt(reg) {
		if killedNow {
			t.retireLiveVirt(reg)
		}
		return
	}

	// Not already live: this value crossed the top of the scanned region
	// without its def ever being seen, so it is a live-in discovery
	// regardless of whether it also dies at this very slot. A
	// read-modify-write operand (classified a kill above) dies at the same
	// point it is discovered at and skips the live insert below -- its
	// following def starts the new value's range from scratch rather than
	// colliding with a still-live entry for the same register.
	if t.result.discoverLiveIn(reg, t.ti, true) {
		directIncrease(t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
	}
	if killedNow {
		return
	}
	t.live.insertVirt(reg)
	increase(t.curr, t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
}

// currentSlot returns the interval-variant slot at the cursor's current
// position, using the block's end slot when the cursor sits past the last
// instruction.
func (t *Tracker) currentSlot() liveinterval.Slot {
	if t.cursor.AtEnd() {
		return t.oracle.MBBEndIndex(len(t.block.Instrs))
	}
	return t.oracle.InstructionIndex(t.cursor.Index())
}

// CloseTop finalizes the top boundary at the cursor's current position,
// snapshotting the live set into Result.LiveInRegs. A no-op if already
// closed.
func (t *Tracker) CloseTop() {
	if t.result.IsTopClosed() {
		return
	}
	live := t.live.snapshot()
	if t.requireIntervals {
		slot := t.currentSlot()
		t.result.openTopInterval(slot)
		live = t.closeTopAcross(slot, live)
	} else {
		t.result.openTopRegion(t.cursor.Index())
	}
	t.result.closeTop(live)
}

// CloseBottom finalizes the bottom boundary at the cursor's current
// position, snapshotting the live set into Result.LiveOutRegs. A no-op if
// already closed.
func (t *Tracker) CloseBottom() {
	if t.result.IsBottomClosed() {
		return
	}
	live := t.live.snapshot()
	if t.requireIntervals {
		slot := t.currentSlot()
		t.result.openBottomInterval(slot)
		live = t.closeBottomAcross(slot, live)
	} else {
		t.result.openBottomRegion(t.cursor.Index())
	}
	t.result.closeBottom(live)
}

// closeTopAcross folds in any virtual register the interval oracle reports
// as spanning slot with no local operand evidence -- a region whose only
// instruction never touches the register at all (it was defined above and
// used below the entire scanned window) is invisible to operand-driven
// discovery in either traversal direction, since there is no operand to
// discover it from. Only the interval variant can answer this, which is
// why it is not folded into the region variant's close path at all.
func (t *Tracker) closeTopAcross(slot liveinterval.Slot, live []mir.RegisterID) []mir.RegisterID {
	for _, reg := range t.oracle.LiveAcross(slot) {
		if findReg(live, reg, t.ti, true) >= 0 {
			continue
		}
		if t.result.discoverLiveIn(reg, t.ti, true) {
			directIncrease(t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
		}
		live = append(live, reg)
	}
	return live
}

func (t *Tracker) closeBottomAcross(slot liveinterval.Slot, live []mir.RegisterID) []mir.RegisterID {
	for _, reg := range t.oracle.LiveAcross(slot) {
		if findReg(live, reg, t.ti, true) >= 0 {
			continue
		}
		if t.result.discoverLiveOut(reg, t.ti, true) {
			directIncrease(t.result.MaxPressure, t.mri.ClassOf(reg), t.ti)
		}
		live = append(live, reg)
	}
	return live
}

// CloseRegion finalizes whichever boundary (or boundaries) Recede/Advance
// have not already closed. Calling it when both are already closed, or when
// neither traversal direction has run yet, is valid and a no-op/snapshot of
// the current (empty) live set respectively.
func (t *Tracker) CloseRegion() {
	if !t.result.IsTopClosed() {
		t.CloseTop()
	}
	if !t.result.IsBottomClosed() {
		t.CloseBottom()
	}
}

// IsTopClosed reports whether the top boundary has been finalized.
func (t *Tracker) IsTopClosed() bool { return t.result.IsTopClosed() }

// IsBottomClosed reports whether the bottom boundary has been finalized.
func (t *Tracker) IsBottomClosed() bool { return t.result.IsBottomClosed() }

// Result returns the tracker's accumulated output. The returned pointer
// remains live and keeps mutating until the next Init call.
func (t *Tracker) Result() *Result { return t.result }
