package pressure

import (
	"reflect"
	"testing"

	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

func newChainBlock(v0, v1, v2 mir.RegisterID) *mir.Block {
	b := mir.NewBlock()
	b.Add((&mir.Instruction{}).Def(v0))
	b.Add((&mir.Instruction{}).UseKill(v0).Def(v1))
	b.Add((&mir.Instruction{}).UseKill(v1))
	_ = v2
	return b
}

func TestTrackerRegionRoundTripSimpleChain(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0, v1 := mir.VirtReg(0), mir.VirtReg(1)
	ti.DeclareVirtual(v0)
	ti.DeclareVirtual(v1)
	block := newChainBlock(v0, v1, 0)

	fwd := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	fwd.Init(0)
	for fwd.Advance() {
	}
	fwdResult := fwd.Result()

	bwd := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	bwd.Init(len(block.Instrs))
	for bwd.Recede() {
	}
	bwdResult := bwd.Result()

	if got, want := fwdResult.MaxPressure[regclass.PressureSetGPR], uint(1); got != want {
		t.Fatalf("forward max pressure = %d, want %d", got, want)
	}
	if got := bwdResult.MaxPressure[regclass.PressureSetGPR]; got != fwdResult.MaxPressure[regclass.PressureSetGPR] {
		t.Fatalf("recede max pressure = %d, does not match advance max pressure = %d", got, fwdResult.MaxPressure[regclass.PressureSetGPR])
	}
	if len(fwdResult.LiveInRegs) != 0 || len(fwdResult.LiveOutRegs) != 0 {
		t.Fatalf("expected empty live-in/live-out for a self-contained chain, got in=%v out=%v", fwdResult.LiveInRegs, fwdResult.LiveOutRegs)
	}
	if !reflect.DeepEqual(fwdResult.LiveInRegs, bwdResult.LiveInRegs) {
		t.Fatalf("live-in mismatch: advance=%v recede=%v", fwdResult.LiveInRegs, bwdResult.LiveInRegs)
	}
	if !reflect.DeepEqual(fwdResult.LiveOutRegs, bwdResult.LiveOutRegs) {
		t.Fatalf("live-out mismatch: advance=%v recede=%v", fwdResult.LiveOutRegs, bwdResult.LiveOutRegs)
	}
}

func TestTrackerIntervalRoundTripSimpleChain(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0, v1 := mir.VirtReg(0), mir.VirtReg(1)
	ti.DeclareVirtual(v0)
	ti.DeclareVirtual(v1)
	block := newChainBlock(v0, v1, 0)
	oracle := liveinterval.Compute(block)

	fwd := NewTracker(ti, ti, ti, block, VariantInterval, oracle)
	fwd.Init(0)
	for fwd.Advance() {
	}

	bwd := NewTracker(ti, ti, ti, block, VariantInterval, oracle)
	bwd.Init(len(block.Instrs))
	for bwd.Recede() {
	}

	if got, want := fwd.Result().MaxPressure[regclass.PressureSetGPR], uint(1); got != want {
		t.Fatalf("forward max pressure = %d, want %d", got, want)
	}
	if got := bwd.Result().MaxPressure[regclass.PressureSetGPR]; got != fwd.Result().MaxPressure[regclass.PressureSetGPR] {
		t.Fatalf("interval recede/advance max pressure mismatch: %d vs %d", got, fwd.Result().MaxPressure[regclass.PressureSetGPR])
	}
}

func TestTrackerDeadDefBumpsMaxNotCurrent(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0, v1 := mir.VirtReg(0), mir.VirtReg(1)
	ti.DeclareVirtual(v0)
	ti.DeclareVirtual(v1)

	block := mir.NewBlock()
	block.Add((&mir.Instruction{}).Def(v0))
	block.Add((&mir.Instruction{}).DeadDef(v1))
	block.Add((&mir.Instruction{}).UseKill(v0))

	tr := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	tr.Init(0)
	for tr.Advance() {
	}

	// v0 alone ever occupies the live set (weight 1); the dead def of v1
	// must raise the high-water mark to 2 without leaving any residual
	// current pressure once the block ends.
	if got, want := tr.Result().MaxPressure[regclass.PressureSetGPR], uint(2); got != want {
		t.Fatalf("max pressure = %d, want %d", got, want)
	}
}

func TestTrackerPhysicalAliasingNoDoubleCount(t *testing.T) {
	ti := regclass.NewX86_64Target()
	eax, _ := ti.RegByName("EAX")
	rax, _ := ti.RegByName("RAX")
	ecx, _ := ti.RegByName("ECX")

	block := mir.NewBlock()
	block.Add((&mir.Instruction{}).Def(eax))
	block.Add((&mir.Instruction{}).UseKill(rax).Def(ecx))
	block.Add((&mir.Instruction{}).UseKill(ecx))

	tr := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	tr.Init(0)
	for tr.Advance() {
	}

	// EAX and RAX alias: the whole-register read at instr 1 must not be
	// treated as a second, independent live register; it retires EAX before
	// ECX is defined, so only one register is ever live.
	if got, want := tr.Result().MaxPressure[regclass.PressureSetGPR], uint(1); got != want {
		t.Fatalf("max pressure = %d, want %d", got, want)
	}
}

func TestTrackerDecreaseUnderflowPanics(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0 := mir.VirtReg(0)
	ti.DeclareVirtual(v0)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on pressure underflow")
		}
	}()

	curr := newVector(1)
	decrease(curr, ti.ClassOf(v0), ti)
}

// containsReg reports whether regs holds reg, ignoring order.
func containsReg(regs []mir.RegisterID, reg mir.RegisterID) bool {
	for _, r := range regs {
		if r == reg {
			return true
		}
	}
	return false
}

// TestTrackerRegionMidBlockDiscoversAcrossBoundaries starts a Region-variant
// tracker in the middle of a block and recedes only across the window
// [i1, i2), never reaching the block's true top (i0) or true bottom (i3).
// v0 is defined above the window and consumed at its first instruction, so
// it must surface as a live-in; v2 is defined at the window's last
// instruction and consumed below it, so it must surface as a live-out
// without ever occupying the live set the tracker tracks internally (it is
// never read inside the window at all). Before this discovery mechanism
// existed, a def encountered with nothing live below it was silently
// dropped instead of recorded.
func TestTrackerRegionMidBlockDiscoversAcrossBoundaries(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0, v1, v2 := mir.VirtReg(0), mir.VirtReg(1), mir.VirtReg(2)
	ti.DeclareVirtual(v0)
	ti.DeclareVirtual(v1)
	ti.DeclareVirtual(v2)
	_ = v1

	block := mir.NewBlock()
	block.Add((&mir.Instruction{}).Def(v0))    // i0: above the window
	block.Add((&mir.Instruction{}).UseKill(v0)) // i1: window top
	block.Add((&mir.Instruction{}).Def(v2))    // i2: window bottom
	block.Add((&mir.Instruction{}).UseKill(v2)) // i3: below the window

	tr := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	tr.Init(3)

	// Anchor the bottom boundary at its true position before receding, so
	// the later CloseTop (at the window's true top) does not also have to
	// stand in for a bottom it never visited.
	tr.CloseBottom()

	if !tr.Recede() { // processes i2
		t.Fatal("expected Recede to process i2")
	}
	if !tr.Recede() { // processes i1
		t.Fatal("expected Recede to process i1")
	}
	tr.CloseTop()

	result := tr.Result()
	if !containsReg(result.LiveInRegs, v0) {
		t.Fatalf("expected v0 discovered as live-in, got %v", result.LiveInRegs)
	}
	if !containsReg(result.LiveOutRegs, v2) {
		t.Fatalf("expected v2 discovered as live-out, got %v", result.LiveOutRegs)
	}
	if got, want := result.MaxPressure[regclass.PressureSetGPR], uint(1); got != want {
		t.Fatalf("max pressure = %d, want %d (v0 and v2 never coexist in the window)", got, want)
	}
}

// TestTrackerIntervalMidBlockDiscoversAcrossEmptyInstruction covers the case
// a region-variant tracker cannot answer at all: a single-instruction
// window with no operands of its own, where a virtual register is defined
// above it and consumed below it. Nothing local to the window gives either
// traversal direction a def or a use to discover the register from; only
// an interval oracle, consulted for the whole block up front, can report
// that the register's live range spans straight through.
func TestTrackerIntervalMidBlockDiscoversAcrossEmptyInstruction(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v1 := mir.VirtReg(0)
	ti.DeclareVirtual(v1)

	block := mir.NewBlock()
	block.Add((&mir.Instruction{}).Def(v1)) // i0: above the window
	block.Add(&mir.Instruction{})           // i1: the window, no operands
	block.Add((&mir.Instruction{}).UseKill(v1)) // i2: below the window
	oracle := liveinterval.Compute(block)

	tr := NewTracker(ti, ti, ti, block, VariantInterval, oracle)
	tr.Init(1)
	tr.CloseTop()

	if !tr.Advance() { // processes the empty i1
		t.Fatal("expected Advance to process i1")
	}
	tr.CloseBottom()

	result := tr.Result()
	if !containsReg(result.LiveInRegs, v1) {
		t.Fatalf("expected v1 discovered as live-in across the empty instruction, got %v", result.LiveInRegs)
	}
	if len(result.LiveOutRegs) != 0 {
		t.Fatalf("v1 is killed by the instruction immediately below the window, not live across its bottom boundary, got %v", result.LiveOutRegs)
	}
	if got, want := result.MaxPressure[regclass.PressureSetGPR], uint(1); got != want {
		t.Fatalf("max pressure = %d, want %d", got, want)
	}
}

func TestTrackerCloseRegionIdempotent(t *testing.T) {
	ti := regclass.NewX86_64Target()
	v0 := mir.VirtReg(0)
	ti.DeclareVirtual(v0)
	block := mir.NewBlock()
	block.Add((&mir.Instruction{}).Def(v0))
	block.Add((&mir.Instruction{}).UseKill(v0))

	tr := NewTracker(ti, ti, ti, block, VariantRegion, nil)
	tr.Init(0)
	for tr.Advance() {
	}
	if !tr.IsTopClosed() || !tr.IsBottomClosed() {
		t.Fatal("expected both boundaries closed once Advance runs to the end")
	}
	before := tr.Result().LiveInRegs
	tr.CloseRegion()
	if !reflect.DeepEqual(before, tr.Result().LiveInRegs) {
		t.Fatal("CloseRegion must be a no-op once both boundaries are closed")
	}
}
