package pressure

import (
	"sort"

	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

// Variant selects which boundary representation a Tracker uses. It is fixed
// at construction and never changes over a Tracker's lifetime.
type Variant int

const (
	// VariantRegion tracks boundaries by instruction-stream position and
	// needs no oracle beyond the block itself.
	VariantRegion Variant = iota
	// VariantInterval tracks boundaries by slot index and requires a
	// liveinterval.Oracle to translate cursor positions to slots.
	VariantInterval
)

// Result is the tracker's output: the high-water mark reached over the
// traversed region plus the live-in and live-out register sets at its two
// boundaries. Both Variant kinds share this shape; only the internal mark
// comparison used by openTop/openBottom differs between them.
type Result struct {
	Variant Variant

	MaxPressure Vector
	LiveInRegs  []mir.RegisterID
	LiveOutRegs []mir.RegisterID

	topClosed, bottomClosed bool
	topSet, bottomSet       bool

	topPos, bottomPos   int
	topSlot, bottomSlot liveinterval.Slot
}

func newResult(variant Variant, numSets int) *Result {
	return &Result{
		Variant:     variant,
		MaxPressure: newVector(numSets),
	}
}

func (r *Result) IsTopClosed() bool    { return r.topClosed }
func (r *Result) IsBottomClosed() bool { return r.bottomClosed }

// openTopRegion (re)opens the top boundary at cursor position pos. A region
// boundary is identified by iterator identity: any position different from
// the one already recorded reopens it. Recede calls this at every step while
// the top is unclosed, so the recorded top follows the cursor upward.
func (r *Result) openTopRegion(pos int) {
	if r.topSet && r.topPos == pos {
		return
	}
	r.topPos = pos
	r.topSet = true
	r.topClosed = false
	r.LiveInRegs = nil
}

func (r *Result) openBottomRegion(pos int) {
	if r.bottomSet && r.bottomPos == pos {
		return
	}
	r.bottomPos = pos
	r.bottomSet = true
	r.bottomClosed = false
	r.LiveOutRegs = nil
}

// openTopInterval (re)opens the top boundary at slot. An interval boundary
// is identified by ordering: the top only moves when slot extends it
// strictly earlier than what is already recorded, so repeated probes at the
// same or a later slot (which can happen as recede and advance interleave)
// leave a previously established high-water mark intact.
func (r *Result) openTopInterval(slot liveinterval.Slot) {
	if r.topSet && r.topSlot <= slot {
		return
	}
	r.topSlot = slot
	r.topSet = true
	r.topClosed = false
	r.LiveInRegs = nil
}

func (r *Result) openBottomInterval(slot liveinterval.Slot) {
	if r.bottomSet && r.bottomSlot >= slot {
		return
	}
	r.bottomSlot = slot
	r.bottomSet = true
	r.bottomClosed = false
	r.LiveOutRegs = nil
}

// closeTop finalizes LiveInRegs as the union of the live-set snapshot at the
// final top position with whatever discoverLiveIn already accumulated
// there over the course of the scan (a register that escapes the top
// boundary through a use with no preceding def never passes through the
// live set itself, so it would otherwise be lost here).
func (r *Result) closeTop(live []mir.RegisterID) {
	r.LiveInRegs = sortedUnique(append(append([]mir.RegisterID(nil), r.LiveInRegs...), live...))
	r.topClosed = true
}

func (r *Result) closeBottom(live []mir.RegisterID) {
	r.LiveOutRegs = sortedUnique(append(append([]mir.RegisterID(nil), r.LiveOutRegs...), live...))
	r.bottomClosed = true
}

// discoverLiveOut records reg as crossing the bottom boundary, found going backward
// without ever having passed through curr during this scan: a def found
// where no corresponding use was seen below it. Returns whether reg was a
// new addition (callers bump max only on a true addition, since a register
// already known to cross the boundary has already been credited).
func (r *Result) discoverLiveOut(reg mir.RegisterID, ti regclass.TargetInfo, isVirt bool) bool {
	if findReg(r.LiveOutRegs, reg, ti, isVirt) >= 0 {
		return false
	}
	r.LiveOutRegs = append(r.LiveOutRegs, reg)
	sort.Slice(r.LiveOutRegs, func(i, j int) bool { return r.LiveOutRegs[i] < r.LiveOutRegs[j] })
	return true
}

// discoverLiveIn is discoverLiveOut's forward-traversal counterpart: a use
// found where no corresponding def was seen above it.
func (r *Result) discoverLiveIn(reg mir.RegisterID, ti regclass.TargetInfo, isVirt bool) bool {
	if findReg(r.LiveInRegs, reg, ti, isVirt) >= 0 {
		return false
	}
	r.LiveInRegs = append(r.LiveInRegs, reg)
	sort.Slice(r.LiveInRegs, func(i, j int) bool { return r.LiveInRegs[i] < r.LiveInRegs[j] })
	return true
}

func sortedUnique(regs []mir.RegisterID) []mir.RegisterID {
	out := append([]mir.RegisterID(nil), regs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	for i, reg := range out {
		if i == 0 || reg != out[i-1] {
			dedup = append(dedup, reg)
		}
	}
	return dedup
}
