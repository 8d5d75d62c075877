package pressure

import (
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/regclass"
	"github.com/tangzhangming/regpressure/internal/sparseset"
)

// overlapsSet reports whether phys aliases any member already present in
// live (a sparseset.Set of physical register ids). This backs every
// "is this physical register already live, under aliasing" check in both
// traversal directions.
func overlapsSet(phys mir.RegisterID, live *sparseset.Set, ti regclass.TargetInfo) bool {
	for _, alias := range ti.Overlaps(phys) {
		if live.Contains(uint32(alias)) {
			return true
		}
	}
	return false
}

// findAlias returns the index of the first entry in regs that aliases phys,
// or -1 if none does. Used for deduplicating the small unordered operand
// and live-in/live-out lists, where a linear scan beats sparse-set overhead.
func findAlias(regs []mir.RegisterID, phys mir.RegisterID, ti regclass.TargetInfo) int {
	for _, alias := range ti.Overlaps(phys) {
		for i, r := range regs {
			if r == alias {
				return i
			}
		}
	}
	return -1
}

// findReg returns the index of reg in regs: by identity for virtual
// registers, by alias for physical ones. Virtual registers never alias one
// another -- each names a distinct value -- so identity comparison suffices
// there; only the physical register file has overlapping sub-registers.
func findReg(regs []mir.RegisterID, reg mir.RegisterID, ti regclass.TargetInfo, isVirt bool) int {
	if isVirt {
		for i, r := range regs {
			if r == reg {
				return i
			}
		}
		return -1
	}
	return findAlias(regs, reg, ti)
}
