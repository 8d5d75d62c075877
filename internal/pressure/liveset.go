package pressure

import (
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/sparseset"
)

// liveState is the tracker's own live-phys/live-virt membership, backed by
// sparse sets for O(1) insert/erase/contains and O(1) clear -- the hot path
// touches this on every operand of every instruction scanned.
type liveState struct {
	phys *sparseset.Set
	virt *sparseset.Set
}

func newLiveState(numRegs, numVirt int) *liveState {
	return &liveState{
		phys: sparseset.New(numRegs),
		virt: sparseset.New(numVirt),
	}
}

func (s *liveState) reset(numRegs, numVirt int) {
	s.phys.SetUniverse(numRegs)
	s.virt.SetUniverse(numVirt)
}

func (s *liveState) containsPhys(reg mir.RegisterID) bool {
	return s.phys.Contains(uint32(reg))
}

// insertPhys adds reg assuming the caller has already established it does
// not alias an existing member. It panics if reg itself is already a member;
// an aliasing member with a different id is not detected here.
func (s *liveState) insertPhys(reg mir.RegisterID) {
	if !s.phys.Insert(uint32(reg)) {
		panic("pressure: physical register already live")
	}
}

func (s *liveState) erasePhys(reg mir.RegisterID) bool {
	return s.phys.Erase(uint32(reg))
}

func (s *liveState) containsVirt(reg mir.RegisterID) bool {
	return s.virt.Contains(uint32(reg.VirtIndex()))
}

func (s *liveState) insertVirt(reg mir.RegisterID) {
	if !s.virt.Insert(uint32(reg.VirtIndex())) {
		panic("pressure: virtual register already live")
	}
}

func (s *liveState) eraseVirt(reg mir.RegisterID) bool {
	return s.virt.Erase(uint32(reg.VirtIndex()))
}

// snapshot returns every currently-live register (phys then virt), in
// unspecified order. Callers sort and dedupe as needed.
func (s *liveState) snapshot() []mir.RegisterID {
	out := make([]mir.RegisterID, 0, s.phys.Len()+s.virt.Len())
	s.phys.Each(func(key uint32) {
		out = append(out, mir.RegisterID(key))
	})
	s.virt.Each(func(key uint32) {
		out = append(out, mir.VirtReg(int(key)))
	})
	return out
}
