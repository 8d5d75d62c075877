// Package regclass defines the three target-side oracles the pressure
// tracker consults: target register info, machine register info, and
// register-class info. Construction of a real target's class database is
// out of this repo's core scope, but a complete module needs at least one
// concrete instantiation to exercise the tracker end to end, so this
// package also ships an x86-64 one (see x86_64.go).
package regclass

import "github.com/tangzhangming/regpressure/internal/mir"

// Class is an opaque handle to a register class, as returned by a
// MachineRegInfo or a TargetInfo's MinimalPhysClass. The tracker never
// inspects a Class's internals directly; it only asks TargetInfo about it.
type Class int

// TargetInfo answers target-wide questions about physical registers and
// register classes: weights, pressure-set membership, and aliasing.
type TargetInfo interface {
	// NumPressureSets returns the fixed length of a pressure vector.
	NumPressureSets() int
	// NumRegs returns the number of physical registers in the target.
	NumRegs() int
	// IsVirtual reports whether reg is a virtual register id.
	IsVirtual(reg mir.RegisterID) bool
	// ClassWeight returns the integer cost of one register of rc toward
	// each pressure set it contributes to.
	ClassWeight(rc Class) uint
	// ClassPressureSets returns the ordered, duplicate-free pressure-set
	// indices rc contributes to.
	ClassPressureSets(rc Class) []int
	// MinimalPhysClass returns the smallest register class containing the
	// physical register phys.
	MinimalPhysClass(phys mir.RegisterID) Class
	// Overlaps returns phys together with every physical register that
	// aliases it (subregisters, super-registers, or both), self included.
	Overlaps(phys mir.RegisterID) []mir.RegisterID
}

// MachineRegInfo answers per-function questions about virtual registers.
type MachineRegInfo interface {
	// ClassOf returns the register class assigned to a virtual register.
	ClassOf(virt mir.RegisterID) Class
	// NumVirtRegs returns the number of virtual registers in the function.
	NumVirtRegs() int
}

// AllocatableInfo reports which physical registers the allocator may ever
// assign (reserved registers such as the stack/frame pointer are excluded).
type AllocatableInfo interface {
	IsAllocatable(phys mir.RegisterID) bool
}
