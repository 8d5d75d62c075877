package regclass

import "github.com/tangzhangming/regpressure/internal/mir"

// baseNames mirrors the teacher's platform/x86_64_asm.go register table
// (RAX..R15 in encoding order), extended here with the sub-register views
// that JIT code generation never needed to model but a register-pressure
// tracker must: RegisterPressure.cpp's whole reason for an alias oracle is
// exactly this kind of overlap.
var baseNames = [16]string{
	"RAX", "RCX", "RDX", "RBX", "RSP", "RBP", "RSI", "RDI",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
}

// viewWidth is a bit range [lo, hi) within a base register.
type viewWidth struct {
	lo, hi int
}

var (
	view64 = viewWidth{0, 64}
	view32 = viewWidth{0, 32}
	view16 = viewWidth{0, 16}
	view8L = viewWidth{0, 8}
	view8H = viewWidth{8, 16} // AH/BH/CH/DH only
)

// legacyLowByteNames are the 8-bit low-byte names for the first four bases
// (RAX/RCX/RDX/RBX), which predate the REX-prefixed SPL/BPL/SIL/DIL/R8B..
// naming used everywhere else.
var legacyLowByteNames = [4]string{"AL", "CL", "DL", "BL"}

// legacyHighByteNames are the 8-bit high-byte names for the first four
// bases (the only registers with a high-byte view at all).
var legacyHighByteNames = [4]string{"AH", "CH", "DH", "BH"}

// name32, name16, name8L compute the sub-register name for base register
// index base (0-15) at a given width.
func name32(base int) string {
	if base < 8 {
		return "E" + baseNames[base][1:]
	}
	return baseNames[base] + "D"
}

func name16(base int) string {
	if base < 8 {
		return baseNames[base][1:]
	}
	return baseNames[base] + "W"
}

func name8L(base int) string {
	if base < 4 {
		return legacyLowByteNames[base]
	}
	if base < 8 {
		return [4]string{"SPL", "BPL", "SIL", "DIL"}[base-4]
	}
	return baseNames[base] + "B"
}

type physReg struct {
	id     mir.RegisterID
	name   string
	base   int
	lo, hi int
}

// X86_64Target is a concrete regclass.TargetInfo/MachineRegInfo/
// AllocatableInfo for a simplified x86-64 integer register file: 16 base
// registers with their 32/16/8-bit sub-views, one pressure set (class
// "GPR"), uniform weight 1. RSP and RBP are reserved (not allocatable); all
// other physical registers are.
type X86_64Target struct {
	regs      []physReg
	byName    map[string]mir.RegisterID
	overlaps  map[mir.RegisterID][]mir.RegisterID
	virtClass map[mir.RegisterID]Class
	numVirt   int
}

const (
	// PressureSetGPR is the sole pressure set this target models.
	PressureSetGPR = 0
	// ClassGPR is the only register class this target models; every
	// view of every base register reports this as its minimal class.
	ClassGPR Class = 0
	// gprWeight is the per-register cost toward PressureSetGPR.
	gprWeight = 1
)

// NewX86_64Target builds the register/alias tables once.
func NewX86_64Target() *X86_64Target {
	t := &X86_64Target{
		byName:    make(map[string]mir.RegisterID),
		overlaps:  make(map[mir.RegisterID][]mir.RegisterID),
		virtClass: make(map[mir.RegisterID]Class),
	}

	addReg := func(nextID *mir.RegisterID, base int, name string, w viewWidth) {
		reg := physReg{id: *nextID, name: name, base: base, lo: w.lo, hi: w.hi}
		t.regs = append(t.regs, reg)
		t.byName[reg.name] = reg.id
		*nextID++
	}

	nextID := mir.RegisterID(1)
	for base, baseName := range baseNames {
		addReg(&nextID, base, baseName, view64)
		addReg(&nextID, base, name32(base), view32)
		addReg(&nextID, base, name16(base), view16)
		addReg(&nextID, base, name8L(base), view8L)
		if base < 4 {
			addReg(&nextID, base, legacyHighByteNames[base], view8H)
		}
	}

	for _, r := range t.regs {
		var ov []mir.RegisterID
		ov = append(ov, r.id) // self first
		for _, other := range t.regs {
			if other.id == r.id || other.base != r.base {
				continue
			}
			if rangesOverlap(r.lo, r.hi, other.lo, other.hi) {
				ov = append(ov, other.id)
			}
		}
		t.overlaps[r.id] = ov
	}
	return t
}

func rangesOverlap(lo1, hi1, lo2, hi2 int) bool {
	return lo1 < hi2 && lo2 < hi1
}

// RegByName looks up a physical register by its assembly name (e.g. "RAX",
// "EAX", "AL"). Used by the MIR text-format parser.
func (t *X86_64Target) RegByName(name string) (mir.RegisterID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// DeclareVirtual assigns class GPR to virtual register v, making it visible
// to ClassOf. There is only one class in this target, so every virtual
// register implicitly uses it; this just tracks the count for NumVirtRegs.
func (t *X86_64Target) DeclareVirtual(v mir.RegisterID) {
	if _, ok := t.virtClass[v]; !ok {
		t.virtClass[v] = ClassGPR
		t.numVirt++
	}
}

func (t *X86_64Target) NumPressureSets() int { return 1 }

// NumRegs returns one past the highest assigned physical register id, since
// ids are 1-based and callers size sparse sets to this as their universe.
func (t *X86_64Target) NumRegs() int { return len(t.regs) + 1 }

func (t *X86_64Target) IsVirtual(reg mir.RegisterID) bool { return reg.IsVirtual() }

func (t *X86_64Target) ClassWeight(rc Class) uint { return gprWeight }

func (t *X86_64Target) ClassPressureSets(rc Class) []int { return []int{PressureSetGPR} }

func (t *X86_64Target) MinimalPhysClass(phys mir.RegisterID) Class { return ClassGPR }

func (t *X86_64Target) Overlaps(phys mir.RegisterID) []mir.RegisterID {
	return t.overlaps[phys]
}

func (t *X86_64Target) ClassOf(virt mir.RegisterID) Class {
	if c, ok := t.virtClass[virt]; ok {
		return c
	}
	return ClassGPR
}

func (t *X86_64Target) NumVirtRegs() int { return t.numVirt }

// IsAllocatable excludes the stack and frame pointer (and any of their
// sub-views) from allocation, matching every real x86-64 target's reserved
// set.
func (t *X86_64Target) IsAllocatable(phys mir.RegisterID) bool {
	for _, r := range t.regs {
		if r.id == phys {
			return r.base != 4 && r.base != 5 // RSP, RBP
		}
	}
	return false
}
