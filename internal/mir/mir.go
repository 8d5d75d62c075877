// Package mir defines the machine-level instruction stream the pressure
// tracker scans: a single basic block of register-typed operands, already
// past instruction selection and not yet touched by register allocation.
package mir

// RegisterID identifies a register operand. Zero means "absent" and never
// appears as a live operand. Physical registers are small positive
// integers assigned by a regclass.TargetInfo; virtual registers are
// encoded as non-positive integers so classification needs no registry
// lookup: reg <= 0 && reg != 0 is virtual, everything else is physical.
type RegisterID int32

// IsVirtual reports whether reg is a virtual register id. Reg must be
// non-zero; callers are expected to have already skipped absent operands.
func (reg RegisterID) IsVirtual() bool {
	return reg < 0
}

// VirtIndex returns the dense zero-based index of a virtual register,
// suitable for use as a slice/array key. Only valid when IsVirtual is true.
func (reg RegisterID) VirtIndex() int {
	return int(-reg - 1)
}

// VirtReg builds the RegisterID for the i'th virtual register (i >= 0).
func VirtReg(i int) RegisterID {
	return RegisterID(-(int32(i) + 1))
}

// Operand is one register-typed slot of an Instruction.
type Operand struct {
	Reg   RegisterID
	Reads bool // operand is read by the instruction
	IsDef bool // operand is written by the instruction
	Dead  bool // IsDef && the written value is never read afterward
	Kill  bool // Reads && this is the last read of the value going forward
}

// Instruction is a bundle of operands. Debug marks a debug-value pseudo
// instruction, which both traversal directions must skip over transparently.
type Instruction struct {
	Ops   []Operand
	Debug bool
}

// Use appends a read-only operand for reg to the instruction and returns it
// for chaining. A convenience used when building blocks by hand or in
// tests; it does not deduplicate, matching a raw operand list as produced by
// instruction selection.
func (in *Instruction) Use(reg RegisterID) *Instruction {
	in.Ops = append(in.Ops, Operand{Reg: reg, Reads: true})
	return in
}

// UseKill appends a read-only operand for reg marked as its last read; the
// forward traversal retires reg's liveness here, mirroring how the backward
// traversal discovers it at the same operand.
func (in *Instruction) UseKill(reg RegisterID) *Instruction {
	in.Ops = append(in.Ops, Operand{Reg: reg, Reads: true, Kill: true})
	return in
}

// Def appends a live (non-dead) def operand for reg.
func (in *Instruction) Def(reg RegisterID) *Instruction {
	in.Ops = append(in.Ops, Operand{Reg: reg, IsDef: true})
	return in
}

// DeadDef appends a def operand marked dead (the result is never read).
func (in *Instruction) DeadDef(reg RegisterID) *Instruction {
	in.Ops = append(in.Ops, Operand{Reg: reg, IsDef: true, Dead: true})
	return in
}

// DefUse appends an operand that both reads and writes reg (a read-modify
// instruction operand), non-dead.
func (in *Instruction) DefUse(reg RegisterID) *Instruction {
	in.Ops = append(in.Ops, Operand{Reg: reg, Reads: true, IsDef: true})
	return in
}

// Block is a single basic block: a flat, ordered instruction list. Blocks
// carried by this package never mutate once built; the tracker only reads.
type Block struct {
	Instrs []*Instruction
}

// NewBlock returns an empty block ready to be appended to.
func NewBlock() *Block {
	return &Block{}
}

// Add appends instr to the block and returns the block for chaining.
func (b *Block) Add(instr *Instruction) *Block {
	b.Instrs = append(b.Instrs, instr)
	return b
}

// Debug appends a debug-value pseudo instruction.
func (b *Block) Debug() *Block {
	return b.Add(&Instruction{Debug: true})
}
