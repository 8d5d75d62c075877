package mir

// Cursor is a bidirectional position within a single Block. Index 0 is the
// first instruction (AtBegin); Index len(Instrs) means "at end" (a valid
// advance-to-end sentinel). StepBackward does not stop at 0 by itself; the
// tracker's recede loop stops stepping once AtBegin holds.
//
// A Cursor never auto-skips debug instructions on construction; callers
// that want the "first non-debug instruction at or after pos" behavior call
// SkipDebugForward explicitly. There is no backward counterpart: receding
// steps with StepBackward itself, and a debug value reached at the block
// start terminates the scan rather than being skipped further.
type Cursor struct {
	block *Block
	index int
}

// NewCursor returns a cursor positioned at index within block. index must
// be in [0, len(block.Instrs)] ("at end" is valid).
func NewCursor(block *Block, index int) *Cursor {
	return &Cursor{block: block, index: index}
}

// AtBegin reports whether the cursor sits at the block's first instruction.
func (c *Cursor) AtBegin() bool {
	return c.index == 0
}

// AtEnd reports whether the cursor sits one past the block's last
// instruction.
func (c *Cursor) AtEnd() bool {
	return c.index >= len(c.block.Instrs)
}

// Index returns the cursor's current ordinal position, used as the slot
// surrogate for region-variant boundaries.
func (c *Cursor) Index() int {
	return c.index
}

// Current returns the instruction at the cursor's position. Panics if
// AtEnd.
func (c *Cursor) Current() *Instruction {
	return c.block.Instrs[c.index]
}

// IsDebugValue reports whether the instruction at the cursor is a debug
// value. Panics if AtEnd.
func (c *Cursor) IsDebugValue() bool {
	return c.Current().Debug
}

// StepForward advances the cursor by one instruction unconditionally.
func (c *Cursor) StepForward() {
	c.index++
}

// StepBackward retreats the cursor by one instruction unconditionally.
func (c *Cursor) StepBackward() {
	c.index--
}

// SkipDebugForward advances past consecutive debug-value instructions,
// stopping at the next non-debug instruction or at end.
func (c *Cursor) SkipDebugForward() {
	for !c.AtEnd() && c.IsDebugValue() {
		c.StepForward()
	}
}
