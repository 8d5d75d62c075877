package pressure

import "github.com/tangzhangming/regpressure/internal/regclass"

// Vector is a fixed-length sequence of non-negative pressure-set counters.
// Its length never changes once a Tracker is initialized.
type Vector []uint

// newVector returns a zeroed Vector with one counter per pressure set.
func newVector(n int) Vector {
	return make(Vector, n)
}

func (v Vector) clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// increase bumps curr by rc's weight in each pressure set rc contributes to,
// then raises max to match wherever curr now exceeds it.
func increase(curr, max Vector, rc regclass.Class, ti regclass.TargetInfo) {
	w := ti.ClassWeight(rc)
	for _, p := range ti.ClassPressureSets(rc) {
		curr[p] += w
		if curr[p] > max[p] {
			max[p] = curr[p]
		}
	}
}

// decrease lowers curr by rc's weight in each pressure set rc contributes
// to. A counter going negative is a fatal invariant breach: the caller
// promised this register's weight was already accounted for.
func decrease(curr Vector, rc regclass.Class, ti regclass.TargetInfo) {
	w := ti.ClassWeight(rc)
	for _, p := range ti.ClassPressureSets(rc) {
		if curr[p] < w {
			panic("pressure: register pressure underflow")
		}
		curr[p] -= w
	}
}

// directIncrease bumps max unconditionally, with no current-pressure
// counterpart. Used only by live-in/live-out discovery: a register found to
// cross a region boundary was live over the entire traversed prefix or
// suffix and must be credited to the high-water mark even though it never
// passed through curr during this scan.
func directIncrease(max Vector, rc regclass.Class, ti regclass.TargetInfo) {
	w := ti.ClassWeight(rc)
	for _, p := range ti.ClassPressureSets(rc) {
		max[p] += w
	}
}
