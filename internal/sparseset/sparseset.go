// Package sparseset implements the classic dense/sparse-array sparse set:
// O(1) insert, erase, contains and clear, with iteration proportional to the
// number of members rather than the key universe. This is the representation
// the pressure tracker's live-phys and live-virt register sets want: the key
// space (register numbers 0..M, virtual register ids) is dense but live
// membership at any scan position is small.
package sparseset

// Set is a sparse set over the key space [0, universe). The zero value is
// not usable; construct with New.
type Set struct {
	dense  []uint32 // member keys, in insertion order (order is irrelevant)
	sparse []uint32 // key -> index into dense, valid only when the slot
	// round-trips: sparse[k] < len(dense) && dense[sparse[k]] == k
}

// New returns an empty Set over the key space [0, universe).
func New(universe int) *Set {
	return &Set{sparse: make([]uint32, universe)}
}

// SetUniverse resizes the key space to universe, discarding membership. It
// mirrors the teacher-adjacent idiom of a sparse set whose universe is only
// known at the start of a traversal (the tracker calls this once per Init,
// after the target/machine-reg-info oracles report NumRegs/NumVirtRegs).
func (s *Set) SetUniverse(universe int) {
	s.dense = s.dense[:0]
	if cap(s.sparse) >= universe {
		s.sparse = s.sparse[:universe]
	} else {
		s.sparse = make([]uint32, universe)
	}
}

// Clear empties the set in O(1), independent of how many keys the universe
// holds.
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.dense)
}

// Contains reports whether key is a member.
func (s *Set) Contains(key uint32) bool {
	if int(key) >= len(s.sparse) {
		return false
	}
	i := s.sparse[key]
	return int(i) < len(s.dense) && s.dense[i] == key
}

// Insert adds key to the set, reporting whether it was newly inserted (false
// if key was already a member).
func (s *Set) Insert(key uint32) bool {
	if s.Contains(key) {
		return false
	}
	s.sparse[key] = uint32(len(s.dense))
	s.dense = append(s.dense, key)
	return true
}

// Erase removes key from the set, reporting whether it was present.
func (s *Set) Erase(key uint32) bool {
	if !s.Contains(key) {
		return false
	}
	i := s.sparse[key]
	last := len(s.dense) - 1
	movedKey := s.dense[last]
	s.dense[i] = movedKey
	s.sparse[movedKey] = i
	s.dense = s.dense[:last]
	return true
}

// Each calls fn once per member, in unspecified order. fn must not mutate
// the set.
func (s *Set) Each(fn func(key uint32)) {
	for _, k := range s.dense {
		fn(k)
	}
}

// Members returns a copy of the current member keys, in unspecified order.
func (s *Set) Members() []uint32 {
	out := make([]uint32, len(s.dense))
	copy(out, s.dense)
	return out
}
