package sparseset

import "testing"

func TestSetInsertContainsErase(t *testing.T) {
	s := New(8)
	if s.Contains(3) {
		t.Fatal("empty set contains 3")
	}
	if !s.Insert(3) {
		t.Fatal("first insert of 3 should report true")
	}
	if s.Insert(3) {
		t.Fatal("second insert of 3 should report false")
	}
	if !s.Contains(3) {
		t.Fatal("set should contain 3 after insert")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if !s.Erase(3) {
		t.Fatal("erase of present member should report true")
	}
	if s.Erase(3) {
		t.Fatal("erase of absent member should report false")
	}
	if s.Contains(3) {
		t.Fatal("set should not contain 3 after erase")
	}
}

func TestSetEraseMiddleKeepsOthers(t *testing.T) {
	s := New(8)
	for _, k := range []uint32{1, 2, 3, 4} {
		s.Insert(k)
	}
	s.Erase(2)
	for _, k := range []uint32{1, 3, 4} {
		if !s.Contains(k) {
			t.Fatalf("expected set to still contain %d", k)
		}
	}
	if s.Contains(2) {
		t.Fatal("expected 2 to be erased")
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
}

func TestSetClearAndSetUniverse(t *testing.T) {
	s := New(4)
	s.Insert(1)
	s.Insert(2)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("len after Clear = %d, want 0", s.Len())
	}
	if s.Contains(1) {
		t.Fatal("Clear should drop membership")
	}

	s.SetUniverse(16)
	if !s.Insert(15) {
		t.Fatal("expected to insert into the grown universe")
	}
	if s.Contains(1) {
		t.Fatal("SetUniverse should discard prior membership")
	}
}

func TestSetContainsOutOfUniverse(t *testing.T) {
	s := New(4)
	if s.Contains(100) {
		t.Fatal("key outside the universe must never be a member")
	}
}
