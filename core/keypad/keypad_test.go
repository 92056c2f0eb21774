package keypad

import "testing"

func TestNewReleasedIsAllOnes(t *testing.T) {
	s := NewReleased()
	if s.Poll() != 0x3FF {
		t.Fatalf("Poll() = %x, want 3FF (all buttons released)", s.Poll())
	}
}

func TestPressClearsBit(t *testing.T) {
	s := NewReleased()
	s.Press(A)
	if s.Poll()&A != 0 {
		t.Fatalf("A bit should be clear (pressed) after Press(A)")
	}
	if s.Poll()&B == 0 {
		t.Fatalf("B bit should remain set (released)")
	}
}

func TestReleaseSetsBitBack(t *testing.T) {
	s := NewReleased()
	s.Press(Start)
	s.Release(Start)
	if s.Poll()&Start == 0 {
		t.Fatalf("Start bit should be set again after Release")
	}
}
