package bit

import "testing"

func TestExtract(t *testing.T) {
	v := uint32(0b1011_0100)
	if got := Extract(v, 7, 4); got != 0b1011 {
		t.Fatalf("Extract(0b10110100, 7, 4) = %b, want 1011", got)
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		value uint32
		bits  uint
		want  int32
	}{
		{0x7FF, 12, 0x7FF},
		{0x800, 12, -2048},
		{0xFFF, 12, -1},
	}
	for _, tc := range cases {
		if got := SignExtend(tc.value, tc.bits); got != tc.want {
			t.Errorf("SignExtend(%x, %d) = %d, want %d", tc.value, tc.bits, got, tc.want)
		}
	}
}

func TestRotateRight32(t *testing.T) {
	if got := RotateRight32(1, 1); got != 0x80000000 {
		t.Errorf("RotateRight32(1,1) = %x, want 80000000", got)
	}
}

func TestCombine16(t *testing.T) {
	if got := Combine16(0x1234, 0x5678); got != 0x12345678 {
		t.Errorf("Combine16 = %x, want 12345678", got)
	}
}
