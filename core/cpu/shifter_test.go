package cpu

import "testing"

func TestBarrelShiftLSLImmZeroPassesThrough(t *testing.T) {
	v, c := barrelShift(0xABCD1234, 0, 0, false, true)
	if v != 0xABCD1234 || c != true {
		t.Fatalf("LSL#0 = %x,%v want passthrough with carry unchanged", v, c)
	}
}

func TestBarrelShiftLSRImmZeroMeans32(t *testing.T) {
	v, c := barrelShift(0x80000000, 1, 0, false, false)
	if v != 0 || !c {
		t.Fatalf("LSR#0(imm) = %x,%v want 0,true (encodes LSR#32)", v, c)
	}
}

func TestBarrelShiftASRImmZeroMeans32(t *testing.T) {
	v, c := barrelShift(0x80000000, 2, 0, false, false)
	if v != 0xFFFFFFFF || !c {
		t.Fatalf("ASR#0(imm) = %x,%v want FFFFFFFF,true (sign-filled)", v, c)
	}
}

func TestBarrelShiftRORImmZeroIsRRX(t *testing.T) {
	v, c := barrelShift(0x2, 3, 0, false, true)
	if v != 0x80000001 || c != false {
		t.Fatalf("ROR#0(imm)=RRX with carry-in=1 on value 2 = %x,%v want 80000001,false", v, c)
	}
}

func TestBarrelShiftRegShiftZeroPassesThroughUnchanged(t *testing.T) {
	v, c := barrelShift(0x1234, 1, 0, true, true)
	if v != 0x1234 || c != true {
		t.Fatalf("LSR with register-sourced shift amount 0 must pass through unchanged: got %x,%v", v, c)
	}
}

func TestBarrelShiftROR(t *testing.T) {
	v, c := barrelShift(0x1, 3, 1, false, false)
	if v != 0x80000000 || !c {
		t.Fatalf("ROR#1 of 1 = %x,%v want 80000000,true", v, c)
	}
}
