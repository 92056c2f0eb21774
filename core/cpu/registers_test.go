package cpu

import "testing"

func TestSwitchModeBanksSVCStackPointer(t *testing.T) {
	r := &Registers{cpsr: uint32(ModeUser)}
	r.r[13] = 0x03007F00 // user stack pointer

	r.setCPSR(uint32(ModeSupervisor) | flagI)
	r.r[13] = 0x03007FE0 // supervisor stack pointer

	r.setCPSR(uint32(ModeUser))
	if r.r[13] != 0x03007F00 {
		t.Fatalf("r13 after returning to User = %x, want the banked user SP 03007F00", r.r[13])
	}

	r.setCPSR(uint32(ModeSupervisor))
	if r.r[13] != 0x03007FE0 {
		t.Fatalf("r13 after returning to Supervisor = %x, want the banked SVC SP 03007FE0", r.r[13])
	}
}

func TestSwitchModeBanksFIQLowRegisters(t *testing.T) {
	r := &Registers{cpsr: uint32(ModeUser)}
	r.r[8] = 0x11111111

	r.setCPSR(uint32(ModeFIQ))
	r.r[8] = 0x22222222

	r.setCPSR(uint32(ModeUser))
	if r.r[8] != 0x11111111 {
		t.Fatalf("r8 after leaving FIQ = %x, want the original user-bank value", r.r[8])
	}

	r.setCPSR(uint32(ModeFIQ))
	if r.r[8] != 0x22222222 {
		t.Fatalf("r8 after re-entering FIQ = %x, want the FIQ-banked value", r.r[8])
	}
}

func TestSPSRIsPerModeAndUserHasNone(t *testing.T) {
	r := &Registers{cpsr: uint32(ModeIRQ)}
	r.setSPSR(0xDEADBEEF)

	r.setCPSR(uint32(ModeSupervisor))
	r.setSPSR(0xCAFEBABE)

	r.setCPSR(uint32(ModeIRQ))
	if got := r.spsr(); got != 0xDEADBEEF {
		t.Fatalf("IRQ SPSR = %x, want DEADBEEF (unaffected by the SVC write)", got)
	}

	r.setCPSR(uint32(ModeSupervisor))
	if got := r.spsr(); got != 0xCAFEBABE {
		t.Fatalf("SVC SPSR = %x, want CAFEBABE", got)
	}
}

func TestModeAndThumbAccessors(t *testing.T) {
	r := &Registers{cpsr: uint32(ModeSystem) | flagT}
	if r.mode() != ModeSystem {
		t.Fatalf("mode() = %x, want ModeSystem", r.mode())
	}
	if !r.thumb() {
		t.Fatalf("thumb() = false, want true when flagT is set")
	}
}
