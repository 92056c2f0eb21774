// Package cpu implements the ARM7TDMI (ARMv4T) instruction core
// described in spec.md §3/§4.1: banked registers, a two-slot pipeline,
// ARM and Thumb decode tables built programmatically at startup, and
// the barrel shifter / data-processing / load-store / branch / SWI /
// IRQ-entry handlers that drive them.
//
// The register file generalizes the teacher's 16-bit value-wrapper
// idiom (jeebie/cpu/registers.go's Register16/Register8) to the six
// banked 32-bit register sets an ARMv4T core requires.
package cpu

// Mode is one of the six ARM execution modes (spec.md §3 "CPSR mode
// bits"), each with its own banked r13/r14 (and FIQ additionally banks
// r8-r12).
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// CPSR bit positions (spec.md §3 "status register").
const (
	flagN uint32 = 1 << 31
	flagZ uint32 = 1 << 30
	flagC uint32 = 1 << 29
	flagV uint32 = 1 << 28
	flagI uint32 = 1 << 7
	flagF uint32 = 1 << 6
	flagT uint32 = 1 << 5
)

// Registers holds the current register view plus every bank an
// ARMv4T mode switch must swap in, per spec.md's six-bank enumeration.
type Registers struct {
	r    [16]uint32
	cpsr uint32

	rFIQ [7]uint32 // r8-r14, banked
	rSVC [2]uint32 // r13-r14
	rABT [2]uint32
	rIRQ [2]uint32
	rUND [2]uint32
	rUSR [7]uint32 // r8-r14, the non-FIQ bank

	spsrFIQ, spsrSVC, spsrABT, spsrIRQ, spsrUND uint32
}

func (r *Registers) mode() Mode { return Mode(r.cpsr & 0x1F) }

func (r *Registers) thumb() bool { return r.cpsr&flagT != 0 }

// switchMode banks out the current mode's r8-r14/SPSR and banks in the
// target mode's, per spec.md's banked-register table. Called whenever
// CPSR's mode bits change (mode switch instructions, exception entry).
func (r *Registers) switchMode(target Mode) {
	from := r.mode()
	if from == target {
		return
	}

	// Save r8-r12 (FIQ-only banking) out of the live registers.
	if from == ModeFIQ {
		copy(r.rFIQ[0:5], r.r[8:13])
	} else {
		copy(r.rUSR[0:5], r.r[8:13])
	}
	// Save r13-r14 for the outgoing mode.
	switch from {
	case ModeFIQ:
		r.rFIQ[5], r.rFIQ[6] = r.r[13], r.r[14]
	case ModeSupervisor:
		r.rSVC[0], r.rSVC[1] = r.r[13], r.r[14]
	case ModeAbort:
		r.rABT[0], r.rABT[1] = r.r[13], r.r[14]
	case ModeIRQ:
		r.rIRQ[0], r.rIRQ[1] = r.r[13], r.r[14]
	case ModeUndefined:
		r.rUND[0], r.rUND[1] = r.r[13], r.r[14]
	default:
		r.rUSR[5], r.rUSR[6] = r.r[13], r.r[14]
	}

	// Load r8-r12 for the incoming mode.
	if target == ModeFIQ {
		copy(r.r[8:13], r.rFIQ[0:5])
	} else {
		copy(r.r[8:13], r.rUSR[0:5])
	}
	switch target {
	case ModeFIQ:
		r.r[13], r.r[14] = r.rFIQ[5], r.rFIQ[6]
	case ModeSupervisor:
		r.r[13], r.r[14] = r.rSVC[0], r.rSVC[1]
	case ModeAbort:
		r.r[13], r.r[14] = r.rABT[0], r.rABT[1]
	case ModeIRQ:
		r.r[13], r.r[14] = r.rIRQ[0], r.rIRQ[1]
	case ModeUndefined:
		r.r[13], r.r[14] = r.rUND[0], r.rUND[1]
	default:
		r.r[13], r.r[14] = r.rUSR[5], r.rUSR[6]
	}
}

func (r *Registers) spsr() uint32 {
	switch r.mode() {
	case ModeFIQ:
		return r.spsrFIQ
	case ModeSupervisor:
		return r.spsrSVC
	case ModeAbort:
		return r.spsrABT
	case ModeIRQ:
		return r.spsrIRQ
	case ModeUndefined:
		return r.spsrUND
	default:
		return r.cpsr // User/System have no SPSR; reading is UNPREDICTABLE, return CPSR
	}
}

func (r *Registers) setSPSR(v uint32) {
	switch r.mode() {
	case ModeFIQ:
		r.spsrFIQ = v
	case ModeSupervisor:
		r.spsrSVC = v
	case ModeAbort:
		r.spsrABT = v
	case ModeIRQ:
		r.spsrIRQ = v
	case ModeUndefined:
		r.spsrUND = v
	}
}

// setCPSR writes the full CPSR and performs the associated bank switch.
func (r *Registers) setCPSR(v uint32) {
	r.switchMode(Mode(v & 0x1F))
	r.cpsr = v
}
