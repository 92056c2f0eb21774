package cpu

// Bus is the narrow memory/cycle collaborator the core needs: byte/half/
// word read-write plus a clock-advance primitive, satisfied by
// core/bus.Bus (spec.md §4.2). The CPU package never imports core/bus
// directly; core.Core owns both and is what calls CPU.Step.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	Tick(cycles int)

	// ConsumeCycles drains the wait-state/prefetch cost the bus has
	// charged against every Read*/Write* call since the last drain
	// (spec.md §4.2), so Step can report the access cost it actually
	// incurred instead of a flat per-instruction guess.
	ConsumeCycles() int
}

// pipeline is the two-slot fetch buffer (spec.md §4.1 "Pipeline").
type pipeline struct {
	slot   [2]uint32
	filled int
}

// CPU is the ARMv4T core: register file, pipeline, and the decode
// tables, each built once (sync.Once) on its first dispatch.
type CPU struct {
	Registers
	pipe    pipeline
	bus     Bus
	halted  bool
}

// New constructs a CPU with PC at resetVector, ARM state, Supervisor
// mode (the documented ARM7TDMI reset state), and an empty pipeline.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.cpsr = uint32(ModeSupervisor) | flagI | flagF
	c.r[15] = 0
	c.flushPipeline(0)
	return c
}

// GetPC returns the address of the instruction currently executing
// (the pipeline's fetch slot minus the 2-instruction lookahead),
// matching the teacher's CPU.GetPC accessor shape.
func (c *CPU) GetPC() uint32 {
	if c.thumb() {
		return c.r[15] - 4
	}
	return c.r[15] - 8
}

// SkipBIOS fast-forwards register state to what the GBA BIOS leaves
// behind immediately before jumping to cartridge entry (spec.md §7
// "Configuration: boot ROM may be omitted, in which case execution
// starts directly at the cartridge entry point with post-BIOS
// register values").
func (c *CPU) SkipBIOS(entry uint32) {
	c.setCPSR(uint32(ModeSystem))
	c.rUSR[5] = 0x03007F00 // SP_usr
	c.rIRQ[0] = 0x03007FA0 // SP_irq
	c.rSVC[0] = 0x03007FE0 // SP_svc
	c.r[13] = 0x03007F00
	c.r[15] = entry
	c.flushPipeline(entry)
}

// flushPipeline discards both fetch slots and refills them starting at
// newPC, the two-fetch primitive spec.md §4.1 requires on any branch.
func (c *CPU) flushPipeline(newPC uint32) {
	if c.thumb() {
		c.r[15] = newPC + 4
		c.pipe.slot[0] = uint32(c.bus.Read16(newPC))
		c.pipe.slot[1] = uint32(c.bus.Read16(newPC + 2))
	} else {
		c.r[15] = newPC + 8
		c.pipe.slot[0] = c.bus.Read32(newPC)
		c.pipe.slot[1] = c.bus.Read32(newPC + 4)
	}
	c.pipe.filled = 2
}

// Step decodes and executes one instruction, returning the cycle cost
// (spec.md §4.1 "each decoded instruction reports its own cycle cost").
// The returned total is the bus's own wait-state/prefetch accounting
// for every memory access this step performed (opcode fetch, pipeline
// refill on a branch, any load/store) plus the handler's internal-only
// extra cycles (register shifts, multiply iterations, load-use
// penalties) — the handlers themselves no longer guess at memory cost.
func (c *CPU) Step() int {
	if c.halted {
		return 1
	}

	opcode := c.pipe.slot[0]
	c.pipe.slot[0] = c.pipe.slot[1]

	var extra int
	if c.thumb() {
		pc := c.r[15]
		c.pipe.slot[1] = uint32(c.bus.Read16(pc))
		c.r[15] = pc + 2
		extra = c.execThumb(uint16(opcode))
	} else {
		pc := c.r[15]
		c.pipe.slot[1] = c.bus.Read32(pc)
		c.r[15] = pc + 4
		extra = c.execARM(opcode)
	}

	return c.bus.ConsumeCycles() + extra
}

// conditionPassed evaluates an ARM instruction's 4-bit condition field
// against the current NZCV flags (spec.md §4.1 "condition table").
func (c *CPU) conditionPassed(cond uint32) bool {
	return condTable[(c.cpsr>>28)<<4|cond]
}

var condTable [256]bool

func init() {
	for flags := uint32(0); flags < 16; flags++ {
		n := flags&8 != 0
		z := flags&4 != 0
		cFlag := flags&2 != 0
		v := flags&1 != 0
		for cond := uint32(0); cond < 16; cond++ {
			condTable[flags<<4|cond] = evalCond(cond, n, z, cFlag, v)
		}
	}
}

func evalCond(cond uint32, n, z, c, v bool) bool {
	switch cond {
	case 0x0:
		return z
	case 0x1:
		return !z
	case 0x2:
		return c
	case 0x3:
		return !c
	case 0x4:
		return n
	case 0x5:
		return !n
	case 0x6:
		return v
	case 0x7:
		return !v
	case 0x8:
		return c && !z
	case 0x9:
		return !c || z
	case 0xA:
		return n == v
	case 0xB:
		return n != v
	case 0xC:
		return !z && n == v
	case 0xD:
		return z || n != v
	case 0xE:
		return true
	default:
		return false // 0xF is reserved/unpredictable pre-ARMv5; treated as never
	}
}

// Halt enters low-power halt state (STOP/HALT via HALTCNT); Step then
// costs 1 cycle per call until WakeIfPending clears it.
func (c *CPU) Halt() { c.halted = true }

// WakeIfPending clears halt state when woken reports true (spec.md
// §4.7 "halt wake ignores IME/IE masks").
func (c *CPU) WakeIfPending(woken bool) {
	if woken {
		c.halted = false
	}
}

func (c *CPU) Halted() bool { return c.halted }

// EnterException performs the shared exception-entry sequence (spec.md
// §4.1 "SWI/IRQ entry"): bank to targetMode, save CPSR to SPSR_<mode>,
// save the return address to LR, switch to ARM, mask IRQs (and FIQs for
// Reset/FIQ), and flush the pipeline to the vector.
func (c *CPU) EnterException(targetMode Mode, vector uint32, lrOffset uint32, maskFIQ bool) {
	returnAddr := c.r[15]
	savedCPSR := c.cpsr

	c.setCPSR(uint32(targetMode) | (c.cpsr &^ 0x1F))
	c.setSPSR(savedCPSR)
	c.r[14] = returnAddr - lrOffset
	c.cpsr |= flagI
	if maskFIQ {
		c.cpsr |= flagF
	}
	c.cpsr &^= flagT
	c.flushPipeline(vector)
}

// RaiseIRQ drives IRQ exception entry (vector 0x18), called by
// core.Core's frame loop after each step when irq.Controller.Pending()
// is true.
func (c *CPU) RaiseIRQ() {
	if c.cpsr&flagI != 0 {
		return
	}
	lrOffset := uint32(4)
	if c.thumb() {
		lrOffset = 0 // Thumb PC is already +4 relative to the interrupted instruction
	}
	c.EnterException(ModeIRQ, 0x18, lrOffset, false)
}
