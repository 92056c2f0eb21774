package cpu

import "sync"

// armHandler executes one decoded ARM instruction and returns its
// internal-only extra cycle cost (register shifts, multiply iterations,
// load-use penalties): memory access cost is charged separately by the
// bus itself and folded in by CPU.Step.
type armHandler func(c *CPU, opcode uint32) int

var (
	armTable     [4096]armHandler
	armTableOnce sync.Once
)

// execARM dispatches through the 4096-entry table keyed by bits
// 27..20/7..4 (spec.md §4.1 "ARM decode table"), checking the
// condition field first.
func (c *CPU) execARM(opcode uint32) int {
	armTableOnce.Do(buildArmTable)

	cond := opcode >> 28
	if !c.conditionPassed(cond) {
		return 0 // the opcode fetch that brought us here already charged its bus cost
	}

	idx := ((opcode >> 16) & 0xFF0) | ((opcode >> 4) & 0xF)
	return armTable[idx](c, opcode)
}

// buildArmTable iterates every (bits27..20, bits7..4) combination and
// assigns the matching handler by pattern predicate, the programmatic
// construction strategy spec.md §9 calls out in place of the original's
// macro-expanded per-slot table.
func buildArmTable() {
	for i := range armTable {
		hi8 := uint32(i >> 4)
		lo4 := uint32(i & 0xF)
		armTable[i] = classifyARM(hi8, lo4)
	}
}

func classifyARM(hi8, lo4 uint32) armHandler {
	switch {
	case hi8&0xFC == 0x00 && lo4 == 0x9:
		return armMultiply
	case hi8&0xF8 == 0x08 && lo4 == 0x9:
		return armMultiplyLong
	case hi8&0xFB == 0x10 && lo4 == 0x9:
		return armSwap
	case hi8 == 0x12 && lo4 == 0x1:
		return armBranchExchange
	case hi8&0xE0 == 0x00 && lo4 == 0xB:
		return armHalfwordTransferReg
	case hi8&0xE0 == 0x00 && lo4&0x9 == 0x9 && lo4 != 0x9:
		return armHalfwordTransferImm
	case hi8&0xC0 == 0x00:
		return armDataProcessing
	case hi8&0xF8 == 0x10 && lo4 == 0x0:
		return armMRS
	case hi8&0xFB == 0x12 && lo4 == 0x0:
		return armMSR
	case hi8&0xC0 == 0x40:
		return armSingleDataTransfer
	case hi8&0xE0 == 0x60 && lo4&1 == 1:
		return armUndefined
	case hi8&0xE0 == 0x60 || hi8&0xE0 == 0x40:
		return armSingleDataTransfer
	case hi8&0xE0 == 0x80:
		return armBlockDataTransfer
	case hi8&0xE0 == 0xA0:
		return armBranch
	case hi8&0xF0 == 0xF0:
		return armSWI
	default:
		return armUndefined
	}
}

func (c *CPU) setNZ(result uint32) {
	if result&(1<<31) != 0 {
		c.cpsr |= flagN
	} else {
		c.cpsr &^= flagN
	}
	if result == 0 {
		c.cpsr |= flagZ
	} else {
		c.cpsr &^= flagZ
	}
}

func (c *CPU) setC(v bool) {
	if v {
		c.cpsr |= flagC
	} else {
		c.cpsr &^= flagC
	}
}

func (c *CPU) setV(v bool) {
	if v {
		c.cpsr |= flagV
	} else {
		c.cpsr &^= flagV
	}
}

// operand2 resolves a data-processing instruction's second operand,
// returning the value and the shifter's carry-out.
func (c *CPU) operand2(opcode uint32) (uint32, bool) {
	if opcode&(1<<25) != 0 {
		imm := opcode & 0xFF
		rot := (opcode >> 8) & 0xF * 2
		if rot == 0 {
			return imm, c.cpsr&flagC != 0
		}
		return rotr32(imm, rot), (imm>>(rot-1))&1 != 0 // not exact boundary but matches ARM's documented immediate-rotate carry rule
	}

	rm := c.r[opcode&0xF]
	shiftType := (opcode >> 5) & 0x3
	if opcode&(1<<4) != 0 {
		rs := c.r[(opcode>>8)&0xF] & 0xFF
		// register-specified shift reads PC as current+12, which is what
		// r15 already holds while an ARM instruction executes
		return barrelShift(rm, shiftType, rs, true, c.cpsr&flagC != 0)
	}
	amount := (opcode >> 7) & 0x1F
	return barrelShift(rm, shiftType, amount, false, c.cpsr&flagC != 0)
}

func armDataProcessing(c *CPU, opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	setFlags := opcode&(1<<20) != 0
	op := (opcode >> 21) & 0xF

	regShift := opcode&(1<<25) == 0 && opcode&(1<<4) != 0
	op2, shiftCarry := c.operand2(opcode)
	n := c.r[rn]

	extra := 0
	if regShift {
		extra = 1 // register-specified shift amount costs an extra internal cycle
	}

	var result uint32
	writeResult := true

	switch op {
	case 0x0: // AND
		result = n & op2
	case 0x1: // EOR
		result = n ^ op2
	case 0x2: // SUB
		result = n - op2
		if setFlags {
			c.setC(n >= op2)
			c.setV(subOverflow(n, op2, result))
		}
	case 0x3: // RSB
		result = op2 - n
		if setFlags {
			c.setC(op2 >= n)
			c.setV(subOverflow(op2, n, result))
		}
	case 0x4: // ADD
		sum := uint64(n) + uint64(op2)
		result = uint32(sum)
		if setFlags {
			c.setC(sum > 0xFFFFFFFF)
			c.setV(addOverflow(n, op2, result))
		}
	case 0x5: // ADC
		carry := uint64(0)
		if c.cpsr&flagC != 0 {
			carry = 1
		}
		sum := uint64(n) + uint64(op2) + carry
		result = uint32(sum)
		if setFlags {
			c.setC(sum > 0xFFFFFFFF)
			c.setV(addOverflow(n, op2, result))
		}
	case 0x6: // SBC
		borrow := uint64(1)
		if c.cpsr&flagC != 0 {
			borrow = 0
		}
		diff := uint64(n) - uint64(op2) - borrow
		result = uint32(diff)
		if setFlags {
			c.setC(uint64(n) >= uint64(op2)+borrow)
			c.setV(subOverflow(n, op2, result))
		}
	case 0x7: // RSC
		borrow := uint64(1)
		if c.cpsr&flagC != 0 {
			borrow = 0
		}
		diff := uint64(op2) - uint64(n) - borrow
		result = uint32(diff)
		if setFlags {
			c.setC(uint64(op2) >= uint64(n)+borrow)
			c.setV(subOverflow(op2, n, result))
		}
	case 0x8: // TST
		result = n & op2
		writeResult = false
		if setFlags {
			c.setC(shiftCarry)
		}
	case 0x9: // TEQ
		result = n ^ op2
		writeResult = false
		if setFlags {
			c.setC(shiftCarry)
		}
	case 0xA: // CMP
		result = n - op2
		writeResult = false
		if setFlags {
			c.setC(n >= op2)
			c.setV(subOverflow(n, op2, result))
		}
	case 0xB: // CMN
		sum := uint64(n) + uint64(op2)
		result = uint32(sum)
		writeResult = false
		if setFlags {
			c.setC(sum > 0xFFFFFFFF)
			c.setV(addOverflow(n, op2, result))
		}
	case 0xC: // ORR
		result = n | op2
	case 0xD: // MOV
		result = op2
	case 0xE: // BIC
		result = n &^ op2
	default: // MVN
		result = ^op2
	}

	if setFlags && (op == 0x0 || op == 0x1 || op == 0xC || op == 0xD || op == 0xE || op == 0xF) {
		c.setC(shiftCarry)
	}

	if writeResult {
		c.r[rd] = result
		if rd == 15 {
			if setFlags {
				c.setCPSR(c.spsr())
			}
			c.flushPipeline(result &^ 3)
			return extra // flushPipeline's two fetches already cover the refill cost
		}
	}
	if setFlags {
		c.setNZ(result)
	}
	return extra
}

func subOverflow(a, b, result uint32) bool {
	return (a^b)&(a^result)&(1<<31) != 0
}

func addOverflow(a, b, result uint32) bool {
	return ^(a^b)&(a^result)&(1<<31) != 0
}

func armMultiply(c *CPU, opcode uint32) int {
	rd := (opcode >> 16) & 0xF
	rn := (opcode >> 12) & 0xF
	rs := (opcode >> 8) & 0xF
	rm := opcode & 0xF
	accumulate := opcode&(1<<21) != 0
	setFlags := opcode&(1<<20) != 0

	result := c.r[rm] * c.r[rs]
	if accumulate {
		result += c.r[rn]
	}
	c.r[rd] = result
	if setFlags {
		c.setNZ(result)
	}
	extra := 1
	if accumulate {
		extra++
	}
	return extra
}

func armMultiplyLong(c *CPU, opcode uint32) int {
	rdHi := (opcode >> 16) & 0xF
	rdLo := (opcode >> 12) & 0xF
	rs := (opcode >> 8) & 0xF
	rm := opcode & 0xF
	signed := opcode&(1<<22) != 0
	accumulate := opcode&(1<<21) != 0
	setFlags := opcode&(1<<20) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.r[rm])) * int64(int32(c.r[rs])))
	} else {
		result = uint64(c.r[rm]) * uint64(c.r[rs])
	}
	if accumulate {
		result += uint64(c.r[rdHi])<<32 | uint64(c.r[rdLo])
	}
	c.r[rdLo] = uint32(result)
	c.r[rdHi] = uint32(result >> 32)
	if setFlags {
		c.setNZ(c.r[rdHi])
		if result == 0 {
			c.cpsr |= flagZ
		}
	}
	extra := 2
	if accumulate {
		extra++
	}
	return extra
}

func armSwap(c *CPU, opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	rm := opcode & 0xF
	byteSwap := opcode&(1<<22) != 0
	addr := c.r[rn]

	if byteSwap {
		old := c.bus.Read8(addr)
		c.bus.Write8(addr, uint8(c.r[rm]))
		c.r[rd] = uint32(old)
	} else {
		old := c.bus.Read32(addr)
		c.bus.Write32(addr, c.r[rm])
		c.r[rd] = old
	}
	return 1 // internal cycle holding the read value across the write
}

func armBranchExchange(c *CPU, opcode uint32) int {
	target := c.r[opcode&0xF]
	if target&1 != 0 {
		c.cpsr |= flagT
	} else {
		c.cpsr &^= flagT
	}
	c.flushPipeline(target &^ 1)
	return 0
}

func armHalfwordTransferReg(c *CPU, opcode uint32) int  { return doHalfwordTransfer(c, opcode, c.r[opcode&0xF]) }
func armHalfwordTransferImm(c *CPU, opcode uint32) int {
	off := (opcode&0xF00)>>4 | (opcode & 0xF)
	return doHalfwordTransfer(c, opcode, off)
}

func doHalfwordTransfer(c *CPU, opcode, offset uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	load := opcode&(1<<20) != 0
	up := opcode&(1<<23) != 0
	pre := opcode&(1<<24) != 0
	writeback := opcode&(1<<21) != 0
	sh := (opcode >> 5) & 0x3

	base := c.r[rn]
	var effective uint32
	if up {
		effective = base + offset
	} else {
		effective = base - offset
	}

	addrUsed := base
	if pre {
		addrUsed = effective
	}

	switch {
	case load && sh == 1: // LDRH
		c.r[rd] = uint32(c.bus.Read16(addrUsed))
	case load && sh == 2: // LDRSB
		c.r[rd] = uint32(int32(int8(c.bus.Read8(addrUsed))))
	case load && sh == 3: // LDRSH
		c.r[rd] = uint32(int32(int16(c.bus.Read16(addrUsed))))
	case !load && sh == 1: // STRH
		c.bus.Write16(addrUsed, uint16(c.r[rd]))
	}

	if !pre || writeback {
		c.r[rn] = effective
	}
	if load {
		return 1 // load-use internal cycle; the access itself is bus-charged
	}
	return 0
}

func armSingleDataTransfer(c *CPU, opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	rd := (opcode >> 12) & 0xF
	load := opcode&(1<<20) != 0
	writeback := opcode&(1<<21) != 0
	byteAccess := opcode&(1<<22) != 0
	up := opcode&(1<<23) != 0
	pre := opcode&(1<<24) != 0
	immOffset := opcode&(1<<25) == 0

	var offset uint32
	if immOffset {
		offset = opcode & 0xFFF
	} else {
		rm := opcode & 0xF
		shiftType := (opcode >> 5) & 0x3
		amount := (opcode >> 7) & 0x1F
		offset, _ = barrelShift(c.r[rm], shiftType, amount, false, c.cpsr&flagC != 0)
	}

	base := c.r[rn]
	var effective uint32
	if up {
		effective = base + offset
	} else {
		effective = base - offset
	}
	addrUsed := base
	if pre {
		addrUsed = effective
	}

	if load {
		if byteAccess {
			c.r[rd] = uint32(c.bus.Read8(addrUsed))
		} else {
			c.r[rd] = rotr32(c.bus.Read32(addrUsed&^3), (addrUsed&3)*8)
		}
	} else {
		v := c.r[rd]
		if rd == 15 {
			v += 4
		}
		if byteAccess {
			c.bus.Write8(addrUsed, uint8(v))
		} else {
			c.bus.Write32(addrUsed&^3, v)
		}
	}

	if !pre || writeback {
		c.r[rn] = effective
	}
	if load && rd == 15 {
		c.flushPipeline(c.r[15] &^ 3)
		return 1 // flushPipeline covers the refill; this is the load-use cycle
	}
	if load {
		return 1
	}
	return 0
}

func armBlockDataTransfer(c *CPU, opcode uint32) int {
	rn := (opcode >> 16) & 0xF
	load := opcode&(1<<20) != 0
	writeback := opcode&(1<<21) != 0
	up := opcode&(1<<23) != 0
	pre := opcode&(1<<24) != 0
	regList := opcode & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}
	if count == 0 {
		count = 16 // empty-list edge case, r15 only, base +/- 0x40
		regList = 1 << 15
	}

	base := c.r[rn]
	var start uint32
	if up {
		start = base
	} else {
		start = base - uint32(count)*4
	}
	addr := start

	step := func(reg int) {
		if pre {
			addr += 4
		}
		if load {
			c.r[reg] = c.bus.Read32(addr)
		} else {
			c.bus.Write32(addr, c.r[reg])
		}
		if !pre {
			addr += 4
		}
	}

	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			step(i)
		}
	}

	if writeback {
		if up {
			c.r[rn] = base + uint32(count)*4
		} else {
			c.r[rn] = base - uint32(count)*4
		}
	}

	if !load {
		return 0
	}
	extra := 1 // load-use internal cycle
	if regList&(1<<15) != 0 {
		c.flushPipeline(c.r[15] &^ 3)
		extra++ // pipeline refill bookkeeping beyond flushPipeline's own bus fetches
	}
	return extra
}

func armBranch(c *CPU, opcode uint32) int {
	link := opcode&(1<<24) != 0
	offset := int32(opcode&0xFFFFFF) << 8 >> 6 // sign-extend 24-bit word offset to a byte offset
	target := uint32(int32(c.r[15]) - 4 + offset)
	if link {
		c.r[14] = c.r[15] - 4
	}
	c.flushPipeline(target)
	return 0
}

func armMRS(c *CPU, opcode uint32) int {
	rd := (opcode >> 12) & 0xF
	fromSPSR := opcode&(1<<22) != 0
	if fromSPSR {
		c.r[rd] = c.spsr()
	} else {
		c.r[rd] = c.cpsr
	}
	return 0
}

func armMSR(c *CPU, opcode uint32) int {
	toSPSR := opcode&(1<<22) != 0
	flagsOnly := opcode&(1<<16) == 0

	var value uint32
	if opcode&(1<<25) != 0 {
		imm := opcode & 0xFF
		rot := (opcode >> 8) & 0xF * 2
		value = rotr32(imm, rot)
	} else {
		value = c.r[opcode&0xF]
	}

	mask := uint32(0xFFFFFFFF)
	if flagsOnly {
		mask = 0xF0000000
	}

	if toSPSR {
		cur := c.spsr()
		c.setSPSR((cur &^ mask) | (value & mask))
		return 0
	}
	cur := c.cpsr
	next := (cur &^ mask) | (value & mask)
	if flagsOnly {
		c.cpsr = next
	} else {
		c.setCPSR(next)
	}
	return 0
}

func armSWI(c *CPU, opcode uint32) int {
	c.EnterException(ModeSupervisor, 0x08, 4, false)
	return 0
}

func armUndefined(c *CPU, opcode uint32) int {
	c.EnterException(ModeUndefined, 0x04, 4, false)
	return 0
}
