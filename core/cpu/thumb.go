package cpu

import "sync"

// thumbHandler executes one decoded Thumb instruction and returns its
// internal-only extra cycle cost; memory access cost is bus-charged
// and folded in by CPU.Step, mirroring armHandler.
type thumbHandler func(c *CPU, opcode uint16) int

var (
	thumbTable     [1024]thumbHandler
	thumbTableOnce sync.Once
)

// execThumb dispatches through the 1024-entry table keyed by bits
// 15..6 (spec.md §4.1 "Thumb decode table").
func (c *CPU) execThumb(opcode uint16) int {
	thumbTableOnce.Do(buildThumbTable)
	return thumbTable[opcode>>6](c, opcode)
}

func buildThumbTable() {
	for i := range thumbTable {
		thumbTable[i] = classifyThumb(uint16(i) << 6)
	}
}

func classifyThumb(opcode uint16) thumbHandler {
	switch {
	case opcode&0xF800 == 0x1800:
		return thumbAddSub
	case opcode&0xE000 == 0x0000:
		return thumbShiftImm
	case opcode&0xE000 == 0x2000:
		return thumbImmOp
	case opcode&0xFC00 == 0x4000:
		return thumbALU
	case opcode&0xFC00 == 0x4400:
		return thumbHiRegOps
	case opcode&0xF800 == 0x4800:
		return thumbLoadPCRel
	case opcode&0xF200 == 0x5000:
		return thumbLoadStoreReg
	case opcode&0xF200 == 0x5200:
		return thumbLoadStoreSigned
	case opcode&0xE000 == 0x6000:
		return thumbLoadStoreImm
	case opcode&0xF000 == 0x8000:
		return thumbLoadStoreHalfword
	case opcode&0xF000 == 0x9000:
		return thumbLoadStoreSPRel
	case opcode&0xF000 == 0xA000:
		return thumbLoadAddr
	case opcode&0xFF00 == 0xB000:
		return thumbAddSP
	case opcode&0xF600 == 0xB400:
		return thumbPushPop
	case opcode&0xF000 == 0xC000:
		return thumbBlockTransfer
	case opcode&0xFF00 == 0xDF00:
		return thumbSWI
	case opcode&0xF000 == 0xD000:
		return thumbCondBranch
	case opcode&0xF800 == 0xE000:
		return thumbBranch
	case opcode&0xF000 == 0xF000:
		return thumbLongBranchLink
	default:
		return thumbUndefined
	}
}

func thumbShiftImm(c *CPU, opcode uint16) int {
	op := (opcode >> 11) & 0x3
	amount := uint32((opcode >> 6) & 0x1F)
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	result, carry := barrelShift(c.r[rs], uint32(op), amount, false, c.cpsr&flagC != 0)
	c.r[rd] = result
	c.setNZ(result)
	c.setC(carry)
	return 0
}

func thumbAddSub(c *CPU, opcode uint16) int {
	imm := opcode&(1<<10) != 0
	sub := opcode&(1<<9) != 0
	rn := (opcode >> 6) & 0x7
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	var operand uint32
	if imm {
		operand = uint32(rn)
	} else {
		operand = c.r[rn]
	}
	n := c.r[rs]

	var result uint32
	if sub {
		result = n - operand
		c.setC(n >= operand)
		c.setV(subOverflow(n, operand, result))
	} else {
		sum := uint64(n) + uint64(operand)
		result = uint32(sum)
		c.setC(sum > 0xFFFFFFFF)
		c.setV(addOverflow(n, operand, result))
	}
	c.r[rd] = result
	c.setNZ(result)
	return 0
}

func thumbImmOp(c *CPU, opcode uint16) int {
	op := (opcode >> 11) & 0x3
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode & 0xFF)
	n := c.r[rd]

	switch op {
	case 0: // MOV
		c.r[rd] = imm
		c.setNZ(imm)
	case 1: // CMP
		result := n - imm
		c.setNZ(result)
		c.setC(n >= imm)
		c.setV(subOverflow(n, imm, result))
	case 2: // ADD
		sum := uint64(n) + uint64(imm)
		result := uint32(sum)
		c.r[rd] = result
		c.setNZ(result)
		c.setC(sum > 0xFFFFFFFF)
		c.setV(addOverflow(n, imm, result))
	default: // SUB
		result := n - imm
		c.r[rd] = result
		c.setNZ(result)
		c.setC(n >= imm)
		c.setV(subOverflow(n, imm, result))
	}
	return 0
}

func thumbALU(c *CPU, opcode uint16) int {
	op := (opcode >> 6) & 0xF
	rs := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	n := c.r[rd]
	m := c.r[rs]

	var result uint32
	write := true
	switch op {
	case 0x0:
		result = n & m
	case 0x1:
		result = n ^ m
	case 0x2:
		result, _ = barrelShift(n, 0, m&0xFF, true, c.cpsr&flagC != 0)
		c.setC(shiftCarryOut(n, 0, m&0xFF))
	case 0x3:
		result, _ = barrelShift(n, 1, m&0xFF, true, c.cpsr&flagC != 0)
		c.setC(shiftCarryOut(n, 1, m&0xFF))
	case 0x4:
		result, _ = barrelShift(n, 2, m&0xFF, true, c.cpsr&flagC != 0)
		c.setC(shiftCarryOut(n, 2, m&0xFF))
	case 0x5:
		carry := uint64(0)
		if c.cpsr&flagC != 0 {
			carry = 1
		}
		sum := uint64(n) + uint64(m) + carry
		result = uint32(sum)
		c.setC(sum > 0xFFFFFFFF)
		c.setV(addOverflow(n, m, result))
	case 0x6:
		borrow := uint64(1)
		if c.cpsr&flagC != 0 {
			borrow = 0
		}
		diff := uint64(n) - uint64(m) - borrow
		result = uint32(diff)
		c.setC(uint64(n) >= uint64(m)+borrow)
		c.setV(subOverflow(n, m, result))
	case 0x7:
		result, _ = barrelShift(n, 3, m&0xFF, true, c.cpsr&flagC != 0)
		c.setC(shiftCarryOut(n, 3, m&0xFF))
	case 0x8:
		result = n & m
		write = false
	case 0x9:
		result = 0 - m
		write = true
		c.setC(0 >= m)
		c.setV(subOverflow(0, m, result))
	case 0xA:
		result = n - m
		write = false
		c.setC(n >= m)
		c.setV(subOverflow(n, m, result))
	case 0xB:
		sum := uint64(n) + uint64(m)
		result = uint32(sum)
		write = false
		c.setC(sum > 0xFFFFFFFF)
		c.setV(addOverflow(n, m, result))
	case 0xC:
		result = n | m
	case 0xD:
		result = n * m
	case 0xE:
		result = n &^ m
	default:
		result = ^m
	}

	if write {
		c.r[rd] = result
	}
	c.setNZ(result)
	extra := 0
	if op == 0x2 || op == 0x3 || op == 0x4 || op == 0x7 || op == 0xD {
		extra = 1 // shift-by-register and multiply cost an extra internal cycle
	}
	return extra
}

func shiftCarryOut(value uint32, shiftType uint32, amount uint32) bool {
	_, carry := barrelShift(value, shiftType, amount, true, false)
	return carry
}

func thumbHiRegOps(c *CPU, opcode uint16) int {
	op := (opcode >> 8) & 0x3
	hRd := opcode&(1<<7) != 0
	hRs := opcode&(1<<6) != 0
	rs := uint32((opcode >> 3) & 0x7)
	rd := uint32(opcode & 0x7)
	if hRs {
		rs += 8
	}
	if hRd {
		rd += 8
	}

	switch op {
	case 0: // ADD
		result := c.r[rd] + c.r[rs]
		c.r[rd] = result
		if rd == 15 {
			c.flushPipeline(result &^ 1)
			return 0
		}
	case 1: // CMP
		n := c.r[rd]
		m := c.r[rs]
		result := n - m
		c.setNZ(result)
		c.setC(n >= m)
		c.setV(subOverflow(n, m, result))
	case 2: // MOV
		c.r[rd] = c.r[rs]
		if rd == 15 {
			c.flushPipeline(c.r[rd] &^ 1)
			return 0
		}
	default: // BX/BLX
		target := c.r[rs]
		if target&1 != 0 {
			c.cpsr |= flagT
		} else {
			c.cpsr &^= flagT
		}
		c.flushPipeline(target &^ 1)
		return 0
	}
	return 0
}

func thumbLoadPCRel(c *CPU, opcode uint16) int {
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4
	base := (c.r[15] &^ 3) + imm
	c.r[rd] = c.bus.Read32(base)
	return 1
}

func thumbLoadStoreReg(c *CPU, opcode uint16) int {
	opB := (opcode >> 10) & 0x3 // 0:STR 1:STRB 2:LDR 3:LDRB
	ro := (opcode >> 6) & 0x7
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	addr := c.r[rb] + c.r[ro]

	switch opB {
	case 0:
		c.bus.Write32(addr&^3, c.r[rd])
		return 0
	case 1:
		c.bus.Write8(addr, uint8(c.r[rd]))
		return 0
	case 2:
		c.r[rd] = rotr32(c.bus.Read32(addr&^3), (addr&3)*8)
		return 1
	default:
		c.r[rd] = uint32(c.bus.Read8(addr))
		return 1
	}
}

func thumbLoadStoreSigned(c *CPU, opcode uint16) int {
	opB := (opcode >> 10) & 0x3 // 0:STRH 1:LDSB 2:LDRH 3:LDSH
	ro := (opcode >> 6) & 0x7
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	addr := c.r[rb] + c.r[ro]

	switch opB {
	case 0:
		c.bus.Write16(addr&^1, uint16(c.r[rd]))
		return 0
	case 1:
		c.r[rd] = uint32(int32(int8(c.bus.Read8(addr))))
		return 1
	case 2:
		c.r[rd] = uint32(c.bus.Read16(addr &^ 1))
		return 1
	default:
		c.r[rd] = uint32(int32(int16(c.bus.Read16(addr &^ 1))))
		return 1
	}
}

func thumbLoadStoreImm(c *CPU, opcode uint16) int {
	byteAccess := opcode&(1<<12) != 0
	load := opcode&(1<<11) != 0
	imm := uint32((opcode >> 6) & 0x1F)
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7

	if !byteAccess {
		imm *= 4
	}
	addr := c.r[rb] + imm

	if load {
		if byteAccess {
			c.r[rd] = uint32(c.bus.Read8(addr))
		} else {
			c.r[rd] = rotr32(c.bus.Read32(addr&^3), (addr&3)*8)
		}
		return 1
	}
	if byteAccess {
		c.bus.Write8(addr, uint8(c.r[rd]))
	} else {
		c.bus.Write32(addr&^3, c.r[rd])
	}
	return 0
}

func thumbLoadStoreHalfword(c *CPU, opcode uint16) int {
	load := opcode&(1<<11) != 0
	imm := uint32((opcode>>6)&0x1F) * 2
	rb := (opcode >> 3) & 0x7
	rd := opcode & 0x7
	addr := c.r[rb] + imm

	if load {
		c.r[rd] = uint32(c.bus.Read16(addr &^ 1))
		return 1
	}
	c.bus.Write16(addr&^1, uint16(c.r[rd]))
	return 0
}

func thumbLoadStoreSPRel(c *CPU, opcode uint16) int {
	load := opcode&(1<<11) != 0
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4
	addr := c.r[13] + imm

	if load {
		c.r[rd] = rotr32(c.bus.Read32(addr&^3), (addr&3)*8)
		return 1
	}
	c.bus.Write32(addr&^3, c.r[rd])
	return 0
}

func thumbLoadAddr(c *CPU, opcode uint16) int {
	fromSP := opcode&(1<<11) != 0
	rd := (opcode >> 8) & 0x7
	imm := uint32(opcode&0xFF) * 4
	if fromSP {
		c.r[rd] = c.r[13] + imm
	} else {
		c.r[rd] = (c.r[15] &^ 3) + imm
	}
	return 0
}

func thumbAddSP(c *CPU, opcode uint16) int {
	negative := opcode&(1<<7) != 0
	imm := uint32(opcode&0x7F) * 4
	if negative {
		c.r[13] -= imm
	} else {
		c.r[13] += imm
	}
	return 0
}

func thumbPushPop(c *CPU, opcode uint16) int {
	pop := opcode&(1<<11) != 0
	includeExtra := opcode&(1<<8) != 0
	regList := opcode & 0xFF

	count := 0
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}
	if includeExtra {
		count++
	}

	if pop {
		addr := c.r[13]
		for i := 0; i < 8; i++ {
			if regList&(1<<uint(i)) != 0 {
				c.r[i] = c.bus.Read32(addr)
				addr += 4
			}
		}
		if includeExtra {
			pc := c.bus.Read32(addr)
			addr += 4
			c.flushPipeline(pc &^ 1)
		}
		c.r[13] = addr
		return 1 // load-use internal cycle, regardless of register count
	}

	addr := c.r[13] - uint32(count)*4
	c.r[13] = addr
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			c.bus.Write32(addr, c.r[i])
			addr += 4
		}
	}
	if includeExtra {
		c.bus.Write32(addr, c.r[14])
	}
	return 0
}

func thumbBlockTransfer(c *CPU, opcode uint16) int {
	load := opcode&(1<<11) != 0
	rb := (opcode >> 8) & 0x7
	regList := opcode & 0xFF

	addr := c.r[rb]
	for i := 0; i < 8; i++ {
		if regList&(1<<uint(i)) != 0 {
			if load {
				c.r[i] = c.bus.Read32(addr)
			} else {
				c.bus.Write32(addr, c.r[i])
			}
			addr += 4
		}
	}
	c.r[rb] = addr
	if load {
		return 1
	}
	return 0
}

func thumbSWI(c *CPU, opcode uint16) int {
	c.EnterException(ModeSupervisor, 0x08, 0, false)
	return 0
}

func thumbCondBranch(c *CPU, opcode uint16) int {
	cond := uint32((opcode >> 8) & 0xF)
	if !c.conditionPassed(cond) {
		return 0
	}
	offset := int32(int8(opcode&0xFF)) * 2
	target := uint32(int32(c.r[15]) + offset)
	c.flushPipeline(target)
	return 0
}

func thumbBranch(c *CPU, opcode uint16) int {
	offset := (int32(opcode&0x7FF) << 21) >> 20 // sign-extend 11-bit word offset to bytes
	target := uint32(int32(c.r[15]) + offset)
	c.flushPipeline(target)
	return 0
}

func thumbLongBranchLink(c *CPU, opcode uint16) int {
	low := opcode&(1<<11) != 0
	offset11 := uint32(opcode & 0x7FF)

	if !low {
		signExt := int32(offset11<<21) >> 9 // sign-extend 11-bit high part, pre-shifted by 12
		c.r[14] = uint32(int32(c.r[15]) + signExt)
		return 0
	}
	next := c.r[15] - 2
	target := c.r[14] + offset11*2
	c.r[14] = next | 1
	c.flushPipeline(target)
	return 0
}

func thumbUndefined(c *CPU, opcode uint16) int {
	c.EnterException(ModeUndefined, 0x04, 0, false)
	return 0
}
