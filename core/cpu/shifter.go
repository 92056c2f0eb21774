package cpu

// barrelShift computes an ARM shifter operand. shiftType is bits 6..5,
// amount is either an immediate (bits 11..7) or r[Rs]&0xFF for a
// register shift. carryIn is the current C flag, used when amount==0
// for LSL and as the rotate-through-carry source for RRX (spec.md
// §4.1 "barrel shifter quirks": LSL#0 passes through, LSR/ASR#0 mean
// #32, ROR#0 means RRX).
func barrelShift(value uint32, shiftType uint32, amount uint32, regShift bool, carryIn bool) (uint32, bool) {
	switch shiftType {
	case 0: // LSL
		if amount == 0 {
			return value, carryIn
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0
			}
			return 0, false
		}
		carry := (value>>(32-amount))&1 != 0
		return value << amount, carry

	case 1: // LSR
		if amount == 0 {
			if regShift {
				return value, carryIn
			}
			amount = 32
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&(1<<31) != 0
			}
			return 0, false
		}
		carry := (value>>(amount-1))&1 != 0
		return value >> amount, carry

	case 2: // ASR
		if amount == 0 {
			if regShift {
				return value, carryIn
			}
			amount = 32
		}
		if amount >= 32 {
			if value&(1<<31) != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		carry := (value>>(amount-1))&1 != 0
		return uint32(int32(value) >> amount), carry

	default: // ROR
		if amount == 0 {
			if regShift {
				return value, carryIn
			}
			// ROR#0 encodes RRX: rotate right by 1 through carry.
			result := value >> 1
			if carryIn {
				result |= 1 << 31
			}
			return result, value&1 != 0
		}
		amount &= 31
		if amount == 0 {
			return value, value&(1<<31) != 0
		}
		carry := (value>>(amount-1))&1 != 0
		return rotr32(value, amount), carry
	}
}

func rotr32(v, n uint32) uint32 {
	n &= 31
	return (v >> n) | (v << (32 - n))
}
