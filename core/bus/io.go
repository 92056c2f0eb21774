package bus

import (
	"github.com/valerio/go-gba/core/addr"
	"github.com/valerio/go-gba/core/sched"
)

// SetHaltCallback wires the CPU's Halt() through HALTCNT writes,
// keeping the bus from holding a direct *cpu.CPU reference (spec.md
// §9's narrow-capability pattern, same shape as irq.Raiser).
func (b *Bus) SetHaltCallback(onHalt func()) { b.onHalt = onHalt }

func (b *Bus) readIO16(offset uint32) uint16 {
	switch {
	case offset <= addr.BLDY:
		return b.video.ReadIO16(offset)
	case offset >= addr.DMA0SAD && offset <= addr.DMA3CNT_H:
		return b.readDMAReg(offset)
	case offset >= addr.TM0CNT_L && offset <= addr.TM3CNT_H:
		return b.readTimerReg(offset)
	case offset == addr.KEYINPUT:
		return b.keyinput
	case offset == addr.KEYCNT:
		return b.keycnt
	case offset == addr.IE:
		return b.irqc.ReadIE()
	case offset == addr.IF:
		return b.irqc.ReadIF()
	case offset == addr.WAITCNT:
		return b.waitcnt
	case offset == addr.IME:
		if b.irqc.ReadIME() {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (b *Bus) writeIO16(offset uint32, value uint16) {
	switch {
	case offset <= addr.BLDY:
		b.video.WriteIO16(offset, value)
	case offset >= addr.DMA0SAD && offset <= addr.DMA3CNT_H:
		b.writeDMAReg(offset, value)
	case offset >= addr.TM0CNT_L && offset <= addr.TM3CNT_H:
		b.writeTimerReg(offset, value)
	case offset == addr.KEYCNT:
		b.keycnt = value
	case offset == addr.IE:
		b.irqc.WriteIE(value)
	case offset == addr.IF:
		b.irqc.WriteIF(value)
	case offset == addr.WAITCNT:
		b.waitcnt = value
		b.ws = decodeWaitStates(value)
	case offset == addr.IME:
		b.irqc.WriteIME(value&1 != 0)
	case offset == addr.HALTCNT:
		if b.onHalt != nil {
			b.onHalt()
		}
	}
}

func (b *Bus) readDMAReg(offset uint32) uint16 {
	idx, sub := dmaChannelOf(offset)
	switch sub {
	case dmaRegCntH:
		return b.dma.ReadControlHigh(idx)
	default:
		return 0 // SAD/DAD/CNT_L are write-only on real hardware
	}
}

func (b *Bus) writeDMAReg(offset uint32, value uint16) {
	idx, sub := dmaChannelOf(offset)
	switch sub {
	case dmaRegSADLow:
		b.dmaSADShadow[idx] = (b.dmaSADShadow[idx] &^ 0xFFFF) | uint32(value)
		b.dma.WriteSAD(idx, b.dmaSADShadow[idx])
	case dmaRegSADHigh:
		b.dmaSADShadow[idx] = (b.dmaSADShadow[idx] & 0xFFFF) | uint32(value)<<16
		b.dma.WriteSAD(idx, b.dmaSADShadow[idx])
	case dmaRegDADLow:
		b.dmaDADShadow[idx] = (b.dmaDADShadow[idx] &^ 0xFFFF) | uint32(value)
		b.dma.WriteDAD(idx, b.dmaDADShadow[idx])
	case dmaRegDADHigh:
		b.dmaDADShadow[idx] = (b.dmaDADShadow[idx] & 0xFFFF) | uint32(value)<<16
		b.dma.WriteDAD(idx, b.dmaDADShadow[idx])
	case dmaRegCntL:
		b.dma.WriteCountLow(idx, value)
	case dmaRegCntH:
		if b.dma.WriteControlHigh(idx, value) {
			b.scheduler.Schedule(sched.DMAActivate, b.cyclesInFrame+3, idx)
		}
	}
}

type dmaRegKind int

const (
	dmaRegSADLow dmaRegKind = iota
	dmaRegSADHigh
	dmaRegDADLow
	dmaRegDADHigh
	dmaRegCntL
	dmaRegCntH
)

func dmaChannelOf(offset uint32) (idx int, kind dmaRegKind) {
	rel := offset - addr.DMA0SAD
	idx = int(rel / 0x0C)
	switch rel % 0x0C {
	case 0x0:
		kind = dmaRegSADLow
	case 0x2:
		kind = dmaRegSADHigh
	case 0x4:
		kind = dmaRegDADLow
	case 0x6:
		kind = dmaRegDADHigh
	case 0x8:
		kind = dmaRegCntL
	default:
		kind = dmaRegCntH
	}
	return
}

func (b *Bus) readTimerReg(offset uint32) uint16 {
	idx, high := timerChannelOf(offset)
	if high {
		return b.timer.ReadControl(idx)
	}
	return b.timer.ReadCounter(idx, b.cyclesInFrame)
}

func (b *Bus) writeTimerReg(offset uint32, value uint16) {
	idx, high := timerChannelOf(offset)
	if high {
		b.timer.WriteControl(idx, value, b.cyclesInFrame, b.scheduler)
	} else {
		b.timer.WriteReload(idx, value)
	}
}

func timerChannelOf(offset uint32) (idx int, high bool) {
	rel := offset - addr.TM0CNT_L
	idx = int(rel / 4)
	high = rel%4 == 2
	return
}
