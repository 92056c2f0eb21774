package video

import "github.com/valerio/go-gba/core/addr"

// ReadIO16 serves a 16-bit read of a video-controlled I/O register,
// given its offset relative to addr.IOBase. The normalized form is
// returned directly from each register's own read() (spec.md §8
// round-trip invariant: reserved/write-only bits are masked already).
func (g *GPU) ReadIO16(offset uint32) uint16 {
	switch offset {
	case addr.DISPCNT:
		return g.dispcnt.read()
	case addr.DISPSTAT:
		return g.dispstat.read()
	case addr.VCOUNT:
		return uint16(g.vcount)
	case addr.BG0CNT:
		return g.bg[0].read()
	case addr.BG1CNT:
		return g.bg[1].read()
	case addr.BG2CNT:
		return g.bg[2].read()
	case addr.BG3CNT:
		return g.bg[3].read()
	case addr.WININ:
		return uint16(g.win0.controlByte()) | uint16(g.win1.controlByte())<<8
	case addr.WINOUT:
		return uint16(g.winOutControlByte()) | uint16(g.winObjControlByte())<<8
	case addr.BLDCNT:
		return g.blendCnt.read()
	case addr.BLDALPHA:
		return uint16(g.blendAlpha.evaCoef) | uint16(g.blendAlpha.evbCoef)<<8
	default:
		// Scroll, affine and BLDY are write-only on real hardware;
		// reads return 0 (open-bus-ish but harmless for this core).
		return 0
	}
}

func (g *GPU) winOutControlByte() uint8 {
	var v uint8
	for i, e := range g.winOutLayers {
		if e {
			v |= 1 << uint(i)
		}
	}
	if g.winOutObj {
		v |= 1 << 4
	}
	if g.winOutBlend {
		v |= 1 << 5
	}
	return v
}

func (g *GPU) winObjControlByte() uint8 {
	var v uint8
	for i, e := range g.objWinLayers {
		if e {
			v |= 1 << uint(i)
		}
	}
	if g.objWinBlend {
		v |= 1 << 5
	}
	return v
}

// WriteIO16 applies a 16-bit write to a video register.
func (g *GPU) WriteIO16(offset uint32, value uint16) {
	switch offset {
	case addr.DISPCNT:
		g.dispcnt.write(value)
	case addr.DISPSTAT:
		g.dispstat.write(value)
	case addr.BG0CNT:
		g.bg[0].write(value)
	case addr.BG1CNT:
		g.bg[1].write(value)
	case addr.BG2CNT:
		g.bg[2].write(value)
	case addr.BG3CNT:
		g.bg[3].write(value)
	case addr.BG0HOFS:
		g.bgHOFS[0] = value & 0x1FF
	case addr.BG0VOFS:
		g.bgVOFS[0] = value & 0x1FF
	case addr.BG1HOFS:
		g.bgHOFS[1] = value & 0x1FF
	case addr.BG1VOFS:
		g.bgVOFS[1] = value & 0x1FF
	case addr.BG2HOFS:
		g.bgHOFS[2] = value & 0x1FF
	case addr.BG2VOFS:
		g.bgVOFS[2] = value & 0x1FF
	case addr.BG3HOFS:
		g.bgHOFS[3] = value & 0x1FF
	case addr.BG3VOFS:
		g.bgVOFS[3] = value & 0x1FF
	case addr.BG2PA:
		g.bgAff[0].pa = int16(value)
	case addr.BG2PB:
		g.bgAff[0].pb = int16(value)
	case addr.BG2PC:
		g.bgAff[0].pc = int16(value)
	case addr.BG2PD:
		g.bgAff[0].pd = int16(value)
	case addr.BG3PA:
		g.bgAff[1].pa = int16(value)
	case addr.BG3PB:
		g.bgAff[1].pb = int16(value)
	case addr.BG3PC:
		g.bgAff[1].pc = int16(value)
	case addr.BG3PD:
		g.bgAff[1].pd = int16(value)
	case addr.BG2X:
		g.setAffineRefLow(0, true, value)
	case addr.BG2X + 2:
		g.setAffineRefHigh(0, true, value)
	case addr.BG2Y:
		g.setAffineRefLow(0, false, value)
	case addr.BG2Y + 2:
		g.setAffineRefHigh(0, false, value)
	case addr.BG3X:
		g.setAffineRefLow(1, true, value)
	case addr.BG3X + 2:
		g.setAffineRefHigh(1, true, value)
	case addr.BG3Y:
		g.setAffineRefLow(1, false, value)
	case addr.BG3Y + 2:
		g.setAffineRefHigh(1, false, value)
	case addr.WIN0H:
		g.win0.writeH(value)
	case addr.WIN1H:
		g.win1.writeH(value)
	case addr.WIN0V:
		g.win0.writeV(value)
	case addr.WIN1V:
		g.win1.writeV(value)
	case addr.WININ:
		g.win0.writeControl(uint8(value))
		g.win1.writeControl(uint8(value >> 8))
	case addr.WINOUT:
		g.writeWinOut(uint8(value))
		g.writeObjWin(uint8(value >> 8))
	case addr.BLDCNT:
		g.blendCnt.write(value)
	case addr.BLDALPHA:
		g.blendAlpha.evaCoef = saturatingCoef(uint8(value) & 0x1F)
		g.blendAlpha.evbCoef = saturatingCoef(uint8(value>>8) & 0x1F)
	case addr.BLDY:
		g.blendY = saturatingCoef(uint8(value) & 0x1F)
	}
}

func (g *GPU) writeWinOut(v uint8) {
	for i := 0; i < 4; i++ {
		g.winOutLayers[i] = v&(1<<uint(i)) != 0
	}
	g.winOutObj = v&(1<<4) != 0
	g.winOutBlend = v&(1<<5) != 0
}

func (g *GPU) writeObjWin(v uint8) {
	for i := 0; i < 4; i++ {
		g.objWinLayers[i] = v&(1<<uint(i)) != 0
	}
	g.objWinBlend = v&(1<<5) != 0
}

// setAffineRefLow/High latch a 28-bit signed fixed-point reference
// point; writes immediately reload the live accumulator on real
// hardware, matching this core's curX/curY semantics.
func (g *GPU) setAffineRefLow(bg int, isX bool, lo uint16) {
	a := &g.bgAff[bg]
	if isX {
		a.refX = combineRef(lo, uint16(uint32(a.refX)>>16))
		a.curX = a.refX
	} else {
		a.refY = combineRef(lo, uint16(uint32(a.refY)>>16))
		a.curY = a.refY
	}
}

func (g *GPU) setAffineRefHigh(bg int, isX bool, hi uint16) {
	a := &g.bgAff[bg]
	if isX {
		a.refX = combineRef(uint16(uint32(a.refX)), hi)
		a.curX = a.refX
	} else {
		a.refY = combineRef(uint16(uint32(a.refY)), hi)
		a.curY = a.refY
	}
}

func combineRef(lo, hi uint16) int32 {
	return fixed16(lo, hi)
}
