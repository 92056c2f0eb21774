// Package video implements the scanline pixel pipeline described in
// spec.md §4.4: six display modes, four backgrounds, 128 sprites, three
// windows and a blend unit, driven by a four-state scanline machine.
//
// The state machine and the background/window/sprite three-pass render
// generalize the teacher's single-resolution DMG pipeline
// (jeebie/video/gpu.go: hblankMode/vblankMode/oamReadMode/vramReadMode)
// to the GBA's hdraw/hblank/vblank-hdraw/vblank-hblank states and its
// six display modes.
package video

import (
	"log/slog"

	"github.com/valerio/go-gba/core/addr"
	"github.com/valerio/go-gba/core/irq"
)

const (
	hdrawCycles  = 960 + 46
	hblankCycles = 226
	scanlineTotal = hdrawCycles + hblankCycles
	visibleLines  = 160
	totalLines    = 228
)

type scanState uint8

const (
	stateHDraw scanState = iota
	stateHBlank
	stateVBlankHDraw
	stateVBlankHBlank
)

// DMATiming identifies which DMA start-timing condition just occurred,
// so the bus can notify dma.Controller (spec.md §4.4 transition table).
type DMATiming int

const (
	TimingHBlank DMATiming = iota
	TimingVBlank
)

// GPU owns all pixel-pipeline state: registers, palette/VRAM/OAM, the
// scanline state machine, and the output framebuffer.
type GPU struct {
	dispcnt  displayControl
	dispstat displayStatus
	vcount   int

	bg      [4]bgControl
	bgHOFS  [4]uint16
	bgVOFS  [4]uint16
	bgAff   [2]affine // index 0 -> BG2, index 1 -> BG3

	win0, win1   window
	winOutLayers [4]bool
	winOutObj    bool
	winOutBlend  bool
	objWinLayers [4]bool
	objWinBlend  bool

	blendCnt   blendControl
	blendAlpha blendCoefficients
	blendY     uint8

	paletteRAM [1024]byte
	vram       [0x20000]byte // 128 KiB addressable, upper 32 of it mirrors 0x10000-0x17FFF
	oam        [1024]byte

	state         scanState
	cycleInLine   int
	frameBuf      FrameBuffer
	device        Device
	raise         irq.Raiser
	notifyDMA     func(DMATiming)

	bgLine  [4][Width]Color15
	objBuf  [Width]objPixel
}

// New constructs a GPU wired to raise the LCD interrupts through raise
// and to notify dma on hblank/vblank start through notifyDMA.
func New(raise irq.Raiser, notifyDMA func(DMATiming)) *GPU {
	g := &GPU{
		raise:     raise,
		notifyDMA: notifyDMA,
	}
	g.dispstat.vblank = false
	return g
}

// Tick advances the pixel pipeline by cycles CPU cycles, running the
// four-state scanline machine (spec.md §4.4 transition table).
func (g *GPU) Tick(cycles int) {
	g.cycleInLine += cycles

	for {
		switch g.state {
		case stateHDraw:
			if g.cycleInLine < hdrawCycles {
				return
			}
			g.cycleInLine -= hdrawCycles
			g.dispstat.hblank = true
			if g.dispstat.hblankIRQ {
				g.raise(addr.IRQHBlank)
			}
			g.notifyDMA(TimingHBlank)
			g.state = stateHBlank

		case stateHBlank:
			if g.cycleInLine < hblankCycles {
				return
			}
			g.cycleInLine -= hblankCycles
			g.vcount++
			g.dispstat.hblank = false
			g.compareVCount()

			if g.vcount < visibleLines {
				g.renderScanline()
				g.advanceAffine()
				g.state = stateHDraw
			} else {
				g.latchAffineRef()
				g.dispstat.vblank = true
				if g.dispstat.vblankIRQ {
					g.raise(addr.IRQVBlank)
				}
				g.notifyDMA(TimingVBlank)
				g.present()
				g.state = stateVBlankHDraw
			}

		case stateVBlankHDraw:
			if g.cycleInLine < hdrawCycles {
				return
			}
			g.cycleInLine -= hdrawCycles
			g.dispstat.hblank = true
			if g.dispstat.hblankIRQ {
				g.raise(addr.IRQHBlank)
			}
			g.state = stateVBlankHBlank

		case stateVBlankHBlank:
			if g.cycleInLine < hblankCycles {
				return
			}
			g.cycleInLine -= hblankCycles
			g.dispstat.hblank = false
			next := g.vcount + 1
			if next == totalLines {
				g.vcount = 0
				g.dispstat.vblank = false
				g.compareVCount()
				g.renderScanline()
				g.advanceAffine()
				g.state = stateHDraw
			} else {
				g.vcount = next
				g.compareVCount()
				g.state = stateVBlankHDraw
			}
		}
	}
}

func (g *GPU) compareVCount() {
	g.dispstat.vcounter = uint8(g.vcount) == g.dispstat.lyc
	if g.dispstat.vcounter && g.dispstat.vcountIRQ {
		g.raise(addr.IRQVCount)
	}
}

func (g *GPU) latchAffineRef() {
	for i := range g.bgAff {
		g.bgAff[i].curX = g.bgAff[i].refX
		g.bgAff[i].curY = g.bgAff[i].refY
	}
}

func (g *GPU) advanceAffine() {
	for i := range g.bgAff {
		a := &g.bgAff[i]
		a.curX += int32(a.pb)
		a.curY += int32(a.pd)
	}
}

// present expands the completed frame and calls the video device's
// Render callback once (spec.md §6).
func (g *GPU) present() {
	if g.device == nil {
		return
	}
	var buf [Width * Height * 4]byte
	g.frameBuf.Present(buf[:])
	g.device.Render(buf[:])
}

// SetDevice wires (or rewires) the video collaborator.
func (g *GPU) SetDevice(d Device) { g.device = d }

// renderScanline fills g.frameBuf's current line, invariant: exactly
// Width pixels are written for vcount in [0, visibleLines) (spec.md §8).
func (g *GPU) renderScanline() {
	line := g.vcount
	if g.dispcnt.forceBlank {
		for x := 0; x < Width; x++ {
			g.frameBuf.Set(x, line, 0x7FFF) // white, non-transparent
		}
		return
	}

	g.drawObjects(line)
	g.drawBackgrounds(line)
	g.compose(line)
}

// ReadVRAM8/16/32 resolve the documented mirror: addresses above
// 0x18000 within the 128 KiB addressable space mirror back by 0x8000
// (spec.md §4.2 "VRAM above 0x18000 mirrors back by 0x8000").
func (g *GPU) vramIndex(offset uint32) uint32 {
	offset &= 0x1FFFF
	if offset >= 0x18000 {
		offset -= 0x8000
	}
	return offset
}

func (g *GPU) ReadVRAM8(offset uint32) byte {
	return g.vram[g.vramIndex(offset)]
}

func (g *GPU) WriteVRAM8(offset uint32, value byte) {
	// Byte writes to OBJ tile VRAM (>= 0x10000 in tile modes, >= 0x14000
	// in bitmap modes) are ignored on real hardware; everything else
	// mirrors the byte into both halves of the aligned halfword
	// (spec.md §8 round-trip property).
	idx := g.vramIndex(offset)
	objBoundary := uint32(0x14000)
	if g.dispcnt.mode < 3 {
		objBoundary = 0x10000
	}
	if idx >= objBoundary {
		slog.Debug("ignored byte write to OBJ VRAM", "offset", offset)
		return
	}
	aligned := idx &^ 1
	g.vram[aligned] = value
	g.vram[aligned+1] = value
}

func (g *GPU) ReadVRAM16(offset uint32) uint16 {
	idx := g.vramIndex(offset & ^uint32(1))
	return uint16(g.vram[idx]) | uint16(g.vram[idx+1])<<8
}

func (g *GPU) WriteVRAM16(offset uint32, value uint16) {
	idx := g.vramIndex(offset & ^uint32(1))
	g.vram[idx] = byte(value)
	g.vram[idx+1] = byte(value >> 8)
}

func (g *GPU) ReadVRAM32(offset uint32) uint32 {
	lo := g.ReadVRAM16(offset)
	hi := g.ReadVRAM16(offset + 2)
	return uint32(lo) | uint32(hi)<<16
}

func (g *GPU) WriteVRAM32(offset uint32, value uint32) {
	g.WriteVRAM16(offset, uint16(value))
	g.WriteVRAM16(offset+2, uint16(value>>16))
}

// Palette and OAM are natively 16-bit buses (spec.md bus region table).

func (g *GPU) ReadPalette16(offset uint32) uint16 {
	idx := offset & 0x3FE
	return uint16(g.paletteRAM[idx]) | uint16(g.paletteRAM[idx+1])<<8
}

func (g *GPU) WritePalette16(offset uint32, value uint16) {
	idx := offset & 0x3FE
	g.paletteRAM[idx] = byte(value)
	g.paletteRAM[idx+1] = byte(value >> 8)
}

func (g *GPU) paletteColor(idx uint16) Color15 {
	return Color15(g.ReadPalette16(uint32(idx) * 2))
}

func (g *GPU) ReadOAM32(offset uint32) uint32 {
	idx := offset & 0x3FC
	return uint32(g.oam[idx]) | uint32(g.oam[idx+1])<<8 | uint32(g.oam[idx+2])<<16 | uint32(g.oam[idx+3])<<24
}

func (g *GPU) WriteOAM32(offset uint32, value uint32) {
	idx := offset & 0x3FC
	g.oam[idx] = byte(value)
	g.oam[idx+1] = byte(value >> 8)
	g.oam[idx+2] = byte(value >> 16)
	g.oam[idx+3] = byte(value >> 24)
}

func (g *GPU) oamReadByte(offset uint32) byte {
	return g.oam[offset&0x3FF]
}
