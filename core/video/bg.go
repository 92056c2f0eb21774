package video

// drawBackgrounds renders all active backgrounds for the given mode
// into g.bgLine, one full line per background (spec.md §4.4 step 2).
// Modes 0-2 use tile/map backgrounds (with BG2/BG3 optionally affine
// in mode 1/2); modes 3-5 use a single bitmap background on BG2.
func (g *GPU) drawBackgrounds(line int) {
	for i := range g.bgLine {
		for x := range g.bgLine[i] {
			g.bgLine[i][x] = transparent
		}
	}

	switch g.dispcnt.mode {
	case 0:
		for i := 0; i < 4; i++ {
			if g.dispcnt.bgEnable[i] {
				g.drawTextBG(i, line)
			}
		}
	case 1:
		if g.dispcnt.bgEnable[0] {
			g.drawTextBG(0, line)
		}
		if g.dispcnt.bgEnable[1] {
			g.drawTextBG(1, line)
		}
		if g.dispcnt.bgEnable[2] {
			g.drawAffineBG(2, line)
		}
	case 2:
		if g.dispcnt.bgEnable[2] {
			g.drawAffineBG(2, line)
		}
		if g.dispcnt.bgEnable[3] {
			g.drawAffineBG(3, line)
		}
	case 3:
		if g.dispcnt.bgEnable[2] {
			g.drawBitmapMode3(line)
		}
	case 4:
		if g.dispcnt.bgEnable[2] {
			g.drawBitmapMode4(line)
		}
	case 5:
		if g.dispcnt.bgEnable[2] {
			g.drawBitmapMode5(line)
		}
	}
}

// drawTextBG renders one regular (non-affine) background line using its
// scroll registers and tile map (spec.md text-mode background rules).
func (g *GPU) drawTextBG(idx, line int) {
	bg := &g.bg[idx]
	mapW, mapH := bg.tileMapDims()
	y := (line + int(g.bgVOFS[idx])) % (mapH * 8)

	tileY := y / 8
	pixelY := y % 8
	mapBlockY := tileY / 32
	inBlockY := tileY % 32

	for x := 0; x < Width; x++ {
		sx := (x + int(g.bgHOFS[idx])) % (mapW * 8)
		tileX := sx / 8
		pixelX := sx % 8
		mapBlockX := tileX / 32
		inBlockX := tileX % 32

		screenBlocksWide := mapW / 32
		screenIndex := mapBlockY*screenBlocksWide + mapBlockX

		entry := g.readTileMapEntry(bg.screenBlock+uint8(screenIndex), inBlockX, inBlockY)
		tileIdx := entry & 0x3FF
		hFlip := entry&(1<<10) != 0
		vFlip := entry&(1<<11) != 0
		palBank := uint8((entry >> 12) & 0xF)

		row := pixelY
		if vFlip {
			row = 7 - row
		}
		col := pixelX
		if hFlip {
			col = 7 - col
		}

		color, opaque := g.bgTexelColor(bg, tileIdx, row, col, palBank)
		if opaque {
			g.bgLine[idx][x] = color
		}
	}
}

func (g *GPU) readTileMapEntry(screenBlock uint8, tx, ty int) uint16 {
	base := uint32(screenBlock) * 0x800
	off := base + uint32(ty*32+tx)*2
	return g.ReadVRAM16(off)
}

func (g *GPU) bgTexelColor(bg *bgControl, tileIdx uint16, row, col int, palBank uint8) (Color15, bool) {
	charBase := uint32(bg.tileBlock) * 0x4000
	if bg.depth8bpp {
		off := charBase + uint32(tileIdx)*64 + uint32(row*8+col)
		idx := g.ReadVRAM8(off)
		if idx == 0 {
			return 0, false
		}
		return g.paletteColor(uint16(idx)), true
	}
	off := charBase + uint32(tileIdx)*32 + uint32(row*4+col/2)
	b := g.ReadVRAM8(off)
	var nibble byte
	if col%2 == 0 {
		nibble = b & 0xF
	} else {
		nibble = b >> 4
	}
	if nibble == 0 {
		return 0, false
	}
	return g.paletteColor(uint16(palBank)*16 + uint16(nibble)), true
}

// drawAffineBG renders BG2 or BG3 in affine mode using the background's
// latched accumulator curX/curY, stepping by (pa,pc) per column (spec.md
// affine background rule). Out-of-bounds texels either wrap or render
// transparent depending on BGxCNT.wraparound.
func (g *GPU) drawAffineBG(idx, line int) {
	affIdx := idx - 2
	a := &g.bgAff[affIdx]
	bg := &g.bg[idx]
	size := bg.affineDims()

	texX := a.curX
	texY := a.curY

	for x := 0; x < Width; x++ {
		px := int(texX >> 8)
		py := int(texY >> 8)

		if bg.wraparound {
			px = ((px % size) + size) % size
			py = ((py % size) + size) % size
		} else if px < 0 || px >= size || py < 0 || py >= size {
			texX += int32(a.pa)
			texY += int32(a.pc)
			continue
		}

		tileIdx := (py/8)*(size/8) + px/8
		charBase := uint32(bg.tileBlock) * 0x4000
		mapBase := uint32(bg.screenBlock) * 0x800
		mapEntry := g.ReadVRAM8(mapBase + uint32(tileIdx))

		off := charBase + uint32(mapEntry)*64 + uint32((py%8)*8+(px%8))
		colorIdx := g.ReadVRAM8(off)
		if colorIdx != 0 {
			g.bgLine[idx][x] = g.paletteColor(uint16(colorIdx))
		}

		texX += int32(a.pa)
		texY += int32(a.pc)
	}
}

// drawBitmapMode3 renders the mode-3 full-color 16bpp bitmap (spec.md
// bitmap mode table).
func (g *GPU) drawBitmapMode3(line int) {
	for x := 0; x < Width; x++ {
		off := uint32((line*Width + x) * 2)
		g.bgLine[2][x] = Color15(g.ReadVRAM16(off))
	}
}

// drawBitmapMode4 renders the mode-4 paletted bitmap, double-buffered
// via DISPCNT.frameSelect.
func (g *GPU) drawBitmapMode4(line int) {
	frameOffset := uint32(0)
	if g.dispcnt.frameSelect == 1 {
		frameOffset = 0xA000
	}
	for x := 0; x < Width; x++ {
		off := frameOffset + uint32(line*Width+x)
		idx := g.ReadVRAM8(off)
		if idx == 0 {
			continue
		}
		g.bgLine[2][x] = g.paletteColor(uint16(idx))
	}
}

// drawBitmapMode5 renders the mode-5 reduced-resolution (160x128)
// 16bpp double-buffered bitmap.
func (g *GPU) drawBitmapMode5(line int) {
	const modeWidth, modeHeight = 160, 128
	if line >= modeHeight {
		return
	}
	frameOffset := uint32(0)
	if g.dispcnt.frameSelect == 1 {
		frameOffset = 0xA000
	}
	for x := 0; x < modeWidth; x++ {
		off := frameOffset + uint32((line*modeWidth+x)*2)
		g.bgLine[2][x] = Color15(g.ReadVRAM16(off))
	}
}
