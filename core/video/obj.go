package video

// objPixel is one sprite layer's contribution to a single column of the
// current scanline (spec.md §4.4 step 1, the sprite pass that precedes
// background composition).
type objPixel struct {
	opaque          bool
	color           Color15
	priority        uint8
	semiTransparent bool // OBJ mode 1: forces alpha blending as target A
	windowOnly      bool // OBJ mode 2: marks the OBJ window, never drawn
}

// OAM attribute layout (spec.md §4.4 "sprite attributes"), 8 bytes per
// of the 128 entries: attr0/1/2 as 16-bit little-endian halves.
const (
	oamEntrySize  = 8
	oamEntryCount = 128
)

type oamEntry struct {
	y            int
	affine       bool
	doubleSize   bool
	disabled     bool
	shape        uint8
	x            int
	hFlip        bool
	vFlip        bool
	affineIdx    uint8
	tileIndex    uint16
	priority     uint8
	paletteBank  uint8
	depth8bpp    bool
	size         uint8
	mode         uint8 // 0 normal, 1 semi-transparent, 2 window, 3 reserved
	mosaic       bool
}

func (g *GPU) readOAMEntry(idx int) oamEntry {
	base := uint32(idx * oamEntrySize)
	attr0 := uint16(g.oamReadByte(base)) | uint16(g.oamReadByte(base+1))<<8
	attr1 := uint16(g.oamReadByte(base+2)) | uint16(g.oamReadByte(base+3))<<8
	attr2 := uint16(g.oamReadByte(base+4)) | uint16(g.oamReadByte(base+5))<<8

	var e oamEntry
	e.y = int(attr0 & 0xFF)
	e.affine = attr0&(1<<8) != 0
	if e.affine {
		e.doubleSize = attr0&(1<<9) != 0
	} else {
		e.disabled = attr0&(1<<9) != 0
	}
	e.mode = uint8((attr0 >> 10) & 0x3)
	e.mosaic = attr0&(1<<12) != 0
	e.depth8bpp = attr0&(1<<13) != 0
	e.shape = uint8((attr0 >> 14) & 0x3)

	e.x = int(attr1 & 0x1FF)
	if e.affine {
		e.affineIdx = uint8((attr1 >> 9) & 0x1F)
	} else {
		e.hFlip = attr1&(1<<12) != 0
		e.vFlip = attr1&(1<<13) != 0
	}
	e.size = uint8((attr1 >> 14) & 0x3)

	e.tileIndex = attr2 & 0x3FF
	e.priority = uint8((attr2 >> 10) & 0x3)
	e.paletteBank = uint8((attr2 >> 12) & 0xF)

	return e
}

// spriteDims returns the sprite's (width, height) in pixels for a
// shape/size pair (spec.md sprite size table).
func spriteDims(shape, size uint8) (w, h int) {
	table := [4][4][2]int{
		{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
		{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // wide
		{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // tall
		{{8, 8}, {8, 8}, {8, 8}, {8, 8}},          // reserved, treated as 8x8
	}
	d := table[shape&0x3][size&0x3]
	return d[0], d[1]
}

func (g *GPU) readAffineParams(idx uint8) (pa, pb, pc, pd int16) {
	base := uint32(idx)*32 + 6
	read := func(off uint32) int16 {
		return int16(uint16(g.oamReadByte(base+off)) | uint16(g.oamReadByte(base+off+1))<<8)
	}
	pa = read(0)
	pb = read(8)
	pc = read(16)
	pd = read(24)
	return
}

// drawObjects walks all 128 OAM entries for scanline `line`, writing the
// highest-priority opaque pixel per column into g.objBuf (spec.md §4.4
// step 1: "sprites are composited before backgrounds, respecting
// per-pixel priority against background layers").
func (g *GPU) drawObjects(line int) {
	for x := range g.objBuf {
		g.objBuf[x] = objPixel{}
	}
	if !g.dispcnt.objEnable {
		return
	}

	for i := 0; i < oamEntryCount; i++ {
		e := g.readOAMEntry(i)
		if !e.affine && e.disabled {
			continue
		}

		w, h := spriteDims(e.shape, e.size)
		boundW, boundH := w, h
		if e.affine && e.doubleSize {
			boundW, boundH = w*2, h*2
		}

		y := e.y
		if y >= 256-boundH && y < 256 {
			y -= 256 // wraparound: sprite y is a byte, values near 256 mean negative
		}
		if line < y || line >= y+boundH {
			continue
		}

		x0 := e.x
		if x0 >= 512-boundW && x0 < 512 {
			x0 -= 512
		}

		rowInBound := line - y
		if e.affine {
			g.drawAffineSpriteRow(e, x0, boundW, boundH, w, h, rowInBound)
		} else {
			g.drawRegularSpriteRow(e, x0, w, h, rowInBound)
		}
	}
}

func (g *GPU) drawRegularSpriteRow(e oamEntry, x0, w, h, rowInBound int) {
	row := rowInBound
	if e.vFlip {
		row = h - 1 - row
	}
	tileRow := row / 8
	pixelRow := row % 8

	for col := 0; col < w; col++ {
		px := x0 + col
		if px < 0 || px >= Width {
			continue
		}
		srow := col
		if e.hFlip {
			srow = w - 1 - col
		}
		tileCol := srow / 8
		pixelCol := srow % 8
		color, opaque := g.spritePixelColor(e, tileRow, tileCol, pixelRow, pixelCol, w/8)
		g.plotObjPixel(px, e, color, opaque)
	}
}

func (g *GPU) drawAffineSpriteRow(e oamEntry, x0, boundW, boundH, w, h, rowInBound int) {
	pa, pb, pc, pd := g.readAffineParams(e.affineIdx)
	// Texture-space origin is the sprite's own center; screen-space
	// origin is the bounding box's center (spec.md affine sprite rule).
	halfBoundW, halfBoundH := boundW/2, boundH/2
	halfW, halfH := w/2, h/2

	screenY := rowInBound - halfBoundH
	for col := 0; col < boundW; col++ {
		px := x0 + col
		if px < 0 || px >= Width {
			continue
		}
		screenX := col - halfBoundW

		texX := (int(pa)*screenX + int(pb)*screenY) >> 8
		texY := (int(pc)*screenX + int(pd)*screenY) >> 8
		texX += halfW
		texY += halfH
		if texX < 0 || texX >= w || texY < 0 || texY >= h {
			continue
		}

		tileRow := texY / 8
		tileCol := texX / 8
		pixelRow := texY % 8
		pixelCol := texX % 8
		color, opaque := g.spritePixelColor(e, tileRow, tileCol, pixelRow, pixelCol, w/8)
		g.plotObjPixel(px, e, color, opaque)
	}
}

func (g *GPU) plotObjPixel(px int, e oamEntry, color Color15, opaque bool) {
	if !opaque {
		return
	}
	cur := &g.objBuf[px]
	if cur.opaque && cur.priority <= e.priority {
		return
	}
	if e.mode == 2 {
		cur.windowOnly = true
		return
	}
	*cur = objPixel{
		opaque:          true,
		color:           color,
		priority:        e.priority,
		semiTransparent: e.mode == 1,
	}
}

// spritePixelColor resolves one sprite texel to a palette color. OBJ
// tile VRAM begins at 0x10000 within the 128 KiB addressable space
// (spec.md §4.2); tiles are laid out 1D or 2D per DISPCNT.objMapping1D.
func (g *GPU) spritePixelColor(e oamEntry, tileRow, tileCol, pixelRow, pixelCol, tilesPerRow int) (Color15, bool) {
	const objBase = 0x10000
	tilesWide := 32
	if e.depth8bpp {
		tilesWide = 16
	}

	var tileNumber int
	if g.dispcnt.objMapping1D {
		tileNumber = int(e.tileIndex) + tileRow*tilesPerRow + tileCol
	} else {
		tileNumber = int(e.tileIndex) + tileRow*tilesWide + tileCol
	}

	if e.depth8bpp {
		off := uint32(objBase + tileNumber*64 + pixelRow*8 + pixelCol)
		idx := g.ReadVRAM8(off)
		if idx == 0 {
			return 0, false
		}
		return g.paletteColor(uint16(idx)), true
	}

	off := uint32(objBase + tileNumber*32 + pixelRow*4 + pixelCol/2)
	b := g.ReadVRAM8(off)
	var nibble byte
	if pixelCol%2 == 0 {
		nibble = b & 0xF
	} else {
		nibble = b >> 4
	}
	if nibble == 0 {
		return 0, false
	}
	return g.paletteColor(256 + uint16(e.paletteBank)*16 + uint16(nibble)), true
}
