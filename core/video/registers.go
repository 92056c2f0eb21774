package video

// displayControl mirrors DISPCNT (spec.md §3 "per-background control" /
// the mode/layer-enable/window-enable bits of the pixel pipeline state).
type displayControl struct {
	mode         uint8
	frameSelect  uint8
	hblankFree   bool
	objMapping1D bool
	forceBlank   bool
	bgEnable     [4]bool
	objEnable    bool
	win0Enable   bool
	win1Enable   bool
	winObjEnable bool
}

func (d *displayControl) write(v uint16) {
	d.mode = uint8(v & 0x7)
	d.frameSelect = uint8((v >> 4) & 1)
	d.hblankFree = v&(1<<5) != 0
	d.objMapping1D = v&(1<<6) != 0
	d.forceBlank = v&(1<<7) != 0
	for i := 0; i < 4; i++ {
		d.bgEnable[i] = v&(1<<(8+uint(i))) != 0
	}
	d.objEnable = v&(1<<12) != 0
	d.win0Enable = v&(1<<13) != 0
	d.win1Enable = v&(1<<14) != 0
	d.winObjEnable = v&(1<<15) != 0
}

func (d *displayControl) read() uint16 {
	var v uint16
	v |= uint16(d.mode)
	v |= uint16(d.frameSelect) << 4
	if d.hblankFree {
		v |= 1 << 5
	}
	if d.objMapping1D {
		v |= 1 << 6
	}
	if d.forceBlank {
		v |= 1 << 7
	}
	for i, e := range d.bgEnable {
		if e {
			v |= 1 << (8 + uint(i))
		}
	}
	if d.objEnable {
		v |= 1 << 12
	}
	if d.win0Enable {
		v |= 1 << 13
	}
	if d.win1Enable {
		v |= 1 << 14
	}
	if d.winObjEnable {
		v |= 1 << 15
	}
	return v
}

func (d *displayControl) windowsActive() bool {
	return d.win0Enable || d.win1Enable || d.winObjEnable
}

// displayStatus mirrors DISPSTAT.
type displayStatus struct {
	vblank    bool
	hblank    bool
	vcounter  bool
	vblankIRQ bool
	hblankIRQ bool
	vcountIRQ bool
	lyc       uint8
}

func (s *displayStatus) write(v uint16) {
	s.vblankIRQ = v&(1<<3) != 0
	s.hblankIRQ = v&(1<<4) != 0
	s.vcountIRQ = v&(1<<5) != 0
	s.lyc = uint8(v >> 8)
}

func (s *displayStatus) read() uint16 {
	var v uint16
	if s.vblank {
		v |= 1 << 0
	}
	if s.hblank {
		v |= 1 << 1
	}
	if s.vcounter {
		v |= 1 << 2
	}
	if s.vblankIRQ {
		v |= 1 << 3
	}
	if s.hblankIRQ {
		v |= 1 << 4
	}
	if s.vcountIRQ {
		v |= 1 << 5
	}
	v |= uint16(s.lyc) << 8
	return v
}

// bgControl mirrors one BGxCNT register.
type bgControl struct {
	priority    uint8
	tileBlock   uint8
	mosaic      bool
	depth8bpp   bool
	screenBlock uint8
	wraparound  bool
	sizeIndex   uint8
}

func (c *bgControl) write(v uint16) {
	c.priority = uint8(v & 0x3)
	c.tileBlock = uint8((v >> 2) & 0x3)
	c.mosaic = v&(1<<6) != 0
	c.depth8bpp = v&(1<<7) != 0
	c.screenBlock = uint8((v >> 8) & 0x1F)
	c.wraparound = v&(1<<13) != 0
	c.sizeIndex = uint8((v >> 14) & 0x3)
}

func (c *bgControl) read() uint16 {
	var v uint16
	v |= uint16(c.priority)
	v |= uint16(c.tileBlock) << 2
	if c.mosaic {
		v |= 1 << 6
	}
	if c.depth8bpp {
		v |= 1 << 7
	}
	v |= uint16(c.screenBlock) << 8
	if c.wraparound {
		v |= 1 << 13
	}
	v |= uint16(c.sizeIndex) << 14
	return v
}

// tileMapDims returns the background's size in tiles (w, h) for the
// text-mode size index (0..3: 256x256, 512x256, 256x512, 512x512).
func (c *bgControl) tileMapDims() (w, h int) {
	switch c.sizeIndex {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

// affineDims returns the background's pixel size for affine-mode
// backgrounds (size index 0..3: 128,256,512,1024 pixels square).
func (c *bgControl) affineDims() int {
	return 128 << c.sizeIndex
}

// affine holds one BG2/BG3 affine transform: the 2x2 matrix plus the
// latched reference point (spec.md §3).
type affine struct {
	pa, pb, pc, pd int16
	refX, refY     int32 // 20.8 fixed point
	curX, curY     int32 // latched accumulator, advances per scanline
}

func fixed16(lo, hi uint16) int32 {
	raw := uint32(lo) | uint32(hi)<<16
	return int32(raw<<4) >> 4 // sign-extend 28-bit value
}

// window is one of the two rectangular window regions.
type window struct {
	left, right, top, bottom uint8
	layerEnable              [4]bool
	objEnable                bool
	blendEnable               bool
}

func (w *window) writeH(v uint16) {
	w.right = uint8(v)
	w.left = uint8(v >> 8)
}

func (w *window) writeV(v uint16) {
	w.bottom = uint8(v)
	w.top = uint8(v >> 8)
}

func (w *window) writeControl(v uint8) {
	for i := 0; i < 4; i++ {
		w.layerEnable[i] = v&(1<<uint(i)) != 0
	}
	w.objEnable = v&(1<<4) != 0
	w.blendEnable = v&(1<<5) != 0
}

func (w *window) controlByte() uint8 {
	var v uint8
	for i, e := range w.layerEnable {
		if e {
			v |= 1 << uint(i)
		}
	}
	if w.objEnable {
		v |= 1 << 4
	}
	if w.blendEnable {
		v |= 1 << 5
	}
	return v
}

func (w *window) containsX(x int) bool {
	left := int(w.left)
	right := int(w.right)
	if right > Width || right < left {
		right = Width
	}
	return x >= left && x < right
}

func (w *window) containsY(y int) bool {
	top := int(w.top)
	bottom := int(w.bottom)
	if bottom > Height || bottom < top {
		bottom = Height
	}
	return y >= top && y < bottom
}

// blendMode is BLDCNT's two-bit effect selector.
type blendMode uint8

const (
	blendNone blendMode = iota
	blendAlpha
	blendBrighten
	blendDarken
)

type blendControl struct {
	targetA [6]bool // BG0-3, OBJ, backdrop
	mode    blendMode
	targetB [6]bool
}

func (b *blendControl) write(v uint16) {
	for i := 0; i < 6; i++ {
		b.targetA[i] = v&(1<<uint(i)) != 0
	}
	b.mode = blendMode((v >> 6) & 0x3)
	for i := 0; i < 6; i++ {
		b.targetB[i] = v&(1<<(8+uint(i))) != 0
	}
}

func (b *blendControl) read() uint16 {
	var v uint16
	for i, e := range b.targetA {
		if e {
			v |= 1 << uint(i)
		}
	}
	v |= uint16(b.mode) << 6
	for i, e := range b.targetB {
		if e {
			v |= 1 << (8 + uint(i))
		}
	}
	return v
}

type blendCoefficients struct {
	evaCoef, evbCoef uint8 // 0-16, saturating
}

func saturatingCoef(v uint8) uint8 {
	if v > 16 {
		return 16
	}
	return v
}
