package video

import "testing"

func TestPack15RoundTripsThroughTo24(t *testing.T) {
	c := pack15(0xF8, 0x08, 0x00) // top 5 bits of each channel: 11111,00001,00000
	r, g, b := c.To24()
	if r != 0xF8 {
		t.Errorf("r = %x, want F8", r)
	}
	if g != 0x08 {
		t.Errorf("g = %x, want 08", g)
	}
	if b != 0x00 {
		t.Errorf("b = %x, want 00", b)
	}
}

func TestBlendAlphaColorAverages(t *testing.T) {
	white := pack15(0xF8, 0xF8, 0xF8)
	black := pack15(0x00, 0x00, 0x00)
	out := blendAlphaColor(white, black, 8, 8)
	r, _, _ := out.To24()
	if r < 0x78 || r > 0x88 {
		t.Errorf("50/50 blend of white and black red channel = %x, want roughly 0x80", r)
	}
}

func TestBlendBrightenMovesTowardWhite(t *testing.T) {
	base := pack15(0x00, 0x00, 0x00)
	out := blendBrightenColor(base, 16) // max coefficient
	r, g, b := out.To24()
	if r != 0xF8 || g != 0xF8 || b != 0xF8 {
		t.Errorf("full brighten of black = %x,%x,%x, want near-white (F8 after 5-bit truncation)", r, g, b)
	}
}

func TestBlendDarkenMovesTowardBlack(t *testing.T) {
	base := pack15(0xF8, 0xF8, 0xF8)
	out := blendDarkenColor(base, 16) // max coefficient
	r, g, b := out.To24()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("full darken of white = %x,%x,%x, want black", r, g, b)
	}
}

func TestWindowMaskAllLayersWhenWindowsInactive(t *testing.T) {
	g := &GPU{}
	layers, obj, blend := g.windowMask(0, 0)
	for i, on := range layers {
		if !on {
			t.Errorf("layer %d disabled, want enabled when no window is active", i)
		}
	}
	if !obj || !blend {
		t.Errorf("obj/blend = %v/%v, want true/true when no window is active", obj, blend)
	}
}
