// Package render provides debug frame output: a terminal half-block
// renderer and a PNG frame-dump helper, generalizing the teacher's
// render/terminal.go (jeebie/render/terminal.go) from the Game Boy's
// monochrome palette to the GBA's full RGBA framebuffer, and adding
// the PNG path via golang.org/x/image (spec.md §2 domain stack:
// contributed by the IntuitionAmiga-IntuitionEngine example).
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/valerio/go-gba/core/video"
	xdraw "golang.org/x/image/draw"
)

// DumpPNG nearest-neighbor upscales a 240x160 RGBA frame by scale and
// writes it to path (the `-dump-frame` CLI flag's implementation).
func DumpPNG(frame []byte, scale int, path string) error {
	src := image.NewRGBA(image.Rect(0, 0, video.Width, video.Height))
	copy(src.Pix, frame)

	dstW, dstH := video.Width*scale, video.Height*scale
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

const ansiResetCode = "\x1b[0m"

// Terminal renders a frame as half-block (▀) ANSI-truecolor characters
// and returns them as a string, two display rows per text row,
// mirroring jeebie/render/terminal.go's half-block approach.
func Terminal(frame []byte) string {
	var out []byte
	out = append(out, []byte("\x1b[H")...) // cursor home, redraw in place

	for y := 0; y < video.Height; y += 2 {
		for x := 0; x < video.Width; x++ {
			top := pixelAt(frame, x, y)
			bottom := color.RGBA{0, 0, 0, 0xFF}
			if y+1 < video.Height {
				bottom = pixelAt(frame, x, y+1)
			}
			out = append(out, []byte(fmt.Sprintf(
				"\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B))...)
		}
		out = append(out, []byte(ansiResetCode+"\n")...)
	}
	return string(out)
}

func pixelAt(frame []byte, x, y int) color.RGBA {
	i := (y*video.Width + x) * 4
	return color.RGBA{frame[i], frame[i+1], frame[i+2], frame[i+3]}
}
