//go:build ebiten

// Package ebiten provides an alternative GUI+audio backend to sdl2,
// grounded on the ebiten/oto stack used by the bdwalton-gintendo and
// IntuitionAmiga-IntuitionEngine examples (spec.md §2 domain stack).
// Selected at build time via the `ebiten` tag; exercises ebiten's
// Game interface and oto's streaming player for the DMA FIFO audio
// callback cadence (spec.md §11 "the core only drives the callback
// cadence, not waveform synthesis").
package ebiten

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/valerio/go-gba/core/keypad"
	"github.com/valerio/go-gba/core/video"
)

// Backend implements ebiten.Game, video.Device and keypad.Source.
type Backend struct {
	frame    [video.Width * video.Height * 4]byte
	img      *ebiten.Image
	released uint16
	otoCtx   *oto.Context
	advance  func()
}

// New returns a Backend. advance is called once per ebiten Update tick
// to step the emulator core forward by one frame.
func New(advance func()) *Backend {
	return &Backend{
		img:      ebiten.NewImage(video.Width, video.Height),
		released: 0x3FF,
		advance:  advance,
	}
}

// OpenAudio starts an oto streaming context at the GBA's fixed output
// rate and keeps it on the Backend. Nothing writes samples into it:
// the core has no audio output (waveform synthesis is out of core
// scope, spec.md §11).
func (b *Backend) OpenAudio() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   32768,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("ebiten: oto context: %w", err)
	}
	<-ready
	b.otoCtx = ctx
	return nil
}

// Render implements video.Device.
func (b *Backend) Render(frame []byte) {
	copy(b.frame[:], frame)
	b.img.WritePixels(b.frame[:])
}

// Poll implements keypad.Source.
func (b *Backend) Poll() uint16 { return b.released }

// Update implements ebiten.Game.
func (b *Backend) Update() error {
	b.pollKeys()
	if b.advance != nil {
		b.advance()
	}
	return nil
}

// Draw implements ebiten.Game.
func (b *Backend) Draw(screen *ebiten.Image) {
	screen.DrawImage(b.img, nil)
}

// Layout implements ebiten.Game.
func (b *Backend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.Width, video.Height
}

func (b *Backend) pollKeys() {
	set := func(bit uint16, key ebiten.Key) {
		if ebiten.IsKeyPressed(key) {
			b.released &^= bit
		} else {
			b.released |= bit
		}
	}
	set(keypad.A, ebiten.KeyZ)
	set(keypad.B, ebiten.KeyX)
	set(keypad.Start, ebiten.KeyEnter)
	set(keypad.Select, ebiten.KeyShift)
	set(keypad.Up, ebiten.KeyUp)
	set(keypad.Down, ebiten.KeyDown)
	set(keypad.Left, ebiten.KeyLeft)
	set(keypad.Right, ebiten.KeyRight)
	set(keypad.L, ebiten.KeyA)
	set(keypad.R, ebiten.KeyS)
}
