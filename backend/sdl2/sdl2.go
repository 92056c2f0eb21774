//go:build sdl2

// Package sdl2 implements the windowed video+input shell (no audio) using
// go-sdl2 bindings, generalizing jeebie/backend/sdl2.go's
// window/renderer/texture setup and keyboard polling from the Game
// Boy's 160x144 output and 8-button joypad to the GBA's 240x160
// output and 10-bit keypad (spec.md §6 Device / keypad.Source).
package sdl2

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-gba/core/keypad"
	"github.com/valerio/go-gba/core/video"
	"github.com/veandco/go-sdl2/sdl"
)

const pixelScale = 3

// Backend owns the SDL window, renderer and streaming texture, and
// doubles as both a video.Device and a keypad.Source.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	released uint16
	running  bool
}

// New returns an unopened Backend.
func New() *Backend {
	return &Backend{released: 0x3FF}
}

// Open creates the SDL window, renderer and the 240x160 streaming
// texture the core writes each frame into.
func (b *Backend) Open() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl2: init: %w", err)
	}

	window, err := sdl.CreateWindow(
		"go-gba",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		video.Width*pixelScale, video.Height*pixelScale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("sdl2: create window: %w", err)
	}
	b.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2: create renderer: %w", err)
	}
	b.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING, video.Width, video.Height)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2: create texture: %w", err)
	}
	b.texture = texture
	b.running = true
	slog.Info("sdl2 backend opened", "width", video.Width, "height", video.Height)
	return nil
}

// Render implements video.Device: blits one completed frame and pumps
// the SDL event queue, updating the polled keypad state.
func (b *Backend) Render(frame []byte) {
	if !b.running {
		return
	}
	if err := b.texture.Update(nil, frame, video.Width*4); err != nil {
		slog.Warn("sdl2 texture update failed", "error", err)
		return
	}
	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		b.handleEvent(event)
	}
}

// Poll implements keypad.Source.
func (b *Backend) Poll() uint16 { return b.released }

// Running reports whether the window is still open.
func (b *Backend) Running() bool { return b.running }

func (b *Backend) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		b.running = false
	case *sdl.KeyboardEvent:
		bit, ok := keyBinding(e.Keysym.Sym)
		if !ok {
			return
		}
		if e.State == sdl.PRESSED {
			b.released &^= bit
		} else {
			b.released |= bit
		}
	}
}

func keyBinding(sym sdl.Keycode) (uint16, bool) {
	switch sym {
	case sdl.K_z:
		return keypad.A, true
	case sdl.K_x:
		return keypad.B, true
	case sdl.K_RETURN:
		return keypad.Start, true
	case sdl.K_RSHIFT, sdl.K_LSHIFT:
		return keypad.Select, true
	case sdl.K_UP:
		return keypad.Up, true
	case sdl.K_DOWN:
		return keypad.Down, true
	case sdl.K_LEFT:
		return keypad.Left, true
	case sdl.K_RIGHT:
		return keypad.Right, true
	case sdl.K_a:
		return keypad.L, true
	case sdl.K_s:
		return keypad.R, true
	default:
		return 0, false
	}
}

// Close tears down the renderer, window and SDL subsystem.
func (b *Backend) Close() {
	if b.texture != nil {
		b.texture.Destroy()
	}
	if b.renderer != nil {
		b.renderer.Destroy()
	}
	if b.window != nil {
		b.window.Destroy()
	}
	sdl.Quit()
}
