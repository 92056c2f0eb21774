//go:build !sdl2

// Package sdl2 provides the windowed video+input shell. The
// default build skips the cgo-dependent SDL2 bindings and falls back
// to this stub, exactly as the teacher isolates go-sdl2 behind a build
// tag (jeebie/backend/sdl2_stub.go).
package sdl2

import "fmt"

// Backend is the stubbed form used when building without the sdl2 tag.
type Backend struct{}

// New returns a Backend whose Open always fails, matching the
// teacher's stub error message shape.
func New() *Backend { return &Backend{} }

// Open reports that this build lacks SDL2 support.
func (b *Backend) Open() error {
	return fmt.Errorf("sdl2: built without the 'sdl2' build tag, rebuild with -tags sdl2")
}

func (b *Backend) Render(frame []byte) {}

func (b *Backend) Poll() uint16 { return 0x3FF }

func (b *Backend) Running() bool { return false }

func (b *Backend) Close() {}
