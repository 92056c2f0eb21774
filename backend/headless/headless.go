// Package headless implements a video.Device collaborator with no
// windowing dependency, used by the CLI's --headless mode and its
// --dump-frame output (spec.md ambient "Test tooling").
package headless

import "github.com/valerio/go-gba/core/video"

// Backend records the most recently presented frame and counts how
// many frames have been rendered, the minimum surface integration
// tests need to assert against (mirrors the teacher's
// backend/headless.go capture-last-frame approach).
type Backend struct {
	LastFrame  [video.Width * video.Height * 4]byte
	FrameCount int
}

// New returns a Backend ready to be wired via core.Core.SetVideoDevice.
func New() *Backend {
	return &Backend{}
}

// Render implements video.Device.
func (b *Backend) Render(frame []byte) {
	copy(b.LastFrame[:], frame)
	b.FrameCount++
}
