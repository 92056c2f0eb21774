// Package timing paces windowed playback to the console's real frame
// rate, adapting the teacher's Limiter interface and its drift-
// compensating AdaptiveLimiter (jeebie/timing/limiter.go,
// jeebie/timing/adaptive.go) from the Game Boy's 70224-cycle,
// 4.194304MHz frame to the handheld's 280896-cycle (228 scanlines of
// 1232 dots), 16.777216MHz frame.
package timing

import (
	"log/slog"
	"time"
)

// Limiter blocks a windowed run loop until the next frame is due.
// core.Core.Frame itself is cycle-deterministic and free-running; a
// Limiter is only needed to match a window's Present calls to wall
// time instead of running as fast as the host CPU allows.
type Limiter interface {
	WaitForNextFrame()
	Reset()
}

// NewNoOpLimiter returns a Limiter that never blocks, for headless runs
// that want to finish as fast as possible.
func NewNoOpLimiter() Limiter { return &noOpLimiter{} }

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// CPUFrequency and CyclesPerFrame are the handheld's real clock and
// per-frame budget: 228 scanlines x 1232 cycles, at 16.777216MHz.
const (
	CPUFrequency   = 16777216
	CyclesPerFrame = 228 * 1232
)

// TargetFPS is the console's exact refresh rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration is the wall-clock duration of one frame at TargetFPS.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// AdaptiveLimiter combines a coarse sleep with a short busy-wait tail
// for sub-millisecond accuracy, periodically correcting for
// accumulated drift against the wall clock.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

// NewAdaptiveLimiter returns a Limiter paced to the console's real FPS.
func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		nextFrameTime:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*time.Millisecond {
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%60 == 0 {
		drift := time.Now().Sub(a.nextFrameTime)
		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("frame timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = time.Now()
	a.frameCounter = 0
}
