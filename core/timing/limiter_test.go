package timing

import "testing"

func TestTargetFPSMatchesConsoleRefreshRate(t *testing.T) {
	fps := TargetFPS()
	if fps < 59.7 || fps > 59.8 {
		t.Fatalf("TargetFPS() = %f, want roughly 59.73 (16777216 / (228*1232))", fps)
	}
}

func TestNoOpLimiterNeverBlocks(t *testing.T) {
	l := NewNoOpLimiter()
	l.WaitForNextFrame()
	l.Reset()
}
