package irq

import (
	"testing"

	"github.com/valerio/go-gba/core/addr"
)

func TestPendingRequiresMasterEnableAndMask(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank)

	if c.Pending() {
		t.Fatalf("Pending() should be false before IME/IE are set")
	}

	c.WriteIE(1 << uint(addr.IRQVBlank))
	if c.Pending() {
		t.Fatalf("Pending() should still be false with IME unset")
	}

	c.WriteIME(true)
	if !c.Pending() {
		t.Fatalf("Pending() should be true once IME and matching IE bit are set")
	}
}

func TestWriteIFClearsOnlyRequestedBits(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank)
	c.Raise(addr.IRQHBlank)

	c.WriteIF(1 << uint(addr.IRQVBlank))

	if c.ReadIF()&(1<<uint(addr.IRQVBlank)) != 0 {
		t.Fatalf("IRQVBlank bit should be cleared after write-1-to-clear")
	}
	if c.ReadIF()&(1<<uint(addr.IRQHBlank)) == 0 {
		t.Fatalf("IRQHBlank bit should remain set")
	}
}

func TestHaltWakeIgnoresMasterAndEnable(t *testing.T) {
	c := New()
	if c.HaltWake() {
		t.Fatalf("HaltWake() should be false with no pending request")
	}
	c.Raise(addr.IRQTimer0)
	if !c.HaltWake() {
		t.Fatalf("HaltWake() should be true on any request bit regardless of IME/IE")
	}
}
