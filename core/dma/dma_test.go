package dma

import (
	"testing"

	"github.com/valerio/go-gba/core/addr"
)

type fakeMem struct {
	data map[uint32]uint32
}

func newFakeMem() *fakeMem { return &fakeMem{data: make(map[uint32]uint32)} }

func (m *fakeMem) Read8(a uint32) uint8       { return uint8(m.data[a]) }
func (m *fakeMem) Read16(a uint32) uint16     { return uint16(m.data[a]) }
func (m *fakeMem) Read32(a uint32) uint32     { return m.data[a] }
func (m *fakeMem) Write8(a uint32, v uint8)   { m.data[a] = uint32(v) }
func (m *fakeMem) Write16(a uint32, v uint16) { m.data[a] = uint32(v) }
func (m *fakeMem) Write32(a uint32, v uint32) { m.data[a] = v }

func TestImmediateStartArmsButDoesNotTransferSynchronously(t *testing.T) {
	var raised []addr.Interrupt
	c := New(func(s addr.Interrupt) { raised = append(raised, s) }, nil)
	mem := newFakeMem()
	mem.data[0x1000] = 0xCAFE

	c.WriteSAD(0, 0x1000)
	c.WriteDAD(0, 0x2000)
	c.WriteCountLow(0, 1)

	scheduleActivate := c.WriteControlHigh(0, 1<<15|1<<14) // enable + irqEnable, 16-bit, immediate
	if !scheduleActivate {
		t.Fatalf("immediate-start channel should report scheduleActivate=true")
	}
	if mem.data[0x2000] != 0 {
		t.Fatalf("immediate DMA must not transfer on the enabling write itself, dst = %x", mem.data[0x2000])
	}
	if c.AnyPending() {
		t.Fatalf("channel should not be pending before its scheduled activation")
	}

	c.Activate(0)
	if !c.AnyPending() {
		t.Fatalf("Activate should mark the channel pending")
	}
	c.RunPending(mem)

	if mem.data[0x2000] != 0xCAFE {
		t.Fatalf("DMA should transfer once RunPending runs the armed channel, dst = %x", mem.data[0x2000])
	}
	if len(raised) != 1 || raised[0] != addr.IRQDMA0 {
		t.Fatalf("raised = %v, want [IRQDMA0]", raised)
	}
	if c.AnyPending() {
		t.Fatalf("RunPending should clear the pending flag after running")
	}
}

func TestNonImmediateDoesNotRunUntilNotified(t *testing.T) {
	c := New(func(addr.Interrupt) {}, nil)
	mem := newFakeMem()
	mem.data[0x1000] = 0x1234

	c.WriteSAD(1, 0x1000)
	c.WriteDAD(1, 0x2000)
	c.WriteCountLow(1, 1)
	if sched := c.WriteControlHigh(1, 1<<15|(uint16(StartVBlank)<<12)); sched {
		t.Fatalf("vblank-timed channel should not request immediate activation")
	}

	if mem.data[0x2000] != 0 {
		t.Fatalf("vblank-timed DMA should not run before the matching Notify")
	}
	c.Notify(StartVBlank)
	if !c.AnyPending() {
		t.Fatalf("Notify(StartVBlank) should arm the matching channel")
	}
	c.RunPending(mem)
	if mem.data[0x2000] != 0x1234 {
		t.Fatalf("vblank-timed DMA should run after Notify+RunPending")
	}
}

func TestWordSizeTransfersFourBytesPerUnit(t *testing.T) {
	c := New(func(addr.Interrupt) {}, nil)
	mem := newFakeMem()
	mem.data[0x1000] = 0xAABBCCDD
	mem.data[0x1004] = 0x11223344

	c.WriteSAD(0, 0x1000)
	c.WriteDAD(0, 0x2000)
	c.WriteCountLow(0, 2)
	c.WriteControlHigh(0, 1<<15|1<<10) // enable, 32-bit, immediate
	c.Activate(0)
	c.RunPending(mem)

	if mem.data[0x2000] != 0xAABBCCDD || mem.data[0x2004] != 0x11223344 {
		t.Fatalf("32-bit DMA should step addresses by 4, got %x / %x", mem.data[0x2000], mem.data[0x2004])
	}
}

func TestRepeatReloadsCountButEnableClearsWithoutRepeat(t *testing.T) {
	c := New(func(addr.Interrupt) {}, nil)
	mem := newFakeMem()

	c.WriteSAD(0, 0x1000)
	c.WriteDAD(0, 0x2000)
	c.WriteCountLow(0, 1)
	c.WriteControlHigh(0, 1<<15) // enable, immediate, no repeat
	c.Activate(0)
	c.RunPending(mem)

	if c.ReadControlHigh(0)&(1<<15) != 0 {
		t.Fatalf("non-repeating channel should clear its enable bit after running")
	}

	c.WriteSAD(1, 0x1000)
	c.WriteDAD(1, 0x2000)
	c.WriteCountLow(1, 2)
	c.WriteControlHigh(1, 1<<15|1<<9|(uint16(StartVBlank)<<12)) // enable, repeat, vblank
	c.Notify(StartVBlank)
	c.RunPending(mem)

	if c.ReadControlHigh(1)&(1<<15) == 0 {
		t.Fatalf("repeating channel should stay enabled after running")
	}
	if c.channels[1].count != 2 {
		t.Fatalf("repeating channel count = %d, want it reloaded to 2", c.channels[1].count)
	}
}

func TestNotifyFIFOIsUnreachedWithoutAudio(t *testing.T) {
	c := New(func(addr.Interrupt) {}, nil)
	c.WriteSAD(1, 0x1000)
	c.WriteDAD(1, 0x2000)
	c.WriteCountLow(1, 4)
	c.WriteControlHigh(1, 1<<15|(uint16(StartSpecial)<<12))

	c.NotifyFIFO(1)
	if !c.AnyPending() {
		t.Fatalf("NotifyFIFO should still arm the channel per its register configuration")
	}
}
