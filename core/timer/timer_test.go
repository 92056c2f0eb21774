package timer

import (
	"testing"

	"github.com/valerio/go-gba/core/addr"
	"github.com/valerio/go-gba/core/sched"
)

func TestCounterAdvancesWithPrescaler(t *testing.T) {
	var raised []addr.Interrupt
	b := New(func(source addr.Interrupt) { raised = append(raised, source) })
	s := sched.New()

	b.WriteReload(0, 0xFFF0)
	b.WriteControl(0, 0x0080, 0, s) // enable, prescaler /1

	if got := b.ReadCounter(0, 0); got != 0xFFF0 {
		t.Fatalf("counter at start = %x, want FFF0", got)
	}
	if got := b.ReadCounter(0, 8); got != 0xFFF8 {
		t.Fatalf("counter after 8 cycles at /1 = %x, want FFF8", got)
	}
}

func TestOverflowRaisesIRQAndReloads(t *testing.T) {
	var raised []addr.Interrupt
	b := New(func(source addr.Interrupt) { raised = append(raised, source) })
	s := sched.New()

	b.WriteReload(0, 0xFFFE)
	b.WriteControl(0, 0x00C0, 0, s) // enable + irqEnable, prescaler /1

	deadline, ok := s.Peek()
	if !ok {
		t.Fatalf("expected an overflow event to be scheduled")
	}
	if deadline != 2 {
		t.Fatalf("deadline = %d, want 2 (0x10000-0xFFFE)", deadline)
	}

	ev, ok := s.Pop(deadline)
	if !ok || ev.Kind != sched.TimerOverflow {
		t.Fatalf("expected a TimerOverflow event at the deadline")
	}
	b.HandleOverflow(ev.Data, deadline, s)

	if len(raised) != 1 || raised[0] != addr.IRQTimer0 {
		t.Fatalf("raised = %v, want [IRQTimer0]", raised)
	}
	if got := b.ReadCounter(0, deadline); got != 0xFFFE {
		t.Fatalf("counter after reload = %x, want FFFE (reload value)", got)
	}
}

func TestCascadeIncrementsNextTimer(t *testing.T) {
	b := New(func(addr.Interrupt) {})
	s := sched.New()

	b.WriteReload(1, 5)
	b.WriteControl(1, 0x0084, 0, s) // enable + cascade on timer 1

	b.WriteReload(0, 0xFFFF)
	b.WriteControl(0, 0x0080, 0, s) // enable, prescaler /1, timer 0 overflows immediately

	deadline, ok := s.Peek()
	if !ok {
		t.Fatalf("expected timer 0 overflow scheduled")
	}
	ev, _ := s.Pop(deadline)
	b.HandleOverflow(ev.Data, deadline, s)

	if got := b.ReadCounter(1, deadline); got != 6 {
		t.Fatalf("cascaded counter = %d, want 6 (5+1)", got)
	}
}

func TestDisablingCancelsScheduledOverflow(t *testing.T) {
	b := New(func(addr.Interrupt) {})
	s := sched.New()

	b.WriteReload(0, 0)
	b.WriteControl(0, 0x0080, 0, s)
	if s.Len() == 0 {
		t.Fatalf("expected an event scheduled while running")
	}

	b.WriteControl(0, 0x0000, 10, s)
	if _, ok := s.Pop(1 << 32); ok {
		t.Fatalf("disabling the timer should cancel its pending overflow")
	}
}
