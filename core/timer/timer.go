// Package timer implements the four cascading 16-bit timers described
// in spec.md §4.6. Unlike the teacher's per-cycle DIV/TIMA loop
// (jeebie/memory/timer.go), each running non-cascade timer schedules a
// single overflow event with the shared core/sched scheduler instead of
// being ticked every cycle — a deliberate redesign toward scheduler-
// driven timing (spec.md §9).
package timer

import (
	"github.com/valerio/go-gba/core/addr"
	"github.com/valerio/go-gba/core/irq"
	"github.com/valerio/go-gba/core/sched"
)

var prescalerShift = [4]uint{0, 6, 8, 10}

// Timer is one of the four 16-bit counters.
type Timer struct {
	reload    uint16
	control   uint16 // raw TMxCNT_H, for register round-trip
	enable    bool
	cascade   bool
	irqEnable bool
	shiftIdx  uint8

	running    bool
	startValue uint16
	startTime  uint64
	handle     sched.Handle
	hasHandle  bool
}

// Bank owns the four timers and the capability to raise their
// interrupts.
type Bank struct {
	timers [4]Timer
	raise  irq.Raiser
}

// New returns a bank with all timers stopped, and raise wired as the
// IRQ-request capability (spec.md §9 narrow-capability pattern).
func New(raise irq.Raiser) *Bank {
	return &Bank{raise: raise}
}

var timerOverflowIRQ = [4]addr.Interrupt{addr.IRQTimer0, addr.IRQTimer1, addr.IRQTimer2, addr.IRQTimer3}

// counterAt computes the live counter value of a running, non-cascade
// timer at cycle `now` (spec.md §4.6: "start_value + (now - start_time) >> shift").
// An enabled cascade timer's count is its startValue, which cascadeInto
// increments.
func (t *Timer) counterAt(now uint64) uint16 {
	if !t.running {
		if t.enable && t.cascade {
			return t.startValue
		}
		return t.reload
	}
	elapsed := (now - t.startTime) >> prescalerShift[t.shiftIdx]
	return t.startValue + uint16(elapsed)
}

// ReadCounter returns TMxCNT_L's current value (spec.md "Reads of a
// running timer return the current counter").
func (b *Bank) ReadCounter(idx int, now uint64) uint16 {
	return b.timers[idx].counterAt(now)
}

// ReadControl returns the normalized TMxCNT_H value.
func (b *Bank) ReadControl(idx int) uint16 {
	return b.timers[idx].control
}

// WriteReload latches TMxCNT_L. Per hardware, this only affects the
// reload value used on the next start/overflow; a running timer's live
// counter is unaffected until it stops and restarts.
func (b *Bank) WriteReload(idx int, value uint16) {
	b.timers[idx].reload = value
}

// WriteControl updates TMxCNT_H and, for a non-cascade timer rising on
// the enable bit, schedules the overflow event (spec.md §4.6).
func (b *Bank) WriteControl(idx int, value uint16, now uint64, s *sched.Scheduler) {
	t := &b.timers[idx]
	wasEnabled := t.enable

	t.control = value & 0x00C7
	t.shiftIdx = uint8(value & 0x3)
	t.cascade = idx != 0 && bitSet(value, 2)
	t.irqEnable = bitSet(value, 6)
	t.enable = bitSet(value, 7)

	if t.enable && !wasEnabled {
		t.startValue = t.reload
		t.startTime = now
		t.running = !t.cascade
		if t.running {
			b.scheduleOverflow(idx, now, s)
		}
	} else if !t.enable {
		if t.hasHandle {
			t.handle.Cancel()
			t.hasHandle = false
		}
		t.running = false
	} else if wasEnabled && t.enable {
		// Control rewritten while running (e.g. cascade flag toggled):
		// snapshot the live counter and reschedule under the new mode.
		live := t.counterAt(now)
		if t.hasHandle {
			t.handle.Cancel()
			t.hasHandle = false
		}
		t.startValue = live
		t.startTime = now
		t.running = !t.cascade
		if t.running {
			b.scheduleOverflow(idx, now, s)
		}
	}
}

func bitSet(v uint16, i uint) bool { return (v>>i)&1 == 1 }

func (b *Bank) scheduleOverflow(idx int, now uint64, s *sched.Scheduler) {
	t := &b.timers[idx]
	cyclesToOverflow := uint64(0x10000-uint32(t.startValue)) << prescalerShift[t.shiftIdx]
	t.handle = s.Schedule(sched.TimerOverflow, now+cyclesToOverflow, idx)
	t.hasHandle = true
}

// HandleOverflow processes a TimerOverflow event for channel idx at
// cycle now: requests an interrupt if enabled, cascades into the next
// timer, and reloads/reschedules (spec.md §4.6 "On overflow").
func (b *Bank) HandleOverflow(idx int, now uint64, s *sched.Scheduler) {
	t := &b.timers[idx]
	t.hasHandle = false

	if t.irqEnable {
		b.raise(timerOverflowIRQ[idx])
	}

	if idx+1 < 4 && b.timers[idx+1].enable && b.timers[idx+1].cascade {
		b.cascadeInto(idx+1, now, s)
	}

	if t.enable && !t.cascade {
		t.startValue = t.reload
		t.startTime = now
		b.scheduleOverflow(idx, now, s)
	}
}

// cascadeInto increments the next timer by one and, if that overflows,
// recursively cascades further (spec.md §4.6 "if the next timer is
// cascade, increment it and cascade its overflow").
func (b *Bank) cascadeInto(idx int, now uint64, s *sched.Scheduler) {
	t := &b.timers[idx]
	next := t.startValue + 1
	if next != 0 {
		t.startValue = next
		t.startTime = now
		return
	}

	if t.irqEnable {
		b.raise(timerOverflowIRQ[idx])
	}
	t.startValue = t.reload
	t.startTime = now

	if idx+1 < 4 && b.timers[idx+1].enable && b.timers[idx+1].cascade {
		b.cascadeInto(idx+1, now, s)
	}
}
