package sched

import "testing"

func TestPopOrdersByDeadlineThenInsertion(t *testing.T) {
	s := New()
	s.Schedule(TimerOverflow, 100, 1)
	s.Schedule(DMAActivate, 50, 2)
	s.Schedule(PixelHDrawEnd, 50, 3)

	ev, ok := s.Pop(1000)
	if !ok || ev.Data != 2 {
		t.Fatalf("first pop = %+v, want data=2 (earlier deadline, first inserted)", ev)
	}
	ev, ok = s.Pop(1000)
	if !ok || ev.Data != 3 {
		t.Fatalf("second pop = %+v, want data=3 (tie broken by insertion order)", ev)
	}
	ev, ok = s.Pop(1000)
	if !ok || ev.Data != 1 {
		t.Fatalf("third pop = %+v, want data=1", ev)
	}
}

func TestPopRespectsNow(t *testing.T) {
	s := New()
	s.Schedule(TimerOverflow, 500, 0)

	if _, ok := s.Pop(499); ok {
		t.Fatalf("Pop(499) should not return an event scheduled at 500")
	}
	if _, ok := s.Pop(500); !ok {
		t.Fatalf("Pop(500) should return the event due exactly at 500")
	}
}

func TestCancelDropsEventOnPop(t *testing.T) {
	s := New()
	h := s.Schedule(TimerOverflow, 10, 0)
	s.Schedule(DMAActivate, 20, 1)

	h.Cancel()

	ev, ok := s.Pop(1000)
	if !ok || ev.Kind != DMAActivate {
		t.Fatalf("Pop after cancel = %+v, ok=%v, want the DMAActivate event", ev, ok)
	}
	if _, ok := s.Pop(1000); ok {
		t.Fatalf("queue should be empty after popping the one live event")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	s := New()
	s.Schedule(FrameLimitReached, 42, 0)

	d, ok := s.Peek()
	if !ok || d != 42 {
		t.Fatalf("Peek = %d, %v, want 42, true", d, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("Peek must not remove the event, Len() = %d", s.Len())
	}
}
