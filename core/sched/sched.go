// Package sched implements the deterministic event scheduler described
// in spec.md §4.3: a min-heap keyed by absolute cycle deadline, with
// in-place cancellation.
package sched

import "container/heap"

// Kind identifies what a scheduled Event represents (spec.md §3
// "Scheduler event").
type Kind int

const (
	PixelHDrawEnd Kind = iota
	PixelHBlankEnd
	PixelVBlankHDrawEnd
	PixelVBlankHBlankEnd
	DMAActivate
	TimerOverflow
	FrameLimitReached
)

// Handle lets a caller cancel an event it previously scheduled.
type Handle struct {
	item *item
}

// Cancel marks the event as cancelled. A cancelled event is dropped the
// next time the scheduler pops it, rather than being removed from the
// heap immediately (spec.md §4.3 "Cancellation").
func (h Handle) Cancel() {
	if h.item != nil {
		h.item.cancelled = true
	}
}

type item struct {
	kind      Kind
	deadline  uint64
	data      int // channel/timer index, or unused
	cancelled bool
	seq       uint64 // insertion order, breaks deadline ties
	index     int    // heap.Interface bookkeeping
}

type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].deadline != pq[j].deadline {
		return pq[i].deadline < pq[j].deadline
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	it := x.(*item)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[:n-1]
	return it
}

// Event is a dequeued, live (non-cancelled) scheduled event.
type Event struct {
	Kind     Kind
	Deadline uint64
	Data     int
}

// Scheduler is a priority queue of events ordered by deadline, with
// insertion-order tiebreaking (spec.md §3 invariant: "if E1 and E2 have
// deadlines d1 < d2, E1 is popped before E2").
type Scheduler struct {
	pq  priorityQueue
	seq uint64
}

// New returns an empty scheduler.
func New() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.pq)
	return s
}

// Schedule queues an event at the given absolute cycle deadline and
// returns a handle that can cancel it.
func (s *Scheduler) Schedule(kind Kind, deadline uint64, data int) Handle {
	it := &item{kind: kind, deadline: deadline, data: data, seq: s.seq}
	s.seq++
	heap.Push(&s.pq, it)
	return Handle{item: it}
}

// Peek returns the deadline of the next live event without removing it,
// and false if the queue is empty of live events.
func (s *Scheduler) Peek() (uint64, bool) {
	for len(s.pq) > 0 {
		top := s.pq[0]
		if top.cancelled {
			heap.Pop(&s.pq)
			continue
		}
		return top.deadline, true
	}
	return 0, false
}

// Pop removes and returns the earliest live event with deadline ≤ now.
// It returns false if no such event exists (cancelled events are
// silently discarded along the way).
func (s *Scheduler) Pop(now uint64) (Event, bool) {
	for len(s.pq) > 0 {
		top := s.pq[0]
		if top.cancelled {
			heap.Pop(&s.pq)
			continue
		}
		if top.deadline > now {
			return Event{}, false
		}
		heap.Pop(&s.pq)
		return Event{Kind: top.kind, Deadline: top.deadline, Data: top.data}, true
	}
	return Event{}, false
}

// Len returns the number of events still queued, live or cancelled.
func (s *Scheduler) Len() int {
	return len(s.pq)
}
