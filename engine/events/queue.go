package events

import "sync"

// Queue is an unbounded FIFO of fight events. Push never blocks on the
// consumer; under sustained overload it grows without bound.
type Queue struct {
	mu     sync.Mutex
	events []FightEvent
	head   int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends ev at the tail.
func (q *Queue) Push(ev FightEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (FightEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.events) {
		return FightEvent{}, false
	}
	ev := q.events[q.head]
	q.events[q.head] = FightEvent{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head == len(q.events) {
		q.events = q.events[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.events) {
		n := copy(q.events, q.events[q.head:])
		q.events = q.events[:n]
		q.head = 0
	}
	return ev, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events) - q.head
}
