package bridge

import "sync"

// mailbox is an unbounded FIFO queue. Push never blocks; Pop blocks
// until a value arrives or the mailbox closes. A closed mailbox still
// drains its backlog before Pop reports closed, so no message is lost
// on shutdown.
//
// mailbox must not be copied after creation (has mutex).
type mailbox[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	head   int
	closed bool
}

func newMailbox[T any]() *mailbox[T] {
	m := &mailbox[T]{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Push enqueues v. It returns false when the mailbox is closed.
func (m *mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()
	m.cond.Signal()
	return true
}

// Pop dequeues the oldest message, blocking while the mailbox is empty
// and open. The second result is false once the mailbox is closed and
// drained.
func (m *mailbox[T]) Pop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.head == len(m.queue) && !m.closed {
		m.cond.Wait()
	}
	return m.popLocked()
}

// TryPop dequeues without blocking. The second result is false when
// nothing is queued.
func (m *mailbox[T]) TryPop() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.head == len(m.queue) {
		var zero T
		return zero, false
	}
	return m.popLocked()
}

func (m *mailbox[T]) popLocked() (T, bool) {
	var zero T
	if m.head == len(m.queue) {
		return zero, false
	}
	v := m.queue[m.head]
	m.queue[m.head] = zero
	m.head++
	switch {
	case m.head == len(m.queue):
		m.queue = m.queue[:0]
		m.head = 0
	case m.head >= 64 && m.head >= len(m.queue)/2:
		// Compact so the backing array tracks the backlog, not the
		// total traffic.
		n := copy(m.queue, m.queue[m.head:])
		for i := n; i < len(m.queue); i++ {
			m.queue[i] = zero
		}
		m.queue = m.queue[:n]
		m.head = 0
	}
	return v, true
}

// Len reports the current backlog.
func (m *mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue) - m.head
}

// Close stops accepting messages and wakes all blocked receivers.
func (m *mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
}
