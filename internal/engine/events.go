package engine

// EventQueue carries closures from worker goroutines to the render thread.
// Post may be called from any goroutine; Drain only from the loop.
type EventQueue struct {
	ch chan func()
}

func NewEventQueue(size int) *EventQueue {
	if size <= 0 {
		size = 64
	}
	return &EventQueue{ch: make(chan func(), size)}
}

// Post blocks while the queue is full.
func (q *EventQueue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.ch <- fn
}

// Drain runs every closure queued so far and returns how many ran.
// Closures posted while draining wait for the next frame.
func (q *EventQueue) Drain() int {
	n := len(q.ch)
	for i := 0; i < n; i++ {
		fn := <-q.ch
		fn()
	}
	return n
}

func (q *EventQueue) Len() int {
	return len(q.ch)
}
