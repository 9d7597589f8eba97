package monitor

// op is what a blocked agent is trying to do.
type op uint8

const (
	opTake op = iota
	opFill
)

// A waiter is one blocked agent: who it is, what it wants, and the
// channel it blocks on. The sequence number is assigned at queueing
// time, never reused, and is what the ticket policy orders by.
type waiter struct {
	seq    uint64
	agent  string
	class  string
	op     op
	demand Demand
	cond   func(*Pool) bool
	ready  chan struct{}
}

// wake signals the waiter to re-check its predicate. The channel is
// buffered so a wake sent between the waiter dropping the monitor lock
// and entering its select is not lost.
func (w *waiter) wake() {
	select {
	case w.ready <- struct{}{}:
	default:
	}
}

// waitQueue keeps blocked agents in arrival order.
type waitQueue struct {
	nextSeq uint64
	entries []*waiter
}

func newWaitQueue() *waitQueue {
	return &waitQueue{}
}

// push assigns the next sequence number and appends the waiter.
func (q *waitQueue) push(w *waiter) {
	w.seq = q.nextSeq
	q.nextSeq++
	q.entries = append(q.entries, w)
}

func (q *waitQueue) remove(w *waiter) {
	for i, e := range q.entries {
		if e == w {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *waitQueue) len() int { return len(q.entries) }

// head returns the earliest-arrived waiter performing the given
// operation, or nil.
func (q *waitQueue) head(o op) *waiter {
	for _, e := range q.entries {
		if e.op == o {
			return e
		}
	}
	return nil
}

// waitingClass counts blocked takers of the given class.
func (q *waitQueue) waitingClass(class string) int {
	n := 0
	for _, e := range q.entries {
		if e.op == opTake && e.class == class {
			n++
		}
	}
	return n
}

// classWaiters returns all blocked takers of the given class, in
// arrival order.
func (q *waitQueue) classWaiters(class string) []*waiter {
	var ws []*waiter
	for _, e := range q.entries {
		if e.op == opTake && e.class == class {
			ws = append(ws, e)
		}
	}
	return ws
}

// fillWaiters returns all blocked fillers, in arrival order.
func (q *waitQueue) fillWaiters() []*waiter {
	var ws []*waiter
	for _, e := range q.entries {
		if e.op == opFill {
			ws = append(ws, e)
		}
	}
	return ws
}

// all returns every blocked waiter, in arrival order.
func (q *waitQueue) all() []*waiter {
	return append([]*waiter(nil), q.entries...)
}
