package monitor

// Broadcast returns the wake-everyone policy: on every state change all
// blocked agents are signaled and each re-checks its own predicate;
// whoever the scheduler runs first and still fits proceeds. This is the
// weakest ordering guarantee of the three policies: every waiter is
// re-considered on every change, so nobody is forgotten, but there is
// no bound on how many times a given waiter loses the race. Callers
// that need arrival ordering want Ticket instead.
func Broadcast() Policy { return broadcastPolicy{} }

type broadcastPolicy struct{}

func (broadcastPolicy) name() string { return "broadcast" }

func (broadcastPolicy) validate(*Pool) error { return nil }

func (broadcastPolicy) canAdmit(*waiter, *waitQueue, *Pool, map[string]int, bool) bool {
	return true
}

func (broadcastPolicy) wake(q *waitQueue, _ *Pool, _ map[string]int, _ event) []*waiter {
	return q.all()
}

func (broadcastPolicy) released(string, bool) {}
