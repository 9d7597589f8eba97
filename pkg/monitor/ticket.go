package monitor

// Ticket returns the strict first-come-first-served policy. Agents that
// block are served in arrival order: only the head of the line may
// attempt admission, and while the head's predicate fails nobody behind
// it is admitted, even if its own demand could be met. An arriving
// agent whose demand is immediately satisfiable does not queue at all.
//
// Takers and fillers are ordered independently: fuel being unavailable
// for the head taker must not stall a supply vehicle waiting on
// storage space, and vice versa.
func Ticket() Policy { return ticketPolicy{} }

type ticketPolicy struct{}

func (ticketPolicy) name() string { return "ticket" }

func (ticketPolicy) validate(*Pool) error { return nil }

func (ticketPolicy) canAdmit(w *waiter, q *waitQueue, _ *Pool, _ map[string]int, arriving bool) bool {
	if arriving {
		return true
	}
	return q.head(w.op) == w
}

func (ticketPolicy) wake(q *waitQueue, _ *Pool, _ map[string]int, _ event) []*waiter {
	// Any mutation can free resources for the head taker or space for
	// the head filler. Both re-check under the lock, so waking both is
	// at worst one wasted wakeup.
	var ws []*waiter
	if h := q.head(opTake); h != nil {
		ws = append(ws, h)
	}
	if h := q.head(opFill); h != nil {
		ws = append(ws, h)
	}
	return ws
}

func (ticketPolicy) released(string, bool) {}
