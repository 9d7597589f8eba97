package monitor

// Alternating returns the two-class alternating-priority policy: the
// two classes exclude each other (cars driving north and south on a
// one-lane bridge), agents of the class currently holding the resource
// may join it, and when the resource drains while the opposite class
// is waiting, the turn flips. A class that just went yields to a
// waiting opposite class, which bounds how long either class can be
// starved once both are contending. Within a class there is no arrival
// ordering.
func Alternating(classA, classB string) Policy {
	return &alternatingPolicy{classA: classA, classB: classB}
}

type alternatingPolicy struct {
	classA, classB string
	lastServed     string
}

func (p *alternatingPolicy) name() string { return "alternating" }

func (p *alternatingPolicy) validate(*Pool) error {
	if p.classA == "" || p.classB == "" {
		return configErrorf("alternating policy: class names must be non-empty")
	}
	if p.classA == p.classB {
		return configErrorf("alternating policy: classes must be distinct, both are %q", p.classA)
	}
	return nil
}

func (p *alternatingPolicy) opposite(class string) string {
	if class == p.classA {
		return p.classB
	}
	return p.classA
}

func (p *alternatingPolicy) canAdmit(w *waiter, q *waitQueue, _ *Pool, active map[string]int, _ bool) bool {
	if w.op == opFill {
		return true
	}
	if w.class != p.classA && w.class != p.classB {
		protocolPanic("agent %q: class %q is not served by this alternating policy", w.agent, w.class)
	}
	opp := p.opposite(w.class)
	if active[opp] > 0 {
		return false
	}
	if active[w.class] > 0 {
		// same class already inside, join it
		return true
	}
	// Resource is idle. Yield the turn when the opposite class is
	// waiting and this class was the last one served.
	return q.waitingClass(opp) == 0 || p.lastServed == opp
}

func (p *alternatingPolicy) wake(q *waitQueue, _ *Pool, active map[string]int, ev event) []*waiter {
	ws := q.fillWaiters()
	switch ev.change {
	case gaveResources:
		opp := p.opposite(ev.class)
		if active[p.classA]+active[p.classB] == 0 {
			// Fully drained: the opposite class gets the turn if any
			// of it is waiting, otherwise the same class continues.
			if q.waitingClass(opp) > 0 {
				return append(ws, q.classWaiters(opp)...)
			}
			return append(ws, q.classWaiters(ev.class)...)
		}
		// Still occupied by ev.class; more of it may join.
		return append(ws, q.classWaiters(ev.class)...)
	case waiterLeft:
		// A cancelled waiter can flip the turn computation for both
		// classes; let everyone re-check.
		return q.all()
	default:
		// Admissions and fills don't move the turn; same-class joiners
		// re-check against whatever capacity dimensions remain.
		return append(ws, q.classWaiters(ev.class)...)
	}
}

func (p *alternatingPolicy) released(class string, poolIdle bool) {
	if poolIdle {
		p.lastServed = class
	}
}
