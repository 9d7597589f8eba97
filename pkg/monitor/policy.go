package monitor

// change describes which direction a pool mutation moved resources,
// so policies can decide who is worth waking.
type change uint8

const (
	// tookResources: an acquire was admitted. Frees storage space.
	tookResources change = iota
	// gaveResources: a grant was released. Frees resources.
	gaveResources
	// filledResources: a fill landed. Adds resources, consumes space.
	filledResources
	// waiterLeft: a blocked agent cancelled. The head of the line, or
	// the class turn, may have changed.
	waiterLeft
)

// event is one pool mutation, as seen by the wake pass.
type event struct {
	change change
	class  string
}

// A Policy decides which blocked agents may attempt admission and who
// gets signaled after each state change. All methods run under the
// monitor's critical section.
type Policy interface {
	name() string

	// validate lets the policy reject the monitor configuration.
	validate(pool *Pool) error

	// canAdmit reports whether w may attempt admission now. It does not
	// check resource availability; the monitor evaluates the pool and
	// any extra condition separately. arriving is true on w's first
	// attempt, before it has been queued.
	canAdmit(w *waiter, q *waitQueue, pool *Pool, active map[string]int, arriving bool) bool

	// wake selects the waiters to signal after ev. Every woken waiter
	// re-checks its own predicate before taking anything, so waking too
	// many is wasteful but never incorrect.
	wake(q *waitQueue, pool *Pool, active map[string]int, ev event) []*waiter

	// released records bookkeeping after a release of the given class.
	// poolIdle is true when no grant remains outstanding.
	released(class string, poolIdle bool)
}
