// Package monitor implements a generic concurrent resource monitor: a
// multi-dimensional capacity pool behind a single mutex, predicate-based
// blocking admission, and pluggable fairness policies (strict FCFS
// ticketing, two-class alternating priority, broadcast-and-recheck).
//
// Agents call Acquire and block until their demand fits; the returned
// Grant carries the paired release. Producer-style agents call Fill and
// block until their amounts fit in the remaining storage space. Waiting
// is never an error: the only error Acquire and Fill return is the
// context's, when a wait is cancelled.
package monitor

import (
	"context"
	"sync"
)

// Monitor serializes all pool inspection and mutation behind one mutex
// and delegates wake decisions to its policy. The predicate that admits
// an agent and the mutation that consumes the resources always run in
// the same critical section; a woken agent never trusts the wakeup
// itself, only the re-checked predicate.
type Monitor struct {
	mu     sync.Mutex
	pool   *Pool
	policy Policy
	q      *waitQueue

	active      map[string]int // outstanding grants per class
	outstanding map[string]int // outstanding grants per agent
}

// New creates a monitor over the pool with the given fairness policy.
// Misconfiguration is rejected here, before any agent can block on it.
func New(pool *Pool, policy Policy) (*Monitor, error) {
	if pool == nil {
		return nil, configErrorf("nil pool")
	}
	if policy == nil {
		return nil, configErrorf("nil policy")
	}
	if err := policy.validate(pool); err != nil {
		return nil, err
	}
	return &Monitor{
		pool:        pool,
		policy:      policy,
		q:           newWaitQueue(),
		active:      make(map[string]int),
		outstanding: make(map[string]int),
	}, nil
}

// AcquireOption configures one Acquire call.
type AcquireOption func(*acquireOpts)

type acquireOpts struct {
	class string
	cond  func(*Pool) bool
}

// WithClass tags the request with an agent class. The alternating
// policy requires it; class pools use it for accounting.
func WithClass(class string) AcquireOption {
	return func(o *acquireOpts) { o.class = class }
}

// WithCondition adds an extra admission predicate evaluated under the
// monitor's critical section, on top of capacity availability. The
// dining table uses it to keep a philosopher out while a neighbor
// holds a shared fork.
func WithCondition(cond func(*Pool) bool) AcquireOption {
	return func(o *acquireOpts) { o.cond = cond }
}

// A Grant is one admitted request. Release returns its resources to
// the pool; it must be called exactly once, and releasing twice
// panics. Tying the release to the value handed back by Acquire keeps
// the request/release pairing with the code that owns the slot.
type Grant struct {
	m        *Monitor
	agent    string
	class    string
	demand   Demand
	released bool
}

// Agent returns the id the grant was issued to.
func (g *Grant) Agent() string { return g.agent }

// Release returns the granted amounts to the pool and signals waiters
// according to the policy.
func (g *Grant) Release() {
	m := g.m
	m.locked(func() {
		if g.released {
			protocolPanic("agent %q: grant released twice", g.agent)
		}
		if m.outstanding[g.agent] <= 0 {
			protocolPanic("agent %q: release without a matching acquire", g.agent)
		}
		g.released = true
		m.outstanding[g.agent]--
		m.active[g.class]--
		m.pool.Give(g.demand)
		m.policy.released(g.class, m.activeTotal() == 0)
		m.wakeLocked(event{change: gaveResources, class: g.class})
	})
}

// Acquire blocks until the demand is admitted, then returns the grant.
// Admission requires the policy's consent, the optional extra
// condition, and every demanded dimension having enough available; all
// three are evaluated together under the critical section, and
// re-evaluated on every wakeup. A cancelled wait removes the agent
// from the queue and returns the context's error.
func (m *Monitor) Acquire(ctx context.Context, agent string, demand Demand, opts ...AcquireOption) (*Grant, error) {
	var o acquireOpts
	for _, opt := range opts {
		opt(&o)
	}
	w := &waiter{
		agent:  agent,
		class:  o.class,
		op:     opTake,
		demand: demand.clone(),
		cond:   o.cond,
		ready:  make(chan struct{}, 1),
	}

	g, err := m.take(ctx, w, false)
	return g, err
}

// Take blocks like Acquire but consumes the resources outright: there
// is no grant to release, and the amounts come back to the pool only
// through a later Fill by some producer. A chick taking a worm from
// the dish never gives it back; the parent bird does, by refilling.
func (m *Monitor) Take(ctx context.Context, agent string, demand Demand, opts ...AcquireOption) error {
	var o acquireOpts
	for _, opt := range opts {
		opt(&o)
	}
	w := &waiter{
		agent:  agent,
		class:  o.class,
		op:     opTake,
		demand: demand.clone(),
		cond:   o.cond,
		ready:  make(chan struct{}, 1),
	}
	_, err := m.take(ctx, w, true)
	return err
}

func (m *Monitor) take(ctx context.Context, w *waiter, consume bool) (*Grant, error) {
	var (
		g    *Grant
		done bool
	)
	admitted := func() {
		if !consume {
			g = m.grantLocked(w)
		}
		m.wakeLocked(event{change: tookResources, class: w.class})
		done = true
	}

	m.locked(func() {
		m.pool.validateTake(w.demand)
		if m.admitLocked(w, true) {
			admitted()
			return
		}
		m.q.push(w)
	})
	if done {
		return g, nil
	}
	for {
		select {
		case <-ctx.Done():
			m.locked(func() {
				m.q.remove(w)
				m.wakeLocked(event{change: waiterLeft, class: w.class})
			})
			return nil, ctx.Err()
		case <-w.ready:
		}
		m.locked(func() {
			if m.admitLocked(w, false) {
				m.q.remove(w)
				admitted()
			}
		})
		if done {
			return g, nil
		}
	}
}

// Fill blocks until the amounts fit in the pool's remaining space,
// then adds them. It is the converse of Acquire: a supply vehicle
// waits on storage space the way an ordinary vehicle waits on fuel.
func (m *Monitor) Fill(ctx context.Context, agent string, amounts Demand) error {
	w := &waiter{
		agent:  agent,
		op:     opFill,
		demand: amounts.clone(),
		ready:  make(chan struct{}, 1),
	}

	var done bool
	m.locked(func() {
		m.pool.validateFill(w.demand)
		if m.admitLocked(w, true) {
			m.wakeLocked(event{change: filledResources})
			done = true
			return
		}
		m.q.push(w)
	})
	if done {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			m.locked(func() {
				m.q.remove(w)
				m.wakeLocked(event{change: waiterLeft})
			})
			return ctx.Err()
		case <-w.ready:
		}
		m.locked(func() {
			if m.admitLocked(w, false) {
				m.q.remove(w)
				m.wakeLocked(event{change: filledResources})
				done = true
			}
		})
		if done {
			return nil
		}
	}
}

// locked runs fn while holding the monitor mutex. The unlock is
// deferred so a protocol panic raised inside a critical section leaves
// the monitor usable for callers that recover it.
func (m *Monitor) locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// admitLocked evaluates the full admission predicate and, when it
// holds, performs the pool mutation. Check and mutation are one step
// under the critical section; there is no window for another agent to
// observe a partial update.
func (m *Monitor) admitLocked(w *waiter, arriving bool) bool {
	if !m.policy.canAdmit(w, m.q, m.pool, m.active, arriving) {
		return false
	}
	if w.cond != nil && !w.cond(m.pool) {
		return false
	}
	if w.op == opFill {
		return m.pool.TryFill(w.demand)
	}
	return m.pool.TryTake(w.demand)
}

func (m *Monitor) grantLocked(w *waiter) *Grant {
	m.active[w.class]++
	m.outstanding[w.agent]++
	return &Grant{m: m, agent: w.agent, class: w.class, demand: w.demand}
}

func (m *Monitor) wakeLocked(ev event) {
	for _, w := range m.policy.wake(m.q, m.pool, m.active, ev) {
		w.wake()
	}
}

func (m *Monitor) activeTotal() int {
	n := 0
	for _, c := range m.active {
		n += c
	}
	return n
}

// Stats is a point-in-time snapshot of the monitor, for narration and
// tests.
type Stats struct {
	Available map[string]int // free amount per dimension
	Active    map[string]int // outstanding grants per class
	Waiting   int            // blocked agents
}

// Stats snapshots the monitor state.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Available: make(map[string]int, len(m.pool.avail)),
		Active:    make(map[string]int, len(m.active)),
		Waiting:   m.q.len(),
	}
	for dim, a := range m.pool.avail {
		s.Available[dim] = a
	}
	for class, n := range m.active {
		s.Active[class] = n
	}
	return s
}
