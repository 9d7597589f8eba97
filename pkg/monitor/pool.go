package monitor

import "sort"

// Demand maps resource dimension names to amounts. An agent's demand is
// granted all-or-nothing: either every named dimension has enough
// available, or nothing is taken.
type Demand map[string]int

func (d Demand) clone() Demand {
	out := make(Demand, len(d))
	for dim, n := range d {
		out[dim] = n
	}
	return out
}

// DimTotal is the shared dimension every class of a class pool also
// consumes from.
const DimTotal = "total"

// ClassDemand is the demand one agent of the given class places on a
// class pool: one slot of its class, one slot of the shared total.
func ClassDemand(class string) Demand {
	return Demand{class: 1, DimTotal: 1}
}

// A Pool holds multi-dimensional capacity counters. It does no locking
// of its own: every method must be called while holding the owning
// Monitor's critical section, which is what makes check-and-mutate
// atomic from the agents' point of view.
//
// A pool may have no dimensions at all, in which case admission is
// governed entirely by the fairness policy (the one-lane bridge has no
// capacity, only a direction rule).
type Pool struct {
	caps  map[string]int
	avail map[string]int

	// class pool bookkeeping, empty otherwise
	total    string
	classes  []string
	reserves map[string]int
}

// NewPool makes a pool with the given per-dimension capacities, all
// fully available.
func NewPool(caps map[string]int) (*Pool, error) {
	p := &Pool{
		caps:  make(map[string]int, len(caps)),
		avail: make(map[string]int, len(caps)),
	}
	for dim, c := range caps {
		if c <= 0 {
			return nil, configErrorf("dimension %q: capacity must be positive, got %d", dim, c)
		}
		p.caps[dim] = c
		p.avail[dim] = c
	}
	return p, nil
}

// NewFilledPool makes a pool whose named dimensions start at the given
// fill level instead of full. Producer pools start low (an empty honey
// pot) and are refilled by Fill calls.
func NewFilledPool(caps, fill map[string]int) (*Pool, error) {
	p, err := NewPool(caps)
	if err != nil {
		return nil, err
	}
	for dim, f := range fill {
		c, ok := p.caps[dim]
		if !ok {
			return nil, configErrorf("fill names unknown dimension %q", dim)
		}
		if f < 0 || f > c {
			return nil, configErrorf("dimension %q: initial fill %d outside [0, %d]", dim, f, c)
		}
		p.avail[dim] = f
	}
	return p, nil
}

// NewClassPool makes a pool where each class has its own capacity and
// all classes share a total capacity; both bounds are checked jointly
// on admission. Reserves optionally hold back slots for a class: a
// request is admitted only if, after it, enough of the total remains to
// cover the unmet reserves of the classes it does not belong to.
func NewClassPool(total int, classCaps map[string]int, reserves map[string]int) (*Pool, error) {
	if total <= 0 {
		return nil, configErrorf("total capacity must be positive, got %d", total)
	}
	if len(classCaps) == 0 {
		return nil, configErrorf("class pool needs at least one class")
	}
	caps := map[string]int{DimTotal: total}
	classes := make([]string, 0, len(classCaps))
	for class, c := range classCaps {
		if class == DimTotal {
			return nil, configErrorf("class name %q is reserved", DimTotal)
		}
		if c <= 0 || c > total {
			return nil, configErrorf("class %q: capacity %d outside [1, total=%d]", class, c, total)
		}
		caps[class] = c
		classes = append(classes, class)
	}
	sort.Strings(classes)

	sum := 0
	for class, r := range reserves {
		if _, ok := classCaps[class]; !ok {
			return nil, configErrorf("reserve names unknown class %q", class)
		}
		if r < 0 || r > classCaps[class] {
			return nil, configErrorf("class %q: reserve %d outside [0, capacity=%d]", class, r, classCaps[class])
		}
		sum += r
	}
	if sum > total {
		return nil, configErrorf("sum of reserves %d exceeds total capacity %d", sum, total)
	}
	if sum == total {
		for _, class := range classes {
			if reserves[class] == 0 {
				return nil, configErrorf("class %q can never be admitted: reserves consume the whole pool", class)
			}
		}
	}

	p, err := NewPool(caps)
	if err != nil {
		return nil, err
	}
	p.total = DimTotal
	p.classes = classes
	if len(reserves) > 0 {
		p.reserves = make(map[string]int, len(reserves))
		for class, r := range reserves {
			p.reserves[class] = r
		}
	}
	return p, nil
}

// Capacity returns the capacity of a dimension.
func (p *Pool) Capacity(dim string) int {
	c, ok := p.caps[dim]
	if !ok {
		protocolPanic("unknown dimension %q", dim)
	}
	return c
}

// Available returns how much of a dimension is currently free.
func (p *Pool) Available(dim string) int {
	a, ok := p.avail[dim]
	if !ok {
		protocolPanic("unknown dimension %q", dim)
	}
	return a
}

// InUse returns how much of a dimension is currently taken.
func (p *Pool) InUse(dim string) int { return p.Capacity(dim) - p.Available(dim) }

// Idle reports whether every dimension is fully available.
func (p *Pool) Idle() bool {
	for dim, c := range p.caps {
		if p.avail[dim] != c {
			return false
		}
	}
	return true
}

// CanTake reports whether the demand could be taken right now.
func (p *Pool) CanTake(d Demand) bool {
	for dim, n := range d {
		if p.avail[dim] < n {
			return false
		}
	}
	if len(p.reserves) > 0 && p.avail[p.total]-d[p.total] < p.reservedForOthers(d) {
		return false
	}
	return true
}

// TryTake takes the demand from the pool if every dimension has enough
// available, or takes nothing and reports false.
func (p *Pool) TryTake(d Demand) bool {
	if !p.CanTake(d) {
		return false
	}
	for dim, n := range d {
		p.avail[dim] -= n
	}
	return true
}

// Give returns previously taken amounts to the pool. Giving back more
// than was taken is a protocol violation and panics.
func (p *Pool) Give(d Demand) {
	for dim, n := range d {
		c, ok := p.caps[dim]
		if !ok {
			protocolPanic("release names unknown dimension %q", dim)
		}
		if p.avail[dim]+n > c {
			protocolPanic("release of %d on dimension %q exceeds capacity %d (available %d)",
				n, dim, c, p.avail[dim])
		}
	}
	for dim, n := range d {
		p.avail[dim] += n
	}
}

// CanFill reports whether the amounts fit in the remaining storage
// space of every named dimension.
func (p *Pool) CanFill(d Demand) bool {
	for dim, n := range d {
		if p.avail[dim]+n > p.caps[dim] {
			return false
		}
	}
	return true
}

// TryFill adds the amounts to the pool if they all fit, or adds
// nothing and reports false.
func (p *Pool) TryFill(d Demand) bool {
	if !p.CanFill(d) {
		return false
	}
	for dim, n := range d {
		p.avail[dim] += n
	}
	return true
}

// reservedForOthers sums the unmet reserves of every class the demand
// does not belong to.
func (p *Pool) reservedForOthers(d Demand) int {
	held := 0
	for _, class := range p.classes {
		if d[class] > 0 {
			continue
		}
		if deficit := p.reserves[class] - p.InUse(class); deficit > 0 {
			held += deficit
		}
	}
	return held
}

// validateTake panics on demands that are malformed or can never be
// satisfied, so a bad request fails loudly instead of blocking forever.
func (p *Pool) validateTake(d Demand) {
	for dim, n := range d {
		c, ok := p.caps[dim]
		if !ok {
			protocolPanic("demand names unknown dimension %q", dim)
		}
		if n < 0 {
			protocolPanic("demand of %d on dimension %q is negative", n, dim)
		}
		if n > c {
			protocolPanic("demand of %d on dimension %q can never be satisfied (capacity %d)", n, dim, c)
		}
	}
}

func (p *Pool) validateFill(d Demand) {
	for dim, n := range d {
		c, ok := p.caps[dim]
		if !ok {
			protocolPanic("fill names unknown dimension %q", dim)
		}
		if n < 0 {
			protocolPanic("fill of %d on dimension %q is negative", n, dim)
		}
		if n > c {
			protocolPanic("fill of %d on dimension %q can never fit (capacity %d)", n, dim, c)
		}
	}
}
