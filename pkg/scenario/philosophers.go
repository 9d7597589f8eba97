package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// PhilosophersConfig sizes the dining table.
type PhilosophersConfig struct {
	Seats  int // philosophers, and forks
	Rounds int // meals per philosopher
}

func DefaultPhilosophers() PhilosophersConfig {
	return PhilosophersConfig{Seats: 5, Rounds: 5}
}

// ForkDim names the fork to the left of seat i.
func ForkDim(i int) string { return fmt.Sprintf("fork%d", i) }

// Philosophers seats N philosophers around a table of N forks, one
// dimension per fork, under the ticket policy: a hungry philosopher
// whose forks are free eats immediately, and once one has to wait, no
// philosopher who got hungry later is served first. Adjacency needs no
// special case; two neighbors simply demand the same fork dimension.
type Philosophers struct {
	cfg    PhilosophersConfig
	table  *monitor.Monitor
	agents []*sim.Agent
}

func NewPhilosophers(cfg PhilosophersConfig) (*Philosophers, error) {
	caps := make(map[string]int, cfg.Seats)
	for i := 0; i < cfg.Seats; i++ {
		caps[ForkDim(i)] = 1
	}
	table, err := monitor.New(mustPool(monitor.NewPool(caps)), monitor.Ticket())
	if err != nil {
		return nil, err
	}

	p := &Philosophers{cfg: cfg, table: table}
	for i := 0; i < cfg.Seats; i++ {
		name := fmt.Sprintf("philosopher-%d", i)
		p.agents = append(p.agents, sim.MakeAgent(name, p.philosopher(name, i)))
	}
	return p, nil
}

func mustPool(p *monitor.Pool, err error) *monitor.Pool {
	if err != nil {
		panic(err)
	}
	return p
}

// Table exposes the table monitor, for inspection.
func (p *Philosophers) Table() *monitor.Monitor { return p.table }

// Demand returns the two forks seat i needs.
func (p *Philosophers) Demand(i int) monitor.Demand {
	left, right := ForkDim(i), ForkDim((i+1)%p.cfg.Seats)
	return monitor.Demand{left: 1, right: 1}
}

// Run feeds every philosopher its rounds and joins them.
func (p *Philosophers) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	sim.Run(ctx, r, p.agents, log)
}

func (p *Philosophers) philosopher(name string, seat int) sim.Action {
	rounds := 0
	return func(env sim.Env) bool {
		if rounds >= p.cfg.Rounds {
			return false
		}
		rounds++
		if !pause(env, time.Millisecond, 5*time.Millisecond) { // think
			return false
		}
		forks, err := p.table.Acquire(env.Ctx(), name, p.Demand(seat))
		if err != nil {
			return false
		}
		env.Log().Event("eating")
		if !pause(env, time.Millisecond, 3*time.Millisecond) { // eat
			forks.Release()
			return false
		}
		forks.Release()
		env.Log().Event("thinking")
		return rounds < p.cfg.Rounds
	}
}
