package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// Bathroom user classes.
const (
	Men   = "men"
	Women = "women"
)

// DimStalls is the bathroom's capacity dimension.
const DimStalls = "stalls"

// BathroomConfig sizes the unisex bathroom.
type BathroomConfig struct {
	Stalls int // stalls shared by whichever class is inside
	Men    int
	Women  int
	Visits int // visits per person
}

func DefaultBathroom() BathroomConfig {
	return BathroomConfig{Stalls: 3, Men: 4, Women: 4, Visits: 4}
}

// Bathroom combines alternating-priority class exclusion with a stall
// capacity: only one class is inside at a time, at most Stalls of
// them. When the last occupant leaves and the other class is waiting,
// the whole waiting class is woken, but each woken person still
// re-validates against the stall count, so a batch larger than the
// stalls degrades to individual admission instead of overfilling.
type Bathroom struct {
	cfg      BathroomConfig
	bathroom *monitor.Monitor
	agents   []*sim.Agent
}

func NewBathroom(cfg BathroomConfig) (*Bathroom, error) {
	pool, err := monitor.NewPool(map[string]int{DimStalls: cfg.Stalls})
	if err != nil {
		return nil, err
	}
	bathroom, err := monitor.New(pool, monitor.Alternating(Men, Women))
	if err != nil {
		return nil, err
	}

	b := &Bathroom{cfg: cfg, bathroom: bathroom}
	for i := 0; i < cfg.Men; i++ {
		name := fmt.Sprintf("man-%d", i)
		b.agents = append(b.agents, sim.MakeAgent(name, b.person(name, Men)))
	}
	for i := 0; i < cfg.Women; i++ {
		name := fmt.Sprintf("woman-%d", i)
		b.agents = append(b.agents, sim.MakeAgent(name, b.person(name, Women)))
	}
	return b, nil
}

// Monitor exposes the bathroom monitor, for inspection.
func (b *Bathroom) Monitor() *monitor.Monitor { return b.bathroom }

// Run sends every person through their visits and joins them.
func (b *Bathroom) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	sim.Run(ctx, r, b.agents, log)
}

func (b *Bathroom) person(name, class string) sim.Action {
	visits := 0
	return func(env sim.Env) bool {
		if visits >= b.cfg.Visits {
			return false
		}
		visits++
		if !pause(env, time.Millisecond, 5*time.Millisecond) { // work
			return false
		}
		stall, err := b.bathroom.Acquire(env.Ctx(), name,
			monitor.Demand{DimStalls: 1}, monitor.WithClass(class))
		if err != nil {
			return false
		}
		env.Log().Event("entered")
		if !pause(env, time.Millisecond, 2*time.Millisecond) {
			stall.Release()
			return false
		}
		stall.Release()
		env.Log().Event("left")
		return visits < b.cfg.Visits
	}
}
