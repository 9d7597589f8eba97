package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// DimWorms is the dish's capacity dimension.
const DimWorms = "worms"

// HungryBirdsConfig sizes the nest.
type HungryBirdsConfig struct {
	Chicks int
	Worms  int // dish capacity, starts full
	Rounds int // worms per chick
}

func DefaultHungryBirds() HungryBirdsConfig {
	return HungryBirdsConfig{Chicks: 4, Worms: 6, Rounds: 5}
}

// HungryBirds is the producer/consumer exercise from the chick's side:
// chicks take one worm each from a dish that starts full, and the
// parent's refill of a full dish worth of worms can only land once the
// dish is empty: Fill blocks on storage space, which for a full-dish
// refill means every worm is gone.
type HungryBirds struct {
	cfg    HungryBirdsConfig
	dish   *monitor.Monitor
	chicks []*sim.Agent
	parent *sim.Agent
}

func NewHungryBirds(cfg HungryBirdsConfig) (*HungryBirds, error) {
	pool, err := monitor.NewPool(map[string]int{DimWorms: cfg.Worms})
	if err != nil {
		return nil, err
	}
	dish, err := monitor.New(pool, monitor.Broadcast())
	if err != nil {
		return nil, err
	}

	h := &HungryBirds{cfg: cfg, dish: dish}
	for i := 0; i < cfg.Chicks; i++ {
		name := fmt.Sprintf("chick-%d", i)
		h.chicks = append(h.chicks, sim.MakeAgent(name, h.chick(name)))
	}
	h.parent = sim.MakeAgent("parent", h.parentAction())
	return h, nil
}

// Dish exposes the dish monitor, for inspection.
func (h *HungryBirds) Dish() *monitor.Monitor { return h.dish }

// Run feeds the chicks until they have all had their rounds, then
// cancels the parent out of whatever refill it is blocked on.
func (h *HungryBirds) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	runWithProducers(ctx, r, h.chicks, []*sim.Agent{h.parent}, log)
}

func (h *HungryBirds) chick(name string) sim.Action {
	rounds := 0
	return func(env sim.Env) bool {
		if rounds >= h.cfg.Rounds {
			return false
		}
		rounds++
		if err := h.dish.Take(env.Ctx(), name, monitor.Demand{DimWorms: 1}); err != nil {
			return false
		}
		env.Log().Event("ate a worm")
		if !pause(env, time.Millisecond, 4*time.Millisecond) { // digest and chirp
			return false
		}
		return rounds < h.cfg.Rounds
	}
}

func (h *HungryBirds) parentAction() sim.Action {
	return func(env sim.Env) bool {
		refill := monitor.Demand{DimWorms: h.cfg.Worms}
		if err := h.dish.Fill(env.Ctx(), "parent", refill); err != nil {
			return false
		}
		env.Log().Event("refilled the dish")
		return true
	}
}
