package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// DimHoney is the pot's capacity dimension.
const DimHoney = "honey"

// BearAndBeesConfig sizes the hive.
type BearAndBeesConfig struct {
	Bees     int
	Portions int // pot capacity, starts empty
	Rounds   int // portions gathered per bee
}

func DefaultBearAndBees() BearAndBeesConfig {
	return BearAndBeesConfig{Bees: 5, Portions: 8, Rounds: 6}
}

// BearAndBees is the producer/consumer exercise from the producer's
// side: bees each add one portion to a pot that starts empty and block
// when it is full; the bear demands the whole pot at once, so it
// sleeps until the pot is full and drains it in one take. The bear
// eats outside the critical section, so bees resume filling while it
// chews.
type BearAndBees struct {
	cfg  BearAndBeesConfig
	pot  *monitor.Monitor
	bees []*sim.Agent
	bear *sim.Agent
}

func NewBearAndBees(cfg BearAndBeesConfig) (*BearAndBees, error) {
	pool, err := monitor.NewFilledPool(
		map[string]int{DimHoney: cfg.Portions},
		map[string]int{DimHoney: 0},
	)
	if err != nil {
		return nil, err
	}
	pot, err := monitor.New(pool, monitor.Broadcast())
	if err != nil {
		return nil, err
	}

	b := &BearAndBees{cfg: cfg, pot: pot}
	for i := 0; i < cfg.Bees; i++ {
		name := fmt.Sprintf("bee-%d", i)
		b.bees = append(b.bees, sim.MakeAgent(name, b.bee(name)))
	}
	b.bear = sim.MakeAgent("bear", b.bearAction())
	return b, nil
}

// Pot exposes the pot monitor, for inspection.
func (b *BearAndBees) Pot() *monitor.Monitor { return b.pot }

// Run lets the bees gather their rounds, then cancels the bear out of
// its wait for one more full pot.
func (b *BearAndBees) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	runWithProducers(ctx, r, b.bees, []*sim.Agent{b.bear}, log)
}

func (b *BearAndBees) bee(name string) sim.Action {
	rounds := 0
	return func(env sim.Env) bool {
		if rounds >= b.cfg.Rounds {
			return false
		}
		rounds++
		if !pause(env, time.Millisecond, 4*time.Millisecond) { // forage
			return false
		}
		if err := b.pot.Fill(env.Ctx(), name, monitor.Demand{DimHoney: 1}); err != nil {
			return false
		}
		env.Log().Event("added a portion")
		return rounds < b.cfg.Rounds
	}
}

func (b *BearAndBees) bearAction() sim.Action {
	return func(env sim.Env) bool {
		all := monitor.Demand{DimHoney: b.cfg.Portions}
		if err := b.pot.Take(env.Ctx(), "bear", all); err != nil {
			return false
		}
		env.Log().Event("ate the pot")
		// chew outside the monitor; bees keep filling meanwhile
		return pause(env, time.Millisecond, 3*time.Millisecond)
	}
}
