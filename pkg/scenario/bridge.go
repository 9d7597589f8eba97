package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// Bridge directions.
const (
	Northbound = "north"
	Southbound = "south"
)

// BridgeConfig sizes the one-lane bridge.
type BridgeConfig struct {
	North     int // northbound cars
	South     int // southbound cars
	Crossings int // crossings per car
}

func DefaultBridge() BridgeConfig {
	return BridgeConfig{North: 4, South: 4, Crossings: 4}
}

// Bridge is pure mutual exclusion between two directions: the pool has
// no capacity dimension at all, any number of cars may share the
// bridge in one direction, and the alternating policy flips the turn
// when the bridge drains while the other side is waiting.
type Bridge struct {
	cfg    BridgeConfig
	bridge *monitor.Monitor
	agents []*sim.Agent
}

func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	bridge, err := monitor.New(
		mustPool(monitor.NewPool(nil)),
		monitor.Alternating(Northbound, Southbound),
	)
	if err != nil {
		return nil, err
	}

	b := &Bridge{cfg: cfg, bridge: bridge}
	for i := 0; i < cfg.North; i++ {
		name := fmt.Sprintf("car-north-%d", i)
		b.agents = append(b.agents, sim.MakeAgent(name, b.car(name, Northbound)))
	}
	for i := 0; i < cfg.South; i++ {
		name := fmt.Sprintf("car-south-%d", i)
		b.agents = append(b.agents, sim.MakeAgent(name, b.car(name, Southbound)))
	}
	return b, nil
}

// Monitor exposes the bridge monitor, for inspection.
func (b *Bridge) Monitor() *monitor.Monitor { return b.bridge }

// Run drives every car through its crossings and joins them.
func (b *Bridge) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	sim.Run(ctx, r, b.agents, log)
}

func (b *Bridge) car(name, dir string) sim.Action {
	crossings := 0
	return func(env sim.Env) bool {
		if crossings >= b.cfg.Crossings {
			return false
		}
		crossings++
		if !pause(env, time.Millisecond, 5*time.Millisecond) { // drive to the bridge
			return false
		}
		slot, err := b.bridge.Acquire(env.Ctx(), name, nil, monitor.WithClass(dir))
		if err != nil {
			return false
		}
		env.Log().KV("direction", dir).Event("crossing")
		if !pause(env, time.Millisecond, 2*time.Millisecond) { // cross
			slot.Release()
			return false
		}
		slot.Release()
		env.Log().KV("direction", dir).Event("crossed")
		return crossings < b.cfg.Crossings
	}
}
