package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// Fuel station dimensions.
const (
	DimDocks    = "docks"
	DimNitrogen = "nitrogen"
	DimQuantum  = "quantum"
)

// FuelStationConfig sizes the space fuel station.
type FuelStationConfig struct {
	Docks    int // parallel docking spots
	Nitrogen int // nitrogen storage capacity, liters
	Quantum  int // quantum fluid storage capacity, liters
	Fill     int // initial fill, percent of capacity

	Vehicles int // ordinary vehicles
	Supplies int // supply vehicles
	Trips    int // trips per vehicle

	DeliverNitrogen int // liters per supply delivery
	DeliverQuantum  int
}

// DefaultFuelStation returns a configuration whose deliveries all fit
// into storage even if no vehicle ever consumes, so no supply vehicle
// can block forever.
func DefaultFuelStation() FuelStationConfig {
	return FuelStationConfig{
		Docks:           3,
		Nitrogen:        2000,
		Quantum:         1000,
		Fill:            25,
		Vehicles:        5,
		Supplies:        2,
		Trips:           3,
		DeliverNitrogen: 200,
		DeliverQuantum:  100,
	}
}

// FuelStation couples a ticket-ordered dock monitor with a
// broadcast-ordered fuel storage monitor. Vehicles take fuel, supply
// vehicles wait on storage space to deliver and then dock to refuel for
// their own return trip. A delivery happens before docking, so a supply
// vehicle blocked on space never holds a dock. Taking fuel frees
// storage space and deliveries make fuel available, so each monitor
// operation can unblock the other kind of waiter.
type FuelStation struct {
	cfg    FuelStationConfig
	docks  *monitor.Monitor
	fuel   *monitor.Monitor
	agents []*sim.Agent
}

func NewFuelStation(cfg FuelStationConfig) (*FuelStation, error) {
	dockPool, err := monitor.NewPool(map[string]int{DimDocks: cfg.Docks})
	if err != nil {
		return nil, err
	}
	docks, err := monitor.New(dockPool, monitor.Ticket())
	if err != nil {
		return nil, err
	}
	fuelPool, err := monitor.NewFilledPool(
		map[string]int{DimNitrogen: cfg.Nitrogen, DimQuantum: cfg.Quantum},
		map[string]int{
			DimNitrogen: cfg.Nitrogen * cfg.Fill / 100,
			DimQuantum:  cfg.Quantum * cfg.Fill / 100,
		},
	)
	if err != nil {
		return nil, err
	}
	fuel, err := monitor.New(fuelPool, monitor.Broadcast())
	if err != nil {
		return nil, err
	}

	fs := &FuelStation{cfg: cfg, docks: docks, fuel: fuel}
	for i := 0; i < cfg.Vehicles; i++ {
		name := fmt.Sprintf("vehicle-%d", i)
		fs.agents = append(fs.agents, sim.MakeAgent(name, fs.vehicle(name, false)))
	}
	for i := 0; i < cfg.Supplies; i++ {
		name := fmt.Sprintf("supply-%d", i)
		fs.agents = append(fs.agents, sim.MakeAgent(name, fs.vehicle(name, true)))
	}
	return fs, nil
}

// Docks exposes the dock monitor, for inspection.
func (fs *FuelStation) Docks() *monitor.Monitor { return fs.docks }

// Fuel exposes the fuel storage monitor, for inspection.
func (fs *FuelStation) Fuel() *monitor.Monitor { return fs.fuel }

// Run drives every vehicle through its trips and joins them.
func (fs *FuelStation) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	sim.Run(ctx, r, fs.agents, log)
}

func (fs *FuelStation) vehicle(name string, supply bool) sim.Action {
	trips := 0
	return func(env sim.Env) bool {
		if trips >= fs.cfg.Trips {
			return false
		}
		trips++
		if !pause(env, time.Millisecond, 5*time.Millisecond) {
			return false
		}

		if supply {
			// deliveries pump straight into storage, no dock needed:
			// a supply vehicle blocked on storage space must not hold
			// the dock the consumers need to drain that storage
			delivery := monitor.Demand{
				DimNitrogen: fs.cfg.DeliverNitrogen,
				DimQuantum:  fs.cfg.DeliverQuantum,
			}
			if err := fs.fuel.Fill(env.Ctx(), name, delivery); err != nil {
				return false
			}
			env.Log().
				KV("nitrogen", strconv.Itoa(fs.cfg.DeliverNitrogen)).
				KV("quantum", strconv.Itoa(fs.cfg.DeliverQuantum)).
				Event("delivered fuel")
		}

		dock, err := fs.docks.Acquire(env.Ctx(), name, monitor.Demand{DimDocks: 1})
		if err != nil {
			return false
		}
		env.Log().Event("docked")

		need := monitor.Demand{
			DimNitrogen: 10 + env.Rand().Intn(40),
			DimQuantum:  5 + env.Rand().Intn(20),
		}
		if err := fs.fuel.Take(env.Ctx(), name, need); err != nil {
			dock.Release()
			return false
		}
		env.Log().Event("refueled")

		if !pause(env, time.Millisecond, 3*time.Millisecond) {
			dock.Release()
			return false
		}
		dock.Release()
		env.Log().Event("departed")
		return trips < fs.cfg.Trips
	}
}
