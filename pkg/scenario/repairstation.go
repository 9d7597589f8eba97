package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/suhaib921/resmon/pkg/monitor"
	"github.com/suhaib921/resmon/pkg/sim"
)

// RepairStationConfig sizes the multi-type repair station.
type RepairStationConfig struct {
	Total    int            // total bays, all types together
	Capacity map[string]int // bays per vehicle type
	Reserves map[string]int // bays held back per type, optional

	PerType int // vehicles per type
	Visits  int // repair visits per vehicle
}

func DefaultRepairStation() RepairStationConfig {
	return RepairStationConfig{
		Total:    7,
		Capacity: map[string]int{"typeA": 3, "typeB": 2, "typeC": 4},
		PerType:  4,
		Visits:   3,
	}
}

// RepairStation admits vehicles against a per-type bay limit and a
// shared total, checked jointly, with broadcast-recheck waking: every
// finished repair wakes everyone and whoever still fits enters.
type RepairStation struct {
	cfg     RepairStationConfig
	station *monitor.Monitor
	agents  []*sim.Agent
}

func NewRepairStation(cfg RepairStationConfig) (*RepairStation, error) {
	pool, err := monitor.NewClassPool(cfg.Total, cfg.Capacity, cfg.Reserves)
	if err != nil {
		return nil, err
	}
	station, err := monitor.New(pool, monitor.Broadcast())
	if err != nil {
		return nil, err
	}

	rs := &RepairStation{cfg: cfg, station: station}
	types := make([]string, 0, len(cfg.Capacity))
	for t := range cfg.Capacity {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		for i := 0; i < cfg.PerType; i++ {
			name := fmt.Sprintf("%s-%d", t, i)
			rs.agents = append(rs.agents, sim.MakeAgent(name, rs.vehicle(name, t)))
		}
	}
	return rs, nil
}

// Station exposes the station monitor, for inspection.
func (rs *RepairStation) Station() *monitor.Monitor { return rs.station }

// Run drives every vehicle through its visits and joins them.
func (rs *RepairStation) Run(ctx context.Context, r *rand.Rand, log sim.Logger) {
	sim.Run(ctx, r, rs.agents, log)
}

func (rs *RepairStation) vehicle(name, vtype string) sim.Action {
	visits := 0
	return func(env sim.Env) bool {
		if visits >= rs.cfg.Visits {
			return false
		}
		visits++
		if !pause(env, time.Millisecond, 5*time.Millisecond) {
			return false
		}

		bay, err := rs.station.Acquire(env.Ctx(), name,
			monitor.ClassDemand(vtype), monitor.WithClass(vtype))
		if err != nil {
			return false
		}
		env.Log().Event("entered repair bay")
		if !pause(env, time.Millisecond, 4*time.Millisecond) {
			bay.Release()
			return false
		}
		bay.Release()
		env.Log().Event("repaired and left")
		return visits < rs.cfg.Visits
	}
}
