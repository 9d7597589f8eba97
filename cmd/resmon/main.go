// resmon runs the classic resource-coordination exercises against the
// monitor library, one subcommand per scenario.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/suhaib921/resmon/pkg/scenario"
	"github.com/suhaib921/resmon/pkg/sim"
)

func main() {
	seedFlag := cli.Int64Flag{Name: "seed", Value: 42, Usage: "RNG seed, fixed seeds reproduce agent behavior"}
	logFlag := cli.StringFlag{Name: "log", Value: "pretty", Usage: "log format: pretty, json or mute"}
	timeoutFlag := cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "abort the simulation after this long"}

	app := cli.App{
		Name:  "resmon",
		Usage: "simulate agents contending for shared resources under different fairness policies",
		Flags: []cli.Flag{
			seedFlag,
			logFlag,
			timeoutFlag,
		},
		Commands: []cli.Command{
			fuelStationCmd(),
			repairStationCmd(),
			philosophersCmd(),
			bridgeCmd(),
			bathroomCmd(),
			hungryBirdsCmd(),
			bearAndBeesCmd(),
		},
	}
	app.RunAndExitOnError()
}

type runFn func(context.Context, *rand.Rand, sim.Logger)

func simulate(cctx *cli.Context, run runFn) error {
	var log sim.Logger
	switch format := cctx.GlobalString("log"); format {
	case "pretty":
		log = sim.LogPretty(os.Stderr)
	case "json":
		log = sim.LogJSON(os.Stderr)
	case "mute":
		log = sim.LogMute()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cctx.GlobalDuration("timeout"))
	defer cancel()

	run(ctx, rand.New(rand.NewSource(cctx.GlobalInt64("seed"))), log)
	if ctx.Err() != nil {
		return fmt.Errorf("simulation aborted: %v", ctx.Err())
	}
	return nil
}

func fuelStationCmd() cli.Command {
	def := scenario.DefaultFuelStation()
	docks := cli.IntFlag{Name: "docks", Value: def.Docks, Usage: "parallel docking spots"}
	vehicles := cli.IntFlag{Name: "vehicles", Value: def.Vehicles, Usage: "ordinary vehicles"}
	supplies := cli.IntFlag{Name: "supplies", Value: def.Supplies, Usage: "supply vehicles"}
	trips := cli.IntFlag{Name: "trips", Value: def.Trips, Usage: "trips per vehicle"}
	return cli.Command{
		Name:  "fuel-station",
		Usage: "vehicles refuel at docks, supply vehicles deliver when storage has space",
		Flags: []cli.Flag{docks, vehicles, supplies, trips},
		Action: func(cctx *cli.Context) error {
			cfg := scenario.DefaultFuelStation()
			cfg.Docks = cctx.Int(docks.Name)
			cfg.Vehicles = cctx.Int(vehicles.Name)
			cfg.Supplies = cctx.Int(supplies.Name)
			cfg.Trips = cctx.Int(trips.Name)
			fs, err := scenario.NewFuelStation(cfg)
			if err != nil {
				return err
			}
			return simulate(cctx, fs.Run)
		},
	}
}

func repairStationCmd() cli.Command {
	def := scenario.DefaultRepairStation()
	total := cli.IntFlag{Name: "total", Value: def.Total, Usage: "total repair bays"}
	perType := cli.IntFlag{Name: "per-type", Value: def.PerType, Usage: "vehicles per type"}
	visits := cli.IntFlag{Name: "visits", Value: def.Visits, Usage: "repair visits per vehicle"}
	return cli.Command{
		Name:  "repair-station",
		Usage: "vehicle types share bays under joint per-type and total limits",
		Flags: []cli.Flag{total, perType, visits},
		Action: func(cctx *cli.Context) error {
			cfg := scenario.DefaultRepairStation()
			cfg.Total = cctx.Int(total.Name)
			cfg.PerType = cctx.Int(perType.Name)
			cfg.Visits = cctx.Int(visits.Name)
			rs, err := scenario.NewRepairStation(cfg)
			if err != nil {
				return err
			}
			return simulate(cctx, rs.Run)
		},
	}
}

func philosophersCmd() cli.Command {
	def := scenario.DefaultPhilosophers()
	seats := cli.IntFlag{Name: "seats", Value: def.Seats, Usage: "philosophers at the table"}
	rounds := cli.IntFlag{Name: "rounds", Value: def.Rounds, Usage: "meals per philosopher"}
	return cli.Command{
		Name:  "philosophers",
		Usage: "dining philosophers served strictly first-come-first-served",
		Flags: []cli.Flag{seats, rounds},
		Action: func(cctx *cli.Context) error {
			p, err := scenario.NewPhilosophers(scenario.PhilosophersConfig{
				Seats:  cctx.Int(seats.Name),
				Rounds: cctx.Int(rounds.Name),
			})
			if err != nil {
				return err
			}
			return simulate(cctx, p.Run)
		},
	}
}

func bridgeCmd() cli.Command {
	def := scenario.DefaultBridge()
	north := cli.IntFlag{Name: "north", Value: def.North, Usage: "northbound cars"}
	south := cli.IntFlag{Name: "south", Value: def.South, Usage: "southbound cars"}
	crossings := cli.IntFlag{Name: "crossings", Value: def.Crossings, Usage: "crossings per car"}
	return cli.Command{
		Name:  "bridge",
		Usage: "one-lane bridge with alternating direction priority",
		Flags: []cli.Flag{north, south, crossings},
		Action: func(cctx *cli.Context) error {
			b, err := scenario.NewBridge(scenario.BridgeConfig{
				North:     cctx.Int(north.Name),
				South:     cctx.Int(south.Name),
				Crossings: cctx.Int(crossings.Name),
			})
			if err != nil {
				return err
			}
			return simulate(cctx, b.Run)
		},
	}
}

func bathroomCmd() cli.Command {
	def := scenario.DefaultBathroom()
	stalls := cli.IntFlag{Name: "stalls", Value: def.Stalls, Usage: "stalls"}
	men := cli.IntFlag{Name: "men", Value: def.Men, Usage: "men"}
	women := cli.IntFlag{Name: "women", Value: def.Women, Usage: "women"}
	visits := cli.IntFlag{Name: "visits", Value: def.Visits, Usage: "visits per person"}
	return cli.Command{
		Name:  "bathroom",
		Usage: "unisex bathroom with alternating class priority and limited stalls",
		Flags: []cli.Flag{stalls, men, women, visits},
		Action: func(cctx *cli.Context) error {
			b, err := scenario.NewBathroom(scenario.BathroomConfig{
				Stalls: cctx.Int(stalls.Name),
				Men:    cctx.Int(men.Name),
				Women:  cctx.Int(women.Name),
				Visits: cctx.Int(visits.Name),
			})
			if err != nil {
				return err
			}
			return simulate(cctx, b.Run)
		},
	}
}

func hungryBirdsCmd() cli.Command {
	def := scenario.DefaultHungryBirds()
	chicks := cli.IntFlag{Name: "chicks", Value: def.Chicks, Usage: "baby birds"}
	worms := cli.IntFlag{Name: "worms", Value: def.Worms, Usage: "dish capacity"}
	rounds := cli.IntFlag{Name: "rounds", Value: def.Rounds, Usage: "worms per chick"}
	return cli.Command{
		Name:  "hungry-birds",
		Usage: "chicks empty the worm dish, the parent refills it when empty",
		Flags: []cli.Flag{chicks, worms, rounds},
		Action: func(cctx *cli.Context) error {
			h, err := scenario.NewHungryBirds(scenario.HungryBirdsConfig{
				Chicks: cctx.Int(chicks.Name),
				Worms:  cctx.Int(worms.Name),
				Rounds: cctx.Int(rounds.Name),
			})
			if err != nil {
				return err
			}
			return simulate(cctx, h.Run)
		},
	}
}

func bearAndBeesCmd() cli.Command {
	def := scenario.DefaultBearAndBees()
	bees := cli.IntFlag{Name: "bees", Value: def.Bees, Usage: "honeybees"}
	portions := cli.IntFlag{Name: "portions", Value: def.Portions, Usage: "pot capacity"}
	rounds := cli.IntFlag{Name: "rounds", Value: def.Rounds, Usage: "portions gathered per bee"}
	return cli.Command{
		Name:  "bear-and-bees",
		Usage: "bees fill the honey pot, the bear drains it when full",
		Flags: []cli.Flag{bees, portions, rounds},
		Action: func(cctx *cli.Context) error {
			b, err := scenario.NewBearAndBees(scenario.BearAndBeesConfig{
				Bees:     cctx.Int(bees.Name),
				Portions: cctx.Int(portions.Name),
				Rounds:   cctx.Int(rounds.Name),
			})
			if err != nil {
				return err
			}
			return simulate(cctx, b.Run)
		},
	}
}
