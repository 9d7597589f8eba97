// Package scenario builds the classic coordination exercises on top of
// pkg/monitor: a fuel station, a repair station, dining philosophers,
// a one-lane bridge, a unisex bathroom, hungry birds and the bear and
// bees. Each scenario wires a pool, a fairness policy and a set of
// agents; running one is mostly a way to watch a policy behave, and
// the tests use them as end-to-end harnesses.
package scenario

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/suhaib921/resmon/pkg/gen"
	"github.com/suhaib921/resmon/pkg/sim"
)

// pause sleeps the agent for a uniform duration in [lo, hi), outside
// any critical section. False means the run was cancelled.
func pause(env sim.Env, lo, hi time.Duration) bool {
	return env.Sleep(gen.UniformDuration(env.Rand(), lo, hi))
}

// runWithProducers runs the consumer agents to completion while the
// producer agents loop; once the consumers are done the producers are
// cancelled out of whatever blocking call they are in. Producers that
// only ever stop by cancellation (a parent bird refilling forever)
// need this, or the run would never join.
func runWithProducers(ctx context.Context, r *rand.Rand, consumers, producers []*sim.Agent, log sim.Logger) {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr := rand.New(rand.NewSource(r.Int63()))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sim.Run(pctx, pr, producers, log)
	}()
	sim.Run(ctx, r, consumers, log)
	cancel()
	wg.Wait()
}
