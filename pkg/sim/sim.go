// Package sim runs simulated agents: one goroutine per agent, each
// looping an action against a shared monitor until the action stops or
// the run is cancelled. Narration happens here, through the KV logger;
// the monitor core stays silent.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/suhaib921/resmon/pkg/gen"
)

// An Agent is one simulated actor: a vehicle, philosopher, bee, bird
// or person.
type Agent struct {
	name   string
	action Action
}

// MakeAgent names an action.
func MakeAgent(name string, action Action) *Agent {
	return &Agent{name: name, action: action}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// An Action performs one round of the agent's life and reports whether
// the agent wants another round.
type Action func(Env) bool

// Env is what an action gets to interact with the world.
type Env interface {
	// Ctx is the run's context; pass it to blocking monitor calls.
	Ctx() context.Context
	// Rand is the agent's private RNG, seeded from the run's RNG.
	Rand() *rand.Rand
	// Sleep pauses for a generated duration, outside any critical
	// section. It reports false when the run was cancelled instead.
	Sleep(gen.Duration) bool
	// Log narrates on behalf of this agent.
	Log() Logger
}

// Run starts every agent and blocks until all of them have stopped,
// either by returning false from their action or because ctx was
// cancelled. Each agent gets its own RNG seeded from r, so a fixed
// seed gives a reproducible set of agent behaviors.
func Run(ctx context.Context, r *rand.Rand, agents []*Agent, log Logger) {
	if log == nil {
		log = LogMute()
	}
	var wg sync.WaitGroup
	for _, agent := range agents {
		wg.Add(1)
		e := &env{
			ctx: ctx,
			r:   rand.New(rand.NewSource(r.Int63())),
			log: log.KV("agent", agent.name),
		}
		go func(agent *Agent, e *env) {
			defer wg.Done()
			for e.ctx.Err() == nil {
				if !agent.action(e) {
					return
				}
			}
		}(agent, e)
	}
	wg.Wait()
}

type env struct {
	ctx context.Context
	r   *rand.Rand
	log Logger
}

func (e *env) Ctx() context.Context { return e.ctx }
func (e *env) Rand() *rand.Rand     { return e.r }
func (e *env) Log() Logger          { return e.log }

func (e *env) Sleep(d gen.Duration) bool {
	t := time.NewTimer(d.Gen())
	defer t.Stop()
	select {
	case <-e.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
