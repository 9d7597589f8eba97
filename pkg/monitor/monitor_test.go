package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/suhaib921/resmon/pkg/monitor"
)

const waitFor = 2 * time.Second

func newMonitor(t *testing.T, caps map[string]int, policy monitor.Policy) *monitor.Monitor {
	t.Helper()
	pool, err := monitor.NewPool(caps)
	require.NoError(t, err)
	m, err := monitor.New(pool, policy)
	require.NoError(t, err)
	return m
}

// waitingIs blocks until the monitor reports exactly n queued agents,
// so tests can order their contenders deterministically.
func waitingIs(t *testing.T, m *monitor.Monitor, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Stats().Waiting == n
	}, waitFor, time.Millisecond)
}

func TestNewRejectsBadConfig(t *testing.T) {
	pool, err := monitor.NewPool(map[string]int{"docks": 1})
	require.NoError(t, err)

	_, err = monitor.New(nil, monitor.Broadcast())
	requireConfigError(t, err)
	_, err = monitor.New(pool, nil)
	requireConfigError(t, err)
	_, err = monitor.New(pool, monitor.Alternating("north", "north"))
	requireConfigError(t, err)
	_, err = monitor.New(pool, monitor.Alternating("", "south"))
	requireConfigError(t, err)
}

func TestAcquireImmediateAndRoundTrip(t *testing.T) {
	m := newMonitor(t, map[string]int{"docks": 3}, monitor.Ticket())
	ctx := context.Background()

	g1, err := m.Acquire(ctx, "v1", monitor.Demand{"docks": 1})
	require.NoError(t, err)
	g2, err := m.Acquire(ctx, "v2", monitor.Demand{"docks": 2})
	require.NoError(t, err)

	s := m.Stats()
	require.Equal(t, 0, s.Available["docks"])
	require.Equal(t, 0, s.Waiting)

	g1.Release()
	g2.Release()
	require.Equal(t, 3, m.Stats().Available["docks"])
}

func TestNoLostWakeup(t *testing.T) {
	m := newMonitor(t, map[string]int{"slot": 1}, monitor.Ticket())
	ctx := context.Background()

	g, err := m.Acquire(ctx, "holder", monitor.Demand{"slot": 1})
	require.NoError(t, err)

	admitted := make(chan *monitor.Grant)
	go func() {
		g2, err := m.Acquire(ctx, "waiter", monitor.Demand{"slot": 1})
		require.NoError(t, err)
		admitted <- g2
	}()

	waitingIs(t, m, 1)
	g.Release()

	select {
	case g2 := <-admitted:
		g2.Release()
	case <-time.After(waitFor):
		t.Fatal("waiter was never admitted after the release")
	}
	require.Equal(t, 1, m.Stats().Available["slot"])
}

func TestCancelledWaitLeavesTheQueue(t *testing.T) {
	m := newMonitor(t, map[string]int{"slot": 1}, monitor.Ticket())

	g, err := m.Acquire(context.Background(), "holder", monitor.Demand{"slot": 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := m.Acquire(ctx, "waiter", monitor.Demand{"slot": 1})
		errc <- err
	}()
	waitingIs(t, m, 1)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	require.Equal(t, 0, m.Stats().Waiting)

	g.Release()
	require.Equal(t, 1, m.Stats().Available["slot"])
}

func TestCancelledHeadUnblocksTheNextWaiter(t *testing.T) {
	m := newMonitor(t, map[string]int{"slot": 1}, monitor.Ticket())
	ctx := context.Background()

	g, err := m.Acquire(ctx, "holder", monitor.Demand{"slot": 1})
	require.NoError(t, err)

	headCtx, cancelHead := context.WithCancel(ctx)
	headErr := make(chan error)
	go func() {
		_, err := m.Acquire(headCtx, "head", monitor.Demand{"slot": 1})
		headErr <- err
	}()
	waitingIs(t, m, 1)

	admitted := make(chan *monitor.Grant)
	go func() {
		g2, err := m.Acquire(ctx, "second", monitor.Demand{"slot": 1})
		require.NoError(t, err)
		admitted <- g2
	}()
	waitingIs(t, m, 2)

	// the head gives up; the slot is then released and must reach the
	// agent behind it, not be lost with the dead head
	cancelHead()
	require.ErrorIs(t, <-headErr, context.Canceled)
	g.Release()

	select {
	case g2 := <-admitted:
		g2.Release()
	case <-time.After(waitFor):
		t.Fatal("second waiter was never admitted")
	}
}

func TestConditionIsRecheckedUnderTheLock(t *testing.T) {
	m := newMonitor(t, map[string]int{"a": 1, "b": 1}, monitor.Broadcast())
	ctx := context.Background()

	gb, err := m.Acquire(ctx, "holder", monitor.Demand{"b": 1})
	require.NoError(t, err)

	// a is free, but the condition keys off b: the agent must wait
	// even though its own demand fits.
	admitted := make(chan *monitor.Grant)
	go func() {
		g, err := m.Acquire(ctx, "careful", monitor.Demand{"a": 1},
			monitor.WithCondition(func(p *monitor.Pool) bool {
				return p.Available("b") == 1
			}))
		require.NoError(t, err)
		admitted <- g
	}()

	waitingIs(t, m, 1)
	gb.Release()

	select {
	case g := <-admitted:
		g.Release()
	case <-time.After(waitFor):
		t.Fatal("conditional waiter was never admitted")
	}
}

func TestTakeAndFillDuality(t *testing.T) {
	pool, err := monitor.NewFilledPool(map[string]int{"fuel": 100}, map[string]int{"fuel": 100})
	require.NoError(t, err)
	m, err := monitor.New(pool, monitor.Broadcast())
	require.NoError(t, err)
	ctx := context.Background()

	// storage is full: the supply vehicle blocks on space
	filled := make(chan struct{})
	go func() {
		require.NoError(t, m.Fill(ctx, "supply", monitor.Demand{"fuel": 30}))
		close(filled)
	}()
	waitingIs(t, m, 1)

	// a consumer taking fuel frees the space the filler needs
	require.NoError(t, m.Take(ctx, "vehicle", monitor.Demand{"fuel": 40}))
	select {
	case <-filled:
	case <-time.After(waitFor):
		t.Fatal("filler was never admitted after the take")
	}
	require.Equal(t, 90, m.Stats().Available["fuel"])
}

func TestProtocolViolationsPanic(t *testing.T) {
	m := newMonitor(t, map[string]int{"docks": 2}, monitor.Ticket())
	ctx := context.Background()

	g, err := m.Acquire(ctx, "v1", monitor.Demand{"docks": 1})
	require.NoError(t, err)
	g.Release()
	requireProtocolPanic(t, func() { g.Release() })

	requireProtocolPanic(t, func() {
		m.Acquire(ctx, "v2", monitor.Demand{"lifts": 1})
	})
	requireProtocolPanic(t, func() {
		m.Acquire(ctx, "v3", monitor.Demand{"docks": 3})
	})
	requireProtocolPanic(t, func() {
		m.Acquire(ctx, "v4", monitor.Demand{"docks": -1})
	})
	requireProtocolPanic(t, func() {
		m.Fill(ctx, "v5", monitor.Demand{"docks": 3})
	})
}

// A recovered protocol panic must leave the monitor fully usable: the
// mutex released, the counters untouched, later agents served normally.
func TestMonitorUsableAfterRecoveredPanic(t *testing.T) {
	m := newMonitor(t, map[string]int{"docks": 2}, monitor.Ticket())
	ctx := context.Background()

	requireProtocolPanic(t, func() {
		m.Acquire(ctx, "bad", monitor.Demand{"lifts": 1})
	})
	requireProtocolPanic(t, func() {
		m.Fill(ctx, "bad", monitor.Demand{"docks": 3})
	})

	s := m.Stats()
	require.Equal(t, 2, s.Available["docks"])
	require.Equal(t, 0, s.Waiting)

	g, err := m.Acquire(ctx, "v1", monitor.Demand{"docks": 1})
	require.NoError(t, err)
	g.Release()
	require.Equal(t, 2, m.Stats().Available["docks"])
}

func TestCapacityInvariantUnderContention(t *testing.T) {
	const (
		agents = 12
		rounds = 50
	)
	m := newMonitor(t, map[string]int{"bays": 3}, monitor.Broadcast())

	stop := make(chan struct{})
	sampler := make(chan struct{})
	go func() {
		defer close(sampler)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := m.Stats()
			if a := s.Available["bays"]; a < 0 || a > 3 {
				t.Errorf("available bays out of range: %d", a)
				return
			}
			time.Sleep(100 * time.Microsecond)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				g, err := m.Acquire(context.Background(), "agent", monitor.Demand{"bays": 1})
				if err != nil {
					t.Error(err)
					return
				}
				g.Release()
			}
		}(i)
	}
	wg.Wait()
	close(stop)
	<-sampler

	s := m.Stats()
	require.Equal(t, 3, s.Available["bays"])
	require.Equal(t, 0, s.Waiting)
}
