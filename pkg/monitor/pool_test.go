package monitor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suhaib921/resmon/pkg/monitor"
)

func requireConfigError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var cerr *monitor.ConfigError
	require.True(t, errors.As(err, &cerr), "want ConfigError, got %v", err)
}

func requireProtocolPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		var perr *monitor.ProtocolError
		require.True(t, errors.As(err, &perr), "want ProtocolError, got %v", err)
	}()
	fn()
}

func TestNewPoolRejectsBadCapacity(t *testing.T) {
	_, err := monitor.NewPool(map[string]int{"docks": 0})
	requireConfigError(t, err)
	_, err = monitor.NewPool(map[string]int{"docks": -3})
	requireConfigError(t, err)
}

func TestNewFilledPoolBounds(t *testing.T) {
	p, err := monitor.NewFilledPool(map[string]int{"worms": 6}, map[string]int{"worms": 0})
	require.NoError(t, err)
	require.Equal(t, 0, p.Available("worms"))
	require.Equal(t, 6, p.Capacity("worms"))

	_, err = monitor.NewFilledPool(map[string]int{"worms": 6}, map[string]int{"worms": 7})
	requireConfigError(t, err)
	_, err = monitor.NewFilledPool(map[string]int{"worms": 6}, map[string]int{"worms": -1})
	requireConfigError(t, err)
	_, err = monitor.NewFilledPool(map[string]int{"worms": 6}, map[string]int{"honey": 3})
	requireConfigError(t, err)
}

func TestTryTakeIsAllOrNothing(t *testing.T) {
	p, err := monitor.NewPool(map[string]int{"nitrogen": 10, "quantum": 2})
	require.NoError(t, err)

	// quantum is short: nothing at all may move
	require.False(t, p.TryTake(monitor.Demand{"nitrogen": 5, "quantum": 3}))
	require.Equal(t, 10, p.Available("nitrogen"))
	require.Equal(t, 2, p.Available("quantum"))

	require.True(t, p.TryTake(monitor.Demand{"nitrogen": 5, "quantum": 2}))
	require.Equal(t, 5, p.Available("nitrogen"))
	require.Equal(t, 0, p.Available("quantum"))
	require.False(t, p.Idle())

	p.Give(monitor.Demand{"nitrogen": 5, "quantum": 2})
	require.True(t, p.Idle())
}

func TestGivePastCapacityPanics(t *testing.T) {
	p, err := monitor.NewPool(map[string]int{"docks": 3})
	require.NoError(t, err)
	require.True(t, p.TryTake(monitor.Demand{"docks": 1}))
	requireProtocolPanic(t, func() {
		p.Give(monitor.Demand{"docks": 2})
	})
}

func TestFillRespectsCapacity(t *testing.T) {
	p, err := monitor.NewFilledPool(map[string]int{"honey": 8}, map[string]int{"honey": 6})
	require.NoError(t, err)
	require.True(t, p.TryFill(monitor.Demand{"honey": 2}))
	require.Equal(t, 8, p.Available("honey"))
	require.False(t, p.TryFill(monitor.Demand{"honey": 1}))
	require.Equal(t, 8, p.Available("honey"))
}

func TestClassPoolValidation(t *testing.T) {
	_, err := monitor.NewClassPool(0, map[string]int{"typeA": 1}, nil)
	requireConfigError(t, err)

	_, err = monitor.NewClassPool(5, nil, nil)
	requireConfigError(t, err)

	// per-class capacity above the shared total
	_, err = monitor.NewClassPool(5, map[string]int{"typeA": 6}, nil)
	requireConfigError(t, err)

	_, err = monitor.NewClassPool(5, map[string]int{"total": 2}, nil)
	requireConfigError(t, err)

	// reserves above the total
	_, err = monitor.NewClassPool(5, map[string]int{"typeA": 3, "typeB": 3},
		map[string]int{"typeA": 3, "typeB": 3})
	requireConfigError(t, err)

	// reserves that starve an unreserved class forever
	_, err = monitor.NewClassPool(4, map[string]int{"typeA": 2, "typeB": 2, "typeC": 2},
		map[string]int{"typeA": 2, "typeB": 2})
	requireConfigError(t, err)

	_, err = monitor.NewClassPool(5, map[string]int{"typeA": 3},
		map[string]int{"typeB": 1})
	requireConfigError(t, err)
}

func TestClassPoolJointBounds(t *testing.T) {
	p, err := monitor.NewClassPool(3, map[string]int{"typeA": 2, "typeB": 2}, nil)
	require.NoError(t, err)

	require.True(t, p.TryTake(monitor.ClassDemand("typeA")))
	require.True(t, p.TryTake(monitor.ClassDemand("typeA")))
	// typeA is at its class limit even though the total has room
	require.False(t, p.CanTake(monitor.ClassDemand("typeA")))

	require.True(t, p.TryTake(monitor.ClassDemand("typeB")))
	// total is full even though typeB has class room
	require.False(t, p.CanTake(monitor.ClassDemand("typeB")))

	require.Equal(t, 0, p.Available(monitor.DimTotal))
	require.Equal(t, 2, p.InUse("typeA"))
	require.Equal(t, 1, p.InUse("typeB"))

	p.Give(monitor.ClassDemand("typeA"))
	require.True(t, p.CanTake(monitor.ClassDemand("typeB")))
}

func TestClassPoolReserves(t *testing.T) {
	// 3 bays total, 1 held back for typeB
	p, err := monitor.NewClassPool(3, map[string]int{"typeA": 3, "typeB": 2},
		map[string]int{"typeB": 1})
	require.NoError(t, err)

	require.True(t, p.TryTake(monitor.ClassDemand("typeA")))
	require.True(t, p.TryTake(monitor.ClassDemand("typeA")))
	// the last bay is reserved for typeB
	require.False(t, p.CanTake(monitor.ClassDemand("typeA")))
	require.True(t, p.TryTake(monitor.ClassDemand("typeB")))

	// once typeB's reserve is met, a freed bay is up for grabs again
	p.Give(monitor.ClassDemand("typeA"))
	require.True(t, p.CanTake(monitor.ClassDemand("typeA")))
}
