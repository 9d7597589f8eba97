package gen

import (
	"math/rand"
	"time"
)

// Duration is a generator for Duration values. Agents use them to
// decide how long to think, eat, drive or refuel between two calls
// into a monitor.
type Duration interface {
	Gen() time.Duration
}

// StaticDuration generates a static Duration.
func StaticDuration(d time.Duration) Duration {
	return DurationFunc(func() time.Duration { return d })
}

// UniformDuration generates a Duration from a uniform distribution,
// given a desired range.
func UniformDuration(r *rand.Rand, from, to time.Duration) Duration {
	span := to - from
	return DurationFunc(func() time.Duration {
		return from + time.Duration(r.Float64()*float64(span))
	})
}

// NormalDuration generates a Duration from a normal distribution,
// centered on the given mean and with the given standard deviation.
// Negative samples are clamped to zero.
func NormalDuration(r *rand.Rand, mean, stdDev time.Duration) Duration {
	meanInSec := mean.Seconds()
	stdDevInSec := stdDev.Seconds()
	return DurationFunc(func() time.Duration {
		sampleInSec := r.NormFloat64()*stdDevInSec + meanInSec
		if sampleInSec < 0 {
			return 0
		}
		return time.Duration(sampleInSec * float64(time.Second))
	})
}

// ExpDuration generates a Duration from an exponential distribution,
// given a desired average duration.
func ExpDuration(r *rand.Rand, avg time.Duration) Duration {
	avgInSec := avg.Seconds()
	return DurationFunc(func() time.Duration {
		return time.Duration(r.ExpFloat64() * avgInSec * float64(time.Second))
	})
}

// DurationFunc generates Duration by invoking a given function.
type DurationFunc func() time.Duration

// Gen generates a Duration.
func (gen DurationFunc) Gen() time.Duration { return gen() }
