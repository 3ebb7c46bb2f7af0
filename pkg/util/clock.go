package util

import "time"

// Clock is the time source for tick scheduling. The price simulator waits
// on Clock.After between ticks; tests substitute a fake to drive ticks
// without sleeping.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }
