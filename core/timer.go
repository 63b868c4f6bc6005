package core

import "time"

// Sleeper blocks for a duration. Production code uses time.Sleep; tests
// substitute a virtual clock.
type Sleeper func(time.Duration)

// HD44780 bus timing. The controller needs >= 37us per enable pulse; 50us
// is used for both the pulse and the settle time.
const (
	StrobePulse  = 50 * time.Microsecond
	StrobeSettle = 50 * time.Microsecond
	CommandDelay = 2 * time.Millisecond  // Busy time after an ordinary command
	HomeDelay    = 5 * time.Millisecond  // Extra busy time after clear/home
	InitDelay    = 35 * time.Millisecond // Power-on and function-set settle
)

// Button sampling defaults
const (
	DefaultTick      = 50 * time.Millisecond
	DefaultIdleTicks = 50
)

// TicksToDuration converts sampling ticks to a duration
func TicksToDuration(ticks int, tick time.Duration) time.Duration {
	return time.Duration(ticks) * tick
}
