package core

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// LED flags
const (
	LF_ON         = 1 << 0 // Current pin state (1=high, 0=low)
	LF_CONFIGURED = 1 << 1 // Pin driven as output at least once
)

// LED is an indicator on a digital output
type LED struct {
	Name  string
	pin   gpio.PinOut
	Flags uint8

	sleep Sleeper
}

// NewLED creates an LED; Configure drives it off
func NewLED(name string, pin gpio.PinOut) *LED {
	return &LED{Name: name, pin: pin, sleep: time.Sleep}
}

// SetSleeper replaces the delay function (tests)
func (l *LED) SetSleeper(s Sleeper) {
	l.sleep = s
}

// Configure makes the pin an output and turns the LED off
func (l *LED) Configure() error {
	if err := l.pin.Out(gpio.Low); err != nil {
		return err
	}
	l.Flags = LF_CONFIGURED
	return nil
}

// Set turns the LED on or off
func (l *LED) Set(on bool) error {
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		return err
	}
	l.Flags |= LF_CONFIGURED
	if on {
		l.Flags |= LF_ON
	} else {
		l.Flags &^= LF_ON
	}
	return nil
}

// On reports the last driven state
func (l *LED) On() bool {
	return l.Flags&LF_ON != 0
}

// Blink toggles the LED n times, starting with on, holding each state for
// period. Two toggles make one visible flash. The LED ends off.
func (l *LED) Blink(n int, period time.Duration) error {
	for i := 0; i < n; i++ {
		if err := l.Set(i%2 == 0); err != nil {
			return err
		}
		l.sleep(period)
	}
	if l.On() {
		return l.Set(false)
	}
	return nil
}
