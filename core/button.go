// Debounced button input
// Counts discrete presses of a mechanical button sampled at a fixed tick,
// closing the window after a run of idle ticks or at a maximum count.
package core

import (
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// CloseReason is the terminal condition of a sampling window
type CloseReason uint8

const (
	ReasonOpen       CloseReason = iota // Window still sampling
	ReasonTimeout                       // Idle threshold reached
	ReasonMaxReached                    // Press count reached the caller's maximum
)

func (r CloseReason) String() string {
	switch r {
	case ReasonOpen:
		return "open"
	case ReasonTimeout:
		return "timeout"
	case ReasonMaxReached:
		return "max-reached"
	}
	return "unknown"
}

// SampleWindow is the debounce state for one requested input. Only edges
// relative to the last recognized level count, so holding the button down
// is one press however long it lasts.
type SampleWindow struct {
	PressCount         int
	TicksSinceLastEdge int
	LastLevel          gpio.Level

	MaxCount  int // <= 0 means unlimited
	IdleTicks int
	Ticks     int // Samples taken so far
}

// NewSampleWindow opens a window in the Idle state (last level High)
func NewSampleWindow(maxCount, idleTicks int) *SampleWindow {
	return &SampleWindow{
		LastLevel: gpio.High,
		MaxCount:  maxCount,
		IdleTicks: idleTicks,
	}
}

// Observe feeds one sampled level. It reports whether a press was counted
// and whether the window closed because MaxCount was reached.
func (w *SampleWindow) Observe(level gpio.Level) (pressed bool, reason CloseReason) {
	w.Ticks++
	switch {
	case w.LastLevel == gpio.High && level == gpio.Low:
		w.LastLevel = gpio.Low
		w.PressCount++
		w.TicksSinceLastEdge = 0
		pressed = true
	case w.LastLevel == gpio.Low && level == gpio.High:
		w.LastLevel = gpio.High
		w.TicksSinceLastEdge = 0
	}

	if w.MaxCount > 0 && w.PressCount >= w.MaxCount {
		return pressed, ReasonMaxReached
	}
	return pressed, ReasonOpen
}

// Elapse accounts for one tick interval passing after a sample and reports
// whether the idle threshold closed the window.
func (w *SampleWindow) Elapse() CloseReason {
	w.TicksSinceLastEdge++
	if w.TicksSinceLastEdge >= w.IdleTicks {
		return ReasonTimeout
	}
	return ReasonOpen
}

// Step is Observe followed by Elapse when the window is still open
func (w *SampleWindow) Step(level gpio.Level) CloseReason {
	if _, reason := w.Observe(level); reason != ReasonOpen {
		return reason
	}
	return w.Elapse()
}

// SampleResult is what a closed window reports
type SampleResult struct {
	Count  int
	Reason CloseReason
	Ticks  int
}

// Button samples a digital input. Line level Low is "pressed" unless
// ActiveHigh is set, in which case raw levels are inverted first.
type Button struct {
	pin        gpio.PinIn
	ActiveHigh bool
	Tick       time.Duration
	IdleTicks  int

	// OnPress is called after each counted press (optional)
	OnPress func(count int)

	sleep Sleeper
}

// SetOnPress installs the press hook
func (b *Button) SetOnPress(fn func(count int)) { b.OnPress = fn }

// NewButton creates a button on pin with the default tick and idle threshold
func NewButton(pin gpio.PinIn) *Button {
	return &Button{
		pin:       pin,
		Tick:      DefaultTick,
		IdleTicks: DefaultIdleTicks,
		sleep:     time.Sleep,
	}
}

// SetSleeper replaces the delay function (tests)
func (b *Button) SetSleeper(s Sleeper) {
	b.sleep = s
}

// Configure sets the pin as input with the given pull
func (b *Button) Configure(pull gpio.Pull) error {
	return b.pin.In(pull, gpio.NoEdge)
}

func (b *Button) level() gpio.Level {
	l := b.pin.Read()
	if b.ActiveHigh {
		return !l
	}
	return l
}

// Sample blocks until the window closes and returns the press count.
// maxCount <= 0 disables the maximum.
func (b *Button) Sample(maxCount int) SampleResult {
	w := NewSampleWindow(maxCount, b.IdleTicks)
	for {
		pressed, reason := w.Observe(b.level())
		if pressed {
			debugf("button pressed (%d)", w.PressCount)
			if b.OnPress != nil {
				b.OnPress(w.PressCount)
			}
		}
		if reason == ReasonOpen {
			b.sleep(b.Tick)
			reason = w.Elapse()
		}
		if reason != ReasonOpen {
			logger.WithFields(logrus.Fields{
				"count":   w.PressCount,
				"reason":  reason,
				"ticks":   w.Ticks,
				"elapsed": TicksToDuration(w.Ticks, b.Tick),
			}).Debug("sample window closed")
			return SampleResult{Count: w.PressCount, Reason: reason, Ticks: w.Ticks}
		}
	}
}
