package core

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// scriptPin returns scripted levels, then High forever
type scriptPin struct {
	levels []gpio.Level
	reads  int
	pull   gpio.Pull
}

func (p *scriptPin) String() string                        { return "script" }
func (p *scriptPin) Halt() error                           { return nil }
func (p *scriptPin) Name() string                          { return "script" }
func (p *scriptPin) Number() int                           { return -1 }
func (p *scriptPin) Function() string                      { return "in" }
func (p *scriptPin) WaitForEdge(time.Duration) bool        { return false }
func (p *scriptPin) Pull() gpio.Pull                       { return p.pull }
func (p *scriptPin) DefaultPull() gpio.Pull                { return gpio.PullNoChange }
func (p *scriptPin) PWM(gpio.Duty, physic.Frequency) error { return errors.New("no pwm") }

func (p *scriptPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.pull = pull
	return nil
}

func (p *scriptPin) Read() gpio.Level {
	defer func() { p.reads++ }()
	if p.reads < len(p.levels) {
		return p.levels[p.reads]
	}
	return gpio.High
}

const (
	H = gpio.High
	L = gpio.Low
)

func newTestButton(levels ...gpio.Level) (*Button, *scriptPin, *time.Duration) {
	pin := &scriptPin{levels: levels}
	b := NewButton(pin)
	var slept time.Duration
	b.SetSleeper(func(d time.Duration) { slept += d })
	return b, pin, &slept
}

func TestSampleWindowEdges(t *testing.T) {
	w := NewSampleWindow(0, 50)

	if pressed, _ := w.Observe(L); !pressed {
		t.Error("High to Low should count a press")
	}
	if pressed, _ := w.Observe(L); pressed {
		t.Error("Holding Low should not count again")
	}
	w.Elapse()
	w.Elapse()
	if w.TicksSinceLastEdge != 2 {
		t.Errorf("Expected 2 idle ticks, got %d", w.TicksSinceLastEdge)
	}
	if pressed, _ := w.Observe(H); pressed {
		t.Error("Release should not count a press")
	}
	if w.TicksSinceLastEdge != 0 {
		t.Errorf("Release should reset idle ticks, got %d", w.TicksSinceLastEdge)
	}
	if w.PressCount != 1 {
		t.Errorf("Expected 1 press, got %d", w.PressCount)
	}
}

func TestSampleWindowTimeout(t *testing.T) {
	w := NewSampleWindow(0, 3)
	reasons := []CloseReason{w.Step(H), w.Step(H), w.Step(H)}
	if reasons[0] != ReasonOpen || reasons[1] != ReasonOpen || reasons[2] != ReasonTimeout {
		t.Errorf("Expected open, open, timeout, got %v", reasons)
	}
}

func TestButtonSampleSequence(t *testing.T) {
	b, _, slept := newTestButton(H, H, L, L, H, L, H, H)

	var presses []int
	b.OnPress = func(n int) { presses = append(presses, n) }

	res := b.Sample(0)
	if res.Count != 2 {
		t.Errorf("Expected 2 presses, got %d", res.Count)
	}
	if res.Reason != ReasonTimeout {
		t.Errorf("Expected timeout, got %s", res.Reason)
	}
	if res.Ticks != 56 {
		t.Errorf("Expected 56 ticks, got %d", res.Ticks)
	}
	if *slept != 56*DefaultTick {
		t.Errorf("Expected %v slept, got %v", 56*DefaultTick, *slept)
	}
	if len(presses) != 2 || presses[0] != 1 || presses[1] != 2 {
		t.Errorf("Expected OnPress 1, 2, got %v", presses)
	}
}

func TestButtonSampleNoPress(t *testing.T) {
	b, _, _ := newTestButton()

	res := b.Sample(6)
	if res.Count != 0 || res.Reason != ReasonTimeout || res.Ticks != DefaultIdleTicks {
		t.Errorf("Expected 0 presses after %d ticks, got %+v", DefaultIdleTicks, res)
	}
}

func TestButtonSampleMaxReached(t *testing.T) {
	b, pin, slept := newTestButton(L, H, L, H, L, H, L)

	res := b.Sample(3)
	if res.Count != 3 || res.Reason != ReasonMaxReached {
		t.Errorf("Expected 3 presses and max-reached, got %+v", res)
	}
	if res.Ticks != 5 || pin.reads != 5 {
		t.Errorf("Expected to stop after 5 samples, got %d ticks %d reads", res.Ticks, pin.reads)
	}
	if *slept != 4*DefaultTick {
		t.Errorf("No delay expected after the closing sample, slept %v", *slept)
	}
}

func TestButtonActiveHigh(t *testing.T) {
	b, _, _ := newTestButton(L, H, L, H, L)
	b.ActiveHigh = true
	b.IdleTicks = 10

	// Inverted: H L H L H then High forever reads as Low (held)
	res := b.Sample(0)
	if res.Count != 3 {
		t.Errorf("Expected 3 presses, got %d", res.Count)
	}
}

func TestButtonConfigure(t *testing.T) {
	b, pin, _ := newTestButton()
	if err := b.Configure(gpio.PullUp); err != nil {
		t.Fatal(err)
	}
	if pin.pull != gpio.PullUp {
		t.Errorf("Expected PullUp, got %v", pin.pull)
	}
}

func TestCloseReasonString(t *testing.T) {
	if ReasonMaxReached.String() != "max-reached" || ReasonTimeout.String() != "timeout" {
		t.Error("Unexpected close reason names")
	}
}

func TestTicksToDuration(t *testing.T) {
	if d := TicksToDuration(DefaultIdleTicks, DefaultTick); d != 2500*time.Millisecond {
		t.Errorf("Expected the default idle window to last 2.5s, got %v", d)
	}
}
