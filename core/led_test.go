package core

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type levelLog struct {
	levels []gpio.Level
	fail   bool
}

func (p *levelLog) String() string   { return "log" }
func (p *levelLog) Halt() error      { return nil }
func (p *levelLog) Name() string     { return "log" }
func (p *levelLog) Number() int      { return -1 }
func (p *levelLog) Function() string { return "out" }
func (p *levelLog) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("no pwm")
}

func (p *levelLog) Out(l gpio.Level) error {
	if p.fail {
		return errors.New("stuck")
	}
	p.levels = append(p.levels, l)
	return nil
}

func TestLEDSet(t *testing.T) {
	pin := &levelLog{}
	led := NewLED("red", pin)

	if err := led.Configure(); err != nil {
		t.Fatal(err)
	}
	if led.Flags != LF_CONFIGURED || led.On() {
		t.Errorf("Expected configured and off, got flags 0x%X", led.Flags)
	}

	led.Set(true)
	if !led.On() {
		t.Error("Expected LED on")
	}
	led.Set(false)
	if led.On() {
		t.Error("Expected LED off")
	}

	want := []gpio.Level{gpio.Low, gpio.High, gpio.Low}
	if len(pin.levels) != len(want) {
		t.Fatalf("Expected %d writes, got %d", len(want), len(pin.levels))
	}
	for i := range want {
		if pin.levels[i] != want[i] {
			t.Errorf("Write %d: expected %v, got %v", i, want[i], pin.levels[i])
		}
	}
}

func TestLEDBlink(t *testing.T) {
	pin := &levelLog{}
	led := NewLED("yellow", pin)
	var slept time.Duration
	led.SetSleeper(func(d time.Duration) { slept += d })

	if err := led.Blink(4, 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	want := []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low}
	if len(pin.levels) != len(want) {
		t.Fatalf("Expected %v, got %v", want, pin.levels)
	}
	if slept != 400*time.Millisecond {
		t.Errorf("Expected 400ms, got %v", slept)
	}

	// Odd count ends with an extra off
	pin.levels = nil
	led.Blink(3, time.Millisecond)
	if len(pin.levels) != 4 || pin.levels[3] != gpio.Low || led.On() {
		t.Errorf("Expected LED to end off, got %v", pin.levels)
	}
}

func TestLEDError(t *testing.T) {
	led := NewLED("red", &levelLog{fail: true})
	if err := led.Blink(2, 0); err == nil {
		t.Error("Expected pin error")
	}
	if led.Flags != 0 {
		t.Errorf("Failed write should not change flags, got 0x%X", led.Flags)
	}
}
