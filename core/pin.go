package core

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// edgePoll is the polling period used by WaitForEdge
const edgePoll = time.Millisecond

// Pin adapts one GPIODriver pin to periph.io's gpio.PinIO, so the display,
// button and LED code runs unchanged on register pins or periph host pins.
type Pin struct {
	drv  GPIODriver
	num  GPIOPin
	pull gpio.Pull
}

var _ gpio.PinIO = (*Pin)(nil)

// NewPin returns the pin handle for num on drv
func NewPin(drv GPIODriver, num GPIOPin) (*Pin, error) {
	if err := checkPin(num, "open"); err != nil {
		return nil, err
	}
	return &Pin{drv: drv, num: num, pull: gpio.PullNoChange}, nil
}

func (p *Pin) String() string { return p.Name() }

// Halt is a no-op; the pin keeps its last level
func (p *Pin) Halt() error { return nil }

func (p *Pin) Name() string { return fmt.Sprintf("GPIO%d", p.num) }

func (p *Pin) Number() int { return int(p.num) }

// Function returns the configured direction name.
// Deprecated upstream in favour of pin.PinFunc, kept for gpio.PinIO.
func (p *Pin) Function() string {
	dir, ok := p.drv.DirectionOf(p.num)
	if !ok {
		return "unconfigured"
	}
	return dir.String()
}

// In configures the pin as input. Pull resistors are programmed when the
// driver supports them; edge detection is emulated by WaitForEdge.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := p.drv.Configure(p.num, Input); err != nil {
		return err
	}
	if pull != gpio.PullNoChange {
		if pd, ok := p.drv.(interface {
			SetPull(GPIOPin, gpio.Pull) error
		}); ok {
			if err := pd.SetPull(p.num, pull); err != nil {
				return err
			}
		}
		p.pull = pull
	}
	return nil
}

// Read returns the pin level; a driver error reads as Low
func (p *Pin) Read() gpio.Level {
	l, err := p.drv.Read(p.num)
	if err != nil {
		logger.WithError(err).Warn("pin read failed")
		return gpio.Low
	}
	return l
}

// WaitForEdge polls until the level changes or timeout elapses.
// A negative timeout waits forever.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	start := p.Read()
	deadline := time.Now().Add(timeout)
	for timeout < 0 || time.Now().Before(deadline) {
		time.Sleep(edgePoll)
		if p.Read() != start {
			return true
		}
	}
	return false
}

func (p *Pin) Pull() gpio.Pull { return p.pull }

func (p *Pin) DefaultPull() gpio.Pull { return gpio.PullNoChange }

// Out configures the pin as output if needed, then drives it
func (p *Pin) Out(l gpio.Level) error {
	if dir, ok := p.drv.DirectionOf(p.num); !ok || dir != Output {
		if err := p.drv.Configure(p.num, Output); err != nil {
			return err
		}
	}
	return p.drv.Write(p.num, l)
}

// PWM is not available on plain register pins
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return &PinError{Pin: p.num, Op: "pwm", Err: errors.New("not supported")}
}
