package core

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// GPIOPin identifies a hardware GPIO pin number (BCM numbering)
type GPIOPin uint32

// MaxPins is the number of pins addressable by the two-bank controller
const MaxPins = 64

// Direction is the function-select code written for a pin
type Direction uint32

const (
	Input  Direction = 0b000
	Output Direction = 0b001
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	}
	return fmt.Sprintf("alt(%03b)", uint32(d))
}

var (
	// ErrPinRange is returned for pins the controller does not have
	ErrPinRange = errors.New("pin out of range")
	// ErrNotOutput is returned when writing a pin not configured as output
	ErrNotOutput = errors.New("pin not configured as output")
)

// PinError records the pin and operation that failed
type PinError struct {
	Pin GPIOPin
	Op  string
	Err error
}

func (e *PinError) Error() string {
	return fmt.Sprintf("gpio%d: %s: %v", e.Pin, e.Op, e.Err)
}

func (e *PinError) Unwrap() error { return e.Err }

// RegisterBlock is a window of 32-bit registers addressed by word offset.
// Implementations: host/mem.Block (mapped device memory) and host/mem.Sim.
type RegisterBlock interface {
	// ReadBits returns the register value
	ReadBits(offset uint32) uint32

	// WriteBits stores value, replacing the whole register
	WriteBits(offset uint32, value uint32)

	// SetBits ORs mask into the register
	SetBits(offset uint32, mask uint32)

	// ClearBits clears mask in the register
	ClearBits(offset uint32, mask uint32)
}

// GPIODriver is the abstract GPIO interface that core code uses.
// BCMDriver is the register implementation; tests may substitute their own.
type GPIODriver interface {
	// Configure selects the pin direction
	Configure(pin GPIOPin, dir Direction) error

	// Write drives an output pin
	// Returns error if the pin is out of range or not an output
	Write(pin GPIOPin, level gpio.Level) error

	// Read returns the current pin level
	Read(pin GPIOPin) (gpio.Level, error)

	// DirectionOf reports the last configured direction
	DirectionOf(pin GPIOPin) (Direction, bool)
}

// checkPin validates a pin number for op
func checkPin(pin GPIOPin, op string) error {
	if pin >= MaxPins {
		return &PinError{Pin: pin, Op: op, Err: ErrPinRange}
	}
	return nil
}
