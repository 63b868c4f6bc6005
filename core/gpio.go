// GPIO (General Purpose Input/Output) support
// Implements the BCM283x register layout for function select, set, clear and level
package core

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Register word offsets from the GPIO base
const (
	RegFSEL0   = 0  // Function select, 10 pins per word, 3 bits per pin
	RegSET0    = 7  // Output set, bank 0 (pins 0-31)
	RegSET1    = 8  // Output set, bank 1 (pins 32-63)
	RegCLR0    = 10 // Output clear, bank 0
	RegCLR1    = 11 // Output clear, bank 1
	RegLEV0    = 13 // Pin level, bank 0
	RegLEV1    = 14 // Pin level, bank 1
	RegPUD     = 37 // Pull-up/down control
	RegPUDCLK0 = 38 // Pull-up/down clock, bank 0

	fselPinsPerWord = 10
	fselBits        = 3
	fselMask        = 0b111

	pudOff  = 0
	pudDown = 1
	pudUp   = 2

	// pudSetup covers the 150 core cycles the pull sequence needs
	pudSetup = 5 * time.Microsecond
)

// BCMDriver implements GPIODriver on top of a RegisterBlock
type BCMDriver struct {
	regs  RegisterBlock
	sleep Sleeper

	// Directions are mirrored locally; the function-select field is only
	// written, never trusted for write permission checks.
	dirs       [MaxPins]Direction
	configured [MaxPins]bool
}

// NewBCMDriver creates a pin driver over an owned register block
func NewBCMDriver(regs RegisterBlock) *BCMDriver {
	return &BCMDriver{regs: regs, sleep: time.Sleep}
}

// SetSleeper replaces the delay used by the pull sequence (tests)
func (d *BCMDriver) SetSleeper(s Sleeper) {
	d.sleep = s
}

// FunctionSelect returns the function-select word offset and bit shift for a pin
func FunctionSelect(pin GPIOPin) (offset uint32, shift uint32) {
	return RegFSEL0 + uint32(pin)/fselPinsPerWord, (uint32(pin) % fselPinsPerWord) * fselBits
}

// Bank returns the bank index (0 or 1) and the single-bit mask for a pin
func Bank(pin GPIOPin) (bank uint32, mask uint32) {
	return uint32(pin) / 32, 1 << (uint32(pin) % 32)
}

// Configure selects the pin direction with a read-modify-write of the
// function-select word, since ten pins share each word.
func (d *BCMDriver) Configure(pin GPIOPin, dir Direction) error {
	if err := checkPin(pin, "configure"); err != nil {
		return err
	}

	offset, shift := FunctionSelect(pin)
	v := d.regs.ReadBits(offset)
	v &^= fselMask << shift
	v |= (uint32(dir) & fselMask) << shift
	d.regs.WriteBits(offset, v)

	d.dirs[pin] = dir
	d.configured[pin] = true

	debugf("gpio%d configured %s", pin, dir)
	return nil
}

// Write drives an output pin through the set or clear register
func (d *BCMDriver) Write(pin GPIOPin, level gpio.Level) error {
	if err := checkPin(pin, "write"); err != nil {
		return err
	}
	if !d.configured[pin] || d.dirs[pin] != Output {
		return &PinError{Pin: pin, Op: "write", Err: ErrNotOutput}
	}

	bank, mask := Bank(pin)
	if level == gpio.High {
		d.regs.WriteBits(RegSET0+bank, mask)
	} else {
		d.regs.WriteBits(RegCLR0+bank, mask)
	}
	return nil
}

// Read returns the level register bit for a pin. Output pins read back
// their driven level.
func (d *BCMDriver) Read(pin GPIOPin) (gpio.Level, error) {
	if err := checkPin(pin, "read"); err != nil {
		return gpio.Low, err
	}

	bank, mask := Bank(pin)
	return gpio.Level(d.regs.ReadBits(RegLEV0+bank)&mask != 0), nil
}

// DirectionOf reports the last configured direction
func (d *BCMDriver) DirectionOf(pin GPIOPin) (Direction, bool) {
	if pin >= MaxPins {
		return Input, false
	}
	return d.dirs[pin], d.configured[pin]
}

// SetPull programs the pull resistor of a pin with the GPPUD / GPPUDCLK
// sequence: control, wait, clock, wait, release both.
func (d *BCMDriver) SetPull(pin GPIOPin, pull gpio.Pull) error {
	if err := checkPin(pin, "pull"); err != nil {
		return err
	}

	var code uint32
	switch pull {
	case gpio.PullUp:
		code = pudUp
	case gpio.PullDown:
		code = pudDown
	case gpio.Float:
		code = pudOff
	case gpio.PullNoChange:
		return nil
	default:
		return &PinError{Pin: pin, Op: "pull", Err: fmt.Errorf("unsupported pull %s", pull)}
	}

	bank, mask := Bank(pin)
	d.regs.WriteBits(RegPUD, code)
	d.sleep(pudSetup)
	d.regs.WriteBits(RegPUDCLK0+bank, mask)
	d.sleep(pudSetup)
	d.regs.WriteBits(RegPUD, pudOff)
	d.regs.WriteBits(RegPUDCLK0+bank, 0)

	debugf("gpio%d pull %s", pin, pull)
	return nil
}
