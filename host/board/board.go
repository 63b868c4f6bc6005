// Package board assembles the display, button and LEDs from a Config on
// one of three pin backends: mapped BCM registers, periph.io host drivers
// or an in-memory register simulator.
package board

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"mastermind/config"
	"mastermind/core"
	"mastermind/game"
	"mastermind/host/mem"
)

// pinSource opens BCM pin n
type pinSource func(n int) (gpio.PinIO, error)

// Board is the wired peripheral set
type Board struct {
	Display *core.Display
	Button  *core.Button
	Red     *core.LED
	Yellow  *core.LED

	// Sim is the register simulator on the sim backend, nil otherwise
	Sim *mem.Sim

	cfg       *config.Config
	drv       *core.BCMDriver // nil on the periph backend
	regs      *guardedRegs    // nil on the periph backend
	leds      []gpio.PinOut
	ledPins   []int
	closeOnce sync.Once
	closeErr  error
}

// registerCloser is a register window the board releases on Close
type registerCloser interface {
	core.RegisterBlock
	io.Closer
}

// guardedRegs serializes register access so Close may run on another
// goroutine (the signal handler) while the session still drives pins.
// Once closed, reads return 0 and stores are dropped.
type guardedRegs struct {
	mu     sync.Mutex
	regs   registerCloser
	closed bool
}

func (g *guardedRegs) ReadBits(offset uint32) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0
	}
	return g.regs.ReadBits(offset)
}

func (g *guardedRegs) WriteBits(offset uint32, value uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.regs.WriteBits(offset, value)
	}
}

func (g *guardedRegs) SetBits(offset uint32, mask uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.regs.SetBits(offset, mask)
	}
}

func (g *guardedRegs) ClearBits(offset uint32, mask uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.regs.ClearBits(offset, mask)
	}
}

// shutdown drives the off pins low and releases the window in one
// critical section, so no store can land between the two.
func (g *guardedRegs) shutdown(off ...int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	for _, n := range off {
		bank, mask := core.Bank(core.GPIOPin(n))
		g.regs.WriteBits(core.RegCLR0+bank, mask)
	}
	g.closed = true
	return g.regs.Close()
}

// Open creates the peripherals of cfg. Call Init before use.
func Open(cfg *config.Config) (*Board, error) {
	b := &Board{cfg: cfg}

	var pins pinSource
	switch cfg.Backend {
	case "mem":
		blk, err := mem.Open(cfg.GPIO.Device, cfg.GPIO.Base)
		if err != nil {
			return nil, err
		}
		b.regs = &guardedRegs{regs: blk}
		b.drv = core.NewBCMDriver(b.regs)
		pins = b.registerPin
	case "sim":
		b.Sim = mem.NewSim(mem.BlockSize)
		b.regs = &guardedRegs{regs: b.Sim}
		b.drv = core.NewBCMDriver(b.regs)
		pins = b.registerPin
	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("board: periph init: %w", err)
		}
		pins = periphPin(cfg.GPIO.Chip)
	default:
		return nil, fmt.Errorf("board: unknown backend %q", cfg.Backend)
	}

	if err := b.build(pins); err != nil {
		b.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"cols":    cfg.Display.Cols,
		"rows":    cfg.Display.Rows,
	}).Debug("board opened")
	return b, nil
}

func (b *Board) registerPin(n int) (gpio.PinIO, error) {
	return core.NewPin(b.drv, core.GPIOPin(n))
}

func periphPin(chip string) pinSource {
	return func(n int) (gpio.PinIO, error) {
		name := fmt.Sprintf("%s%d", chip, n)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("board: no pin %s", name)
		}
		return p, nil
	}
}

func (b *Board) build(pins pinSource) error {
	p := b.cfg.Pins
	open := func(n int, role string) (gpio.PinIO, error) {
		pin, err := pins(n)
		if err != nil {
			return nil, fmt.Errorf("board: %s pin %d: %w", role, n, err)
		}
		return pin, nil
	}

	lcd := core.DisplayConfig{Cols: b.cfg.Display.Cols, Rows: b.cfg.Display.Rows}
	var err error
	if lcd.RegisterSelect, err = open(p.RS, "rs"); err != nil {
		return err
	}
	if lcd.Strobe, err = open(p.Strobe, "strobe"); err != nil {
		return err
	}
	for i, n := range p.Data {
		if lcd.Data[i], err = open(n, fmt.Sprintf("d%d", i+4)); err != nil {
			return err
		}
	}
	if b.Display, err = core.NewDisplay(lcd); err != nil {
		return err
	}

	button, err := open(p.Button, "button")
	if err != nil {
		return err
	}
	b.Button = core.NewButton(button)
	b.Button.Tick = b.cfg.Tick()
	b.Button.IdleTicks = b.cfg.Button.IdleTicks
	b.Button.ActiveHigh = b.cfg.Button.ActiveHigh

	red, err := open(p.RedLED, "red")
	if err != nil {
		return err
	}
	yellow, err := open(p.YellowLED, "yellow")
	if err != nil {
		return err
	}
	b.Red = core.NewLED("red", red)
	b.Yellow = core.NewLED("yellow", yellow)
	b.leds = []gpio.PinOut{red, yellow}
	b.ledPins = []int{p.RedLED, p.YellowLED}
	return nil
}

// Pull maps the configured pull name to a gpio.Pull
func Pull(name string) (gpio.Pull, error) {
	switch name {
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "none":
		return gpio.Float, nil
	}
	return gpio.PullNoChange, fmt.Errorf("board: unknown pull %q", name)
}

// SetSleeper replaces every delay function (tests and dry runs)
func (b *Board) SetSleeper(s core.Sleeper) {
	if b.drv != nil {
		b.drv.SetSleeper(s)
	}
	b.Display.SetSleeper(s)
	b.Button.SetSleeper(s)
	b.Red.SetSleeper(s)
	b.Yellow.SetSleeper(s)
}

// Init configures the button and LEDs, then runs the display power-on
// sequence. On the sim backend the button line starts released.
func (b *Board) Init() error {
	pull, err := Pull(b.cfg.Button.Pull)
	if err != nil {
		return err
	}
	if b.Sim != nil {
		b.Sim.SetInput(uint32(b.cfg.Pins.Button), !b.cfg.Button.ActiveHigh)
	}
	if err := b.Button.Configure(pull); err != nil {
		return fmt.Errorf("board: button: %w", err)
	}
	if err := b.Red.Configure(); err != nil {
		return fmt.Errorf("board: red led: %w", err)
	}
	if err := b.Yellow.Configure(); err != nil {
		return fmt.Errorf("board: yellow led: %w", err)
	}
	if err := b.Display.Init(); err != nil {
		return fmt.Errorf("board: display: %w", err)
	}
	return nil
}

// Hardware returns the session wiring, publishing events to pub (may be nil)
func (b *Board) Hardware(pub game.Publisher) game.Hardware {
	return game.Hardware{
		Display: b.Display,
		Button:  b.Button,
		Red:     b.Red,
		Yellow:  b.Yellow,
		Events:  pub,
	}
}

// Options converts the game section of cfg into session options
func Options(cfg *config.Config) game.Options {
	return game.Options{
		Mode:        cfg.Game.Mode,
		Length:      cfg.Game.Length,
		Colors:      cfg.Game.Colors,
		Attempts:    cfg.Game.Attempts,
		Debug:       cfg.Game.Debug,
		RedBlink:    cfg.RedBlink(),
		YellowBlink: cfg.YellowBlink(),
		StartDelay:  cfg.StartDelay(),
	}
}

// Close turns the LEDs off and releases the register mapping. It is safe
// to call from another goroutine while the session runs: later pin
// accesses become no-ops. Later calls return the first result.
func (b *Board) Close() error {
	b.closeOnce.Do(func() {
		if b.regs != nil {
			b.closeErr = b.regs.shutdown(b.ledPins...)
			return
		}
		// Drive the pins directly; the LED objects belong to the session
		for _, p := range b.leds {
			p.Out(gpio.Low)
		}
	})
	return b.closeErr
}
