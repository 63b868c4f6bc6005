package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Limits shared with the hardware packages
const (
	MaxPin    = 63
	MaxColors = 9 // One digit per symbol on the display
)

// Backends accepted by Backend
var Backends = []string{"mem", "periph", "sim"}

var ErrInvalid = errors.New("invalid configuration")

// Load reads a JSON configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return LoadConfig(data)
}

// LoadConfig parses a JSON configuration. Fields missing from the document
// keep their default values.
func LoadConfig(jsonData []byte) (*Config, error) {
	config := DefaultConfig()

	if err := json.Unmarshal(jsonData, config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// Apply defaults
	applyDefaults(config)

	return config, nil
}

// applyDefaults fills in zero values that are never valid
func applyDefaults(config *Config) {
	if config.Backend == "" {
		config.Backend = "mem"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.GPIO.Device == "" {
		config.GPIO.Device = "/dev/gpiomem"
	}
	if config.GPIO.Base == 0 {
		config.GPIO.Base = 0x3F200000 // Pi 2 / Pi 3
	}
	if config.GPIO.Chip == "" {
		config.GPIO.Chip = "GPIO"
	}

	if config.Display.Cols == 0 {
		config.Display.Cols = 16
	}
	if config.Display.Rows == 0 {
		config.Display.Rows = 2
	}

	if config.Button.TickMS == 0 {
		config.Button.TickMS = 50
	}
	if config.Button.IdleTicks == 0 {
		config.Button.IdleTicks = 50
	}
	if config.Button.Pull == "" {
		config.Button.Pull = "up"
	}

	if config.Game.Attempts == 0 {
		config.Game.Attempts = 3
	}
	if config.Game.RedBlinkMS == 0 {
		config.Game.RedBlinkMS = 1000
	}
	if config.Game.YellowBlinkMS == 0 {
		config.Game.YellowBlinkMS = 500
	}
	if config.Game.StartDelayMS == 0 {
		config.Game.StartDelayMS = 3000
	}

	if config.Link.Baud == 0 {
		config.Link.Baud = 115200
	}
}

// DefaultConfig returns the wiring of the reference board
func DefaultConfig() *Config {
	config := &Config{
		Pins: PinConfig{
			RS:        25,
			Strobe:    24,
			Data:      [4]int{23, 10, 27, 22},
			Button:    19,
			RedLED:    5,
			YellowLED: 13,
		},
		Game: GameConfig{
			Length: 4,
			Colors: 6,
		},
	}
	applyDefaults(config)
	return config
}

// Tick returns the button sampling period
func (c *Config) Tick() time.Duration {
	return ms(c.Button.TickMS)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// RedBlink returns the red LED toggle period
func (c *Config) RedBlink() time.Duration { return ms(c.Game.RedBlinkMS) }

// YellowBlink returns the yellow LED toggle period
func (c *Config) YellowBlink() time.Duration { return ms(c.Game.YellowBlinkMS) }

// StartDelay returns the pause before the first round
func (c *Config) StartDelay() time.Duration { return ms(c.Game.StartDelayMS) }

// Validate checks ranges and that no pin is used twice
func (c *Config) Validate() error {
	known := false
	for _, b := range Backends {
		if c.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}

	used := make(map[int]string)
	check := func(name string, pin int) error {
		if pin < 0 || pin > MaxPin {
			return fmt.Errorf("%w: pin %s=%d out of range 0..%d", ErrInvalid, name, pin, MaxPin)
		}
		if other, dup := used[pin]; dup {
			return fmt.Errorf("%w: pin %d used by %s and %s", ErrInvalid, pin, other, name)
		}
		used[pin] = name
		return nil
	}

	p := c.Pins
	pins := []struct {
		name string
		pin  int
	}{
		{"rs", p.RS}, {"strobe", p.Strobe},
		{"d4", p.Data[0]}, {"d5", p.Data[1]}, {"d6", p.Data[2]}, {"d7", p.Data[3]},
		{"button", p.Button}, {"red_led", p.RedLED}, {"yellow_led", p.YellowLED},
	}
	for _, e := range pins {
		if err := check(e.name, e.pin); err != nil {
			return err
		}
	}

	if c.Display.Rows < 1 || c.Display.Rows > 4 {
		return fmt.Errorf("%w: display rows %d", ErrInvalid, c.Display.Rows)
	}
	if c.Display.Cols < 1 || c.Display.Cols > 40 {
		return fmt.Errorf("%w: display cols %d", ErrInvalid, c.Display.Cols)
	}

	if c.Button.TickMS < 1 || c.Button.IdleTicks < 1 {
		return fmt.Errorf("%w: button tick %dms idle %d", ErrInvalid, c.Button.TickMS, c.Button.IdleTicks)
	}
	switch c.Button.Pull {
	case "up", "down", "none":
	default:
		return fmt.Errorf("%w: button pull %q", ErrInvalid, c.Button.Pull)
	}

	g := c.Game
	if g.Mode != 0 && g.Mode != 1 && g.Mode != 2 {
		return fmt.Errorf("%w: game mode %d", ErrInvalid, g.Mode)
	}
	if g.Length < 0 || g.Colors < 0 || g.Colors > MaxColors || g.Attempts < 1 {
		return fmt.Errorf("%w: game length %d colors %d attempts %d", ErrInvalid, g.Length, g.Colors, g.Attempts)
	}
	if g.Length > c.Display.Cols {
		return fmt.Errorf("%w: sequence length %d does not fit %d columns", ErrInvalid, g.Length, c.Display.Cols)
	}

	return nil
}
