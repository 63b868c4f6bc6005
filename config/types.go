package config

// GPIOConfig selects the register window
type GPIOConfig struct {
	Device string // "/dev/gpiomem" or "/dev/mem"
	Base   int64  // Peripheral physical address (used with /dev/mem)
	Chip   string // Pin name prefix for the periph backend (e.g. "GPIO")
}

// PinConfig maps each signal to a BCM pin number
type PinConfig struct {
	RS        int    // LCD register select
	Strobe    int    // LCD enable
	Data      [4]int // LCD D4..D7
	Button    int
	RedLED    int
	YellowLED int
}

// DisplayConfig is the LCD geometry
type DisplayConfig struct {
	Cols int
	Rows int
}

// ButtonConfig tunes the debounced sampler
type ButtonConfig struct {
	TickMS     int    // Sampling period in milliseconds
	IdleTicks  int    // Ticks without an edge that end a symbol
	Pull       string // "up", "down" or "none"
	ActiveHigh bool   // Button drives the line high when pressed
}

// GameConfig holds the session parameters. Zero Mode, Length or Colors
// are asked for interactively.
type GameConfig struct {
	Mode     int // 1 single player, 2 two player
	Length   int // Symbols per sequence
	Colors   int // Distinct symbol values
	Attempts int
	Debug    bool // Reveal the secret

	RedBlinkMS    int // Red LED toggle period
	YellowBlinkMS int // Yellow LED toggle period
	StartDelayMS  int // Pause before the first round
}

// LinkConfig is the optional serial event link
type LinkConfig struct {
	Device string // Empty disables the link
	Baud   int
}

// Config is the complete runtime configuration
type Config struct {
	Backend  string // "mem", "periph" or "sim"
	LogLevel string
	GPIO     GPIOConfig
	Pins     PinConfig
	Display  DisplayConfig
	Button   ButtonConfig
	Game     GameConfig
	Link     LinkConfig
}
