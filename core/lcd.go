// HD44780 character LCD support
// Implements the 4-bit parallel bus protocol: nibble transfers latched by a
// strobe pulse, the forced power-on bring-up and local cursor bookkeeping.
package core

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// HD44780 commands (Hitachi HD44780U datasheet, table 6)
const (
	LCD_CLEAR   = 0x01
	LCD_HOME    = 0x02
	LCD_ENTRY   = 0x04
	LCD_CTRL    = 0x08
	LCD_CDSHIFT = 0x10
	LCD_FUNC    = 0x20
	LCD_CGRAM   = 0x40
	LCD_DGRAM   = 0x80
)

// Entry mode bits
const (
	LCD_ENTRY_SH = 0x01 // Shift display on write
	LCD_ENTRY_ID = 0x02 // Increment address after write
)

// Display control bits (the control flag mirror)
const (
	LCD_BLINK_CTRL   = 0x01
	LCD_CURSOR_CTRL  = 0x02
	LCD_DISPLAY_CTRL = 0x04
)

// Function set bits
const (
	LCD_FUNC_F  = 0x04 // 5x10 font
	LCD_FUNC_N  = 0x08 // Two display lines
	LCD_FUNC_DL = 0x10 // 8-bit interface
)

// Cursor/display shift bits
const (
	LCD_CDSHIFT_RL = 0x04
)

const (
	maxRows  = 4
	maxCols  = 40
	maxGlyph = 8
)

// rowOffsets are the DDRAM start addresses of each line
var rowOffsets = [maxRows]uint8{0x00, 0x40, 0x14, 0x54}

// InitStage tracks progress through the bring-up sequence
type InitStage uint8

const (
	StageUninitialized InitStage = iota
	StageBits8Forced
	StageBits4Set
	StageFunctionSet
	StageDisplayConfigured
	StageCleared
	StageReady
)

func (s InitStage) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageBits8Forced:
		return "bits8-forced"
	case StageBits4Set:
		return "bits4-set"
	case StageFunctionSet:
		return "function-set"
	case StageDisplayConfigured:
		return "display-configured"
	case StageCleared:
		return "cleared"
	case StageReady:
		return "ready"
	}
	return "unknown"
}

// ErrNotReady is returned by display operations before a successful Init
var ErrNotReady = errors.New("lcd: display not initialized")

// DisplayConfig describes the wiring and geometry of a display
type DisplayConfig struct {
	Data           [4]gpio.PinOut // D4..D7, least significant first
	Strobe         gpio.PinOut    // E
	RegisterSelect gpio.PinOut    // RS
	Cols           int
	Rows           int
}

// Display is an HD44780 on a 4-bit bus. The controller is write-only (R/W
// is tied low), so cursor and control flags are authoritative here.
type Display struct {
	data   [4]gpio.PinOut
	strobe gpio.PinOut
	rs     gpio.PinOut

	cols, rows int
	cx, cy     int
	control    uint8
	stage      InitStage

	sleep Sleeper
}

// NewDisplay creates an uninitialized display; call Init before use
func NewDisplay(cfg DisplayConfig) (*Display, error) {
	if cfg.Rows < 1 || cfg.Rows > maxRows {
		return nil, fmt.Errorf("lcd: rows %d out of range 1..%d", cfg.Rows, maxRows)
	}
	if cfg.Cols < 1 || cfg.Cols > maxCols {
		return nil, fmt.Errorf("lcd: cols %d out of range 1..%d", cfg.Cols, maxCols)
	}
	if cfg.Strobe == nil || cfg.RegisterSelect == nil {
		return nil, errors.New("lcd: strobe and register select pins are required")
	}
	for i, p := range cfg.Data {
		if p == nil {
			return nil, fmt.Errorf("lcd: data pin %d missing", i)
		}
	}

	return &Display{
		data:   cfg.Data,
		strobe: cfg.Strobe,
		rs:     cfg.RegisterSelect,
		cols:   cfg.Cols,
		rows:   cfg.Rows,
		sleep:  time.Sleep,
	}, nil
}

// SetSleeper replaces the delay function (tests)
func (d *Display) SetSleeper(s Sleeper) {
	d.sleep = s
}

// Init runs the power-on sequence. The controller may power up in either
// 8-bit or 4-bit mode, so the 8-bit function set nibble is forced three
// times before switching to 4-bit mode.
func (d *Display) Init() error {
	d.stage = StageUninitialized
	d.control = 0
	d.cx, d.cy = 0, 0

	if err := d.rs.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd: register select: %w", err)
	}
	if err := d.strobe.Out(gpio.Low); err != nil {
		return fmt.Errorf("lcd: strobe: %w", err)
	}
	for i, p := range d.data {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("lcd: data pin %d: %w", i, err)
		}
	}
	d.sleep(InitDelay)

	fn := uint8(LCD_FUNC | LCD_FUNC_DL)
	for i := 0; i < 3; i++ {
		if err := d.putNibbleCommand(fn >> 4); err != nil {
			return err
		}
		d.sleep(InitDelay)
	}
	d.stage = StageBits8Forced

	fn = LCD_FUNC
	if err := d.putNibbleCommand(fn >> 4); err != nil {
		return err
	}
	d.sleep(InitDelay)
	d.stage = StageBits4Set

	if d.rows > 1 {
		fn |= LCD_FUNC_N
		if err := d.putCommand(fn); err != nil {
			return err
		}
		d.sleep(InitDelay)
	}
	d.stage = StageFunctionSet

	if err := d.setControl(LCD_DISPLAY_CTRL, true); err != nil {
		return err
	}
	if err := d.setControl(LCD_CURSOR_CTRL, false); err != nil {
		return err
	}
	if err := d.setControl(LCD_BLINK_CTRL, false); err != nil {
		return err
	}
	d.stage = StageDisplayConfigured

	if err := d.clear(); err != nil {
		return err
	}
	d.stage = StageCleared

	if err := d.putCommand(LCD_ENTRY | LCD_ENTRY_ID); err != nil {
		return err
	}
	if err := d.putCommand(LCD_CDSHIFT | LCD_CDSHIFT_RL); err != nil {
		return err
	}
	d.stage = StageReady

	logger.WithField("geometry", fmt.Sprintf("%dx%d", d.cols, d.rows)).Info("lcd ready")
	return nil
}

// Stage returns the current bring-up stage
func (d *Display) Stage() InitStage { return d.stage }

// Cols returns the number of columns
func (d *Display) Cols() int { return d.cols }

// Rows returns the number of rows
func (d *Display) Rows() int { return d.rows }

// Cursor returns the tracked cursor column and row
func (d *Display) Cursor() (col, row int) { return d.cx, d.cy }

// Control returns the local mirror of the display control flags
func (d *Display) Control() uint8 { return d.control }

// Clear blanks the display and homes the cursor
func (d *Display) Clear() error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	return d.clear()
}

func (d *Display) clear() error {
	if err := d.putCommand(LCD_CLEAR); err != nil {
		return err
	}
	if err := d.putCommand(LCD_HOME); err != nil {
		return err
	}
	d.cx, d.cy = 0, 0
	d.sleep(HomeDelay)
	return nil
}

// Home returns the cursor to (0,0) without clearing
func (d *Display) Home() error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	if err := d.putCommand(LCD_HOME); err != nil {
		return err
	}
	d.cx, d.cy = 0, 0
	d.sleep(HomeDelay)
	return nil
}

// SetPosition moves the cursor. Out of range positions are ignored and
// leave the cursor where it is.
func (d *Display) SetPosition(x, y int) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	if x < 0 || x >= d.cols || y < 0 || y >= d.rows {
		debugf("lcd: position (%d,%d) ignored", x, y)
		return nil
	}
	if err := d.putCommand(LCD_DGRAM | ddramAddress(x, y)); err != nil {
		return err
	}
	d.cx, d.cy = x, y
	return nil
}

// SetDisplay turns the whole display on or off
func (d *Display) SetDisplay(on bool) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	return d.setControl(LCD_DISPLAY_CTRL, on)
}

// SetCursor shows or hides the underline cursor
func (d *Display) SetCursor(on bool) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	return d.setControl(LCD_CURSOR_CTRL, on)
}

// SetBlink turns the blinking block cursor on or off
func (d *Display) SetBlink(on bool) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	return d.setControl(LCD_BLINK_CTRL, on)
}

// setControl updates the flag mirror, then sends the whole control byte
func (d *Display) setControl(flag uint8, on bool) error {
	if on {
		d.control |= flag
	} else {
		d.control &^= flag
	}
	return d.putCommand(LCD_CTRL | d.control)
}

// PutChar writes one character at the cursor and advances it. At the end
// of a line the controller address is moved explicitly, since its auto
// increment does not follow the line order.
func (d *Display) PutChar(c byte) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	if err := d.rs.Out(gpio.High); err != nil {
		return err
	}
	if err := d.sendByte(c); err != nil {
		return err
	}

	d.cx++
	if d.cx == d.cols {
		d.cx = 0
		d.cy = (d.cy + 1) % d.rows
		if err := d.putCommand(LCD_DGRAM | ddramAddress(d.cx, d.cy)); err != nil {
			return err
		}
	}
	RecordTrace(EvtData, c, d.cx, d.cy)
	return nil
}

// PutString writes s byte by byte from the cursor
func (d *Display) PutString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.PutChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// DefineChar stores a 5x8 glyph in CGRAM slot index (0-7). The pattern is
// one byte per row, low five bits used. Printing byte(index) shows it.
func (d *Display) DefineChar(index int, pattern [8]byte) error {
	if d.stage != StageReady {
		return ErrNotReady
	}
	if index < 0 || index >= maxGlyph {
		return fmt.Errorf("lcd: glyph index %d out of range", index)
	}

	if err := d.putCommand(LCD_CGRAM | uint8(index)<<3); err != nil {
		return err
	}
	if err := d.rs.Out(gpio.High); err != nil {
		return err
	}
	for _, row := range pattern {
		if err := d.sendByte(row & 0x1F); err != nil {
			return err
		}
		RecordTrace(EvtData, row&0x1F, d.cx, d.cy)
	}

	// CGRAM writes moved the address counter; point it back at the cursor
	return d.putCommand(LCD_DGRAM | ddramAddress(d.cx, d.cy))
}

func ddramAddress(x, y int) uint8 {
	return rowOffsets[y] + uint8(x)
}

// putCommand sends a full command byte with RS low
func (d *Display) putCommand(cmd uint8) error {
	if err := d.rs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.sendByte(cmd); err != nil {
		return err
	}
	RecordTrace(EvtCommand, cmd, d.cx, d.cy)
	d.sleep(CommandDelay)
	return nil
}

// putNibbleCommand sends a single nibble with RS low (bring-up only)
func (d *Display) putNibbleCommand(nibble uint8) error {
	if err := d.rs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.sendNibble(nibble); err != nil {
		return err
	}
	RecordTrace(EvtNibble, nibble&0x0F, d.cx, d.cy)
	return nil
}

// sendByte transmits the high nibble then the low nibble
func (d *Display) sendByte(b uint8) error {
	if err := d.sendNibble(b >> 4); err != nil {
		return err
	}
	return d.sendNibble(b & 0x0F)
}

// sendNibble places bit i on data pin i and latches it with one strobe
func (d *Display) sendNibble(nibble uint8) error {
	for i, p := range d.data {
		if err := p.Out(gpio.Level(nibble&(1<<uint(i)) != 0)); err != nil {
			return err
		}
	}
	return d.pulseStrobe()
}

func (d *Display) pulseStrobe() error {
	if err := d.strobe.Out(gpio.High); err != nil {
		return err
	}
	d.sleep(StrobePulse)
	if err := d.strobe.Out(gpio.Low); err != nil {
		return err
	}
	d.sleep(StrobeSettle)
	return nil
}
