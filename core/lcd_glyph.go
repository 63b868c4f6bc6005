package core

import (
	"errors"
	"image/color"

	"tinygo.org/x/drivers"
)

const (
	GlyphWidth  = 5
	GlyphHeight = 8
)

// CharDefiner uploads a user-defined character; *Display implements it
type CharDefiner interface {
	DefineChar(index int, pattern [8]byte) error
}

// ErrUnbound is returned by Glyph.Display when no controller was given
var ErrUnbound = errors.New("lcd: glyph not bound to a display")

// Glyph is a 5x8 pixel canvas for one CGRAM slot. It implements
// drivers.Displayer so TinyGo-style drawing code can render custom
// characters; Display uploads the bitmap to the controller.
type Glyph struct {
	lcd   CharDefiner
	slot  int
	rows  [GlyphHeight]byte
	dirty bool
}

var _ drivers.Displayer = (*Glyph)(nil)

// NewGlyph returns an empty canvas bound to CGRAM slot (0-7) of lcd
func NewGlyph(lcd CharDefiner, slot int) *Glyph {
	return &Glyph{lcd: lcd, slot: slot}
}

// Size returns the canvas size in pixels
func (g *Glyph) Size() (x, y int16) {
	return GlyphWidth, GlyphHeight
}

// SetPixel lights the pixel for any colour that is not fully transparent
// black. Column 0 is the leftmost pixel (bit 4).
func (g *Glyph) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= GlyphWidth || y < 0 || y >= GlyphHeight {
		return
	}
	bit := byte(1) << uint(GlyphWidth-1-x)
	if c.R|c.G|c.B != 0 {
		g.rows[y] |= bit
	} else {
		g.rows[y] &^= bit
	}
	g.dirty = true
}

// Rows returns the bitmap, one byte per row
func (g *Glyph) Rows() [GlyphHeight]byte {
	return g.rows
}

// Slot returns the CGRAM slot; print byte(Slot()) to show the glyph
func (g *Glyph) Slot() int {
	return g.slot
}

// Display uploads the bitmap if it changed since the last upload
func (g *Glyph) Display() error {
	if !g.dirty {
		return nil
	}
	if g.lcd == nil {
		return ErrUnbound
	}
	if err := g.lcd.DefineChar(g.slot, g.rows); err != nil {
		return err
	}
	g.dirty = false
	return nil
}
