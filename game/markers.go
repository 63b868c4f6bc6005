package game

import (
	"image/color"

	"tinygo.org/x/drivers"

	"mastermind/core"
)

// CGRAM slots of the score markers
const (
	MarkerExact  = 0 // Filled box: right symbol, right place
	MarkerColour = 1 // Hollow box: right symbol, wrong place
)

var lit = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// drawMarker draws a box five pixels high across the full cell width,
// one pixel below the top
func drawMarker(c drivers.Displayer, filled bool) {
	w, _ := c.Size()
	for y := int16(1); y <= 5; y++ {
		for x := int16(0); x < w; x++ {
			edge := y == 1 || y == 5 || x == 0 || x == w-1
			if filled || edge {
				c.SetPixel(x, y, lit)
			}
		}
	}
}

// markerGlyph returns a marker drawn on a glyph bound to slot of lcd
func markerGlyph(lcd core.CharDefiner, slot int, filled bool) *core.Glyph {
	g := core.NewGlyph(lcd, slot)
	drawMarker(g, filled)
	return g
}

// markerRow returns length cells: exact markers, colour markers, then blanks
func markerRow(exact, colour, length int) string {
	b := make([]byte, 0, length)
	for i := 0; i < exact; i++ {
		b = append(b, MarkerExact)
	}
	for i := 0; i < colour; i++ {
		b = append(b, MarkerColour)
	}
	for len(b) < length {
		b = append(b, ' ')
	}
	return string(b)
}
