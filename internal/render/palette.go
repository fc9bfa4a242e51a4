package render

import (
	"fmt"
	"image/color"
)

// Palette maps the short color codes used throughout the blueprint data to
// concrete colors. The table is fixed static data owned by the game; this is
// a faithful copy of its values.
type Palette map[string]color.RGBA

// DefaultCode is the fallback used when a blueprint references a color code
// the palette does not know.
const DefaultCode = "y"

// Transparent is the palette's fill for fully transparent source pixels.
const Transparent = "transparent"

// DefaultPalette returns the standard sixteen-color palette plus the two
// special unstable colors and the transparent fill.
func DefaultPalette() Palette {
	return Palette{
		"r":         {R: 166, G: 74, B: 46, A: 255},  // dark red
		"R":         {R: 215, G: 66, B: 0, A: 255},   // bright red
		"w":         {R: 152, G: 135, B: 95, A: 255}, // brown
		"W":         {R: 207, G: 192, B: 65, A: 255}, // yellow
		"c":         {R: 64, G: 164, B: 185, A: 255}, // dark cyan
		"C":         {R: 119, G: 191, B: 207, A: 255},
		"b":         {R: 0, G: 72, B: 189, A: 255}, // dark blue
		"B":         {R: 0, G: 150, B: 255, A: 255},
		"g":         {R: 0, G: 148, B: 3, A: 255}, // dark green
		"G":         {R: 0, G: 196, B: 32, A: 255},
		"m":         {R: 177, G: 84, B: 207, A: 255}, // dark magenta
		"M":         {R: 218, G: 91, B: 214, A: 255},
		"y":         {R: 177, G: 201, B: 195, A: 255}, // bright grey
		"Y":         {R: 255, G: 255, B: 255, A: 255}, // white
		"k":         {R: 15, G: 59, B: 58, A: 255},    // black
		"K":         {R: 21, G: 83, B: 82, A: 255},    // dark grey
		"o":         {R: 241, G: 95, B: 34, A: 255},
		"O":         {R: 233, G: 159, B: 16, A: 255},
		Transparent: {R: 15, G: 64, B: 63, A: 0},
	}
}

// UnknownColorCodeError reports a color code missing from the palette. It is
// recoverable: rendering falls back to the default color.
type UnknownColorCodeError struct {
	Code string
}

func (e *UnknownColorCodeError) Error() string {
	return fmt.Sprintf("unknown color code %q", e.Code)
}
