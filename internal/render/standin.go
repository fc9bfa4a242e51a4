package render

import (
	"image"
	"image/draw"
	"sync"

	"github.com/fogleman/gg"
)

// Stand-in glyphs fake a tile for blueprints that render but declare no tile
// file. The patterns reproduce the Code Page 437 shade characters those
// blueprints display in text mode, drawn in the mark colors so the normal
// recoloring pass applies.

const (
	standinWidth  = 16
	standinHeight = 24
)

var (
	standinOnce sync.Once
	standins    map[string]*image.RGBA
)

// standinImage returns the uncolored stand-in pattern by name, or nil when
// none is defined.
func standinImage(name string) *image.RGBA {
	standinOnce.Do(buildStandins)
	return standins[name]
}

func buildStandins() {
	standins = map[string]*image.RGBA{
		"gas": gasGlyph(),
	}
}

// gasGlyph draws the light-shade pattern used for gas clouds: a staggered
// grid of 2x2 dots on a transparent field.
func gasGlyph() *image.RGBA {
	dc := gg.NewContext(standinWidth, standinHeight)
	dc.SetRGBA255(int(tileMark.R), int(tileMark.G), int(tileMark.B), int(tileMark.A))
	for y := 0; y < standinHeight; y += 6 {
		for x := 4; x < standinWidth; x += 6 {
			dc.DrawRectangle(float64(x), float64(y), 2, 2)
		}
	}
	for y := 2; y < standinHeight; y += 6 {
		for x := 0; x < standinWidth; x += 6 {
			dc.DrawRectangle(float64(x), float64(y), 2, 2)
		}
	}
	for y := 4; y < standinHeight; y += 6 {
		for x := 2; x < standinWidth; x += 6 {
			dc.DrawRectangle(float64(x), float64(y), 2, 2)
		}
	}
	dc.Fill()

	img := image.NewRGBA(image.Rect(0, 0, standinWidth, standinHeight))
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return img
}
