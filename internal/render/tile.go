package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pixil98/go-blueprints/internal/blueprint"
)

// Source pixels are monochrome-alpha: pure black marks the primary region,
// pure white marks the detail region, and anything between is tinted by its
// red channel.
var (
	tileMark   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	detailMark = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// SourceFunc supplies the raw base image for a tile path. Discovery and
// decoding of the image files belongs to the caller.
type SourceFunc func(name string) (image.Image, error)

// ErrNoTile is returned when a blueprint declares nothing renderable.
var ErrNoTile = fmt.Errorf("blueprint has no tile")

// Compositor turns resolved render attributes into colored tile images.
// Composition is deterministic: identical attributes and palette produce
// byte-identical pixel buffers.
type Compositor struct {
	palette Palette
	source  SourceFunc

	mu    sync.Mutex
	cache map[string]*image.RGBA
	diags []string
}

// CompositorOpt configures a Compositor.
type CompositorOpt func(*Compositor)

// WithPalette overrides the default color table.
func WithPalette(p Palette) CompositorOpt {
	return func(c *Compositor) {
		c.palette = p
	}
}

// NewCompositor creates a compositor that loads base images through source.
func NewCompositor(source SourceFunc, opts ...CompositorOpt) *Compositor {
	c := &Compositor{
		palette: DefaultPalette(),
		source:  source,
		cache:   map[string]*image.RGBA{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Diagnostics returns a copy of the anomalies collected while compositing.
func (c *Compositor) Diagnostics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.diags))
	copy(out, c.diags)
	return out
}

// Compose produces the colored tile for a blueprint's resolved render
// attributes: base glyph recolored with the primary and detail colors, then
// any overlay layers composited on top in declaration order.
func (c *Compositor) Compose(attrs blueprint.RenderAttributes) (*Tile, error) {
	base, err := c.baseImage(attrs)
	if err != nil {
		return nil, err
	}

	primary, detail, background := c.tileColors(attrs)
	img := recolor(base, primary, detail, background)

	for _, layer := range attrs.Layers {
		if layer.Tile == "" {
			continue
		}
		src, err := c.loadImage(layer.Tile)
		if err != nil {
			return nil, fmt.Errorf("overlay %s: %w", layer.Tile, err)
		}
		lp := c.lookup(strings.TrimPrefix(layer.Color, "&"), DefaultCode)
		ld := c.lookupDetail(layer.DetailColor)
		// Zero color, not the palette's transparent fill: buffers are
		// premultiplied, so Over must see no contribution at all here.
		colored := recolor(src, lp, ld, color.RGBA{})
		draw.Draw(img, img.Bounds(), colored, colored.Bounds().Min, draw.Over)
	}

	return &Tile{Image: img}, nil
}

// baseImage loads the tile's source image, or falls back to a stand-in glyph
// for blueprints that render without declaring a tile file.
func (c *Compositor) baseImage(attrs blueprint.RenderAttributes) (*image.RGBA, error) {
	if attrs.Tile != "" {
		return c.loadImage(attrs.Tile)
	}
	if attrs.Standin != "" {
		if img := standinImage(attrs.Standin); img != nil {
			return img, nil
		}
	}
	return nil, ErrNoTile
}

// loadImage fetches and caches a base image by its declared path. The cached
// copy is never modified; callers always receive a fresh buffer from recolor.
func (c *Compositor) loadImage(name string) (*image.RGBA, error) {
	name, err := fixFilename(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	img, ok := c.cache[name]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	src, err := c.source(name)
	if err != nil {
		return nil, fmt.Errorf("loading tile image %s: %w", name, err)
	}
	img = toRGBA(src)

	c.mu.Lock()
	c.cache[name] = img
	c.mu.Unlock()
	return img, nil
}

// tileColors resolves the primary, detail, and background colors for a tile.
// TileColor wins over ColorString; a ^ code in either sets the background.
func (c *Compositor) tileColors(attrs blueprint.RenderAttributes) (primary, detail, background color.RGBA) {
	raw := attrs.TileColor
	if raw == "" {
		raw = attrs.ColorString
	}

	bgCode := Transparent
	if i := strings.IndexByte(raw, '^'); i >= 0 {
		if code := strings.TrimPrefix(raw[i+1:], "&"); code != "" {
			bgCode = code
		}
		raw = raw[:i]
	}

	fgCode := strings.TrimPrefix(raw, "&")
	if fgCode == "" {
		fgCode = DefaultCode
	}

	primary = c.lookup(fgCode, DefaultCode)
	detail = c.lookupDetail(attrs.DetailColor)
	background = c.lookup(bgCode, Transparent)
	return primary, detail, background
}

// lookup resolves a color code, falling back to def and recording a
// diagnostic for unknown codes. Unknown codes never abort a render.
func (c *Compositor) lookup(code, def string) color.RGBA {
	if v, ok := c.palette[code]; ok {
		return v
	}

	err := &UnknownColorCodeError{Code: code}
	c.mu.Lock()
	c.diags = append(c.diags, err.Error())
	c.mu.Unlock()
	return c.palette[def]
}

// lookupDetail resolves the detail color; absence means transparent, not a
// diagnostic.
func (c *Compositor) lookupDetail(raw string) color.RGBA {
	code := strings.TrimPrefix(raw, "&")
	if code == "" {
		return c.palette[Transparent]
	}
	return c.lookup(code, Transparent)
}

// recolor maps a monochrome-alpha source to its final colors, pixel by pixel
// in scan order.
func recolor(src *image.RGBA, primary, detail, background color.RGBA) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := src.RGBAAt(x, y)
			switch {
			case px.A == 0:
				out.SetRGBA(x, y, background)
			case px == tileMark:
				out.SetRGBA(x, y, primary)
			case px == detailMark:
				out.SetRGBA(x, y, detail)
			default:
				// tinted pixel: the red channel sets the blend
				// between primary and detail
				out.SetRGBA(x, y, tint(px, primary, detail))
			}
		}
	}
	return out
}

// tint blends primary toward detail by the source pixel's red channel.
func tint(px, primary, detail color.RGBA) color.RGBA {
	p := float64(px.R) / 255
	blend := func(t, d uint8) uint8 {
		lo := math.Min(float64(t), float64(d))
		return uint8(math.Abs((float64(t)-float64(d))*p + lo))
	}
	return color.RGBA{
		R: blend(primary.R, detail.R),
		G: blend(primary.G, detail.G),
		B: blend(primary.B, detail.B),
		A: 255,
	}
}

func toRGBA(src image.Image) *image.RGBA {
	if img, ok := src.(*image.RGBA); ok {
		return img
	}
	b := src.Bounds()
	img := image.NewRGBA(b)
	draw.Draw(img, b, src, b.Min, draw.Src)
	return img
}

// fixFilename repairs the broken tile paths that appear in the raw data and
// rejects path escapes.
func fixFilename(name string) (string, error) {
	if strings.HasPrefix(strings.ToLower(name), "assets_content_textures") {
		name = strings.Replace(name[24:], "_", "/", 1)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("illegal tile path %q", name)
	}
	name = strings.ReplaceAll(name, `\`, "/")
	if name == "" {
		return "", fmt.Errorf("empty tile path")
	}
	return strings.ToUpper(name[:1]) + name[1:], nil
}

// Tile is a composed pixel buffer ready for encoding.
type Tile struct {
	Image *image.RGBA
}

// PNG encodes the tile. Encoding is deterministic for identical pixels.
func (t *Tile) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// Big returns the 10x enlarged tile used for wiki-style display, scaled
// without smoothing so pixels stay crisp.
func (t *Tile) Big() image.Image {
	b := t.Image.Bounds()
	return imaging.Resize(t.Image, b.Dx()*10, b.Dy()*10, imaging.NearestNeighbor)
}

// BigPNG encodes the enlarged tile.
func (t *Tile) BigPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Big()); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
