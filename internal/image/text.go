package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/mazznoer/csscolorparser"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextRun is one line of text drawn verbatim at a fixed position. Y is the
// top of the line, matching a "top" text baseline.
type TextRun struct {
	Text  string
	X, Y  float64
	Face  font.Face
	Color color.Color
	Align Align
}

// FontSet loads TrueType fonts by style name and hands out faces by size.
// Styles without a configured file use the bundled Go fonts.
type FontSet struct {
	mu    sync.Mutex
	ttfs  map[string]*truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	style string
	size  float64
}

const (
	StyleRegular = "regular"
	StyleBold    = "bold"
)

// NewFontSet parses the font files in paths, keyed by style.
func NewFontSet(paths map[string]string) (*FontSet, error) {
	fs := &FontSet{
		ttfs:  make(map[string]*truetype.Font),
		faces: make(map[faceKey]font.Face),
	}
	builtin := map[string][]byte{
		StyleRegular: goregular.TTF,
		StyleBold:    gobold.TTF,
	}
	for style, data := range builtin {
		ttf, err := truetype.Parse(data)
		if err != nil {
			return nil, err
		}
		fs.ttfs[style] = ttf
	}
	for style, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", style, err)
		}
		ttf, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", style, err)
		}
		fs.ttfs[style] = ttf
	}
	return fs, nil
}

// Face returns the face for style at size pixels.
func (fs *FontSet) Face(style string, size float64) (font.Face, error) {
	if style == "" {
		style = StyleRegular
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	k := faceKey{style, size}
	if f, ok := fs.faces[k]; ok {
		return f, nil
	}
	ttf, ok := fs.ttfs[style]
	if !ok {
		return nil, fmt.Errorf("unknown font style %q", style)
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.faces[k] = f
	return f, nil
}

// ParseColor parses any CSS color string.
func ParseColor(s string) (color.Color, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return nil, err
	}
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func drawText(dst draw.Image, run TextRun) {
	if run.Text == "" || run.Face == nil {
		return
	}
	c := run.Color
	if c == nil {
		c = color.Black
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: run.Face,
	}
	x := fixed.Int26_6(run.X * 64)
	switch run.Align {
	case AlignCenter:
		x -= d.MeasureString(run.Text) / 2
	case AlignRight:
		x -= d.MeasureString(run.Text)
	}
	y := fixed.Int26_6(run.Y*64) + run.Face.Metrics().Ascent
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(run.Text)
}
