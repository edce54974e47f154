package imagepkg

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func TestComposeBannerClipsAvatars(t *testing.T) {
	l := Layout{
		Width:      200,
		Height:     100,
		Background: imaging.New(10, 10, blue),
		Avatars: []AvatarSlot{
			{CX: 50, CY: 50, R: 40, Image: imaging.New(30, 30, red)},
		},
	}
	out := ComposeBanner(l)

	require.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(50, 50), "center of the circle shows the avatar")
	// corner of the bounding box stays background
	assertNear(t, blue, out.NRGBAAt(12, 12))
	assertNear(t, blue, out.NRGBAAt(150, 50))
}

func TestComposeBannerIndependentClips(t *testing.T) {
	l := Layout{
		Width:  200,
		Height: 100,
		Avatars: []AvatarSlot{
			{CX: 40, CY: 50, R: 30, Image: imaging.New(5, 5, red)},
			{CX: 160, CY: 50, R: 30, Image: imaging.New(5, 5, blue)},
		},
	}
	out := ComposeBanner(l)
	assert.Equal(t, red, out.NRGBAAt(40, 50))
	assert.Equal(t, blue, out.NRGBAAt(160, 50))
	assert.Equal(t, white, out.NRGBAAt(100, 50))
}

func TestComposeBannerQRBottomRight(t *testing.T) {
	qr, err := GenerateQRImage("https://example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, qr.Bounds().Dx())
	assert.Equal(t, DefaultQRSize, qr.Bounds().Dy())

	pt := BottomRight(1280, 720, 150)
	out := ComposeBanner(Layout{
		Width:  1280,
		Height: 720,
		QR:     &Placement{X: pt.X, Y: pt.Y, Size: 150, Image: qr},
	})
	assert.Equal(t, image.Pt(1130, 570), pt)
	// the quiet zone of a QR code is white, its finder pattern is dark
	var dark bool
	for x := pt.X; x < 1280 && !dark; x++ {
		for y := pt.Y; y < 720; y++ {
			if c := out.NRGBAAt(x, y); c.R < 0x80 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark)
	assert.Equal(t, white, out.NRGBAAt(pt.X-1, pt.Y-1))
}

func TestComposeBannerText(t *testing.T) {
	fs, err := NewFontSet(nil)
	require.NoError(t, err)
	face, err := fs.Face(StyleBold, 32)
	require.NoError(t, err)

	out := ComposeBanner(Layout{
		Width:  300,
		Height: 80,
		Texts: []TextRun{
			{Text: "Hello", X: 150, Y: 10, Face: face, Color: red, Align: AlignCenter},
		},
	})
	var inked int
	for x := 0; x < 300; x++ {
		for y := 0; y < 80; y++ {
			if out.NRGBAAt(x, y) != white {
				inked++
				assert.Greater(t, x, 75, "centered text starts right of x")
				assert.Less(t, x, 225)
			}
		}
	}
	assert.Greater(t, inked, 0)
}

func TestFontSet(t *testing.T) {
	fs, err := NewFontSet(map[string]string{"": ""})
	require.NoError(t, err)

	a, err := fs.Face("", 20)
	require.NoError(t, err)
	b, err := fs.Face(StyleRegular, 20)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = fs.Face("italic", 20)
	assert.ErrorContains(t, err, "unknown font style")

	_, err = NewFontSet(map[string]string{StyleBold: "/does/not/exist.ttf"})
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#4c7861")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x4c, G: 0x78, B: 0x61, A: 0xff}, c)

	_, err = ParseColor("not a color")
	assert.Error(t, err)
}

func TestFitCanvas(t *testing.T) {
	big := imaging.New(120, 90, red)
	out := FitCanvas(big, 100, 50)
	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())

	small := imaging.New(40, 40, red)
	out = FitCanvas(small, 100, 50)
	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(10, 10))
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(90, 45))
}

func TestDataURI(t *testing.T) {
	b, err := EncodePNG(imaging.New(2, 2, red))
	require.NoError(t, err)
	uri := DataURI(b)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	img, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestTrimXMLDecl(t *testing.T) {
	assert.Equal(t, `<svg/>`, string(trimXMLDecl([]byte("<?xml version=\"1.0\"?>\n<svg/>"))))
	assert.Equal(t, `<svg/>`, string(trimXMLDecl([]byte(`<svg/>`))))
}

func assertNear(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	ok := diff(want.R, got.R) <= 2 && diff(want.G, got.G) <= 2 && diff(want.B, got.B) <= 2 && diff(want.A, got.A) <= 2
	assert.Truef(t, ok, "want %v, got %v", want, got)
}
