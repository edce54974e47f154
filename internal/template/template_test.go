package tmpl

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventkit/bannergen/internal/avatar"
	"github.com/eventkit/bannergen/internal/event"
	imagepkg "github.com/eventkit/bannergen/internal/image"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
)

const vectorSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="800px" height="450" viewBox="0 0 800 450">
  <text id="title">TITLE</text>
  <text id="date">DATE</text>
  <text id="time">TIME</text>
  <image id="speaker-0-avatar" xlink:href="placeholder.png" width="100" height="100"/>
  <text id="speaker-0-name">NAME0</text>
  <text id="speaker-0-company">COMPANY0</text>
  <image id="speaker-1-avatar" href="placeholder.png" width="100" height="100"/>
  <text id="speaker-1-name">NAME1</text>
  <text id="speaker-1-company">COMPANY1</text>
  <image id="qrcode" width="120" height="120"/>
</svg>`

func writeFile(t *testing.T, dir, name string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
}

func writePNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) {
	t.Helper()
	b, err := imagepkg.EncodePNG(imaging.New(w, h, c))
	require.NoError(t, err)
	writeFile(t, dir, name, b)
}

func testAvatar(t *testing.T, c color.NRGBA) avatar.Avatar {
	img := imaging.New(16, 16, c)
	data, err := imagepkg.EncodePNG(img)
	require.NoError(t, err)
	return avatar.Avatar{Image: img, Data: data}
}

type fakeRasterizer struct {
	svg  []byte
	w, h int
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, svg []byte, w, h int) (image.Image, error) {
	f.svg, f.w, f.h = svg, w, h
	// some backends hand back a larger canvas than asked for
	return imaging.New(w+37, h+11, green), nil
}

func TestParseDescriptorClassic(t *testing.T) {
	d, err := ParseDescriptor(classicYAML)
	require.NoError(t, err)
	assert.Equal(t, KindRaster, d.Kind)
	assert.Equal(t, 1280, d.Width)
	assert.Equal(t, 720, d.Height)
	require.Len(t, d.Speakers, 2)
	assert.Equal(t, 850, d.Speakers[0].Avatar.CX)
	assert.Equal(t, 140, d.Speakers[1].Avatar.R)
	assert.Equal(t, "@", d.Speakers[0].Company.Prefix)
	assert.Equal(t, imagepkg.AlignCenter, d.Speakers[1].Name.Align)
	assert.Equal(t, 150, d.QRCode.Size)
	assert.Nil(t, d.QRCode.X)
}

func TestParseDescriptorErrors(t *testing.T) {
	for name, in := range map[string]string{
		"kind":    "kind: pdf",
		"size":    "kind: raster\nwidth: 0\nheight: 10",
		"unknown": "kind: vector\nbogus: 1",
		"yaml":    "kind: [",
	} {
		_, err := ParseDescriptor([]byte(in))
		assert.Error(t, err, name)
	}

	d, err := ParseDescriptor([]byte("document: a.svg"))
	require.NoError(t, err)
	assert.Equal(t, KindVector, d.Kind)
}

func TestStoreLoadBuiltinClassic(t *testing.T) {
	dir := t.TempDir()
	s := Store{Dir: dir}

	writePNG(t, dir, "background.png", 64, 36, red)
	tp, err := s.Load("classic")
	require.NoError(t, err)
	assert.Empty(t, tp.Warnings)
	assert.False(t, tp.Vector())
	assert.Equal(t, "classic", tp.Stem)
	w, h := tp.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}

func TestClassicWithoutBackground(t *testing.T) {
	ctx := context.Background()
	tp, err := Store{Dir: t.TempDir()}.Load("classic")
	require.NoError(t, err)
	require.Len(t, tp.Warnings, 1)
	assert.Contains(t, tp.Warnings[0], "background.png")

	ev := event.Event{Title: "T", Speakers: []event.Speaker{{Name: "A"}, {Name: "B"}}}
	pm, err := Bind(tp, 2)
	require.NoError(t, err)
	out, err := pm.Render(ctx, ev, []avatar.Avatar{testAvatar(t, red), testAvatar(t, green)}, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), out.Image.Bounds())
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, imaging.Clone(out.Image).NRGBAAt(2, 2))
}

func TestUserBackgroundMissingFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "own.yaml", []byte("width: 10\nheight: 10\nbackground: nope.png\n"))
	_, err := Store{Dir: dir}.Load("own")
	assert.ErrorContains(t, err, "background")
}

func TestStoreLoadErrors(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	for _, ref := range []string{"", "../escape.svg", "missing.svg", "missing"} {
		_, err := s.Load(ref)
		assert.Error(t, err, ref)
	}
	writeFile(t, s.Dir, "broken.svg", []byte(`<svg width="10"></svg>`))
	_, err := s.Load("broken.svg")
	assert.ErrorContains(t, err, "width/height")
}

func TestValidRef(t *testing.T) {
	for ref, ok := range map[string]bool{
		"a.svg":           true,
		"v1..2.svg":       true,
		"sub/a.svg":       true,
		"sub/../a.svg":    true,
		"":                false,
		"..":              false,
		"../escape.svg":   false,
		"sub/../../x.svg": false,
		"/etc/banner.svg": false,
	} {
		assert.Equal(t, ok, validRef(ref), ref)
	}

	dir := t.TempDir()
	writeFile(t, dir, "v1..2.svg", []byte(vectorSVG))
	tp, err := Store{Dir: dir}.Load("v1..2.svg")
	require.NoError(t, err)
	assert.Equal(t, "v1..2", tp.Stem)
}

func TestStoreLoadConventionalVector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svg", []byte(vectorSVG))

	tp, err := Store{Dir: dir}.Load("a.svg")
	require.NoError(t, err)
	assert.True(t, tp.Vector())
	assert.Equal(t, "a", tp.Stem)
	w, h := tp.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 450, h)
	assert.Len(t, tp.Descriptor.Speakers, 2)
}

func TestStoreLoadSidecarDescriptor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svg", []byte(vectorSVG))
	writeFile(t, dir, "a.yaml", []byte(`
title: {selector: "#title"}
speakers:
  - avatar: {selector: "#speaker-1-avatar"}
    name: {selector: "#speaker-1-name"}
`))

	tp, err := Store{Dir: dir}.Load("a.svg")
	require.NoError(t, err)
	assert.True(t, tp.Vector())
	require.Len(t, tp.Descriptor.Speakers, 1)
	assert.Equal(t, "#speaker-1-avatar", tp.Descriptor.Speakers[0].Avatar.Selector)
	assert.Nil(t, tp.Descriptor.QRCode)

	writeFile(t, dir, "a.yaml", []byte("kind: raster\nwidth: 10\nheight: 10\n"))
	_, err = Store{Dir: dir}.Load("a.svg")
	assert.ErrorContains(t, err, "must be of kind vector")
}

func TestSVGSizeFromViewBox(t *testing.T) {
	doc, err := ParseSVG([]byte(`<svg viewBox="0 0 640.4 360"></svg>`))
	require.NoError(t, err)
	w, h, err := doc.Size()
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)

	_, err = ParseSVG([]byte(`<p>not svg</p>`))
	assert.Error(t, err)
}

func TestBindFailsFastOnMissingSlots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svg", []byte(vectorSVG))
	tp, err := Store{Dir: dir}.Load("a.svg")
	require.NoError(t, err)

	_, err = Bind(tp, 3)
	assert.ErrorIs(t, err, ErrTooManySpeakers)

	pm, err := Bind(tp, 1)
	require.NoError(t, err)
	assert.Len(t, pm.Speakers, 1)
	assert.Len(t, pm.Unused, 1)
}

func TestRenderVector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svg", []byte(vectorSVG))
	tp, err := Store{Dir: dir}.Load("a.svg")
	require.NoError(t, err)

	ev := event.Event{
		Title: "Talk & Demo",
		Date:  "12/05/2024",
		Time:  "18:30",
		URL:   "https://example.com/register",
		Speakers: []event.Speaker{
			{Name: "Ada", Company: "Engines"},
			{Name: "Alan", Company: "Bletchley"},
		},
	}
	pm, err := Bind(tp, len(ev.Speakers))
	require.NoError(t, err)

	fr := &fakeRasterizer{}
	out, err := pm.Render(context.Background(), ev, []avatar.Avatar{testAvatar(t, red), testAvatar(t, green)}, fr)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 800, 450), out.Image.Bounds())
	assert.Equal(t, 800, fr.w)
	assert.Equal(t, 450, fr.h)
	assert.Equal(t, out.SVG, fr.svg)

	svg := string(out.SVG)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Less(t, strings.Index(svg, ">Ada<"), strings.Index(svg, ">Alan<"))
	assert.Contains(t, svg, ">Engines<")
	assert.Contains(t, svg, ">Bletchley<")
	assert.Contains(t, svg, "Talk &amp; Demo")
	assert.NotContains(t, svg, "NAME0")
	assert.NotContains(t, svg, "placeholder.png")
	assert.Contains(t, svg, `xlink:href="data:image/png;base64,`)
	assert.Equal(t, 3, strings.Count(svg, "data:image/png;base64,"), "two avatars and the QR code")

	doc, err := ParseSVG(out.SVG)
	require.NoError(t, err)
	name, _ := doc.Attr("#speaker-0-name", "id")
	assert.Equal(t, "speaker-0-name", name)
	assert.Equal(t, "Ada", doc.root.Find("#speaker-0-name").Text())
	assert.Equal(t, "Alan", doc.root.Find("#speaker-1-name").Text())
}

func TestRenderVectorClearsUnusedSlots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.svg", []byte(vectorSVG))
	tp, err := Store{Dir: dir}.Load("a.svg")
	require.NoError(t, err)

	ev := event.Event{Title: "Solo", Speakers: []event.Speaker{{Name: "Grace"}}}
	pm, err := Bind(tp, 1)
	require.NoError(t, err)
	out, err := pm.Render(context.Background(), ev, []avatar.Avatar{testAvatar(t, red)}, &fakeRasterizer{})
	require.NoError(t, err)

	svg := string(out.SVG)
	assert.Contains(t, svg, ">Grace<")
	assert.NotContains(t, svg, "NAME1")
	assert.NotContains(t, svg, "COMPANY1")
	// no url, no QR
	assert.Equal(t, 1, strings.Count(svg, "data:image/png;base64,"))
}

func TestRenderRaster(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "bg.png", 10, 10, color.NRGBA{B: 0xff, A: 0xff})
	writeFile(t, dir, "small.yaml", []byte(`
kind: raster
width: 300
height: 120
background: bg.png
color: white
title: {x: 10, y: 10, font: bold, size: 20}
speakers:
  - avatar: {cx: 60, cy: 60, r: 30}
    company: {x: 60, y: 95, size: 12, align: center, prefix: "@"}
  - avatar: {cx: 140, cy: 60, r: 30}
qrcode: {size: 50}
`))
	tp, err := Store{Dir: dir}.Load("small")
	require.NoError(t, err)

	ev := event.Event{
		Title:    "Raster",
		URL:      "https://example.com",
		Speakers: []event.Speaker{{Name: "A", Company: "Co"}, {Name: "B"}},
	}
	pm, err := Bind(tp, 2)
	require.NoError(t, err)

	avatars := []avatar.Avatar{testAvatar(t, red), testAvatar(t, green)}
	out, err := pm.Render(context.Background(), ev, avatars, nil)
	require.NoError(t, err)
	require.Nil(t, out.SVG)

	img := imaging.Clone(out.Image)
	assert.Equal(t, image.Rect(0, 0, 300, 120), img.Bounds())
	assert.Equal(t, red, img.NRGBAAt(60, 60))
	assert.Equal(t, green, img.NRGBAAt(140, 60))

	again, err := pm.Render(context.Background(), ev, avatars, nil)
	require.NoError(t, err)
	a, err := imagepkg.EncodePNG(out.Image)
	require.NoError(t, err)
	b, err := imagepkg.EncodePNG(again.Image)
	require.NoError(t, err)
	assert.Equal(t, a, b, "rendering is deterministic")

	_, err = pm.Render(context.Background(), ev, avatars[:1], nil)
	assert.Error(t, err)
}
