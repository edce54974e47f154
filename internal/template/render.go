package tmpl

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/eventkit/bannergen/internal/avatar"
	"github.com/eventkit/bannergen/internal/event"
	imagepkg "github.com/eventkit/bannergen/internal/image"
)

const (
	defaultTextColor = "#000000"
	defaultTextSize  = 16
)

// Rendered is the final bitmap and, for vector templates, the filled in
// SVG document.
type Rendered struct {
	Image image.Image
	SVG   []byte
}

// Render fills the placeholders with ev and avatars. avatars[i] belongs to
// ev.Speakers[i].
func (pm *PlaceholderMap) Render(ctx context.Context, ev event.Event, avatars []avatar.Avatar, r imagepkg.Rasterizer) (Rendered, error) {
	if len(avatars) != len(pm.Speakers) || len(ev.Speakers) != len(pm.Speakers) {
		return Rendered{}, fmt.Errorf("bound %d speaker slots, got %d speakers and %d avatars",
			len(pm.Speakers), len(ev.Speakers), len(avatars))
	}
	if pm.Template.Vector() {
		return pm.renderVector(ctx, ev, avatars, r)
	}
	return pm.renderRaster(ev, avatars)
}

type field struct {
	slot  *TextSlot
	value string
}

func eventFields(d Descriptor, ev event.Event) []field {
	return []field{
		{d.Title, ev.Title},
		{d.Subtitle, ev.Subtitle},
		{d.Date, ev.Date},
		{d.Time, ev.Time},
	}
}

func speakerFields(g SpeakerSlots, s event.Speaker) []field {
	return []field{
		{g.Name, s.Name},
		{g.Lastname, s.Lastname},
		{g.Fullname, s.DisplayName()},
		{g.Title, s.Title},
		{g.Company, s.Company},
	}
}

func (f field) text() string {
	if f.value == "" {
		return ""
	}
	return f.slot.Prefix + f.value
}

func (pm *PlaceholderMap) renderRaster(ev event.Event, avatars []avatar.Avatar) (Rendered, error) {
	t := pm.Template
	d := t.Descriptor
	l := imagepkg.Layout{
		Width:      d.Width,
		Height:     d.Height,
		Background: t.background,
	}

	fields := eventFields(d, ev)
	for i, g := range pm.Speakers {
		l.Avatars = append(l.Avatars, imagepkg.AvatarSlot{
			CX:    g.Avatar.CX,
			CY:    g.Avatar.CY,
			R:     g.Avatar.R,
			Image: avatars[i].Image,
		})
		fields = append(fields, speakerFields(g, ev.Speakers[i])...)
	}

	for _, f := range fields {
		if f.slot == nil || f.value == "" {
			continue
		}
		run, err := pm.textRun(f)
		if err != nil {
			return Rendered{}, err
		}
		l.Texts = append(l.Texts, run)
	}

	if q := d.QRCode; q != nil && ev.URL != "" {
		size := q.Size
		if size <= 0 {
			size = imagepkg.DefaultQRSize
		}
		qr, err := imagepkg.GenerateQRImage(ev.URL, size)
		if err != nil {
			return Rendered{}, fmt.Errorf("failed to generate QR code: %w", err)
		}
		pt := imagepkg.BottomRight(d.Width, d.Height, size)
		if q.X != nil {
			pt.X = *q.X
		}
		if q.Y != nil {
			pt.Y = *q.Y
		}
		l.QR = &imagepkg.Placement{X: pt.X, Y: pt.Y, Size: size, Image: qr}
	}

	return Rendered{Image: imagepkg.ComposeBanner(l)}, nil
}

func (pm *PlaceholderMap) textRun(f field) (imagepkg.TextRun, error) {
	d := pm.Template.Descriptor
	s := f.slot
	size := s.Size
	if size <= 0 {
		size = defaultTextSize
	}
	face, err := pm.Template.fonts.Face(s.Font, size)
	if err != nil {
		return imagepkg.TextRun{}, err
	}
	cs := s.Color
	if cs == "" {
		cs = d.Color
	}
	if cs == "" {
		cs = defaultTextColor
	}
	c, err := imagepkg.ParseColor(cs)
	if err != nil {
		return imagepkg.TextRun{}, fmt.Errorf("bad color %q: %w", cs, err)
	}
	align := s.Align
	if align == "" {
		align = imagepkg.AlignLeft
	}
	return imagepkg.TextRun{
		Text:  f.text(),
		X:     s.X,
		Y:     s.Y,
		Face:  face,
		Color: c,
		Align: align,
	}, nil
}

func (pm *PlaceholderMap) renderVector(ctx context.Context, ev event.Event, avatars []avatar.Avatar, r imagepkg.Rasterizer) (Rendered, error) {
	t := pm.Template
	d := t.Descriptor
	doc, err := ParseSVG(t.svg)
	if err != nil {
		return Rendered{}, err
	}

	setText := func(f field) {
		if f.slot != nil {
			doc.SetText(f.slot.Selector, f.text())
		}
	}
	for _, f := range eventFields(d, ev) {
		setText(f)
	}
	for i, g := range pm.Speakers {
		for _, f := range speakerFields(g, ev.Speakers[i]) {
			setText(f)
		}
		doc.SetImage(g.Avatar.Selector, imagepkg.DataURI(avatars[i].Data))
	}
	for _, g := range pm.Unused {
		for _, s := range g.texts() {
			setText(field{slot: s})
		}
	}

	if q := d.QRCode; q != nil && ev.URL != "" && doc.Has(q.Selector) {
		size := q.Size
		if size <= 0 {
			size = imagepkg.DefaultQRSize
			if w, ok := doc.Attr(q.Selector, "width"); ok {
				if n, err := parseLength(w); err == nil {
					size = n
				}
			}
		}
		png, err := imagepkg.GenerateQRPNG(ev.URL, size)
		if err != nil {
			return Rendered{}, fmt.Errorf("failed to generate QR code: %w", err)
		}
		doc.SetImage(q.Selector, imagepkg.DataURI(png))
	}

	svg, err := doc.Bytes()
	if err != nil {
		return Rendered{}, err
	}
	if r == nil {
		return Rendered{}, errors.New("no rasterizer for vector template")
	}
	img, err := r.Rasterize(ctx, svg, d.Width, d.Height)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to rasterize: %w", err)
	}
	return Rendered{
		Image: imagepkg.FitCanvas(img, d.Width, d.Height),
		SVG:   svg,
	}, nil
}
