// Package tmpl loads banner templates and binds event data to their
// placeholders.
//
// A template is described by a Descriptor, a YAML document that holds every
// coordinate, font, color and selector of the layout, so new templates do
// not need code changes. Raster descriptors place text and clipped avatars
// at pixel coordinates over a background image. Vector descriptors address
// nodes of an SVG document by CSS selector.
package tmpl

import (
	"fmt"

	"gopkg.in/yaml.v3"

	imagepkg "github.com/eventkit/bannergen/internal/image"
)

type Kind string

const (
	KindRaster Kind = "raster"
	KindVector Kind = "vector"
)

// TextSlot is where one text field goes. Raster templates use the
// position and style fields, vector templates use Selector.
type TextSlot struct {
	X        float64        `yaml:"x"`
	Y        float64        `yaml:"y"`
	Font     string         `yaml:"font"`
	Size     float64        `yaml:"size"`
	Color    string         `yaml:"color"`
	Align    imagepkg.Align `yaml:"align"`
	Prefix   string         `yaml:"prefix"`
	Selector string         `yaml:"selector"`
}

// AvatarSlot is a circle of radius R centered at (CX, CY), or the image
// node matching Selector.
type AvatarSlot struct {
	CX       int    `yaml:"cx"`
	CY       int    `yaml:"cy"`
	R        int    `yaml:"r"`
	Selector string `yaml:"selector"`
}

// QRSlot places the QR code. Without X and Y it is anchored to the
// bottom-right corner.
type QRSlot struct {
	Size     int    `yaml:"size"`
	X        *int   `yaml:"x"`
	Y        *int   `yaml:"y"`
	Selector string `yaml:"selector"`
}

// SpeakerSlots is the slot group of one speaker. Speakers bind to groups
// by position.
type SpeakerSlots struct {
	Avatar   AvatarSlot `yaml:"avatar"`
	Name     *TextSlot  `yaml:"name"`
	Lastname *TextSlot  `yaml:"lastname"`
	Fullname *TextSlot  `yaml:"fullname"`
	Title    *TextSlot  `yaml:"title"`
	Company  *TextSlot  `yaml:"company"`
}

func (s SpeakerSlots) texts() []*TextSlot {
	return []*TextSlot{s.Name, s.Lastname, s.Fullname, s.Title, s.Company}
}

type Descriptor struct {
	Kind Kind `yaml:"kind"`
	// Document is the SVG file of a vector template, relative to the
	// descriptor.
	Document string `yaml:"document"`

	Width      int               `yaml:"width"`
	Height     int               `yaml:"height"`
	Background string            `yaml:"background"`
	Fonts      map[string]string `yaml:"fonts"`
	// Color is the default text color.
	Color string `yaml:"color"`

	Title    *TextSlot      `yaml:"title"`
	Subtitle *TextSlot      `yaml:"subtitle"`
	Date     *TextSlot      `yaml:"date"`
	Time     *TextSlot      `yaml:"time"`
	Speakers []SpeakerSlots `yaml:"speakers"`
	QRCode   *QRSlot        `yaml:"qrcode"`
}

// ParseDescriptor decodes a YAML descriptor. Unknown keys are rejected.
func ParseDescriptor(b []byte) (Descriptor, error) {
	return parseDescriptor(b, "")
}

// parseDescriptor decodes b, using kind when the document names none.
func parseDescriptor(b []byte, kind Kind) (Descriptor, error) {
	d := Descriptor{Kind: kind}
	dec := yaml.NewDecoder(bytesReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Descriptor{}, fmt.Errorf("malformed template descriptor: %w", err)
	}
	if d.Kind == "" {
		d.Kind = KindRaster
		if d.Document != "" {
			d.Kind = KindVector
		}
	}
	switch d.Kind {
	case KindRaster:
		if d.Width <= 0 || d.Height <= 0 {
			return Descriptor{}, fmt.Errorf("raster template needs a positive width and height, got %dx%d", d.Width, d.Height)
		}
	case KindVector:
	default:
		return Descriptor{}, fmt.Errorf("unknown template kind %q", d.Kind)
	}
	return d, nil
}

// conventionalVector is the descriptor of an SVG template shipped without
// one: placeholders are found by id.
func conventionalVector(groups int) Descriptor {
	d := Descriptor{
		Kind:     KindVector,
		Title:    &TextSlot{Selector: "#title"},
		Subtitle: &TextSlot{Selector: "#subtitle"},
		Date:     &TextSlot{Selector: "#date"},
		Time:     &TextSlot{Selector: "#time"},
		QRCode:   &QRSlot{Selector: "#qrcode"},
	}
	for i := 0; i < groups; i++ {
		d.Speakers = append(d.Speakers, conventionalSpeaker(i))
	}
	return d
}

func conventionalSpeaker(i int) SpeakerSlots {
	sel := func(field string) *TextSlot {
		return &TextSlot{Selector: fmt.Sprintf("#speaker-%d-%s", i, field)}
	}
	return SpeakerSlots{
		Avatar:   AvatarSlot{Selector: fmt.Sprintf("#speaker-%d-avatar", i)},
		Name:     sel("name"),
		Lastname: sel("lastname"),
		Fullname: sel("fullname"),
		Title:    sel("title"),
		Company:  sel("company"),
	}
}
