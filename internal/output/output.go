// Package output names and writes rendered banners.
package output

import (
	"image"
	"path/filepath"
	"strings"
	"unicode"

	"oss.terrastruct.com/util-go/xdefer"

	"github.com/eventkit/bannergen/internal/event"
	imagepkg "github.com/eventkit/bannergen/internal/image"
	"github.com/eventkit/bannergen/internal/util"
)

// DefaultDir is the output root.
const DefaultDir = "imagens"

func sanitize(s string, drop func(rune) bool) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case drop(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}

// SanitizeDate maps "/", spaces and anything else unsafe in a file name
// to "-": "12/05/2024" becomes "12-05-2024".
func SanitizeDate(date string) string {
	return sanitize(date, func(rune) bool { return false })
}

// SanitizeTime drops ":" and maps anything else unsafe to "-": "18:30"
// becomes "1830".
func SanitizeTime(t string) string {
	return sanitize(t, func(r rune) bool { return r == ':' })
}

// Stem is the file name stem of an event, "<date>-<time>".
func Stem(date, t string) string {
	return SanitizeDate(date) + "-" + SanitizeTime(t)
}

type Writer struct {
	Dir string
}

// Base returns where the banner of ev rendered with template stem tmpl
// goes, without extension. Legacy events with a single template get
// <dir>/<date>-<time>; everything else is grouped per date as
// <dir>/<date>/<tmpl>-<time> so sibling templates never collide.
func (w Writer) Base(ev event.Event, tmpl string) string {
	if ev.Legacy && len(ev.Templates) <= 1 {
		return filepath.Join(w.Dir, Stem(ev.Date, ev.Time))
	}
	return filepath.Join(w.Dir, SanitizeDate(ev.Date), sanitize(tmpl, func(rune) bool { return false })+"-"+SanitizeTime(ev.Time))
}

// Write stores img as PNG and, when svg is not nil, the SVG document as a
// sibling with the same stem. Existing files are replaced.
func (w Writer) Write(ev event.Event, tmpl string, img image.Image, svg []byte) (_ []string, err error) {
	base := w.Base(ev, tmpl)
	defer xdefer.Errorf(&err, "failed to write %s", base)

	png, err := imagepkg.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	written := []string{base + ".png"}
	if err := util.WriteFileAtomic(written[0], png); err != nil {
		return nil, err
	}
	if svg != nil {
		p := base + ".svg"
		if err := util.WriteFileAtomic(p, svg); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}
