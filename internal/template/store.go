package tmpl

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"oss.terrastruct.com/util-go/xdefer"

	imagepkg "github.com/eventkit/bannergen/internal/image"
)

//go:embed classic.yaml
var classicYAML []byte

// Builtin descriptors, used when the templates directory has no file of
// that name.
var builtin = map[string][]byte{
	"classic": classicYAML,
}

// Template is a loaded, ready to bind template.
type Template struct {
	// Name is the reference the event used, e.g. "classic" or "a.svg".
	Name string
	// Stem is Name without extension, used in output file names.
	Stem       string
	Descriptor Descriptor
	// Warnings are problems that did not prevent loading.
	Warnings []string

	svg        []byte
	background image.Image
	fonts      *imagepkg.FontSet
}

func (t *Template) Vector() bool {
	return t.Descriptor.Kind == KindVector
}

// Size is the output size in pixels.
func (t *Template) Size() (int, int) {
	return t.Descriptor.Width, t.Descriptor.Height
}

// Store loads templates by reference from Dir.
type Store struct {
	Dir string
}

// Load resolves ref. References ending in .svg are vector documents with
// an optional <stem>.yaml descriptor next to them. Anything else names a
// <ref>.yaml descriptor or a builtin.
func (s Store) Load(ref string) (_ *Template, err error) {
	defer xdefer.Errorf(&err, "failed to load template %q", ref)

	if !validRef(ref) {
		return nil, errors.New("invalid template reference")
	}
	ext := filepath.Ext(ref)
	t := &Template{
		Name: ref,
		Stem: strings.TrimSuffix(filepath.Base(ref), ext),
	}
	if strings.EqualFold(ext, ".svg") {
		err = s.loadVector(t, filepath.Join(s.Dir, ref))
	} else {
		err = s.loadRaster(t, strings.TrimSuffix(ref, ext))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s Store) loadVector(t *Template, docPath string) error {
	svg, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}
	doc, err := ParseSVG(svg)
	if err != nil {
		return err
	}

	descPath := strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".yaml"
	b, err := os.ReadFile(descPath)
	switch {
	case err == nil:
		t.Descriptor, err = parseDescriptor(b, KindVector)
		if err != nil {
			return fmt.Errorf("%s: %w", descPath, err)
		}
		if t.Descriptor.Kind != KindVector {
			return fmt.Errorf("%s: descriptor of an svg document must be of kind vector", descPath)
		}
	case errors.Is(err, fs.ErrNotExist):
		t.Descriptor = conventionalVector(doc.countSpeakerGroups())
	default:
		return err
	}

	w, h, err := doc.Size()
	if err != nil {
		return err
	}
	t.Descriptor.Width, t.Descriptor.Height = w, h
	t.svg = svg
	return nil
}

func (s Store) loadRaster(t *Template, name string) error {
	descPath := filepath.Join(s.Dir, name+".yaml")
	b, err := os.ReadFile(descPath)
	isBuiltin := false
	if errors.Is(err, fs.ErrNotExist) {
		if bi, ok := builtin[name]; ok {
			b, err = bi, nil
			isBuiltin = true
		}
	}
	if err != nil {
		return err
	}
	d, err := ParseDescriptor(b)
	if err != nil {
		return err
	}
	base := filepath.Dir(descPath)

	if d.Kind == KindVector {
		if d.Document == "" {
			return errors.New("vector descriptor without document")
		}
		if err := s.loadVector(t, filepath.Join(base, d.Document)); err != nil {
			return err
		}
		t.Descriptor.Kind = KindVector
		w, h := t.Descriptor.Width, t.Descriptor.Height
		t.Descriptor = d
		t.Descriptor.Width, t.Descriptor.Height = w, h
		return nil
	}

	t.Descriptor = d
	if d.Background != "" {
		p := filepath.Join(base, d.Background)
		t.background, err = imagepkg.Open(p)
		switch {
		case err == nil:
		case isBuiltin && errors.Is(err, fs.ErrNotExist):
			// builtin layouts still render on a plain canvas
			t.Warnings = append(t.Warnings, fmt.Sprintf("background %s not found, using a white canvas", p))
		default:
			return fmt.Errorf("background: %w", err)
		}
	}
	fonts := make(map[string]string, len(d.Fonts))
	for style, p := range d.Fonts {
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		fonts[style] = p
	}
	t.fonts, err = imagepkg.NewFontSet(fonts)
	return err
}

// validRef accepts relative references that stay inside the templates
// directory.
func validRef(ref string) bool {
	if ref == "" || filepath.IsAbs(ref) || strings.HasPrefix(filepath.ToSlash(ref), "/") {
		return false
	}
	for _, elem := range strings.Split(filepath.ToSlash(filepath.Clean(ref)), "/") {
		if elem == ".." {
			return false
		}
	}
	return true
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
