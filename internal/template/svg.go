package tmpl

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Document is a parsed SVG template whose placeholder nodes can be
// rewritten in place.
type Document struct {
	root *goquery.Selection
}

func ParseSVG(b []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytesReader(b))
	if err != nil {
		return nil, err
	}
	root := doc.Find("svg").First()
	if root.Length() == 0 {
		return nil, errors.New("no <svg> element")
	}
	return &Document{root: root}, nil
}

// Size reads the declared width and height, falling back to the viewBox.
func (d *Document) Size() (int, int, error) {
	w, werr := parseLength(d.root.AttrOr("width", ""))
	h, herr := parseLength(d.root.AttrOr("height", ""))
	if werr == nil && herr == nil {
		return w, h, nil
	}
	vb := strings.Fields(strings.ReplaceAll(d.root.AttrOr("viewBox", ""), ",", " "))
	if len(vb) == 4 {
		vw, err1 := strconv.ParseFloat(vb[2], 64)
		vh, err2 := strconv.ParseFloat(vb[3], 64)
		if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
			return int(math.Round(vw)), int(math.Round(vh)), nil
		}
	}
	return 0, 0, errors.New("svg declares no usable width/height or viewBox")
}

func parseLength(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, errors.New("empty length")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("non-positive length %v", f)
	}
	return int(math.Round(f)), nil
}

func (d *Document) Has(selector string) bool {
	return selector != "" && d.root.Find(selector).Length() > 0
}

// SetText replaces the content of every node matching selector and
// returns how many matched.
func (d *Document) SetText(selector, text string) int {
	if selector == "" {
		return 0
	}
	sel := d.root.Find(selector)
	sel.SetText(text)
	return sel.Length()
}

// SetImage points every image node matching selector at uri. An existing
// xlink:href is rewritten as well.
func (d *Document) SetImage(selector, uri string) int {
	if selector == "" {
		return 0
	}
	sel := d.root.Find(selector)
	for _, n := range sel.Nodes {
		setHref(n, uri)
	}
	return sel.Length()
}

// setHref rewrites the first href attribute of n in any namespace, so
// xlink:href keeps its prefix.
func setHref(n *html.Node, uri string) {
	for i := range n.Attr {
		if n.Attr[i].Key == "href" {
			n.Attr[i].Val = uri
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "href", Val: uri})
}

// Attr returns the attribute of the first node matching selector.
func (d *Document) Attr(selector, name string) (string, bool) {
	return d.root.Find(selector).First().Attr(name)
}

// Bytes serializes the root svg element with an XML declaration.
func (d *Document) Bytes() ([]byte, error) {
	s, err := goquery.OuterHtml(d.root)
	if err != nil {
		return nil, err
	}
	return []byte(xmlHeader + s), nil
}

func (d *Document) countSpeakerGroups() int {
	n := 0
	for d.Has(fmt.Sprintf("#speaker-%d-avatar", n)) || d.Has(fmt.Sprintf("#speaker-%d-name", n)) {
		n++
	}
	return n
}
