package imagepkg

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// AvatarSlot is a circular clip region centered at (CX, CY).
type AvatarSlot struct {
	CX, CY, R int
	Image     image.Image
}

// Placement puts an image at (X, Y) resized to Size x Size.
type Placement struct {
	X, Y, Size int
	Image      image.Image
}

// Layout is everything needed to draw one raster banner.
type Layout struct {
	Width, Height int
	Background    image.Image
	Avatars       []AvatarSlot
	Texts         []TextRun
	QR            *Placement
}

// ComposeBanner draws the background, clipped avatars, text runs and the QR
// code, in that order, onto a new Width x Height canvas.
func ComposeBanner(l Layout) *image.NRGBA {
	canvas := imaging.New(l.Width, l.Height, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	if l.Background != nil {
		bg := imaging.Resize(l.Background, l.Width, l.Height, imaging.Lanczos)
		canvas = imaging.Overlay(canvas, bg, image.Pt(0, 0), 1)
	}

	// each avatar gets its own mask so no clip leaks into later draws
	for _, a := range l.Avatars {
		if a.Image == nil || a.R <= 0 {
			continue
		}
		d := 2 * a.R
		av := imaging.Fill(a.Image, d, d, imaging.Center, imaging.Lanczos)
		r := image.Rect(a.CX-a.R, a.CY-a.R, a.CX+a.R, a.CY+a.R)
		draw.DrawMask(canvas, r, av, image.Point{}, &circle{r: a.R}, image.Point{}, draw.Over)
	}

	for _, t := range l.Texts {
		drawText(canvas, t)
	}

	if q := l.QR; q != nil && q.Image != nil {
		qr := q.Image
		if b := qr.Bounds(); b.Dx() != q.Size || b.Dy() != q.Size {
			qr = imaging.Resize(qr, q.Size, q.Size, imaging.NearestNeighbor)
		}
		canvas = imaging.Paste(canvas, qr, image.Pt(q.X, q.Y))
	}

	return canvas
}

// BottomRight returns the origin that anchors a size x size square to the
// bottom-right corner of a width x height canvas.
func BottomRight(width, height, size int) image.Point {
	return image.Pt(width-size, height-size)
}

// FitCanvas returns img cropped or padded to exactly the (0,0,w,h) region
// of its bounds. Renderers may produce a larger canvas than requested.
func FitCanvas(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
			return n
		}
	}
	cropped := imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Min.Y+h))
	dst := imaging.New(w, h, color.NRGBA{})
	return imaging.Paste(dst, cropped, image.Pt(0, 0))
}
