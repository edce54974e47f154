package imagepkg

import (
	"image"
	"image/color"
)

// circle is an alpha mask that is opaque inside a circle of radius r
// centered in a 2r x 2r box.
type circle struct {
	r int
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(0, 0, 2*c.r, 2*c.r)
}

func (c *circle) At(x, y int) color.Color {
	dx := float64(x) + .5 - float64(c.r)
	dy := float64(y) + .5 - float64(c.r)
	if dx*dx+dy*dy <= float64(c.r*c.r) {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}
