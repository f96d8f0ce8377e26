package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Size is a width and height pair in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SizeOf returns the size of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()

	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Rect returns the rectangle of the size anchored at the origin.
func (s Size) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Border holds the margins used to grow a canvas outward.
type Border struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

// Valid reports whether no margin is negative.
func (b Border) Valid() bool {
	return b.Left >= 0 && b.Top >= 0 && b.Right >= 0 && b.Bottom >= 0
}

// Expand returns s grown by the border margins.
func (b Border) Expand(s Size) Size {
	return Size{
		Width:  b.Left + s.Width + b.Right,
		Height: b.Top + s.Height + b.Bottom,
	}
}

// Origin is the point where the original image lands on the expanded canvas.
func (b Border) Origin() image.Point {
	return image.Pt(b.Left, b.Top)
}

// NewCanvas creates a canvas of the given size filled with fill.
func NewCanvas(size Size, fill color.Color) *image.NRGBA {
	canvas := image.NewNRGBA(size.Rect())
	c := color.NRGBAModel.Convert(fill).(color.NRGBA)

	if c == (color.NRGBA{}) {
		return canvas
	}

	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i+0] = c.R
		canvas.Pix[i+1] = c.G
		canvas.Pix[i+2] = c.B
		canvas.Pix[i+3] = c.A
	}

	return canvas
}

// NewRGBCanvas creates an opaque canvas, dropping any transparency from fill.
func NewRGBCanvas(size Size, fill color.Color) *image.NRGBA {
	c := color.NRGBAModel.Convert(fill).(color.NRGBA)
	c.A = 0xff

	return NewCanvas(size, c)
}

// Paste copies src onto dst with its top-left corner at pt. Pixels are replaced, not blended.
func Paste(dst draw.Image, src image.Image, pt image.Point) {
	draw.Copy(dst, pt, src, src.Bounds(), draw.Src, nil)
}

// PasteRGB copies the colour channels of src onto dst at pt and leaves the pasted region opaque.
func PasteRGB(dst *image.NRGBA, src image.Image, pt image.Point) {
	sb := src.Bounds()
	area := image.Rectangle{Min: pt, Max: pt.Add(sb.Size())}.Intersect(dst.Bounds())

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(sb.Min.X+x-pt.X, sb.Min.Y+y-pt.Y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
}

// Crop copies the rect region of src into a new canvas anchored at the origin.
// rect is expressed in the coordinate space of src.
func Crop(src image.Image, rect image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, src, rect, draw.Src, nil)

	return dst
}

// Clone returns an NRGBA copy of img anchored at the origin.
func Clone(img image.Image) *image.NRGBA {
	return Crop(img, img.Bounds())
}

// Flatten composites img over an opaque background colour.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	dst := NewRGBCanvas(SizeOf(img), bg)
	draw.Copy(dst, image.Point{}, img, img.Bounds(), draw.Over, nil)

	return dst
}

// Equal reports whether a and b have the same size and the same non-premultiplied pixels.
func Equal(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return false
	}

	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y))
			cb := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y))

			if ca != cb {
				return false
			}
		}
	}

	return true
}
