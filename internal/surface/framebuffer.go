package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Ink levels of the monochrome panel.
const (
	paper uint8 = 0xff
	ink   uint8 = 0x00
)

// Framebuffer is a monochrome surface rasterized onto an image.Gray.
type Framebuffer struct {
	*tree
}

// NewFramebuffer creates a framebuffer surface of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{tree: newTree(width, height)}
}

// Render rasterizes the top window. Regions are drawn in z-order; an
// inverter flips every pixel already drawn beneath it.
func (f *Framebuffer) Render() *image.Gray {
	img := image.NewGray(f.bounds)
	fill(img, img.Rect, paper)

	for _, s := range f.visible() {
		clip := s.frame.Intersect(img.Rect)
		if clip.Empty() {
			continue
		}
		switch s.kind {
		case kindText:
			drawText(img.SubImage(clip).(*image.Gray), s)
		case kindCanvas:
			if s.draw != nil {
				c := &grayCanvas{img: img, origin: s.frame.Min, clip: clip}
				s.draw(image.Rect(0, 0, s.frame.Dx(), s.frame.Dy()), c)
			}
		case kindInverter:
			invert(img, clip)
		}
	}
	return img
}

// WritePNG encodes the rendered face as PNG.
func (f *Framebuffer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, f.Render()); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes the rendered face to path.
func (f *Framebuffer) SavePNG(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := f.WritePNG(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func drawText(dst *image.Gray, s snapshot) {
	face := faceFor(s.font)
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Gray{Y: ink}),
		Face: face,
	}
	y := s.frame.Min.Y + ascent
	for _, line := range wrapLines(s.text, columns(face, s.frame.Dx())) {
		if y-ascent >= s.frame.Max.Y {
			break
		}
		d.Dot = fixed.P(s.frame.Min.X, y)
		d.DrawString(line)
		y += lineHeight
	}
}

type grayCanvas struct {
	img    *image.Gray
	origin image.Point
	clip   image.Rectangle
}

func (c *grayCanvas) DrawLine(from, to image.Point) {
	line(c.img, c.clip, from.Add(c.origin), to.Add(c.origin), ink)
}

func fill(img *image.Gray, r image.Rectangle, v uint8) {
	draw.Draw(img, r, image.NewUniform(color.Gray{Y: v}), image.Point{}, draw.Src)
}

func invert(img *image.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: ^img.GrayAt(x, y).Y})
		}
	}
}

// line draws a Bresenham line, skipping points outside clip.
func line(img *image.Gray, clip image.Rectangle, p0, p1 image.Point, v uint8) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(clip) {
			img.SetGray(x0, y0, color.Gray{Y: v})
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
