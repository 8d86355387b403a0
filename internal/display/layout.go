package display

import (
	"fmt"
	"image"
)

// Padding is the inset applied around the face regions, in pixels.
const Padding = 5

// notificationOverhang extends the notification region below the midline.
const notificationOverhang = 10

// Smallest surface the layout supports.
const (
	MinWidth  = 4 * Padding
	MinHeight = 168
)

// Layout holds the frames of the face regions, in root coordinates.
type Layout struct {
	Bounds       image.Rectangle
	Notification image.Rectangle
	Date         image.Rectangle
	Clock        image.Rectangle
	Separator    image.Rectangle
}

// ComputeLayout derives the face regions from the surface bounds.
// The notification region takes the top half, the date and clock regions
// split the bottom half, and the separator spans the whole surface.
// The result depends only on bounds.
func ComputeLayout(bounds image.Rectangle) (Layout, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w < MinWidth || h < MinHeight {
		return Layout{}, fmt.Errorf("surface %dx%d is smaller than %dx%d", w, h, MinWidth, MinHeight)
	}

	half := h / 2
	quarter := half / 2
	origin := bounds.Min

	rect := func(x, y, rw, rh int) image.Rectangle {
		return image.Rect(x, y, x+rw, y+rh).Add(origin)
	}

	notification := rect(Padding, Padding, w-Padding, half-Padding+notificationOverhang)

	dateTop := half + notificationOverhang
	clockTop := half + quarter
	dateHeight := min(quarter-Padding, clockTop-dateTop)

	return Layout{
		Bounds:       bounds,
		Notification: notification,
		Date:         rect(Padding, dateTop, w-Padding, dateHeight),
		Clock:        rect(Padding, clockTop, w-Padding, quarter-Padding),
		Separator:    bounds,
	}, nil
}

// SeparatorLine returns the endpoints of the separator for a region with the
// given local bounds: a horizontal line just below the midline, inset by
// Padding from both edges.
func SeparatorLine(bounds image.Rectangle) (from, to image.Point) {
	w, h := bounds.Dx(), bounds.Dy()
	y := bounds.Min.Y + h/2 + Padding
	return image.Pt(bounds.Min.X+Padding, y), image.Pt(bounds.Min.X+w-Padding, y)
}

// drawSeparator is the DrawFunc of the separator region.
func drawSeparator(bounds image.Rectangle, c Canvas) {
	from, to := SeparatorLine(bounds)
	c.DrawLine(from, to)
}
