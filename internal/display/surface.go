package display

import (
	"errors"
	"image"
)

// Font selects a typeface for a text region.
type Font string

// System fonts used by the face.
const (
	FontGothic24Bold Font = "gothic-24-bold"
	FontGothic28     Font = "gothic-28"
	FontGothic28Bold Font = "gothic-28-bold"
)

// ErrSurfaceClosed is returned when a surface can no longer create objects.
var ErrSurfaceClosed = errors.New("display surface closed")

// Region is a rectangular element of the visual tree.
// Frame is in the coordinates of the root container.
type Region interface {
	Frame() image.Rectangle
	Destroy()
}

// TextRegion is a region that shows a single string in one font.
type TextRegion interface {
	Region
	SetText(text string)
	SetFont(font Font)
}

// Canvas is handed to a DrawFunc while the surface redraws a region.
// Coordinates are local to the region: (0,0) is its top-left corner.
type Canvas interface {
	DrawLine(from, to image.Point)
}

// DrawFunc paints a custom region. bounds is the region's local rectangle.
// The surface calls it on every redraw of the region.
type DrawFunc func(bounds image.Rectangle, c Canvas)

// Container is the root of a window's visual tree.
// Children are drawn in the order they were added; later ones are on top.
type Container interface {
	Bounds() image.Rectangle
	AddChild(r Region)
	Destroy()
}

// Window is a full-screen window that can be pushed onto the display stack.
type Window interface {
	Root() Container
	Destroy()
}

// Surface is the display capability the agent draws on.
type Surface interface {
	// Bounds returns the full screen rectangle.
	Bounds() image.Rectangle
	// NewWindow creates a window whose root container covers the screen.
	NewWindow() (Window, error)
	// Push puts w on top of the window stack and makes it visible.
	Push(w Window) error
	// Pop removes w from the window stack.
	Pop(w Window)
	// NewText creates a text region.
	NewText(frame image.Rectangle) (TextRegion, error)
	// NewCanvas creates a region painted by draw.
	NewCanvas(frame image.Rectangle, draw DrawFunc) (Region, error)
	// NewInverter creates a region that inverts every pixel beneath it.
	NewInverter(frame image.Rectangle) (Region, error)
}
