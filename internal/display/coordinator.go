package display

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// ErrAlreadyBuilt is returned when Build is called twice.
var ErrAlreadyBuilt = errors.New("face already built")

// owned wraps a region so it is destroyed at most once.
type owned struct {
	region    Region
	destroyed bool
}

func (o *owned) destroy() {
	if o == nil || o.destroyed {
		return
	}
	o.region.Destroy()
	o.destroyed = true
}

// Coordinator owns the face regions and pushes content into them.
type Coordinator struct {
	surface Surface
	logger  *slog.Logger

	layout Layout
	built  bool

	notification TextRegion
	date         TextRegion
	clock        TextRegion

	// Destruction order follows the slice order.
	regions []*owned
	overlay *owned
}

// NewCoordinator creates a coordinator drawing on surface.
func NewCoordinator(surface Surface, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		surface: surface,
		logger:  logger,
	}
}

// Build creates the face regions inside root and attaches them in z-order:
// notification, date, clock, separator, then the inversion overlay on top.
// The text regions start with the given content.
func (c *Coordinator) Build(root Container, notification, clockText, dateText string) error {
	if c.built {
		return ErrAlreadyBuilt
	}

	layout, err := ComputeLayout(root.Bounds())
	if err != nil {
		return fmt.Errorf("failed to compute layout: %w", err)
	}

	// Release whatever was created if a later step fails.
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	c.notification, err = c.newText(layout.Notification, FontGothic24Bold, notification)
	if err != nil {
		return fmt.Errorf("failed to create notification region: %w", err)
	}
	root.AddChild(c.notification)

	c.date, err = c.newText(layout.Date, FontGothic28, dateText)
	if err != nil {
		return fmt.Errorf("failed to create date region: %w", err)
	}
	root.AddChild(c.date)

	c.clock, err = c.newText(layout.Clock, FontGothic28Bold, clockText)
	if err != nil {
		return fmt.Errorf("failed to create clock region: %w", err)
	}
	root.AddChild(c.clock)

	separator, err := c.surface.NewCanvas(layout.Separator, drawSeparator)
	if err != nil {
		return fmt.Errorf("failed to create separator region: %w", err)
	}
	c.regions = append(c.regions, &owned{region: separator})
	root.AddChild(separator)

	inverter, err := c.surface.NewInverter(layout.Bounds)
	if err != nil {
		return fmt.Errorf("failed to create inversion overlay: %w", err)
	}
	c.overlay = &owned{region: inverter}
	root.AddChild(inverter)

	c.layout = layout
	c.built = true
	ok = true

	c.logger.Debug("face built",
		"bounds", layout.Bounds.String(),
		"notification", layout.Notification.String(),
		"date", layout.Date.String(),
		"clock", layout.Clock.String(),
	)
	return nil
}

func (c *Coordinator) newText(frame image.Rectangle, font Font, text string) (TextRegion, error) {
	r, err := c.surface.NewText(frame)
	if err != nil {
		return nil, err
	}
	c.regions = append(c.regions, &owned{region: r})
	r.SetFont(font)
	r.SetText(text)
	return r, nil
}

// UpdateNotification replaces the notification text. Other regions are untouched.
func (c *Coordinator) UpdateNotification(text string) {
	if !c.built {
		return
	}
	c.notification.SetText(text)
}

// UpdateTime replaces the clock and date texts. Other regions are untouched.
func (c *Coordinator) UpdateTime(clockText, dateText string) {
	if !c.built {
		return
	}
	c.date.SetText(dateText)
	c.clock.SetText(clockText)
}

// Layout returns the layout computed by Build.
func (c *Coordinator) Layout() Layout {
	return c.layout
}

// Built reports whether the face regions exist.
func (c *Coordinator) Built() bool {
	return c.built
}

// DestroyRegions destroys the text regions and the separator.
// Each region is destroyed at most once however often this is called.
func (c *Coordinator) DestroyRegions() {
	for _, o := range c.regions {
		o.destroy()
	}
	c.built = false
}

// DestroyOverlay destroys the inversion overlay at most once.
func (c *Coordinator) DestroyOverlay() {
	c.overlay.destroy()
	c.built = false
}

// Close destroys every region the coordinator owns.
func (c *Coordinator) Close() {
	c.DestroyRegions()
	c.DestroyOverlay()
}
