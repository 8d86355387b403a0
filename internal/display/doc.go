// Package display renders the watch face onto a display surface.
// It computes the region layout from the surface bounds, builds the visual
// tree (notification, date, clock, separator, inversion overlay) and pushes
// notification and time updates into the text regions.
package display
