// Package clock owns the formatted time and date shown on the watch face.
// Both strings are recomputed from a single timestamp at startup and on every
// minute tick; the display precision is exactly one minute.
package clock
