// Package surface implements display.Surface backends.
//
// Both backends share a retained window stack. Framebuffer rasterizes the top
// window onto a grayscale image (and PNG snapshots); Terminal renders it as
// styled text cells for a terminal.
package surface
