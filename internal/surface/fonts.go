package surface

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"

	"github.com/jmylchreest/notiface/internal/display"
)

// faceFor maps a system font to a bitmap face.
func faceFor(f display.Font) font.Face {
	switch f {
	case display.FontGothic24Bold, display.FontGothic28Bold:
		return inconsolata.Bold8x16
	case display.FontGothic28:
		return inconsolata.Regular8x16
	default:
		return basicfont.Face7x13
	}
}

// columns returns how many glyphs of a fixed-width face fit in width pixels.
func columns(face font.Face, width int) int {
	advance, ok := face.GlyphAdvance('M')
	if !ok || advance.Ceil() <= 0 {
		return width
	}
	return width / advance.Ceil()
}

// wrapLines breaks text into lines of at most cols cells.
// Words longer than a line are split.
func wrapLines(text string, cols int) []string {
	cols = max(cols, 1)
	return strings.Split(wrap.String(wordwrap.String(text, cols), cols), "\n")
}
