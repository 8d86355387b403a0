package surface

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jmylchreest/notiface/internal/display"
)

// Pixel size of one terminal cell.
const (
	CellWidth  = 8
	CellHeight = 8
)

type cell struct {
	r        rune
	bold     bool
	inverted bool
}

// Terminal renders the face as text cells, one cell per CellWidth x
// CellHeight pixels.
type Terminal struct {
	*tree

	bezel    lipgloss.Style
	plain    lipgloss.Style
	bold     lipgloss.Style
	reversed lipgloss.Style
}

// NewTerminal creates a terminal surface emulating a width x height pixel screen.
func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		tree: newTree(width, height),
		bezel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		plain:    lipgloss.NewStyle(),
		bold:     lipgloss.NewStyle().Bold(true),
		reversed: lipgloss.NewStyle().Reverse(true),
	}
}

// Size returns the face size in cells.
func (t *Terminal) Size() (cols, rows int) {
	return t.bounds.Dx() / CellWidth, t.bounds.Dy() / CellHeight
}

// View renders the top window inside a bezel.
func (t *Terminal) View() string {
	cols, rows := t.Size()
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x].r = ' '
		}
	}

	for _, s := range t.visible() {
		r := toCells(s.frame).Intersect(image.Rect(0, 0, cols, rows))
		if r.Empty() {
			continue
		}
		switch s.kind {
		case kindText:
			bold := s.font == display.FontGothic24Bold || s.font == display.FontGothic28Bold
			for i, text := range wrapLines(s.text, r.Dx()) {
				y := r.Min.Y + i
				if y >= r.Max.Y {
					break
				}
				x := r.Min.X
				for _, ch := range text {
					if x >= r.Max.X {
						break
					}
					grid[y][x] = cell{r: ch, bold: bold}
					x++
				}
			}
		case kindCanvas:
			if s.draw != nil {
				c := &cellCanvas{grid: grid, origin: s.frame.Min, clip: r}
				s.draw(image.Rect(0, 0, s.frame.Dx(), s.frame.Dy()), c)
			}
		case kindInverter:
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					grid[y][x].inverted = !grid[y][x].inverted
				}
			}
		}
	}

	lines := make([]string, rows)
	for y, row := range grid {
		lines[y] = t.renderRow(row)
	}
	return t.bezel.Render(strings.Join(lines, "\n"))
}

// renderRow styles runs of cells that share attributes.
func (t *Terminal) renderRow(row []cell) string {
	var b strings.Builder
	var run strings.Builder
	flush := func(c cell) {
		if run.Len() == 0 {
			return
		}
		style := t.plain
		if c.bold {
			style = t.bold
		}
		if c.inverted {
			style = style.Inherit(t.reversed)
		}
		b.WriteString(style.Render(run.String()))
		run.Reset()
	}

	for i, c := range row {
		if i > 0 && (c.bold != row[i-1].bold || c.inverted != row[i-1].inverted) {
			flush(row[i-1])
		}
		run.WriteRune(c.r)
	}
	if len(row) > 0 {
		flush(row[len(row)-1])
	}
	return b.String()
}

// Flush clears the terminal behind w and draws the face.
func (t *Terminal) Flush(w io.Writer) error {
	out := termenv.NewOutput(w)
	out.ClearScreen()
	if _, err := fmt.Fprintln(w, t.View()); err != nil {
		return fmt.Errorf("failed to write face: %w", err)
	}
	return nil
}

// toCells maps a pixel rectangle to the cells lying fully inside it.
func toCells(r image.Rectangle) image.Rectangle {
	return image.Rect(
		ceilDiv(r.Min.X, CellWidth), ceilDiv(r.Min.Y, CellHeight),
		r.Max.X/CellWidth, r.Max.Y/CellHeight,
	)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

type cellCanvas struct {
	grid   [][]cell
	origin image.Point
	clip   image.Rectangle
}

// DrawLine marks the cells the line passes through.
func (c *cellCanvas) DrawLine(from, to image.Point) {
	from, to = from.Add(c.origin), to.Add(c.origin)
	glyph := '·'
	switch {
	case from.Y == to.Y:
		glyph = '─'
	case from.X == to.X:
		glyph = '│'
	}

	x0, y0 := from.X/CellWidth, from.Y/CellHeight
	x1, y1 := to.X/CellWidth, to.Y/CellHeight
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= steps; i++ {
		x, y := x0, y0
		if steps > 0 {
			x = x0 + (x1-x0)*i/steps
			y = y0 + (y1-y0)*i/steps
		}
		if image.Pt(x, y).In(c.clip) {
			c.grid[y][x].r = glyph
		}
	}
}
