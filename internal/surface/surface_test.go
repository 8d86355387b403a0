package surface

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/display"
)

func buildFace(t *testing.T, s display.Surface) (display.Window, *display.Coordinator) {
	t.Helper()
	win, err := s.NewWindow()
	require.NoError(t, err)
	require.NoError(t, s.Push(win))

	coord := display.NewCoordinator(s, nil)
	require.NoError(t, coord.Build(win.Root(), "", "02:05 PM", "Wed, May  7"))
	return win, coord
}

func TestWrapLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		cols int
		want []string
	}{
		{name: "fits", text: "Meeting at 3pm", cols: 20, want: []string{"Meeting at 3pm"}},
		{name: "word boundary", text: "Meeting at 3pm", cols: 10, want: []string{"Meeting at", "3pm"}},
		{name: "long word split", text: "abcdefghij", cols: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "newline", text: "a\nb", cols: 4, want: []string{"a", "b"}},
		{name: "empty", text: "", cols: 4, want: []string{""}},
		{name: "multibyte", text: "héllo wörld", cols: 5, want: []string{"héllo", "wörld"}},
		{name: "zero columns", text: "ab", cols: 0, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapLines(tt.text, tt.cols))
		})
	}
}

func TestWrapLines_InvalidUTF8(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, wrapLines("\xff\xfe\xfd", 1))
	})
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name  string
		font  display.Font
		width int
		want  int
	}{
		{name: "basicfont", font: display.Font(""), width: 139, want: 19},
		{name: "inconsolata", font: display.FontGothic28Bold, width: 139, want: 17},
		{name: "narrower than a glyph", font: display.FontGothic28, width: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columns(faceFor(tt.font), tt.width))
		})
	}
}

func TestFramebuffer_Render(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	_, coord := buildFace(t, fb)

	img := fb.Render()
	assert.Equal(t, image.Rect(0, 0, 144, 168), img.Rect)

	// The overlay inverts the whole face: paper turns black and the
	// separator turns white.
	assert.Equal(t, ink, img.GrayAt(0, 0).Y)
	assert.Equal(t, paper, img.GrayAt(70, 89).Y)
	assert.Equal(t, ink, img.GrayAt(70, 88).Y)
	assert.Equal(t, ink, img.GrayAt(2, 89).Y, "separator is inset by the padding")

	before := countInk(fb.Render(), coord.Layout().Notification)
	coord.UpdateNotification("Meeting at 3pm")
	after := countInk(fb.Render(), coord.Layout().Notification)
	assert.Less(t, after, before, "text shows up as lit pixels on the inverted face")
}

func TestFramebuffer_DestroyedRegionsDisappear(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	_, coord := buildFace(t, fb)

	coord.DestroyOverlay()
	img := fb.Render()
	assert.Equal(t, paper, img.GrayAt(0, 0).Y)
	assert.Equal(t, ink, img.GrayAt(70, 89).Y)

	coord.DestroyRegions()
	img = fb.Render()
	assert.Equal(t, paper, img.GrayAt(70, 89).Y)
}

func TestFramebuffer_PopHidesWindow(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	win, _ := buildFace(t, fb)
	assert.Equal(t, 1, fb.Depth())

	fb.Pop(win)
	assert.Equal(t, 0, fb.Depth())
	assert.Equal(t, paper, fb.Render().GrayAt(0, 0).Y)
}

func TestFramebuffer_PushForeignWindow(t *testing.T) {
	a := NewFramebuffer(144, 168)
	b := NewFramebuffer(144, 168)
	win, err := a.NewWindow()
	require.NoError(t, err)
	assert.Error(t, b.Push(win))
}

func TestFramebuffer_WritePNG(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	buildFace(t, fb)

	var buf bytes.Buffer
	require.NoError(t, fb.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 144, 168), img.Bounds())
}

func TestFramebuffer_SavePNG(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	buildFace(t, fb)

	path := t.TempDir() + "/face.png"
	require.NoError(t, fb.SavePNG(path))
	assert.FileExists(t, path)
}

func TestTree_Changes(t *testing.T) {
	fb := NewFramebuffer(144, 168)
	_, coord := buildFace(t, fb)

	// Drain the build burst.
	select {
	case <-fb.Changes():
	default:
	}

	coord.UpdateNotification("hello")
	select {
	case <-fb.Changes():
	default:
		t.Fatal("expected a change notification")
	}
}

func TestTerminal_View(t *testing.T) {
	term := NewTerminal(144, 168)
	_, coord := buildFace(t, term)
	coord.UpdateNotification("Meeting at 3pm")

	cols, rows := term.Size()
	assert.Equal(t, 18, cols)
	assert.Equal(t, 21, rows)

	view := term.View()
	assert.Contains(t, view, "Meeting at 3pm")
	assert.Contains(t, view, "02:05 PM")
	assert.Contains(t, view, "Wed, May  7")
	assert.Contains(t, view, strings.Repeat("─", 10))
}

func TestTerminal_Flush(t *testing.T) {
	term := NewTerminal(144, 168)
	buildFace(t, term)

	var buf bytes.Buffer
	require.NoError(t, term.Flush(&buf))
	assert.Contains(t, buf.String(), "02:05 PM")
}

func countInk(img *image.Gray, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.GrayAt(x, y).Y == ink {
				n++
			}
		}
	}
	return n
}
