package surface

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/jmylchreest/notiface/internal/display"
)

type nodeKind uint8

const (
	kindText nodeKind = iota
	kindCanvas
	kindInverter
)

// node is a region in the retained tree.
type node struct {
	t     *tree
	kind  nodeKind
	frame image.Rectangle

	// Guarded by t.mu.
	text      string
	font      display.Font
	draw      display.DrawFunc
	destroyed bool
}

func (n *node) Frame() image.Rectangle { return n.frame }

func (n *node) Destroy() {
	n.t.mu.Lock()
	n.destroyed = true
	n.t.mu.Unlock()
	n.t.changed()
}

func (n *node) SetText(text string) {
	n.t.mu.Lock()
	n.text = text
	n.t.mu.Unlock()
	n.t.changed()
}

func (n *node) SetFont(font display.Font) {
	n.t.mu.Lock()
	n.font = font
	n.t.mu.Unlock()
	n.t.changed()
}

type container struct {
	t         *tree
	bounds    image.Rectangle
	children  []*node
	destroyed bool
}

func (c *container) Bounds() image.Rectangle { return c.bounds }

func (c *container) AddChild(r display.Region) {
	n, ok := r.(*node)
	if !ok || n.t != c.t {
		return
	}
	c.t.mu.Lock()
	c.children = append(c.children, n)
	c.t.mu.Unlock()
	c.t.changed()
}

func (c *container) Destroy() {
	c.t.mu.Lock()
	c.destroyed = true
	c.children = nil
	c.t.mu.Unlock()
	c.t.changed()
}

type window struct {
	root      *container
	destroyed bool
}

func (w *window) Root() display.Container { return w.root }

func (w *window) Destroy() {
	t := w.root.t
	t.mu.Lock()
	w.destroyed = true
	t.mu.Unlock()
	t.changed()
}

// tree is the window stack shared by the backends.
type tree struct {
	bounds image.Rectangle

	mu    sync.Mutex
	stack []*window

	// changes receives a value whenever the tree is modified.
	changes chan struct{}
}

func newTree(width, height int) *tree {
	return &tree{
		bounds:  image.Rect(0, 0, width, height),
		changes: make(chan struct{}, 1),
	}
}

func (t *tree) changed() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

// Changes returns a channel that receives after the visible tree changes.
// Bursts of changes are coalesced.
func (t *tree) Changes() <-chan struct{} {
	return t.changes
}

func (t *tree) Bounds() image.Rectangle { return t.bounds }

func (t *tree) NewWindow() (display.Window, error) {
	return &window{root: &container{t: t, bounds: t.bounds}}, nil
}

func (t *tree) Push(w display.Window) error {
	win, ok := w.(*window)
	if !ok || win.root.t != t {
		return fmt.Errorf("window %T does not belong to this surface", w)
	}
	t.mu.Lock()
	if win.destroyed {
		t.mu.Unlock()
		return display.ErrSurfaceClosed
	}
	t.stack = append(t.stack, win)
	t.mu.Unlock()
	t.changed()
	return nil
}

func (t *tree) Pop(w display.Window) {
	win, ok := w.(*window)
	if !ok {
		return
	}
	t.mu.Lock()
	if i := slices.Index(t.stack, win); i >= 0 {
		t.stack = slices.Delete(t.stack, i, i+1)
	}
	t.mu.Unlock()
	t.changed()
}

func (t *tree) newNode(kind nodeKind, frame image.Rectangle) *node {
	return &node{t: t, kind: kind, frame: frame}
}

func (t *tree) NewText(frame image.Rectangle) (display.TextRegion, error) {
	return t.newNode(kindText, frame), nil
}

func (t *tree) NewCanvas(frame image.Rectangle, draw display.DrawFunc) (display.Region, error) {
	n := t.newNode(kindCanvas, frame)
	n.draw = draw
	return n, nil
}

func (t *tree) NewInverter(frame image.Rectangle) (display.Region, error) {
	return t.newNode(kindInverter, frame), nil
}

// snapshot is an immutable copy of a visible region.
type snapshot struct {
	kind  nodeKind
	frame image.Rectangle
	text  string
	font  display.Font
	draw  display.DrawFunc
}

// visible returns the live regions of the top window in z-order.
func (t *tree) visible() []snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.stack) == 0 {
		return nil
	}
	top := t.stack[len(t.stack)-1]
	if top.destroyed || top.root.destroyed {
		return nil
	}

	out := make([]snapshot, 0, len(top.root.children))
	for _, n := range top.root.children {
		if n.destroyed {
			continue
		}
		out = append(out, snapshot{kind: n.kind, frame: n.frame, text: n.text, font: n.font, draw: n.draw})
	}
	return out
}

// Depth returns the number of windows on the stack.
func (t *tree) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}
