// Package displaytest provides a recording display.Surface for tests.
package displaytest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/jmylchreest/notiface/internal/display"
)

// ErrInjected is returned by a Recorder creation method armed with FailOn.
var ErrInjected = errors.New("injected surface failure")

// Kind identifies what a recorded object is.
type Kind string

// Object kinds.
const (
	KindWindow    Kind = "window"
	KindContainer Kind = "container"
	KindText      Kind = "text"
	KindCanvas    Kind = "canvas"
	KindInverter  Kind = "inverter"
)

// Object is one thing created on a Recorder.
type Object struct {
	ID    int
	Kind  Kind
	Frame image.Rectangle

	mu       sync.Mutex
	rec      *Recorder
	text     string
	font     display.Font
	textSets int
	destroys int
	children []*Object
	draw     display.DrawFunc
}

// Text returns the last text set on a text region.
func (o *Object) Text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text
}

// Font returns the last font set on a text region.
func (o *Object) Font() display.Font {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.font
}

// TextSets returns how many times SetText was called.
func (o *Object) TextSets() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.textSets
}

// Destroys returns how many times Destroy was called.
func (o *Object) Destroys() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroys
}

// Children returns the children added to a container, in order.
func (o *Object) Children() []*Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Object(nil), o.children...)
}

// Redraw runs a canvas draw function and returns the lines it drew,
// in local coordinates.
func (o *Object) Redraw() [][2]image.Point {
	if o.draw == nil {
		return nil
	}
	c := &lineCanvas{}
	o.draw(image.Rect(0, 0, o.Frame.Dx(), o.Frame.Dy()), c)
	return c.lines
}

func (o *Object) destroy() {
	o.mu.Lock()
	o.destroys++
	o.mu.Unlock()
	o.rec.log("destroy %s#%d", o.Kind, o.ID)
}

type lineCanvas struct {
	lines [][2]image.Point
}

func (c *lineCanvas) DrawLine(from, to image.Point) {
	c.lines = append(c.lines, [2]image.Point{from, to})
}

type region struct{ *Object }

func (r region) Frame() image.Rectangle { return r.Object.Frame }
func (r region) Destroy()               { r.destroy() }

type textRegion struct{ region }

func (r textRegion) SetText(text string) {
	r.mu.Lock()
	r.text = text
	r.textSets++
	r.mu.Unlock()
}

func (r textRegion) SetFont(font display.Font) {
	r.mu.Lock()
	r.font = font
	r.mu.Unlock()
}

type container struct{ *Object }

func (c container) Bounds() image.Rectangle { return c.Frame }
func (c container) Destroy()                { c.destroy() }

func (c container) AddChild(r display.Region) {
	child := unwrap(r)
	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()
	if child != nil {
		c.rec.log("add %s#%d to container#%d", child.Kind, child.ID, c.ID)
	}
}

type window struct {
	*Object
	root container
}

func (w window) Root() display.Container { return w.root }
func (w window) Destroy()                { w.destroy() }

func unwrap(r display.Region) *Object {
	switch v := r.(type) {
	case region:
		return v.Object
	case textRegion:
		return v.Object
	default:
		return nil
	}
}

// Recorder is a display.Surface that keeps every object it creates and
// a log of the calls made on it.
type Recorder struct {
	bounds image.Rectangle

	mu      sync.Mutex
	objects []*Object
	stack   []*Object
	calls   []string
	failOn  Kind
}

// NewRecorder creates a recorder with the given screen size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{bounds: image.Rect(0, 0, width, height)}
}

// FailOn makes the next creation of the given kind fail with ErrInjected.
func (r *Recorder) FailOn(kind Kind) {
	r.mu.Lock()
	r.failOn = kind
	r.mu.Unlock()
}

func (r *Recorder) log(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *Recorder) create(kind Kind, frame image.Rectangle) (*Object, error) {
	r.mu.Lock()
	if r.failOn == kind {
		r.failOn = ""
		r.mu.Unlock()
		return nil, ErrInjected
	}
	o := &Object{ID: len(r.objects) + 1, Kind: kind, Frame: frame, rec: r}
	r.objects = append(r.objects, o)
	r.calls = append(r.calls, fmt.Sprintf("create %s#%d", kind, o.ID))
	r.mu.Unlock()
	return o, nil
}

// Bounds implements display.Surface.
func (r *Recorder) Bounds() image.Rectangle { return r.bounds }

// NewWindow implements display.Surface.
func (r *Recorder) NewWindow() (display.Window, error) {
	w, err := r.create(KindWindow, r.bounds)
	if err != nil {
		return nil, err
	}
	root, err := r.create(KindContainer, r.bounds)
	if err != nil {
		return nil, err
	}
	return window{Object: w, root: container{root}}, nil
}

// Push implements display.Surface.
func (r *Recorder) Push(w display.Window) error {
	win, ok := w.(window)
	if !ok {
		return fmt.Errorf("window %T not created by this recorder", w)
	}
	r.mu.Lock()
	r.stack = append(r.stack, win.Object)
	r.mu.Unlock()
	r.log("push window#%d", win.ID)
	return nil
}

// Pop implements display.Surface.
func (r *Recorder) Pop(w display.Window) {
	win, ok := w.(window)
	if !ok {
		return
	}
	r.mu.Lock()
	for i, o := range r.stack {
		if o == win.Object {
			r.stack = append(r.stack[:i], r.stack[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	r.log("pop window#%d", win.ID)
}

// NewText implements display.Surface.
func (r *Recorder) NewText(frame image.Rectangle) (display.TextRegion, error) {
	o, err := r.create(KindText, frame)
	if err != nil {
		return nil, err
	}
	return textRegion{region{o}}, nil
}

// NewCanvas implements display.Surface.
func (r *Recorder) NewCanvas(frame image.Rectangle, draw display.DrawFunc) (display.Region, error) {
	o, err := r.create(KindCanvas, frame)
	if err != nil {
		return nil, err
	}
	o.draw = draw
	return region{o}, nil
}

// NewInverter implements display.Surface.
func (r *Recorder) NewInverter(frame image.Rectangle) (display.Region, error) {
	o, err := r.create(KindInverter, frame)
	if err != nil {
		return nil, err
	}
	return region{o}, nil
}

// Objects returns every object created so far, in creation order.
func (r *Recorder) Objects() []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Object(nil), r.objects...)
}

// ObjectsOf returns the created objects of one kind.
func (r *Recorder) ObjectsOf(kind Kind) []*Object {
	var out []*Object
	for _, o := range r.Objects() {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// Stack returns the windows currently pushed, bottom first.
func (r *Recorder) Stack() []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Object(nil), r.stack...)
}

// Calls returns the call log.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Root returns the root container of the first window created.
func (r *Recorder) Root() *Object {
	containers := r.ObjectsOf(KindContainer)
	if len(containers) == 0 {
		return nil
	}
	return containers[0]
}

// Live returns how many created objects have not been destroyed.
func (r *Recorder) Live() int {
	n := 0
	for _, o := range r.Objects() {
		if o.Destroys() == 0 {
			n++
		}
	}
	return n
}
