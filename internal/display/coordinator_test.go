package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notiface/internal/display"
	"github.com/jmylchreest/notiface/internal/display/displaytest"
)

func buildFace(t *testing.T) (*displaytest.Recorder, *display.Coordinator) {
	t.Helper()
	rec := displaytest.NewRecorder(144, 168)
	win, err := rec.NewWindow()
	require.NoError(t, err)

	coord := display.NewCoordinator(rec, nil)
	require.NoError(t, coord.Build(win.Root(), "", "02:05 PM", "Wed, May  7"))
	return rec, coord
}

func TestCoordinator_BuildZOrder(t *testing.T) {
	rec, coord := buildFace(t)
	assert.True(t, coord.Built())

	children := rec.Root().Children()
	require.Len(t, children, 5)

	kinds := make([]displaytest.Kind, len(children))
	for i, c := range children {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []displaytest.Kind{
		displaytest.KindText,
		displaytest.KindText,
		displaytest.KindText,
		displaytest.KindCanvas,
		displaytest.KindInverter,
	}, kinds)

	layout := coord.Layout()
	assert.Equal(t, layout.Notification, children[0].Frame)
	assert.Equal(t, layout.Date, children[1].Frame)
	assert.Equal(t, layout.Clock, children[2].Frame)
	assert.Equal(t, layout.Separator, children[3].Frame)
	assert.Equal(t, rec.Bounds(), children[4].Frame)

	assert.Equal(t, "", children[0].Text())
	assert.Equal(t, "Wed, May  7", children[1].Text())
	assert.Equal(t, "02:05 PM", children[2].Text())

	assert.Equal(t, display.FontGothic24Bold, children[0].Font())
	assert.Equal(t, display.FontGothic28, children[1].Font())
	assert.Equal(t, display.FontGothic28Bold, children[2].Font())
}

func TestCoordinator_SeparatorDraw(t *testing.T) {
	rec, _ := buildFace(t)
	canvas := rec.ObjectsOf(displaytest.KindCanvas)
	require.Len(t, canvas, 1)

	got := canvas[0].Redraw()
	require.Len(t, got, 1)
	assert.Equal(t, 89, got[0][0].Y)
	assert.Equal(t, got[0][0].Y, got[0][1].Y)
}

func TestCoordinator_BuildTwice(t *testing.T) {
	rec, coord := buildFace(t)
	win, err := rec.NewWindow()
	require.NoError(t, err)

	err = coord.Build(win.Root(), "", "", "")
	assert.ErrorIs(t, err, display.ErrAlreadyBuilt)
	assert.Len(t, rec.ObjectsOf(displaytest.KindText), 3)
}

func TestCoordinator_UpdatesTouchOnlyTheirRegions(t *testing.T) {
	rec, coord := buildFace(t)
	children := rec.Root().Children()
	notification, date, clock := children[0], children[1], children[2]

	coord.UpdateNotification("Meeting at 3pm")
	assert.Equal(t, "Meeting at 3pm", notification.Text())
	assert.Equal(t, 1, date.TextSets())
	assert.Equal(t, 1, clock.TextSets())

	coord.UpdateTime("02:06 PM", "Wed, May  7")
	assert.Equal(t, "02:06 PM", clock.Text())
	assert.Equal(t, "Wed, May  7", date.Text())
	assert.Equal(t, 2, notification.TextSets())
	assert.Equal(t, "Meeting at 3pm", notification.Text())
}

func TestCoordinator_CloseDestroysOnce(t *testing.T) {
	rec, coord := buildFace(t)

	coord.Close()
	coord.Close()
	coord.DestroyRegions()
	coord.DestroyOverlay()
	assert.False(t, coord.Built())

	for _, o := range rec.Root().Children() {
		assert.Equal(t, 1, o.Destroys(), "%s#%d", o.Kind, o.ID)
	}

	// Updates after close are ignored.
	coord.UpdateNotification("late")
	assert.Equal(t, "", rec.Root().Children()[0].Text())
}

func TestCoordinator_BuildRollsBack(t *testing.T) {
	for _, kind := range []displaytest.Kind{displaytest.KindText, displaytest.KindCanvas, displaytest.KindInverter} {
		t.Run(string(kind), func(t *testing.T) {
			rec := displaytest.NewRecorder(144, 168)
			win, err := rec.NewWindow()
			require.NoError(t, err)
			rec.FailOn(kind)

			coord := display.NewCoordinator(rec, nil)
			err = coord.Build(win.Root(), "", "", "")
			require.ErrorIs(t, err, displaytest.ErrInjected)
			assert.False(t, coord.Built())

			for _, k := range []displaytest.Kind{displaytest.KindText, displaytest.KindCanvas, displaytest.KindInverter} {
				for _, o := range rec.ObjectsOf(k) {
					assert.Equal(t, 1, o.Destroys(), "%s#%d", o.Kind, o.ID)
				}
			}
		})
	}
}

func TestCoordinator_BuildTooSmall(t *testing.T) {
	rec := displaytest.NewRecorder(144, 100)
	win, err := rec.NewWindow()
	require.NoError(t, err)

	err = display.NewCoordinator(rec, nil).Build(win.Root(), "", "", "")
	require.Error(t, err)
	assert.Empty(t, rec.ObjectsOf(displaytest.KindText))
}
