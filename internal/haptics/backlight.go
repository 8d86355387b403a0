package haptics

import (
	"github.com/godbus/dbus/v5"
)

const (
	screenSaverDest   = "org.freedesktop.ScreenSaver"
	screenSaverPath   = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverMethod = "org.freedesktop.ScreenSaver.SimulateUserActivity"
)

// ScreenSaver wakes the screen by simulating user activity on the session bus.
type ScreenSaver struct {
	conn *dbus.Conn
}

// NewScreenSaver creates a backlight waker on conn.
func NewScreenSaver(conn *dbus.Conn) *ScreenSaver {
	return &ScreenSaver{conn: conn}
}

// Wake asks the screen saver to light the screen. No reply is awaited.
func (s *ScreenSaver) Wake() error {
	obj := s.conn.Object(screenSaverDest, screenSaverPath)
	return obj.Go(screenSaverMethod, dbus.FlagNoReplyExpected, nil).Err
}
