// Package model defines the core data structures for notiface.
package model

import "bytes"

// NotificationCapacity is the size of the notification buffer, terminator included.
const NotificationCapacity = 255

// MaxNotificationLen is the longest notification body that survives a Set.
const MaxNotificationLen = NotificationCapacity - 1

// NotificationText holds the most recently received notification body.
// The buffer is always NUL-terminated: at most MaxNotificationLen bytes are
// kept and every byte after the content is zero.
// The zero value is an empty notification.
type NotificationText struct {
	buf [NotificationCapacity]byte
	n   int
}

// Set replaces the content with text, truncating to MaxNotificationLen bytes.
// Like a C string, text ends at its first NUL byte if it has one.
// Set never reads past len(text) and never writes past the buffer.
func (t *NotificationText) Set(text []byte) {
	n := len(text)
	if i := bytes.IndexByte(text, 0); i >= 0 {
		n = i
	}
	if n > MaxNotificationLen {
		n = MaxNotificationLen
	}

	copy(t.buf[:n], text[:n])
	clear(t.buf[n:])
	t.n = n
}

// SetString is Set for string input.
func (t *NotificationText) SetString(text string) {
	t.Set([]byte(text))
}

// Reset zeroes the whole buffer.
func (t *NotificationText) Reset() {
	clear(t.buf[:])
	t.n = 0
}

// Len returns the content length, excluding the terminator.
func (t *NotificationText) Len() int {
	return t.n
}

// String returns the content without the terminator.
func (t *NotificationText) String() string {
	return string(t.buf[:t.n])
}

// Bytes returns a copy of the content without the terminator.
func (t *NotificationText) Bytes() []byte {
	return bytes.Clone(t.buf[:t.n])
}

// Terminated returns a copy of the content including its NUL terminator.
func (t *NotificationText) Terminated() []byte {
	return bytes.Clone(t.buf[:t.n+1])
}
