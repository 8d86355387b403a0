// Package haptics provides the short vibration pulse and backlight wake that
// accompany each received notification.
package haptics
