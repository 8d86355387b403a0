// Package dbus implements the io.github.jmylchreest.Notiface D-Bus interface.
// The server is a channel transport: hosts call Deliver with a dictionary of
// tuples and receive either a message ID or a named error explaining the drop.
// The client side is used by the send command.
package dbus
