// Package channel implements the message channel between the watch and its
// paired host. Transports (D-Bus, MQTT) push raw payloads into an Inbox; the
// Adapter turns them into a closed set of events and routes each event to
// the handler registered for it.
package channel
