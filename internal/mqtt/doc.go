// Package mqtt carries the message channel over an MQTT broker.
// The agent subscribes to one topic; every PUBLISH payload on it is one
// encoded payload frame. The same package publishes frames for the send
// command.
package mqtt
