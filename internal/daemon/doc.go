// Package daemon provides the lifecycle and event loop of the agent.
// It owns the application state (notification text, clock model, face
// regions) and coordinates the message channel, display surface, minute
// ticker and haptics.
package daemon
