package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notiface/internal/model"
)

// Client calls a running agent over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient creates a client on conn, or on the session bus when conn is nil.
func NewClient(conn *dbus.Conn) (*Client, error) {
	if conn == nil {
		var err error
		conn, err = dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Send delivers a payload and returns the message ID the agent assigned.
// A dropped payload returns a *dbus.Error; use ReasonFromError to inspect it.
func (c *Client) Send(ctx context.Context, p model.Payload) (string, error) {
	dict, err := VariantsFromPayload(p)
	if err != nil {
		return "", err
	}

	var id string
	if err := c.obj.CallWithContext(ctx, DBusInterface+".Deliver", 0, dict).Store(&id); err != nil {
		return "", fmt.Errorf("failed to deliver: %w", err)
	}
	return id, nil
}

// SendFrame delivers an encoded payload.
func (c *Client) SendFrame(ctx context.Context, frame []byte) (string, error) {
	var id string
	if err := c.obj.CallWithContext(ctx, DBusInterface+".DeliverFrame", 0, frame).Store(&id); err != nil {
		return "", fmt.Errorf("failed to deliver frame: %w", err)
	}
	return id, nil
}

// Capacity returns the agent's inbox and outbox sizes.
func (c *Client) Capacity(ctx context.Context) (inbox, outbox uint32, err error) {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".Capacity", 0).Store(&inbox, &outbox); err != nil {
		return 0, 0, fmt.Errorf("failed to query capacity: %w", err)
	}
	return inbox, outbox, nil
}
