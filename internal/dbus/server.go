package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/notiface/internal/channel"
	"github.com/jmylchreest/notiface/internal/model"
)

const (
	// DBusInterface is the agent interface name.
	DBusInterface = "io.github.jmylchreest.Notiface"
	// DBusPath is the agent object path.
	DBusPath = "/io/github/jmylchreest/Notiface"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Notiface"

	introspectableInterface = "org.freedesktop.DBus.Introspectable"
)

// busConn is the part of *dbus.Conn the server uses.
type busConn interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Server exposes the message channel on the session bus.
// It implements channel.Transport.
type Server struct {
	conn   busConn
	logger *slog.Logger

	mu      sync.RWMutex
	inbox   *channel.Inbox
	outbox  uint32
	running bool
}

// NewServer creates a new Server. When conn is nil, Open connects to the
// session bus.
func NewServer(conn *dbus.Conn, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger}
	if conn != nil {
		s.conn = conn
	}
	return s
}

// Name implements channel.Transport.
func (s *Server) Name() string {
	return "dbus"
}

// SetOutboxSize records the outbound capacity reported by Capacity.
func (s *Server) SetOutboxSize(n int) {
	s.mu.Lock()
	s.outbox = uint32(n)
	s.mu.Unlock()
}

// Open exports the agent object and claims the bus name.
func (s *Server) Open(ctx context.Context, inbox *channel.Inbox) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	if s.conn == nil {
		conn, err := dbus.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		s.conn = conn
	}

	// Export before claiming the name so no call arrives without a handler
	s.mu.Lock()
	s.inbox = inbox
	s.mu.Unlock()

	if err := s.conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: agentMethods(),
				Signals: agentSignals(),
			},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), DBusPath, introspectableInterface); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := s.conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus agent server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Close releases the bus name and unexports the object.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.inbox = nil

	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	_ = s.conn.Export(nil, DBusPath, DBusInterface)
	_ = s.conn.Export(nil, DBusPath, introspectableInterface)
	// Don't close the connection as it's shared (SessionBus)

	s.logger.Info("D-Bus agent server stopped")
	return nil
}

func (s *Server) currentInbox() *channel.Inbox {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inbox
}

// Deliver accepts a dictionary of tuples from the host.
// D-Bus method: Deliver(a{uv}) -> s
func (s *Server) Deliver(dict map[uint32]dbus.Variant) (string, *dbus.Error) {
	inbox := s.currentInbox()
	if inbox == nil {
		return "", ReasonError(channel.ReasonClosed, "")
	}

	p, err := PayloadFromVariants(dict)
	if err != nil {
		s.logger.Debug("Deliver rejected", "error", err)
		return "", dbus.NewError(ErrorInvalidArgs, []any{err.Error()})
	}

	p = p.WithID(model.NewMessageID())
	reason := inbox.Deliver(p)
	s.logger.Debug("Deliver called", "message_id", p.ID, "tuples", p.Len(), "reason", reason.String())
	return s.reply(p.ID, reason)
}

// DeliverFrame accepts a payload already in wire encoding.
// D-Bus method: DeliverFrame(ay) -> s
func (s *Server) DeliverFrame(frame []byte) (string, *dbus.Error) {
	inbox := s.currentInbox()
	if inbox == nil {
		return "", ReasonError(channel.ReasonClosed, "")
	}

	id := model.NewMessageID()
	reason := inbox.DeliverFrame(id, frame)
	s.logger.Debug("DeliverFrame called", "message_id", id, "size", len(frame), "reason", reason.String())
	return s.reply(id, reason)
}

// Capacity returns the inbox and outbox sizes in bytes.
// D-Bus method: Capacity() -> (uu)
func (s *Server) Capacity() (uint32, uint32, *dbus.Error) {
	inbox := s.currentInbox()
	s.mu.RLock()
	outbox := s.outbox
	s.mu.RUnlock()

	if inbox == nil {
		return 0, outbox, nil
	}
	return uint32(inbox.Capacity()), outbox, nil
}

// reply builds the method reply for a delivery outcome.
func (s *Server) reply(messageID string, reason channel.Reason) (string, *dbus.Error) {
	if reason != channel.ReasonOK {
		return "", ReasonError(reason, messageID)
	}
	if err := s.EmitDelivered(messageID); err != nil {
		s.logger.Debug("failed to emit Delivered signal", "error", err)
	}
	return messageID, nil
}

// agentMethods returns the D-Bus method introspection data.
func agentMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Deliver",
			Args: []introspect.Arg{
				{Name: "payload", Type: "a{uv}", Direction: "in"},
				{Name: "message_id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "DeliverFrame",
			Args: []introspect.Arg{
				{Name: "frame", Type: "ay", Direction: "in"},
				{Name: "message_id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Capacity",
			Args: []introspect.Arg{
				{Name: "inbox", Type: "u", Direction: "out"},
				{Name: "outbox", Type: "u", Direction: "out"},
			},
		},
	}
}

// agentSignals returns the D-Bus signal introspection data.
func agentSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "Delivered",
			Args: []introspect.Arg{
				{Name: "message_id", Type: "s"},
			},
		},
	}
}
