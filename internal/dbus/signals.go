package dbus

import (
	"fmt"
)

// EmitDelivered emits the Delivered signal for an accepted message.
func (s *Server) EmitDelivered(messageID string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".Delivered", messageID)
	if err != nil {
		return fmt.Errorf("failed to emit Delivered signal: %w", err)
	}

	s.logger.Debug("emitted Delivered signal", "message_id", messageID)
	return nil
}
