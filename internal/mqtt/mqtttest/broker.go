// Package mqtttest provides a single-client MQTT broker for tests.
package mqtttest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

// connAck accepts a connection without a stored session.
var connAck = []byte{0x20, 0x02, 0x00, 0x00}

// Broker accepts one client on a loopback port, acknowledges its CONNECT
// and records every packet that follows until the client hangs up.
type Broker struct {
	ln   net.Listener
	done chan struct{}

	connect []byte
	packets [][]byte
	err     error
}

// NewBroker starts a broker that is closed when the test ends.
func NewBroker(t testing.TB) *Broker {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	b := &Broker{ln: ln, done: make(chan struct{})}
	go b.serve()

	t.Cleanup(func() {
		_ = ln.Close()
		<-b.done
	})
	return b
}

// Addr returns the host:port clients dial.
func (b *Broker) Addr() string {
	return b.ln.Addr().String()
}

// Wait blocks until the client disconnects and returns the raw CONNECT
// packet and the packets received after it.
func (b *Broker) Wait() (connect []byte, packets [][]byte, err error) {
	<-b.done
	return b.connect, b.packets, b.err
}

func (b *Broker) serve() {
	defer close(b.done)

	conn, err := b.ln.Accept()
	if err != nil {
		b.err = fmt.Errorf("failed to accept: %w", err)
		return
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	b.connect, err = ReadPacket(conn)
	if err != nil {
		b.err = fmt.Errorf("failed to read connect: %w", err)
		return
	}
	if _, err := conn.Write(connAck); err != nil {
		b.err = fmt.Errorf("failed to write connack: %w", err)
		return
	}

	for {
		pkt, err := ReadPacket(conn)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			b.err = err
			return
		}
		b.packets = append(b.packets, pkt)
	}
}

// ReadPacket reads one control packet, fixed header included.
func ReadPacket(r io.Reader) ([]byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	pkt := []byte{buf[0]}

	length, mult := 0, 1
	for i := 0; ; i++ {
		if i == 4 {
			return nil, errors.New("malformed remaining length")
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read remaining length: %w", err)
		}
		pkt = append(pkt, buf[0])
		length += int(buf[0]&0x7f) * mult
		mult *= 128
		if buf[0]&0x80 == 0 {
			break
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read packet body: %w", err)
	}
	return append(pkt, body...), nil
}
