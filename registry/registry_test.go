package registry

import (
	"errors"
	"net"
	"testing"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent        [][]byte
	failSend    bool
	closed      bool
	closeCode   int
	closeReason string
}

func (m *MockConnection) SendText(payload []byte) error {
	if m.failSend {
		return errors.New("broken pipe")
	}
	m.sent = append(m.sent, payload)
	return nil
}

func (m *MockConnection) ReadText() ([]byte, error) { return nil, nil }

func (m *MockConnection) Close() error {
	m.closed = true
	return nil
}

func (m *MockConnection) CloseWithReason(code int, reason string) error {
	m.closed = true
	m.closeCode = code
	m.closeReason = reason
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr { return &net.TCPAddr{} }

func TestRegister_SupersedesOldConnection(t *testing.T) {
	r := NewRegistry()
	first := &MockConnection{}
	second := &MockConnection{}

	r.Register(first, "user1")
	r.Register(second, "user1")

	if !first.closed {
		t.Error("First connection should be closed when superseded")
	}
	if first.closeReason != "superseded" {
		t.Errorf("Expected close reason %q, got %q", "superseded", first.closeReason)
	}
	if r.Count() != 1 {
		t.Fatalf("Expected exactly one registered connection, got %d", r.Count())
	}

	// The live entry must be the second connection.
	r.Send("user1", []byte("hello"))
	if len(second.sent) != 1 {
		t.Errorf("Expected the superseding connection to receive the message, got %d sends", len(second.sent))
	}
	if len(first.sent) != 0 {
		t.Error("The superseded connection should not receive messages")
	}
}

func TestUnregister_Idempotent(t *testing.T) {
	r := NewRegistry()
	conn := &MockConnection{}
	r.Register(conn, "user1")

	userID, ok := r.Unregister(conn)
	if !ok || userID != "user1" {
		t.Fatalf("Expected (user1, true), got (%s, %v)", userID, ok)
	}

	userID, ok = r.Unregister(conn)
	if ok || userID != "" {
		t.Errorf("Second unregister should return none, got (%s, %v)", userID, ok)
	}
}

func TestUnregister_DoesNotEvictSuperseder(t *testing.T) {
	r := NewRegistry()
	first := &MockConnection{}
	second := &MockConnection{}

	r.Register(first, "user1")
	r.Register(second, "user1")

	// The stale connection's cleanup path must not take out the new login.
	r.Unregister(first)

	r.Send("user1", []byte("ping"))
	if len(second.sent) != 1 {
		t.Error("Superseding connection should remain registered")
	}
}

func TestSend_EvictsOnFailure(t *testing.T) {
	r := NewRegistry()
	conn := &MockConnection{failSend: true}
	r.Register(conn, "user1")

	r.Send("user1", []byte("hello"))

	if r.Count() != 0 {
		t.Error("Failed send should evict the connection")
	}
	if !conn.closed {
		t.Error("Failed send should close the connection")
	}

	// Sending to an evicted user is a silent no-op.
	r.Send("user1", []byte("again"))
}

func TestBroadcast(t *testing.T) {
	r := NewRegistry()
	a := &MockConnection{}
	b := &MockConnection{}
	broken := &MockConnection{failSend: true}

	r.Register(a, "a")
	r.Register(b, "b")
	r.Register(broken, "c")

	r.Broadcast([]byte("hello"))

	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Error("Broadcast should reach every healthy connection")
	}
	if r.Count() != 2 {
		t.Errorf("Broken connection should be evicted during broadcast, count = %d", r.Count())
	}
}
