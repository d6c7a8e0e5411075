// Package wsconn manages WebSocket connections backing benzl's
// ws-connect/ws-send/ws-recv/ws-close builtins: a handle table keyed
// by a generated id, each backed by a background reader goroutine
// feeding a buffered channel so ws-recv can block with a timeout.
package wsconn

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Conn struct {
	ID       string
	URL      string
	conn     *websocket.Conn
	mu       sync.Mutex
	closed   bool
	incoming chan []byte
}

type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*Conn)}
}

// Connect dials url and starts the connection's background reader.
func (m *Manager) Connect(url string) (string, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	raw, _, err := dialer.Dial(url, nil)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	c := &Conn{
		ID:       uuid.NewString(),
		URL:      url,
		conn:     raw,
		incoming: make(chan []byte, 100),
	}
	go c.readLoop()

	m.mu.Lock()
	m.conns[c.ID] = c
	m.mu.Unlock()
	return c.ID, nil
}

func (c *Conn) readLoop() {
	defer close(c.incoming)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		select {
		case c.incoming <- msg:
		default:
		}
	}
}

func (m *Manager) get(id string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("no open websocket connection %q", id)
	}
	return c, nil
}

func (m *Manager) Send(id string, data []byte, binary bool) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("websocket %q is closed", id)
	}
	mt := websocket.TextMessage
	if binary {
		mt = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(mt, data)
}

// Recv waits up to timeout for the next message, or returns ok=false
// on timeout.
func (m *Manager) Recv(id string, timeout time.Duration) ([]byte, bool, error) {
	c, err := m.get(id)
	if err != nil {
		return nil, false, err
	}
	select {
	case msg, ok := <-c.incoming:
		if !ok {
			return nil, false, fmt.Errorf("websocket %q closed by peer", id)
		}
		return msg, true, nil
	case <-time.After(timeout):
		return nil, false, nil
	}
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	c, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no open websocket connection %q", id)
	}
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
