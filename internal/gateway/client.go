package gateway

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/hookpress/internal/host"
	"github.com/soyeahso/hookpress/internal/logging"
)

var errClientClosed = errors.New("client connection closed")

// writeTimeout bounds a single frame write.
const writeTimeout = 10 * time.Second

// Client is an authenticated preview or editor connection. It receives the
// host events it subscribed to during the handshake, or all of them when it
// named none.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Socket      *websocket.Conn
	AuthResult  AuthResult
	ConnectedAt time.Time

	events map[string]struct{}
	log    *logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn for a client that passed the handshake. events limits
// the host events forwarded to it.
func NewClient(conn *websocket.Conn, info ClientInfo, authResult AuthResult, events []string, log *logging.Logger) *Client {
	c := &Client{
		ConnID:      uuid.New().String(),
		Info:        info,
		Socket:      conn,
		AuthResult:  authResult,
		ConnectedAt: time.Now(),
		log:         log,
	}
	if len(events) > 0 {
		c.events = make(map[string]struct{}, len(events))
		for _, name := range events {
			c.events[name] = struct{}{}
		}
	}
	return c
}

// Subscribed reports whether host events named name are forwarded to c.
func (c *Client) Subscribed(name string) bool {
	if c.events == nil {
		return true
	}
	_, ok := c.events[name]
	return ok
}

// Subscriptions returns the event names c asked for, sorted. Nil means all.
func (c *Client) Subscriptions() []string {
	if c.events == nil {
		return nil
	}
	out := make([]string, 0, len(c.events))
	for name := range c.events {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Send writes frame to the socket. Writes are serialized.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.Socket.WriteJSON(frame)
}

// Notify delivers a host event as an event frame. Events the client did not
// subscribe to are dropped and reported as not delivered.
func (c *Client) Notify(e host.Event, seq int64) (bool, error) {
	if !c.Subscribed(e.Name) {
		return false, nil
	}
	f, err := NewEvent(e.Name, e, seq)
	if err != nil {
		return false, err
	}
	if err := c.Send(f); err != nil {
		return false, err
	}
	return true, nil
}

// Respond answers request reqID with payload.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError answers request reqID with an error.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// ReadFrame blocks for the next request frame.
func (c *Client) ReadFrame() (Frame, error) {
	_, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Close closes the socket once. Later calls are no-ops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.Socket == nil {
		return nil
	}
	return c.Socket.Close()
}

// ClientRegistry tracks live connections so host events can fan out to them.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

// NewClientRegistry returns an empty registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client), log: log}
}

// Add tracks c until Remove or CloseAll.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ConnID] = c
	r.mu.Unlock()
	r.log.Info().
		Str("connId", c.ConnID).
		Str("client", c.Info.ID).
		Strs("events", c.Subscriptions()).
		Msg("client connected")
}

// Remove stops tracking connID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	_, ok := r.clients[connID]
	delete(r.clients, connID)
	r.mu.Unlock()
	if ok {
		r.log.Info().Str("connId", connID).Msg("client disconnected")
	}
}

// Get returns the client for connID.
func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// Count returns the number of live connections.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) list() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Notify forwards e to every subscribed client and returns how many received
// it. A failed write is logged and does not stop the fan-out.
func (r *ClientRegistry) Notify(e host.Event, seq int64) int {
	delivered := 0
	for _, c := range r.list() {
		ok, err := c.Notify(e, seq)
		if err != nil {
			r.log.Warn().Err(err).Str("connId", c.ConnID).Str("event", e.Name).Msg("event delivery failed")
			continue
		}
		if ok {
			delivered++
		}
	}
	return delivered
}

// CloseAll closes and forgets every connection.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
