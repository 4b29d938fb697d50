// Package transport maintains the push channel: a single multiplexed
// WebSocket connection with topic subscriptions, automatic reconnect,
// and typed event decoding.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTopicSubscribed is returned by Subscribe when the topic already
// has a handler. Each topic carries at most one subscriber; callers
// that need fan-out multiplex inside their handler.
var ErrTopicSubscribed = errors.New("topic already subscribed")

// reconnectDelay is the fixed wait between reconnection attempts.
// A variable so tests can shorten it.
var reconnectDelay = 5 * time.Second

// Handler consumes decoded push events for one topic.
type Handler func(Event)

// StatusHandler observes connectivity changes.
type StatusHandler func(connected bool)

// controlFrame is an outbound client frame: subscribe, unsubscribe, or
// an application send.
type controlFrame struct {
	Command     string          `json:"command"`
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// inboundFrame is a server-to-client message: the destination names the
// topic, the body is the push envelope.
type inboundFrame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// Conn is the push channel. All methods are safe for concurrent use.
//
// Subscriptions registered while disconnected are queued in FIFO order
// and flushed exactly once when the connection comes up. After an
// unexpected drop the connection retries every reconnectDelay and
// re-announces every registered subscription on success. Disconnect
// stops the retry loop for good.
type Conn struct {
	url    string
	token  func() string
	logger *slog.Logger
	dialer *websocket.Dialer

	mu         sync.Mutex
	ws         *websocket.Conn
	connecting bool
	closed     bool
	generation int

	subs     map[string]Handler
	order    []string
	onStatus StatusHandler
}

// New creates a push channel targeting url (e.g. ws://host/ws). The
// token func is consulted at dial time so reconnects pick up a
// refreshed session.
func New(url string, token func() string, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		url:    url,
		token:  token,
		logger: logger,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		subs: make(map[string]Handler),
	}
}

// OnStatusChange registers the connectivity observer. At most one is
// held; registering replaces the previous one.
func (c *Conn) OnStatusChange(fn StatusHandler) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

// Connect dials the server. Calling it while connected or while a
// connection attempt is in flight is a no-op.
func (c *Conn) Connect() error {
	c.mu.Lock()
	if c.ws != nil || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.connecting = true
	c.mu.Unlock()

	err := c.dial()

	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()

	return err
}

// dial opens the socket, flushes the subscription registry in FIFO
// order, and starts the read loop.
func (c *Conn) dial() error {
	header := http.Header{}
	if tok := c.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	ws, _, err := c.dialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return nil
	}
	c.ws = ws
	c.generation++
	gen := c.generation
	topics := make([]string, len(c.order))
	copy(topics, c.order)
	onStatus := c.onStatus
	c.mu.Unlock()

	for _, topic := range topics {
		if err := c.writeFrame(controlFrame{Command: "SUBSCRIBE", Destination: topic}); err != nil {
			c.logger.Warn("subscribe announce failed", "topic", topic, "error", err)
		}
	}

	if onStatus != nil {
		onStatus(true)
	}

	go c.readLoop(ws, gen)
	return nil
}

// Disconnect closes the connection intentionally. No reconnect follows.
// Registered subscriptions are kept so a later Connect restores them.
// Idempotent.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ws := c.ws
	c.ws = nil
	onStatus := c.onStatus
	c.mu.Unlock()

	if ws != nil {
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.Close()
		if onStatus != nil {
			onStatus(false)
		}
	}
}

// Subscribe registers handler for topic. While connected the
// subscription is announced immediately; while disconnected it is
// queued and announced on the next successful connect. A second
// Subscribe for the same topic fails with ErrTopicSubscribed.
func (c *Conn) Subscribe(topic string, handler Handler) error {
	c.mu.Lock()
	if _, exists := c.subs[topic]; exists {
		c.mu.Unlock()
		return ErrTopicSubscribed
	}
	c.subs[topic] = handler
	c.order = append(c.order, topic)
	connected := c.ws != nil
	c.mu.Unlock()

	if connected {
		return c.writeFrame(controlFrame{Command: "SUBSCRIBE", Destination: topic})
	}
	return nil
}

// Unsubscribe removes the topic's handler. Unknown topics are a no-op,
// so callers can tear down unconditionally.
func (c *Conn) Unsubscribe(topic string) error {
	c.mu.Lock()
	if _, exists := c.subs[topic]; !exists {
		c.mu.Unlock()
		return nil
	}
	delete(c.subs, topic)
	for i, t := range c.order {
		if t == topic {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	connected := c.ws != nil
	c.mu.Unlock()

	if connected {
		return c.writeFrame(controlFrame{Command: "UNSUBSCRIBE", Destination: topic})
	}
	return nil
}

// Send publishes a JSON payload to a destination, e.g. a live location
// update. Fails when disconnected; senders are expected to tolerate
// gaps, the poll cycle covers them.
func (c *Conn) Send(destination string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", destination, err)
	}

	c.mu.Lock()
	connected := c.ws != nil
	c.mu.Unlock()
	if !connected {
		return fmt.Errorf("sending to %s: not connected", destination)
	}

	return c.writeFrame(controlFrame{Command: "SEND", Destination: destination, Body: body})
}

// Connected reports whether the socket is currently up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// writeFrame serializes one outbound frame. The mutex doubles as the
// single-writer guard the websocket library requires.
func (c *Conn) writeFrame(frame controlFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return fmt.Errorf("writing %s frame: not connected", frame.Command)
	}
	if err := c.ws.WriteJSON(frame); err != nil {
		return fmt.Errorf("writing %s frame to %s: %w", frame.Command, frame.Destination, err)
	}
	return nil
}

// readLoop consumes inbound frames until the socket fails, then hands
// off to the reconnect loop unless the drop was intentional.
func (c *Conn) readLoop(ws *websocket.Conn, gen int) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.handleDrop(ws, gen, err)
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("dropping malformed push frame", "error", err)
			continue
		}

		event, err := decodeEvent(frame.Body)
		if err != nil {
			c.logger.Warn("dropping undecodable push event",
				"destination", frame.Destination, "error", err)
			continue
		}

		c.mu.Lock()
		handler := c.subs[frame.Destination]
		c.mu.Unlock()

		if handler == nil {
			c.logger.Debug("push event for unsubscribed topic",
				"destination", frame.Destination, "type", event.Type)
			continue
		}
		handler(event)
	}
}

// handleDrop reacts to a read failure: if the drop was not an
// intentional Disconnect and this loop is still the current generation,
// it reports the outage and starts the reconnect loop.
func (c *Conn) handleDrop(ws *websocket.Conn, gen int, cause error) {
	ws.Close()

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	onStatus := c.onStatus
	c.mu.Unlock()

	c.logger.Warn("push channel dropped", "error", cause)
	if onStatus != nil {
		onStatus(false)
	}

	go c.reconnectLoop()
}

// reconnectLoop retries the dial every reconnectDelay until it succeeds
// or Disconnect is called. The delay is deliberately fixed rather than
// backed off: the poll cycle already bounds how stale the app can get.
func (c *Conn) reconnectLoop() {
	for {
		time.Sleep(reconnectDelay)

		c.mu.Lock()
		if c.closed || c.ws != nil {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.dial(); err != nil {
			c.logger.Warn("push channel reconnect failed", "error", err)
			continue
		}
		return
	}
}
