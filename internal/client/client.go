package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/deckr/internal/protocol"
)

// ErrNotConnected is returned when sending before Connect or after
// Disconnect.
var ErrNotConnected = errors.New("client: not connected")

// ServerError is an error message returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Message is one frame received from the server.
type Message struct {
	*protocol.Message
	Frame []byte
}

// EventHandler is called for every received message of the type it was
// registered for. Handlers run on the client's dispatch goroutine in
// arrival order.
type EventHandler func(Message)

// AllMessages registers a handler for every message type.
const AllMessages protocol.MessageType = "*"

type waiter struct {
	types []protocol.MessageType
	ch    chan Message
}

// Client speaks the deckr protocol over a TCP line connection or a
// websocket.
type Client struct {
	addr   string
	logger *log.Logger

	conn      conn
	send      chan []byte
	receive   chan Message
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu            sync.RWMutex
	connected     bool
	eventHandlers map[protocol.MessageType][]EventHandler
	waiters       []*waiter
}

// NewClient creates a client for addr, either host:port or a ws:// URL.
func NewClient(addr string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		addr:          addr,
		logger:        logger.WithPrefix("client"),
		send:          make(chan []byte, 256),
		receive:       make(chan Message, 256),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[protocol.MessageType][]EventHandler),
	}
}

// Connect dials the server and starts the read, write and dispatch
// goroutines.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to server", "addr", c.addr)

	conn, err := dial(ctx, c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the connection. It is safe to call more than once.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connected = false
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the client disconnects.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// AddEventHandler registers handler for messages of the given type, or for
// every message with AllMessages.
func (c *Client) AddEventHandler(messageType protocol.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// SendRaw queues a frame exactly as given.
func (c *Client) SendRaw(frame []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Send encodes and queues a request.
func (c *Client) Send(messageType protocol.MessageType, fields map[string]any) error {
	frame, err := protocol.NewRequest(messageType, fields)
	if err != nil {
		return err
	}
	return c.SendRaw(frame)
}

// Request sends a request and waits for the first message of one of the
// response types. An error message from the server is returned as a
// *ServerError. Errors carry no request id, so an error caused by a
// concurrent Action can be delivered to a waiting Request.
func (c *Client) Request(ctx context.Context, messageType protocol.MessageType, fields map[string]any, responseTypes ...protocol.MessageType) (Message, error) {
	w := c.wait(append(responseTypes, protocol.TypeError)...)
	defer c.unwait(w)

	if err := c.Send(messageType, fields); err != nil {
		return Message{}, err
	}

	select {
	case msg := <-w.ch:
		if msg.Type == protocol.TypeError {
			text, _ := msg.String("message")
			return msg, &ServerError{Message: text}
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.ctx.Done():
		return Message{}, ErrNotConnected
	}
}

func (c *Client) wait(types ...protocol.MessageType) *waiter {
	w := &waiter{types: types, ch: make(chan Message, 1)}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return w
}

func (c *Client) unwait(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.waiters {
		if other == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// readPump decodes frames from the server
func (c *Client) readPump() {
	defer c.Disconnect()

	for {
		frame, err := c.conn.ReadFrame()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Debug("Connection closed", "error", err)
			}
			return
		}

		decoded, err := protocol.Decode(frame)
		if err != nil {
			c.logger.Warn("Ignoring malformed message", "error", err)
			continue
		}
		c.logger.Debug("Received message", "type", decoded.Type)

		select {
		case c.receive <- Message{Message: decoded, Frame: frame}:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump writes queued frames to the server
func (c *Client) writePump() {
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteFrame(frame); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Disconnect()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor dispatches received messages to waiters and handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage hands msg to the oldest waiter expecting its type and to
// every registered handler.
func (c *Client) handleMessage(msg Message) {
	c.mu.Lock()
	for i, w := range c.waiters {
		if wants(w.types, msg.Type) {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			w.ch <- msg
			break
		}
	}
	handlers := append([]EventHandler(nil), c.eventHandlers[msg.Type]...)
	handlers = append(handlers, c.eventHandlers[AllMessages]...)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

func wants(types []protocol.MessageType, t protocol.MessageType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
