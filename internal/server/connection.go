package server

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/deckr/internal/protocol"
)

// Connection pumps frames between a transport and its session. Inbound frames
// are handled one at a time on the read goroutine; outbound frames go through
// a buffered channel drained by the write goroutine.
type Connection struct {
	id        string
	transport transport
	send      chan []byte
	session   *Session
	logger    *log.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(t transport, srv *Server) *Connection {
	id := uuid.NewString()
	c := &Connection{
		id:        id,
		transport: t,
		send:      make(chan []byte, srv.settings.SendBuffer),
		logger:    srv.logger.WithPrefix("conn").With("conn", id, "transport", t.Kind()),
		done:      make(chan struct{}),
	}
	c.session = newSession(id, c, srv)
	return c
}

// Send queues a frame. A full buffer means the client is not keeping up, so
// the connection is closed.
func (c *Connection) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Close closes the transport. The read goroutine then evicts the session.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.transport.Close()
	})
	return err
}

// serve runs the connection until the peer goes away or Close is called.
// The session has left its room by the time serve returns.
func (c *Connection) serve() {
	c.logger.Info("Client connected", "remote", c.transport.RemoteAddr())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.readPump()
	c.session.Close()
	_ = c.Close()
	wg.Wait()

	c.logger.Info("Client disconnected")
}

// readPump handles incoming frames from the client
func (c *Connection) readPump() {
	for {
		frame, err := c.transport.ReadFrame()
		if errors.Is(err, errFrameTooLong) {
			c.logger.Warn("Discarded oversized frame", "limit", maxMessageSize)
			c.session.sendError(protocol.ErrMalformedJSON.Error())
			continue
		}
		if err != nil {
			if !isClosedError(err) {
				c.logger.Error("Read failed", "error", err)
			}
			return
		}
		c.session.Handle(frame)
	}
}

// writePump handles outgoing frames to the client
func (c *Connection) writePump() {
	for {
		select {
		case frame := <-c.send:
			if err := c.transport.WriteFrame(frame); err != nil {
				if !isClosedError(err) {
					c.logger.Error("Failed to write message", "error", err)
				}
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
