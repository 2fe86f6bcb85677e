package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1 << 20
)

// transport moves whole frames over a client connection. ReadFrame is only
// called by the read goroutine and WriteFrame only by the write goroutine.
type transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
	Kind() string
}

// errFrameTooLong is returned by ReadFrame for a line longer than
// maxMessageSize. The line has been discarded and the stream is still usable.
var errFrameTooLong = errors.New("server: frame exceeds maximum message size")

// lineTransport frames messages as newline terminated lines over a stream.
type lineTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newLineTransport(conn net.Conn) *lineTransport {
	return &lineTransport{conn: conn, reader: bufio.NewReader(conn)}
}

// ReadFrame returns the next non-blank line without its terminator.
func (t *lineTransport) ReadFrame() ([]byte, error) {
	for {
		line, err := t.readLine()
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// readLine reads up to the next newline. An unterminated final line is
// returned before the stream reports it is closed.
func (t *lineTransport) readLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := t.reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxMessageSize+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, errFrameTooLong
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) > 0 && !tooLong {
				return line, nil
			}
			return nil, net.ErrClosed
		default:
			return nil, err
		}
	}
}

func (t *lineTransport) WriteFrame(frame []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	_, err := t.conn.Write(buf)
	return err
}

func (t *lineTransport) Close() error {
	return t.conn.Close()
}

func (t *lineTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

func (t *lineTransport) Kind() string {
	return "tcp"
}

// wsTransport carries one message per websocket text frame.
type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	conn.SetReadLimit(maxMessageSize)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WriteFrame(frame []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *wsTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

func (t *wsTransport) Kind() string {
	return "websocket"
}
