package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/games"
	"github.com/lox/deckr/internal/protocol"
)

const (
	testSecret  = "secret"
	readTimeout = 2 * time.Second
	quietPeriod = 100 * time.Millisecond
)

// Game type ids registered by newTestMaster.
const (
	simpleType = iota
	highCardType
	soloType
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestMaster(t *testing.T, clock quartz.Clock) *GameMaster {
	t.Helper()
	loader := gamedef.NewLoader(games.Catalog(), 1)
	master := NewGameMaster(loader, testLogger(), clock)

	for _, src := range []string{
		`name = "Simple Game"
game = "simple"`,
		`name = "High Card"
game = "highcard"`,
		`name = "Solo"
game = "simple"
max_players = 1`,
	} {
		def, err := loader.Parse([]byte(src), "game.hcl")
		require.NoError(t, err)
		master.RegisterDefinition(def)
	}
	return master
}

func testSettings() ServerSettings {
	return ServerSettings{
		Address:     "127.0.0.1:0",
		HTTPAddress: "127.0.0.1:0",
		SecretKey:   testSecret,
		SendBuffer:  DefaultSendBuffer,
	}
}

// recorder is a sender that keeps every frame for inspection.
type recorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recorder) Send(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

// drain returns and forgets every recorded message.
func (r *recorder) drain(t *testing.T) []map[string]any {
	t.Helper()
	r.mu.Lock()
	frames := r.frames
	r.frames = nil
	r.mu.Unlock()

	out := make([]map[string]any, len(frames))
	for i, f := range frames {
		require.NoError(t, json.Unmarshal(f, &out[i]))
	}
	return out
}

// testSession drives a session directly, without a network connection.
type testSession struct {
	t   *testing.T
	s   *Session
	rec *recorder
}

func newTestSession(t *testing.T, srv *Server, id string) *testSession {
	rec := &recorder{}
	return &testSession{t: t, s: newSession(id, rec, srv), rec: rec}
}

func (ts *testSession) do(line string) []map[string]any {
	ts.t.Helper()
	ts.s.Handle([]byte(line))
	return ts.rec.drain(ts.t)
}

func (ts *testSession) request(fields map[string]any) []map[string]any {
	ts.t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(ts.t, err)
	return ts.do(string(data))
}

// expect sends a request and requires exactly one response of the given type.
func (ts *testSession) expect(fields map[string]any, messageType string) map[string]any {
	ts.t.Helper()
	msgs := ts.request(fields)
	require.Len(ts.t, msgs, 1, "responses: %v", msgs)
	require.Equal(ts.t, messageType, msgs[0]["message_type"], "response: %v", msgs[0])
	return msgs[0]
}

func (ts *testSession) expectError(fields map[string]any, message string) {
	ts.t.Helper()
	resp := ts.expect(fields, "error")
	require.Equal(ts.t, message, resp["message"])
}

// startTestServer serves on loopback until the test ends.
func startTestServer(t *testing.T) (*Server, *GameMaster) {
	t.Helper()
	clock := quartz.NewMock(t)
	master := newTestMaster(t, clock)
	srv := NewServer(testSettings(), master, testLogger(), clock)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return srv, master
}

// frameConn is a test client for either transport.
type frameConn interface {
	writeFrame(data []byte) error
	readFrame(timeout time.Duration) ([]byte, error)
	close()
}

type lineConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (c *lineConn) writeFrame(data []byte) error {
	_, err := c.conn.Write(append(data, '\n'))
	return err
}

func (c *lineConn) readFrame(timeout time.Duration) ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	return c.reader.ReadBytes('\n')
}

func (c *lineConn) close() { _ = c.conn.Close() }

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) writeFrame(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) readFrame(timeout time.Duration) ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) close() { _ = c.conn.Close() }

type testClient struct {
	t    *testing.T
	conn frameConn
}

func dialTCP(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	c := &testClient{t: t, conn: &lineConn{conn: conn, reader: bufio.NewReader(conn)}}
	t.Cleanup(c.conn.close)
	return c
}

func dialWS(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.HTTPAddr().String()+"/ws", nil)
	require.NoError(t, err)
	c := &testClient{t: t, conn: &wsConn{conn: conn}}
	t.Cleanup(c.conn.close)
	return c
}

func (c *testClient) sendRaw(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.writeFrame([]byte(line)))
}

func (c *testClient) send(fields map[string]any) {
	c.t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.writeFrame(data))
}

func (c *testClient) read() map[string]any {
	c.t.Helper()
	data, err := c.conn.readFrame(readTimeout)
	require.NoError(c.t, err)
	var msg map[string]any
	require.NoError(c.t, json.Unmarshal(data, &msg))
	return msg
}

func (c *testClient) expect(messageType string) map[string]any {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, messageType, msg["message_type"], "message: %v", msg)
	return msg
}

// expectQuiet requires that nothing arrives for a short while.
func (c *testClient) expectQuiet() {
	c.t.Helper()
	data, err := c.conn.readFrame(quietPeriod)
	require.Error(c.t, err, "unexpected message: %s", data)
	var netErr net.Error
	require.ErrorAs(c.t, err, &netErr)
	require.True(c.t, netErr.Timeout(), "expected a timeout, got %v", err)
}

type protocolMessage = protocol.Message

func mustDecode(t *testing.T, line string) *protocol.Message {
	t.Helper()
	m, err := protocol.Decode([]byte(line))
	require.NoError(t, err)
	return m
}
