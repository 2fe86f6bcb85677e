package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/deckr/internal/auth"
	"github.com/lox/deckr/internal/protocol"
)

// ShutdownGrace bounds how long Serve waits for HTTP handlers on shutdown.
const ShutdownGrace = 5 * time.Second

// Server accepts line protocol clients over TCP and, when an HTTP address is
// configured, websocket clients at /ws.
type Server struct {
	settings  ServerSettings
	master    *GameMaster
	validator auth.Validator
	handlers  map[protocol.MessageType]handlerFunc
	upgrader  websocket.Upgrader
	logger    *log.Logger
	clock     quartz.Clock

	listener     net.Listener
	httpListener net.Listener
	httpServer   *http.Server

	mu          sync.Mutex
	closing     bool
	connections map[*Connection]struct{}
	conns       sync.WaitGroup
}

// NewServer creates a server for the given game master.
func NewServer(settings ServerSettings, master *GameMaster, logger *log.Logger, clock quartz.Clock) *Server {
	if settings.SendBuffer < 1 {
		settings.SendBuffer = DefaultSendBuffer
	}
	return &Server{
		settings:  settings,
		master:    master,
		validator: auth.NewSecretValidator(settings.SecretKey),
		handlers:  handlers(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		clock:       clock,
		connections: make(map[*Connection]struct{}),
	}
}

// Listen binds the configured addresses. Failing to bind is the only fatal
// server error.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.settings.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.settings.Address, err)
	}
	s.listener = l

	if s.settings.HTTPAddress == "" {
		return nil
	}
	hl, err := net.Listen("tcp", s.settings.HTTPAddress)
	if err != nil {
		_ = l.Close()
		return fmt.Errorf("listen on %s: %w", s.settings.HTTPAddress, err)
	}
	s.httpListener = hl

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: writeWait}
	return nil
}

// Addr returns the bound TCP address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// HTTPAddr returns the bound HTTP address, or nil when HTTP is disabled.
func (s *Server) HTTPAddr() net.Addr {
	if s.httpListener == nil {
		return nil
	}
	return s.httpListener.Addr()
}

// Run binds and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts clients until ctx is cancelled, then closes every
// connection and waits for them to leave their games.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	s.logger.Info("Listening", "addr", s.listener.Addr().String())
	g.Go(func() error {
		return s.acceptLoop(ctx)
	})

	if s.httpServer != nil {
		s.logger.Info("Serving websocket", "addr", s.httpListener.Addr().String())
		g.Go(func() error {
			if err := s.httpServer.Serve(s.httpListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.shutdown()
		return nil
	})

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.serveConn(newLineTransport(conn))
	}
}

func (s *Server) serveConn(t transport) {
	c := newConnection(t, s)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = t.Close()
		return
	}
	s.connections[c] = struct{}{}
	s.conns.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.connections, c)
		s.mu.Unlock()
		s.conns.Done()
	}()

	c.serve()
}

func (s *Server) shutdown() {
	s.logger.Info("Shutting down")
	_ = s.listener.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		timer := s.clock.AfterFunc(ShutdownGrace, cancel)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP shutdown incomplete", "error", err)
		}
		timer.Stop()
		cancel()
	}

	s.mu.Lock()
	s.closing = true
	for c := range s.connections {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.conns.Wait()
}

// ConnectionCount returns the number of open client connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	s.serveConn(newWSTransport(conn))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
