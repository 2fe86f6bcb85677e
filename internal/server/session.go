package server

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/protocol"
)

// sender queues an encoded frame for delivery to the client.
type sender interface {
	Send(frame []byte) error
}

// Session is the protocol state of one connection: whether it authenticated
// and which game and seat it joined. Requests are handled one at a time on
// the connection's read goroutine.
type Session struct {
	id     string
	out    sender
	server *Server
	logger *log.Logger

	// authenticated is only touched by the read goroutine.
	authenticated bool

	// mu guards hosted and player, which destroy can clear from another
	// goroutine.
	mu     sync.Mutex
	hosted *hostedGame
	player *game.Player
}

func newSession(id string, out sender, srv *Server) *Session {
	return &Session{
		id:     id,
		out:    out,
		server: srv,
		logger: srv.logger.WithPrefix("session").With("session", id),
	}
}

// Handle processes one inbound frame and queues the responses.
func (s *Session) Handle(frame []byte) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		s.logger.Debug("Malformed message", "error", err)
		s.sendError(err.Error())
		return
	}

	h, ok := s.server.handlers[msg.Type]
	if !ok {
		s.sendError(protocol.ErrUnknownMessageType.Error())
		return
	}

	s.logger.Debug("Handling request", "type", msg.Type)
	if err := h(s, msg); err != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			s.logger.Error("Request failed", "type", msg.Type, "error", err)
		}
		s.sendError(err.Error())
	}
}

// Close quits the joined game, if any. It returns once the session is out
// of the room.
func (s *Session) Close() {
	h, _ := s.current()
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.leave(s) {
		s.logger.Debug("Left game on close", "game", h.id)
	}
	s.detach(h)
}

// current returns the joined game and bound player.
func (s *Session) current() (*hostedGame, *game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hosted, s.player
}

// attach records the joined game and seat. Callers hold h.mu.
func (s *Session) attach(h *hostedGame, player *game.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosted = h
	s.player = player
}

// detach clears the joined state if it still refers to h. Callers hold h.mu.
func (s *Session) detach(h *hostedGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hosted == h {
		s.hosted = nil
		s.player = nil
	}
}

// deliver sends one update per transition queued for this session's player,
// in queue order. Spectators receive nothing. Callers hold the hosted game's
// lock.
func (s *Session) deliver(batch []game.PlayerTransitions) {
	_, player := s.current()
	if player == nil {
		return
	}
	for _, pt := range batch {
		if pt.Player != player {
			continue
		}
		for _, t := range pt.Transitions {
			s.send(protocol.Update{Transition: t})
		}
	}
}

func (s *Session) send(v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		s.logger.Error("Failed to encode message", "error", err)
		return
	}
	s.sendFrame(frame)
}

func (s *Session) sendFrame(frame []byte) {
	if err := s.out.Send(frame); err != nil {
		s.logger.Debug("Dropped message", "error", err)
	}
}

func (s *Session) sendError(message string) {
	s.send(protocol.NewError(message))
}
