package server

import (
	"slices"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/protocol"
)

// Room is the set of sessions subscribed to one hosted game, in join order.
// It is guarded by the hosted game's lock.
type Room struct {
	sessions []*Session
}

func (r *Room) add(s *Session) {
	if !slices.Contains(r.sessions, s) {
		r.sessions = append(r.sessions, s)
	}
}

func (r *Room) remove(s *Session) {
	r.sessions = slices.DeleteFunc(r.sessions, func(other *Session) bool { return other == s })
}

func (r *Room) has(s *Session) bool {
	return slices.Contains(r.sessions, s)
}

// Len returns the number of sessions in the room.
func (r *Room) Len() int {
	return len(r.sessions)
}

// deliver hands every session the full per-player batch; each session picks
// out its own player's queue.
func (r *Room) deliver(batch []game.PlayerTransitions) {
	for _, s := range r.sessions {
		s.deliver(batch)
	}
}

// broadcast sends v to every session in the room.
func (r *Room) broadcast(v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		return
	}
	for _, s := range r.sessions {
		s.sendFrame(frame)
	}
}
