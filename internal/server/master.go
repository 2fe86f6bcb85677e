package server

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/protocol"
)

// GameMaster owns the registered game types and the running games. Its maps
// are guarded by mu; each hosted game has its own lock.
type GameMaster struct {
	loader *gamedef.Loader
	clock  quartz.Clock
	logger *log.Logger

	mu         sync.RWMutex
	types      map[int]*gamedef.Definition
	nextTypeID int
	games      map[int]*hostedGame
	nextGameID int
}

// NewGameMaster creates an empty game master.
func NewGameMaster(loader *gamedef.Loader, logger *log.Logger, clock quartz.Clock) *GameMaster {
	return &GameMaster{
		loader: loader,
		clock:  clock,
		logger: logger.WithPrefix("master"),
		types:  make(map[int]*gamedef.Definition),
		games:  make(map[int]*hostedGame),
	}
}

// Register loads the definition at path and returns its game type id.
func (m *GameMaster) Register(path string) (int, error) {
	def, err := m.loader.Load(path)
	if err != nil {
		return 0, err
	}
	return m.RegisterDefinition(def), nil
}

// RegisterDefinition adds an already loaded definition.
func (m *GameMaster) RegisterDefinition(def *gamedef.Definition) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextTypeID
	m.nextTypeID++
	m.types[id] = def
	m.logger.Info("Registered game type", "id", id, "name", def.Name, "path", def.Path)
	return id
}

// GameTypes lists the registered game types by id.
func (m *GameMaster) GameTypes() []protocol.GameType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.GameType, 0, len(m.types))
	for _, id := range slices.Sorted(maps.Keys(m.types)) {
		out = append(out, protocol.GameType{ID: id, Name: m.types[id].Name})
	}
	return out
}

// Create instantiates a game of the given type and returns its game id.
func (m *GameMaster) Create(typeID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.types[typeID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownGameType, typeID)
	}
	g, err := def.Factory()
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", def.Name, err)
	}

	id := m.nextGameID
	m.nextGameID++
	m.games[id] = &hostedGame{
		id:        id,
		typeID:    typeID,
		name:      def.Name,
		createdAt: m.clock.Now(),
		game:      g,
	}
	m.logger.Info("Created game", "game", id, "type", typeID, "name", def.Name)
	return id, nil
}

// Destroy removes a game and evicts every session joined to it.
func (m *GameMaster) Destroy(gameID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownGame, gameID)
	}
	delete(m.games, gameID)

	h.mu.Lock()
	evicted := h.destroy()
	h.mu.Unlock()

	m.logger.Info("Destroyed game", "game", gameID, "evicted", evicted)
	return nil
}

// Game returns the hosted game with the given id.
func (m *GameMaster) Game(gameID int) (*hostedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGame, gameID)
	}
	return h, nil
}

// Games describes every running game by id.
func (m *GameMaster) Games() []protocol.GameInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]protocol.GameInfo, 0, len(m.games))
	for _, id := range slices.Sorted(maps.Keys(m.games)) {
		out = append(out, m.games[id].info())
	}
	return out
}

// hostedGame is a running game together with its room. mu serializes every
// access to the game, its transition log and the room.
type hostedGame struct {
	id        int
	typeID    int
	name      string
	createdAt time.Time

	mu        sync.Mutex
	game      *game.Game
	room      *Room
	destroyed bool
}

// join adds s to the room, creating the room on first join. Callers hold mu.
func (h *hostedGame) join(s *Session) {
	if h.room == nil {
		h.room = &Room{}
	}
	h.room.add(s)
}

// leave removes s from the room and drops the room once it is empty.
// Callers hold mu.
func (h *hostedGame) leave(s *Session) bool {
	if h.room == nil || !h.room.has(s) {
		return false
	}
	h.room.remove(s)
	if h.room.Len() == 0 {
		h.room = nil
	}
	return true
}

// hasSession reports whether s is in the room. Callers hold mu.
func (h *hostedGame) hasSession(s *Session) bool {
	return h.room != nil && h.room.has(s)
}

// fanOut delivers the pending transitions to the room and then flushes the
// log exactly once. Callers hold mu.
func (h *hostedGame) fanOut() {
	batch := h.game.AllTransitions()
	if h.room != nil {
		h.room.deliver(batch)
	}
	h.game.FlushAll()
}

// broadcast sends v to the whole room. Callers hold mu.
func (h *hostedGame) broadcast(v any) {
	if h.room != nil {
		h.room.broadcast(v)
	}
}

// destroy marks the game destroyed and detaches every session. Callers hold
// mu.
func (h *hostedGame) destroy() int {
	h.destroyed = true
	if h.room == nil {
		return 0
	}
	sessions := h.room.sessions
	h.room = nil
	for _, s := range sessions {
		s.detach(h)
	}
	return len(sessions)
}

func (h *hostedGame) info() protocol.GameInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := 0
	if h.room != nil {
		sessions = h.room.Len()
	}
	return protocol.GameInfo{
		GameID:     h.id,
		GameTypeID: h.typeID,
		Name:       h.name,
		Players:    len(h.game.Players()),
		Sessions:   sessions,
		CreatedAt:  h.createdAt.UTC().Format(time.RFC3339),
	}
}
