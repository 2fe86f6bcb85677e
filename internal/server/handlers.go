package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/protocol"
)

// handlerFunc handles one decoded request. A returned error is sent to the
// client as an error message.
type handlerFunc func(s *Session, msg *protocol.Message) error

// guard wraps a handler with a precondition. A failing guard answers the
// request itself and the handler never runs.
type guard func(next handlerFunc) handlerFunc

// chain applies guards so that the first one listed is checked first.
func chain(h handlerFunc, guards ...guard) handlerFunc {
	for i := len(guards) - 1; i >= 0; i-- {
		h = guards[i](h)
	}
	return h
}

func requireAuth(next handlerFunc) handlerFunc {
	return func(s *Session, msg *protocol.Message) error {
		if !s.authenticated {
			return &RequestError{Message: msgNotAuthenticated}
		}
		return next(s, msg)
	}
}

func requireArgs(names ...string) guard {
	return func(next handlerFunc) handlerFunc {
		return func(s *Session, msg *protocol.Message) error {
			for _, name := range names {
				if !msg.Has(name) {
					return missingArgument(name)
				}
			}
			return next(s, msg)
		}
	}
}

func requireJoined(next handlerFunc) handlerFunc {
	return func(s *Session, msg *protocol.Message) error {
		if h, _ := s.current(); h == nil {
			return &RequestError{Message: msgNotJoined}
		}
		return next(s, msg)
	}
}

func requireNotJoined(next handlerFunc) handlerFunc {
	return func(s *Session, msg *protocol.Message) error {
		if h, _ := s.current(); h != nil {
			return &RequestError{Message: msgAlreadyJoined}
		}
		return next(s, msg)
	}
}

// handlers returns the request table.
func handlers() map[protocol.MessageType]handlerFunc {
	return map[protocol.MessageType]handlerFunc{
		protocol.TypeAuthenticate: chain(handleAuthenticate, requireArgs(protocol.FieldSecretKey)),
		protocol.TypeRegisterGame: chain(handleRegisterGame, requireAuth, requireArgs(protocol.FieldGameDefinitionPath)),
		protocol.TypeList:         handleList,
		protocol.TypeListGames:    handleListGames,
		protocol.TypeCreate:       chain(handleCreate, requireArgs(protocol.FieldGameTypeID)),
		protocol.TypeDestroy:      chain(handleDestroy, requireArgs(protocol.FieldGameID)),
		protocol.TypeJoin:         chain(handleJoin, requireArgs(protocol.FieldGameID), requireNotJoined),
		protocol.TypeQuit:         chain(handleQuit, requireJoined),
		protocol.TypeGameState:    chain(handleGameState, requireJoined),
		protocol.TypeStart:        chain(handleStart, requireJoined),
		protocol.TypeAction:       chain(handleAction, requireJoined, requireArgs(protocol.FieldAction)),
	}
}

// withGame runs fn under the joined game's lock. It fails when the session
// left or the game was destroyed in the meantime.
func (s *Session) withGame(fn func(h *hostedGame, player *game.Player) error) error {
	h, _ := s.current()
	if h == nil {
		return &RequestError{Message: msgNotJoined}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed || !h.hasSession(s) {
		return &RequestError{Message: msgNotJoined}
	}
	_, player := s.current()
	return fn(h, player)
}

func handleAuthenticate(s *Session, msg *protocol.Message) error {
	secret, err := msg.String(protocol.FieldSecretKey)
	if err != nil {
		return &RequestError{Message: msgInvalidSecret}
	}
	if err := s.server.validator.Validate(context.Background(), secret); err != nil {
		s.logger.Warn("Rejected secret key")
		return &RequestError{Message: msgInvalidSecret}
	}
	s.authenticated = true
	s.send(protocol.Authenticated{Type: protocol.TypeAuthenticated})
	return nil
}

func handleRegisterGame(s *Session, msg *protocol.Message) error {
	path, err := msg.String(protocol.FieldGameDefinitionPath)
	if err != nil {
		return requestErrorf("%s: game_definition_path must be a string", gamedef.ErrInvalidDefinition)
	}
	id, err := s.server.master.Register(path)
	if err != nil {
		if errors.Is(err, gamedef.ErrInvalidDefinition) {
			return &RequestError{Message: err.Error()}
		}
		return err
	}
	s.send(protocol.RegisterGameResponse{Type: protocol.TypeRegisterGameResponse, GameDefinitionID: id})
	return nil
}

func handleList(s *Session, _ *protocol.Message) error {
	s.send(protocol.ListResponse{Type: protocol.TypeListResponse, GameTypes: s.server.master.GameTypes()})
	return nil
}

func handleListGames(s *Session, _ *protocol.Message) error {
	s.send(protocol.ListGamesResponse{Type: protocol.TypeListGamesResponse, Games: s.server.master.Games()})
	return nil
}

func handleCreate(s *Session, msg *protocol.Message) error {
	typeID, err := msg.Int(protocol.FieldGameTypeID)
	if err != nil {
		return requestErrorf("No game type with id %s", msg.Raw(protocol.FieldGameTypeID))
	}
	gameID, err := s.server.master.Create(typeID)
	if err != nil {
		if errors.Is(err, ErrUnknownGameType) {
			return requestErrorf("No game type with id %d", typeID)
		}
		return err
	}
	s.send(protocol.CreateResponse{Type: protocol.TypeCreateResponse, GameID: gameID, GameTypeID: typeID})
	return nil
}

func handleDestroy(s *Session, msg *protocol.Message) error {
	gameID, err := msg.Int(protocol.FieldGameID)
	if err != nil {
		return requestErrorf("No game with id %s", msg.Raw(protocol.FieldGameID))
	}
	if err := s.server.master.Destroy(gameID); err != nil {
		return requestErrorf("No game with id %d", gameID)
	}
	s.send(protocol.DestroyResponse{Type: protocol.TypeDestroyResponse, GameID: gameID})
	return nil
}

func handleJoin(s *Session, msg *protocol.Message) error {
	gameID, err := msg.Int(protocol.FieldGameID)
	if err != nil {
		return requestErrorf("No game with id %s", msg.Raw(protocol.FieldGameID))
	}
	h, err := s.server.master.Game(gameID)
	if err != nil {
		return requestErrorf("No game with id %d", gameID)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return requestErrorf("No game with id %d", gameID)
	}

	player, err := s.claimSeat(h, msg)
	if err != nil {
		return err
	}

	s.attach(h, player)
	h.join(s)

	resp := protocol.JoinResponse{Type: protocol.TypeJoinResponse}
	if player != nil {
		id, _ := player.ID()
		resp.PlayerID = &id
		s.logger.Info("Joined game", "game", gameID, "player", id)
	} else {
		s.logger.Info("Joined game as spectator", "game", gameID)
	}
	s.send(resp)

	// A new seat registers zones, which other players are told about.
	h.fanOut()
	return nil
}

// claimSeat resolves the player_id of a join request: absent joins as a
// spectator, null takes a new seat and an id rejoins that seat.
func (s *Session) claimSeat(h *hostedGame, msg *protocol.Message) (*game.Player, error) {
	switch {
	case !msg.Has(protocol.FieldPlayerID):
		return nil, nil
	case msg.IsNull(protocol.FieldPlayerID):
		player, err := h.game.AddPlayer()
		if errors.Is(err, game.ErrTooManyPlayers) {
			return nil, &RequestError{Message: msgGameFull}
		}
		return player, err
	}

	playerID, err := msg.Int(protocol.FieldPlayerID)
	if err != nil {
		return nil, requestErrorf("No player with id %s", msg.Raw(protocol.FieldPlayerID))
	}
	player, err := game.LookupAs[*game.Player](h.game, playerID)
	if err != nil {
		return nil, requestErrorf("No player with id %d", playerID)
	}
	return player, nil
}

func handleQuit(s *Session, _ *protocol.Message) error {
	return s.withGame(func(h *hostedGame, _ *game.Player) error {
		h.leave(s)
		s.detach(h)
		s.send(protocol.QuitResponse{Type: protocol.TypeQuitResponse})
		s.logger.Info("Quit game", "game", h.id)
		return nil
	})
}

func handleGameState(s *Session, _ *protocol.Message) error {
	return s.withGame(func(h *hostedGame, player *game.Player) error {
		s.send(protocol.GameStateResponse{
			Type:      protocol.TypeGameStateResponse,
			GameState: h.game.State(player),
		})
		return nil
	})
}

func handleStart(s *Session, _ *protocol.Message) error {
	return s.withGame(func(h *hostedGame, _ *game.Player) error {
		err := h.game.SetUp()
		h.game.FlushAll()
		if err != nil {
			return fmt.Errorf("set up game %d: %w", h.id, err)
		}
		h.broadcast(protocol.Start{Type: protocol.TypeStart})
		s.logger.Info("Started game", "game", h.id)
		return nil
	})
}

func handleAction(s *Session, msg *protocol.Message) error {
	name, err := msg.String(protocol.FieldAction)
	if err != nil {
		return requestErrorf("Invalid action: %s", msg.Raw(protocol.FieldAction))
	}

	return s.withGame(func(h *hostedGame, player *game.Player) error {
		action, ok := h.game.Action(name)
		if !ok {
			return requestErrorf("Invalid action: %s", name)
		}
		args, err := actionArgs(h.game, action, msg)
		if err != nil {
			return err
		}

		err = h.game.Do(name, player, args)
		h.fanOut()

		var restriction *game.RestrictionError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &restriction):
			return &RequestError{Message: restriction.Description}
		default:
			return requestErrorf("Action %s failed: %v", name, err)
		}
	})
}

// actionArgs collects every request field except the action name. Declared
// parameters are resolved from ids (or lists of ids) to entities of the
// declared kind.
func actionArgs(g *game.Game, action *game.Action, msg *protocol.Message) (game.Args, error) {
	for param := range action.Params {
		if !msg.Has(param) {
			return nil, missingArgument(param)
		}
	}

	args := make(game.Args)
	for _, name := range msg.Names() {
		if name == protocol.FieldAction {
			continue
		}
		kind, declared := action.Params[name]
		if !declared {
			v, err := msg.Value(name)
			if err != nil {
				return nil, requestErrorf("Invalid argument %s", name)
			}
			args[name] = v
			continue
		}

		resolved, err := resolveParam(g, msg, name, kind)
		if err != nil {
			return nil, err
		}
		args[name] = resolved
	}
	return args, nil
}

// resolveParam accepts a single id or a list of ids. Null, alone or inside
// a list, is not an id.
func resolveParam(g *game.Game, msg *protocol.Message, name string, kind game.Kind) (any, error) {
	if msg.IsNull(name) {
		return nil, requestErrorf("Invalid argument %s: expected an object id", name)
	}

	var refs []*int
	if err := msg.Decode(name, &refs); err == nil {
		ids := make([]int, len(refs))
		for i, ref := range refs {
			if ref == nil {
				return nil, requestErrorf("Invalid argument %s: expected an object id", name)
			}
			ids[i] = *ref
		}
		entities, err := g.LookupAll(ids, kind)
		if err != nil {
			return nil, lookupError(name, err)
		}
		return entities, nil
	}

	id, err := msg.Int(name)
	if err != nil {
		return nil, requestErrorf("Invalid argument %s: expected an object id", name)
	}
	e, err := g.Lookup(id, kind)
	if err != nil {
		return nil, lookupError(name, err)
	}
	return e, nil
}

func lookupError(name string, err error) error {
	if errors.Is(err, game.ErrNotFound) {
		return requestErrorf("Invalid argument %s: no object with that id", name)
	}
	return requestErrorf("Invalid argument %s: %v", name, err)
}
