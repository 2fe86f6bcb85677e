package client

import (
	"context"
	"encoding/json"

	"github.com/lox/deckr/internal/protocol"
)

type seatKind int

const (
	seatSpectator seatKind = iota
	seatNew
	seatRejoin
)

// Seat selects how Join claims a player.
type Seat struct {
	kind     seatKind
	playerID int
}

var (
	// Spectate joins without a player.
	Spectate = Seat{kind: seatSpectator}
	// NewSeat takes a new player seat.
	NewSeat = Seat{kind: seatNew}
)

// Rejoin takes over an existing player seat.
func Rejoin(playerID int) Seat {
	return Seat{kind: seatRejoin, playerID: playerID}
}

func (s Seat) apply(fields map[string]any) {
	switch s.kind {
	case seatNew:
		fields[protocol.FieldPlayerID] = nil
	case seatRejoin:
		fields[protocol.FieldPlayerID] = s.playerID
	}
}

// Authenticate sends the management secret.
func (c *Client) Authenticate(ctx context.Context, secret string) error {
	_, err := c.Request(ctx, protocol.TypeAuthenticate,
		map[string]any{protocol.FieldSecretKey: secret},
		protocol.TypeAuthenticated)
	return err
}

// RegisterGame registers the definition at path on the server and returns
// its game type id.
func (c *Client) RegisterGame(ctx context.Context, path string) (int, error) {
	msg, err := c.Request(ctx, protocol.TypeRegisterGame,
		map[string]any{protocol.FieldGameDefinitionPath: path},
		protocol.TypeRegisterGameResponse)
	if err != nil {
		return 0, err
	}
	return msg.Int("game_definition_id")
}

// GameTypes lists the registered game types.
func (c *Client) GameTypes(ctx context.Context) ([]protocol.GameType, error) {
	msg, err := c.Request(ctx, protocol.TypeList, nil, protocol.TypeListResponse)
	if err != nil {
		return nil, err
	}
	var types []protocol.GameType
	err = msg.Decode("game_types", &types)
	return types, err
}

// Games lists the running games.
func (c *Client) Games(ctx context.Context) ([]protocol.GameInfo, error) {
	msg, err := c.Request(ctx, protocol.TypeListGames, nil, protocol.TypeListGamesResponse)
	if err != nil {
		return nil, err
	}
	var games []protocol.GameInfo
	err = msg.Decode("games", &games)
	return games, err
}

// Create starts a game of the given type and returns its game id.
func (c *Client) Create(ctx context.Context, gameTypeID int) (int, error) {
	msg, err := c.Request(ctx, protocol.TypeCreate,
		map[string]any{protocol.FieldGameTypeID: gameTypeID},
		protocol.TypeCreateResponse)
	if err != nil {
		return 0, err
	}
	return msg.Int(protocol.FieldGameID)
}

// Destroy removes a game.
func (c *Client) Destroy(ctx context.Context, gameID int) error {
	_, err := c.Request(ctx, protocol.TypeDestroy,
		map[string]any{protocol.FieldGameID: gameID},
		protocol.TypeDestroyResponse)
	return err
}

// Join joins a game and returns the bound player id, or nil when
// spectating.
func (c *Client) Join(ctx context.Context, gameID int, seat Seat) (*int, error) {
	fields := map[string]any{protocol.FieldGameID: gameID}
	seat.apply(fields)

	msg, err := c.Request(ctx, protocol.TypeJoin, fields, protocol.TypeJoinResponse)
	if err != nil {
		return nil, err
	}
	if msg.IsNull(protocol.FieldPlayerID) {
		return nil, nil
	}
	id, err := msg.Int(protocol.FieldPlayerID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Quit leaves the joined game.
func (c *Client) Quit(ctx context.Context) error {
	_, err := c.Request(ctx, protocol.TypeQuit, nil, protocol.TypeQuitResponse)
	return err
}

// Start sets up the joined game and waits for the start broadcast.
func (c *Client) Start(ctx context.Context) error {
	_, err := c.Request(ctx, protocol.TypeStart, nil, protocol.TypeStart)
	return err
}

// GameState fetches every object of the joined game as this client sees it.
func (c *Client) GameState(ctx context.Context) ([]map[string]any, error) {
	msg, err := c.Request(ctx, protocol.TypeGameState, nil, protocol.TypeGameStateResponse)
	if err != nil {
		return nil, err
	}
	var state []map[string]any
	err = msg.Decode("game_state", &state)
	return state, err
}

// Action invokes a game action. Successful actions have no response; their
// effects arrive as update messages and a failure arrives as an error
// message, which a concurrent Request may pick up.
func (c *Client) Action(name string, args map[string]any) error {
	fields := make(map[string]any, len(args)+1)
	for k, v := range args {
		fields[k] = v
	}
	fields[protocol.FieldAction] = name
	return c.Send(protocol.TypeAction, fields)
}

// Update is a decoded update message. Set updates fill GameObject, Field
// and Value; add and remove updates fill TargetZone and Object, which is nil
// for objects the server no longer addresses.
type Update struct {
	UpdateType string          `json:"update_type"`
	GameObject int             `json:"game_object"`
	Field      string          `json:"field"`
	Value      json.RawMessage `json:"value"`
	TargetZone int             `json:"target_zone"`
	Object     *int            `json:"object"`
}

// ParseUpdate decodes an update message.
func ParseUpdate(msg Message) (Update, error) {
	var u Update
	err := json.Unmarshal(msg.Frame, &u)
	return u, err
}
