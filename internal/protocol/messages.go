package protocol

import (
	"encoding/json"

	"github.com/lox/deckr/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeAuthenticate MessageType = "authenticate"
	TypeRegisterGame MessageType = "register_game"
	TypeList         MessageType = "list"
	TypeListGames    MessageType = "list_games"
	TypeCreate       MessageType = "create"
	TypeDestroy      MessageType = "destroy"
	TypeJoin         MessageType = "join"
	TypeQuit         MessageType = "quit"
	TypeGameState    MessageType = "game_state"
	TypeStart        MessageType = "start"
	TypeAction       MessageType = "action"

	// Server -> Client
	TypeAuthenticated        MessageType = "authenticated"
	TypeRegisterGameResponse MessageType = "register_game_response"
	TypeListResponse         MessageType = "list_response"
	TypeListGamesResponse    MessageType = "list_games_response"
	TypeCreateResponse       MessageType = "create_response"
	TypeDestroyResponse      MessageType = "destroy_response"
	TypeJoinResponse         MessageType = "join_response"
	TypeQuitResponse         MessageType = "quit_response"
	TypeGameStateResponse    MessageType = "game_state_response"
	TypeUpdate               MessageType = "update"
	TypeError                MessageType = "error"
)

// Field names shared by requests and responses.
const (
	FieldMessageType        = "message_type"
	FieldSecretKey          = "secret_key"
	FieldGameDefinitionPath = "game_definition_path"
	FieldGameTypeID         = "game_type_id"
	FieldGameID             = "game_id"
	FieldPlayerID           = "player_id"
	FieldAction             = "action"
)

// Client -> Server Messages

// Authenticate is sent by management clients before register_game.
type Authenticate struct {
	Type      MessageType `json:"message_type"`
	SecretKey string      `json:"secret_key"`
}

// Server -> Client Messages

// Authenticated confirms a successful authenticate request.
type Authenticated struct {
	Type MessageType `json:"message_type"`
}

// RegisterGameResponse carries the id assigned to a newly registered game type.
type RegisterGameResponse struct {
	Type             MessageType `json:"message_type"`
	GameDefinitionID int         `json:"game_definition_id"`
}

// GameType is one [id, name] pair of a list response.
type GameType struct {
	ID   int
	Name string
}

// MarshalJSON encodes the pair as a two element array.
func (g GameType) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{g.ID, g.Name})
}

// UnmarshalJSON decodes a two element [id, name] array.
func (g *GameType) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return ErrInvalidArgument
	}
	if err := json.Unmarshal(pair[0], &g.ID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &g.Name)
}

// ListResponse lists the registered game types.
type ListResponse struct {
	Type      MessageType `json:"message_type"`
	GameTypes []GameType  `json:"game_types"`
}

// GameInfo describes one running game in a list_games response.
type GameInfo struct {
	GameID     int    `json:"game_id"`
	GameTypeID int    `json:"game_type_id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Sessions   int    `json:"sessions"`
	CreatedAt  string `json:"created_at"`
}

// ListGamesResponse lists the running games.
type ListGamesResponse struct {
	Type  MessageType `json:"message_type"`
	Games []GameInfo  `json:"games"`
}

// CreateResponse carries the id of a newly created game.
type CreateResponse struct {
	Type       MessageType `json:"message_type"`
	GameID     int         `json:"game_id"`
	GameTypeID int         `json:"game_type_id"`
}

// DestroyResponse confirms a destroyed game.
type DestroyResponse struct {
	Type   MessageType `json:"message_type"`
	GameID int         `json:"game_id"`
}

// JoinResponse carries the bound player id, or null for spectators.
type JoinResponse struct {
	Type     MessageType `json:"message_type"`
	PlayerID *int        `json:"player_id"`
}

// QuitResponse confirms a quit.
type QuitResponse struct {
	Type MessageType `json:"message_type"`
}

// GameStateResponse carries the serialized state as seen by the session.
type GameStateResponse struct {
	Type      MessageType      `json:"message_type"`
	GameState []map[string]any `json:"game_state"`
}

// Start is broadcast to a room once its game is set up.
type Start struct {
	Type MessageType `json:"message_type"`
}

// Update carries a single transition.
type Update struct {
	Transition game.Transition
}

// MarshalJSON encodes the transition with entity references replaced by ids.
func (u Update) MarshalJSON() ([]byte, error) {
	fields := u.Transition.Wire()
	fields[FieldMessageType] = TypeUpdate
	return json.Marshal(fields)
}

// Error reports a failed request.
type Error struct {
	Type    MessageType `json:"message_type"`
	Message string      `json:"message"`
}

// NewError creates an error message.
func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
