package server

import (
	"errors"
	"fmt"
)

// Error texts sent to clients.
const (
	msgInvalidSecret    = "Invalid secret key"
	msgNotAuthenticated = "You must be authenticated to do that"
	msgAlreadyJoined    = "You are already connected to game"
	msgNotJoined        = "You are not connected to a game"
	msgGameFull         = "Game is full"
)

var (
	// ErrUnknownGameType is returned for game type ids that were never
	// registered.
	ErrUnknownGameType = errors.New("server: unknown game type")

	// ErrUnknownGame is returned for game ids that do not exist or were
	// destroyed.
	ErrUnknownGame = errors.New("server: unknown game")

	// ErrConnectionClosed is returned when sending on a closed connection.
	ErrConnectionClosed = errors.New("server: connection closed")
)

// RequestError is a failed request. Its message is sent to the client
// verbatim and the connection stays open.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func requestErrorf(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

func missingArgument(name string) *RequestError {
	return requestErrorf("Missing required argument: %s", name)
}
