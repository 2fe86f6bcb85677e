package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lox/deckr/internal/protocol"
)

// ErrEmptyCommand is returned by ParseCommand for blank input.
var ErrEmptyCommand = errors.New("empty command")

// ParseCommand turns a line of user input into a request. The input is
// either a raw JSON object or a message type followed by key=value pairs,
// e.g. "join game_id=0 player_id=null". Values that parse as JSON keep
// their JSON type; anything else is a string.
func ParseCommand(line string) (protocol.MessageType, map[string]any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, ErrEmptyCommand
	}

	if strings.HasPrefix(line, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			return "", nil, fmt.Errorf("invalid JSON: %w", err)
		}
		t, ok := fields[protocol.FieldMessageType].(string)
		if !ok {
			return "", nil, fmt.Errorf("missing %s", protocol.FieldMessageType)
		}
		delete(fields, protocol.FieldMessageType)
		return protocol.MessageType(t), fields, nil
	}

	words := strings.Fields(line)
	fields := make(map[string]any, len(words)-1)
	for _, word := range words[1:] {
		key, raw, ok := strings.Cut(word, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("expected key=value, got %q", word)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		fields[key] = v
	}
	return protocol.MessageType(words[0]), fields, nil
}
