package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
)

var (
	// ErrMalformedJSON is returned when a frame is not a JSON object.
	ErrMalformedJSON = errors.New("Malformed message: Could not decode JSON")

	// ErrMissingMessageType is returned when a frame has no message_type.
	ErrMissingMessageType = errors.New("Malformed message: missing message_type")

	// ErrUnknownMessageType is returned for message types nobody handles.
	ErrUnknownMessageType = errors.New("Malformed message: unknown message_type")

	// ErrInvalidArgument is returned when a field has the wrong JSON type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Pool of buffers to avoid allocation and ensure thread safety
var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Message is a decoded frame: its message type plus every field left raw so
// handlers can tell an absent field from an explicit null.
type Message struct {
	Type   MessageType
	fields map[string]json.RawMessage
}

// Decode parses one frame. Surrounding whitespace, including the \r of a
// \r\n terminator, is ignored.
func Decode(frame []byte) (*Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(frame), &fields); err != nil {
		return nil, ErrMalformedJSON
	}
	raw, ok := fields[FieldMessageType]
	if !ok {
		return nil, ErrMissingMessageType
	}
	var t string
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, ErrUnknownMessageType
	}
	delete(fields, FieldMessageType)
	return &Message{Type: MessageType(t), fields: fields}, nil
}

// Encode serializes v as a single frame without the trailing newline.
func Encode(v any) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Create a copy to avoid aliasing the pooled buffer
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return bytes.Clone(out), nil
}

// NewRequest builds a request frame from a message type and its fields.
func NewRequest(t MessageType, fields map[string]any) ([]byte, error) {
	payload := make(map[string]any, len(fields)+1)
	maps.Copy(payload, fields)
	payload[FieldMessageType] = t
	return Encode(payload)
}

// Has reports whether the field is present, even when null.
func (m *Message) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// IsNull reports whether the field is present and null.
func (m *Message) IsNull(name string) bool {
	raw, ok := m.fields[name]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Raw returns the undecoded field.
func (m *Message) Raw(name string) json.RawMessage {
	return m.fields[name]
}

// Names returns every field name except message_type, sorted.
func (m *Message) Names() []string {
	return slices.Sorted(maps.Keys(m.fields))
}

// Int decodes an integral numeric field.
func (m *Message) Int(name string) (int, error) {
	var f float64
	if err := m.decode(name, &f); err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, name)
	}
	return int(f), nil
}

// String decodes a string field.
func (m *Message) String(name string) (string, error) {
	var s string
	err := m.decode(name, &s)
	return s, err
}

// Value decodes a field into its generic JSON form.
func (m *Message) Value(name string) (any, error) {
	var v any
	err := m.decode(name, &v)
	return v, err
}

// Decode decodes a field into v.
func (m *Message) Decode(name string, v any) error {
	return m.decode(name, v)
}

func (m *Message) decode(name string, v any) error {
	raw, ok := m.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s is missing", ErrInvalidArgument, name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
	}
	return nil
}
