package tui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/deckr/internal/client"
	"github.com/lox/deckr/internal/protocol"
)

type sent struct {
	messageType protocol.MessageType
	fields      map[string]any
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Send(messageType protocol.MessageType, fields map[string]any) error {
	f.sent = append(f.sent, sent{messageType: messageType, fields: fields})
	return f.err
}

func newTestModel(t *testing.T) (*Model, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	return NewModel(sender, "localhost:7777", logger), sender
}

func typeLine(m *Model, line string) tea.Cmd {
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func serverMsg(t *testing.T, frame string) ServerMsg {
	t.Helper()
	decoded, err := protocol.Decode([]byte(frame))
	require.NoError(t, err)
	return ServerMsg{Message: client.Message{Message: decoded, Frame: []byte(frame)}}
}

func TestModel_SubmitSendsRequest(t *testing.T) {
	m, sender := newTestModel(t)

	typeLine(m, "join game_id=2 player_id=null")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, protocol.TypeJoin, sender.sent[0].messageType)
	assert.Equal(t, map[string]any{"game_id": float64(2), "player_id": nil}, sender.sent[0].fields)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.Log(), "> join game_id=2 player_id=null")
}

func TestModel_LocalCommands(t *testing.T) {
	m, sender := newTestModel(t)

	typeLine(m, "help")
	assert.Contains(t, m.Log(), helpLines[0])

	typeLine(m, "join 0")
	assert.Contains(t, m.Log(), `expected key=value, got "0"`)
	assert.Empty(t, sender.sent)

	cmd := typeLine(m, ":q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_TracksJoinedGame(t *testing.T) {
	m, sender := newTestModel(t)

	typeLine(m, "join game_id=3 player_id=null")
	m.Update(serverMsg(t, `{"message_type":"join_response","player_id":1}`))

	require.NotNil(t, m.gameID)
	assert.Equal(t, 3, *m.gameID)
	require.NotNil(t, m.playerID)
	assert.Equal(t, 1, *m.playerID)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, protocol.TypeGameState, sender.sent[1].messageType, "joining fetches the state")

	m.Update(serverMsg(t, `{"message_type":"game_state_response","game_state":[
		{"game_id":0,"type":"Game"},
		{"game_id":1,"type":"Player"},
		{"game_id":2,"type":"GameObject"}]}`))
	assert.Equal(t, 3, m.State().Len())

	m.Update(serverMsg(t, `{"message_type":"update","update_type":"set","game_object":2,"field":"foo","value":"bar"}`))
	obj, ok := m.State().Object(2)
	require.True(t, ok)
	assert.Equal(t, "bar", obj.Attributes["foo"])

	m.Update(serverMsg(t, `{"message_type":"error","message":"Game is full"}`))
	assert.Contains(t, m.Log(), "Error: Game is full")

	m.Update(serverMsg(t, `{"message_type":"quit_response"}`))
	assert.Nil(t, m.gameID)
	assert.Nil(t, m.playerID)
	assert.Zero(t, m.State().Len())
}

func TestModel_SpectatorJoin(t *testing.T) {
	m, _ := newTestModel(t)

	typeLine(m, `{"message_type":"join","game_id":0}`)
	m.Update(serverMsg(t, `{"message_type":"join_response","player_id":null}`))

	require.NotNil(t, m.gameID)
	assert.Nil(t, m.playerID)
}

func TestModel_Disconnected(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(DisconnectedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.Log(), "Disconnected from server")
	assert.Empty(t, m.View())
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	view := m.View()
	assert.Contains(t, view, "deckr")
	assert.Contains(t, view, "Not in a game")
	assert.Contains(t, view, "localhost:7777")
}
