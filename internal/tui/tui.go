package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/deckr/internal/client"
	"github.com/lox/deckr/internal/protocol"
)

// Sender sends requests to the server.
type Sender interface {
	Send(messageType protocol.MessageType, fields map[string]any) error
}

// ServerMsg delivers a message received from the server to the model.
type ServerMsg struct {
	client.Message
}

// DisconnectedMsg tells the model the connection is gone.
type DisconnectedMsg struct{}

const (
	paneLog = iota
	paneInput
)

var helpLines = []string{
	"Requests are a message type followed by key=value pairs, or raw JSON:",
	"  list | list_games | create game_type_id=0 | destroy game_id=0",
	"  join game_id=0 (spectate) | join game_id=0 player_id=null (new seat)",
	"  start | game_state | quit | action action=draw card=12",
	"  authenticate secret_key=... | register_game game_definition_path=...",
	"Type :q or press Ctrl+C to exit.",
}

type logEntry struct {
	style lipgloss.Style
	text  string
}

// Model is the Bubble Tea model of the interactive client.
type Model struct {
	sender Sender
	addr   string
	logger *log.Logger

	state       *State
	pendingGame *int
	gameID      *int
	playerID    *int

	logViewport viewport.Model
	input       textinput.Model
	gameLog     []logEntry
	focusedPane int

	width       int
	height      int
	initialized bool
	quitting    bool
}

// NewModel creates the model for a client connected to addr.
func NewModel(sender Sender, addr string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a request, e.g. join game_id=0 player_id=null"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusedBorder).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		sender:      sender,
		addr:        addr,
		logger:      logger.WithPrefix("tui"),
		state:       NewState(),
		logViewport: vp,
		input:       ti,
		focusedPane: paneInput,
	}
	m.addLog(InfoStyle, fmt.Sprintf("Connected to %s. Type help for commands.", addr))
	return m
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ServerMsg:
		m.handleServerMessage(msg.Message)
		m.refreshLog()
		return m, nil

	case DisconnectedMsg:
		m.addLog(ErrorStyle, "Disconnected from server")
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == paneLog {
				m.focusedPane = paneInput
				m.input.Focus()
			} else {
				m.focusedPane = paneLog
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == paneInput {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if m.submit(line) {
					m.quitting = true
					return m, tea.Quit
				}
				m.refreshLog()
			}
		case "up", "k":
			if m.focusedPane == paneLog {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == paneLog {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == paneLog {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == paneLog {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focusedPane == paneLog {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focusedPane == paneLog {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == paneInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles one line of input and reports whether the user asked to
// exit.
func (m *Model) submit(line string) bool {
	switch line {
	case "":
		return false
	case ":q", "exit":
		return true
	case "help":
		for _, l := range helpLines {
			m.addLog(InfoStyle, l)
		}
		return false
	}

	messageType, fields, err := client.ParseCommand(line)
	if err != nil {
		m.addLog(ErrorStyle, err.Error())
		return false
	}
	if messageType == protocol.TypeJoin {
		if id, ok := asID(fields[protocol.FieldGameID]); ok {
			m.pendingGame = &id
		}
	}

	m.addLog(CommandStyle, "> "+line)
	if err := m.sender.Send(messageType, fields); err != nil {
		m.addLog(ErrorStyle, fmt.Sprintf("Send failed: %v", err))
	}
	return false
}

func (m *Model) handleServerMessage(msg client.Message) {
	m.logger.Debug("Server message", "type", msg.Type)

	switch msg.Type {
	case protocol.TypeUpdate:
		update, err := client.ParseUpdate(msg)
		if err == nil {
			err = m.state.Apply(update)
		}
		if err != nil {
			m.addLog(ErrorStyle, fmt.Sprintf("Bad update: %v", err))
			return
		}
		m.addLog(UpdateStyle, string(msg.Frame))

	case protocol.TypeError:
		text, _ := msg.String("message")
		m.addLog(ErrorStyle, "Error: "+text)

	case protocol.TypeJoinResponse:
		m.gameID, m.pendingGame = m.pendingGame, nil
		m.playerID = nil
		if !msg.IsNull(protocol.FieldPlayerID) {
			if id, err := msg.Int(protocol.FieldPlayerID); err == nil {
				m.playerID = &id
			}
		}
		m.addLog(ResponseStyle, string(msg.Frame))
		m.requestState()

	case protocol.TypeQuitResponse:
		m.gameID, m.playerID = nil, nil
		m.state.Clear()
		m.addLog(ResponseStyle, string(msg.Frame))

	case protocol.TypeGameStateResponse:
		var snapshot []map[string]any
		err := msg.Decode("game_state", &snapshot)
		if err == nil {
			err = m.state.Reset(snapshot)
		}
		if err != nil {
			m.addLog(ErrorStyle, fmt.Sprintf("Bad game state: %v", err))
			return
		}
		m.addLog(ResponseStyle, fmt.Sprintf("Game state: %d objects", m.state.Len()))

	case protocol.TypeStart:
		m.addLog(ResponseStyle, "Game started")
		m.requestState()

	default:
		m.addLog(ResponseStyle, string(msg.Frame))
	}
}

func (m *Model) requestState() {
	if err := m.sender.Send(protocol.TypeGameState, nil); err != nil {
		m.addLog(ErrorStyle, fmt.Sprintf("Send failed: %v", err))
	}
}

func (m *Model) addLog(style lipgloss.Style, text string) {
	m.gameLog = append(m.gameLog, logEntry{style: style, text: text})
}

func (m *Model) refreshLog() {
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(m.renderLogPane())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

// Log returns the plain text of every log entry.
func (m *Model) Log() []string {
	out := make([]string, len(m.gameLog))
	for i, e := range m.gameLog {
		out[i] = e.text
	}
	return out
}

// State returns the mirrored game state.
func (m *Model) State() *State {
	return m.state
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(paneInput)).
		Width(atLeastOne(m.width - 2)).
		Height(atLeastOne(actionHeight)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 30)
	paneHeight := atLeastOne(m.height - actionHeight - 4)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(atLeastOne(sidebarWidth)).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := atLeastOne(m.width - sidebarWidth - 4)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.SetContent(m.renderLogPane())
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(paneLog)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderFor(pane int) lipgloss.TerminalColor {
	if m.focusedPane == pane {
		return focusedBorder
	}
	return blurredBorder
}

func (m *Model) renderLogPane() string {
	lines := make([]string, len(m.gameLog))
	for i, e := range m.gameLog {
		lines[i] = e.style.Render(e.text)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(" deckr "))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(m.addr))
	b.WriteString("\n\n")

	if m.gameID == nil {
		b.WriteString(InfoStyle.Render("Not in a game"))
		return b.String()
	}

	fmt.Fprintf(&b, "Game %d\n", *m.gameID)
	if m.playerID != nil {
		fmt.Fprintf(&b, "Player %d\n", *m.playerID)
	} else {
		b.WriteString("Spectating\n")
	}
	b.WriteString("\n")
	for _, line := range m.state.Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderActionPane() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.focusedPane == paneLog {
		b.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(InfoStyle.Render("Tab to scroll log • Enter to send • help for commands • Ctrl+C to quit"))
	}
	return b.String()
}

func atLeastOne(n int) int {
	return max(n, 1)
}
