package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/deckr/internal/client"
)

// Options configures Run.
type Options struct {
	Addr    string
	NoColor bool
}

// Run drives the interactive client until the user quits, the connection
// drops or ctx is cancelled.
func Run(ctx context.Context, c *client.Client, opts Options, logger *log.Logger) error {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	model := NewModel(c, opts.Addr, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	c.AddEventHandler(client.AllMessages, func(msg client.Message) {
		program.Send(ServerMsg{Message: msg})
	})
	go func() {
		select {
		case <-c.Done():
			program.Send(DisconnectedMsg{})
		case <-ctx.Done():
		}
	}()

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
