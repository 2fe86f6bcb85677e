package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/games"
)

// ValidateCmd checks game definitions without starting a server
type ValidateCmd struct {
	Paths []string `arg:"" help:"Game definition files or directories containing game.hcl"`
	Seed  int64    `default:"1" help:"RNG seed used for set up"`
}

func (c *ValidateCmd) Run() error {
	return validate(os.Stdout, gamedef.NewLoader(games.Catalog(), c.Seed), c.Paths)
}

// validate loads each definition, creates a game and runs its set up. It
// reports every path and fails if any of them failed.
func validate(w io.Writer, loader *gamedef.Loader, paths []string) error {
	failed := 0
	for _, path := range paths {
		summary, err := validateOne(loader, path)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s: %s\n", path, summary)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d definitions failed", failed, len(paths))
	}
	return nil
}

func validateOne(loader *gamedef.Loader, path string) (string, error) {
	def, err := loader.Load(path)
	if err != nil {
		return "", err
	}
	g, err := def.Factory()
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	if err := g.SetUp(); err != nil {
		return "", fmt.Errorf("set up: %w", err)
	}

	actions := strings.Join(g.ActionNames(), ", ")
	if actions == "" {
		actions = "none"
	}
	return fmt.Sprintf("%s (%s), %d objects after set up, actions: %s",
		def.Name, def.Game, len(g.Entities()), actions), nil
}
