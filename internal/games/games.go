// Package games lists the game implementations compiled into the server.
package games

import (
	"github.com/lox/deckr/internal/gamedef"
	"github.com/lox/deckr/internal/games/highcard"
	"github.com/lox/deckr/internal/games/simple"
)

// Catalog returns every built-in game keyed by the name definitions use.
func Catalog() gamedef.Catalog {
	return gamedef.Catalog{
		simple.Key:   simple.Constructor,
		highcard.Key: highcard.Constructor,
	}
}
