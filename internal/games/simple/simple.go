// Package simple is a minimal game used to exercise the engine and the
// protocol end to end.
package simple

import (
	rand "math/rand/v2"

	"github.com/lox/deckr/internal/game"
)

// Key is the catalog key of the game.
const Key = "simple"

// Game registers a single object on set up and offers three actions that
// record or mutate state.
type Game struct {
	*game.Game

	GameObject    *game.Object
	RanTestAction bool
	TestParameter game.Entity
}

// New creates an instance from cfg.
func New(cfg game.Config) *Game {
	g := &Game{Game: game.New(cfg)}
	g.OnSetUp(g.setUp)

	setUp := game.Restrict("The game has not started", func(*game.Player, game.Args) bool {
		return g.GameObject != nil
	})

	g.HandleAction(game.Action{
		Name: "test_action",
		Run: func(*game.Player, game.Args) error {
			g.RanTestAction = true
			return nil
		},
	})
	g.HandleAction(game.Action{
		Name:         "test_update_action",
		Restrictions: []game.Restriction{setUp},
		Run: func(*game.Player, game.Args) error {
			g.GameObject.SetAttribute("foo", "bar")
			return nil
		},
	})
	g.HandleAction(game.Action{
		Name:   "test_parameter_action",
		Params: map[string]game.Kind{"game_object": game.KindObject},
		Run: func(_ *game.Player, args game.Args) error {
			g.TestParameter, _ = args.Entity("game_object")
			return nil
		},
	})
	return g
}

// Constructor adapts New to the definition catalog.
func Constructor(cfg game.Config, _ *rand.Rand) (*game.Game, error) {
	return New(cfg).Game, nil
}

func (g *Game) setUp() error {
	g.GameObject = game.NewObject(game.KindObject)
	g.Register(g.GameObject)
	return nil
}
