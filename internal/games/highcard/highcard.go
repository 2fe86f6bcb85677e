// Package highcard is a small card game: every player draws one card in
// secret, the cards are revealed together and the highest card wins the
// round.
package highcard

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/deckr/internal/deck"
	"github.com/lox/deckr/internal/game"
)

// Key is the catalog key of the game.
const Key = "highcard"

// DefaultMaxPlayers applies when the definition sets no cap.
const DefaultMaxPlayers = 4

// Zone names.
const (
	ZoneDeck    = "deck"
	ZoneDiscard = "discard"
	ZoneHand    = "hand"
)

// Phases stored in the game's phase attribute.
const (
	PhaseWaiting  = "waiting"
	PhaseDrawing  = "drawing"
	PhaseFinished = "finished"
)

// Game is one table of high card.
type Game struct {
	*game.Game

	rng   *rand.Rand
	cards []*deck.PlayingCard
	phase string
	round int
}

// New creates a table. The deck, discard and hand zones are added when cfg
// does not define them.
func New(cfg game.Config, rng *rand.Rand) *Game {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	cfg = cfg.WithGameZone(game.ZoneSpec{Name: ZoneDeck}).
		WithGameZone(game.ZoneSpec{Name: ZoneDiscard}).
		WithPlayerZone(game.ZoneSpec{Name: ZoneHand})

	g := &Game{Game: game.New(cfg), rng: rng, phase: PhaseWaiting}
	g.SetAttribute("phase", g.phase)
	g.SetAttribute("round", g.round)
	g.SetAttribute("winner", nil)
	g.OnSetUp(g.setUp)
	g.registerActions()
	return g
}

// Constructor adapts New to the definition catalog.
func Constructor(cfg game.Config, rng *rand.Rand) (*game.Game, error) {
	return New(cfg, rng).Game, nil
}

// Phase returns the current phase.
func (g *Game) Phase() string {
	return g.phase
}

// Hand returns the card held by player, or nil.
func (g *Game) Hand(player *game.Player) *deck.PlayingCard {
	hand := player.Zone(ZoneHand)
	if hand == nil || hand.Len() == 0 {
		return nil
	}
	card, _ := hand.At(0).(*deck.PlayingCard)
	return card
}

func (g *Game) setUp() error {
	if g.cards == nil {
		g.cards = deck.NewDeck()
		g.RegisterAll(deck.Entities(g.cards)...)
	}
	g.shuffleIntoDeck()
	g.setPhase(PhaseDrawing)
	return nil
}

// shuffleIntoDeck gathers every card, turns it face down for everyone and
// deals the shuffled cards into the deck.
func (g *Game) shuffleIntoDeck() {
	discard := g.Zone(ZoneDiscard)
	for _, p := range g.Players() {
		if card := g.Hand(p); card != nil {
			card.SetAttributeFor(p, "face_up", false)
		}
		p.Zone(ZoneHand).Transfer(discard)
	}
	discard.Clear()
	for _, c := range g.cards {
		c.SetAttribute("face_up", false)
	}
	shuffled := append([]*deck.PlayingCard(nil), g.cards...)
	if g.rng != nil {
		deck.Shuffle(shuffled, g.rng)
	}
	g.Zone(ZoneDeck).Set(deck.Entities(shuffled))
}

func (g *Game) setPhase(phase string) {
	g.phase = phase
	g.SetAttribute("phase", phase)
}

func (g *Game) registerActions() {
	seated := game.Restrict("Spectators cannot do that", func(p *game.Player, _ game.Args) bool {
		return p != nil
	})
	drawing := game.Restrict("Cards are not being drawn", func(*game.Player, game.Args) bool {
		return g.phase == PhaseDrawing
	})
	finished := game.Restrict("The round is not over", func(*game.Player, game.Args) bool {
		return g.phase == PhaseFinished
	})

	g.HandleAction(game.Action{
		Name: "draw",
		Restrictions: []game.Restriction{
			seated,
			drawing,
			game.Restrict("You already hold a card", func(p *game.Player, _ game.Args) bool {
				return p.Zone(ZoneHand).Len() == 0
			}),
			game.Restrict("The deck is empty", func(*game.Player, game.Args) bool {
				return g.Zone(ZoneDeck).Len() > 0
			}),
		},
		Run: g.draw,
	})

	g.HandleAction(game.Action{
		Name: "reveal",
		Restrictions: []game.Restriction{
			seated,
			drawing,
			game.Restrict("Not every player has drawn", func(*game.Player, game.Args) bool {
				for _, p := range g.Players() {
					if p.Zone(ZoneHand).Len() == 0 {
						return false
					}
				}
				return true
			}),
		},
		Run: g.reveal,
	})

	g.HandleAction(game.Action{
		Name:   "show",
		Params: map[string]game.Kind{"card": deck.KindCard},
		Restrictions: []game.Restriction{
			seated,
			game.Restrict("That card is not in your hand", func(p *game.Player, args game.Args) bool {
				card, ok := args.Entity("card")
				return ok && p.Zone(ZoneHand).Contains(card)
			}),
		},
		Run: func(_ *game.Player, args game.Args) error {
			card, _ := args.Entity("card")
			card.SetAttribute("face_up", true)
			return nil
		},
	})

	g.HandleAction(game.Action{
		Name:         "next_round",
		Restrictions: []game.Restriction{seated, finished},
		Run: func(*game.Player, game.Args) error {
			g.round++
			g.SetAttribute("round", g.round)
			g.SetAttribute("winner", nil)
			g.shuffleIntoDeck()
			g.setPhase(PhaseDrawing)
			return nil
		},
	})
}

func (g *Game) draw(player *game.Player, _ game.Args) error {
	top, ok := g.Zone(ZoneDeck).Pop()
	if !ok {
		return fmt.Errorf("deck is empty")
	}
	player.Zone(ZoneHand).Push(top)
	top.SetAttributeFor(player, "face_up", true)
	return nil
}

func (g *Game) reveal(*game.Player, game.Args) error {
	var (
		winner *game.Player
		best   *deck.PlayingCard
	)
	for _, p := range g.Players() {
		card := g.Hand(p)
		if card == nil {
			continue
		}
		card.SetAttribute("face_up", true)
		if best == nil || beats(card, best) {
			winner, best = p, card
		}
	}
	g.SetAttribute("winner", winner)
	g.setPhase(PhaseFinished)
	return nil
}

// beats orders cards by rank, then suit.
func beats(a, b *deck.PlayingCard) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	return a.Suit > b.Suit
}
