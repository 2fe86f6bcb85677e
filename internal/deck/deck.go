package deck

import (
	rand "math/rand/v2"

	"github.com/lox/deckr/internal/game"
)

// NewDeck creates the 52 playing cards, unregistered and face down, ordered
// by card_id.
func NewDeck() []*PlayingCard {
	cards := make([]*PlayingCard, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewPlayingCard(rank, suit))
		}
	}
	return cards
}

// Shuffle randomizes the order of cards in place.
func Shuffle(cards []*PlayingCard, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Entities converts cards to entities for registration or zone loading.
func Entities(cards []*PlayingCard) []game.Entity {
	out := make([]game.Entity, len(cards))
	for i, c := range cards {
		out[i] = c
	}
	return out
}
