package deck

import (
	"fmt"
	"strings"

	"github.com/lox/deckr/internal/game"
)

// KindCard is the wire type of every card entity.
const KindCard game.Kind = "Card"

// Suit represents a card suit. The order matches the card_id numbering.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in card_id order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Name returns the lowercase suit name used in card attributes.
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	default:
		return "unknown"
	}
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "23456789TJQKA"

// String returns the string representation of a rank
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string(rankChars[r-Two])
}

// Card is a generic card entity. It starts face down.
type Card struct {
	*game.Object
}

// NewCard creates a detached, face down card.
func NewCard() *Card {
	c := &Card{Object: game.NewObject(KindCard)}
	c.SetAttribute("face_up", false)
	return c
}

// FaceUp reports the card's global face_up attribute.
func (c *Card) FaceUp() bool {
	v, err := c.Attribute("face_up")
	if err != nil {
		return false
	}
	up, _ := v.(bool)
	return up
}

// PlayingCard is a card with a rank and suit. Two playing cards are equal when
// rank and suit match, regardless of identity.
type PlayingCard struct {
	*Card
	Rank Rank
	Suit Suit
}

// NewPlayingCard creates a face down playing card and sets its card_id,
// numbered 1..52 by suit then rank.
func NewPlayingCard(rank Rank, suit Suit) *PlayingCard {
	pc := &PlayingCard{Card: NewCard(), Rank: rank, Suit: suit}
	pc.SetAttribute("card_id", pc.CardID())
	return pc
}

// CardID returns the 1-based card number.
func (c *PlayingCard) CardID() int {
	return int(c.Rank-Two) + int(c.Suit)*13 + 1
}

// Equal implements game.Equaler.
func (c *PlayingCard) Equal(other game.Entity) bool {
	o, ok := other.(*PlayingCard)
	if !ok || o == nil {
		return false
	}
	return c.Rank == o.Rank && c.Suit == o.Suit
}

// String returns the string representation of a card (e.g., "A♠")
func (c *PlayingCard) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// ParseCard parses a two character card such as "As" or "td".
func ParseCard(s string) (*PlayingCard, error) {
	if len(s) != 2 {
		return nil, fmt.Errorf("invalid card %q", s)
	}
	idx := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	if idx < 0 {
		return nil, fmt.Errorf("invalid rank in card %q", s)
	}
	var suit Suit
	switch strings.ToLower(s[1:]) {
	case "c":
		suit = Clubs
	case "d":
		suit = Diamonds
	case "h":
		suit = Hearts
	case "s":
		suit = Spades
	default:
		return nil, fmt.Errorf("invalid suit in card %q", s)
	}
	return NewPlayingCard(Two+Rank(idx), suit), nil
}

// ParseCards parses a run of two character cards such as "AsKd2c".
func ParseCards(s string) ([]*PlayingCard, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string %q", s)
	}
	cards := make([]*PlayingCard, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
