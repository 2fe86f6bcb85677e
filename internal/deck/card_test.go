package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/randutil"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{name: "mixed suits", input: "AhKdQcJs9s", expected: []string{"A♥", "K♦", "Q♣", "J♠", "9♠"}},
		{name: "case insensitive", input: "asKHqDjc", expected: []string{"A♠", "K♥", "Q♦", "J♣"}},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AxKs", wantErr: true},
		{name: "odd length", input: "AsK", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got := make([]string, len(cards))
			for i, c := range cards {
				got[i] = c.String()
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPlayingCard_Attributes(t *testing.T) {
	c := NewPlayingCard(Ace, Spades)
	assert.Equal(t, KindCard, c.Kind())
	assert.False(t, c.FaceUp())

	id, err := c.Attribute("card_id")
	require.NoError(t, err)
	assert.Equal(t, 52, id)

	assert.Equal(t, 1, NewPlayingCard(Two, Clubs).CardID())
	assert.Equal(t, 14, NewPlayingCard(Two, Diamonds).CardID())
}

func TestPlayingCard_EqualByValue(t *testing.T) {
	g := game.New(game.Config{GameZones: []game.ZoneSpec{{Name: "hand"}}})
	hand := g.Zone("hand")

	held := NewPlayingCard(Queen, Hearts)
	g.Register(held)
	hand.Push(held)

	assert.True(t, held.Equal(NewPlayingCard(Queen, Hearts)))
	assert.False(t, held.Equal(NewPlayingCard(Queen, Spades)))
	assert.False(t, held.Equal(game.NewObject(KindCard)))

	hand.Remove(NewPlayingCard(Queen, Hearts))
	assert.Zero(t, hand.Len())
}

func TestNewDeck(t *testing.T) {
	cards := NewDeck()
	require.Len(t, cards, 52)

	seen := make(map[int]bool)
	for i, c := range cards {
		assert.Equal(t, i+1, c.CardID())
		seen[c.CardID()] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffle_Deterministic(t *testing.T) {
	a, b := NewDeck(), NewDeck()
	Shuffle(a, randutil.New(42))
	Shuffle(b, randutil.New(42))

	for i := range a {
		assert.True(t, a[i].Equal(b[i]), "position %d", i)
	}
	assert.Len(t, Entities(a), 52)
}
