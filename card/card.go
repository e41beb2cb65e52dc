// card/card.go
package card

import (
	"math/rand"
	"strings"
)

// Card colors. A card token encodes color and rank as "<color>-<rank>",
// e.g. "R-7", "G-S", "W-Wild". Wild cards carry no color until one is chosen.
const (
	Red    = "R"
	Blue   = "B"
	Green  = "G"
	Yellow = "Y"
	Wild   = "W"
)

// Special ranks. Note the red color and the reverse rank share the letter "R";
// they never collide because color and rank occupy fixed token positions.
const (
	RankSkip         = "S"
	RankReverse      = "R"
	RankDrawTwo      = "D2"
	RankWild         = "Wild"
	RankWildDrawFour = "W4"
)

// Colors lists the four regular colors in a fixed order.
var Colors = []string{Red, Blue, Green, Yellow}

// DeckSize is the number of cards in a full deck.
const DeckSize = 108

// Card is a single card token.
type Card string

// New builds a card token from a color and a rank.
func New(color, rank string) Card {
	return Card(color + "-" + rank)
}

// Decompose splits a card token into its color and rank parts.
func (c Card) Decompose() (color, rank string) {
	s := string(c)
	i := strings.Index(s, "-")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Color returns the color part of the token.
func (c Card) Color() string {
	color, _ := c.Decompose()
	return color
}

// Rank returns the rank part of the token.
func (c Card) Rank() string {
	_, rank := c.Decompose()
	return rank
}

// IsWild reports whether the card is a Wild or a Wild Draw Four.
func (c Card) IsWild() bool {
	return c.Color() == Wild
}

// IsDrawFour reports whether the card is a Wild Draw Four.
func (c Card) IsDrawFour() bool {
	return c.Rank() == RankWildDrawFour
}

// NewDeck builds the full 108-card deck and shuffles it uniformly.
// Per color: one 0, two each of 1-9, two each of Skip/Reverse/DrawTwo.
// Plus four Wild and four Wild Draw Four.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)

	specials := []string{RankSkip, RankReverse, RankDrawTwo}
	digits := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}

	for _, color := range Colors {
		deck = append(deck, New(color, "0"))

		for _, d := range digits {
			deck = append(deck, New(color, d), New(color, d))
		}

		for _, sp := range specials {
			deck = append(deck, New(color, sp), New(color, sp))
		}
	}

	for i := 0; i < 4; i++ {
		deck = append(deck, New(Wild, RankWild), New(Wild, RankWildDrawFour))
	}

	Shuffle(deck)
	return deck
}

// Shuffle reorders cards in place, uniformly at random.
func Shuffle(cards []Card) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// RandomColor picks one of the four regular colors uniformly at random.
// Used when the first flipped discard is itself a wild.
func RandomColor() string {
	return Colors[rand.Intn(len(Colors))]
}

// IsRegularColor reports whether s is one of the four playable colors.
func IsRegularColor(s string) bool {
	for _, c := range Colors {
		if s == c {
			return true
		}
	}
	return false
}
