package shared

// Suit represents the suit of a card (Clubs, Spades, Hearts, Diamonds).
type Suit string

const (
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
)

// Suits lists the four suits in precedence order (clubs highest).
var Suits = []Suit{Clubs, Spades, Hearts, Diamonds}

// Rank represents the rank of a card (6 through Ace).
type Rank string

const (
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists the nine ranks in catalog order.
var Ranks = []Rank{Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card represents a single card of the 36-card Shama deck.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Anchor is the six of clubs ("Shama"), the strongest card in the deck.
var Anchor = Card{Suit: Clubs, Rank: Six}

// Suit precedence, used for jacks and for grouping hands on display.
var suitOrder = map[Suit]int{
	Clubs:    4,
	Spades:   3,
	Hearts:   2,
	Diamonds: 1,
}

// Rank precedence within a suit: A > 10 > K > Q > J > 9 > 8 > 7 > 6.
var rankOrder = map[Rank]int{
	Ace:   9,
	Ten:   8,
	King:  7,
	Queen: 6,
	Jack:  5,
	Nine:  4,
	Eight: 3,
	Seven: 2,
	Six:   1,
}

var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Spades:   "♠",
	Hearts:   "♥",
	Diamonds: "♦",
}

// Card values for scoring. A full deck is worth 120.
var cardPoints = map[Rank]int{
	Ace:   11,
	Ten:   10,
	King:  4,
	Queen: 3,
	Jack:  2,
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	_, ok := suitOrder[s]
	return ok
}

// Symbol returns the suit glyph, or "?" for an unknown suit.
func (s Suit) Symbol() string {
	if sym, ok := suitSymbols[s]; ok {
		return sym
	}
	return "?"
}

// Valid reports whether r is one of the nine ranks.
func (r Rank) Valid() bool {
	_, ok := rankOrder[r]
	return ok
}

// Points returns the trick value of the card.
func (c Card) Points() int {
	return cardPoints[c.Rank]
}

// IsAnchor reports whether c is the six of clubs.
func (c Card) IsAnchor() bool {
	return c == Anchor
}

// IsJack reports whether c is one of the four permanent-trump jacks.
func (c Card) IsJack() bool {
	return c.Rank == Jack
}

// Valid reports whether c belongs to the catalog.
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

func (c Card) String() string {
	return string(c.Rank) + c.Suit.Symbol()
}

// ParseSuit accepts a suit name or its symbol.
func ParseSuit(s string) (Suit, bool) {
	for _, suit := range Suits {
		if s == string(suit) || s == suitSymbols[suit] {
			return suit, true
		}
	}
	return "", false
}
