package shared

import (
	"fmt"
	"math/rand/v2"
)

// DeckSize is the number of cards in a Shama deck.
const DeckSize = 36

// Deck represents a collection of cards.
type Deck struct {
	Cards []Card
}

// NewDeck creates the standard 36-card deck in catalog order.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return &Deck{Cards: cards}
}

// Shuffle randomizes the order of cards in the deck using rng.
// A nil rng falls back to the package-level source.
func (d *Deck) Shuffle(rng *rand.Rand) {
	swap := func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
	if rng == nil {
		rand.Shuffle(len(d.Cards), swap)
		return
	}
	rng.Shuffle(len(d.Cards), swap)
}

// Deal distributes every card round-robin, one at a time, across numHands
// hands: card i goes to hand i % numHands. The deck is empty afterwards.
func (d *Deck) Deal(numHands int) ([][]Card, error) {
	if numHands <= 0 || len(d.Cards)%numHands != 0 {
		return nil, fmt.Errorf("cannot deal %d cards evenly to %d hands", len(d.Cards), numHands)
	}

	dealt := make([][]Card, numHands)
	for i := range dealt {
		dealt[i] = make([]Card, 0, len(d.Cards)/numHands)
	}
	for i, card := range d.Cards {
		dealt[i%numHands] = append(dealt[i%numHands], card)
	}

	d.Cards = []Card{}
	return dealt, nil
}

// Validate checks that cards form exactly one full catalog deck.
func Validate(cards []Card) error {
	if len(cards) != DeckSize {
		return fmt.Errorf("deck has %d cards, want %d", len(cards), DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("unknown card %q of %q", c.Rank, c.Suit)
		}
		if seen[c] {
			return fmt.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
	return nil
}
