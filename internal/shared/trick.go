package shared

import "errors"

// TrickSize is the number of cards in a complete trick.
const TrickSize = 4

// ErrEmptyTrick is returned when a winner is requested for a trick with no cards.
var ErrEmptyTrick = errors.New("trick has no cards")

// PlayedCard stores a card along with the seat that played it.
type PlayedCard struct {
	Position Position `json:"position"`
	Card     Card     `json:"card"`
}

// Trick represents the cards on the table in play order.
type Trick struct {
	Cards []PlayedCard
}

// NewTrick creates an empty trick.
func NewTrick() Trick {
	return Trick{Cards: []PlayedCard{}}
}

// AddCard appends a card played from position.
func (t *Trick) AddCard(position Position, card Card) {
	t.Cards = append(t.Cards, PlayedCard{Position: position, Card: card})
}

// Len returns the number of cards on the table.
func (t *Trick) Len() int {
	return len(t.Cards)
}

// Full reports whether all four seats have played.
func (t *Trick) Full() bool {
	return len(t.Cards) >= TrickSize
}

// LeadSuit returns the suit of the first card, or "" for an empty trick.
func (t *Trick) LeadSuit() Suit {
	if len(t.Cards) == 0 {
		return ""
	}
	return t.Cards[0].Card.Suit
}

// Points sums the values of the cards on the table.
func (t *Trick) Points() int {
	points := 0
	for _, pc := range t.Cards {
		points += pc.Card.Points()
	}
	return points
}

// Winner returns the strongest played card given trump. Two distinct cards
// never have equal power, so the result is unique.
func (t *Trick) Winner(trump Suit) (PlayedCard, error) {
	if len(t.Cards) == 0 {
		return PlayedCard{}, ErrEmptyTrick
	}

	lead := t.LeadSuit()
	best := t.Cards[0]
	bestPower := CardPower(best.Card, lead, trump)
	for _, pc := range t.Cards[1:] {
		if p := CardPower(pc.Card, lead, trump); p.Beats(bestPower) {
			best, bestPower = pc, p
		}
	}
	return best, nil
}

// Clone returns a copy that shares no memory with t.
func (t *Trick) Clone() Trick {
	cards := make([]PlayedCard, len(t.Cards))
	copy(cards, t.Cards)
	return Trick{Cards: cards}
}
