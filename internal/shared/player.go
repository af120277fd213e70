package shared

import "slices"

// Player represents a seated player in a Shama match.
type Player struct {
	ID   string // Unique identifier for the player
	Name string // Player's chosen name
	Hand []Card // Cards currently held by the player
}

// NewPlayer creates a new player with the given ID and name.
func NewPlayer(id string, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: []Card{},
	}
}

// AddCard adds a card to the player's hand.
func (p *Player) AddCard(card Card) {
	p.Hand = append(p.Hand, card)
}

// RemoveAt removes and returns the card at index. The caller checks bounds.
func (p *Player) RemoveAt(index int) Card {
	card := p.Hand[index]
	p.Hand = slices.Delete(p.Hand, index, index+1)
	return card
}

// ClearHand empties the player's hand.
func (p *Player) ClearHand() {
	p.Hand = []Card{}
}

// IndexOf returns the position of card in the hand, or -1.
func (p *Player) IndexOf(card Card) int {
	return slices.Index(p.Hand, card)
}

// SortHand orders the hand strongest first: six of clubs, jacks, trumps, then
// the rest grouped by suit. Only affects presentation.
func (p *Player) SortHand(trump Suit) {
	slices.SortStableFunc(p.Hand, func(a, b Card) int {
		return compareForDisplay(b, a, trump)
	})
}

func (p *Player) String() string {
	return p.Name
}
