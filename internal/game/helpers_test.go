package game

import (
	"math/rand/v2"
	"slices"
	"testing"

	"shama-game/internal/shared"
)

// seatAll fills the four seats of e.
func seatAll(t *testing.T, e *Engine) {
	t.Helper()
	names := map[shared.Position]string{shared.A1: "Ann", shared.A2: "Bob", shared.B1: "Cat", shared.B2: "Dan"}
	for _, pos := range shared.SeatOrder {
		if _, err := e.AddPlayer(pos, names[pos], names[pos]); err != nil {
			t.Fatalf("AddPlayer(%s): %v", pos, err)
		}
	}
}

// deckWith returns a deck that deals the given cards to their seats. The rest
// of the catalog is spread over the seats in seat order.
func deckWith(fixed map[shared.Position][]shared.Card) []shared.Card {
	var hands [4][]shared.Card
	used := map[shared.Card]bool{}
	for pos, cards := range fixed {
		hands[pos.Index()] = append(hands[pos.Index()], cards...)
		for _, c := range cards {
			used[c] = true
		}
	}
	for _, c := range shared.NewDeck().Cards {
		if used[c] {
			continue
		}
		for i := range hands {
			if len(hands[i]) < 9 {
				hands[i] = append(hands[i], c)
				break
			}
		}
	}

	deck := make([]shared.Card, 0, shared.DeckSize)
	for i := 0; i < 9; i++ {
		for h := range hands {
			deck = append(deck, hands[h][i])
		}
	}
	return deck
}

// scenarioDeck gives A1 all clubs, A2 the jack of diamonds and spades, B1 the
// king of spades and hearts, B2 the ace of hearts and diamonds.
func scenarioDeck() []shared.Card {
	return deckWith(map[shared.Position][]shared.Card{
		shared.A1: {shared.Anchor},
		shared.B1: {{Suit: shared.Spades, Rank: shared.King}},
		shared.A2: {{Suit: shared.Diamonds, Rank: shared.Jack}},
		shared.B2: {{Suit: shared.Hearts, Rank: shared.Ace}},
	})
}

// newScenario returns an engine with the scenario deck dealt and hearts trump.
func newScenario(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(opts...)
	seatAll(t, e)
	if _, err := e.DealCards(scenarioDeck()); err != nil {
		t.Fatalf("DealCards: %v", err)
	}
	if _, err := e.DeclareTrump(shared.A1, shared.Hearts); err != nil {
		t.Fatalf("DeclareTrump: %v", err)
	}
	return e
}

// play plays a specific card for pos.
func play(t *testing.T, e *Engine, pos shared.Position, card shared.Card) CardPlayed {
	t.Helper()
	idx := e.State().Player(pos).IndexOf(card)
	if idx < 0 {
		t.Fatalf("%s does not hold %s: %v", pos, card, e.State().Player(pos).Hand)
	}
	res, err := e.PlayCard(pos, idx)
	if err != nil {
		t.Fatalf("PlayCard(%s, %s): %v", pos, card, err)
	}
	return res
}

func seeded(a, b uint64) Option {
	return WithRand(rand.New(rand.NewPCG(a, b)))
}

func handUnion(s *MatchState) []shared.Card {
	var all []shared.Card
	for _, pos := range shared.SeatOrder {
		all = append(all, s.Players[pos].Hand...)
	}
	return slices.Clip(all)
}
