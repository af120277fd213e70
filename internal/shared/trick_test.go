package shared

import "testing"

func TestCardPowerHierarchy(t *testing.T) {
	lead, trump := Spades, Hearts
	ordered := []Card{
		Anchor,
		{Clubs, Jack}, {Spades, Jack}, {Hearts, Jack}, {Diamonds, Jack},
		{Hearts, Ace}, {Hearts, Ten}, {Hearts, King}, {Hearts, Queen}, {Hearts, Nine}, {Hearts, Six},
		{Spades, Ace}, {Spades, Ten}, {Spades, Six},
	}
	for i := 1; i < len(ordered); i++ {
		hi := CardPower(ordered[i-1], lead, trump)
		lo := CardPower(ordered[i], lead, trump)
		if !hi.Beats(lo) {
			t.Errorf("%s should beat %s (%v vs %v)", ordered[i-1], ordered[i], hi, lo)
		}
	}

	off := CardPower(Card{Diamonds, Ace}, lead, trump)
	if off != (Power{Tier: TierOther}) {
		t.Errorf("off-suit ace should have no power, got %v", off)
	}
}

func TestCardPowerNoTies(t *testing.T) {
	cards := NewDeck().Cards
	for _, trump := range Suits {
		for _, lead := range Suits {
			for i, a := range cards {
				for _, b := range cards[i+1:] {
					pa, pb := CardPower(a, lead, trump), CardPower(b, lead, trump)
					if pa.Tier == TierOther && pb.Tier == TierOther {
						continue // never both winners: the lead card always has power
					}
					if pa == pb {
						t.Fatalf("tie between %s and %s (lead %s, trump %s)", a, b, lead, trump)
					}
				}
			}
		}
	}
}

func TestTrickWinner(t *testing.T) {
	tests := []struct {
		name   string
		trump  Suit
		cards  []PlayedCard
		winner Position
		points int
	}{
		{
			name:  "anchor beats everything",
			trump: Hearts,
			cards: []PlayedCard{
				{A1, Anchor}, {B1, Card{Spades, King}}, {A2, Card{Diamonds, Jack}}, {B2, Card{Hearts, Ace}},
			},
			winner: A1,
			points: 17,
		},
		{
			name:  "jack of clubs over other jacks",
			trump: Diamonds,
			cards: []PlayedCard{
				{B1, Card{Hearts, Jack}}, {A2, Card{Clubs, Jack}}, {B2, Card{Diamonds, Ace}}, {A1, Card{Spades, Jack}},
			},
			winner: A2,
			points: 17,
		},
		{
			name:  "low trump beats led ace",
			trump: Clubs,
			cards: []PlayedCard{
				{A1, Card{Hearts, Ace}}, {B1, Card{Hearts, Ten}}, {A2, Card{Hearts, Nine}}, {B2, Card{Clubs, Seven}},
			},
			winner: B2,
			points: 21,
		},
		{
			name:  "highest of led suit when no trump",
			trump: Spades,
			cards: []PlayedCard{
				{B2, Card{Diamonds, Queen}}, {A1, Card{Hearts, Ace}}, {B1, Card{Diamonds, Ten}}, {A2, Card{Diamonds, Nine}},
			},
			winner: B1,
			points: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trick := NewTrick()
			for _, pc := range tt.cards {
				trick.AddCard(pc.Position, pc.Card)
			}
			if !trick.Full() {
				t.Fatalf("expected full trick")
			}
			w, err := trick.Winner(tt.trump)
			if err != nil {
				t.Fatalf("Winner: %v", err)
			}
			if w.Position != tt.winner {
				t.Errorf("expected winner %s, got %s with %s", tt.winner, w.Position, w.Card)
			}
			if got := trick.Points(); got != tt.points {
				t.Errorf("expected %d points, got %d", tt.points, got)
			}
		})
	}
}

func TestTrickWinnerEmpty(t *testing.T) {
	trick := NewTrick()
	if _, err := trick.Winner(Hearts); err != ErrEmptyTrick {
		t.Fatalf("expected ErrEmptyTrick, got %v", err)
	}
}

func TestRotationIsFourCycle(t *testing.T) {
	for _, start := range SeatOrder {
		seen := map[Position]bool{}
		p := start
		for i := 0; i < 4; i++ {
			if seen[p] {
				t.Fatalf("position %s revisited from %s", p, start)
			}
			seen[p] = true
			next := p.Next()
			if next.Team() == p.Team() {
				t.Fatalf("%s followed by teammate %s", p, next)
			}
			p = next
		}
		if p != start {
			t.Fatalf("four steps from %s ended at %s", start, p)
		}
	}
	if A1.Next() != B1 || B1.Next() != A2 || A2.Next() != B2 || B2.Next() != A1 {
		t.Fatalf("unexpected rotation order")
	}
}

func TestPositionTeams(t *testing.T) {
	if A1.Team() != TeamA || A2.Team() != TeamA || B1.Team() != TeamB || B2.Team() != TeamB {
		t.Fatalf("unexpected team mapping")
	}
	if A1.Partner() != A2 || B2.Partner() != B1 {
		t.Fatalf("unexpected partners")
	}
	if Position(13).Valid() {
		t.Fatalf("13 must not be a valid seat")
	}
	if A2.String() != "A2" || TeamB.Opponent() != TeamA {
		t.Fatalf("unexpected names")
	}
}

func TestSortHand(t *testing.T) {
	p := NewPlayer("1", "Ann")
	for _, c := range []Card{
		{Diamonds, Ace}, {Hearts, Six}, {Spades, Jack}, Anchor, {Hearts, Ace}, {Clubs, Jack}, {Diamonds, Six},
	} {
		p.AddCard(c)
	}

	p.SortHand(Hearts)
	want := []Card{Anchor, {Clubs, Jack}, {Spades, Jack}, {Hearts, Ace}, {Hearts, Six}, {Diamonds, Ace}, {Diamonds, Six}}
	for i := range want {
		if p.Hand[i] != want[i] {
			t.Fatalf("trump sort position %d: expected %s, got %v", i, want[i], p.Hand)
		}
	}

	p.SortHand("")
	want = []Card{Anchor, {Clubs, Jack}, {Spades, Jack}, {Hearts, Ace}, {Hearts, Six}, {Diamonds, Ace}, {Diamonds, Six}}
	for i := range want {
		if p.Hand[i] != want[i] {
			t.Fatalf("plain sort position %d: expected %s, got %v", i, want[i], p.Hand)
		}
	}

	card := p.RemoveAt(1)
	if card != (Card{Clubs, Jack}) || len(p.Hand) != 6 || p.IndexOf(card) != -1 {
		t.Fatalf("RemoveAt returned %s, hand %v", card, p.Hand)
	}
}
