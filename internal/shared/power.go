package shared

// Power tiers, highest first.
const (
	TierAnchor = 4
	TierJack   = 3
	TierTrump  = 2
	TierLead   = 1
	TierOther  = 0
)

// Power is the strength of a card within one trick. Powers compare
// lexicographically: Tier first, then Rank.
type Power struct {
	Tier int
	Rank int
}

// Beats reports whether p is strictly stronger than o.
func (p Power) Beats(o Power) bool {
	if p.Tier != o.Tier {
		return p.Tier > o.Tier
	}
	return p.Rank > o.Rank
}

// CardPower ranks c for a trick led in lead with trump as the declared suit.
//
// The six of clubs beats everything. Jacks follow regardless of trump, ordered
// clubs > spades > hearts > diamonds. Then trump cards, then cards of the led
// suit, both by A > 10 > K > Q > 9 > 8 > 7 > 6. Everything else has no power.
func CardPower(c Card, lead, trump Suit) Power {
	switch {
	case c.IsAnchor():
		return Power{Tier: TierAnchor}
	case c.IsJack():
		return Power{Tier: TierJack, Rank: suitOrder[c.Suit]}
	case trump != "" && c.Suit == trump:
		return Power{Tier: TierTrump, Rank: rankOrder[c.Rank]}
	case c.Suit == lead:
		return Power{Tier: TierLead, Rank: rankOrder[c.Rank]}
	default:
		return Power{Tier: TierOther}
	}
}

// compareForDisplay orders cards for showing a hand: anchor, jacks, trumps,
// then the remaining cards grouped by suit. It returns a positive number when
// a should be shown before b.
func compareForDisplay(a, b Card, trump Suit) int {
	ga, gb := displayGroup(a, trump), displayGroup(b, trump)
	if ga != gb {
		return ga - gb
	}
	if d := suitOrder[a.Suit] - suitOrder[b.Suit]; d != 0 {
		return d
	}
	return rankOrder[a.Rank] - rankOrder[b.Rank]
}

func displayGroup(c Card, trump Suit) int {
	switch {
	case c.IsAnchor():
		return 3
	case c.IsJack():
		return 2
	case trump != "" && c.Suit == trump:
		return 1
	default:
		return 0
	}
}
