package game

import "shama-game/internal/shared"

// Penalty points by how badly the losing team did.
const (
	violationPenalty = 3
	halfDeal         = 60
	quarterDeal      = 30
)

// LegalPlay reports whether playing hand[index] onto table follows the rules:
// the leader may play anything; the others must follow the leading suit if
// they can, otherwise play trump if they can, otherwise anything. When trump
// is led this means following trump. Suits are taken literally: a jack or the
// six of clubs follows its own printed suit.
func LegalPlay(hand []shared.Card, index int, table shared.Trick, trump shared.Suit) bool {
	if index < 0 || index >= len(hand) {
		return false
	}
	lead := table.LeadSuit()
	if lead == "" {
		return true
	}

	card := hand[index]
	if card.Suit == lead {
		return true
	}
	if holds(hand, lead) {
		return false
	}
	if trump != "" && holds(hand, trump) {
		return card.Suit == trump
	}
	return true
}

func holds(hand []shared.Card, suit shared.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// DealLoser returns the team that took fewer trick points. On a 60-60 split
// the team holding the six of clubs loses.
func DealLoser(anchorTeam shared.Team, scores map[shared.Team]int) shared.Team {
	a, b := scores[shared.TeamA], scores[shared.TeamB]
	switch {
	case a < b:
		return shared.TeamA
	case b < a:
		return shared.TeamB
	default:
		return anchorTeam
	}
}

// Penalty returns the match points charged to the losing team.
//
//	anchor team:     0 -> 12, <30 -> 6, <60 -> 3, 60 -> 2
//	other team:      0 -> 6,  <30 -> 3, otherwise 1
func Penalty(heldAnchor bool, points int) int {
	if heldAnchor {
		switch {
		case points == 0:
			return 12
		case points < quarterDeal:
			return 6
		case points < halfDeal:
			return 3
		default:
			return 2
		}
	}
	switch {
	case points == 0:
		return 6
	case points < quarterDeal:
		return 3
	default:
		return 1
	}
}

// ScoreDeal decides the losing team of a finished deal and its penalty.
func ScoreDeal(anchorHolder shared.Position, scores map[shared.Team]int) (shared.Team, int) {
	anchorTeam := anchorHolder.Team()
	loser := DealLoser(anchorTeam, scores)
	return loser, Penalty(loser == anchorTeam, scores[loser])
}
