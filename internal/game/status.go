package game

// Status is the match state machine value.
type Status int

const (
	StatusWaitingPlayers Status = iota // waiting players
	StatusPlayersAdded                 // players added
	StatusCardsDealt                   // cards dealt
	StatusWaitingTrump                 // waiting trump
	StatusTrumpSelected                // trump selected
	StatusPlayingCards                 // playing cards
	StatusPlayed1                      // played 1
	StatusPlayed2                      // played 2
	StatusPlayed3                      // played 3
	StatusTrickCompleted               // trick completed
	StatusGameCompleted                // game completed
	StatusNewDealReady                 // new deal ready
	StatusMatchCompleted               // match completed
	StatusGameFinished                 // game finished
)

var statusNames = [...]string{
	StatusWaitingPlayers: "waiting_players",
	StatusPlayersAdded:   "players_added",
	StatusCardsDealt:     "cards_dealt",
	StatusWaitingTrump:   "waiting_trump",
	StatusTrumpSelected:  "trump_selected",
	StatusPlayingCards:   "playing_cards",
	StatusPlayed1:        "played_1",
	StatusPlayed2:        "played_2",
	StatusPlayed3:        "played_3",
	StatusTrickCompleted: "trick_completed",
	StatusGameCompleted:  "game_completed",
	StatusNewDealReady:   "new_deal_ready",
	StatusMatchCompleted: "match_completed",
	StatusGameFinished:   "game_finished",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanDeal reports whether a fresh deal may start.
func (s Status) CanDeal() bool {
	return s == StatusPlayersAdded || s == StatusNewDealReady
}

// CanPlayCard reports whether a card may be placed on the table.
func (s Status) CanPlayCard() bool {
	switch s {
	case StatusTrumpSelected, StatusPlayingCards, StatusPlayed1, StatusPlayed2, StatusPlayed3:
		return true
	}
	return false
}

// MidTrick reports whether some but not all cards of a trick are on the table.
// Only in these states does the turn pass to the next seat automatically.
func (s Status) MidTrick() bool {
	switch s {
	case StatusPlayed1, StatusPlayed2, StatusPlayed3:
		return true
	}
	return false
}

// InDeal reports whether a deal is being played out and not yet scored.
func (s Status) InDeal() bool {
	switch s {
	case StatusTrumpSelected, StatusPlayingCards, StatusPlayed1, StatusPlayed2, StatusPlayed3,
		StatusTrickCompleted, StatusGameCompleted:
		return true
	}
	return false
}

// Terminal reports whether the match is over.
func (s Status) Terminal() bool {
	return s == StatusMatchCompleted || s == StatusGameFinished
}

// afterPlay returns the status once tableLen cards are on the table.
func afterPlay(tableLen int) Status {
	switch tableLen {
	case 1:
		return StatusPlayed1
	case 2:
		return StatusPlayed2
	case 3:
		return StatusPlayed3
	default:
		return StatusTrickCompleted
	}
}
