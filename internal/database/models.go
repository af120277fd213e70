package database

import "shama-game/internal/shared"

// Match statuses stored in the matches table.
const (
	MatchPlaying  = "playing"
	MatchFinished = "finished"
	MatchForfeit  = "forfeit"
	MatchAborted  = "aborted"
)

// Match is one row of the matches table.
type Match struct {
	ID         string      `json:"id"`
	CreatedAt  string      `json:"created_at"`
	FinishedAt string      `json:"finished_at,omitempty"`
	PlayerA1   string      `json:"player_a1"`
	PlayerA2   string      `json:"player_a2"`
	PlayerB1   string      `json:"player_b1"`
	PlayerB2   string      `json:"player_b2"`
	TeamAScore int         `json:"team_a_score"`
	TeamBScore int         `json:"team_b_score"`
	Loser      shared.Team `json:"loser,omitempty"`
	Deals      int         `json:"deals"`
	Status     string      `json:"status"`
	Strict     bool        `json:"strict_follow_suit"`
}

// Seat returns the player name at pos.
func (m Match) Seat(pos shared.Position) string {
	switch pos {
	case shared.A1:
		return m.PlayerA1
	case shared.A2:
		return m.PlayerA2
	case shared.B1:
		return m.PlayerB1
	case shared.B2:
		return m.PlayerB2
	}
	return ""
}

// TeamOf returns the team name plays for, or 0 if name is not in the match.
func (m Match) TeamOf(name string) shared.Team {
	for _, pos := range shared.SeatOrder {
		if m.Seat(pos) == name {
			return pos.Team()
		}
	}
	return 0
}

// Deal is one row of the deals table.
type Deal struct {
	MatchID      string          `json:"match_id"`
	Deal         int             `json:"deal"`
	AnchorHolder shared.Position `json:"anchor_holder"`
	Trump        shared.Suit     `json:"trump"`
	TeamAPoints  int             `json:"team_a_points"`
	TeamBPoints  int             `json:"team_b_points"`
	Loser        shared.Team     `json:"loser,omitempty"`
	Penalty      int             `json:"penalty"`
}

// Trick is one row of the tricks table. Cards is stored as JSON.
type Trick struct {
	MatchID string              `json:"match_id"`
	Deal    int                 `json:"deal"`
	Trick   int                 `json:"trick"`
	Winner  shared.Position     `json:"winner"`
	Points  int                 `json:"points"`
	Cards   []shared.PlayedCard `json:"cards"`
}

// Event is one row of the append-only events table.
type Event struct {
	MatchID   string `json:"match_id"`
	Seq       int    `json:"seq"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
	Payload   string `json:"payload"`
}

// MatchDetail is a match with its deals.
type MatchDetail struct {
	Match
	DealList []Deal `json:"deal_list"`
}

// PlayerStats summarises the finished matches of one player.
type PlayerStats struct {
	Name     string `json:"name"`
	Played   int    `json:"played"`
	Won      int    `json:"won"`
	Lost     int    `json:"lost"`
	Forfeits int    `json:"forfeits"`
}
