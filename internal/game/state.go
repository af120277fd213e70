package game

import (
	"maps"
	"slices"

	"shama-game/internal/shared"
)

// MatchThreshold is the penalty total at which a team loses the match.
const MatchThreshold = 12

// TricksPerDeal is the number of tricks in one deal.
const TricksPerDeal = 9

// Violation records a card played against the follow-suit rule.
type Violation struct {
	Position shared.Position `json:"position"`
	Card     shared.Card     `json:"card"`
	Turn     int             `json:"turn"`
	Claimed  bool            `json:"claimed"`
}

// MatchState is the single source of truth for one match.
type MatchState struct {
	Status       Status
	Players      map[shared.Position]*shared.Player
	MatchScores  map[shared.Team]int // cumulative penalty points
	DealScores   map[shared.Team]int // trick points within the current deal
	AnchorHolder shared.Position     // seat holding the six of clubs this deal
	Trump        shared.Suit         // "" until declared
	Leader       shared.Position     // seat whose turn it is
	Table        shared.Trick
	Turn         int // 1..9 within a deal; 10 once the last trick closes
	Deal         int // number of deals started
	Violations   []Violation
	Loser        shared.Team // set once the match is decided
}

// NewMatchState creates an empty match waiting for players.
func NewMatchState() *MatchState {
	return &MatchState{
		Status:      StatusWaitingPlayers,
		Players:     make(map[shared.Position]*shared.Player, 4),
		MatchScores: map[shared.Team]int{shared.TeamA: 0, shared.TeamB: 0},
		DealScores:  map[shared.Team]int{shared.TeamA: 0, shared.TeamB: 0},
		Table:       shared.NewTrick(),
		Turn:        1,
	}
}

// Seated reports whether all four seats are filled.
func (s *MatchState) Seated() bool {
	for _, pos := range shared.SeatOrder {
		if s.Players[pos] == nil {
			return false
		}
	}
	return true
}

// Player returns the player at pos, or nil.
func (s *MatchState) Player(pos shared.Position) *shared.Player {
	return s.Players[pos]
}

// PositionOf returns the seat of the player with the given id.
func (s *MatchState) PositionOf(playerID string) (shared.Position, bool) {
	for _, pos := range shared.SeatOrder {
		if p := s.Players[pos]; p != nil && p.ID == playerID {
			return pos, true
		}
	}
	return 0, false
}

// resetDeal clears everything that lives only for one deal.
func (s *MatchState) resetDeal() {
	for _, p := range s.Players {
		p.ClearHand()
	}
	s.DealScores[shared.TeamA] = 0
	s.DealScores[shared.TeamB] = 0
	s.Trump = ""
	s.Table = shared.NewTrick()
	s.Turn = 1
	s.Violations = nil
}

// addPenalty raises a team's match score and ends the match at the threshold.
// It reports whether the match is now decided.
func (s *MatchState) addPenalty(team shared.Team, points int) bool {
	s.MatchScores[team] += points
	if s.MatchScores[team] >= MatchThreshold {
		s.Loser = team
		s.Status = StatusMatchCompleted
		return true
	}
	return false
}

// Snapshot is a read-only copy of MatchState for rendering.
type Snapshot struct {
	Status       Status                            `json:"status"`
	Players      map[shared.Position]PlayerView    `json:"players"`
	Hands        map[shared.Position][]shared.Card `json:"-"`
	MatchScores  map[shared.Team]int               `json:"match_scores"`
	DealScores   map[shared.Team]int               `json:"deal_scores"`
	AnchorHolder shared.Position                   `json:"anchor_holder"`
	Trump        shared.Suit                       `json:"trump"`
	Leader       shared.Position                   `json:"leader"`
	Table        []shared.PlayedCard               `json:"table"`
	Turn         int                               `json:"turn"`
	Deal         int                               `json:"deal"`
	Violations   []Violation                       `json:"violations,omitempty"`
	Loser        shared.Team                       `json:"loser,omitempty"`
}

// PlayerView is the public part of a seated player.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CardsLeft int    `json:"cards_left"`
}

// Snapshot copies the state so callers can render it without sharing memory.
func (s *MatchState) Snapshot() Snapshot {
	snap := Snapshot{
		Status:       s.Status,
		Players:      make(map[shared.Position]PlayerView, len(s.Players)),
		Hands:        make(map[shared.Position][]shared.Card, len(s.Players)),
		MatchScores:  maps.Clone(s.MatchScores),
		DealScores:   maps.Clone(s.DealScores),
		AnchorHolder: s.AnchorHolder,
		Trump:        s.Trump,
		Leader:       s.Leader,
		Table:        s.Table.Clone().Cards,
		Turn:         s.Turn,
		Deal:         s.Deal,
		Violations:   slices.Clone(s.Violations),
		Loser:        s.Loser,
	}
	for pos, p := range s.Players {
		snap.Players[pos] = PlayerView{ID: p.ID, Name: p.Name, CardsLeft: len(p.Hand)}
		snap.Hands[pos] = slices.Clone(p.Hand)
	}
	return snap
}

// PendingViolation reports whether an opponent of claimant has an unclaimed
// violation in the current deal.
func (s Snapshot) PendingViolation(claimant shared.Position) bool {
	for _, v := range s.Violations {
		if !v.Claimed && v.Position.Team() != claimant.Team() {
			return true
		}
	}
	return false
}
