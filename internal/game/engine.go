package game

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"shama-game/internal/shared"
)

// Engine applies the rules of Shama to one MatchState. It does no locking:
// callers must not invoke mutating methods concurrently on the same Engine.
type Engine struct {
	state  *MatchState
	rng    *rand.Rand
	log    *zap.Logger
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the shuffling source. Use a seeded source for reproducible deals.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithStrictFollowSuit makes PlayCard reject plays that break the follow-suit
// rule instead of recording them as claimable violations.
func WithStrictFollowSuit(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// NewEngine creates an engine over a fresh match waiting for players.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		state: NewMatchState(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// State exposes the live state. Callers must treat it as read-only.
func (e *Engine) State() *MatchState {
	return e.state
}

// Snapshot returns a copy of the state for rendering.
func (e *Engine) Snapshot() Snapshot {
	return e.state.Snapshot()
}

// Strict reports whether follow-suit is enforced.
func (e *Engine) Strict() bool {
	return e.strict
}

// PlayerAdded is the result of AddPlayer.
type PlayerAdded struct {
	Status   Status
	Position shared.Position
	Player   *shared.Player
}

// AddPlayer seats a player. The fourth player moves the match to PlayersAdded.
func (e *Engine) AddPlayer(pos shared.Position, id, name string) (PlayerAdded, error) {
	s := e.state
	if s.Status != StatusWaitingPlayers {
		return PlayerAdded{}, ErrWrongStatus
	}
	if !pos.Valid() {
		return PlayerAdded{}, ErrInvalidPosition
	}
	if s.Players[pos] != nil {
		return PlayerAdded{}, ErrSeatTaken
	}

	player := shared.NewPlayer(id, name)
	s.Players[pos] = player
	if s.Seated() {
		s.Status = StatusPlayersAdded
	}
	e.log.Debug("player seated", zap.Stringer("position", pos), zap.String("name", name), zap.Stringer("status", s.Status))
	return PlayerAdded{Status: s.Status, Position: pos, Player: player}, nil
}

// DealStarted is the result of a deal.
type DealStarted struct {
	Status       Status
	Deal         int
	AnchorHolder shared.Position
	Player       *shared.Player
}

// StartDeal shuffles a fresh deck and deals it.
func (e *Engine) StartDeal() (DealStarted, error) {
	if !e.state.Status.CanDeal() {
		return DealStarted{}, ErrWrongStatus
	}
	return e.deal(e.shuffled(), false)
}

// DealCards deals the given deck in its current order. The deck must be a
// complete 36-card deck.
func (e *Engine) DealCards(cards []shared.Card) (DealStarted, error) {
	if !e.state.Status.CanDeal() {
		return DealStarted{}, ErrWrongStatus
	}
	return e.deal(cards, false)
}

// Redeal lets the holder of the six of clubs throw the hands in and deal
// again before naming trump.
func (e *Engine) Redeal(pos shared.Position) (DealStarted, error) {
	s := e.state
	if s.Status != StatusWaitingTrump {
		return DealStarted{}, ErrWrongStatus
	}
	if pos != s.AnchorHolder {
		return DealStarted{}, ErrNotAnchorHolder
	}
	e.log.Info("redeal requested", zap.Stringer("position", pos), zap.Int("deal", s.Deal))
	return e.deal(e.shuffled(), true)
}

func (e *Engine) shuffled() []shared.Card {
	deck := shared.NewDeck()
	deck.Shuffle(e.rng)
	return deck.Cards
}

func (e *Engine) deal(cards []shared.Card, redeal bool) (DealStarted, error) {
	s := e.state
	if !s.Seated() {
		return DealStarted{}, ErrMissingPlayer
	}
	if err := shared.Validate(cards); err != nil {
		return DealStarted{}, fmt.Errorf("%w: %v", ErrBadDeck, err)
	}

	deck := &shared.Deck{Cards: slices.Clone(cards)}
	hands, err := deck.Deal(len(shared.SeatOrder))
	if err != nil {
		return DealStarted{}, fmt.Errorf("%w: %v", ErrBadDeck, err)
	}

	var anchor shared.Position
	for i, hand := range hands {
		if slices.Contains(hand, shared.Anchor) {
			anchor = shared.SeatOrder[i]
		}
	}
	if anchor == 0 {
		e.log.Error("no anchor card after dealing", zap.Int("deal", s.Deal))
		return DealStarted{}, ErrNoAnchor
	}

	s.resetDeal()
	for i, pos := range shared.SeatOrder {
		s.Players[pos].Hand = hands[i]
	}
	if !redeal {
		s.Deal++
	}
	s.AnchorHolder = anchor
	s.Status = StatusCardsDealt
	s.Players[anchor].SortHand("")
	s.Status = StatusWaitingTrump
	s.Leader = anchor

	e.log.Info("cards dealt",
		zap.Int("deal", s.Deal),
		zap.Stringer("anchor_holder", anchor),
		zap.Bool("redeal", redeal))
	return DealStarted{Status: s.Status, Deal: s.Deal, AnchorHolder: anchor, Player: s.Players[anchor]}, nil
}

// TrumpDeclared is the result of DeclareTrump.
type TrumpDeclared struct {
	Status   Status
	Position shared.Position
	Player   *shared.Player
	Trump    shared.Suit
}

// DeclareTrump sets trump for the deal. Only the anchor holder may call it,
// and that seat leads the first trick.
func (e *Engine) DeclareTrump(pos shared.Position, suit shared.Suit) (TrumpDeclared, error) {
	s := e.state
	if s.Status != StatusWaitingTrump {
		return TrumpDeclared{}, ErrWrongStatus
	}
	if pos != s.AnchorHolder {
		return TrumpDeclared{}, ErrNotAnchorHolder
	}
	if !suit.Valid() {
		return TrumpDeclared{}, ErrInvalidSuit
	}

	s.Trump = suit
	s.Status = StatusTrumpSelected
	for _, p := range s.Players {
		p.SortHand(suit)
	}
	s.Leader = s.AnchorHolder

	e.log.Info("trump declared", zap.Stringer("position", pos), zap.String("trump", string(suit)), zap.Int("deal", s.Deal))
	return TrumpDeclared{Status: s.Status, Position: pos, Player: s.Players[pos], Trump: suit}, nil
}

// IsLegalPlay reports whether the card at index in pos's hand may be played
// onto the current table under the follow-suit rule.
func (e *Engine) IsLegalPlay(pos shared.Position, index int) bool {
	p := e.state.Players[pos]
	if p == nil {
		return false
	}
	return LegalPlay(p.Hand, index, e.state.Table, e.state.Trump)
}

// LegalMoves returns the hand indices pos may legally play.
func (e *Engine) LegalMoves(pos shared.Position) []int {
	p := e.state.Players[pos]
	if p == nil {
		return nil
	}
	var moves []int
	for i := range p.Hand {
		if LegalPlay(p.Hand, i, e.state.Table, e.state.Trump) {
			moves = append(moves, i)
		}
	}
	return moves
}

// CardPlayed is the result of PlayCard.
type CardPlayed struct {
	Status   Status
	Position shared.Position
	Player   *shared.Player
	Card     shared.Card
	Trick    int  // number of the trick the card went to
	Legal    bool // false when the card broke the follow-suit rule
	Next     shared.Position
}

// PlayCard moves the card at index from pos's hand to the table.
func (e *Engine) PlayCard(pos shared.Position, index int) (CardPlayed, error) {
	s := e.state
	if !s.Status.CanPlayCard() {
		return CardPlayed{}, ErrWrongStatus
	}
	if !pos.Valid() {
		return CardPlayed{}, ErrInvalidPosition
	}
	if pos != s.Leader {
		return CardPlayed{}, ErrNotYourTurn
	}
	player := s.Players[pos]
	if len(player.Hand) == 0 {
		return CardPlayed{}, ErrNoCardsLeft
	}
	if index < 0 || index >= len(player.Hand) {
		return CardPlayed{}, ErrNoSuchCard
	}
	if s.Turn > TricksPerDeal {
		return CardPlayed{}, ErrDealComplete
	}
	if s.Table.Full() {
		return CardPlayed{}, ErrTrickFull
	}
	legal := LegalPlay(player.Hand, index, s.Table, s.Trump)
	if !legal && e.strict {
		return CardPlayed{}, ErrMustFollowSuit
	}

	trick := s.Turn
	if s.Table.Len() == shared.TrickSize-1 {
		s.Turn++
	}
	card := player.RemoveAt(index)
	s.Table.AddCard(pos, card)
	if !legal {
		s.Violations = append(s.Violations, Violation{Position: pos, Card: card, Turn: trick})
	}

	s.Status = afterPlay(s.Table.Len())
	if s.Status.MidTrick() {
		s.Leader = pos.Next()
	}

	e.log.Debug("card played",
		zap.Stringer("position", pos),
		zap.Stringer("card", card),
		zap.Int("trick", trick),
		zap.Bool("legal", legal),
		zap.Stringer("status", s.Status))
	return CardPlayed{
		Status:   s.Status,
		Position: pos,
		Player:   player,
		Card:     card,
		Trick:    trick,
		Legal:    legal,
		Next:     s.Leader,
	}, nil
}

// TrickResolved is the result of ResolveTrick.
type TrickResolved struct {
	Status  Status
	Trick   int
	Winner  shared.Position
	Player  *shared.Player
	Card    shared.Card
	Points  int
	Team    shared.Team
	Cards   []shared.PlayedCard
	Leading shared.Suit
}

// ResolveTrick awards a full table to the team of its strongest card. The
// winner leads the next trick.
func (e *Engine) ResolveTrick() (TrickResolved, error) {
	s := e.state
	if s.Status != StatusTrickCompleted || !s.Table.Full() {
		return TrickResolved{}, ErrTrickNotFull
	}

	win, err := s.Table.Winner(s.Trump)
	if err != nil {
		return TrickResolved{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	points := s.Table.Points()
	team := win.Position.Team()
	lead := s.Table.LeadSuit()
	cards := s.Table.Clone().Cards

	s.DealScores[team] += points
	s.Leader = win.Position
	s.Table = shared.NewTrick()
	if s.Turn <= TricksPerDeal {
		s.Status = StatusPlayingCards
	} else {
		s.Status = StatusGameCompleted
	}

	e.log.Debug("trick resolved",
		zap.Int("trick", s.Turn-1),
		zap.Stringer("winner", win.Position),
		zap.Stringer("card", win.Card),
		zap.Int("points", points),
		zap.Stringer("status", s.Status))
	return TrickResolved{
		Status:  s.Status,
		Trick:   s.Turn - 1,
		Winner:  win.Position,
		Player:  s.Players[win.Position],
		Card:    win.Card,
		Points:  points,
		Team:    team,
		Cards:   cards,
		Leading: lead,
	}, nil
}

// DealScored is the result of ScoreDeal.
type DealScored struct {
	Status      Status
	Deal        int
	DealScores  map[shared.Team]int
	AnchorTeam  shared.Team
	Loser       shared.Team
	Penalty     int
	MatchScores map[shared.Team]int
}

// ScoreDeal charges the penalty for a finished deal. The match ends when the
// losing team reaches the threshold; otherwise a new deal is ready.
func (e *Engine) ScoreDeal() (DealScored, error) {
	s := e.state
	if s.Status != StatusGameCompleted {
		return DealScored{}, ErrWrongStatus
	}
	if total := s.DealScores[shared.TeamA] + s.DealScores[shared.TeamB]; total != 120 {
		e.log.Error("deal points do not add up", zap.Int("total", total))
		return DealScored{}, fmt.Errorf("%w: deal points total %d", ErrInvariant, total)
	}

	dealScores := maps.Clone(s.DealScores)
	loser, penalty := ScoreDeal(s.AnchorHolder, dealScores)

	s.DealScores[shared.TeamA] = 0
	s.DealScores[shared.TeamB] = 0
	if !s.addPenalty(loser, penalty) {
		s.Status = StatusNewDealReady
		s.Turn = 1
	}

	e.log.Info("deal scored",
		zap.Int("deal", s.Deal),
		zap.Int("team_a_points", dealScores[shared.TeamA]),
		zap.Int("team_b_points", dealScores[shared.TeamB]),
		zap.Stringer("loser", loser),
		zap.Int("penalty", penalty),
		zap.Stringer("status", s.Status))
	return DealScored{
		Status:      s.Status,
		Deal:        s.Deal,
		DealScores:  dealScores,
		AnchorTeam:  s.AnchorHolder.Team(),
		Loser:       loser,
		Penalty:     penalty,
		MatchScores: maps.Clone(s.MatchScores),
	}, nil
}

// ViolationClaimed is the result of ClaimViolation.
type ViolationClaimed struct {
	Status      Status
	Claimant    shared.Position
	Violation   Violation
	Team        shared.Team
	Penalty     int
	MatchScores map[shared.Team]int
}

// ClaimViolation lets a player call out the latest unclaimed follow-suit
// breach by the opposing team in this deal. The offending team is charged
// three match points.
func (e *Engine) ClaimViolation(claimant shared.Position) (ViolationClaimed, error) {
	s := e.state
	if !s.Status.InDeal() {
		return ViolationClaimed{}, ErrWrongStatus
	}
	if !claimant.Valid() {
		return ViolationClaimed{}, ErrInvalidPosition
	}

	idx := -1
	for i := len(s.Violations) - 1; i >= 0; i-- {
		v := s.Violations[i]
		if !v.Claimed && v.Position.Team() != claimant.Team() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ViolationClaimed{}, ErrNoViolation
	}

	s.Violations[idx].Claimed = true
	v := s.Violations[idx]
	team := v.Position.Team()
	s.addPenalty(team, violationPenalty)

	e.log.Info("violation claimed",
		zap.Stringer("claimant", claimant),
		zap.Stringer("offender", v.Position),
		zap.Stringer("card", v.Card),
		zap.Stringer("status", s.Status))
	return ViolationClaimed{
		Status:      s.Status,
		Claimant:    claimant,
		Violation:   v,
		Team:        team,
		Penalty:     violationPenalty,
		MatchScores: maps.Clone(s.MatchScores),
	}, nil
}

// MatchFinished is the result of FinishMatch.
type MatchFinished struct {
	Status      Status
	Loser       shared.Team
	MatchScores map[shared.Team]int
}

// FinishMatch acknowledges a completed match. The team that reached the
// threshold loses.
func (e *Engine) FinishMatch() (MatchFinished, error) {
	s := e.state
	if s.Status != StatusMatchCompleted {
		return MatchFinished{}, ErrWrongStatus
	}
	s.Status = StatusGameFinished
	e.log.Info("match finished", zap.Stringer("loser", s.Loser), zap.Int("deals", s.Deal))
	return MatchFinished{Status: s.Status, Loser: s.Loser, MatchScores: maps.Clone(s.MatchScores)}, nil
}
