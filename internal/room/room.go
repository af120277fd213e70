// Package room runs one networked Shama match: it owns the engine, serialises
// player actions and tells every seat what happened.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shama-game/internal/bot"
	"shama-game/internal/database"
	"shama-game/internal/game"
	"shama-game/internal/logging"
	"shama-game/internal/protocol"
	"shama-game/internal/shared"
)

// MessageSender delivers an encoded message to one client.
type MessageSender func(clientID string, message []byte)

// Recorder persists match history. *database.Service implements it.
type Recorder interface {
	CreateMatch(ctx context.Context, m database.Match) error
	FinishMatch(ctx context.Context, m database.Match) error
	RecordDeal(ctx context.Context, d database.Deal) error
	FinishDeal(ctx context.Context, d database.Deal) error
	RecordTrick(ctx context.Context, t database.Trick) error
	LogEvent(ctx context.Context, e database.Event) error
}

// Seat is a player taking part in the match. Seats with a Bot are played by
// the room itself.
type Seat struct {
	ID   string
	Name string
	Bot  bot.Player
}

// ErrMatchOver is returned for actions after the match has ended.
var ErrMatchOver = errors.New("match is over")

// Room is one match in progress.
type Room struct {
	ID   string
	Code string

	mu      sync.Mutex
	engine  *game.Engine
	seats   map[shared.Position]Seat
	send    MessageSender
	rec     Recorder
	log     *zap.Logger
	now     func() time.Time
	seq     int
	created time.Time
	stored  bool
	waived  map[shared.Position]bool
	done    bool
}

// Option configures a Room.
type Option func(*roomConfig)

type roomConfig struct {
	rec    Recorder
	log    *zap.Logger
	strict bool
	rng    *rand.Rand
	now    func() time.Time
}

// WithRecorder stores the match history in rec.
func WithRecorder(rec Recorder) Option {
	return func(c *roomConfig) { c.rec = rec }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *roomConfig) { c.log = logger }
}

// WithStrictFollowSuit rejects plays that break the follow-suit rule.
func WithStrictFollowSuit(strict bool) Option {
	return func(c *roomConfig) { c.strict = strict }
}

// WithRand makes the shuffles reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(c *roomConfig) { c.rng = rng }
}

// WithClock overrides time.Now for recorded timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *roomConfig) { c.now = now }
}

// New seats the four players of a match. Call Start to deal.
func New(code string, seats map[shared.Position]Seat, send MessageSender, opts ...Option) (*Room, error) {
	cfg := roomConfig{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.NewString()
	logger := logging.Match(cfg.log, id).With(zap.String("code", code))
	engineOpts := []game.Option{game.WithLogger(logger), game.WithStrictFollowSuit(cfg.strict)}
	if cfg.rng != nil {
		engineOpts = append(engineOpts, game.WithRand(cfg.rng))
	}

	r := &Room{
		ID:     id,
		Code:   code,
		engine: game.NewEngine(engineOpts...),
		seats:  make(map[shared.Position]Seat, len(seats)),
		send:   send,
		rec:    cfg.rec,
		log:    logger,
		now:    cfg.now,
	}
	for _, pos := range shared.SeatOrder {
		seat, ok := seats[pos]
		if !ok {
			return nil, fmt.Errorf("seat %s: %w", pos, game.ErrMissingPlayer)
		}
		if _, err := r.engine.AddPlayer(pos, seat.ID, seat.Name); err != nil {
			return nil, fmt.Errorf("seat %s: %w", pos, err)
		}
		r.seats[pos] = seat
	}
	return r, nil
}

// Start records the match, announces it and deals the first hands. It does
// nothing if the match already ended, e.g. by a player leaving first.
func (r *Room) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		r.log.Debug("match ended before it started")
		return
	}
	r.log.Info("match starting", zap.Strings("players", r.names()))
	r.store(ctx)

	r.broadcast(protocol.TypeGameStart, protocol.GameStartPayload{
		GameID:  r.ID,
		Players: r.playerInfos(),
		Strict:  r.engine.Strict(),
	})
	r.startDeal(ctx)
	r.runBots(ctx)
}

// HandleAction applies a message from a seated client.
func (r *Room) HandleAction(ctx context.Context, clientID string, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.positionOf(clientID)
	if !ok {
		r.log.Warn("action from unknown client", zap.String("client_id", clientID), zap.String("type", msg.Type))
		return
	}
	if r.done {
		r.sendError(clientID, ErrMatchOver)
		return
	}

	var err error
	switch msg.Type {
	case protocol.TypeDeclareTrump:
		var p protocol.DeclareTrumpPayload
		if err = protocol.Decode(msg, &p); err != nil {
			break
		}
		suit, valid := shared.ParseSuit(p.Suit)
		if !valid {
			err = fmt.Errorf("%w: %q", game.ErrInvalidSuit, p.Suit)
			break
		}
		err = r.declareTrump(ctx, pos, suit)

	case protocol.TypeRedeal:
		err = r.redeal(ctx, pos)

	case protocol.TypePlayCard:
		var p protocol.PlayCardPayload
		if err = protocol.Decode(msg, &p); err != nil {
			break
		}
		var idx int
		if idx, err = p.Resolve(r.engine.State().Player(pos).Hand); err != nil {
			break
		}
		err = r.playCard(ctx, pos, idx)

	case protocol.TypeClaimViolation:
		err = r.claimViolation(ctx, pos)

	case protocol.TypeScoreDeal:
		err = r.waiveClaims(ctx, pos)

	default:
		err = fmt.Errorf("unknown action %q", msg.Type)
	}

	if err != nil {
		r.log.Debug("action rejected",
			zap.Stringer("position", pos),
			zap.String("type", msg.Type),
			zap.Error(err))
		r.sendError(clientID, err)
		if errors.Is(err, game.ErrInvariant) {
			r.abort(ctx, err)
		}
		return
	}
	r.runBots(ctx)
}

// HandlePlayerDisconnect ends the match; the leaving player's team forfeits.
func (r *Room) HandlePlayerDisconnect(ctx context.Context, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.positionOf(clientID)
	if !ok {
		return
	}
	if r.done {
		r.log.Debug("player left finished match", zap.Stringer("position", pos))
		return
	}

	loser := pos.Team()
	r.log.Info("player disconnected, team forfeits", zap.Stringer("position", pos), zap.Stringer("team", loser))
	r.broadcast(protocol.TypePlayerLeft, protocol.PlayerLeftPayload{PlayerID: clientID, Position: pos})
	r.end(ctx, loser, database.MatchForfeit, "player left")
}

// Finished reports whether the match has ended.
func (r *Room) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Snapshot returns the current public state.
func (r *Room) Snapshot() game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// --- game flow, lock held ---

// store inserts the match row once, so a result can always be written.
func (r *Room) store(ctx context.Context) {
	if r.stored {
		return
	}
	r.stored = true
	r.created = r.now().UTC()
	if r.rec == nil {
		return
	}
	m := database.Match{
		ID:        r.ID,
		CreatedAt: r.created.Format(time.RFC3339),
		PlayerA1:  r.seats[shared.A1].Name,
		PlayerA2:  r.seats[shared.A2].Name,
		PlayerB1:  r.seats[shared.B1].Name,
		PlayerB2:  r.seats[shared.B2].Name,
		Status:    database.MatchPlaying,
		Strict:    r.engine.Strict(),
	}
	if err := r.rec.CreateMatch(ctx, m); err != nil {
		r.log.Warn("failed to record match", zap.Error(err))
	}
}

func (r *Room) startDeal(ctx context.Context) {
	res, err := r.engine.StartDeal()
	if err != nil {
		r.abort(ctx, err)
		return
	}
	r.announceDeal(ctx, res)
}

func (r *Room) announceDeal(ctx context.Context, res game.DealStarted) {
	r.event(ctx, "deal_started", map[string]any{"deal": res.Deal, "anchor_holder": res.AnchorHolder})
	for _, pos := range shared.SeatOrder {
		r.sendTo(pos, protocol.TypeDealHand, protocol.DealHandPayload{
			Deal:         res.Deal,
			Hand:         r.engine.State().Player(pos).Hand,
			AnchorHolder: res.AnchorHolder,
		})
	}
	r.broadcastState()
	r.sendTo(res.AnchorHolder, protocol.TypeChooseTrump, protocol.ChooseTrumpPayload{
		Position:  res.AnchorHolder,
		CanRedeal: true,
	})
}

func (r *Room) redeal(ctx context.Context, pos shared.Position) error {
	res, err := r.engine.Redeal(pos)
	if err != nil {
		return err
	}
	r.event(ctx, "redeal", map[string]any{"position": pos})
	r.announceDeal(ctx, res)
	return nil
}

func (r *Room) declareTrump(ctx context.Context, pos shared.Position, suit shared.Suit) error {
	res, err := r.engine.DeclareTrump(pos, suit)
	if err != nil {
		return err
	}
	s := r.engine.State()
	if r.rec != nil {
		d := database.Deal{MatchID: r.ID, Deal: s.Deal, AnchorHolder: s.AnchorHolder, Trump: suit}
		if err := r.rec.RecordDeal(ctx, d); err != nil {
			r.log.Warn("failed to record deal", zap.Error(err))
		}
	}
	r.event(ctx, "trump_declared", map[string]any{"position": pos, "trump": suit})
	for _, p := range shared.SeatOrder {
		r.sendTo(p, protocol.TypeTrumpDeclared, protocol.TrumpDeclaredPayload{
			Position: pos,
			PlayerID: res.Player.ID,
			Trump:    suit,
			Hand:     s.Player(p).Hand,
		})
	}
	r.broadcastState()
	r.notifyTurn()
	return nil
}

func (r *Room) playCard(ctx context.Context, pos shared.Position, index int) error {
	res, err := r.engine.PlayCard(pos, index)
	if err != nil {
		return err
	}
	r.event(ctx, "card_played", map[string]any{"position": pos, "card": res.Card, "trick": res.Trick, "legal": res.Legal})
	r.broadcast(protocol.TypeCardPlayed, protocol.CardPlayedPayload{
		Position: pos,
		PlayerID: res.Player.ID,
		Card:     res.Card,
		Trick:    res.Trick,
	})

	if res.Status == game.StatusTrickCompleted {
		r.resolveTrick(ctx)
		return nil
	}
	r.broadcastState()
	r.notifyTurn()
	return nil
}

func (r *Room) resolveTrick(ctx context.Context) {
	res, err := r.engine.ResolveTrick()
	if err != nil {
		r.abort(ctx, err)
		return
	}
	deal := r.engine.State().Deal
	if r.rec != nil {
		t := database.Trick{MatchID: r.ID, Deal: deal, Trick: res.Trick, Winner: res.Winner, Points: res.Points, Cards: res.Cards}
		if err := r.rec.RecordTrick(ctx, t); err != nil {
			r.log.Warn("failed to record trick", zap.Error(err))
		}
	}
	r.event(ctx, "trick_resolved", map[string]any{"trick": res.Trick, "winner": res.Winner, "points": res.Points})
	r.broadcast(protocol.TypeTrickEnd, protocol.TrickEndPayload{
		Trick:    res.Trick,
		Winner:   shared.PlayedCard{Position: res.Winner, Card: res.Card},
		WinnerID: res.Player.ID,
		Cards:    res.Cards,
		Points:   res.Points,
		Team:     res.Team,
	})

	if res.Status == game.StatusGameCompleted {
		r.closeDeal(ctx)
		return
	}
	r.broadcastState()
	r.notifyTurn()
}

// closeDeal scores a finished deal unless a violation is still open. Bots
// claim at once; seated humans who could claim are asked and the deal waits
// for each of them to claim or waive.
func (r *Room) closeDeal(ctx context.Context) {
	for _, pos := range shared.SeatOrder {
		if r.seats[pos].Bot == nil {
			continue
		}
		for r.engine.Snapshot().PendingViolation(pos) {
			res, err := r.claim(ctx, pos)
			if err != nil {
				r.abort(ctx, err)
				return
			}
			if res.Status == game.StatusMatchCompleted {
				r.finish(ctx)
				return
			}
		}
	}

	if claimants := r.claimants(); len(claimants) > 0 {
		r.broadcastState()
		r.broadcast(protocol.TypeClaimWindow, protocol.ClaimWindowPayload{
			Deal:      r.engine.State().Deal,
			Claimants: claimants,
		})
		return
	}
	r.scoreDeal(ctx)
}

// claimants lists the human seats that may still call a violation before the
// deal is scored.
func (r *Room) claimants() []shared.Position {
	snap := r.engine.Snapshot()
	var out []shared.Position
	for _, pos := range shared.SeatOrder {
		if r.seats[pos].Bot == nil && !r.waived[pos] && snap.PendingViolation(pos) {
			out = append(out, pos)
		}
	}
	return out
}

func (r *Room) waiveClaims(ctx context.Context, pos shared.Position) error {
	if r.engine.State().Status != game.StatusGameCompleted {
		return game.ErrWrongStatus
	}
	if !slices.Contains(r.claimants(), pos) {
		return game.ErrNotYourTurn
	}
	if r.waived == nil {
		r.waived = make(map[shared.Position]bool)
	}
	r.waived[pos] = true
	r.event(ctx, "claims_waived", map[string]any{"position": pos})
	r.closeDeal(ctx)
	return nil
}

func (r *Room) scoreDeal(ctx context.Context) {
	r.waived = nil
	res, err := r.engine.ScoreDeal()
	if err != nil {
		r.abort(ctx, err)
		return
	}
	if r.rec != nil {
		d := database.Deal{
			MatchID:     r.ID,
			Deal:        res.Deal,
			TeamAPoints: res.DealScores[shared.TeamA],
			TeamBPoints: res.DealScores[shared.TeamB],
			Loser:       res.Loser,
			Penalty:     res.Penalty,
		}
		if err := r.rec.FinishDeal(ctx, d); err != nil {
			r.log.Warn("failed to record deal result", zap.Error(err))
		}
	}
	r.event(ctx, "deal_scored", map[string]any{"deal": res.Deal, "loser": res.Loser, "penalty": res.Penalty})
	r.broadcast(protocol.TypeDealEnd, protocol.DealEndPayload{
		Deal:        res.Deal,
		DealScores:  res.DealScores,
		AnchorTeam:  res.AnchorTeam,
		Loser:       res.Loser,
		Penalty:     res.Penalty,
		MatchScores: res.MatchScores,
	})

	if res.Status == game.StatusMatchCompleted {
		r.finish(ctx)
		return
	}
	r.startDeal(ctx)
}

func (r *Room) claimViolation(ctx context.Context, pos shared.Position) error {
	res, err := r.claim(ctx, pos)
	if err != nil {
		return err
	}
	switch res.Status {
	case game.StatusMatchCompleted:
		r.finish(ctx)
	case game.StatusGameCompleted:
		r.closeDeal(ctx)
	default:
		r.broadcastState()
	}
	return nil
}

func (r *Room) claim(ctx context.Context, pos shared.Position) (game.ViolationClaimed, error) {
	res, err := r.engine.ClaimViolation(pos)
	if err != nil {
		return res, err
	}
	r.event(ctx, "violation_claimed", map[string]any{"claimant": pos, "offender": res.Violation.Position, "card": res.Violation.Card})
	r.broadcast(protocol.TypeViolationClaimed, protocol.ViolationClaimedPayload{
		Claimant:    pos,
		Offender:    res.Violation.Position,
		Card:        res.Violation.Card,
		Team:        res.Team,
		Penalty:     res.Penalty,
		MatchScores: res.MatchScores,
	})
	return res, nil
}

func (r *Room) finish(ctx context.Context) {
	res, err := r.engine.FinishMatch()
	if err != nil {
		r.abort(ctx, err)
		return
	}
	r.end(ctx, res.Loser, database.MatchFinished, "")
}

// abort stops a match whose state can no longer be trusted.
func (r *Room) abort(ctx context.Context, cause error) {
	r.log.Error("aborting match", zap.Error(cause))
	r.broadcast(protocol.TypeError, protocol.NewError(cause))
	r.end(ctx, 0, database.MatchAborted, cause.Error())
}

func (r *Room) end(ctx context.Context, loser shared.Team, status, reason string) {
	if r.done {
		return
	}
	r.done = true
	s := r.engine.State()

	payload := protocol.GameOverPayload{
		Loser:       loser,
		MatchScores: s.Snapshot().MatchScores,
		Forfeit:     status == database.MatchForfeit,
		Reason:      reason,
	}
	if loser != 0 {
		payload.Winner = loser.Opponent()
	}
	r.event(ctx, "match_over", payload)
	r.broadcast(protocol.TypeGameOver, payload)
	r.log.Info("match over",
		zap.String("status", status),
		zap.Stringer("loser", loser),
		zap.Int("team_a", s.MatchScores[shared.TeamA]),
		zap.Int("team_b", s.MatchScores[shared.TeamB]))

	r.store(ctx)
	if r.rec != nil {
		m := database.Match{
			ID:         r.ID,
			FinishedAt: r.now().UTC().Format(time.RFC3339),
			TeamAScore: s.MatchScores[shared.TeamA],
			TeamBScore: s.MatchScores[shared.TeamB],
			Loser:      loser,
			Deals:      s.Deal,
			Status:     status,
		}
		if err := r.rec.FinishMatch(ctx, m); err != nil {
			r.log.Warn("failed to record match result", zap.Error(err))
		}
	}
}

// runBots lets bot seats act until a human has to move.
func (r *Room) runBots(ctx context.Context) {
	for !r.done {
		s := r.engine.State()
		var err error
		switch {
		case s.Status == game.StatusWaitingTrump && r.seats[s.AnchorHolder].Bot != nil:
			b := r.seats[s.AnchorHolder].Bot
			hand := s.Player(s.AnchorHolder).Hand
			if b.ShouldRedeal(hand) {
				err = r.redeal(ctx, s.AnchorHolder)
			} else {
				err = r.declareTrump(ctx, s.AnchorHolder, b.ChooseTrump(hand))
			}
		case s.Status.CanPlayCard() && r.seats[s.Leader].Bot != nil:
			b := r.seats[s.Leader].Bot
			err = r.playCard(ctx, s.Leader, b.PlayCard(bot.NewView(r.engine, s.Leader)))
		default:
			return
		}
		if err != nil {
			r.abort(ctx, fmt.Errorf("bot move: %w", err))
			return
		}
	}
}

// --- messaging, lock held ---

func (r *Room) notifyTurn() {
	s := r.engine.State()
	if !s.Status.CanPlayCard() {
		return
	}
	seat := r.seats[s.Leader]
	r.sendTo(s.Leader, protocol.TypeYourTurn, protocol.YourTurnPayload{
		PlayerID:   seat.ID,
		Hand:       s.Player(s.Leader).Hand,
		ValidMoves: r.engine.LegalMoves(s.Leader),
	})
}

func (r *Room) broadcastState() {
	snap := r.engine.Snapshot()
	r.broadcast(protocol.TypeGameState, protocol.GameStatePayload{
		Snapshot:        snap,
		CurrentPlayerID: r.seats[snap.Leader].ID,
	})
}

func (r *Room) broadcast(msgType string, payload any) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		r.log.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	for _, pos := range shared.SeatOrder {
		if seat := r.seats[pos]; seat.Bot == nil && r.send != nil {
			r.send(seat.ID, msg)
		}
	}
}

func (r *Room) sendTo(pos shared.Position, msgType string, payload any) {
	seat := r.seats[pos]
	if seat.Bot != nil || r.send == nil {
		return
	}
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		r.log.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	r.send(seat.ID, msg)
}

func (r *Room) sendError(clientID string, err error) {
	if r.send == nil {
		return
	}
	msg, encErr := protocol.NewMessage(protocol.TypeError, protocol.NewError(err))
	if encErr != nil {
		return
	}
	r.send(clientID, msg)
}

func (r *Room) event(ctx context.Context, typ string, payload any) {
	if r.rec == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Warn("failed to encode event", zap.String("type", typ), zap.Error(err))
		return
	}
	r.seq++
	e := database.Event{
		MatchID:   r.ID,
		Seq:       r.seq,
		CreatedAt: r.now().UTC().Format(time.RFC3339Nano),
		Type:      typ,
		Payload:   string(data),
	}
	if err := r.rec.LogEvent(ctx, e); err != nil {
		r.log.Warn("failed to record event", zap.String("type", typ), zap.Error(err))
	}
}

// --- helpers ---

func (r *Room) positionOf(clientID string) (shared.Position, bool) {
	for _, pos := range shared.SeatOrder {
		if seat := r.seats[pos]; seat.Bot == nil && seat.ID == clientID {
			return pos, true
		}
	}
	return 0, false
}

func (r *Room) playerInfos() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(shared.SeatOrder))
	for _, pos := range shared.SeatOrder {
		seat := r.seats[pos]
		infos = append(infos, protocol.PlayerInfo{ID: seat.ID, Name: seat.Name, Position: pos, Team: pos.Team()})
	}
	return infos
}

func (r *Room) names() []string {
	names := make([]string, 0, len(shared.SeatOrder))
	for _, pos := range shared.SeatOrder {
		names = append(names, pos.String()+"="+r.seats[pos].Name)
	}
	return names
}

// String is used in logs.
func (r *Room) String() string {
	return r.Code + "(" + strings.Join(r.names(), ",") + ")"
}
