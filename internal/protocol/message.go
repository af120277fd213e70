package protocol

import (
	"encoding/json"
	"fmt"

	"shama-game/internal/game"
	"shama-game/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> server message types.
const (
	TypeCreateGame     = "create_game"
	TypeJoinGame       = "join_game"
	TypeDeclareTrump   = "declare_trump"
	TypePlayCard       = "play_card"
	TypeClaimViolation = "claim_violation"
	TypeRedeal         = "redeal"
	TypeScoreDeal      = "score_deal" // waive any remaining claim and score the deal
	TypePing           = "ping"
)

// Server -> client message types.
const (
	TypePong             = "pong"
	TypeGameCreated      = "game_created"
	TypeLobbyUpdate      = "lobby_update"
	TypeJoinError        = "join_error"
	TypeGameStart        = "game_start"
	TypeDealHand         = "deal_hand"
	TypeChooseTrump      = "choose_trump"
	TypeTrumpDeclared    = "trump_declared"
	TypeYourTurn         = "your_turn"
	TypeGameState        = "game_state"
	TypeCardPlayed       = "card_played"
	TypeTrickEnd         = "trick_end"
	TypeDealEnd          = "deal_end"
	TypeViolationClaimed = "violation_claimed"
	TypeClaimWindow      = "claim_window"
	TypeGameOver         = "game_over"
	TypePlayerLeft       = "player_left"
	TypeError            = "error"
)

// --- Client -> Server Payload Structs ---

type CreateGamePayload struct {
	Name     string          `json:"name"`
	Position shared.Position `json:"position,omitempty"` // 0 takes the first free seat
	FillBots bool            `json:"fill_bots,omitempty"` // start at once with bots in the other seats
}

type JoinGamePayload struct {
	Name     string          `json:"name"`
	GameCode string          `json:"game_code"`
	Position shared.Position `json:"position,omitempty"`
}

type DeclareTrumpPayload struct {
	Suit string `json:"suit"`
}

// PlayCardPayload names a card either by its hand index or by suit and rank.
type PlayCardPayload struct {
	Index *int        `json:"index,omitempty"`
	Suit  shared.Suit `json:"suit,omitempty"`
	Rank  shared.Rank `json:"rank,omitempty"`
}

// Resolve returns the hand index the payload refers to.
func (p PlayCardPayload) Resolve(hand []shared.Card) (int, error) {
	if p.Index != nil {
		return *p.Index, nil
	}
	idx := -1
	for i, c := range hand {
		if c.Suit == p.Suit && c.Rank == p.Rank {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s %s", game.ErrNoSuchCard, p.Rank, p.Suit)
	}
	return idx, nil
}

// --- Server -> Client Payload Structs ---

type GameCreatedPayload struct {
	GameCode string `json:"game_code"`
}

type LobbyUpdatePayload struct {
	Players []PlayerInfo `json:"players"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

type PlayerInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position shared.Position `json:"position"`
	Team     shared.Team     `json:"team"`
}

type GameStartPayload struct {
	GameID  string       `json:"game_id"`
	Players []PlayerInfo `json:"players"`
	Strict  bool         `json:"strict_follow_suit"`
}

type DealHandPayload struct {
	Deal         int             `json:"deal"`
	Hand         []shared.Card   `json:"hand"`
	AnchorHolder shared.Position `json:"anchor_holder"`
}

type ChooseTrumpPayload struct {
	Position  shared.Position `json:"position"`
	CanRedeal bool            `json:"can_redeal"`
}

type TrumpDeclaredPayload struct {
	Position shared.Position `json:"position"`
	PlayerID string          `json:"player_id"`
	Trump    shared.Suit     `json:"trump"`
	Hand     []shared.Card   `json:"hand"` // the receiver's hand, re-sorted
}

type YourTurnPayload struct {
	PlayerID   string        `json:"player_id"`
	Hand       []shared.Card `json:"hand"`
	ValidMoves []int         `json:"valid_moves"`
}

// GameStatePayload is the public view of a match; hands are never included.
type GameStatePayload struct {
	game.Snapshot
	CurrentPlayerID string `json:"current_player_id"`
}

type CardPlayedPayload struct {
	Position shared.Position `json:"position"`
	PlayerID string          `json:"player_id"`
	Card     shared.Card     `json:"card"`
	Trick    int             `json:"trick"`
}

type TrickEndPayload struct {
	Trick    int                 `json:"trick"`
	Winner   shared.PlayedCard   `json:"winner"`
	WinnerID string              `json:"winner_id"`
	Cards    []shared.PlayedCard `json:"cards"`
	Points   int                 `json:"points"`
	Team     shared.Team         `json:"team"`
}

type DealEndPayload struct {
	Deal        int                 `json:"deal"`
	DealScores  map[shared.Team]int `json:"deal_scores"`
	AnchorTeam  shared.Team         `json:"anchor_team"`
	Loser       shared.Team         `json:"loser"`
	Penalty     int                 `json:"penalty"`
	MatchScores map[shared.Team]int `json:"match_scores"`
}

type ViolationClaimedPayload struct {
	Claimant    shared.Position     `json:"claimant"`
	Offender    shared.Position     `json:"offender"`
	Card        shared.Card         `json:"card"`
	Team        shared.Team         `json:"team"`
	Penalty     int                 `json:"penalty"`
	MatchScores map[shared.Team]int `json:"match_scores"`
}

// ClaimWindowPayload is sent when the last trick is taken while violations
// are still unclaimed. The deal is scored once every listed seat has claimed
// or sent score_deal.
type ClaimWindowPayload struct {
	Deal      int               `json:"deal"`
	Claimants []shared.Position `json:"claimants"`
}

type GameOverPayload struct {
	Loser       shared.Team         `json:"loser"`
	Winner      shared.Team         `json:"winner"`
	MatchScores map[shared.Team]int `json:"match_scores"`
	Forfeit     bool                `json:"forfeit,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}

type PlayerLeftPayload struct {
	PlayerID string          `json:"player_id"`
	Position shared.Position `json:"position"`
}

// Error kinds sent with rule errors.
const (
	KindIllegalActor = "illegal_actor"
	KindIllegalValue = "illegal_value"
	KindIllegalState = "illegal_state"
	KindInvariant    = "invariant_violation"
)

var errorKinds = map[error]string{
	game.ErrIllegalActor: KindIllegalActor,
	game.ErrIllegalValue: KindIllegalValue,
	game.ErrIllegalState: KindIllegalState,
	game.ErrInvariant:    KindInvariant,
}

// ErrorPayload carries a message and, for rule errors, the error category.
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// NewError builds an error payload from err.
func NewError(err error) ErrorPayload {
	return ErrorPayload{Message: err.Error(), Kind: errorKinds[game.Category(err)]}
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload any) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: payloadBytes})
}

// Decode unmarshals the payload of msg into v.
func Decode(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, err)
	}
	return nil
}
