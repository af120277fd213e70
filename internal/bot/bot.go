// Package bot provides computer players for empty seats.
package bot

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"

	"shama-game/internal/game"
	"shama-game/internal/shared"
)

// View is what a bot may see when it is asked to play.
type View struct {
	Position shared.Position
	Hand     []shared.Card
	Legal    []int // indices into Hand
	Table    []shared.PlayedCard
	Trump    shared.Suit
}

// Player decides for one seat.
type Player interface {
	Name() string
	ShouldRedeal(hand []shared.Card) bool
	ChooseTrump(hand []shared.Card) shared.Suit
	PlayCard(v View) int
}

// Random picks a strong trump and then plays random legal cards.
type Random struct {
	BotName string
	rng     *rand.Rand
	redealt bool
}

// NewRandom returns a Random bot. A nil rng uses the global source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (b *Random) intn(n int) int {
	if b.rng == nil {
		return rand.IntN(n)
	}
	return b.rng.IntN(n)
}

func (b *Random) Name() string {
	if b.BotName == "" {
		b.BotName = "Bot_" + strconv.Itoa(b.intn(100))
	}
	return b.BotName
}

// ShouldRedeal asks for new cards when the hand holds no jack and few points.
// It never asks twice in a row.
func (b *Random) ShouldRedeal(hand []shared.Card) bool {
	if b.redealt {
		b.redealt = false
		return false
	}
	points := 0
	for _, c := range hand {
		if c.IsJack() {
			return false
		}
		points += c.Points()
	}
	b.redealt = points < 10
	return b.redealt
}

// ChooseTrump names the suit the hand is strongest in.
func (b *Random) ChooseTrump(hand []shared.Card) shared.Suit {
	return StrongestSuit(hand)
}

func (b *Random) PlayCard(v View) int {
	if len(v.Legal) == 0 {
		return b.intn(len(v.Hand))
	}
	return v.Legal[b.intn(len(v.Legal))]
}

// StrongestSuit scores each suit by card count and card points, ignoring the
// six of clubs and jacks which are strong whatever the trump.
func StrongestSuit(hand []shared.Card) shared.Suit {
	best, bestScore := shared.Clubs, -1
	for _, suit := range shared.Suits {
		score := 0
		for _, c := range hand {
			if c.Suit != suit || c.IsAnchor() || c.IsJack() {
				continue
			}
			score += 10 + c.Points()
		}
		if score > bestScore {
			best, bestScore = suit, score
		}
	}
	return best
}

// NewView builds the view of pos from the engine state.
func NewView(e *game.Engine, pos shared.Position) View {
	s := e.State()
	v := View{
		Position: pos,
		Legal:    e.LegalMoves(pos),
		Table:    s.Table.Clone().Cards,
		Trump:    s.Trump,
	}
	if p := s.Player(pos); p != nil {
		v.Hand = slices.Clone(p.Hand)
	}
	return v
}

// Act performs whatever the engine currently expects from pos: redeal or name
// trump when pos holds the six of clubs, or play a card when it is pos's turn.
// It reports false when pos has nothing to do.
func Act(e *game.Engine, pos shared.Position, p Player) (bool, error) {
	s := e.State()
	player := s.Player(pos)
	if player == nil {
		return false, fmt.Errorf("no player at %s", pos)
	}

	switch {
	case s.Status == game.StatusWaitingTrump && s.AnchorHolder == pos:
		if p.ShouldRedeal(player.Hand) {
			_, err := e.Redeal(pos)
			return err == nil, err
		}
		_, err := e.DeclareTrump(pos, p.ChooseTrump(player.Hand))
		return err == nil, err

	case s.Status.CanPlayCard() && s.Leader == pos:
		idx := p.PlayCard(NewView(e, pos))
		_, err := e.PlayCard(pos, idx)
		return err == nil, err
	}
	return false, nil
}
