// Command cli plays a Shama match in the terminal. Humans share the keyboard;
// seats left without a name are taken by bots.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"shama-game/internal/bot"
	"shama-game/internal/config"
	"shama-game/internal/game"
	"shama-game/internal/logging"
	"shama-game/internal/shared"
)

type seat struct {
	name string
	bot  bot.Player
}

func main() {
	if err := run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Info logs would interleave with the prompts.
	logger, err := logging.New("warn", cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pterm.DefaultHeader.WithFullWidth().Println("Shama")
	for {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{"Play", "Rules", "Quit"}).
			Show("Menu")
		if err != nil {
			return err
		}
		switch choice {
		case "Play":
			if err := playMatch(cfg, logger); err != nil {
				return err
			}
		case "Rules":
			pterm.DefaultBox.WithTitle("Rules").Println(rulesText)
		default:
			return nil
		}
	}
}

func playMatch(cfg config.Config, logger *zap.Logger) error {
	engine := game.NewEngine(
		game.WithLogger(logger),
		game.WithStrictFollowSuit(cfg.EnforceFollowSuit),
	)

	seats := make(map[shared.Position]seat, len(shared.SeatOrder))
	for _, pos := range shared.SeatOrder {
		name, err := pterm.DefaultInteractiveTextInput.
			Show(fmt.Sprintf("Name for %s (empty for a bot)", pos))
		if err != nil {
			return err
		}
		s := seat{name: strings.TrimSpace(name)}
		if s.name == "" {
			s.bot = bot.NewRandom(nil)
			s.name = s.bot.Name()
		}
		if _, err := engine.AddPlayer(pos, pos.String(), s.name); err != nil {
			return err
		}
		seats[pos] = s
	}

	for {
		s := engine.State()
		var err error
		switch {
		case s.Status.CanDeal():
			err = startDeal(engine)
		case s.Status == game.StatusWaitingTrump:
			err = chooseTrump(engine, seats[s.AnchorHolder])
		case s.Status.CanPlayCard():
			err = takeTurn(engine, seats[s.Leader])
		case s.Status == game.StatusTrickCompleted:
			err = resolveTrick(engine, seats)
		case s.Status == game.StatusGameCompleted:
			err = closeDeal(engine, seats)
		case s.Status == game.StatusMatchCompleted:
			return finishMatch(engine)
		default:
			return fmt.Errorf("unexpected status %s", s.Status)
		}
		if err != nil {
			// A rejected human move is reported and asked again.
			if errors.Is(err, game.ErrIllegalValue) || errors.Is(err, game.ErrIllegalActor) {
				pterm.Warning.Println(err)
				continue
			}
			return err
		}
	}
}

func startDeal(e *game.Engine) error {
	res, err := e.StartDeal()
	if err != nil {
		return err
	}
	pterm.DefaultSection.Printfln("Deal %d", res.Deal)
	pterm.Info.Printfln("%s holds the six of clubs", res.AnchorHolder)
	return nil
}

func chooseTrump(e *game.Engine, st seat) error {
	s := e.State()
	pos := s.AnchorHolder
	if st.bot != nil {
		if _, err := bot.Act(e, pos, st.bot); err != nil {
			return err
		}
		if e.State().Status == game.StatusWaitingTrump {
			pterm.Info.Printfln("%s asked for a redeal", st.name)
		}
		return nil
	}

	pterm.Info.Printfln("%s (%s), your hand: %s", st.name, pos, formatHand(s.Player(pos).Hand))
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(trumpOptions()).
		Show("Name trump")
	if err != nil {
		return err
	}
	if choice == optionRedeal {
		_, err := e.Redeal(pos)
		return err
	}
	suit, ok := parseTrump(choice)
	if !ok {
		return game.ErrInvalidSuit
	}
	res, err := e.DeclareTrump(pos, suit)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s names %s %s trump", st.name, res.Trump.Symbol(), res.Trump)
	return nil
}

func takeTurn(e *game.Engine, st seat) error {
	s := e.State()
	pos := s.Leader
	if st.bot != nil {
		if e.Snapshot().PendingViolation(pos) {
			if err := claim(e, pos, st.name); err != nil {
				return err
			}
			if e.State().Status.Terminal() {
				return nil
			}
		}
		idx := st.bot.PlayCard(bot.NewView(e, pos))
		return play(e, pos, st.name, idx)
	}

	snap := e.Snapshot()
	printTurn(st.name, pos, snap)
	hand := s.Player(pos).Hand
	opts := cardOptions(hand, e.LegalMoves(pos))
	if snap.PendingViolation(pos) {
		opts = append(opts, optionClaim)
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(opts).
		WithMaxHeight(len(opts)).
		Show("Play a card")
	if err != nil {
		return err
	}
	if choice == optionClaim {
		return claim(e, pos, st.name)
	}
	return play(e, pos, st.name, optionIndex(opts, choice))
}

func play(e *game.Engine, pos shared.Position, name string, idx int) error {
	res, err := e.PlayCard(pos, idx)
	if err != nil {
		return err
	}
	pterm.Printfln("%s (%s) plays %s", name, pos, res.Card)
	return nil
}

func claim(e *game.Engine, pos shared.Position, name string) error {
	res, err := e.ClaimViolation(pos)
	if err != nil {
		return err
	}
	pterm.Warning.Printfln("%s calls out %s for playing %s: team %s pays %d",
		name, res.Violation.Position, res.Violation.Card, res.Team, res.Penalty)
	return nil
}

func resolveTrick(e *game.Engine, seats map[shared.Position]seat) error {
	res, err := e.ResolveTrick()
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s (%s) takes trick %d with %s for %d points",
		seats[res.Winner].name, res.Winner, res.Trick, res.Card, res.Points)
	return nil
}

// closeDeal gives every seat a last chance to call out open violations, then
// scores the deal.
func closeDeal(e *game.Engine, seats map[shared.Position]seat) error {
	for _, pos := range shared.SeatOrder {
		st := seats[pos]
		for e.Snapshot().PendingViolation(pos) {
			if st.bot == nil {
				ok, err := pterm.DefaultInteractiveConfirm.
					Show(fmt.Sprintf("%s (%s), claim a violation before scoring?", st.name, pos))
				if err != nil {
					return err
				}
				if !ok {
					break
				}
			}
			if err := claim(e, pos, st.name); err != nil {
				return err
			}
			if e.State().Status.Terminal() {
				return nil
			}
		}
	}
	return scoreDeal(e)
}

func scoreDeal(e *game.Engine) error {
	snap := e.Snapshot()
	res, err := e.ScoreDeal()
	if err != nil {
		return err
	}
	pterm.DefaultSection.Printfln("Deal %d over", res.Deal)
	snap.MatchScores = res.MatchScores
	printScores(snap)
	pterm.Info.Printfln("Team %s pays %d", res.Loser, res.Penalty)
	return nil
}

func finishMatch(e *game.Engine) error {
	res, err := e.FinishMatch()
	if err != nil {
		return err
	}
	pterm.DefaultBox.WithTitle(pterm.LightGreen("|MATCH OVER|")).WithTitleTopCenter().
		Printfln("Team %s wins, team %s reached %d penalty points",
			res.Loser.Opponent(), res.Loser, res.MatchScores[res.Loser])
	return nil
}
