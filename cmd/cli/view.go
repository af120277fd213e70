package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pterm/pterm"

	"shama-game/internal/game"
	"shama-game/internal/shared"
)

const (
	optionRedeal = "Redeal"
	optionClaim  = "Claim violation"
)

const rulesText = `Four players in two teams: A1 and A2 against B1 and B2.
Play goes A1, B1, A2, B2. Each player gets nine cards from a 36-card deck.

The holder of the six of clubs names trump, or asks for a redeal.
The six of clubs beats everything. Jacks come next, clubs over spades over
hearts over diamonds. Then trumps, then the led suit. Other cards never win.

Follow the led suit if you can, otherwise play a trump if you can. Jacks and
the six of clubs count as their printed suit. A broken rule stands until an
opponent claims it, which costs the offending team 3 points.

Cards count ace 11, ten 10, king 4, queen 3, jack 2. Each deal is worth 120.
The team with fewer points pays a penalty; the anchor team loses a 60-60 tie.
The first team to collect 12 penalty points loses the match.`

// cardOptions labels every card in hand for the select prompt. Cards that
// break the follow-suit rule are marked.
func cardOptions(hand []shared.Card, legal []int) []string {
	opts := make([]string, len(hand))
	for i, c := range hand {
		label := fmt.Sprintf("%d) %s", i+1, c)
		if !slices.Contains(legal, i) {
			label += " (off suit)"
		}
		opts[i] = label
	}
	return opts
}

// optionIndex maps a label built by cardOptions back to its hand index.
func optionIndex(opts []string, choice string) int {
	return slices.Index(opts, choice)
}

// trumpOptions lists the suits the anchor holder may name, plus a redeal.
func trumpOptions() []string {
	opts := make([]string, 0, len(shared.Suits)+1)
	for _, s := range shared.Suits {
		opts = append(opts, fmt.Sprintf("%s %s", s.Symbol(), s))
	}
	return append(opts, optionRedeal)
}

// parseTrump reads a suit back from a trumpOptions label.
func parseTrump(choice string) (shared.Suit, bool) {
	fields := strings.Fields(choice)
	if len(fields) == 0 {
		return "", false
	}
	return shared.ParseSuit(fields[len(fields)-1])
}

func formatHand(hand []shared.Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, "  ")
}

func formatTable(table []shared.PlayedCard) string {
	if len(table) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(table))
	for i, pc := range table {
		parts[i] = fmt.Sprintf("%s: %s", pc.Position, pc.Card)
	}
	return strings.Join(parts, "  ")
}

func scoreTable(snap game.Snapshot) pterm.TableData {
	return pterm.TableData{
		{"Team", "Deal points", "Penalty points"},
		{"A", fmt.Sprint(snap.DealScores[shared.TeamA]), fmt.Sprint(snap.MatchScores[shared.TeamA])},
		{"B", fmt.Sprint(snap.DealScores[shared.TeamB]), fmt.Sprint(snap.MatchScores[shared.TeamB])},
	}
}

func printScores(snap game.Snapshot) {
	if err := pterm.DefaultTable.WithHasHeader().WithData(scoreTable(snap)).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func printTurn(name string, pos shared.Position, snap game.Snapshot) {
	body := pterm.Sprintfln("Trump: %s %s", snap.Trump.Symbol(), snap.Trump) +
		pterm.Sprintfln("Trick %d of %d", snap.Turn, game.TricksPerDeal) +
		pterm.Sprintf("Table: %s", formatTable(snap.Table))
	pterm.DefaultBox.
		WithTitle(pterm.LightCyan(fmt.Sprintf("%s (%s)", name, pos))).
		WithTitleTopCenter().
		Println(body)
}
