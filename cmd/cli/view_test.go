package main

import (
	"strings"
	"testing"

	"shama-game/internal/game"
	"shama-game/internal/shared"
)

func TestCardOptions(t *testing.T) {
	hand := []shared.Card{
		{Suit: shared.Hearts, Rank: shared.Ace},
		{Suit: shared.Spades, Rank: shared.Ten},
		{Suit: shared.Hearts, Rank: shared.Six},
	}
	opts := cardOptions(hand, []int{0, 2})

	if len(opts) != len(hand) {
		t.Fatalf("got %d options, want %d", len(opts), len(hand))
	}
	if strings.Contains(opts[0], "off suit") || strings.Contains(opts[2], "off suit") {
		t.Errorf("legal cards marked off suit: %q", opts)
	}
	if !strings.Contains(opts[1], "off suit") {
		t.Errorf("illegal card not marked: %q", opts[1])
	}
	for i, opt := range opts {
		if got := optionIndex(opts, opt); got != i {
			t.Errorf("optionIndex(%q) = %d, want %d", opt, got, i)
		}
	}
	if got := optionIndex(opts, optionClaim); got != -1 {
		t.Errorf("optionIndex(claim) = %d, want -1", got)
	}
}

func TestTrumpOptions(t *testing.T) {
	opts := trumpOptions()
	if len(opts) != len(shared.Suits)+1 || opts[len(opts)-1] != optionRedeal {
		t.Fatalf("unexpected options %q", opts)
	}
	for i, suit := range shared.Suits {
		got, ok := parseTrump(opts[i])
		if !ok || got != suit {
			t.Errorf("parseTrump(%q) = %q, %v; want %q", opts[i], got, ok, suit)
		}
	}
	if _, ok := parseTrump(optionRedeal); ok {
		t.Error("redeal parsed as a suit")
	}
	if _, ok := parseTrump(""); ok {
		t.Error("empty choice parsed as a suit")
	}
}

func TestFormatTable(t *testing.T) {
	if got := formatTable(nil); got != "(empty)" {
		t.Errorf("formatTable(nil) = %q", got)
	}
	table := []shared.PlayedCard{
		{Position: shared.A1, Card: shared.Anchor},
		{Position: shared.B1, Card: shared.Card{Suit: shared.Hearts, Rank: shared.Jack}},
	}
	got := formatTable(table)
	if !strings.HasPrefix(got, "A1: ") || !strings.Contains(got, "B1: ") {
		t.Errorf("formatTable = %q", got)
	}
}

func TestScoreTable(t *testing.T) {
	snap := game.Snapshot{
		DealScores:  map[shared.Team]int{shared.TeamA: 70, shared.TeamB: 50},
		MatchScores: map[shared.Team]int{shared.TeamA: 0, shared.TeamB: 3},
	}
	data := scoreTable(snap)
	if len(data) != 3 {
		t.Fatalf("got %d rows, want 3", len(data))
	}
	if data[1][1] != "70" || data[2][2] != "3" {
		t.Errorf("unexpected rows %q", data)
	}
}
