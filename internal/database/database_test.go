package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"shama-game/internal/config"
	"shama-game/internal/shared"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	s, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testMatch(id string, names ...string) Match {
	return Match{
		ID:        id,
		CreatedAt: "2024-05-01T10:00:0" + id[len(id)-1:] + "Z",
		PlayerA1:  names[0],
		PlayerA2:  names[1],
		PlayerB1:  names[2],
		PlayerB2:  names[3],
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := rebind(DriverSQLite, q); got != q {
		t.Fatalf("sqlite query changed: %q", got)
	}
	if got := rebind(DriverPostgres, q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	if d := newTestService(t).Driver(); d != DriverSQLite {
		t.Fatalf("default storage should use %s, got %s", DriverSQLite, d)
	}
}

func TestMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	m := testMatch("m1", "ann", "bob", "cat", "dan")
	m.Strict = true
	if err := s.CreateMatch(ctx, m); err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if err := s.RecordDeal(ctx, Deal{MatchID: "m1", Deal: 1, AnchorHolder: shared.B2, Trump: shared.Hearts}); err != nil {
		t.Fatalf("RecordDeal: %v", err)
	}
	cards := []shared.PlayedCard{
		{Position: shared.A1, Card: shared.Anchor},
		{Position: shared.B1, Card: shared.Card{Suit: shared.Spades, Rank: shared.King}},
	}
	if err := s.RecordTrick(ctx, Trick{MatchID: "m1", Deal: 1, Trick: 1, Winner: shared.A1, Points: 4, Cards: cards}); err != nil {
		t.Fatalf("RecordTrick: %v", err)
	}
	if err := s.FinishDeal(ctx, Deal{MatchID: "m1", Deal: 1, TeamAPoints: 70, TeamBPoints: 50, Loser: shared.TeamB, Penalty: 2}); err != nil {
		t.Fatalf("FinishDeal: %v", err)
	}
	for i, typ := range []string{"trump_declared", "card_played"} {
		if err := s.LogEvent(ctx, Event{MatchID: "m1", Seq: i + 1, CreatedAt: m.CreatedAt, Type: typ, Payload: "{}"}); err != nil {
			t.Fatalf("LogEvent: %v", err)
		}
	}
	if err := s.LogEvent(ctx, Event{MatchID: "m1", Seq: 1, Type: "dup", Payload: "{}"}); err == nil {
		t.Fatalf("duplicate event sequence should be rejected")
	}

	m.FinishedAt = "2024-05-01T11:00:00Z"
	m.TeamAScore, m.TeamBScore = 3, 12
	m.Loser = shared.TeamB
	m.Deals = 4
	m.Status = MatchFinished
	if err := s.FinishMatch(ctx, m); err != nil {
		t.Fatalf("FinishMatch: %v", err)
	}

	got, err := s.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Loser != shared.TeamB || got.TeamBScore != 12 || got.Status != MatchFinished || !got.Strict || got.Deals != 4 {
		t.Fatalf("unexpected match %+v", got.Match)
	}
	if len(got.DealList) != 1 || got.DealList[0].Trump != shared.Hearts || got.DealList[0].AnchorHolder != shared.B2 || got.DealList[0].Penalty != 2 {
		t.Fatalf("unexpected deals %+v", got.DealList)
	}

	tricks, err := s.Tricks(ctx, "m1", 1)
	if err != nil {
		t.Fatalf("Tricks: %v", err)
	}
	if len(tricks) != 1 || len(tricks[0].Cards) != 2 || tricks[0].Cards[0].Card != shared.Anchor {
		t.Fatalf("unexpected tricks %+v", tricks)
	}

	events, err := s.Events(ctx, "m1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[1].Type != "card_played" {
		t.Fatalf("unexpected events %+v", events)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPlayerQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	finished := []struct {
		match  Match
		loser  shared.Team
		status string
	}{
		{testMatch("g1", "ann", "bob", "cat", "dan"), shared.TeamB, MatchFinished},
		{testMatch("g2", "cat", "ann", "bob", "dan"), shared.TeamA, MatchFinished},
		{testMatch("g3", "eve", "bob", "ann", "dan"), shared.TeamB, MatchForfeit},
		{testMatch("g4", "ann", "bob", "cat", "dan"), 0, MatchPlaying},
	}
	for _, f := range finished {
		if err := s.CreateMatch(ctx, f.match); err != nil {
			t.Fatalf("CreateMatch: %v", err)
		}
		f.match.Loser = f.loser
		f.match.Status = f.status
		if err := s.FinishMatch(ctx, f.match); err != nil {
			t.Fatalf("FinishMatch: %v", err)
		}
	}

	all, err := s.GetAll(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("GetAll = %d, %v", len(all), err)
	}
	if all[0].ID != "g4" {
		t.Fatalf("newest match should come first, got %s", all[0].ID)
	}

	eve, err := s.GetByPlayer(ctx, "eve")
	if err != nil || len(eve) != 1 {
		t.Fatalf("GetByPlayer(eve) = %v, %v", eve, err)
	}
	if _, err := s.GetByPlayer(ctx, "zed"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	stats, err := s.PlayerStats(ctx, "ann")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	want := PlayerStats{Name: "ann", Played: 3, Won: 1, Lost: 2, Forfeits: 1}
	if stats != want {
		t.Fatalf("PlayerStats = %+v, want %+v", stats, want)
	}
}
