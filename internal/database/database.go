package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"shama-game/internal/config"
)

// Driver names registered by the imported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type Service struct {
	db     *sql.DB
	m      *sync.Mutex
	driver string
}

var schema = []string{
	`create table if not exists matches (
		id text not null primary key,
		created_at text not null,
		finished_at text not null default '',
		player_a1 text not null,
		player_a2 text not null,
		player_b1 text not null,
		player_b2 text not null,
		team_a_score integer not null default 0,
		team_b_score integer not null default 0,
		loser integer not null default 0,
		deals integer not null default 0,
		status text not null,
		strict integer not null default 0
	)`,
	`create table if not exists deals (
		match_id text not null,
		deal integer not null,
		anchor_holder integer not null,
		trump text not null,
		team_a_points integer not null default 0,
		team_b_points integer not null default 0,
		loser integer not null default 0,
		penalty integer not null default 0,
		primary key (match_id, deal)
	)`,
	`create table if not exists tricks (
		match_id text not null,
		deal integer not null,
		trick integer not null,
		winner integer not null,
		points integer not null,
		cards text not null,
		primary key (match_id, deal, trick)
	)`,
	`create table if not exists events (
		match_id text not null,
		seq integer not null,
		created_at text not null,
		type text not null,
		payload text not null,
		primary key (match_id, seq)
	)`,
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg config.Config) (*Service, error) {
	switch cfg.StorageType {
	case config.StoragePostgres:
		return Open(ctx, DriverPostgres, cfg.PostgresDSN())
	default:
		return Open(ctx, DriverSQLite, cfg.SQLitePath)
	}
}

// Open connects with the given driver and creates missing tables.
func Open(ctx context.Context, driver, dsn string) (*Service, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Service{db: db, m: &sync.Mutex{}, driver: driver}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// Driver names the database/sql driver in use.
func (s *Service) Driver() string {
	return s.driver
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (s *Service) rebind(query string) string {
	return rebind(s.driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Service) exec(ctx context.Context, query string, args ...any) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

const matchColumns = `id, created_at, finished_at, player_a1, player_a2, player_b1, player_b2,
	team_a_score, team_b_score, loser, deals, status, strict`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (Match, error) {
	var m Match
	err := row.Scan(
		&m.ID,
		&m.CreatedAt,
		&m.FinishedAt,
		&m.PlayerA1,
		&m.PlayerA2,
		&m.PlayerB1,
		&m.PlayerB2,
		&m.TeamAScore,
		&m.TeamBScore,
		&m.Loser,
		&m.Deals,
		&m.Status,
		&m.Strict)
	return m, err
}

// CreateMatch inserts a new match row.
func (s *Service) CreateMatch(ctx context.Context, m Match) error {
	if m.Status == "" {
		m.Status = MatchPlaying
	}
	return s.exec(ctx, "INSERT INTO matches ("+matchColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID,
		m.CreatedAt,
		m.FinishedAt,
		m.PlayerA1,
		m.PlayerA2,
		m.PlayerB1,
		m.PlayerB2,
		m.TeamAScore,
		m.TeamBScore,
		m.Loser,
		m.Deals,
		m.Status,
		boolInt(m.Strict))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FinishMatch stores the final result of a match.
func (s *Service) FinishMatch(ctx context.Context, m Match) error {
	return s.exec(ctx, `UPDATE matches SET finished_at = ?, team_a_score = ?, team_b_score = ?,
		loser = ?, deals = ?, status = ? WHERE id = ?`,
		m.FinishedAt,
		m.TeamAScore,
		m.TeamBScore,
		m.Loser,
		m.Deals,
		m.Status,
		m.ID)
}

// RecordDeal inserts a deal once its trump is known.
func (s *Service) RecordDeal(ctx context.Context, d Deal) error {
	return s.exec(ctx, `INSERT INTO deals (match_id, deal, anchor_holder, trump, team_a_points, team_b_points, loser, penalty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.MatchID, d.Deal, d.AnchorHolder, d.Trump, d.TeamAPoints, d.TeamBPoints, d.Loser, d.Penalty)
}

// FinishDeal stores the outcome of a scored deal.
func (s *Service) FinishDeal(ctx context.Context, d Deal) error {
	return s.exec(ctx, `UPDATE deals SET team_a_points = ?, team_b_points = ?, loser = ?, penalty = ?
		WHERE match_id = ? AND deal = ?`,
		d.TeamAPoints, d.TeamBPoints, d.Loser, d.Penalty, d.MatchID, d.Deal)
}

// RecordTrick inserts a resolved trick.
func (s *Service) RecordTrick(ctx context.Context, t Trick) error {
	cards, err := json.Marshal(t.Cards)
	if err != nil {
		return err
	}
	return s.exec(ctx, `INSERT INTO tricks (match_id, deal, trick, winner, points, cards) VALUES (?, ?, ?, ?, ?, ?)`,
		t.MatchID, t.Deal, t.Trick, t.Winner, t.Points, string(cards))
}

// LogEvent appends to the event log of a match.
func (s *Service) LogEvent(ctx context.Context, e Event) error {
	return s.exec(ctx, `INSERT INTO events (match_id, seq, created_at, type, payload) VALUES (?, ?, ?, ?, ?)`,
		e.MatchID, e.Seq, e.CreatedAt, e.Type, e.Payload)
}

func (s *Service) queryMatches(ctx context.Context, query string, args ...any) ([]Match, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func (s *Service) GetAll(ctx context.Context) ([]Match, error) {
	return s.queryMatches(ctx, "SELECT "+matchColumns+" FROM matches ORDER BY created_at DESC")
}

// GetByID returns a match with its deals, or sql.ErrNoRows.
func (s *Service) GetByID(ctx context.Context, id string) (MatchDetail, error) {
	s.m.Lock()
	defer s.m.Unlock()

	m, err := scanMatch(s.db.QueryRowContext(ctx, s.rebind("SELECT "+matchColumns+" FROM matches WHERE id = ?"), id))
	if err != nil {
		return MatchDetail{}, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT match_id, deal, anchor_holder, trump, team_a_points, team_b_points, loser, penalty
		FROM deals WHERE match_id = ? ORDER BY deal`), id)
	if err != nil {
		return MatchDetail{}, err
	}
	defer rows.Close()

	detail := MatchDetail{Match: m}
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.MatchID, &d.Deal, &d.AnchorHolder, &d.Trump, &d.TeamAPoints, &d.TeamBPoints, &d.Loser, &d.Penalty); err != nil {
			return MatchDetail{}, err
		}
		detail.DealList = append(detail.DealList, d)
	}
	return detail, rows.Err()
}

// Tricks returns the tricks of one deal in order.
func (s *Service) Tricks(ctx context.Context, matchID string, deal int) ([]Trick, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT match_id, deal, trick, winner, points, cards
		FROM tricks WHERE match_id = ? AND deal = ? ORDER BY trick`), matchID, deal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tricks []Trick
	for rows.Next() {
		var t Trick
		var cards string
		if err := rows.Scan(&t.MatchID, &t.Deal, &t.Trick, &t.Winner, &t.Points, &cards); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cards), &t.Cards); err != nil {
			return nil, fmt.Errorf("trick %d cards: %w", t.Trick, err)
		}
		tricks = append(tricks, t)
	}
	return tricks, rows.Err()
}

// Events returns the event log of a match in order.
func (s *Service) Events(ctx context.Context, matchID string) ([]Event, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT match_id, seq, created_at, type, payload
		FROM events WHERE match_id = ? ORDER BY seq`), matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.MatchID, &e.Seq, &e.CreatedAt, &e.Type, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByPlayer returns the matches a player sat in, or sql.ErrNoRows.
func (s *Service) GetByPlayer(ctx context.Context, playerName string) ([]Match, error) {
	results, err := s.queryMatches(ctx, "SELECT "+matchColumns+" FROM matches"+
		" WHERE player_a1 = ? OR player_a2 = ? OR player_b1 = ? OR player_b2 = ? ORDER BY created_at DESC",
		playerName,
		playerName,
		playerName,
		playerName)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows
	}
	return results, nil
}

// PlayerStats counts wins and losses over a player's completed matches.
func (s *Service) PlayerStats(ctx context.Context, playerName string) (PlayerStats, error) {
	matches, err := s.GetByPlayer(ctx, playerName)
	if err != nil {
		return PlayerStats{}, err
	}
	stats := PlayerStats{Name: playerName}
	for _, m := range matches {
		if m.Status != MatchFinished && m.Status != MatchForfeit {
			continue
		}
		stats.Played++
		if m.Status == MatchForfeit {
			stats.Forfeits++
		}
		if m.TeamOf(playerName) == m.Loser {
			stats.Lost++
		} else {
			stats.Won++
		}
	}
	return stats, nil
}
