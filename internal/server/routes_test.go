package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shama-game/internal/database"
	"shama-game/internal/protocol"
	"shama-game/internal/shared"
)

func newTestServer(t *testing.T) (*httptest.Server, *database.Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hub := NewHub(HubConfig{Recorder: db, Logger: zap.NewNop()})
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(hub, db, "", zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, db
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := get(t, srv.URL+"/ping")
	if code != http.StatusOK || body != "pong" {
		t.Fatalf("GET /ping = %d %q", code, body)
	}
}

func TestResultsAPI(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	code, body := get(t, srv.URL+"/api/results")
	if code != http.StatusOK || strings.TrimSpace(body) != "[]" {
		t.Fatalf("empty results = %d %q", code, body)
	}

	m := database.Match{ID: "m-1", CreatedAt: "2024-05-01T10:00:00Z", PlayerA1: "ann", PlayerA2: "bob", PlayerB1: "cat", PlayerB2: "dan"}
	if err := db.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordDeal(ctx, database.Deal{MatchID: "m-1", Deal: 1, AnchorHolder: shared.A2, Trump: shared.Clubs}); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordTrick(ctx, database.Trick{MatchID: "m-1", Deal: 1, Trick: 1, Winner: shared.A2, Points: 11}); err != nil {
		t.Fatal(err)
	}
	m.Status, m.Loser, m.TeamBScore = database.MatchFinished, shared.TeamB, 12
	if err := db.FinishMatch(ctx, m); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/api/results", http.StatusOK, `"id":"m-1"`},
		{"/api/results/m-1", http.StatusOK, `"trump":"clubs"`},
		{"/api/results/nope", http.StatusNotFound, "No match"},
		{"/api/results/player/cat", http.StatusOK, `"player_b1":"cat"`},
		{"/api/results/player/zed", http.StatusNotFound, "No results"},
		{"/api/results/m-1/deals/1/tricks", http.StatusOK, `"points":11`},
		{"/api/results/m-1/deals/x/tricks", http.StatusBadRequest, "positive"},
		{"/api/results/m-1/deals/2/tricks", http.StatusNotFound, "No tricks"},
		{"/api/results/m-1/events", http.StatusNotFound, "No events"},
		{"/api/players/ann/stats", http.StatusOK, `"won":1`},
	}
	for _, tt := range tests {
		code, body := get(t, srv.URL+tt.path)
		if code != tt.code || !strings.Contains(body, tt.want) {
			t.Errorf("GET %s = %d %s, want %d containing %q", tt.path, code, body, tt.code, tt.want)
		}
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestWebSocketMatchIsRecorded(t *testing.T) {
	srv, db := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	raw, _ := protocol.NewMessage(protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann", FillBots: true})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, protocol.TypeGameCreated)
	startMsg := readUntil(t, conn, protocol.TypeGameStart)
	var start protocol.GameStartPayload
	if err := json.Unmarshal(startMsg.Payload, &start); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		matches, err := db.GetByPlayer(context.Background(), "Ann")
		if err == nil && len(matches) == 1 && matches[0].ID == start.GameID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("match %s not recorded: %v %v", start.GameID, matches, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
