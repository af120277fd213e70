package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shama-game/internal/protocol"
	"shama-game/internal/shared"
)

func testClient(h *Hub, id string) *Client {
	c := &Client{hub: h, send: make(chan []byte, 1024), ID: id}
	h.clientMu.Lock()
	h.clients[c] = true
	h.clientMu.Unlock()
	return c
}

// expect reads from c until a message of type typ arrives.
func expect(t *testing.T, c *Client, typ string, v any) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				t.Fatalf("%s: channel closed while waiting for %s", c.ID, typ)
			}
			var msg protocol.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("bad message %s: %v", raw, err)
			}
			if msg.Type != typ {
				continue
			}
			if v != nil {
				if err := protocol.Decode(msg, v); err != nil {
					t.Fatalf("decode %s: %v", typ, err)
				}
			}
			return
		case <-timeout:
			t.Fatalf("%s: no %s message", c.ID, typ)
		}
	}
}

func send(t *testing.T, h *Hub, c *Client, typ string, payload any) {
	t.Helper()
	raw, err := protocol.NewMessage(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	h.handleMessage(context.Background(), c, msg)
}

func TestLobbyFillsAndStarts(t *testing.T) {
	h := NewHub(HubConfig{})
	host := testClient(h, "host")
	send(t, h, host, protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann", Position: shared.B1})

	var created protocol.GameCreatedPayload
	expect(t, host, protocol.TypeGameCreated, &created)
	if len(created.GameCode) != gameCodeLength {
		t.Fatalf("unexpected game code %q", created.GameCode)
	}
	var lobbyMsg protocol.LobbyUpdatePayload
	expect(t, host, protocol.TypeLobbyUpdate, &lobbyMsg)
	if len(lobbyMsg.Players) != 1 || lobbyMsg.Players[0].Position != shared.B1 {
		t.Fatalf("unexpected lobby %+v", lobbyMsg)
	}

	others := []*Client{testClient(h, "c2"), testClient(h, "c3"), testClient(h, "c4")}
	for i, c := range others {
		send(t, h, c, protocol.TypeJoinGame, protocol.JoinGamePayload{Name: string(rune('B' + i)), GameCode: created.GameCode})
	}

	players := map[shared.Position]string{}
	for _, c := range append(others, host) {
		var start protocol.GameStartPayload
		expect(t, c, protocol.TypeGameStart, &start)
		for _, p := range start.Players {
			players[p.Position] = p.ID
		}
		var hand protocol.DealHandPayload
		expect(t, c, protocol.TypeDealHand, &hand)
		if len(hand.Hand) != 9 {
			t.Fatalf("%s got %d cards", c.ID, len(hand.Hand))
		}
	}
	if players[shared.B1] != "host" || players[shared.A1] != "c2" || players[shared.A2] != "c3" || players[shared.B2] != "c4" {
		t.Fatalf("unexpected seating %v", players)
	}

	h.lobbyMu.RLock()
	_, stillLobby := h.lobbies[created.GameCode]
	h.lobbyMu.RUnlock()
	h.gameMu.RLock()
	_, running := h.rooms[created.GameCode]
	h.gameMu.RUnlock()
	if stillLobby || !running {
		t.Fatalf("lobby should have become a room")
	}
}

func TestJoinErrors(t *testing.T) {
	h := NewHub(HubConfig{})
	host := testClient(h, "host")
	send(t, h, host, protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann"})
	var created protocol.GameCreatedPayload
	expect(t, host, protocol.TypeGameCreated, &created)

	tests := []struct {
		name    string
		payload protocol.JoinGamePayload
	}{
		{"unknown code", protocol.JoinGamePayload{Name: "Bob", GameCode: "ZZZZZ"}},
		{"empty name", protocol.JoinGamePayload{Name: " ", GameCode: created.GameCode}},
		{"empty code", protocol.JoinGamePayload{Name: "Bob"}},
		{"duplicate name", protocol.JoinGamePayload{Name: "Ann", GameCode: created.GameCode}},
		{"seat taken", protocol.JoinGamePayload{Name: "Bob", GameCode: created.GameCode, Position: shared.A1}},
		{"bad seat", protocol.JoinGamePayload{Name: "Bob", GameCode: created.GameCode, Position: 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(h, "joiner-"+tt.name)
			send(t, h, c, protocol.TypeJoinGame, tt.payload)
			var e protocol.JoinErrorPayload
			expect(t, c, protocol.TypeJoinError, &e)
			if e.Message == "" {
				t.Fatalf("join error without message")
			}
		})
	}

	send(t, h, host, protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann"})
	expect(t, host, protocol.TypeError, nil)
}

func TestLobbyDisconnect(t *testing.T) {
	h := NewHub(HubConfig{})
	host := testClient(h, "host")
	send(t, h, host, protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann"})
	var created protocol.GameCreatedPayload
	expect(t, host, protocol.TypeGameCreated, &created)

	guest := testClient(h, "guest")
	send(t, h, guest, protocol.TypeJoinGame, protocol.JoinGamePayload{Name: "Bob", GameCode: created.GameCode})
	expect(t, guest, protocol.TypeLobbyUpdate, nil)

	h.removeClient(context.Background(), host)
	var update protocol.LobbyUpdatePayload
	expect(t, guest, protocol.TypeLobbyUpdate, &update)
	if len(update.Players) != 1 || update.Players[0].ID != "guest" {
		t.Fatalf("host should have left the lobby: %+v", update)
	}

	h.removeClient(context.Background(), guest)
	h.lobbyMu.RLock()
	defer h.lobbyMu.RUnlock()
	if len(h.lobbies) != 0 {
		t.Fatalf("empty lobby should be deleted")
	}
}

func TestActionsOutsideGame(t *testing.T) {
	h := NewHub(HubConfig{})
	c := testClient(h, "lonely")
	send(t, h, c, protocol.TypeRedeal, nil)
	expect(t, c, protocol.TypeError, nil)

	send(t, h, c, protocol.TypePing, nil)
	expect(t, c, protocol.TypePong, nil)

	send(t, h, c, "dance", nil)
	expect(t, c, protocol.TypeError, nil)
}

func TestPlayAgainstBots(t *testing.T) {
	h := NewHub(HubConfig{})
	c := testClient(h, "solo")
	send(t, h, c, protocol.TypeCreateGame, protocol.CreateGamePayload{Name: "Ann", FillBots: true})

	var created protocol.GameCreatedPayload
	expect(t, c, protocol.TypeGameCreated, &created)
	var start protocol.GameStartPayload
	expect(t, c, protocol.TypeGameStart, &start)
	if len(start.Players) != 4 || start.Players[0].ID != "solo" {
		t.Fatalf("unexpected players %+v", start.Players)
	}
	expect(t, c, protocol.TypeDealHand, nil)

	h.removeClient(context.Background(), c)
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.gameMu.RLock()
		n := len(h.rooms)
		h.gameMu.RUnlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("forfeited room was not cleaned up")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStoppedHubReleasesClients(t *testing.T) {
	h := NewHub(HubConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := testClient(h, "late")
	if !h.join(testClient(h, "early")) {
		t.Fatalf("a running hub should accept clients")
	}
	cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	released := make(chan bool)
	go func() {
		h.leave(c)
		ok := h.dispatch(c, protocol.Message{Type: protocol.TypePing})
		released <- !ok && !h.join(c)
	}()
	select {
	case ok := <-released:
		if !ok {
			t.Fatalf("a stopped hub should refuse new work")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("client goroutine blocked on a stopped hub")
	}
}
