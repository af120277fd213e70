package server

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"go.uber.org/zap"

	"shama-game/internal/bot"
	"shama-game/internal/protocol"
	"shama-game/internal/room"
	"shama-game/internal/shared"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

const gameCodeLength = 5

// lobby collects players until all four seats are taken.
type lobby struct {
	seats map[shared.Position]*Client
}

func (l *lobby) freeSeat(want shared.Position) (shared.Position, error) {
	if want != 0 {
		if !want.Valid() {
			return 0, fmt.Errorf("invalid position %d", want)
		}
		if l.seats[want] != nil {
			return 0, fmt.Errorf("seat %s is taken", want)
		}
		return want, nil
	}
	for _, pos := range shared.SeatOrder {
		if l.seats[pos] == nil {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("game lobby is full")
}

func (l *lobby) clients() []*Client {
	var out []*Client
	for _, pos := range shared.SeatOrder {
		if c := l.seats[pos]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// HubConfig holds what the hub passes on to every room.
type HubConfig struct {
	Logger   *zap.Logger
	Recorder room.Recorder
	Strict   bool
	Rand     *rand.Rand
}

// Hub manages active WebSocket connections, lobbies, and game rooms.
type Hub struct {
	clients        map[*Client]bool
	lobbies        map[string]*lobby
	rooms          map[string]*room.Room
	clientToGame   map[*Client]string
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
	clientMu       sync.RWMutex
	lobbyMu        sync.RWMutex
	gameMu         sync.RWMutex
	rngMu          sync.Mutex
	rng            *rand.Rand
	log            *zap.Logger
	rec            room.Recorder
	strict         bool
}

// NewHub creates a new Hub instance.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Hub{
		clients:        make(map[*Client]bool),
		lobbies:        make(map[string]*lobby),
		rooms:          make(map[string]*room.Room),
		clientToGame:   make(map[*Client]string),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		rng:            cfg.Rand,
		log:            cfg.Logger,
		rec:            cfg.Recorder,
		strict:         cfg.Strict,
	}
}

func (h *Hub) intn(n int) int {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	return h.rng.IntN(n)
}

// generateGameCode creates a unique alphanumeric game code.
func (h *Hub) generateGameCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		var sb strings.Builder
		for i := 0; i < gameCodeLength; i++ {
			sb.WriteByte(letters[h.intn(len(letters))])
		}
		code := sb.String()

		h.lobbyMu.RLock()
		_, lobbyExists := h.lobbies[code]
		h.lobbyMu.RUnlock()

		h.gameMu.RLock()
		_, gameExists := h.rooms[code]
		h.gameMu.RUnlock()

		if !lobbyExists && !gameExists {
			return code
		}
		h.log.Debug("game code collided, retrying", zap.String("code", code))
	}
}

// Run starts the Hub's main loop. It returns when ctx is cancelled; call it
// once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()
			h.log.Info("client connected", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(ctx, client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(ctx, clientMsg.client, clientMsg.message)
		}
	}
}

// join, leave and dispatch hand work to the loop in Run. Once Run has
// returned they give up instead of blocking.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) dispatch(c *Client, msg protocol.Message) bool {
	select {
	case h.processMessage <- clientMessage{client: c, message: msg}:
		return true
	case <-h.done:
		return false
	}
}

// removeClient forgets a disconnected client and tells its lobby or room.
func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.clientMu.Lock()
	gameCode, inGameOrLobby := h.clientToGame[client]
	_, clientExists := h.clients[client]
	if clientExists {
		delete(h.clients, client)
		delete(h.clientToGame, client)
		close(client.send)
	}
	h.clientMu.Unlock()

	log := h.log.With(zap.String("client_id", client.ID), zap.String("name", client.Name))
	if !clientExists {
		return
	}
	log.Info("client disconnected")
	if !inGameOrLobby {
		return
	}

	h.lobbyMu.Lock()
	if l, ok := h.lobbies[gameCode]; ok {
		delete(l.seats, client.Position)
		remaining := l.clients()
		if len(remaining) == 0 {
			delete(h.lobbies, gameCode)
			log.Info("lobby deleted", zap.String("code", gameCode))
		}
		h.lobbyMu.Unlock()
		if len(remaining) > 0 {
			h.broadcastLobbyUpdate(gameCode)
		}
		return
	}
	h.lobbyMu.Unlock()

	h.gameMu.RLock()
	r, ok := h.rooms[gameCode]
	h.gameMu.RUnlock()
	if !ok {
		log.Debug("client mapped to unknown game", zap.String("code", gameCode))
		return
	}
	go func() {
		r.HandlePlayerDisconnect(ctx, client.ID)
		h.cleanupRoom(gameCode, r)
	}()
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(ctx context.Context, client *Client, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeCreateGame:
		h.handleCreateGame(ctx, client, msg)
	case protocol.TypeJoinGame:
		h.handleJoinGame(ctx, client, msg)
	case protocol.TypePlayCard, protocol.TypeDeclareTrump, protocol.TypeClaimViolation, protocol.TypeRedeal, protocol.TypeScoreDeal:
		h.handleGameAction(ctx, client, msg)
	case protocol.TypePing:
		pongMsg, _ := protocol.NewMessage(protocol.TypePong, nil)
		h.sendMessageToClient(client.ID, pongMsg)
	default:
		h.log.Debug("unknown message type", zap.String("type", msg.Type), zap.String("client_id", client.ID))
		h.sendErrorToClient(client, "Unknown message type.")
	}
}

func (h *Hub) inGame(client *Client) bool {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	_, ok := h.clientToGame[client]
	return ok
}

// handleCreateGame opens a lobby, or starts a match against bots right away.
func (h *Hub) handleCreateGame(ctx context.Context, client *Client, msg protocol.Message) {
	if h.inGame(client) {
		h.sendErrorToClient(client, "Already in a game or lobby.")
		return
	}
	var payload protocol.CreateGamePayload
	if err := protocol.Decode(msg, &payload); err != nil {
		h.sendErrorToClient(client, "Invalid create_game message format.")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		h.sendErrorToClient(client, "Name cannot be empty.")
		return
	}

	l := &lobby{seats: make(map[shared.Position]*Client, 4)}
	pos, err := l.freeSeat(payload.Position)
	if err != nil {
		h.sendErrorToClient(client, err.Error())
		return
	}

	gameCode := h.generateGameCode()
	h.clientMu.Lock()
	client.Name = payload.Name
	client.Position = pos
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()
	l.seats[pos] = client

	h.log.Info("lobby created",
		zap.String("code", gameCode),
		zap.String("client_id", client.ID),
		zap.Stringer("position", pos),
		zap.Bool("bots", payload.FillBots))

	createdMsg, _ := protocol.NewMessage(protocol.TypeGameCreated, protocol.GameCreatedPayload{GameCode: gameCode})
	h.sendMessageToClient(client.ID, createdMsg)

	if payload.FillBots {
		h.startRoom(ctx, gameCode, l, true)
		return
	}

	h.lobbyMu.Lock()
	h.lobbies[gameCode] = l
	h.lobbyMu.Unlock()
	h.broadcastLobbyUpdate(gameCode)
}

// handleJoinGame handles a request to join an existing game lobby.
func (h *Hub) handleJoinGame(ctx context.Context, client *Client, msg protocol.Message) {
	if h.inGame(client) {
		h.sendJoinError(client, "Already in a game or lobby.")
		return
	}

	var payload protocol.JoinGamePayload
	if err := protocol.Decode(msg, &payload); err != nil {
		h.sendJoinError(client, "Invalid join_game message format.")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		h.sendJoinError(client, "Name cannot be empty.")
		return
	}
	if payload.GameCode == "" {
		h.sendJoinError(client, "Game code cannot be empty.")
		return
	}
	gameCode := strings.ToUpper(strings.TrimSpace(payload.GameCode))

	h.lobbyMu.Lock()
	l, ok := h.lobbies[gameCode]
	if !ok {
		h.lobbyMu.Unlock()
		h.sendJoinError(client, "Game code not found.")
		return
	}
	for _, c := range l.seats {
		if c.Name == payload.Name {
			h.lobbyMu.Unlock()
			h.sendJoinError(client, "Name already taken in this lobby.")
			return
		}
	}
	pos, err := l.freeSeat(payload.Position)
	if err != nil {
		h.lobbyMu.Unlock()
		h.sendJoinError(client, err.Error())
		return
	}
	l.seats[pos] = client
	full := len(l.seats) == len(shared.SeatOrder)
	if full {
		delete(h.lobbies, gameCode)
	}
	h.lobbyMu.Unlock()

	h.clientMu.Lock()
	client.Name = payload.Name
	client.Position = pos
	h.clientToGame[client] = gameCode
	h.clientMu.Unlock()

	h.log.Info("client joined lobby",
		zap.String("code", gameCode),
		zap.String("client_id", client.ID),
		zap.Stringer("position", pos),
		zap.Int("seated", len(l.seats)))

	if full {
		h.startRoom(ctx, gameCode, l, false)
		return
	}
	h.broadcastLobbyUpdate(gameCode)
}

// startRoom turns a lobby into a running match. Empty seats get bots when
// withBots is set.
func (h *Hub) startRoom(ctx context.Context, gameCode string, l *lobby, withBots bool) {
	seats := make(map[shared.Position]room.Seat, len(shared.SeatOrder))
	for _, pos := range shared.SeatOrder {
		if c := l.seats[pos]; c != nil {
			seats[pos] = room.Seat{ID: c.ID, Name: c.Name}
			continue
		}
		if withBots {
			b := bot.NewRandom(rand.New(rand.NewPCG(uint64(h.intn(1<<31)), uint64(pos))))
			seats[pos] = room.Seat{ID: gameCode + "-" + pos.String(), Name: b.Name(), Bot: b}
		}
	}

	opts := []room.Option{
		room.WithLogger(h.log),
		room.WithStrictFollowSuit(h.strict),
		room.WithRand(rand.New(rand.NewPCG(uint64(h.intn(1<<31)), uint64(h.intn(1<<31))))),
	}
	if h.rec != nil {
		opts = append(opts, room.WithRecorder(h.rec))
	}
	r, err := room.New(gameCode, seats, h.sendMessageToClient, opts...)
	if err != nil {
		h.log.Error("failed to create room", zap.String("code", gameCode), zap.Error(err))
		errMsg, _ := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: "Failed to start game due to internal error."})
		for _, c := range l.clients() {
			h.sendMessageToClient(c.ID, errMsg)
		}
		return
	}

	h.gameMu.Lock()
	h.rooms[gameCode] = r
	h.gameMu.Unlock()

	h.log.Info("match created", zap.String("code", gameCode), zap.String("match_id", r.ID), zap.Stringer("room", r))
	go func() {
		r.Start(ctx)
		h.cleanupRoom(gameCode, r)
	}()
}

// handleGameAction forwards in-match actions to the client's room.
func (h *Hub) handleGameAction(ctx context.Context, client *Client, msg protocol.Message) {
	h.clientMu.RLock()
	gameCode, inGame := h.clientToGame[client]
	h.clientMu.RUnlock()
	if !inGame {
		h.sendErrorToClient(client, "You are not in an active game or lobby.")
		return
	}

	h.gameMu.RLock()
	r, ok := h.rooms[gameCode]
	h.gameMu.RUnlock()
	if !ok {
		h.sendErrorToClient(client, "Game not found or not active.")
		return
	}

	r.HandleAction(ctx, client.ID, msg)
	h.cleanupRoom(gameCode, r)
}

// cleanupRoom drops a finished room and frees its clients for a new game.
func (h *Hub) cleanupRoom(gameCode string, r *room.Room) {
	if !r.Finished() {
		return
	}
	h.gameMu.Lock()
	if h.rooms[gameCode] != r {
		h.gameMu.Unlock()
		return
	}
	delete(h.rooms, gameCode)
	h.gameMu.Unlock()

	h.clientMu.Lock()
	for c, code := range h.clientToGame {
		if code == gameCode {
			delete(h.clientToGame, c)
		}
	}
	h.clientMu.Unlock()
	h.log.Info("room closed", zap.String("code", gameCode), zap.String("match_id", r.ID))
}

// sendMessageToClient allows the game logic to send messages back via the hub/client.
// This is passed as a callback to every room.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	var targetClient *Client
	for client := range h.clients {
		if client.ID == clientID {
			targetClient = client
			break
		}
	}
	if targetClient == nil {
		h.clientMu.RUnlock()
		h.log.Debug("no client to send to", zap.String("client_id", clientID))
		return
	}

	// Non-blocking; a full buffer means the client is gone.
	select {
	case targetClient.send <- message:
		h.clientMu.RUnlock()
	default:
		h.clientMu.RUnlock()
		h.log.Warn("client send buffer full, disconnecting", zap.String("client_id", clientID))
		go h.leave(targetClient)
	}
}

// broadcastLobbyUpdate sends the current list of players in the lobby.
func (h *Hub) broadcastLobbyUpdate(gameCode string) {
	h.lobbyMu.RLock()
	l, ok := h.lobbies[gameCode]
	if !ok {
		h.lobbyMu.RUnlock()
		return
	}
	clients := l.clients()
	infos := make([]protocol.PlayerInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, protocol.PlayerInfo{ID: c.ID, Name: c.Name, Position: c.Position, Team: c.Position.Team()})
	}
	h.lobbyMu.RUnlock()

	msgBytes, err := protocol.NewMessage(protocol.TypeLobbyUpdate, protocol.LobbyUpdatePayload{Players: infos})
	if err != nil {
		h.log.Error("failed to encode lobby update", zap.Error(err))
		return
	}
	for _, c := range clients {
		h.sendMessageToClient(c.ID, msgBytes)
	}
}

// sendErrorToClient sends a generic error message to a specific client.
func (h *Hub) sendErrorToClient(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}

// sendJoinError sends a specific join error message to a client.
func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage(protocol.TypeJoinError, protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		return
	}
	h.sendMessageToClient(client.ID, msgBytes)
}
