// Package ws carries the real-time command surface: one WebSocket per
// participant, JSON envelopes in, replies to the caller and broadcasts
// to the room out.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"snatch/internal/game"
	"snatch/internal/room"
	"snatch/internal/tiles"
)

// Registry is the session-registry capability the hub depends on.
type Registry interface {
	CreateRoom(hostName, participantID string, variant tiles.Variant) (string, *game.Session)
	JoinRoom(roomCode, name, participantID string) (*game.Session, error)
	ByParticipant(participantID string) (*game.Session, bool)
	RemoveParticipant(participantID string) (room.Departure, bool)
}

type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// client wraps a connection with a write mutex; replies from the read
// loop and broadcasts from other players' goroutines would otherwise
// interleave writes on the same conn.
type client struct {
	mu            sync.Mutex
	conn          *websocket.Conn
	participantID string
	roomCode      string
}

func (c *client) send(action string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(map[string]interface{}{
		"action": action,
		"data":   data,
	})
}

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	registry Registry
}

func NewHub(registry Registry) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*client]struct{}),
		registry: registry,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// HandleWS upgrades the connection, assigns the participant id, and
// runs the read loop until the peer goes away.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, participantID: uuid.NewString()}
	log.Info().Str("participant", cl.participantID).Msg("participant connected")

	// The original relied on the socket.io client knowing its own
	// socket id; an explicit hello replaces that.
	if err := cl.send("connected", gin.H{"participantId": cl.participantID}); err != nil {
		_ = conn.Close()
		return
	}

	defer h.disconnect(cl)

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Str("participant", cl.participantID).Msg("read loop ended")
			break
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) dispatch(cl *client, msg envelope) {
	switch msg.Action {
	case "createRoom":
		h.handleCreateRoom(cl, msg.Data)
	case "joinRoom":
		h.handleJoinRoom(cl, msg.Data)
	case "startGame":
		h.handleStartGame(cl)
	case "flipTile":
		h.handleFlipTile(cl)
	case "claimWord":
		h.handleClaimWord(cl, msg.Data)
	case "snatchWord":
		h.handleSnatchWord(cl, msg.Data)
	case "endGame":
		h.handleEndGame(cl)
	default:
		log.Warn().Str("action", msg.Action).Msg("unknown action")
	}
}

// fail sends a structured validation failure back to the caller.
func (cl *client) fail(action, reason string) {
	_ = cl.send(action+"Result", gin.H{"success": false, "error": reason})
}

func (h *Hub) handleCreateRoom(cl *client, data json.RawMessage) {
	var req struct {
		PlayerName   string `json:"playerName"`
		ReduceVowels bool   `json:"reduceVowels"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		cl.fail("createRoom", "invalid request")
		return
	}

	variant := tiles.Standard
	if req.ReduceVowels {
		variant = tiles.ReducedVowel
	}
	code, s := h.registry.CreateRoom(req.PlayerName, cl.participantID, variant)
	h.joinRoomSet(code, cl)

	log.Info().Str("room", code).Str("host", req.PlayerName).Msg("room created")
	_ = cl.send("createRoomResult", gin.H{
		"success":   true,
		"roomCode":  code,
		"playerId":  cl.participantID,
		"gameState": s.Snapshot(),
	})
}

func (h *Hub) handleJoinRoom(cl *client, data json.RawMessage) {
	var req struct {
		RoomCode   string `json:"roomCode"`
		PlayerName string `json:"playerName"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		cl.fail("joinRoom", "invalid request")
		return
	}

	s, err := h.registry.JoinRoom(req.RoomCode, req.PlayerName, cl.participantID)
	if err != nil {
		cl.fail("joinRoom", err.Error())
		return
	}
	h.joinRoomSet(s.Code(), cl)

	player, _ := s.Player(cl.participantID)
	h.broadcastExcept(s.Code(), cl, "playerJoined", gin.H{"player": player})

	log.Info().Str("room", s.Code()).Str("player", req.PlayerName).Msg("player joined")
	_ = cl.send("joinRoomResult", gin.H{
		"success":   true,
		"playerId":  cl.participantID,
		"gameState": s.Snapshot(),
	})
}

func (h *Hub) handleStartGame(cl *client) {
	s, ok := h.registry.ByParticipant(cl.participantID)
	if !ok {
		cl.fail("startGame", "game not found")
		return
	}
	if !s.IsHost(cl.participantID) {
		cl.fail("startGame", "only host can start game")
		return
	}
	if err := s.Start(); err != nil {
		cl.fail("startGame", err.Error())
		return
	}

	log.Info().Str("room", s.Code()).Int("tiles", s.TilesRemaining()).Msg("game started")
	h.Broadcast(s.Code(), "gameStarted", gin.H{"gameState": s.Snapshot()})
	_ = cl.send("startGameResult", gin.H{"success": true})
}

func (h *Hub) handleFlipTile(cl *client) {
	s, ok := h.registry.ByParticipant(cl.participantID)
	if !ok {
		cl.fail("flipTile", "game not found")
		return
	}
	tile, err := s.FlipTile(cl.participantID)
	if err != nil {
		cl.fail("flipTile", err.Error())
		return
	}

	h.Broadcast(s.Code(), "tileFlipped", gin.H{
		"tile":           tile,
		"flippedTiles":   s.FlippedTiles(),
		"tilesRemaining": s.TilesRemaining(),
		"currentTurn":    s.CurrentTurn(),
	})
	_ = cl.send("flipTileResult", gin.H{"success": true, "tile": tile})
}

func (h *Hub) handleClaimWord(cl *client, data json.RawMessage) {
	var req struct {
		Word  string   `json:"word"`
		Tiles []string `json:"tiles"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		cl.fail("claimWord", "invalid request")
		return
	}

	s, ok := h.registry.ByParticipant(cl.participantID)
	if !ok {
		cl.fail("claimWord", "game not found")
		return
	}
	if err := s.ClaimWord(cl.participantID, req.Word, req.Tiles); err != nil {
		cl.fail("claimWord", err.Error())
		return
	}

	// Broadcast the canonical form the session stores, not the raw
	// request casing.
	word := strings.ToUpper(req.Word)
	player, _ := s.Player(cl.participantID)
	log.Info().Str("room", s.Code()).Str("player", player.Name).Str("word", word).Msg("word claimed")
	h.Broadcast(s.Code(), "wordClaimed", gin.H{
		"playerId":     cl.participantID,
		"playerName":   player.Name,
		"word":         word,
		"tiles":        req.Tiles,
		"flippedTiles": s.FlippedTiles(),
	})
	_ = cl.send("claimWordResult", gin.H{"success": true})
}

func (h *Hub) handleSnatchWord(cl *client, data json.RawMessage) {
	var req struct {
		TargetPlayerID string   `json:"targetPlayerId"`
		OldWords       []string `json:"oldWords"`
		TableTiles     []string `json:"tableTiles"`
		NewWord        string   `json:"newWord"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		cl.fail("snatchWord", "invalid request")
		return
	}

	s, ok := h.registry.ByParticipant(cl.participantID)
	if !ok {
		cl.fail("snatchWord", "game not found")
		return
	}
	if err := s.SnatchWord(cl.participantID, req.TargetPlayerID, req.OldWords, req.TableTiles, req.NewWord); err != nil {
		cl.fail("snatchWord", err.Error())
		return
	}

	newWord := strings.ToUpper(req.NewWord)
	snatcher, _ := s.Player(cl.participantID)
	target, _ := s.Player(req.TargetPlayerID)
	log.Info().Str("room", s.Code()).Str("snatcher", snatcher.Name).
		Strs("oldWords", req.OldWords).Str("newWord", newWord).Msg("word snatched")
	h.Broadcast(s.Code(), "wordSnatched", gin.H{
		"snatcherId":   cl.participantID,
		"snatcherName": snatcher.Name,
		"targetId":     req.TargetPlayerID,
		"targetName":   target.Name,
		"oldWords":     req.OldWords,
		"newWord":      newWord,
		"flippedTiles": s.FlippedTiles(),
	})
	_ = cl.send("snatchWordResult", gin.H{"success": true})
}

func (h *Hub) handleEndGame(cl *client) {
	s, ok := h.registry.ByParticipant(cl.participantID)
	if !ok {
		cl.fail("endGame", "game not found")
		return
	}
	if !s.IsHost(cl.participantID) {
		cl.fail("endGame", "only host can end game")
		return
	}
	s.End()

	log.Info().Str("room", s.Code()).Msg("game ended")
	h.Broadcast(s.Code(), "gameEnded", gin.H{"finalScores": s.FinalScores()})
	_ = cl.send("endGameResult", gin.H{"success": true})
}

func (h *Hub) disconnect(cl *client) {
	h.mu.Lock()
	if cl.roomCode != "" {
		delete(h.rooms[cl.roomCode], cl)
		if len(h.rooms[cl.roomCode]) == 0 {
			delete(h.rooms, cl.roomCode)
		}
	}
	h.mu.Unlock()
	_ = cl.conn.Close()

	dep, ok := h.registry.RemoveParticipant(cl.participantID)
	if !ok {
		return
	}
	log.Info().Str("participant", cl.participantID).Str("room", dep.RoomCode).Msg("participant left")
	if dep.Session != nil && dep.Session.PlayerCount() > 0 {
		h.Broadcast(dep.RoomCode, "playerLeft", gin.H{
			"playerId": cl.participantID,
			"wasHost":  dep.WasHost,
			"newHost":  dep.NewHostID,
		})
	}
}

func (h *Hub) joinRoomSet(code string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*client]struct{})
	}
	h.rooms[code][cl] = struct{}{}
	cl.roomCode = code
}

// Broadcast sends an event to every connection in the room.
func (h *Hub) Broadcast(roomCode, action string, data interface{}) {
	h.broadcastExcept(roomCode, nil, action, data)
}

func (h *Hub) broadcastExcept(roomCode string, skip *client, action string, data interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomCode]))
	for cl := range h.rooms[roomCode] {
		if cl != skip {
			clients = append(clients, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.send(action, data); err != nil {
			log.Warn().Err(err).Str("room", roomCode).Msg("dropping unwritable connection")
			_ = cl.conn.Close()
			h.mu.Lock()
			delete(h.rooms[roomCode], cl)
			h.mu.Unlock()
		}
	}
}
