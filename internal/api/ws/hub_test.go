package ws

import (
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"snatch/internal/lexicon"
	"snatch/internal/room"
	"snatch/internal/store"
)

type message struct {
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lex := lexicon.New([]string{"TONE", "STONE", "GAME"})
	reg := room.NewRegistry(store.NewMemoryStore(), lex, rand.New(rand.NewSource(1)))
	hub := NewHub(reg)

	r := gin.New()
	r.GET("/ws", hub.HandleWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func send(t *testing.T, conn *websocket.Conn, action string, data map[string]interface{}) {
	t.Helper()
	if err := conn.WriteJSON(map[string]interface{}{"action": action, "data": data}); err != nil {
		t.Fatalf("write %s: %v", action, err)
	}
}

// connect dials and consumes the hello, returning the assigned
// participant id.
func connect(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	conn := dial(t, srv)
	hello := read(t, conn)
	if hello.Action != "connected" {
		t.Fatalf("first message = %s, want connected", hello.Action)
	}
	id, _ := hello.Data["participantId"].(string)
	if id == "" {
		t.Fatal("connected hello missing participantId")
	}
	return conn, id
}

func TestCreateJoinStartFlip(t *testing.T) {
	srv := newTestServer(t)

	host, hostID := connect(t, srv)
	send(t, host, "createRoom", map[string]interface{}{"playerName": "Ana"})
	created := read(t, host)
	if created.Action != "createRoomResult" || created.Data["success"] != true {
		t.Fatalf("createRoom reply: %+v", created)
	}
	code, _ := created.Data["roomCode"].(string)
	if len(code) != 6 {
		t.Fatalf("roomCode = %q, want 6 chars", code)
	}
	if created.Data["playerId"] != hostID {
		t.Fatalf("playerId = %v, want %s", created.Data["playerId"], hostID)
	}

	guest, guestID := connect(t, srv)
	send(t, guest, "joinRoom", map[string]interface{}{"roomCode": code, "playerName": "Ben"})
	joined := read(t, guest)
	if joined.Action != "joinRoomResult" || joined.Data["success"] != true {
		t.Fatalf("joinRoom reply: %+v", joined)
	}

	// The host hears about the new player; the joiner does not echo.
	notice := read(t, host)
	if notice.Action != "playerJoined" {
		t.Fatalf("host got %s, want playerJoined", notice.Action)
	}

	send(t, host, "startGame", nil)
	if m := read(t, host); m.Action != "gameStarted" {
		t.Fatalf("host got %s, want gameStarted", m.Action)
	}
	if m := read(t, host); m.Action != "startGameResult" || m.Data["success"] != true {
		t.Fatalf("startGame reply: %+v", m)
	}
	if m := read(t, guest); m.Action != "gameStarted" {
		t.Fatalf("guest got %s, want gameStarted", m.Action)
	}

	// Host joined first, so the first flip is theirs.
	send(t, host, "flipTile", nil)
	flipped := read(t, host)
	if flipped.Action != "tileFlipped" {
		t.Fatalf("host got %s, want tileFlipped", flipped.Action)
	}
	if flipped.Data["currentTurn"] != guestID {
		t.Fatalf("currentTurn = %v, want %s", flipped.Data["currentTurn"], guestID)
	}
	reply := read(t, host)
	if reply.Action != "flipTileResult" || reply.Data["success"] != true {
		t.Fatalf("flipTile reply: %+v", reply)
	}
	tile, _ := reply.Data["tile"].(string)
	if len(tile) != 1 || tile[0] < 'A' || tile[0] > 'Z' {
		t.Fatalf("tile = %q, want a single letter", tile)
	}
	if m := read(t, guest); m.Action != "tileFlipped" {
		t.Fatalf("guest got %s, want tileFlipped", m.Action)
	}

	// Out of turn now.
	send(t, host, "flipTile", nil)
	denied := read(t, host)
	if denied.Action != "flipTileResult" || denied.Data["success"] != false {
		t.Fatalf("out-of-turn reply: %+v", denied)
	}
	if denied.Data["error"] != "not your turn" {
		t.Fatalf("error = %v, want not your turn", denied.Data["error"])
	}
}

func TestStartGameHostOnly(t *testing.T) {
	srv := newTestServer(t)

	host, _ := connect(t, srv)
	send(t, host, "createRoom", map[string]interface{}{"playerName": "Ana"})
	created := read(t, host)
	code, _ := created.Data["roomCode"].(string)

	guest, _ := connect(t, srv)
	send(t, guest, "joinRoom", map[string]interface{}{"roomCode": code, "playerName": "Ben"})
	read(t, guest) // joinRoomResult

	send(t, guest, "startGame", nil)
	reply := read(t, guest)
	if reply.Action != "startGameResult" || reply.Data["success"] != false {
		t.Fatalf("non-host start reply: %+v", reply)
	}
	if reply.Data["error"] != "only host can start game" {
		t.Fatalf("error = %v", reply.Data["error"])
	}
}

func TestClaimWordValidationOverWire(t *testing.T) {
	srv := newTestServer(t)

	host, _ := connect(t, srv)
	send(t, host, "createRoom", map[string]interface{}{"playerName": "Ana"})
	created := read(t, host)
	code, _ := created.Data["roomCode"].(string)

	guest, _ := connect(t, srv)
	send(t, guest, "joinRoom", map[string]interface{}{"roomCode": code, "playerName": "Ben"})
	read(t, guest)
	read(t, host) // playerJoined

	send(t, host, "startGame", nil)
	read(t, host) // gameStarted
	read(t, host) // startGameResult

	// Nothing is flipped yet, so any claim must fail with no mutation.
	send(t, host, "claimWord", map[string]interface{}{
		"word":  "TONE",
		"tiles": []string{"T", "O", "N", "E"},
	})
	reply := read(t, host)
	if reply.Action != "claimWordResult" || reply.Data["success"] != false {
		t.Fatalf("claim reply: %+v", reply)
	}
	if reply.Data["error"] != "some tiles are not available" {
		t.Fatalf("error = %v", reply.Data["error"])
	}
}

// flipOnce drives one flip by the current player and drains the
// resulting messages from both connections, returning the revealed
// tile.
func flipOnce(t *testing.T, conns []*websocket.Conn, turn int) string {
	t.Helper()
	flipper := conns[turn%2]
	observer := conns[(turn+1)%2]

	send(t, flipper, "flipTile", nil)
	if m := read(t, flipper); m.Action != "tileFlipped" {
		t.Fatalf("flipper got %s, want tileFlipped", m.Action)
	}
	reply := read(t, flipper)
	if reply.Action != "flipTileResult" || reply.Data["success"] != true {
		t.Fatalf("flip reply: %+v", reply)
	}
	if m := read(t, observer); m.Action != "tileFlipped" {
		t.Fatalf("observer got %s, want tileFlipped", m.Action)
	}
	tile, _ := reply.Data["tile"].(string)
	return tile
}

func TestBroadcastsCarryNormalizedWords(t *testing.T) {
	srv := newTestServer(t)

	host, hostID := connect(t, srv)
	send(t, host, "createRoom", map[string]interface{}{"playerName": "Ana"})
	created := read(t, host)
	code, _ := created.Data["roomCode"].(string)

	guest, _ := connect(t, srv)
	send(t, guest, "joinRoom", map[string]interface{}{"roomCode": code, "playerName": "Ben"})
	read(t, guest) // joinRoomResult
	read(t, host)  // playerJoined

	send(t, host, "startGame", nil)
	read(t, host)  // gameStarted
	read(t, host)  // startGameResult
	read(t, guest) // gameStarted

	conns := []*websocket.Conn{host, guest}
	table := map[string]int{}
	turn := 0
	flipUntil := func(want map[string]int) {
		for {
			done := true
			for letter, n := range want {
				if table[letter] < n {
					done = false
				}
			}
			if done {
				return
			}
			if turn >= 144 {
				t.Fatal("tile pool exhausted before the needed letters appeared")
			}
			table[flipOnce(t, conns, turn)]++
			turn++
		}
	}

	flipUntil(map[string]int{"T": 1, "O": 1, "N": 1, "E": 1})

	// Lowercase on the wire; broadcasts must carry the canonical form.
	send(t, host, "claimWord", map[string]interface{}{
		"word":  "tone",
		"tiles": []string{"t", "o", "n", "e"},
	})
	claimed := read(t, host)
	if claimed.Action != "wordClaimed" {
		t.Fatalf("host got %s, want wordClaimed", claimed.Action)
	}
	if claimed.Data["word"] != "TONE" {
		t.Fatalf("broadcast word = %v, want TONE", claimed.Data["word"])
	}
	if reply := read(t, host); reply.Action != "claimWordResult" || reply.Data["success"] != true {
		t.Fatalf("claim reply: %+v", reply)
	}
	if m := read(t, guest); m.Action != "wordClaimed" || m.Data["word"] != "TONE" {
		t.Fatalf("guest broadcast: %+v", m)
	}
	for _, letter := range []string{"T", "O", "N", "E"} {
		table[letter]--
	}

	flipUntil(map[string]int{"S": 1})

	send(t, guest, "snatchWord", map[string]interface{}{
		"targetPlayerId": hostID,
		"oldWords":       []string{"tone"},
		"tableTiles":     []string{"s"},
		"newWord":        "stone",
	})
	snatched := read(t, guest)
	if snatched.Action != "wordSnatched" {
		t.Fatalf("guest got %s, want wordSnatched", snatched.Action)
	}
	if snatched.Data["newWord"] != "STONE" {
		t.Fatalf("broadcast newWord = %v, want STONE", snatched.Data["newWord"])
	}
	if reply := read(t, guest); reply.Action != "snatchWordResult" || reply.Data["success"] != true {
		t.Fatalf("snatch reply: %+v", reply)
	}
	if m := read(t, host); m.Action != "wordSnatched" || m.Data["newWord"] != "STONE" {
		t.Fatalf("host broadcast: %+v", m)
	}
}

func TestDisconnectBroadcastsPlayerLeft(t *testing.T) {
	srv := newTestServer(t)

	host, _ := connect(t, srv)
	send(t, host, "createRoom", map[string]interface{}{"playerName": "Ana"})
	created := read(t, host)
	code, _ := created.Data["roomCode"].(string)

	guest, guestID := connect(t, srv)
	send(t, guest, "joinRoom", map[string]interface{}{"roomCode": code, "playerName": "Ben"})
	read(t, guest)
	read(t, host) // playerJoined

	guest.Close()

	left := read(t, host)
	if left.Action != "playerLeft" {
		t.Fatalf("host got %s, want playerLeft", left.Action)
	}
	if left.Data["playerId"] != guestID {
		t.Fatalf("playerId = %v, want %s", left.Data["playerId"], guestID)
	}
	if left.Data["wasHost"] != false {
		t.Fatal("guest was not the host")
	}
}
