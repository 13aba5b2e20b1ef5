// Package room tracks live game sessions: code allocation, joining,
// lookups, and teardown with host failover.
package room

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"snatch/internal/game"
	"snatch/internal/tiles"
)

const (
	codeLength = 6
	maxPlayers = 8
)

// codeAlphabet omits visually ambiguous glyphs (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameInProgress = errors.New("game already in progress")
	ErrRoomFull       = errors.New("room is full")
)

type Store interface {
	GetSession(code string) (*game.Session, bool)
	SaveSession(s *game.Session)
	DeleteSession(code string)
	Codes() []string
}

// Registry allocates room codes and maps participants to their rooms.
// Creation and removal serialize on the registry mutex so concurrent
// creates cannot collide on a freshly generated code.
type Registry struct {
	mu           sync.Mutex
	store        Store
	participants map[string]string // participant id -> room code
	lex          game.Lexicon
	rng          *rand.Rand
}

func NewRegistry(store Store, lex game.Lexicon, rng *rand.Rand) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{
		store:        store,
		participants: make(map[string]string),
		lex:          lex,
		rng:          rng,
	}
}

// CreateRoom allocates a fresh code, creates a waiting session with the
// host as its only player, and records the participant mapping.
func (r *Registry) CreateRoom(hostName, participantID string, variant tiles.Variant) (string, *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.freshCode()
	// Each session gets its own rand source so shuffles in unrelated
	// rooms never contend.
	s := game.NewSession(code, variant, r.lex, rand.New(rand.NewSource(r.rng.Int63())))
	s.AddPlayer(participantID, hostName, true)

	r.store.SaveSession(s)
	r.participants[participantID] = code
	return code, s
}

// freshCode retries until the generated code is unused. Caller holds
// the registry mutex.
func (r *Registry) freshCode() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[r.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := r.store.GetSession(code); !taken {
			return code
		}
	}
}

// JoinRoom adds a participant to a waiting, non-full room.
func (r *Registry) JoinRoom(roomCode, name, participantID string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := strings.ToUpper(roomCode)
	s, ok := r.store.GetSession(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if s.Status() != game.StatusWaiting {
		return nil, ErrGameInProgress
	}
	if s.PlayerCount() >= maxPlayers {
		return nil, ErrRoomFull
	}

	s.AddPlayer(participantID, name, false)
	r.participants[participantID] = code
	return s, nil
}

// ByCode looks up a session by room code, case-insensitively.
func (r *Registry) ByCode(roomCode string) (*game.Session, bool) {
	return r.store.GetSession(strings.ToUpper(roomCode))
}

// ByParticipant resolves a connected participant to their session.
func (r *Registry) ByParticipant(participantID string) (*game.Session, bool) {
	r.mu.Lock()
	code, ok := r.participants[participantID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return r.store.GetSession(code)
}

// Departure describes the result of removing a participant, with
// enough for the caller to broadcast the exit.
type Departure struct {
	RoomCode  string
	Session   *game.Session
	WasHost   bool
	NewHostID string
}

// RemoveParticipant drops the participant from their session. An
// emptied room is deleted; otherwise a departing host hands the role to
// the earliest-joined remaining player.
func (r *Registry) RemoveParticipant(participantID string) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.participants[participantID]
	if !ok {
		return Departure{}, false
	}
	s, ok := r.store.GetSession(code)
	if !ok {
		delete(r.participants, participantID)
		return Departure{}, false
	}

	wasHost := s.IsHost(participantID)
	s.RemovePlayer(participantID)
	delete(r.participants, participantID)

	dep := Departure{RoomCode: code, Session: s, WasHost: wasHost}
	if s.PlayerCount() == 0 {
		r.store.DeleteSession(code)
	} else if wasHost {
		dep.NewHostID = s.PromoteOldest()
	}
	return dep, true
}

// RoomInfo is the admin summary of a live room.
type RoomInfo struct {
	RoomCode    string      `json:"roomCode"`
	PlayerCount int         `json:"playerCount"`
	Status      game.Status `json:"status"`
}

// ActiveRooms lists all live rooms for the health endpoint.
func (r *Registry) ActiveRooms() []RoomInfo {
	out := []RoomInfo{}
	for _, code := range r.store.Codes() {
		s, ok := r.store.GetSession(code)
		if !ok {
			continue
		}
		out = append(out, RoomInfo{
			RoomCode:    code,
			PlayerCount: s.PlayerCount(),
			Status:      s.Status(),
		})
	}
	return out
}
