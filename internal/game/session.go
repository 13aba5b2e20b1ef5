// Package game implements the per-room session state machine: players,
// turn order, the tile pool, flipped tiles, and word ownership.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"snatch/internal/tiles"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// minWordLength is the shortest claimable or snatchable word.
const minWordLength = 3

// Validation failures. Session state is never mutated when one of
// these is returned.
var (
	ErrGameNotInProgress = errors.New("game not in progress")
	ErrAlreadyStarted    = errors.New("game already started")
	ErrNotEnoughPlayers  = errors.New("need at least 2 players")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTargetNotFound    = errors.New("target player not found")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNoTilesRemaining  = errors.New("no tiles remaining")
	ErrWordTooShort      = errors.New("word must be at least 3 letters")
	ErrWordNotInLexicon  = errors.New("not a valid word")
	ErrTilesDoNotSpell   = errors.New("tiles do not spell the word")
	ErrTilesUnavailable  = errors.New("some tiles are not available")
	ErrTargetMissingWord = errors.New("target does not have word")
	ErrVariationOfOld    = errors.New("new word cannot be a variation of old word")
	ErrWordVariation     = errors.New("cannot use variations of existing words")
)

// Lexicon is the word-membership capability the session depends on.
type Lexicon interface {
	IsValid(token string) bool
}

type Player struct {
	ID       string
	Name     string
	IsHost   bool
	Words    []string
	Score    int
	JoinedAt time.Time
}

// Session is a single game room. All exported methods serialize on an
// internal mutex; commands against one room never interleave while
// unrelated rooms proceed in parallel.
type Session struct {
	mu sync.Mutex

	code    string
	variant tiles.Variant
	status  Status

	players map[string]*Player
	joined  []string // player ids in insertion order

	tilePool    []string // draw stack, popped from the end
	flipped     []string // tiles on the table
	turnOrder   []string
	currentTurn string

	lex       Lexicon
	rng       *rand.Rand
	createdAt time.Time
}

// NewSession creates a session in the waiting state. The rand source
// drives the tile shuffle at start; nil means time-seeded.
func NewSession(code string, variant tiles.Variant, lex Lexicon, rng *rand.Rand) *Session {
	return &Session{
		code:      code,
		variant:   variant,
		status:    StatusWaiting,
		players:   make(map[string]*Player),
		lex:       lex,
		rng:       rng,
		createdAt: time.Now(),
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) Variant() tiles.Variant { return s.variant }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Player returns a copy of the identified player's public state.
func (s *Session) Player(id string) (PlayerView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return PlayerView{}, false
	}
	return viewOf(p), true
}

// IsHost reports whether the participant is the session host.
func (s *Session) IsHost(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	return ok && p.IsHost
}

// AddPlayer appends a player with no words and score 0. Joining an
// in-progress game does not insert the player into the existing turn
// order; the registry's join path rejects non-waiting rooms, so a late
// joiner is only reachable through this API directly.
func (s *Session) AddPlayer(id, name string, isHost bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; ok {
		return
	}
	s.players[id] = &Player{
		ID:       id,
		Name:     name,
		IsHost:   isHost,
		Words:    []string{},
		JoinedAt: time.Now(),
	}
	s.joined = append(s.joined, id)
}

// RemovePlayer deletes the player and excises them from the turn
// order. If it was their turn, the turn passes to the next player in
// rotation, wrapping.
func (s *Session) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	s.joined = removeString(s.joined, id)

	idx := indexOf(s.turnOrder, id)
	if idx >= 0 {
		s.turnOrder = append(s.turnOrder[:idx], s.turnOrder[idx+1:]...)
	}
	if s.currentTurn == id {
		if idx >= 0 && len(s.turnOrder) > 0 {
			s.currentTurn = s.turnOrder[idx%len(s.turnOrder)]
		} else {
			s.currentTurn = ""
		}
	}
}

// PromoteOldest makes the earliest-joined remaining player the host
// and returns their id, or "" if the session is empty.
func (s *Session) PromoteOldest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.joined) == 0 {
		return ""
	}
	p := s.players[s.joined[0]]
	p.IsHost = true
	return p.ID
}

// Start transitions waiting → playing: generates and shuffles the tile
// pool, fixes the turn order to player insertion order, and hands the
// first turn to the earliest joiner.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusWaiting {
		return ErrAlreadyStarted
	}
	if len(s.players) < 2 {
		return ErrNotEnoughPlayers
	}

	s.status = StatusPlaying
	s.tilePool = tiles.Generate(s.variant, s.rng)
	s.flipped = []string{}
	s.turnOrder = append([]string(nil), s.joined...)
	s.currentTurn = s.turnOrder[0]
	return nil
}

// FlipTile reveals the next tile from the pool onto the table and
// advances the turn. Only the current player may flip.
func (s *Session) FlipTile(playerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return "", ErrGameNotInProgress
	}
	if s.currentTurn != playerID {
		return "", ErrNotYourTurn
	}
	if len(s.tilePool) == 0 {
		return "", ErrNoTilesRemaining
	}

	tile := s.tilePool[len(s.tilePool)-1]
	s.tilePool = s.tilePool[:len(s.tilePool)-1]
	s.flipped = append(s.flipped, tile)
	s.advanceTurn()
	return tile, nil
}

func (s *Session) advanceTurn() {
	idx := indexOf(s.turnOrder, s.currentTurn)
	s.currentTurn = s.turnOrder[(idx+1)%len(s.turnOrder)]
}

// ClaimWord forms a new word entirely from flipped tiles. Every check
// runs before any mutation; a failed claim leaves the table untouched.
func (s *Session) ClaimWord(playerID, word string, used []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return ErrGameNotInProgress
	}
	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}

	w := strings.ToUpper(word)
	ts := upperAll(used)

	if len(w) < minWordLength {
		return ErrWordTooShort
	}
	if !s.lex.IsValid(w) {
		return ErrWordNotInLexicon
	}
	// Perfect bag match: every tile consumed, no letter left over.
	if !spells(ts, w) {
		return ErrTilesDoNotSpell
	}
	if !available(ts, s.flipped) {
		return ErrTilesUnavailable
	}
	if s.isVariation(w, nil) {
		return ErrWordVariation
	}

	s.flipped = removeTiles(s.flipped, ts)
	p.Words = append(p.Words, w)
	p.Score = letterTotal(p.Words)
	return nil
}

// SnatchWord consumes one or more of the target's claimed words plus
// optional table tiles to form a longer word for the snatcher. The
// target may be the snatcher (self-snatch).
func (s *Session) SnatchWord(snatcherID, targetID string, oldWords, tableTiles []string, newWord string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return ErrGameNotInProgress
	}
	snatcher, ok := s.players[snatcherID]
	if !ok {
		return ErrPlayerNotFound
	}
	target, ok := s.players[targetID]
	if !ok {
		return ErrTargetNotFound
	}

	w := strings.ToUpper(newWord)
	old := upperAll(oldWords)
	table := upperAll(tableTiles)

	if len(w) < minWordLength {
		return ErrWordTooShort
	}
	if !s.lex.IsValid(w) {
		return ErrWordNotInLexicon
	}
	// Membership per entry, not a multiset check: a duplicated entry in
	// oldWords matches the same held word twice.
	for _, ow := range old {
		if indexOf(target.Words, ow) < 0 {
			return fmt.Errorf("%w: %s", ErrTargetMissingWord, ow)
		}
	}
	if !available(table, s.flipped) {
		return ErrTilesUnavailable
	}

	combined := append(letters(old), table...)
	if !spells(combined, w) {
		return ErrTilesDoNotSpell
	}
	for _, ow := range old {
		if Similar(ow, w) {
			return ErrVariationOfOld
		}
	}
	if s.isVariation(w, old) {
		return ErrWordVariation
	}

	for _, ow := range old {
		target.Words = removeString(target.Words, ow)
	}
	target.Score = letterTotal(target.Words)

	s.flipped = removeTiles(s.flipped, table)

	if snatcherID != targetID {
		snatcher.Words = append(snatcher.Words, w)
		snatcher.Score = letterTotal(snatcher.Words)
	} else {
		target.Words = append(target.Words, w)
		target.Score = letterTotal(target.Words)
	}
	return nil
}

// End finishes the game. Host authorization is the transport's
// concern.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFinished
}

// FinalScores returns players sorted by score, highest first. Ties
// keep insertion order.
func (s *Session) FinalScores() []PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.playerViews()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// isVariation reports whether the word is too similar to any word
// currently held by any player, skipping words listed in exclude.
func (s *Session) isVariation(word string, exclude []string) bool {
	for _, id := range s.joined {
		for _, held := range s.players[id].Words {
			if indexOf(exclude, held) >= 0 {
				continue
			}
			if Similar(word, held) {
				return true
			}
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToUpper(v)
	}
	return out
}

// spells checks that the tile multiset exactly matches the word's
// letters.
func spells(ts []string, word string) bool {
	rest := append([]string(nil), ts...)
	for _, r := range word {
		idx := indexOf(rest, string(r))
		if idx < 0 {
			return false
		}
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	return len(rest) == 0
}

// available checks multiset containment of ts in pool, consuming one
// occurrence per match so duplicate letters validate correctly.
func available(ts, pool []string) bool {
	rest := append([]string(nil), pool...)
	for _, tile := range ts {
		idx := indexOf(rest, tile)
		if idx < 0 {
			return false
		}
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	return true
}

func removeTiles(pool, ts []string) []string {
	for _, tile := range ts {
		pool = removeString(pool, tile)
	}
	return pool
}

// removeString drops the first occurrence of v.
func removeString(in []string, v string) []string {
	idx := indexOf(in, v)
	if idx < 0 {
		return in
	}
	return append(in[:idx], in[idx+1:]...)
}

func indexOf(in []string, v string) int {
	for i, s := range in {
		if s == v {
			return i
		}
	}
	return -1
}

func letters(words []string) []string {
	var out []string
	for _, w := range words {
		for _, r := range w {
			out = append(out, string(r))
		}
	}
	return out
}

func letterTotal(words []string) int {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return total
}
