package game

// PlayerView is the broadcast-safe projection of a player.
type PlayerView struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	IsHost bool     `json:"isHost"`
	Words  []string `json:"words"`
	Score  int      `json:"score"`
}

// Snapshot is the full session state sent to clients on join, start,
// and reconnect.
type Snapshot struct {
	RoomCode       string       `json:"roomCode"`
	Status         Status       `json:"status"`
	Players        []PlayerView `json:"players"`
	FlippedTiles   []string     `json:"flippedTiles"`
	TilesRemaining int          `json:"tilesRemaining"`
	CurrentTurn    string       `json:"currentTurn"`
	TurnOrder      []string     `json:"turnOrder"`
}

// Snapshot captures the current state for broadcasting.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		RoomCode:       s.code,
		Status:         s.status,
		Players:        s.playerViews(),
		FlippedTiles:   append([]string{}, s.flipped...),
		TilesRemaining: len(s.tilePool),
		CurrentTurn:    s.currentTurn,
		TurnOrder:      append([]string{}, s.turnOrder...),
	}
}

// FlippedTiles returns a copy of the tiles currently on the table.
func (s *Session) FlippedTiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.flipped...)
}

// TilesRemaining returns the number of face-down tiles left.
func (s *Session) TilesRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tilePool)
}

// CurrentTurn returns the id of the player whose turn it is to flip.
func (s *Session) CurrentTurn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTurn
}

// playerViews projects players in insertion order. Caller holds mu.
func (s *Session) playerViews() []PlayerView {
	out := make([]PlayerView, 0, len(s.joined))
	for _, id := range s.joined {
		out = append(out, viewOf(s.players[id]))
	}
	return out
}

func viewOf(p *Player) PlayerView {
	return PlayerView{
		ID:     p.ID,
		Name:   p.Name,
		IsHost: p.IsHost,
		Words:  append([]string{}, p.Words...),
		Score:  p.Score,
	}
}
