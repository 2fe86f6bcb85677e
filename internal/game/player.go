package game

// Player is a seat in a game. Each player owns the per-player zones declared
// by the game, created when the player joins.
type Player struct {
	*Object
	zoneSet
}

// NewPlayer creates a detached player without zones.
func NewPlayer() *Player {
	return &Player{Object: NewObject(KindPlayer)}
}
