package world

// Player is the pursuing player as seen by this core. Position and level
// are pushed in by the input collaborator each frame.
type Player struct {
	ID           uint64
	Pos          Vec
	Level        int
	Dead         bool
	ActiveRadius float64 // simulation bubble around the player
}

// Guard is a base defender. Guards are owned by another system; the core
// only reads them for breakoff decisions.
type Guard struct {
	ID    uint64
	Pos   Vec
	Level int
	Dead  bool
}
