package mission

// State is the lifecycle state of a mission. States are totally ordered and
// transitions are forward-only: a mission never moves to a lower state.
type State string

const (
	StateUnknown   State = "unknown"   // not yet surfaced to the player
	StateMentioned State = "mentioned" // offered, visible on the board
	StateAccepted  State = "accepted"  // taken by the player
	StateAchieved  State = "achieved"  // objectives done, not yet turned in
	StateCompleted State = "completed" // terminal
)

// stateRank orders states for transition legality checks.
var stateRank = map[State]int{
	StateUnknown:   0,
	StateMentioned: 1,
	StateAccepted:  2,
	StateAchieved:  3,
	StateCompleted: 4,
}

// Rank returns the ordinal position of the state. Unrecognized states rank
// below Unknown so they can never be transitioned to.
func (s State) Rank() int {
	if r, ok := stateRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the known lifecycle states.
func (s State) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

func (s State) String() string {
	return string(s)
}
