package cascade

import (
	"sync"
	"time"
)

// WorldEvent is an entry in the append-only world event log.
type WorldEvent struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
	At   time.Time      `json:"at"`
}

// WorldState is the process-wide mutable state touched by cascade effects:
// faction standings, location locks, NPC statuses, the world event log, and
// an open shared-data bag. It is not persisted with missions; lifetime is
// the process, until Reset. Safe for concurrent use.
type WorldState struct {
	mu        sync.Mutex
	standings map[string]float64
	locks     map[string]time.Time // location -> unlock time
	npcs      map[string]string
	events    []WorldEvent
	shared    map[string]any
	now       func() time.Time
}

// NewWorldState creates empty world state. A nil clock defaults to
// time.Now; tests inject a fake to pin lock expiry.
func NewWorldState(clock func() time.Time) *WorldState {
	if clock == nil {
		clock = time.Now
	}
	return &WorldState{
		standings: make(map[string]float64),
		locks:     make(map[string]time.Time),
		npcs:      make(map[string]string),
		shared:    make(map[string]any),
		now:       clock,
	}
}

// AdjustStanding applies a delta to a faction standing, clamped to ±100,
// and returns the new value.
func (w *WorldState) AdjustStanding(faction string, delta float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.standings[faction] + delta
	if v > 100 {
		v = 100
	} else if v < -100 {
		v = -100
	}
	w.standings[faction] = v
	return v
}

// Standing returns the current standing with a faction (zero if unknown).
func (w *WorldState) Standing(faction string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.standings[faction]
}

// LockLocation locks a location for the given duration.
func (w *WorldState) LockLocation(location string, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locks[location] = w.now().Add(d)
}

// IsLocked reports whether a location is currently locked. Expiry is lazy:
// a lock past its unlock time is removed on the first query that sees it,
// never by a background sweep.
func (w *WorldState) IsLocked(location string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.locks[location]
	if !ok {
		return false
	}
	if !w.now().Before(until) {
		delete(w.locks, location)
		return false
	}
	return true
}

// SetNPCStatus overwrites an NPC's status.
func (w *WorldState) SetNPCStatus(npc, status string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.npcs[npc] = status
}

// NPCStatus returns an NPC's status, or "" when unset.
func (w *WorldState) NPCStatus(npc string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.npcs[npc]
}

// AppendEvent appends to the world event log.
func (w *WorldState) AppendEvent(name string, data map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, WorldEvent{Name: name, Data: data, At: w.now()})
}

// Events returns a copy of the world event log.
func (w *WorldState) Events() []WorldEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WorldEvent, len(w.events))
	copy(out, w.events)
	return out
}

// SetShared writes an arbitrary shared-state key.
func (w *WorldState) SetShared(key string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shared[key] = value
}

// Shared reads an arbitrary shared-state key.
func (w *WorldState) Shared(key string) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.shared[key]
	return v, ok
}

// Reset clears all world state. Test hook; there is no other reset
// boundary in a running process.
func (w *WorldState) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.standings = make(map[string]float64)
	w.locks = make(map[string]time.Time)
	w.npcs = make(map[string]string)
	w.events = nil
	w.shared = make(map[string]any)
}
