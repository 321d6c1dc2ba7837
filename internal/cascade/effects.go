package cascade

import "time"

// Effect is a declarative failure consequence bound to a mission id. The
// closed set of implementations below gets exhaustiveness from the type
// switch in Handler.apply: adding a kind without handling it is a
// compile-visible hole in that switch's default logging.
type Effect interface {
	effectKind() string
}

// BotchRelated botches other missions when the trigger mission fails.
// Already-botched missions are skipped, which also bounds recursion when a
// sub-botch cascades further.
type BotchRelated struct {
	MissionIDs []string `json:"mission_ids"`
	Reason     string   `json:"reason,omitempty"`
}

// AdjustFaction shifts a faction standing by Delta, clamped to ±100.
type AdjustFaction struct {
	Faction string  `json:"faction"`
	Delta   float64 `json:"delta"`
}

// UpdateSharedData writes an arbitrary shared world-state key.
type UpdateSharedData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// UnlockAlternative promotes a fallback mission from Unknown to Mentioned.
type UnlockAlternative struct {
	MissionID string `json:"mission_id"`
}

// LockLocation locks a location for a bounded time. Expiry is lazy,
// evaluated on the next query past the unlock time.
type LockLocation struct {
	Location string        `json:"location"`
	Duration time.Duration `json:"duration"`
}

// SetNPCStatus overwrites an NPC's status.
type SetNPCStatus struct {
	NPC    string `json:"npc"`
	Status string `json:"status"`
}

// EmitWorldEvent appends to the world event log.
type EmitWorldEvent struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

func (BotchRelated) effectKind() string      { return "botch_related" }
func (AdjustFaction) effectKind() string     { return "adjust_faction" }
func (UpdateSharedData) effectKind() string  { return "update_shared_data" }
func (UnlockAlternative) effectKind() string { return "unlock_alternative" }
func (LockLocation) effectKind() string      { return "lock_location" }
func (SetNPCStatus) effectKind() string      { return "set_npc_status" }
func (EmitWorldEvent) effectKind() string    { return "emit_world_event" }
