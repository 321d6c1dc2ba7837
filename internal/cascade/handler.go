package cascade

import (
	"fmt"
	"log/slog"
	"sync"
)

// MissionOps is the slice of mission-manager behavior the handler needs.
// Defined here so the engine can depend on cascade without a cycle.
type MissionOps interface {
	// IsBotched reports whether the mission exists and is already botched.
	IsBotched(missionID string) bool
	// Botch botches the mission, running its own cascade rules.
	Botch(missionID, reason string) bool
	// Mention promotes a mission from Unknown to Mentioned.
	Mention(missionID string) bool
}

// Handler maps mission ids to failure-effect rules and applies them when a
// mission is botched. Rule failures are isolated: one bad rule never blocks
// the rest, and never blocks the botch that triggered it.
type Handler struct {
	mu     sync.RWMutex
	rules  map[string][]Effect
	world  *WorldState
	ops    MissionOps
	logger *slog.Logger
}

// NewHandler creates a handler over the given world state.
func NewHandler(world *WorldState, logger *slog.Logger) *Handler {
	return &Handler{
		rules:  make(map[string][]Effect),
		world:  world,
		logger: logger,
	}
}

// SetMissionOps wires the mission manager in after construction. The
// manager owns the handler, so this runs once at startup.
func (h *Handler) SetMissionOps(ops MissionOps) {
	h.ops = ops
}

// World exposes the shared world state owned by the handler.
func (h *Handler) World() *WorldState {
	return h.world
}

// RegisterRule appends an effect to a mission's rule list.
func (h *Handler) RegisterRule(missionID string, effect Effect) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rules[missionID] = append(h.rules[missionID], effect)
}

// RuleCount returns the number of rules registered for a mission.
func (h *Handler) RuleCount(missionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules[missionID])
}

// HandleBotched applies every rule registered for the mission, in
// registration order. Returns the number of rules applied successfully.
func (h *Handler) HandleBotched(missionID string, context map[string]any) int {
	h.mu.RLock()
	effects := h.rules[missionID]
	h.mu.RUnlock()

	applied := 0
	for i, effect := range effects {
		if h.applyIsolated(missionID, i, effect, context) {
			applied++
		}
	}
	return applied
}

func (h *Handler) applyIsolated(missionID string, index int, effect Effect, context map[string]any) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("cascade rule panicked",
				"mission_id", missionID,
				"rule_index", index,
				"effect", fmt.Sprintf("%T", effect),
				"panic", fmt.Sprint(rec))
			ok = false
		}
	}()
	h.apply(missionID, effect, context)
	return true
}

func (h *Handler) apply(missionID string, effect Effect, context map[string]any) {
	switch e := effect.(type) {
	case BotchRelated:
		for _, id := range e.MissionIDs {
			if h.ops == nil {
				h.logger.Warn("botch_related rule with no mission ops wired", "mission_id", missionID)
				return
			}
			// Skip already-botched missions; this also terminates
			// recursive cascades.
			if h.ops.IsBotched(id) {
				continue
			}
			reason := e.Reason
			if reason == "" {
				reason = "cascade from " + missionID
			}
			if !h.ops.Botch(id, reason) {
				h.logger.Warn("cascade botch failed", "mission_id", id, "source", missionID)
			}
		}
	case AdjustFaction:
		v := h.world.AdjustStanding(e.Faction, e.Delta)
		h.logger.Debug("cascade adjusted faction standing",
			"faction", e.Faction, "delta", e.Delta, "standing", v)
	case UpdateSharedData:
		h.world.SetShared(e.Key, e.Value)
	case UnlockAlternative:
		if h.ops == nil {
			h.logger.Warn("unlock_alternative rule with no mission ops wired", "mission_id", missionID)
			return
		}
		if !h.ops.Mention(e.MissionID) {
			h.logger.Warn("cascade could not mention alternative", "mission_id", e.MissionID)
		}
	case LockLocation:
		h.world.LockLocation(e.Location, e.Duration)
	case SetNPCStatus:
		h.world.SetNPCStatus(e.NPC, e.Status)
	case EmitWorldEvent:
		data := make(map[string]any, len(e.Data)+len(context)+1)
		for k, v := range context {
			data[k] = v
		}
		for k, v := range e.Data {
			data[k] = v
		}
		data["source_mission"] = missionID
		h.world.AppendEvent(e.Name, data)
	default:
		h.logger.Warn("unknown cascade effect kind",
			"mission_id", missionID, "effect", effect.effectKind())
	}
}
