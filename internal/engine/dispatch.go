package engine

import (
	"context"
	"strings"

	"github.com/jwebster45206/mission-engine/internal/trigger"
	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// UpdateResult reports what a progress update did. Hooks are declarative
// side effects for the caller's presentation layer.
type UpdateResult struct {
	Mission *mission.Mission `json:"mission"`
	Hooks   []trigger.Hook   `json:"hooks,omitempty"`
	Updated bool             `json:"updated"`
}

// eventHandlers dispatches gameplay events by type. An event type missing
// from this table is a no-op, not an error.
var eventHandlers = map[mission.EventType]func(*Manager, *mission.Mission, *mission.GameEvent) (bool, []trigger.Hook){
	mission.EventEnemyDestroyed:  (*Manager).handleEnemyDestroyed,
	mission.EventLocationReached: (*Manager).handleLocationReached,
	mission.EventCargoLoaded:     (*Manager).handleCargoLoaded,
	mission.EventCargoDelivered:  (*Manager).handleCargoDelivered,
}

// UpdateMissionProgress advances a mission, either by direct objective
// completion (objectiveID set) or by interpreting a gameplay event. The
// boolean result reports whether the mission exists; UpdateResult.Updated
// reports whether anything changed.
func (mm *Manager) UpdateMissionProgress(ctx context.Context, id, objectiveID string, ev *mission.GameEvent) (*UpdateResult, bool) {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok {
		mm.logger.Warn("Mission not found", "mission_id", id)
		return nil, false
	}
	result := &UpdateResult{Mission: m}

	if objectiveID != "" {
		// Direct completion routes through the transient Achieved state.
		if !m.SetState(mission.StateAchieved, objectiveID) {
			return result, true
		}
		result.Updated = true
		result.Hooks = mm.triggers.Fire(trigger.EventObjectiveCompleted, m,
			map[string]any{"objective_id": objectiveID})
		if m.State == mission.StateCompleted {
			result.Hooks = append(result.Hooks,
				mm.triggers.Fire(trigger.EventMissionCompleted, m, nil)...)
		}
		mm.persist(ctx, m)
		return result, true
	}

	if ev == nil {
		return result, true
	}
	// Only accepted, unbotched missions accumulate event progress.
	if m.State != mission.StateAccepted || m.IsBotched {
		return result, true
	}
	handler, known := eventHandlers[ev.Type]
	if !known {
		mm.logger.Debug("Ignoring unknown event type", "event_type", ev.Type, "mission_id", id)
		return result, true
	}

	changed, hooks := handler(mm, m, ev)
	if changed {
		result.Updated = true
		result.Hooks = hooks
		mm.persist(ctx, m)
	}
	return result, true
}

// handleEnemyDestroyed counts kills of the mission's target enemy type and
// achieves the elimination objective once the quota is met.
func (mm *Manager) handleEnemyDestroyed(m *mission.Mission, ev *mission.GameEvent) (bool, []trigger.Hook) {
	e := m.Elimination()
	if e.TargetEnemyType == "" || ev.EnemyType != e.TargetEnemyType {
		return false, nil
	}

	kills := e.KillsMade + 1
	m.SetField(mission.FieldKillsMade, kills)
	mm.logger.Debug("Kill counted",
		"mission_id", m.ID, "enemy_type", ev.EnemyType, "kills", kills, "quota", e.EnemyCount)

	if e.EnemyCount <= 0 || kills < e.EnemyCount {
		return true, nil
	}
	_, hooks := mm.achieveMatching(m, "eliminate")
	return true, hooks
}

// handleLocationReached achieves the exploration objective when the player
// arrives at the mission's target location.
func (mm *Manager) handleLocationReached(m *mission.Mission, ev *mission.GameEvent) (bool, []trigger.Hook) {
	target := m.StringField(mission.FieldTargetLocation)
	if target == "" || ev.Location != target {
		return false, nil
	}
	achieved, hooks := mm.achieveMatching(m, "explore")
	return achieved, hooks
}

// handleCargoLoaded accumulates loaded cargo and achieves the load
// objective at the threshold. Loading never advances mission state past
// Accepted.
func (mm *Manager) handleCargoLoaded(m *mission.Mission, ev *mission.GameEvent) (bool, []trigger.Hook) {
	d := m.Delivery()
	if d.CargoType != "" && ev.CargoType != d.CargoType {
		return false, nil
	}

	loaded := d.Loaded + ev.Quantity
	m.SetField(mission.FieldCargoLoaded, loaded)

	if d.CargoAmount <= 0 || loaded < d.CargoAmount {
		return true, nil
	}
	var hooks []trigger.Hook
	if o := findObjectiveByKeyword(m, "load"); o != nil {
		o.Achieve()
		hooks = mm.triggers.Fire(trigger.EventObjectiveCompleted, m,
			map[string]any{"objective_id": o.ID})
	}
	return true, hooks
}

// handleCargoDelivered accumulates delivered cargo, subject to the
// mission's delivery type: auto_delivery only accepts docking events,
// market_sale only accepts market events. Wrong-source events are silently
// ignored. Reaching the threshold achieves the delivery objective and,
// when nothing else remains, jumps the mission straight from Accepted to
// Completed in the same call.
func (mm *Manager) handleCargoDelivered(m *mission.Mission, ev *mission.GameEvent) (bool, []trigger.Hook) {
	d := m.Delivery()
	switch d.DeliveryType {
	case mission.DeliveryAuto:
		if ev.Source != mission.SourceDocking {
			return false, nil
		}
	case mission.DeliveryMarketSale:
		if ev.Source != mission.SourceMarket {
			return false, nil
		}
	}
	if d.CargoType != "" && ev.CargoType != d.CargoType {
		return false, nil
	}
	if d.Destination != "" && ev.DeliveryLocation != d.Destination {
		return false, nil
	}

	delivered := d.Delivered + ev.Quantity
	m.SetField(mission.FieldCargoDelivered, delivered)

	if m.HasField(mission.FieldMinIntegrity) {
		met := ev.Integrity >= d.MinIntegrity
		if m.HasField(mission.FieldIntegrityMet) {
			met = met && m.BoolField(mission.FieldIntegrityMet)
		}
		m.SetField(mission.FieldIntegrityMet, met)
	}

	if d.CargoAmount <= 0 || delivered < d.CargoAmount {
		return true, nil
	}

	var hooks []trigger.Hook
	if o := findObjectiveByKeyword(m, "deliver"); o != nil {
		o.Achieve()
		hooks = mm.triggers.Fire(trigger.EventObjectiveCompleted, m,
			map[string]any{"objective_id": o.ID})
	}
	// The delivery path completes without passing through Achieved.
	if m.CheckCompletion() && m.SetState(mission.StateCompleted, "") {
		hooks = append(hooks, mm.triggers.Fire(trigger.EventMissionCompleted, m, nil)...)
	}
	return true, hooks
}

// achieveMatching achieves the first unachieved objective whose
// description contains the keyword, then advances the mission through
// Achieved (which auto-promotes to Completed when nothing remains).
func (mm *Manager) achieveMatching(m *mission.Mission, keyword string) (bool, []trigger.Hook) {
	o := findObjectiveByKeyword(m, keyword)
	if o == nil {
		return false, nil
	}
	o.Achieve()
	hooks := mm.triggers.Fire(trigger.EventObjectiveCompleted, m,
		map[string]any{"objective_id": o.ID})
	if m.CheckCompletion() && m.SetState(mission.StateAchieved, "") &&
		m.State == mission.StateCompleted {
		hooks = append(hooks, mm.triggers.Fire(trigger.EventMissionCompleted, m, nil)...)
	}
	return true, hooks
}

func findObjectiveByKeyword(m *mission.Mission, keyword string) *mission.Objective {
	for _, o := range m.Objectives {
		if !o.IsAchieved && strings.Contains(strings.ToLower(o.Description), keyword) {
			return o
		}
	}
	return nil
}
