package trigger

import "github.com/jwebster45206/mission-engine/pkg/mission"

// RegisterDefaults installs the stock presentation callbacks for
// acceptance, completion, botching, and objective completion.
func RegisterDefaults(r *Registry) {
	r.Register(EventMissionAccepted, func(m *mission.Mission, _ map[string]any) *Hook {
		return &Hook{
			Type: "notification",
			Data: map[string]any{
				"message": "Mission accepted: " + m.Title,
				"sound":   "mission_accepted",
			},
		}
	})

	r.Register(EventMissionCompleted, func(m *mission.Mission, _ map[string]any) *Hook {
		return &Hook{
			Type: "notification",
			Data: map[string]any{
				"message":           "Mission complete: " + m.Title,
				"sound":             "mission_complete",
				"reward_package_id": m.RewardPackageID,
			},
		}
	})

	r.Register(EventMissionBotched, func(m *mission.Mission, context map[string]any) *Hook {
		data := map[string]any{
			"message": "Mission failed: " + m.Title,
			"sound":   "mission_failed",
		}
		if reason, ok := context["reason"].(string); ok && reason != "" {
			data["reason"] = reason
		}
		return &Hook{Type: "notification", Data: data}
	})

	r.Register(EventObjectiveCompleted, func(m *mission.Mission, context map[string]any) *Hook {
		data := map[string]any{
			"sound": "objective_complete",
		}
		if id, ok := context["objective_id"].(string); ok {
			if o := m.FindObjective(id); o != nil {
				data["message"] = "Objective complete: " + o.Description
			}
		}
		return &Hook{Type: "notification", Data: data}
	})
}
