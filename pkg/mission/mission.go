package mission

import (
	"strconv"
	"time"
)

// Sentinel locations accepted by availability filtering.
const (
	LocationAny     = "any"
	LocationUnknown = "unknown"
)

// Mission is the aggregate root for a single quest. All objective mutation
// goes through the mission so that transition legality is enforced in one
// place. Botching is an orthogonal flag, not a state value.
type Mission struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	MissionType     string       `json:"mission_type"`
	Location        string       `json:"location,omitempty"`
	Faction         string       `json:"faction,omitempty"`
	RewardPackageID string       `json:"reward_package_id,omitempty"`
	State           State        `json:"state"`
	IsBotched       bool         `json:"is_botched"`
	Objectives      []*Objective `json:"objectives"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// CustomFields holds type-specific progress counters and authored
	// metadata (cargo_delivered, target_enemy_type, ...). See fields.go
	// for typed views over the common keys.
	CustomFields map[string]any `json:"custom_fields,omitempty"`

	// Triggers is authoring-time trigger metadata, passed through to the
	// presentation layer untouched.
	Triggers map[string]any `json:"triggers,omitempty"`

	// Progress is a derived snapshot refreshed before persistence.
	Progress *ProgressReport `json:"progress,omitempty"`
}

// ProgressReport summarizes objective completion. Optional objectives are
// excluded from the denominator.
type ProgressReport struct {
	Achieved int     `json:"achieved"`
	Required int     `json:"required"`
	Percent  float64 `json:"percent"`
}

// New creates a mission in the Unknown state with initialized maps.
func New(id, title, missionType string) *Mission {
	now := time.Now().UTC()
	return &Mission{
		ID:           id,
		Title:        title,
		MissionType:  missionType,
		State:        StateUnknown,
		Objectives:   make([]*Objective, 0),
		CustomFields: make(map[string]any),
		Triggers:     make(map[string]any),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetState attempts a forward transition. It returns false, with no
// mutation, when the mission is completed, botched, or the new state would
// be a regression. When newState is Achieved and objectiveID is non-empty,
// the objective is achieved first (subject to CanAchieveObjective). A
// successful transition to Achieved re-evaluates completion and promotes to
// Completed in the same call when all required objectives are done.
func (m *Mission) SetState(newState State, objectiveID string) bool {
	if !newState.Valid() {
		return false
	}
	if m.State == StateCompleted {
		return false
	}
	if m.IsBotched && newState != m.State {
		return false
	}
	if newState.Rank() < m.State.Rank() {
		return false
	}

	if newState == StateAchieved && objectiveID != "" {
		if !m.CanAchieveObjective(objectiveID) {
			return false
		}
		m.FindObjective(objectiveID).Achieve()
	}

	m.State = newState
	m.touch()

	// Achieved is transient when nothing is left to do.
	if m.State == StateAchieved && m.CheckCompletion() {
		m.State = StateCompleted
	}
	return true
}

// FindObjective returns the objective with the given id, or nil.
func (m *Mission) FindObjective(id string) *Objective {
	for _, o := range m.Objectives {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// CanAchieveObjective reports whether the objective exists, is not yet
// achieved, and has no unmet ordered prerequisite. Ordered objectives are
// sequenced by numeric id comparison, not list position.
func (m *Mission) CanAchieveObjective(id string) bool {
	target := m.FindObjective(id)
	if target == nil || target.IsAchieved {
		return false
	}
	if !target.IsOrdered {
		return true
	}
	for _, o := range m.Objectives {
		if !o.IsOrdered || o.ID == target.ID {
			continue
		}
		if objectiveIDLess(o.ID, target.ID) && !o.IsAchieved {
			return false
		}
	}
	return true
}

// AchieveObjective achieves the objective if CanAchieveObjective allows it.
func (m *Mission) AchieveObjective(id string) bool {
	if !m.CanAchieveObjective(id) {
		return false
	}
	m.FindObjective(id).Achieve()
	m.touch()
	return true
}

// Botch flags the mission as failed. Completed missions cannot be botched.
func (m *Mission) Botch() bool {
	if m.State == StateCompleted {
		return false
	}
	m.IsBotched = true
	m.touch()
	return true
}

// Unbotch clears the failure flag, re-admitting the mission to normal flow.
func (m *Mission) Unbotch() bool {
	if !m.IsBotched {
		return false
	}
	m.IsBotched = false
	m.touch()
	return true
}

// CheckCompletion reports whether every non-optional objective is achieved.
// A mission with no objectives counts as complete.
func (m *Mission) CheckCompletion() bool {
	for _, o := range m.Objectives {
		if !o.IsOptional && !o.IsAchieved {
			return false
		}
	}
	return true
}

// GetProgress reports achieved/required counts and a derived percentage.
// With zero required objectives the mission is 100% complete.
func (m *Mission) GetProgress() ProgressReport {
	var achieved, required int
	for _, o := range m.Objectives {
		if o.IsOptional {
			continue
		}
		required++
		if o.IsAchieved {
			achieved++
		}
	}
	percent := 100.0
	if required > 0 {
		percent = float64(achieved) / float64(required) * 100.0
	}
	return ProgressReport{Achieved: achieved, Required: required, Percent: percent}
}

// EffectiveState is the display state: "botched" masks everything between
// Unknown and Completed while the flag is set.
func (m *Mission) EffectiveState() string {
	if m.IsBotched && m.State != StateUnknown && m.State != StateCompleted {
		return "botched"
	}
	return m.State.String()
}

// RefreshProgress updates the derived progress snapshot. Called before
// persistence so stored records carry current numbers.
func (m *Mission) RefreshProgress() {
	p := m.GetProgress()
	m.Progress = &p
}

func (m *Mission) touch() {
	m.UpdatedAt = time.Now().UTC()
}

// objectiveIDLess compares objective ids numerically when both parse as
// integers, lexically otherwise.
func objectiveIDLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
