package mission

import (
	"encoding/json"
	"testing"
)

func TestObjective_AchieveIdempotent(t *testing.T) {
	o := &Objective{ID: "1", Description: "Reach the relay"}
	o.Achieve()
	if !o.IsAchieved {
		t.Fatal("expected objective to be achieved")
	}
	if o.AchievedAt == nil {
		t.Fatal("expected achieved_at to be stamped")
	}

	first := *o.AchievedAt
	o.Achieve()
	if !o.AchievedAt.Equal(first) {
		t.Error("achieve should be a no-op on an achieved objective")
	}
}

func TestMission_SetStateMonotonic(t *testing.T) {
	tests := []struct {
		name     string
		from     State
		to       State
		expectOK bool
	}{
		{"unknown to mentioned", StateUnknown, StateMentioned, true},
		{"mentioned to accepted", StateMentioned, StateAccepted, true},
		{"accepted to completed", StateAccepted, StateCompleted, true},
		{"same state", StateAccepted, StateAccepted, true},
		{"accepted back to mentioned", StateAccepted, StateMentioned, false},
		{"completed to anything", StateCompleted, StateAchieved, false},
		{"invalid state", StateMentioned, State("exploded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("m1", "Test", "delivery")
			m.State = tt.from
			ok := m.SetState(tt.to, "")
			if ok != tt.expectOK {
				t.Errorf("SetState(%s) from %s = %v, want %v", tt.to, tt.from, ok, tt.expectOK)
			}
			if !ok && m.State != tt.from {
				t.Errorf("failed transition mutated state to %s", m.State)
			}
		})
	}
}

func TestMission_CompletedRejectsEverything(t *testing.T) {
	m := New("m1", "Test", "delivery")
	m.State = StateCompleted

	if m.SetState(StateCompleted, "") {
		t.Error("completed mission should reject SetState")
	}
	if m.Botch() {
		t.Error("completed mission should reject Botch")
	}
	if m.IsBotched {
		t.Error("botch flag should not be set on a completed mission")
	}
}

func TestMission_BotchBlocksTransitions(t *testing.T) {
	m := New("m1", "Test", "elimination")
	m.State = StateAccepted

	if !m.Botch() {
		t.Fatal("botch should succeed on an accepted mission")
	}
	if m.SetState(StateAchieved, "") {
		t.Error("botched mission should reject forward transitions")
	}
	if m.EffectiveState() != "botched" {
		t.Errorf("effective state = %s, want botched", m.EffectiveState())
	}

	// Redemption: unbotch re-admits the previously blocked transition.
	if !m.Unbotch() {
		t.Fatal("unbotch should clear a set flag")
	}
	if !m.SetState(StateAchieved, "") {
		t.Error("transition should succeed after unbotch")
	}
}

func TestMission_UnbotchNoFlag(t *testing.T) {
	m := New("m1", "Test", "delivery")
	if m.Unbotch() {
		t.Error("unbotch should report false when the flag is not set")
	}
}

func TestMission_OrderedObjectives(t *testing.T) {
	m := New("m1", "Escort", "delivery")
	m.Objectives = []*Objective{
		{ID: "1", Description: "Load cargo", IsOrdered: true},
		{ID: "2", Description: "Deliver cargo", IsOrdered: true},
		{ID: "3", Description: "Optional scan", IsOptional: true},
	}

	if m.CanAchieveObjective("2") {
		t.Error("objective 2 should be blocked while 1 is unachieved")
	}
	if !m.AchieveObjective("1") {
		t.Fatal("objective 1 should be achievable")
	}
	if !m.AchieveObjective("2") {
		t.Error("objective 2 should be achievable after 1")
	}
	if m.AchieveObjective("2") {
		t.Error("achieved objective should not be achievable again")
	}
	if m.AchieveObjective("missing") {
		t.Error("unknown objective id should fail")
	}
}

func TestMission_OrderedObjectivesNumericNotLexical(t *testing.T) {
	m := New("m1", "Long haul", "delivery")
	m.Objectives = []*Objective{
		{ID: "10", Description: "Final leg", IsOrdered: true},
		{ID: "2", Description: "First leg", IsOrdered: true},
	}

	// "10" < "2" lexically; numeric ordering must win.
	if m.CanAchieveObjective("10") {
		t.Error("objective 10 should wait for objective 2")
	}
	if !m.AchieveObjective("2") {
		t.Fatal("objective 2 should be achievable first")
	}
	if !m.CanAchieveObjective("10") {
		t.Error("objective 10 should unlock after 2")
	}
}

func TestMission_SetStateAchievesObjective(t *testing.T) {
	m := New("m1", "Survey", "exploration")
	m.State = StateAccepted
	m.Objectives = []*Objective{
		{ID: "1", Description: "Explore the nebula"},
		{ID: "2", Description: "Return home"},
	}

	if !m.SetState(StateAchieved, "1") {
		t.Fatal("transition with achievable objective should succeed")
	}
	if !m.Objectives[0].IsAchieved {
		t.Error("objective 1 should be achieved by the transition")
	}
	if m.State != StateAchieved {
		t.Errorf("state = %s, want achieved (objective 2 remains)", m.State)
	}

	// Achieving the last required objective auto-advances to completed.
	if !m.SetState(StateAchieved, "2") {
		t.Fatal("second transition should succeed")
	}
	if m.State != StateCompleted {
		t.Errorf("state = %s, want completed after auto-advance", m.State)
	}
}

func TestMission_CheckCompletion(t *testing.T) {
	m := New("m1", "Empty", "exploration")
	if !m.CheckCompletion() {
		t.Error("mission with no objectives counts as complete")
	}

	m.Objectives = []*Objective{
		{ID: "1", Description: "Required"},
		{ID: "2", Description: "Optional", IsOptional: true},
	}
	if m.CheckCompletion() {
		t.Error("unachieved required objective should block completion")
	}
	m.Objectives[0].Achieve()
	if !m.CheckCompletion() {
		t.Error("optional objectives should not block completion")
	}
}

func TestMission_GetProgress(t *testing.T) {
	m := New("m1", "Test", "elimination")
	m.Objectives = []*Objective{
		{ID: "1", Description: "Required one"},
		{ID: "2", Description: "Required two"},
		{ID: "3", Description: "Optional", IsOptional: true},
	}
	m.Objectives[0].Achieve()

	p := m.GetProgress()
	if p.Achieved != 1 || p.Required != 2 {
		t.Errorf("progress = %d/%d, want 1/2", p.Achieved, p.Required)
	}
	if p.Percent != 50.0 {
		t.Errorf("percent = %.1f, want 50.0", p.Percent)
	}

	empty := New("m2", "No objectives", "exploration")
	if got := empty.GetProgress().Percent; got != 100.0 {
		t.Errorf("zero required objectives should report 100%%, got %.1f", got)
	}
}

func TestMission_CustomFieldAccessors(t *testing.T) {
	m := New("m1", "Haul", "delivery")

	// JSON round-trips turn numbers into float64; accessors must cope.
	data := `{"cargo_amount": 50, "cargo_type": "ore", "min_integrity": 0.8, "priority": true}`
	if err := json.Unmarshal([]byte(data), &m.CustomFields); err != nil {
		t.Fatalf("unmarshal custom fields: %v", err)
	}

	if got := m.IntField(FieldCargoAmount); got != 50 {
		t.Errorf("IntField = %d, want 50", got)
	}
	if got := m.StringField(FieldCargoType); got != "ore" {
		t.Errorf("StringField = %q, want ore", got)
	}
	if got := m.FloatField(FieldMinIntegrity); got != 0.8 {
		t.Errorf("FloatField = %v, want 0.8", got)
	}
	if !m.BoolField("priority") {
		t.Error("BoolField should read true")
	}
	if m.IntField("missing") != 0 || m.StringField("missing") != "" {
		t.Error("missing fields should read as zero values")
	}

	d := m.Delivery()
	if d.CargoAmount != 50 || d.CargoType != "ore" {
		t.Errorf("delivery view = %+v", d)
	}
}

func TestMission_JSONRoundTrip(t *testing.T) {
	m := New("cargo_001", "Ore Run", "delivery")
	m.State = StateAccepted
	m.Objectives = []*Objective{{ID: "1", Description: "Load 50 units"}}
	m.SetField(FieldCargoAmount, 50)
	m.RefreshProgress()

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Mission
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != m.ID || out.State != StateAccepted {
		t.Errorf("round trip lost identity: %+v", out)
	}
	if out.IntField(FieldCargoAmount) != 50 {
		t.Error("round trip lost custom fields")
	}
	if out.Progress == nil || out.Progress.Required != 1 {
		t.Error("round trip lost progress snapshot")
	}
}
