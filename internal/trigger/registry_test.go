package trigger

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestRegistry_FireOrderAndNilSkip(t *testing.T) {
	r := NewRegistry(testLogger())
	m := mission.New("m1", "Test", "delivery")

	r.Register("custom_event", func(*mission.Mission, map[string]any) *Hook {
		return &Hook{Type: "first"}
	})
	r.Register("custom_event", func(*mission.Mission, map[string]any) *Hook {
		return nil // contributes nothing
	})
	r.Register("custom_event", func(*mission.Mission, map[string]any) *Hook {
		return &Hook{Type: "second"}
	})

	hooks := r.Fire("custom_event", m, nil)
	require.Len(t, hooks, 2)
	assert.Equal(t, "first", hooks[0].Type)
	assert.Equal(t, "second", hooks[1].Type)
}

func TestRegistry_FireUnregisteredEvent(t *testing.T) {
	r := NewRegistry(testLogger())
	hooks := r.Fire("nobody_home", mission.New("m1", "Test", "delivery"), nil)
	assert.Empty(t, hooks)
}

func TestRegistry_PanicIsolation(t *testing.T) {
	r := NewRegistry(testLogger())
	m := mission.New("m1", "Test", "delivery")

	r.Register("custom_event", func(*mission.Mission, map[string]any) *Hook {
		panic("bad callback")
	})
	r.Register("custom_event", func(*mission.Mission, map[string]any) *Hook {
		return &Hook{Type: "survivor"}
	})

	hooks := r.Fire("custom_event", m, nil)
	require.Len(t, hooks, 1)
	assert.Equal(t, "survivor", hooks[0].Type)
}

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry(testLogger())
	RegisterDefaults(r)

	m := mission.New("m1", "Ore Run", "delivery")
	m.RewardPackageID = "reward_basic"
	m.Objectives = []*mission.Objective{{ID: "1", Description: "Load cargo"}}

	accepted := r.Fire(EventMissionAccepted, m, nil)
	require.Len(t, accepted, 1)
	assert.Equal(t, "notification", accepted[0].Type)
	assert.Contains(t, accepted[0].Data["message"], "Ore Run")

	completed := r.Fire(EventMissionCompleted, m, nil)
	require.Len(t, completed, 1)
	assert.Equal(t, "reward_basic", completed[0].Data["reward_package_id"])

	botched := r.Fire(EventMissionBotched, m, map[string]any{"reason": "cargo destroyed"})
	require.Len(t, botched, 1)
	assert.Equal(t, "cargo destroyed", botched[0].Data["reason"])

	objective := r.Fire(EventObjectiveCompleted, m, map[string]any{"objective_id": "1"})
	require.Len(t, objective, 1)
	assert.Contains(t, objective[0].Data["message"], "Load cargo")
}
