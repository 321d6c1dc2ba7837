package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mission-engine/internal/cascade"
	"github.com/jwebster45206/mission-engine/internal/storage"
	"github.com/jwebster45206/mission-engine/pkg/mission"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	manager *Manager
	dataDir string
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()
	store, err := storage.NewManager(storage.Options{
		DataDir:        dir,
		SQLitePath:     filepath.Join(dir, "missions.db"),
		ExpectedVolume: 10,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	opts.Store = store
	opts.Templates = storage.NewTemplateStore(dir, logger)
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &testEnv{manager: NewManager(opts), dataDir: dir}
}

func addMission(t *testing.T, mm *Manager, id string, state mission.State) *mission.Mission {
	t.Helper()
	m := mission.New(id, "Mission "+id, "delivery")
	m.State = state
	require.NoError(t, mm.AddMission(context.Background(), m))
	return m
}

func TestManager_LoadFromStorage(t *testing.T) {
	env := newTestEnv(t, Options{})
	addMission(t, env.manager, "m1", mission.StateMentioned)
	addMission(t, env.manager, "m2", mission.StateAccepted)

	// A fresh manager over the same storage sees both missions.
	logger := testLogger()
	store, err := storage.NewManager(storage.Options{
		DataDir:        env.dataDir,
		ExpectedVolume: 10,
	}, logger)
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	fresh := NewManager(Options{Store: store, Logger: logger})
	require.NoError(t, fresh.Load(context.Background()))

	_, ok := fresh.GetMission("m1")
	assert.True(t, ok)
	_, ok = fresh.GetMission("m2")
	assert.True(t, ok)
}

func TestManager_GetAvailableMissions(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager

	visible := addMission(t, mm, "m1", mission.StateMentioned)
	visible.Location = "ceres_station"

	anywhere := addMission(t, mm, "m2", mission.StateMentioned)
	anywhere.Location = mission.LocationAny

	elsewhere := addMission(t, mm, "m3", mission.StateMentioned)
	elsewhere.Location = "vesta_depot"

	accepted := addMission(t, mm, "m4", mission.StateAccepted)
	accepted.Location = "ceres_station"

	done := addMission(t, mm, "m5", mission.StateCompleted)
	done.Location = "ceres_station"

	failed := addMission(t, mm, "m6", mission.StateMentioned)
	failed.Location = "ceres_station"
	failed.IsBotched = true

	gated := addMission(t, mm, "m7", mission.StateMentioned)
	gated.Location = "ceres_station"
	gated.SetField(mission.FieldMinFactionStanding, 25.0)

	got := mm.GetAvailableMissions("ceres_station", 10)
	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m1", "m2"}, ids)

	// Meeting the standing gate admits m7.
	got = mm.GetAvailableMissions("ceres_station", 30)
	assert.Len(t, got, 3)
}

func TestManager_AcceptAndAbandon(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager
	ctx := context.Background()
	addMission(t, mm, "m1", mission.StateMentioned)

	hooks, ok := mm.AcceptMission(ctx, "m1")
	require.True(t, ok)
	require.Len(t, hooks, 1)
	assert.Equal(t, "notification", hooks[0].Type)

	m, _ := mm.GetMission("m1")
	assert.Equal(t, mission.StateAccepted, m.State)

	// Accepting twice is rejected.
	_, ok = mm.AcceptMission(ctx, "m1")
	assert.False(t, ok)

	// Abandoning returns the mission to the board.
	require.True(t, mm.AbandonMission(ctx, "m1"))
	assert.Equal(t, mission.StateMentioned, m.State)

	_, ok = mm.AcceptMission(ctx, "m1")
	assert.True(t, ok)
}

func TestManager_AcceptRequiresMentioned(t *testing.T) {
	env := newTestEnv(t, Options{})
	addMission(t, env.manager, "m1", mission.StateUnknown)

	_, ok := env.manager.AcceptMission(context.Background(), "m1")
	assert.False(t, ok)

	_, ok = env.manager.AcceptMission(context.Background(), "missing")
	assert.False(t, ok)
}

func TestManager_BotchCascadesToRelated(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager
	ctx := context.Background()

	addMission(t, mm, "m1", mission.StateAccepted)
	addMission(t, mm, "m2", mission.StateAccepted)
	addMission(t, mm, "m3", mission.StateUnknown)

	mm.Cascades().RegisterRule("m1", cascade.BotchRelated{MissionIDs: []string{"m2"}})
	mm.Cascades().RegisterRule("m1", cascade.AdjustFaction{Faction: "traders_guild", Delta: -15})
	mm.Cascades().RegisterRule("m1", cascade.UnlockAlternative{MissionID: "m3"})

	hooks, ok := mm.BotchMission(ctx, "m1", "cargo destroyed", nil)
	require.True(t, ok)
	require.Len(t, hooks, 1)
	assert.Equal(t, "cargo destroyed", hooks[0].Data["reason"])

	m1, _ := mm.GetMission("m1")
	m2, _ := mm.GetMission("m2")
	m3, _ := mm.GetMission("m3")
	assert.True(t, m1.IsBotched)
	assert.True(t, m2.IsBotched, "related mission botched by cascade")
	assert.Equal(t, mission.StateMentioned, m3.State, "alternative unlocked")
	assert.Equal(t, -15.0, mm.Cascades().World().Standing("traders_guild"))

	// Re-botching is a no-op.
	_, ok = mm.BotchMission(ctx, "m1", "again", nil)
	assert.False(t, ok)
}

func TestManager_CircularCascadeTerminates(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager

	addMission(t, mm, "m1", mission.StateAccepted)
	addMission(t, mm, "m2", mission.StateAccepted)
	mm.Cascades().RegisterRule("m1", cascade.BotchRelated{MissionIDs: []string{"m2"}})
	mm.Cascades().RegisterRule("m2", cascade.BotchRelated{MissionIDs: []string{"m1"}})

	_, ok := mm.BotchMission(context.Background(), "m1", "", nil)
	require.True(t, ok)

	m1, _ := mm.GetMission("m1")
	m2, _ := mm.GetMission("m2")
	assert.True(t, m1.IsBotched)
	assert.True(t, m2.IsBotched)
}

func TestManager_UnbotchRestoresFlow(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager
	ctx := context.Background()
	addMission(t, mm, "m1", mission.StateAccepted)

	_, ok := mm.BotchMission(ctx, "m1", "", nil)
	require.True(t, ok)
	require.True(t, mm.UnbotchMission(ctx, "m1"))

	m, _ := mm.GetMission("m1")
	assert.False(t, m.IsBotched)

	// Unbotching an unbotched mission fails.
	assert.False(t, mm.UnbotchMission(ctx, "m1"))
}

func TestManager_SetMissionStateFiresCompletion(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager
	m := addMission(t, mm, "m1", mission.StateAccepted)
	m.Objectives = append(m.Objectives, &mission.Objective{ID: "1", Description: "Do the thing"})

	hooks, ok := mm.SetMissionState(context.Background(), "m1", mission.StateAchieved, "1")
	require.True(t, ok)
	assert.Equal(t, mission.StateCompleted, m.State, "sole objective done promotes to completed")
	require.Len(t, hooks, 2, "objective hook plus completion hook")
}

func TestManager_CleanupOldMissions(t *testing.T) {
	now := time.Now().UTC()
	env := newTestEnv(t, Options{
		Clock: func() time.Time { return now.AddDate(0, 0, 90) },
	})
	mm := env.manager
	ctx := context.Background()

	addMission(t, mm, "m1", mission.StateCompleted)
	addMission(t, mm, "m2", mission.StateAccepted)

	archived, err := mm.CleanupOldMissions(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	_, ok := mm.GetMission("m1")
	assert.False(t, ok, "archived mission leaves the live collection")
	_, ok = mm.GetMission("m2")
	assert.True(t, ok, "active missions survive cleanup")
	assert.FileExists(t, filepath.Join(env.dataDir, "archived", "m1.json"))
}

func TestManager_DeleteMission(t *testing.T) {
	env := newTestEnv(t, Options{})
	mm := env.manager
	addMission(t, mm, "m1", mission.StateMentioned)

	assert.True(t, mm.DeleteMission(context.Background(), "m1"))
	_, ok := mm.GetMission("m1")
	assert.False(t, ok)
	assert.False(t, mm.DeleteMission(context.Background(), "m1"))
}
