package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

func TestTierForVolume(t *testing.T) {
	tests := []struct {
		volume int
		want   Tier
	}{
		{0, TierFlatFile},
		{40, TierFlatFile},
		{49, TierFlatFile},
		{50, TierSQLite},
		{75, TierSQLite},
		{99, TierSQLite},
		{100, TierPostgres},
		{150, TierPostgres},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForVolume(tt.volume), "volume %d", tt.volume)
	}
}

func newFlatManager(t *testing.T, volume int) *Manager {
	t.Helper()
	dir := t.TempDir()
	sm, err := NewManager(Options{
		DataDir:        dir,
		SQLitePath:     filepath.Join(dir, "missions.db"),
		ExpectedVolume: volume,
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sm.Close()
	})
	return sm
}

func TestManager_TierSelection(t *testing.T) {
	assert.Equal(t, TierFlatFile, newFlatManager(t, 40).Tier())
	assert.Equal(t, TierSQLite, newFlatManager(t, 75).Tier())
	// The postgres tier needs a DSN; construction must fail without one.
	_, err := NewManager(Options{DataDir: t.TempDir(), ExpectedVolume: 150}, testLogger())
	assert.Error(t, err)
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	sm := newFlatManager(t, 10)
	ctx := context.Background()

	m := testMission("m1", mission.StateMentioned)
	require.NoError(t, sm.Save(ctx, m))

	loaded, err := sm.Load(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "m1", loaded.ID)

	stats := sm.LoadLatency()
	assert.Equal(t, 1, stats.Samples)
}

func TestManager_ShouldMigrate(t *testing.T) {
	sm := newFlatManager(t, 10)
	mock := NewMockBackend()
	sm.backend = mock

	ctx := context.Background()
	assert.False(t, sm.ShouldMigrate(), "no samples yet")

	// Fast loads never trip the threshold.
	for i := 0; i < latencyMinSamples; i++ {
		_, err := sm.Load(ctx, "m1")
		require.NoError(t, err)
	}
	assert.False(t, sm.ShouldMigrate())

	// Slow loads do, once enough samples accumulate.
	mock.LoadLatency = migrateThreshold + 20*time.Millisecond
	for i := 0; i < latencyWindow; i++ {
		_, err := sm.Load(ctx, "m1")
		require.NoError(t, err)
	}
	assert.True(t, sm.ShouldMigrate())
}

func TestManager_ShouldMigrateOnlyFromFlatFile(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewManager(Options{
		DataDir:        dir,
		SQLitePath:     filepath.Join(dir, "missions.db"),
		ExpectedVolume: 75,
	}, testLogger())
	require.NoError(t, err)
	defer func() {
		_ = sm.Close()
	}()

	mock := NewMockBackend()
	mock.LoadLatency = migrateThreshold * 2
	sm.backend = mock
	for i := 0; i < latencyWindow; i++ {
		_, _ = sm.Load(context.Background(), "m1")
	}
	assert.False(t, sm.ShouldMigrate(), "sqlite tier never migrates")
}

func TestManager_MigrateToDatabase(t *testing.T) {
	sm := newFlatManager(t, 10)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, sm.Save(ctx, testMission(id, mission.StateAccepted)))
	}

	require.NoError(t, sm.MigrateToDatabase(ctx))
	assert.Equal(t, TierSQLite, sm.Tier())

	// All missions made the cutover.
	all, err := sm.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Original files are archived, not deleted.
	backups, err := filepath.Glob(filepath.Join(sm.opts.DataDir, "archived", "flatfile_backup_*", "active", "*.json"))
	require.NoError(t, err)
	assert.Len(t, backups, 3)

	// One-way: a second migration fails.
	assert.Error(t, sm.MigrateToDatabase(ctx))
}

func TestManager_MigrationFailureLeavesOriginal(t *testing.T) {
	// No SQLitePath: provisioning the target backend fails.
	dir := t.TempDir()
	sm, err := NewManager(Options{DataDir: dir, ExpectedVolume: 10}, testLogger())
	require.NoError(t, err)
	defer func() {
		_ = sm.Close()
	}()
	ctx := context.Background()

	require.NoError(t, sm.Save(ctx, testMission("m1", mission.StateAccepted)))
	require.Error(t, sm.MigrateToDatabase(ctx))

	assert.Equal(t, TierFlatFile, sm.Tier())
	loaded, err := sm.Load(ctx, "m1")
	require.NoError(t, err)
	assert.NotNil(t, loaded, "original backend stays intact after failed migration")
}

func TestManager_StorageFailureSurfaced(t *testing.T) {
	sm := newFlatManager(t, 10)
	mock := NewMockBackend()
	mock.SaveErr = errors.New("disk on fire")
	sm.backend = mock

	err := sm.Save(context.Background(), testMission("m1", mission.StateMentioned))
	assert.Error(t, err)
}

func TestManager_ArchiveFromSQLTier(t *testing.T) {
	dir := t.TempDir()
	sm, err := NewManager(Options{
		DataDir:        dir,
		SQLitePath:     filepath.Join(dir, "missions.db"),
		ExpectedVolume: 75,
	}, testLogger())
	require.NoError(t, err)
	defer func() {
		_ = sm.Close()
	}()
	ctx := context.Background()

	m := testMission("m1", mission.StateCompleted)
	require.NoError(t, sm.Save(ctx, m))
	require.NoError(t, sm.Archive(ctx, m))

	assert.FileExists(t, filepath.Join(dir, "archived", "m1.json"))
	loaded, err := sm.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "archived mission is removed from the live backend")
}
