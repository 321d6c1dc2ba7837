package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// Tier identifies a storage backend class.
type Tier string

const (
	TierFlatFile Tier = "flat_file"
	TierSQLite   Tier = "embedded_sql"
	TierPostgres Tier = "server_sql"
)

// Tier selection thresholds, by expected mission count.
const (
	sqliteVolumeThreshold   = 50
	postgresVolumeThreshold = 100
)

// Latency sampling. ShouldMigrate trips once the rolling average load
// latency on the flat-file tier crosses the threshold.
const (
	latencyWindow     = 100
	latencyMinSamples = 10
	migrateThreshold  = 100 * time.Millisecond
)

// TierForVolume picks the storage tier for an expected mission count.
func TierForVolume(expected int) Tier {
	switch {
	case expected < sqliteVolumeThreshold:
		return TierFlatFile
	case expected < postgresVolumeThreshold:
		return TierSQLite
	default:
		return TierPostgres
	}
}

// Options configures the storage manager.
type Options struct {
	DataDir        string
	SQLitePath     string
	PostgresDSN    string
	ExpectedVolume int
}

// Manager owns backend selection, wraps every operation with latency
// sampling, and exposes a one-way flat-file to SQL migration path. The
// mission manager only ever talks to this type.
type Manager struct {
	mu      sync.Mutex
	backend Backend
	tier    Tier
	opts    Options
	logger  *slog.Logger

	loadSamples [latencyWindow]time.Duration
	loadIdx     int
	loadCount   int
}

// NewManager selects a backend for the expected mission volume and
// constructs it.
func NewManager(opts Options, logger *slog.Logger) (*Manager, error) {
	tier := TierForVolume(opts.ExpectedVolume)
	backend, err := newBackend(tier, opts, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Mission storage initialized",
		"tier", tier, "expected_volume", opts.ExpectedVolume)
	return &Manager{
		backend: backend,
		tier:    tier,
		opts:    opts,
		logger:  logger,
	}, nil
}

func newBackend(tier Tier, opts Options, logger *slog.Logger) (Backend, error) {
	switch tier {
	case TierFlatFile:
		return NewFlatFileBackend(opts.DataDir, logger)
	case TierSQLite:
		return NewSQLiteBackend(opts.SQLitePath, logger)
	case TierPostgres:
		return NewPostgresBackend(opts.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage tier: %s", tier)
	}
}

// Tier returns the active storage tier.
func (sm *Manager) Tier() Tier {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.tier
}

func (sm *Manager) activeBackend() Backend {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.backend
}

func (sm *Manager) sampleLoad(d time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.loadSamples[sm.loadIdx] = d
	sm.loadIdx = (sm.loadIdx + 1) % latencyWindow
	if sm.loadCount < latencyWindow {
		sm.loadCount++
	}
}

func (sm *Manager) Save(ctx context.Context, m *mission.Mission) error {
	start := time.Now()
	err := sm.activeBackend().Save(ctx, m)
	elapsed := time.Since(start)
	if err != nil {
		sm.logger.Error("Failed to save mission", "mission_id", m.ID, "error", err)
		return err
	}
	sm.logger.Debug("Mission saved", "mission_id", m.ID, "elapsed", elapsed)
	return nil
}

func (sm *Manager) Load(ctx context.Context, id string) (*mission.Mission, error) {
	start := time.Now()
	m, err := sm.activeBackend().Load(ctx, id)
	sm.sampleLoad(time.Since(start))
	if err != nil {
		sm.logger.Error("Failed to load mission", "mission_id", id, "error", err)
		return nil, err
	}
	return m, nil
}

func (sm *Manager) LoadAll(ctx context.Context) ([]*mission.Mission, error) {
	start := time.Now()
	missions, err := sm.activeBackend().LoadAll(ctx)
	sm.sampleLoad(time.Since(start))
	if err != nil {
		sm.logger.Error("Failed to load missions", "error", err)
		return nil, err
	}
	return missions, nil
}

func (sm *Manager) Query(ctx context.Context, f QueryFilters) ([]*mission.Mission, error) {
	missions, err := sm.activeBackend().Query(ctx, f)
	if err != nil {
		sm.logger.Error("Failed to query missions", "error", err)
		return nil, err
	}
	return missions, nil
}

func (sm *Manager) Delete(ctx context.Context, id string) error {
	if err := sm.activeBackend().Delete(ctx, id); err != nil {
		sm.logger.Error("Failed to delete mission", "mission_id", id, "error", err)
		return err
	}
	return nil
}

func (sm *Manager) Ping(ctx context.Context) error {
	return sm.activeBackend().Ping(ctx)
}

func (sm *Manager) Close() error {
	return sm.activeBackend().Close()
}

// LatencyStats is a snapshot of the load-latency sampling window.
type LatencyStats struct {
	Samples int
	Average time.Duration
}

// LoadLatency returns current load-latency statistics.
func (sm *Manager) LoadLatency() LatencyStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.latencyLocked()
}

func (sm *Manager) latencyLocked() LatencyStats {
	if sm.loadCount == 0 {
		return LatencyStats{}
	}
	var total time.Duration
	for i := 0; i < sm.loadCount; i++ {
		total += sm.loadSamples[i]
	}
	return LatencyStats{
		Samples: sm.loadCount,
		Average: total / time.Duration(sm.loadCount),
	}
}

// ShouldMigrate reports whether the flat-file tier has become slow enough
// to justify moving to a database.
func (sm *Manager) ShouldMigrate() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.tier != TierFlatFile {
		return false
	}
	stats := sm.latencyLocked()
	return stats.Samples >= latencyMinSamples && stats.Average > migrateThreshold
}

// MigrateToDatabase performs the one-way, all-or-nothing cutover from the
// flat-file tier to a SQL backend sized for the observed mission volume.
// On any failure the original backend stays active and its files are left
// untouched. Not reversible, not incremental.
func (sm *Manager) MigrateToDatabase(ctx context.Context) error {
	sm.mu.Lock()
	current := sm.backend
	tier := sm.tier
	sm.mu.Unlock()

	if tier != TierFlatFile {
		return fmt.Errorf("migration only runs from the flat-file tier, current tier is %s", tier)
	}
	flat, ok := current.(*FlatFileBackend)
	if !ok {
		return fmt.Errorf("flat-file tier with unexpected backend type %T", current)
	}

	missions, err := current.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("migration aborted, failed to load missions: %w", err)
	}

	targetTier := TierSQLite
	if len(missions) >= postgresVolumeThreshold {
		targetTier = TierPostgres
	}
	target, err := newBackend(targetTier, sm.opts, sm.logger)
	if err != nil {
		return fmt.Errorf("migration aborted, failed to provision %s backend: %w", targetTier, err)
	}

	for _, m := range missions {
		if err := target.Save(ctx, m); err != nil {
			_ = target.Close()
			return fmt.Errorf("migration aborted, failed to copy mission %s: %w", m.ID, err)
		}
	}

	backupName := fmt.Sprintf("flatfile_backup_%d", time.Now().Unix())
	if err := flat.ArchiveAll(backupName); err != nil {
		_ = target.Close()
		return fmt.Errorf("migration aborted, failed to archive original files: %w", err)
	}

	sm.mu.Lock()
	sm.backend = target
	sm.tier = targetTier
	sm.loadIdx = 0
	sm.loadCount = 0
	sm.mu.Unlock()

	sm.logger.Info("Mission storage migrated",
		"tier", targetTier, "missions", len(missions), "backup", backupName)
	return nil
}

// Archive moves a mission to cold storage under the flat-file archived/
// directory and removes it from the active backend. Cold storage is always
// file-based, whatever the live tier.
func (sm *Manager) Archive(ctx context.Context, m *mission.Mission) error {
	backend := sm.activeBackend()
	if flat, ok := backend.(*FlatFileBackend); ok {
		return flat.ArchiveMission(ctx, m)
	}

	flat, err := NewFlatFileBackend(sm.opts.DataDir, sm.logger)
	if err != nil {
		return fmt.Errorf("failed to open cold storage: %w", err)
	}
	if err := flat.ArchiveMission(ctx, m); err != nil {
		return err
	}
	return backend.Delete(ctx, m.ID)
}
