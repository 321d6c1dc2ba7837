package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// Flat-file directory layout under the base dir.
const (
	dirActive    = "active"
	dirCompleted = "completed"
	dirTemplates = "templates"
	dirArchived  = "archived"
)

// FlatFileBackend persists one JSON file per mission. Non-completed
// missions live under active/, completed ones under completed/, cold
// storage and migration backups under archived/.
type FlatFileBackend struct {
	baseDir string
	logger  *slog.Logger
	mu      sync.Mutex
}

var _ Backend = (*FlatFileBackend)(nil)

// NewFlatFileBackend creates the directory layout and returns the backend.
func NewFlatFileBackend(baseDir string, logger *slog.Logger) (*FlatFileBackend, error) {
	for _, d := range []string{dirActive, dirCompleted, dirTemplates, dirArchived} {
		if err := os.MkdirAll(filepath.Join(baseDir, d), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create mission dir %s: %w", d, err)
		}
	}
	return &FlatFileBackend{baseDir: baseDir, logger: logger}, nil
}

// BaseDir returns the storage root.
func (f *FlatFileBackend) BaseDir() string {
	return f.baseDir
}

func (f *FlatFileBackend) missionPath(dir, id string) string {
	return filepath.Join(f.baseDir, dir, id+".json")
}

func (f *FlatFileBackend) Save(ctx context.Context, m *mission.Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	m.RefreshProgress()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mission %s: %w", m.ID, err)
	}

	dir, other := dirActive, dirCompleted
	if m.State == mission.StateCompleted {
		dir, other = dirCompleted, dirActive
	}
	if err := os.WriteFile(f.missionPath(dir, m.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write mission %s: %w", m.ID, err)
	}
	// A completed mission's file moves between directories; drop the stale
	// copy.
	if err := os.Remove(f.missionPath(other, m.ID)); err != nil && !os.IsNotExist(err) {
		f.logger.Warn("Failed to remove stale mission file", "mission_id", m.ID, "error", err)
	}
	return nil
}

func (f *FlatFileBackend) Load(ctx context.Context, id string) (*mission.Mission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, dir := range []string{dirActive, dirCompleted} {
		data, err := os.ReadFile(f.missionPath(dir, id))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mission %s: %w", id, err)
		}
		var m mission.Mission
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mission %s: %w", id, err)
		}
		return &m, nil
	}
	f.logger.Warn("Mission not found", "mission_id", id)
	return nil, nil
}

func (f *FlatFileBackend) LoadAll(ctx context.Context) ([]*mission.Mission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	missions := make([]*mission.Mission, 0)
	for _, dir := range []string{dirActive, dirCompleted} {
		entries, err := os.ReadDir(filepath.Join(f.baseDir, dir))
		if err != nil {
			return nil, fmt.Errorf("failed to read mission dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(f.baseDir, dir, entry.Name()))
			if err != nil {
				f.logger.Warn("Failed to read mission file", "file", entry.Name(), "error", err)
				continue
			}
			var m mission.Mission
			if err := json.Unmarshal(data, &m); err != nil {
				f.logger.Warn("Failed to unmarshal mission file", "file", entry.Name(), "error", err)
				continue
			}
			missions = append(missions, &m)
		}
	}
	return missions, nil
}

func (f *FlatFileBackend) Query(ctx context.Context, filters QueryFilters) ([]*mission.Mission, error) {
	all, err := f.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*mission.Mission, 0, len(all))
	for _, m := range all {
		if matches(m, filters) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FlatFileBackend) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, dir := range []string{dirActive, dirCompleted} {
		if err := os.Remove(f.missionPath(dir, id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete mission %s: %w", id, err)
		}
	}
	return nil
}

func (f *FlatFileBackend) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(f.baseDir); err != nil {
		return fmt.Errorf("mission dir unavailable: %w", err)
	}
	return nil
}

func (f *FlatFileBackend) Close() error {
	return nil
}

// ArchiveMission writes the mission to cold storage under archived/ and
// removes its live file.
func (f *FlatFileBackend) ArchiveMission(ctx context.Context, m *mission.Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("failed to marshal mission %s: %w", m.ID, err)
	}
	if err := os.WriteFile(f.missionPath(dirArchived, m.ID), data, 0o644); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("failed to archive mission %s: %w", m.ID, err)
	}
	f.mu.Unlock()
	return f.Delete(ctx, m.ID)
}

// ArchiveAll moves the live mission directories under archived/ with the
// given name and recreates them empty. Used by migration to preserve the
// original files.
func (f *FlatFileBackend) ArchiveAll(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	backupDir := filepath.Join(f.baseDir, dirArchived, name)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	for _, dir := range []string{dirActive, dirCompleted} {
		src := filepath.Join(f.baseDir, dir)
		if err := os.Rename(src, filepath.Join(backupDir, dir)); err != nil {
			return fmt.Errorf("failed to archive %s: %w", dir, err)
		}
		if err := os.MkdirAll(src, 0o755); err != nil {
			return fmt.Errorf("failed to recreate %s: %w", dir, err)
		}
	}
	return nil
}
