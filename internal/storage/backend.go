package storage

import (
	"context"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// QueryFilters narrows a backend query. Zero-valued fields match anything.
type QueryFilters struct {
	State       mission.State
	MissionType string
	Location    string
	Faction     string
	IsBotched   *bool
}

// Backend is the uniform persistence contract shared by every storage
// tier. Load returns (nil, nil) when the mission doesn't exist; Delete on a
// missing id is not an error.
type Backend interface {
	Save(ctx context.Context, m *mission.Mission) error
	Load(ctx context.Context, id string) (*mission.Mission, error)
	LoadAll(ctx context.Context) ([]*mission.Mission, error)
	Query(ctx context.Context, f QueryFilters) ([]*mission.Mission, error)
	Delete(ctx context.Context, id string) error

	// Ping tests the backend connection
	Ping(ctx context.Context) error

	// Close closes the backend connection
	Close() error
}

// matches applies query filters to a mission in memory. Used by the
// flat-file backend and the mock; the SQL tiers filter in the database.
func matches(m *mission.Mission, f QueryFilters) bool {
	if f.State != "" && m.State != f.State {
		return false
	}
	if f.MissionType != "" && m.MissionType != f.MissionType {
		return false
	}
	if f.Location != "" && m.Location != f.Location {
		return false
	}
	if f.Faction != "" && m.Faction != f.Faction {
		return false
	}
	if f.IsBotched != nil && m.IsBotched != *f.IsBotched {
		return false
	}
	return true
}
