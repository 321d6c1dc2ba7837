// Package bridge mirrors per-player mission progress into Redis so that
// other game services (social, presence, matchmaking) can read a player's
// mission board without touching the engine's own storage tier.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// SaveState is the per-player mirror record. States holds the effective
// state per mission id ("botched" masks the underlying state, matching
// what a player-facing service should display).
type SaveState struct {
	PlayerID  string            `json:"player_id"`
	States    map[string]string `json:"states"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is the Redis-backed save-state mirror.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore creates a store over the given Redis address.
func NewStore(redisURL string, logger *slog.Logger) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: redisURL}),
		logger: logger,
	}
}

func saveStateKey(playerID string) string {
	return "savestate:" + playerID
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	s.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (s *Store) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := s.Ping(ctx); err != nil {
			s.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		s.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Save writes a player's save state.
func (s *Store) Save(ctx context.Context, state *SaveState) error {
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("Failed to marshal save state", "player_id", state.PlayerID, "error", err)
		return fmt.Errorf("failed to marshal save state: %w", err)
	}

	if err := s.client.Set(ctx, saveStateKey(state.PlayerID), string(data), 0).Err(); err != nil {
		s.logger.Error("Failed to save player state", "player_id", state.PlayerID, "error", err)
		return fmt.Errorf("failed to save player state: %w", err)
	}
	return nil
}

// Load reads a player's save state. Returns (nil, nil) for an unknown
// player.
func (s *Store) Load(ctx context.Context, playerID string) (*SaveState, error) {
	cmd := s.client.Get(ctx, saveStateKey(playerID))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			s.logger.Warn("Save state not found", "player_id", playerID)
			return nil, nil
		}
		s.logger.Error("Failed to load save state", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to load save state: %w", err)
	}

	var state SaveState
	if err := json.Unmarshal([]byte(cmd.Val()), &state); err != nil {
		s.logger.Error("Failed to unmarshal save state", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal save state: %w", err)
	}
	return &state, nil
}

// Delete removes a player's save state.
func (s *Store) Delete(ctx context.Context, playerID string) error {
	if err := s.client.Del(ctx, saveStateKey(playerID)).Err(); err != nil {
		s.logger.Error("Failed to delete save state", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// RecordMission upserts one mission's effective state into the player's
// mirror, creating the record on first write.
func (s *Store) RecordMission(ctx context.Context, playerID string, m *mission.Mission) error {
	state, err := s.Load(ctx, playerID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &SaveState{
			PlayerID: playerID,
			States:   make(map[string]string),
		}
	}
	if state.States == nil {
		state.States = make(map[string]string)
	}
	state.States[m.ID] = m.EffectiveState()
	return s.Save(ctx, state)
}

// ForgetMission drops one mission from the player's mirror, for missions
// the engine has archived or deleted. Unknown players and missions are a
// no-op.
func (s *Store) ForgetMission(ctx context.Context, playerID, missionID string) error {
	state, err := s.Load(ctx, playerID)
	if err != nil || state == nil {
		return err
	}
	if _, ok := state.States[missionID]; !ok {
		return nil
	}
	delete(state.States, missionID)
	return s.Save(ctx, state)
}
