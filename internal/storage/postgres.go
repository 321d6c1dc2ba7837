package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lib/pq"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS missions (
	id TEXT PRIMARY KEY,
	mission_type TEXT NOT NULL,
	state TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	faction TEXT NOT NULL DEFAULT '',
	is_botched INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL,
	data JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_missions_state ON missions(state);
CREATE INDEX IF NOT EXISTS idx_missions_location ON missions(location)`

const (
	pgMaxRetries = 3
	pgRetryDelay = 250 * time.Millisecond
	pgOpTimeout  = 5 * time.Second
)

// PostgresBackend is the server SQL tier. Transient connection failures
// are retried with backoff; constraint violations are not.
type PostgresBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Backend = (*PostgresBackend)(nil)

// NewPostgresBackend connects to the server and ensures the schema exists.
func NewPostgresBackend(dsn string, logger *slog.Logger) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create mission schema: %w", err)
	}
	return &PostgresBackend{db: db, logger: logger}, nil
}

// isTransient reports whether the error is a connection-level failure
// worth retrying. Constraint violations (class 23) and other SQL errors
// are permanent.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception; class 57: operator intervention
		// (e.g. server shutdown mid-query).
		class := pqErr.Code.Class()
		return class == "08" || class == "57"
	}
	return false
}

// withRetry runs op, retrying transient failures up to pgMaxRetries.
func (p *PostgresBackend) withRetry(ctx context.Context, name string, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= pgMaxRetries; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, pgOpTimeout)
		err = op(opCtx)
		cancel()
		if err == nil || !isTransient(err) {
			return err
		}
		p.logger.Warn("Transient postgres failure, retrying",
			"op", name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pgRetryDelay * time.Duration(attempt)):
		}
	}
	return err
}

func (p *PostgresBackend) Save(ctx context.Context, m *mission.Mission) error {
	m.RefreshProgress()
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mission %s: %w", m.ID, err)
	}
	return p.withRetry(ctx, "save", func(ctx context.Context) error {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO missions (id, mission_type, state, location, faction, is_botched, updated_at, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				mission_type = EXCLUDED.mission_type,
				state = EXCLUDED.state,
				location = EXCLUDED.location,
				faction = EXCLUDED.faction,
				is_botched = EXCLUDED.is_botched,
				updated_at = EXCLUDED.updated_at,
				data = EXCLUDED.data`,
			m.ID, m.MissionType, string(m.State), m.Location, m.Faction,
			boolToInt(m.IsBotched), m.UpdatedAt.UTC(), string(data))
		if err != nil {
			return fmt.Errorf("failed to save mission %s: %w", m.ID, err)
		}
		return nil
	})
}

func (p *PostgresBackend) Load(ctx context.Context, id string) (*mission.Mission, error) {
	var m *mission.Mission
	err := p.withRetry(ctx, "load", func(ctx context.Context) error {
		var data string
		err := p.db.QueryRowContext(ctx, `SELECT data FROM missions WHERE id = $1`, id).Scan(&data)
		if err == sql.ErrNoRows {
			p.logger.Warn("Mission not found", "mission_id", id)
			m = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load mission %s: %w", id, err)
		}
		m, err = unmarshalMissionRow(data, id)
		return err
	})
	return m, err
}

func (p *PostgresBackend) LoadAll(ctx context.Context) ([]*mission.Mission, error) {
	return p.queryData(ctx, `SELECT data FROM missions ORDER BY id`)
}

func (p *PostgresBackend) Query(ctx context.Context, f QueryFilters) ([]*mission.Mission, error) {
	where, args := buildWhere(f, func(i int) string { return fmt.Sprintf("$%d", i) })
	return p.queryData(ctx, `SELECT data FROM missions`+where+` ORDER BY id`, args...)
}

func (p *PostgresBackend) queryData(ctx context.Context, query string, args ...any) ([]*mission.Mission, error) {
	var missions []*mission.Mission
	err := p.withRetry(ctx, "query", func(ctx context.Context) error {
		rows, err := p.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query missions: %w", err)
		}
		defer func() {
			_ = rows.Close()
		}()
		missions, err = scanMissionRows(rows, p.logger)
		return err
	})
	return missions, err
}

func (p *PostgresBackend) Delete(ctx context.Context, id string) error {
	return p.withRetry(ctx, "delete", func(ctx context.Context) error {
		if _, err := p.db.ExecContext(ctx, `DELETE FROM missions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete mission %s: %w", id, err)
		}
		return nil
	})
}

func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresBackend) Close() error {
	return p.db.Close()
}

// WaitForConnection waits for the server to become available during
// startup.
func (p *PostgresBackend) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := p.Ping(ctx); err != nil {
			p.logger.Debug("Postgres not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for postgres: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}
		p.logger.Info("Postgres connection established")
		return nil
	}
	return fmt.Errorf("postgres did not become available after %d attempts", maxRetries)
}
