package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS missions (
	id TEXT PRIMARY KEY,
	mission_type TEXT NOT NULL,
	state TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	faction TEXT NOT NULL DEFAULT '',
	is_botched INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_missions_state ON missions(state);
CREATE INDEX IF NOT EXISTS idx_missions_location ON missions(location);
`

// SQLiteBackend is the embedded SQL tier, backed by a local database file.
type SQLiteBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend opens (or creates) the database file and ensures the
// schema exists.
func NewSQLiteBackend(path string, logger *slog.Logger) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create mission schema: %w", err)
	}
	return &SQLiteBackend{db: db, logger: logger}, nil
}

func (s *SQLiteBackend) Save(ctx context.Context, m *mission.Mission) error {
	m.RefreshProgress()
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mission %s: %w", m.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO missions (id, mission_type, state, location, faction, is_botched, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mission_type = excluded.mission_type,
			state = excluded.state,
			location = excluded.location,
			faction = excluded.faction,
			is_botched = excluded.is_botched,
			updated_at = excluded.updated_at,
			data = excluded.data`,
		m.ID, m.MissionType, string(m.State), m.Location, m.Faction,
		boolToInt(m.IsBotched), m.UpdatedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("failed to save mission %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLiteBackend) Load(ctx context.Context, id string) (*mission.Mission, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM missions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		s.logger.Warn("Mission not found", "mission_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %s: %w", id, err)
	}
	return unmarshalMissionRow(data, id)
}

func (s *SQLiteBackend) LoadAll(ctx context.Context) ([]*mission.Mission, error) {
	return s.queryData(ctx, `SELECT data FROM missions ORDER BY id`)
}

func (s *SQLiteBackend) Query(ctx context.Context, f QueryFilters) ([]*mission.Mission, error) {
	where, args := buildWhere(f, func(int) string { return "?" })
	return s.queryData(ctx, `SELECT data FROM missions`+where+` ORDER BY id`, args...)
}

func (s *SQLiteBackend) queryData(ctx context.Context, query string, args ...any) ([]*mission.Mission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return scanMissionRows(rows, s.logger)
}

func (s *SQLiteBackend) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM missions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete mission %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// Shared row helpers used by both SQL tiers.

func unmarshalMissionRow(data, id string) (*mission.Mission, error) {
	var m mission.Mission
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mission %s: %w", id, err)
	}
	return &m, nil
}

func scanMissionRows(rows *sql.Rows, logger *slog.Logger) ([]*mission.Mission, error) {
	missions := make([]*mission.Mission, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan mission row: %w", err)
		}
		var m mission.Mission
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			logger.Warn("Failed to unmarshal mission row", "error", err)
			continue
		}
		missions = append(missions, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mission rows: %w", err)
	}
	return missions, nil
}

// buildWhere renders filters as a WHERE clause. The placeholder function
// maps the 1-based argument index to the driver's placeholder syntax.
func buildWhere(f QueryFilters, placeholder func(int) string) (string, []any) {
	var clauses []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s = %s", col, placeholder(len(args))))
	}
	if f.State != "" {
		add("state", string(f.State))
	}
	if f.MissionType != "" {
		add("mission_type", f.MissionType)
	}
	if f.Location != "" {
		add("location", f.Location)
	}
	if f.Faction != "" {
		add("faction", f.Faction)
	}
	if f.IsBotched != nil {
		add("is_botched", boolToInt(*f.IsBotched))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
