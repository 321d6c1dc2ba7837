package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jwebster45206/mission-engine/internal/cascade"
	"github.com/jwebster45206/mission-engine/internal/storage"
	"github.com/jwebster45206/mission-engine/internal/trigger"
	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// Manager is the mission orchestrator. It owns the in-memory mission
// collection keyed by id, loads it once at startup, and writes every
// mutation through to storage immediately. All mutations hold the
// per-mission lock: at most one in-flight mutation per mission id.
type Manager struct {
	store     *storage.Manager
	templates *storage.TemplateStore
	triggers  *trigger.Registry
	cascades  *cascade.Handler
	logger    *slog.Logger
	now       func() time.Time

	clients ClientDirectory
	rand    func(n int) int // returns [0, n); injectable for tests

	mu       sync.Mutex
	missions map[string]*mission.Mission
	locks    map[string]*sync.Mutex
}

// Options configures a Manager. Nil optional fields get working defaults.
type Options struct {
	Store     *storage.Manager
	Templates *storage.TemplateStore
	Triggers  *trigger.Registry
	Cascades  *cascade.Handler
	Logger    *slog.Logger
	Clock     func() time.Time
	Rand      func(n int) int
	Clients   ClientDirectory
}

// NewManager wires a manager from its dependencies and registers itself as
// the cascade handler's mission operations.
func NewManager(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Triggers == nil {
		opts.Triggers = trigger.NewRegistry(opts.Logger)
		trigger.RegisterDefaults(opts.Triggers)
	}
	if opts.Cascades == nil {
		opts.Cascades = cascade.NewHandler(cascade.NewWorldState(opts.Clock), opts.Logger)
	}
	m := &Manager{
		store:     opts.Store,
		templates: opts.Templates,
		triggers:  opts.Triggers,
		cascades:  opts.Cascades,
		logger:    opts.Logger,
		now:       opts.Clock,
		rand:      opts.Rand,
		clients:   opts.Clients,
		missions:  make(map[string]*mission.Mission),
		locks:     make(map[string]*sync.Mutex),
	}
	m.cascades.SetMissionOps((*cascadeOps)(m))
	return m
}

// Triggers exposes the trigger registry for authored-content registration.
func (mm *Manager) Triggers() *trigger.Registry { return mm.triggers }

// Cascades exposes the cascade handler for rule registration.
func (mm *Manager) Cascades() *cascade.Handler { return mm.cascades }

// lockFor returns the mutex for a mission id, creating it on first use.
func (mm *Manager) lockFor(id string) *sync.Mutex {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	l, ok := mm.locks[id]
	if !ok {
		l = &sync.Mutex{}
		mm.locks[id] = l
	}
	return l
}

// Load populates the in-memory collection from storage. Called once at
// startup.
func (mm *Manager) Load(ctx context.Context) error {
	missions, err := mm.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for _, m := range missions {
		mm.missions[m.ID] = m
	}
	mm.logger.Info("Missions loaded", "count", len(missions))
	return nil
}

// AddMission inserts a mission into the collection and persists it.
func (mm *Manager) AddMission(ctx context.Context, m *mission.Mission) error {
	lock := mm.lockFor(m.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := mm.store.Save(ctx, m); err != nil {
		return err
	}
	mm.mu.Lock()
	mm.missions[m.ID] = m
	mm.mu.Unlock()
	return nil
}

// GetMission returns a mission by id.
func (mm *Manager) GetMission(id string) (*mission.Mission, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	m, ok := mm.missions[id]
	return m, ok
}

// ListMissions returns every mission in the live collection, sorted by id.
func (mm *Manager) ListMissions() []*mission.Mission {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	out := make([]*mission.Mission, 0, len(mm.missions))
	for _, m := range mm.missions {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetAvailableMissions lists missions a player could accept: not
// completed, not already accepted, not botched, matching the location
// (missions at "any" or "unknown" show everywhere), and within the
// player's faction standing.
func (mm *Manager) GetAvailableMissions(location string, factionStanding float64) []*mission.Mission {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	out := make([]*mission.Mission, 0)
	for _, m := range mm.missions {
		if m.State == mission.StateCompleted || m.State == mission.StateAccepted || m.IsBotched {
			continue
		}
		if !locationMatches(m.Location, location) {
			continue
		}
		if m.HasField(mission.FieldMinFactionStanding) &&
			factionStanding < m.FloatField(mission.FieldMinFactionStanding) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func locationMatches(missionLocation, playerLocation string) bool {
	if playerLocation == "" {
		return true
	}
	switch missionLocation {
	case "", mission.LocationAny, mission.LocationUnknown:
		return true
	}
	return missionLocation == playerLocation
}

// AcceptMission moves a mission from Mentioned to Accepted, fires the
// acceptance trigger, and persists. Returns the hooks and whether the
// acceptance was legal.
func (mm *Manager) AcceptMission(ctx context.Context, id string) ([]trigger.Hook, bool) {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok {
		mm.logger.Warn("Mission not found", "mission_id", id)
		return nil, false
	}
	if m.State != mission.StateMentioned {
		return nil, false
	}
	if !m.SetState(mission.StateAccepted, "") {
		return nil, false
	}

	hooks := mm.triggers.Fire(trigger.EventMissionAccepted, m, nil)
	mm.persist(ctx, m)
	return hooks, true
}

// AbandonMission reverts an accepted mission to Mentioned. This is the
// one sanctioned backward step; it bypasses SetState's monotonicity on
// purpose and is not destructive.
func (mm *Manager) AbandonMission(ctx context.Context, id string) bool {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok {
		mm.logger.Warn("Mission not found", "mission_id", id)
		return false
	}
	if m.State != mission.StateAccepted {
		return false
	}
	m.State = mission.StateMentioned
	mm.persist(ctx, m)
	mm.logger.Info("Mission abandoned", "mission_id", id)
	return true
}

// BotchMission fails a mission: sets the flag, applies cascade rules,
// fires the botch trigger, and persists. Cascade rule failures never block
// the botch itself.
func (mm *Manager) BotchMission(ctx context.Context, id, reason string, botchContext map[string]any) ([]trigger.Hook, bool) {
	lock := mm.lockFor(id)
	lock.Lock()

	m, ok := mm.GetMission(id)
	if !ok {
		lock.Unlock()
		mm.logger.Warn("Mission not found", "mission_id", id)
		return nil, false
	}
	if !m.Botch() {
		lock.Unlock()
		return nil, false
	}
	mm.persist(ctx, m)
	lock.Unlock()

	// Cascades run outside the mission lock: a rule may botch other
	// missions, which take their own locks.
	if botchContext == nil {
		botchContext = make(map[string]any)
	}
	if reason != "" {
		botchContext["reason"] = reason
	}
	mm.cascades.HandleBotched(id, botchContext)

	hooks := mm.triggers.Fire(trigger.EventMissionBotched, m, botchContext)
	mm.logger.Info("Mission botched", "mission_id", id, "reason", reason)
	return hooks, true
}

// UnbotchMission clears the failure flag, re-admitting the mission to
// normal flow.
func (mm *Manager) UnbotchMission(ctx context.Context, id string) bool {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok {
		mm.logger.Warn("Mission not found", "mission_id", id)
		return false
	}
	if !m.Unbotch() {
		return false
	}
	mm.persist(ctx, m)
	return true
}

// SetMissionState applies an explicit state transition, firing completion
// hooks when the mission completes. objectiveID may be empty.
func (mm *Manager) SetMissionState(ctx context.Context, id string, newState mission.State, objectiveID string) ([]trigger.Hook, bool) {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok {
		mm.logger.Warn("Mission not found", "mission_id", id)
		return nil, false
	}
	wasCompleted := m.State == mission.StateCompleted
	if !m.SetState(newState, objectiveID) {
		return nil, false
	}

	var hooks []trigger.Hook
	if objectiveID != "" {
		hooks = append(hooks, mm.triggers.Fire(trigger.EventObjectiveCompleted, m,
			map[string]any{"objective_id": objectiveID})...)
	}
	if !wasCompleted && m.State == mission.StateCompleted {
		hooks = append(hooks, mm.triggers.Fire(trigger.EventMissionCompleted, m, nil)...)
	}
	mm.persist(ctx, m)
	return hooks, true
}

// CleanupOldMissions moves completed missions older than daysOld to cold
// storage and drops them from the live collection. Returns the number
// archived.
func (mm *Manager) CleanupOldMissions(ctx context.Context, daysOld int) (int, error) {
	cutoff := mm.now().AddDate(0, 0, -daysOld)

	mm.mu.Lock()
	stale := make([]*mission.Mission, 0)
	for _, m := range mm.missions {
		if m.State == mission.StateCompleted && m.UpdatedAt.Before(cutoff) {
			stale = append(stale, m)
		}
	}
	mm.mu.Unlock()

	archived := 0
	for _, m := range stale {
		lock := mm.lockFor(m.ID)
		lock.Lock()
		if err := mm.store.Archive(ctx, m); err != nil {
			mm.logger.Error("Failed to archive mission", "mission_id", m.ID, "error", err)
			lock.Unlock()
			continue
		}
		mm.mu.Lock()
		delete(mm.missions, m.ID)
		delete(mm.locks, m.ID)
		mm.mu.Unlock()
		lock.Unlock()
		archived++
	}
	if archived > 0 {
		mm.logger.Info("Old missions archived", "count", archived, "days_old", daysOld)
	}
	return archived, nil
}

// DeleteMission removes a mission outright. Explicit destructive path;
// cleanup archives instead.
func (mm *Manager) DeleteMission(ctx context.Context, id string) bool {
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := mm.GetMission(id); !ok {
		return false
	}
	if err := mm.store.Delete(ctx, id); err != nil {
		return false
	}
	mm.mu.Lock()
	delete(mm.missions, id)
	mm.mu.Unlock()
	return true
}

// persist writes a mission through to storage. Storage failures are logged
// and swallowed: the in-memory state is authoritative for the session and
// callers already hold a successful mutation.
func (mm *Manager) persist(ctx context.Context, m *mission.Mission) {
	if err := mm.store.Save(ctx, m); err != nil {
		mm.logger.Error("Write-through failed", "mission_id", m.ID, "error", err)
	}
}

// cascadeOps adapts the manager to the cascade handler's MissionOps
// without exporting botch-with-cascade re-entry on the main API surface.
type cascadeOps Manager

func (c *cascadeOps) IsBotched(id string) bool {
	m, ok := (*Manager)(c).GetMission(id)
	return ok && m.IsBotched
}

func (c *cascadeOps) Botch(id, reason string) bool {
	_, ok := (*Manager)(c).BotchMission(context.Background(), id, reason, nil)
	return ok
}

func (c *cascadeOps) Mention(id string) bool {
	mm := (*Manager)(c)
	lock := mm.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, ok := mm.GetMission(id)
	if !ok || m.State != mission.StateUnknown {
		return false
	}
	if !m.SetState(mission.StateMentioned, "") {
		return false
	}
	mm.persist(context.Background(), m)
	return true
}
