package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

const haulTemplate = `{
  "template_id": "haul",
  "title": "urgent haul contract",
  "description": "Deliver {cargo_amount} units of {cargo_type} to {destination}.",
  "mission_type": "delivery",
  "faction": "traders_guild",
  "reward_package_id": "std_cargo_reward",
  "objectives": [
    {"id": "1", "description": "Load {cargo_amount} units of {cargo_type}"},
    {"id": "2", "description": "Deliver the cargo to {destination}"}
  ],
  "custom_fields": {
    "cargo_type": "water_ice",
    "reward_credits": 1000,
    "delivery_type": "auto_delivery"
  },
  "location_variants": {
    "ceres_station": {
      "description": "The dockmaster at Ceres needs {cargo_amount} units of {cargo_type}.",
      "custom_fields": {"destination": "ceres_station"}
    }
  },
  "level_scaling": {
    "reward_per_level": 0.1,
    "elite_threshold": 10,
    "elite_enemy_tier": "veteran"
  },
  "random_elements": {
    "cargo_amount": {"min": 50, "max": 150}
  }
}`

func writeTemplate(t *testing.T, dataDir, id, content string) {
	t.Helper()
	dir := filepath.Join(dataDir, "templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+"_template.json"), []byte(content), 0o644))
}

func TestGenerateProceduralMission(t *testing.T) {
	env := newTestEnv(t, Options{
		Rand: func(n int) int { return 0 }, // always roll the minimum
		Clients: ClientDirectory{
			Stations: map[string]string{"ceres_station": "Dock Chief Mara"},
			Default:  "Guild Broker",
		},
	})
	writeTemplate(t, env.dataDir, "haul", haulTemplate)

	m, err := env.manager.GenerateProceduralMission(context.Background(), "haul",
		mission.PlayerContext{Level: 5}, "ceres_station")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.True(t, strings.HasPrefix(m.ID, "haul_"))
	assert.Greater(t, len(m.ID), len("haul_"))
	assert.Equal(t, mission.StateMentioned, m.State)
	assert.Equal(t, "Urgent Haul Contract", m.Title)
	assert.Equal(t, "delivery", m.MissionType)
	assert.Equal(t, "ceres_station", m.Location)
	assert.Equal(t, "traders_guild", m.Faction)
	assert.Equal(t, "std_cargo_reward", m.RewardPackageID)

	// Random element pinned to its minimum.
	assert.Equal(t, 50, m.IntField(mission.FieldCargoAmount))

	// Location variant overrode description and destination.
	assert.Equal(t, "The dockmaster at Ceres needs 50 units of water_ice.", m.Description)
	assert.Equal(t, "ceres_station", m.StringField(mission.FieldDestination))

	// Reward scaled for level 5: 1000 * (1 + 0.1*4).
	assert.Equal(t, 1400, m.IntField(mission.FieldRewardCredits))
	assert.False(t, m.HasField("enemy_tier"), "below the elite threshold")

	// Station-specific client wins over the default.
	assert.Equal(t, "Dock Chief Mara", m.StringField(mission.FieldClient))

	require.Len(t, m.Objectives, 2)
	assert.Equal(t, "Load 50 units of water_ice", m.Objectives[0].Description)
	assert.Equal(t, "Deliver the cargo to ceres_station", m.Objectives[1].Description)

	// Generated mission is in the live collection.
	_, ok := env.manager.GetMission(m.ID)
	assert.True(t, ok)
}

func TestGenerateProceduralMission_EliteScaling(t *testing.T) {
	env := newTestEnv(t, Options{Rand: func(n int) int { return n - 1 }})
	writeTemplate(t, env.dataDir, "haul", haulTemplate)

	m, err := env.manager.GenerateProceduralMission(context.Background(), "haul",
		mission.PlayerContext{Level: 12}, "vesta_depot")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "veteran", m.StringField("enemy_tier"))
	assert.Equal(t, 150, m.IntField(mission.FieldCargoAmount), "maximum roll")
	// No variant for this location: base description with unresolved
	// destination token left visible.
	assert.Contains(t, m.Description, "{destination}")
	assert.Equal(t, "Guild Broker", m.StringField(mission.FieldClient),
		"falls through to the default client")
}

func TestGenerateProceduralMission_MissingTemplate(t *testing.T) {
	env := newTestEnv(t, Options{})
	m, err := env.manager.GenerateProceduralMission(context.Background(), "nope",
		mission.PlayerContext{Level: 1}, "ceres_station")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGenerateProceduralMission_UniqueIDs(t *testing.T) {
	env := newTestEnv(t, Options{})
	writeTemplate(t, env.dataDir, "haul", haulTemplate)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		m, err := env.manager.GenerateProceduralMission(context.Background(), "haul",
			mission.PlayerContext{Level: 1}, "ceres_station")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestClientDirectory_ResolutionChain(t *testing.T) {
	dir := ClientDirectory{
		Stations:     map[string]string{"ceres_station": "Mara"},
		Factions:     map[string]string{"traders_guild": "Guild Rep"},
		MissionTypes: map[string]string{"elimination": "Bounty Office"},
		Default:      "Broker",
	}
	assert.Equal(t, "Mara", dir.Resolve("ceres_station", "traders_guild", "elimination"))
	assert.Equal(t, "Guild Rep", dir.Resolve("vesta_depot", "traders_guild", "elimination"))
	assert.Equal(t, "Bounty Office", dir.Resolve("vesta_depot", "miners_union", "elimination"))
	assert.Equal(t, "Broker", dir.Resolve("vesta_depot", "miners_union", "delivery"))
	assert.Equal(t, "local contact", ClientDirectory{}.Resolve("a", "b", "c"))
}
