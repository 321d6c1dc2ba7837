package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// ClientDirectory resolves the issuing client for a generated mission.
// Resolution order: station-specific, then faction-specific, then
// mission-type-specific, then the generic default.
type ClientDirectory struct {
	Stations     map[string]string `json:"stations,omitempty"`
	Factions     map[string]string `json:"factions,omitempty"`
	MissionTypes map[string]string `json:"mission_types,omitempty"`
	Default      string            `json:"default,omitempty"`
}

// Resolve walks the specificity chain and returns the first match.
func (c ClientDirectory) Resolve(station, faction, missionType string) string {
	if client, ok := c.Stations[station]; ok {
		return client
	}
	if client, ok := c.Factions[faction]; ok {
		return client
	}
	if client, ok := c.MissionTypes[missionType]; ok {
		return client
	}
	if c.Default != "" {
		return c.Default
	}
	return "local contact"
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

var titleCaser = cases.Title(language.English)

// GenerateProceduralMission instantiates a mission from an authored
// template: location-variant overrides, random element rolls, player-level
// scaling, {field} placeholder substitution, and client resolution. The
// result starts in Mentioned state and is persisted before returning.
// Returns (nil, nil) when the template doesn't exist.
func (mm *Manager) GenerateProceduralMission(ctx context.Context, templateID string, player mission.PlayerContext, location string) (*mission.Mission, error) {
	tpl, err := mm.templates.LoadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, nil
	}

	id := fmt.Sprintf("%s_%s", tpl.TemplateID, uuid.NewString()[:8])
	m := mission.New(id, tpl.Title, tpl.MissionType)
	m.Description = tpl.Description
	m.Location = location
	m.Faction = tpl.Faction
	m.RewardPackageID = tpl.RewardPackageID
	for k, v := range tpl.CustomFields {
		m.SetField(k, v)
	}

	if variant, ok := tpl.LocationVariants[location]; ok {
		if variant.Title != "" {
			m.Title = variant.Title
		}
		if variant.Description != "" {
			m.Description = variant.Description
		}
		for k, v := range variant.CustomFields {
			m.SetField(k, v)
		}
	}

	for key, r := range tpl.RandomElements {
		m.SetField(key, r.Min+mm.roll(r.Max-r.Min+1))
	}

	if s := tpl.LevelScaling; s != nil {
		if s.RewardPerLevel > 0 && m.HasField(mission.FieldRewardCredits) && player.Level > 1 {
			scaled := m.FloatField(mission.FieldRewardCredits) *
				(1 + s.RewardPerLevel*float64(player.Level-1))
			m.SetField(mission.FieldRewardCredits, int(math.Round(scaled)))
		}
		if s.EliteEnemyTier != "" && s.EliteThreshold > 0 && player.Level >= s.EliteThreshold {
			m.SetField("enemy_tier", s.EliteEnemyTier)
		}
	}

	m.SetField(mission.FieldClient, mm.clients.Resolve(location, tpl.Faction, tpl.MissionType))

	m.Title = titleCaser.String(substitutePlaceholders(m.Title, m))
	m.Description = substitutePlaceholders(m.Description, m)
	m.Objectives = make([]*mission.Objective, 0, len(tpl.Objectives))
	for _, to := range tpl.Objectives {
		m.Objectives = append(m.Objectives, &mission.Objective{
			ID:          to.ID,
			Description: substitutePlaceholders(to.Description, m),
			IsOptional:  to.IsOptional,
			IsOrdered:   to.IsOrdered,
		})
	}

	if !m.SetState(mission.StateMentioned, "") {
		return nil, fmt.Errorf("generated mission %s rejected mentioned state", id)
	}
	if err := mm.AddMission(ctx, m); err != nil {
		return nil, err
	}
	mm.logger.Info("Procedural mission generated",
		"mission_id", id, "template_id", templateID, "location", location)
	return m, nil
}

func (mm *Manager) roll(n int) int {
	if n <= 1 {
		return 0
	}
	if mm.rand != nil {
		return mm.rand(n)
	}
	return rand.Intn(n)
}

// substitutePlaceholders replaces {field} tokens with values from the
// mission's custom field bag. Unknown tokens are left as-is so authoring
// mistakes stay visible.
func substitutePlaceholders(s string, m *mission.Mission) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		key := strings.Trim(token, "{}")
		if v, ok := m.CustomFields[key]; ok {
			return fmt.Sprint(v)
		}
		return token
	})
}
