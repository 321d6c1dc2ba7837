package mission

// TemplateObjective is an authored objective blueprint.
type TemplateObjective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IsOptional  bool   `json:"is_optional,omitempty"`
	IsOrdered   bool   `json:"is_ordered,omitempty"`
}

// LocationVariant overrides template text and fields for a specific
// location. Custom fields merge over the template's bag.
type LocationVariant struct {
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
}

// LevelScaling controls player-level adjustments at instantiation time.
type LevelScaling struct {
	// RewardPerLevel scales reward_credits by 1 + RewardPerLevel*(level-1).
	RewardPerLevel float64 `json:"reward_per_level,omitempty"`
	// EliteThreshold is the player level at or above which EliteEnemyTier
	// is written into the mission's custom fields.
	EliteThreshold int    `json:"elite_threshold,omitempty"`
	EliteEnemyTier string `json:"elite_enemy_tier,omitempty"`
}

// RandomRange is an inclusive integer range rolled at instantiation.
type RandomRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Template is an authored blueprint used to procedurally instantiate a
// mission. Title, description, and objective descriptions may contain
// {field} placeholder tokens resolved from the custom field bag.
type Template struct {
	TemplateID       string                     `json:"template_id"`
	Title            string                     `json:"title"`
	Description      string                     `json:"description,omitempty"`
	MissionType      string                     `json:"mission_type"`
	Faction          string                     `json:"faction,omitempty"`
	RewardPackageID  string                     `json:"reward_package_id,omitempty"`
	Objectives       []TemplateObjective        `json:"objectives"`
	CustomFields     map[string]any             `json:"custom_fields,omitempty"`
	LocationVariants map[string]LocationVariant `json:"location_variants,omitempty"`
	LevelScaling     *LevelScaling              `json:"level_scaling,omitempty"`
	RandomElements   map[string]RandomRange     `json:"random_elements,omitempty"`
}

// PlayerContext is the read-only player data consulted at instantiation.
type PlayerContext struct {
	Level           int     `json:"level"`
	FactionStanding float64 `json:"faction_standing,omitempty"`
}
