package mission

// Well-known custom field keys. Authored content may add arbitrary keys
// beyond these; the engine only interprets the ones below.
const (
	FieldMinFactionStanding = "min_faction_standing"
	FieldRewardCredits      = "reward_credits"
	FieldClient             = "client"

	FieldTargetEnemyType = "target_enemy_type"
	FieldEnemyCount      = "enemy_count"
	FieldKillsMade       = "kills_made"

	FieldTargetLocation = "target_location"

	FieldCargoType      = "cargo_type"
	FieldCargoAmount    = "cargo_amount"
	FieldCargoLoaded    = "cargo_loaded"
	FieldCargoDelivered = "cargo_delivered"
	FieldDestination    = "destination"
	FieldDeliveryType   = "delivery_type"
	FieldMinIntegrity   = "min_integrity"
	FieldIntegrityMet   = "integrity_met"
)

// Delivery completion sources, mutually exclusive per mission.
const (
	DeliveryAuto       = "auto_delivery" // completes on docking
	DeliveryMarketSale = "market_sale"   // completes on market transaction
)

// IntField reads an integer custom field, tolerating the float64 values
// produced by JSON round-trips. Missing or mistyped fields read as zero.
func (m *Mission) IntField(key string) int {
	switch v := m.CustomFields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// FloatField reads a numeric custom field as float64.
func (m *Mission) FloatField(key string) float64 {
	switch v := m.CustomFields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// StringField reads a string custom field, or "" when absent.
func (m *Mission) StringField(key string) string {
	if v, ok := m.CustomFields[key].(string); ok {
		return v
	}
	return ""
}

// BoolField reads a boolean custom field, or false when absent.
func (m *Mission) BoolField(key string) bool {
	if v, ok := m.CustomFields[key].(bool); ok {
		return v
	}
	return false
}

// SetField writes a custom field, allocating the bag on first use.
func (m *Mission) SetField(key string, value any) {
	if m.CustomFields == nil {
		m.CustomFields = make(map[string]any)
	}
	m.CustomFields[key] = value
}

// HasField reports whether the key is present in the custom field bag.
func (m *Mission) HasField(key string) bool {
	_, ok := m.CustomFields[key]
	return ok
}

// DeliveryFields is the typed view over a delivery mission's counters.
type DeliveryFields struct {
	CargoType    string
	CargoAmount  int
	Destination  string
	DeliveryType string
	MinIntegrity float64
	Loaded       int
	Delivered    int
}

// Delivery extracts the delivery view from the custom field bag.
func (m *Mission) Delivery() DeliveryFields {
	return DeliveryFields{
		CargoType:    m.StringField(FieldCargoType),
		CargoAmount:  m.IntField(FieldCargoAmount),
		Destination:  m.StringField(FieldDestination),
		DeliveryType: m.StringField(FieldDeliveryType),
		MinIntegrity: m.FloatField(FieldMinIntegrity),
		Loaded:       m.IntField(FieldCargoLoaded),
		Delivered:    m.IntField(FieldCargoDelivered),
	}
}

// EliminationFields is the typed view over an elimination mission.
type EliminationFields struct {
	TargetEnemyType string
	EnemyCount      int
	KillsMade       int
}

// Elimination extracts the elimination view from the custom field bag.
func (m *Mission) Elimination() EliminationFields {
	return EliminationFields{
		TargetEnemyType: m.StringField(FieldTargetEnemyType),
		EnemyCount:      m.IntField(FieldEnemyCount),
		KillsMade:       m.IntField(FieldKillsMade),
	}
}
