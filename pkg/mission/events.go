package mission

// EventType is the closed set of gameplay events the engine interprets.
// Unknown event types are a no-op for every mission, not an error.
type EventType string

const (
	EventEnemyDestroyed  EventType = "enemy_destroyed"
	EventLocationReached EventType = "location_reached"
	EventCargoLoaded     EventType = "cargo_loaded"
	EventCargoDelivered  EventType = "cargo_delivered"
)

// Delivery event sources. auto_delivery missions only accept docking
// events; market_sale missions only accept market events.
const (
	SourceDocking = "docking"
	SourceMarket  = "market"
)

// GameEvent is a gameplay event payload delivered to progress updates.
// Fields are populated per event type; unused fields stay zero.
type GameEvent struct {
	Type EventType `json:"type"`

	// enemy_destroyed
	EnemyType string `json:"enemy_type,omitempty"`
	EnemyID   string `json:"enemy_id,omitempty"`

	// location_reached, enemy_destroyed, cargo_loaded
	Location    string    `json:"location,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`

	// cargo_loaded, cargo_delivered
	CargoType string `json:"cargo_type,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`

	// cargo_delivered
	DeliveryLocation string  `json:"delivery_location,omitempty"`
	Integrity        float64 `json:"integrity,omitempty"`
	Source           string  `json:"source,omitempty"`
}
