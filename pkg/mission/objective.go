package mission

import "time"

// Objective is a single trackable sub-goal of a mission. Ordered objectives
// form a strict prerequisite chain keyed by numeric id ordering.
type Objective struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsAchieved  bool       `json:"is_achieved"`
	IsOptional  bool       `json:"is_optional,omitempty"`
	IsOrdered   bool       `json:"is_ordered,omitempty"`
	AchievedAt  *time.Time `json:"achieved_at,omitempty"`
	Progress    float64    `json:"progress,omitempty"` // advisory, 0.0-1.0
}

// Achieve marks the objective achieved and stamps the time. Idempotent:
// once achieved, the flag and timestamp never change again.
func (o *Objective) Achieve() {
	if o.IsAchieved {
		return
	}
	o.IsAchieved = true
	o.Progress = 1.0
	now := time.Now().UTC()
	o.AchievedAt = &now
}
