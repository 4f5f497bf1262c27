package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit record. Rows are never updated.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Action     string            `gorm:"size:64;index;not null" json:"action"`
	Target     string            `gorm:"size:255;not null" json:"target"`
	ActorID    uint              `gorm:"index" json:"actor_id"`
	ActorName  string            `gorm:"size:255;index;not null" json:"actor_name"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	EntityType string            `gorm:"size:32" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"timestamp"`
}
