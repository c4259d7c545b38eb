package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopward/shopward-backend/pkg/types"
)

// AuditLog is an append-only compliance record. Rows are never updated or
// deleted in normal operation; retention cleanup bulk-ages them out.
type AuditLog struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID    *uuid.UUID    `gorm:"column:store_id;type:uuid;index" json:"store_id,omitempty"`
	Action     string        `gorm:"column:action;not null;index" json:"action"`
	EntityType string        `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   string        `gorm:"column:entity_id;not null" json:"entity_id"`
	Changes    types.JSONMap `gorm:"column:changes;type:jsonb;serializer:json" json:"changes,omitempty"`
	ActorID    *uuid.UUID    `gorm:"column:actor_id;type:uuid" json:"actor_id,omitempty"`
	IP         string        `gorm:"column:ip" json:"ip,omitempty"`
	UserAgent  string        `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
