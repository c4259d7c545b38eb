package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopward/shopward-backend/pkg/enums"
	"github.com/shopward/shopward-backend/pkg/types"
)

// Notification is a store-scoped in-app notification.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID   uuid.UUID              `gorm:"column:store_id;type:uuid;not null;index" json:"store_id"`
	Type      enums.NotificationType `gorm:"column:type;not null" json:"type"`
	Title     string                 `gorm:"column:title;not null" json:"title"`
	Body      string                 `gorm:"column:body;not null" json:"body"`
	Data      types.JSONMap          `gorm:"column:data;type:jsonb;serializer:json" json:"data,omitempty"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
