package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the append-only audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*LogList, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filters narrows audit log listings.
type Filters struct {
	Action     string
	EntityType string
	ActorID    *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// LogList wraps the paginated entries plus the next page cursor.
type LogList struct {
	Entries    []models.AuditLog `json:"entries"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*LogList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("store_id = ?", storeID)

	if action := strings.TrimSpace(filters.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if entityType := strings.TrimSpace(filters.EntityType); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if filters.ActorID != nil {
		query = query.Where("actor_id = ?", *filters.ActorID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.AuditLog
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &LogList{Entries: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		list.Entries = rows[:limit]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
