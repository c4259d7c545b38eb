package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/pkg/db/models"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/pagination"
	"github.com/shopward/shopward-backend/pkg/types"
)

// Entry describes one audit-worthy mutation.
type Entry struct {
	StoreID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Changes    types.JSONMap
	ActorID    *uuid.UUID
	IP         string
	UserAgent  string
}

// Service records and queries the audit trail.
type Service interface {
	// Record appends an entry. It never fails the caller: persistence
	// problems are logged and swallowed so an audit hiccup cannot roll
	// back a committed business mutation.
	Record(ctx context.Context, tx *gorm.DB, entry Entry)
	List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*LogList, error)
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the audit service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) {
	action := strings.TrimSpace(entry.Action)
	if action == "" || strings.TrimSpace(entry.EntityType) == "" {
		s.logg.Warn(ctx, "audit entry missing action or entity type, dropped")
		return
	}

	row := &models.AuditLog{
		StoreID:    entry.StoreID,
		Action:     action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Changes:    entry.Changes,
		ActorID:    entry.ActorID,
		IP:         entry.IP,
		UserAgent:  entry.UserAgent,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"action":      action,
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
		})
		s.logg.Error(logCtx, "audit entry write failed", err)
	}
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filters Filters) (*LogList, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	list, err := s.repo.List(ctx, storeID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}
	return list, nil
}

func (s *service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-retention)
	purged, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge audit logs")
	}
	if purged > 0 {
		s.logg.Info(s.logg.WithField(ctx, "purged", purged), "audit retention cleanup complete")
	}
	return purged, nil
}
