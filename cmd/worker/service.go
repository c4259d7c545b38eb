package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopward/shopward-backend/internal/audit"
	"github.com/shopward/shopward-backend/internal/notifications"
	"github.com/shopward/shopward-backend/pkg/config"
	"github.com/shopward/shopward-backend/pkg/db"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/redis"
)

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Dispatcher *notifications.Dispatcher
	Audit      audit.Service
}

type Service struct {
	cfg        *config.Config
	logg       *logger.Logger
	db         *db.Client
	redis      *redis.Client
	dispatcher *notifications.Dispatcher
	audit      audit.Service
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("notification dispatcher is required")
	}
	if params.Audit == nil {
		return nil, errors.New("audit service is required")
	}

	return &Service{
		cfg:        params.Config,
		logg:       params.Logger,
		db:         params.DB,
		redis:      params.Redis,
		dispatcher: params.Dispatcher,
		audit:      params.Audit,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	purgeInterval := s.cfg.Audit.PurgeInterval
	if purgeInterval <= 0 {
		purgeInterval = 24 * time.Hour
	}
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.dispatcher.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "notification dispatcher stopped unexpectedly", err)
				return err
			}
			return err
		case <-ticker.C:
			s.purgeAuditLogs(ctx)
		}
	}
}

func (s *Service) purgeAuditLogs(ctx context.Context) {
	retention := time.Duration(s.cfg.Audit.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		return
	}
	purged, err := s.audit.PurgeOlderThan(ctx, retention)
	if err != nil {
		s.logg.Error(ctx, "audit purge failed", err)
		return
	}
	if purged > 0 {
		s.logg.Info(s.logg.WithField(ctx, "purged", purged), "audit logs purged")
	}
}
