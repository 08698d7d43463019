package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"gestor/internal/config"
	"gestor/internal/db"
	"gestor/internal/locks"
	"gestor/internal/migrate"
)

// Open prepares the workspace database, applies migrations and builds a
// service configured from cfg. The returned close func releases the
// database and any lock backend.
func Open(ctx context.Context, dbCfg db.Config, cfg *config.Config, logger *log.Logger) (*Service, func() error, error) {
	conn, err := db.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	svc := NewService(conn)
	if logger != nil {
		svc.Log = logger
	}
	closers := []func() error{conn.Close}
	if cfg != nil {
		svc.LockTTL = cfg.LockTTL()
		locker, closeLocker, err := NewLocker(ctx, cfg)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		svc.Locker = locker
		if closeLocker != nil {
			closers = append(closers, closeLocker)
		}
	}
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return svc, closeAll, nil
}

// NewLocker builds the per-case locker named by cfg.Locks.Backend.
func NewLocker(ctx context.Context, cfg *config.Config) (locks.Locker, func() error, error) {
	switch cfg.Locks.Backend {
	case config.LockBackendNone:
		return locks.Noop{}, nil, nil
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Locks.Redis.Addr,
			Password: cfg.Locks.Redis.Password,
			DB:       cfg.Locks.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Locks.Redis.Addr, err)
		}
		prefix := cfg.Locks.Redis.Prefix
		if prefix == "" {
			prefix = "gestor:"
		}
		return locks.NewRedis(client, prefix), client.Close, nil
	default:
		return locks.NewLocal(), nil, nil
	}
}
