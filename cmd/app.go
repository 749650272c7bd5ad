package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-reservations/config"
	"github.com/yeremiapane/table-reservations/database"
	"github.com/yeremiapane/table-reservations/repository"
	"github.com/yeremiapane/table-reservations/services"
	"github.com/yeremiapane/table-reservations/utils"
	"gorm.io/gorm"
)

// app holds what every command needs: configuration, database and store.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	store *repository.GormStore
}

func loadApp(configPath string, migrate bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		if _, err := database.SeedTables(db, cfg.SeedTables()); err != nil {
			return nil, err
		}
	}
	return &app{cfg: cfg, db: db, store: repository.NewGormStore(db)}, nil
}

// engineOptions builds the engine options, connecting to Redis for the slot
// lock when REDIS_URL is set.
func (a *app) engineOptions(ctx context.Context, publisher services.EventPublisher) (services.Options, func(), error) {
	policy, err := a.cfg.BookingPolicy()
	if err != nil {
		return services.Options{}, nil, err
	}
	opts := services.Options{
		Policy:       &policy,
		LockWait:     a.cfg.LockWait,
		Publisher:    publisher,
		ReleaseStale: a.cfg.Scheduler.ReleaseStale,
	}
	cleanup := func() {}

	if a.cfg.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return services.Options{}, nil, fmt.Errorf("[redis] Error parsing connection string: %w", err)
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return services.Options{}, nil, fmt.Errorf("[redis] ping: %w", err)
		}
		opts.Locker = services.NewRedisSlotLocker(rdb, 2*a.cfg.LockWait)
		cleanup = func() { rdb.Close() }
		utils.InfoLogger.Printf("Using Redis slot lock at %s", opt.Addr)
	}
	return opts, cleanup, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
