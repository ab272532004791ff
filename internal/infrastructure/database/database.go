// Package database opens the MySQL and Redis connections and assembles the
// ledger store the binaries run against.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/repository/memory"
	sqlrepository "github.com/gigmile/receivables-service/internal/infrastructure/repository/mysql"
	redisrepository "github.com/gigmile/receivables-service/internal/infrastructure/repository/redis"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func OpenMySQL(ctx context.Context, cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("MySQL ping failed: %w", err)
	}

	return db, nil
}

func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Resources is everything a binary needs to run ledger operations.
// Redis is nil when the ledger runs in memory.
type Resources struct {
	Store domain.Store
	Redis *redis.Client

	closers []func() error
}

// Guard returns the payment reference guard, or nil without Redis.
func (r *Resources) Guard() domain.ReferenceGuard {
	if r.Redis == nil {
		return nil
	}
	return redisrepository.NewRedisReferenceGuard(r.Redis, redisrepository.DefaultReferenceTTL)
}

func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}

// Connect selects the store named by cfg.Ledger.Store. The MySQL store runs
// its migrations and is fronted by the Redis customer cache.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Resources, error) {
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory ledger store, data is lost on exit")
		return &Resources{Store: memory.NewStore()}, nil

	case config.StoreMySQL, "":
		res := &Resources{}

		db, err := OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			res.closers = append(res.closers, sqlDB.Close)
		}
		logger.Info("connected to MySQL successfully", zap.String("host", cfg.MySQL.Host))

		client, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			res.Close()
			return nil, err
		}
		res.Redis = client
		res.closers = append(res.closers, client.Close)
		logger.Info("connected to Redis successfully", zap.String("addr", cfg.Redis.Addr()))

		cache := redisrepository.NewRedisCustomerRepository(client, cfg.Ledger.CacheTTL)
		store := sqlrepository.NewStore(db, cache, logger)
		if err := store.AutoMigrate(); err != nil {
			res.Close()
			return nil, err
		}
		res.Store = store
		return res, nil

	default:
		return nil, fmt.Errorf("unknown ledger store %q", cfg.Ledger.Store)
	}
}
