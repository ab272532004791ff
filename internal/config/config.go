package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	MySQL  MySQLConfig
	Ledger LedgerConfig
	Worker WorkerConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string
}

// DSN is the gorm/go-sql-driver connection string.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Database)
}

type LedgerConfig struct {
	Store             string
	TaxRate           decimal.Decimal
	DefaultDueDays    int
	DueSoonDays       int
	StatementPayments int
	CacheTTL          time.Duration
	ReconcileInterval time.Duration // zero disables the scheduled sweep
	ReconcileBatch    int
	StreamMaxLen      int64
}

type WorkerConfig struct {
	Group         string
	ReclaimIdle   time.Duration // unacked messages idle this long are retried
	MaxDeliveries int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8072"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		MySQL: MySQLConfig{
			Host:     getEnv("MYSQL_HOST", "localhost:3306"),
			User:     getEnv("MYSQL_USER", "ledger"),
			Password: getEnv("MYSQL_PASSWORD", "ledger123"),
			Database: getEnv("MYSQL_DATABASE", "receivables"),
		},
		Ledger: LedgerConfig{
			Store:             getEnv("LEDGER_STORE", StoreMySQL),
			TaxRate:           getEnvAsDecimal("LEDGER_TAX_RATE", decimal.RequireFromString("0.16")),
			DefaultDueDays:    getEnvAsInt("LEDGER_DEFAULT_DUE_DAYS", 30),
			DueSoonDays:       getEnvAsInt("LEDGER_DUE_SOON_DAYS", 7),
			StatementPayments: getEnvAsInt("LEDGER_STATEMENT_PAYMENTS", 50),
			CacheTTL:          getEnvAsDuration("LEDGER_CACHE_TTL", 5*time.Minute),
			ReconcileInterval: getEnvAsDuration("LEDGER_RECONCILE_INTERVAL", 0),
			ReconcileBatch:    getEnvAsInt("LEDGER_RECONCILE_BATCH", 100),
			StreamMaxLen:      int64(getEnvAsInt("LEDGER_STREAM_MAXLEN", 100000)),
		},
		Worker: WorkerConfig{
			Group:         getEnv("WORKER_GROUP", "ledger-reconcilers"),
			ReclaimIdle:   getEnvAsDuration("WORKER_RECLAIM_IDLE", time.Minute),
			MaxDeliveries: getEnvAsInt("WORKER_MAX_DELIVERIES", 5),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil || value.IsNegative() {
		return defaultValue
	}
	return value
}
