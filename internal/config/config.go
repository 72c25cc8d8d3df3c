package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/rl1809/bookshop/internal/core/domain"
)

const (
	StoreMemory   = "memory"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	StoreDriver string
	MySQLDSN    string
	PostgresDSN string
	AutoMigrate bool

	// empty RedisAddr keeps idempotency keys in process
	RedisAddr string

	// empty KafkaBrokers disables event publishing
	KafkaBrokers     []string
	OrderEventsTopic string

	ServiceName  string
	AppEnv       string
	LogLevel     zapcore.Level
	OtelEndpoint string

	CancelPolicy domain.CancelPolicy
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:         getenv("GRPC_ADDR", ":50051"),
		StoreDriver:      strings.ToLower(getenv("STORE_DRIVER", StoreMemory)),
		MySQLDSN:         getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/bookshop?parseTime=true"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "order.events"),
		ServiceName:      getenv("SERVICE_NAME", "bookshop"),
		AppEnv:           getenv("APP_ENV", "production"),
		OtelEndpoint:     os.Getenv("OTEL_ENDPOINT"),
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreMySQL:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN must be set when STORE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	autoMigrate, err := strconv.ParseBool(getenv("AUTO_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
	}
	cfg.AutoMigrate = autoMigrate

	level, err := zapcore.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	policy, err := domain.ParseCancelPolicy(os.Getenv("ORDER_RECANCEL_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_RECANCEL_POLICY: %w", err)
	}
	cfg.CancelPolicy = policy

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
