package config

import (
	"errors"
	"time"

	"github.com/branch-workshop/service-booking/internal/common/config"
)

// DirectoryConfig bounds and caches bay and advisor lookups.
type DirectoryConfig struct {
	LookupTimeout time.Duration
	CacheTTL      time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	MigrationsPath  string
	AllowedOrigins  []string
	DBConfig        config.DatabaseConfig
	JWTConfig       config.JWTConfig
	KafkaConfig     config.KafkaConfig
	RedisConfig     config.RedisConfig
	DirectoryConfig DirectoryConfig
	TracingConfig   config.TracingConfig
	LedgerPageSize  int
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DIRECTORY_LOOKUP_TIMEOUT", "2s")
	v.SetDefault("DIRECTORY_CACHE_TTL", "5m")
	v.SetDefault("LEDGER_PAGE_SIZE", 200)

	jwtConfig := config.LoadJWTConfig(v)
	if jwtConfig.Secret == "" {
		return nil, errors.New("BOOKING_JWT_SECRET must be set")
	}

	return &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		AllowedOrigins: config.SplitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:      jwtConfig,
		KafkaConfig:    config.LoadKafkaConfig(v),
		RedisConfig:    config.LoadRedisConfig(v),
		DirectoryConfig: DirectoryConfig{
			LookupTimeout: v.GetDuration("DIRECTORY_LOOKUP_TIMEOUT"),
			CacheTTL:      v.GetDuration("DIRECTORY_CACHE_TTL"),
		},
		TracingConfig:  config.LoadTracingConfig(v),
		LedgerPageSize: v.GetInt("LEDGER_PAGE_SIZE"),
	}, nil
}
