package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is used when JWT_SECRET is not set outside production. Tokens signed
// with it must never be trusted by a real deployment.
const DevJWTSecret = "easywedding-dev-secret-change-me"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App        AppConfig
	Auth       AuthConfig
	Database   DatabaseConfig
	Store      StoreConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Services   ServicesConfig
	Invitation InvitationConfig
	Analytics  AnalyticsConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Cleanup    CleanupConfig
}

type AppConfig struct {
	Env string
}

type AuthConfig struct {
	JWTSecret         string
	SecretFromDefault bool
	TokenTTL          time.Duration
	BcryptCost        int
	HashConcurrency   int
}

type DatabaseConfig struct {
	PrimaryDSN      string
	ReplicaDSNs     []string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	StreamName string
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	MaxConns int
}

type ServicesConfig struct {
	UserServiceAddr string
	UserServicePort string
	APIGatewayPort  string
	BaseURL         string
	RequestTimeout  time.Duration
	// TrustedProxies lists the IPs or CIDRs whose forwarding headers are honoured.
	TrustedProxies  []string
}

type InvitationConfig struct {
	TTL time.Duration
}

type AnalyticsConfig struct {
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int
	PollInterval  time.Duration
	BlockTime     time.Duration
}

type CacheConfig struct {
	L1Capacity int
	L1TTL      time.Duration
	L2TTL      time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CleanupConfig struct {
	Interval time.Duration
	LockTTL  time.Duration
}

func Load() (*Config, error) {
	// Load .env if it exists (local dev), ignore if not (K8s uses ConfigMaps/Secrets)
	_ = godotenv.Load()

	secret := getEnv("JWT_SECRET", "")
	secretFromDefault := secret == ""
	if secretFromDefault {
		secret = DevJWTSecret
	}

	cfg := &Config{
		App: AppConfig{
			Env: strings.ToLower(getEnv("APP_ENV", "development")),
		},
		Auth: AuthConfig{
			JWTSecret:         secret,
			SecretFromDefault: secretFromDefault,
			TokenTTL:          getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
			BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
			HashConcurrency:   getEnvAsInt("HASH_CONCURRENCY", 0),
		},
		Database: DatabaseConfig{
			PrimaryDSN:      getEnv("DB_PRIMARY_DSN", ""),
			ReplicaDSNs:     getEnvAsList("DB_REPLICA_DSNS"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			SQLitePath: getEnv("SQLITE_PATH", "easywedding.db"),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			StreamName: getEnv("REDIS_STREAM_NAME", "invitation-views:stream"),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     getEnv("CLICKHOUSE_ADDR", ""),
			Database: getEnv("CLICKHOUSE_DATABASE", "analytics"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			MaxConns: getEnvAsInt("CLICKHOUSE_MAX_CONNS", 10),
		},
		Services: ServicesConfig{
			UserServiceAddr: getEnv("USER_SERVICE_ADDR", ""),
			UserServicePort: getEnv("USER_SERVICE_PORT", "50052"),
			APIGatewayPort:  getEnv("API_GATEWAY_PORT", "8080"),
			BaseURL:         strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
			TrustedProxies:  getEnvAsList("TRUSTED_PROXIES"),
		},
		Invitation: InvitationConfig{
			TTL: getEnvAsDuration("INVITATION_TTL", 30*24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			ConsumerGroup: getEnv("ANALYTICS_CONSUMER_GROUP", "analytics-group"),
			ConsumerName:  getEnv("ANALYTICS_CONSUMER_NAME", "worker-1"),
			BatchSize:     getEnvAsInt("ANALYTICS_BATCH_SIZE", 100),
			PollInterval:  getEnvAsDuration("ANALYTICS_POLL_INTERVAL", time.Second),
			BlockTime:     getEnvAsDuration("ANALYTICS_BLOCK_TIME", 5*time.Second),
		},
		Cache: CacheConfig{
			L1Capacity: getEnvAsInt("CACHE_L1_CAPACITY", 10000),
			L1TTL:      getEnvAsDuration("CACHE_L1_TTL", 5*time.Minute),
			L2TTL:      getEnvAsDuration("CACHE_L2_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
			LockTTL:  getEnvAsDuration("CLEANUP_LOCK_TTL", 10*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() && c.Auth.SecretFromDefault {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret is empty"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"TOKEN_TTL", c.Auth.TokenTTL},
		{"CLEANUP_INTERVAL", c.Cleanup.Interval},
		{"CLEANUP_LOCK_TTL", c.Cleanup.LockTTL},
		{"RATE_LIMIT_WINDOW", c.RateLimit.Window},
		{"ANALYTICS_POLL_INTERVAL", c.Analytics.PollInterval},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}
	for _, proxy := range c.Services.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
		}
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.PrimaryDSN == "" {
			errs = append(errs, errors.New("DB_PRIMARY_DSN is required for the postgres store"))
		}
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StoreDriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("the memory store is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}

// Diagnostics lists conditions that are allowed but should be visible at startup.
func (c *Config) Diagnostics() []string {
	var warnings []string

	if c.Auth.SecretFromDefault {
		warnings = append(warnings, "JWT_SECRET not set, using the built-in development secret (insecure for production)")
	}
	if c.Auth.BcryptCost < 12 {
		warnings = append(warnings, fmt.Sprintf("BCRYPT_COST=%d is below the recommended 12", c.Auth.BcryptCost))
	}
	if c.Store.Driver == StoreDriverMemory {
		warnings = append(warnings, "memory store in use, registered users are lost on restart")
	}
	if c.Redis.Addr == "" {
		warnings = append(warnings, "REDIS_ADDR not set, rate limiting, L2 cache and view events are disabled")
	}
	if c.ClickHouse.Addr == "" {
		warnings = append(warnings, "CLICKHOUSE_ADDR not set, device analytics are disabled")
	}

	return warnings
}

func validProxy(entry string) bool {
	if _, _, err := net.ParseCIDR(entry); err == nil {
		return true
	}
	return net.ParseIP(entry) != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
