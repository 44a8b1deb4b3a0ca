package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Redis      RedisConfig
	Audit      AuditConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// AttendanceConfig holds the attendance policy defaults used when a shift
// does not override them.
type AttendanceConfig struct {
	DefaultBreakHours    decimal.Decimal
	DefaultStandardHours decimal.Decimal
	RequireCoordinates   bool
	EnforceGeofence      bool
	StaleAfter           time.Duration
	SweepInterval        time.Duration
}

// RedisConfig is optional. An empty Addr disables idempotency keys.
type RedisConfig struct {
	Addr           string
	DB             int
	IdempotencyTTL time.Duration
}

type AuditConfig struct {
	Sink       string // postgres | sqlite
	SQLitePath string
	BufferSize int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	requestTimeout, err := time.ParseDuration(getEnv("APP_REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_REQUEST_TIMEOUT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: requestTimeout,
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance configuration
	breakHours, err := decimal.NewFromString(getEnv("ATTENDANCE_DEFAULT_BREAK_HOURS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_DEFAULT_BREAK_HOURS: %w", err)
	}
	standardHours, err := decimal.NewFromString(getEnv("ATTENDANCE_DEFAULT_STANDARD_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_DEFAULT_STANDARD_HOURS: %w", err)
	}
	requireCoordinates, err := strconv.ParseBool(getEnv("ATTENDANCE_REQUIRE_COORDINATES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_REQUIRE_COORDINATES: %w", err)
	}
	enforceGeofence, err := strconv.ParseBool(getEnv("ATTENDANCE_ENFORCE_GEOFENCE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_ENFORCE_GEOFENCE: %w", err)
	}
	staleAfter, err := time.ParseDuration(getEnv("ATTENDANCE_STALE_AFTER", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_STALE_AFTER: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("ATTENDANCE_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_SWEEP_INTERVAL: %w", err)
	}

	config.Attendance = AttendanceConfig{
		DefaultBreakHours:    breakHours,
		DefaultStandardHours: standardHours,
		RequireCoordinates:   requireCoordinates,
		EnforceGeofence:      enforceGeofence,
		StaleAfter:           staleAfter,
		SweepInterval:        sweepInterval,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	idempotencyTTL, err := time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:           getEnv("REDIS_ADDR", ""),
		DB:             redisDB,
		IdempotencyTTL: idempotencyTTL,
	}

	// Audit configuration
	auditBuffer, err := strconv.Atoi(getEnv("AUDIT_BUFFER_SIZE", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_BUFFER_SIZE: %w", err)
	}

	config.Audit = AuditConfig{
		Sink:       getEnv("AUDIT_SINK", "postgres"),
		SQLitePath: getEnv("AUDIT_SQLITE_PATH", "./data/audit.db"),
		BufferSize: auditBuffer,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.DefaultBreakHours.IsNegative() {
		return fmt.Errorf("ATTENDANCE_DEFAULT_BREAK_HOURS must not be negative")
	}
	if !c.Attendance.DefaultStandardHours.IsPositive() {
		return fmt.Errorf("ATTENDANCE_DEFAULT_STANDARD_HOURS must be positive")
	}
	switch c.Audit.Sink {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("AUDIT_SINK must be one of postgres, sqlite")
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
