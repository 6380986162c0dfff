package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"loan-escrow/internal/domain/loan"
	"loan-escrow/internal/infrastructure/db"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppEnv  string

	LogLevel string

	DBDriver string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	PostgresDSN string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs  int
	EventsChannel string

	MaxInterestRatePercent int64
	MaxDurationSecs        int64

	FaucetEnabled bool
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt64(k string, d int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

// Load reads the environment, after merging a .env file from the working directory when present.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:  getenv("DB_DRIVER", db.DriverMySQL),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "escrow"),
		MySQLUser: getenv("MYSQL_USER", "escrow"),
		MySQLPass: getenv("MYSQL_PASS", "escrow"),

		PostgresDSN: getenv("POSTGRES_DSN", ""),
		SQLitePath:  getenv("SQLITE_PATH", "escrow.db"),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),
		IdempTTLSecs:  int(getenvInt64("IDEMPOTENCY_TTL_SECONDS", 300)),
		EventsChannel: getenv("EVENTS_CHANNEL", "loan-events"),

		MaxInterestRatePercent: getenvInt64("MAX_INTEREST_RATE_PERCENT", loan.DefaultMaxInterestRatePercent),
		MaxDurationSecs:        getenvInt64("MAX_DURATION_SECONDS", int64(loan.DefaultMaxDuration/time.Second)),

		FaucetEnabled: getenvBool("FAUCET_ENABLED", false),
	}
	return c
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case db.DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case db.DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case db.DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.MaxInterestRatePercent < 0 {
		return errors.New("MAX_INTEREST_RATE_PERCENT must not be negative")
	}
	if c.MaxDurationSecs <= 0 {
		return errors.New("MAX_DURATION_SECONDS must be positive")
	}
	if c.MaxDurationSecs > loan.MaxDurationSeconds {
		return fmt.Errorf("MAX_DURATION_SECONDS must not exceed %d", loan.MaxDurationSeconds)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case db.DriverPostgres:
		return c.PostgresDSN
	case db.DriverSQLite:
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) Policy() loan.Policy {
	return loan.Policy{
		MaxInterestRatePercent: c.MaxInterestRatePercent,
		MaxDuration:            time.Duration(c.MaxDurationSecs) * time.Second,
	}
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
