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
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs         int
	DialCode             string
	ResolverCacheTTLSecs int
	SweepLockTTLSecs     int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment, seeded from a .env file when one exists.
// Variables already set in the process win over the file.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "credit_ledger"),
		MySQLUser: getenv("MYSQL_USER", "credit"),
		MySQLPass: getenv("MYSQL_PASS", "credit"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs:         getint("IDEMPOTENCY_TTL_SECONDS", 300),
		DialCode:             getenv("DIAL_CODE", "+91"),
		ResolverCacheTTLSecs: getint("RESOLVER_CACHE_TTL_SECONDS", 600),
		SweepLockTTLSecs:     getint("SWEEP_LOCK_TTL_SECONDS", 900),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if !strings.HasPrefix(c.DialCode, "+") || len(c.DialCode) < 2 {
		return fmt.Errorf("invalid DIAL_CODE %q: want +<digits>", c.DialCode)
	}
	if c.IdempTTLSecs <= 0 || c.ResolverCacheTTLSecs <= 0 || c.SweepLockTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS, RESOLVER_CACHE_TTL_SECONDS and SWEEP_LOCK_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
func (c *Config) ResolverCacheTTL() time.Duration {
	return time.Duration(c.ResolverCacheTTLSecs) * time.Second
}
func (c *Config) SweepLockTTL() time.Duration { return time.Duration(c.SweepLockTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; loc=UTC keeps due-date arithmetic off the server zone
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
