package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Store                    string
	DatabaseURL              string
	Migrate                  bool
	NATSURL                  string
	NATSSubjectPrefix        string
	LogNATSSubjects          bool
	RecomputeInterval        time.Duration
	JunctionsRefreshInterval time.Duration
	Junction                 string
	ReportCacheSize          int
	MetricsAddr              string
	HTTPAddr                 string
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Store = strings.ToLower(getenvDefault("STORE", StorePostgres))
	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE: %q", cfg.Store)
	}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	if cfg.Store == StorePostgres {
		dsn := firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("PG_DSN"),
		)
		if dsn == "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			db := os.Getenv("PGDATABASE")
			if db == "" {
				return nil, errors.New("PGDATABASE or DATABASE_URL must be set (or STORE=memory)")
			}
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		} else {
			cfg.DatabaseURL = dsn
		}
	}
	cfg.Migrate = parseBool(os.Getenv("MIGRATE"))

	// Empty NATS_URL disables publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "crossings")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	var err error
	if cfg.RecomputeInterval, err = secondsEnv("RECOMPUTE_INTERVAL_SEC", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.JunctionsRefreshInterval, err = secondsEnv("JUNCTIONS_REFRESH_INTERVAL_SEC", 60*time.Second); err != nil {
		return nil, err
	}

	// Restrict the service to a single junction.
	cfg.Junction = strings.TrimSpace(os.Getenv("JUNCTION"))

	if v := os.Getenv("REPORT_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid REPORT_CACHE_SIZE: %q", v)
		}
		cfg.ReportCacheSize = n
	} else {
		cfg.ReportCacheSize = 256
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")

	return cfg, nil
}

func secondsEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(sec) * time.Second, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
