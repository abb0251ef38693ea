package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the smartroom service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	JWTSecret        string
	JWTTTL           time.Duration
	RedisURL         string
	NotifyChannel    string
	PointsPerBooking int
	Retention        time.Duration
	PurgeInterval    time.Duration
	OccupancyTick    time.Duration
	CompleteTick     time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values and malformed
// entries are reported together so operators fix everything in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:smartroom.db?_foreign_keys=on",
		JWTTTL:           24 * time.Hour,
		NotifyChannel:    "smartroom.bookings",
		PointsPerBooking: 5,
		Retention:        30 * 24 * time.Hour,
		PurgeInterval:    24 * time.Hour,
		OccupancyTick:    time.Minute,
		CompleteTick:     5 * time.Minute,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SMARTROOM_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SMARTROOM_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SMARTROOM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SMARTROOM_JWT_SECRET")); secret == "" {
		missing = append(missing, "SMARTROOM_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SMARTROOM_JWT_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SMARTROOM_JWT_TTL")
		} else {
			cfg.JWTTTL = ttl
		}
	}

	// Redis is optional. When unset the service logs notifications instead of
	// publishing them.
	cfg.RedisURL = strings.TrimSpace(os.Getenv("SMARTROOM_REDIS_URL"))
	if channel := strings.TrimSpace(os.Getenv("SMARTROOM_NOTIFY_CHANNEL")); channel != "" {
		cfg.NotifyChannel = channel
	}

	if pointsValue := strings.TrimSpace(os.Getenv("SMARTROOM_POINTS_PER_BOOKING")); pointsValue != "" {
		points, err := strconv.Atoi(pointsValue)
		if err != nil || points < 0 {
			invalid = append(invalid, "SMARTROOM_POINTS_PER_BOOKING")
		} else {
			cfg.PointsPerBooking = points
		}
	}

	if daysValue := strings.TrimSpace(os.Getenv("SMARTROOM_RETENTION_DAYS")); daysValue != "" {
		days, err := strconv.Atoi(daysValue)
		if err != nil || days <= 0 {
			invalid = append(invalid, "SMARTROOM_RETENTION_DAYS")
		} else {
			cfg.Retention = time.Duration(days) * 24 * time.Hour
		}
	}

	for _, entry := range []struct {
		name   string
		target *time.Duration
	}{
		{"SMARTROOM_PURGE_INTERVAL", &cfg.PurgeInterval},
		{"SMARTROOM_OCCUPANCY_TICK", &cfg.OccupancyTick},
		{"SMARTROOM_COMPLETE_TICK", &cfg.CompleteTick},
	} {
		value := strings.TrimSpace(os.Getenv(entry.name))
		if value == "" {
			continue
		}
		interval, err := time.ParseDuration(value)
		if err != nil || interval <= 0 {
			invalid = append(invalid, entry.name)
		} else {
			*entry.target = interval
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
