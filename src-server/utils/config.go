package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"eventsync/src-server/model"
)

type Config struct {
	discordGuildID  string
	discordAppToken string
	discordTimeout  time.Duration

	location        *time.Location
	databasePath    string
	metricsTextfile string
	defaultDecision string
}

// NewConfig reads the environment once. Every bad value is reported in the
// returned error; missing Discord credentials are only checked by
// RequireDiscord since not every command talks to Discord.
func NewConfig() (*Config, error) {
	var errs []error
	cfg := &Config{
		discordGuildID: func() string {
			discordGuildID := os.Getenv("DISCORD_GUILD_ID")
			slog.Debug("env", "DISCORD_GUILD_ID", discordGuildID)
			return discordGuildID
		}(),
		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if len(discordAppToken) > 3 {
				slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:3]+"...")
			}
			return discordAppToken
		}(),
		discordTimeout: func() time.Duration {
			discordTimeout := os.Getenv("DISCORD_TIMEOUT")
			if discordTimeout == "" {
				discordTimeout = "30s"
			}
			duration, err := time.ParseDuration(discordTimeout)
			if err != nil || duration <= 0 {
				errs = append(errs, fmt.Errorf("invalid DISCORD_TIMEOUT %q", discordTimeout))
				return 0
			}
			slog.Debug("env", "DISCORD_TIMEOUT", duration)
			return duration
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			switch timezoneStr {
			case "":
				loc := model.SystemLocation()
				slog.Debug("TIMEZONE is not set, using the host timezone", "timezone", loc)
				return loc
			case "UTC":
				return time.UTC
			}
			loc, err := model.LoadZone(timezoneStr)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
				return time.UTC
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),
		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return filepath.Clean(databasePath)
		}(),
		metricsTextfile: func() string {
			metricsTextfile := os.Getenv("METRICS_TEXTFILE")
			slog.Debug("env", "METRICS_TEXTFILE", metricsTextfile)
			return metricsTextfile
		}(),
		defaultDecision: func() string {
			defaultDecision := os.Getenv("DEFAULT_DECISION")
			slog.Debug("env", "DEFAULT_DECISION", defaultDecision)
			return defaultDecision
		}(),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("NewConfig: %w", err)
	}
	return cfg, nil
}

func (c *Config) RequireDiscord() error {
	switch {
	case c.discordGuildID == "":
		return fmt.Errorf("DISCORD_GUILD_ID is not set")
	case c.discordAppToken == "":
		return fmt.Errorf("DISCORD_APP_TOKEN is not set")
	}
	return nil
}

// Get DISCORD_GUILD_ID env
func (c *Config) GetDiscordGuildID() string {
	return c.discordGuildID
}

// Get DISCORD_APP_TOKEN env
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_TIMEOUT env, default to 30s
func (c *Config) GetDiscordTimeout() time.Duration {
	return c.discordTimeout
}

// Get TIMEZONE env, the zone Discord times are shown and stored in
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get DATABASE_PATH env, default to ./sqlite.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get METRICS_TEXTFILE env, empty disables metrics output
func (c *Config) GetMetricsTextfile() string {
	return c.metricsTextfile
}

// Get DEFAULT_DECISION env
func (c *Config) GetDefaultDecision() string {
	return c.defaultDecision
}
