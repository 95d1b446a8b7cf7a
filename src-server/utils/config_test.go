package utils_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"eventsync/src-server/utils"
)

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"DISCORD_GUILD_ID", "DISCORD_APP_TOKEN", "DISCORD_TIMEOUT", "TIMEZONE", "DATABASE_PATH", "METRICS_TEXTFILE", "DEFAULT_DECISION"} {
		t.Setenv(key, "")
	}
	cfg, err := utils.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetDiscordTimeout() != 30*time.Second || cfg.GetDatabasePath() != "sqlite.db" || cfg.GetLocation().String() == "Local" {
		t.Errorf("defaults: %v %q %v", cfg.GetDiscordTimeout(), cfg.GetDatabasePath(), cfg.GetLocation())
	}
	if err := cfg.RequireDiscord(); err == nil {
		t.Error("expected missing credentials to be reported")
	}
}

func TestNewConfigValues(t *testing.T) {
	t.Setenv("DISCORD_GUILD_ID", "123")
	t.Setenv("DISCORD_APP_TOKEN", "secret-token")
	t.Setenv("DISCORD_TIMEOUT", "5s")
	t.Setenv("TIMEZONE", "Europe/Paris")
	t.Setenv("DEFAULT_DECISION", "skip")

	cfg, err := utils.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.RequireDiscord(); err != nil {
		t.Error(err)
	}
	if cfg.GetDiscordTimeout() != 5*time.Second || cfg.GetLocation().String() != "Europe/Paris" || cfg.GetDefaultDecision() != "skip" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestNewConfigInvalid(t *testing.T) {
	t.Setenv("DISCORD_TIMEOUT", "soon")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := utils.NewConfig(); err == nil {
		t.Error("expected an error")
	}
}

func TestNewConfigTimezoneName(t *testing.T) {
	t.Setenv("DISCORD_TIMEOUT", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("TZ", "Asia/Tokyo")
	cfg, err := utils.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.GetLocation().String(); got != "Asia/Tokyo" {
		t.Errorf("location = %q, want the zone named by TZ", got)
	}

	t.Setenv("TIMEZONE", "Local")
	if _, err := utils.NewConfig(); err == nil {
		t.Error("expected TIMEZONE=Local to be rejected")
	}
}

func TestNewAppState(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "events.db"))
	t.Setenv("DISCORD_TIMEOUT", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("DISCORD_APP_TOKEN", "")
	cfg, err := utils.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	as, err := utils.NewAppState(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer as.Close()

	events, err := as.Store.Load(context.Background())
	if err != nil || len(events) != 0 {
		t.Errorf("fresh store: %v %v", events, err)
	}
	if _, err := as.Discord(); err == nil {
		t.Error("expected an error without a token")
	}
}

func TestCleanupString(t *testing.T) {
	tests := map[string]string{
		"  weekly   zerg coaching. ": "Weekly Zerg Coaching",
		"PvZ clinic":                "PvZ Clinic",
		"":                          "",
	}
	for in, want := range tests {
		if got := utils.CleanupString(in); got != want {
			t.Errorf("CleanupString(%q) = %q, want %q", in, got, want)
		}
	}
}
