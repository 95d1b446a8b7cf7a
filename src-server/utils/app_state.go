package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"eventsync/src-server/discord"
	"eventsync/src-server/metric"
	"eventsync/src-server/model"
	"eventsync/src-server/store"
	"eventsync/src-server/transform"

	"github.com/bwmarrin/discordgo"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config      *Config
	RawDB       *sql.DB
	BunDB       *bun.DB
	DgSession   *discordgo.Session // nil until Discord is called
	When        *when.Parser
	Transformer *transform.Transformer
	Store       *store.Bun
	Metrics     *metric.Metrics
}

// NewAppState opens the database and creates the schema if needed.
func NewAppState(ctx context.Context, cfg *Config) (*AppState, error) {
	as := &AppState{Config: cfg}

	// date parser
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	as.Transformer = transform.New(cfg.GetLocation())
	as.Metrics = metric.New()

	// database
	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, "file:"+cfg.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("NewAppState: can't open sqlite database: %w", err)
	}
	as.RawDB.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))

	if err := model.CreateSchema(ctx, as.BunDB); err != nil {
		as.BunDB.Close()
		return nil, fmt.Errorf("NewAppState: %w", err)
	}
	as.Store = store.NewBun(as.BunDB)
	return as, nil
}

// Discord returns a client for the configured guild, creating the session
// on first use.
func (as *AppState) Discord() (*discord.Client, error) {
	if err := as.Config.RequireDiscord(); err != nil {
		return nil, fmt.Errorf("(*AppState).Discord: %w", err)
	}
	if as.DgSession == nil {
		session, err := discordgo.New("Bot " + as.Config.GetDiscordAppToken())
		if err != nil {
			return nil, fmt.Errorf("(*AppState).Discord: can't create session: %w", err)
		}
		session.Client.Timeout = as.Config.GetDiscordTimeout()
		as.DgSession = session
	}
	return discord.NewClient(as.DgSession, as.Config.GetDiscordTimeout(), as.Metrics), nil
}

// Close writes the metrics textfile when configured and closes the
// database.
func (as *AppState) Close() error {
	var errs []error
	if path := as.Config.GetMetricsTextfile(); path != "" {
		if err := as.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := as.BunDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("(*AppState).Close: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Debug("app state closed")
	return nil
}
