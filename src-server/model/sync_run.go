package model

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// SyncRun is the persisted summary of one reconciliation run.
type SyncRun struct {
	bun.BaseModel `bun:"table:sync_runs"`

	ID         string    `bun:"id,pk,notnull"`
	GuildID    string    `bun:"guild_id,notnull"`
	StartedAt  time.Time `bun:"started_at,notnull"`
	FinishedAt time.Time `bun:"finished_at,notnull"`
	DryRun     bool      `bun:"dry_run"`

	MissingLocal   int `bun:"missing_local"`
	MissingDiscord int `bun:"missing_discord"`
	Mismatch       int `bun:"mismatch"`

	Skipped        int `bun:"skipped"`
	AppliedLocal   int `bun:"applied_local"`
	AppliedDiscord int `bun:"applied_discord"`
	Failed         int `bun:"failed"`
}

func (r *SyncRun) Insert(ctx context.Context, db bun.IDB) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("(*SyncRun).Insert: id is blank")
	case r.GuildID == "":
		return fmt.Errorf("(*SyncRun).Insert: guild id is blank")
	case r.FinishedAt.Before(r.StartedAt):
		return fmt.Errorf("(*SyncRun).Insert: finished before started")
	}
	if _, err := db.NewInsert().Model(r).Exec(ctx); err != nil {
		return fmt.Errorf("(*SyncRun).Insert: %w", err)
	}
	return nil
}
