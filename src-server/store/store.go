// Package store holds the local event collection.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"eventsync/src-server/model"

	"github.com/uptrace/bun"
)

// rows per INSERT, keeps the statement under sqlite's variable limit
const insertBatchSize = 50

// Store loads the whole collection and writes it back in one go.
type Store interface {
	Load(ctx context.Context) ([]model.LocalEvent, error)
	Flush(ctx context.Context, events []model.LocalEvent) error
}

// Bun keeps the collection in the local_events table. Load returns rows in
// the order of the last flush.
type Bun struct {
	db *bun.DB
}

func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db}
}

func (s *Bun) Load(ctx context.Context) ([]model.LocalEvent, error) {
	events := make([]model.LocalEvent, 0)
	if err := s.db.NewSelect().
		Model(&events).
		OrderExpr("rowid ASC").
		Scan(ctx); err != nil {
		return nil, &model.LocalStoreError{Op: "load", Err: fmt.Errorf("(*Bun).Load: %w", err)}
	}
	model.NormalizeAll(events)
	return events, nil
}

// Flush replaces the stored collection. Nothing is written if any event is
// invalid.
func (s *Bun) Flush(ctx context.Context, events []model.LocalEvent) error {
	rows := make([]model.LocalEvent, len(events))
	copy(rows, events)
	model.NormalizeAll(rows)
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return &model.LocalStoreError{Op: "flush", Err: fmt.Errorf("(*Bun).Flush: event %q: %w", rows[i].ID, err)}
		}
	}

	if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*model.LocalEvent)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}
		for start := 0; start < len(rows); start += insertBatchSize {
			batch := rows[start:min(start+insertBatchSize, len(rows))]
			if _, err := tx.NewInsert().
				Model(&batch).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return &model.LocalStoreError{Op: "flush", Err: fmt.Errorf("(*Bun).Flush: %w", err)}
	}
	return nil
}

func (s *Bun) RecordRun(ctx context.Context, run *model.SyncRun) error {
	return run.Insert(ctx, s.db)
}

// Runs returns the most recent sync runs, newest first.
func (s *Bun) Runs(ctx context.Context, limit int) ([]model.SyncRun, error) {
	runs := make([]model.SyncRun, 0, limit)
	if err := s.db.NewSelect().
		Model(&runs).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Bun).Runs: %w", err)
	}
	return runs, nil
}
