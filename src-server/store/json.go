package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"eventsync/src-server/model"

	"github.com/google/uuid"
)

// ImportJSON merges the events in a JSON array file into the store. Events
// are matched by id; an event without one gets a fresh uuid. Returns the
// number of events read from the file.
func ImportJSON(ctx context.Context, s Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ImportJSON: %w", err)
	}
	var incoming []model.LocalEvent
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return 0, fmt.Errorf("ImportJSON: %s: %w", path, err)
	}

	events, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]int, len(events))
	for i := range events {
		byID[events[i].ID] = i
	}

	now := time.Now().UTC()
	for _, e := range incoming {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
		e.Normalize()
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("ImportJSON: event %q: %w", e.ID, err)
		}
		if i, ok := byID[e.ID]; ok {
			events[i] = e
			continue
		}
		byID[e.ID] = len(events)
		events = append(events, e)
	}

	if err := s.Flush(ctx, events); err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// ExportJSON writes the whole collection as an indented JSON array.
func ExportJSON(ctx context.Context, s Store, path string) (int, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("ExportJSON: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return 0, fmt.Errorf("ExportJSON: %w", err)
	}
	return len(events), nil
}
