// Package resolve applies per-conflict decisions: local upserts are kept in
// memory for a single flush, Discord calls are made one at a time.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/transform"
)

var (
	ErrNoLocalSide     = errors.New("conflict has no local event to keep")
	ErrNoDiscordSide   = errors.New("conflict has no discord event to keep")
	ErrUnknownDecision = errors.New("unknown decision")
)

// External is the part of the Discord API the engine writes through.
type External interface {
	Create(ctx context.Context, guildID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error)
	Update(ctx context.Context, guildID, eventID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error)
}

type Outcome string

const (
	OutcomeSkipped        Outcome = "skipped"
	OutcomeAppliedLocal   Outcome = "applied_local"
	OutcomeAppliedDiscord Outcome = "applied_discord"
	OutcomeFailed         Outcome = "failed"
)

var Outcomes = []Outcome{OutcomeSkipped, OutcomeAppliedLocal, OutcomeAppliedDiscord, OutcomeFailed}

// Result is the terminal state of one conflict.
type Result struct {
	Key      string
	Title    string
	Type     model.ConflictType
	Decision model.Decision
	Outcome  Outcome
	Err      error
}

type Engine struct {
	external    External
	guildID     string
	transformer *transform.Transformer
	events      []model.LocalEvent
	now         func() time.Time
}

// New copies locals; Events returns the copy with all mutations applied.
func New(external External, guildID string, transformer *transform.Transformer, locals []model.LocalEvent) *Engine {
	events := make([]model.LocalEvent, len(locals))
	copy(events, locals)
	return &Engine{
		external:    external,
		guildID:     guildID,
		transformer: transformer,
		events:      events,
		now:         time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Events() []model.LocalEvent {
	return e.events
}

// Resolve applies one decision. A failed Discord call is logged and reported
// in the result; earlier mutations stay in place.
func (e *Engine) Resolve(ctx context.Context, c model.Conflict, decision model.Decision) Result {
	result := Result{
		Key:      c.Key(),
		Title:    c.Title(),
		Type:     c.Type,
		Decision: decision,
	}

	var err error
	switch decision {
	case model.DecisionSkip, "":
		result.Decision = model.DecisionSkip
		result.Outcome = OutcomeSkipped
		return result
	case model.DecisionKeepDiscord:
		err = e.keepDiscord(c)
		result.Outcome = OutcomeAppliedDiscord
	case model.DecisionKeepLocal:
		err = e.keepLocal(ctx, c)
		result.Outcome = OutcomeAppliedLocal
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDecision, decision)
	}

	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		slog.Error("resolve: can't apply decision", "conflict", result.Key, "type", c.Type, "decision", decision, "error", err)
		return result
	}
	slog.Info("resolve: applied", "conflict", result.Key, "type", c.Type, "decision", decision)
	return result
}

func (e *Engine) keepDiscord(c model.Conflict) error {
	if c.DiscordEvent == nil {
		return ErrNoDiscordSide
	}
	converted, err := e.transformer.DiscordToLocal(c.DiscordEvent)
	var validationErr *model.ValidationError
	if err != nil && !errors.As(err, &validationErr) {
		return err
	}
	if err != nil {
		slog.Warn("resolve: keeping partially mapped discord event", "conflict", c.Key(), "error", err)
	}

	idx := e.indexByJoinKey(c.DiscordEvent.ID)
	if idx < 0 {
		e.events = append(e.events, converted)
		return nil
	}

	existing := e.events[idx]
	converted.ID = existing.ID
	converted.CreatedAt = existing.CreatedAt
	converted.VideoIDs = existing.VideoIDs
	converted.IsFree = existing.IsFree
	converted.Categories = existing.Categories
	e.events[idx] = converted
	return nil
}

func (e *Engine) keepLocal(ctx context.Context, c model.Conflict) error {
	if c.LocalEvent == nil {
		return ErrNoLocalSide
	}

	switch c.Type {
	case model.ConflictMissingDiscord:
		payload, err := e.transformer.LocalToDiscord(c.LocalEvent)
		if err != nil {
			return err
		}
		created, err := e.external.Create(ctx, e.guildID, payload)
		if err != nil {
			return &model.ExternalServiceError{Op: "create", Err: err}
		}
		// the local id stays; the service id is recorded next to it
		if idx := e.indexByID(c.LocalEvent.ID); idx >= 0 && e.events[idx].ExternalID != created.ID {
			e.events[idx].ExternalID = created.ID
			e.events[idx].UpdatedAt = e.now().UTC()
		}
		slog.Debug("resolve: created discord event", "conflict", c.Key(), "external_id", created.ID)
		return nil

	case model.ConflictMismatch:
		if c.DiscordEvent == nil {
			return ErrNoDiscordSide
		}
		payload, err := e.transformer.LocalToDiscord(c.LocalEvent)
		if err != nil {
			return err
		}
		if _, err := e.external.Update(ctx, e.guildID, c.DiscordEvent.ID, payload); err != nil {
			return &model.ExternalServiceError{Op: "update", EventID: c.DiscordEvent.ID, Err: err}
		}
		return nil

	default:
		return ErrNoLocalSide
	}
}

func (e *Engine) indexByID(id string) int {
	for i := range e.events {
		if e.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) indexByJoinKey(key string) int {
	for i := range e.events {
		if e.events[i].JoinKey() == key {
			return i
		}
	}
	return -1
}
