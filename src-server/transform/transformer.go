// Package transform converts whole events between the local collection and
// Discord guild scheduled events.
package transform

import (
	"fmt"
	"math"
	"time"

	"eventsync/src-server/model"
	"eventsync/src-server/recurrence"

	"github.com/bwmarrin/discordgo"
)

const (
	DefaultDurationMinutes = 90
	// external events need a location; the academy runs everything online
	DefaultLocation = "Online"
)

type Transformer struct {
	display *time.Location
	now     func() time.Time
}

// New returns a transformer that expresses Discord start times in display,
// the process's timezone. nil and time.Local resolve to the host zone's name.
func New(display *time.Location) *Transformer {
	if display == nil || display.String() == "Local" {
		display = model.SystemLocation()
	}
	return &Transformer{
		display: display,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for CreatedAt/UpdatedAt.
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	t.now = now
	return t
}

func (t *Transformer) Display() *time.Location {
	return t.display
}

// DiscordToLocal converts a Discord event into the local model. Date and Time
// are expressed in the display timezone, or in UTC when the start falls in a
// repeated hour of the display timezone. An unsupported recurrence rule still
// produces an event; the *model.ValidationError is returned alongside it.
func (t *Transformer) DiscordToLocal(ext *model.ExternalEvent) (model.LocalEvent, error) {
	now := t.now().UTC()
	zone := t.display
	start := ext.ScheduledStart.In(zone)
	if !unambiguous(start) {
		zone = time.UTC
		start = ext.ScheduledStart.In(zone)
	}

	local := model.LocalEvent{
		ID:              ext.ID,
		ExternalID:      ext.ID,
		Title:           ext.Name,
		Description:     ext.Description,
		Date:            start.Format(model.DateLayout),
		Time:            start.Format(model.TimeLayout),
		Timezone:        zone.String(),
		DurationMinutes: DefaultDurationMinutes,
		VideoIDs:        []string{},
		IsFree:          false,
		Categories:      []string{},
		CreatedAt:       ext.CreatedAt(),
		UpdatedAt:       now,
	}
	if local.CreatedAt.IsZero() {
		local.CreatedAt = now
	}
	if ext.ScheduledEnd != nil {
		if minutes := int(math.Round(ext.ScheduledEnd.Sub(ext.ScheduledStart).Minutes())); minutes > 0 {
			local.DurationMinutes = minutes
		}
	}
	Classify(&local)

	recurring, err := recurrence.ToLocal(ext.RecurrenceRule, zone)
	local.Recurring = recurring
	if err != nil {
		return local, fmt.Errorf("(*Transformer).DiscordToLocal: event %s: %w", ext.ID, err)
	}
	return local, nil
}

// unambiguous reports whether the wall clock reading of start names only
// start. Inside the hour repeated when clocks fall back it names two instants.
func unambiguous(start time.Time) bool {
	layout := model.DateLayout + " " + model.TimeLayout
	parsed, err := time.ParseInLocation(layout, start.Format(layout), start.Location())
	return err == nil && parsed.Equal(start.Truncate(time.Minute))
}

// LocalToDiscord builds the create/update payload for a local event.
func (t *Transformer) LocalToDiscord(local *model.LocalEvent) (model.ExternalEventPayload, error) {
	loc, err := local.Location()
	if err != nil {
		return model.ExternalEventPayload{}, fmt.Errorf("(*Transformer).LocalToDiscord: %w", err)
	}
	start, err := local.StartInstant()
	if err != nil {
		return model.ExternalEventPayload{}, fmt.Errorf("(*Transformer).LocalToDiscord: %w", err)
	}
	duration := local.DurationMinutes
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	return model.ExternalEventPayload{
		Name:           local.Title,
		Description:    local.Description,
		EntityType:     discordgo.GuildScheduledEventEntityTypeExternal,
		PrivacyLevel:   discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
		ScheduledStart: start.UTC(),
		ScheduledEnd:   start.Add(time.Duration(duration) * time.Minute).UTC(),
		EntityMetadata: &discordgo.GuildScheduledEventEntityMetadata{Location: DefaultLocation},
		RecurrenceRule: recurrence.ToExternal(local.Recurring, start, loc),
	}, nil
}
