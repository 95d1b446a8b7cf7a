// Package conflict joins the local collection with Discord's scheduled
// events and classifies every disagreement.
package conflict

import (
	"errors"
	"fmt"
	"log/slog"

	"eventsync/src-server/model"
	"eventsync/src-server/recurrence"
	"eventsync/src-server/transform"
)

type Detector struct {
	transformer *transform.Transformer
}

func NewDetector(transformer *transform.Transformer) *Detector {
	return &Detector{transformer: transformer}
}

// Detect returns all missing_local conflicts, then all missing_discord, then
// all mismatch, each in input order. Locals join externals on JoinKey.
func (d *Detector) Detect(locals []model.LocalEvent, externals []model.ExternalEvent) []model.Conflict {
	localByKey := make(map[string]*model.LocalEvent, len(locals))
	for i := range locals {
		localByKey[locals[i].JoinKey()] = &locals[i]
	}
	externalByID := make(map[string]*model.ExternalEvent, len(externals))
	for i := range externals {
		externalByID[externals[i].ID] = &externals[i]
	}

	conflicts := make([]model.Conflict, 0)
	for i := range externals {
		if _, ok := localByKey[externals[i].ID]; !ok {
			conflicts = append(conflicts, model.Conflict{
				Type:         model.ConflictMissingLocal,
				DiscordEvent: &externals[i],
			})
		}
	}
	for i := range locals {
		if _, ok := externalByID[locals[i].JoinKey()]; !ok {
			conflicts = append(conflicts, model.Conflict{
				Type:       model.ConflictMissingDiscord,
				LocalEvent: &locals[i],
			})
		}
	}
	for i := range locals {
		ext, ok := externalByID[locals[i].JoinKey()]
		if !ok {
			continue
		}
		if differences := d.Diff(&locals[i], ext); len(differences) > 0 {
			conflicts = append(conflicts, model.Conflict{
				Type:         model.ConflictMismatch,
				LocalEvent:   &locals[i],
				DiscordEvent: ext,
				Differences:  differences,
			})
		}
	}
	return conflicts
}

// Diff lists the differences between a stored local event and its Discord
// counterpart, in a fixed field order. Empty means in sync.
func (d *Detector) Diff(local *model.LocalEvent, ext *model.ExternalEvent) []string {
	differences := make([]string, 0)

	converted, err := d.transformer.DiscordToLocal(ext)
	var validationErr *model.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &validationErr):
		slog.Warn("conflict: external event only partially mapped", "event", ext.ID, "error", err)
	default:
		slog.Error("conflict: can't convert external event", "event", ext.ID, "error", err)
	}

	if local.Title != converted.Title {
		differences = append(differences, fmt.Sprintf("Title: %q vs %q", local.Title, converted.Title))
	}

	if local.Description != "" && converted.Description != "" && local.Description != converted.Description {
		differences = append(differences, "Description differs")
	}

	if diff := diffDateTime(local, ext); diff != "" {
		differences = append(differences, diff)
	}

	differences = append(differences, d.diffRecurring(local, ext, converted.Recurring)...)

	return differences
}

// diffDateTime compares start instants, so an event stored in another
// timezone than the display one is not reported. Both sides are rendered in
// the local event's timezone.
func diffDateTime(local *model.LocalEvent, ext *model.ExternalEvent) string {
	start, err := local.StartInstant()
	if err != nil {
		external := ext.ScheduledStart.UTC()
		return fmt.Sprintf("Date/Time: %s %s (%s) vs %s %s (UTC)",
			local.Date, local.Time, local.Timezone,
			external.Format(model.DateLayout), external.Format(model.TimeLayout))
	}
	if start.Equal(ext.ScheduledStart) {
		return ""
	}
	external := ext.ScheduledStart.In(start.Location())
	return fmt.Sprintf("Date/Time: %s %s vs %s %s",
		local.Date, local.Time,
		external.Format(model.DateLayout), external.Format(model.TimeLayout))
}

func (d *Detector) diffRecurring(local *model.LocalEvent, ext *model.ExternalEvent, converted *model.Recurring) []string {
	differences := make([]string, 0)
	localRec := local.Recurring

	if converted != nil && converted.RawFrequencyCode != nil {
		if localRec.IsActive() && localRec.RawFrequencyCode != nil && *localRec.RawFrequencyCode == *converted.RawFrequencyCode {
			return differences
		}
		differences = append(differences, fmt.Sprintf("Recurrence: unsupported frequency code %d (%s)",
			*converted.RawFrequencyCode, recurrence.Describe(ext.RecurrenceRule)))
	}

	if localRec.IsActive() != converted.IsActive() || (localRec.IsActive() && !sameFrequency(localRec, converted)) {
		differences = append(differences, fmt.Sprintf("Recurring: %s vs %s", localRec, converted))
		return differences
	}

	if localRec.IsActive() && localRec.Frequency == model.FrequencyWeekly {
		localDay := weekday(localRec, local)
		loc := d.transformer.Display()
		if eventLoc, err := local.Location(); err == nil {
			loc = eventLoc
		}
		externalDay := recurrence.EffectiveWeekday(converted, ext.ScheduledStart, loc)
		if localDay != externalDay {
			differences = append(differences, fmt.Sprintf("Day of week: %s vs %s",
				model.WeekdayName(localDay), model.WeekdayName(externalDay)))
		}
	}
	return differences
}

func sameFrequency(a, b *model.Recurring) bool {
	if a.Frequency != b.Frequency {
		return false
	}
	if (a.RawFrequencyCode == nil) != (b.RawFrequencyCode == nil) {
		return false
	}
	return a.RawFrequencyCode == nil || *a.RawFrequencyCode == *b.RawFrequencyCode
}

func weekday(r *model.Recurring, local *model.LocalEvent) int {
	if r.DayOfWeek != nil {
		return *r.DayOfWeek
	}
	start, err := local.StartInstant()
	if err != nil {
		return -1
	}
	return model.ServiceWeekday(start.Weekday())
}
