package model

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type EventType string

const (
	EventTypeTournament EventType = "tournament"
	EventTypeCoaching   EventType = "coaching"
	EventTypeArcade     EventType = "arcade"
	EventTypeOther      EventType = "other"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Recurring is the local recurrence model: a single weekly day or a monthly
// repeat, optionally bounded by an end date.
//
// DayOfWeek uses the service's numbering, 0 = Monday ... 6 = Sunday, and is
// only set for weekly recurrence. RawFrequencyCode holds an external
// frequency code this model can't express; Frequency is empty in that case.
type Recurring struct {
	Enabled          bool      `json:"enabled"`
	Frequency        Frequency `json:"frequency,omitempty"`
	DayOfWeek        *int      `json:"dayOfWeek,omitempty"`
	EndDate          string    `json:"endDate,omitempty"`
	RawFrequencyCode *int      `json:"rawFrequencyCode,omitempty"`
}

func (r *Recurring) IsActive() bool {
	return r != nil && r.Enabled
}

func (r *Recurring) String() string {
	switch {
	case !r.IsActive():
		return "none"
	case r.RawFrequencyCode != nil:
		return fmt.Sprintf("frequency code %d", *r.RawFrequencyCode)
	case r.Frequency == FrequencyWeekly && r.DayOfWeek != nil:
		return fmt.Sprintf("weekly on %s", WeekdayName(*r.DayOfWeek))
	default:
		return string(r.Frequency)
	}
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName renders a service weekday number (0 = Monday).
func WeekdayName(day int) string {
	if day < 0 || day > 6 {
		return strconv.Itoa(day)
	}
	return weekdayNames[day]
}

// ServiceWeekday converts a Go weekday to the service's numbering.
func ServiceWeekday(day time.Weekday) int {
	return (int(day) + 6) % 7
}

type LocalEvent struct {
	bun.BaseModel `bun:"table:local_events"`

	ID         string `bun:"id,pk,notnull" json:"id"`                 // required
	ExternalID string `bun:"external_id" json:"externalId,omitempty"` // set once the event exists on Discord

	Title       string    `bun:"title,notnull" json:"title"` // required
	Description string    `bun:"description" json:"description,omitempty"`
	Type        EventType `bun:"type,notnull" json:"type"`

	Date            string `bun:"date,notnull" json:"date"`         // YYYY-MM-DD
	Time            string `bun:"time,notnull" json:"time"`         // HH:MM in Timezone
	Timezone        string `bun:"timezone,notnull" json:"timezone"` // IANA name
	DurationMinutes int    `bun:"duration_minutes,notnull" json:"durationMinutes"`

	Coach      string     `bun:"coach" json:"coach,omitempty"`
	VideoIDs   []string   `bun:"video_ids,type:json" json:"videoIds"`
	IsFree     bool       `bun:"is_free" json:"isFree"`
	Tags       []string   `bun:"tags,type:json" json:"tags"`
	Recurring  *Recurring `bun:"recurring,type:json" json:"recurring,omitempty"`
	Categories []string   `bun:"categories,type:json" json:"categories"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// JoinKey is the id used to match this event with its Discord counterpart.
// Rows synced before ExternalID existed mirror the Discord id in ID.
func (e *LocalEvent) JoinKey() string {
	if e.ExternalID != "" {
		return e.ExternalID
	}
	return e.ID
}

func (e *LocalEvent) Location() (*time.Location, error) {
	loc, err := LoadZone(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("(*LocalEvent).Location: invalid timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// StartInstant combines Date and Time in Timezone.
func (e *LocalEvent) StartInstant() (time.Time, error) {
	loc, err := e.Location()
	if err != nil {
		return time.Time{}, err
	}
	start, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("(*LocalEvent).StartInstant: %w", err)
	}
	return start, nil
}

// SetTags stores tags as a sorted set.
func (e *LocalEvent) SetTags(tags ...string) {
	set := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(set, tag) {
			set = append(set, tag)
		}
	}
	slices.Sort(set)
	e.Tags = set
}

func (e *LocalEvent) Validate() error {
	switch {
	case e.ID == "":
		return &ValidationError{Field: "id", Reason: "is blank"}
	case strings.TrimSpace(e.Title) == "":
		return &ValidationError{Field: "title", Reason: "is blank"}
	case e.DurationMinutes <= 0:
		return &ValidationError{Field: "durationMinutes", Reason: "must be positive"}
	case e.Recurring != nil && e.Recurring.DayOfWeek != nil && e.Recurring.Frequency != FrequencyWeekly:
		return &ValidationError{Field: "recurring.dayOfWeek", Reason: "only allowed for weekly recurrence"}
	case e.Recurring != nil && e.Recurring.DayOfWeek != nil && (*e.Recurring.DayOfWeek < 0 || *e.Recurring.DayOfWeek > 6):
		return &ValidationError{Field: "recurring.dayOfWeek", Reason: "must be between 0 and 6"}
	}
	if _, err := e.StartInstant(); err != nil {
		return &ValidationError{Field: "date/time", Reason: err.Error()}
	}
	if e.Recurring != nil && e.Recurring.EndDate != "" {
		if _, err := time.Parse(DateLayout, e.Recurring.EndDate); err != nil {
			return &ValidationError{Field: "recurring.endDate", Reason: err.Error()}
		}
	}
	return nil
}

// Upsert validates the event and writes it to the database.
func (e *LocalEvent) Upsert(ctx context.Context, db bun.IDB) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("(*LocalEvent).Upsert: %w", err)
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Normalize()

	if _, err := db.NewInsert().
		Model(e).
		On("CONFLICT (id) DO UPDATE").
		Set("external_id = EXCLUDED.external_id").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("type = EXCLUDED.type").
		Set("date = EXCLUDED.date").
		Set("time = EXCLUDED.time").
		Set("timezone = EXCLUDED.timezone").
		Set("duration_minutes = EXCLUDED.duration_minutes").
		Set("coach = EXCLUDED.coach").
		Set("video_ids = EXCLUDED.video_ids").
		Set("is_free = EXCLUDED.is_free").
		Set("tags = EXCLUDED.tags").
		Set("recurring = EXCLUDED.recurring").
		Set("categories = EXCLUDED.categories").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*LocalEvent).Upsert: %w", err)
	}
	return nil
}

// Normalize replaces nil lists so they round-trip as [] instead of null.
func (e *LocalEvent) Normalize() {
	if e.VideoIDs == nil {
		e.VideoIDs = []string{}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Categories == nil {
		e.Categories = []string{}
	}
	if e.Type == "" {
		e.Type = EventTypeOther
	}
}

func NormalizeAll(events []LocalEvent) {
	for i := range events {
		events[i].Normalize()
	}
}
