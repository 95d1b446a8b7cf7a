package model

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Recurrence frequency codes as this system writes them to Discord.
const (
	FrequencyCodeWeekly  = 2
	FrequencyCodeMonthly = 3
)

// RecurrenceRule mirrors the recurrence_rule object of a guild scheduled
// event. discordgo v0.28 has no type for it.
type RecurrenceRule struct {
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end"`
	Frequency  int        `json:"frequency"`
	Interval   int        `json:"interval"`
	ByWeekday  []int      `json:"by_weekday"`
	ByMonthDay []int      `json:"by_month_day"`
	Count      *int       `json:"count"`
}

// ExternalEvent is a guild scheduled event as returned by the Discord API,
// including the recurrence rule discordgo.GuildScheduledEvent drops.
type ExternalEvent struct {
	ID             string                                       `json:"id"`
	GuildID        string                                       `json:"guild_id"`
	ChannelID      string                                       `json:"channel_id,omitempty"`
	CreatorID      string                                       `json:"creator_id,omitempty"`
	Name           string                                       `json:"name"`
	Description    string                                       `json:"description,omitempty"`
	ScheduledStart time.Time                                    `json:"scheduled_start_time"`
	ScheduledEnd   *time.Time                                   `json:"scheduled_end_time,omitempty"`
	Status         discordgo.GuildScheduledEventStatus          `json:"status"`
	EntityType     discordgo.GuildScheduledEventEntityType      `json:"entity_type"`
	EntityMetadata *discordgo.GuildScheduledEventEntityMetadata `json:"entity_metadata,omitempty"`
	RecurrenceRule *RecurrenceRule                              `json:"recurrence_rule,omitempty"`
}

// CreatedAt is the creation time encoded in the snowflake id, zero when the
// id is not a snowflake.
func (e *ExternalEvent) CreatedAt() time.Time {
	t, err := discordgo.SnowflakeTimestamp(e.ID)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ExternalEventPayload is the body of a create/update call. RecurrenceRule
// is sent as null when absent so an update clears an existing rule.
type ExternalEventPayload struct {
	Name           string                                       `json:"name"`
	Description    string                                       `json:"description"`
	EntityType     discordgo.GuildScheduledEventEntityType      `json:"entity_type"`
	PrivacyLevel   discordgo.GuildScheduledEventPrivacyLevel    `json:"privacy_level"`
	ScheduledStart time.Time                                    `json:"scheduled_start_time"`
	ScheduledEnd   time.Time                                    `json:"scheduled_end_time"`
	EntityMetadata *discordgo.GuildScheduledEventEntityMetadata `json:"entity_metadata,omitempty"`
	RecurrenceRule *RecurrenceRule                              `json:"recurrence_rule"`
}
