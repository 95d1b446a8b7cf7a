// Package discordtest provides an in-process guild standing in for the
// Discord API.
package discordtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"eventsync/src-server/model"

	"github.com/bwmarrin/discordgo"
)

// Memory holds one guild's scheduled events. Ids are handed out
// sequentially starting at NextID.
type Memory struct {
	mu     sync.Mutex
	events []model.ExternalEvent
	NextID int

	// set to make the matching call fail
	CreateErr error
	UpdateErr map[string]error

	Creates int
	Updates int
}

func NewMemory(events ...model.ExternalEvent) *Memory {
	return &Memory{
		events:    append([]model.ExternalEvent(nil), events...),
		NextID:    1000,
		UpdateErr: make(map[string]error),
	}
}

func (m *Memory) List(ctx context.Context, guildID string) ([]model.ExternalEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ExternalEvent(nil), m.events...), nil
}

func (m *Memory) Create(ctx context.Context, guildID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Creates++
	event := applyPayload(strconv.Itoa(m.NextID), guildID, payload)
	m.NextID++
	m.events = append(m.events, event)
	return &event, nil
}

func (m *Memory) Update(ctx context.Context, guildID, eventID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateErr[eventID]; err != nil {
		return nil, err
	}
	for i := range m.events {
		if m.events[i].ID == eventID {
			m.Updates++
			event := applyPayload(eventID, guildID, payload)
			m.events[i] = event
			return &event, nil
		}
	}
	return nil, fmt.Errorf("unknown scheduled event %s", eventID)
}

// applyPayload is the event as Discord stores it after a create or update.
func applyPayload(id, guildID string, p model.ExternalEventPayload) model.ExternalEvent {
	end := p.ScheduledEnd
	return model.ExternalEvent{
		ID:             id,
		GuildID:        guildID,
		Name:           p.Name,
		Description:    p.Description,
		ScheduledStart: p.ScheduledStart,
		ScheduledEnd:   &end,
		Status:         discordgo.GuildScheduledEventStatusScheduled,
		EntityType:     p.EntityType,
		EntityMetadata: p.EntityMetadata,
		RecurrenceRule: p.RecurrenceRule,
	}
}
