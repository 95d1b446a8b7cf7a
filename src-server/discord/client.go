// Package discord is the guild scheduled events API used by a sync run.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eventsync/src-server/model"

	"github.com/bwmarrin/discordgo"
)

// Client talks to the guild scheduled events endpoints through a discordgo
// session. discordgo's typed helpers drop recurrence_rule, so requests go
// through RequestWithBucketID and decode into model.ExternalEvent.
type Client struct {
	session *discordgo.Session
	timeout time.Duration
	metrics Observer
}

// Observer receives the latency of every call; may be nil.
type Observer interface {
	ObserveDiscordCall(op string, d time.Duration, err error)
}

func NewClient(session *discordgo.Session, timeout time.Duration, metrics Observer) *Client {
	return &Client{
		session: session,
		timeout: timeout,
		metrics: metrics,
	}
}

func (c *Client) List(ctx context.Context, guildID string) ([]model.ExternalEvent, error) {
	var events []model.ExternalEvent
	if err := c.do(ctx, "list", http.MethodGet,
		discordgo.EndpointGuildScheduledEvents(guildID),
		nil,
		discordgo.EndpointGuildScheduledEvents(guildID),
		&events,
	); err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].GuildID == "" {
			events[i].GuildID = guildID
		}
	}
	return events, nil
}

func (c *Client) Create(ctx context.Context, guildID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error) {
	event := new(model.ExternalEvent)
	if err := c.do(ctx, "create", http.MethodPost,
		discordgo.EndpointGuildScheduledEvents(guildID),
		payload,
		discordgo.EndpointGuildScheduledEvents(guildID),
		event,
	); err != nil {
		return nil, err
	}
	return event, nil
}

func (c *Client) Update(ctx context.Context, guildID, eventID string, payload model.ExternalEventPayload) (*model.ExternalEvent, error) {
	event := new(model.ExternalEvent)
	if err := c.do(ctx, "update", http.MethodPatch,
		discordgo.EndpointGuildScheduledEvent(guildID, eventID),
		payload,
		discordgo.EndpointGuildScheduledEvent(guildID, ""),
		event,
	); err != nil {
		return nil, err
	}
	return event, nil
}

func (c *Client) do(ctx context.Context, op, method, url string, body interface{}, bucket string, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTimer := time.Now()
	resp, err := c.session.RequestWithBucketID(method, url, body, bucket, discordgo.WithContext(ctx))
	if c.metrics != nil {
		c.metrics.ObserveDiscordCall(op, time.Since(startTimer), err)
	}
	if err != nil {
		return fmt.Errorf("(*Client).%s: %w", op, err)
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("(*Client).%s: can't decode response: %w", op, err)
	}
	return nil
}
