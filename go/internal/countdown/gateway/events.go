package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/reindeergames/go/internal/countdown/events"
)

// CountdownEvent represents the base structure for all countdown events
type CountdownEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of countdown event
type EventType string

const (
	EventTypeCountdownTick EventType = "CountdownTick"
	EventTypeCountdownLive EventType = "CountdownLive"
)

// NewEvent wraps payload in an event envelope.
func NewEvent(eventType EventType, payload interface{}, at time.Time) (*CountdownEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &CountdownEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *CountdownEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeCountdownTick:
		var payload events.CountdownTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeCountdownLive:
		var payload events.CountdownLivePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
