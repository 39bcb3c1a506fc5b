package events

import (
	"time"

	"github.com/mcdev12/reindeergames/go/internal/countdown"
)

// Event payload types that are shared between the gateway and its publishers

// CountdownTickPayload is the payload for a CountdownTick event
type CountdownTickPayload struct {
	Target   time.Time          `json:"target"`
	Snapshot countdown.Snapshot `json:"snapshot"`
	Display  string             `json:"display"`
	TickedAt time.Time          `json:"ticked_at"` // gateway wall time, not the clock reading
}

// CountdownLivePayload is the payload for the one-shot CountdownLive event
type CountdownLivePayload struct {
	Target time.Time `json:"target"`
	LiveAt time.Time `json:"live_at"`
}

// NewTickPayload builds a tick payload for snap observed at tickedAt.
func NewTickPayload(target time.Time, snap countdown.Snapshot, tickedAt time.Time) CountdownTickPayload {
	return CountdownTickPayload{
		Target:   target,
		Snapshot: snap,
		Display:  snap.String(),
		TickedAt: tickedAt,
	}
}
