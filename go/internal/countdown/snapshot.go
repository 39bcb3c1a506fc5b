package countdown

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the remaining time until the target, split into whole units.
type Snapshot struct {
	Days      int
	Hours     int
	Minutes   int
	Seconds   int
	Remaining time.Duration // clamped at zero
}

// Compute returns the snapshot for now against target. Times past the
// target yield the zero snapshot.
func Compute(now, target time.Time) Snapshot {
	remaining := target.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	total := int64(remaining / time.Second)
	return Snapshot{
		Days:      int(total / 86400),
		Hours:     int(total / 3600 % 24),
		Minutes:   int(total / 60 % 60),
		Seconds:   int(total % 60),
		Remaining: remaining,
	}
}

// TotalSeconds recombines the whole-unit fields.
func (s Snapshot) TotalSeconds() int64 {
	return int64(s.Days)*86400 + int64(s.Hours)*3600 + int64(s.Minutes)*60 + int64(s.Seconds)
}

// Live reports whether the target has been reached.
func (s Snapshot) Live() bool {
	return s.Remaining <= 0
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", s.Days, s.Hours, s.Minutes, s.Seconds)
}

type snapshotJSON struct {
	Days        int   `json:"days"`
	Hours       int   `json:"hours"`
	Minutes     int   `json:"minutes"`
	Seconds     int   `json:"seconds"`
	RemainingMs int64 `json:"remaining_ms"`
}

// MarshalJSON encodes Remaining as whole milliseconds.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Days:        s.Days,
		Hours:       s.Hours,
		Minutes:     s.Minutes,
		Seconds:     s.Seconds,
		RemainingMs: s.Remaining.Milliseconds(),
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot{
		Days:      raw.Days,
		Hours:     raw.Hours,
		Minutes:   raw.Minutes,
		Seconds:   raw.Seconds,
		Remaining: time.Duration(raw.RemainingMs) * time.Millisecond,
	}
	return nil
}
