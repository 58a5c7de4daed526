package timeline

import (
	"fmt"
	"sort"
	"time"
)

// Timeline is a deduplicated, strictly time-ascending event sequence for
// one or more devices, plus data-quality notes recording anything dropped
// during normalisation.
type Timeline struct {
	events []StateEvent
	notes  []string
}

// Normalize builds a Timeline from raw events.
//
// Duplicate event IDs collapse to the first occurrence in input order.
// Events whose timestamps fail to parse as RFC3339 are dropped and
// recorded as notes. The surviving events are stably sorted oldest-first,
// so events sharing a timestamp keep their relative input order.
func Normalize(raw []RawEvent) Timeline {
	var tl Timeline
	seen := make(map[string]bool, len(raw))

	for _, r := range raw {
		if r.EventID != "" {
			if seen[r.EventID] {
				continue
			}
			seen[r.EventID] = true
		}

		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			tl.notes = append(tl.notes, fmt.Sprintf(
				"dropped event %s for device %s: unparsable timestamp %q",
				r.EventID, r.DeviceID, r.Timestamp))
			continue
		}

		tl.events = append(tl.events, StateEvent{
			EventID:    r.EventID,
			DeviceID:   r.DeviceID,
			Capability: r.Capability,
			Attribute:  r.Attribute,
			Value:      r.Value,
			Timestamp:  ts.UTC(),
			Source:     r.Source,
		})
	}

	sort.SliceStable(tl.events, func(i, j int) bool {
		return tl.events[i].Timestamp.Before(tl.events[j].Timestamp)
	})

	return tl
}

// FromEvents builds a Timeline from already-typed events.
// The same ordering and deduplication rules as Normalize apply.
func FromEvents(events []StateEvent) Timeline {
	var tl Timeline
	seen := make(map[string]bool, len(events))

	for _, e := range events {
		if e.EventID != "" {
			if seen[e.EventID] {
				continue
			}
			seen[e.EventID] = true
		}
		tl.events = append(tl.events, e)
	}

	sort.SliceStable(tl.events, func(i, j int) bool {
		return tl.events[i].Timestamp.Before(tl.events[j].Timestamp)
	})

	return tl
}

// Len returns the number of events in the timeline.
func (t Timeline) Len() int {
	return len(t.events)
}

// Events returns a copy of the ordered events.
func (t Timeline) Events() []StateEvent {
	out := make([]StateEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Notes returns the data-quality notes accumulated during normalisation.
func (t Timeline) Notes() []string {
	out := make([]string, len(t.notes))
	copy(out, t.notes)
	return out
}

// ForDevice returns the ordered events belonging to one device.
func (t Timeline) ForDevice(deviceID string) []StateEvent {
	var out []StateEvent
	for _, e := range t.events {
		if e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	return out
}

// DeviceIDs returns the distinct device IDs present, in first-seen order.
func (t Timeline) DeviceIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range t.events {
		if !seen[e.DeviceID] {
			seen[e.DeviceID] = true
			ids = append(ids, e.DeviceID)
		}
	}
	return ids
}

// Span returns the first and last timestamps in the timeline.
// The zero time is returned for both when the timeline is empty.
func (t Timeline) Span() (start, end time.Time) {
	if len(t.events) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.events[0].Timestamp, t.events[len(t.events)-1].Timestamp
}
