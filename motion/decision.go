// Package motion - This file contains the decision engine: area filtering,
// presence tracking, and edge-triggered event emission.
package motion

import "time"

// Presence is the motion/no-motion state carried across cycles.
type Presence bool

// Event records one motion onset. It is created on a no-motion to motion
// transition and immutable once published.
type Event struct {
	// Time is the capture timestamp of the triggering frame.
	Time time.Time
	// Sequence is a monotonically increasing counter starting at 1 on each
	// Running episode. Never reused within an episode.
	Sequence uint64
	// Regions holds the qualifying regions from the triggering frame,
	// ordered by area descending.
	Regions []Region
	// Snapshot reports whether a snapshot capture was scheduled for this
	// event.
	Snapshot bool
}

// Engine applies the minimum-area filter and the edge-triggered debounce.
// It carries the presence state and the per-episode sequence counter between
// cycles; the coordinator owns one Engine and resets it each time Running is
// entered.
type Engine struct {
	presence Presence
	seq      uint64
}

// NewEngine returns an engine in the no-motion state with a zeroed sequence
// counter.
func NewEngine() *Engine {
	return &Engine{}
}

// Reset returns the engine to the no-motion state and restarts the sequence
// counter. Called on every Idle-to-Running transition.
func (e *Engine) Reset() {
	e.presence = false
	e.seq = 0
}

// Presence returns the current motion presence state.
func (e *Engine) Presence() Presence {
	return e.presence
}

// Decide applies the configured minimum-area filter to the analyzer's
// regions and updates the presence state.
//
// An Event is returned only on a no-motion to motion transition: continuous
// motion produces exactly one event at onset, not one per frame. A motion to
// no-motion transition is silent; re-triggering requires an intervening
// cycle with no qualifying region. The event carries all surviving regions
// from the triggering frame in analyzer order.
func (e *Engine) Decide(regions []Region, cfg Config, now time.Time) (Presence, *Event) {
	qualifying := Qualify(regions, cfg.MinArea)
	detected := Presence(len(qualifying) > 0)

	var event *Event
	if detected && !e.presence {
		e.seq++
		event = &Event{
			Time:     now,
			Sequence: e.seq,
			Regions:  qualifying,
		}
	}
	e.presence = detected
	return detected, event
}

// Qualify returns the regions whose area meets the minimum (inclusive:
// area == minArea qualifies). Input order is preserved.
func Qualify(regions []Region, minArea int) []Region {
	var out []Region
	for _, r := range regions {
		if r.Area >= minArea {
			out = append(out, r)
		}
	}
	return out
}
