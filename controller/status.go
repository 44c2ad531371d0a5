// Package controller - This file contains the detection state enumeration,
// the periodic status snapshot, and the FPS meter.
package controller

import (
	"time"

	"github.com/chewxy/math32"
)

// State enumerates the coordinator lifecycle.
type State int

const (
	// Idle: no camera held, no background cycle active.
	Idle State = iota
	// Running: camera held, cycle active, frames being processed.
	Running
	// Stopping: in-flight cycle finishing, camera release pending.
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Status is the periodic summary the coordinator publishes each cycle. Each
// snapshot supersedes the previous one; observers must not assume delivery
// of every intermediate snapshot.
type Status struct {
	State State
	// Episode identifies the Running episode the snapshot belongs to. Empty
	// while Idle before the first Start.
	Episode string
	// FPS is the smoothed frames-per-second estimate.
	FPS float32
	// Width and Height are the last observed frame resolution.
	Width  int
	Height int
	// EventCount is the total number of motion events this episode.
	EventCount uint64
	// LastEvent is the timestamp of the most recent motion event, zero if
	// none.
	LastEvent time.Time
	// Notice carries a transient report: camera stall, event backlog,
	// snapshot write failure, resolution change. Empty when nothing
	// noteworthy happened.
	Notice string
	// Failed marks a terminal status: the Running episode ended on an
	// unrecoverable camera error rather than a Stop command.
	Failed bool
	// Time is when the snapshot was generated.
	Time time.Time
}

// fpsMeter smooths per-cycle durations into a frames-per-second estimate
// using an exponentially weighted moving average (alpha 0.2). An EWMA reacts
// to rate changes within a few frames without the bookkeeping of a sliding
// window.
type fpsMeter struct {
	alpha float32
	avg   float32 // smoothed seconds per cycle
	last  time.Time
}

func newFPSMeter() fpsMeter {
	return fpsMeter{alpha: 0.2}
}

// tick records a cycle boundary and returns the current estimate. The first
// tick only seeds the clock and reports zero.
func (m *fpsMeter) tick(now time.Time) float32 {
	if m.last.IsZero() {
		m.last = now
		return 0
	}
	dt := math32.Max(float32(now.Sub(m.last).Seconds()), 1e-6)
	m.last = now

	if m.avg == 0 {
		m.avg = dt
	} else {
		m.avg += m.alpha * (dt - m.avg)
	}
	return 1 / m.avg
}

// fps returns the current estimate without recording a cycle.
func (m *fpsMeter) fps() float32 {
	if m.avg == 0 {
		return 0
	}
	return 1 / m.avg
}

func (m *fpsMeter) reset() {
	m.avg = 0
	m.last = time.Time{}
}
