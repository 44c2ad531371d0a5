// Package controller - This file contains the shared state channel: the
// ordered conduit carrying status snapshots and motion events from the
// coordinator to any number of observers.
//
// The producer never blocks. Status is coalesced per subscriber
// (latest-wins); events are queued through a bounded channel with an
// overflow spill list, so a slow observer lags but never loses an event.
package controller

import (
	"sync"

	"github.com/nvr-ai/go-motion/motion"
)

// Hub fans coordinator output out to subscribers. Safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Subscription)}
}

// Subscribe registers an observer. depth bounds the in-channel event queue;
// events beyond it spill to an overflow list rather than being dropped.
// Depth values below 1 are raised to 1.
func (h *Hub) Subscribe(depth int) *Subscription {
	if depth < 1 {
		depth = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Subscription{
		hub:    h,
		id:     h.nextID,
		events: make(chan motion.Event, depth),
		notify: make(chan struct{}, 1),
	}
	h.nextID++
	if !h.closed {
		h.subs[s.id] = s
	}
	return s
}

// PublishStatus delivers a status snapshot to every subscriber,
// latest-wins: an unread snapshot is simply replaced.
func (h *Hub) PublishStatus(status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.setStatus(status)
	}
}

// PublishEvent delivers a motion event to every subscriber in publication
// order. Reports true if any subscriber's bounded queue overflowed into its
// spill list, so the producer can surface an event-backlog notice.
func (h *Hub) PublishEvent(event motion.Event) (backlogged bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.push(event) {
			backlogged = true
		}
	}
	return backlogged
}

// Close detaches all subscribers. Pending events remain readable on each
// subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[int]*Subscription)
}

func (h *Hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Subscription is one observer's view of the hub. Methods are safe to call
// from a single consumer goroutine concurrently with the producer.
type Subscription struct {
	hub *Hub
	id  int

	mu       sync.Mutex
	status   *Status
	overflow []motion.Event
	backlog  bool

	events chan motion.Event
	notify chan struct{}
}

// Status returns the latest status snapshot, if any has been published.
// The snapshot stays readable until superseded.
func (s *Subscription) Status() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return Status{}, false
	}
	return *s.status, true
}

// NextEvent pops the oldest undelivered motion event. Events are delivered
// in publication order (FIFO).
func (s *Subscription) NextEvent() (motion.Event, bool) {
	select {
	case event := <-s.events:
		s.refill()
		return event, true
	default:
		return motion.Event{}, false
	}
}

// Backlogged reports and clears the overflow flag: whether this subscriber
// fell far enough behind that events spilled past the bounded queue.
func (s *Subscription) Backlogged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.backlog
	s.backlog = false
	return b
}

// Notify returns a channel that receives a token whenever something was
// published. It is a level signal, not a count: one token may cover several
// publications, so consumers should drain after each receive.
func (s *Subscription) Notify() <-chan struct{} {
	return s.notify
}

// Cancel detaches the subscription from the hub.
func (s *Subscription) Cancel() {
	s.hub.unsubscribe(s.id)
}

func (s *Subscription) setStatus(status Status) {
	s.mu.Lock()
	s.status = &status
	s.mu.Unlock()
	s.poke()
}

// push enqueues an event, spilling to the overflow list when the bounded
// channel is full. Reports whether a spill happened.
func (s *Subscription) push(event motion.Event) (spilled bool) {
	s.mu.Lock()
	if len(s.overflow) > 0 {
		// Keep FIFO: once spilling has started, everything spills until the
		// consumer catches up.
		s.overflow = append(s.overflow, event)
		s.backlog = true
		spilled = true
	} else {
		select {
		case s.events <- event:
		default:
			s.overflow = append(s.overflow, event)
			s.backlog = true
			spilled = true
		}
	}
	s.mu.Unlock()
	s.poke()
	return spilled
}

// refill moves spilled events into the bounded channel as space frees up.
func (s *Subscription) refill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.overflow) > 0 {
		select {
		case s.events <- s.overflow[0]:
			s.overflow = s.overflow[1:]
		default:
			return
		}
	}
}

func (s *Subscription) poke() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
