// Package events carries pipeline progress to subscribers (the CLI renderer,
// tests). Publishing never blocks pipeline work: slow subscribers drop.
package events

import (
	"sync"
	"time"
)

// Type identifies a progress event.
type Type string

const (
	ExtractionStarted  Type = "extraction_started"
	PassStarted        Type = "pass_started"
	PassCompleted      Type = "pass_completed"
	PassDegraded       Type = "pass_degraded"
	PassCacheHit       Type = "pass_cache_hit"
	ExtractionComplete Type = "extraction_complete"
	SynthesisStarted   Type = "synthesis_started"
	SynthesisCacheHit  Type = "synthesis_cache_hit"
	SynthesisComplete  Type = "synthesis_complete"
	GenerationStarted  Type = "generation_started"
	GenerationComplete Type = "generation_complete"
)

// Event is one progress notification.
type Event struct {
	Type     Type           `json:"type"`
	Resource string         `json:"resource,omitempty"`
	Pass     string         `json:"pass,omitempty"`
	Detail   map[string]any `json:"detail,omitempty"`
	At       time.Time      `json:"at"`
}

// Bus is a small fan-out publisher. Subscribers receive on buffered channels;
// a full channel drops the event rather than stalling the pipeline.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns its channel plus a cancel
// function. The channel is closed on cancel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber with room.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Emit is shorthand for Publish with the common fields.
func (b *Bus) Emit(t Type, resource, pass string) {
	b.Publish(Event{Type: t, Resource: resource, Pass: pass})
}
