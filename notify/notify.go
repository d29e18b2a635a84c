/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package notify

import (
	"context"
	"sync"
	"time"
)

// Outcome classifies how an operation terminated.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailure     Outcome = "failure"
)

// Event describes one terminal outcome of a client operation.
type Event struct {
	Operation  string
	Outcome    Outcome
	Scope      string
	RecordType string // queried record type, for fetches
	RecordIDs  []string
	Count      int    // records returned on success
	Status     string // account status when Outcome is OutcomeUnavailable
	Err        error
	Duration   time.Duration
}

// Notifier receives diagnostic events. Implementations must not block for long;
// they run on the caller's goroutine.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

// Nop discards every event.
var Nop Notifier = nopNotifier{}

type safeNotifier struct {
	next Notifier
}

// Safe wraps n so that a panic inside it is recovered and dropped.
func Safe(n Notifier) Notifier {
	if n == nil {
		return Nop
	}
	if _, ok := n.(safeNotifier); ok {
		return n
	}
	return safeNotifier{next: n}
}

func (s safeNotifier) Notify(ctx context.Context, ev Event) {
	defer func() {
		_ = recover()
	}()
	s.next.Notify(ctx, ev)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
