package service

import (
	"time"

	"github.com/postcli/postcli/internal/model"
)

// EventKind identifies a step of the send pipeline worth reporting
type EventKind string

const (
	EventNoContacts       EventKind = "no_contacts"
	EventAlreadyContacted EventKind = "already_contacted"
	EventAllContacted     EventKind = "all_contacted"
	EventLimited          EventKind = "limited"
	EventStarting         EventKind = "starting"
	EventPreview          EventKind = "preview"
	EventSent             EventKind = "sent"
	EventSkipped          EventKind = "skipped"
	EventFailed           EventKind = "failed"
	EventWaiting          EventKind = "waiting"
	EventCommitted        EventKind = "committed"
	EventDone             EventKind = "done"
)

// Event is a structured notification emitted by the send pipeline.
// Presentation is left to the Observer.
type Event struct {
	Kind     EventKind
	Index    int // 0-based recipient position, for per-recipient events
	Total    int
	Count    int
	DryRun   bool
	Contact  model.Contact
	Subject  string
	Body     string
	Path     string
	Duration time.Duration
	Err      error
}

// Observer receives pipeline events
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Notify calls f(e)
func (f ObserverFunc) Notify(e Event) { f(e) }

type discardObserver struct{}

func (discardObserver) Notify(Event) {}
