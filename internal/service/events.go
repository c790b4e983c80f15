package service

import (
	"time"

	"edms/internal/model"

	"github.com/google/uuid"
)

// Event types pushed to connected clients.
const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventRequestDeleted = "request.deleted"
)

// Event is the payload published after a request changes.
type Event struct {
	Type      string       `json:"type"`
	RequestID uuid.UUID    `json:"request_id"`
	UnitUIC   string       `json:"unit_uic"`
	Stage     model.Stage  `json:"stage,omitempty"`
	Action    model.Action `json:"action,omitempty"`
	Version   int          `json:"version,omitempty"`
	At        time.Time    `json:"at"`
}

// Notifier fans events out to the live subscribers of one unit. Publish
// must not block.
type Notifier interface {
	Publish(unitUIC string, v any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, any) {}
