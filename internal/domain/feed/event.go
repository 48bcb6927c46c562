// Package feed pushes schedule changes to trainers connected over websocket.
package feed

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingCreated   = "booking.created"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	BookingDeleted   = "booking.deleted"
	BookingEdited    = "booking.status_edited"
	OTAssigned       = "ot.assigned"
	OTReturned       = "ot.returned"
	OTReclaimed      = "ot.reclaimed"
	OTExtended       = "ot.extended"
)

type Event struct {
	Type      string    `json:"type"`
	TrainerID uuid.UUID `json:"trainer_id"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers events on a best-effort basis. It must not block business operations.
type Publisher interface {
	Publish(e Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) {}
