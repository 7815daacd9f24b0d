package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents   = "workshop.booking.events"
	TopicDirectoryEvents = "workshop.directory.events"
)

// Booking event types published by this service.
const (
	BookingCreated      = "booking.created"
	BookingTransitioned = "booking.transitioned"
	BookingUpdated      = "booking.updated"
	BookingDeleted      = "booking.deleted"
)

// Directory event types consumed by this service.
const (
	BayUpdated     = "bay.updated"
	BayDeleted     = "bay.deleted"
	AdvisorUpdated = "advisor.updated"
	AdvisorDeleted = "advisor.deleted"
)

// BookingCreatedEvent is published when a vehicle is checked in.
type BookingCreatedEvent struct {
	BookingID           uuid.UUID `json:"booking_id"`
	VehicleRegistration string    `json:"vehicle_registration"`
	Status              string    `json:"status"`
	ServiceAdvisorID    int64     `json:"service_advisor_id"`
	BayID               *int64    `json:"bay_id,omitempty"`
	JobType             string    `json:"job_type"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// BookingTransitionedEvent mirrors a process ledger entry.
type BookingTransitionedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Sequence   int64     `json:"sequence"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	FromBayID  *int64    `json:"from_bay_id,omitempty"`
	ToBayID    *int64    `json:"to_bay_id,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingUpdatedEvent is published for accepted updates that moved neither status nor bay.
type BookingUpdatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingDeletedEvent is published after an administrative delete.
type BookingDeletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DirectoryChangedEvent is the payload of every directory event type.
type DirectoryChangedEvent struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}
