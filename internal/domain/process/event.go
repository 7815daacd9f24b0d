package process

import (
	"time"

	"github.com/google/uuid"

	"github.com/branch-workshop/service-booking/internal/domain/booking"
)

// changedAtResolution is the smallest step Postgres TIMESTAMPTZ can represent.
const changedAtResolution = time.Microsecond

// BayRef is a bay reference captured at the moment of a transition.
type BayRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Event is one immutable entry in a booking's process ledger.
type Event struct {
	ID           uuid.UUID
	BookingID    uuid.UUID
	Sequence     int64
	FromStatus   string
	ToStatus     string
	FromBay      *BayRef
	ToBay        *BayRef
	ChangedAt    time.Time
	JobStartTime *booking.TimeOfDay
	JobEndTime   *booking.TimeOfDay
}

// NewEvent builds the ledger entry for an accepted transition. Sequence and ChangedAt are
// assigned by the ledger on append. fromBay and toBay are ignored unless the bay changed.
func NewEvent(bookingID uuid.UUID, tr *booking.Transition, fromBay, toBay *BayRef) *Event {
	evt := &Event{
		ID:           uuid.New(),
		BookingID:    bookingID,
		FromStatus:   tr.FromStatus.String(),
		ToStatus:     tr.ToStatus.String(),
		JobStartTime: tr.JobStartTime,
		JobEndTime:   tr.JobEndTime,
	}
	if tr.BayChanged() {
		evt.FromBay = fromBay
		evt.ToBay = toBay
	}
	return evt
}

// NextChangedAt returns a timestamp strictly after last (when present) and no earlier than now,
// truncated to the store's resolution.
func NextChangedAt(last *time.Time, now time.Time) time.Time {
	next := now.UTC().Truncate(changedAtResolution)
	if last != nil && !next.After(*last) {
		next = last.UTC().Truncate(changedAtResolution).Add(changedAtResolution)
	}
	return next
}
