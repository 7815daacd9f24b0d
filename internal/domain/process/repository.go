package process

import (
	"context"
	"iter"

	"github.com/google/uuid"
)

// Ledger is the append-only store of process events. It has no update or delete operation.
type Ledger interface {
	// Append assigns the event's sequence and changedAt and stores it.
	Append(ctx context.Context, event *Event) error

	// QueryByBooking yields the booking's events ordered by changedAt ascending.
	// The sequence is lazy and restartable: each range re-reads the store in pages.
	QueryByBooking(ctx context.Context, bookingID uuid.UUID) iter.Seq2[*Event, error]
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Event, error]) ([]*Event, error) {
	events := []*Event{}
	for evt, err := range seq {
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}
