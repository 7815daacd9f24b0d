package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows ListAll. Zero values mean "no filter".
type ListFilter struct {
	Status              Status
	VehicleRegistration string
	Page                int
	Limit               int
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and locks its row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListAll retrieves bookings matching filter, newest check-in first.
	ListAll(ctx context.Context, filter ListFilter) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking. Its process events are removed by the store's cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}
