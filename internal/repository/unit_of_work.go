package repository

import (
	"context"

	"gorm.io/gorm"

	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/process"
)

// GormUnitOfWork runs booking and ledger writes in one database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do calls fn with repositories bound to a fresh transaction. The transaction commits
// if fn returns nil and rolls back otherwise; fn's error is returned unchanged.
func (u *GormUnitOfWork) Do(
	ctx context.Context,
	fn func(ctx context.Context, bookings bookingDomain.BookingRepository, ledger process.Ledger) error,
) error {
	var fnErr error
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(ctx, NewGormBookingRepository(tx), NewGormProcessLedger(tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translateError(err, "failed to commit transaction")
}
