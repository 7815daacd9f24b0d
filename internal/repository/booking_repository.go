package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                  uuid.UUID                `gorm:"type:uuid;primaryKey"`
	VehicleRegistration string                   `gorm:"not null;size:20;index"`
	CheckinDate         bookingDomain.Date       `gorm:"type:date;not null"`
	PromiseDate         bookingDomain.Date       `gorm:"type:date;not null"`
	ServiceAdvisorID    int64                    `gorm:"not null;index"`
	BayID               *int64                   `gorm:"index"`
	JobType             string                   `gorm:"not null;size:10"`
	Status              string                   `gorm:"not null;size:30;index"`
	JobStartTime        *bookingDomain.TimeOfDay `gorm:"type:time"`
	JobEndTime          *bookingDomain.TimeOfDay `gorm:"type:time"`
	StoppageReason      string                   `gorm:"size:255"`
	Version             int64                    `gorm:"not null;default:1"`
	CreatedAt           time.Time                `gorm:"not null"`
	UpdatedAt           time.Time                `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository. db may be a transaction handle.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a booking and holds a row lock until the transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) find(q *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, translateError(err, "failed to find booking by ID")
	}
	return toDomainBooking(&model)
}

// ListAll retrieves bookings matching filter with pagination, newest check-in first.
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Scopes(matchFilter(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count bookings")
	}

	var models []BookingModel
	offset := (filter.Page - 1) * filter.Limit
	if err := r.db.WithContext(ctx).
		Scopes(matchFilter(filter)).
		Order("checkin_date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "failed to list bookings")
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

func matchFilter(filter bookingDomain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.VehicleRegistration != "" {
			db = db.Where("vehicle_registration ILIKE ?", "%"+filter.VehicleRegistration+"%")
		}
		return db
	}
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, translateError(err, "failed to count by status")
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := r.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		return translateError(err, "failed to save booking")
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// The caller must have called IncrementVersion on the aggregate.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"checkin_date":    model.CheckinDate,
			"promise_date":    model.PromiseDate,
			"bay_id":          model.BayID,
			"status":          model.Status,
			"job_start_time":  model.JobStartTime,
			"job_end_time":    model.JobEndTime,
			"stoppage_reason": model.StoppageReason,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "failed to update booking")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// Delete removes a booking. Its process events go with it through ON DELETE CASCADE.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete booking")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                  bk.ID(),
		VehicleRegistration: bk.VehicleRegistration(),
		CheckinDate:         bk.CheckinDate(),
		PromiseDate:         bk.PromiseDate(),
		ServiceAdvisorID:    bk.ServiceAdvisorID(),
		BayID:               bk.BayID(),
		JobType:             string(bk.JobType()),
		Status:              string(bk.Status()),
		JobStartTime:        bk.JobStartTime(),
		JobEndTime:          bk.JobEndTime(),
		StoppageReason:      bk.StoppageReason(),
		Version:             bk.Version(),
		CreatedAt:           bk.CreatedAt(),
		UpdatedAt:           bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, domain.NewStorageError("corrupt booking row "+m.ID.String(), err)
	}
	jobType, err := bookingDomain.ParseJobType(m.JobType)
	if err != nil {
		return nil, domain.NewStorageError("corrupt booking row "+m.ID.String(), err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.VehicleRegistration,
		m.CheckinDate,
		m.PromiseDate,
		m.ServiceAdvisorID,
		m.BayID,
		jobType,
		status,
		m.JobStartTime,
		m.JobEndTime,
		m.StoppageReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
