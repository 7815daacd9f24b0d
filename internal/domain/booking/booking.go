package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/branch-workshop/service-booking/internal/common/domain"
)

// Booking is the aggregate root for one vehicle's visit through the workshop.
type Booking struct {
	id                  uuid.UUID
	vehicleRegistration string
	checkinDate         Date
	promiseDate         Date
	serviceAdvisorID    int64
	bayID               *int64
	jobType             JobType
	status              Status

	jobStartTime   *TimeOfDay
	jobEndTime     *TimeOfDay
	stoppageReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a Booking in QUEUING. Advisor and bay must already have been resolved by the caller.
func NewBooking(
	vehicleRegistration string,
	checkinDate Date,
	promiseDate Date,
	serviceAdvisorID int64,
	bayID int64,
	jobType JobType,
) (*Booking, error) {
	vehicleRegistration = strings.TrimSpace(vehicleRegistration)
	if vehicleRegistration == "" {
		return nil, domain.NewValidationError("vehicle registration is required")
	}
	if checkinDate.IsZero() {
		return nil, domain.NewValidationError("check-in date is required")
	}
	if promiseDate.IsZero() {
		return nil, domain.NewValidationError("promise date is required")
	}
	if promiseDate.Before(checkinDate) {
		return nil, domain.NewValidationError("promise date cannot be before check-in date")
	}
	if serviceAdvisorID <= 0 {
		return nil, domain.NewValidationError("service advisor ID is required")
	}
	if bayID <= 0 {
		return nil, domain.NewValidationError("bay ID is required")
	}
	if !jobType.IsValid() {
		return nil, domain.NewValidationError("invalid job type: " + string(jobType))
	}

	now := time.Now().UTC()
	return &Booking{
		id:                  uuid.New(),
		vehicleRegistration: strings.ToUpper(vehicleRegistration),
		checkinDate:         checkinDate,
		promiseDate:         promiseDate,
		serviceAdvisorID:    serviceAdvisorID,
		bayID:               &bayID,
		jobType:             jobType,
		status:              StatusQueuing,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	vehicleRegistration string,
	checkinDate Date,
	promiseDate Date,
	serviceAdvisorID int64,
	bayID *int64,
	jobType JobType,
	status Status,
	jobStartTime *TimeOfDay,
	jobEndTime *TimeOfDay,
	stoppageReason string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                  id,
		vehicleRegistration: vehicleRegistration,
		checkinDate:         checkinDate,
		promiseDate:         promiseDate,
		serviceAdvisorID:    serviceAdvisorID,
		bayID:               bayID,
		jobType:             jobType,
		status:              status,
		jobStartTime:        jobStartTime,
		jobEndTime:          jobEndTime,
		stoppageReason:      stoppageReason,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// VehicleRegistration returns the vehicle's registration plate.
func (b *Booking) VehicleRegistration() string { return b.vehicleRegistration }

// CheckinDate returns the date the vehicle was checked in.
func (b *Booking) CheckinDate() Date { return b.checkinDate }

// PromiseDate returns the date the repair was promised for.
func (b *Booking) PromiseDate() Date { return b.promiseDate }

// ServiceAdvisorID returns the advisor responsible for the booking.
func (b *Booking) ServiceAdvisorID() int64 { return b.serviceAdvisorID }

// BayID returns the current bay, or nil if none is assigned.
func (b *Booking) BayID() *int64 { return b.bayID }

// JobType returns the job classification.
func (b *Booking) JobType() JobType { return b.jobType }

// Status returns the current lifecycle status.
func (b *Booking) Status() Status { return b.status }

// JobStartTime returns the planned start of active work, or nil.
func (b *Booking) JobStartTime() *TimeOfDay { return b.jobStartTime }

// JobEndTime returns the planned end of active work, or nil.
func (b *Booking) JobEndTime() *TimeOfDay { return b.jobEndTime }

// StoppageReason returns why the job is stopped. Empty unless status is JOB_STOPPAGE.
func (b *Booking) StoppageReason() string { return b.stoppageReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}

// clone returns a deep copy so Evaluate never mutates the loaded aggregate.
func (b *Booking) clone() *Booking {
	c := *b
	if b.bayID != nil {
		v := *b.bayID
		c.bayID = &v
	}
	if b.jobStartTime != nil {
		v := *b.jobStartTime
		c.jobStartTime = &v
	}
	if b.jobEndTime != nil {
		v := *b.jobEndTime
		c.jobEndTime = &v
	}
	return &c
}

// sameState reports whether the mutable lifecycle fields of b and other are equal.
func (b *Booking) sameState(other *Booking) bool {
	return b.status == other.status &&
		sameBay(b.bayID, other.bayID) &&
		sameTimeOfDay(b.jobStartTime, other.jobStartTime) &&
		sameTimeOfDay(b.jobEndTime, other.jobEndTime) &&
		b.checkinDate == other.checkinDate &&
		b.promiseDate == other.promiseDate &&
		b.stoppageReason == other.stoppageReason
}

func sameBay(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
