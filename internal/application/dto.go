package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/process"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateBookingRequest holds the data needed to check a vehicle in.
type CreateBookingRequest struct {
	VehicleRegistration string             `json:"vehicle_registration" binding:"required,max=20"`
	CheckinDate         bookingDomain.Date `json:"checkin_date"`
	PromiseDate         bookingDomain.Date `json:"promise_date"`
	ServiceAdvisorID    int64              `json:"service_advisor_id" binding:"required,gt=0"`
	BayID               int64              `json:"bay_id" binding:"required,gt=0"`
	JobType             string             `json:"job_type" binding:"required,job_type"`
}

// UpdateBookingRequest is a partial update. Omitted fields are left unchanged.
type UpdateBookingRequest struct {
	Status         *string                  `json:"status" binding:"omitempty,booking_status"`
	BayID          *int64                   `json:"bay_id" binding:"omitempty,gt=0"`
	JobStartTime   *bookingDomain.TimeOfDay `json:"job_start_time"`
	JobEndTime     *bookingDomain.TimeOfDay `json:"job_end_time"`
	CheckinDate    *bookingDomain.Date      `json:"checkin_date"`
	PromiseDate    *bookingDomain.Date      `json:"promise_date"`
	StoppageReason *string                  `json:"stoppage_reason" binding:"omitempty,max=255"`
}

func (r UpdateBookingRequest) toChanges() (bookingDomain.Changes, error) {
	changes := bookingDomain.Changes{
		BayID:          r.BayID,
		JobStartTime:   r.JobStartTime,
		JobEndTime:     r.JobEndTime,
		CheckinDate:    r.CheckinDate,
		PromiseDate:    r.PromiseDate,
		StoppageReason: r.StoppageReason,
	}
	if r.Status != nil {
		status, err := bookingDomain.ParseStatus(*r.Status)
		if err != nil {
			return bookingDomain.Changes{}, domain.NewValidationError(err.Error())
		}
		changes.Status = &status
	}
	return changes, nil
}

// ListBookingsQuery filters and pages the booking board.
type ListBookingsQuery struct {
	Status              string `form:"status" binding:"omitempty,booking_status"`
	VehicleRegistration string `form:"vehicle_registration"`
	Page                int    `form:"page"`
	Limit               int    `form:"limit"`
}

func (q ListBookingsQuery) normalize() ListBookingsQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	return q
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                  uuid.UUID                `json:"id"`
	VehicleRegistration string                   `json:"vehicle_registration"`
	CheckinDate         bookingDomain.Date       `json:"checkin_date"`
	PromiseDate         bookingDomain.Date       `json:"promise_date"`
	ServiceAdvisorID    int64                    `json:"service_advisor_id"`
	BayID               *int64                   `json:"bay_id,omitempty"`
	JobType             string                   `json:"job_type"`
	Status              string                   `json:"status"`
	JobStartTime        *bookingDomain.TimeOfDay `json:"job_start_time,omitempty"`
	JobEndTime          *bookingDomain.TimeOfDay `json:"job_end_time,omitempty"`
	StoppageReason      string                   `json:"stoppage_reason,omitempty"`
	Version             int64                    `json:"version"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// ProcessEventDTO is the response representation of one ledger entry.
type ProcessEventDTO struct {
	ID           uuid.UUID                `json:"id"`
	BookingID    uuid.UUID                `json:"booking_id"`
	Sequence     int64                    `json:"sequence"`
	FromStatus   string                   `json:"from_status"`
	ToStatus     string                   `json:"to_status"`
	FromBay      *process.BayRef          `json:"from_bay,omitempty"`
	ToBay        *process.BayRef          `json:"to_bay,omitempty"`
	ChangedAt    time.Time                `json:"changed_at"`
	JobStartTime *bookingDomain.TimeOfDay `json:"job_start_time,omitempty"`
	JobEndTime   *bookingDomain.TimeOfDay `json:"job_end_time,omitempty"`
}

// StoppageReasonDTO is one entry of the stoppage reason catalogue.
type StoppageReasonDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	InProgress    int64            `json:"in_progress"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
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

func toProcessEventDTO(e *process.Event) ProcessEventDTO {
	return ProcessEventDTO{
		ID:           e.ID,
		BookingID:    e.BookingID,
		Sequence:     e.Sequence,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		FromBay:      e.FromBay,
		ToBay:        e.ToBay,
		ChangedAt:    e.ChangedAt,
		JobStartTime: e.JobStartTime,
		JobEndTime:   e.JobEndTime,
	}
}
