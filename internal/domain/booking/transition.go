package booking

import (
	"time"

	"github.com/branch-workshop/service-booking/internal/common/domain"
)

// Rejection reasons returned by Evaluate.
const (
	ReasonMissingTimingConfirmation = "missing timing confirmation for active-board bay change"
	ReasonMissingJobTimes           = "missing job start/end time"
	ReasonUnpairedJobTimes          = "job start and end time must be provided together"
	ReasonActiveBoardWithoutBay     = "a booking without a bay cannot be on the active board"
	ReasonPromiseBeforeCheckin      = "promise date cannot be before check-in date"
)

// Changes is a requested update. A nil field means "leave unchanged".
type Changes struct {
	Status         *Status
	BayID          *int64
	JobStartTime   *TimeOfDay
	JobEndTime     *TimeOfDay
	CheckinDate    *Date
	PromiseDate    *Date
	StoppageReason *string
}

// Transition is the ledger entry an accepted status and/or bay change must produce.
// FromBayID and ToBayID are set only when the bay changed.
type Transition struct {
	FromStatus   Status
	ToStatus     Status
	FromBayID    *int64
	ToBayID      *int64
	JobStartTime *TimeOfDay
	JobEndTime   *TimeOfDay
}

// BayChanged reports whether the transition relocated the vehicle.
func (t *Transition) BayChanged() bool {
	return t.ToBayID != nil
}

// Decision is the outcome of an accepted update.
type Decision struct {
	// Booking is the updated aggregate, or the unchanged current one when Changed is false.
	Booking *Booking
	// Transition is nil when neither status nor bay changed.
	Transition *Transition
	// Changed is false when the request matched the current state exactly.
	Changed bool
}

// Evaluate decides whether changes may be applied to current. It performs no I/O
// and never mutates current. A rejected update returns a VALIDATION error.
//
// Only two transitions carry preconditions: a bay change while ACTIVE_BOARD needs
// both check-in and promise dates in the request, and NEXT_JOB -> ACTIVE_BOARD
// needs both job times. Every other status move is allowed.
func Evaluate(current *Booking, changes Changes, now time.Time) (Decision, error) {
	oldStatus := current.status
	newStatus := oldStatus
	if changes.Status != nil {
		if !changes.Status.IsValid() {
			return Decision{}, domain.NewValidationError("invalid booking status: " + string(*changes.Status))
		}
		newStatus = *changes.Status
	}

	statusChanged := newStatus != oldStatus
	bayChanged := changes.BayID != nil && !sameBay(current.bayID, changes.BayID)

	if bayChanged && oldStatus == StatusActiveBoard {
		if changes.CheckinDate == nil || changes.PromiseDate == nil {
			return Decision{}, domain.NewValidationError(ReasonMissingTimingConfirmation)
		}
	}

	if statusChanged && oldStatus == StatusNextJob && newStatus == StatusActiveBoard {
		if changes.JobStartTime == nil || changes.JobEndTime == nil {
			return Decision{}, domain.NewValidationError(ReasonMissingJobTimes)
		}
	}

	if (changes.JobStartTime == nil) != (changes.JobEndTime == nil) {
		return Decision{}, domain.NewValidationError(ReasonUnpairedJobTimes)
	}

	next := current.clone()
	next.status = newStatus
	if bayChanged {
		bay := *changes.BayID
		next.bayID = &bay
	}
	if changes.JobStartTime != nil {
		start, end := *changes.JobStartTime, *changes.JobEndTime
		next.jobStartTime = &start
		next.jobEndTime = &end
	}
	if changes.CheckinDate != nil {
		next.checkinDate = *changes.CheckinDate
	}
	if changes.PromiseDate != nil {
		next.promiseDate = *changes.PromiseDate
	}
	if next.promiseDate.Before(next.checkinDate) {
		return Decision{}, domain.NewValidationError(ReasonPromiseBeforeCheckin)
	}

	// A reason only sticks while the job is stopped.
	switch {
	case newStatus != StatusJobStoppage:
		next.stoppageReason = ""
	case changes.StoppageReason != nil:
		next.stoppageReason = *changes.StoppageReason
	}

	if next.status == StatusActiveBoard && next.bayID == nil {
		return Decision{}, domain.NewValidationError(ReasonActiveBoardWithoutBay)
	}

	if next.sameState(current) {
		return Decision{Booking: current, Changed: false}, nil
	}
	next.updatedAt = now.UTC()

	decision := Decision{Booking: next, Changed: true}
	if statusChanged || bayChanged {
		tr := &Transition{
			FromStatus:   oldStatus,
			ToStatus:     newStatus,
			JobStartTime: next.jobStartTime,
			JobEndTime:   next.jobEndTime,
		}
		if bayChanged {
			tr.FromBayID = current.bayID
			tr.ToBayID = next.bayID
		}
		decision.Transition = tr
	}
	return decision, nil
}
