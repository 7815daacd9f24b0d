package repository

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/process"
)

const defaultHistoryPageSize = 200

// ProcessEventModel is the GORM model for the booking_process_events table.
type ProcessEventModel struct {
	ID           uuid.UUID                `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:uq_process_booking_sequence,priority:1"`
	Sequence     int64                    `gorm:"not null;uniqueIndex:uq_process_booking_sequence,priority:2"`
	FromStatus   string                   `gorm:"not null;size:30"`
	ToStatus     string                   `gorm:"not null;size:30"`
	FromBayID    *int64                   `gorm:""`
	FromBayName  string                   `gorm:"size:100"`
	ToBayID      *int64                   `gorm:""`
	ToBayName    string                   `gorm:"size:100"`
	ChangedAt    time.Time                `gorm:"not null"`
	JobStartTime *bookingDomain.TimeOfDay `gorm:"type:time"`
	JobEndTime   *bookingDomain.TimeOfDay `gorm:"type:time"`
}

// TableName returns the table name for the GORM model.
func (ProcessEventModel) TableName() string {
	return "booking_process_events"
}

// GormProcessLedger is the GORM-based implementation of process.Ledger.
type GormProcessLedger struct {
	db       *gorm.DB
	now      func() time.Time
	pageSize int
}

// NewGormProcessLedger creates a new GormProcessLedger. db may be a transaction handle.
func NewGormProcessLedger(db *gorm.DB) *GormProcessLedger {
	return &GormProcessLedger{db: db, now: time.Now, pageSize: defaultHistoryPageSize}
}

// WithPageSize sets how many rows QueryByBooking reads per round trip.
func (l *GormProcessLedger) WithPageSize(n int) *GormProcessLedger {
	if n > 0 {
		l.pageSize = n
	}
	return l
}

// Append stores event as the booking's next entry. The booking row must already be
// locked by the surrounding transaction; the unique (booking_id, sequence) index
// turns any remaining race into a CONFLICT.
func (l *GormProcessLedger) Append(ctx context.Context, event *process.Event) error {
	var last ProcessEventModel
	var lastAt *time.Time
	nextSeq := int64(1)

	err := l.db.WithContext(ctx).
		Select("sequence", "changed_at").
		Where("booking_id = ?", event.BookingID).
		Order("sequence DESC").
		Take(&last).Error
	switch {
	case err == nil:
		nextSeq = last.Sequence + 1
		lastAt = &last.ChangedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return translateError(err, "failed to read ledger tail")
	}

	event.Sequence = nextSeq
	event.ChangedAt = process.NextChangedAt(lastAt, l.now())
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if err := l.db.WithContext(ctx).Create(toProcessEventModel(event)).Error; err != nil {
		return translateError(err, "failed to append process event")
	}
	return nil
}

// QueryByBooking pages through the booking's events by sequence. Sequence and changedAt
// grow together, so sequence order is changedAt order.
func (l *GormProcessLedger) QueryByBooking(ctx context.Context, bookingID uuid.UUID) iter.Seq2[*process.Event, error] {
	return func(yield func(*process.Event, error) bool) {
		var after int64
		for {
			var models []ProcessEventModel
			if err := l.db.WithContext(ctx).
				Where("booking_id = ? AND sequence > ?", bookingID, after).
				Order("sequence ASC").
				Limit(l.pageSize).
				Find(&models).Error; err != nil {
				yield(nil, translateError(err, "failed to read process history"))
				return
			}

			for i := range models {
				if !yield(toDomainProcessEvent(&models[i]), nil) {
					return
				}
				after = models[i].Sequence
			}
			if len(models) < l.pageSize {
				return
			}
		}
	}
}

// --- Conversion Helpers ---

func toProcessEventModel(e *process.Event) *ProcessEventModel {
	m := &ProcessEventModel{
		ID:           e.ID,
		BookingID:    e.BookingID,
		Sequence:     e.Sequence,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		ChangedAt:    e.ChangedAt,
		JobStartTime: e.JobStartTime,
		JobEndTime:   e.JobEndTime,
	}
	if e.FromBay != nil {
		id := e.FromBay.ID
		m.FromBayID = &id
		m.FromBayName = e.FromBay.Name
	}
	if e.ToBay != nil {
		id := e.ToBay.ID
		m.ToBayID = &id
		m.ToBayName = e.ToBay.Name
	}
	return m
}

func toDomainProcessEvent(m *ProcessEventModel) *process.Event {
	e := &process.Event{
		ID:           m.ID,
		BookingID:    m.BookingID,
		Sequence:     m.Sequence,
		FromStatus:   m.FromStatus,
		ToStatus:     m.ToStatus,
		ChangedAt:    m.ChangedAt.UTC(),
		JobStartTime: m.JobStartTime,
		JobEndTime:   m.JobEndTime,
	}
	if m.FromBayID != nil {
		e.FromBay = &process.BayRef{ID: *m.FromBayID, Name: m.FromBayName}
	}
	if m.ToBayID != nil {
		e.ToBay = &process.BayRef{ID: *m.ToBayID, Name: m.ToBayName}
	}
	return e
}
