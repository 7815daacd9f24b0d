package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	"github.com/branch-workshop/service-booking/internal/common/kafka"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/directory"
	"github.com/branch-workshop/service-booking/internal/domain/process"
	"github.com/branch-workshop/service-booking/internal/events"
)

const eventSource = "service-booking"

// UnitOfWork runs fn inside one storage transaction. Everything fn writes through
// bookings and ledger commits together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, bookings bookingDomain.BookingRepository, ledger process.Ledger) error) error
}

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	ledger    process.Ledger
	uow       UnitOfWork
	directory directory.Directory
	publisher EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewBookingService creates a new BookingService. publisher may be nil.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	ledger process.Ledger,
	uow UnitOfWork,
	dir directory.Directory,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		ledger:    ledger,
		uow:       uow,
		directory: dir,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("service-booking/application"),
		now:       time.Now,
	}
}

// CreateBooking checks a vehicle in. The booking starts in QUEUING; no ledger entry is written.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking")
	defer func() { endSpan(span, err) }()

	jobType, err := bookingDomain.ParseJobType(req.JobType)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if _, err := s.directory.ResolveAdvisor(ctx, req.ServiceAdvisorID); err != nil {
		return nil, err
	}
	if _, err := s.directory.ResolveBay(ctx, req.BayID); err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		req.VehicleRegistration,
		req.CheckinDate,
		req.PromiseDate,
		req.ServiceAdvisorID,
		req.BayID,
		jobType,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.id", bk.ID().String()))

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("vehicle_registration", bk.VehicleRegistration()),
		zap.Int64("bay_id", req.BayID),
	)

	s.publishEvent(ctx, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:           bk.ID(),
		VehicleRegistration: bk.VehicleRegistration(),
		Status:              bk.Status().String(),
		ServiceAdvisorID:    bk.ServiceAdvisorID(),
		BayID:               bk.BayID(),
		JobType:             string(bk.JobType()),
		OccurredAt:          s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking applies a partial update. A status or bay change is validated and
// recorded in the process ledger in the same transaction as the booking write.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req UpdateBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.UpdateBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	changes, err := req.toChanges()
	if err != nil {
		return nil, err
	}

	var (
		decision bookingDomain.Decision
		appended *process.Event
	)
	err = s.uow.Do(ctx, func(ctx context.Context, bookings bookingDomain.BookingRepository, ledger process.Ledger) error {
		current, err := bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		var toBay *directory.BaySnapshot
		if changes.BayID != nil && !sameBayID(current.BayID(), *changes.BayID) {
			if toBay, err = s.directory.ResolveBay(ctx, *changes.BayID); err != nil {
				return err
			}
		}

		decision, err = bookingDomain.Evaluate(current, changes, s.now())
		if err != nil {
			return err
		}
		if !decision.Changed {
			return nil
		}

		decision.Booking.IncrementVersion()
		if err := bookings.Update(ctx, decision.Booking); err != nil {
			return err
		}

		tr := decision.Transition
		if tr == nil {
			return nil
		}
		var fromRef, toRef *process.BayRef
		if tr.BayChanged() {
			if fromRef, err = s.bayRef(ctx, tr.FromBayID); err != nil {
				return err
			}
			toRef = &process.BayRef{ID: toBay.ID, Name: toBay.DisplayName}
		}
		evt := process.NewEvent(bookingID, tr, fromRef, toRef)
		if err := ledger.Append(ctx, evt); err != nil {
			return err
		}
		appended = evt
		return nil
	})
	if err != nil {
		if domain.IsValidation(err) {
			s.logger.Info("booking update rejected",
				zap.String("booking_id", bookingID.String()),
				zap.String("reason", err.Error()),
			)
		}
		return nil, err
	}

	bk := decision.Booking
	switch {
	case appended != nil:
		s.logger.Info("booking transitioned",
			zap.String("booking_id", bookingID.String()),
			zap.String("from_status", appended.FromStatus),
			zap.String("to_status", appended.ToStatus),
			zap.Int64("sequence", appended.Sequence),
		)
		s.publishEvent(ctx, events.BookingTransitioned, bookingID.String(), transitionedEvent(appended, s.now()))
	case decision.Changed:
		s.publishEvent(ctx, events.BookingUpdated, bookingID.String(), events.BookingUpdatedEvent{
			BookingID:  bookingID,
			Version:    bk.Version(),
			OccurredAt: s.now().UTC(),
		})
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings returns a filtered, paginated page of the booking board.
func (s *BookingService) ListBookings(ctx context.Context, query ListBookingsQuery) (*domain.PaginatedResult[BookingDTO], error) {
	query = query.normalize()
	filter := bookingDomain.ListFilter{
		Status:              bookingDomain.Status(query.Status),
		VehicleRegistration: query.VehicleRegistration,
		Page:                query.Page,
		Limit:               query.Limit,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("invalid booking status: " + query.Status)
	}

	bookings, total, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, query.Page, query.Limit)
	return &result, nil
}

// DeleteBooking removes a booking and, through the store's cascade, its process history.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.DeleteBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))
	s.publishEvent(ctx, events.BookingDeleted, bookingID.String(), events.BookingDeletedEvent{
		BookingID:  bookingID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// GetHistory returns the booking's process events oldest first.
func (s *BookingService) GetHistory(ctx context.Context, bookingID uuid.UUID) (_ []ProcessEventDTO, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.GetHistory",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	if _, err := s.repo.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}

	history := []ProcessEventDTO{}
	for evt, err := range s.ledger.QueryByBooking(ctx, bookingID) {
		if err != nil {
			return nil, err
		}
		history = append(history, toProcessEventDTO(evt))
	}
	span.SetAttributes(attribute.Int("history.length", len(history)))
	return history, nil
}

// ListStoppageReasons returns the catalogue a stopped job's reason is picked from.
func (s *BookingService) ListStoppageReasons(ctx context.Context) ([]StoppageReasonDTO, error) {
	reasons, err := s.directory.ListStoppageReasons(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]StoppageReasonDTO, len(reasons))
	for i, r := range reasons {
		dtos[i] = StoppageReasonDTO{ID: r.ID, Name: r.Name}
	}
	return dtos, nil
}

// --- Admin methods ---

// GetBookingStats returns booking counts per status, including zero counts (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(bookingDomain.Statuses()))
	for _, st := range bookingDomain.Statuses() {
		byStatus[st.String()] = 0
	}
	var total, inProgress int64
	for status, c := range counts {
		byStatus[status] = c
		total += c
		if bookingDomain.Status(status).IsActiveWork() {
			inProgress += c
		}
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		InProgress:    inProgress,
		ByStatus:      byStatus,
	}, nil
}

// --- Helpers ---

// bayRef snapshots the bay a booking is leaving. A bay that has since left the
// directory is recorded by id alone.
func (s *BookingService) bayRef(ctx context.Context, id *int64) (*process.BayRef, error) {
	if id == nil {
		return nil, nil
	}
	bay, err := s.directory.ResolveBay(ctx, *id)
	if err != nil {
		if domain.IsNotFound(err) {
			return &process.BayRef{ID: *id}, nil
		}
		return nil, err
	}
	return &process.BayRef{ID: bay.ID, Name: bay.DisplayName}, nil
}

func sameBayID(current *int64, requested int64) bool {
	return current != nil && *current == requested
}

func transitionedEvent(evt *process.Event, now time.Time) events.BookingTransitionedEvent {
	out := events.BookingTransitionedEvent{
		BookingID:  evt.BookingID,
		Sequence:   evt.Sequence,
		FromStatus: evt.FromStatus,
		ToStatus:   evt.ToStatus,
		ChangedAt:  evt.ChangedAt,
		OccurredAt: now.UTC(),
	}
	if evt.FromBay != nil {
		out.FromBayID = &evt.FromBay.ID
	}
	if evt.ToBay != nil {
		out.ToBayID = &evt.ToBay.ID
	}
	return out
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, events.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		switch domain.KindOf(err) {
		case domain.KindStorage, domain.KindUnavailable, domain.KindInternal:
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
