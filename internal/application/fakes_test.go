package application

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	"github.com/branch-workshop/service-booking/internal/common/kafka"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/directory"
	"github.com/branch-workshop/service-booking/internal/domain/process"
)

// memoryStore is a single-process stand-in for the bookings and ledger tables.
type memoryStore struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*bookingDomain.Booking
	events     map[uuid.UUID][]*process.Event
	appendErr  error
	transactMu sync.Mutex
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		events:   make(map[uuid.UUID][]*process.Event),
	}
}

func copyBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.VehicleRegistration(), b.CheckinDate(), b.PromiseDate(),
		b.ServiceAdvisorID(), b.BayID(), b.JobType(), b.Status(),
		b.JobStartTime(), b.JobEndTime(), b.StoppageReason(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

type memoryBookingRepo struct{ s *memoryStore }

func (r memoryBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return copyBooking(b), nil
}

func (r memoryBookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memoryBookingRepo) ListAll(_ context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.s.bookings {
		if filter.Status != "" && b.Status() != filter.Status {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memoryBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.s.bookings {
		counts[b.Status().String()]++
	}
	return counts, nil
}

func (r memoryBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r memoryBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.s.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r memoryBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id.String())
	}
	delete(r.s.bookings, id)
	delete(r.s.events, id)
	return nil
}

type memoryLedger struct{ s *memoryStore }

func (l memoryLedger) Append(_ context.Context, evt *process.Event) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.s.appendErr != nil {
		return l.s.appendErr
	}
	existing := l.s.events[evt.BookingID]
	var last *time.Time
	if n := len(existing); n > 0 {
		last = &existing[n-1].ChangedAt
	}
	evt.Sequence = int64(len(existing)) + 1
	evt.ChangedAt = process.NextChangedAt(last, time.Now())
	stored := *evt
	l.s.events[evt.BookingID] = append(existing, &stored)
	return nil
}

func (l memoryLedger) QueryByBooking(_ context.Context, bookingID uuid.UUID) iter.Seq2[*process.Event, error] {
	return func(yield func(*process.Event, error) bool) {
		l.s.mu.Lock()
		events := append([]*process.Event(nil), l.s.events[bookingID]...)
		l.s.mu.Unlock()
		for _, e := range events {
			c := *e
			if !yield(&c, nil) {
				return
			}
		}
	}
}

// memoryUnitOfWork serialises transactions and restores the store when fn fails.
type memoryUnitOfWork struct{ s *memoryStore }

func (u memoryUnitOfWork) Do(
	ctx context.Context,
	fn func(ctx context.Context, bookings bookingDomain.BookingRepository, ledger process.Ledger) error,
) error {
	u.s.transactMu.Lock()
	defer u.s.transactMu.Unlock()

	u.s.mu.Lock()
	savedBookings := make(map[uuid.UUID]*bookingDomain.Booking, len(u.s.bookings))
	for k, v := range u.s.bookings {
		savedBookings[k] = v
	}
	savedEvents := make(map[uuid.UUID][]*process.Event, len(u.s.events))
	for k, v := range u.s.events {
		savedEvents[k] = append([]*process.Event(nil), v...)
	}
	u.s.mu.Unlock()

	if err := fn(ctx, memoryBookingRepo{u.s}, memoryLedger{u.s}); err != nil {
		u.s.mu.Lock()
		u.s.bookings = savedBookings
		u.s.events = savedEvents
		u.s.mu.Unlock()
		return err
	}
	return nil
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) ResolveBay(ctx context.Context, id int64) (*directory.BaySnapshot, error) {
	args := m.Called(ctx, id)
	if bay := args.Get(0); bay != nil {
		return bay.(*directory.BaySnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) ResolveAdvisor(ctx context.Context, id int64) (*directory.AdvisorSnapshot, error) {
	args := m.Called(ctx, id)
	if adv := args.Get(0); adv != nil {
		return adv.(*directory.AdvisorSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) ListStoppageReasons(ctx context.Context) ([]directory.StoppageReason, error) {
	args := m.Called(ctx)
	if reasons := args.Get(0); reasons != nil {
		return reasons.([]directory.StoppageReason), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

// publishedTypes returns the CloudEvent types published so far, in order.
func (m *mockPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method == "PublishEvent" {
			types = append(types, call.Arguments.Get(3).(kafka.CloudEvent).Type)
		}
	}
	return types
}
