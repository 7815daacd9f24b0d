package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	bookingDomain "github.com/branch-workshop/service-booking/internal/domain/booking"
	"github.com/branch-workshop/service-booking/internal/domain/directory"
	"github.com/branch-workshop/service-booking/internal/events"
)

type serviceFixture struct {
	svc       *BookingService
	store     *memoryStore
	dir       *mockDirectory
	publisher *mockPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newMemoryStore()
	dir := &mockDirectory{}
	pub := &mockPublisher{}

	dir.On("ResolveAdvisor", mock.Anything, int64(7)).Return(&directory.AdvisorSnapshot{ID: 7, Name: "Aina", Status: "ACTIVE"}, nil).Maybe()
	dir.On("ResolveAdvisor", mock.Anything, mock.Anything).Return(nil, domain.NewNotFoundError("Service advisor", "x")).Maybe()
	for id, name := range map[int64]string{1: "Bay A", 2: "Bay B", 3: "Bay C"} {
		dir.On("ResolveBay", mock.Anything, id).Return(&directory.BaySnapshot{ID: id, DisplayName: name, Number: name[4:]}, nil).Maybe()
	}
	dir.On("ResolveBay", mock.Anything, mock.Anything).Return(nil, domain.NewNotFoundError("Bay", "x")).Maybe()
	pub.On("PublishEvent", mock.Anything, events.TopicBookingEvents, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewBookingService(
		memoryBookingRepo{store},
		memoryLedger{store},
		memoryUnitOfWork{store},
		dir,
		pub,
		zap.NewNop(),
	)
	return &serviceFixture{svc: svc, store: store, dir: dir, publisher: pub}
}

func (f *serviceFixture) create(t *testing.T) *BookingDTO {
	t.Helper()
	created, err := f.svc.CreateBooking(context.Background(), CreateBookingRequest{
		VehicleRegistration: "wxy 1234",
		CheckinDate:         bookingDomain.NewDate(2025, time.March, 10),
		PromiseDate:         bookingDomain.NewDate(2025, time.March, 14),
		ServiceAdvisorID:    7,
		BayID:               1,
		JobType:             "MEDIUM",
	})
	require.NoError(t, err)
	return created
}

func (f *serviceFixture) update(t *testing.T, id uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	t.Helper()
	return f.svc.UpdateBooking(context.Background(), id, req)
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func datePtr(y int, m time.Month, d int) *bookingDomain.Date {
	v := bookingDomain.NewDate(y, m, d)
	return &v
}
func timePtr(t *testing.T, s string) *bookingDomain.TimeOfDay {
	t.Helper()
	v, err := bookingDomain.ParseTimeOfDay(s)
	require.NoError(t, err)
	return &v
}

func TestCreateBooking(t *testing.T) {
	f := newServiceFixture(t)

	created := f.create(t)

	assert.Equal(t, "WXY 1234", created.VehicleRegistration)
	assert.Equal(t, "QUEUING", created.Status)
	assert.Equal(t, int64(1), created.Version)
	require.NotNil(t, created.BayID)
	assert.Equal(t, int64(1), *created.BayID)
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.publishedTypes())

	history, err := f.svc.GetHistory(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "creation is not a transition")
}

func TestCreateBooking_UnknownReferences(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	base := CreateBookingRequest{
		VehicleRegistration: "ABC1",
		CheckinDate:         bookingDomain.NewDate(2025, time.March, 10),
		PromiseDate:         bookingDomain.NewDate(2025, time.March, 11),
		ServiceAdvisorID:    7,
		BayID:               1,
		JobType:             "LIGHT",
	}

	req := base
	req.BayID = 99
	_, err := f.svc.CreateBooking(ctx, req)
	assert.True(t, domain.IsNotFound(err))

	req = base
	req.ServiceAdvisorID = 42
	_, err = f.svc.CreateBooking(ctx, req)
	assert.True(t, domain.IsNotFound(err))

	req = base
	req.JobType = "EXTREME"
	_, err = f.svc.CreateBooking(ctx, req)
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, f.store.bookings)
	assert.Empty(t, f.publisher.publishedTypes())
}

func TestUpdateBooking_NextJobToActiveBoardWithoutTimes(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)

	_, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("NEXT_JOB")})
	require.NoError(t, err)

	_, err = f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("ACTIVE_BOARD")})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), bookingDomain.ReasonMissingJobTimes)

	current, err := f.svc.GetBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "NEXT_JOB", current.Status)
	assert.Equal(t, int64(2), current.Version)

	history, err := f.svc.GetHistory(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdateBooking_ActiveBoardScenario(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t)

	_, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	require.NoError(t, err)

	active, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("ACTIVE_BOARD")})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE_BOARD", active.Status)

	_, err = f.update(t, created.ID, UpdateBookingRequest{BayID: int64Ptr(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), bookingDomain.ReasonMissingTimingConfirmation)

	moved, err := f.update(t, created.ID, UpdateBookingRequest{
		BayID:       int64Ptr(2),
		CheckinDate: datePtr(2025, time.March, 10),
		PromiseDate: datePtr(2025, time.March, 17),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), *moved.BayID)
	assert.Equal(t, "2025-03-17", moved.PromiseDate.String())

	history, err := f.svc.GetHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "QUEUING", history[0].FromStatus)
	assert.Equal(t, "BAY_QUEUE", history[0].ToStatus)
	assert.Nil(t, history[0].ToBay)

	assert.Equal(t, "ACTIVE_BOARD", history[2].FromStatus)
	assert.Equal(t, "ACTIVE_BOARD", history[2].ToStatus)
	require.NotNil(t, history[2].FromBay)
	require.NotNil(t, history[2].ToBay)
	assert.Equal(t, "Bay A", history[2].FromBay.Name)
	assert.Equal(t, "Bay B", history[2].ToBay.Name)

	for i := 1; i < len(history); i++ {
		assert.Equal(t, int64(i+1), history[i].Sequence)
		assert.True(t, history[i].ChangedAt.After(history[i-1].ChangedAt))
	}

	assert.Equal(t, []string{
		events.BookingCreated,
		events.BookingTransitioned,
		events.BookingTransitioned,
		events.BookingTransitioned,
	}, f.publisher.publishedTypes())
}

func TestUpdateBooking_UnknownBay(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)

	_, err := f.update(t, created.ID, UpdateBookingRequest{BayID: int64Ptr(99)})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateBooking_IdempotentRequestWritesNothing(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)

	same, err := f.update(t, created.ID, UpdateBookingRequest{
		Status: strPtr("QUEUING"),
		BayID:  int64Ptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, created.Version, same.Version)

	history, err := f.svc.GetHistory(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.publishedTypes())
}

func TestUpdateBooking_TimingOnlyChange(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)

	updated, err := f.update(t, created.ID, UpdateBookingRequest{
		JobStartTime: timePtr(t, "08:00"),
		JobEndTime:   timePtr(t, "11:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", updated.JobStartTime.String())
	assert.Equal(t, int64(2), updated.Version)

	history, err := f.svc.GetHistory(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, []string{events.BookingCreated, events.BookingUpdated}, f.publisher.publishedTypes())
}

func TestUpdateBooking_LedgerFailureRollsBack(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)
	f.store.appendErr = domain.NewStorageError("failed to append process event", errors.New("disk full"))

	_, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	require.Error(t, err)
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))

	current, err := f.svc.GetBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "QUEUING", current.Status)
	assert.Equal(t, int64(1), current.Version)
}

func TestUpdateBooking_InvalidStatus(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t)

	_, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("PARKED")})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBooking_MissingBooking(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.update(t, uuid.New(), UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateBooking_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := newMemoryStore()
	dir := &mockDirectory{}
	dir.On("ResolveAdvisor", mock.Anything, int64(7)).Return(&directory.AdvisorSnapshot{ID: 7}, nil)
	dir.On("ResolveBay", mock.Anything, int64(1)).Return(&directory.BaySnapshot{ID: 1}, nil)
	pub := &mockPublisher{}
	pub.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewBookingService(memoryBookingRepo{store}, memoryLedger{store}, memoryUnitOfWork{store}, dir, pub, zap.NewNop())
	f := &serviceFixture{svc: svc, store: store, dir: dir, publisher: pub}
	created := f.create(t)

	updated, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	require.NoError(t, err)
	assert.Equal(t, "BAY_QUEUE", updated.Status)
	pub.AssertNumberOfCalls(t, "PublishEvent", 2)
}

func TestGetHistory_MissingBooking(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetHistory(context.Background(), uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteBooking_RemovesHistory(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	created := f.create(t)
	_, err := f.update(t, created.ID, UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBooking(ctx, created.ID))

	_, err = f.svc.GetBooking(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
	_, err = f.svc.GetHistory(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, f.store.events)

	assert.True(t, domain.IsNotFound(f.svc.DeleteBooking(ctx, created.ID)))
}

func TestListBookings(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	first := f.create(t)
	f.create(t)
	_, err := f.update(t, first.ID, UpdateBookingRequest{Status: strPtr("BAY_QUEUE")})
	require.NoError(t, err)

	page, err := f.svc.ListBookings(ctx, ListBookingsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.Limit)

	filtered, err := f.svc.ListBookings(ctx, ListBookingsQuery{Status: "BAY_QUEUE", Limit: 500})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, first.ID, filtered.Items[0].ID)
	assert.Equal(t, maxPageSize, filtered.Limit)

	_, err = f.svc.ListBookings(ctx, ListBookingsQuery{Status: "nope"})
	assert.True(t, domain.IsValidation(err))
}

func TestGetBookingStats(t *testing.T) {
	f := newServiceFixture(t)
	f.create(t)
	f.create(t)
	stopped := f.create(t)
	_, err := f.update(t, stopped.ID, UpdateBookingRequest{
		Status:         strPtr("JOB_STOPPAGE"),
		StoppageReason: strPtr("ODI"),
	})
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(2), stats.ByStatus["QUEUING"])
	assert.Equal(t, int64(1), stats.ByStatus["JOB_STOPPAGE"])
	assert.Len(t, stats.ByStatus, 6)
	assert.Equal(t, int64(0), stats.ByStatus["REPAIR_COMPLETION"])
}

func TestListStoppageReasons(t *testing.T) {
	f := newServiceFixture(t)
	f.dir.On("ListStoppageReasons", mock.Anything).Return([]directory.StoppageReason{
		{ID: 1, Name: "Waiting for parts"},
		{ID: 2, Name: "ODI"},
	}, nil)

	reasons, err := f.svc.ListStoppageReasons(context.Background())
	require.NoError(t, err)
	require.Len(t, reasons, 2)
	assert.Equal(t, "Waiting for parts", reasons[0].Name)
}
