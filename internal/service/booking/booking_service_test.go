package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/BurakkYuce/rental-backend/internal/kafka"
	"github.com/BurakkYuce/rental-backend/internal/lifecycle"
	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) NextReferenceSequence(ctx context.Context, serviceType domain.ServiceType) (int64, error) {
	args := m.Called(ctx, serviceType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking, expectedVersion int64) error {
	args := m.Called(ctx, booking, expectedVersion)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	args := m.Called(ctx, id, expectedVersion)
	return args.Error(0)
}

type MockCarQuoter struct {
	mock.Mock
}

func (m *MockCarQuoter) QuoteRental(ctx context.Context, carID string, pickup, dropoff time.Time) (pricing.RentalQuote, error) {
	args := m.Called(ctx, carID, pickup, dropoff)
	return args.Get(0).(pricing.RentalQuote), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

func newTestService(repo *MockBookingRepository, cars *MockCarQuoter, producer *MockProducer) *BookingService {
	return NewBookingService(repo, cars, producer, "booking_events",
		WithNotificationsTopic("notifications"),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "b-1" }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func carRequest() lifecycle.CreateRequest {
	return lifecycle.CreateRequest{
		ServiceType:     "car_rental",
		CarID:           "fiat-egea-01",
		Drivers:         []domain.Driver{{Name: "John Doe", Email: "john@example.com", Age: 30}},
		PickupLocation:  "Istanbul Airport",
		DropoffLocation: "Istanbul Airport",
		PickupTime:      "2025-12-15T10:00:00Z",
		DropoffTime:     "2025-12-20T10:00:00Z",
		Pricing:         &lifecycle.PricingInput{Total: decimal.NewFromInt(1), Currency: "TRY"},
	}
}

func storedBooking(status domain.Status) *domain.Booking {
	return &domain.Booking{
		ID:              "b-1",
		ServiceType:     domain.ServiceTypeCarRental,
		Resource:        domain.CarRef{CarID: "fiat-egea-01"},
		Drivers:         []domain.Driver{{Name: "John Doe", Email: "john@example.com", Age: 30}},
		PickupLocation:  "Istanbul Airport",
		DropoffLocation: "Istanbul Airport",
		PickupTime:      time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC),
		DropoffTime:     time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC),
		Pricing:         domain.Money{Amount: decimal.NewFromInt(250), Currency: "TRY"},
		Status:          status,
		Reference:       "BK000042",
		Version:         3,
	}
}

func statusPtr(s domain.Status) *domain.Status { return &s }

func TestBookingService_CreateBooking_CarRentalIsRequoted(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	producer := &MockProducer{}
	service := newTestService(repo, cars, producer)
	ctx := context.Background()

	pickup := time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)
	dropoff := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)
	cars.On("QuoteRental", ctx, "fiat-egea-01", pickup, dropoff).Return(pricing.RentalQuote{
		Total: domain.Money{Amount: decimal.NewFromInt(250), Currency: "TRY"},
		Days:  5,
	}, nil).Once()
	repo.On("NextReferenceSequence", ctx, domain.ServiceTypeCarRental).Return(int64(42), nil).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	producer.On("Publish", ctx, "booking_events", "b-1", mock.AnythingOfType("kafka.BookingEvent")).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", "b-1", mock.AnythingOfType("kafka.BookingEvent")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, carRequest())
	require.NoError(t, err)

	assert.Equal(t, "b-1", booking.ID)
	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Equal(t, "BK000042", booking.Reference)
	assert.Equal(t, "250.00", booking.Pricing.Amount.StringFixed(2))
	assert.Equal(t, domain.CarRef{CarID: "fiat-egea-01"}, booking.Resource)

	event := producer.Calls[0].Arguments.Get(3).(kafka.BookingEvent)
	assert.Equal(t, "booking_created", event.Type)
	assert.Equal(t, []string{"john@example.com"}, event.Emails)
	assert.Equal(t, "250.00", event.Total)

	repo.AssertExpectations(t)
	cars.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_TransferKeepsSubmittedTotal(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	service := NewBookingService(repo, cars, nil, "",
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx := context.Background()

	req := carRequest()
	req.ServiceType = "transfer"
	req.CarID = ""
	req.TransferID = "tr-ist-01"
	req.Pricing = &lifecycle.PricingInput{Total: decimal.RequireFromString("75.5"), Currency: "EUR"}

	repo.On("NextReferenceSequence", ctx, domain.ServiceTypeTransfer).Return(int64(7), nil).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "TR000007", booking.Reference)
	assert.Equal(t, "75.50", booking.Pricing.Amount.StringFixed(2))
	assert.Equal(t, "EUR", booking.Pricing.Currency)
	assert.NotEmpty(t, booking.ID)

	cars.AssertNotCalled(t, "QuoteRental", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_ValidationErrorsStopEverything(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	producer := &MockProducer{}
	service := newTestService(repo, cars, producer)

	req := carRequest()
	req.CarID = ""
	req.Drivers[0].Email = "nope"

	_, err := service.CreateBooking(context.Background(), req)
	var verrs lifecycle.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "MissingCarId", verrs[0].Code())
	assert.Equal(t, "InvalidEmailFormat", verrs[1].Code())

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_UnknownCar(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	service := newTestService(repo, cars, &MockProducer{})
	ctx := context.Background()

	cars.On("QuoteRental", ctx, "fiat-egea-01", mock.Anything, mock.Anything).
		Return(pricing.RentalQuote{}, domain.ErrCarNotFound).Once()

	_, err := service.CreateBooking(ctx, carRequest())
	assert.ErrorIs(t, err, domain.ErrCarNotFound)
	repo.AssertNotCalled(t, "NextReferenceSequence", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_PublishFailureDoesNotFail(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	producer := &MockProducer{}
	service := newTestService(repo, cars, producer)
	ctx := context.Background()

	cars.On("QuoteRental", ctx, mock.Anything, mock.Anything, mock.Anything).Return(pricing.RentalQuote{
		Total: domain.Money{Amount: decimal.NewFromInt(250), Currency: "TRY"},
	}, nil)
	repo.On("NextReferenceSequence", ctx, domain.ServiceTypeCarRental).Return(int64(1), nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)
	producer.On("Publish", ctx, "booking_events", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	booking, err := service.CreateBooking(ctx, carRequest())
	require.NoError(t, err)
	assert.Equal(t, "BK000001", booking.Reference)
	producer.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBookingService_UpdateBooking_StatusChange(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, &MockCarQuoter{}, producer)
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusPending), nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Status == domain.StatusConfirmed
	}), int64(3)).Return(nil).Once()
	producer.On("Publish", ctx, mock.Anything, "b-1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == "booking_status_changed" && e.PreviousStatus == "pending" && e.Status == "confirmed"
	})).Return(nil).Twice()

	updated, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{Status: statusPtr(domain.StatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)

	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_UpdateBooking_IllegalTransition(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, &MockCarQuoter{}, producer)
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusCompleted), nil).Once()

	_, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{Status: statusPtr(domain.StatusPending)})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidStatusTransition)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_UpdateBooking_EditsLockedAfterConfirmation(t *testing.T) {
	repo := &MockBookingRepository{}
	service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusConfirmed), nil).Once()

	location := "Sabiha Gokcen Airport"
	_, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{PickupLocation: &location})
	assert.ErrorIs(t, err, lifecycle.ErrBookingImmutable)
}

func TestBookingService_UpdateBooking_PendingEditIsTrimmed(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, &MockCarQuoter{}, producer)
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusPending), nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.DropoffLocation == "Taksim" && b.Status == domain.StatusPending
	}), int64(3)).Return(nil).Once()
	producer.On("Publish", ctx, mock.Anything, "b-1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == "booking_updated"
	})).Return(nil)

	location := "  Taksim "
	updated, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{DropoffLocation: &location})
	require.NoError(t, err)
	assert.Equal(t, "Taksim", updated.DropoffLocation)
	repo.AssertExpectations(t)
}

func TestBookingService_UpdateBooking_InvalidPendingEdit(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, &MockCarQuoter{}, producer)
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusPending), nil).Once()

	_, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{
		Drivers: []domain.Driver{{Name: "X", Email: "broken"}},
	})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidEmailFormat)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_UpdateBooking_LockedFieldsIgnoreNewValues(t *testing.T) {
	testCases := []struct {
		name    string
		status  domain.Status
		drivers []domain.Driver
	}{
		{name: "confirmed, drivers cleared", status: domain.StatusConfirmed, drivers: []domain.Driver{}},
		{name: "confirmed, bad email", status: domain.StatusConfirmed, drivers: []domain.Driver{{Name: "X", Email: "not-an-email"}}},
		{name: "active, drivers cleared", status: domain.StatusActive, drivers: []domain.Driver{}},
		{name: "cancelled, bad email", status: domain.StatusCancelled, drivers: []domain.Driver{{Name: "X", Email: "not-an-email"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &MockBookingRepository{}
			service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
			ctx := context.Background()

			repo.On("GetByID", ctx, "b-1").Return(storedBooking(tc.status), nil).Once()

			_, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{Drivers: tc.drivers})
			assert.ErrorIs(t, err, lifecycle.ErrBookingImmutable)

			var verrs lifecycle.ValidationErrors
			assert.False(t, errors.As(err, &verrs))
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_UpdateBooking_VersionConflict(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newTestService(repo, &MockCarQuoter{}, producer)
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusPending), nil).Once()
	repo.On("Update", ctx, mock.Anything, int64(3)).Return(domain.ErrVersionConflict).Once()

	_, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{Status: statusPtr(domain.StatusCancelled)})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_UpdateBooking_EmptyChangeReturnsCurrent(t *testing.T) {
	repo := &MockBookingRepository{}
	service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
	ctx := context.Background()

	repo.On("GetByID", ctx, "b-1").Return(storedBooking(domain.StatusActive), nil).Once()

	booking, err := service.UpdateBooking(ctx, "b-1", lifecycle.Change{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, booking.Status)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_DeleteBooking(t *testing.T) {
	testCases := []struct {
		status  domain.Status
		wantErr error
	}{
		{domain.StatusPending, nil},
		{domain.StatusConfirmed, lifecycle.ErrCannotDeleteConfirmedBooking},
		{domain.StatusActive, lifecycle.ErrCannotDeleteConfirmedBooking},
		{domain.StatusCompleted, lifecycle.ErrCannotDeleteConfirmedBooking},
		{domain.StatusCancelled, lifecycle.ErrCannotDeleteConfirmedBooking},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			repo := &MockBookingRepository{}
			producer := &MockProducer{}
			service := newTestService(repo, &MockCarQuoter{}, producer)
			ctx := context.Background()

			repo.On("GetByID", ctx, "b-1").Return(storedBooking(tc.status), nil).Once()
			repo.On("Delete", ctx, "b-1", int64(3)).Return(nil).Maybe()
			producer.On("Publish", ctx, mock.Anything, "b-1", mock.Anything).Return(nil).Maybe()

			err := service.DeleteBooking(ctx, "b-1")
			if tc.wantErr == nil {
				require.NoError(t, err)
				repo.AssertCalled(t, "Delete", ctx, "b-1", int64(3))
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_DeleteBooking_NotFound(t *testing.T) {
	repo := &MockBookingRepository{}
	service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, domain.ErrBookingNotFound).Once()

	err := service.DeleteBooking(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_RequoteBooking(t *testing.T) {
	repo := &MockBookingRepository{}
	cars := &MockCarQuoter{}
	producer := &MockProducer{}
	service := newTestService(repo, cars, producer)
	ctx := context.Background()

	current := storedBooking(domain.StatusPending)
	repo.On("GetByID", ctx, "b-1").Return(current, nil).Once()
	cars.On("QuoteRental", ctx, "fiat-egea-01", current.PickupTime, current.DropoffTime).Return(pricing.RentalQuote{
		Total: domain.Money{Amount: decimal.NewFromInt(300), Currency: "TRY"},
	}, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Pricing.Amount.Equal(decimal.NewFromInt(300))
	}), int64(3)).Return(nil).Once()
	producer.On("Publish", ctx, mock.Anything, "b-1", mock.Anything).Return(nil)

	updated, err := service.RequoteBooking(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "300.00", updated.Pricing.Amount.StringFixed(2))
	assert.Equal(t, "250.00", current.Pricing.Amount.StringFixed(2))
	repo.AssertExpectations(t)
}

func TestBookingService_RequoteBooking_Rejected(t *testing.T) {
	repo := &MockBookingRepository{}
	service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
	ctx := context.Background()

	repo.On("GetByID", ctx, "confirmed").Return(storedBooking(domain.StatusConfirmed), nil).Once()
	_, err := service.RequoteBooking(ctx, "confirmed")
	assert.ErrorIs(t, err, lifecycle.ErrBookingImmutable)

	transfer := storedBooking(domain.StatusPending)
	transfer.ServiceType = domain.ServiceTypeTransfer
	transfer.Resource = domain.TransferRef{TransferID: "tr-1"}
	repo.On("GetByID", ctx, "transfer").Return(transfer, nil).Once()
	_, err = service.RequoteBooking(ctx, "transfer")
	assert.ErrorIs(t, err, ErrRequoteUnsupported)
}

func TestBookingService_Voucher(t *testing.T) {
	repo := &MockBookingRepository{}
	service := newTestService(repo, &MockCarQuoter{}, &MockProducer{})
	ctx := context.Background()

	repo.On("GetByID", ctx, "confirmed").Return(storedBooking(domain.StatusConfirmed), nil).Once()
	pdf, name, err := service.Voucher(ctx, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "VOUCHER_BK000042.pdf", name)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")

	repo.On("GetByID", ctx, "pending").Return(storedBooking(domain.StatusPending), nil).Once()
	_, _, err = service.Voucher(ctx, "pending")
	assert.ErrorIs(t, err, ErrVoucherUnavailable)
}
