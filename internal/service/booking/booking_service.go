package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/BurakkYuce/rental-backend/internal/kafka"
	"github.com/BurakkYuce/rental-backend/internal/lifecycle"
	"github.com/BurakkYuce/rental-backend/internal/metrics"
	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/BurakkYuce/rental-backend/internal/repository"
	"github.com/BurakkYuce/rental-backend/internal/voucher"
	"github.com/google/uuid"
)

var (
	ErrVoucherUnavailable = errors.New("voucher is issued only for confirmed, active or completed bookings")
	ErrRequoteUnsupported = errors.New("only car rental bookings can be re-quoted")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, req lifecycle.CreateRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, change lifecycle.Change) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	RequoteBooking(ctx context.Context, id string) (*domain.Booking, error)
	Voucher(ctx context.Context, id string) ([]byte, string, error)
}

// CarQuoter prices a rental window against a stored car.
type CarQuoter interface {
	QuoteRental(ctx context.Context, carID string, pickup, dropoff time.Time) (pricing.RentalQuote, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	cars               CarQuoter
	producer           Producer
	validator          *lifecycle.Validator
	bookingTopic       string
	notificationsTopic string
	now                lifecycle.Clock
	newID              func() string
	log                *slog.Logger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now lifecycle.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newID = newID
	}
}

func WithLogger(log *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cars CarQuoter,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		cars:         cars,
		producer:     producer,
		bookingTopic: bookingTopic,
		now:          time.Now,
		newID:        uuid.NewString,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.validator = lifecycle.NewValidator(service.now)
	return service
}

// CreateBooking validates req and stores a pending booking. Car rental totals
// are recomputed from the car's tariff; the submitted total is kept only for
// transfers.
func (s *BookingService) CreateBooking(ctx context.Context, req lifecycle.CreateRequest) (*domain.Booking, error) {
	input, err := s.validator.Validate(req)
	if err != nil {
		var verrs lifecycle.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				metrics.ValidationFailures.WithLabelValues(v.Code()).Inc()
			}
		}
		return nil, err
	}

	if car, ok := input.Resource.(domain.CarRef); ok {
		quote, err := s.cars.QuoteRental(ctx, car.CarID, input.PickupTime, input.DropoffTime)
		if err != nil {
			return nil, fmt.Errorf("price booking: %w", err)
		}
		if input.Pricing.Currency != "" && input.Pricing.Currency != quote.Total.Currency {
			s.log.WarnContext(ctx, "submitted currency differs from tariff",
				"car_id", car.CarID, "submitted", input.Pricing.Currency, "tariff", quote.Total.Currency)
		}
		input.Pricing = quote.Total
	}

	seq, err := s.bookings.NextReferenceSequence(ctx, input.ServiceType())
	if err != nil {
		return nil, err
	}

	booking := lifecycle.NewBooking(input, s.newID(), seq, s.now())
	if err := s.bookings.Create(ctx, &booking); err != nil {
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues(string(booking.ServiceType)).Inc()
	s.log.InfoContext(ctx, "booking created",
		"booking_id", booking.ID, "reference", booking.Reference, "total", booking.Pricing.Amount.StringFixed(2))
	s.publish(ctx, "booking_created", &booking, "")
	return &booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// UpdateBooking applies a status change and/or field edits. A lost race with
// another writer surfaces as domain.ErrVersionConflict. New field values are
// only validated once the booking is known to accept edits.
func (s *BookingService) UpdateBooking(ctx context.Context, id string, change lifecycle.Change) (*domain.Booking, error) {
	change = trimChange(change)

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if change.IsEmpty() {
		return current, nil
	}

	next, err := lifecycle.Apply(*current, change)
	if err == nil {
		err = s.validator.ValidateChange(change)
	}
	if change.Status != nil {
		metrics.Transitions.WithLabelValues(string(current.Status), string(*change.Status), outcome(err)).Inc()
	}
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}

	if next.Status != current.Status {
		s.log.InfoContext(ctx, "booking status changed",
			"booking_id", next.ID, "from", current.Status, "to", next.Status)
		s.publish(ctx, "booking_status_changed", &next, current.Status)
	} else {
		s.publish(ctx, "booking_updated", &next, "")
	}
	return &next, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id string) error {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanDelete(current.Status); err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, id, current.Version); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "booking deleted", "booking_id", id, "reference", current.Reference)
	s.publish(ctx, "booking_deleted", current, "")
	return nil
}

// RequoteBooking recomputes the total of a pending car rental from the car's
// current tariff.
func (s *BookingService) RequoteBooking(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	car, ok := current.Resource.(domain.CarRef)
	if !ok {
		return nil, ErrRequoteUnsupported
	}
	if current.Status != domain.StatusPending {
		return nil, &lifecycle.TransitionError{Err: lifecycle.ErrBookingImmutable, From: current.Status, To: current.Status}
	}

	quote, err := s.cars.QuoteRental(ctx, car.CarID, current.PickupTime, current.DropoffTime)
	if err != nil {
		return nil, fmt.Errorf("requote booking %s: %w", id, err)
	}
	if quote.Total.Amount.Equal(current.Pricing.Amount) && quote.Total.Currency == current.Pricing.Currency {
		return current, nil
	}

	next := *current
	next.Pricing = quote.Total
	if err := s.bookings.Update(ctx, &next, current.Version); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "booking requoted", "booking_id", id,
		"old_total", current.Pricing.Amount.StringFixed(2), "new_total", next.Pricing.Amount.StringFixed(2))
	s.publish(ctx, "booking_updated", &next, "")
	return &next, nil
}

func (s *BookingService) Voucher(ctx context.Context, id string) ([]byte, string, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	switch current.Status {
	case domain.StatusConfirmed, domain.StatusActive, domain.StatusCompleted:
	default:
		return nil, "", ErrVoucherUnavailable
	}
	return voucher.Render(*current, s.now())
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, previous domain.Status) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := newEvent(eventType, booking, previous, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event",
			"type", eventType, "booking_id", booking.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			s.log.WarnContext(ctx, "failed to publish notification",
				"type", eventType, "booking_id", booking.ID, "error", err)
		}
	}
}

func newEvent(eventType string, b *domain.Booking, previous domain.Status, at time.Time) kafka.BookingEvent {
	emails := make([]string, 0, len(b.Drivers))
	for _, d := range b.Drivers {
		emails = append(emails, d.Email)
	}
	return kafka.BookingEvent{
		Type:           eventType,
		BookingID:      b.ID,
		Reference:      b.Reference,
		ServiceType:    string(b.ServiceType),
		Status:         string(b.Status),
		PreviousStatus: string(previous),
		Emails:         emails,
		PickupLocation: b.PickupLocation,
		PickupTime:     b.PickupTime,
		Total:          b.Pricing.Amount.StringFixed(2),
		Currency:       b.Pricing.Currency,
		OccurredAt:     at,
	}
}

func trimChange(change lifecycle.Change) lifecycle.Change {
	if change.PickupLocation != nil {
		v := strings.TrimSpace(*change.PickupLocation)
		change.PickupLocation = &v
	}
	if change.DropoffLocation != nil {
		v := strings.TrimSpace(*change.DropoffLocation)
		change.DropoffLocation = &v
	}
	return change
}

func outcome(err error) string {
	if err != nil {
		return "rejected"
	}
	return "applied"
}

var _ BookingUseCase = (*BookingService)(nil)
