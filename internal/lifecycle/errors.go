package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurakkYuce/rental-backend/internal/domain"
)

var (
	ErrInvalidServiceType  = errors.New("service type must be car_rental or transfer")
	ErrMissingCarID        = errors.New("carId is required for car rental bookings")
	ErrMissingTransferID   = errors.New("transferId is required for transfer bookings")
	ErrMissingDrivers      = errors.New("at least one driver is required")
	ErrInvalidEmailFormat  = errors.New("invalid email format")
	ErrMissingLocation     = errors.New("location is required")
	ErrInvalidDateTime     = errors.New("time must be an RFC 3339 timestamp")
	ErrPickupInPast        = errors.New("pickup time must be in the future")
	ErrDropoffBeforePickup = errors.New("dropoff time must be after pickup time")
	ErrInvalidPricing      = errors.New("pricing total must be positive")
)

var (
	ErrInvalidStatusTransition      = errors.New("invalid status transition")
	ErrBookingImmutable             = errors.New("drivers and locations can only be changed while the booking is pending")
	ErrCannotDeleteConfirmedBooking = errors.New("only pending bookings can be deleted")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidServiceType, "InvalidServiceType"},
	{ErrMissingCarID, "MissingCarId"},
	{ErrMissingTransferID, "MissingTransferId"},
	{ErrMissingDrivers, "MissingDrivers"},
	{ErrInvalidEmailFormat, "InvalidEmailFormat"},
	{ErrMissingLocation, "MissingLocation"},
	{ErrInvalidDateTime, "InvalidDateTime"},
	{ErrPickupInPast, "PickupInPast"},
	{ErrDropoffBeforePickup, "DropoffBeforePickup"},
	{ErrInvalidPricing, "InvalidPricing"},
	{ErrInvalidStatusTransition, "InvalidStatusTransition"},
	{ErrBookingImmutable, "BookingImmutable"},
	{ErrCannotDeleteConfirmedBooking, "CannotDeleteConfirmedBooking"},
}

// Code returns the stable machine-readable name of a lifecycle error, or ""
// when err is not one of them.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Code() string { return Code(e.Err) }

// ValidationErrors is every violation found in one request, in check order.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

func (v *ValidationErrors) add(field string, err error) {
	*v = append(*v, &ValidationError{Field: field, Err: err})
}

// TransitionError carries the attempted status pair. For field edits To
// equals From.
type TransitionError struct {
	Err  error
	From domain.Status
	To   domain.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", e.Err, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return e.Err }
