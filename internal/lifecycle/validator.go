package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CreateRequest is a booking request as received from the API, already
// authenticated and sanitized upstream. Times are RFC 3339 strings.
type CreateRequest struct {
	ServiceType     string
	CarID           string
	TransferID      string
	Drivers         []domain.Driver
	PickupLocation  string
	DropoffLocation string
	PickupTime      string
	DropoffTime     string
	Pricing         *PricingInput
}

type PricingInput struct {
	Total    decimal.Decimal
	Currency string
}

// ValidatedInput is a request that passed every check. Resource is typed, so
// the car/transfer id always matches the service type.
type ValidatedInput struct {
	Resource        domain.Resource
	Drivers         []domain.Driver
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	DropoffTime     time.Time
	Pricing         domain.Money
}

func (in ValidatedInput) ServiceType() domain.ServiceType {
	return in.Resource.ServiceType()
}

type Clock func() time.Time

type Validator struct {
	now      Clock
	validate *validator.Validate
}

func NewValidator(now Clock) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now, validate: validator.New()}
}

// Validate runs every check and returns all violations at once as
// ValidationErrors. Only the first driver with a bad e-mail is reported.
func (v *Validator) Validate(req CreateRequest) (ValidatedInput, error) {
	var errs ValidationErrors
	out := ValidatedInput{
		Drivers:         req.Drivers,
		PickupLocation:  strings.TrimSpace(req.PickupLocation),
		DropoffLocation: strings.TrimSpace(req.DropoffLocation),
	}

	serviceType := domain.ServiceType(req.ServiceType)
	switch serviceType {
	case domain.ServiceTypeCarRental:
		if strings.TrimSpace(req.CarID) == "" {
			errs.add("carId", ErrMissingCarID)
		} else {
			out.Resource = domain.CarRef{CarID: strings.TrimSpace(req.CarID)}
		}
	case domain.ServiceTypeTransfer:
		if strings.TrimSpace(req.TransferID) == "" {
			errs.add("transferId", ErrMissingTransferID)
		} else {
			out.Resource = domain.TransferRef{TransferID: strings.TrimSpace(req.TransferID)}
		}
	default:
		errs.add("serviceType", ErrInvalidServiceType)
	}

	v.checkDrivers(req.Drivers, &errs)
	checkLocation("pickupLocation", out.PickupLocation, &errs)
	checkLocation("dropoffLocation", out.DropoffLocation, &errs)

	pickup, pickupOK := parseInstant("pickupTime", req.PickupTime, &errs)
	dropoff, dropoffOK := parseInstant("dropoffTime", req.DropoffTime, &errs)
	if pickupOK && !pickup.After(v.now()) {
		errs.add("pickupTime", ErrPickupInPast)
	}
	if pickupOK && dropoffOK && !dropoff.After(pickup) {
		errs.add("dropoffTime", ErrDropoffBeforePickup)
	}
	out.PickupTime, out.DropoffTime = pickup, dropoff

	if req.Pricing == nil || !req.Pricing.Total.IsPositive() {
		errs.add("pricing.total", ErrInvalidPricing)
	} else {
		out.Pricing = domain.Money{Amount: req.Pricing.Total.Round(2), Currency: req.Pricing.Currency}
	}

	if len(errs) > 0 {
		return ValidatedInput{}, errs
	}
	return out, nil
}

// ValidateChange checks the new values of an edit request with the same
// driver and location rules as creation.
func (v *Validator) ValidateChange(change Change) error {
	var errs ValidationErrors
	if change.Drivers != nil {
		v.checkDrivers(change.Drivers, &errs)
	}
	if change.PickupLocation != nil {
		checkLocation("pickupLocation", strings.TrimSpace(*change.PickupLocation), &errs)
	}
	if change.DropoffLocation != nil {
		checkLocation("dropoffLocation", strings.TrimSpace(*change.DropoffLocation), &errs)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) checkDrivers(drivers []domain.Driver, errs *ValidationErrors) {
	if len(drivers) == 0 {
		errs.add("drivers", ErrMissingDrivers)
		return
	}
	for i, d := range drivers {
		if err := v.validate.Var(d.Email, "required,email"); err != nil {
			errs.add(driverField(i), ErrInvalidEmailFormat)
			return
		}
	}
}

func driverField(i int) string {
	return fmt.Sprintf("drivers[%d].email", i)
}

func checkLocation(field, value string, errs *ValidationErrors) {
	if value == "" {
		errs.add(field, ErrMissingLocation)
	}
}

func parseInstant(field, value string, errs *ValidationErrors) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		errs.add(field, ErrInvalidDateTime)
		return time.Time{}, false
	}
	return t, true
}

// NewBooking builds the pending booking for a validated request. The
// sequence comes from storage so that reference codes stay unique.
func NewBooking(in ValidatedInput, id string, seq int64, now time.Time) domain.Booking {
	drivers := make([]domain.Driver, len(in.Drivers))
	copy(drivers, in.Drivers)
	return domain.Booking{
		ID:              id,
		ServiceType:     in.ServiceType(),
		Resource:        in.Resource,
		Drivers:         drivers,
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		PickupTime:      in.PickupTime,
		DropoffTime:     in.DropoffTime,
		Pricing:         in.Pricing,
		Status:          domain.StatusPending,
		Reference:       FormatReference(in.ServiceType(), seq),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
