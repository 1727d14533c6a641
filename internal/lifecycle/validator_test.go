package lifecycle

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(func() time.Time { return fixedNow })
}

func validCarRequest() CreateRequest {
	return CreateRequest{
		ServiceType:     "car_rental",
		CarID:           "car-1",
		Drivers:         []domain.Driver{{Name: "Mehmet", Email: "mehmet@example.com", Age: 33}},
		PickupLocation:  "Antalya Airport",
		DropoffLocation: "Antalya Airport",
		PickupTime:      "2025-12-15T10:00:00Z",
		DropoffTime:     "2025-12-20T10:00:00Z",
		Pricing:         &PricingInput{Total: decimal.NewFromInt(250), Currency: "EUR"},
	}
}

func codesOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, e.Code())
	}
	return out
}

func TestValidate_CarRentalSuccess(t *testing.T) {
	in, err := newTestValidator().Validate(validCarRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.ServiceTypeCarRental, in.ServiceType())
	assert.Equal(t, domain.CarRef{CarID: "car-1"}, in.Resource)
	assert.True(t, in.DropoffTime.After(in.PickupTime))

	booking := NewBooking(in, "id-1", 17, fixedNow)
	assert.Equal(t, domain.StatusPending, booking.Status)
	assert.Regexp(t, regexp.MustCompile(`^BK\d+$`), booking.Reference)
	assert.Equal(t, int64(1), booking.Version)
	assert.Equal(t, fixedNow, booking.CreatedAt)
}

func TestValidate_TransferSuccess(t *testing.T) {
	req := validCarRequest()
	req.ServiceType = "transfer"
	req.CarID = ""
	req.TransferID = "tr-9"

	in, err := newTestValidator().Validate(req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferRef{TransferID: "tr-9"}, in.Resource)

	booking := NewBooking(in, "id-2", 3, fixedNow)
	assert.Regexp(t, `^TR\d+$`, booking.Reference)
}

func TestValidate_TransferWithoutTransferID(t *testing.T) {
	req := validCarRequest()
	req.ServiceType = "transfer"

	_, err := newTestValidator().Validate(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTransferID)
	assert.Equal(t, []string{"MissingTransferId"}, codesOf(t, err))
}

func TestValidate_SingleViolations(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CreateRequest)
		code   string
	}{
		{"unknown service type", func(r *CreateRequest) { r.ServiceType = "boat" }, "InvalidServiceType"},
		{"missing service type", func(r *CreateRequest) { r.ServiceType = "" }, "InvalidServiceType"},
		{"missing car id", func(r *CreateRequest) { r.CarID = "  " }, "MissingCarId"},
		{"no drivers", func(r *CreateRequest) { r.Drivers = nil }, "MissingDrivers"},
		{"bad email", func(r *CreateRequest) { r.Drivers[0].Email = "mehmet.example.com" }, "InvalidEmailFormat"},
		{"email without tld", func(r *CreateRequest) { r.Drivers[0].Email = "mehmet@" }, "InvalidEmailFormat"},
		{"empty pickup location", func(r *CreateRequest) { r.PickupLocation = " " }, "MissingLocation"},
		{"unparseable pickup", func(r *CreateRequest) { r.PickupTime = "15/12/2025" }, "InvalidDateTime"},
		{"pickup in past", func(r *CreateRequest) {
			r.PickupTime = "2025-11-30T10:00:00Z"
		}, "PickupInPast"},
		{"pickup exactly now", func(r *CreateRequest) {
			r.PickupTime = fixedNow.Format(time.RFC3339)
		}, "PickupInPast"},
		{"dropoff equals pickup", func(r *CreateRequest) { r.DropoffTime = r.PickupTime }, "DropoffBeforePickup"},
		{"dropoff before pickup", func(r *CreateRequest) { r.DropoffTime = "2025-12-14T10:00:00Z" }, "DropoffBeforePickup"},
		{"missing pricing", func(r *CreateRequest) { r.Pricing = nil }, "InvalidPricing"},
		{"zero total", func(r *CreateRequest) { r.Pricing.Total = decimal.Zero }, "InvalidPricing"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCarRequest()
			tc.mutate(&req)

			_, err := newTestValidator().Validate(req)
			require.Error(t, err)
			assert.Equal(t, []string{tc.code}, codesOf(t, err))
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	req := CreateRequest{
		ServiceType: "car_rental",
		Drivers: []domain.Driver{
			{Name: "A", Email: "ok@example.com"},
			{Name: "B", Email: "broken"},
			{Name: "C", Email: "also-broken"},
		},
		PickupTime:  "2025-11-01T10:00:00Z",
		DropoffTime: "2025-10-01T10:00:00Z",
	}

	_, err := newTestValidator().Validate(req)
	require.Error(t, err)

	assert.Equal(t, []string{
		"MissingCarId",
		"InvalidEmailFormat",
		"MissingLocation",
		"MissingLocation",
		"PickupInPast",
		"DropoffBeforePickup",
		"InvalidPricing",
	}, codesOf(t, err))

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "drivers[1].email", verrs[1].Field)
	assert.ErrorIs(t, err, ErrPickupInPast)
}

func TestValidate_AcceptedBookingsKeepOrdering(t *testing.T) {
	v := newTestValidator()
	base := time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)

	for h := 0; h < 48; h++ {
		for d := -3; d <= 3; d++ {
			req := validCarRequest()
			pickup := base.Add(time.Duration(h) * time.Hour)
			req.PickupTime = pickup.Format(time.RFC3339)
			req.DropoffTime = pickup.Add(time.Duration(d) * time.Hour).Format(time.RFC3339)

			in, err := v.Validate(req)
			if err != nil {
				continue
			}
			assert.True(t, in.DropoffTime.After(in.PickupTime))
		}
	}
}

func TestValidateChange(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.ValidateChange(Change{PickupLocation: strPtr("Side")}))
	assert.NoError(t, v.ValidateChange(Change{Status: statusPtr(domain.StatusConfirmed)}))

	err := v.ValidateChange(Change{Drivers: []domain.Driver{}, DropoffLocation: strPtr("")})
	require.Error(t, err)
	assert.Equal(t, []string{"MissingDrivers", "MissingLocation"}, codesOf(t, err))
}
