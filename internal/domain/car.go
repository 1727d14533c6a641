package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Car struct {
	ID            string         `json:"id"`
	Brand         string         `json:"brand"`
	Model         string         `json:"model"`
	Pricing       BasePricing    `json:"pricing"`
	SeasonalRules []SeasonalRule `json:"seasonalPricing"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// BasePricing is the car's regular tariff. Weekly and Monthly may be zero, in
// which case they are derived from Daily.
type BasePricing struct {
	Daily    decimal.Decimal `json:"daily"`
	Weekly   decimal.Decimal `json:"weekly"`
	Monthly  decimal.Decimal `json:"monthly"`
	Currency string          `json:"currency"`
}

// SeasonalRule overrides the base tariff between StartDate and EndDate, both
// inclusive. Dates are kept as entered by the admin panel (DD/MM/YYYY or ISO).
type SeasonalRule struct {
	Name      string          `json:"name"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Daily     decimal.Decimal `json:"daily"`
	Weekly    decimal.Decimal `json:"weekly"`
	Monthly   decimal.Decimal `json:"monthly"`
	Currency  string          `json:"currency,omitempty"`
}
