// Package pricing resolves the price of a car for a calendar day from its
// base tariff and seasonal overrides.
package pricing

import (
	"errors"
	"fmt"

	"github.com/BurakkYuce/rental-backend/internal/calendar"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	case "":
		return PeriodDaily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

var (
	ErrInvalidPeriod      = errors.New("invalid pricing period")
	ErrInvalidBasePricing = errors.New("base daily price must be positive")
	ErrInvalidRentalRange = errors.New("dropoff must be after pickup")
	ErrCurrencyMismatch   = errors.New("quote spans prices in different currencies")
)

// Multipliers derive weekly and monthly prices from the daily one when the
// car has no explicit value for that period.
type Multipliers struct {
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
}

// DefaultMultipliers is the only pair applied across the service: a week is
// seven days and a month thirty.
var DefaultMultipliers = Multipliers{
	Weekly:  decimal.NewFromInt(7),
	Monthly: decimal.NewFromInt(30),
}

// EffectivePrice is the price selected for one day and period.
// SeasonalName is empty when the base tariff applied.
type EffectivePrice struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	SeasonalName string          `json:"seasonalName,omitempty"`
}

type Resolver struct {
	multipliers Multipliers
}

type Option func(*Resolver)

func WithMultipliers(m Multipliers) Option {
	return func(r *Resolver) {
		if m.Weekly.IsPositive() {
			r.multipliers.Weekly = m.Weekly
		}
		if m.Monthly.IsPositive() {
			r.multipliers.Monthly = m.Monthly
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{multipliers: DefaultMultipliers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the seasonal price covering date when it defines the period,
// and otherwise the base price, deriving weekly/monthly from daily if unset.
func (r *Resolver) Resolve(base domain.BasePricing, rules RuleSet, date calendar.Date, period Period) (EffectivePrice, error) {
	if _, err := ParsePeriod(string(period)); err != nil || period == "" {
		return EffectivePrice{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	if rule, ok := rules.Cover(date); ok {
		if amount := periodValue(rule.Daily, rule.Weekly, rule.Monthly, period); amount.IsPositive() {
			currency := rule.Currency
			if currency == "" {
				currency = base.Currency
			}
			return EffectivePrice{Amount: round(amount), Currency: currency, SeasonalName: rule.Name}, nil
		}
	}

	amount := periodValue(base.Daily, base.Weekly, base.Monthly, period)
	if !amount.IsPositive() {
		if !base.Daily.IsPositive() {
			return EffectivePrice{}, ErrInvalidBasePricing
		}
		amount = base.Daily.Mul(r.multiplier(period))
	}
	return EffectivePrice{Amount: round(amount), Currency: base.Currency}, nil
}

func (r *Resolver) multiplier(period Period) decimal.Decimal {
	switch period {
	case PeriodWeekly:
		return r.multipliers.Weekly
	case PeriodMonthly:
		return r.multipliers.Monthly
	default:
		return decimal.NewFromInt(1)
	}
}

func periodValue(daily, weekly, monthly decimal.Decimal, period Period) decimal.Decimal {
	switch period {
	case PeriodWeekly:
		return weekly
	case PeriodMonthly:
		return monthly
	default:
		return daily
	}
}

// round applies half-up rounding to cents; amounts are never negative here.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var defaultResolver = NewResolver()

// Quote resolves the price of a stored car tariff for a date written in any
// accepted notation.
func Quote(base domain.BasePricing, rules []domain.SeasonalRule, date string, period Period) (EffectivePrice, error) {
	day, err := calendar.Parse(date)
	if err != nil {
		return EffectivePrice{}, err
	}
	return defaultResolver.Resolve(base, NewRuleSet(rules), day, period)
}
