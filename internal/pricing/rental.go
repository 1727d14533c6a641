package pricing

import (
	"math"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/calendar"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30
)

// QuoteLine prices one block of a rental starting on Start.
type QuoteLine struct {
	Period Period         `json:"period"`
	Start  calendar.Date  `json:"start"`
	Days   int            `json:"days"`
	Price  EffectivePrice `json:"price"`
}

type RentalQuote struct {
	Total domain.Money `json:"total"`
	Days  int          `json:"days"`
	Lines []QuoteLine  `json:"lines"`
}

// RentalDays counts started 24h periods between pickup and dropoff.
func RentalDays(pickup, dropoff time.Time) int {
	hours := dropoff.Sub(pickup).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// QuoteRental splits the rental into 30-day months, then 7-day weeks, then
// single days, and prices each block on its first calendar day.
func (r *Resolver) QuoteRental(base domain.BasePricing, rules RuleSet, pickup, dropoff time.Time) (RentalQuote, error) {
	if !dropoff.After(pickup) {
		return RentalQuote{}, ErrInvalidRentalRange
	}

	days := RentalDays(pickup, dropoff)
	cursor := calendar.DateOf(pickup)
	remaining := days
	total := decimal.Zero
	currency := ""
	var lines []QuoteLine

	for remaining > 0 {
		period, length := PeriodDaily, 1
		switch {
		case remaining >= daysPerMonth:
			period, length = PeriodMonthly, daysPerMonth
		case remaining >= daysPerWeek:
			period, length = PeriodWeekly, daysPerWeek
		}

		price, err := r.Resolve(base, rules, cursor, period)
		if err != nil {
			return RentalQuote{}, err
		}
		if currency == "" {
			currency = price.Currency
		} else if price.Currency != currency {
			return RentalQuote{}, ErrCurrencyMismatch
		}

		lines = append(lines, QuoteLine{Period: period, Start: cursor, Days: length, Price: price})
		total = total.Add(price.Amount)
		cursor = cursor.AddDays(length)
		remaining -= length
	}

	return RentalQuote{
		Total: domain.Money{Amount: round(total), Currency: currency},
		Days:  days,
		Lines: lines,
	}, nil
}
