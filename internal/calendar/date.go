// Package calendar normalizes the date notations accepted by the admin panel
// and the public API into a single timezone-naive calendar date.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDateFormat = errors.New("invalid date format")

// ParseError reports the input that could not be read as a calendar date.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidDateFormat, e.Input)
}

func (e *ParseError) Unwrap() error { return ErrInvalidDateFormat }

// Date is a calendar day without time of day or location. The zero value is
// not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for year/month/day, or a ParseError when the triple
// does not exist on the calendar (month 13, 31 April, 29 February 2025).
func New(year int, month time.Month, day int) (Date, error) {
	if year < 1 || month < time.January || month > time.December || day < 1 {
		return Date{}, &ParseError{Input: fmt.Sprintf("%04d-%02d-%02d", year, month, day)}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, &ParseError{Input: fmt.Sprintf("%04d-%02d-%02d", year, month, day)}
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(year int, month time.Month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse reads DD/MM/YYYY when the input contains a slash, otherwise
// YYYY-MM-DD or a full ISO-8601 timestamp whose date portion is kept as is.
func Parse(input string) (Date, error) {
	s := strings.TrimSpace(input)
	switch {
	case strings.Contains(s, "/"):
		return parseDayFirst(input, s)
	case strings.Contains(s, "-"):
		return parseISO(input, s)
	default:
		return Date{}, &ParseError{Input: input}
	}
}

// MustParse is Parse for literals known to be valid.
func MustParse(input string) Date {
	d, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return d
}

func parseDayFirst(input, s string) (Date, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[2]) != 4 || len(parts[0]) > 2 || len(parts[1]) > 2 {
		return Date{}, &ParseError{Input: input}
	}
	day, okDay := atoi(parts[0])
	month, okMonth := atoi(parts[1])
	year, okYear := atoi(parts[2])
	if !okDay || !okMonth || !okYear {
		return Date{}, &ParseError{Input: input}
	}
	d, err := New(year, time.Month(month), day)
	if err != nil {
		return Date{}, &ParseError{Input: input}
	}
	return d, nil
}

func parseISO(input, s string) (Date, error) {
	if len(s) < 10 {
		return Date{}, &ParseError{Input: input}
	}
	if len(s) > 10 {
		if sep := s[10]; sep != 'T' && sep != 't' && sep != ' ' {
			return Date{}, &ParseError{Input: input}
		}
		if !validClock(s[11:]) {
			return Date{}, &ParseError{Input: input}
		}
	}
	datePart := s[:10]
	if datePart[4] != '-' || datePart[7] != '-' {
		return Date{}, &ParseError{Input: input}
	}
	year, okYear := atoi(datePart[0:4])
	month, okMonth := atoi(datePart[5:7])
	day, okDay := atoi(datePart[8:10])
	if !okDay || !okMonth || !okYear {
		return Date{}, &ParseError{Input: input}
	}
	d, err := New(year, time.Month(month), day)
	if err != nil {
		return Date{}, &ParseError{Input: input}
	}
	return d, nil
}

// clockLayouts are the time-of-day forms accepted after the date. Fractional
// seconds are matched by time.Parse without being spelled out.
var clockLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05Z0700",
	"15:04:05",
	"15:04Z07:00",
	"15:04",
}

func validClock(s string) bool {
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 as d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// Within reports whether start <= d <= end.
func (d Date) Within(start, end Date) bool {
	return d.Compare(start) >= 0 && d.Compare(end) <= 0
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
