package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_bookings_created_total",
		Help: "Bookings created, by service type.",
	}, []string{"service_type"})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_booking_validation_failures_total",
		Help: "Rejected booking requests, by validation error code.",
	}, []string{"code"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_booking_transitions_total",
		Help: "Requested booking changes, by source and target status and outcome.",
	}, []string{"from", "to", "result"})

	PriceQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_price_quotes_total",
		Help: "Resolved prices, by whether a seasonal rule or the base tariff applied.",
	}, []string{"source"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// QuoteSource labels a resolved price for PriceQuotes.
func QuoteSource(seasonalName string) string {
	if seasonalName != "" {
		return "seasonal"
	}
	return "base"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
