package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BurakkYuce/rental-backend/internal/kafka"
)

// Sender delivers booking notifications to drivers. Delivery is a log line
// until an SMTP relay is configured.
type Sender struct {
	log *slog.Logger
}

func NewSender(log *slog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject := Subject(event)
	for _, to := range event.Emails {
		s.log.InfoContext(ctx, "send email",
			"to", to,
			"subject", subject,
			"booking_id", event.BookingID,
			"event", event.Type,
		)
	}
	return nil
}

// Subject renders the e-mail subject line for a booking event.
func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case "booking_created":
		return fmt.Sprintf("Booking %s received", event.Reference)
	case "booking_status_changed":
		return fmt.Sprintf("Booking %s is now %s", event.Reference, event.Status)
	case "booking_deleted":
		return fmt.Sprintf("Booking %s was removed", event.Reference)
	default:
		return fmt.Sprintf("Booking %s updated", event.Reference)
	}
}
