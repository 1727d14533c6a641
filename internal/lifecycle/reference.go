package lifecycle

import (
	"fmt"

	"github.com/BurakkYuce/rental-backend/internal/domain"
)

// FormatReference renders the human-readable booking code: BK for car
// rentals, TR for transfers, followed by the zero-padded sequence. Storage
// sequences start at 1; anything below zero renders as zero.
func FormatReference(serviceType domain.ServiceType, seq int64) string {
	prefix := "BK"
	if serviceType == domain.ServiceTypeTransfer {
		prefix = "TR"
	}
	if seq < 0 {
		seq = 0
	}
	return fmt.Sprintf("%s%06d", prefix, seq)
}
