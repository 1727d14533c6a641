// Package voucher renders the PDF handed to drivers once a booking is
// confirmed.
package voucher

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/phpdave11/gofpdf"
)

const timeLayout = "02/01/2006 15:04 MST"

// Render returns the voucher PDF and its download file name.
func Render(b domain.Booking, issuedAt time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking voucher "+b.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title(b.ServiceType))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines(b, issuedAt) {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Drivers")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	for i, d := range b.Drivers {
		pdf.Cell(0, 7, fmt.Sprintf("%d. %s <%s>, age %d", i+1, d.Name, d.Email, d.Age))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please present this voucher and a valid driving licence at pickup.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render voucher %s: %w", b.Reference, err)
	}
	return buf.Bytes(), fmt.Sprintf("VOUCHER_%s.pdf", b.Reference), nil
}

func title(t domain.ServiceType) string {
	if t == domain.ServiceTypeTransfer {
		return "TRANSFER VOUCHER"
	}
	return "CAR RENTAL VOUCHER"
}

func lines(b domain.Booking, issuedAt time.Time) []string {
	resource := "-"
	if b.Resource != nil {
		resource = b.Resource.ResourceID()
	}
	return []string{
		fmt.Sprintf("Reference : %s", b.Reference),
		fmt.Sprintf("Status    : %s", strings.ToUpper(string(b.Status))),
		fmt.Sprintf("Vehicle   : %s", resource),
		fmt.Sprintf("Pickup    : %s, %s", b.PickupLocation, b.PickupTime.Format(timeLayout)),
		fmt.Sprintf("Dropoff   : %s, %s", b.DropoffLocation, b.DropoffTime.Format(timeLayout)),
		fmt.Sprintf("Total     : %s %s", b.Pricing.Amount.StringFixed(2), b.Pricing.Currency),
		fmt.Sprintf("Issued    : %s", issuedAt.Format(timeLayout)),
	}
}
