package api

import (
	"errors"
	"net/http"

	"github.com/BurakkYuce/rental-backend/internal/calendar"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/BurakkYuce/rental-backend/internal/lifecycle"
	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/BurakkYuce/rental-backend/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type fieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrBookingNotFound, http.StatusNotFound, "BookingNotFound"},
	{domain.ErrCarNotFound, http.StatusNotFound, "CarNotFound"},
	{domain.ErrVersionConflict, http.StatusConflict, "VersionConflict"},
	{booking.ErrVoucherUnavailable, http.StatusConflict, "VoucherUnavailable"},
	{booking.ErrRequoteUnsupported, http.StatusConflict, "RequoteUnsupported"},
	{calendar.ErrInvalidDateFormat, http.StatusBadRequest, "InvalidDateFormat"},
	{pricing.ErrInvalidPeriod, http.StatusBadRequest, "InvalidPeriod"},
	{pricing.ErrInvalidRentalRange, http.StatusBadRequest, "InvalidRentalRange"},
	{pricing.ErrInvalidBasePricing, http.StatusUnprocessableEntity, "InvalidBasePricing"},
	{pricing.ErrCurrencyMismatch, http.StatusUnprocessableEntity, "CurrencyMismatch"},
}

// writeError maps service errors to a status code and a JSON body. Anything
// unknown is a 500 and is attached to the context for the request logger.
func writeError(c *gin.Context, err error) {
	var verrs lifecycle.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, v := range verrs {
			out = append(out, fieldError{Code: v.Code(), Field: v.Field, Message: v.Err.Error()})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": out})
		return
	}

	var terr *lifecycle.TransitionError
	if errors.As(err, &terr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"code":  lifecycle.Code(terr.Err),
			"from":  terr.From,
			"to":    terr.To,
		})
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error(), "code": e.code})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": code})
}
