package api

import (
	"net/http"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/BurakkYuce/rental-backend/internal/lifecycle"
	"github.com/BurakkYuce/rental-backend/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type pricingRequest struct {
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

type createBookingRequest struct {
	ServiceType     string          `json:"serviceType"`
	CarID           string          `json:"carId"`
	TransferID      string          `json:"transferId"`
	Drivers         []domain.Driver `json:"drivers"`
	PickupLocation  string          `json:"pickupLocation"`
	DropoffLocation string          `json:"dropoffLocation"`
	PickupTime      string          `json:"pickupTime"`
	DropoffTime     string          `json:"dropoffTime"`
	Pricing         *pricingRequest `json:"pricing"`
}

// updateBookingRequest leaves absent fields untouched. An empty drivers list
// is rejected rather than treated as absent.
type updateBookingRequest struct {
	Status          *domain.Status  `json:"status"`
	Drivers         []domain.Driver `json:"drivers"`
	PickupLocation  *string         `json:"pickupLocation"`
	DropoffLocation *string         `json:"dropoffLocation"`
}

type listBookingsQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=pending confirmed active completed cancelled"`
	ServiceType string `form:"serviceType" binding:"omitempty,oneof=car_rental transfer"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

type bookingResponse struct {
	ID               string          `json:"id"`
	ServiceType      string          `json:"serviceType"`
	CarID            string          `json:"carId,omitempty"`
	TransferID       string          `json:"transferId,omitempty"`
	Drivers          []domain.Driver `json:"drivers"`
	PickupLocation   string          `json:"pickupLocation"`
	DropoffLocation  string          `json:"dropoffLocation"`
	PickupTime       string          `json:"pickupTime"`
	DropoffTime      string          `json:"dropoffTime"`
	Pricing          pricingResponse `json:"pricing"`
	Status           string          `json:"status"`
	BookingReference string          `json:"bookingReference"`
	Version          int64           `json:"version"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}

type pricingResponse struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, idempotent ...gin.HandlerFunc) {
	router.POST("", append(idempotent, h.create)...)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.POST("/:id/requote", h.requote)
	router.GET("/:id/voucher", h.voucher)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "InvalidBody", err)
		return
	}

	in := lifecycle.CreateRequest{
		ServiceType:     req.ServiceType,
		CarID:           req.CarID,
		TransferID:      req.TransferID,
		Drivers:         req.Drivers,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupTime:      req.PickupTime,
		DropoffTime:     req.DropoffTime,
	}
	if req.Pricing != nil {
		in.Pricing = &lifecycle.PricingInput{Total: req.Pricing.Total, Currency: req.Pricing.Currency}
	}

	created, err := h.service.CreateBooking(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	var q listBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "InvalidQuery", err)
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), domain.BookingFilter{
		Status:      domain.Status(q.Status),
		ServiceType: domain.ServiceType(q.ServiceType),
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "InvalidBody", err)
		return
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), lifecycle.Change{
		Status:          req.Status,
		Drivers:         req.Drivers,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) delete(c *gin.Context) {
	if err := h.service.DeleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) requote(c *gin.Context) {
	updated, err := h.service.RequoteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) voucher(c *gin.Context) {
	pdf, name, err := h.service.Voucher(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:               b.ID,
		ServiceType:      string(b.ServiceType),
		Drivers:          b.Drivers,
		PickupLocation:   b.PickupLocation,
		DropoffLocation:  b.DropoffLocation,
		PickupTime:       b.PickupTime.Format(time.RFC3339),
		DropoffTime:      b.DropoffTime.Format(time.RFC3339),
		Pricing:          pricingResponse{Total: b.Pricing.Amount.StringFixed(2), Currency: b.Pricing.Currency},
		Status:           string(b.Status),
		BookingReference: b.Reference,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        b.UpdatedAt.Format(time.RFC3339),
	}
	switch r := b.Resource.(type) {
	case domain.CarRef:
		resp.CarID = r.CarID
	case domain.TransferRef:
		resp.TransferID = r.TransferID
	}
	if resp.Drivers == nil {
		resp.Drivers = []domain.Driver{}
	}
	return resp
}
