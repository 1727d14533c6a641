package api

import (
	"net/http"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/BurakkYuce/rental-backend/internal/service/cars"
	"github.com/gin-gonic/gin"
)

type CarHandler struct {
	service cars.CarUseCase
}

type quoteQuery struct {
	Date   string `form:"date" binding:"required"`
	Period string `form:"period"`
}

type rentalQuoteQuery struct {
	Pickup  string `form:"pickup" binding:"required"`
	Dropoff string `form:"dropoff" binding:"required"`
}

func NewCarHandler(service cars.CarUseCase) *CarHandler {
	return &CarHandler{service: service}
}

func (h *CarHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/quote", h.quote)
	router.GET("/:id/quote/rental", h.quoteRental)
	router.GET("/:id/seasonal-warnings", h.seasonalWarnings)
}

func (h *CarHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CarHandler) get(c *gin.Context) {
	car, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h *CarHandler) quote(c *gin.Context) {
	var q quoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "InvalidQuery", err)
		return
	}
	period, err := pricing.ParsePeriod(q.Period)
	if err != nil {
		writeError(c, err)
		return
	}

	price, err := h.service.Quote(c.Request.Context(), c.Param("id"), q.Date, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"carId":  c.Param("id"),
		"period": period,
		"price":  price,
	})
}

func (h *CarHandler) quoteRental(c *gin.Context) {
	var q rentalQuoteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "InvalidQuery", err)
		return
	}
	pickup, err := time.Parse(time.RFC3339, q.Pickup)
	if err != nil {
		badRequest(c, "InvalidDateTime", err)
		return
	}
	dropoff, err := time.Parse(time.RFC3339, q.Dropoff)
	if err != nil {
		badRequest(c, "InvalidDateTime", err)
		return
	}

	quote, err := h.service.QuoteRental(c.Request.Context(), c.Param("id"), pickup, dropoff)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *CarHandler) seasonalWarnings(c *gin.Context) {
	report, err := h.service.SeasonalReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
