package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/Hanafy91/buddytour/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	Reference     string `json:"reference"`
	TourID        int64  `json:"tour_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CreatedAt     string `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:ref", h.status)
}

func (h *BookingHandler) RegisterAvailability(router *gin.RouterGroup) {
	router.GET("/", h.availability)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.ReserveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tour reserved successfully. Awaiting payment.",
		"booking": toBookingResponse(created),
	})
}

func (h *BookingHandler) status(c *gin.Context) {
	found, err := h.service.Status(c.Request.Context(), c.Param("ref"))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) availability(c *gin.Context) {
	tourID, err := strconv.ParseInt(c.Query("tour_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tour_id"})
		return
	}
	slot := domain.Slot{TourID: tourID, Date: c.Query("date"), Time: c.Query("time")}
	if slot.Date == "" || slot.Time == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and time are required"})
		return
	}

	remaining, err := h.service.Availability(c.Request.Context(), slot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tour_id": tourID, "date": slot.Date, "time": slot.Time, "remaining": remaining})
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Reference:     b.Reference,
		TourID:        b.TourID,
		Date:          b.Date,
		Time:          b.Time,
		Adults:        b.Adults,
		Children:      b.Children,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
