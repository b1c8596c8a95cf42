package handler

import (
	"errors"
	"net/http"

	"tour-booking/internal/model"
	"tour-booking/internal/service"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("bookings/:id", h.GetBooking)
		router.GET("bookings/:id/payments", h.GetPayments)
		router.POST("bookings/:id/payments", h.RetryPayment)
	}
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	booking, err := h.service.GetBooking(c, uri.ID)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	handleSuccess(c, booking, http.StatusOK)
}

func (h *BookingHandler) GetPayments(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	payments, err := h.service.ListPayments(c, uri.ID)
	if err != nil {
		h.handleBookingError(c, err, "GetPayments")
		return
	}

	handleSuccess(c, payments, http.StatusOK)
}

// RetryPayment wizard 已關閉後，對未付款預約重新推播付款
func (h *BookingHandler) RetryPayment(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.RetryPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}

	outcome, err := h.service.RetryPayment(c, uri.ID, req.Phone, req.Method)
	if err != nil {
		h.handleBookingError(c, err, "RetryPayment")
		return
	}

	view := service.NewOutcomeView(outcome)
	if !outcome.IsCommitted() {
		handleSuccess(c, view, http.StatusPaymentRequired)
		return
	}
	handleSuccess(c, view, http.StatusCreated)
}

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Booking not found",
		})
	case errors.Is(err, apperrors.ErrValidation):
		log.Warn("Invalid payment retry")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrInvalidBookingStatus):
		log.Warn("Invalid booking status")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Booking is not awaiting payment",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
