package handler

import (
	"errors"
	"net/http"
	"time"

	"tour-booking/internal/model"
	"tour-booking/internal/service"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TourHandler 不需要 wizard 的唯讀查詢：月曆與報價試算
type TourHandler struct {
	service service.WizardService
}

func NewTourHandler(service service.WizardService) *TourHandler {
	return &TourHandler{service: service}
}

func (h *TourHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("tours/:id/calendar", h.GetCalendar)
		router.POST("tours/:id/quote", h.Quote)
	}
}

func (h *TourHandler) GetCalendar(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var query model.CalendarQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	cells, err := h.service.Calendar(c, uri.ID, query.Year, time.Month(query.Month), parseDate(query.Selected))
	if err != nil {
		h.handleTourError(c, err, "GetCalendar")
		return
	}

	handleSuccess(c, gin.H{
		"year":  query.Year,
		"month": query.Month,
		"days":  cells,
	}, http.StatusOK)
}

func (h *TourHandler) Quote(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.QuoteRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	breakdown, err := h.service.Quote(c, uri.ID, req.Ages)
	if err != nil {
		h.handleTourError(c, err, "Quote")
		return
	}

	handleSuccess(c, breakdown, http.StatusOK)
}

func (h *TourHandler) handleTourError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTourNotFound):
		log.Warn("Tour not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Tour not found",
		})
	case errors.Is(err, apperrors.ErrInvalidRoster):
		log.Warn("Invalid roster")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid participant roster",
		})
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		log.Error("Availability unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service unavailable",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
