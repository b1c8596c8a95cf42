package handler

import (
	"errors"
	"net/http"

	"tour-booking/internal/model"
	"tour-booking/internal/service"
	"tour-booking/internal/wizard"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WizardHandler struct {
	service service.WizardService
}

func NewWizardHandler(service service.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

func (h *WizardHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("tours/:id/wizards", h.OpenWizard)
		router.GET("wizards/:id", h.GetWizard)
		router.PUT("wizards/:id/date", h.SelectDate)
		router.PUT("wizards/:id/participants", h.SetParticipants)
		router.PUT("wizards/:id/contact", h.SetContact)
		router.PUT("wizards/:id/payment", h.SetPayment)
		router.POST("wizards/:id/back", h.Back)
		router.POST("wizards/:id/submit", h.Submit)
		router.POST("wizards/:id/resume", h.Resume)
		router.POST("wizards/:id/retry-payment", h.RetryPayment)
		router.DELETE("wizards/:id", h.CloseWizard)
	}
}

func (h *WizardHandler) OpenWizard(c *gin.Context) {
	var uri model.IDUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.OpenWizardRequest
	if c.Request.ContentLength > 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}

	view, err := h.service.Open(c, uri.ID, parseDate(req.BookingDate))
	if err != nil {
		h.handleWizardError(c, err, "OpenWizard")
		return
	}

	handleSuccess(c, view, http.StatusCreated)
}

func (h *WizardHandler) GetWizard(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	view, err := h.service.Get(c, uri.ID)
	if err != nil {
		h.handleWizardError(c, err, "GetWizard")
		return
	}

	handleSuccess(c, view, http.StatusOK)
}

func (h *WizardHandler) SelectDate(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.SelectDateRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	h.next(c, uri.ID, wizard.DateInput{BookingDate: *parseDate(req.BookingDate)}, "SelectDate")
}

// SetParticipants 沒帶 ages 時只調整人數，不前進；人數超出範圍回 422
func (h *WizardHandler) SetParticipants(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.ParticipantsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if req.Ages == nil {
		view, err := h.service.SetParticipantCount(c, uri.ID, req.Count)
		if err != nil {
			h.handleWizardError(c, err, "SetParticipantCount")
			return
		}
		h.handleViewSuccess(c, view)
		return
	}

	h.next(c, uri.ID, wizard.ParticipantsInput{Count: req.Count, Ages: req.Ages}, "SetParticipants")
}

func (h *WizardHandler) SetContact(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.ContactRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	h.next(c, uri.ID, wizard.ContactInput{
		Contact: model.Contact{
			Name:             req.Name,
			Email:            req.Email,
			Phone:            req.Phone,
			EmergencyContact: req.EmergencyContact,
		},
		SpecialRequests: req.SpecialRequests,
	}, "SetContact")
}

func (h *WizardHandler) SetPayment(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.PaymentRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	h.next(c, uri.ID, wizard.PaymentInput{Method: req.Method, TermsAccepted: req.TermsAccepted}, "SetPayment")
}

func (h *WizardHandler) Back(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	view, err := h.service.Back(c, uri.ID)
	if err != nil {
		h.handleWizardError(c, err, "Back")
		return
	}

	handleSuccess(c, view, http.StatusOK)
}

func (h *WizardHandler) Submit(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	view, err := h.service.Submit(c, uri.ID)
	if err != nil {
		h.handleWizardError(c, err, "Submit")
		return
	}

	h.handleViewSuccess(c, view)
}

func (h *WizardHandler) Resume(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	view, err := h.service.Resume(c, uri.ID)
	if err != nil {
		h.handleWizardError(c, err, "Resume")
		return
	}

	handleSuccess(c, view, http.StatusOK)
}

func (h *WizardHandler) RetryPayment(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}
	var req model.RetryPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}

	view, err := h.service.RetryPayment(c, uri.ID, wizard.RetryPaymentInput{Phone: req.Phone, Method: req.Method})
	if err != nil {
		h.handleWizardError(c, err, "RetryPayment")
		return
	}

	h.handleViewSuccess(c, view)
}

func (h *WizardHandler) CloseWizard(c *gin.Context) {
	var uri model.WizardUri
	if err := BindUri(c, &uri); err != nil {
		return
	}

	if err := h.service.Close(c, uri.ID); err != nil {
		h.handleWizardError(c, err, "CloseWizard")
		return
	}

	handleSuccess(c, nil, http.StatusNoContent)
}

func (h *WizardHandler) next(c *gin.Context, id string, input wizard.StepInput, operation string) {
	view, err := h.service.Next(c, id, input)
	if err != nil {
		h.handleWizardError(c, err, operation)
		return
	}

	h.handleViewSuccess(c, view)
}

// Helper functions

// handleViewSuccess 欄位驗證未通過回 422，body 仍是完整 view 讓前端顯示錯誤
func (h *WizardHandler) handleViewSuccess(c *gin.Context, view *service.WizardView) {
	if view.Validation != nil && !view.Validation.OK {
		handleSuccess(c, view, http.StatusUnprocessableEntity)
		return
	}
	handleSuccess(c, view, http.StatusOK)
}

func (h *WizardHandler) handleWizardError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrWizardNotFound):
		log.Warn("Wizard not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Wizard not found",
		})
	case errors.Is(err, apperrors.ErrTourNotFound):
		log.Warn("Tour not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Tour not found",
		})
	case errors.Is(err, apperrors.ErrSubmissionInFlight):
		log.Warn("Submission in flight")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Submission in flight",
		})
	case service.IsCallerError(err):
		log.Warn("Illegal wizard transition")
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
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
