package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"agency-portal/internal/database"
	"agency-portal/internal/logger"
	"agency-portal/internal/metrics"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Phone   string `json:"phone" binding:"max=50"`
	Company string `json:"company" binding:"max=255"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
	Source  string `json:"source" binding:"max=50"`
	Locale  string `json:"locale" binding:"max=16"`
}

// SendEmail обрабатывает простую контактную форму: сохранить заявку и разослать письма.
func (h *Handler) SendEmail(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = models.SourceContactForm
	}

	lead := &models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.Company),
		Message: strings.TrimSpace(req.Message),
		Status:  models.LeadNew,
		Source:  source,
		Locale:  req.Locale,
	}
	if err := h.recordLead(c, lead); err != nil {
		h.internalError(c, "failed to store contact submission", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": lead.ID})
}

// recordLead сохраняет заявку; пересылка в Convex и письма не влияют на ответ.
func (h *Handler) recordLead(c *gin.Context, lead *models.ContactSubmission) error {
	log := h.log(c)

	if err := database.DB.WithContext(c.Request.Context()).Create(lead).Error; err != nil {
		return err
	}
	metrics.IncrementLead(h.leadSourceLabel(lead.Source))
	log.Info("lead stored",
		zap.Uint("lead_id", lead.ID),
		zap.String("source", lead.Source),
		logger.Email(lead.Email),
	)

	if h.Forwarder != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		if err := h.Forwarder.ForwardLead(ctx, lead); err != nil {
			log.Warn("failed to forward lead to convex", zap.Uint("lead_id", lead.ID), zap.Error(err))
		}
		cancel()
	}

	if h.Mailer != nil {
		if err := h.Mailer.NotifyLead(lead); err != nil {
			log.Error("failed to queue lead emails", zap.Uint("lead_id", lead.ID), zap.Error(err))
		}
	}
	return nil
}

// source приходит от клиента, в метрику попадают только известные значения
func (h *Handler) leadSourceLabel(source string) string {
	if source == models.SourceContactForm || (h.Catalog != nil && h.Catalog.HasSource(source)) {
		return source
	}
	return metrics.SourceOther
}
