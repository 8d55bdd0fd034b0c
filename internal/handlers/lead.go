package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) ListLeads(c *gin.Context) {
	dbq := database.DB.WithContext(c.Request.Context()).Order("created_at desc")

	if status := c.Query("status"); status != "" {
		if !models.LeadStatus(status).Valid() {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		dbq = dbq.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		dbq = dbq.Where("source = ?", source)
	}

	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	var leads []models.ContactSubmission
	if err := dbq.Limit(limit).Find(&leads).Error; err != nil {
		h.internalError(c, "failed to load leads", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

type updateLeadRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateLead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if !req.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	var lead models.ContactSubmission
	err := database.DB.First(&lead, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "lead not found")
		return
	}
	if err != nil {
		h.internalError(c, "failed to load lead", err)
		return
	}

	prev := lead.Status
	lead.Status = req.Status
	if err := database.DB.Save(&lead).Error; err != nil {
		h.internalError(c, "failed to update lead", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "lead", lead.ID, "status_change",
		"Status changed: "+string(prev)+" -> "+string(lead.Status))
	c.JSON(http.StatusOK, lead)
}
