package handlers

import (
	"net/http"
	"strconv"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAuditLogs(c *gin.Context) {
	dbq := database.DB.WithContext(c.Request.Context()).
		Preload("User").
		Order("created_at desc, id desc")

	if entity := c.Query("entity"); entity != "" {
		dbq = dbq.Where("entity = ?", entity)
	}
	if uidStr := c.Query("user_id"); uidStr != "" {
		uid, err := strconv.Atoi(uidStr)
		if err != nil || uid <= 0 {
			respondError(c, http.StatusBadRequest, "invalid user_id")
			return
		}
		dbq = dbq.Where("user_id = ?", uid)
	}

	var logs []models.AuditLog
	if err := dbq.Limit(200).Find(&logs).Error; err != nil {
		h.internalError(c, "failed to load audit log", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
