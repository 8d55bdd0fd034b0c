package handlers

import (
	"errors"
	"net/http"
	"strings"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type phaseResponse struct {
	Phase    models.ProjectPhase `json:"phase"`
	Progress int                 `json:"progress"`
}

type addPhaseRequest struct {
	Name   string             `json:"name" binding:"required,max=255"`
	Order  *int               `json:"order"`
	Status models.PhaseStatus `json:"status"`
}

// AddPhase добавляет фазу; без order она встаёт в конец.
func (h *Handler) AddPhase(c *gin.Context) {
	var req addPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if req.Status == "" {
		req.Status = models.PhasePending
	}
	if !req.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	project, ok := h.loadProject(c, true)
	if !ok {
		return
	}

	order := len(project.Phases) + 1
	if n := len(project.Phases); n > 0 {
		order = project.Phases[n-1].Order + 1
	}
	if req.Order != nil {
		order = *req.Order
	}

	phase := models.ProjectPhase{
		ProjectID: project.ID,
		Name:      strings.TrimSpace(req.Name),
		Order:     order,
		Status:    req.Status,
	}
	if err := database.DB.Create(&phase).Error; err != nil {
		h.internalError(c, "failed to create phase", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "project", project.ID, "phase_add", "Phase added: "+phase.Name)
	h.respondPhase(c, http.StatusCreated, phase)
}

type updatePhaseRequest struct {
	Name   *string             `json:"name" binding:"omitempty,max=255"`
	Order  *int                `json:"order"`
	Status *models.PhaseStatus `json:"status"`
}

func (h *Handler) UpdatePhase(c *gin.Context) {
	var req updatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	phase, ok := h.loadPhase(c)
	if !ok {
		return
	}

	details := "Phase updated: " + phase.Name
	if req.Name != nil {
		phase.Name = strings.TrimSpace(*req.Name)
	}
	if req.Order != nil {
		phase.Order = *req.Order
	}
	if req.Status != nil && *req.Status != phase.Status {
		details = "Phase " + phase.Name + ": " + string(phase.Status) + " -> " + string(*req.Status)
		phase.Status = *req.Status
	}

	if err := database.DB.Save(phase).Error; err != nil {
		h.internalError(c, "failed to update phase", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "project", phase.ProjectID, "phase_update", details)
	h.respondPhase(c, http.StatusOK, *phase)
}

func (h *Handler) DeletePhase(c *gin.Context) {
	phase, ok := h.loadPhase(c)
	if !ok {
		return
	}

	if err := database.DB.Delete(phase).Error; err != nil {
		h.internalError(c, "failed to delete phase", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "project", phase.ProjectID, "phase_delete", "Phase deleted: "+phase.Name)
	h.respondPhase(c, http.StatusOK, *phase)
}

func (h *Handler) loadPhase(c *gin.Context) (*models.ProjectPhase, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	var phase models.ProjectPhase
	err := database.DB.First(&phase, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "phase not found")
		return nil, false
	}
	if err != nil {
		h.internalError(c, "failed to load phase", err)
		return nil, false
	}
	return &phase, true
}

// respondPhase отдаёт фазу вместе с пересчитанным прогрессом проекта.
func (h *Handler) respondPhase(c *gin.Context, status int, phase models.ProjectPhase) {
	var phases []models.ProjectPhase
	if err := database.DB.Where("project_id = ?", phase.ProjectID).Find(&phases).Error; err != nil {
		h.internalError(c, "failed to load phases", err)
		return
	}
	c.JSON(status, phaseResponse{Phase: phase, Progress: models.ProgressPercent(phases)})
}
