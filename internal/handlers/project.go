package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// фазы, которые получает новый проект в зависимости от услуги
var defaultPhases = map[models.ServiceType][]string{
	models.ServiceWebDesign:   {"Discovery", "Wireframes", "Visual design", "Review", "Handoff"},
	models.ServiceWebDev:      {"Discovery", "Design", "Development", "QA", "Launch"},
	models.ServiceEcommerce:   {"Discovery", "Design", "Store setup", "Payments", "QA", "Launch"},
	models.ServiceSEO:         {"Audit", "Keyword research", "On-page fixes", "Reporting"},
	models.ServiceBranding:    {"Research", "Concepts", "Refinement", "Brand guide"},
	models.ServiceMaintenance: {"Onboarding", "Monitoring", "Monthly report"},
}

func newPhases(st models.ServiceType) []models.ProjectPhase {
	names := defaultPhases[st]
	phases := make([]models.ProjectPhase, 0, len(names))
	for i, name := range names {
		phases = append(phases, models.ProjectPhase{
			Name:   name,
			Order:  i + 1,
			Status: models.PhasePending,
		})
	}
	return phases
}

func preloadPhases(db *gorm.DB) *gorm.DB {
	return db.Order(models.PhaseOrder)
}

//
// КЛИЕНТСКИЙ ПОРТАЛ
//

// ListMyProjects: клиент видит только свои проекты, сотрудники видят все.
func (h *Handler) ListMyProjects(c *gin.Context) {
	user := currentUser(c)

	dbq := database.DB.WithContext(c.Request.Context()).
		Preload("Phases", preloadPhases).
		Order("created_at desc")
	if !user.Role.IsStaff() {
		dbq = dbq.Where("user_id = ?", user.ID)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		h.internalError(c, "failed to load projects", err)
		return
	}
	for i := range projects {
		projects[i].RefreshProgress()
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type createProjectRequest struct {
	Name        string             `json:"name" binding:"required,min=3,max=255"`
	ServiceType models.ServiceType `json:"service_type" binding:"required"`
	PackageTier models.PackageTier `json:"package_tier" binding:"required"`
	Description string             `json:"description" binding:"max=5000"`
	// только для сотрудников: создать проект от имени клиента
	UserID uint `json:"user_id"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	user := currentUser(c)

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if !req.ServiceType.Valid() {
		respondError(c, http.StatusBadRequest, "invalid service_type")
		return
	}
	if !req.PackageTier.Valid() {
		respondError(c, http.StatusBadRequest, "invalid package_tier")
		return
	}

	ownerID := user.ID
	if req.UserID != 0 && req.UserID != user.ID {
		if !user.Role.IsStaff() {
			respondError(c, http.StatusForbidden, "forbidden")
			return
		}
		var owner models.User
		if err := database.DB.First(&owner, req.UserID).Error; err != nil {
			respondError(c, http.StatusBadRequest, "owner not found")
			return
		}
		ownerID = owner.ID
	}

	project := models.Project{
		UserID:      ownerID,
		Name:        strings.TrimSpace(req.Name),
		ServiceType: req.ServiceType,
		PackageTier: req.PackageTier,
		Status:      models.StatusPending,
		Description: strings.TrimSpace(req.Description),
		Phases:      newPhases(req.ServiceType),
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&project).Error; err != nil {
		h.internalError(c, "failed to create project", err)
		return
	}
	project.RefreshProgress()

	database.CreateAuditLog(user.ID, "project", project.ID, "create", "Project created: "+project.Name)
	h.log(c).Info("project created", zap.Uint("project_id", project.ID), zap.Uint("owner_id", ownerID))
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.loadProject(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

// loadProject: единая проверка доступа для всех маршрутов проекта:
// владелец или manager/admin, иначе 403.
func (h *Handler) loadProject(c *gin.Context, withPhases bool) (*models.Project, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	dbq := database.DB.WithContext(c.Request.Context())
	if withPhases {
		dbq = dbq.Preload("Phases", preloadPhases)
	}

	var project models.Project
	err := dbq.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "project not found")
		return nil, false
	}
	if err != nil {
		h.internalError(c, "failed to load project", err)
		return nil, false
	}

	if !canAccessProject(currentUser(c), &project) {
		respondError(c, http.StatusForbidden, "forbidden")
		return nil, false
	}
	project.RefreshProgress()
	return &project, true
}

func canAccessProject(u *models.User, p *models.Project) bool {
	return u != nil && (u.Role.IsStaff() || p.UserID == u.ID)
}

//
// СМЕНА СТАТУСА
//

type changeStatusRequest struct {
	Status models.ProjectStatus `json:"status" binding:"required"`
}

func (h *Handler) ChangeProjectStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if !req.Status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	project, ok := h.loadProject(c, true)
	if !ok {
		return
	}

	user := currentUser(c)
	if !canChangeProjectStatus(user.Role, project.Status, req.Status) {
		respondError(c, http.StatusForbidden, "status change not allowed")
		return
	}

	prev := project.Status
	// статус мог смениться параллельным запросом после проверки прав
	res := database.DB.Model(&models.Project{ID: project.ID}).
		Where("status = ?", prev).
		Update("status", req.Status)
	if res.Error != nil {
		h.internalError(c, "failed to update status", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, http.StatusConflict, "project status changed concurrently, reload and retry")
		return
	}
	project.Status = req.Status

	database.CreateAuditLog(user.ID, "project", project.ID, "status_change",
		"Status changed: "+string(prev)+" -> "+string(req.Status))
	c.JSON(http.StatusOK, project)
}

// логика ролей
func canChangeProjectStatus(role models.UserRole, current, next models.ProjectStatus) bool {
	if current == next {
		return false
	}

	switch role {

	case models.RoleAdmin:
		return true

	case models.RoleManager:
		switch current {
		case models.StatusPending:
			return next == models.StatusApproved || next == models.StatusCancelled
		case models.StatusApproved:
			return next == models.StatusInProgress || next == models.StatusOnHold || next == models.StatusCancelled
		case models.StatusInProgress:
			return next == models.StatusReview || next == models.StatusOnHold
		case models.StatusReview:
			return next == models.StatusCompleted || next == models.StatusInProgress
		case models.StatusOnHold:
			return next == models.StatusInProgress || next == models.StatusCancelled
		}
		return false

	case models.RoleClient:
		return current == models.StatusPending && next == models.StatusCancelled

	default:
		return false
	}
}

//
// АДМИНКА
//

const phaseFetchLimit = 8

// ListAllProjects грузит проекты одним запросом, а фазы параллельно.
func (h *Handler) ListAllProjects(c *gin.Context) {
	ctx := c.Request.Context()
	dbq := database.DB.WithContext(ctx).Preload("User").Order("created_at desc")

	if status := c.Query("status"); status != "" {
		if !models.ProjectStatus(status).Valid() {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		dbq = dbq.Where("status = ?", status)
	}
	if uidStr := c.Query("user_id"); uidStr != "" {
		uid, err := strconv.Atoi(uidStr)
		if err != nil || uid <= 0 {
			respondError(c, http.StatusBadRequest, "invalid user_id")
			return
		}
		dbq = dbq.Where("user_id = ?", uid)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		h.internalError(c, "failed to load projects", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(phaseFetchLimit)
	for i := range projects {
		p := &projects[i]
		g.Go(func() error {
			var phases []models.ProjectPhase
			if err := database.DB.WithContext(gctx).
				Where("project_id = ?", p.ID).
				Order(models.PhaseOrder).
				Find(&phases).Error; err != nil {
				return err
			}
			p.Phases = phases
			p.RefreshProgress()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.internalError(c, "failed to load phases", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type updateProjectRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=3,max=255"`
	ServiceType *models.ServiceType `json:"service_type"`
	PackageTier *models.PackageTier `json:"package_tier"`
	Description *string             `json:"description" binding:"omitempty,max=5000"`
	UserID      *uint               `json:"user_id"`
}

func (h *Handler) UpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}

	project, ok := h.loadProject(c, true)
	if !ok {
		return
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.ServiceType != nil {
		if !req.ServiceType.Valid() {
			respondError(c, http.StatusBadRequest, "invalid service_type")
			return
		}
		project.ServiceType = *req.ServiceType
	}
	if req.PackageTier != nil {
		if !req.PackageTier.Valid() {
			respondError(c, http.StatusBadRequest, "invalid package_tier")
			return
		}
		project.PackageTier = *req.PackageTier
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.UserID != nil {
		var owner models.User
		if err := database.DB.First(&owner, *req.UserID).Error; err != nil {
			respondError(c, http.StatusBadRequest, "owner not found")
			return
		}
		project.UserID = owner.ID
	}

	if err := database.DB.Model(project).Select("name", "service_type", "package_tier", "description", "user_id").
		Updates(project).Error; err != nil {
		h.internalError(c, "failed to update project", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "project", project.ID, "update", "Project updated: "+project.Name)
	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	project, ok := h.loadProject(c, false)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectPhase{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		h.internalError(c, "failed to delete project", err)
		return
	}

	database.CreateAuditLog(currentUser(c).ID, "project", project.ID, "delete", "Project deleted: "+project.Name)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

//
// ИСТОРИЯ ПРОЕКТА
//

func (h *Handler) ShowProjectHistory(c *gin.Context) {
	project, ok := h.loadProject(c, false)
	if !ok {
		return
	}

	var logs []models.AuditLog
	if err := database.DB.Where("entity = ? AND entity_id = ?", "project", project.ID).
		Preload("User").
		Order("created_at asc, id asc").
		Find(&logs).Error; err != nil {
		h.internalError(c, "failed to load history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "logs": logs})
}
