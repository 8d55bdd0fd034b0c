package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agency-portal/internal/database"
	"agency-portal/internal/logger"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) ListUsers(c *gin.Context) {
	dbq := database.DB.WithContext(c.Request.Context()).Order("email asc")
	if role := c.Query("role"); role != "" {
		if !models.UserRole(role).Valid() {
			respondError(c, http.StatusBadRequest, "invalid role")
			return
		}
		dbq = dbq.Where("role = ?", role)
	}

	var users []models.User
	if err := dbq.Find(&users).Error; err != nil {
		h.internalError(c, "failed to load users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type changeRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// ChangeUserRole доступен только admin. Себе роль менять нельзя, чтобы не остаться без админа.
func (h *Handler) ChangeUserRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if !req.Role.Valid() {
		respondError(c, http.StatusBadRequest, "invalid role")
		return
	}

	actor := currentUser(c)
	if actor.ID == id {
		respondError(c, http.StatusBadRequest, "cannot change your own role")
		return
	}

	var user models.User
	err := database.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(c, "failed to load user", err)
		return
	}

	prev := user.Role
	if err := database.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		h.internalError(c, "failed to update role", err)
		return
	}
	user.Role = req.Role

	database.CreateAuditLog(actor.ID, "user", user.ID, "role_change",
		"Role changed: "+string(prev)+" -> "+string(req.Role))
	c.JSON(http.StatusOK, user)
}

type inviteRequest struct {
	Email   string `json:"email" binding:"required,email,max=255"`
	Name    string `json:"name" binding:"max=255"`
	Company string `json:"company" binding:"max=255"`
}

// InviteClient заводит клиента без пароля и отправляет ему ссылку с токеном.
// Повторное приглашение ещё не активированного клиента выпускает новый токен.
func (h *Handler) InviteClient(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	email := normalizeEmail(req.Email)

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := database.CreateUser(email, strings.TrimSpace(req.Name), "", models.RoleClient)
		if err != nil {
			h.internalError(c, "failed to create invited user", err)
			return
		}
		created.Company = strings.TrimSpace(req.Company)
		if err := database.DB.Save(created).Error; err != nil {
			h.internalError(c, "failed to save invited user", err)
			return
		}
		user = *created
	case err != nil:
		h.internalError(c, "failed to load user", err)
		return
	case user.Activated():
		respondError(c, http.StatusConflict, "user already exists")
		return
	}

	token, err := h.Invites.Issue(user.ID, user.Email)
	if err != nil {
		h.internalError(c, "failed to issue invitation", err)
		return
	}
	expires := time.Now().Add(h.InviteTTL).UTC()
	link := strings.TrimRight(h.PortalURL, "/") + "/invite?token=" + url.QueryEscape(token)

	if h.Mailer != nil {
		if err := h.Mailer.SendInvitation(&user, link, expires); err != nil {
			h.log(c).Error("failed to queue invitation", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	database.CreateAuditLog(currentUser(c).ID, "user", user.ID, "invite", "Invitation sent: "+user.Email)
	h.log(c).Info("client invited", zap.Uint("user_id", user.ID), logger.Email(user.Email))
	c.JSON(http.StatusCreated, gin.H{"user": user, "expires_at": expires})
}
