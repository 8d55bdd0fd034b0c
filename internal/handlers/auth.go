package handlers

import (
	"errors"
	"net/http"
	"strings"

	"agency-portal/internal/database"
	"agency-portal/internal/invite"
	"agency-portal/internal/logger"
	"agency-portal/internal/middleware"
	"agency-portal/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcrypt ограничен 72 байтами, а binding max считает руны
const (
	maxPasswordBytes   = 72
	passwordTooLongMsg = "password must be at most 72 bytes"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=255"`
	Company  string `json:"company" binding:"max=255"`
	Phone    string `json:"phone" binding:"max=50"`
}

// Register: самостоятельная регистрация доступна только клиентам.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	if len(req.Password) > maxPasswordBytes {
		respondError(c, http.StatusBadRequest, passwordTooLongMsg)
		return
	}
	email := normalizeEmail(req.Email)

	var count int64
	if err := database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		h.internalError(c, "failed to check user", err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "user already exists")
		return
	}

	user, err := database.CreateUser(email, strings.TrimSpace(req.Name), req.Password, models.RoleClient)
	if err != nil {
		h.internalError(c, "failed to create user", err)
		return
	}
	user.Company = strings.TrimSpace(req.Company)
	user.Phone = strings.TrimSpace(req.Phone)
	if err := database.DB.Save(user).Error; err != nil {
		h.internalError(c, "failed to save profile", err)
		return
	}

	h.startSession(c, user)
	h.log(c).Info("client registered", zap.Uint("user_id", user.ID), logger.Email(email))
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}

	var user models.User
	err := database.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.internalError(c, "failed to load user", err)
		return
	}

	if !user.Activated() ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.startSession(c, &user)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

type acceptInvitationRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"max=255"`
}

// AcceptInvitation: приглашённый клиент задаёт пароль и сразу входит.
func (h *Handler) AcceptInvitation(c *gin.Context) {
	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}

	if len(req.Password) > maxPasswordBytes {
		respondError(c, http.StatusBadRequest, passwordTooLongMsg)
		return
	}

	claims, err := h.Invites.Parse(req.Token)
	if err != nil {
		respondError(c, http.StatusBadRequest, invite.ErrInvalidToken.Error())
		return
	}
	uid, err := claims.UserID()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil || user.Email != claims.Email {
		respondError(c, http.StatusBadRequest, invite.ErrInvalidToken.Error())
		return
	}
	if user.Activated() {
		respondError(c, http.StatusConflict, "invitation already accepted")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(c, "failed to hash password", err)
		return
	}
	user.PasswordHash = string(hash)
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if err := database.DB.Save(&user).Error; err != nil {
		h.internalError(c, "failed to activate user", err)
		return
	}

	database.CreateAuditLog(user.ID, "user", user.ID, "invitation_accepted", "Invitation accepted: "+user.Email)
	h.startSession(c, &user)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) startSession(c *gin.Context, user *models.User) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(middleware.SessionUserID, user.ID)
	if err := sess.Save(); err != nil {
		h.log(c).Error("failed to save session", zap.Error(err))
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
