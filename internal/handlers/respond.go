package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"agency-portal/internal/middleware"
	"agency-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func (h *Handler) log(c *gin.Context) *zap.Logger {
	return middleware.Logger(c, h.Log)
}

// internalError логирует причину, а наружу отдаёт общее сообщение.
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.log(c).Error(msg, zap.Error(err))
	respondError(c, http.StatusInternalServerError, "internal server error")
}

// bindError превращает ошибки валидатора в читаемое сообщение.
func bindError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return "invalid request body"
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUser: после RequireAuth пользователь в контексте есть всегда.
func currentUser(c *gin.Context) *models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}
