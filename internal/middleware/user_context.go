package middleware

import (
	"errors"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	SessionUserID  = "user_id"
	currentUserKey = "CurrentUser"
)

// InjectUser подтягивает профиль из базы по user_id из сессии.
// Роль всегда берётся из базы, а не из cookie.
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get(SessionUserID).(uint); ok && uid > 0 {
			var user models.User
			err := database.DB.WithContext(c.Request.Context()).First(&user, uid).Error
			switch {
			case err == nil:
				c.Set(currentUserKey, &user)
			case errors.Is(err, gorm.ErrRecordNotFound):
				// пользователя удалили, сессия больше не действительна
				sess.Clear()
				_ = sess.Save()
			default:
				// база недоступна: запрос идёт анонимно, но сессию не трогаем
				_ = c.Error(err)
			}
		}

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
