package middleware

import (
	"net/http"

	"agency-portal/internal/metrics"
	"agency-portal/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit ограничивает запросы по IP в пределах scope. Если хранилище
// лимитов недоступно, запрос пропускается.
func RateLimit(limiter ratelimit.Limiter, scope string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			Logger(c, log).Warn("rate limiter unavailable, allowing request",
				zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			metrics.IncrementRateLimited(scope)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
