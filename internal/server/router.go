package server

import (
	"net/http"
	"time"

	"agency-portal/internal/config"
	"agency-portal/internal/handlers"
	"agency-portal/internal/middleware"
	"agency-portal/internal/models"
	"agency-portal/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionName = "portal_session"

func NewRouter(cfg *config.Config, h *handlers.Handler, limiter ratelimit.Limiter, log *zap.Logger) *gin.Engine {
	r := gin.New()

	// ClientIP берёт X-Forwarded-For только от своих прокси, иначе лимиты обходятся заголовком
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid TRUSTED_PROXIES, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.RequestID(log))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.InjectUser())

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ЗАЯВКИ С САЙТА
	api.POST("/send-email", middleware.RateLimit(limiter, "contact", log), h.SendEmail)

	api.GET("/forms", h.ListForms)
	api.GET("/forms/:form", h.GetForm)
	api.POST("/forms/:form/sessions", h.StartWizard)

	wiz := api.Group("/wizard/:id")
	wiz.GET("", h.GetWizard)
	wiz.POST("/next", h.NextStep)
	wiz.POST("/previous", h.PreviousStep)
	wiz.POST("/submit", middleware.RateLimit(limiter, "wizard", log), h.SubmitWizard)

	// AUTH
	authAPI := api.Group("/auth")
	authAPI.POST("/register", middleware.RateLimit(limiter, "register", log), h.Register)
	authAPI.POST("/login", middleware.RateLimit(limiter, "login", log), h.Login)
	authAPI.POST("/logout", h.Logout)
	authAPI.POST("/invitations/accept", h.AcceptInvitation)
	authAPI.GET("/me", middleware.RequireAuth(), h.Me)

	// КАБИНЕТ
	portal := api.Group("/projects")
	portal.Use(middleware.RequireAuth())
	portal.GET("", h.ListMyProjects)
	portal.POST("", h.CreateProject)
	portal.GET("/:id", h.GetProject)
	portal.POST("/:id/status", h.ChangeProjectStatus)

	// АДМИНКА — manager и admin
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleManager, models.RoleAdmin))

	admin.GET("/projects", h.ListAllProjects)
	admin.PATCH("/projects/:id", h.UpdateProject)
	admin.DELETE("/projects/:id",
		middleware.RequireRole(models.RoleAdmin),
		h.DeleteProject,
	)
	admin.GET("/projects/:id/history", h.ShowProjectHistory)
	admin.POST("/projects/:id/phases", h.AddPhase)
	admin.PATCH("/phases/:id", h.UpdatePhase)
	admin.DELETE("/phases/:id", h.DeletePhase)

	admin.GET("/leads", h.ListLeads)
	admin.PATCH("/leads/:id", h.UpdateLead)

	admin.GET("/users", h.ListUsers)
	// смена ролей — только админ
	admin.PATCH("/users/:id/role",
		middleware.RequireRole(models.RoleAdmin),
		h.ChangeUserRole,
	)
	admin.POST("/invitations", h.InviteClient)

	admin.GET("/audit", h.ListAuditLogs)

	return r
}
