package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/controllers"
	"github.com/legalconnect/legalconnect-api/middleware"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
)

// SetupRouter builds the HTTP router with every route of the API
func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.PrometheusMetrics(), middleware.SentryMiddleware(), middleware.ErrorHandler())

	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
		v1.GET("/uploads/:filename", controllers.GetUploadedFile)

		v1.POST("/users/register", controllers.Register)
		v1.POST("/users/login", controllers.Login)
	}

	// Everything below requires a valid token for an active account
	authed := v1.Group("", middleware.EnsureValidToken(cfg), middleware.LoadCurrentUser())

	users := authed.Group("/users")
	{
		users.GET("/me", controllers.GetCurrentUser)

		users.GET("/client-profile", middleware.RequireRole(models.RoleClient), controllers.GetClientProfile)
		users.PUT("/client-profile", middleware.RequireRole(models.RoleClient), controllers.UpdateClientProfile)
		users.GET("/lawyer-profile", middleware.RequireRole(models.RoleLawyer), controllers.GetLawyerProfile)
		users.PUT("/lawyer-profile", middleware.RequireRole(models.RoleLawyer), controllers.UpdateLawyerProfile)

		users.GET("/lawyers", middleware.RequireRole(models.RoleClient), controllers.ListLawyers)

		admin := users.Group("", middleware.RequireRole(models.RoleAdmin))
		admin.GET("/unapproved-lawyers", controllers.ListUnapprovedLawyers)
		admin.GET("/approved-lawyers", controllers.ListApprovedLawyers)
		admin.POST("/approve-lawyer/:user_id", controllers.ApproveLawyer)
	}

	consultations := authed.Group("/consultations")
	{
		consultations.POST("/create", middleware.RequireRole(models.RoleClient), controllers.CreateConsultation)
		consultations.GET("/lawyer", middleware.RequireRole(models.RoleLawyer), controllers.ListLawyerConsultations)
		consultations.GET("/client", middleware.RequireRole(models.RoleClient), controllers.ListClientConsultations)
		consultations.PATCH("/update/:id", middleware.RequireRole(models.RoleLawyer, models.RoleAdmin), controllers.UpdateConsultation)
		consultations.GET("/details/:id", controllers.GetConsultation)
		consultations.GET("/points", controllers.GetPoints)
		consultations.POST("/points", controllers.TopUpPoints)
		consultations.GET("/notifications", controllers.ListNotifications)
	}

	chat := authed.Group("/chat")
	{
		chat.GET("/messages/:consultation_id", controllers.ListMessages)
		chat.POST("/messages/:consultation_id/send", controllers.SendMessage)
		chat.PATCH("/schedule/:consultation_id", controllers.ScheduleMeeting)
		chat.GET("/schedule/:consultation_id", controllers.GetMeeting)
		chat.GET("/partner-name/:consultation_id", controllers.GetPartnerName)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}
