// File: /routes/routes.go
package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"raceday-api/config"
	"raceday-api/controllers"
	"raceday-api/metrics"
	"raceday-api/middleware"
	"raceday-api/services"
	"raceday-api/sessions"
)

// Dependencies is everything the HTTP layer is built from
type Dependencies struct {
	DB            *gorm.DB
	Config        *config.Config
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Sessions      *sessions.Store
	Tokens        *services.TokenService
	Runners       *services.RunnerService
	Distances     *services.DistanceService
	Events        *services.EventService
	Registrations *services.RegistrationService
}

// NewRouter builds the engine with the middleware chain and every route
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(deps.Logger),
		middleware.SecurityHeaders(),
		deps.Metrics.Middleware(),
		middleware.ErrorHandler(deps.Logger),
	)
	SetupRoutes(r, deps)
	return r
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Controllers
	authController := controllers.NewAuthController(deps.Runners, deps.Tokens, deps.Sessions, deps.Logger)
	eventController := controllers.NewEventController(deps.Events, deps.Registrations, deps.Logger)
	registrationController := controllers.NewRegistrationController(deps.Registrations, deps.Logger)
	runnerController := controllers.NewRunnerController(deps.Runners, deps.Sessions, deps.Logger)
	distanceController := controllers.NewDistanceController(deps.Distances, deps.Logger)
	adminController := controllers.NewAdminController(deps.Runners, deps.Distances, deps.Events, deps.Registrations, deps.Logger)

	r.GET("/ping", func(c *gin.Context) {
		database := "ok"
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			database = "unavailable"
		}
		status := http.StatusOK
		if database != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"message":  "pong",
			"database": database,
			"email":    deps.Config.MailEnabled(),
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// API version 1
	v1 := r.Group("/api/v1")
	v1.Use(
		middleware.ValidateJSON(),
		middleware.Authenticate(deps.Sessions, deps.Tokens, deps.Runners),
	)

	// Auth routes (public)
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(deps.Config.LoginRateLimit, deps.Config.LoginRateLimit))
	{
		auth.POST("/signup", authController.SignUp)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// Signed-in runners
	protected := v1.Group("/")
	protected.Use(middleware.RequireAuth())
	{
		events := protected.Group("/events")
		{
			events.GET("", eventController.GetEvents)
			events.GET("/archive", eventController.GetArchive)
			events.GET("/:id", eventController.GetEvent)
			events.GET("/:id/registrations", eventController.GetRegistrations)
			events.POST("/:id/registrations", eventController.Register)
		}

		registrations := protected.Group("/registrations")
		{
			registrations.GET("/mine", registrationController.GetMine)
			registrations.GET("/:id", registrationController.GetRegistration)
			registrations.PUT("/:id", registrationController.UpdateRegistration)
			registrations.DELETE("/:id", registrationController.DeleteRegistration)
		}

		runners := protected.Group("/runners")
		{
			runners.GET("", runnerController.GetRunners)
			runners.GET("/:id", runnerController.GetRunner)
			runners.PUT("/:id", runnerController.UpdateRunner)
			runners.DELETE("/:id", runnerController.DeleteRunner)
		}

		protected.GET("/distances", distanceController.GetDistances)
	}

	// Staff
	staff := v1.Group("/")
	staff.Use(middleware.RequireStaff())
	{
		staff.POST("/events", eventController.CreateEvent)
		staff.PUT("/events/:id", eventController.UpdateEvent)
		staff.DELETE("/events/:id", eventController.DeleteEvent)
		staff.GET("/events/:id/registrations/export", eventController.ExportStartList)

		staff.POST("/distances", distanceController.CreateDistance)
		staff.DELETE("/distances/:id", distanceController.DeleteDistance)

		admin := staff.Group("/admin")
		{
			admin.GET("/runners", adminController.ListRunners)
			admin.GET("/distances", adminController.ListDistances)
			admin.GET("/events", adminController.ListEvents)
			admin.GET("/registrations", adminController.ListRegistrations)
			admin.POST("/events/refresh-activity", adminController.RefreshActivity)
		}
	}
}
