package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"venue-admin-backend/config"
	"venue-admin-backend/controllers"
	"venue-admin-backend/utils"
)

// Handlers bundles the controllers the router mounts.
type Handlers struct {
	Auth         *controllers.AuthController
	Reservations *controllers.ReservationController
	Templates    *controllers.TemplateController
	SMS          *controllers.SMSController
	Cron         *controllers.CronController
	Dashboard    *controllers.DashboardController
}

func SetupRouter(cfg *config.Config, logger *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowed := make(map[string]bool, len(cfg.CORSOrigins))
	for _, origin := range cfg.CORSOrigins {
		allowed[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// 5 login attempts per minute per IP
	loginLimiter := utils.NewRateLimiter(rate.Every(12*time.Second), 5)

	auth := api.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/check", utils.AuthMiddleware(cfg.JWTSecret), h.Auth.Check)
	}

	// The trigger authenticates with CRON_SECRET instead of the admin session.
	api.GET("/cron/sms", h.Cron.RunSMS)
	api.POST("/cron/sms", h.Cron.RunSMS)

	protected := api.Group("")
	protected.Use(utils.AuthMiddleware(cfg.JWTSecret))
	{
		reservations := protected.Group("/reservations")
		{
			reservations.GET("", h.Reservations.GetReservations)
			reservations.POST("", h.Reservations.CreateReservation)
			reservations.GET("/:id", h.Reservations.GetReservation)
			reservations.PUT("/:id", h.Reservations.UpdateReservation)
			reservations.PATCH("/:id", h.Reservations.UpdateReservation)
			reservations.DELETE("/:id", h.Reservations.DeleteReservation)
		}

		templates := protected.Group("/templates")
		{
			templates.GET("", h.Templates.GetTemplates)
			templates.PUT("/:id", h.Templates.UpdateTemplate)
		}

		sms := protected.Group("/sms")
		{
			sms.GET("/schedules", h.SMS.GetSchedules)
			sms.GET("/logs", h.SMS.GetLogs)
			sms.POST("/test", h.SMS.SendTest)
		}

		protected.GET("/dashboard", h.Dashboard.GetDashboardOverview)
	}

	return r
}
