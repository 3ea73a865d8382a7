package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stylefit/controllers"
	"stylefit/metrics"
	"stylefit/middlewares"
	"stylefit/services"
)

type Deps struct {
	Sessions *services.SessionService
	Hub      *services.RealtimeHub
	Limiter  services.RateLimiter // optional
	Secret   []byte
	TokenTTL time.Duration
	// MaxPhotoBytes bounds photo request bodies; zero disables the cap.
	MaxPhotoBytes int64
	Logger        *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger), metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sc := controllers.NewSessionController(d.Sessions, d.Secret, d.TokenTTL, d.MaxPhotoBytes)
	rc := controllers.NewReportController(d.Sessions)
	pc := controllers.NewPremiumController(d.Sessions)
	ws := controllers.NewRealtimeController(d.Hub, d.Sessions)

	api := r.Group("/sessions")
	if d.Limiter != nil {
		api.Use(middlewares.RateLimit(d.Limiter, logger))
	}
	api.POST("", sc.Create)

	session := api.Group("/:id")
	session.Use(middlewares.SessionAuth(d.Secret))
	{
		session.GET("", sc.Get)
		session.PUT("/photo", sc.UploadPhoto)
		session.POST("/advance", sc.Advance)
		session.POST("/back", sc.Back)
		session.POST("/analyze", sc.Analyze)
		session.POST("/restart", sc.Restart)
		session.GET("/events", ws.Events)

		session.GET("/results", rc.Results)
		session.GET("/report", rc.Download)
		session.POST("/report/email", rc.Email)

		session.GET("/premium", pc.Status)
		session.POST("/premium/checkout", pc.Checkout)
		session.POST("/premium/skip", pc.Skip)
	}

	return r
}
