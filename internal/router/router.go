package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/middleware"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/pkg/metrics"
	"github.com/jwalitptl/dental-api/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type AuthHandler interface {
	Login(*gin.Context)
	Logout(*gin.Context)
	Session(*gin.Context)
}

type DashboardHandler interface {
	Dashboard(*gin.Context)
	PatientView(*gin.Context)
	Stats(*gin.Context)
	Calendar(*gin.Context)
}

type EventHandler interface {
	Stream(*gin.Context)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        AuthHandler
	patientH     Handler
	appointmentH Handler
	dashboardH   DashboardHandler
	eventH       EventHandler
	h            *handler.Handler
	metrics      *metrics.Metrics
	audit        *middleware.AuditMiddleware
	loginLimiter *middleware.RateLimiter
	timeout      time.Duration
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	LoginPerMinute   int
	CORSConfig       middleware.CORSConfig
	Security         middleware.SecurityConfig
	MetricsEnabled   bool
	RequestTimeout   time.Duration
	Logger           zerolog.Logger
}

type Handlers struct {
	Auth        AuthHandler
	Patient     Handler
	Appointment Handler
	Dashboard   DashboardHandler
	Event       EventHandler
	Health      *handler.Handler
}

func init() {
	binding.Validator = validator.NewGin(validator.Default())
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        handlers.Auth,
		patientH:     handlers.Patient,
		appointmentH: handlers.Appointment,
		dashboardH:   handlers.Dashboard,
		eventH:       handlers.Event,
		h:            handlers.Health,
		metrics:      m,
		audit:        middleware.NewAuditMiddleware(config.Logger),
		timeout:      config.RequestTimeout,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(config.Logger),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.ErrorHandler(),
	)

	if config.RateLimitEnabled {
		global := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(global.RateLimit())
	}
	if config.RateLimitEnabled && config.LoginPerMinute > 0 {
		r.loginLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  middleware.PerMinute(config.LoginPerMinute),
			Burst: config.LoginPerMinute,
		})
	}

	r.setup(config.MetricsEnabled)
	return r
}

func (r *Router) setup(metricsEnabled bool) {
	if metricsEnabled {
		r.engine.GET("/metrics", r.h.MetricsHandler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.Version(middleware.DefaultVersionConfig()),
		middleware.Cache(middleware.NoStoreConfig()),
		middleware.Timeout(middleware.TimeoutConfig{
			Duration: r.timeout,
			Skip:     []string{"/api/v1/events"},
		}),
	)

	r.setupHealthCheck(api)
	r.setupAuthRoutes(api)

	authenticated := api.Group("", r.auth.Require())
	{
		authenticated.GET("/session", r.authH.Session)
		authenticated.GET("/dashboard", r.dashboardH.Dashboard)
		authenticated.GET("/events", r.eventH.Stream)
	}

	admin := api.Group("", r.auth.Require(model.RoleAdmin))
	{
		r.patientH.RegisterRoutes(admin.Group("", r.audit.AuditLog("patient")))
		r.appointmentH.RegisterRoutes(admin.Group("", r.audit.AuditLog("appointment")))
		admin.GET("/calendar", r.dashboardH.Calendar)
		admin.GET("/stats", r.dashboardH.Stats)
	}

	patient := api.Group("", r.auth.Require(model.RolePatient))
	{
		patient.GET("/patient-view", r.audit.AuditLog("patient"), r.dashboardH.PatientView)
	}
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
	}
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	login := []gin.HandlerFunc{r.authH.Login}
	if r.loginLimiter != nil {
		login = append([]gin.HandlerFunc{r.loginLimiter.RateLimit()}, login...)
	}
	auth.POST("/login", login...)
	auth.POST("/logout", r.auth.Require(), r.authH.Logout)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			errType := "client"
			if c.Writer.Status() >= 500 {
				errType = "server"
			}
			r.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, errType).Inc()
		}
	}
}
