package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bedhandler "github.com/wardline/ward-api/internal/handler/bed"
	healthhandler "github.com/wardline/ward-api/internal/handler/health"
	migrationhandler "github.com/wardline/ward-api/internal/handler/migration"
	patienthandler "github.com/wardline/ward-api/internal/handler/patient"
	tenanthandler "github.com/wardline/ward-api/internal/handler/tenant"
	"github.com/wardline/ward-api/internal/middleware"
	"github.com/wardline/ward-api/internal/tenancy"
	"github.com/wardline/ward-api/pkg/auth"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/metrics"
	"github.com/wardline/ward-api/pkg/validator"
)

type Deps struct {
	Health    *healthhandler.Handler
	Tenants   *tenanthandler.Handler
	Migration *migrationhandler.Handler
	Beds      *bedhandler.Handler
	Patients  *patienthandler.Handler

	Scoper  *tenancy.Scoper
	Tokens  *auth.TokenService
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	RateLimit middleware.RateLimiterConfig
}

// New assembles the HTTP surface. The registry and operator routes sit
// outside the tenant scope; everything under /api/v1 runs on a session
// pinned to the caller's namespace.
func New(deps Deps) *gin.Engine {
	validator.RegisterTagNames()

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	if deps.Metrics != nil {
		r.Use(httpMetrics(deps.Metrics))
	}

	deps.Health.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	deps.Tenants.RegisterRoutes(admin)
	deps.Migration.RegisterRoutes(admin)

	limiter := middleware.NewRateLimiter(deps.RateLimit)

	api := r.Group("/api/v1")
	api.Use(middleware.TenantAuth(deps.Tokens))
	api.Use(limiter.RateLimit())
	api.Use(middleware.TenantScope(deps.Scoper))
	deps.Beds.RegisterRoutes(api)
	deps.Patients.RegisterRoutes(api)

	return r
}

func httpMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
