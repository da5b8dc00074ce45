package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclinic-br/consultorio-api/internal/config"
	"github.com/openclinic-br/consultorio-api/internal/handler"
	consultationHandler "github.com/openclinic-br/consultorio-api/internal/handler/consultation"
	financeHandler "github.com/openclinic-br/consultorio-api/internal/handler/finance"
	patientHandler "github.com/openclinic-br/consultorio-api/internal/handler/patient"
	"github.com/openclinic-br/consultorio-api/internal/middleware"
	"github.com/openclinic-br/consultorio-api/pkg/metrics"
)

type Router struct {
	engine *gin.Engine

	health        *handler.HealthHandler
	patients      *patientHandler.Handler
	consultations *consultationHandler.Handler
	finance       *financeHandler.Handler
}

func NewRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	health *handler.HealthHandler,
	patients *patientHandler.Handler,
	consultations *consultationHandler.Handler,
	finance *financeHandler.Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.CORS())
	engine.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	return &Router{
		engine:        engine,
		health:        health,
		patients:      patients,
		consultations: consultations,
		finance:       finance,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.health.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	r.patients.RegisterRoutes(v1)
	r.consultations.RegisterRoutes(v1)
	r.finance.RegisterRoutes(v1)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
