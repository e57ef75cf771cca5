package router

import (
	"net/http"

	"caskledger/internal/apierror"
	"caskledger/internal/config"
	"caskledger/internal/handler"
	"caskledger/internal/infra"
	"caskledger/internal/middleware"
	"caskledger/internal/repository"
	"caskledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil, in which case the stats cache is disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	// ── Infrastructure ───────────────────────────────────────────────────────
	cache := infra.NewRedisCache(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))

	// ── Repositories + Services ──────────────────────────────────────────────
	var svcCache service.Cache
	if cache != nil {
		svcCache = cache
	}
	svcs := service.New(repository.NewGormStores(db), svcCache, cfg.StatsCacheTTL())

	return Engine(cfg, svcs, handler.Health(db, cache))
}

// Engine mounts the ledger API over an already-wired service set. health may
// be nil when there is no database to probe.
func Engine(cfg *config.Config, svcs *service.Services, health gin.HandlerFunc) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute))
	r.Use(middleware.ErrorHandler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	batchesH := handler.NewBatchesHandler(svcs.Batches)
	barrelsH := handler.NewBarrelsHandler(svcs.Barrels)
	usageH := handler.NewUsageLogsHandler(svcs.Usage)
	runsH := handler.NewBottlingRunsHandler(svcs.Bottling)
	shipmentsH := handler.NewShipmentsHandler(svcs.Shipments)
	reportsH := handler.NewReportsHandler(svcs.Reports, svcs.Dashboard)

	// ── Routes ───────────────────────────────────────────────────────────────
	if health != nil {
		r.GET("/health", health)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/barrel-batches", batchesH.List)
		v1.POST("/barrel-batches", batchesH.Create)

		v1.GET("/barrels", barrelsH.List)
		v1.PATCH("/barrels/:id", barrelsH.Update)

		v1.GET("/usage-logs", usageH.List)
		v1.POST("/usage-logs", usageH.Create)

		v1.GET("/bottling-runs", runsH.List)
		v1.POST("/bottling-runs", runsH.Create)

		v1.GET("/shipments", shipmentsH.List)
		v1.POST("/shipments", shipmentsH.Create)

		v1.GET("/reports/monthly", reportsH.Monthly)
		v1.GET("/dashboard/stats", reportsH.DashboardStats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apierror.New(apierror.KindNotFound, "route not found"))
	})

	return r
}
