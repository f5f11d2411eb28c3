package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/labportal/server/cmd/server/docs" // swagger docs
	"github.com/labportal/server/internal/infra/config"
	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/utils/middleware"
)

// Application is a runnable server.
type Application interface {
	Router() *gin.Engine
	Stop()
}

// App wires the portal together.
type App struct {
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates the application from configuration.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	a := &App{
		deps:    deps,
		cleanup: cleanup,
	}
	a.registerEventHandlers()
	a.router = a.setupRouter()
	a.registerRoutes()

	deps.Logger.Info("application initialized",
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("redis", deps.Redis != nil),
		zap.Bool("broker", deps.Broker != nil),
	)
	return a, nil
}

// registerEventHandlers subscribes roster refreshes to membership changes and,
// with a broker, forwards every domain event to it.
func (a *App) registerEventHandlers() {
	a.deps.Bus.Register(a.deps.RosterDomain.Handler())
	if a.deps.Broker != nil {
		a.deps.Bus.Register(events.NewForwarder(a.deps.Broker))
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	cfg := a.deps.Config
	switch {
	case cfg.Server.Mode != "":
		gin.SetMode(cfg.Server.Mode)
	case cfg.Log.Level == "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.Metrics(a.deps.Metrics))
	r.Use(middleware.CORS(middleware.CORSWithOrigins(cfg.CORS.AllowOrigins)))

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes mounts the API.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")
	a.deps.PortalHandler.RegisterRoutes(v1, middleware.Auth(a.deps.Verifier))
}

// health reports liveness, and database reachability when Postgres backs the
// store.
func (a *App) health(c *gin.Context) {
	if a.deps.DB != nil {
		sqlDB, err := a.deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.deps.Logger
}

// Stop releases connections held by the application.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
	}
	_ = a.deps.Logger.Sync()
}

var _ Application = (*App)(nil)

// Shutdown drains srv and then stops the application.
func Shutdown(ctx context.Context, srv *http.Server, a Application) error {
	err := srv.Shutdown(ctx)
	a.Stop()
	return err
}
