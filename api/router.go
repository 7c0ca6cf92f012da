// api/router.go
package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-dq/api/handlers"
	"github.com/Annany2002/nebula-dq/api/middleware"
	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/catalogclient"
	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/metrics"
	"github.com/Annany2002/nebula-dq/internal/storage"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

// Deps are the long-lived collaborators the router is built around.
type Deps struct {
	Registry    *testcase.Registry
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
}

// SetupRouter initializes the Gin router and sets up all routes. catalogDB is
// the local catalog store and may be nil when cfg points at a remote catalog.
func SetupRouter(catalogDB *sql.DB, cfg *config.Config, deps Deps) (*gin.Engine, error) {
	namePattern, err := core.CompileEntityNamePattern(cfg.EntityNamePattern)
	if err != nil {
		return nil, err
	}
	if deps.Registry == nil {
		deps.Registry = testcase.NewRegistry()
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	// --- Catalog wiring ---
	var (
		catalog testcase.Catalog
		sink    handlers.TestCaseSink
		writer  handlers.DefinitionWriter
	)
	if cfg.UsesRemoteCatalog() {
		client, err := catalogclient.NewClient(cfg.CatalogURL, cfg.CatalogToken, cfg.CatalogTimeout, deps.Metrics)
		if err != nil {
			return nil, err
		}
		catalog, sink = client, client
	} else {
		if catalogDB == nil {
			return nil, fmt.Errorf("local catalog selected but no catalog database was provided")
		}
		local := storage.NewCatalog(catalogDB, deps.Metrics)
		catalog, sink, writer = local, local, local
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware(cfg))
	router.Use(deps.Metrics.Middleware())
	router.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	// It should run after basic middleware like Logger/Recovery
	// but before the routing happens, so it wraps the handlers.
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	catalogHandler := handlers.NewCatalogHandler(catalog, writer, cfg)
	formHandler := handlers.NewFormHandler(deps.Registry, catalog, sink, testcase.NewRuleSet(namePattern), cfg, deps.Metrics)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	apiRoutes := router.Group("/api/v1")
	{
		dq := apiRoutes.Group("/dataQuality")
		dq.GET("/testDefinitions", catalogHandler.ListTestDefinitions)
		if writer != nil {
			dq.POST("/testDefinitions", catalogHandler.CreateTestDefinition)
		}
		dq.GET("/testCases", catalogHandler.ListTestCases)

		forms := apiRoutes.Group("/forms")
		forms.POST("", formHandler.OpenForm)
		forms.GET("/:form_id", formHandler.GetForm)
		forms.PATCH("/:form_id", formHandler.UpdateForm)
		forms.DELETE("/:form_id", formHandler.CloseForm)
		forms.POST("/:form_id/validate", formHandler.ValidateForm)
		forms.POST("/:form_id/submit", formHandler.SubmitForm)
		forms.POST("/:form_id/cancel", formHandler.CancelForm)

		apiRoutes.GET("/paths/testSuite", handlers.TestSuitePath)
	}

	return router, nil
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return cors.New(corsCfg)
}
