// Package httpapi wires the HTTP transport (Gin) to the score service,
// middleware and route handlers.
//
// By default the engine serves exactly one resource path (GET and POST);
// everything else is a plain-text 404 or 405. Swagger UI, gzip and CORS are
// opt-in through configuration.
package httpapi

import (
	"context"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/hanoi-scores/internal/config"
	"github.com/tbourn/hanoi-scores/internal/docs"
	"github.com/tbourn/hanoi-scores/internal/domain"
	"github.com/tbourn/hanoi-scores/internal/http/handlers"
	"github.com/tbourn/hanoi-scores/internal/http/middleware"
	"github.com/tbourn/hanoi-scores/internal/repo"
	"github.com/tbourn/hanoi-scores/internal/services"
	"github.com/tbourn/hanoi-scores/internal/workerpool"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// swaggerBase publishes the docs base path once per process; docs.SwaggerInfo
// is a package global.
var swaggerBase sync.Once

// scoreRepoShim adapts the repository free functions to services.ScoreRepo.
type scoreRepoShim struct{}

// CreateScore proxies repo.CreateScore.
func (scoreRepoShim) CreateScore(ctx context.Context, db *gorm.DB, in domain.NewScore) (*domain.Score, error) {
	return repo.CreateScore(ctx, db, in)
}

// ListScores proxies repo.ListScores.
func (scoreRepoShim) ListScores(ctx context.Context, db *gorm.DB, limit int) ([]domain.Score, error) {
	return repo.ListScores(ctx, db, limit)
}

// RegisterRoutes attaches middleware and the score endpoints to r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Logger
//  4. Recovery
//  5. Body size limit
//  6. Metrics
//  7. gzip (GZIP_ENABLED)
//  8. CORS (non-empty CORS_ALLOWED_ORIGINS)
//  9. Security headers
//
// A nil pool runs storage calls on the request goroutine.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pool *workerpool.Pool, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())

	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	// A typed nil *Pool must not reach the interface field.
	var sub services.Submitter
	if pool != nil {
		sub = pool
	}
	h := handlers.New(services.NewScoreService(db, scoreRepoShim{}, sub))

	scores := cfg.ScoresPath
	if scores == "" {
		scores = "/"
	}
	r.GET(scores, h.ListScores)
	r.POST(scores, h.CreateScore)

	if cfg.SwaggerEnabled {
		swaggerBase.Do(func() { docs.SwaggerInfo.BasePath = path.Dir(scores) })
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// limitBody caps the request body size using http.MaxBytesReader. Reads past
// the cap fail, which the JSON decoder reports as a 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
