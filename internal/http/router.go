// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/auth"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/config"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/http/handlers"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/http/middleware"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/notify"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/repo"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/services"
)

// roomRepoShim adapts the repository free functions to the services.RoomRepo
// interface expected by the RoomService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type roomRepoShim struct{}

// CreateRoom proxies repo.CreateRoom.
func (roomRepoShim) CreateRoom(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return repo.CreateRoom(ctx, db, room)
}

// GetRoom proxies repo.GetRoom.
func (roomRepoShim) GetRoom(ctx context.Context, db *gorm.DB, code string, now time.Time) (*domain.Room, error) {
	return repo.GetRoom(ctx, db, code, now)
}

// RoomCodeExists proxies repo.RoomCodeExists.
func (roomRepoShim) RoomCodeExists(ctx context.Context, db *gorm.DB, code string, now time.Time) (bool, error) {
	return repo.RoomCodeExists(ctx, db, code, now)
}

// itemRepoShim adapts the repository free functions to services.ItemRepo.
type itemRepoShim struct{}

// CreateItem proxies repo.CreateItem.
func (itemRepoShim) CreateItem(ctx context.Context, db *gorm.DB, item *domain.FoodItem) error {
	return repo.CreateItem(ctx, db, item)
}

// ListItems proxies repo.ListItems.
func (itemRepoShim) ListItems(ctx context.Context, db *gorm.DB, roomCode string, now time.Time) ([]domain.FoodItem, error) {
	return repo.ListItems(ctx, db, roomCode, now)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per participant/IP)
//  8. CORS and Security headers
//  9. Gzip (skipping the SSE stream, which must not be buffered)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *notify.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per participant/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByParticipantOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 9) Compress responses, except the event stream: compression middleware
	// buffers output, which would hold SSE events hostage.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`^.*/stream$`}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/hub
	issuer := auth.NewIssuer(cfg.JWTSecret)
	roomSvc := services.NewRoomService(db, roomRepoShim{}, issuer, cfg.RoomTTL)
	itemSvc := services.NewItemService(db, itemRepoShim{}, roomSvc, hub)
	h := handlers.New(roomSvc, itemSvc, hub)

	requireAuth := middleware.BearerAuth(issuer)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Rooms
		api.POST("/rooms", h.CreateRoom)
		api.POST("/rooms/join", h.JoinRoom)
		api.GET("/rooms/:code", h.GetRoom)

		// Ledger
		api.GET("/rooms/:code/items", h.ListItems)
		api.POST("/rooms/:code/items", requireAuth, h.AddItem)
		api.GET("/rooms/:code/bill", h.GetBill)

		// Live updates
		api.GET("/rooms/:code/stream", requireAuth, h.StreamItems)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
