package server

import (
	"fmt"
	"net/http"
	"time"

	admH "github.com/fekuna/catalog-storefront/internal/admin/handler"
	"github.com/fekuna/catalog-storefront/internal/auth"
	catH "github.com/fekuna/catalog-storefront/internal/category/handler"
	leadH "github.com/fekuna/catalog-storefront/internal/lead/handler"
	prodH "github.com/fekuna/catalog-storefront/internal/product/handler"
	"github.com/fekuna/catalog-storefront/internal/sitemap"
	uplH "github.com/fekuna/catalog-storefront/internal/upload/handler"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Admin    *admH.AdminHandler
	Category *catH.CategoryHandler
	Product  *prodH.ProductHandler
	Lead     *leadH.LeadHandler
	Upload   *uplH.UploadHandler
	Sitemap  *sitemap.Handler
}

type Options struct {
	AllowedOrigins []string
	// TrustedProxies lists the proxy IPs/CIDRs whose X-Forwarded-For is
	// believed; with none, the socket address is the client IP.
	TrustedProxies []string
	Release        bool
	Tokens         *auth.TokenManager
	// Ready reports whether backing services are reachable; nil means always.
	Ready func() error
}

// NewRouter mounts the public API under /api and the session-protected admin
// API under /api/admin.
func NewRouter(opts Options, h Handlers, log logger.ZapLogger) (*gin.Engine, error) {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	if h.Sitemap != nil {
		h.Sitemap.Register(r)
	}

	api := r.Group("/api")
	h.Category.RegisterPublic(api)
	h.Product.RegisterPublic(api)
	h.Lead.RegisterPublic(api)

	session := api.Group("/admin")
	h.Admin.RegisterSession(session)

	protected := api.Group("/admin", auth.RequireAdmin(opts.Tokens))
	h.Admin.RegisterAdmin(protected)
	h.Category.RegisterAdmin(protected)
	h.Product.RegisterAdmin(protected)
	h.Lead.RegisterAdmin(protected)
	if h.Upload != nil {
		h.Upload.RegisterAdmin(protected)
	}

	return r, nil
}
