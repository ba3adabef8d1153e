package sitemap

import (
	"encoding/xml"
	"net/http"

	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	builder *Builder
	logger  logger.ZapLogger
}

func NewHandler(builder *Builder, log logger.ZapLogger) *Handler {
	return &Handler{builder: builder, logger: log}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/robots.txt", h.Robots)
}

func (h *Handler) Sitemap(c *gin.Context) {
	set, err := h.builder.Build(c.Request.Context())
	if err != nil {
		response.Internal(c, h.logger, "failed to build sitemap", err)
		return
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		response.Internal(c, h.logger, "failed to encode sitemap", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func (h *Handler) Robots(c *gin.Context) {
	c.String(http.StatusOK, h.builder.Robots())
}
