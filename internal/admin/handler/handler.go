package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/fekuna/catalog-storefront/internal/admin"
	"github.com/fekuna/catalog-storefront/internal/admin/dto"
	"github.com/fekuna/catalog-storefront/internal/auth"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	uc           admin.UseCase
	tokens       *auth.TokenManager
	secureCookie bool
	logger       logger.ZapLogger
}

func NewAdminHandler(uc admin.UseCase, tokens *auth.TokenManager, secureCookie bool, log logger.ZapLogger) *AdminHandler {
	return &AdminHandler{
		uc:           uc,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       log,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterSession mounts the routes that must work without a session.
func (h *AdminHandler) RegisterSession(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/status", h.Status)
}

func (h *AdminHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	session, err := h.uc.Login(c.Request.Context(), c.ClientIP(), req.Username, req.Password)
	if err != nil {
		var limited *admin.RateLimitError
		switch {
		case errors.As(err, &limited):
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
			response.Error(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		case errors.Is(err, admin.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			response.Internal(c, h.logger, "login failed", err)
		}
		return
	}

	h.setCookie(c, session.Token, int(h.tokens.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"adminInfo": session.Admin,
	})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status never fails: a missing or invalid cookie reports an anonymous session.
func (h *AdminHandler) Status(c *gin.Context) {
	tokenString, err := c.Cookie(auth.CookieName)
	if err != nil || tokenString == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "adminInfo": nil})
		return
	}
	claims, err := h.tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "adminInfo": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"adminInfo": dto.AdminInfo{
			UserID:   claims.UserID,
			Username: claims.Username,
			Name:     claims.Name,
		},
	})
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.uc.Dashboard(c.Request.Context())
	if err != nil {
		response.Internal(c, h.logger, "failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *AdminHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.secureCookie, true)
}
