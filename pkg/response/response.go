package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	MsgMissingFields = "Missing required fields"
	MsgInternal      = "Internal server error"
)

func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Internal logs err and answers with a generic 500 so no driver detail leaks.
func Internal(c *gin.Context, log logger.ZapLogger, msg string, err error) {
	log.Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": MsgInternal})
}

// Page reads page/limit query params, clamping limit to max.
func Page(c *gin.Context, defaultLimit, max int) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

// BindError answers a failed ShouldBind* call: missing required fields and
// malformed emails get their own messages, anything else is a generic 400.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" || fe.Tag() == "required_without" {
				Error(c, http.StatusBadRequest, MsgMissingFields)
				return
			}
		}
		for _, fe := range verrs {
			if fe.Tag() == "email" {
				Error(c, http.StatusBadRequest, "Invalid email address")
				return
			}
		}
	}
	Error(c, http.StatusBadRequest, "Invalid request body")
}
