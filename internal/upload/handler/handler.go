package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/catalog-storefront/internal/upload"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uc       upload.UseCase
	maxBytes int64
	logger   logger.ZapLogger
}

func NewUploadHandler(uc upload.UseCase, maxBytes int64, log logger.ZapLogger) *UploadHandler {
	return &UploadHandler{
		uc:       uc,
		maxBytes: maxBytes,
		logger:   log,
	}
}

func (h *UploadHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/upload", h.Upload)
	rg.DELETE("/upload", h.Delete)
}

func (h *UploadHandler) Upload(c *gin.Context) {
	// Leave headroom for the multipart envelope and the folder field.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, upload.ErrFileTooLarge.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, "No file provided")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Internal(c, h.logger, "failed to open upload", err)
		return
	}
	defer f.Close()

	res, err := h.uc.Upload(c.Request.Context(), c.PostForm("folder"), &upload.File{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UploadHandler) Delete(c *gin.Context) {
	key := c.Query("path")
	if key == "" {
		response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
		return
	}
	if err := h.uc.Delete(c.Request.Context(), key); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

func (h *UploadHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrInvalidFolder),
		errors.Is(err, upload.ErrInvalidPath):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Internal(c, h.logger, "upload request failed", err)
	}
}
