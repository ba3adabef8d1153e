package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/catalog-storefront/internal/lead"
	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeadHandler struct {
	uc     lead.UseCase
	logger logger.ZapLogger
}

func NewLeadHandler(uc lead.UseCase, log logger.ZapLogger) *LeadHandler {
	return &LeadHandler{
		uc:     uc,
		logger: log,
	}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type catalogueRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	Company     string `json:"company"`
	ProductID   string `json:"product_id" binding:"required_without=ProductName"`
	ProductName string `json:"product_name" binding:"required_without=ProductID"`
	Message     string `json:"message"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *LeadHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.POST("/contact", h.SubmitContact)
	rg.POST("/newsletter", h.Subscribe)
	rg.POST("/newsletter/unsubscribe", h.Unsubscribe)
	rg.POST("/catalogue-request", h.RequestCatalogue)
}

func (h *LeadHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/contact-enquiries", h.ListEnquiries)
	rg.PATCH("/contact-enquiries/:id", h.UpdateEnquiryStatus)
	rg.DELETE("/contact-enquiries/:id", h.Delete(lead.KindEnquiry))

	rg.GET("/newsletter-subscriptions", h.ListSubscriptions)
	rg.DELETE("/newsletter-subscriptions/:id", h.Delete(lead.KindSubscription))

	rg.GET("/catalogue-requests", h.ListCatalogueRequests)
	rg.GET("/catalogue-requests/export", h.ExportCatalogueRequests)
	rg.DELETE("/catalogue-requests/:id", h.Delete(lead.KindCatalogueRequest))
}

func (h *LeadHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if blank(req.Name, req.Message) {
		response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
		return
	}

	e, err := h.uc.SubmitEnquiry(c.Request.Context(), &dto.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		response.Internal(c, h.logger, "failed to store contact enquiry", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Thank you for contacting us. We will get back to you soon.",
		"id":      e.ID,
	})
}

func (h *LeadHandler) Subscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	s, err := h.uc.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Successfully subscribed to newsletter",
		"id":      s.ID,
	})
}

func (h *LeadHandler) Unsubscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.uc.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unsubscribed"})
}

func (h *LeadHandler) RequestCatalogue(c *gin.Context) {
	var req catalogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if blank(req.Name, req.Phone) || blank(req.ProductID+req.ProductName) {
		response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
		return
	}

	r, err := h.uc.RequestCatalogue(c.Request.Context(), &dto.CatalogueInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Message:     req.Message,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Catalogue request received",
		"id":      r.ID,
		"pdf_url": r.PDFURL,
	})
}

func (h *LeadHandler) ListEnquiries(c *gin.Context) {
	filters, ok := h.filters(c)
	if !ok {
		return
	}
	filters.Status = c.Query("status")
	rows, total, err := h.uc.ListEnquiries(c.Request.Context(), filters)
	if err != nil {
		response.Internal(c, h.logger, "failed to list contact enquiries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total, "page": filters.Page, "limit": filters.PageSize})
}

func (h *LeadHandler) ListSubscriptions(c *gin.Context) {
	filters, ok := h.filters(c)
	if !ok {
		return
	}
	rows, total, err := h.uc.ListSubscriptions(c.Request.Context(), filters)
	if err != nil {
		response.Internal(c, h.logger, "failed to list newsletter subscriptions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total, "page": filters.Page, "limit": filters.PageSize})
}

func (h *LeadHandler) ListCatalogueRequests(c *gin.Context) {
	filters, ok := h.filters(c)
	if !ok {
		return
	}
	rows, total, err := h.uc.ListCatalogueRequests(c.Request.Context(), filters)
	if err != nil {
		response.Internal(c, h.logger, "failed to list catalogue requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total, "page": filters.Page, "limit": filters.PageSize})
}

func (h *LeadHandler) UpdateEnquiryStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := h.uc.UpdateEnquiryStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "status": req.Status})
}

func (h *LeadHandler) Delete(kind lead.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.uc.DeleteLead(c.Request.Context(), kind, c.Param("id")); err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
	}
}

func (h *LeadHandler) ExportCatalogueRequests(c *gin.Context) {
	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.uc.ExportCatalogueRequests(c.Request.Context(), from, to, &buf); err != nil {
		response.Internal(c, h.logger, "failed to export catalogue requests", err)
		return
	}

	filename := fmt.Sprintf("catalogue-requests-%s.pdf", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *LeadHandler) filters(c *gin.Context) (*dto.ListFilters, bool) {
	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	page, limit := response.Page(c, 20, 100)
	return &dto.ListFilters{
		Search:   strings.TrimSpace(c.Query("search")),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: limit,
	}, true
}

func (h *LeadHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lead.ErrAlreadySubscribed):
		response.Error(c, http.StatusConflict, "Email is already subscribed")
	case errors.Is(err, lead.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Not found")
	case errors.Is(err, lead.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, lead.ErrInvalidStatus), errors.Is(err, lead.ErrInvalidKind):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Internal(c, h.logger, "lead request failed", err)
	}
}

// parseRange accepts RFC3339 or YYYY-MM-DD. A bare date for "to" covers the
// whole day.
func parseRange(fromRaw, toRaw string) (from, to *time.Time, err error) {
	if fromRaw != "" {
		t, _, err := parseTime(fromRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from date %q", fromRaw)
		}
		from = &t
	}
	if toRaw != "" {
		t, dateOnly, err := parseTime(toRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to date %q", toRaw)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, errors.New("to must not be before from")
	}
	return from, to, nil
}

func parseTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, true, err
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
