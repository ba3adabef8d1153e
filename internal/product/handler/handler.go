package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/catalog-storefront/internal/product"
	"github.com/fekuna/catalog-storefront/internal/product/dto"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

type productRequest struct {
	CategoryID         *string  `json:"category_id"`
	SubCategoryID      *string  `json:"sub_category_id"`
	SuperSubCategoryID *string  `json:"super_sub_category_id"`
	Name               *string  `json:"name"`
	Slug               *string  `json:"slug"`
	Description        *string  `json:"description"`
	ShortDescription   *string  `json:"short_description"`
	ImageURL           *string  `json:"image_url"`
	PDFURL             *string  `json:"pdf_url"`
	Price              *float64 `json:"price"`
	IsFeatured         *bool    `json:"is_featured"`
	IsActive           *bool    `json:"is_active"`
	SortOrder          *int     `json:"sort_order"`
	MetaTitle          *string  `json:"meta_title"`
	MetaDescription    *string  `json:"meta_description"`
}

func (h *ProductHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/*slug", h.ResolveSlug)
	rg.GET("/search", h.SearchProducts)
}

func (h *ProductHandler) RegisterAdmin(rg *gin.RouterGroup) {
	g := rg.Group("/products")
	g.GET("", h.AdminListProducts)
	g.GET("/:id", h.GetProduct)
	g.POST("", h.CreateProduct)
	g.PUT("/:id", h.UpdateProduct)
	g.PATCH("/:id", h.UpdateProduct)
	g.DELETE("/:id", h.DeleteProduct)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	active := true
	h.list(c, &active, "products")
}

// AdminListProducts includes inactive rows unless ?active= narrows it.
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	h.list(c, boolQuery(c, "active"), "data")
}

func (h *ProductHandler) list(c *gin.Context, active *bool, key string) {
	page, limit := response.Page(c, 20, 100)
	filters := &dto.ProductFilters{
		CategoryID:         c.Query("category_id"),
		SubCategoryID:      c.Query("sub_category_id"),
		SuperSubCategoryID: c.Query("super_sub_category_id"),
		IsActive:           active,
		IsFeatured:         boolQuery(c, "featured"),
		SearchQuery:        strings.TrimSpace(c.Query("search")),
		SortBy:             c.Query("sort"),
		SortOrder:          c.Query("order"),
		Page:               page,
		PageSize:           limit,
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		response.Internal(c, h.logger, "failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		key:     products,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *ProductHandler) ResolveSlug(c *gin.Context) {
	page, limit := response.Page(c, 24, 100)
	res, err := h.uc.Resolve(c.Request.Context(), &dto.ResolveInput{
		Segments: strings.Split(strings.Trim(c.Param("slug"), "/"), "/"),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) SearchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	page, limit := response.Page(c, 20, 100)
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"products": []any{}, "total": 0, "page": page, "limit": limit})
		return
	}

	products, total, err := h.uc.SearchProducts(c.Request.Context(), q, page, limit)
	if err != nil {
		response.Internal(c, h.logger, "failed to search products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if deref(req.Name) == "" || deref(req.CategoryID) == "" {
		response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
		return
	}

	input := &dto.CreateProductInput{
		CategoryID:         *req.CategoryID,
		SubCategoryID:      deref(req.SubCategoryID),
		SuperSubCategoryID: deref(req.SuperSubCategoryID),
		Name:               *req.Name,
		Slug:               deref(req.Slug),
		Description:        deref(req.Description),
		ShortDescription:   deref(req.ShortDescription),
		ImageURL:           deref(req.ImageURL),
		PDFURL:             deref(req.PDFURL),
		Price:              req.Price,
		IsActive:           req.IsActive,
		MetaTitle:          deref(req.MetaTitle),
		MetaDescription:    deref(req.MetaDescription),
	}
	if req.IsFeatured != nil {
		input.IsFeatured = *req.IsFeatured
	}
	if req.SortOrder != nil {
		input.SortOrder = *req.SortOrder
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		response.Error(c, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.CategoryID != nil && *req.CategoryID == "" {
		response.Error(c, http.StatusBadRequest, "category_id cannot be empty")
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:                 c.Param("id"),
		CategoryID:         req.CategoryID,
		SubCategoryID:      req.SubCategoryID,
		SuperSubCategoryID: req.SuperSubCategoryID,
		Name:               req.Name,
		Slug:               req.Slug,
		Description:        req.Description,
		ShortDescription:   req.ShortDescription,
		ImageURL:           req.ImageURL,
		PDFURL:             req.PDFURL,
		Price:              req.Price,
		IsFeatured:         req.IsFeatured,
		IsActive:           req.IsActive,
		SortOrder:          req.SortOrder,
		MetaTitle:          req.MetaTitle,
		MetaDescription:    req.MetaDescription,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

func (h *ProductHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, product.ErrSlugTaken):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, product.ErrInvalidCategory), errors.Is(err, product.ErrInvalidSlug):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Internal(c, h.logger, "product request failed", err)
	}
}

func boolQuery(c *gin.Context, key string) *bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
