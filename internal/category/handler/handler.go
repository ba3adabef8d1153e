package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/catalog-storefront/internal/category"
	"github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/pkg/logger"
	"github.com/fekuna/catalog-storefront/pkg/response"
	"github.com/gin-gonic/gin"
)

// Paths is the URL segment used for each taxonomy level.
var Paths = map[model.Level]string{
	model.LevelCategory:         "categories",
	model.LevelSubCategory:      "sub-categories",
	model.LevelSuperSubCategory: "super-sub-categories",
}

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

// categoryRequest accepts the parent either as parent_id or under the
// column name of the level (category_id / sub_category_id).
type categoryRequest struct {
	ParentID        *string `json:"parent_id"`
	CategoryID      *string `json:"category_id"`
	SubCategoryID   *string `json:"sub_category_id"`
	Name            *string `json:"name"`
	Slug            *string `json:"slug"`
	Description     *string `json:"description"`
	ImageURL        *string `json:"image_url"`
	SortOrder       *int    `json:"sort_order"`
	IsActive        *bool   `json:"is_active"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
}

func (r *categoryRequest) parent(level model.Level) *string {
	switch level {
	case model.LevelSubCategory:
		if r.CategoryID != nil {
			return r.CategoryID
		}
	case model.LevelSuperSubCategory:
		if r.SubCategoryID != nil {
			return r.SubCategoryID
		}
	}
	return r.ParentID
}

func (h *CategoryHandler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/categories", h.listPublic(model.LevelCategory, ""))
	rg.GET("/categories/:slug", h.GetCategoryWithChildren)
	rg.GET("/sub-categories", h.listPublic(model.LevelSubCategory, "category_id"))
	rg.GET("/super-sub-categories", h.listPublic(model.LevelSuperSubCategory, "sub_category_id"))
}

func (h *CategoryHandler) RegisterAdmin(rg *gin.RouterGroup) {
	for _, level := range model.Levels {
		g := rg.Group("/" + Paths[level])
		g.GET("", h.List(level))
		g.GET("/:id", h.Get(level))
		g.POST("", h.Create(level))
		g.PUT("/:id", h.Update(level))
		g.PATCH("/:id", h.Update(level))
		g.DELETE("/:id", h.Delete(level))
	}
}

func (h *CategoryHandler) listPublic(level model.Level, parentParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := true
		filters := &dto.CategoryFilters{Level: level, IsActive: &active}
		if parentParam != "" {
			if v := c.Query(parentParam); v != "" {
				filters.ParentID = &v
			}
		}

		cats, _, err := h.uc.ListCategories(c.Request.Context(), filters)
		if err != nil {
			response.Internal(c, h.logger, "failed to list categories", err)
			return
		}
		c.JSON(http.StatusOK, cats)
	}
}

func (h *CategoryHandler) GetCategoryWithChildren(c *gin.Context) {
	ctx := c.Request.Context()
	cat, err := h.uc.GetCategoryBySlug(ctx, model.LevelCategory, nil, c.Param("slug"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !cat.IsActive {
		response.Error(c, http.StatusNotFound, "Category not found")
		return
	}

	active := true
	subs, _, err := h.uc.ListCategories(ctx, &dto.CategoryFilters{
		Level:    model.LevelSubCategory,
		ParentID: &cat.ID,
		IsActive: &active,
	})
	if err != nil {
		response.Internal(c, h.logger, "failed to list sub-categories", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":      cat,
		"subCategories": subs,
	})
}

func (h *CategoryHandler) List(level model.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := response.Page(c, 50, 200)
		filters := &dto.CategoryFilters{
			Level:    level,
			Search:   c.Query("search"),
			Page:     page,
			PageSize: limit,
		}
		if v := c.Query("parent_id"); v != "" {
			filters.ParentID = &v
		}

		cats, total, err := h.uc.ListCategories(c.Request.Context(), filters)
		if err != nil {
			response.Internal(c, h.logger, "failed to list categories", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":  cats,
			"total": total,
			"page":  page,
			"limit": limit,
		})
	}
}

func (h *CategoryHandler) Get(level model.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := h.uc.GetCategory(c.Request.Context(), level, c.Param("id"))
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func (h *CategoryHandler) Create(level model.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		parent := req.parent(level)
		if req.Name == nil || *req.Name == "" {
			response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
			return
		}
		if _, needsParent := level.Parent(); needsParent && (parent == nil || *parent == "") {
			response.Error(c, http.StatusBadRequest, response.MsgMissingFields)
			return
		}

		input := &dto.CreateCategoryInput{
			Level:           level,
			Name:            *req.Name,
			Slug:            deref(req.Slug),
			Description:     deref(req.Description),
			ImageURL:        deref(req.ImageURL),
			IsActive:        req.IsActive,
			MetaTitle:       deref(req.MetaTitle),
			MetaDescription: deref(req.MetaDescription),
		}
		if parent != nil {
			input.ParentID = *parent
		}
		if req.SortOrder != nil {
			input.SortOrder = *req.SortOrder
		}

		cat, err := h.uc.CreateCategory(c.Request.Context(), input)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

func (h *CategoryHandler) Update(level model.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		if req.Name != nil && *req.Name == "" {
			response.Error(c, http.StatusBadRequest, "name cannot be empty")
			return
		}

		cat, err := h.uc.UpdateCategory(c.Request.Context(), &dto.UpdateCategoryInput{
			Level:           level,
			ID:              c.Param("id"),
			ParentID:        req.parent(level),
			Name:            req.Name,
			Slug:            req.Slug,
			Description:     req.Description,
			ImageURL:        req.ImageURL,
			SortOrder:       req.SortOrder,
			IsActive:        req.IsActive,
			MetaTitle:       req.MetaTitle,
			MetaDescription: req.MetaDescription,
		})
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func (h *CategoryHandler) Delete(level model.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.uc.DeleteCategory(c.Request.Context(), level, c.Param("id")); err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
	}
}

func (h *CategoryHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, category.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, category.ErrSlugTaken):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, category.ErrInvalidParent),
		errors.Is(err, category.ErrInvalidSlug),
		errors.Is(err, category.ErrInvalidLevel):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Internal(c, h.logger, "category request failed", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
