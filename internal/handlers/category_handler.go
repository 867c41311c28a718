package handlers

import (
	"net/http"

	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/categories --- (active only)
func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.Catalog.ActiveCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// --- GET: /api/admin/categories ---
func (h *Handler) AdminCategories(c *gin.Context) {
	var cats []models.Category
	if err := h.DB.WithContext(c.Request.Context()).Order("name asc").Find(&cats).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var in CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		respondError(c, invalid("Category name is required"))
		return
	}

	ctx := c.Request.Context()
	cat := models.Category{Name: in.Name, Description: in.Description, ImageURL: in.ImageURL, IsActive: true}
	if err := h.DB.WithContext(ctx).Create(&cat).Error; err != nil {
		respondError(c, err)
		return
	}
	if in.IsActive != nil && !*in.IsActive {
		if err := h.DB.WithContext(ctx).Model(&cat).Update("is_active", false).Error; err != nil {
			respondError(c, err)
			return
		}
	}
	h.Catalog.Invalidate(ctx)
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var in CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		respondError(c, invalid("Category name is required"))
		return
	}

	ctx := c.Request.Context()
	var cat models.Category
	if err := h.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		respondError(c, err)
		return
	}
	updates := map[string]interface{}{
		"name":        in.Name,
		"description": in.Description,
		"image_url":   in.ImageURL,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := h.DB.WithContext(ctx).Model(&cat).Updates(updates).Error; err != nil {
		respondError(c, err)
		return
	}
	h.Catalog.Invalidate(ctx)
	h.DB.WithContext(ctx).First(&cat, id)
	c.JSON(http.StatusOK, cat)
}

// DeleteCategory refuses while products still point at the category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		respondError(c, err)
		return
	}
	if n > 0 {
		respondError(c, conflict("This category still has products. Move or delete them first."))
		return
	}

	res := h.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errNotFound)
		return
	}
	h.Catalog.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
