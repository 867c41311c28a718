package handlers

import (
	"net/http"

	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) ListIngredients(c *gin.Context) {
	var list []models.Ingredient
	if err := h.DB.WithContext(c.Request.Context()).Order("name asc").Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type IngredientInput struct {
	Name              string  `json:"name" binding:"required"`
	Unit              string  `json:"unit"`
	StockQuantity     float64 `json:"stock_quantity"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
}

func bindIngredient(c *gin.Context) (IngredientInput, error) {
	var in IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, invalid("Ingredient name is required")
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		return in, invalid("Ingredient name is required")
	}
	if in.StockQuantity < 0 || in.LowStockThreshold < 0 {
		return in, invalid("Quantities cannot be negative")
	}
	in.Unit = trimmed(in.Unit)
	return in, nil
}

func (h *Handler) CreateIngredient(c *gin.Context) {
	in, err := bindIngredient(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ing := models.Ingredient{
		Name:              in.Name,
		Unit:              in.Unit,
		StockQuantity:     in.StockQuantity,
		LowStockThreshold: in.LowStockThreshold,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&ing).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (h *Handler) UpdateIngredient(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := bindIngredient(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var ing models.Ingredient
	if err := h.DB.WithContext(ctx).First(&ing, id).Error; err != nil {
		respondError(c, err)
		return
	}
	ing.Name, ing.Unit = in.Name, in.Unit
	ing.StockQuantity, ing.LowStockThreshold = in.StockQuantity, in.LowStockThreshold
	if err := h.DB.WithContext(ctx).Save(&ing).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

// DeleteIngredient refuses while a recipe uses the ingredient; branch stock
// rows for it go with it.
func (h *Handler) DeleteIngredient(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.ProductIngredient{}).Where("ingredient_id = ?", id).Count(&n).Error; err != nil {
		respondError(c, err)
		return
	}
	if n > 0 {
		respondError(c, conflict("This ingredient is used in product recipes."))
		return
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.BranchIngredientStock{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Ingredient{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted"})
}
