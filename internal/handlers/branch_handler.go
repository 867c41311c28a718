package handlers

import (
	"errors"
	"net/http"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/checkout"
	"go-coffee-pos/internal/middleware"
	"go-coffee-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (h *Handler) ListBranches(c *gin.Context) {
	var branches []models.Branch
	if err := h.DB.WithContext(c.Request.Context()).Order("name asc").Find(&branches).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

type BranchInput struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func bindBranch(c *gin.Context) (BranchInput, error) {
	var in BranchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, invalid("Branch name is required")
	}
	if in.Name = trimmed(in.Name); in.Name == "" {
		return in, invalid("Branch name is required")
	}
	return in, nil
}

func (h *Handler) CreateBranch(c *gin.Context) {
	in, err := bindBranch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	branch := models.Branch{Name: in.Name, Address: trimmed(in.Address), Phone: trimmed(in.Phone)}
	if err := h.DB.WithContext(c.Request.Context()).Create(&branch).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func (h *Handler) UpdateBranch(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	in, err := bindBranch(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var branch models.Branch
	if err := h.DB.WithContext(ctx).First(&branch, id).Error; err != nil {
		respondError(c, err)
		return
	}
	branch.Name, branch.Address, branch.Phone = in.Name, trimmed(in.Address), trimmed(in.Phone)
	if err := h.DB.WithContext(ctx).Save(&branch).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

// DeleteBranch refuses while the branch holds stock rows or has sales.
func (h *Handler) DeleteBranch(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	var stockRows, sales int64
	if err := h.DB.WithContext(ctx).Model(&models.BranchIngredientStock{}).Where("branch_id = ?", id).Count(&stockRows).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.DB.WithContext(ctx).Model(&models.Sale{}).Where("branch_id = ?", id).Count(&sales).Error; err != nil {
		respondError(c, err)
		return
	}
	if stockRows > 0 || sales > 0 {
		respondError(c, conflict("This branch has stock records or sales and cannot be deleted."))
		return
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("assigned_branch_id = ?", id).Update("assigned_branch_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Branch{}, id)
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
	c.JSON(http.StatusOK, gin.H{"message": "Branch deleted"})
}

// stockBranch resolves :id for stock routes. Branch managers only reach
// their own branch.
func stockBranch(c *gin.Context) (uint, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return 0, err
	}
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return 0, checkout.ErrSessionInvalid
	}
	if p.Role != auth.RoleAdmin && p.BranchID != id {
		return 0, checkout.ErrNotAuthorized
	}
	return id, nil
}

// --- GET: /api/branches/:id/stock ---
func (h *Handler) BranchStock(c *gin.Context) {
	branchID, err := stockBranch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.Reports.StockReport(c.Request.Context(), branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type StockLevelInput struct {
	StockLevel *float64 `json:"stock_level" binding:"required"`
}

// --- PUT: /api/branches/:id/stock/:ingredientId ---
// Sets the level after a count, creating the row if needed.
func (h *Handler) SetBranchStock(c *gin.Context) {
	branchID, err := stockBranch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ingredientID, err := idParam(c, "ingredientId")
	if err != nil {
		respondError(c, err)
		return
	}
	var in StockLevelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock_level is required"})
		return
	}
	if *in.StockLevel < 0 {
		respondError(c, invalid("Stock level cannot be negative"))
		return
	}
	if err := h.requireStockTargets(c, branchID, ingredientID); err != nil {
		respondError(c, err)
		return
	}

	row := models.BranchIngredientStock{BranchID: branchID, IngredientID: ingredientID, StockLevel: *in.StockLevel}
	err = h.DB.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}, {Name: "ingredient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stock_level", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		respondError(c, err)
		return
	}
	h.stockRow(c, branchID, ingredientID)
}

type StockAdjustInput struct {
	Delta float64 `json:"delta" binding:"required"`
}

// --- POST: /api/branches/:id/stock/:ingredientId/adjust ---
// Adds a delivery (positive) or a write-off (negative). The level may not go
// below zero.
func (h *Handler) AdjustBranchStock(c *gin.Context) {
	branchID, err := stockBranch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ingredientID, err := idParam(c, "ingredientId")
	if err != nil {
		respondError(c, err)
		return
	}
	var in StockAdjustInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-zero delta is required"})
		return
	}
	if err := h.requireStockTargets(c, branchID, ingredientID); err != nil {
		respondError(c, err)
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BranchIngredientStock{}).
			Where("branch_id = ? AND ingredient_id = ? AND stock_level + ? >= 0", branchID, ingredientID, in.Delta).
			Update("stock_level", gorm.Expr("stock_level + ?", in.Delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var existing models.BranchIngredientStock
		err := tx.Where("branch_id = ? AND ingredient_id = ?", branchID, ingredientID).First(&existing).Error
		if err == nil {
			return invalid("Adjustment would take stock below zero")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if in.Delta < 0 {
			return invalid("Adjustment would take stock below zero")
		}
		return tx.Create(&models.BranchIngredientStock{BranchID: branchID, IngredientID: ingredientID, StockLevel: in.Delta}).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.stockRow(c, branchID, ingredientID)
}

func (h *Handler) requireStockTargets(c *gin.Context, branchID, ingredientID uint) error {
	ctx := c.Request.Context()
	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.Branch{}).Where("id = ?", branchID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	if err := h.DB.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", ingredientID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func (h *Handler) stockRow(c *gin.Context, branchID, ingredientID uint) {
	var row models.BranchIngredientStock
	err := h.DB.WithContext(c.Request.Context()).Preload("Ingredient").
		Where("branch_id = ? AND ingredient_id = ?", branchID, ingredientID).
		First(&row).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
