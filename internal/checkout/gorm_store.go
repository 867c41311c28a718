package checkout

import (
	"context"
	"errors"
	"fmt"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/models"

	"gorm.io/gorm"
)

// GormStore is the Store backed by the application database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) RecipeLines(ctx context.Context, productID uint) ([]RecipeLine, error) {
	var rows []models.ProductIngredient
	if err := s.db.WithContext(ctx).Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]RecipeLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, RecipeLine{IngredientID: r.IngredientID, QuantityRequired: r.QuantityRequired})
	}
	return out, nil
}

func (s *GormStore) BranchStock(ctx context.Context, branchID, ingredientID uint) (float64, bool, error) {
	var row models.BranchIngredientStock
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND ingredient_id = ?", branchID, ingredientID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.StockLevel, true, nil
}

func (s *GormStore) IngredientNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Ingredient
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}

func (s *GormStore) PaymentMethodID(ctx context.Context, name string) (uint, error) {
	var pm models.PaymentMethod
	err := s.db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&pm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrPaymentMethodNotFound
	}
	if err != nil {
		return 0, err
	}
	return pm.ID, nil
}

// Profile reads the user row fresh on every checkout. An unrecognised stored
// role comes back as-is and fails CanCheckout.
func (s *GormStore) Profile(ctx context.Context, userID uint) (Profile, bool, error) {
	var u models.User
	err := s.db.WithContext(ctx).Select("id", "full_name", "role", "assigned_branch_id").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}
	prof := Profile{Role: auth.Role(u.Role), FullName: u.FullName}
	if u.AssignedBranchID != nil {
		prof.BranchID = *u.AssignedBranchID
	}
	return prof, true, nil
}

// Commit writes the sale header, its items and the stock decrements in one
// transaction. Each decrement is conditional on enough stock being left, so
// two registers selling from the same branch cannot drive stock negative.
func (s *GormStore) Commit(ctx context.Context, d Draft) (uint, error) {
	items := make([]models.SaleItem, 0, len(d.Lines))
	for _, l := range d.Lines {
		items = append(items, models.SaleItem{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			PriceAtSale: l.Price,
		})
	}
	sale := models.Sale{
		BranchID:        d.BranchID,
		UserID:          d.UserID,
		PaymentMethodID: d.PaymentMethodID,
		TotalAmount:     d.Total,
		SaleTime:        d.SoldAt,
		Items:           items, // GORM inserts these with the header
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for _, c := range d.Consume {
			if c.Amount <= 0 {
				continue
			}
			res := tx.Model(&models.BranchIngredientStock{}).
				Where("branch_id = ? AND ingredient_id = ? AND stock_level >= ?", d.BranchID, c.IngredientID, c.Amount).
				Update("stock_level", gorm.Expr("stock_level - ?", c.Amount))
			if res.Error != nil {
				return fmt.Errorf("decrement stock for ingredient %d: %w", c.IngredientID, res.Error)
			}
			if res.RowsAffected == 0 {
				var row models.BranchIngredientStock
				available := 0.0
				if err := tx.Where("branch_id = ? AND ingredient_id = ?", d.BranchID, c.IngredientID).First(&row).Error; err == nil {
					available = row.StockLevel
				}
				return &InsufficientStockError{
					IngredientID: c.IngredientID,
					Ingredient:   c.Name,
					Required:     c.Amount,
					Available:    available,
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sale.ID, nil
}
