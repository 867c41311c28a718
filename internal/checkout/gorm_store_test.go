package checkout

import (
	"context"
	"errors"
	"testing"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cart"
	"go-coffee-pos/internal/database/dbtest"
	"go-coffee-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type shop struct {
	branch   models.Branch
	latte    models.Product
	espresso models.Product
	milk     models.Ingredient
	beans    models.Ingredient
	cashier  models.User
}

func seedShop(t *testing.T, db *gorm.DB, milkLevel, beansLevel float64) shop {
	t.Helper()
	var s shop
	s.branch = models.Branch{Name: "Kadıköy"}
	require.NoError(t, db.Create(&s.branch).Error)
	require.NoError(t, db.Create(&models.PaymentMethod{Name: "Nakit", IsActive: true}).Error)

	s.milk = models.Ingredient{Name: "Milk", Unit: "ml"}
	s.beans = models.Ingredient{Name: "Espresso Beans", Unit: "g"}
	require.NoError(t, db.Create(&s.milk).Error)
	require.NoError(t, db.Create(&s.beans).Error)

	s.latte = models.Product{Name: "Latte", Price: 65, IsActive: true}
	s.espresso = models.Product{Name: "Espresso", Price: 45, IsActive: true}
	require.NoError(t, db.Create(&s.latte).Error)
	require.NoError(t, db.Create(&s.espresso).Error)

	require.NoError(t, db.Create(&[]models.ProductIngredient{
		{ProductID: s.latte.ID, IngredientID: s.milk.ID, QuantityRequired: 200},
		{ProductID: s.latte.ID, IngredientID: s.beans.ID, QuantityRequired: 18},
		{ProductID: s.espresso.ID, IngredientID: s.beans.ID, QuantityRequired: 18},
	}).Error)

	require.NoError(t, db.Create(&[]models.BranchIngredientStock{
		{BranchID: s.branch.ID, IngredientID: s.milk.ID, StockLevel: milkLevel},
		{BranchID: s.branch.ID, IngredientID: s.beans.ID, StockLevel: beansLevel},
	}).Error)

	s.cashier = models.User{Email: "ayse@kahve.test", FullName: "Ayşe Demir", Role: string(auth.RoleCashier), AssignedBranchID: &s.branch.ID}
	require.NoError(t, db.Create(&s.cashier).Error)
	return s
}

func (s shop) principal() *auth.Principal {
	return &auth.Principal{UserID: s.cashier.ID, Email: s.cashier.Email, Role: auth.RoleCashier, BranchID: s.branch.ID}
}

func level(t *testing.T, db *gorm.DB, branchID, ingredientID uint) float64 {
	t.Helper()
	var row models.BranchIngredientStock
	require.NoError(t, db.Where("branch_id = ? AND ingredient_id = ?", branchID, ingredientID).First(&row).Error)
	return row.StockLevel
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestGormCheckoutSuccess(t *testing.T) {
	db := dbtest.New(t)
	s := seedShop(t, db, 1000, 100)

	lines := []cart.Line{
		{Item: cart.Item{ProductID: s.latte.ID, Name: "Latte", Price: 65}, Quantity: 2},
		{Item: cart.Item{ProductID: s.espresso.ID, Name: "Espresso", Price: 45}, Quantity: 1},
	}
	receipt, err := New(NewGormStore(db)).Complete(context.Background(), Request{
		Principal:     s.principal(),
		PaymentMethod: "Nakit",
		Lines:         lines,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Demir", receipt.CashierName)

	assert.Equal(t, int64(1), count(t, db, &models.Sale{}))
	assert.Equal(t, int64(len(lines)), count(t, db, &models.SaleItem{}))

	var sale models.Sale
	require.NoError(t, db.Preload("Items").First(&sale, receipt.SaleID).Error)
	assert.InDelta(t, 175.0, sale.TotalAmount, 1e-9)
	assert.Equal(t, s.branch.ID, sale.BranchID)
	assert.Equal(t, s.cashier.ID, sale.UserID)
	assert.Equal(t, 65.0, sale.Items[0].PriceAtSale)

	assert.Equal(t, 600.0, level(t, db, s.branch.ID, s.milk.ID))
	assert.Equal(t, 46.0, level(t, db, s.branch.ID, s.beans.ID))
}

func TestGormCheckoutInsufficientStockWritesNothing(t *testing.T) {
	db := dbtest.New(t)
	s := seedShop(t, db, 1000, 5)
	require.NoError(t, db.Model(&models.ProductIngredient{}).
		Where("product_id = ? AND ingredient_id = ?", s.espresso.ID, s.beans.ID).
		Update("quantity_required", 6).Error)

	_, err := New(NewGormStore(db)).Complete(context.Background(), Request{
		Principal:     s.principal(),
		PaymentMethod: "Nakit",
		Lines:         []cart.Line{{Item: cart.Item{ProductID: s.espresso.ID, Price: 45}, Quantity: 1}},
	})

	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "Espresso Beans", short.Ingredient)
	assert.Equal(t, 6.0, short.Required)
	assert.Equal(t, 5.0, short.Available)

	assert.Zero(t, count(t, db, &models.Sale{}))
	assert.Zero(t, count(t, db, &models.SaleItem{}))
	assert.Equal(t, 5.0, level(t, db, s.branch.ID, s.beans.ID))
}

func TestGormCommitRollsBackWhenDecrementFails(t *testing.T) {
	db := dbtest.New(t)
	s := seedShop(t, db, 100, 100)

	// Stock drained between the check and the commit.
	_, err := NewGormStore(db).Commit(context.Background(), Draft{
		BranchID:        s.branch.ID,
		UserID:          s.cashier.ID,
		PaymentMethodID: 1,
		Total:           65,
		Lines:           []cart.Line{{Item: cart.Item{ProductID: s.latte.ID, Price: 65}, Quantity: 1}},
		Consume: []Consumption{
			{IngredientID: s.beans.ID, Name: "Espresso Beans", Amount: 18},
			{IngredientID: s.milk.ID, Name: "Milk", Amount: 200},
		},
	})

	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, s.milk.ID, short.IngredientID)
	assert.Equal(t, 100.0, short.Available)

	assert.Zero(t, count(t, db, &models.Sale{}))
	assert.Zero(t, count(t, db, &models.SaleItem{}))
	assert.Equal(t, 100.0, level(t, db, s.branch.ID, s.beans.ID))
}

func TestGormPaymentMethodLookup(t *testing.T) {
	db := dbtest.New(t)
	seedShop(t, db, 1, 1)
	store := NewGormStore(db)

	id, err := store.PaymentMethodID(context.Background(), "Nakit")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = store.PaymentMethodID(context.Background(), "Kredi Kartı")
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)
}

func TestGormProfileReadsStoredUser(t *testing.T) {
	db := dbtest.New(t)
	s := seedShop(t, db, 1, 1)
	store := NewGormStore(db)

	prof, found, err := store.Profile(context.Background(), s.cashier.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Profile{Role: auth.RoleCashier, BranchID: s.branch.ID, FullName: "Ayşe Demir"}, prof)

	_, found, err = store.Profile(context.Background(), 9999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGormCheckoutRechecksProfile(t *testing.T) {
	db := dbtest.New(t)
	s := seedShop(t, db, 1000, 100)
	req := Request{
		Principal:     s.principal(),
		PaymentMethod: "Nakit",
		Lines:         []cart.Line{{Item: cart.Item{ProductID: s.espresso.ID, Price: 45}, Quantity: 1}},
	}
	w := New(NewGormStore(db))

	require.NoError(t, db.Model(&s.cashier).Update("role", string(auth.RoleBranchManager)).Error)
	_, err := w.Complete(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, db.Delete(&models.User{}, s.cashier.ID).Error)
	_, err = w.Complete(context.Background(), req)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	assert.Zero(t, count(t, db, &models.Sale{}))
	assert.Equal(t, 100.0, level(t, db, s.branch.ID, s.beans.ID))
}
