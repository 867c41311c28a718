package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrSessionInvalid        = errors.New("session invalid, please sign in again")
	ErrNotAuthorized         = errors.New("not authorized to complete sales")
	ErrEmptyCart             = errors.New("cart is empty, add items to cart")
	ErrNoBranch              = errors.New("no branch selected for this register")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrInvalidQuantity       = errors.New("cart line quantity must be positive")

	// ErrProcessing wraps any store failure during the workflow.
	ErrProcessing = errors.New("order could not be processed")
)

// InsufficientStockError names the ingredient that blocked the sale.
type InsufficientStockError struct {
	IngredientID uint
	Ingredient   string
	Required     float64
	Available    float64
}

func (e *InsufficientStockError) Error() string {
	name := e.Ingredient
	if name == "" {
		name = fmt.Sprintf("ingredient #%d", e.IngredientID)
	}
	return fmt.Sprintf("insufficient stock (%s): required %g, available %g", name, e.Required, e.Available)
}

func processing(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProcessing, step, err)
}
