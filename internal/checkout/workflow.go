// Package checkout turns a register cart into a recorded sale and deducts the
// ingredients its recipes consume from the branch's stock.
package checkout

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cart"
	"go-coffee-pos/internal/logger"
)

// RecipeLine is one ingredient requirement of a product.
type RecipeLine struct {
	IngredientID     uint
	QuantityRequired float64
}

// Consumption is the amount of one ingredient a sale uses up.
type Consumption struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
}

// Draft is everything written when a sale is committed.
type Draft struct {
	BranchID        uint
	UserID          uint
	PaymentMethodID uint
	Total           float64
	SoldAt          time.Time
	Lines           []cart.Line
	Consume         []Consumption
}

// Store is the data access the workflow needs. Commit must write the sale,
// its items and every stock decrement atomically, failing with
// *InsufficientStockError if a decrement would take stock below zero.
type Store interface {
	RecipeLines(ctx context.Context, productID uint) ([]RecipeLine, error)
	BranchStock(ctx context.Context, branchID, ingredientID uint) (level float64, found bool, err error)
	IngredientNames(ctx context.Context, ids []uint) (map[uint]string, error)
	PaymentMethodID(ctx context.Context, name string) (uint, error)
	Profile(ctx context.Context, userID uint) (prof Profile, found bool, err error)
	Commit(ctx context.Context, d Draft) (saleID uint, err error)
}

// Profile is the stored user a checkout is authorized against. The token
// only says who is asking; role and branch come from here.
type Profile struct {
	Role     auth.Role
	BranchID uint
	FullName string
}

// Request is one checkout attempt from a register.
type Request struct {
	Principal     *auth.Principal
	PaymentMethod string
	Lines         []cart.Line
}

// Receipt describes a committed sale.
type Receipt struct {
	SaleID        uint          `json:"sale_id"`
	BranchID      uint          `json:"branch_id"`
	Total         float64       `json:"total"`
	CashierName   string        `json:"cashier_name"`
	PaymentMethod string        `json:"payment_method"`
	Items         []cart.Line   `json:"items"`
	Consumed      []Consumption `json:"consumed"`
	SoldAt        time.Time     `json:"sold_at"`
}

// Workflow completes orders. It is not idempotent: completing the same cart
// twice records two sales and deducts stock twice.
type Workflow struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Workflow {
	return &Workflow{store: store, now: time.Now}
}

// Complete runs the checkout. Checks happen in a fixed order and nothing is
// written until all of them pass.
func (w *Workflow) Complete(ctx context.Context, req Request) (*Receipt, error) {
	log := logger.FromContext(ctx)

	// 1. Authentication
	p := req.Principal
	if p == nil || p.UserID == 0 {
		return nil, ErrSessionInvalid
	}

	// 2. Authorization, first on the token's role
	if !p.Role.CanCheckout() {
		log.Warn("checkout rejected", "user_id", p.UserID, "role", p.Role)
		return nil, ErrNotAuthorized
	}

	// 3. Cart contents
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	// 4. Stored profile. A user deleted or demoted since login is rejected
	// here even though their token is still valid.
	prof, found, err := w.store.Profile(ctx, p.UserID)
	if err != nil {
		return nil, processing("read profile", err)
	}
	if !found {
		log.Warn("checkout rejected, profile missing", "user_id", p.UserID)
		return nil, ErrSessionInvalid
	}
	if !prof.Role.CanCheckout() {
		log.Warn("checkout rejected", "user_id", p.UserID, "role", prof.Role, "token_role", p.Role)
		return nil, ErrNotAuthorized
	}
	branchID := p.BranchID
	if prof.Role != auth.RoleAdmin || branchID == 0 {
		branchID = prof.BranchID
	}
	if branchID == 0 {
		return nil, ErrNoBranch
	}

	// 5. Ingredient consumption
	required, err := RequiredStock(ctx, w.store, req.Lines)
	if err != nil {
		return nil, err
	}
	ids := sortedIDs(required)

	names, err := w.store.IngredientNames(ctx, ids)
	if err != nil {
		// Names only decorate error messages.
		log.Warn("ingredient names unavailable", "error", err)
		names = map[uint]string{}
	}

	// 6. Stock sufficiency
	for _, id := range ids {
		level, _, err := w.store.BranchStock(ctx, branchID, id)
		if err != nil {
			return nil, processing("read branch stock", err)
		}
		if level < required[id] {
			return nil, &InsufficientStockError{
				IngredientID: id,
				Ingredient:   names[id],
				Required:     required[id],
				Available:    level,
			}
		}
	}

	// 7. Payment method and cashier
	pmID, err := w.store.PaymentMethodID(ctx, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, ErrPaymentMethodNotFound) {
			return nil, err
		}
		return nil, processing("resolve payment method", err)
	}
	cashier := cashierName(p, prof)

	// 8. Persist sale, items and stock decrements
	var total float64
	for _, l := range req.Lines {
		total += l.Subtotal()
	}
	consume := make([]Consumption, 0, len(ids))
	for _, id := range ids {
		consume = append(consume, Consumption{IngredientID: id, Name: names[id], Amount: required[id]})
	}
	draft := Draft{
		BranchID:        branchID,
		UserID:          p.UserID,
		PaymentMethodID: pmID,
		Total:           total,
		SoldAt:          w.now(),
		Lines:           req.Lines,
		Consume:         consume,
	}

	saleID, err := w.store.Commit(ctx, draft)
	if err != nil {
		var short *InsufficientStockError
		if errors.As(err, &short) {
			if short.Ingredient == "" {
				short.Ingredient = names[short.IngredientID]
			}
			return nil, short
		}
		return nil, processing("save sale", err)
	}

	log.Info("sale completed",
		"sale_id", saleID,
		"branch_id", branchID,
		"cashier", cashier,
		"total", total,
		"lines", len(req.Lines),
	)

	return &Receipt{
		SaleID:        saleID,
		BranchID:      branchID,
		Total:         total,
		CashierName:   cashier,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Lines,
		Consumed:      consume,
		SoldAt:        draft.SoldAt,
	}, nil
}

// RequiredStock sums quantity_required * line quantity per ingredient across
// every cart line. Recipes are fetched one product at a time.
func RequiredStock(ctx context.Context, store Store, lines []cart.Line) (map[uint]float64, error) {
	required := make(map[uint]float64)
	for _, l := range lines {
		recipe, err := store.RecipeLines(ctx, l.ProductID)
		if err != nil {
			return nil, processing("read recipe", err)
		}
		for _, r := range recipe {
			required[r.IngredientID] += r.QuantityRequired * float64(l.Quantity)
		}
	}
	return required, nil
}

// cashierName prefers the stored full name, then the e-mail local part, then
// a generic label.
func cashierName(p *auth.Principal, prof Profile) string {
	if prof.FullName != "" {
		return prof.FullName
	}
	if p.FullName != "" {
		return p.FullName
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	return "Sistem"
}

func sortedIDs(m map[uint]float64) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
