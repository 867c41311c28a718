package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records every call so tests can assert nothing was touched.
type fakeStore struct {
	recipes  map[uint][]RecipeLine
	stock    map[uint]float64 // ingredient id -> level for branch 1
	names    map[uint]string
	payments map[string]uint
	profiles map[uint]Profile

	calls     []string
	committed []Draft
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		recipes:  map[uint][]RecipeLine{},
		stock:    map[uint]float64{},
		names:    map[uint]string{},
		payments: map[string]uint{"Kredi Kartı": 1, "Nakit": 2},
		profiles: map[uint]Profile{
			10: {Role: auth.RoleCashier, BranchID: 1},
		},
	}
}

func (f *fakeStore) RecipeLines(_ context.Context, productID uint) ([]RecipeLine, error) {
	f.calls = append(f.calls, "RecipeLines")
	return f.recipes[productID], nil
}

func (f *fakeStore) BranchStock(_ context.Context, _ uint, ingredientID uint) (float64, bool, error) {
	f.calls = append(f.calls, "BranchStock")
	level, ok := f.stock[ingredientID]
	return level, ok, nil
}

func (f *fakeStore) IngredientNames(_ context.Context, ids []uint) (map[uint]string, error) {
	f.calls = append(f.calls, "IngredientNames")
	out := map[uint]string{}
	for _, id := range ids {
		out[id] = f.names[id]
	}
	return out, nil
}

func (f *fakeStore) PaymentMethodID(_ context.Context, name string) (uint, error) {
	f.calls = append(f.calls, "PaymentMethodID")
	id, ok := f.payments[name]
	if !ok {
		return 0, ErrPaymentMethodNotFound
	}
	return id, nil
}

func (f *fakeStore) Profile(_ context.Context, userID uint) (Profile, bool, error) {
	f.calls = append(f.calls, "Profile")
	prof, ok := f.profiles[userID]
	return prof, ok, nil
}

func (f *fakeStore) Commit(_ context.Context, d Draft) (uint, error) {
	f.calls = append(f.calls, "Commit")
	if f.commitErr != nil {
		return 0, f.commitErr
	}
	f.committed = append(f.committed, d)
	for _, c := range d.Consume {
		f.stock[c.IngredientID] -= c.Amount
	}
	return uint(len(f.committed)), nil
}

func cashier() *auth.Principal {
	return &auth.Principal{UserID: 10, Email: "mehmet@kahve.test", Role: auth.RoleCashier, BranchID: 1}
}

func line(id uint, name string, price float64, qty int) cart.Line {
	return cart.Line{Item: cart.Item{ProductID: id, Name: name, Price: price}, Quantity: qty}
}

func TestRequiredStockAccumulatesSharedIngredient(t *testing.T) {
	const milk = 100
	store := newFakeStore()
	store.recipes[1] = []RecipeLine{{IngredientID: milk, QuantityRequired: 2}}
	store.recipes[2] = []RecipeLine{{IngredientID: milk, QuantityRequired: 1}, {IngredientID: 200, QuantityRequired: 0.5}}

	required, err := RequiredStock(context.Background(), store, []cart.Line{
		line(1, "A", 10, 3),
		line(2, "B", 12, 2),
	})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, required[milk], 1e-9)
	assert.InDelta(t, 1.0, required[200], 1e-9)
}

func TestRejectsBeforeTouchingStore(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"no session", Request{Lines: []cart.Line{line(1, "A", 1, 1)}}, ErrSessionInvalid},
		{"branch manager", Request{
			Principal: &auth.Principal{UserID: 3, Role: auth.RoleBranchManager, BranchID: 1},
			Lines:     []cart.Line{line(1, "A", 1, 1)},
		}, ErrNotAuthorized},
		{"unknown role", Request{
			Principal: &auth.Principal{UserID: 3, Role: auth.Role("barista"), BranchID: 1},
			Lines:     []cart.Line{line(1, "A", 1, 1)},
		}, ErrNotAuthorized},
		{"empty cart", Request{Principal: cashier()}, ErrEmptyCart},
		{"zero quantity", Request{Principal: cashier(), Lines: []cart.Line{line(1, "A", 1, 0)}}, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			_, err := New(store).Complete(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, store.calls)
		})
	}
}

func TestInsufficientStockAbortsWithoutWrites(t *testing.T) {
	const beans = 7
	store := newFakeStore()
	store.recipes[1] = []RecipeLine{{IngredientID: beans, QuantityRequired: 6}}
	store.stock[beans] = 5
	store.names[beans] = "Espresso Beans"

	_, err := New(store).Complete(context.Background(), Request{
		Principal:     cashier(),
		PaymentMethod: "Nakit",
		Lines:         []cart.Line{line(1, "Double Espresso", 55, 1)},
	})

	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "Espresso Beans", short.Ingredient)
	assert.Equal(t, 6.0, short.Required)
	assert.Equal(t, 5.0, short.Available)
	assert.Contains(t, err.Error(), "Espresso Beans")
	assert.NotContains(t, store.calls, "Commit")
	assert.NotContains(t, store.calls, "PaymentMethodID")
	assert.Equal(t, 5.0, store.stock[beans])
}

func TestMissingStockRowCountsAsZero(t *testing.T) {
	store := newFakeStore()
	store.recipes[1] = []RecipeLine{{IngredientID: 9, QuantityRequired: 1}}

	_, err := New(store).Complete(context.Background(), Request{
		Principal:     cashier(),
		PaymentMethod: "Nakit",
		Lines:         []cart.Line{line(1, "Mocha", 70, 1)},
	})
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Zero(t, short.Available)
	assert.Contains(t, err.Error(), "ingredient #9")
}

func TestUnknownPaymentMethod(t *testing.T) {
	store := newFakeStore()
	_, err := New(store).Complete(context.Background(), Request{
		Principal:     cashier(),
		PaymentMethod: "Bitcoin",
		Lines:         []cart.Line{line(1, "Tea", 20, 1)},
	})
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)
	assert.NotContains(t, store.calls, "Commit")
}

func TestCompleteCommitsDraft(t *testing.T) {
	const milk, beans = 1, 2
	store := newFakeStore()
	store.recipes[10] = []RecipeLine{{IngredientID: milk, QuantityRequired: 2}, {IngredientID: beans, QuantityRequired: 1}}
	store.recipes[11] = []RecipeLine{{IngredientID: milk, QuantityRequired: 1}}
	store.stock[milk] = 20
	store.stock[beans] = 10
	store.names[milk] = "Milk"
	store.profiles[10] = Profile{Role: auth.RoleCashier, BranchID: 1, FullName: "Mehmet Yılmaz"}

	w := New(store)
	fixed := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	lines := []cart.Line{line(10, "Latte", 65, 3), line(11, "Cortado", 55, 2)}
	receipt, err := w.Complete(context.Background(), Request{
		Principal:     cashier(),
		PaymentMethod: "Kredi Kartı",
		Lines:         lines,
	})
	require.NoError(t, err)
	require.Len(t, store.committed, 1)

	d := store.committed[0]
	assert.Equal(t, uint(1), d.BranchID)
	assert.Equal(t, uint(10), d.UserID)
	assert.Equal(t, uint(1), d.PaymentMethodID)
	assert.InDelta(t, 305.0, d.Total, 1e-9)
	assert.Equal(t, fixed, d.SoldAt)
	assert.Len(t, d.Lines, 2)
	require.Len(t, d.Consume, 2)
	assert.Equal(t, Consumption{IngredientID: milk, Name: "Milk", Amount: 8}, d.Consume[0])

	assert.Equal(t, "Mehmet Yılmaz", receipt.CashierName)
	assert.Equal(t, 12.0, store.stock[milk])
	assert.Equal(t, 7.0, store.stock[beans])
}

func TestCompleteIsNotIdempotent(t *testing.T) {
	store := newFakeStore()
	store.recipes[1] = []RecipeLine{{IngredientID: 1, QuantityRequired: 1}}
	store.stock[1] = 10
	req := Request{Principal: cashier(), PaymentMethod: "Nakit", Lines: []cart.Line{line(1, "Tea", 20, 2)}}

	w := New(store)
	_, err := w.Complete(context.Background(), req)
	require.NoError(t, err)
	_, err = w.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, store.committed, 2)
	assert.Equal(t, 6.0, store.stock[1])
}

func TestCashierNameFallbacks(t *testing.T) {
	p := cashier()
	assert.Equal(t, "mehmet", cashierName(p, Profile{}))
	assert.Equal(t, "Sistem", cashierName(&auth.Principal{UserID: 4}, Profile{}))

	named := *p
	named.FullName = "Zeynep"
	assert.Equal(t, "Zeynep", cashierName(&named, Profile{}))
	assert.Equal(t, "Zeynep Kaya", cashierName(&named, Profile{FullName: "Zeynep Kaya"}))
}

func TestStoredProfileOverridesToken(t *testing.T) {
	req := func(p *auth.Principal) Request {
		return Request{Principal: p, PaymentMethod: "Nakit", Lines: []cart.Line{line(1, "Tea", 20, 1)}}
	}

	t.Run("user deleted after login", func(t *testing.T) {
		store := newFakeStore()
		delete(store.profiles, 10)
		_, err := New(store).Complete(context.Background(), req(cashier()))
		assert.ErrorIs(t, err, ErrSessionInvalid)
		assert.Equal(t, []string{"Profile"}, store.calls)
	})

	t.Run("cashier demoted after login", func(t *testing.T) {
		store := newFakeStore()
		store.profiles[10] = Profile{Role: auth.RoleBranchManager, BranchID: 1}
		_, err := New(store).Complete(context.Background(), req(cashier()))
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.Equal(t, []string{"Profile"}, store.calls)
	})

	t.Run("unknown stored role", func(t *testing.T) {
		store := newFakeStore()
		store.profiles[10] = Profile{Role: auth.Role("barista"), BranchID: 1}
		_, err := New(store).Complete(context.Background(), req(cashier()))
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("cashier moved to another branch", func(t *testing.T) {
		store := newFakeStore()
		store.profiles[10] = Profile{Role: auth.RoleCashier, BranchID: 2}
		receipt, err := New(store).Complete(context.Background(), req(cashier()))
		require.NoError(t, err)
		assert.Equal(t, uint(2), receipt.BranchID)
		assert.Equal(t, uint(2), store.committed[0].BranchID)
	})

	t.Run("admin keeps the requested branch", func(t *testing.T) {
		store := newFakeStore()
		store.profiles[1] = Profile{Role: auth.RoleAdmin, BranchID: 1}
		receipt, err := New(store).Complete(context.Background(), req(&auth.Principal{UserID: 1, Role: auth.RoleAdmin, BranchID: 3}))
		require.NoError(t, err)
		assert.Equal(t, uint(3), receipt.BranchID)
	})

	t.Run("no branch anywhere", func(t *testing.T) {
		store := newFakeStore()
		store.profiles[1] = Profile{Role: auth.RoleAdmin}
		_, err := New(store).Complete(context.Background(), req(&auth.Principal{UserID: 1, Role: auth.RoleAdmin}))
		assert.ErrorIs(t, err, ErrNoBranch)
		assert.NotContains(t, store.calls, "RecipeLines")
	})
}

func TestCommitFailureIsProcessingError(t *testing.T) {
	store := newFakeStore()
	store.commitErr = errors.New("connection reset")
	_, err := New(store).Complete(context.Background(), Request{
		Principal:     cashier(),
		PaymentMethod: "Nakit",
		Lines:         []cart.Line{line(1, "Tea", 20, 1)},
	})
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Contains(t, err.Error(), "connection reset")
}
