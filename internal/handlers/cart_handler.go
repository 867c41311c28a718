package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cart"
	"go-coffee-pos/internal/checkout"
	"go-coffee-pos/internal/live"
	"go-coffee-pos/internal/logger"
	"go-coffee-pos/internal/metrics"
	"go-coffee-pos/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) cartSummary(userID uint) cart.Summary {
	var s cart.Summary
	h.Carts.With(userID, func(c *cart.Cart) { s = c.Summary() })
	return s
}

// --- GET: /api/cart ---
func (h *Handler) GetCart(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, h.cartSummary(p.UserID))
}

type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// --- POST: /api/cart/items ---
// Adds one unit of an active product.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	product, err := h.Catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	p := middleware.CurrentPrincipal(c)
	var s cart.Summary
	h.Carts.With(p.UserID, func(crt *cart.Cart) {
		crt.Add(cart.Item{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
		})
		s = crt.Summary()
	})
	c.JSON(http.StatusOK, s)
}

// --- DELETE: /api/cart/items/:productId ---
// Removes one unit; unknown products are ignored.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	p := middleware.CurrentPrincipal(c)
	var s cart.Summary
	h.Carts.With(p.UserID, func(crt *cart.Cart) {
		crt.Remove(uint(id))
		s = crt.Summary()
	})
	c.JSON(http.StatusOK, s)
}

// --- DELETE: /api/cart ---
func (h *Handler) ClearCart(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	h.Carts.With(p.UserID, func(crt *cart.Cart) { crt.Clear() })
	c.JSON(http.StatusOK, h.cartSummary(p.UserID))
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	// BranchID lets an admin ring up a sale at a branch other than their own.
	BranchID uint `json:"branch_id"`
}

// --- POST: /api/checkout ---
// Completes the caller's cart. The sold lines leave the cart only when the
// sale is recorded; on any failure it is left as it was.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	// An empty body still reaches the workflow so an empty cart reports itself.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	principal := middleware.CurrentPrincipal(c)
	if principal != nil && req.BranchID != 0 && principal.Role == auth.RoleAdmin {
		if _, err := h.checkBranch(c, &req.BranchID); err != nil {
			respondError(c, err)
			return
		}
		scoped := *principal
		scoped.BranchID = req.BranchID
		principal = &scoped
	}

	var lines []cart.Line
	if principal != nil {
		lines = h.Carts.Snapshot(principal.UserID)
	}

	receipt, err := h.Orders.Complete(c.Request.Context(), checkout.Request{
		Principal:     principal,
		PaymentMethod: trimmed(req.PaymentMethod),
		Lines:         lines,
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(checkoutOutcome(err)).Inc()
		respondError(c, err)
		return
	}

	// Only what was sold leaves the cart.
	h.Carts.With(principal.UserID, func(crt *cart.Cart) { crt.Subtract(lines) })

	metrics.CheckoutsTotal.WithLabelValues("completed").Inc()
	metrics.SalesAmount.WithLabelValues(strconv.FormatUint(uint64(receipt.BranchID), 10)).Add(receipt.Total)
	if h.Hub != nil {
		h.Hub.Publish(live.SaleEvent{
			BranchID: receipt.BranchID,
			SaleID:   receipt.SaleID,
			Total:    receipt.Total,
			Items:    len(receipt.Items),
			SoldAt:   receipt.SoldAt,
		})
	}
	logger.FromContext(c.Request.Context()).Debug("sold lines removed from cart", "sale_id", receipt.SaleID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale successful!",
		"receipt": receipt,
	})
}

func checkoutOutcome(err error) string {
	var stock *checkout.InsufficientStockError
	switch {
	case errors.Is(err, checkout.ErrSessionInvalid), errors.Is(err, checkout.ErrNotAuthorized):
		return "unauthorized"
	case errors.Is(err, checkout.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &stock):
		return "insufficient_stock"
	}
	return "failed"
}
