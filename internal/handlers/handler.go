// Package handlers is the gin HTTP surface of the register and back office.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-coffee-pos/internal/ai"
	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cart"
	"go-coffee-pos/internal/catalog"
	"go-coffee-pos/internal/checkout"
	"go-coffee-pos/internal/live"
	"go-coffee-pos/internal/logger"
	"go-coffee-pos/internal/middleware"
	"go-coffee-pos/internal/reports"
	"go-coffee-pos/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the handlers call into.
type Deps struct {
	DB       *gorm.DB
	Tokens   *auth.Tokens
	Catalog  *catalog.Reader
	Carts    *cart.Store
	Orders   *checkout.Workflow
	Reports  *reports.Service
	Storage  storage.Disk
	Hub      *live.Hub
	Agent    *ai.Agent

	AllowRegistration bool
	Now               func() time.Time
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Carts == nil {
		d.Carts = cart.NewStore()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{Deps: d}
}

var (
	errNotFound = errors.New("record not found")
	errNoBranch = errors.New("select a branch first")
)

// validationError is a bad request body or parameter.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(msg string) error { return &validationError{msg: msg} }

// conflictError blocks a write that would break a reference.
type conflictError struct{ msg string }

func (e *conflictError) Error() string { return e.msg }

func conflict(msg string) error { return &conflictError{msg: msg} }

// respondError maps domain errors to a status and a JSON body.
func respondError(c *gin.Context, err error) {
	var (
		ve    *validationError
		ce    *conflictError
		stock *checkout.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.msg})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.msg})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{
			"error":         stock.Error(),
			"ingredient_id": stock.IngredientID,
			"ingredient":    stock.Ingredient,
			"required":      stock.Required,
			"available":     stock.Available,
		})
	case errors.Is(err, errNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errNotFound.Error()})
	case errors.Is(err, checkout.ErrSessionInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrNoBranch),
		errors.Is(err, checkout.ErrPaymentMethodNotFound),
		errors.Is(err, errNoBranch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrProcessing):
		logger.FromContext(c.Request.Context()).Error("checkout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, invalid("invalid " + name)
	}
	return uint(id), nil
}

// branchScope resolves the branch a staff request works on. Admins may pick
// any branch with ?branch_id= (0 meaning all where the endpoint allows it);
// everyone else is pinned to the branch on their token.
func branchScope(c *gin.Context) (uint, error) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return 0, checkout.ErrSessionInvalid
	}
	raw := strings.TrimSpace(c.Query("branch_id"))
	if raw == "" {
		return p.BranchID, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalid("invalid branch_id")
	}
	if p.Role == auth.RoleAdmin {
		return uint(id), nil
	}
	if uint(id) != p.BranchID {
		return 0, checkout.ErrNotAuthorized
	}
	return p.BranchID, nil
}

// period reads ?from=YYYY-MM-DD&to=YYYY-MM-DD (both inclusive). Missing
// bounds default to today.
func period(c *gin.Context, now time.Time) (reports.Period, error) {
	today := reports.StartOfDay(now)
	from, to := today, today

	if s := c.Query("from"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return reports.Period{}, invalid("from must be YYYY-MM-DD")
		}
		from = d
	}
	if s := c.Query("to"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return reports.Period{}, invalid("to must be YYYY-MM-DD")
		}
		to = d
	}
	if to.Before(from) {
		return reports.Period{}, invalid("to is before from")
	}
	return reports.Period{From: from, To: to.AddDate(0, 0, 1)}, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
